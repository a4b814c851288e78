// Package decision applies explicit HR business rules to every record of a
// dataset: salary bands, punch-in and punch-out checks, day status, leave
// approval, performance rating and increment, and a final employee status.
package decision

import (
	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/rulescout/internal/catalog"
)

// Thresholds holds the constants used by the per-record rules.
type Thresholds struct {
	SalaryHigh      float64 `json:"salary_high" yaml:"salary_high"`
	SalaryMedium    float64 `json:"salary_medium" yaml:"salary_medium"`
	FullDayHours    float64 `json:"full_day_hours" yaml:"full_day_hours"`
	HalfDayHours    float64 `json:"half_day_hours" yaml:"half_day_hours"`
	CasualMaxDays   float64 `json:"casual_max_days" yaml:"casual_max_days"`
	RatingExcellent float64 `json:"rating_excellent" yaml:"rating_excellent"`
	RatingGood      float64 `json:"rating_good" yaml:"rating_good"`
	// OfficeStart and OfficeEnd apply when the dataset has no office time
	// column or the cell is empty.
	OfficeStart string `json:"office_start" yaml:"office_start"`
	OfficeEnd   string `json:"office_end" yaml:"office_end"`

	IncrementExcellent int `json:"increment_excellent" yaml:"increment_excellent"`
	IncrementGood      int `json:"increment_good" yaml:"increment_good"`
	IncrementOther     int `json:"increment_other" yaml:"increment_other"`
}

// DefaultThresholds returns the stock HR policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SalaryHigh:         80000,
		SalaryMedium:       40000,
		FullDayHours:       8,
		HalfDayHours:       4,
		CasualMaxDays:      2,
		RatingExcellent:    4.5,
		RatingGood:         3.0,
		OfficeStart:        "09:00",
		OfficeEnd:          "18:00",
		IncrementExcellent: 20,
		IncrementGood:      10,
		IncrementOther:     0,
	}
}

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Thresholds *Thresholds
	Catalog    *catalog.Catalog
	Log        logrus.FieldLogger
}

// Engine runs the decision rules. It holds no per-dataset state and is safe
// for concurrent use.
type Engine struct {
	th  Thresholds
	cat catalog.Catalog
	log logrus.FieldLogger
}

// NewEngine builds an Engine from opt.
func NewEngine(opt Options) *Engine {
	e := &Engine{th: DefaultThresholds(), cat: catalog.Default(), log: opt.Log}
	if opt.Thresholds != nil {
		e.th = *opt.Thresholds
	}
	if opt.Catalog != nil {
		e.cat = *opt.Catalog
	}
	if e.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		e.log = l
	}
	return e
}

// Thresholds returns the thresholds in effect.
func (e *Engine) Thresholds() Thresholds { return e.th }
