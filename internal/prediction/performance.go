package prediction

import (
	"fmt"

	"github.com/KaramelBytes/rulescout/internal/dataset"
)

// Performance levels.
const (
	PerformanceExcellent        = "Excellent"
	PerformanceGood             = "Good"
	PerformanceNeedsImprovement = "Needs Improvement"
	PerformanceUnknown          = "Unknown"
)

// PerformancePrediction is the performance level of one record.
// IncrementPercentage is nil when the rating is missing.
type PerformancePrediction struct {
	RecordIndex         int            `json:"record_index"`
	EmployeeName        string         `json:"employee_name"`
	Rating              *float64       `json:"rating"`
	PerformanceLevel    string         `json:"performance_level"`
	IncrementPercentage *int           `json:"increment_percentage"`
	Explanation         string         `json:"explanation"`
	FullRecord          map[string]any `json:"full_record"`
}

// PerformanceStats aggregates ratings.
type PerformanceStats struct {
	HighestRating         *float64               `json:"highest_rating"`
	LowestRating          *float64               `json:"lowest_rating"`
	AverageRating         *float64               `json:"average_rating"`
	ExcellentCount        int                    `json:"excellent_count"`
	GoodCount             int                    `json:"good_count"`
	NeedsImprovementCount int                    `json:"needs_improvement_count"`
	HighestRecord         *PerformancePrediction `json:"highest_record,omitempty"`
}

// PerformanceReport is the performance category output.
type PerformanceReport struct {
	Predictions  []PerformancePrediction `json:"predictions"`
	Statistics   PerformanceStats        `json:"statistics"`
	BusinessRule string                  `json:"business_rule"`
	LogicFlow    LogicFlow               `json:"logic_flow"`
}

func (e *Engine) predictPerformance(ds *dataset.Dataset, cm CategoryMatch, names []string) *PerformanceReport {
	t := e.th
	col := cm.Columns[0]
	rule := fmt.Sprintf("IF rating >= %s → Excellent (%d%% increment) | IF rating >= %s → Good (%d%% increment) | ELSE → Needs Improvement (%d%% increment)",
		num(t.RatingExcellent), t.IncrementExcellent, num(t.RatingGood), t.IncrementGood, t.IncrementOther)
	rep := &PerformanceReport{
		BusinessRule: rule,
		LogicFlow: LogicFlow{
			TriggeredBy: cm.Keywords,
			ColumnsUsed: []string{col},
			RuleApplied: rule,
			Thresholds:  map[string]float64{"excellent": t.RatingExcellent, "good": t.RatingGood},
		},
	}

	ratings := numbers(ds, col)
	st := &rep.Statistics
	for i, v := range ratings {
		p := PerformancePrediction{
			RecordIndex:  i,
			EmployeeName: employeeName(ds, names, i),
			Rating:       v,
			FullRecord:   ds.Record(i),
		}
		switch {
		case v == nil:
			p.PerformanceLevel = PerformanceUnknown
			p.Explanation = "Rating value is missing"
		case *v >= t.RatingExcellent:
			p.PerformanceLevel = PerformanceExcellent
			p.IncrementPercentage = ptr(t.IncrementExcellent)
			p.Explanation = fmt.Sprintf("Rating %s >= %s, so Performance is Excellent, Increment = %d%%", num(*v), num(t.RatingExcellent), t.IncrementExcellent)
			st.ExcellentCount++
		case *v >= t.RatingGood:
			p.PerformanceLevel = PerformanceGood
			p.IncrementPercentage = ptr(t.IncrementGood)
			p.Explanation = fmt.Sprintf("Rating %s >= %s but < %s, so Performance is Good, Increment = %d%%", num(*v), num(t.RatingGood), num(t.RatingExcellent), t.IncrementGood)
			st.GoodCount++
		default:
			p.PerformanceLevel = PerformanceNeedsImprovement
			p.IncrementPercentage = ptr(t.IncrementOther)
			p.Explanation = fmt.Sprintf("Rating %s < %s, so Performance is Needs Improvement, Increment = %d%%", num(*v), num(t.RatingGood), t.IncrementOther)
			st.NeedsImprovementCount++
		}
		rep.Predictions = append(rep.Predictions, p)
	}

	if s := summarize(ratings); s.ok {
		st.HighestRating, st.LowestRating, st.AverageRating = ptr(s.max), ptr(s.min), ptr(s.mean)
		for i := range rep.Predictions {
			if p := rep.Predictions[i]; p.Rating != nil && *p.Rating == s.max {
				st.HighestRecord = &p
				break
			}
		}
	}
	return rep
}
