// Package prediction labels every record of an HR dataset by category
// (salary level, attendance status, leave outcome, performance level)
// once the category's keywords are found among the column names.
package prediction

import (
	"github.com/KaramelBytes/rulescout/internal/analysis"
	"github.com/KaramelBytes/rulescout/internal/catalog"
	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/roles"
	"github.com/KaramelBytes/rulescout/internal/rules"
)

// Category names from the keyword catalog that trigger predictions.
const (
	CategorySalary      = "salary"
	CategoryAttendance  = "attendance"
	CategoryLeave       = "leave"
	CategoryPerformance = "performance"
)

// Thresholds holds the prediction cut-offs.
type Thresholds struct {
	SalaryHigh          float64 `json:"salary_high" yaml:"salary_high"`
	SalaryMedium        float64 `json:"salary_medium" yaml:"salary_medium"`
	AttendanceExcellent float64 `json:"attendance_excellent" yaml:"attendance_excellent"`
	AttendanceGood      float64 `json:"attendance_good" yaml:"attendance_good"`
	AttendanceFair      float64 `json:"attendance_fair" yaml:"attendance_fair"`
	CasualMaxDays       float64 `json:"casual_max_days" yaml:"casual_max_days"`
	RatingExcellent     float64 `json:"rating_excellent" yaml:"rating_excellent"`
	RatingGood          float64 `json:"rating_good" yaml:"rating_good"`
	IncrementExcellent  int     `json:"increment_excellent" yaml:"increment_excellent"`
	IncrementGood       int     `json:"increment_good" yaml:"increment_good"`
	IncrementOther      int     `json:"increment_other" yaml:"increment_other"`
}

// DefaultThresholds returns the stock cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SalaryHigh:          80000,
		SalaryMedium:        40000,
		AttendanceExcellent: 90,
		AttendanceGood:      75,
		AttendanceFair:      60,
		CasualMaxDays:       2,
		RatingExcellent:     4.5,
		RatingGood:          3.0,
		IncrementExcellent:  20,
		IncrementGood:       10,
		IncrementOther:      0,
	}
}

// Engine matches catalog keywords and runs the category predictors.
type Engine struct {
	cat catalog.Catalog
	th  Thresholds
}

// NewEngine returns an engine over cat with default thresholds.
func NewEngine(cat catalog.Catalog) *Engine {
	return &Engine{cat: cat, th: DefaultThresholds()}
}

// WithThresholds returns a copy of e using th.
func (e *Engine) WithThresholds(th Thresholds) *Engine {
	c := *e
	c.th = th
	return &c
}

// CategoryMatch lists the keywords of one category found in the dataset.
type CategoryMatch struct {
	Keywords   []string `json:"keywords"`
	Columns    []string `json:"columns"`
	LogicRules []string `json:"logic_rules"`
	Triggered  bool     `json:"triggered"`
}

// KeywordMatches is the keyword-to-column matching of a dataset.
type KeywordMatches struct {
	AllMatched      []string                         `json:"all_matched"`
	KeywordToColumn map[string][]catalog.ColumnMatch `json:"keyword_to_column_mapping"`
	Categorized     map[string]CategoryMatch         `json:"categorized"`
	TotalMatches    int                              `json:"total_matches"`
	TotalColumns    int                              `json:"total_columns"`
	MatchedColumns  []string                         `json:"matched_columns"`
}

// LogicEntry summarises why one category was predicted.
type LogicEntry struct {
	Category    string    `json:"category"`
	TriggeredBy []string  `json:"triggered_by"`
	ColumnsUsed []string  `json:"columns_used"`
	RuleApplied string    `json:"rule_applied"`
	LogicFlow   LogicFlow `json:"logic_flow"`
}

// Predictions holds one report per triggered category.
type Predictions struct {
	Salary      *SalaryReport      `json:"salary,omitempty"`
	Attendance  *AttendanceReport  `json:"attendance,omitempty"`
	Leave       *LeaveReport       `json:"leave,omitempty"`
	Performance *PerformanceReport `json:"performance,omitempty"`
}

// Report is the output of Analyze.
type Report struct {
	Domain           string           `json:"domain"`
	DomainConfidence rules.Confidence `json:"domain_confidence"`
	KeywordMatches   KeywordMatches   `json:"keyword_matches"`
	Predictions      Predictions      `json:"predictions"`
	LogicSummary     []LogicEntry     `json:"logic_summary"`
	TotalRecords     int              `json:"total_records"`
	TotalColumns     int              `json:"total_columns"`
}

// MatchKeywords matches the catalog against columns and groups the hits by
// category.
func (e *Engine) MatchKeywords(columns []string) KeywordMatches {
	matched := catalog.MatchColumns(columns, e.cat.All)
	km := KeywordMatches{
		AllMatched:      matched,
		KeywordToColumn: map[string][]catalog.ColumnMatch{},
		Categorized:     map[string]CategoryMatch{},
		TotalMatches:    len(matched),
		TotalColumns:    len(columns),
		MatchedColumns:  []string{},
	}
	if km.AllMatched == nil {
		km.AllMatched = []string{}
	}
	byKeyword := catalog.MapColumns(columns, matched)
	hit := map[string]bool{}
	for _, kw := range matched {
		km.KeywordToColumn[kw] = byKeyword[kw]
		for _, cm := range byKeyword[kw] {
			hit[cm.Column] = true
		}
	}
	for _, c := range columns {
		if hit[c] {
			km.MatchedColumns = append(km.MatchedColumns, c)
		}
	}

	isMatched := map[string]bool{}
	for _, kw := range matched {
		isMatched[kw] = true
	}
	for _, cat := range e.cat.Categories {
		cm := CategoryMatch{Keywords: []string{}, Columns: []string{}, LogicRules: []string{}, Triggered: true}
		seen := map[string]bool{}
		for _, kw := range cat.Keywords {
			if !isMatched[kw] {
				continue
			}
			cm.Keywords = append(cm.Keywords, kw)
			for _, col := range byKeyword[kw] {
				if !seen[col.Column] {
					seen[col.Column] = true
					cm.Columns = append(cm.Columns, col.Column)
				}
			}
			if rule := e.categoryLogic(cat.Name, kw); rule != "" {
				cm.LogicRules = append(cm.LogicRules, rule)
			}
		}
		if len(cm.Keywords) > 0 {
			km.Categorized[cat.Name] = cm
		}
	}
	return km
}

// Analyze matches keywords, detects the domain and runs every triggered
// category predictor over all records.
func (e *Engine) Analyze(ds *dataset.Dataset) Report {
	columns := ds.ColumnNames()
	km := e.MatchKeywords(columns)
	domain := analysis.DetectDomain(ds)
	rep := Report{
		Domain:           domain.Domain,
		DomainConfidence: domain.Confidence,
		KeywordMatches:   km,
		LogicSummary:     []LogicEntry{},
		TotalColumns:     len(columns),
	}
	if ds.Empty() {
		return rep
	}
	rep.TotalRecords = ds.Rows()
	names := nameColumns(columns)

	if cm, ok := km.Categorized[CategorySalary]; ok && len(cm.Columns) > 0 {
		r := e.predictSalary(ds, cm, names)
		rep.Predictions.Salary = r
		rep.LogicSummary = append(rep.LogicSummary, logicEntry(CategorySalary, cm, r.BusinessRule, r.LogicFlow))
	}
	if cm, ok := km.Categorized[CategoryAttendance]; ok {
		if m := roles.Resolve(cm.Columns, roles.AttendanceTable); len(m) > 0 {
			r := e.predictAttendance(ds, cm, m, names)
			rep.Predictions.Attendance = r
			rep.LogicSummary = append(rep.LogicSummary, logicEntry(CategoryAttendance, cm, r.BusinessRule, r.LogicFlow))
		}
	}
	if cm, ok := km.Categorized[CategoryLeave]; ok {
		if m := roles.Resolve(cm.Columns, roles.LeaveTable); len(m) > 0 {
			r := e.predictLeave(ds, cm, m, names)
			rep.Predictions.Leave = r
			rep.LogicSummary = append(rep.LogicSummary, logicEntry(CategoryLeave, cm, r.BusinessRule, r.LogicFlow))
		}
	}
	if cm, ok := km.Categorized[CategoryPerformance]; ok && len(cm.Columns) > 0 {
		r := e.predictPerformance(ds, cm, names)
		rep.Predictions.Performance = r
		rep.LogicSummary = append(rep.LogicSummary, logicEntry(CategoryPerformance, cm, r.BusinessRule, r.LogicFlow))
	}
	return rep
}

func logicEntry(category string, cm CategoryMatch, rule string, flow LogicFlow) LogicEntry {
	return LogicEntry{
		Category:    category,
		TriggeredBy: cm.Keywords,
		ColumnsUsed: cm.Columns,
		RuleApplied: rule,
		LogicFlow:   flow,
	}
}

// nameColumns returns the columns that may carry an employee name.
func nameColumns(columns []string) []string {
	m, _ := roles.PredictionTable.Matcher(roles.EmployeeName)
	return roles.MatchAll(columns, m)
}

// employeeName returns the first non-empty name cell of row i.
func employeeName(ds *dataset.Dataset, names []string, i int) string {
	for _, n := range names {
		c, ok := ds.Column(n)
		if !ok || c.Values[i].Null {
			continue
		}
		return c.String(i)
	}
	return "Unknown"
}
