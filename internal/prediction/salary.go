package prediction

import (
	"fmt"

	"github.com/KaramelBytes/rulescout/internal/dataset"
)

// Salary levels.
const (
	LevelHigh    = "High"
	LevelMedium  = "Medium"
	LevelLow     = "Low"
	LevelUnknown = "Unknown"
)

// SalaryPrediction is the salary level of one record.
type SalaryPrediction struct {
	RecordIndex  int            `json:"record_index"`
	EmployeeName string         `json:"employee_name"`
	Salary       *float64       `json:"salary"`
	Prediction   string         `json:"prediction"`
	Explanation  string         `json:"explanation"`
	LogicSteps   []string       `json:"logic_steps"`
	FullRecord   map[string]any `json:"full_record"`
}

// SalaryStats aggregates the salary column.
type SalaryStats struct {
	Highest       *float64          `json:"highest"`
	Lowest        *float64          `json:"lowest"`
	Average       *float64          `json:"average"`
	Median        *float64          `json:"median"`
	HighCount     int               `json:"high_count"`
	MediumCount   int               `json:"medium_count"`
	LowCount      int               `json:"low_count"`
	HighestRecord *SalaryPrediction `json:"highest_record,omitempty"`
}

// SalaryReport is the salary category output.
type SalaryReport struct {
	Predictions     []SalaryPrediction `json:"predictions"`
	Statistics      SalaryStats        `json:"statistics"`
	BusinessRule    string             `json:"business_rule"`
	LogicFlow       LogicFlow          `json:"logic_flow"`
	MatchedKeywords []string           `json:"matched_keywords"`
	MatchedColumns  []string           `json:"matched_columns"`
}

// predictSalary labels the first salary column of cm.
func (e *Engine) predictSalary(ds *dataset.Dataset, cm CategoryMatch, names []string) *SalaryReport {
	col := cm.Columns[0]
	hi, mid := e.th.SalaryHigh, e.th.SalaryMedium
	rule := fmt.Sprintf("IF salary >= %s → High | IF salary >= %s → Medium | ELSE → Low", num(hi), num(mid))
	trigger := []string{"salary keyword"}
	if len(cm.Keywords) > 0 {
		trigger = cm.Keywords[:1]
	}
	rep := &SalaryReport{
		BusinessRule: rule,
		LogicFlow: LogicFlow{
			TriggeredBy: trigger,
			ColumnsUsed: []string{col},
			RuleApplied: rule,
			Thresholds:  map[string]float64{"high": hi, "medium": mid},
		},
		MatchedKeywords: cm.Keywords,
		MatchedColumns:  cm.Columns,
	}

	vals := numbers(ds, col)
	for i, v := range vals {
		p := SalaryPrediction{
			RecordIndex:  i,
			EmployeeName: employeeName(ds, names, i),
			Salary:       v,
			FullRecord:   ds.Record(i),
		}
		if v == nil {
			p.Prediction = LevelUnknown
			p.Explanation = "Salary value is missing"
			p.LogicSteps = []string{
				fmt.Sprintf("Step 1: %s is missing", col),
				"Step 2: Value is missing → Prediction = Unknown",
			}
		} else {
			s := grouped(*v)
			p.LogicSteps = []string{
				fmt.Sprintf("Step 1: Read %s = %s", col, s),
				fmt.Sprintf("Step 2: Check IF %s >= %s", s, grouped(hi)),
			}
			switch {
			case *v >= hi:
				p.Prediction = LevelHigh
				p.Explanation = fmt.Sprintf("Salary %s >= %s, so Salary Level is High", s, grouped(hi))
				p.LogicSteps = append(p.LogicSteps, "Step 3: Condition TRUE → Prediction = High")
			case *v >= mid:
				p.Prediction = LevelMedium
				p.Explanation = fmt.Sprintf("Salary %s >= %s but < %s, so Salary Level is Medium", s, grouped(mid), grouped(hi))
				p.LogicSteps = append(p.LogicSteps,
					fmt.Sprintf("Step 3: Condition FALSE, Check IF %s >= %s", s, grouped(mid)),
					"Step 4: Condition TRUE → Prediction = Medium")
			default:
				p.Prediction = LevelLow
				p.Explanation = fmt.Sprintf("Salary %s < %s, so Salary Level is Low", s, grouped(mid))
				p.LogicSteps = append(p.LogicSteps,
					fmt.Sprintf("Step 3: Condition FALSE, Check IF %s >= %s", s, grouped(mid)),
					"Step 4: Condition FALSE → Prediction = Low")
			}
		}
		switch p.Prediction {
		case LevelHigh:
			rep.Statistics.HighCount++
		case LevelMedium:
			rep.Statistics.MediumCount++
		case LevelLow:
			rep.Statistics.LowCount++
		}
		rep.Predictions = append(rep.Predictions, p)
	}

	if s := summarize(vals); s.ok {
		st := &rep.Statistics
		st.Highest, st.Lowest, st.Average, st.Median = ptr(s.max), ptr(s.min), ptr(s.mean), ptr(s.median)
		for i := range rep.Predictions {
			if p := rep.Predictions[i]; p.Salary != nil && *p.Salary == s.max {
				st.HighestRecord = &p
				break
			}
		}
	}
	return rep
}
