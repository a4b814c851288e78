package prediction

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/roles"
)

// Attendance statuses and their categories.
const (
	StatusExcellent = "Excellent"
	StatusGood      = "Good"
	StatusFair      = "Fair"
	StatusPoor      = "Poor"
	StatusUnknown   = "Unknown"

	ClassNormal  = "Normal"
	ClassWarning = "Warning"
	ClassWorst   = "Worst"
)

// AttendancePrediction is the attendance status of one record.
type AttendancePrediction struct {
	RecordIndex          int            `json:"record_index"`
	EmployeeName         string         `json:"employee_name"`
	AttendancePercentage *float64       `json:"attendance_percentage"`
	Status               string         `json:"status"`
	Category             string         `json:"category"`
	Explanation          string         `json:"explanation"`
	FullRecord           map[string]any `json:"full_record"`
}

// AttendanceStats aggregates attendance percentages.
type AttendanceStats struct {
	AveragePercentage *float64              `json:"average_percentage"`
	NormalCount       int                   `json:"normal_count"`
	WarningCount      int                   `json:"warning_count"`
	WorstCount        int                   `json:"worst_count"`
	ExcellentCount    int                   `json:"excellent_count"`
	GoodCount         int                   `json:"good_count"`
	FairCount         int                   `json:"fair_count"`
	PoorCount         int                   `json:"poor_count"`
	BestPercentage    *float64              `json:"best_percentage,omitempty"`
	WorstPercentage   *float64              `json:"worst_percentage,omitempty"`
	BestRecord        *AttendancePrediction `json:"best_record,omitempty"`
	WorstRecord       *AttendancePrediction `json:"worst_record,omitempty"`
}

// AttendanceReport is the attendance category output.
type AttendanceReport struct {
	Predictions     []AttendancePrediction `json:"predictions"`
	Statistics      AttendanceStats        `json:"statistics"`
	BusinessRule    string                 `json:"business_rule"`
	LogicFlow       LogicFlow              `json:"logic_flow"`
	MatchedKeywords []string               `json:"matched_keywords"`
	MatchedColumns  []string               `json:"matched_columns"`
}

// attendancePercentages prefers an explicit percentage column and falls
// back to present/(present+absent). Rows without a usable total are nil.
func attendancePercentages(ds *dataset.Dataset) []*float64 {
	m := roles.Resolve(ds.ColumnNames(), roles.PredictionTable)
	if col, ok := m.Get(roles.AttendancePercentage); ok {
		return numbers(ds, col)
	}
	out := make([]*float64, ds.Rows())
	pc, okP := m.Get(roles.PresentDays)
	ac, okA := m.Get(roles.AbsentDays)
	if !okP || !okA {
		return out
	}
	present, absent := numbers(ds, pc), numbers(ds, ac)
	for i := range out {
		if present[i] == nil || absent[i] == nil {
			continue
		}
		total := *present[i] + *absent[i]
		pct := *present[i] / total * 100
		if total == 0 || math.IsInf(pct, 0) || math.IsNaN(pct) {
			continue
		}
		out[i] = &pct
	}
	return out
}

func (e *Engine) predictAttendance(ds *dataset.Dataset, cm CategoryMatch, m roles.Mapping, names []string) *AttendanceReport {
	t := e.th
	rule := fmt.Sprintf("IF attendance >= %s%% → Excellent (Normal) | IF >= %s%% → Good (Normal) | IF >= %s%% → Fair (Warning) | ELSE → Poor (Worst)",
		num(t.AttendanceExcellent), num(t.AttendanceGood), num(t.AttendanceFair))
	used := []string{}
	for _, mt := range roles.AttendanceTable {
		if col, ok := m.Get(mt.Role); ok {
			used = append(used, col)
		}
	}
	trigger := cm.Keywords
	if len(trigger) == 0 {
		trigger = []string{"attendance keyword"}
	}
	rep := &AttendanceReport{
		BusinessRule: rule,
		LogicFlow: LogicFlow{
			TriggeredBy: trigger,
			ColumnsUsed: used,
			RuleApplied: rule,
			Thresholds:  map[string]float64{"excellent": t.AttendanceExcellent, "good": t.AttendanceGood, "fair": t.AttendanceFair},
		},
		MatchedKeywords: cm.Keywords,
		MatchedColumns:  cm.Columns,
	}

	pcts := attendancePercentages(ds)
	st := &rep.Statistics
	for i, v := range pcts {
		p := AttendancePrediction{
			RecordIndex:          i,
			EmployeeName:         employeeName(ds, names, i),
			AttendancePercentage: v,
			FullRecord:           ds.Record(i),
		}
		switch {
		case v == nil:
			p.Status, p.Category = StatusUnknown, StatusUnknown
			p.Explanation = "Attendance percentage not available"
		case *v >= t.AttendanceExcellent:
			p.Status, p.Category = StatusExcellent, ClassNormal
			p.Explanation = fmt.Sprintf("Attendance %.1f%% >= %s%%, so Status is Excellent (Normal)", *v, num(t.AttendanceExcellent))
			st.ExcellentCount++
		case *v >= t.AttendanceGood:
			p.Status, p.Category = StatusGood, ClassNormal
			p.Explanation = fmt.Sprintf("Attendance %.1f%% >= %s%% but < %s%%, so Status is Good (Normal)", *v, num(t.AttendanceGood), num(t.AttendanceExcellent))
			st.GoodCount++
		case *v >= t.AttendanceFair:
			p.Status, p.Category = StatusFair, ClassWarning
			p.Explanation = fmt.Sprintf("Attendance %.1f%% >= %s%% but < %s%%, so Status is Fair (Warning)", *v, num(t.AttendanceFair), num(t.AttendanceGood))
			st.FairCount++
		default:
			p.Status, p.Category = StatusPoor, ClassWorst
			p.Explanation = fmt.Sprintf("Attendance %.1f%% < %s%%, so Status is Poor (Worst)", *v, num(t.AttendanceFair))
			st.PoorCount++
		}
		switch p.Category {
		case ClassNormal:
			st.NormalCount++
		case ClassWarning:
			st.WarningCount++
		case ClassWorst:
			st.WorstCount++
		}
		rep.Predictions = append(rep.Predictions, p)
	}

	if s := summarize(pcts); s.ok {
		st.AveragePercentage = ptr(s.mean)
		st.BestPercentage, st.WorstPercentage = ptr(s.max), ptr(s.min)
		for i := range rep.Predictions {
			p := &rep.Predictions[i]
			if p.AttendancePercentage == nil {
				continue
			}
			if st.BestRecord == nil && *p.AttendancePercentage == s.max {
				c := *p
				st.BestRecord = &c
			}
			if st.WorstRecord == nil && *p.AttendancePercentage == s.min {
				c := *p
				st.WorstRecord = &c
			}
		}
	}
	return rep
}
