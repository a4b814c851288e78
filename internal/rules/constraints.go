package rules

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/rulescout/internal/dataset"
)

// Constraints emits realistic numeric bounds. The daily hours cap is only
// emitted when the observed data already respects it.
func Constraints(ds *dataset.Dataset, th Thresholds) []Record {
	var out []Record
	if ds == nil {
		return out
	}
	for _, c := range ds.Columns {
		if !c.IsNumeric() {
			continue
		}
		vals := c.Numbers()
		if len(vals) == 0 {
			continue
		}
		name := c.Name
		lower := strings.ToLower(name)

		if strings.Contains(lower, "hours") && strings.Contains(lower, "working") && maxOf(vals) <= th.MaxDailyHours {
			limit := num(th.MaxDailyHours)
			r := newRecord(Constraint{Column: name, Max: ptr(th.MaxDailyHours)})
			r.Rule = fmt.Sprintf("%s <= %s", name, limit)
			r.Description = fmt.Sprintf("Working hours cannot exceed %s hours per day", limit)
			r.SQL = fmt.Sprintf("CHECK (%s <= %s)", name, limit)
			r.PseudoCode = fmt.Sprintf("if %s > %s: raise ConstraintError('Working hours cannot exceed %s')", name, limit, limit)
			r.Confidence = High
			r.BusinessMeaning = fmt.Sprintf("Real-world limit: Maximum working hours per day is %s", limit)
			out = append(out, r)
		}

		if hasToken(name, "age") {
			lo, hi := num(th.MinAge), num(th.MaxAge)
			r := newRecord(Constraint{Column: name, Min: ptr(th.MinAge), Max: ptr(th.MaxAge)})
			r.Rule = fmt.Sprintf("%s <= %s <= %s", lo, name, hi)
			r.Description = fmt.Sprintf("Age should be between %s and %s (typical working age)", lo, hi)
			r.SQL = fmt.Sprintf("CHECK (%s >= %s AND %s <= %s)", name, lo, name, hi)
			r.PseudoCode = fmt.Sprintf("if not (%s <= %s <= %s): raise ConstraintError('Age out of working range')", lo, name, hi)
			r.Confidence = Medium
			r.BusinessMeaning = fmt.Sprintf("HR Policy: Working age typically between %s and %s years", lo, hi)
			r.RequiresApproval = true
			out = append(out, r)
		}

		if strings.Contains(lower, "percent") || strings.Contains(name, "%") {
			r := newRecord(Constraint{Column: name, Min: ptr(0), Max: ptr(100)})
			r.Rule = fmt.Sprintf("0 <= %s <= 100", name)
			r.Description = "Percentage must be between 0 and 100"
			r.SQL = fmt.Sprintf("CHECK (%s >= 0 AND %s <= 100)", name, name)
			r.PseudoCode = fmt.Sprintf("if not (0 <= %s <= 100): raise ConstraintError('Percentage out of range')", name)
			r.Confidence = High
			r.BusinessMeaning = "Mathematical constraint: Percentages must be 0-100"
			out = append(out, r)
		}
	}
	return out
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
