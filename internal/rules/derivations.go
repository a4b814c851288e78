package rules

import (
	"fmt"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/roles"
)

// Derivations proposes calculated fields. Both depend on configured
// constants, so both require approval.
func Derivations(ds *dataset.Dataset, th Thresholds) []Record {
	var out []Record
	if ds == nil {
		return out
	}
	m := roles.Resolve(ds.ColumnNames(), roles.RuleTable)

	if in, ok := m.Get(roles.CheckIn); ok {
		cut := th.LateCutoff
		formula := fmt.Sprintf("IF %s > '%s' THEN TRUE ELSE FALSE", in, cut)
		r := newRecord(Derivation{DerivedField: "Late_Arrival", Formula: formula, Source: in})
		r.Rule = formula
		r.Description = fmt.Sprintf("Boolean field indicating if employee arrived late (after %s)", clockLabel(cut))
		r.SQL = fmt.Sprintf("CASE WHEN TIME(%s) > TIME('%s') THEN TRUE ELSE FALSE END AS Late_Arrival", in, cut)
		r.PseudoCode = fmt.Sprintf("Late_Arrival = TIME(%s) > TIME('%s')", in, cut)
		r.Confidence = Medium
		r.BusinessMeaning = "HR Metric: Identifies employees with late arrivals for attendance tracking"
		r.RequiresApproval = true
		out = append(out, r)
	}

	if h, ok := m.Get(roles.WorkingHours); ok {
		std := num(th.StandardHours)
		formula := fmt.Sprintf("IF %s > %s THEN %s - %s ELSE 0", h, std, h, std)
		r := newRecord(Derivation{DerivedField: "Overtime_Hours", Formula: formula, Source: h})
		r.Rule = formula
		r.Description = fmt.Sprintf("Calculate overtime hours when working hours exceed standard %s hours", std)
		r.SQL = fmt.Sprintf("CASE WHEN %s > %s THEN %s - %s ELSE 0 END AS Overtime_Hours", h, std, h, std)
		r.PseudoCode = fmt.Sprintf("Overtime_Hours = max(0, %s - %s)", h, std)
		r.Confidence = Medium
		r.BusinessMeaning = fmt.Sprintf("HR Calculation: Overtime hours for payroll when employee works more than %s hours", std)
		r.RequiresApproval = true
		out = append(out, r)
	}
	return out
}
