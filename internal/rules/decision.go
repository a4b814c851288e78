package rules

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/roles"
)

// Decision emits IF-THEN policy rules, each only when the observed data is
// consistent with it.
func Decision(ds *dataset.Dataset, th Thresholds) []Record {
	var out []Record
	if ds == nil {
		return out
	}
	m := roles.Resolve(ds.ColumnNames(), roles.RuleTable)

	if statusName, ok := m.Get(roles.Status); ok {
		status, _ := ds.Column(statusName)
		var hours *dataset.Column
		if hn, ok := m.Get(roles.WorkingHours); ok {
			if c, _ := ds.Column(hn); c.IsNumeric() {
				hours = c
			}
		}
		if hours != nil {
			out = append(out, statusHoursRules(status, hours, th)...)
		}
	}

	checkIn, hasIn := m.Get(roles.CheckIn)
	if hasIn {
		if remarks, ok := m.Get(roles.Remarks); ok {
			if r, ok := lateArrivalRule(ds, checkIn, remarks, th); ok {
				out = append(out, r)
			}
		}
	}
	if checkOut, ok := m.Get(roles.CheckOut); hasIn && ok {
		if r, ok := checkOutAfterCheckIn(ds, checkIn, checkOut); ok {
			out = append(out, r)
		}
	}
	return out
}

// statusHoursRules checks Absent, Half Day and Present rows against hours.
func statusHoursRules(status, hours *dataset.Column, th Thresholds) []Record {
	var out []Record
	s, h := status.Name, hours.Name

	hasAbsent, hasHalf, hasPresent := false, false, false
	for i := 0; i < status.Len(); i++ {
		if status.Values[i].Null {
			continue
		}
		v := strings.ToLower(status.Values[i].Raw)
		hasAbsent = hasAbsent || v == "absent"
		hasPresent = hasPresent || v == "present"
		hasHalf = hasHalf || strings.Contains(v, "half")
	}

	if hasAbsent && hoursWhere(status, hours, func(v string) bool { return v == "absent" }, func(x float64) bool { return x == 0 }) {
		r := newRecord(DecisionRule{IfThen: fmt.Sprintf("IF %s = 'Absent' THEN %s = 0", s, h), Columns: []string{s, h}})
		r.Rule = fmt.Sprintf("IF %s = 'Absent' THEN %s = 0", s, h)
		r.Description = "When employee is absent, working hours must be zero"
		r.SQL = fmt.Sprintf("CASE WHEN %s = 'Absent' THEN 0 ELSE %s END", s, h)
		r.PseudoCode = fmt.Sprintf("if %s == 'Absent':\n    %s = 0", s, h)
		r.Confidence = High
		r.BusinessMeaning = "HR Policy: Absent employees have zero working hours"
		out = append(out, r)
	}

	limit := num(th.HalfDayMaxHours)
	if hasHalf && hoursWhere(status, hours, func(v string) bool { return strings.Contains(v, "half") }, func(x float64) bool { return x <= th.HalfDayMaxHours }) {
		r := newRecord(DecisionRule{IfThen: fmt.Sprintf("IF %s = 'Half Day' THEN %s <= %s", s, h, limit), Columns: []string{s, h}})
		r.Rule = fmt.Sprintf("IF %s = 'Half Day' THEN %s <= %s", s, h, limit)
		r.Description = fmt.Sprintf("When employee takes half day, working hours should be %s or less", limit)
		r.SQL = fmt.Sprintf("CASE WHEN %s LIKE '%%Half Day%%' THEN %s <= %s ELSE TRUE END", s, h, limit)
		r.PseudoCode = fmt.Sprintf("if 'Half Day' in %s:\n    assert %s <= %s", s, h, limit)
		r.Confidence = High
		r.BusinessMeaning = fmt.Sprintf("HR Policy: Half day leave means maximum %s working hours", limit)
		out = append(out, r)
	}

	if hasPresent && hoursWhere(status, hours, func(v string) bool { return v == "present" }, func(x float64) bool { return x > 0 }) {
		r := newRecord(DecisionRule{IfThen: fmt.Sprintf("IF %s = 'Present' THEN %s > 0", s, h), Columns: []string{s, h}})
		r.Rule = fmt.Sprintf("IF %s = 'Present' THEN %s > 0", s, h)
		r.Description = "When employee is present, working hours must be greater than zero"
		r.SQL = fmt.Sprintf("CASE WHEN %s = 'Present' THEN %s > 0 ELSE TRUE END", s, h)
		r.PseudoCode = fmt.Sprintf("if %s == 'Present':\n    assert %s > 0", s, h)
		r.Confidence = High
		r.BusinessMeaning = "HR Policy: Present employees must have working hours recorded"
		out = append(out, r)
	}
	return out
}

// hoursWhere reports whether at least one row selected by match has non-null
// hours and every such value satisfies ok.
func hoursWhere(status, hours *dataset.Column, match func(string) bool, ok func(float64) bool) bool {
	seen := 0
	for i := 0; i < status.Len(); i++ {
		sv := status.Values[i]
		if sv.Null || !match(strings.ToLower(sv.Raw)) {
			continue
		}
		hv := hours.Values[i]
		if hv.Null {
			continue
		}
		if !ok(hv.Num) {
			return false
		}
		seen++
	}
	return seen > 0
}

// lateArrivalRule is emitted when remarks mark at least one row as late and
// that row carries a parseable check-in time. The cutoff is configured.
func lateArrivalRule(ds *dataset.Dataset, checkIn, remarks string, th Thresholds) (Record, bool) {
	in, _ := ds.Column(checkIn)
	rm, _ := ds.Column(remarks)
	parsed := false
	for i := 0; i < rm.Len() && !parsed; i++ {
		if rm.Values[i].Null || !strings.Contains(strings.ToLower(rm.Values[i].Raw), "late") {
			continue
		}
		if in.Values[i].Null {
			continue
		}
		if _, err := ParseClock(in.String(i)); err == nil {
			parsed = true
		}
	}
	if !parsed {
		return Record{}, false
	}
	cut := th.LateCutoff
	r := newRecord(DecisionRule{IfThen: fmt.Sprintf("IF %s > '%s' THEN Late_Arrival = TRUE", checkIn, cut), Columns: []string{checkIn, remarks}})
	r.Rule = fmt.Sprintf("IF %s > '%s' THEN Late_Arrival = TRUE", checkIn, cut)
	r.Description = fmt.Sprintf("Employees checking in after %s are marked as late arrival", clockLabel(cut))
	r.SQL = fmt.Sprintf("CASE WHEN TIME(%s) > TIME('%s') THEN TRUE ELSE FALSE END AS Late_Arrival", checkIn, cut)
	r.PseudoCode = fmt.Sprintf("if TIME(%s) > TIME('%s'):\n    Late_Arrival = TRUE", checkIn, cut)
	r.Confidence = Medium
	r.BusinessMeaning = fmt.Sprintf("HR Policy: Check-in after %s is considered late arrival", clockLabel(cut))
	r.RequiresApproval = true
	return r, true
}

func checkOutAfterCheckIn(ds *dataset.Dataset, checkIn, checkOut string) (Record, bool) {
	in, _ := ds.Column(checkIn)
	outCol, _ := ds.Column(checkOut)
	both := false
	for i := 0; i < in.Len(); i++ {
		if !in.Values[i].Null && !outCol.Values[i].Null {
			both = true
			break
		}
	}
	if !both {
		return Record{}, false
	}
	r := newRecord(DecisionRule{IfThen: fmt.Sprintf("IF %s <= %s THEN INVALID", checkOut, checkIn), Columns: []string{checkIn, checkOut}})
	r.Rule = fmt.Sprintf("%s must be after %s", checkOut, checkIn)
	r.Description = "Check-out time must be later than check-in time"
	r.SQL = fmt.Sprintf("CHECK (TIME(%s) > TIME(%s))", checkOut, checkIn)
	r.PseudoCode = fmt.Sprintf("if TIME(%s) <= TIME(%s):\n    raise ValidationError('Check-out must be after check-in')", checkOut, checkIn)
	r.Confidence = High
	r.BusinessMeaning = "Business Logic: Employees cannot check out before checking in"
	return r, true
}

// clockLabel renders "09:15" as "9:15 AM" for prose.
func clockLabel(s string) string {
	c, err := ParseClock(s)
	if err != nil {
		return s
	}
	h, suffix := c.Hour, "AM"
	switch {
	case h == 0:
		h = 12
	case h == 12:
		suffix = "PM"
	case h > 12:
		h, suffix = h-12, "PM"
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute, suffix)
}
