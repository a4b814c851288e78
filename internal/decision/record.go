package decision

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/roles"
	"github.com/KaramelBytes/rulescout/internal/rules"
)

// Rule names.
const (
	RuleSalaryLevel  = "EMPLOYEE → SALARY LEVEL"
	RuleTimeCheck    = "ATTENDANCE → TIME CHECK"
	RuleExitCheck    = "ATTENDANCE → EXIT CHECK"
	RuleWorkingHours = "WORKING HOURS"
	RuleLeave        = "LEAVE DECISION"
	RulePerformance  = "PERFORMANCE RATING"
	RuleIncrement    = "INCREMENT DECISION"
	RuleFinalStatus  = "FINAL EMPLOYEE STATUS"
)

// Decision keys added to each record.
const (
	KeySalaryLevel    = "Salary_Level"
	KeyAttendance     = "Attendance_Status"
	KeyExit           = "Exit_Status"
	KeyDayStatus      = "Day_Status"
	KeyLeaveStatus    = "Leave_Status"
	KeyDeduction      = "Salary_Deduction"
	KeyPerformance    = "Performance"
	KeyIncrement      = "Increment"
	KeyEmployeeStatus = "Employee_Status"
)

// DecisionKeys lists the decision keys in table order.
var DecisionKeys = []string{
	KeySalaryLevel, KeyAttendance, KeyExit, KeyDayStatus, KeyLeaveStatus,
	KeyDeduction, KeyPerformance, KeyIncrement, KeyEmployeeStatus,
}

// minRulesForStatus is how many rules must apply before the final employee
// status is decided.
const minRulesForStatus = 2

// Outcome is the result of one rule on one record. Skipped rules carry a
// Reason instead of a decision.
type Outcome struct {
	Applied     bool             `json:"applied"`
	Rule        string           `json:"rule,omitempty"`
	Decision    string           `json:"decision,omitempty"`
	Explanation string           `json:"explanation,omitempty"`
	Confidence  rules.Confidence `json:"confidence,omitempty"`
	Reason      string           `json:"reason,omitempty"`

	sets [][2]string
}

func skip(rule, reason string) Outcome { return Outcome{Rule: rule, Reason: reason} }

func applied(rule, explanation string, conf rules.Confidence, sets ...[2]string) Outcome {
	parts := make([]string, len(sets))
	for i, kv := range sets {
		parts[i] = kv[0] + " = " + kv[1]
	}
	return Outcome{
		Applied:     true,
		Rule:        rule,
		Decision:    strings.Join(parts, ", "),
		Explanation: explanation,
		Confidence:  conf,
		sets:        sets,
	}
}

// RecordAnalysis holds the rules applied to one record and the resulting
// decisions keyed by decision key.
type RecordAnalysis struct {
	RecordIndex  int               `json:"record_index"`
	AppliedRules []Outcome         `json:"applied_rules"`
	Skipped      []Outcome         `json:"skipped_rules,omitempty"`
	Decisions    map[string]string `json:"decisions"`
}

func (ra *RecordAnalysis) add(o Outcome) {
	if !o.Applied {
		ra.Skipped = append(ra.Skipped, o)
		return
	}
	ra.AppliedRules = append(ra.AppliedRules, o)
	for _, kv := range o.sets {
		ra.Decisions[kv[0]] = kv[1]
	}
}

// row reads role-bound cells of one record.
type row struct {
	ds *dataset.Dataset
	i  int
	m  roles.Mapping
}

func (r row) column(role string) (*dataset.Column, bool) {
	name, ok := r.m.Get(role)
	if !ok {
		return nil, false
	}
	return r.ds.Column(name)
}

// text returns the trimmed cell bound to role; ok is false for absent roles
// and null cells.
func (r row) text(role string) (string, bool) {
	c, ok := r.column(role)
	if !ok || c.Values[r.i].Null {
		return "", false
	}
	return strings.TrimSpace(c.String(r.i)), true
}

// number returns the numeric cell bound to role. present is false for absent
// roles and null cells; err reports a present value that is not a number.
func (r row) number(role string) (v float64, present bool, err error) {
	c, ok := r.column(role)
	if !ok || c.Values[r.i].Null {
		return 0, false, nil
	}
	if c.IsNumeric() {
		return c.Values[r.i].Num, true, nil
	}
	v, err = cast.ToFloat64E(strings.TrimSpace(c.Values[r.i].Raw))
	return v, true, err
}

// AnalyzeRecord applies every rule enabled by purpose and the mapping to
// record i.
func (e *Engine) AnalyzeRecord(ds *dataset.Dataset, i int, m roles.Mapping, purpose string) RecordAnalysis {
	ra := RecordAnalysis{RecordIndex: i, AppliedRules: []Outcome{}, Decisions: map[string]string{}}
	r := row{ds: ds, i: i, m: m}

	if strings.Contains(purpose, "Salary") && m.Has(roles.Salary) {
		ra.add(e.salaryLevel(r))
	}
	if strings.Contains(purpose, "Attendance") {
		if m.Has(roles.PunchIn) {
			ra.add(e.timeCheck(r))
		}
		if m.Has(roles.PunchOut) {
			ra.add(e.exitCheck(r))
		}
		if m.Has(roles.WorkingHours) {
			ra.add(e.workingHours(r))
		}
	}
	if strings.Contains(purpose, "Leave") && m.Has(roles.LeaveType) {
		ra.add(e.leaveDecision(r))
	}
	if strings.Contains(purpose, "Performance") && m.Has(roles.Rating) {
		perf := e.performanceRating(r)
		ra.add(perf)
		if perf.Applied {
			ra.add(e.increment(ra.Decisions[KeyPerformance]))
		}
	}
	if len(ra.AppliedRules) >= minRulesForStatus {
		ra.add(finalStatus(ra.AppliedRules))
	}
	return ra
}

func (e *Engine) salaryLevel(r row) Outcome {
	salary, ok, err := r.number(roles.Salary)
	switch {
	case !ok:
		return skip(RuleSalaryLevel, "Salary value is missing")
	case err != nil:
		return skip(RuleSalaryLevel, "Salary value is not numeric")
	}
	hi, mid := e.th.SalaryHigh, e.th.SalaryMedium
	var level, why string
	switch {
	case salary >= hi:
		level = "High"
		why = fmt.Sprintf("Salary %s is >= %s, so Salary Level is High", num(salary), num(hi))
	case salary >= mid:
		level = "Medium"
		why = fmt.Sprintf("Salary %s is >= %s but < %s, so Salary Level is Medium", num(salary), num(mid), num(hi))
	default:
		level = "Low"
		why = fmt.Sprintf("Salary %s is < %s, so Salary Level is Low", num(salary), num(mid))
	}
	return applied(RuleSalaryLevel, why, rules.High, [2]string{KeySalaryLevel, level})
}

// officeTime returns the per-record office time when the dataset carries
// one, else the configured default.
func officeTime(r row, role, fallback string) string {
	if v, ok := r.text(role); ok && v != "" {
		return v
	}
	return fallback
}

func (e *Engine) timeCheck(r row) Outcome {
	in, ok := r.text(roles.PunchIn)
	if !ok {
		return skip(RuleTimeCheck, "Punch-in time is missing")
	}
	start := officeTime(r, roles.OfficeStartTime, e.th.OfficeStart)
	punch, err1 := rules.ParseClock(in)
	office, err2 := rules.ParseClock(start)
	if err1 != nil || err2 != nil {
		return skip(RuleTimeCheck, "Could not parse time values")
	}
	if punch.After(office) {
		return applied(RuleTimeCheck,
			fmt.Sprintf("Punch-in time %s is > office start time %s, so Status is Late", in, start),
			rules.High, [2]string{KeyAttendance, "Late"})
	}
	return applied(RuleTimeCheck,
		fmt.Sprintf("Punch-in time %s is <= office start time %s, so Status is On Time", in, start),
		rules.High, [2]string{KeyAttendance, "On Time"})
}

func (e *Engine) exitCheck(r row) Outcome {
	out, ok := r.text(roles.PunchOut)
	if !ok {
		return skip(RuleExitCheck, "Punch-out time is missing")
	}
	end := officeTime(r, roles.OfficeEndTime, e.th.OfficeEnd)
	punch, err1 := rules.ParseClock(out)
	office, err2 := rules.ParseClock(end)
	if err1 != nil || err2 != nil {
		return skip(RuleExitCheck, "Could not parse time values")
	}
	if office.After(punch) {
		return applied(RuleExitCheck,
			fmt.Sprintf("Punch-out time %s is < office end time %s, so Exit is Early Exit", out, end),
			rules.High, [2]string{KeyExit, "Early Exit"})
	}
	return applied(RuleExitCheck,
		fmt.Sprintf("Punch-out time %s is >= office end time %s, so Exit is Full Day", out, end),
		rules.High, [2]string{KeyExit, "Full Day"})
}

func (e *Engine) workingHours(r row) Outcome {
	hours, ok, err := r.number(roles.WorkingHours)
	switch {
	case !ok:
		return skip(RuleWorkingHours, "Working hours value is missing")
	case err != nil:
		return skip(RuleWorkingHours, "Working hours value is not numeric")
	}
	full, half := e.th.FullDayHours, e.th.HalfDayHours
	var status, why string
	switch {
	case hours >= full:
		status = "Full Day"
		why = fmt.Sprintf("Working hours %s is >= %s, so Day Status is Full Day", num(hours), num(full))
	case hours >= half:
		status = "Half Day"
		why = fmt.Sprintf("Working hours %s is >= %s but < %s, so Day Status is Half Day", num(hours), num(half), num(full))
	default:
		status = "Absent"
		why = fmt.Sprintf("Working hours %s is < %s, so Day Status is Absent", num(hours), num(half))
	}
	return applied(RuleWorkingHours, why, rules.High, [2]string{KeyDayStatus, status})
}

var proofYes = map[string]bool{"yes": true, "y": true, "true": true, "1": true}

func (e *Engine) leaveDecision(r row) Outcome {
	kind, ok := r.text(roles.LeaveType)
	if !ok {
		return skip(RuleLeave, "Leave type is missing")
	}
	var days *float64
	if v, present, err := r.number(roles.LeaveDays); present && err == nil {
		days = &v
	}
	proof, _ := r.text(roles.MedicalProof)
	maxDays := e.th.CasualMaxDays

	status := "Rejected"
	var why string
	switch strings.ToLower(kind) {
	case "casual":
		shown := "N/A"
		if days != nil {
			shown = num(*days)
		}
		if days != nil && *days <= maxDays {
			status = "Approved"
			why = fmt.Sprintf("Leave type is Casual and leave days (%s) <= %s, so Leave Status is Approved", shown, num(maxDays))
		} else {
			why = fmt.Sprintf("Leave type is Casual but leave days (%s) > %s, so Leave Status is Rejected", shown, num(maxDays))
		}
	case "sick":
		if proofYes[strings.ToLower(proof)] {
			status = "Approved"
			why = "Leave type is Sick and medical proof is Yes, so Leave Status is Approved"
		} else {
			why = "Leave type is Sick but medical proof is not Yes, so Leave Status is Rejected"
		}
	default:
		why = fmt.Sprintf("Leave type is %s, which doesn't match Casual or Sick criteria, so Leave Status is Rejected", kind)
	}

	deduction := "No"
	if strings.EqualFold(kind, "LOP") {
		deduction = "Yes"
		why += ". Since leave type is LOP, Salary Deduction = Yes"
	}
	return applied(RuleLeave, why, rules.High,
		[2]string{KeyLeaveStatus, status}, [2]string{KeyDeduction, deduction})
}

func (e *Engine) performanceRating(r row) Outcome {
	rating, ok, err := r.number(roles.Rating)
	switch {
	case !ok:
		return skip(RulePerformance, "Rating value is missing")
	case err != nil:
		return skip(RulePerformance, "Rating value is not numeric")
	}
	exc, good := e.th.RatingExcellent, e.th.RatingGood
	var perf, why string
	switch {
	case rating >= exc:
		perf = "Excellent"
		why = fmt.Sprintf("Rating %s is >= %s, so Performance is Excellent", num(rating), num(exc))
	case rating >= good:
		perf = "Good"
		why = fmt.Sprintf("Rating %s is >= %s but < %s, so Performance is Good", num(rating), num(good), num(exc))
	default:
		perf = "Needs Improvement"
		why = fmt.Sprintf("Rating %s is < %s, so Performance is Needs Improvement", num(rating), num(good))
	}
	return applied(RulePerformance, why, rules.High, [2]string{KeyPerformance, perf})
}

func (e *Engine) increment(performance string) Outcome {
	inc := e.th.IncrementOther
	switch performance {
	case "Excellent":
		inc = e.th.IncrementExcellent
	case "Good":
		inc = e.th.IncrementGood
	}
	return applied(RuleIncrement,
		fmt.Sprintf("Since Performance is %s, Increment is %d%%", performance, inc),
		rules.High, [2]string{KeyIncrement, strconv.Itoa(inc) + "%"})
}

// finalStatus is Active only when no attendance rule flagged a problem and
// the performance rule rated Good or Excellent.
func finalStatus(done []Outcome) Outcome {
	attendanceGood, performanceGood := true, false
	for _, o := range done {
		switch o.Rule {
		case RuleTimeCheck:
			if strings.Contains(o.Decision, "Late") {
				attendanceGood = false
			}
		case RuleExitCheck:
			if strings.Contains(o.Decision, "Early Exit") {
				attendanceGood = false
			}
		case RuleWorkingHours:
			if strings.Contains(o.Decision, "Absent") {
				attendanceGood = false
			}
		case RulePerformance:
			if strings.Contains(o.Decision, "Excellent") || strings.Contains(o.Decision, "Good") {
				performanceGood = true
			}
		}
	}
	if attendanceGood && performanceGood {
		return applied(RuleFinalStatus,
			"Employee has good attendance, good performance, and no disciplinary issues, so Employee Status is Active",
			rules.Medium, [2]string{KeyEmployeeStatus, "Active"})
	}
	var reasons []string
	if !attendanceGood {
		reasons = append(reasons, "attendance issues")
	}
	if !performanceGood {
		reasons = append(reasons, "performance issues")
	}
	return applied(RuleFinalStatus,
		fmt.Sprintf("Employee has %s, so Employee Status is Review Required", strings.Join(reasons, ", ")),
		rules.Medium, [2]string{KeyEmployeeStatus, "Review Required"})
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
