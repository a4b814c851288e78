package prediction

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/roles"
)

// Leave outcomes.
const (
	LeaveApproved          = "Approved"
	LeaveRejected          = "Rejected"
	LeaveApprovedWithProof = "Approved (with proof)"
	LeaveLOP               = "LOP - Salary Deduction"
	LeavePending           = "Pending Review"
	LeaveUnknown           = "Unknown"
)

// LeavePrediction is the leave outcome of one record.
type LeavePrediction struct {
	RecordIndex  int            `json:"record_index"`
	EmployeeName string         `json:"employee_name"`
	LeaveType    *string        `json:"leave_type"`
	LeaveDays    *float64       `json:"leave_days"`
	Status       string         `json:"status"`
	Explanation  string         `json:"explanation"`
	FullRecord   map[string]any `json:"full_record"`
}

// LeaveStats counts leave outcomes.
type LeaveStats struct {
	TotalRecords  int            `json:"total_records"`
	ApprovedCount int            `json:"approved_count"`
	RejectedCount int            `json:"rejected_count"`
	LOPCount      int            `json:"lop_count"`
	ByLeaveType   map[string]int `json:"by_leave_type"`
}

// LeaveReport is the leave category output.
type LeaveReport struct {
	Predictions  []LeavePrediction `json:"predictions"`
	Statistics   LeaveStats        `json:"statistics"`
	BusinessRule string            `json:"business_rule"`
	LogicFlow    LogicFlow         `json:"logic_flow"`
}

func (e *Engine) predictLeave(ds *dataset.Dataset, cm CategoryMatch, m roles.Mapping, names []string) *LeaveReport {
	maxDays := e.th.CasualMaxDays
	rule := fmt.Sprintf("IF leave_type = Casual AND days <= %s → Approved | IF leave_type = Sick → Approved (with proof) | IF leave_type = LOP → Salary Deduction", num(maxDays))
	used := []string{}
	for _, mt := range roles.LeaveTable {
		if col, ok := m.Get(mt.Role); ok {
			used = append(used, col)
		}
	}
	rep := &LeaveReport{
		BusinessRule: rule,
		LogicFlow: LogicFlow{
			TriggeredBy: cm.Keywords,
			ColumnsUsed: used,
			RuleApplied: rule,
			Thresholds:  map[string]float64{"casual_max_days": maxDays},
		},
		Statistics: LeaveStats{ByLeaveType: map[string]int{}},
	}

	var typeCol *dataset.Column
	if name, ok := m.Get(roles.LeaveType); ok {
		typeCol, _ = ds.Column(name)
	}
	days := make([]*float64, ds.Rows())
	if name, ok := m.Get(roles.LeaveDays); ok {
		days = numbers(ds, name)
	}

	st := &rep.Statistics
	for i := 0; i < ds.Rows(); i++ {
		p := LeavePrediction{
			RecordIndex:  i,
			EmployeeName: employeeName(ds, names, i),
			LeaveDays:    days[i],
			FullRecord:   ds.Record(i),
		}
		if typeCol != nil && !typeCol.Values[i].Null {
			if s := strings.TrimSpace(typeCol.String(i)); s != "" {
				p.LeaveType = &s
			}
		}
		p.Status, p.Explanation = leaveOutcome(p.LeaveType, p.LeaveDays, maxDays)

		if strings.Contains(p.Status, "Approved") {
			st.ApprovedCount++
		}
		if strings.Contains(p.Status, "Rejected") {
			st.RejectedCount++
		}
		if strings.Contains(p.Status, "LOP") {
			st.LOPCount++
		}
		key := LeaveUnknown
		if p.LeaveType != nil {
			key = *p.LeaveType
		}
		st.ByLeaveType[key]++
		rep.Predictions = append(rep.Predictions, p)
	}
	st.TotalRecords = len(rep.Predictions)
	return rep
}

func leaveOutcome(leaveType *string, days *float64, maxDays float64) (status, explanation string) {
	if leaveType == nil {
		return LeaveUnknown, "Leave type not specified"
	}
	lt := *leaveType
	switch {
	case strings.EqualFold(lt, "casual"):
		if days != nil && *days <= maxDays {
			return LeaveApproved, fmt.Sprintf("Leave type is Casual and days (%s) <= %s, so Status is Approved", num(*days), num(maxDays))
		}
		d := "N/A"
		if days != nil {
			d = num(*days)
		}
		return LeaveRejected, fmt.Sprintf("Leave type is Casual but days (%s) > %s, so Status is Rejected", d, num(maxDays))
	case strings.EqualFold(lt, "sick"):
		return LeaveApprovedWithProof, "Leave type is Sick, requires medical proof for approval"
	case strings.EqualFold(lt, "lop"):
		return LeaveLOP, "Leave type is LOP (Loss of Pay), salary will be deducted"
	}
	return LeavePending, fmt.Sprintf("Leave type is %s, requires review", lt)
}
