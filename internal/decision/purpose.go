package decision

import (
	"strings"

	"github.com/KaramelBytes/rulescout/internal/rules"
)

// GeneralPurpose is reported when no purpose keyword matches.
const GeneralPurpose = "General HR Analysis"

// Purpose names. Rule gating checks whether the detected purpose contains
// the category word (Salary, Attendance, Leave, Performance).
const (
	EmployeeAnalysis    = "Employee Analysis"
	SalaryAnalysis      = "Salary Analysis"
	AttendanceAnalysis  = "Attendance Analysis"
	LeaveAnalysis       = "Leave Analysis"
	PerformanceAnalysis = "Performance Analysis"
)

// PurposeCategory is one entry of the purpose table.
type PurposeCategory struct {
	Name     string
	Keywords []string
}

// Purposes is ordered; ties go to the earlier entry.
var Purposes = []PurposeCategory{
	{EmployeeAnalysis, []string{"employee_id", "employee", "staff", "emp_id", "emp"}},
	{SalaryAnalysis, []string{"salary", "payroll", "ctc", "gross_salary", "net_salary", "basic_salary"}},
	{AttendanceAnalysis, []string{"punch_in", "punch_out", "attendance", "check_in", "check_out", "punch"}},
	{LeaveAnalysis, []string{"leave", "leave_type", "lop", "sick_leave", "casual_leave", "leave_days"}},
	{PerformanceAnalysis, []string{"rating", "performance", "appraisal", "performance_score", "performance_rating", "kpi"}},
}

// PurposeInfo is the result of DetectPurpose.
type PurposeInfo struct {
	Purpose         string           `json:"purpose"`
	Confidence      rules.Confidence `json:"confidence"`
	MatchedKeywords []string         `json:"matched_keywords"`
	Scores          map[string]int   `json:"all_scores"`
}

// DetectPurpose scores every purpose by the number of keyword/column pairs
// where either string contains the other.
func DetectPurpose(columns []string) PurposeInfo {
	lower := make([]string, len(columns))
	for i, c := range columns {
		lower[i] = strings.ToLower(c)
	}

	info := PurposeInfo{Purpose: GeneralPurpose, Confidence: rules.Low, MatchedKeywords: []string{}, Scores: map[string]int{}}
	best := 0
	for _, p := range Purposes {
		score := 0
		matched := []string{}
		for _, kw := range p.Keywords {
			hit := false
			for _, col := range lower {
				if strings.Contains(col, kw) || strings.Contains(kw, col) {
					score++
					hit = true
				}
			}
			if hit {
				matched = append(matched, kw)
			}
		}
		info.Scores[p.Name] = score
		if score > best {
			best = score
			info.Purpose = p.Name
			info.MatchedKeywords = matched
		}
	}
	switch {
	case best >= 3:
		info.Confidence = rules.High
	case best >= 1:
		info.Confidence = rules.Medium
	}
	return info
}
