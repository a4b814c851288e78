package catalog

// Default returns the built-in HR keyword catalog.
func Default() Catalog {
	cats := []Category{
		{Name: "salary", Keywords: []string{"salary", "gross_salary", "net_salary", "basic_salary", "ctc", "payroll", "hra", "allowance", "bonus", "incentive"}},
		{Name: "attendance", Keywords: []string{"attendance", "attendance_percentage", "present_days", "absent_days", "check_in", "check_out", "punch_in", "punch_out", "late_days", "early_exit", "working_days"}},
		{Name: "leave", Keywords: []string{"leave", "leave_type", "leave_days", "sick_leave", "casual_leave", "earned_leave", "lop", "leave_balance", "leave_applied"}},
		{Name: "performance", Keywords: []string{"rating", "performance", "performance_score", "performance_rating", "appraisal", "kpi", "productivity", "efficiency"}},
		{Name: "employee", Keywords: []string{"employee_id", "employee_name", "first_name", "last_name", "emp_id", "name"}},
		{Name: "status", Keywords: []string{"status", "employee_status", "attrition", "risk", "risk_level"}},
	}
	all := make([]string, len(defaultAll))
	copy(all, defaultAll)
	return Catalog{Categories: cats, All: all}
}

var defaultAll = []string{
	"employee_id", "emp_id", "employee_name", "first_name", "last_name",
	"gender", "date_of_birth", "dob", "age", "marital_status", "nationality",
	"department", "team", "designation", "role", "job_title", "position",
	"employment_type", "joining_date", "date_of_joining", "probation_period",
	"attendance", "attendance_percentage", "present_days", "absent_days",
	"working_days", "check_in", "check_out", "punch_in", "punch_out",
	"late_days", "early_exit", "shift", "overtime_hours",
	"leave_days", "leave_type", "sick_leave", "casual_leave", "earned_leave",
	"paid_leave", "unpaid_leave", "leave_balance", "leave_applied",
	"leave_approved", "leave_rejected",
	"salary", "basic_salary", "gross_salary", "net_salary", "hra", "allowance",
	"bonus", "incentive", "deduction", "tax", "pf", "esi", "payroll_month",
	"performance_score", "performance_rating", "appraisal", "review", "kpi",
	"productivity", "efficiency", "target", "achievement", "feedback",
	"risk", "risk_level", "attrition", "attrition_flag", "churn", "warning",
	"status", "employee_status",
	"late_marks", "warning_count", "misconduct", "compliance",
	"policy_violation", "disciplinary_action",
	"skill", "skills", "training", "training_hours", "certification",
	"experience", "years_of_experience", "upskilling",
	"manager", "reporting_manager", "supervisor", "location", "branch",
	"work_location", "shift_type", "work_mode",
}
