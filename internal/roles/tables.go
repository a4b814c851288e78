package roles

// Role names shared across engines.
const (
	Salary          = "salary"
	PunchIn         = "punch_in"
	PunchOut        = "punch_out"
	WorkingHours    = "working_hours"
	LeaveType       = "leave_type"
	LeaveDays       = "leave_days"
	MedicalProof    = "medical_proof"
	Rating          = "rating"
	OfficeStartTime = "office_start_time"
	OfficeEndTime   = "office_end_time"

	Status   = "status"
	CheckIn  = "check_in"
	CheckOut = "check_out"
	Remarks  = "remarks"

	AttendancePercentage = "attendance_percentage"
	PresentDays          = "present_days"
	AbsentDays           = "absent_days"
	EmployeeName         = "employee_name"
)

// DecisionTable resolves the roles used by the per-record decision engine.
var DecisionTable = Table{
	{Role: Salary, Keywords: []string{"salary", "gross_salary", "net_salary", "basic_salary", "ctc", "payroll"}, Policy: Either, Exclude: []string{"id"}},
	{Role: PunchIn, Keywords: []string{"punch_in", "check_in", "punchin", "checkin"}, Policy: Either},
	{Role: PunchOut, Keywords: []string{"punch_out", "check_out", "punchout", "checkout"}, Policy: Either},
	{Role: WorkingHours, Keywords: []string{"working_hours", "hours", "total_hours"}, Policy: Either, Exclude: []string{"overtime"}},
	{Role: LeaveType, Keywords: []string{"leave_type", "type_of_leave"}, Policy: Either},
	{Role: LeaveDays, Keywords: []string{"leave_days", "days", "number_of_days"}, Policy: Either, Require: []string{"leave"}},
	{Role: MedicalProof, Keywords: []string{"medical_proof", "proof", "medical_certificate"}, Policy: Either},
	{Role: Rating, Keywords: []string{"rating", "performance_rating", "performance_score", "appraisal_rating"}, Policy: Either},
	{Role: OfficeStartTime, Keywords: []string{"office_start_time", "start_time", "office_start"}, Policy: Either},
	{Role: OfficeEndTime, Keywords: []string{"office_end_time", "end_time", "office_end"}, Policy: Either},
}

// RuleTable resolves the roles used by the rule generators.
var RuleTable = Table{
	{Role: Status, Keywords: []string{"status"}},
	{Role: WorkingHours, Keywords: []string{"hours"}, Require: []string{"working"}},
	{Role: CheckIn, Keywords: []string{"check_in", "checkin"}},
	{Role: CheckOut, Keywords: []string{"check_out", "checkout"}},
	{Role: Remarks, Keywords: []string{"remark", "note"}},
}

// WarningTable resolves the columns checked by data-quality warnings. The
// last matching column wins.
var WarningTable = Table{
	{Role: Status, Keywords: []string{"status"}, Last: true},
	{Role: WorkingHours, Keywords: []string{"working_hours"}, Last: true},
}

// PredictionTable resolves the roles used by the keyword prediction engine.
var PredictionTable = Table{
	{Role: AttendancePercentage, Keywords: []string{"attendance"}, Require: []string{"percent"}},
	{Role: PresentDays, Keywords: []string{"present"}, Require: []string{"day"}, Last: true},
	{Role: AbsentDays, Keywords: []string{"absent"}, Require: []string{"day"}, Last: true},
	{Role: EmployeeName, Keywords: []string{"name", "employee_name", "first_name", "last_name", "emp_name"}},
}

// AttendanceTable classifies the columns matched by attendance keywords.
var AttendanceTable = Table{
	{Role: PunchIn, Keywords: []string{"punch_in", "check_in"}},
	{Role: PunchOut, Keywords: []string{"punch_out", "check_out"}},
	{Role: AttendancePercentage, Keywords: []string{"attendance"}, Require: []string{"percent"}},
	{Role: PresentDays, Keywords: []string{"present"}},
	{Role: AbsentDays, Keywords: []string{"absent"}},
}

// LeaveTable resolves leave columns among the columns already matched by
// leave keywords.
var LeaveTable = Table{
	{Role: LeaveType, Keywords: []string{"leave_type", "type"}},
	{Role: LeaveDays, Keywords: []string{"leave_days", "days"}},
}
