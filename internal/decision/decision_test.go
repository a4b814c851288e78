package decision

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/roles"
	"github.com/KaramelBytes/rulescout/internal/rules"
)

func frame(t *testing.T, names []string, cols ...[]string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromColumns("hr.csv", names, cols)
	require.NoError(t, err)
	return ds
}

func attendanceFrame(t *testing.T) *dataset.Dataset {
	return frame(t,
		[]string{"emp_name", "punch_in", "punch_out", "working_hours", "rating"},
		[]string{"A", "B", "C"},
		[]string{"08:55", "09:20", "bad"},
		[]string{"18:10", "17:00", ""},
		[]string{"9", "3.5", ""},
		[]string{"4.6", "2.5", "3.2"},
	)
}

func TestDetectPurpose(t *testing.T) {
	tests := []struct {
		cols    []string
		purpose string
		conf    rules.Confidence
	}{
		{[]string{"foo", "bar"}, GeneralPurpose, rules.Low},
		// "salary" is contained in three other salary keywords
		{[]string{"salary"}, SalaryAnalysis, rules.High},
		{[]string{"appraisal"}, PerformanceAnalysis, rules.Medium},
		{[]string{"kpi", "ctc"}, SalaryAnalysis, rules.Medium},
		{[]string{"emp_name", "punch_in", "punch_out", "working_hours"}, AttendanceAnalysis, rules.High},
	}
	for _, tt := range tests {
		got := DetectPurpose(tt.cols)
		assert.Equal(t, tt.purpose, got.Purpose, tt.cols)
		assert.Equal(t, tt.conf, got.Confidence, tt.cols)
	}

	got := DetectPurpose([]string{"emp_name", "punch_in", "punch_out"})
	assert.Equal(t, []string{"punch_in", "punch_out", "punch"}, got.MatchedKeywords)
	assert.Equal(t, 4, got.Scores[AttendanceAnalysis])
	assert.Equal(t, 1, got.Scores[EmployeeAnalysis])
	assert.Empty(t, DetectPurpose(nil).MatchedKeywords)
}

func TestSalaryLevel(t *testing.T) {
	ds := frame(t, []string{"salary"}, []string{"85000", "40000", "39999.5", "lots"})
	e := NewEngine(Options{})
	m := roles.Resolve(ds.ColumnNames(), roles.DecisionTable)

	want := []string{"High", "Medium", "Low"}
	for i, level := range want {
		ra := e.AnalyzeRecord(ds, i, m, SalaryAnalysis)
		require.Len(t, ra.AppliedRules, 1)
		assert.Equal(t, RuleSalaryLevel, ra.AppliedRules[0].Rule)
		assert.Equal(t, level, ra.Decisions[KeySalaryLevel])
	}
	ra := e.AnalyzeRecord(ds, 0, m, SalaryAnalysis)
	assert.Equal(t, "Salary 85000 is >= 80000, so Salary Level is High", ra.AppliedRules[0].Explanation)
	ra = e.AnalyzeRecord(ds, 1, m, SalaryAnalysis)
	assert.Equal(t, "Salary 40000 is >= 40000 but < 80000, so Salary Level is Medium", ra.AppliedRules[0].Explanation)

	ra = e.AnalyzeRecord(ds, 3, m, SalaryAnalysis)
	assert.Empty(t, ra.AppliedRules)
	require.Len(t, ra.Skipped, 1)
	assert.False(t, ra.Skipped[0].Applied)
	assert.Equal(t, "Salary value is not numeric", ra.Skipped[0].Reason)

	// not gated in by the purpose
	ra = e.AnalyzeRecord(ds, 0, m, AttendanceAnalysis)
	assert.Empty(t, ra.AppliedRules)
	assert.Empty(t, ra.Skipped)
}

func TestAttendanceAndPerformanceRecords(t *testing.T) {
	ds := attendanceFrame(t)
	e := NewEngine(Options{})
	m := roles.Resolve(ds.ColumnNames(), roles.DecisionTable)
	purpose := "Attendance Performance"

	good := e.AnalyzeRecord(ds, 0, m, purpose)
	assert.Equal(t, map[string]string{
		KeyAttendance:     "On Time",
		KeyExit:           "Full Day",
		KeyDayStatus:      "Full Day",
		KeyPerformance:    "Excellent",
		KeyIncrement:      "20%",
		KeyEmployeeStatus: "Active",
	}, good.Decisions)
	require.Len(t, good.AppliedRules, 6)
	last := good.AppliedRules[5]
	assert.Equal(t, RuleFinalStatus, last.Rule)
	assert.Equal(t, rules.Medium, last.Confidence)
	assert.Equal(t, "Employee_Status = Active", last.Decision)

	bad := e.AnalyzeRecord(ds, 1, m, purpose)
	assert.Equal(t, "Late", bad.Decisions[KeyAttendance])
	assert.Equal(t, "Early Exit", bad.Decisions[KeyExit])
	assert.Equal(t, "Absent", bad.Decisions[KeyDayStatus])
	assert.Equal(t, "Needs Improvement", bad.Decisions[KeyPerformance])
	assert.Equal(t, "0%", bad.Decisions[KeyIncrement])
	assert.Equal(t, "Review Required", bad.Decisions[KeyEmployeeStatus])
	final := bad.AppliedRules[len(bad.AppliedRules)-1]
	assert.Equal(t, "Employee has attendance issues, performance issues, so Employee Status is Review Required", final.Explanation)
	assert.Equal(t, "Punch-in time 09:20 is > office start time 09:00, so Status is Late", bad.AppliedRules[0].Explanation)

	// unparseable and missing cells degrade to skipped rules
	partial := e.AnalyzeRecord(ds, 2, m, purpose)
	reasons := map[string]string{}
	for _, o := range partial.Skipped {
		reasons[o.Rule] = o.Reason
	}
	assert.Equal(t, map[string]string{
		RuleTimeCheck:    "Could not parse time values",
		RuleExitCheck:    "Punch-out time is missing",
		RuleWorkingHours: "Working hours value is missing",
	}, reasons)
	assert.Equal(t, "Good", partial.Decisions[KeyPerformance])
	assert.Equal(t, "10%", partial.Decisions[KeyIncrement])
	assert.Equal(t, "Active", partial.Decisions[KeyEmployeeStatus])
}

func TestOfficeTimeColumnAndThresholds(t *testing.T) {
	ds := frame(t, []string{"punch_in", "office_start_time"},
		[]string{"09:10", "09:10"}, []string{"09:30", ""})
	m := roles.Resolve(ds.ColumnNames(), roles.DecisionTable)
	require.True(t, m.Has(roles.OfficeStartTime))

	e := NewEngine(Options{})
	ra := e.AnalyzeRecord(ds, 0, m, AttendanceAnalysis)
	assert.Equal(t, "On Time", ra.Decisions[KeyAttendance])
	assert.Contains(t, ra.AppliedRules[0].Explanation, "office start time 09:30")

	// empty office cell falls back to the configured start
	ra = e.AnalyzeRecord(ds, 1, m, AttendanceAnalysis)
	assert.Equal(t, "Late", ra.Decisions[KeyAttendance])

	th := DefaultThresholds()
	th.OfficeStart = "09:15"
	ra = NewEngine(Options{Thresholds: &th}).AnalyzeRecord(ds, 1, m, AttendanceAnalysis)
	assert.Equal(t, "On Time", ra.Decisions[KeyAttendance])
}

func TestLeaveDecision(t *testing.T) {
	ds := frame(t, []string{"leave_type", "leave_days", "medical_proof"},
		[]string{"Casual", "casual", "Sick", "Sick", "LOP", "Casual"},
		[]string{"2", "3", "", "", "1", ""},
		[]string{"", "", "yes", "no", "", ""},
	)
	e := NewEngine(Options{})
	m := roles.Resolve(ds.ColumnNames(), roles.DecisionTable)
	require.True(t, m.Has(roles.LeaveDays))
	require.True(t, m.Has(roles.MedicalProof))

	tests := []struct {
		status, deduction string
	}{
		{"Approved", "No"},
		{"Rejected", "No"},
		{"Approved", "No"},
		{"Rejected", "No"},
		{"Rejected", "Yes"},
		{"Rejected", "No"},
	}
	for i, tt := range tests {
		ra := e.AnalyzeRecord(ds, i, m, LeaveAnalysis)
		require.Len(t, ra.AppliedRules, 1, "row %d", i)
		assert.Equal(t, tt.status, ra.Decisions[KeyLeaveStatus], "row %d", i)
		assert.Equal(t, tt.deduction, ra.Decisions[KeyDeduction], "row %d", i)
		assert.NotContains(t, ra.Decisions, KeyEmployeeStatus)
	}

	lop := e.AnalyzeRecord(ds, 4, m, LeaveAnalysis).AppliedRules[0]
	assert.Equal(t, "Leave_Status = Rejected, Salary_Deduction = Yes", lop.Decision)
	assert.Equal(t, "Leave type is LOP, which doesn't match Casual or Sick criteria, so Leave Status is Rejected. Since leave type is LOP, Salary Deduction = Yes", lop.Explanation)

	noDays := e.AnalyzeRecord(ds, 5, m, LeaveAnalysis).AppliedRules[0]
	assert.Equal(t, "Leave type is Casual but leave days (N/A) > 2, so Leave Status is Rejected", noDays.Explanation)
}

func TestAnalyzeDataset(t *testing.T) {
	ds := attendanceFrame(t)
	rep := NewEngine(Options{}).AnalyzeDataset(ds, false)

	assert.Equal(t, AttendanceAnalysis, rep.DetectedPurpose)
	assert.Equal(t, rules.High, rep.PurposeConfidence)
	assert.Nil(t, rep.MLPatternRecognition)

	col, _ := rep.ColumnMapping.Get(roles.PunchIn)
	assert.Equal(t, "punch_in", col)
	col, _ = rep.ColumnMapping.Get(roles.WorkingHours)
	assert.Equal(t, "working_hours", col)

	assert.Equal(t, 3, rep.AppliedRules.TotalRecordsAnalyzed)
	assert.Equal(t, 8, rep.AppliedRules.TotalRulesApplied)
	assert.Equal(t, 2.67, rep.AppliedRules.AverageRulesPerRecord)
	assert.Len(t, rep.AppliedRules.RecordAnalyses, 3)
	assert.Equal(t, rules.Medium, rep.ConfidenceLevel)
	assert.Equal(t, []string{RuleTimeCheck, RuleExitCheck, RuleWorkingHours, RuleFinalStatus}, rep.BusinessRulesApplied)

	td := rep.TableData
	assert.Equal(t, []string{
		"record_index", "emp_name", "punch_in", "punch_out", "working_hours", "rating",
		KeyAttendance, KeyExit, KeyDayStatus, KeyEmployeeStatus,
	}, td.Columns)
	assert.Equal(t, 3, td.TotalRecords)
	assert.Equal(t, []string{"2", "C", "bad", "", "", "3.2", "", "", "", ""}, td.Rows[2])
	assert.Equal(t, "On Time", td.Rows[0][6])

	day := rep.FinalDecisionsSummary[KeyDayStatus]
	assert.Equal(t, []string{"Full Day", "Absent"}, day.UniqueValues)
	assert.Equal(t, map[string]int{"Full Day": 1, "Absent": 1}, day.Distribution)
	assert.Equal(t, 2, day.TotalCount)

	ins := rep.DataInsights
	assert.Nil(t, ins.Salary)
	require.NotNil(t, ins.WorkingHours)
	assert.Equal(t, 9.0, ins.WorkingHours.Maximum)
	assert.Equal(t, 3.5, ins.WorkingHours.Minimum)
	assert.Equal(t, 2, ins.WorkingHours.TotalRecords)
	require.NotNil(t, ins.Attendance)
	assert.Equal(t, []string{"08:55", "09:20", "bad"}, ins.Attendance.SampleTimes)
	require.NotNil(t, ins.Performance)
	assert.Equal(t, 4.6, ins.Performance.HighestRating)
	assert.Equal(t, 0, ins.Performance.HighestRecordIndex)
	assert.InDelta(t, 3.4333, ins.Performance.AverageRating, 1e-3)

	_, err := json.Marshal(rep)
	require.NoError(t, err)
}

func TestAnalyzeDatasetRecordCap(t *testing.T) {
	n := 25
	sal := make([]string, n)
	for i := range sal {
		sal[i] = "50000"
	}
	ds := frame(t, []string{"salary"}, sal)
	rep := NewEngine(Options{}).AnalyzeDataset(ds, true)
	assert.Equal(t, n, rep.AppliedRules.TotalRecordsAnalyzed)
	assert.Len(t, rep.AppliedRules.RecordAnalyses, MaxRecordAnalyses)
	assert.Len(t, rep.TableData.Rows, n)
	require.NotNil(t, rep.MLPatternRecognition)
	assert.LessOrEqual(t, len(rep.MLPatternRecognition.DiscoveredRules), MaxMLRules)
	assert.LessOrEqual(t, len(rep.MLPatternRecognition.AprioriPatterns), MaxMLPatterns)

	require.NotNil(t, rep.DataInsights.Salary)
	assert.Equal(t, 50000.0, rep.DataInsights.Salary.Highest)
	assert.Equal(t, 0, rep.DataInsights.Salary.HighestRecordIndex)
	assert.Equal(t, map[string]any{"salary": 50000.0}, rep.DataInsights.Salary.HighestRecordData)
}

func TestAnalyzeDatasetEmpty(t *testing.T) {
	e := NewEngine(Options{})
	assert.NotPanics(t, func() {
		rep := e.AnalyzeDataset(nil, true)
		assert.Equal(t, 0, rep.AppliedRules.TotalRecordsAnalyzed)
		assert.Equal(t, rules.Low, rep.ConfidenceLevel)
		assert.Empty(t, rep.BusinessRulesApplied)
		assert.Empty(t, rep.TableData.Rows)
	})
}

func TestAnalyzeDatasetIsDeterministic(t *testing.T) {
	ds := attendanceFrame(t)
	e := NewEngine(Options{})
	a, err := json.Marshal(e.AnalyzeDataset(ds, true))
	require.NoError(t, err)
	b, err := json.Marshal(e.AnalyzeDataset(ds, true))
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestReportMarkdown(t *testing.T) {
	md := NewEngine(Options{}).AnalyzeDataset(attendanceFrame(t), false).Markdown()
	for _, sec := range []string{"[DECISION SUMMARY]", "[COLUMN MAPPING]", "[DATA INSIGHTS]", "[DECISIONS]", "[DECISION TABLE]"} {
		assert.Contains(t, md, sec)
	}
	assert.Contains(t, md, "Purpose: Attendance Analysis (High confidence)")
	assert.Contains(t, md, "- Day_Status: Full Day(1), Absent(1)")
	assert.NotContains(t, md, "[ML PATTERNS]")
}
