package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/rulescout/internal/catalog"
	"github.com/KaramelBytes/rulescout/internal/dataset"
)

func hrFrame(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromColumns("hr.csv",
		[]string{"employee_name", "salary", "present_days", "absent_days", "leave_type", "leave_days", "rating"},
		[][]string{
			{"Asha", "Ravi", "", "Meena"},
			{"85000", "50000", "30000", ""},
			{"28", "20", "10", "0"},
			{"2", "10", "20", "0"},
			{"Casual", "Sick", "LOP", "casual"},
			{"2", "3", "1", "5"},
			{"4.7", "3.5", "2", ""},
		})
	require.NoError(t, err)
	return ds
}

func TestMatchKeywords(t *testing.T) {
	e := NewEngine(catalog.Default())
	km := e.MatchKeywords([]string{"Salary", "present_days", "absent_days", "rating", "remarks"})

	assert.Contains(t, km.AllMatched, "salary")
	assert.Equal(t, 5, km.TotalColumns)
	assert.Equal(t, []string{"Salary", "present_days", "absent_days", "rating"}, km.MatchedColumns)
	assert.Equal(t, []catalog.ColumnMatch{{Column: "Salary", MatchType: "exact"}}, km.KeywordToColumn["salary"])

	sal, ok := km.Categorized[CategorySalary]
	require.True(t, ok)
	assert.True(t, sal.Triggered)
	assert.Equal(t, "salary", sal.Keywords[0])
	assert.Equal(t, []string{"Salary"}, sal.Columns)
	assert.Equal(t, "IF salary found → Apply Salary Level Rule (>=80K=High, >=40K=Medium, <40K=Low)", sal.LogicRules[0])

	att := km.Categorized[CategoryAttendance]
	assert.Equal(t, []string{"present_days", "absent_days"}, att.Keywords)
	assert.Equal(t, []string{"present_days", "absent_days"}, att.Columns)

	_, ok = km.Categorized[CategoryLeave]
	assert.False(t, ok)
}

func TestAnalyzeSalary(t *testing.T) {
	rep := NewEngine(catalog.Default()).Analyze(hrFrame(t))
	require.NotNil(t, rep.Predictions.Salary)
	s := rep.Predictions.Salary

	levels := make([]string, len(s.Predictions))
	for i, p := range s.Predictions {
		levels[i] = p.Prediction
	}
	assert.Equal(t, []string{LevelHigh, LevelMedium, LevelLow, LevelUnknown}, levels)
	assert.Equal(t, []string{
		"Step 1: Read salary = 85,000",
		"Step 2: Check IF 85,000 >= 80,000",
		"Step 3: Condition TRUE → Prediction = High",
	}, s.Predictions[0].LogicSteps)
	assert.Equal(t, "Salary 50,000 >= 40,000 but < 80,000, so Salary Level is Medium", s.Predictions[1].Explanation)
	assert.Len(t, s.Predictions[2].LogicSteps, 4)
	assert.Equal(t, "Salary value is missing", s.Predictions[3].Explanation)
	assert.Nil(t, s.Predictions[3].Salary)

	assert.Equal(t, "Asha", s.Predictions[0].EmployeeName)
	assert.Equal(t, "Unknown", s.Predictions[2].EmployeeName)
	assert.Equal(t, "Ravi", s.Predictions[1].FullRecord["employee_name"])

	st := s.Statistics
	assert.Equal(t, 85000.0, *st.Highest)
	assert.Equal(t, 30000.0, *st.Lowest)
	assert.InDelta(t, 55000.0, *st.Average, 1e-9)
	assert.Equal(t, 50000.0, *st.Median)
	assert.Equal(t, 1, st.HighCount)
	assert.Equal(t, 1, st.MediumCount)
	assert.Equal(t, 1, st.LowCount)
	require.NotNil(t, st.HighestRecord)
	assert.Equal(t, 0, st.HighestRecord.RecordIndex)
	assert.Equal(t, []string{"salary"}, s.MatchedColumns)
}

func TestAnalyzeSalaryWithGroupedFigures(t *testing.T) {
	data := "employee_name,salary\nAsha,\"85,000\"\nRavi,\"45,000\"\nMeena,\"1,250,000\"\n"
	ds, err := dataset.Read("hr.csv", []byte(data), dataset.DefaultOptions())
	require.NoError(t, err)

	s := NewEngine(catalog.Default()).Analyze(ds).Predictions.Salary
	require.NotNil(t, s)
	require.Len(t, s.Predictions, 3)
	assert.Equal(t, LevelHigh, s.Predictions[0].Prediction)
	assert.Equal(t, 85000.0, *s.Predictions[0].Salary)
	assert.Equal(t, LevelMedium, s.Predictions[1].Prediction)
	assert.Equal(t, LevelHigh, s.Predictions[2].Prediction)
	assert.Equal(t, 1250000.0, *s.Statistics.Highest)
}

func TestAnalyzeAttendanceFromDays(t *testing.T) {
	rep := NewEngine(catalog.Default()).Analyze(hrFrame(t))
	a := rep.Predictions.Attendance
	require.NotNil(t, a)

	statuses := make([]string, len(a.Predictions))
	for i, p := range a.Predictions {
		statuses[i] = p.Status
	}
	assert.Equal(t, []string{StatusExcellent, StatusFair, StatusPoor, StatusUnknown}, statuses)
	assert.Equal(t, "Attendance 93.3% >= 90%, so Status is Excellent (Normal)", a.Predictions[0].Explanation)
	assert.Equal(t, "Attendance 66.7% >= 60% but < 75%, so Status is Fair (Warning)", a.Predictions[1].Explanation)
	assert.Equal(t, ClassWorst, a.Predictions[2].Category)
	assert.Nil(t, a.Predictions[3].AttendancePercentage)

	st := a.Statistics
	assert.Equal(t, 1, st.NormalCount)
	assert.Equal(t, 1, st.WarningCount)
	assert.Equal(t, 1, st.WorstCount)
	assert.Equal(t, 0, st.GoodCount)
	require.NotNil(t, st.BestRecord)
	require.NotNil(t, st.WorstRecord)
	assert.Equal(t, 0, st.BestRecord.RecordIndex)
	assert.Equal(t, 2, st.WorstRecord.RecordIndex)
	assert.Equal(t, []string{"present_days", "absent_days"}, a.LogicFlow.ColumnsUsed)
}

func TestAnalyzeAttendancePercentageColumn(t *testing.T) {
	ds, err := dataset.FromColumns("att.csv",
		[]string{"name", "attendance_percentage"},
		[][]string{{"A", "B", "C", "D"}, {"95", "80", "70", "55"}})
	require.NoError(t, err)

	a := NewEngine(catalog.Default()).Analyze(ds).Predictions.Attendance
	require.NotNil(t, a)
	var got []string
	for _, p := range a.Predictions {
		got = append(got, p.Status)
	}
	assert.Equal(t, []string{StatusExcellent, StatusGood, StatusFair, StatusPoor}, got)
	assert.InDelta(t, 75.0, *a.Statistics.AveragePercentage, 1e-9)
	assert.Equal(t, 95.0, *a.Statistics.BestPercentage)
	assert.Equal(t, "D", a.Statistics.WorstRecord.EmployeeName)
}

func TestAnalyzeLeave(t *testing.T) {
	l := NewEngine(catalog.Default()).Analyze(hrFrame(t)).Predictions.Leave
	require.NotNil(t, l)

	var got []string
	for _, p := range l.Predictions {
		got = append(got, p.Status)
	}
	assert.Equal(t, []string{LeaveApproved, LeaveApprovedWithProof, LeaveLOP, LeaveRejected}, got)
	assert.Equal(t, "Leave type is Casual and days (2) <= 2, so Status is Approved", l.Predictions[0].Explanation)
	assert.Equal(t, "Leave type is Casual but days (5) > 2, so Status is Rejected", l.Predictions[3].Explanation)

	st := l.Statistics
	assert.Equal(t, 4, st.TotalRecords)
	assert.Equal(t, 2, st.ApprovedCount)
	assert.Equal(t, 1, st.RejectedCount)
	assert.Equal(t, 1, st.LOPCount)
	assert.Equal(t, map[string]int{"Casual": 1, "casual": 1, "Sick": 1, "LOP": 1}, st.ByLeaveType)
}

func TestLeaveOutcome(t *testing.T) {
	str := func(s string) *string { return &s }
	tests := []struct {
		name   string
		typ    *string
		days   *float64
		status string
		expl   string
	}{
		{"no type", nil, ptr(1.0), LeaveUnknown, "Leave type not specified"},
		{"casual without days", str("Casual"), nil, LeaveRejected, "Leave type is Casual but days (N/A) > 2, so Status is Rejected"},
		{"lop any case", str("lop"), nil, LeaveLOP, "Leave type is LOP (Loss of Pay), salary will be deducted"},
		{"other", str("Earned"), ptr(3.0), LeavePending, "Leave type is Earned, requires review"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, expl := leaveOutcome(tt.typ, tt.days, 2)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.expl, expl)
		})
	}
}

func TestAnalyzePerformance(t *testing.T) {
	p := NewEngine(catalog.Default()).Analyze(hrFrame(t)).Predictions.Performance
	require.NotNil(t, p)

	var levels []string
	for _, r := range p.Predictions {
		levels = append(levels, r.PerformanceLevel)
	}
	assert.Equal(t, []string{PerformanceExcellent, PerformanceGood, PerformanceNeedsImprovement, PerformanceUnknown}, levels)
	assert.Equal(t, 20, *p.Predictions[0].IncrementPercentage)
	assert.Equal(t, 10, *p.Predictions[1].IncrementPercentage)
	assert.Equal(t, 0, *p.Predictions[2].IncrementPercentage)
	assert.Nil(t, p.Predictions[3].IncrementPercentage)
	assert.Equal(t, "Rating 2 < 3, so Performance is Needs Improvement, Increment = 0%", p.Predictions[2].Explanation)

	assert.Equal(t, 4.7, *p.Statistics.HighestRating)
	assert.InDelta(t, 3.4, *p.Statistics.AverageRating, 1e-9)
	assert.Equal(t, 0, p.Statistics.HighestRecord.RecordIndex)
}

func TestAnalyzeSummary(t *testing.T) {
	rep := NewEngine(catalog.Default()).Analyze(hrFrame(t))
	assert.Equal(t, "HR", rep.Domain)
	assert.Equal(t, 4, rep.TotalRecords)
	assert.Equal(t, 7, rep.TotalColumns)

	var cats []string
	for _, le := range rep.LogicSummary {
		cats = append(cats, le.Category)
		assert.NotEmpty(t, le.RuleApplied)
	}
	assert.Equal(t, []string{CategorySalary, CategoryAttendance, CategoryLeave, CategoryPerformance}, cats)
}

func TestWithThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.SalaryHigh = 90000
	base := NewEngine(catalog.Default())
	e := base.WithThresholds(th)

	s := e.Analyze(hrFrame(t)).Predictions.Salary
	assert.Equal(t, LevelMedium, s.Predictions[0].Prediction)
	assert.Equal(t, 90000.0, s.LogicFlow.Thresholds["high"])
	assert.Equal(t, LevelHigh, base.Analyze(hrFrame(t)).Predictions.Salary.Predictions[0].Prediction)
}

func TestAnalyzeEmpty(t *testing.T) {
	rep := NewEngine(catalog.Default()).Analyze(nil)
	assert.Zero(t, rep.TotalRecords)
	assert.Nil(t, rep.Predictions.Salary)
	assert.Empty(t, rep.LogicSummary)
	assert.Empty(t, rep.KeywordMatches.AllMatched)
}

func TestGrouped(t *testing.T) {
	assert.Equal(t, "1,234,567", grouped(1234567))
	assert.Equal(t, "999", grouped(999))
	assert.Equal(t, "-1,500", grouped(-1500))
	assert.Equal(t, "85,000", grouped(84999.6))
	assert.Equal(t, "0", grouped(0.4))
}
