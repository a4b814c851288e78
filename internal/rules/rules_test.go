package rules

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/rulescout/internal/dataset"
)

func mustDataset(t *testing.T, names []string, cols ...[]string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromColumns("test", names, cols)
	require.NoError(t, err)
	return ds
}

func ruleTexts(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Rule
	}
	return out
}

func TestValidationIdentifierUnique(t *testing.T) {
	ds := mustDataset(t, []string{"employee_id", "dept_code", "age", "salary", "overtime"},
		[]string{"1", "2", "3"},
		[]string{"A", "A", "B"},
		[]string{"25", "31", "40"},
		[]string{"50000", "0", "72000"},
		[]string{"1", "-2", "0"},
	)
	recs := Validation(ds, DefaultThresholds())
	assert.Equal(t, []string{"employee_id IS NOT NULL AND UNIQUE", "age >= 0", "salary >= 0"}, ruleTexts(recs))

	id := recs[0]
	assert.Equal(t, KindValidation, id.Kind)
	assert.Equal(t, High, id.Confidence)
	assert.False(t, id.RequiresApproval)
	assert.Equal(t, "UNIQUE (employee_id)", id.SQL)
	assert.Equal(t, ValidationRule{Column: "employee_id", Check: "unique"}, id.Payload)
	assert.Equal(t, "salary represents monetary value and must be non-negative", recs[2].BusinessMeaning)
}

func TestValidationSkipsPercentageAsAge(t *testing.T) {
	ds := mustDataset(t, []string{"attendance_percentage"}, []string{"90", "80"})
	assert.Empty(t, Validation(ds, DefaultThresholds()))
}

func TestDecisionStatusHours(t *testing.T) {
	ds := mustDataset(t, []string{"status", "working_hours"},
		[]string{"Present", "Absent", "Present", "Half Day", "Absent"},
		[]string{"8", "0", "9.5", "4", "0"},
	)
	recs := Decision(ds, DefaultThresholds())
	assert.Equal(t, []string{
		"IF status = 'Absent' THEN working_hours = 0",
		"IF status = 'Half Day' THEN working_hours <= 5",
		"IF status = 'Present' THEN working_hours > 0",
	}, ruleTexts(recs))
	for _, r := range recs {
		assert.Equal(t, High, r.Confidence)
		assert.False(t, r.RequiresApproval)
	}
}

func TestDecisionNotAssumed(t *testing.T) {
	ds := mustDataset(t, []string{"status", "working_hours"},
		[]string{"Present", "Absent", "Present"},
		[]string{"0", "2", "8"},
	)
	assert.Empty(t, Decision(ds, DefaultThresholds()))
}

func TestDecisionLateAndCheckout(t *testing.T) {
	ds := mustDataset(t, []string{"check_in", "check_out", "remarks"},
		[]string{"09:05", "09:40", ""},
		[]string{"18:00", "18:30", "17:00"},
		[]string{"", "Late arrival", "late"},
	)
	recs := Decision(ds, DefaultThresholds())
	require.Len(t, recs, 2)

	late := recs[0]
	assert.Equal(t, "IF check_in > '09:15' THEN Late_Arrival = TRUE", late.Rule)
	assert.Equal(t, Medium, late.Confidence)
	assert.True(t, late.RequiresApproval)
	assert.Equal(t, "Employees checking in after 9:15 AM are marked as late arrival", late.Description)

	assert.Equal(t, "check_out must be after check_in", recs[1].Rule)
	assert.Equal(t, High, recs[1].Confidence)
}

func TestDecisionLateNeedsParseableCheckIn(t *testing.T) {
	ds := mustDataset(t, []string{"check_in", "notes"},
		[]string{"soon", "unknown"},
		[]string{"late", "LATE"},
	)
	assert.Empty(t, Decision(ds, DefaultThresholds()))
}

func TestConstraintsFeasibilityGated(t *testing.T) {
	ok := mustDataset(t, []string{"working_hours"}, []string{"8", "10", "6"})
	recs := Constraints(ok, DefaultThresholds())
	require.Len(t, recs, 1)
	assert.Equal(t, "working_hours <= 24", recs[0].Rule)

	tooMany := mustDataset(t, []string{"working_hours"}, []string{"8", "30", "6"})
	assert.Empty(t, Constraints(tooMany, DefaultThresholds()))
}

func TestConstraintsAgeAndPercent(t *testing.T) {
	ds := mustDataset(t, []string{"Age", "Score %", "attendance_percent"},
		[]string{"17", "45"},
		[]string{"50", "60"},
		[]string{"90", "99"},
	)
	recs := Constraints(ds, DefaultThresholds())
	assert.Equal(t, []string{"18 <= Age <= 70", "0 <= Score % <= 100", "0 <= attendance_percent <= 100"}, ruleTexts(recs))
	assert.True(t, recs[0].RequiresApproval)
	assert.Equal(t, Medium, recs[0].Confidence)
	c := recs[0].Payload.(Constraint)
	assert.Equal(t, 18.0, *c.Min)
	assert.Equal(t, 70.0, *c.Max)
}

func TestDerivations(t *testing.T) {
	ds := mustDataset(t, []string{"CheckIn", "Working_Hours"}, []string{"09:00"}, []string{"10"})
	th := DefaultThresholds()
	th.StandardHours = 8
	recs := Derivations(ds, th)
	require.Len(t, recs, 2)
	assert.Equal(t, Derivation{DerivedField: "Late_Arrival", Formula: "IF CheckIn > '09:15' THEN TRUE ELSE FALSE", Source: "CheckIn"}, recs[0].Payload)
	assert.Equal(t, "Overtime_Hours = max(0, Working_Hours - 8)", recs[1].PseudoCode)
	for _, r := range recs {
		assert.True(t, r.RequiresApproval)
		assert.Equal(t, Medium, r.Confidence)
	}
}

func TestAssociationsOneToOne(t *testing.T) {
	ds := mustDataset(t, []string{"A", "B"},
		[]string{"1", "1", "2", "2"},
		[]string{"x", "x", "y", "y"},
	)
	recs := Associations(ds, DefaultThresholds())
	require.NotEmpty(t, recs)
	assert.Equal(t, Association{Type: "1:1 Mapping", Columns: []string{"A", "B"}}, recs[0].Payload)
	assert.Equal(t, "A uniquely determines B", recs[0].Description)
}

func TestAssociationsExclusionsAndCap(t *testing.T) {
	names := []string{"employee_id", "constant"}
	cols := [][]string{{"1", "2", "3", "4"}, {"k", "k", "k", "k"}}
	for i := 0; i < 8; i++ {
		names = append(names, fmt.Sprintf("col%d", i))
		cols = append(cols, []string{"a", "a", "b", "b"})
	}
	ds := mustDataset(t, names, cols...)
	recs := Associations(ds, DefaultThresholds())
	assert.Len(t, recs, MaxAssociations)
	for _, r := range recs {
		cs := r.Payload.(Association).Columns
		assert.NotContains(t, cs, "employee_id")
		assert.NotContains(t, cs, "constant")
	}
}

func TestGeneratorsIdempotent(t *testing.T) {
	ds := mustDataset(t, []string{"employee_id", "status", "working_hours", "check_in", "check_out", "remarks", "dept", "floor"},
		[]string{"1", "2", "3", "4"},
		[]string{"Present", "Absent", "Present", "Half Day"},
		[]string{"8", "0", "9", "4"},
		[]string{"09:00", "", "09:30", "10:00"},
		[]string{"18:00", "", "18:10", "14:00"},
		[]string{"", "", "Late", ""},
		[]string{"HR", "IT", "HR", "IT"},
		[]string{"1", "2", "1", "2"},
	)
	th := DefaultThresholds()
	gens := map[string]func(*dataset.Dataset, Thresholds) []Record{
		"validation":   Validation,
		"decision":     Decision,
		"constraints":  Constraints,
		"derivations":  Derivations,
		"associations": Associations,
	}
	for name, gen := range gens {
		t.Run(name, func(t *testing.T) {
			first := gen(ds, th)
			assert.Equal(t, first, gen(ds, th))
		})
	}
}

func TestGeneratorsTolerateNilAndEmpty(t *testing.T) {
	empty := mustDataset(t, []string{"status", "working_hours"}, nil, nil)
	for _, gen := range []func(*dataset.Dataset, Thresholds) []Record{Validation, Decision, Constraints, Derivations, Associations} {
		assert.NotPanics(t, func() { gen(nil, DefaultThresholds()) })
		assert.NotPanics(t, func() { gen(empty, DefaultThresholds()) })
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"09:15", "09:15", true},
		{"9:05", "09:05", true},
		{"18:30:10", "18:30", true},
		{"9:15 PM", "21:15", true},
		{"2024-01-02 08:45", "08:45", true},
		{"late", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		c, err := ParseClock(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, c.String())
	}
	a, _ := ParseClock("09:16")
	b, _ := ParseClock("09:15")
	assert.True(t, a.After(b))
	assert.False(t, b.After(b))
}

func TestCountApproval(t *testing.T) {
	ds := mustDataset(t, []string{"check_in", "age"}, []string{"09:00"}, []string{"30"})
	th := DefaultThresholds()
	assert.Equal(t, 2, CountApproval(Decision(ds, th), Constraints(ds, th), Derivations(ds, th)))
}
