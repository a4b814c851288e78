package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/rulescout/internal/dataset"
)

func frame(t *testing.T, names []string, cols ...[]string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromColumns("ml.csv", names, cols)
	require.NoError(t, err)
	return ds
}

// riskFrame is separable on attendance: below 70 is High risk.
func riskFrame(t *testing.T, n int) *dataset.Dataset {
	var att, dept, risk []string
	for i := 0; i < n; i++ {
		a := 50 + i*50/n
		if i%2 == 1 {
			a = 80 + i*20/n
		}
		att = append(att, fmt.Sprint(a))
		dept = append(dept, []string{"HR", "IT", "Ops"}[i%3])
		if a < 70 {
			risk = append(risk, "High")
		} else {
			risk = append(risk, "Low")
		}
	}
	return frame(t, []string{"emp_id", "attendance", "dept", "risk_level"}, idCol(n), att, dept, risk)
}

func idCol(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprint(i + 1)
	}
	return out
}

func TestIdentifyTarget(t *testing.T) {
	tests := []struct {
		cols []string
		want string
	}{
		{[]string{"status", "risk_level"}, "risk_level"},
		{[]string{"status_id", "employee_status"}, "employee_status"},
		{[]string{"Outcome"}, "Outcome"},
		{[]string{"salary", "age"}, ""},
	}
	for _, tt := range tests {
		cols := make([][]string, len(tt.cols))
		for i := range cols {
			cols[i] = []string{"x"}
		}
		assert.Equal(t, tt.want, IdentifyTarget(frame(t, tt.cols, cols...)), tt.cols)
	}
}

func TestDiscoverInsufficientData(t *testing.T) {
	d, m := Discover(riskFrame(t, 9), "HR")
	assert.Nil(t, m)
	assert.Empty(t, d.Rules)
	assert.NotNil(t, d.Rules)
	assert.Contains(t, d.Message, "Insufficient data")
}

func TestDiscoverClassification(t *testing.T) {
	d, m := Discover(riskFrame(t, 40), "HR")
	require.NotNil(t, m)
	assert.Empty(t, d.Message)
	assert.Equal(t, "risk_level", d.TargetColumn)
	assert.Equal(t, Classification, d.ModelType)
	assert.Equal(t, []string{"High", "Low"}, m.TargetClasses)
	assert.Equal(t, []string{"emp_id", "attendance", "dept"}, m.FeatureNames())

	require.NotEmpty(t, d.Rules)
	assert.LessOrEqual(t, len(d.Rules), MaxRulesShown)
	for _, r := range d.Rules {
		assert.True(t, strings.HasPrefix(r.Rule, "IF "), r.Rule)
		assert.Contains(t, r.Rule, " THEN risk_level = ")
	}
	// the root split separates attendance perfectly
	root := m.Tree.Nodes[0]
	assert.Equal(t, 1, root.Feature)
	assert.Len(t, d.Rules, 2)

	require.NotEmpty(t, d.FeatureImportance)
	assert.Equal(t, "attendance", d.FeatureImportance[0].Feature)
	assert.InDelta(t, 100.0, d.FeatureImportance.Total(), 1e-6)
}

func TestDiscoverIsDeterministic(t *testing.T) {
	ds := riskFrame(t, 30)
	a, _ := Discover(ds, "HR")
	b, _ := Discover(ds, "HR")
	assert.Equal(t, a, b)
}

func TestDiscoverRegression(t *testing.T) {
	n := 30
	hours := make([]string, n)
	score := make([]string, n)
	for i := 0; i < n; i++ {
		hours[i] = fmt.Sprint(i)
		if i < 15 {
			score[i] = "2"
		} else {
			score[i] = "8"
		}
	}
	d, m := Discover(frame(t, []string{"hours", "performance_score"}, hours, score), "HR")
	require.NotNil(t, m)
	assert.Equal(t, Regression, d.ModelType)
	require.Len(t, d.Rules, 2)
	assert.Equal(t, "IF hours <= 14.50 THEN performance_score ≈ 2.00", d.Rules[0].Rule)
	assert.Equal(t, "IF hours > 14.50 THEN performance_score ≈ 8.00", d.Rules[1].Rule)

	p := m.Predict(map[string]any{"hours": 3})
	require.False(t, p.Failed(), p.Error)
	assert.Equal(t, 0.8, p.Confidence)
	assert.Equal(t, "2", p.DecisionTreePrediction)
}

func TestSyntheticRules(t *testing.T) {
	n := 12
	att, late, leave := make([]string, n), make([]string, n), make([]string, n)
	for i := 0; i < n; i++ {
		att[i] = fmt.Sprint(60 + i*3)
		late[i] = fmt.Sprint(i % 6)
		leave[i] = fmt.Sprint(i)
	}
	d, m := Discover(frame(t, []string{"attendance_pct", "late_days", "leave_days"}, att, late, leave), "HR")
	assert.Nil(t, m)
	assert.Equal(t, Synthetic, d.ModelType)
	require.Len(t, d.Rules, 3)
	assert.Equal(t, "IF attendance_pct < 68.2 THEN RISK = HIGH", d.Rules[0].Rule)
	assert.Equal(t, Importance{
		{"attendance_pct", 35}, {"late_days", 30}, {"leave_days", 25},
	}, d.FeatureImportance)
	assert.LessOrEqual(t, d.FeatureImportance.Total(), 100.0)
}

func TestSyntheticRulesSkipNonNumeric(t *testing.T) {
	d, _ := Discover(frame(t, []string{"attendance", "employee_name"}, []string{"good", "bad"}, []string{"a", "b"}), "HR")
	assert.Empty(t, d.Rules)
	assert.Empty(t, d.FeatureImportance)
}

func TestPredict(t *testing.T) {
	_, m := Discover(riskFrame(t, 40), "HR")
	require.NotNil(t, m)

	low := m.Predict(map[string]any{"attendance": 55.0, "dept": "IT", "emp_id": 3})
	require.False(t, low.Failed(), low.Error)
	assert.Equal(t, "High", low.PredictedOutcome)
	assert.Equal(t, "High", low.DecisionTreePrediction)
	assert.Greater(t, low.Confidence, 0.5)
	assert.True(t, strings.HasPrefix(low.Explanation, "Employee shows low attendance (55)"), low.Explanation)

	high := m.Predict(map[string]any{"attendance": "95", "dept": "Unknown dept"})
	require.False(t, high.Failed(), high.Error)
	assert.Equal(t, "Low", high.PredictedOutcome)
	assert.True(t, strings.HasPrefix(high.Explanation, "Based on the provided employee data"))

	bad := m.Predict(map[string]any{"attendance": "lots"})
	assert.True(t, bad.Failed())
	assert.Contains(t, bad.Error, "Prediction error")
	assert.NotEmpty(t, bad.Details)
}

func TestPredictWithoutModel(t *testing.T) {
	var m *Model
	p := m.Predict(map[string]any{"a": 1})
	assert.Equal(t, "Model not trained. Please analyze a dataset first.", p.Error)
	assert.True(t, errors.Is(p.Err(), ErrNotTrained))
}

func TestModelJSONRoundTrip(t *testing.T) {
	_, m := Discover(riskFrame(t, 40), "HR")
	require.NotNil(t, m)
	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var back Model
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, m.FeatureImportance, back.FeatureImportance)

	in := map[string]any{"attendance": 62.0, "dept": "HR"}
	assert.Equal(t, m.Predict(in), back.Predict(in))
}

func TestImportanceJSONKeepsOrder(t *testing.T) {
	imp := Importance{{"b", 60}, {"a", 40}}
	raw, err := json.Marshal(imp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":60,"a":40}`, string(raw))
	assert.True(t, strings.HasPrefix(string(raw), `{"b"`))

	var back Importance
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, imp, back)
}

func TestExtractRulesCapped(t *testing.T) {
	n := 64
	x := make([][]float64, n)
	y := make([]float64, n)
	idx := make([]int, n)
	for i := range x {
		x[i] = []float64{float64(i)}
		y[i] = float64(i % 2)
		idx[i] = i
	}
	tree, _ := growTree(x, y, idx, 2, TreeConfig{MinSplit: 2}, nil)
	rules := extractRules(tree, []string{"v"}, "odd", []string{"no", "yes"})
	assert.Len(t, rules, MaxTreeRules)
	for _, r := range rules {
		assert.True(t, strings.HasPrefix(r.Rule, "IF v "), r.Rule)
		assert.Equal(t, 1.0, r.Confidence)
		assert.Equal(t, 1, r.Support)
	}
}

func TestLabelEncoder(t *testing.T) {
	enc := FitLabels([]string{"b", "a", "c", "a"})
	assert.Equal(t, []string{"a", "b", "c"}, enc.Classes)
	code, ok := enc.Transform("c")
	assert.True(t, ok)
	assert.Equal(t, 2, code)
	_, ok = enc.Transform("z")
	assert.False(t, ok)
	assert.Equal(t, "b", enc.Inverse(1))
	assert.Equal(t, "", enc.Inverse(7))
}

func TestDiscoverPatterns(t *testing.T) {
	dept := []string{"HR", "HR", "HR", "IT", "IT", "IT", "IT", "HR", "IT", "HR"}
	shift := []string{"Day", "Day", "Day", "Night", "Night", "Night", "Night", "Day", "Night", "Day"}
	ds := frame(t, []string{"dept", "shift", "hours"}, dept, shift, idCol(10))
	ps := DiscoverPatterns(ds, 0.1)
	require.NotEmpty(t, ps)
	assert.LessOrEqual(t, len(ps), MaxPatterns)
	assert.Equal(t, 1.0, ps[0].Confidence)
	assert.Equal(t, "dept_HR → shift_Day", ps[0].Pattern)
	assert.Equal(t, 0.5, ps[0].Support)
	assert.Equal(t, "When dept_HR, then shift_Day (confidence: 100.0%)", ps[0].Description)
}

func TestDiscoverPatternsNeedsTwoCategoricals(t *testing.T) {
	ds := frame(t, []string{"dept", "hours"}, []string{"a", "b"}, []string{"1", "2"})
	assert.Empty(t, DiscoverPatterns(ds, 0.1))
	assert.Empty(t, DiscoverPatterns(nil, 0.1))
}
