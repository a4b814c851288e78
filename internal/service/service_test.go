package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/rulescout/internal/analysis"
	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/ml"
	"github.com/KaramelBytes/rulescout/internal/store"
)

// riskFrame is separable on attendance: below 70 is High risk.
func riskFrame(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	var ids, att, dept, risk []string
	for i := 0; i < n; i++ {
		a := 50 + i*50/n
		if i%2 == 1 {
			a = 80 + i*20/n
		}
		ids = append(ids, fmt.Sprint(i+1))
		att = append(att, fmt.Sprint(a))
		dept = append(dept, []string{"HR", "IT", "Ops"}[i%3])
		if a < 70 {
			risk = append(risk, "High")
		} else {
			risk = append(risk, "Low")
		}
	}
	ds, err := dataset.FromColumns("risk.csv", []string{"emp_id", "attendance", "dept", "risk_level"}, [][]string{ids, att, dept, risk})
	require.NoError(t, err)
	return ds
}

func newService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	return New(Options{Store: st}), st
}

func TestAnalyzeAndPredict(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	res, err := svc.AnalyzeAndPredict(ctx, riskFrame(t, 40), map[string]any{"attendance": 55.0, "dept": "IT"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.DatasetID)
	assert.True(t, res.ModelAvailable)
	assert.Equal(t, "risk_level", res.TargetColumn)
	assert.Equal(t, "High", res.PredictedOutcome)
	require.NotNil(t, res.PredictionConfidence)
	assert.Greater(t, *res.PredictionConfidence, 0.5)
	assert.NotEmpty(t, res.BusinessRules)
	assert.LessOrEqual(t, len(res.BusinessRules), MaxBusinessRules)
	assert.LessOrEqual(t, len(res.HiddenPatterns), MaxHiddenPatterns)
	assert.Equal(t, []string{"attendance"}, res.ImportantFeatures.Numerical)
	assert.Equal(t, []string{"dept", "risk_level"}, res.ImportantFeatures.Categorical)

	_, err = st.Dataset(ctx, res.DatasetID)
	require.NoError(t, err)
	logged, err := st.Predictions(ctx, res.DatasetID)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, "High", logged[0].PredictionResult.PredictedOutcome)
}

func TestPredictAppendsLog(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)
	res, err := svc.AnalyzeAndPredict(ctx, riskFrame(t, 40), nil)
	require.NoError(t, err)
	assert.Empty(t, res.PredictedOutcome)

	pr, err := svc.Predict(ctx, res.DatasetID, map[string]any{"attendance": "95", "dept": "HR"})
	require.NoError(t, err)
	assert.Equal(t, "Low", pr.PredictedOutcome)
	assert.NotEmpty(t, pr.PredictionID)
	assert.NotEmpty(t, pr.FeatureImportance)

	logged, err := st.Predictions(ctx, res.DatasetID)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, pr.PredictionID, logged[0].PredictionID)
}

func TestPredictErrors(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	_, err := svc.Predict(ctx, "unknown", map[string]any{"a": 1})
	assert.True(t, errors.Is(err, ErrModelNotFound))

	_, m := ml.Discover(riskFrame(t, 40), "HR")
	require.NoError(t, st.SaveModel(ctx, "orphan", m))
	_, err = svc.Predict(ctx, "orphan", map[string]any{"attendance": 60})
	assert.True(t, errors.Is(err, ErrDatasetNotFound))

	require.NoError(t, st.SaveDataset(ctx, "orphan", riskFrame(t, 40)))
	_, err = svc.Predict(ctx, "orphan", map[string]any{"attendance": "lots"})
	var pe *PredictionError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Message, "Prediction error")
	assert.NotEmpty(t, pe.Details)

	logged, err := st.Predictions(ctx, "orphan")
	require.NoError(t, err)
	assert.Empty(t, logged)
}

func TestAnalyzeWithoutTarget(t *testing.T) {
	ds, err := dataset.FromColumns("plain.csv", []string{"hours", "city"}, [][]string{{"8", "9"}, {"Pune", "Delhi"}})
	require.NoError(t, err)

	res, err := New(Options{}).Analyze(context.Background(), ds, "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.DatasetID)
	assert.False(t, res.ModelAvailable)
	assert.Empty(t, res.TargetColumn)
	assert.NotNil(t, res.KeywordsMatched)
}

func TestAnalyzeEmpty(t *testing.T) {
	_, err := New(Options{}).Analyze(context.Background(), nil, "")
	assert.True(t, errors.Is(err, dataset.ErrEmpty))
	_, err = New(Options{}).Predict(context.Background(), "x", nil)
	assert.Error(t, err)
}

func TestImportantFeatures(t *testing.T) {
	ds, err := dataset.FromColumns("f.csv",
		[]string{"emp_id", "join_date", "salary", "dept", "full_name", "remote"},
		[][]string{{"1", "2"}, {"2024-01-01", "2024-02-01"}, {"100", "200"}, {"HR", "IT"}, {"A", "B"}, {"true", "false"}})
	require.NoError(t, err)

	got := importantFeatures(analysis.ProfileDataset(ds))
	assert.Equal(t, []string{"salary"}, got.Numerical)
	assert.Equal(t, []string{"dept", "remote"}, got.Categorical)
}

func TestBusinessRules(t *testing.T) {
	got := businessRules([]ml.Rule{
		{Rule: "IF a > 1 THEN risk = High"},
		{Rule: "percentile", Description: "Values above 90th percentile"},
		{Rule: "no description"},
	})
	assert.Equal(t, []string{"IF a > 1 THEN risk = High", "Values above 90th percentile"}, got)
}

func TestDecideAndPredictAll(t *testing.T) {
	svc := New(Options{})
	ds, err := dataset.FromColumns("hr.csv", []string{"employee_name", "salary"}, [][]string{{"A", "B"}, {"90000", "30000"}})
	require.NoError(t, err)

	rep := svc.Decide(ds, false)
	assert.Equal(t, 2, rep.AppliedRules.TotalRecordsAnalyzed)

	pr := svc.PredictAll(ds)
	require.NotNil(t, pr.Predictions.Salary)
	assert.Equal(t, "High", pr.Predictions.Salary.Predictions[0].Prediction)
}
