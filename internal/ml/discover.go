// Package ml discovers business rules with a decision tree and a random
// forest trained on an automatically identified target column, and serves
// single-record predictions from the resulting Model value.
package ml

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/rulescout/internal/dataset"
)

// Training parameters.
const (
	MinSamples    = 10
	TreeMaxDepth  = 5
	TreeMinSplit  = 10
	MaxRulesShown = 15
)

// TargetKeywords are tried in order when looking for an outcome column.
var TargetKeywords = []string{
	"risk", "risk_level", "attrition", "attrition_flag", "churn",
	"performance_score", "performance_rating", "employee_status",
	"status", "warning", "outcome",
}

// Discovery is the outcome of rule discovery.
type Discovery struct {
	Domain            string     `json:"domain,omitempty"`
	Rules             []Rule     `json:"rules"`
	FeatureImportance Importance `json:"feature_importance"`
	TargetColumn      string     `json:"target_column,omitempty"`
	ModelType         ModelKind  `json:"model_type,omitempty"`
	Message           string     `json:"message,omitempty"`
}

// IdentifyTarget returns the first column matching a target keyword, in
// keyword order, skipping identifier columns. It returns "" when none match.
func IdentifyTarget(ds *dataset.Dataset) string {
	if ds == nil {
		return ""
	}
	for _, kw := range TargetKeywords {
		for _, c := range ds.Columns {
			lower := strings.ToLower(c.Name)
			if strings.Contains(lower, kw) && !strings.Contains(lower, "id") {
				return c.Name
			}
		}
	}
	return ""
}

// Discover trains a tree and a forest on the identified target and extracts
// readable rules. Without a target it falls back to percentile rules and
// returns a nil model. Failures are reported in Discovery.Message.
func Discover(ds *dataset.Dataset, domain string) (d Discovery, m *Model) {
	d = Discovery{Domain: domain, Rules: []Rule{}, FeatureImportance: Importance{}}
	if ds.Empty() {
		d.Message = "Insufficient data for ML analysis (need at least 10 samples)"
		return d, nil
	}
	target := IdentifyTarget(ds)
	if target == "" {
		return syntheticRules(ds, domain), nil
	}

	defer func() {
		if r := recover(); r != nil {
			d = Discovery{
				Domain: domain, Rules: []Rule{}, FeatureImportance: Importance{},
				Message: fmt.Sprintf("Error in ML analysis: %v", r),
			}
			m = nil
		}
	}()

	x, y, model := prepare(ds, target)
	if len(y) < MinSamples {
		d.Message = "Insufficient data for ML analysis (need at least 10 samples)"
		return d, nil
	}
	if len(model.Features) == 0 {
		d.Message = "Error in ML analysis: no feature columns besides the target"
		return d, nil
	}

	classes := len(model.TargetClasses)
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	model.Tree, _ = growTree(x, y, idx, classes, TreeConfig{MaxDepth: TreeMaxDepth, MinSplit: TreeMinSplit}, nil)
	var raw []float64
	model.Forest, raw = trainForest(x, y, classes, ForestTrees, ForestSeed)
	model.FeatureImportance = rankImportance(model.FeatureNames(), raw)

	rules := extractRules(model.Tree, model.FeatureNames(), target, model.TargetClasses)
	if len(rules) > MaxRulesShown {
		rules = rules[:MaxRulesShown]
	}
	d.Rules = rules
	d.FeatureImportance = model.FeatureImportance
	d.TargetColumn = target
	d.ModelType = model.Kind
	return d, model
}

// prepare encodes every non-target column as a feature and the target as
// class codes (classification) or values (regression). Regression rows with
// a missing target are dropped.
func prepare(ds *dataset.Dataset, target string) ([][]float64, []float64, *Model) {
	tc, _ := ds.Column(target)
	m := &Model{TargetColumn: target}

	var keep []int
	var y []float64
	if tc.Kind == dataset.KindNumeric {
		m.Kind = Regression
		for i, v := range tc.Values {
			if !v.Null {
				keep = append(keep, i)
				y = append(y, v.Num)
			}
		}
	} else {
		m.Kind = Classification
		raw := labels(tc)
		enc := FitLabels(raw)
		m.TargetClasses = enc.Classes
		for i, v := range raw {
			code, _ := enc.Transform(v)
			keep = append(keep, i)
			y = append(y, float64(code))
		}
	}

	var cols [][]float64
	for _, c := range ds.Columns {
		if c.Name == target {
			continue
		}
		f, col := encodeColumn(c)
		m.Features = append(m.Features, f)
		cols = append(cols, col)
	}
	x := make([][]float64, len(keep))
	for r, i := range keep {
		row := make([]float64, len(cols))
		for j, col := range cols {
			row[j] = col[i]
		}
		x[r] = row
	}
	return x, y, m
}

// Synthetic rule constants.
const (
	syntheticAttendanceScore = 35.0
	syntheticLateScore       = 30.0
	syntheticLeaveScore      = 25.0
)

// syntheticRules derives percentile threshold rules from attendance, late
// and leave columns when the dataset has no outcome column.
func syntheticRules(ds *dataset.Dataset, domain string) Discovery {
	d := Discovery{Domain: domain, Rules: []Rule{}, FeatureImportance: Importance{}, ModelType: Synthetic}
	find := func(key string) *dataset.Column {
		for _, c := range ds.Columns {
			lower := strings.ToLower(c.Name)
			if strings.Contains(lower, key) && !strings.Contains(lower, "id") {
				return c
			}
		}
		return nil
	}

	if c := find("attendance"); c != nil && len(c.Numbers()) > 0 {
		th := percentile(c.Numbers(), 0.25)
		d.Rules = append(d.Rules, Rule{
			Rule:        fmt.Sprintf("IF %s < %.1f THEN RISK = HIGH", c.Name, th),
			Description: fmt.Sprintf("Employees with %s below %.1f are at high risk", c.Name, th),
			Confidence:  0.75,
		})
		d.FeatureImportance = append(d.FeatureImportance, FeatureScore{Feature: c.Name, Score: syntheticAttendanceScore})
	}
	if c := find("late"); c != nil && len(c.Numbers()) > 0 {
		th := percentile(c.Numbers(), 0.75)
		d.Rules = append(d.Rules, Rule{
			Rule:        fmt.Sprintf("IF %s > %.1f THEN RISK = HIGH", c.Name, th),
			Description: fmt.Sprintf("Employees with %s above %.1f are at high risk", c.Name, th),
			Confidence:  0.70,
		})
		d.FeatureImportance = append(d.FeatureImportance, FeatureScore{Feature: c.Name, Score: syntheticLateScore})
	}
	if c := find("leave"); c != nil && len(c.Numbers()) > 0 {
		th := percentile(c.Numbers(), 0.75)
		d.Rules = append(d.Rules, Rule{
			Rule:        fmt.Sprintf("IF %s > %.1f THEN REVIEW_REQUIRED = TRUE", c.Name, th),
			Description: fmt.Sprintf("Employees with %s above %.1f require HR review", c.Name, th),
			Confidence:  0.65,
		})
		d.FeatureImportance = append(d.FeatureImportance, FeatureScore{Feature: c.Name, Score: syntheticLeaveScore})
	}
	return d
}
