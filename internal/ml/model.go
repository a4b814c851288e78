package ml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ErrNotTrained is reported when predicting without a trained model.
var ErrNotTrained = errors.New("model not trained")

const notTrainedMessage = "Model not trained. Please analyze a dataset first."

// ModelKind is classification or regression.
type ModelKind string

const (
	Classification ModelKind = "classification"
	Regression     ModelKind = "regression"
	// Synthetic marks percentile rules produced without a target column.
	Synthetic ModelKind = "synthetic"
)

// Model is an immutable trained model. It is safe for concurrent Predict
// calls and round-trips through JSON.
type Model struct {
	TargetColumn      string     `json:"target_column"`
	Kind              ModelKind  `json:"model_type"`
	Features          []Feature  `json:"features"`
	TargetClasses     []string   `json:"target_classes,omitempty"`
	Tree              *Tree      `json:"decision_tree"`
	Forest            *Forest    `json:"random_forest"`
	FeatureImportance Importance `json:"feature_importance"`
}

// Prediction is the result of a single-record prediction. Error is set
// instead of the outcome fields when prediction fails.
type Prediction struct {
	PredictedOutcome       string  `json:"predicted_outcome,omitempty"`
	Confidence             float64 `json:"confidence,omitempty"`
	Explanation            string  `json:"explanation,omitempty"`
	DecisionTreePrediction string  `json:"decision_tree_prediction,omitempty"`
	RandomForestPrediction string  `json:"random_forest_prediction,omitempty"`
	Error                  string  `json:"error,omitempty"`
	Details                string  `json:"details,omitempty"`
}

// Failed reports whether p carries an error.
func (p Prediction) Failed() bool { return p.Error != "" }

// Err converts a failed prediction to an error. ErrNotTrained is matched with
// errors.Is.
func (p Prediction) Err() error {
	switch {
	case !p.Failed():
		return nil
	case p.Error == notTrainedMessage:
		return ErrNotTrained
	default:
		return errors.New(p.Error)
	}
}

// FeatureNames returns the input columns in model order.
func (m *Model) FeatureNames() []string {
	out := make([]string, len(m.Features))
	for i, f := range m.Features {
		out[i] = f.Name
	}
	return out
}

// Predict scores one record keyed by column name. Missing features and
// unseen categories encode as 0. A nil model reports the not-trained error.
func (m *Model) Predict(record map[string]any) (p Prediction) {
	if m == nil || m.Tree == nil || m.Forest == nil || len(m.Forest.Trees) == 0 {
		return Prediction{Error: notTrainedMessage}
	}
	defer func() {
		if r := recover(); r != nil {
			p = Prediction{
				Error:   fmt.Sprintf("Prediction error: %v", r),
				Details: "Please ensure all required features are provided with correct data types",
			}
		}
	}()

	x, err := m.encode(record)
	if err != nil {
		return Prediction{
			Error:   fmt.Sprintf("Prediction error: %v", err),
			Details: "Please ensure all required features are provided with correct data types",
		}
	}

	var outcome, dt, rf string
	var conf float64
	if m.Kind == Classification {
		proba := m.Forest.Proba(x)
		best := argmax(proba)
		dt = m.className(int(m.Tree.Predict(x)))
		rf = m.className(best)
		outcome, conf = rf, proba[best]
	} else {
		dt = formatFloat(m.Tree.Predict(x))
		rf = formatFloat(m.Forest.Predict(x))
		outcome, conf = rf, 0.8
	}
	return Prediction{
		PredictedOutcome:       outcome,
		Confidence:             conf,
		Explanation:            m.explain(record, outcome, conf),
		DecisionTreePrediction: dt,
		RandomForestPrediction: rf,
	}
}

func (m *Model) className(i int) string {
	if i >= 0 && i < len(m.TargetClasses) {
		return m.TargetClasses[i]
	}
	return strconv.Itoa(i)
}

func (m *Model) encode(record map[string]any) ([]float64, error) {
	x := make([]float64, len(m.Features))
	for i, f := range m.Features {
		v, ok := record[f.Name]
		if !ok || v == nil {
			continue
		}
		switch f.Kind {
		case FeatureCategorical:
			if code, ok := f.Encoder.Transform(cast.ToString(v)); ok {
				x[i] = float64(code)
			}
		case FeatureBoolean:
			b, err := cast.ToBoolE(v)
			if err != nil {
				return nil, fmt.Errorf("feature %s: %w", f.Name, err)
			}
			if b {
				x[i] = 1
			}
		default:
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			n, err := cast.ToFloat64E(v)
			if err != nil {
				return nil, fmt.Errorf("feature %s: %w", f.Name, err)
			}
			x[i] = n
		}
	}
	return x, nil
}

// explain builds a short narrative from attendance, lateness and leave
// inputs supplied as numbers.
func (m *Model) explain(record map[string]any, outcome string, conf float64) string {
	var risk, positive []string
	for _, f := range m.Features {
		v, ok := record[f.Name]
		if !ok {
			continue
		}
		n, isNum := number(v)
		if !isNum {
			continue
		}
		lower := strings.ToLower(f.Name)
		shown := fmt.Sprint(v)
		if strings.Contains(lower, "attendance") {
			if n < 75 {
				risk = append(risk, fmt.Sprintf("low %s (%s)", f.Name, shown))
			} else {
				positive = append(positive, fmt.Sprintf("good %s (%s)", f.Name, shown))
			}
		}
		if strings.Contains(lower, "late") && n > 5 {
			risk = append(risk, fmt.Sprintf("high %s (%s)", f.Name, shown))
		}
		if strings.Contains(lower, "leave") && n > 10 {
			risk = append(risk, fmt.Sprintf("high %s (%s)", f.Name, shown))
		}
	}
	var parts []string
	if len(risk) > 0 {
		parts = append(parts, "Employee shows "+strings.Join(risk, ", "))
	}
	if len(positive) > 0 {
		parts = append(parts, "Positive indicators: "+strings.Join(positive, ", "))
	}
	if len(parts) == 0 {
		parts = append(parts, "Based on the provided employee data")
	}
	parts = append(parts, fmt.Sprintf("predicted outcome is '%s' with %.1f%% confidence", outcome, conf*100))
	return strings.Join(parts, ". ") + "."
}

// number reports numeric Go values; strings are never numbers here.
func number(v any) (float64, bool) {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return cast.ToFloat64(v), true
	}
	return 0, false
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
