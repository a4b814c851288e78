package ml

import (
	"fmt"
	"strings"
)

// MaxTreeRules caps the rules extracted from one tree.
const MaxTreeRules = 20

// Rule is a human-readable rule discovered from a tree or synthesised from
// percentiles.
type Rule struct {
	Rule           string   `json:"rule"`
	Description    string   `json:"description"`
	Confidence     float64  `json:"confidence,omitempty"`
	PredictedValue *float64 `json:"predicted_value,omitempty"`
	Support        int      `json:"support,omitempty"`
}

// extractRules walks t depth-first, left branch first, and renders one
// IF-THEN rule per leaf.
func extractRules(t *Tree, features []string, target string, classes []string) []Rule {
	var out []Rule
	var walk func(i int, conds []string)
	walk = func(i int, conds []string) {
		n := t.Nodes[i]
		if !n.IsLeaf() {
			name := features[n.Feature]
			walk(n.Left, append(conds[:len(conds):len(conds)], fmt.Sprintf("%s <= %.2f", name, n.Threshold)))
			walk(n.Right, append(conds[:len(conds):len(conds)], fmt.Sprintf("%s > %.2f", name, n.Threshold)))
			return
		}
		cond := "TRUE"
		if len(conds) > 0 {
			cond = strings.Join(conds, " AND ")
		}
		if t.Classes == 0 {
			v := n.Value[0]
			out = append(out, Rule{
				Rule:           fmt.Sprintf("IF %s THEN %s ≈ %.2f", cond, target, v),
				Description:    fmt.Sprintf("If %s, then predict %s ≈ %.2f", cond, target, v),
				PredictedValue: &v,
				Support:        n.Samples,
			})
			return
		}
		ci := argmax(n.Value)
		name := fmt.Sprint(ci)
		if ci < len(classes) {
			name = classes[ci]
		}
		var sum float64
		for _, c := range n.Value {
			sum += c
		}
		conf := 0.0
		if sum > 0 {
			conf = n.Value[ci] / sum
		}
		out = append(out, Rule{
			Rule:        fmt.Sprintf("IF %s THEN %s = %s", cond, target, name),
			Description: fmt.Sprintf("If %s, then predict %s (confidence: %.2f%%)", cond, name, conf*100),
			Confidence:  conf,
			Support:     n.Samples,
		})
	}
	if len(t.Nodes) > 0 {
		walk(0, nil)
	}
	if len(out) > MaxTreeRules {
		out = out[:MaxTreeRules]
	}
	return out
}
