package ml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// MaxImportance caps the features reported in an Importance.
const MaxImportance = 10

// FeatureScore is the importance of one feature, in percent.
type FeatureScore struct {
	Feature string
	Score   float64
}

// Importance is an ordered feature importance list. It marshals to a JSON
// object that keeps the order.
type Importance []FeatureScore

// Map returns the scores keyed by feature.
func (imp Importance) Map() map[string]float64 {
	m := make(map[string]float64, len(imp))
	for _, s := range imp {
		m[s.Feature] = s.Score
	}
	return m
}

// Total sums the scores.
func (imp Importance) Total() float64 {
	var t float64
	for _, s := range imp {
		t += s.Score
	}
	return t
}

// MarshalJSON encodes imp as an object in list order.
func (imp Importance) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, s := range imp {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(s.Feature)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(s.Score)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON decodes an object, preserving key order.
func (imp *Importance) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*imp = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("feature importance: expected object, got %v", tok)
	}
	out := Importance{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("feature importance %q: %w", key, err)
		}
		out = append(out, FeatureScore{Feature: key, Score: v})
	}
	*imp = out
	return nil
}

// rankImportance converts normalised importances to percentages ordered by
// score, keeping the top MaxImportance. Ties keep feature order.
func rankImportance(names []string, raw []float64) Importance {
	out := make(Importance, len(names))
	for i, n := range names {
		out[i] = FeatureScore{Feature: n, Score: raw[i] * 100}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > MaxImportance {
		out = out[:MaxImportance]
	}
	return out
}
