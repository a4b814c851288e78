package ml

import (
	"sort"
	"sync"

	"github.com/KaramelBytes/rulescout/internal/dataset"
)

// MissingLabel stands in for null cells of encoded columns.
const MissingLabel = "unknown"

// LabelEncoder maps string labels to consecutive integers in sorted order.
type LabelEncoder struct {
	Classes []string `json:"classes"`

	once  sync.Once
	index map[string]int
}

// FitLabels builds an encoder over the distinct values.
func FitLabels(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return &LabelEncoder{Classes: classes}
}

// Transform returns the code of v; ok is false for unseen labels.
func (e *LabelEncoder) Transform(v string) (int, bool) {
	e.once.Do(func() {
		e.index = make(map[string]int, len(e.Classes))
		for i, c := range e.Classes {
			e.index[c] = i
		}
	})
	i, ok := e.index[v]
	return i, ok
}

// Inverse returns the label for code i.
func (e *LabelEncoder) Inverse(i int) string {
	if i < 0 || i >= len(e.Classes) {
		return ""
	}
	return e.Classes[i]
}

// FeatureKind says how a feature column is turned into numbers.
type FeatureKind string

const (
	FeatureNumeric     FeatureKind = "numeric"
	FeatureBoolean     FeatureKind = "boolean"
	FeatureCategorical FeatureKind = "categorical"
)

// Feature describes one model input column.
type Feature struct {
	Name    string        `json:"name"`
	Kind    FeatureKind   `json:"kind"`
	Fill    float64       `json:"fill"` // median used for missing numeric cells
	Encoder *LabelEncoder `json:"encoder,omitempty"`
}

func labels(c *dataset.Column) []string {
	out := make([]string, c.Len())
	for i := range out {
		if c.Values[i].Null {
			out[i] = MissingLabel
		} else {
			out[i] = c.String(i)
		}
	}
	return out
}

// encodeColumn returns the feature spec and the numeric matrix column for c.
func encodeColumn(c *dataset.Column) (Feature, []float64) {
	col := make([]float64, c.Len())
	switch {
	case c.Kind == dataset.KindNumeric:
		f := Feature{Name: c.Name, Kind: FeatureNumeric, Fill: median(c.Numbers())}
		for i, v := range c.Values {
			if v.Null {
				col[i] = f.Fill
			} else {
				col[i] = v.Num
			}
		}
		return f, col
	case c.Kind == dataset.KindBoolean && c.NullCount() == 0:
		for i, v := range c.Values {
			if v.Bool {
				col[i] = 1
			}
		}
		return Feature{Name: c.Name, Kind: FeatureBoolean}, col
	default:
		raw := labels(c)
		enc := FitLabels(raw)
		for i, v := range raw {
			code, _ := enc.Transform(v)
			col[i] = float64(code)
		}
		return Feature{Name: c.Name, Kind: FeatureCategorical, Encoder: enc}, col
	}
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// percentile is the linearly interpolated q-quantile of vals.
func percentile(vals []float64, q float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	pos := q * float64(len(s)-1)
	lo := int(pos)
	if lo >= len(s)-1 {
		return s[len(s)-1]
	}
	w := pos - float64(lo)
	return s[lo]*(1-w) + s[lo+1]*w
}
