package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/rulescout/internal/dataset"
)

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string                `json:"key"`
	Size    int                   `json:"size"`
	Metrics map[string]NumSummary `json:"metrics"`
}

// NumSummary is a small numeric summary for one group.
type NumSummary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

const (
	maxGroups    = 20
	maxCorrPairs = 10
)

// GroupBy summarises numeric columns per combination of the named columns.
// Unknown column names are ignored (matched case-insensitively).
func GroupBy(ds *dataset.Dataset, names []string) []GroupResult {
	if ds == nil || len(names) == 0 {
		return nil
	}
	var keys []*dataset.Column
	for _, n := range names {
		want := strings.ToLower(strings.TrimSpace(n))
		for _, c := range ds.Columns {
			if strings.ToLower(c.Name) == want {
				keys = append(keys, c)
				break
			}
		}
	}
	if len(keys) == 0 {
		return nil
	}

	type acc struct {
		size int
		m    map[string]*NumSummary
	}
	groups := map[string]*acc{}
	for i := 0; i < ds.Rows(); i++ {
		parts := make([]string, len(keys))
		for j, k := range keys {
			parts[j] = fmt.Sprintf("%s=%s", k.Name, safeVal(k.String(i)))
		}
		key := strings.Join(parts, " | ")
		g := groups[key]
		if g == nil {
			g = &acc{m: map[string]*NumSummary{}}
			groups[key] = g
		}
		g.size++
		for _, c := range ds.Columns {
			if !c.IsNumeric() || c.Values[i].Null {
				continue
			}
			v := c.Values[i].Num
			s := g.m[c.Name]
			if s == nil {
				s = &NumSummary{Min: v, Max: v}
				g.m[c.Name] = s
			}
			s.Count++
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
			s.Mean += (v - s.Mean) / float64(s.Count)
		}
	}

	out := make([]GroupResult, 0, len(groups))
	for k, g := range groups {
		gr := GroupResult{Key: k, Size: g.size, Metrics: map[string]NumSummary{}}
		for name, s := range g.m {
			gr.Metrics[name] = *s
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > maxGroups {
		out = out[:maxGroups]
	}
	return out
}

// Correlations returns the strongest Pearson pairs across numeric columns,
// ordered by |r| descending.
func Correlations(ds *dataset.Dataset) []PairCorr {
	if ds == nil {
		return nil
	}
	var num []*dataset.Column
	for _, c := range ds.Columns {
		if c.IsNumeric() {
			num = append(num, c)
		}
	}
	var pairs []PairCorr
	for a := 0; a < len(num); a++ {
		for b := a + 1; b < len(num); b++ {
			ca, cb := num[a], num[b]
			x := make([]float64, ds.Rows())
			y := make([]float64, ds.Rows())
			for i := range x {
				x[i], y[i] = ca.Values[i].Num, cb.Values[i].Num
			}
			r, ok := pearson(x, y, func(i int) bool { return !ca.Values[i].Null && !cb.Values[i].Null })
			if !ok {
				continue
			}
			pairs = append(pairs, PairCorr{A: ca.Name, B: cb.Name, R: r})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if len(pairs) > maxCorrPairs {
		pairs = pairs[:maxCorrPairs]
	}
	return pairs
}
