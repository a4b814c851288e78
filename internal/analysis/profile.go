package analysis

import (
	"sort"

	"github.com/KaramelBytes/rulescout/internal/dataset"
)

// MaxTopValues bounds the value counts kept for categorical columns.
const MaxTopValues = 10

// Profile summarises a dataset column by column.
type Profile struct {
	Name         string          `json:"name,omitempty"`
	TotalRows    int             `json:"total_rows"`
	TotalColumns int             `json:"total_columns"`
	Columns      []ColumnProfile `json:"columns"`
}

// ColumnProfile captures inferred type and statistics per column.
type ColumnProfile struct {
	Name           string        `json:"name"`
	Type           dataset.Kind  `json:"type"`
	DType          string        `json:"dtype"`
	NullCount      int           `json:"null_count"`
	NullPercentage float64       `json:"null_percentage"`
	UniqueCount    int           `json:"unique_count"`
	Statistics     *NumericStats `json:"statistics,omitempty"`
	// Categorical top values, count desc then value asc.
	UniqueValues []CategoryCount `json:"unique_values,omitempty"`
	// Robust outliers (MAD); only set when requested through Options.
	OutliersCount    int     `json:"outliers_count,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
}

// NumericStats holds numeric summaries. Fields are nil when every value in
// the column is null.
type NumericStats struct {
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Std    *float64 `json:"std,omitempty"`
}

// CategoryCount is a value with its frequency.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ProfileDataset computes the per-column profile of ds.
func ProfileDataset(ds *dataset.Dataset) Profile {
	if ds == nil {
		return Profile{Columns: []ColumnProfile{}}
	}
	p := Profile{
		Name:         ds.Name,
		TotalRows:    ds.Rows(),
		TotalColumns: len(ds.Columns),
		Columns:      make([]ColumnProfile, 0, len(ds.Columns)),
	}
	for _, c := range ds.Columns {
		p.Columns = append(p.Columns, profileColumn(c, ds.Rows()))
	}
	return p
}

func profileColumn(c *dataset.Column, rows int) ColumnProfile {
	nulls := c.NullCount()
	cp := ColumnProfile{
		Name:        c.Name,
		Type:        c.Kind,
		DType:       c.DType(),
		NullCount:   nulls,
		UniqueCount: c.Unique(),
	}
	if rows > 0 {
		cp.NullPercentage = float64(nulls) / float64(rows) * 100
	}
	switch c.Kind {
	case dataset.KindNumeric:
		cp.Statistics = numericStats(c.Numbers())
	case dataset.KindCategorical:
		cp.UniqueValues = topValues(c, MaxTopValues)
	}
	return cp
}

func numericStats(vals []float64) *NumericStats {
	st := &NumericStats{}
	if len(vals) == 0 {
		return st
	}
	s := sortedCopy(vals)
	mean, std := meanStd(vals)
	lo, hi, med := s[0], s[len(s)-1], quantile(s, 0.5)
	st.Min, st.Max, st.Mean, st.Median = &lo, &hi, &mean, &med
	if len(vals) > 1 {
		st.Std = &std
	}
	return st
}

func topValues(c *dataset.Column, limit int) []CategoryCount {
	counts := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		if k, ok := c.Key(i); ok {
			counts[k]++
		}
	}
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// Column returns the profile of the named column.
func (p Profile) Column(name string) (ColumnProfile, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnProfile{}, false
}
