package rules

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/rulescout/internal/dataset"
)

// MaxAssociations caps the number of association records returned.
const MaxAssociations = 5

const nullKey = "\x00null"

// Associations detects columns that uniquely determine another column.
// Identifier-like, constant and single-valued date columns are skipped.
func Associations(ds *dataset.Dataset, _ Thresholds) []Record {
	var out []Record
	if ds == nil {
		return out
	}
	excluded := make(map[string]bool)
	for _, c := range ds.Columns {
		lower := strings.ToLower(c.Name)
		switch {
		case containsAny(lower, "id", "name", "code"):
			excluded[c.Name] = true
		case c.Unique() == 1:
			excluded[c.Name] = true
		}
	}

	for _, a := range ds.Columns {
		if excluded[a.Name] {
			continue
		}
		distinctA := distinctWithNull(a)
		if distinctA <= 1 {
			continue
		}
		for _, b := range ds.Columns {
			if excluded[b.Name] || a.Name == b.Name {
				continue
			}
			if distinctPairs(a, b) != distinctA {
				continue
			}
			r := newRecord(Association{Type: "1:1 Mapping", Columns: []string{a.Name, b.Name}})
			r.Rule = fmt.Sprintf("%s -> %s", a.Name, b.Name)
			r.Description = fmt.Sprintf("%s uniquely determines %s", a.Name, b.Name)
			r.SQL = fmt.Sprintf("-- %s -> %s (1:1 mapping)", a.Name, b.Name)
			r.PseudoCode = fmt.Sprintf("# %s -> %s (1:1 mapping)", a.Name, b.Name)
			r.Confidence = High
			r.BusinessMeaning = fmt.Sprintf("Each %s value corresponds to exactly one %s value", a.Name, b.Name)
			out = append(out, r)
			break
		}
		if len(out) >= MaxAssociations {
			break
		}
	}
	return out
}

func cellKey(c *dataset.Column, i int) string {
	if k, ok := c.Key(i); ok {
		return k
	}
	return nullKey
}

// distinctWithNull counts distinct values treating null as one value.
func distinctWithNull(c *dataset.Column) int {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		seen[cellKey(c, i)] = struct{}{}
	}
	return len(seen)
}

func distinctPairs(a, b *dataset.Column) int {
	seen := make(map[[2]string]struct{})
	for i := 0; i < a.Len(); i++ {
		seen[[2]string{cellKey(a, i), cellKey(b, i)}] = struct{}{}
	}
	return len(seen)
}
