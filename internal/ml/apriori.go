package ml

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/rulescout/internal/dataset"
)

// Pattern mining limits.
const (
	DefaultMinSupport = 0.1
	MinConfidence     = 0.5
	MaxPatterns       = 10
	maxItemsetSize    = 4
)

// Pattern is an association rule between one-hot categorical items.
type Pattern struct {
	Pattern     string   `json:"pattern"`
	Antecedents []string `json:"antecedents"`
	Consequents []string `json:"consequents"`
	Support     float64  `json:"support"`
	Confidence  float64  `json:"confidence"`
	Description string   `json:"description"`
}

type itemset []int // sorted item ids

func (s itemset) key() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}

// DiscoverPatterns mines frequent itemsets with Apriori over the one-hot
// encoding of categorical columns and returns the strongest association
// rules. Datasets with fewer than two categorical columns yield nothing, and
// any internal failure degrades to an empty result.
func DiscoverPatterns(ds *dataset.Dataset, minSupport float64) (out []Pattern) {
	out = []Pattern{}
	defer func() {
		if r := recover(); r != nil {
			out = []Pattern{}
		}
	}()
	if ds.Empty() {
		return out
	}
	if minSupport <= 0 {
		minSupport = DefaultMinSupport
	}

	var cat []*dataset.Column
	for _, c := range ds.Columns {
		if c.Kind == dataset.KindCategorical || c.Kind == dataset.KindDate {
			cat = append(cat, c)
		}
	}
	if len(cat) < 2 {
		return out
	}

	// one-hot: item id -> "column_value", rows -> item ids
	var names []string
	ids := map[string]int{}
	rows := make([]map[int]bool, ds.Rows())
	for r := range rows {
		rows[r] = map[int]bool{}
	}
	for _, c := range cat {
		for r := 0; r < c.Len(); r++ {
			if c.Values[r].Null {
				continue
			}
			name := c.Name + "_" + c.Values[r].Raw
			id, ok := ids[name]
			if !ok {
				id = len(names)
				ids[name] = id
				names = append(names, name)
			}
			rows[r][id] = true
		}
	}

	n := float64(len(rows))
	support := map[string]float64{}
	count := func(s itemset) float64 {
		hits := 0
		for _, row := range rows {
			all := true
			for _, it := range s {
				if !row[it] {
					all = false
					break
				}
			}
			if all {
				hits++
			}
		}
		return float64(hits) / n
	}

	var level []itemset
	for id := range names {
		s := itemset{id}
		if sup := count(s); sup >= minSupport {
			support[s.key()] = sup
			level = append(level, s)
		}
	}
	var frequent []itemset
	for k := 2; k <= maxItemsetSize && len(level) > 1; k++ {
		var next []itemset
		seen := map[string]bool{}
		for i := 0; i < len(level); i++ {
			for j := i + 1; j < len(level); j++ {
				a, b := level[i], level[j]
				if !samePrefix(a, b) {
					continue
				}
				cand := append(append(itemset{}, a...), b[len(b)-1])
				sort.Ints(cand)
				key := cand.key()
				if seen[key] || !subsetsFrequent(cand, support) {
					continue
				}
				seen[key] = true
				if sup := count(cand); sup >= minSupport {
					support[key] = sup
					next = append(next, cand)
				}
			}
		}
		frequent = append(frequent, next...)
		level = next
	}

	for _, s := range frequent {
		sup := support[s.key()]
		for mask := 1; mask < (1<<len(s))-1; mask++ {
			var ante, cons itemset
			for i, it := range s {
				if mask&(1<<i) != 0 {
					ante = append(ante, it)
				} else {
					cons = append(cons, it)
				}
			}
			conf := sup / support[ante.key()]
			if conf < MinConfidence {
				continue
			}
			an, cn := itemNames(ante, names), itemNames(cons, names)
			out = append(out, Pattern{
				Pattern:     fmt.Sprintf("%s → %s", strings.Join(an, " AND "), strings.Join(cn, ", ")),
				Antecedents: an,
				Consequents: cn,
				Support:     sup,
				Confidence:  conf,
				Description: fmt.Sprintf("When %s, then %s (confidence: %.1f%%)", strings.Join(an, ", "), strings.Join(cn, ", "), conf*100),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		if out[i].Support != out[j].Support {
			return out[i].Support > out[j].Support
		}
		return out[i].Pattern < out[j].Pattern
	})
	if len(out) > MaxPatterns {
		out = out[:MaxPatterns]
	}
	return out
}

func samePrefix(a, b itemset) bool {
	for i := 0; i < len(a)-1; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return a[len(a)-1] != b[len(b)-1]
}

func subsetsFrequent(s itemset, support map[string]float64) bool {
	for skip := range s {
		sub := make(itemset, 0, len(s)-1)
		for i, it := range s {
			if i != skip {
				sub = append(sub, it)
			}
		}
		if _, ok := support[sub.key()]; !ok {
			return false
		}
	}
	return true
}

func itemNames(s itemset, names []string) []string {
	out := make([]string, len(s))
	for i, it := range s {
		out[i] = names[it]
	}
	return out
}
