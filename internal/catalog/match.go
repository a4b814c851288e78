package catalog

import "strings"

// ColumnMatch is one column matched by a keyword.
type ColumnMatch struct {
	Column    string `json:"column"`
	MatchType string `json:"match_type"` // exact|partial
}

func matches(keyword, column string) bool {
	return keyword == column || strings.Contains(column, keyword) || strings.Contains(keyword, column)
}

// MatchColumns returns the keywords that match at least one column. A keyword
// matches a column when they are equal or either contains the other, compared
// case-insensitively. Each keyword is reported once, in keyword order.
func MatchColumns(columns, keywords []string) []string {
	lower := lowerAll(columns)
	var out []string
	for _, kw := range keywords {
		for _, col := range lower {
			if matches(kw, col) {
				out = appendUnique(out, kw)
				break
			}
		}
	}
	return out
}

// MapColumns maps each matching keyword to every column it matches.
func MapColumns(columns, keywords []string) map[string][]ColumnMatch {
	lower := lowerAll(columns)
	out := make(map[string][]ColumnMatch)
	for _, kw := range keywords {
		for i, col := range lower {
			if !matches(kw, col) {
				continue
			}
			mt := "partial"
			if kw == col {
				mt = "exact"
			}
			out[kw] = append(out[kw], ColumnMatch{Column: columns[i], MatchType: mt})
		}
	}
	return out
}

func lowerAll(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return out
}
