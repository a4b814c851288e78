// Package roles binds canonical semantic roles such as "salary" or
// "punch_in" to concrete dataset columns using static matcher tables.
package roles

import "strings"

// Policy decides how a keyword is compared with a lowercased column name.
type Policy int

const (
	// Contains matches when the keyword is a substring of the column.
	Contains Policy = iota
	// Either matches when either string is a substring of the other.
	Either
)

// Matcher describes how one role is resolved.
type Matcher struct {
	Role     string
	Keywords []string
	Policy   Policy
	// Require lists substrings that must all be present in the column.
	Require []string
	// Exclude lists substrings that must all be absent from the column.
	Exclude []string
	// Last selects the last matching column instead of the first.
	Last bool
}

// Table is an ordered list of matchers.
type Table []Matcher

// Mapping binds role names to column names. Absent roles have no entry.
type Mapping map[string]string

// Get returns the column bound to role.
func (m Mapping) Get(role string) (string, bool) {
	c, ok := m[role]
	return c, ok
}

// Has reports whether role was resolved.
func (m Mapping) Has(role string) bool {
	_, ok := m[role]
	return ok
}

// Resolve applies every matcher in t to columns. For each role, keywords are
// tried in order and, per keyword, columns in order; the first hit wins
// unless the matcher asks for the last one.
func Resolve(columns []string, t Table) Mapping {
	lower := make([]string, len(columns))
	for i, c := range columns {
		lower[i] = strings.ToLower(strings.TrimSpace(c))
	}
	out := make(Mapping)
	for _, m := range t {
		if col, ok := m.resolve(columns, lower); ok {
			out[m.Role] = col
		}
	}
	return out
}

// ResolveOne resolves a single matcher.
func ResolveOne(columns []string, m Matcher) (string, bool) {
	return Resolve(columns, Table{m}).Get(m.Role)
}

// MatchAll returns every column accepted by m, in column order.
func MatchAll(columns []string, m Matcher) []string {
	var out []string
	for _, c := range columns {
		lower := strings.ToLower(strings.TrimSpace(c))
		for _, kw := range m.Keywords {
			if m.accepts(kw, lower) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Matcher returns the matcher for role.
func (t Table) Matcher(role string) (Matcher, bool) {
	for _, m := range t {
		if m.Role == role {
			return m, true
		}
	}
	return Matcher{}, false
}

func (m Matcher) resolve(columns, lower []string) (string, bool) {
	for _, kw := range m.Keywords {
		hit := -1
		for i, col := range lower {
			if !m.accepts(kw, col) {
				continue
			}
			hit = i
			if !m.Last {
				break
			}
		}
		if hit >= 0 {
			return columns[hit], true
		}
	}
	return "", false
}

func (m Matcher) accepts(kw, col string) bool {
	switch m.Policy {
	case Either:
		if !strings.Contains(col, kw) && !strings.Contains(kw, col) {
			return false
		}
	default:
		if !strings.Contains(col, kw) {
			return false
		}
	}
	for _, r := range m.Require {
		if !strings.Contains(col, r) {
			return false
		}
	}
	for _, x := range m.Exclude {
		if strings.Contains(col, x) {
			return false
		}
	}
	return true
}
