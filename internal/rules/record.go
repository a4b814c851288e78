// Package rules generates heuristic business rules from a dataset. Every
// generator is a pure function of the dataset and thresholds.
package rules

import (
	"strconv"
	"strings"
)

// Confidence is a qualitative trust tier.
type Confidence string

const (
	Low    Confidence = "Low"
	Medium Confidence = "Medium"
	High   Confidence = "High"
)

// Kind names a rule category.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindDecision    Kind = "decision"
	KindConstraint  Kind = "constraint"
	KindDerivation  Kind = "derivation"
	KindAssociation Kind = "association"
)

// Payload carries the category specific part of a Record.
type Payload interface {
	Kind() Kind
}

// ValidationRule is the payload of a validation rule.
type ValidationRule struct {
	Column string `json:"column"`
	Check  string `json:"check"` // unique|non_negative
}

// DecisionRule is the payload of an IF-THEN decision rule.
type DecisionRule struct {
	IfThen  string   `json:"if_then"`
	Columns []string `json:"columns"`
}

// Constraint is the payload of a range constraint. Nil bounds are open.
type Constraint struct {
	Column string   `json:"column"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// Derivation is the payload of a derived field.
type Derivation struct {
	DerivedField string `json:"derived_field"`
	Formula      string `json:"formula"`
	Source       string `json:"source"`
}

// Association is the payload of a column relationship.
type Association struct {
	Type    string   `json:"type"`
	Columns []string `json:"columns"`
}

func (ValidationRule) Kind() Kind { return KindValidation }
func (DecisionRule) Kind() Kind   { return KindDecision }
func (Constraint) Kind() Kind     { return KindConstraint }
func (Derivation) Kind() Kind     { return KindDerivation }
func (Association) Kind() Kind    { return KindAssociation }

// Record is one generated rule. Records are never mutated after creation.
type Record struct {
	Kind             Kind       `json:"kind"`
	Rule             string     `json:"rule"`
	Description      string     `json:"description"`
	SQL              string     `json:"sql"`
	PseudoCode       string     `json:"pseudo_code"`
	Confidence       Confidence `json:"confidence"`
	BusinessMeaning  string     `json:"business_meaning"`
	RequiresApproval bool       `json:"requires_approval"`
	Usable           bool       `json:"hr_usable"`
	Payload          Payload    `json:"payload"`
}

func newRecord(p Payload) Record {
	return Record{Kind: p.Kind(), Payload: p, Usable: true}
}

// Thresholds holds the fixed constants used by the generators. They are
// configuration, never derived from the data.
type Thresholds struct {
	LateCutoff      string  `json:"late_cutoff" yaml:"late_cutoff"`
	StandardHours   float64 `json:"standard_hours" yaml:"standard_hours"`
	HalfDayMaxHours float64 `json:"half_day_max_hours" yaml:"half_day_max_hours"`
	MaxDailyHours   float64 `json:"max_daily_hours" yaml:"max_daily_hours"`
	MinAge          float64 `json:"min_age" yaml:"min_age"`
	MaxAge          float64 `json:"max_age" yaml:"max_age"`
}

// DefaultThresholds returns the standard HR constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LateCutoff:      "09:15",
		StandardHours:   9,
		HalfDayMaxHours: 5,
		MaxDailyHours:   24,
		MinAge:          18,
		MaxAge:          70,
	}
}

// CountApproval returns how many records require human approval.
func CountApproval(recs ...[]Record) int {
	n := 0
	for _, rs := range recs {
		for _, r := range rs {
			if r.RequiresApproval {
				n++
			}
		}
	}
	return n
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func ptr(f float64) *float64 { return &f }

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// hasToken reports whether name, split on separators, contains tok.
func hasToken(name, tok string) bool {
	for _, part := range strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '_' || r == ' ' || r == '-' || r == '.' || r == '(' || r == ')'
	}) {
		if part == tok || part == tok+"s" {
			return true
		}
	}
	return false
}
