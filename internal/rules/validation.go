package rules

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/rulescout/internal/dataset"
)

// Validation emits universally safe rules: identifier uniqueness and
// non-negative numeric amounts.
func Validation(ds *dataset.Dataset, _ Thresholds) []Record {
	var out []Record
	if ds == nil {
		return out
	}
	for _, c := range ds.Columns {
		nonNull := c.Len() - c.NullCount()
		if nonNull == 0 {
			continue
		}
		name := c.Name
		lower := strings.ToLower(name)

		if containsAny(lower, "id", "code", "key") && c.Unique() == nonNull {
			r := newRecord(ValidationRule{Column: name, Check: "unique"})
			r.Rule = fmt.Sprintf("%s IS NOT NULL AND UNIQUE", name)
			r.Description = fmt.Sprintf("%s must be unique and non-null (identifier field)", name)
			r.SQL = fmt.Sprintf("UNIQUE (%s)", name)
			r.PseudoCode = fmt.Sprintf("if %s is None or %s in existing_values: raise ValidationError('%s must be unique')", name, name, name)
			r.Confidence = High
			r.BusinessMeaning = fmt.Sprintf("%s is an identifier and must be unique for each record", name)
			out = append(out, r)
		}

		if !c.IsNumeric() || !allAtLeast(c.Numbers(), 0) {
			continue
		}
		if hasToken(name, "age") {
			r := newRecord(ValidationRule{Column: name, Check: "non_negative"})
			r.Rule = fmt.Sprintf("%s >= 0", name)
			r.Description = "Age must be non-negative"
			r.SQL = fmt.Sprintf("CHECK (%s >= 0)", name)
			r.PseudoCode = fmt.Sprintf("if %s < 0: raise ValidationError('Age cannot be negative')", name)
			r.Confidence = High
			r.BusinessMeaning = "Age values must be non-negative numbers"
			out = append(out, r)
		}
		if containsAny(lower, "hours", "working_hours", "overtime") {
			out = append(out, nonNegative(name, "represents time"))
		}
		if containsAny(lower, "salary", "amount", "price", "cost", "revenue", "income") {
			out = append(out, nonNegative(name, "represents monetary value"))
		}
	}
	return out
}

func nonNegative(col, meaning string) Record {
	r := newRecord(ValidationRule{Column: col, Check: "non_negative"})
	r.Rule = fmt.Sprintf("%s >= 0", col)
	r.Description = fmt.Sprintf("%s must be non-negative", col)
	r.SQL = fmt.Sprintf("CHECK (%s >= 0)", col)
	r.PseudoCode = fmt.Sprintf("if %s < 0: raise ValidationError('%s cannot be negative')", col, col)
	r.Confidence = High
	r.BusinessMeaning = fmt.Sprintf("%s %s and must be non-negative", col, meaning)
	return r
}

func allAtLeast(vals []float64, min float64) bool {
	for _, v := range vals {
		if v < min {
			return false
		}
	}
	return true
}
