package prediction

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/spf13/cast"
)

// LogicFlow records which keywords and columns fired a category rule.
type LogicFlow struct {
	TriggeredBy []string           `json:"triggered_by"`
	ColumnsUsed []string           `json:"columns_used"`
	RuleApplied string             `json:"rule_applied"`
	Thresholds  map[string]float64 `json:"thresholds"`
}

func (e *Engine) categoryLogic(category, keyword string) string {
	t := e.th
	switch category {
	case CategorySalary:
		return fmt.Sprintf("IF %s found → Apply Salary Level Rule (>=%sK=High, >=%sK=Medium, <%sK=Low)",
			keyword, num(t.SalaryHigh/1000), num(t.SalaryMedium/1000), num(t.SalaryMedium/1000))
	case CategoryAttendance:
		return fmt.Sprintf("IF %s found → Apply Attendance Rule (>=%s%%=Excellent, >=%s%%=Good, >=%s%%=Fair, <%s%%=Poor)",
			keyword, num(t.AttendanceExcellent), num(t.AttendanceGood), num(t.AttendanceFair), num(t.AttendanceFair))
	case CategoryLeave:
		return fmt.Sprintf("IF %s found → Apply Leave Rule (Casual<=%s=Approved, Sick=Approved with proof, LOP=Deduction)",
			keyword, num(t.CasualMaxDays))
	case CategoryPerformance:
		return fmt.Sprintf("IF %s found → Apply Performance Rule (>=%s=Excellent %d%%, >=%s=Good %d%%, <%s=Needs Improvement %d%%)",
			keyword, num(t.RatingExcellent), t.IncrementExcellent, num(t.RatingGood), t.IncrementGood, num(t.RatingGood), t.IncrementOther)
	}
	return ""
}

// numberAt reads row i of c as a number. Non-numeric text is coerced
// leniently and reported as missing when that fails.
func numberAt(c *dataset.Column, i int) (float64, bool) {
	v := c.Values[i]
	if v.Null {
		return 0, false
	}
	if c.IsNumeric() {
		return v.Num, true
	}
	f, err := cast.ToFloat64E(strings.TrimSpace(v.Raw))
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// numbers reads every row of column name; missing cells are nil.
func numbers(ds *dataset.Dataset, name string) []*float64 {
	out := make([]*float64, ds.Rows())
	c, ok := ds.Column(name)
	if !ok {
		return out
	}
	for i := range out {
		if f, ok := numberAt(c, i); ok {
			out[i] = &f
		}
	}
	return out
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// grouped formats v rounded to an integer with thousands separators.
func grouped(v float64) string {
	s := strconv.FormatFloat(math.Abs(math.Round(v)), 'f', 0, 64)
	var b strings.Builder
	if v < 0 && s != "0" {
		b.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

type summary struct {
	min, max, mean, median float64
	ok                     bool
}

func summarize(vals []*float64) summary {
	var xs []float64
	for _, v := range vals {
		if v != nil {
			xs = append(xs, *v)
		}
	}
	if len(xs) == 0 {
		return summary{}
	}
	sort.Float64s(xs)
	s := summary{min: xs[0], max: xs[len(xs)-1], ok: true}
	for _, x := range xs {
		s.mean += x
	}
	s.mean /= float64(len(xs))
	mid := len(xs) / 2
	if len(xs)%2 == 1 {
		s.median = xs[mid]
	} else {
		s.median = (xs[mid-1] + xs[mid]) / 2
	}
	return s
}

func ptr[T any](v T) *T { return &v }
