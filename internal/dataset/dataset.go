package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the semantic type inferred for a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindBoolean     Kind = "boolean"
	KindDate        Kind = "date"
)

// ErrEmpty is returned when a dataset has no columns or no rows.
var ErrEmpty = errors.New("dataset is empty")

// Value is a single cell. Num is meaningful only for numeric columns and
// Bool only for boolean columns.
type Value struct {
	Raw  string
	Null bool
	Num  float64
	Bool bool
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name    string
	Kind    Kind
	Integer bool // numeric column whose values are all integral and non-null
	Values  []Value
}

// Dataset is a flat table with unique column names and a fixed row count.
type Dataset struct {
	Name    string
	Columns []*Column
	rows    int
	index   map[string]int
}

// Options controls parsing of raw cells into typed values.
type Options struct {
	// MaxRows limits rows kept; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, sniffed from the file name and first line.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// XLSX sheet selection; SheetIndex is 1-based.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns reasonable defaults for loading a dataset.
func DefaultOptions() Options {
	return Options{MaxRows: 100000, SheetIndex: 1}
}

// New builds a dataset from a header and string rows, inferring column kinds.
// Short rows are padded with nulls and long rows truncated. Duplicate header
// names get a numeric suffix so column names stay unique.
func New(name string, header []string, rows [][]string, opt Options) (*Dataset, error) {
	if len(header) == 0 {
		return nil, ErrEmpty
	}
	if opt.MaxRows > 0 && len(rows) > opt.MaxRows {
		rows = rows[:opt.MaxRows]
	}
	ds := &Dataset{Name: name, rows: len(rows), index: make(map[string]int, len(header))}
	for j, h := range header {
		colName := uniqueName(strings.TrimSpace(h), j, ds.index)
		col := &Column{Name: colName, Values: make([]Value, len(rows))}
		for i, rec := range rows {
			raw := ""
			if j < len(rec) {
				raw = strings.TrimSpace(rec[j])
			}
			col.Values[i] = Value{Raw: raw, Null: isNullToken(raw)}
		}
		inferKind(col, opt)
		ds.index[colName] = len(ds.Columns)
		ds.Columns = append(ds.Columns, col)
	}
	return ds, nil
}

// FromColumns builds a dataset from column-major string data. Mostly useful
// in tests and for programmatic callers.
func FromColumns(name string, names []string, cols [][]string) (*Dataset, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("have %d names but %d columns", len(names), len(cols))
	}
	n := 0
	for _, c := range cols {
		if len(c) > n {
			n = len(c)
		}
	}
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = make([]string, len(cols))
		for j, c := range cols {
			if i < len(c) {
				rows[i][j] = c[i]
			}
		}
	}
	return New(name, names, rows, Options{})
}

func uniqueName(name string, pos int, seen map[string]int) string {
	if name == "" {
		name = fmt.Sprintf("column_%d", pos+1)
	}
	if _, dup := seen[name]; !dup {
		return name
	}
	for k := 2; ; k++ {
		cand := fmt.Sprintf("%s_%d", name, k)
		if _, dup := seen[cand]; !dup {
			return cand
		}
	}
}

var nullTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "#n/a": {}, "nan": {}, "null": {}, "none": {}, "<na>": {},
}

func isNullToken(s string) bool {
	_, ok := nullTokens[strings.ToLower(s)]
	return ok
}

// inferKind assigns the column kind by checking that every non-null cell
// parses as the candidate type, trying numeric, boolean and date in order.
func inferKind(c *Column, opt Options) {
	nonNull := 0
	numeric, boolean, date := true, true, true
	integer := true
	for i := range c.Values {
		v := &c.Values[i]
		if v.Null {
			integer = false
			continue
		}
		nonNull++
		if numeric {
			if x, ok := parseNumeric(v.Raw, opt); ok {
				v.Num = x
				if x != math.Trunc(x) {
					integer = false
				}
			} else {
				numeric = false
			}
		}
		if boolean {
			if _, ok := parseBool(v.Raw); !ok {
				boolean = false
			}
		}
		if date {
			if _, ok := parseTimeMaybe(v.Raw); !ok {
				date = false
			}
		}
	}
	switch {
	case nonNull == 0:
		c.Kind = KindCategorical
	case numeric:
		c.Kind = KindNumeric
		c.Integer = integer
	case boolean:
		c.Kind = KindBoolean
		for i := range c.Values {
			if !c.Values[i].Null {
				c.Values[i].Bool, _ = parseBool(c.Values[i].Raw)
			}
		}
	case date:
		c.Kind = KindDate
	default:
		c.Kind = KindCategorical
	}
	if c.Kind != KindNumeric {
		for i := range c.Values {
			c.Values[i].Num = 0
		}
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// Rows returns the fixed row count.
func (d *Dataset) Rows() int {
	if d == nil {
		return 0
	}
	return d.rows
}

// Empty reports whether the dataset has no rows or no columns.
func (d *Dataset) Empty() bool { return d == nil || d.rows == 0 || len(d.Columns) == 0 }

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.Columns[i], true
}

// ColumnNames returns the column names in dataset order.
func (d *Dataset) ColumnNames() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Record returns row i as a map of column name to a native value: float64
// for numeric cells, bool for boolean cells, string otherwise and nil for nulls.
func (d *Dataset) Record(i int) map[string]any {
	rec := make(map[string]any, len(d.Columns))
	for _, c := range d.Columns {
		rec[c.Name] = c.Native(i)
	}
	return rec
}

// Strings returns row i as display strings in column order; nulls are empty.
func (d *Dataset) Strings(i int) []string {
	out := make([]string, len(d.Columns))
	for j, c := range d.Columns {
		out[j] = c.String(i)
	}
	return out
}

// Native returns the cell at row i as float64, bool, string or nil.
func (c *Column) Native(i int) any {
	v := c.Values[i]
	if v.Null {
		return nil
	}
	switch c.Kind {
	case KindNumeric:
		return v.Num
	case KindBoolean:
		return v.Bool
	default:
		return v.Raw
	}
}

// String renders the cell at row i; nulls render as "".
func (c *Column) String(i int) string {
	v := c.Values[i]
	if v.Null {
		return ""
	}
	if c.Kind == KindNumeric {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Raw
}

// Key returns a normalized key for the cell at row i, used for distinct
// counting. Null cells return ok=false.
func (c *Column) Key(i int) (string, bool) {
	v := c.Values[i]
	if v.Null {
		return "", false
	}
	switch c.Kind {
	case KindNumeric:
		return strconv.FormatFloat(v.Num, 'g', -1, 64), true
	case KindBoolean:
		return strconv.FormatBool(v.Bool), true
	default:
		return v.Raw, true
	}
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Values) }

// IsNumeric reports whether the column holds numbers.
func (c *Column) IsNumeric() bool { return c.Kind == KindNumeric }

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v.Null {
			n++
		}
	}
	return n
}

// Unique returns the number of distinct non-null values.
func (c *Column) Unique() int {
	seen := make(map[string]struct{})
	for i := range c.Values {
		if k, ok := c.Key(i); ok {
			seen[k] = struct{}{}
		}
	}
	return len(seen)
}

// Numbers returns the non-null numeric values in row order. It returns nil
// for non-numeric columns.
func (c *Column) Numbers() []float64 {
	if c.Kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if !v.Null {
			out = append(out, v.Num)
		}
	}
	return out
}

// DType returns a dtype label in the style of dataframe libraries:
// int64, float64, bool, datetime64 or object.
func (c *Column) DType() string {
	switch c.Kind {
	case KindNumeric:
		if c.Integer {
			return "int64"
		}
		return "float64"
	case KindBoolean:
		if c.NullCount() > 0 {
			return "object"
		}
		return "bool"
	case KindDate:
		return "datetime64[ns]"
	default:
		return "object"
	}
}
