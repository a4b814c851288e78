package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

type csvLoader struct{}

func (csvLoader) CanLoad(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".csv") || strings.HasSuffix(n, ".tsv") || strings.HasSuffix(n, ".txt")
}

// Load parses delimited text. Rows that fail to parse are skipped rather than
// aborting the whole file; the number skipped is returned in the error only
// when nothing could be read.
func (csvLoader) Load(name string, data []byte, opt Options) (*Dataset, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name, data)
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", name, ErrEmpty)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	skipped := 0
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		if blankRow(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 && skipped > 0 {
		return nil, fmt.Errorf("%s: all %d rows malformed", name, skipped)
	}
	return New(name, header, rows, opt)
}

// WriteCSV serialises the dataset back to comma separated text.
func WriteCSV(w io.Writer, d *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.ColumnNames()); err != nil {
		return err
	}
	for i := 0; i < d.Rows(); i++ {
		rec := make([]string, len(d.Columns))
		for j, c := range d.Columns {
			rec[j] = c.Values[i].Raw
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
