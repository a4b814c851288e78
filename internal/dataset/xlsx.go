package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".xlsx")
}

// Load reads the selected sheet of a workbook. The first row is the header.
func (xlsxLoader) Load(name string, data []byte, opt Options) (*Dataset, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	target, err := resolveSheet(zr, opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var sst sharedStrings
	_ = decodePart(zr, "xl/sharedStrings.xml", &sst)
	shared := make([]string, len(sst.Items))
	for i, si := range sst.Items {
		shared[i] = si.String()
	}
	sheet, err := readSheet(zr, target, shared)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: worksheet %s missing", name, target)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: parse worksheet: %w", name, err)
	}
	if len(sheet) == 0 || len(sheet[0]) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmpty)
	}
	header := sheet[0]
	var rows [][]string
	for _, row := range sheet[1:] {
		if !blankRow(row) {
			rows = append(rows, row)
		}
	}
	return New(name, header, rows, opt)
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// workbook, relationships, sharedStrings and worksheet mirror the parts of
// the SpreadsheetML documents the loader needs.
type workbook struct {
	Sheets []struct {
		Name    string `xml:"name,attr"`
		SheetID int    `xml:"sheetId,attr"`
		RID     string `xml:"id,attr"`
	} `xml:"sheets>sheet"`
}

type relationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// richText is a string item: plain <t> or a list of formatted runs.
type richText struct {
	T    string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (rt richText) String() string {
	if len(rt.Runs) == 0 {
		return rt.T
	}
	var b strings.Builder
	b.WriteString(rt.T)
	for _, r := range rt.Runs {
		b.WriteString(r.T)
	}
	return b.String()
}

type sharedStrings struct {
	Items []richText `xml:"si"`
}

type worksheet struct {
	Rows []struct {
		Cells []struct {
			Ref    string   `xml:"r,attr"`
			Type   string   `xml:"t,attr"`
			V      string   `xml:"v"`
			Inline richText `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

// resolveSheet maps a sheet name or 1-based index to its worksheet path.
func resolveSheet(zr *zip.Reader, sheetName string, sheetIndex int) (string, error) {
	var wb workbook
	var rels relationships
	_ = decodePart(zr, "xl/workbook.xml", &wb)
	_ = decodePart(zr, "xl/_rels/workbook.xml.rels", &rels)
	target := func(rid string) (string, bool) {
		for _, r := range rels.Items {
			if r.ID == rid && r.Target != "" {
				return normalizeRelPath(r.Target), true
			}
		}
		return "", false
	}

	if sheetName != "" {
		names := make([]string, 0, len(wb.Sheets))
		for _, s := range wb.Sheets {
			if strings.EqualFold(s.Name, sheetName) {
				if p, ok := target(s.RID); ok {
					return p, nil
				}
			}
			names = append(names, s.Name)
		}
		return "", fmt.Errorf("sheet '%s' not found; available sheets: %s", sheetName, strings.Join(names, ", "))
	}
	idx := max(sheetIndex, 1)
	for _, s := range wb.Sheets {
		if s.SheetID == idx {
			if p, ok := target(s.RID); ok {
				return p, nil
			}
		}
	}
	return path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", idx)), nil
}

// decodePart unmarshals the named zip entry into v. A missing entry leaves v
// untouched and returns fs.ErrNotExist.
func decodePart(zr *zip.Reader, name string, v any) error {
	data, err := fs.ReadFile(zr, name)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}

// readSheet returns the rows of a worksheet with cells placed by their
// column reference. Cells without a reference follow the previous cell.
func readSheet(zr *zip.Reader, name string, shared []string) ([][]string, error) {
	var ws worksheet
	if err := decodePart(zr, name, &ws); err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(ws.Rows))
	for _, r := range ws.Rows {
		var row []string
		next := 0
		for _, c := range r.Cells {
			col := colIndexFromRef(c.Ref)
			if col < 0 {
				col = next
			}
			next = col + 1
			if len(row) <= col {
				row = append(row, make([]string, col+1-len(row))...)
			}
			row[col] = cellText(c.Type, c.V, c.Inline, shared)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellText(typ, v string, inline richText, shared []string) string {
	switch typ {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	case "b":
		if v == "1" {
			return "TRUE"
		}
		return "FALSE"
	case "inlineStr":
		return inline.String()
	}
	return v
}

// colIndexFromRef converts refs like "C12" to a 0-based column index.
// It returns -1 when ref carries no column letters.
func colIndexFromRef(ref string) int {
	idx := 0
	n := 0
	for n < len(ref) {
		c := ref[n]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1
		}
		n++
	}
	return idx - 1
}

// normalizeRelPath converts relationship targets to zip entry names.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
