// internal/app/system/csvutil/table.go
package csvutil

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

var ErrTooManyRows = errors.New("csv has too many rows")

// Table is a headed CSV with column names normalised to lower case.
type Table struct {
	Header []string
	Rows   []Row
}

// Row is one non-empty data line.
type Row struct {
	Line   int // 1-based line in the source, header is line 1
	Fields []string
}

// ReadTable reads a headed CSV. The first non-empty record is the header.
// Blank rows are skipped and a UTF-8 BOM is ignored. maxRows <= 0 means
// MaxRows.
func ReadTable(r io.Reader, maxRows int) (Table, error) {
	if maxRows <= 0 {
		maxRows = MaxRows
	}
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var t Table
	line := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, err
		}
		line, _ = reader.FieldPos(0)
		if blank(rec) {
			continue
		}
		if t.Header == nil {
			t.Header = make([]string, len(rec))
			for i, h := range rec {
				t.Header[i] = NormalizeHeader(h)
			}
			continue
		}
		if len(t.Rows) >= maxRows {
			return Table{}, ErrTooManyRows
		}
		t.Rows = append(t.Rows, Row{Line: line, Fields: rec})
	}
	return t, nil
}

// NormalizeHeader lower-cases and trims a column name and collapses
// internal whitespace.
func NormalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

// Indexes returns the positions of every header matching an alias, ordered
// by alias.
func (t Table) Indexes(aliases ...string) []int {
	var out []int
	for _, a := range aliases {
		a = NormalizeHeader(a)
		for i, h := range t.Header {
			if h == a {
				out = append(out, i)
			}
		}
	}
	return out
}

// First returns the first non-empty trimmed field among cols.
func (r Row) First(cols []int) string {
	for _, i := range cols {
		if v := r.Get(i); v != "" {
			return v
		}
	}
	return ""
}

// Get returns the trimmed field at column i of row, or "" when the row is
// short or i is negative.
func (r Row) Get(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return strings.TrimSpace(r.Fields[i])
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
