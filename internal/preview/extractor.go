// Package preview turns an uploaded file into the bounded row or text view
// that is handed to the summarizer and the PDF renderer.
package preview

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"alcyxob/ai-reports/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	DefaultMaxRows      = 15
	DefaultMaxTextChars = 2000
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor is a pure transform; it performs no I/O besides reading data.
type Extractor struct {
	MaxRows      int
	MaxTextChars int
}

func New(maxRows, maxTextChars int) Extractor {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if maxTextChars <= 0 {
		maxTextChars = DefaultMaxTextChars
	}
	return Extractor{MaxRows: maxRows, MaxTextChars: maxTextChars}
}

// Kind classifies a declared content type.
type Kind int

const (
	KindText Kind = iota
	KindCSV
	KindSpreadsheet
)

func KindOf(contentType string) Kind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "csv"):
		return KindCSV
	case strings.Contains(ct, "spreadsheet"), strings.Contains(ct, "excel"):
		return KindSpreadsheet
	default:
		return KindText
	}
}

// Extract builds the preview. Empty input yields an empty tabular preview;
// tabular data that fails to parse falls back to truncated text.
func (e Extractor) Extract(data []byte, contentType string) (domain.Preview, error) {
	kind := KindOf(contentType)
	if len(data) == 0 {
		return domain.Preview{Tabular: kind != KindText, Rows: []domain.Row{}}, nil
	}

	var (
		rows []domain.Row
		err  error
	)
	switch kind {
	case KindCSV:
		rows, err = e.csvRows(data)
	case KindSpreadsheet:
		rows, err = e.sheetRows(data)
	default:
		return domain.Preview{Text: e.text(data)}, nil
	}
	if err != nil {
		return domain.Preview{Text: e.text(data), Fallback: true}, nil
	}
	return domain.Preview{Tabular: true, Rows: rows}, nil
}

func (e Extractor) csvRows(data []byte) ([]domain.Row, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []domain.Row{}, nil
	}
	if err != nil {
		return nil, err
	}
	header = normalizeHeader(header)

	rows := make([]domain.Row, 0, e.MaxRows)
	for len(rows) < e.MaxRows {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, buildRow(header, record))
	}
	return rows, nil
}

func (e Extractor) sheetRows(data []byte) ([]domain.Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	it, err := f.Rows(sheets[0])
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var header []string
	rows := make([]domain.Row, 0, e.MaxRows)
	for len(rows) < e.MaxRows && it.Next() {
		cols, err := it.Columns()
		if err != nil {
			return nil, err
		}
		if blank(cols) {
			continue
		}
		if header == nil {
			header = normalizeHeader(cols)
			continue
		}
		rows = append(rows, buildRow(header, cols))
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (e Extractor) text(data []byte) string {
	s := strings.ToValidUTF8(string(bytes.TrimPrefix(data, utf8BOM)), "�")
	return Truncate(s, e.MaxTextChars)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func normalizeHeader(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		c = strings.TrimSpace(c)
		if c == "" {
			c = fmt.Sprintf("column_%d", i+1)
		}
		out[i] = c
	}
	return out
}

// buildRow pairs a record with the header. Missing trailing cells are empty;
// cells beyond the header get generated names.
func buildRow(header, record []string) domain.Row {
	n := len(header)
	if len(record) > n {
		n = len(record)
	}
	row := make(domain.Row, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("column_%d", i+1)
		if i < len(header) {
			name = header[i]
		}
		value := ""
		if i < len(record) {
			value = record[i]
		}
		row = append(row, domain.Cell{Name: name, Value: value})
	}
	return row
}

func blank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
