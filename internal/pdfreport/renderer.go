// Package pdfreport lays out an AI report as an A4 PDF document.
package pdfreport

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"alcyxob/ai-reports/internal/domain"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	pageMargin = 15.0
	lineHeight = 6.0
)

// Document is everything a rendered report shows.
type Document struct {
	Title       string
	Description string
	Rows        []domain.Row
	Summary     string
	// GeneratedAt is printed on the first page and used as the PDF
	// creation date; the same Document always renders the same bytes.
	GeneratedAt time.Time
}

// Renderer lays out documents with embedded TrueType fonts so any text the
// font covers prints as written. It is safe for concurrent use.
type Renderer struct {
	family  string
	regular []byte
	bold    []byte
	italic  []byte
}

// New uses the Go fonts (Latin, Greek and Cyrillic).
func New() *Renderer {
	return &Renderer{family: "Go", regular: goregular.TTF, bold: gobold.TTF, italic: goitalic.TTF}
}

// NewWithFontFile uses one TrueType font for every style, e.g. a Noto
// family for Arabic data. An empty path is the same as New.
func NewWithFontFile(path string) (*Renderer, error) {
	if path == "" {
		return New(), nil
	}
	ttf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdfreport: read font: %w", err)
	}
	return &Renderer{family: "Report", regular: ttf, bold: ttf, italic: ttf}, nil
}

// Render returns the whole document in memory.
func (r *Renderer) Render(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.RenderTo(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderTo streams the document to w.
func (r *Renderer) RenderTo(w io.Writer, doc Document) error {
	pdf := r.layout(doc)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdfreport: %w", err)
	}
	return nil
}

func (r *Renderer) layout(doc Document) *fpdf.Fpdf {
	if r.regular == nil {
		r = New()
	}
	font := r.family
	generated := doc.GeneratedAt.UTC()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetCreationDate(generated)
	pdf.SetModificationDate(generated)
	pdf.SetCatalogSort(true)
	pdf.AliasNbPages("")
	pdf.AddUTF8FontFromBytes(font, "", r.regular)
	pdf.AddUTF8FontFromBytes(font, "B", r.bold)
	pdf.AddUTF8FontFromBytes(font, "I", r.italic)

	pdf.SetTitle(text(doc.Title), true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pageMargin)
		pdf.SetFont(font, "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(font, "B", 20)
	pdf.MultiCell(0, 10, text(doc.Title), "", "C", false)
	if doc.Description != "" {
		pdf.Ln(2)
		pdf.SetFont(font, "", 12)
		pdf.MultiCell(0, lineHeight, text(doc.Description), "", "C", false)
	}
	pdf.Ln(4)
	pdf.SetFont(font, "", 9)
	pdf.CellFormat(0, lineHeight, "Generated at: "+generated.Format(time.RFC1123), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	for i, row := range doc.Rows {
		pdf.SetFont(font, "B", 11)
		pdf.CellFormat(0, lineHeight+1, fmt.Sprintf("Row %d:", i+1), "", 1, "L", false, 0, "")
		pdf.SetFont(font, "", 10)
		for _, cell := range row {
			pdf.MultiCell(0, lineHeight, text(cell.Name+": "+cell.Value), "", "L", false)
		}
		pdf.Ln(2)
	}

	pdf.Ln(4)
	pdf.SetFont(font, "B", 14)
	pdf.CellFormat(0, 8, "AI Summary", "", 1, "L", false, 0, "")
	pdf.SetFont(font, "", 11)
	pdf.MultiCell(0, lineHeight, text(doc.Summary), "", "L", false)
	return pdf
}

// text replaces runes outside the Basic Multilingual Plane, which fpdf's
// width tables cannot index.
func text(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return '?'
		}
		return r
	}, s)
}
