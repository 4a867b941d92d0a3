package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// Report describes a titled document of labelled sections rendered to PDF.
type Report struct {
	Title    string
	Subtitle string
	Sections []Section
}

// Section is a headed group of rows and optional score bars.
type Section struct {
	Heading string
	Rows    []Row
	Bars    []Bar
}

// Row is a single label/value line.
type Row struct {
	Label string
	Value string
}

// Bar is a proportional score bar (Value out of Max).
type Bar struct {
	Label string
	Value float64
	Max   float64
	Note  string
}

type Generator interface {
	Generate(ctx context.Context, report Report) (io.ReadSeeker, error)
}

type fpdfGenerator struct{}

func NewGenerator() Generator {
	return &fpdfGenerator{}
}

func (g *fpdfGenerator) Generate(ctx context.Context, report Report) (io.ReadSeeker, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(report.Title, false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 12, report.Title, "", 1, "L", false, 0, "")
	if report.Subtitle != "" {
		doc.SetFont("Helvetica", "", 11)
		doc.SetTextColor(110, 110, 110)
		doc.CellFormat(0, 7, report.Subtitle, "", 1, "L", false, 0, "")
		doc.SetTextColor(0, 0, 0)
	}
	doc.Ln(4)

	for _, section := range report.Sections {
		doc.SetFont("Helvetica", "B", 13)
		doc.CellFormat(0, 9, section.Heading, "B", 1, "L", false, 0, "")
		doc.Ln(2)

		doc.SetFont("Helvetica", "", 10)
		for _, row := range section.Rows {
			doc.SetFont("Helvetica", "B", 10)
			doc.CellFormat(55, 6, row.Label, "", 0, "L", false, 0, "")
			doc.SetFont("Helvetica", "", 10)
			doc.MultiCell(0, 6, row.Value, "", "L", false)
		}

		for _, bar := range section.Bars {
			g.drawBar(doc, bar)
		}
		doc.Ln(4)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render report: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

func (g *fpdfGenerator) drawBar(doc *gofpdf.Fpdf, bar Bar) {
	const barWidth = 120.0
	const barHeight = 4.0

	doc.SetFont("Helvetica", "", 9)
	label := bar.Label
	if bar.Max > 0 {
		label = fmt.Sprintf("%s (%.0f/%.0f)", bar.Label, bar.Value, bar.Max)
	}
	doc.CellFormat(0, 5, label, "", 1, "L", false, 0, "")

	x, y := doc.GetX(), doc.GetY()
	doc.SetFillColor(230, 230, 230)
	doc.Rect(x, y, barWidth, barHeight, "F")

	fill := 0.0
	if bar.Max > 0 {
		fill = bar.Value / bar.Max
	}
	if fill > 1 {
		fill = 1
	}
	doc.SetFillColor(60, 120, 216)
	doc.Rect(x, y, barWidth*fill, barHeight, "F")
	doc.SetY(y + barHeight + 2)

	if bar.Note != "" {
		doc.SetTextColor(110, 110, 110)
		doc.CellFormat(0, 4, bar.Note, "", 1, "L", false, 0, "")
		doc.SetTextColor(0, 0, 0)
	}
}
