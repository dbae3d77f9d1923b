package documents

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// PDFConverter renders layouts with fpdf core fonts. Output is byte-stable
// for a given layout because the catalog is sorted and both document dates
// are taken from Layout.GeneratedAt.
type PDFConverter struct {
	Font     string
	PageSize string
}

func NewPDFConverter() *PDFConverter {
	return &PDFConverter{Font: "Helvetica", PageSize: "A4"}
}

const (
	lineHeight = 6.0
	labelWidth = 50.0
)

func (c *PDFConverter) Convert(layout *Layout) ([]byte, error) {
	pdf := fpdf.New("P", "mm", c.PageSize, "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(layout.GeneratedAt)
	pdf.SetModificationDate(layout.GeneratedAt)
	pdf.SetTitle(layout.Title, true)
	pdf.SetAutoPageBreak(true, 15)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont(c.Font, "B", 16)
	pdf.MultiCell(0, 8, tr(layout.Title), "", "L", false)

	pdf.SetFont(c.Font, "I", 9)
	pdf.CellFormat(0, lineHeight, "Generated at "+layout.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for _, b := range layout.Blocks {
		switch b.Kind {
		case BlockHeading:
			pdf.Ln(3)
			pdf.SetFont(c.Font, "B", 12)
			pdf.CellFormat(0, 8, tr(b.Text), "B", 1, "L", false, 0, "")
		case BlockField:
			pdf.SetFont(c.Font, "B", 10)
			pdf.CellFormat(labelWidth, lineHeight, tr(b.Label), "", 0, "L", false, 0, "")
			pdf.SetFont(c.Font, "", 10)
			pdf.MultiCell(0, lineHeight, tr(b.Text), "", "L", false)
		case BlockParagraph:
			pdf.SetFont(c.Font, "", 10)
			pdf.MultiCell(0, lineHeight, tr(b.Text), "", "L", false)
			pdf.Ln(1)
		case BlockLink:
			pdf.SetFont(c.Font, "U", 10)
			pdf.SetTextColor(0, 0, 200)
			pdf.CellFormat(0, lineHeight, tr(b.Label), "", 1, "L", false, 0, b.Text)
			pdf.SetTextColor(0, 0, 0)
		default:
			return nil, fmt.Errorf("unknown block kind %d", b.Kind)
		}

		if pdf.Err() {
			return nil, pdf.Error()
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
