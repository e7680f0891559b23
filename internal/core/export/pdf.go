package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/jung-kurt/gofpdf"
)

// PDFExporter writes a printable speaker handout using gofpdf
type PDFExporter struct {
	style ExportStyle
}

// NewPDFExporter creates a new PDF exporter
func NewPDFExporter(style ExportStyle) *PDFExporter {
	return &PDFExporter{style: style}
}

// Export writes a cover page followed by one landscape page per slide
func (p *PDFExporter) Export(d *deck.FinalDeck, writer io.Writer) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(d.Title, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(100, 116, 139)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	// core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	fontFamily := p.style.FontFamily
	if fontFamily == "" {
		fontFamily = "Arial"
	}
	fontSize := p.style.FontSize
	if fontSize <= 0 {
		fontSize = 10
	}
	r, g, b := hexToRGB(p.style.HeaderBgColor)

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 20)
	pdf.SetTextColor(r, g, b)
	pdf.MultiCell(0, 10, tr(d.Title), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	if d.Description != "" {
		pdf.SetFont(fontFamily, "", fontSize+2)
		pdf.MultiCell(0, 6, tr(d.Description), "", "L", false)
	}
	pdf.SetFont(fontFamily, "I", 8)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s | Slides: %d | Quality score: %d | ~%d min",
		d.Metadata.GeneratedAt.Format("2006-01-02 15:04:05"), len(d.Slides), d.Metadata.QualityScore, d.Metadata.EstimatedDuration))
	pdf.Ln(10)

	for _, s := range Flatten(d) {
		pdf.AddPage()
		pdf.SetFillColor(r, g, b)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont(fontFamily, "B", fontSize+2)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("%d. %s", s.Number, s.Title)), "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)

		if s.Subtitle != "" {
			pdf.SetFont(fontFamily, "I", fontSize)
			pdf.MultiCell(0, 5, tr(s.Subtitle), "", "L", false)
		}

		pdf.SetFont(fontFamily, "", fontSize)
		for _, bullet := range s.Bullets {
			pdf.MultiCell(0, 5, tr("• "+bullet), "", "L", false)
		}

		if s.Chart != nil {
			pdf.SetFont(fontFamily, "B", fontSize)
			line := fmt.Sprintf("Chart: %s (%s, %d points)", s.Chart.Title, s.Chart.Type, len(s.Chart.Data))
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
			if s.Chart.Metadata.Insight != "" {
				pdf.SetFont(fontFamily, "I", fontSize)
				pdf.MultiCell(0, 5, tr(s.Chart.Metadata.Insight), "", "L", false)
			}
		}

		if len(s.Takeaways) > 0 {
			pdf.SetFont(fontFamily, "B", fontSize)
			pdf.MultiCell(0, 5, "Key takeaways", "", "L", false)
			pdf.SetFont(fontFamily, "", fontSize)
			pdf.MultiCell(0, 5, tr(strings.Join(s.Takeaways, "; ")), "", "L", false)
		}

		if s.SpeakerNotes != "" {
			pdf.SetFont(fontFamily, "I", fontSize-1)
			pdf.SetTextColor(71, 85, 105)
			pdf.MultiCell(0, 5, tr("Notes: "+s.SpeakerNotes), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}
	}

	if err := pdf.Output(writer); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// GetContentType returns the MIME type for PDF files
func (p *PDFExporter) GetContentType() string {
	return "application/pdf"
}

// GetFileExtension returns the file extension for PDF files
func (p *PDFExporter) GetFileExtension() string {
	return ".pdf"
}

// hexToRGB converts hex color to RGB values, white when invalid
func hexToRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 255, 255, 255
	}

	var r, g, b int
	fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	return r, g, b
}
