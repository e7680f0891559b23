package export

import (
	"io"
	"strings"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/layout"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatPDF   ExportFormat = "pdf"
	FormatExcel ExportFormat = "xlsx"
)

// ParseFormat accepts the query values clients send for each format
func ParseFormat(s string) (ExportFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, true
	case "xlsx", "excel":
		return FormatExcel, true
	default:
		return "", false
	}
}

// Exporter writes a deck in one file format
type Exporter interface {
	Export(d *deck.FinalDeck, writer io.Writer) error
	GetContentType() string
	GetFileExtension() string
}

// ExportStyle defines styling options for exports
type ExportStyle struct {
	HeaderBold    bool
	HeaderBgColor string // Hex color
	AlternateRows bool
	RowBgColor1   string
	RowBgColor2   string

	FontFamily string
	FontSize   float64

	FreezeHeader bool
	AutoFilter   bool
}

// DefaultStyle returns the deck theme's export styling
func DefaultStyle() ExportStyle {
	return ExportStyle{
		HeaderBold:    true,
		HeaderBgColor: "#2563EB",
		AlternateRows: true,
		RowBgColor1:   "#FFFFFF",
		RowBgColor2:   "#F1F5F9",
		FontFamily:    "Arial",
		FontSize:      10,
		FreezeHeader:  true,
		AutoFilter:    true,
	}
}

// SlideRow is the flattened view of one slide shared by every exporter
type SlideRow struct {
	Number       int
	Title        string
	Subtitle     string
	Layout       deck.Layout
	Bullets      []string
	Takeaways    []string
	SpeakerNotes string
	Chart        *deck.ChartContent
}

// Flatten extracts the text and chart payloads from positioned elements
func Flatten(d *deck.FinalDeck) []SlideRow {
	rows := make([]SlideRow, 0, len(d.Slides))
	for _, s := range d.Slides {
		row := SlideRow{
			Number:       s.SlideNumber,
			Title:        s.Title,
			Subtitle:     s.Subtitle,
			Layout:       s.Layout,
			Takeaways:    s.KeyTakeaways,
			SpeakerNotes: s.SpeakerNotes,
		}
		for _, el := range s.Elements {
			switch {
			case el.Chart != nil && row.Chart == nil:
				row.Chart = el.Chart
			case el.Text != nil && el.Text.Role == "bullets":
				row.Bullets = splitBullets(el.Text.Text)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func splitBullets(text string) []string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(line, layout.BulletGlyph))
		if line != "" {
			bullets = append(bullets, line)
		}
	}
	return bullets
}
