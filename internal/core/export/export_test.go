package export

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/layout"
	"github.com/xuri/excelize/v2"
)

func sampleDeck() *deck.FinalDeck {
	outline := []deck.SlideOutline{
		{ID: "s1", SlideNumber: 1, Title: "Q4 Review", Subtitle: "Sales", Layout: deck.LayoutTitle, ChartType: deck.ChartNone, Bullets: []string{"Strong quarter"}},
		{ID: "s2", SlideNumber: 2, Title: "Revenue trend", Layout: deck.LayoutSplitChart, ChartType: deck.ChartLine,
			Bullets: []string{"Revenue up 15%", "North leads"}, SpeakerNotes: "Pause here"},
	}
	charts := []deck.ChartConfig{{
		ID: "chart-s2", SlideID: "s2", Type: deck.ChartLine, Title: "Revenue",
		Data:     []map[string]any{{"period": "start", "Revenue": 100.0}, {"period": "latest", "Revenue": 115.0}},
		Metadata: deck.ChartMetadata{XKey: "period", YKey: "Revenue", Insight: "Up 15%"},
	}}

	d := &deck.FinalDeck{ID: "job-1", Title: "Q4 Business Review", Description: "Revenue grew 15%"}
	for i, s := range layout.Style(outline, charts) {
		d.Slides = append(d.Slides, deck.DeckSlide{StyledSlide: s, Number: i + 1, SlideNumber: i + 1, Content: s.Elements})
	}
	return d
}

func TestFlatten(t *testing.T) {
	rows := Flatten(sampleDeck())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !reflect.DeepEqual(rows[1].Bullets, []string{"Revenue up 15%", "North leads"}) {
		t.Errorf("unexpected bullets %q", rows[1].Bullets)
	}
	if rows[1].Chart == nil || rows[1].Chart.Type != deck.ChartLine {
		t.Errorf("expected line chart on slide 2, got %+v", rows[1].Chart)
	}
	if rows[0].Chart != nil {
		t.Error("title slide must not carry a chart")
	}
}

func TestExcelExport(t *testing.T) {
	svc := NewService()
	var buf bytes.Buffer
	if err := svc.Export(sampleDeck(), FormatExcel, &buf); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{slidesSheet, chartsSheet}) {
		t.Fatalf("unexpected sheets %v", got)
	}

	// title, blank, header, then data
	title, _ := f.GetCellValue(slidesSheet, "B5")
	if title != "Revenue trend" {
		t.Errorf("expected slide title in B5, got %q", title)
	}
	chartType, _ := f.GetCellValue(slidesSheet, "H4")
	if chartType != string(deck.ChartNone) {
		t.Errorf("expected none for title slide, got %q", chartType)
	}
	chartID, _ := f.GetCellValue(chartsSheet, "B4")
	if chartID != "chart-s2" {
		t.Errorf("expected chart id in Charts sheet, got %q", chartID)
	}
}

func TestPDFExport(t *testing.T) {
	data, contentType, err := NewService().ExportBytes(sampleDeck(), FormatPDF)
	if err != nil {
		t.Fatalf("ExportBytes returned error: %v", err)
	}
	if contentType != "application/pdf" {
		t.Errorf("unexpected content type %s", contentType)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	err := NewService().Export(sampleDeck(), ExportFormat("pptx"), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestParseFormatAndFilename(t *testing.T) {
	if f, ok := ParseFormat("Excel"); !ok || f != FormatExcel {
		t.Errorf("expected excel alias to parse, got %q %v", f, ok)
	}
	if _, ok := ParseFormat("docx"); ok {
		t.Error("docx must not parse")
	}

	svc := NewService()
	if got := svc.Filename(sampleDeck(), FormatPDF); got != "q4-business-review.pdf" {
		t.Errorf("unexpected filename %s", got)
	}
	if got := svc.Filename(&deck.FinalDeck{ID: "x1", Title: "!!!"}, FormatExcel); got != "deck-x1.xlsx" {
		t.Errorf("unexpected fallback filename %s", got)
	}
}
