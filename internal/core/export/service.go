package export

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
)

// Service picks the exporter for a format
type Service struct {
	exporters map[ExportFormat]Exporter
}

// NewService creates a new export service
func NewService() *Service {
	style := DefaultStyle()
	return &Service{
		exporters: map[ExportFormat]Exporter{
			FormatPDF:   NewPDFExporter(style),
			FormatExcel: NewExcelExporter(style),
		},
	}
}

func (s *Service) exporter(format ExportFormat) (Exporter, error) {
	e, ok := s.exporters[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
	return e, nil
}

// Export writes the deck to w in the given format
func (s *Service) Export(d *deck.FinalDeck, format ExportFormat, w io.Writer) error {
	if d == nil {
		return fmt.Errorf("no deck to export")
	}
	e, err := s.exporter(format)
	if err != nil {
		return err
	}
	if err := e.Export(d, w); err != nil {
		return fmt.Errorf("%s export failed: %w", format, err)
	}
	return nil
}

// ExportBytes renders the deck and returns the bytes with their content type
func (s *Service) ExportBytes(d *deck.FinalDeck, format ExportFormat) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := s.Export(d, format, &buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), s.GetContentType(format), nil
}

// GetContentType returns the content type for the given format
func (s *Service) GetContentType(format ExportFormat) string {
	if e, err := s.exporter(format); err == nil {
		return e.GetContentType()
	}
	return "application/octet-stream"
}

// GetFileExtension returns the file extension for the given format
func (s *Service) GetFileExtension(format ExportFormat) string {
	if e, err := s.exporter(format); err == nil {
		return e.GetFileExtension()
	}
	return ".bin"
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

// Filename derives a download name from the deck title
func (s *Service) Filename(d *deck.FinalDeck, format ExportFormat) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(d.Title), "-"), "-")
	if base == "" {
		base = "deck-" + d.ID
	}
	return base + s.GetFileExtension(format)
}
