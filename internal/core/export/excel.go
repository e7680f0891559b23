package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/xuri/excelize/v2"
)

const (
	slidesSheet = "Slides"
	chartsSheet = "Charts"
)

var (
	slideHeaders = []string{"#", "Title", "Subtitle", "Layout", "Bullets", "Key Takeaways", "Speaker Notes", "Chart Type"}
	chartHeaders = []string{"Slide", "Chart ID", "Type", "Title", "X Key", "Y Key", "Insight", "Data Points"}
	slideWidths  = []float64{5, 40, 30, 14, 60, 50, 50, 12}
)

// ExcelExporter writes a deck outline workbook using excelize
type ExcelExporter struct {
	style ExportStyle
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(style ExportStyle) *ExcelExporter {
	return &ExcelExporter{style: style}
}

// Export writes a Slides sheet and a Charts sheet
func (e *ExcelExporter) Export(d *deck.FinalDeck, writer io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", slidesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(chartsSheet); err != nil {
		return fmt.Errorf("failed to create charts sheet: %w", err)
	}

	rows := Flatten(d)

	var slideRows, chartRows [][]any
	for _, r := range rows {
		chartType := string(deck.ChartNone)
		if r.Chart != nil {
			chartType = string(r.Chart.Type)
			chartRows = append(chartRows, []any{
				r.Number, r.Chart.ChartID, string(r.Chart.Type), r.Chart.Title,
				r.Chart.Metadata.XKey, r.Chart.Metadata.YKey, r.Chart.Metadata.Insight, len(r.Chart.Data),
			})
		}
		slideRows = append(slideRows, []any{
			r.Number, r.Title, r.Subtitle, string(r.Layout),
			strings.Join(r.Bullets, "\n"), strings.Join(r.Takeaways, "\n"), r.SpeakerNotes, chartType,
		})
	}

	if err := e.writeTable(f, slidesSheet, d.Title, slideHeaders, slideRows); err != nil {
		return err
	}
	for i, w := range slideWidths {
		col := columnNumberToName(i + 1)
		f.SetColWidth(slidesSheet, col, col, w)
	}
	if err := e.writeTable(f, chartsSheet, d.Title, chartHeaders, chartRows); err != nil {
		return err
	}

	if err := f.Write(writer); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

// writeTable writes a title row, a blank row, a styled header and the rows
func (e *ExcelExporter) writeTable(f *excelize.File, sheet, title string, headers []string, rows [][]any) error {
	rowIndex := 1
	if title != "" {
		f.SetCellValue(sheet, "A1", title)
		titleStyle, _ := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 14, Family: e.style.FontFamily},
		})
		f.SetCellStyle(sheet, "A1", "A1", titleStyle)
		rowIndex += 2
	}

	headerStyle, err := e.createHeaderStyle(f)
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	headerRow := rowIndex
	for colIndex, header := range headers {
		cell := columnNumberToName(colIndex+1) + strconv.Itoa(rowIndex)
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	rowIndex++

	oddRowStyle, _ := e.createRowStyle(f, e.style.RowBgColor1)
	evenRowStyle := oddRowStyle
	if e.style.AlternateRows {
		evenRowStyle, _ = e.createRowStyle(f, e.style.RowBgColor2)
	}

	for rowIdx, row := range rows {
		for colIndex, value := range row {
			cell := columnNumberToName(colIndex+1) + strconv.Itoa(rowIndex)
			f.SetCellValue(sheet, cell, value)
			if rowIdx%2 == 0 {
				f.SetCellStyle(sheet, cell, cell, oddRowStyle)
			} else {
				f.SetCellStyle(sheet, cell, cell, evenRowStyle)
			}
		}
		rowIndex++
	}

	if e.style.FreezeHeader {
		f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      headerRow,
			TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
			ActivePane:  "bottomLeft",
		})
	}
	if e.style.AutoFilter && len(rows) > 0 {
		lastCol := columnNumberToName(len(headers))
		f.AutoFilter(sheet, fmt.Sprintf("A%d:%s%d", headerRow, lastCol, headerRow+len(rows)), nil)
	}
	return nil
}

// GetContentType returns the MIME type for Excel files
func (e *ExcelExporter) GetContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// GetFileExtension returns the file extension for Excel files
func (e *ExcelExporter) GetFileExtension() string {
	return ".xlsx"
}

func (e *ExcelExporter) createHeaderStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   e.style.HeaderBold,
			Size:   e.style.FontSize,
			Family: e.style.FontFamily,
			Color:  "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{stripHashFromColor(e.style.HeaderBgColor)},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func (e *ExcelExporter) createRowStyle(f *excelize.File, bgColor string) (int, error) {
	rowStyle := &excelize.Style{
		Font:      &excelize.Font{Size: e.style.FontSize, Family: e.style.FontFamily},
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	}
	if bgColor != "" && bgColor != "#FFFFFF" {
		rowStyle.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{stripHashFromColor(bgColor)},
		}
	}
	return f.NewStyle(rowStyle)
}

// columnNumberToName converts column number to Excel column name (1 -> A, 27 -> AA)
func columnNumberToName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+(col%26))) + name
		col /= 26
	}
	return name
}

func stripHashFromColor(color string) string {
	return strings.TrimPrefix(color, "#")
}
