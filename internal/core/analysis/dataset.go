package analysis

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrDatasetNotFound is returned by a DatasetSource for unknown ids.
var ErrDatasetNotFound = errors.New("dataset not found")

// Dataset is tabular data addressed by id
type Dataset struct {
	ID      string
	Name    string
	Columns []string
	Rows    []map[string]any
}

// DatasetSource resolves a dataset id to its rows
type DatasetSource interface {
	LoadDataset(ctx context.Context, id string) (*Dataset, error)
}

// FileSource reads datasets from <dir>/<id>.csv or <dir>/<id>.xlsx
type FileSource struct {
	dir string
}

// NewFileSource creates a new file-backed dataset source
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (s *FileSource) LoadDataset(ctx context.Context, id string) (*Dataset, error) {
	if id == "" || filepath.Base(id) != id || strings.HasPrefix(id, ".") {
		return nil, fmt.Errorf("invalid dataset id %q", id)
	}

	csvPath := filepath.Join(s.dir, id+".csv")
	if f, err := os.Open(csvPath); err == nil {
		defer f.Close()
		columns, rows, err := ReadCSV(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", csvPath, err)
		}
		return &Dataset{ID: id, Name: id + ".csv", Columns: columns, Rows: rows}, nil
	}

	xlsxPath := filepath.Join(s.dir, id+".xlsx")
	if f, err := os.Open(xlsxPath); err == nil {
		defer f.Close()
		columns, rows, err := ReadXLSX(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", xlsxPath, err)
		}
		return &Dataset{ID: id, Name: id + ".xlsx", Columns: columns, Rows: rows}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
}

// ReadCSV parses a header row plus records. Numeric cells become float64,
// empty cells nil.
func ReadCSV(r io.Reader) ([]string, []map[string]any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return recordsToRows(records)
}

// ReadXLSX parses the first sheet of a workbook the same way as ReadCSV.
func ReadXLSX(r io.Reader) ([]string, []map[string]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return recordsToRows(records)
}

func recordsToRows(records [][]string) ([]string, []map[string]any, error) {
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("no header row")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			header[i] = fmt.Sprintf("column_%d", i+1)
		}
	}

	rows := make([]map[string]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i >= len(rec) {
				row[col] = nil
				continue
			}
			row[col] = parseCell(rec[i])
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func parseCell(raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// formatCell renders a row value for the CSV export
func formatCell(value any) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.Format("2006-01-02")
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// writeCSV writes the dataset as header + rows in column order
func writeCSV(w io.Writer, ds *Dataset) error {
	columns := ds.Columns
	if len(columns) == 0 && len(ds.Rows) > 0 {
		columns = sortedKeys(ds.Rows[0])
	}
	if len(columns) == 0 {
		return fmt.Errorf("dataset %s has no columns", ds.ID)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range ds.Rows {
		for i, col := range columns {
			record[i] = formatCell(row[col])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
