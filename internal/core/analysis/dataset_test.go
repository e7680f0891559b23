package analysis

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	columns, rows, err := ReadCSV(strings.NewReader("Month,Revenue,Region\n2024-01,100.5,North\n2024-02,,South\n"))
	if err != nil {
		t.Fatalf("ReadCSV returned error: %v", err)
	}
	if len(columns) != 3 || columns[1] != "Revenue" {
		t.Fatalf("unexpected columns: %v", columns)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["Revenue"] != 100.5 {
		t.Errorf("expected numeric cell, got %#v", rows[0]["Revenue"])
	}
	if rows[1]["Revenue"] != nil {
		t.Errorf("expected empty cell to be nil, got %#v", rows[1]["Revenue"])
	}
	if rows[1]["Region"] != "South" {
		t.Errorf("expected string cell, got %#v", rows[1]["Region"])
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	ds := &Dataset{
		ID:      "x",
		Columns: []string{"Name", "Value"},
		Rows: []map[string]any{
			{"Name": "a, quoted", "Value": 1.5},
			{"Name": "b", "Value": nil},
		},
	}
	var buf bytes.Buffer
	if err := writeCSV(&buf, ds); err != nil {
		t.Fatalf("writeCSV returned error: %v", err)
	}
	want := "Name,Value\n\"a, quoted\",1.5\nb,\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestFileSourceCSVAndXLSX(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "q1.csv"), []byte("Month,Revenue\n2024-01,10\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	wb.SetCellValue(sheet, "A1", "Region")
	wb.SetCellValue(sheet, "B1", "Customers")
	wb.SetCellValue(sheet, "A2", "North")
	wb.SetCellValue(sheet, "B2", 42)
	if err := wb.SaveAs(filepath.Join(dir, "regions.xlsx")); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}

	src := NewFileSource(dir)

	ds, err := src.LoadDataset(context.Background(), "q1")
	if err != nil {
		t.Fatalf("csv load failed: %v", err)
	}
	if len(ds.Rows) != 1 || ds.Rows[0]["Revenue"] != 10.0 {
		t.Fatalf("unexpected csv dataset: %+v", ds)
	}

	ds, err = src.LoadDataset(context.Background(), "regions")
	if err != nil {
		t.Fatalf("xlsx load failed: %v", err)
	}
	if len(ds.Rows) != 1 || ds.Rows[0]["Region"] != "North" || ds.Rows[0]["Customers"] != 42.0 {
		t.Fatalf("unexpected xlsx dataset: %+v", ds.Rows)
	}

	if _, err := src.LoadDataset(context.Background(), "absent"); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
	if _, err := src.LoadDataset(context.Background(), "../etc/passwd"); err == nil {
		t.Fatal("expected path traversal id to be rejected")
	}
}
