package fsds

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbook(t *testing.T) {
	ds := loadQuarter(t)

	tables, err := ds.ReconstructFiling(acmeAccession, nil)
	if err != nil {
		t.Fatalf("ReconstructFiling failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "acme.xlsx")
	if err := WriteWorkbook(path, tables); err != nil {
		t.Fatalf("WriteWorkbook failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	wantSheets := []string{"Balance Sheet", "Income Statement", "Cash Flow", "Comprehensive Income"}
	if len(sheets) != len(wantSheets) {
		t.Fatalf("sheets = %v, want %v", sheets, wantSheets)
	}
	for i, want := range wantSheets {
		if sheets[i] != want {
			t.Errorf("sheet %d = %q, want %q", i, sheets[i], want)
		}
	}

	cell := func(sheet, ref string) string {
		v, err := f.GetCellValue(sheet, ref)
		if err != nil {
			t.Fatalf("GetCellValue(%s, %s): %v", sheet, ref, err)
		}
		return v
	}

	if got := cell("Income Statement", "A1"); got != "Line Item" {
		t.Errorf("header A1 = %q", got)
	}

	// Row 3 is Revenues, the first line under the statement header: value,
	// derived period start and period end all populated.
	if got := cell("Income Statement", "A3"); got != "    Revenues" {
		t.Errorf("A3 = %q, want the depth-indented Revenues label", got)
	}
	if got := cell("Income Statement", "B3"); got != "2,000,000" {
		t.Errorf("B3 = %q, want 2,000,000", got)
	}
	if got := cell("Income Statement", "C3"); got != "20230101" {
		t.Errorf("period start C3 = %q, want 20230101", got)
	}
	if got := cell("Income Statement", "D3"); got != "20231231" {
		t.Errorf("period end D3 = %q, want 20231231", got)
	}

	// Instant balance sheet rows carry no period start.
	if got := cell("Balance Sheet", "C3"); got != "" {
		t.Errorf("balance sheet period start = %q, want empty", got)
	}
}

func TestWriteWorkbookEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := WriteWorkbook(path, nil); err == nil {
		t.Error("expected error for empty statement map")
	}
}
