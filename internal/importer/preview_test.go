package importer

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/xuri/excelize/v2"
)

func TestPreviewLimitsRows(t *testing.T) {
	csv := "sku,qty\nA,1\nB,2\nC,3\n"

	table, err := Preview(strings.NewReader(csv), 2)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if !reflect.DeepEqual(table.Header, []string{"sku", "qty"}) {
		t.Fatalf("header = %v", table.Header)
	}
	if len(table.Rows) != 2 || table.Rows[1][0] != "B" {
		t.Fatalf("rows = %v", table.Rows)
	}
}

func TestPreviewEmpty(t *testing.T) {
	_, err := Preview(strings.NewReader(""), 0)
	if se, ok := IsStructural(err); !ok || se.Message != "CSV file is empty." {
		t.Fatalf("err = %v", err)
	}
}

func TestSuggestColumnMap(t *testing.T) {
	got := SuggestColumnMap(domain.ImportStock, []string{"Code", "Qty", "Name", "Date"})
	want := map[string]int{"sku": 0, "quantity": 1, "product_name": 2, "snapshot_date": 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SuggestColumnMap = %v, want %v", got, want)
	}
}

func TestConvertXLSX(t *testing.T) {
	dir := t.TempDir()
	xlsxPath := filepath.Join(dir, "sales.xlsx")
	csvPath := filepath.Join(dir, "sales.csv")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"warehouse_name", "sku", "sale_date", "quantity"},
		{"Main", "A", "2024-03-05", 3},
		{"Main", "B", "2024-03-06"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := f.SaveAs(xlsxPath); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	if !IsSpreadsheet(xlsxPath) || IsSpreadsheet(csvPath) {
		t.Fatalf("IsSpreadsheet misclassified paths")
	}
	if err := ConvertXLSX(xlsxPath, csvPath); err != nil {
		t.Fatalf("ConvertXLSX: %v", err)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv lines = %q", lines)
	}
	if lines[1] != "Main,A,2024-03-05,3" {
		t.Fatalf("row 1 = %q", lines[1])
	}
	if lines[2] != "Main,B,2024-03-06," {
		t.Fatalf("short row should be padded, got %q", lines[2])
	}
}
