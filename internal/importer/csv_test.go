package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/andresuchdata/replenish/internal/domain"
)

type memorySink struct {
	warehouses map[string]int64
	resolves   int
	sales      []domain.SalesRow
	stock      []domain.StockSnapshot
	batches    int
	failInsert error
}

func newMemorySink() *memorySink {
	return &memorySink{warehouses: map[string]int64{}}
}

func (s *memorySink) ResolveWarehouse(_ context.Context, name string) (int64, error) {
	s.resolves++
	if name == "unresolvable" {
		return 0, nil
	}
	if id, ok := s.warehouses[name]; ok {
		return id, nil
	}
	id := int64(len(s.warehouses) + 1)
	s.warehouses[name] = id
	return id, nil
}

func (s *memorySink) InsertSales(_ context.Context, rows []domain.SalesRow) error {
	if s.failInsert != nil {
		return s.failInsert
	}
	s.batches++
	s.sales = append(s.sales, rows...)
	return nil
}

func (s *memorySink) InsertStock(_ context.Context, rows []domain.StockSnapshot) error {
	if s.failInsert != nil {
		return s.failInsert
	}
	s.batches++
	s.stock = append(s.stock, rows...)
	return nil
}

func int64Ptr(v int64) *int64 { return &v }

func TestImportSalesHeaderMode(t *testing.T) {
	csv := strings.Join([]string{
		"Warehouse_Name,SKU,Sale_Date,Quantity",
		"Main,ABC,2024-03-05,3",
		"Main,ABC,5/3/2024,\"1,5\"",
		"Main,ABC,2024-03-05,abc",
		"Main,,2024-03-05,1",
		"Main,ABC,someday,1",
		"Main,ABC,2024-03-05",
		"Side,XYZ,March 6 2024,(2)",
		"unresolvable,XYZ,2024-03-06,1",
	}, "\n")

	sink := newMemorySink()
	res, err := New().Import(context.Background(), strings.NewReader(csv), Request{Kind: domain.ImportSales}, sink)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Imported != 3 || res.Skipped != 5 {
		t.Fatalf("result = %+v, want 3 imported / 5 skipped", res)
	}
	if res.Message != "Imported 3 sales rows." {
		t.Fatalf("message = %q", res.Message)
	}
	if len(sink.sales) != 3 {
		t.Fatalf("sink got %d rows", len(sink.sales))
	}
	if got := sink.sales[1]; got.Quantity != 1.5 || got.SaleDate.Format("2006-01-02") != "2024-03-05" {
		t.Fatalf("second row = %+v", got)
	}
	if got := sink.sales[2]; got.Quantity != 0 || got.WarehouseID != 2 {
		t.Fatalf("parenthesised quantity should clamp to 0 in warehouse 2, got %+v", got)
	}
	if sink.resolves != 3 {
		t.Fatalf("warehouse lookups = %d, want one per distinct name", sink.resolves)
	}
}

func TestImportMissingColumnAborts(t *testing.T) {
	csv := "warehouse_name,sale_date,quantity\nMain,2024-03-05,3\n"

	sink := newMemorySink()
	_, err := New().Import(context.Background(), strings.NewReader(csv), Request{Kind: domain.ImportSales}, sink)

	se, ok := IsStructural(err)
	if !ok {
		t.Fatalf("want structural error, got %v", err)
	}
	if se.Message != "Missing required column: sku" {
		t.Fatalf("message = %q", se.Message)
	}
	if len(sink.sales) != 0 {
		t.Fatalf("rows written despite structural failure")
	}
}

func TestImportStructuralErrors(t *testing.T) {
	wh := int64Ptr(1)
	cases := []struct {
		name string
		csv  string
		req  Request
		want string
	}{
		{"empty file", "", Request{Kind: domain.ImportSales}, "CSV file is empty."},
		{"blank header", ",,\n", Request{Kind: domain.ImportSales}, "CSV file is empty."},
		{"unmapped field", "a,b,c\n", Request{Kind: domain.ImportSales, WarehouseID: wh, ColumnMap: map[string]int{"sale_date": 0, "sku": 1}}, "Please select a column for quantity."},
		{"index out of range", "a,b,c\n", Request{Kind: domain.ImportSales, WarehouseID: wh, ColumnMap: map[string]int{"sale_date": 0, "sku": 1, "quantity": 3}}, "Invalid column selection provided."},
		{"negative index", "a,b\n", Request{Kind: domain.ImportStock, WarehouseID: wh, ColumnMap: map[string]int{"sku": -1, "quantity": 1}}, "Invalid column selection provided."},
		{"bad snapshot override", "a,b\n", Request{Kind: domain.ImportStock, WarehouseID: wh, ColumnMap: map[string]int{"sku": 0, "quantity": 1}, SnapshotDate: "nope"}, "Invalid snapshot date provided."},
		{"no snapshot source", "a,b\n", Request{Kind: domain.ImportStock, WarehouseID: wh, ColumnMap: map[string]int{"sku": 0, "quantity": 1}}, "Please provide a snapshot date."},
		{"stock header missing date", "warehouse_name,sku,quantity\n", Request{Kind: domain.ImportStock}, "Missing required column: snapshot_date"},
		{"unknown kind", "a\n", Request{Kind: "returns"}, "Unsupported import type."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().Import(context.Background(), strings.NewReader(tc.csv), tc.req, newMemorySink())
			se, ok := IsStructural(err)
			if !ok {
				t.Fatalf("want structural error, got %v", err)
			}
			if se.Message != tc.want {
				t.Fatalf("message = %q, want %q", se.Message, tc.want)
			}
		})
	}
}

func TestImportSalesMappedMode(t *testing.T) {
	csv := strings.Join([]string{
		"Qty;ignored,Code,When",
		"4,A1,2024-03-01",
		"2",
		"7,A2,2024-03-02,extra",
	}, "\n")
	req := Request{
		Kind:        domain.ImportSales,
		WarehouseID: int64Ptr(9),
		ColumnMap:   map[string]int{"quantity": 0, "sku": 1, "sale_date": 2},
	}

	sink := newMemorySink()
	res, err := New().Import(context.Background(), strings.NewReader(csv), req, sink)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	// mapped mode does not enforce column counts, only that mapped cells exist
	if res.Imported != 2 || res.Skipped != 1 {
		t.Fatalf("result = %+v", res)
	}
	for _, row := range sink.sales {
		if row.WarehouseID != 9 {
			t.Fatalf("row warehouse = %d, want 9", row.WarehouseID)
		}
	}
	if sink.resolves != 0 {
		t.Fatalf("mapped mode must not resolve warehouses")
	}
}

func TestImportStockSnapshotOverride(t *testing.T) {
	csv := "sku,qty,desc\nA,10,Blue Mug\nB,\"1.234,5\",\n"
	req := Request{
		Kind:         domain.ImportStock,
		WarehouseID:  int64Ptr(3),
		ColumnMap:    map[string]int{"sku": 0, "quantity": 1, "product_name": 2, "snapshot_date": 17},
		SnapshotDate: "5th March 2024",
	}

	sink := newMemorySink()
	res, err := New().Import(context.Background(), strings.NewReader(csv), req, sink)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Message != "Imported 2 stock rows." {
		t.Fatalf("message = %q", res.Message)
	}
	if sink.stock[0].ProductName != "Blue Mug" || sink.stock[1].Quantity != 1234.5 {
		t.Fatalf("stock rows = %+v", sink.stock)
	}
	for _, s := range sink.stock {
		if s.SnapshotDate.Format("2006-01-02") != "2024-03-05" {
			t.Fatalf("snapshot date = %v, want override", s.SnapshotDate)
		}
	}
}

func TestImportStockHeaderNameFallback(t *testing.T) {
	csv := "\ufeffwarehouse_name,sku,snapshot_date,quantity,name\nMain,A,2024-03-05,4,Blue Mug\n"

	sink := newMemorySink()
	if _, err := New().Import(context.Background(), strings.NewReader(csv), Request{Kind: domain.ImportStock}, sink); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(sink.stock) != 1 || sink.stock[0].ProductName != "Blue Mug" {
		t.Fatalf("stock = %+v", sink.stock)
	}
}

func TestImportFlushesInBatches(t *testing.T) {
	var b strings.Builder
	b.WriteString("warehouse_name,sku,sale_date,quantity\n")
	for i := 0; i < 7; i++ {
		b.WriteString("Main,A,2024-03-05,1\n")
	}

	sink := newMemorySink()
	res, err := New(WithBatchSize(3)).Import(context.Background(), strings.NewReader(b.String()), Request{Kind: domain.ImportSales}, sink)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Imported != 7 || sink.batches != 3 {
		t.Fatalf("imported %d in %d batches, want 7 in 3", res.Imported, sink.batches)
	}
}

func TestImportSinkFailureIsNotStructural(t *testing.T) {
	sink := newMemorySink()
	sink.failInsert = errors.New("disk full")

	csv := "warehouse_name,sku,sale_date,quantity\nMain,A,2024-03-05,1\n"
	_, err := New().Import(context.Background(), strings.NewReader(csv), Request{Kind: domain.ImportSales}, sink)
	if err == nil {
		t.Fatalf("want error")
	}
	if _, ok := IsStructural(err); ok {
		t.Fatalf("sink failure reported as structural: %v", err)
	}
	if !errors.Is(err, sink.failInsert) {
		t.Fatalf("error does not wrap sink failure: %v", err)
	}
}
