// Package importer streams sales and stock CSV files into a Sink. Bad rows
// are counted and skipped; only structural problems abort an import.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/normalize"
	"github.com/rs/zerolog/log"
)

const defaultBatchSize = 500

// Logical field names, shared by header mode and column maps.
const (
	FieldWarehouseName = "warehouse_name"
	FieldSKU           = "sku"
	FieldSaleDate      = "sale_date"
	FieldSnapshotDate  = "snapshot_date"
	FieldQuantity      = "quantity"
	FieldProductName   = "product_name"
	fieldName          = "name"
)

// Sink receives normalized rows. ResolveWarehouse must be an idempotent
// upsert by name; a non-positive id marks the row as unresolvable.
type Sink interface {
	ResolveWarehouse(ctx context.Context, name string) (int64, error)
	InsertSales(ctx context.Context, rows []domain.SalesRow) error
	InsertStock(ctx context.Context, rows []domain.StockSnapshot) error
}

// Request describes one file. ColumnMap together with WarehouseID switches
// to column-index mode; otherwise columns are found by header name and the
// warehouse comes from each row.
type Request struct {
	Kind         domain.ImportKind
	WarehouseID  *int64
	ColumnMap    map[string]int
	SnapshotDate string
}

func (r Request) mapped() bool {
	return r.ColumnMap != nil && r.WarehouseID != nil
}

// Result is the outcome of a completed import.
type Result struct {
	Imported int
	Skipped  int
	Message  string
}

type Importer struct {
	batchSize int
}

type Option func(*Importer)

// WithBatchSize sets how many rows are buffered per insert.
func WithBatchSize(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.batchSize = n
		}
	}
}

func New(opts ...Option) *Importer {
	im := &Importer{batchSize: defaultBatchSize}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// layout is where each logical field lives in a record. -1 means absent.
type layout struct {
	warehouse   int
	sku         int
	date        int
	quantity    int
	productName int
	columns     int
}

// Import reads r to the end. Structural problems come back as
// *StructuralError; sink failures are wrapped and returned as is.
func (im *Importer) Import(ctx context.Context, r io.Reader, req Request, sink Sink) (Result, error) {
	if req.Kind != domain.ImportSales && req.Kind != domain.ImportStock {
		return Result{}, structural(msgUnsupportedKind)
	}

	reader := newCSVReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, structural(msgEmpty)
		}
		return Result{}, &StructuralError{Message: msgUnreadable, Err: err}
	}
	header = cleanHeader(header)
	if len(header) == 0 {
		return Result{}, structural(msgEmpty)
	}

	var snapshot string
	if req.Kind == domain.ImportStock && strings.TrimSpace(req.SnapshotDate) != "" {
		d, ok := normalize.Date(req.SnapshotDate)
		if !ok {
			return Result{}, structural(msgInvalidSnapshot)
		}
		snapshot = d
	}

	var lay layout
	if req.mapped() {
		lay, err = mappedLayout(req, len(header), snapshot != "")
	} else {
		lay, err = headerLayout(req.Kind, header)
	}
	if err != nil {
		return Result{}, err
	}

	run := &importRun{
		im:         im,
		req:        req,
		sink:       sink,
		lay:        lay,
		snapshot:   snapshot,
		warehouses: make(map[string]int64),
	}
	if err := run.consume(ctx, reader); err != nil {
		return Result{}, err
	}

	res := Result{
		Imported: run.imported,
		Skipped:  run.skipped,
		Message:  fmt.Sprintf("Imported %d %s rows.", run.imported, req.Kind),
	}
	log.Info().
		Str("kind", string(req.Kind)).
		Bool("mapped", req.mapped()).
		Int("imported", res.Imported).
		Int("skipped", res.Skipped).
		Msg("import finished")
	return res, nil
}

func requiredFields(kind domain.ImportKind) []string {
	if kind == domain.ImportSales {
		return []string{FieldWarehouseName, FieldSKU, FieldSaleDate, FieldQuantity}
	}
	return []string{FieldWarehouseName, FieldSKU, FieldSnapshotDate, FieldQuantity}
}

func headerLayout(kind domain.ImportKind, header []string) (layout, error) {
	colMap := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.ToLower(col)
		if _, seen := colMap[col]; !seen {
			colMap[col] = i
		}
	}

	for _, col := range requiredFields(kind) {
		if _, ok := colMap[col]; !ok {
			return layout{}, structural("Missing required column: " + col)
		}
	}

	lay := layout{
		warehouse:   colMap[FieldWarehouseName],
		sku:         colMap[FieldSKU],
		quantity:    colMap[FieldQuantity],
		productName: -1,
		columns:     len(header),
	}
	if kind == domain.ImportSales {
		lay.date = colMap[FieldSaleDate]
	} else {
		lay.date = colMap[FieldSnapshotDate]
		if idx, ok := colMap[FieldProductName]; ok {
			lay.productName = idx
		} else if idx, ok := colMap[fieldName]; ok {
			lay.productName = idx
		}
	}
	return lay, nil
}

func mappedLayout(req Request, columns int, haveSnapshot bool) (layout, error) {
	lay := layout{warehouse: -1, date: -1, productName: -1, columns: -1}

	required := []string{FieldSaleDate, FieldSKU, FieldQuantity}
	if req.Kind == domain.ImportStock {
		required = []string{FieldSKU, FieldQuantity}
	}
	index := make(map[string]int, len(required))
	for _, field := range required {
		idx, ok := req.ColumnMap[field]
		if !ok {
			return layout{}, structural("Please select a column for " + field + ".")
		}
		if idx < 0 || idx >= columns {
			return layout{}, structural(msgInvalidSelection)
		}
		index[field] = idx
	}
	lay.sku = index[FieldSKU]
	lay.quantity = index[FieldQuantity]

	if req.Kind == domain.ImportSales {
		lay.date = index[FieldSaleDate]
		return lay, nil
	}

	// Optional stock columns are ignored when out of range.
	if idx, ok := req.ColumnMap[FieldSnapshotDate]; ok && idx >= 0 && idx < columns {
		lay.date = idx
	}
	if idx, ok := req.ColumnMap[FieldProductName]; ok && idx >= 0 && idx < columns {
		lay.productName = idx
	}
	if !haveSnapshot && lay.date < 0 {
		return layout{}, structural(msgNoSnapshot)
	}
	return lay, nil
}

type importRun struct {
	im         *Importer
	req        Request
	sink       Sink
	lay        layout
	snapshot   string
	warehouses map[string]int64

	sales []domain.SalesRow
	stock []domain.StockSnapshot

	imported int
	skipped  int
}

func (r *importRun) consume(ctx context.Context, reader *csv.Reader) error {
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				r.skipped++
				continue
			}
			return &StructuralError{Message: msgUnreadable, Err: err}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := r.row(ctx, record)
		if err != nil {
			return err
		}
		if !ok {
			r.skipped++
			continue
		}
		if err := r.flush(ctx, false); err != nil {
			return err
		}
	}
	return r.flush(ctx, true)
}

// row buffers one record. It reports false for a row that must be skipped.
func (r *importRun) row(ctx context.Context, record []string) (bool, error) {
	lay := r.lay
	if lay.columns >= 0 && len(record) != lay.columns {
		return false, nil
	}

	sku := cell(record, lay.sku)
	qty, qtyOK := normalize.Number(cell(record, lay.quantity))
	if sku == "" || !qtyOK {
		return false, nil
	}

	dateRaw := r.snapshot
	if dateRaw == "" {
		dateRaw = cell(record, lay.date)
	}
	if dateRaw == "" {
		return false, nil
	}
	date, ok := normalize.ParseDate(dateRaw)
	if !ok {
		return false, nil
	}

	var warehouseID int64
	if r.req.mapped() {
		warehouseID = *r.req.WarehouseID
	} else {
		name := cell(record, lay.warehouse)
		if name == "" {
			return false, nil
		}
		id, err := r.resolveWarehouse(ctx, name)
		if err != nil {
			return false, err
		}
		warehouseID = id
	}
	if warehouseID <= 0 {
		return false, nil
	}

	if r.req.Kind == domain.ImportSales {
		r.sales = append(r.sales, domain.SalesRow{
			WarehouseID: warehouseID,
			SKU:         sku,
			SaleDate:    date,
			Quantity:    qty,
		})
	} else {
		r.stock = append(r.stock, domain.StockSnapshot{
			WarehouseID:  warehouseID,
			SKU:          sku,
			SnapshotDate: date,
			Quantity:     qty,
			ProductName:  cell(record, lay.productName),
		})
	}
	r.imported++
	return true, nil
}

func (r *importRun) resolveWarehouse(ctx context.Context, name string) (int64, error) {
	if id, ok := r.warehouses[name]; ok {
		return id, nil
	}
	id, err := r.sink.ResolveWarehouse(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("resolve warehouse %q: %w", name, err)
	}
	r.warehouses[name] = id
	return id, nil
}

func (r *importRun) flush(ctx context.Context, final bool) error {
	size := r.im.batchSize
	if n := len(r.sales); n > 0 && (final || n >= size) {
		if err := r.sink.InsertSales(ctx, r.sales); err != nil {
			return fmt.Errorf("insert sales batch: %w", err)
		}
		r.sales = r.sales[:0]
	}
	if n := len(r.stock); n > 0 && (final || n >= size) {
		if err := r.sink.InsertStock(ctx, r.stock); err != nil {
			return fmt.Errorf("insert stock batch: %w", err)
		}
		r.stock = r.stock[:0]
	}
	return nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// cleanHeader trims cells and drops a UTF-8 BOM. A header of only blank
// cells counts as empty.
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	blank := true
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
		if out[i] != "" {
			blank = false
		}
	}
	if blank {
		return nil
	}
	return out
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
