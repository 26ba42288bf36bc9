package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/forecast"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type warehouseRepository struct {
	db *gorm.DB
}

func (r *warehouseRepository) List(ctx context.Context) ([]domain.Warehouse, error) {
	var models []warehouseModel
	if err := r.db.WithContext(ctx).Order("name, id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	out := make([]domain.Warehouse, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (r *warehouseRepository) Get(ctx context.Context, id int64) (*domain.Warehouse, error) {
	var m warehouseModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWarehouseNotFound
		}
		return nil, fmt.Errorf("failed to get warehouse %d: %w", id, err)
	}
	w := m.toDomain()
	return &w, nil
}

func (r *warehouseRepository) Upsert(ctx context.Context, code, name string) (domain.Warehouse, bool, error) {
	db := r.db.WithContext(ctx)

	var m warehouseModel
	err := db.Where("code = ?", code).First(&m).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		m = warehouseModel{Code: code, Name: name}
		if m.Name == "" {
			m.Name = code
		}
		if err := db.Create(&m).Error; err != nil {
			return domain.Warehouse{}, false, fmt.Errorf("failed to create warehouse %s: %w", code, err)
		}
		return m.toDomain(), true, nil
	case err != nil:
		return domain.Warehouse{}, false, fmt.Errorf("failed to find warehouse %s: %w", code, err)
	}

	if name != "" && name != m.Name {
		if err := db.Model(&m).Update("name", name).Error; err != nil {
			return domain.Warehouse{}, false, fmt.Errorf("failed to rename warehouse %s: %w", code, err)
		}
	}
	return m.toDomain(), false, nil
}

func (r *warehouseRepository) Resolve(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, nil
	}
	db := r.db.WithContext(ctx)

	var m warehouseModel
	err := db.Where("name = ?", name).Order("id").First(&m).Error
	if err == nil {
		return m.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("failed to find warehouse %s: %w", name, err)
	}

	code := domain.CodeFromName(name)
	if code == "" {
		return 0, nil
	}
	m = warehouseModel{}
	if err := db.Where(warehouseModel{Code: code}).Attrs(warehouseModel{Name: name}).FirstOrCreate(&m).Error; err != nil {
		return 0, fmt.Errorf("failed to resolve warehouse %s: %w", name, err)
	}
	return m.ID, nil
}

type salesRepository struct {
	db *gorm.DB
}

func (r *salesRepository) Insert(ctx context.Context, rows []domain.SalesRow) error {
	if len(rows) == 0 {
		return nil
	}
	models := make([]salesModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, salesModel{
			WarehouseID: row.WarehouseID,
			SKU:         row.SKU,
			SaleDate:    row.SaleDate,
			Quantity:    row.Quantity,
		})
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return fmt.Errorf("failed to insert %d sales rows: %w", len(rows), err)
	}
	return nil
}

// Daily pushes the date and warehouse bounds into SQL and applies the SKU
// filter in Go, since SQLite's LIKE ignores case and the SKU match must not.
func (r *salesRepository) Daily(ctx context.Context, q domain.SalesQuery) ([]domain.SalesRow, error) {
	if q.HasExactSKUs() && len(q.SKUs) == 0 {
		return nil, nil
	}

	tx := r.db.WithContext(ctx).Model(&salesModel{})
	if !q.Since.IsZero() {
		tx = tx.Where("sale_date >= ?", q.Since)
	}
	if !q.Until.IsZero() {
		tx = tx.Where("sale_date <= ?", q.Until)
	}
	if q.WarehouseID > 0 {
		tx = tx.Where("warehouse_id = ?", q.WarehouseID)
	}
	if q.HasExactSKUs() {
		tx = tx.Where("sku IN ?", q.SKUs)
	}

	var models []salesModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query daily sales: %w", err)
	}

	raw := make([]domain.SalesRow, 0, len(models))
	for _, m := range models {
		raw = append(raw, domain.SalesRow{
			WarehouseID: m.WarehouseID,
			SKU:         m.SKU,
			SaleDate:    m.SaleDate.UTC(),
			Quantity:    m.Quantity,
		})
	}
	raw = forecast.FilterSales(raw, q)

	type dayKey struct {
		key domain.SKUKey
		day int64
	}
	index := make(map[dayKey]int)
	out := make([]domain.SalesRow, 0, len(raw))
	for _, row := range raw {
		k := dayKey{key: row.Key(), day: row.SaleDate.Unix()}
		if i, ok := index[k]; ok {
			out[i].Quantity += row.Quantity
			continue
		}
		index[k] = len(out)
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.WarehouseID != b.WarehouseID {
			return a.WarehouseID < b.WarehouseID
		}
		if a.SKU != b.SKU {
			return a.SKU < b.SKU
		}
		return a.SaleDate.Before(b.SaleDate)
	})
	return out, nil
}

type stockRepository struct {
	db *gorm.DB
}

func (r *stockRepository) Insert(ctx context.Context, rows []domain.StockSnapshot) error {
	if len(rows) == 0 {
		return nil
	}
	models := make([]stockModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, stockModel{
			WarehouseID:  row.WarehouseID,
			SKU:          row.SKU,
			SnapshotDate: row.SnapshotDate,
			Quantity:     row.Quantity,
			ProductName:  row.ProductName,
		})
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return fmt.Errorf("failed to insert %d stock rows: %w", len(rows), err)
	}
	return nil
}

func (r *stockRepository) Latest(ctx context.Context, f domain.StockFilter) ([]domain.StockSnapshot, error) {
	tx := r.db.WithContext(ctx).Model(&stockModel{})
	if f.WarehouseID > 0 {
		tx = tx.Where("warehouse_id = ?", f.WarehouseID)
	}

	var models []stockModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query latest stock: %w", err)
	}

	term := strings.ToLower(strings.TrimSpace(f.Search))
	snaps := make([]domain.StockSnapshot, 0, len(models))
	for _, m := range models {
		if term != "" &&
			!strings.Contains(strings.ToLower(m.SKU), term) &&
			!strings.Contains(strings.ToLower(m.ProductName), term) {
			continue
		}
		snaps = append(snaps, m.toDomain())
	}

	latest := forecast.LatestStock(snaps)
	out := make([]domain.StockSnapshot, 0, len(latest))
	for _, s := range latest {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarehouseID != out[j].WarehouseID {
			return out[i].WarehouseID < out[j].WarehouseID
		}
		return out[i].SKU < out[j].SKU
	})
	return out, nil
}

type parameterRepository struct {
	db *gorm.DB
}

func (r *parameterRepository) Load(ctx context.Context) (domain.ParameterTable, error) {
	table := domain.ParameterTable{
		Warehouse: make(map[int64]domain.ParameterSet),
		SKU:       make(map[domain.SKUKey]domain.ParameterSet),
	}

	whParams, err := r.ListWarehouse(ctx)
	if err != nil {
		return table, err
	}
	for _, p := range whParams {
		table.Warehouse[p.WarehouseID] = p.ParameterSet
	}

	skuParams, err := r.ListSKU(ctx)
	if err != nil {
		return table, err
	}
	for _, p := range skuParams {
		table.SKU[domain.SKUKey{WarehouseID: p.WarehouseID, SKU: p.SKU}] = p.ParameterSet
	}
	return table, nil
}

func (r *parameterRepository) ListWarehouse(ctx context.Context) ([]domain.WarehouseParameters, error) {
	var models []warehouseParamModel
	if err := r.db.WithContext(ctx).Order("warehouse_id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load warehouse parameters: %w", err)
	}
	out := make([]domain.WarehouseParameters, 0, len(models))
	for _, m := range models {
		out = append(out, domain.WarehouseParameters{
			WarehouseID:  m.WarehouseID,
			ParameterSet: paramSet(m.DaysToCover, m.MAWindowDays, m.MinAvgDaily, m.SafetyDays),
		})
	}
	return out, nil
}

func (r *parameterRepository) ListSKU(ctx context.Context) ([]domain.SKUParameters, error) {
	var models []skuParamModel
	if err := r.db.WithContext(ctx).Order("warehouse_id, sku").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load sku parameters: %w", err)
	}
	out := make([]domain.SKUParameters, 0, len(models))
	for _, m := range models {
		out = append(out, domain.SKUParameters{
			WarehouseID:  m.WarehouseID,
			SKU:          m.SKU,
			ParameterSet: paramSet(m.DaysToCover, m.MAWindowDays, m.MinAvgDaily, m.SafetyDays),
		})
	}
	return out, nil
}

var parameterColumns = []string{"days_to_cover", "ma_window_days", "min_avg_daily", "safety_days", "updated_at"}

func (r *parameterRepository) SaveWarehouse(ctx context.Context, warehouseID int64, p domain.Parameters) error {
	set := domain.SetOf(p)
	m := warehouseParamModel{
		WarehouseID:  warehouseID,
		DaysToCover:  set.DaysToCover,
		MAWindowDays: set.MAWindowDays,
		MinAvgDaily:  set.MinAvgDaily,
		SafetyDays:   set.SafetyDays,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "warehouse_id"}},
		DoUpdates: clause.AssignmentColumns(parameterColumns),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to save warehouse parameters: %w", err)
	}
	return nil
}

func (r *parameterRepository) SaveSKU(ctx context.Context, warehouseID int64, sku string, p domain.Parameters) error {
	set := domain.SetOf(p)
	m := skuParamModel{
		WarehouseID:  warehouseID,
		SKU:          sku,
		DaysToCover:  set.DaysToCover,
		MAWindowDays: set.MAWindowDays,
		MinAvgDaily:  set.MinAvgDaily,
		SafetyDays:   set.SafetyDays,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "warehouse_id"}, {Name: "sku"}},
		DoUpdates: clause.AssignmentColumns(parameterColumns),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to save sku parameters: %w", err)
	}
	return nil
}

func (r *parameterRepository) DeleteSKU(ctx context.Context, warehouseID int64, sku string) error {
	res := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND sku = ?", warehouseID, sku).
		Delete(&skuParamModel{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete sku parameters: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type importRunRepository struct {
	db *gorm.DB
}

func (r *importRunRepository) CreateRun(ctx context.Context, run *domain.ImportRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create import run: %w", err)
	}
	return nil
}

func (r *importRunRepository) UpdateRun(ctx context.Context, run *domain.ImportRun) error {
	if err := r.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("failed to update import run %s: %w", run.ID, err)
	}
	return nil
}

func (r *importRunRepository) GetRun(ctx context.Context, id string) (*domain.ImportRun, error) {
	var run domain.ImportRun
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get import run %s: %w", id, err)
	}
	return &run, nil
}

func (r *importRunRepository) ListRuns(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []domain.ImportRun
	if err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list import runs: %w", err)
	}
	return runs, nil
}

func (r *importRunRepository) AddFile(ctx context.Context, f *domain.ImportFile) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("failed to add import file %s: %w", f.Name, err)
	}
	return nil
}

func (r *importRunRepository) UpdateFile(ctx context.Context, f *domain.ImportFile) error {
	if err := r.db.WithContext(ctx).Save(f).Error; err != nil {
		return fmt.Errorf("failed to update import file %d: %w", f.ID, err)
	}
	return nil
}

func (r *importRunRepository) ListFiles(ctx context.Context, runID string) ([]domain.ImportFile, error) {
	var files []domain.ImportFile
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to list import files: %w", err)
	}
	return files, nil
}
