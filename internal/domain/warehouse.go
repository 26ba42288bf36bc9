package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Warehouse is a stocking location. Code is the unique business key; Name is
// what the dashboards show.
type Warehouse struct {
	ID        int64     `json:"id" db:"id" gorm:"primaryKey"`
	Code      string    `json:"code" db:"code" gorm:"size:50;uniqueIndex"`
	Name      string    `json:"name" db:"name" gorm:"size:120;not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DisplayName falls back to a synthetic label for rows with a blank name.
func (w Warehouse) DisplayName() string {
	if w.Name == "" {
		return fmt.Sprintf("Warehouse #%d", w.ID)
	}
	return w.Name
}

// SKUKey identifies one replenishment line.
type SKUKey struct {
	WarehouseID int64
	SKU         string
}

func (k SKUKey) String() string {
	return fmt.Sprintf("%d|%s", k.WarehouseID, k.SKU)
}

const (
	MaxWarehouseCodeLen = 50
	MaxWarehouseNameLen = 120
)

// CodeFromName derives a warehouse code for warehouses first seen by name
// in an import: upper-cased, runs of non-alphanumerics collapsed to '-',
// cut to the code length limit.
func CodeFromName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	code := strings.TrimRight(b.String(), "-")
	if r := []rune(code); len(r) > MaxWarehouseCodeLen {
		code = strings.TrimRight(string(r[:MaxWarehouseCodeLen]), "-")
	}
	return code
}
