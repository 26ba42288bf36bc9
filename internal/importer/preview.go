package importer

import (
	"errors"
	"io"
	"strings"

	"github.com/andresuchdata/replenish/internal/domain"
)

const defaultPreviewRows = 5

// PreviewTable is the head of an uploaded file, shown so the uploader can
// map columns before confirming.
type PreviewTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Preview reads the header and up to maxRows data rows (5 when maxRows is
// not positive).
func Preview(r io.Reader, maxRows int) (*PreviewTable, error) {
	if maxRows <= 0 {
		maxRows = defaultPreviewRows
	}

	reader := newCSVReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, structural(msgEmpty)
		}
		return nil, &StructuralError{Message: msgUnreadable, Err: err}
	}
	header = cleanHeader(header)
	if len(header) == 0 {
		return nil, structural(msgEmpty)
	}

	table := &PreviewTable{Header: header, Rows: make([][]string, 0, maxRows)}
	for len(table.Rows) < maxRows {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// SuggestColumnMap guesses a column map from header names so the preview
// can be confirmed without manual selection when the file is well named.
func SuggestColumnMap(kind domain.ImportKind, header []string) map[string]int {
	aliases := map[string][]string{
		FieldSKU:      {"sku", "code", "item", "article"},
		FieldQuantity: {"quantity", "qty", "units"},
	}
	if kind == domain.ImportSales {
		aliases[FieldSaleDate] = []string{"sale_date", "date", "sold_at"}
	} else {
		aliases[FieldSnapshotDate] = []string{"snapshot_date", "date", "as_of"}
		aliases[FieldProductName] = []string{"product_name", "name", "description"}
	}

	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	out := make(map[string]int)
	for field, names := range aliases {
	search:
		for _, name := range names {
			for i, h := range normalized {
				if h == name {
					out[field] = i
					break search
				}
			}
		}
	}
	return out
}
