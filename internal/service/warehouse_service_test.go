package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
)

func TestWarehouseUpsertValidation(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wname   string
		wantMsg string
	}{
		{"blank code", "  ", "Main", "Warehouse code is required."},
		{"long code", strings.Repeat("X", 51), "", "Warehouse code must be 50 characters or fewer."},
		{"long name", "MAIN", strings.Repeat("n", 121), "Warehouse name must be 120 characters or fewer."},
	}

	svc := NewWarehouseService(setupStore(t), nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Upsert(context.Background(), tc.code, tc.wname)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Message != tc.wantMsg {
				t.Fatalf("message = %q, want %q", ve.Message, tc.wantMsg)
			}
		})
	}
}

func TestWarehouseUpsertNormalizesCode(t *testing.T) {
	ctx := context.Background()
	svc := NewWarehouseService(setupStore(t), nil)

	w, created, err := svc.Upsert(ctx, " north ", "North Depot")
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if !created || w.Code != "NORTH" {
		t.Fatalf("warehouse = %+v created=%v", w, created)
	}
	if UpsertMessage(created) != "Warehouse created." {
		t.Fatalf("unexpected message %q", UpsertMessage(created))
	}

	w, created, err = svc.Upsert(ctx, "NORTH", "")
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if created || w.Name != "North Depot" {
		t.Fatalf("empty name should keep the current one, got %+v", w)
	}
	if UpsertMessage(created) != "Warehouse updated." {
		t.Fatalf("unexpected message %q", UpsertMessage(created))
	}
}

func TestWarehouseRenameRefreshesDashboard(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	seedDemand(t, store)
	rc := newRecordingCache()

	dash := NewReplenishmentService(store, rc, forecastConfig(), time.UTC)
	dash.now = fixedNow
	warehouses := NewWarehouseService(store, rc)

	before, err := dash.Dashboard(ctx, domain.DashboardFilter{})
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if len(before.Data) == 0 || before.Data[0].WarehouseName != "Main Store" {
		t.Fatalf("unexpected first render %+v", before.Data)
	}

	if _, created, err := warehouses.Upsert(ctx, "MAIN", "Renamed Store"); err != nil || created {
		t.Fatalf("rename failed: created=%v err=%v", created, err)
	}
	if rc.invalidated != 1 {
		t.Fatalf("invalidations = %d, want 1", rc.invalidated)
	}

	after, err := dash.Dashboard(ctx, domain.DashboardFilter{})
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	for _, line := range after.Data {
		if line.WarehouseName != "Renamed Store" {
			t.Fatalf("line %s warehouse = %q, want Renamed Store", line.SKU, line.WarehouseName)
		}
	}
	if rc.sets != 2 {
		t.Fatalf("cache sets = %d, want a fresh render after the rename", rc.sets)
	}
}
