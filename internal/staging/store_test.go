package staging

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	s := New(t.TempDir(), 10*time.Minute)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestPutGetTake(t *testing.T) {
	s, _ := newTestStore(t)

	u, err := s.Put(domain.ImportSales, strings.NewReader("sku,quantity\nA,1\n"), Meta{OriginalName: "sales.csv"})
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if u.Token == "" || u.Kind != domain.ImportSales {
		t.Fatalf("upload = %+v", u)
	}

	got, err := s.Get(u.Token)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	data, err := os.ReadFile(got.Path)
	if err != nil {
		t.Fatalf("read staged file failed: %v", err)
	}
	if string(data) != "sku,quantity\nA,1\n" {
		t.Fatalf("staged content = %q", data)
	}

	taken, err := s.Take(u.Token)
	if err != nil {
		t.Fatalf("take failed: %v", err)
	}
	if _, err := s.Take(u.Token); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second take err = %v, want not found", err)
	}
	s.Release(taken)
	if _, err := os.Stat(taken.Path); !os.IsNotExist(err) {
		t.Fatalf("released file still exists: %v", err)
	}
}

func TestExpiryAndSweep(t *testing.T) {
	s, now := newTestStore(t)

	a, err := s.Put(domain.ImportStock, strings.NewReader("x"), Meta{})
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	*now = now.Add(5 * time.Minute)
	b, err := s.Put(domain.ImportStock, strings.NewReader("y"), Meta{})
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	*now = now.Add(6 * time.Minute)
	if n := s.Sweep(); n != 1 {
		t.Fatalf("sweep removed %d, want 1", n)
	}
	if _, err := s.Get(a.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired get err = %v", err)
	}
	if _, err := os.Stat(a.Path); !os.IsNotExist(err) {
		t.Fatalf("expired file still exists")
	}
	if _, err := s.Get(b.Token); err != nil {
		t.Fatalf("live get failed: %v", err)
	}
}

func TestCancel(t *testing.T) {
	s, _ := newTestStore(t)
	u, err := s.Put(domain.ImportSales, strings.NewReader("x"), Meta{})
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := s.Cancel(u.Token); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := s.Cancel(u.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second cancel err = %v", err)
	}
}
