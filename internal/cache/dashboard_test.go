package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
)

func TestDashboardKeyNormalizesFilter(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	alpha := 0.3

	tests := []struct {
		name string
		a, b domain.DashboardFilter
		same bool
	}{
		{
			name: "search padding ignored",
			a:    domain.DashboardFilter{Search: " MUG-01 "},
			b:    domain.DashboardFilter{Search: "MUG-01"},
			same: true,
		},
		{
			name: "search case differs",
			a:    domain.DashboardFilter{Search: "ab"},
			b:    domain.DashboardFilter{Search: "AB"},
		},
		{
			name: "unknown strategy reads as sma",
			a:    domain.DashboardFilter{Strategy: "bogus"},
			b:    domain.DashboardFilter{Strategy: domain.StrategySMA},
			same: true,
		},
		{
			name: "warehouse differs",
			a:    domain.DashboardFilter{WarehouseID: 1},
			b:    domain.DashboardFilter{WarehouseID: 2},
		},
		{
			name: "alpha differs",
			a:    domain.DashboardFilter{Strategy: domain.StrategyEWMA, Alpha: &alpha},
			b:    domain.DashboardFilter{Strategy: domain.StrategyEWMA},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ka, kb := buildDashboardKey(tc.a, day), buildDashboardKey(tc.b, day)
			if (ka == kb) != tc.same {
				t.Fatalf("keys %q and %q: same=%v, want %v", ka, kb, ka == kb, tc.same)
			}
		})
	}
}

func TestDashboardKeyIncludesDay(t *testing.T) {
	f := domain.DashboardFilter{}
	k1 := buildDashboardKey(f, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	k2 := buildDashboardKey(f, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))
	if k1 == k2 {
		t.Fatalf("keys for different days collide: %q", k1)
	}
	if !strings.HasPrefix(k1, dashboardKeyPrefix+":2024-03-05:") {
		t.Fatalf("unexpected key %q", k1)
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := NewDashboardCache(config.CacheConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewDashboardCache failed: %v", err)
	}
	ctx := context.Background()
	day := time.Now()
	if err := c.Set(ctx, domain.DashboardFilter{}, day, &domain.DashboardResult{}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, ok, err := c.Get(ctx, domain.DashboardFilter{}, day); ok || err != nil {
		t.Fatalf("noop get = %v, %v; want miss", ok, err)
	}
}

func TestRedisOptions(t *testing.T) {
	opts, err := RedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	if err != nil {
		t.Fatalf("RedisOptions failed: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 2 {
		t.Fatalf("opts = %+v", opts)
	}

	opts, err = RedisOptions(config.CacheConfig{RedisURL: "redis://:secret@example:6379/3"})
	if err != nil {
		t.Fatalf("RedisOptions url failed: %v", err)
	}
	if opts.Addr != "example:6379" || opts.Password != "secret" || opts.DB != 3 {
		t.Fatalf("opts from url = %+v", opts)
	}

	if _, err := RedisOptions(config.CacheConfig{RedisURL: "http://bad"}); err == nil {
		t.Fatalf("expected error for non-redis url")
	}
}

func TestDashboardTTL(t *testing.T) {
	if got := dashboardTTL(config.CacheConfig{}); got != time.Minute {
		t.Fatalf("default ttl = %v, want 1m", got)
	}
	if got := dashboardTTL(config.CacheConfig{DashboardTTLSeconds: 90}); got != 90*time.Second {
		t.Fatalf("ttl = %v, want 90s", got)
	}
}
