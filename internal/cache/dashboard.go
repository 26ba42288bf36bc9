package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	dashboardKeyPrefix = "replenish:dashboard"
	scanBatchSize      = 100
)

// DashboardCache stores computed dashboards. Entries are keyed by filter
// and business day, and are dropped wholesale whenever sales, stock or
// parameters change.
type DashboardCache interface {
	Get(ctx context.Context, filter domain.DashboardFilter, day time.Time) (*domain.DashboardResult, bool, error)
	Set(ctx context.Context, filter domain.DashboardFilter, day time.Time, result *domain.DashboardResult) error
	InvalidateAll(ctx context.Context) error
}

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDashboardCache struct{}

func NewDashboardCache(cfg config.CacheConfig) (DashboardCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, err := dialRedis(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDashboardCache{
		client: client,
		ttl:    dashboardTTL(cfg),
	}, nil
}

func NewNoopDashboardCache() DashboardCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) Get(ctx context.Context, filter domain.DashboardFilter, day time.Time) (*domain.DashboardResult, bool, error) {
	key := buildDashboardKey(filter, day)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result domain.DashboardResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode dashboard cache: %w", err)
	}

	return &result, true, nil
}

func (c *redisDashboardCache) Set(ctx context.Context, filter domain.DashboardFilter, day time.Time, result *domain.DashboardResult) error {
	key := buildDashboardKey(filter, day)
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode dashboard cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisDashboardCache) InvalidateAll(ctx context.Context) error {
	_, err := purgePrefix(ctx, c.client, dashboardKeyPrefix, scanBatchSize)
	return err
}

func (n *noopDashboardCache) Get(ctx context.Context, filter domain.DashboardFilter, day time.Time) (*domain.DashboardResult, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) Set(ctx context.Context, filter domain.DashboardFilter, day time.Time, result *domain.DashboardResult) error {
	return nil
}

func (n *noopDashboardCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildDashboardKey(filter domain.DashboardFilter, day time.Time) string {
	return fmt.Sprintf("%s:%s:%s", dashboardKeyPrefix, day.Format("2006-01-02"), dashboardFilterHash(filter))
}

func dashboardFilterHash(filter domain.DashboardFilter) string {
	parts := []string{}

	if filter.WarehouseID > 0 {
		parts = append(parts, "warehouse_id="+strconv.FormatInt(filter.WarehouseID, 10))
	}
	// SKU fallback matching is case-sensitive, so the key keeps case.
	if s := strings.TrimSpace(filter.Search); s != "" {
		parts = append(parts, "sku="+s)
	}
	if filter.Strategy != "" {
		parts = append(parts, "strategy="+string(domain.ParseStrategy(string(filter.Strategy))))
	}
	if filter.ShortWindow > 0 {
		parts = append(parts, fmt.Sprintf("short_window=%d", filter.ShortWindow))
	}
	if filter.LongWindow > 0 {
		parts = append(parts, fmt.Sprintf("long_window=%d", filter.LongWindow))
	}
	if filter.Span > 0 {
		parts = append(parts, fmt.Sprintf("span=%d", filter.Span))
	}
	if filter.Alpha != nil {
		parts = append(parts, fmt.Sprintf("alpha=%.4f", *filter.Alpha))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
