package service

import (
	"context"
	"time"

	"stockledger/internal/event"
	"stockledger/internal/metrics"
	"stockledger/pkg/logger"

	"github.com/google/uuid"
)

const (
	// DashboardCacheKey is the cache entry invalidated by every write that changes the dashboard.
	DashboardCacheKey = "reports:dashboard"
	// DashboardGenerationKey changes on every invalidation; cached dashboards stamped with an older one are ignored.
	DashboardGenerationKey = "reports:dashboard:generation"
)

// Cache is a JSON value cache. A miss is reported as (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type deps struct {
	publisher     event.Publisher
	cache         Cache
	cacheTTL      time.Duration
	ledgerMetrics *metrics.Ledger
	reportMetrics *metrics.Reports
	now           func() time.Time
}

// Option configures the optional collaborators of a service.
type Option func(*deps)

func WithPublisher(p event.Publisher) Option {
	return func(d *deps) { d.publisher = p }
}

// WithCache enables dashboard caching; ttl <= 0 disables it.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(d *deps) {
		d.cache = c
		d.cacheTTL = ttl
	}
}

func WithLedgerMetrics(m *metrics.Ledger) Option {
	return func(d *deps) { d.ledgerMetrics = m }
}

func WithReportMetrics(m *metrics.Reports) Option {
	return func(d *deps) { d.reportMetrics = m }
}

// WithClock replaces the wall clock used for transaction timestamps and report windows.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

func newDeps(opts []Option) deps {
	d := deps{
		publisher: event.Nop{},
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d deps) cacheEnabled() bool {
	return d.cache != nil && d.cacheTTL > 0
}

// invalidateDashboard bumps the dashboard generation and drops the cached dashboard.
// Failures are logged, the write already committed.
func (d deps) invalidateDashboard(ctx context.Context) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Set(ctx, DashboardGenerationKey, uuid.NewString(), 0); err != nil {
		logWarn(ctx, err, "Failed to bump dashboard generation")
	}
	if err := d.cache.Delete(ctx, DashboardCacheKey); err != nil {
		logWarn(ctx, err, "Failed to invalidate dashboard cache")
	}
}

// dashboardGeneration is "" until the first invalidation.
func (d deps) dashboardGeneration(ctx context.Context) string {
	var gen string
	if _, err := d.cache.Get(ctx, DashboardGenerationKey, &gen); err != nil {
		logWarn(ctx, err, "Failed to read dashboard generation")
	}
	return gen
}

func (d deps) publishCatalog(ctx context.Context, entity, action string, e event.CatalogEvent) {
	e.Entity = entity
	e.Action = action
	if err := d.publisher.PublishCatalogChange(ctx, e); err != nil {
		logWarn(ctx, err, "Failed to publish catalog event")
	}
}

func logWarn(ctx context.Context, err error, msg string) {
	logger.Warn(ctx).Err(err).Msg(msg)
}
