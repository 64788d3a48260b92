package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"kabraji/internal/cache"
	"kabraji/internal/domain"
	"kabraji/internal/store"
)

// Engine builds reports and caches them by state revision, so a report is
// rebuilt only after the shop state changes.
type Engine struct {
	cache    cache.ReportCache
	cacheTTL time.Duration
	group    singleflight.Group
	logger   log.FieldLogger
}

func NewEngine(cacheStore cache.ReportCache, cacheTTL time.Duration, logger log.FieldLogger) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopReportCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &Engine{
		cache:    cacheStore,
		cacheTTL: cacheTTL,
		logger:   logger.WithField("component", "reporting"),
	}
}

// Generate returns the report for snapshot, which must be the state identified
// by revision. Cache failures are logged and the report is built directly.
func (e *Engine) Generate(ctx context.Context, revision string, snapshot domain.Snapshot, opts Options) domain.Report {
	opts = opts.withDefaults()
	key := buildCacheKey(revision, opts)

	if cached, ok, err := e.cache.Get(ctx, key); err != nil {
		e.logger.WithError(err).Warn("report cache read failed")
	} else if ok {
		cached.GeneratedAt = opts.Now
		return *cached
	}

	v, _, _ := e.group.Do(key, func() (interface{}, error) {
		report := Build(snapshot, opts)
		if err := e.cache.Set(ctx, key, &report, e.cacheTTL); err != nil {
			e.logger.WithError(err).Warn("report cache write failed")
		}
		return report, nil
	})

	report := v.(domain.Report)
	report.GeneratedAt = opts.Now
	return report
}

func buildCacheKey(revision string, opts Options) string {
	parts := []string{
		revision,
		periodKey(opts.Period.From),
		periodKey(opts.Period.To),
		fmt.Sprintf("n:%d", opts.TopN),
		"low:" + opts.LowStockThreshold.String(),
	}
	return store.Digest([]byte(strings.Join(parts, "|")))
}

func periodKey(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(domain.HistoryDateLayout)
}
