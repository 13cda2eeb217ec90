package revenue

import (
	"context"
	"fmt"
	"time"

	"retailops/internal/domain/documents/packlist"
	"retailops/pkg/logger"
)

// Source loads completed packlists. A nil since means no lower bound.
type Source interface {
	ListCompleted(ctx context.Context, since *time.Time) ([]*packlist.Packlist, error)
}

// Cache stores computed reports under a generation. Get returns the
// generation current at read time (and a nil report on a miss). Set must
// drop the write when gen is no longer current, so a report computed
// across an Invalidate is never stored. Invalidate must make every
// previously stored report unreachable.
type Cache interface {
	Get(ctx context.Context, key string) (report *Report, gen int64, err error)
	Set(ctx context.Context, key string, gen int64, report *Report) error
	Invalidate(ctx context.Context) error
}

// Service computes revenue reports on demand and caches them until the
// next packlist completes.
type Service struct {
	source Source
	cache  Cache
	now    func() time.Time
}

// NewService creates a revenue service. A nil cache disables caching.
func NewService(source Source, cache Cache) *Service {
	return &Service{source: source, cache: cache, now: time.Now}
}

// SetClock replaces time.Now. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Compute returns the report for r as of now.
func (s *Service) Compute(ctx context.Context, r TimeRange) (*Report, error) {
	r, err := ParseTimeRange(string(r))
	if err != nil {
		return nil, err
	}
	now := s.now()
	key := cacheKey(r, now)

	// cacheable is false when the generation is unknown
	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		cached, g, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			logger.Warn(ctx, "revenue cache read failed", "key", key, "error", err)
		case cached != nil:
			return cached, nil
		default:
			gen, cacheable = g, true
		}
	}

	packlists, err := s.source.ListCompleted(ctx, r.Since(now))
	if err != nil {
		return nil, fmt.Errorf("load completed packlists: %w", err)
	}
	report := ComputeRevenue(packlists, r, now)

	if cacheable {
		if err := s.cache.Set(ctx, key, gen, &report); err != nil {
			logger.Warn(ctx, "revenue cache write failed", "key", key, "error", err)
		}
	}

	logger.Debug(ctx, "revenue computed",
		"range", r,
		"packlists", len(packlists),
		"total", report.TotalRevenue.String(),
	)
	return &report, nil
}

// Invalidate drops every cached report.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

// OnPacklistTransition is registered as a packlist after-transition hook.
func (s *Service) OnPacklistTransition(ctx context.Context, p *packlist.Packlist) error {
	if p.Status != packlist.StatusCompleted {
		return nil
	}
	return s.Invalidate(ctx)
}

// cacheKey includes the current day so windows roll over at midnight UTC.
func cacheKey(r TimeRange, now time.Time) string {
	return string(r) + ":" + now.UTC().Format(DayLayout)
}
