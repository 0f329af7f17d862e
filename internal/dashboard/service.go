// Package dashboard aggregates action counts into the overview the landing
// page renders. Results are cached in Redis for a short window; writers
// bump the cache version instead of deleting keys.
package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Overview is the full dashboard payload.
type Overview struct {
	GeneratedAt    time.Time        `json:"generated_at"`
	TotalActions   int              `json:"total_actions"`
	StatusCounts   map[string]int   `json:"status_counts"`
	OverdueCount   int              `json:"overdue_count"`
	CompletionRate float64          `json:"completion_rate"`
	Services       []ServiceSummary `json:"services"`
}

// Service coordinates aggregate queries with the cache layer.
type Service struct {
	repo  Repository
	cache *Cache
	now   func() time.Time
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// Overview resolves the dashboard payload, fanning the three aggregate
// queries out concurrently on a cache miss.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	loader := func(ctx context.Context) (any, error) {
		return s.load(ctx)
	}

	key, err := s.cache.BuildKey(ctx, "dashboard", "overview")
	if err != nil {
		return Overview{}, err
	}
	var overview Overview
	if err := s.cache.FetchJSON(ctx, key, &overview, loader); err != nil {
		return Overview{}, err
	}
	return overview, nil
}

// Invalidate bumps the cache version. Action writers call this after any
// mutation so the next overview reflects it.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) load(ctx context.Context) (Overview, error) {
	overview := Overview{GeneratedAt: s.now().UTC()}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.repo.StatusCounts(ctx)
		if err != nil {
			return err
		}
		overview.StatusCounts = counts
		return nil
	})

	g.Go(func() error {
		summaries, err := s.repo.ServiceSummaries(ctx)
		if err != nil {
			return err
		}
		overview.Services = summaries
		return nil
	})

	g.Go(func() error {
		overdue, err := s.repo.OverdueCount(ctx, s.now())
		if err != nil {
			return err
		}
		overview.OverdueCount = overdue
		return nil
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	closed := 0
	for status, n := range overview.StatusCounts {
		overview.TotalActions += n
		switch status {
		case "completed", "validated", "archived":
			closed += n
		}
	}
	if overview.TotalActions > 0 {
		overview.CompletionRate = float64(closed) / float64(overview.TotalActions)
	}
	return overview, nil
}
