package dashboard

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	statusCounts map[string]int
	summaries    []ServiceSummary
	overdue      int
	statusCalls  int
	summaryCalls int
	overdueCalls int
}

func (m *mockRepo) StatusCounts(ctx context.Context) (map[string]int, error) {
	m.statusCalls++
	return m.statusCounts, nil
}

func (m *mockRepo) ServiceSummaries(ctx context.Context) ([]ServiceSummary, error) {
	m.summaryCalls++
	return m.summaries, nil
}

func (m *mockRepo) OverdueCount(ctx context.Context, now time.Time) (int, error) {
	m.overdueCalls++
	return m.overdue, nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService(repo, NewCache(client, time.Minute))
}

func TestOverviewAggregates(t *testing.T) {
	repo := &mockRepo{
		statusCounts: map[string]int{
			"identified":  2,
			"in_progress": 3,
			"late":        1,
			"completed":   2,
			"validated":   2,
		},
		summaries: []ServiceSummary{{ServiceID: uuid.New(), Name: "Assembly", Total: 10, Open: 5, Late: 1, Closed: 4, CompletionRate: 0.4}},
		overdue:   1,
	}
	svc := newTestService(t, repo)

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, overview.TotalActions)
	assert.Equal(t, 1, overview.OverdueCount)
	assert.InDelta(t, 0.4, overview.CompletionRate, 0.001)
	require.Len(t, overview.Services, 1)
	assert.Equal(t, "Assembly", overview.Services[0].Name)
}

func TestOverviewCachesUntilBump(t *testing.T) {
	repo := &mockRepo{statusCounts: map[string]int{"identified": 1}}
	svc := newTestService(t, repo)

	_, err := svc.Overview(context.Background())
	require.NoError(t, err)
	_, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.statusCalls, "second read must come from cache")

	require.NoError(t, svc.Invalidate(context.Background()))
	_, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.statusCalls, "bump must force a reload")
}

func TestOverviewWithoutCache(t *testing.T) {
	repo := &mockRepo{statusCounts: map[string]int{"archived": 4}}
	svc := NewService(repo, nil)

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, overview.TotalActions)
	assert.InDelta(t, 1.0, overview.CompletionRate, 0.001)
}
