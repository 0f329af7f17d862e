package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/atlas-qms/atlas-qms/internal/jobs"
)

// OverdueMarker is the slice of the action service the scan needs.
type OverdueMarker interface {
	MarkOverdueLate(ctx context.Context) (int, error)
}

// LateScanJob demotes active actions past their due date to late. It runs
// on a cron schedule as the system, outside any user's permission scope.
type LateScanJob struct {
	actions OverdueMarker
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

func NewLateScanJob(actions OverdueMarker, logger *slog.Logger, metrics *jobmetrics.Metrics) *LateScanJob {
	return &LateScanJob{actions: actions, logger: logger, metrics: metrics}
}

// Handle executes one scan.
func (j *LateScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.actions == nil {
		return errors.New("late scan: handler not configured")
	}

	tracker := j.metrics.Track(TaskTypeLateScan)
	count, err := j.actions.MarkOverdueLate(ctx)
	if err = tracker.End(err); err != nil {
		j.logger.Error("late scan failed", slog.Any("error", err))
		return err
	}
	j.metrics.AddMarkedLate(count)
	if count > 0 {
		j.logger.Info("late scan complete", slog.Int("marked", count))
	}
	return nil
}
