package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/atlas-qms/atlas-qms/internal/actions"
	"github.com/atlas-qms/atlas-qms/internal/app"
	"github.com/atlas-qms/atlas-qms/internal/audit"
	jobmetrics "github.com/atlas-qms/atlas-qms/internal/jobs"
	"github.com/atlas-qms/atlas-qms/internal/org"
	"github.com/atlas-qms/atlas-qms/internal/platform/db"
	"github.com/atlas-qms/atlas-qms/internal/users"
	"github.com/atlas-qms/atlas-qms/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	userService := users.NewService(users.NewRepository(pool))
	notifier := jobs.NewNotifier(jobClient, userService, logger)

	orgService := org.NewService(org.NewRepository(pool))
	recorder := audit.NewRecorder(pool, logger)
	actionService := actions.NewService(actions.NewRepository(pool), orgService, recorder, notifier, logger)

	metrics := jobmetrics.NewMetrics(nil)
	lateScan := jobs.NewLateScanJob(actionService, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeLateScan, Handler: lateScan.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.LateScanCron, Task: jobs.NewLateScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
