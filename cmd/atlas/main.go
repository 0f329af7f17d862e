package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atlas-qms/atlas-qms/internal/actions"
	"github.com/atlas-qms/atlas-qms/internal/app"
	"github.com/atlas-qms/atlas-qms/internal/attachments"
	"github.com/atlas-qms/atlas-qms/internal/audit"
	"github.com/atlas-qms/atlas-qms/internal/auth"
	"github.com/atlas-qms/atlas-qms/internal/dashboard"
	"github.com/atlas-qms/atlas-qms/internal/observability"
	"github.com/atlas-qms/atlas-qms/internal/org"
	"github.com/atlas-qms/atlas-qms/internal/platform/cache"
	"github.com/atlas-qms/atlas-qms/internal/platform/db"
	"github.com/atlas-qms/atlas-qms/internal/shared"
	"github.com/atlas-qms/atlas-qms/internal/users"
	"github.com/atlas-qms/atlas-qms/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "atlas_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(userRepo)
	usersHandler := users.NewHandler(logger, userService)

	orgRepo := org.NewRepository(dbpool)
	orgService := org.NewService(orgRepo)
	orgHandler := org.NewHandler(logger, orgService)

	recorder := audit.NewRecorder(dbpool, logger)

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
	notifier := jobs.NewNotifier(jobClient, userService, logger)

	actionRepo := actions.NewRepository(dbpool)
	actionService := actions.NewService(actionRepo, orgService, recorder, notifier, logger)
	actionsHandler := actions.NewHandler(logger, actionService, recorder)

	fileStore, err := attachments.NewFSStore(cfg.AttachmentDir, cfg.AttachmentBaseURL, cfg.AttachmentSecret)
	if err != nil {
		logger.Error("init attachment store", slog.Any("error", err))
		os.Exit(1)
	}
	attachmentRepo := attachments.NewPGRepository(dbpool)
	attachmentService := attachments.NewService(attachmentRepo, fileStore, actionRepo, logger)
	attachmentHandler := attachments.NewHandler(attachmentService)

	dashboardRepo := dashboard.NewPGRepository(dbpool)
	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboardRepo, dashboardCache)
	dashboardHandler := dashboard.NewHandler(dashboardService, actionService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		Metrics:           metrics,
		UserService:       userService,
		AuthHandler:       authHandler,
		UsersHandler:      usersHandler,
		OrgHandler:        orgHandler,
		ActionsHandler:    actionsHandler,
		AttachmentHandler: attachmentHandler,
		DashboardHandler:  dashboardHandler,
		JobHandler:        jobHandler,
		FileServer:        fileStore.Handler(),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
