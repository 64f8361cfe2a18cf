package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/harborpm/harborpm/internal/app"
	"github.com/harborpm/harborpm/internal/artifacts"
	"github.com/harborpm/harborpm/internal/invoices"
	jobmetrics "github.com/harborpm/harborpm/internal/jobs"
	"github.com/harborpm/harborpm/internal/observability"
	"github.com/harborpm/harborpm/internal/platform/cache"
	"github.com/harborpm/harborpm/internal/platform/db"
	"github.com/harborpm/harborpm/jobs"
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

	store := artifacts.NewStore(cfg.ArtifactDir, logger)
	invoiceRepo := invoices.NewRepository(pool)
	leaseRepo := invoices.NewLeaseRepository(pool)
	userRepo := invoices.NewUserRepository(pool)
	propertyRepo := invoices.NewPropertyRepository(pool)
	invoiceService := invoices.NewService(logger, invoiceRepo, leaseRepo, userRepo, propertyRepo, store)

	business := observability.NewMetrics()
	metrics := jobmetrics.NewMetrics(business.Registerer())

	generateJob := jobs.NewGenerateInvoicesJob(invoiceService, redisClient, logger, metrics, business)
	overdueJob := jobs.NewMarkOverdueJob(invoiceService, redisClient, logger, metrics, business)

	generateTask, err := jobs.NewGenerateMonthlyTask("", time.Now().UTC())
	if err != nil {
		logger.Error("build generate task", slog.Any("error", err))
		os.Exit(1)
	}
	overdueTask, err := jobs.NewMarkOverdueTask("", time.Now().UTC())
	if err != nil {
		logger.Error("build overdue task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskGenerateMonthly, Handler: generateJob.Handle},
			{Type: jobs.TaskMarkOverdue, Handler: overdueJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.GenerateCron, Task: generateTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.OverdueCron, Task: overdueTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
