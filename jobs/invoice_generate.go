package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/harborpm/harborpm/internal/invoices"
	jobmetrics "github.com/harborpm/harborpm/internal/jobs"
	"github.com/harborpm/harborpm/internal/observability"
	"github.com/harborpm/harborpm/internal/shared"
)

// GenerateInvoicesJob runs the monthly generation pass for active leases.
type GenerateInvoicesJob struct {
	Service  InvoiceBatchService
	Redis    redis.UniversalClient
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	Business *observability.Metrics
	clock    func() time.Time
}

// NewGenerateInvoicesJob constructs the job handler.
func NewGenerateInvoicesJob(service InvoiceBatchService, client redis.UniversalClient, logger *slog.Logger, metrics *jobmetrics.Metrics, business *observability.Metrics) *GenerateInvoicesJob {
	return &GenerateInvoicesJob{
		Service:  service,
		Redis:    client,
		Logger:   logger,
		Metrics:  metrics,
		Business: business,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the generation pass.
func (j *GenerateInvoicesJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("generate invoices: service not configured")
	}
	var payload BatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	manager, err := shared.ParseRef(payload.ManagerID)
	if err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskGenerateMonthly)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	release, acquired, err := acquireBatchLock(ctx, j.Redis, "generate_monthly")
	if err != nil {
		resultErr = err
		j.log().Error("acquire batch lock", slog.Any("error", err))
		return resultErr
	}
	if !acquired {
		j.log().Info("generation pass already running, skipping")
		return resultErr
	}
	defer release()

	start := j.now()
	result, err := j.Service.GenerateMonthly(ctx, manager)
	if err != nil {
		resultErr = err
		j.log().Error("generate monthly invoices", slog.Any("error", err))
		return resultErr
	}

	counts := map[string]int{}
	for _, outcome := range result.Outcomes {
		counts[outcome.Status]++
	}
	for outcome, count := range counts {
		j.metrics().AddOutcomes(TaskGenerateMonthly, outcome, count)
	}
	for i := 0; i < counts[invoices.OutcomeCreated]; i++ {
		j.Business.InvoiceCreated()
	}

	j.log().Info("generation pass finished",
		slog.Int("created", counts[invoices.OutcomeCreated]),
		slog.Int("confirmed", counts[invoices.OutcomeConfirmed]),
		slog.Int("skipped", counts[invoices.OutcomeSkipped]),
		slog.Int("failed", counts[invoices.OutcomeFailed]),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *GenerateInvoicesJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *GenerateInvoicesJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskGenerateMonthly))
	}
	return slog.Default().With(slog.String("job", TaskGenerateMonthly))
}

func (j *GenerateInvoicesJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *GenerateInvoicesJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
