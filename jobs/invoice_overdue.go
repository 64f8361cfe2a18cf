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

// MarkOverdueJob sweeps past-due pending invoices into the overdue state.
type MarkOverdueJob struct {
	Service  InvoiceBatchService
	Redis    redis.UniversalClient
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	Business *observability.Metrics
	clock    func() time.Time
}

// NewMarkOverdueJob constructs the job handler.
func NewMarkOverdueJob(service InvoiceBatchService, client redis.UniversalClient, logger *slog.Logger, metrics *jobmetrics.Metrics, business *observability.Metrics) *MarkOverdueJob {
	return &MarkOverdueJob{
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

// Handle executes the overdue sweep.
func (j *MarkOverdueJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("mark overdue: service not configured")
	}
	var payload BatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	manager, err := shared.ParseRef(payload.ManagerID)
	if err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskMarkOverdue)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	release, acquired, err := acquireBatchLock(ctx, j.Redis, "mark_overdue")
	if err != nil {
		resultErr = err
		j.log().Error("acquire batch lock", slog.Any("error", err))
		return resultErr
	}
	if !acquired {
		j.log().Info("overdue sweep already running, skipping")
		return resultErr
	}
	defer release()

	start := j.now()
	result, err := j.Service.ProcessOverdue(ctx, manager)
	if err != nil {
		resultErr = err
		j.log().Error("process overdue invoices", slog.Any("error", err))
		return resultErr
	}

	counts := map[string]int{}
	for _, outcome := range result.Outcomes {
		counts[outcome.Status]++
	}
	for outcome, count := range counts {
		j.metrics().AddOutcomes(TaskMarkOverdue, outcome, count)
	}
	for i := 0; i < counts[invoices.OutcomeTransitioned]; i++ {
		j.Business.InvoiceOverdue()
	}

	j.log().Info("overdue sweep finished",
		slog.Int("transitioned", counts[invoices.OutcomeTransitioned]),
		slog.Int("skipped", counts[invoices.OutcomeSkipped]),
		slog.Int("failed", counts[invoices.OutcomeFailed]),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *MarkOverdueJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *MarkOverdueJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskMarkOverdue))
	}
	return slog.Default().With(slog.String("job", TaskMarkOverdue))
}

func (j *MarkOverdueJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *MarkOverdueJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
