package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

const idempotencyCleanupJob = "idempotency_cleanup"

// DefaultIdempotencyRetention keeps processed movement keys for 30 days.
const DefaultIdempotencyRetention = 30 * 24 * time.Hour

// IdempotencyCleaner purges processed keys older than a cutoff.
type IdempotencyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// IdempotencyCleanupPayload carries the retention in hours. Zero uses the default.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours,omitempty"`
}

func (p IdempotencyCleanupPayload) retention() time.Duration {
	if p.RetentionHours <= 0 {
		return DefaultIdempotencyRetention
	}
	return time.Duration(p.RetentionHours) * time.Hour
}

// NewIdempotencyCleanupTask constructs the purge task.
func NewIdempotencyCleanupTask(retentionHours int) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, fmt.Errorf("jobs: encode idempotency cleanup payload: %w", err)
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueMaintenance), asynq.MaxRetry(1)), nil
}

// IdempotencyCleanupJob drops stale inventory idempotency keys.
type IdempotencyCleanupJob struct {
	store   IdempotencyCleaner
	metrics *jobmetrics.Metrics
	logger  *slog.Logger
}

// NewIdempotencyCleanupJob wires the job.
func NewIdempotencyCleanupJob(store IdempotencyCleaner, metrics *jobmetrics.Metrics, logger *slog.Logger) *IdempotencyCleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotencyCleanupJob{store: store, metrics: metrics, logger: logger}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload IdempotencyCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("jobs: decode idempotency cleanup payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	tracker := j.metrics.Track(idempotencyCleanupJob)
	retention := payload.retention()
	if err := j.store.Cleanup(ctx, retention); err != nil {
		return tracker.End(fmt.Errorf("jobs: idempotency cleanup: %w", err))
	}
	j.logger.Info("idempotency keys purged", slog.Duration("retention", retention))
	return tracker.End(nil)
}
