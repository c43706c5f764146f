package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-ledger/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis connection.
func NewJobsCLI(opts asynq.RedisClientOpt) *JobsCLI {
	return &JobsCLI{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var errs []error
	if c.inspector != nil {
		errs = append(errs, c.inspector.Close())
	}
	if c.client != nil {
		errs = append(errs, c.client.Close())
	}
	return errors.Join(errs...)
}

// BuildTask maps a job name from the command line to its task.
func BuildTask(name string, integrity jobs.GLIntegrityPayload) (*asynq.Task, error) {
	switch name {
	case "gl_integrity", jobs.TaskGLIntegrity:
		return jobs.NewGLIntegrityTask(integrity)
	case "idempotency_cleanup", jobs.TaskIdempotencyCleanup:
		return jobs.NewIdempotencyCleanupTask(0)
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// Trigger enqueues a supported job by name.
func (c *JobsCLI) Trigger(ctx context.Context, name string, integrity jobs.GLIntegrityPayload) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	task, err := BuildTask(name, integrity)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// InspectQueues reports the state of every ledger queue.
func (c *JobsCLI) InspectQueues(ctx context.Context) (jobs.Health, error) {
	if c == nil || c.inspector == nil {
		return jobs.Health{}, errors.New("jobs cli: inspector not configured")
	}
	return jobs.InspectQueues(c.inspector)
}
