package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

const (
	// QueueLedger carries checks that read the books.
	QueueLedger = "ledger"
	// QueueMaintenance carries housekeeping that may lag behind.
	QueueMaintenance = "maintenance"
	// TaskGLIntegrity runs the trial balance and balance sheet checks.
	TaskGLIntegrity = "ledger:gl_integrity"
	// TaskIdempotencyCleanup purges stale inventory idempotency keys.
	TaskIdempotencyCleanup = "ledger:idempotency_cleanup"
)

// GLIntegrityPayload scopes one integrity run. Empty CompanyIDs checks every
// company; an empty AsOf means the day the task runs.
type GLIntegrityPayload struct {
	CompanyIDs []int64 `json:"company_ids,omitempty"`
	AsOf       string  `json:"as_of,omitempty"`
}

// Queues maps every worker queue to its processing priority.
func Queues() map[string]int {
	return map[string]int{QueueLedger: 3, QueueMaintenance: 1}
}

// QueueNames lists the worker queues in priority order.
func QueueNames() []string {
	return []string{QueueLedger, QueueMaintenance}
}

func (p GLIntegrityPayload) asOf(now time.Time) (time.Time, error) {
	if p.AsOf == "" {
		return shared.Date(now), nil
	}
	return shared.ParseDate(p.AsOf)
}

// NewGLIntegrityTask constructs an Asynq task for the integrity check.
func NewGLIntegrityTask(payload GLIntegrityPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: encode gl integrity payload: %w", err)
	}
	return asynq.NewTask(TaskGLIntegrity, body, asynq.Queue(QueueLedger), asynq.MaxRetry(3)), nil
}
