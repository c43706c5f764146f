package jobs_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/jobs"
)

type fakeInspector struct {
	queues map[string]*asynq.QueueInfo
	err    error
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	info, ok := f.queues[queue]
	if !ok {
		return nil, fmt.Errorf("asynq: %w", asynq.ErrQueueNotFound)
	}
	return info, nil
}

func serveHealth(t *testing.T, inspector jobs.QueueInspector) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	jobs.NewHandler(inspector, nil).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	return rec
}

func TestInspectQueuesReportsEveryLedgerQueue(t *testing.T) {
	health, err := jobs.InspectQueues(fakeInspector{queues: map[string]*asynq.QueueInfo{
		jobs.QueueLedger: {Queue: jobs.QueueLedger, Pending: 4, Active: 1, Retry: 2},
	}})
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.Len(t, health.Queues, 2)
	require.Equal(t, jobs.QueueHealth{Queue: jobs.QueueLedger, Pending: 4, Active: 1, Retry: 2}, health.Queues[0])
	require.Equal(t, jobs.QueueHealth{Queue: jobs.QueueMaintenance}, health.Queues[1], "unused queues report zero")
}

func TestInspectQueuesDegraded(t *testing.T) {
	health, err := jobs.InspectQueues(fakeInspector{queues: map[string]*asynq.QueueInfo{
		jobs.QueueMaintenance: {Queue: jobs.QueueMaintenance, Archived: 3},
	}})
	require.NoError(t, err)
	require.Equal(t, "degraded", health.Status)

	health, err = jobs.InspectQueues(fakeInspector{queues: map[string]*asynq.QueueInfo{
		jobs.QueueLedger: {Queue: jobs.QueueLedger, Paused: true},
	}})
	require.NoError(t, err)
	require.Equal(t, "degraded", health.Status)
	require.True(t, health.Queues[0].Paused)
}

func TestJobsHealthEndpoint(t *testing.T) {
	rec := serveHealth(t, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health jobs.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "unmonitored", health.Status)
	require.Len(t, health.Queues, 2)

	rec = serveHealth(t, fakeInspector{queues: map[string]*asynq.QueueInfo{}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)

	rec = serveHealth(t, fakeInspector{err: errors.New("redis down")})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewWorkerRejectsBadCron(t *testing.T) {
	mr := miniredis.RunT(t)
	task, err := jobs.NewGLIntegrityTask(jobs.GLIntegrityPayload{})
	require.NoError(t, err)
	opts := asynq.RedisClientOpt{Addr: mr.Addr()}

	_, err = jobs.NewWorker(jobs.WorkerConfig{RedisOpts: opts, Cron: []jobs.CronRegistration{{Spec: "every tuesday", Task: task}}})
	require.Error(t, err)

	w, err := jobs.NewWorker(jobs.WorkerConfig{RedisOpts: opts, Cron: []jobs.CronRegistration{{Spec: "", Task: task}, {Spec: "0 2 * * *", Task: task}}})
	require.NoError(t, err)
	require.NotNil(t, w)
}

func TestQueuesPrioritiseLedgerChecks(t *testing.T) {
	q := jobs.Queues()
	require.Greater(t, q[jobs.QueueLedger], q[jobs.QueueMaintenance])
	require.Equal(t, []string{jobs.QueueLedger, jobs.QueueMaintenance}, jobs.QueueNames())
}
