package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/memstore"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
	"github.com/odyssey-erp/odyssey-ledger/jobs"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func newIntegrityCLI(t *testing.T) (*IntegrityCLI, *memstore.Store, memstore.Chart) {
	t.Helper()
	store := memstore.New()
	chart := store.SeedChart(1)
	engine := reports.NewEngine(store.Reports(), mappings.NewService(store.Mappings()), nil)
	job := jobs.NewGLIntegrityJob(engine, accounts.NewService(store.Accounts()), jobmetrics.NewMetrics(prometheus.NewRegistry()), nil)
	job.WithNow(func() time.Time { return time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC) })
	return NewIntegrityCLI(job), store, chart
}

func TestCheckCommandBalancedJSON(t *testing.T) {
	cli, _, _ := newIntegrityCLI(t)
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := cli.CheckCommand(context.Background(), IntegrityOptions{JSONOutput: true, Stdout: stdout, Stderr: stderr})
	require.Equal(t, ExitOK, code, stderr.String())

	var summary IntegritySummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	require.True(t, summary.OK)
	require.Len(t, summary.Companies, 1)
	require.Equal(t, "2024-05-31", summary.Companies[0].AsOf)
	require.Empty(t, summary.Companies[0].Warnings)
}

func TestCheckCommandReportsImbalance(t *testing.T) {
	cli, store, chart := newIntegrityCLI(t)
	store.InsertRawEntry(journals.JournalEntry{
		CompanyID: 1,
		EntryDate: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Lines:     []journals.JournalLine{{AccountID: chart["1100"], Debit: decimal.NewFromInt(40)}},
	})
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := cli.CheckCommand(context.Background(), IntegrityOptions{Companies: "1", AsOf: "2024-05-31", Stdout: stdout, Stderr: stderr})
	require.Equal(t, ExitWarnings, code)
	require.Contains(t, stdout.String(), "company 1 as of 2024-05-31")
	require.Contains(t, stdout.String(), "["+shared.SeverityCritical+"] "+shared.CheckTrialBalance)
}

func TestCheckCommandRejectsBadFlags(t *testing.T) {
	cli, store, _ := newIntegrityCLI(t)
	stderr := new(bytes.Buffer)

	require.Equal(t, ExitError, cli.CheckCommand(context.Background(), IntegrityOptions{Companies: "1,x", Stdout: new(bytes.Buffer), Stderr: stderr}))
	require.Contains(t, stderr.String(), `invalid company id "x"`)

	stderr.Reset()
	require.Equal(t, ExitError, cli.CheckCommand(context.Background(), IntegrityOptions{AsOf: "31-05-2024", Stdout: new(bytes.Buffer), Stderr: stderr}))
	require.Contains(t, stderr.String(), "--as-of")

	store.FailWith(memstore.ErrInjected)
	stderr.Reset()
	require.Equal(t, ExitError, cli.CheckCommand(context.Background(), IntegrityOptions{Companies: "1", Stdout: new(bytes.Buffer), Stderr: stderr}))
	require.Contains(t, stderr.String(), "ledger data unavailable")
}

func TestBuildTask(t *testing.T) {
	task, err := BuildTask("gl_integrity", jobs.GLIntegrityPayload{CompanyIDs: []int64{3}, AsOf: "2024-05-31"})
	require.NoError(t, err)
	require.Equal(t, jobs.TaskGLIntegrity, task.Type())
	require.JSONEq(t, `{"company_ids":[3],"as_of":"2024-05-31"}`, string(task.Payload()))

	task, err = BuildTask(jobs.TaskIdempotencyCleanup, jobs.GLIntegrityPayload{})
	require.NoError(t, err)
	require.Equal(t, jobs.TaskIdempotencyCleanup, task.Type())

	_, err = BuildTask("anomaly_scan", jobs.GLIntegrityPayload{})
	require.ErrorContains(t, err, "unsupported job")
}
