package perf

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/ledgers"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/memstore"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/tax"
	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

var jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memstore.Store
	chart  memstore.Chart
	poster *journals.Service
}

func newFixture(tb testing.TB, entries int) fixture {
	tb.Helper()
	store := memstore.New()
	chart := store.SeedChart(1)
	poster := journals.NewService(store.Journals(), nil, nil)
	f := fixture{store: store, chart: chart, poster: poster}
	for i := 0; i < entries; i++ {
		_, err := f.post(i)
		require.NoError(tb, err)
	}
	return f
}

func (f fixture) post(i int) (journals.JournalEntry, error) {
	amount := decimal.NewFromInt(int64(i%97 + 1))
	return f.poster.PostEntry(context.Background(), journals.PostingInput{
		CompanyID: 1,
		EntryDate: jan1.AddDate(0, 0, i%365),
		Lines: []journals.PostingLineInput{
			{AccountID: f.chart["1100"], Debit: amount},
			{AccountID: f.chart["4100"], Credit: amount},
		},
	})
}

func BenchmarkPostEntry(b *testing.B) {
	f := newFixture(b, 0)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.post(i); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTrialBalance(b *testing.B) {
	f := newFixture(b, 2000)
	engine := reports.NewEngine(f.store.Reports(), mappings.NewService(f.store.Mappings()), nil)
	asOf := jan1.AddDate(1, 0, 0)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.TrialBalance(context.Background(), 1, asOf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLedgerPage(b *testing.B) {
	f := newFixture(b, 2000)
	reader := ledgers.NewReader(f.store.Ledgers(), nil, nil)
	q := ledgers.Query{
		CompanyID: 1,
		SubjectID: f.chart["1100"],
		Kind:      ledgers.KindAccount,
		Range:     shared.DateRange{From: jan1.AddDate(0, 6, 0), To: jan1.AddDate(1, 0, 0)},
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		st, err := reader.Statement(context.Background(), q)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := st.Page(context.Background(), 3, 50); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTaxSplit(b *testing.B) {
	calc := tax.DefaultCalculator
	taxable := decimal.RequireFromString("12345.67")
	rate := decimal.NewFromInt(18)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := calc.ComputeTaxSplit(taxable, rate, "Karnataka", "Kerala"); err != nil {
			b.Fatal(err)
		}
	}
}

// Paging deep into a statement must not drift from the full running balance.
func TestLedgerPageMatchesFullScan(t *testing.T) {
	f := newFixture(t, 600)
	reader := ledgers.NewReader(f.store.Ledgers(), nil, nil)
	reader.WithBatch(64)
	q := ledgers.Query{CompanyID: 1, SubjectID: f.chart["1100"], Kind: ledgers.KindAccount, Range: shared.Through(jan1.AddDate(1, 0, 0))}

	st, err := reader.Statement(context.Background(), q)
	require.NoError(t, err)
	rows, err := st.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 600)

	page, err := st.Page(context.Background(), 7, 50)
	require.NoError(t, err)
	require.Len(t, page.Rows, 50)
	require.True(t, rows[300].RunningBalance.Equal(page.Rows[0].RunningBalance))
	require.True(t, rows[349].RunningBalance.Equal(page.Closing))
}

func TestIntegrityJobThroughput(t *testing.T) {
	f := newFixture(t, 1500)
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	engine := reports.NewEngine(f.store.Reports(), mappings.NewService(f.store.Mappings()), nil)

	start := time.Now()
	tracker := metrics.Track("gl_integrity")
	tb, err := engine.TrialBalance(context.Background(), 1, jan1.AddDate(1, 0, 0))
	require.NoError(t, tracker.End(err))
	require.True(t, tb.IsBalanced)
	require.Less(t, time.Since(start), 5*time.Second)
}
