package app_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	"github.com/odyssey-erp/odyssey-ledger/migrations"
)

// startPostgres runs a throwaway container. Set LEDGER_PG_IT=1 to enable.
func startPostgres(t *testing.T) string {
	t.Helper()
	if os.Getenv("LEDGER_PG_IT") != "1" {
		t.Skip("set LEDGER_PG_IT=1 to run Postgres integration tests")
	}
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresLedgerRoundTrip(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	pool, err := db.New(ctx, dsn, db.PoolOptions{MaxConns: 4, ApplicationName: "ledger-it"})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := db.NewMigrator(pool, migrations.FS, nil)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Up())
	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(2), version)

	ledger := app.BuildLedger(testConfig(t), app.PostgresStores(pool), app.LedgerDeps{})

	create := func(code string, typ accounts.AccountType) int64 {
		acct, err := ledger.Accounts.Create(ctx, accounts.CreateInput{CompanyID: 1, Code: code, Name: code, Type: typ})
		require.NoError(t, err)
		return acct.ID
	}
	cash := create("1100", accounts.AccountTypeAsset)
	capital := create("3100", accounts.AccountTypeEquity)
	sales := create("4100", accounts.AccountTypeIncome)

	source := uuid.New()
	day := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	post := func(debit, credit int64, amount int64, src *uuid.UUID) (journals.JournalEntry, error) {
		in := journals.PostingInput{
			CompanyID: 1,
			EntryDate: day,
			Lines: []journals.PostingLineInput{
				{AccountID: debit, Debit: decimal.NewFromInt(amount)},
				{AccountID: credit, Credit: decimal.NewFromInt(amount)},
			},
		}
		if src != nil {
			in.SourceDocumentType = journals.SourceSalesInvoice
			in.SourceDocumentID = src
		}
		return ledger.Journals.PostEntry(ctx, in)
	}

	_, err = post(cash, capital, 1000, nil)
	require.NoError(t, err)
	first, err := post(cash, sales, 250, &source)
	require.NoError(t, err)
	_, err = post(cash, sales, 250, &source)
	require.ErrorIs(t, err, shared.ErrSourceAlreadyLinked)

	tb, err := ledger.Reports.TrialBalance(ctx, 1, day)
	require.NoError(t, err)
	require.True(t, tb.IsBalanced)
	require.True(t, decimal.NewFromInt(1250).Equal(tb.TotalDebits))

	balance, err := ledger.Reports.AccountBalance(ctx, 1, cash, day)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(1250).Equal(balance), balance.String())

	_, err = ledger.Journals.ReverseEntry(ctx, journals.ReverseInput{CompanyID: 1, EntryID: first.ID, EntryDate: day})
	require.NoError(t, err)
	_, err = ledger.Journals.ReverseEntry(ctx, journals.ReverseInput{CompanyID: 1, EntryID: first.ID, EntryDate: day})
	require.ErrorIs(t, err, shared.ErrAlreadyReversed)

	companies, err := ledger.Accounts.Companies(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, companies)
}
