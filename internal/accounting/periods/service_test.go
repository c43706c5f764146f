package periods_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/memstore"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func TestLockThroughMovesForwardOnly(t *testing.T) {
	store := memstore.New()
	svc := periods.NewService(store.Periods())
	ctx := context.Background()
	mar31 := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.EnsureOpen(ctx, 1, mar31))

	lock, err := svc.LockThrough(ctx, 1, mar31, 99)
	require.NoError(t, err)
	require.Equal(t, int64(99), lock.LockedBy)

	require.ErrorIs(t, svc.EnsureOpen(ctx, 1, mar31), shared.ErrInvalidDate)
	require.NoError(t, svc.EnsureOpen(ctx, 1, mar31.AddDate(0, 0, 1)))
	require.NoError(t, svc.EnsureOpen(ctx, 2, mar31), "locks are per company")

	_, err = svc.LockThrough(ctx, 1, mar31.AddDate(0, -1, 0), 99)
	require.ErrorIs(t, err, shared.ErrInvalidDate)

	current, err := svc.Current(ctx, 1)
	require.NoError(t, err)
	require.True(t, current.LockedThrough.Equal(mar31))

	_, err = svc.LockThrough(ctx, 0, mar31, 99)
	require.ErrorIs(t, err, shared.ErrInvalidDate)
}
