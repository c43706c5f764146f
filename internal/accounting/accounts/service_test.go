package accounts_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/memstore"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func TestCreateAndDeactivate(t *testing.T) {
	store := memstore.New()
	svc := accounts.NewService(store.Accounts())
	ctx := context.Background()

	acct, err := svc.Create(ctx, accounts.CreateInput{CompanyID: 1, Code: "1100", Name: "Cash", Type: accounts.AccountTypeAsset, Category: accounts.CategoryCash})
	require.NoError(t, err)
	require.True(t, acct.IsActive)
	require.True(t, acct.IsCashOrBank())

	_, err = svc.Create(ctx, accounts.CreateInput{CompanyID: 1, Code: "9", Name: "Odd", Type: "REVENUE"})
	require.ErrorIs(t, err, shared.ErrInvalidAccount)

	renamed, err := svc.Rename(ctx, 1, acct.ID, "1101", "Petty Cash")
	require.NoError(t, err)
	require.Equal(t, "Petty Cash", renamed.Name)

	require.NoError(t, svc.Deactivate(ctx, 1, acct.ID))
	got, err := svc.Get(ctx, 1, acct.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	_, err = svc.Get(ctx, 2, acct.ID)
	require.ErrorIs(t, err, shared.ErrAccountNotFound)

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
