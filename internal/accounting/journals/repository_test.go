package journals

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func TestInsertEntryErrorMapsConcurrentReversal(t *testing.T) {
	raced := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_journal_entries_reversal"})
	require.ErrorIs(t, insertEntryError(raced), shared.ErrAlreadyReversed)

	other := &pgconn.PgError{Code: "23505", ConstraintName: "journal_entries_pkey"}
	err := insertEntryError(other)
	require.ErrorIs(t, err, shared.ErrDataUnavailable)
	require.NotErrorIs(t, err, shared.ErrAlreadyReversed)

	err = insertEntryError(errors.New("connection reset"))
	require.ErrorIs(t, err, shared.ErrDataUnavailable)
}

func TestUniqueViolationNeedsCodeAndConstraint(t *testing.T) {
	require.True(t, uniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "uq_source_links"}, "uq_source_links"))
	require.False(t, uniqueViolation(&pgconn.PgError{Code: "23503", ConstraintName: "uq_source_links"}, "uq_source_links"))
	require.False(t, uniqueViolation(errors.New("boom"), "uq_source_links"))
}
