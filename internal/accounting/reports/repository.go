package reports

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Repository reads aggregated ledger activity. Each call observes a single
// consistent snapshot of the journal.
type Repository interface {
	// Balances returns every account of the company with the debit and credit
	// sums of lines dated inside rng.
	Balances(ctx context.Context, companyID int64, rng shared.DateRange) ([]AccountBalance, error)
	// AccountBalance does the same for one account and fails with
	// shared.ErrAccountNotFound when the account is not in the company.
	AccountBalance(ctx context.Context, companyID, accountID int64, rng shared.DateRange) (AccountBalance, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const balanceQuery = `SELECT a.id, a.code, a.name, a.type, a.category,
       COALESCE(SUM(l.debit) FILTER (WHERE e.id IS NOT NULL), 0),
       COALESCE(SUM(l.credit) FILTER (WHERE e.id IS NOT NULL), 0)
FROM accounts a
LEFT JOIN journal_lines l ON l.account_id = a.id
LEFT JOIN journal_entries e ON e.id = l.journal_entry_id
      AND e.company_id = a.company_id
      AND ($2::date IS NULL OR e.entry_date >= $2)
      AND e.entry_date <= $3
WHERE a.company_id = $1`

func (r *repository) Balances(ctx context.Context, companyID int64, rng shared.DateRange) ([]AccountBalance, error) {
	var out []AccountBalance
	err := r.readOnly(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, balanceQuery+` GROUP BY a.id ORDER BY a.code`, companyID, nullDate(rng.From), rng.To)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			b, err := scanBalance(rows)
			if err != nil {
				return err
			}
			out = append(out, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, shared.Unavailable("reports: balances", err)
	}
	return out, nil
}

func (r *repository) AccountBalance(ctx context.Context, companyID, accountID int64, rng shared.DateRange) (AccountBalance, error) {
	var out AccountBalance
	err := r.readOnly(ctx, func(tx pgx.Tx) error {
		b, err := scanBalance(tx.QueryRow(ctx, balanceQuery+` AND a.id = $4 GROUP BY a.id`, companyID, nullDate(rng.From), rng.To, accountID))
		out = b
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountBalance{}, shared.ErrAccountNotFound
		}
		return AccountBalance{}, shared.Unavailable("reports: account balance", err)
	}
	return out, nil
}

// readOnly runs fn in a repeatable-read read-only transaction.
func (r *repository) readOnly(ctx context.Context, fn func(pgx.Tx) error) error {
	return db.WithReadOnlyTx(ctx, r.db, fn)
}

func scanBalance(row pgx.Row) (AccountBalance, error) {
	var b AccountBalance
	err := row.Scan(&b.AccountID, &b.Code, &b.Name, &b.Type, &b.Category, &b.Debit, &b.Credit)
	return b, err
}

func nullDate(d time.Time) any {
	if d.IsZero() {
		return nil
	}
	return d
}
