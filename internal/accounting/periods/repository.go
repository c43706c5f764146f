package periods

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

type Repository interface {
	GetLock(ctx context.Context, companyID int64) (Lock, error)
	SaveLock(ctx context.Context, lock Lock) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// GetLock returns the posting lock of a company, or a zero lock when none was set.
func (r *repository) GetLock(ctx context.Context, companyID int64) (Lock, error) {
	return QueryLock(ctx, r.db, companyID, false)
}

func (r *repository) SaveLock(ctx context.Context, lock Lock) error {
	_, err := r.db.Exec(ctx, `INSERT INTO posting_locks (company_id, locked_through, locked_by)
VALUES ($1,$2,$3)
ON CONFLICT (company_id) DO UPDATE SET locked_through=EXCLUDED.locked_through, locked_by=EXCLUDED.locked_by, updated_at=NOW()`,
		lock.CompanyID, lock.LockedThrough, nullInt(lock.LockedBy))
	if err != nil {
		return shared.Unavailable("periods: save lock", err)
	}
	return nil
}

// Querier is satisfied by pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QueryLock loads the lock row. forUpdate adds a row lock for use inside a
// posting transaction.
func QueryLock(ctx context.Context, q Querier, companyID int64, forUpdate bool) (Lock, error) {
	sql := `SELECT company_id, locked_through, COALESCE(locked_by, 0), updated_at FROM posting_locks WHERE company_id=$1`
	if forUpdate {
		sql += ` FOR SHARE`
	}
	var l Lock
	err := q.QueryRow(ctx, sql, companyID).Scan(&l.CompanyID, &l.LockedThrough, &l.LockedBy, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lock{CompanyID: companyID}, nil
		}
		return Lock{}, shared.Unavailable("periods: get lock", err)
	}
	return l, nil
}

func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}
