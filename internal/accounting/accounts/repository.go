package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Repository persists the chart of accounts.
type Repository interface {
	List(ctx context.Context, companyID int64) ([]Account, error)
	Get(ctx context.Context, companyID, id int64) (Account, error)
	Create(ctx context.Context, a Account) (Account, error)
	Update(ctx context.Context, a Account) error
	// Companies lists every company owning at least one active account.
	Companies(ctx context.Context) ([]int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, company_id, code, name, type, category, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, companyID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 ORDER BY code`, companyID)
	if err != nil {
		return nil, shared.Unavailable("accounts: list", err)
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := ScanAccount(rows)
		if err != nil {
			return nil, shared.Unavailable("accounts: scan", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Unavailable("accounts: list", err)
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 AND id=$2`, companyID, id)
	a, err := ScanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, shared.Unavailable("accounts: get", err)
	}
	return a, nil
}

func (r *repository) Create(ctx context.Context, a Account) (Account, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO accounts (company_id, code, name, type, category, is_active)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at, updated_at`,
		a.CompanyID, a.Code, a.Name, a.Type, a.Category, a.IsActive).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Account{}, shared.Unavailable("accounts: create", err)
	}
	return a, nil
}

func (r *repository) Update(ctx context.Context, a Account) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET code=$3, name=$4, is_active=$5, updated_at=NOW() WHERE company_id=$1 AND id=$2`,
		a.CompanyID, a.ID, a.Code, a.Name, a.IsActive)
	if err != nil {
		return shared.Unavailable("accounts: update", err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

// ScanAccount reads the accountColumns projection. Other packages reuse it for
// their own account lookups.
func ScanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.Category, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Columns is the projection understood by ScanAccount.
func Columns(alias string) string {
	if alias == "" {
		return accountColumns
	}
	p := alias + "."
	return p + "id, " + p + "company_id, " + p + "code, " + p + "name, " + p + "type, " + p + "category, " + p + "is_active, " + p + "created_at, " + p + "updated_at"
}

func (r *repository) Companies(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT company_id FROM accounts WHERE is_active ORDER BY company_id`)
	if err != nil {
		return nil, shared.Unavailable("accounts: companies", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, shared.Unavailable("accounts: companies", err)
	}
	return ids, nil
}
