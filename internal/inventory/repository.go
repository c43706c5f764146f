package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	// LockCompany takes the company posting lock shared with journal postings.
	LockCompany(ctx context.Context, companyID int64) error
	GetBalanceForUpdate(ctx context.Context, companyID, productID int64) (Balance, error)
	InsertMovement(ctx context.Context, m Movement) (Movement, error)
	UpsertBalance(ctx context.Context, balance Balance) error
	FindMovementBySource(ctx context.Context, companyID, productID int64, sourceType string, sourceID uuid.UUID) (Movement, bool, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
	var txErr *db.TxError
	if errors.As(err, &txErr) {
		return shared.Unavailable("inventory", err)
	}
	return err
}

// GetBalance reads the current position without locking.
func (r *Repository) GetBalance(ctx context.Context, companyID, productID int64) (Balance, error) {
	return scanBalance(r.pool.QueryRow(ctx, `SELECT company_id, product_id, qty, avg_cost, last_movement_date, updated_at
FROM stock_balances WHERE company_id=$1 AND product_id=$2`, companyID, productID), companyID, productID)
}

func (r *txRepository) LockCompany(ctx context.Context, companyID int64) error {
	if _, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, shared.CompanyPostingLockKey(companyID)); err != nil {
		return shared.Unavailable("inventory: lock company", err)
	}
	return nil
}

func (r *txRepository) FindMovementBySource(ctx context.Context, companyID, productID int64, sourceType string, sourceID uuid.UUID) (Movement, bool, error) {
	var m Movement
	err := r.tx.QueryRow(ctx, `SELECT id, company_id, product_id, movement_date, narration, qty_in, qty_out, unit_cost, source_document_type, source_document_id, created_at
FROM stock_movements
WHERE company_id=$1 AND product_id=$2 AND source_document_type=$3 AND source_document_id=$4
ORDER BY id LIMIT 1`, companyID, productID, sourceType, sourceID).Scan(&m.ID, &m.CompanyID, &m.ProductID, &m.MovementDate, &m.Narration,
		&m.QtyIn, &m.QtyOut, &m.UnitCost, &m.SourceDocumentType, &m.SourceDocumentID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Movement{}, false, nil
	}
	if err != nil {
		return Movement{}, false, shared.Unavailable("inventory: find movement", err)
	}
	return m, true, nil
}

func (r *txRepository) GetBalanceForUpdate(ctx context.Context, companyID, productID int64) (Balance, error) {
	return scanBalance(r.tx.QueryRow(ctx, `SELECT company_id, product_id, qty, avg_cost, last_movement_date, updated_at
FROM stock_balances WHERE company_id=$1 AND product_id=$2 FOR UPDATE`, companyID, productID), companyID, productID)
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_movements (company_id, product_id, movement_date, narration, qty_in, qty_out, unit_cost, source_document_type, source_document_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at`,
		m.CompanyID, m.ProductID, m.MovementDate, m.Narration, m.QtyIn.String(), m.QtyOut.String(), m.UnitCost.String(),
		m.SourceDocumentType, m.SourceDocumentID).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return Movement{}, shared.Unavailable("inventory: insert movement", err)
	}
	return m, nil
}

func (r *txRepository) UpsertBalance(ctx context.Context, b Balance) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_balances (company_id, product_id, qty, avg_cost, last_movement_date, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW())
ON CONFLICT (company_id, product_id) DO UPDATE SET qty=EXCLUDED.qty, avg_cost=EXCLUDED.avg_cost,
  last_movement_date=EXCLUDED.last_movement_date, updated_at=NOW()`,
		b.CompanyID, b.ProductID, b.Qty.String(), b.AvgCost.String(), b.LastMovement)
	if err != nil {
		return shared.Unavailable("inventory: upsert balance", err)
	}
	return nil
}

func scanBalance(row pgx.Row, companyID, productID int64) (Balance, error) {
	var b Balance
	err := row.Scan(&b.CompanyID, &b.ProductID, &b.Qty, &b.AvgCost, &b.LastMovement, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{CompanyID: companyID, ProductID: productID}, ErrBalanceNotFound
		}
		return Balance{}, shared.Unavailable("inventory: get balance", err)
	}
	return b, nil
}
