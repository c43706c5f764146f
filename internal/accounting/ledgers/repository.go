package ledgers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type repository struct {
	pool     *pgxpool.Pool
	q        querier
	accounts accounts.Repository
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool, q: pool, accounts: accounts.NewRepository(pool)}
}

func (r *repository) Account(ctx context.Context, companyID, accountID int64) (accounts.Account, error) {
	return r.accounts.Get(ctx, companyID, accountID)
}

// Snapshot pins every read of fn to one read-only RepeatableRead transaction.
func (r *repository) Snapshot(ctx context.Context, fn func(Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}
	err := db.WithReadOnlyTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&repository{q: tx, accounts: r.accounts})
	})
	var txErr *db.TxError
	if errors.As(err, &txErr) {
		return shared.Unavailable("ledgers: snapshot", err)
	}
	return err
}

func (r *repository) Watermark(ctx context.Context, companyID int64, kind Kind) (int64, error) {
	sql := `SELECT COALESCE(MAX(l.id), 0) FROM journal_lines l
JOIN journal_entries e ON e.id = l.journal_entry_id
WHERE e.company_id = $1`
	if kind == KindProduct {
		sql = `SELECT COALESCE(MAX(id), 0) FROM stock_movements WHERE company_id = $1`
	}
	var mark int64
	if err := r.q.QueryRow(ctx, sql, companyID).Scan(&mark); err != nil {
		return 0, shared.Unavailable("ledgers: watermark", err)
	}
	return mark, nil
}

// Parameters $1..$8 are shared by every line query; see lineArgs.
const lineFrom = `FROM journal_lines l
JOIN journal_entries e ON e.id = l.journal_entry_id
WHERE e.company_id = $1 AND %s
  AND ($3::date IS NULL OR e.entry_date >= $3) AND e.entry_date <= $4
  AND l.id <= $5
  AND ($6::date IS NULL OR (e.entry_date, e.id, l.id) > ($6::date, $7::bigint, $8::bigint))`

const lineOrder = ` ORDER BY e.entry_date, e.id, l.id`

// subjectFilter uses $2 for the subject id.
func subjectFilter(kind Kind) (string, error) {
	switch kind {
	case KindAccount, KindCashBank:
		return "l.account_id = $2", nil
	case KindCustomer:
		return "l.party_kind = 'customer' AND l.party_id = $2", nil
	case KindSupplier:
		return "l.party_kind = 'supplier' AND l.party_id = $2", nil
	}
	return "", fmt.Errorf("%w: %s has no journal lines", shared.ErrInvalidQuery, kind)
}

func (r *repository) lineQuery(s Subject, sel, tail string) (string, error) {
	filter, err := subjectFilter(s.Kind)
	if err != nil {
		return "", err
	}
	return "SELECT " + sel + " " + fmt.Sprintf(lineFrom, filter) + tail, nil
}

func lineArgs(s Subject, w Window, extra ...any) []any {
	args := []any{s.CompanyID, s.ID, nullDate(w.Range.From), w.Range.To, w.MaxID}
	args = append(args, cursorArgs(w.After)...)
	return append(args, extra...)
}

func cursorArgs(c Cursor) []any {
	if c.IsZero() {
		return []any{nil, int64(0), int64(0)}
	}
	return []any{c.Date, c.EntryID, c.LineID}
}

func (r *repository) Totals(ctx context.Context, s Subject, w Window) (decimal.Decimal, decimal.Decimal, error) {
	sql, err := r.lineQuery(s, "COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)", "")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	var d, c decimal.Decimal
	if err := r.q.QueryRow(ctx, sql, lineArgs(s, w)...).Scan(&d, &c); err != nil {
		return decimal.Zero, decimal.Zero, shared.Unavailable("ledgers: totals", err)
	}
	return d, c, nil
}

func (r *repository) PrefixTotals(ctx context.Context, s Subject, w Window, n int) (decimal.Decimal, decimal.Decimal, error) {
	inner, err := r.lineQuery(s, "l.debit, l.credit", lineOrder+" LIMIT $9")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	var limit any = n
	if n < 0 {
		limit = nil
	}
	var d, c decimal.Decimal
	sql := "SELECT COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0) FROM (" + inner + ") prefix"
	if err := r.q.QueryRow(ctx, sql, lineArgs(s, w, limit)...).Scan(&d, &c); err != nil {
		return decimal.Zero, decimal.Zero, shared.Unavailable("ledgers: prefix totals", err)
	}
	return d, c, nil
}

func (r *repository) Lines(ctx context.Context, s Subject, w Window, offset, limit int) ([]LineRecord, error) {
	sql, err := r.lineQuery(s, "e.id, l.id, e.entry_date, e.narration, e.source_document_type, l.debit, l.credit", lineOrder+" LIMIT $9 OFFSET $10")
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, sql, lineArgs(s, w, limit, offset)...)
	if err != nil {
		return nil, shared.Unavailable("ledgers: lines", err)
	}
	defer rows.Close()
	var out []LineRecord
	for rows.Next() {
		var l LineRecord
		if err := rows.Scan(&l.EntryID, &l.LineID, &l.EntryDate, &l.Narration, &l.SourceDocumentType, &l.Debit, &l.Credit); err != nil {
			return nil, shared.Unavailable("ledgers: scan line", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Unavailable("ledgers: lines", err)
	}
	return out, nil
}

func (r *repository) CountLines(ctx context.Context, s Subject, w Window) (int, error) {
	sql, err := r.lineQuery(s, "COUNT(*)", "")
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.q.QueryRow(ctx, sql, lineArgs(s, w)...).Scan(&n); err != nil {
		return 0, shared.Unavailable("ledgers: count lines", err)
	}
	return n, nil
}

const movementWhere = `FROM stock_movements
WHERE company_id = $1 AND product_id = $2
  AND ($3::date IS NULL OR movement_date >= $3) AND movement_date <= $4
  AND id <= $5
  AND ($6::date IS NULL OR (movement_date, id) > ($6::date, $7::bigint))`

func movementArgs(companyID, productID int64, w Window, extra ...any) []any {
	var after, afterID any = nil, int64(0)
	if !w.After.IsZero() {
		after, afterID = w.After.Date, w.After.EntryID
	}
	args := []any{companyID, productID, nullDate(w.Range.From), w.Range.To, w.MaxID, after, afterID}
	return append(args, extra...)
}

func (r *repository) Movements(ctx context.Context, companyID, productID int64, w Window, offset, limit int) ([]inventory.Movement, error) {
	rows, err := r.q.Query(ctx, `SELECT id, company_id, product_id, movement_date, narration, qty_in, qty_out, unit_cost, source_document_type, source_document_id, created_at `+
		movementWhere+` ORDER BY movement_date, id LIMIT $8 OFFSET $9`, movementArgs(companyID, productID, w, limit, offset)...)
	if err != nil {
		return nil, shared.Unavailable("ledgers: movements", err)
	}
	defer rows.Close()
	var out []inventory.Movement
	for rows.Next() {
		var m inventory.Movement
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.ProductID, &m.MovementDate, &m.Narration, &m.QtyIn, &m.QtyOut, &m.UnitCost,
			&m.SourceDocumentType, &m.SourceDocumentID, &m.CreatedAt); err != nil {
			return nil, shared.Unavailable("ledgers: scan movement", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Unavailable("ledgers: movements", err)
	}
	return out, nil
}

func (r *repository) CountMovements(ctx context.Context, companyID, productID int64, w Window) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) `+movementWhere, movementArgs(companyID, productID, w)...).Scan(&n); err != nil {
		return 0, shared.Unavailable("ledgers: count movements", err)
	}
	return n, nil
}

func nullDate(d time.Time) any {
	if d.IsZero() {
		return nil
	}
	return d
}
