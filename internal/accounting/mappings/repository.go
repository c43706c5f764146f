package mappings

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

type Repository interface {
	Get(ctx context.Context, companyID int64, key string) (AccountMapping, error)
	Overrides(ctx context.Context, companyID int64) (map[int64]Bucket, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Get resolves an account mapping for the specified key.
func (r *repository) Get(ctx context.Context, companyID int64, key string) (AccountMapping, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if companyID <= 0 || key == "" {
		return AccountMapping{}, errors.New("accounting: company and key required")
	}
	var m AccountMapping
	err := r.db.QueryRow(ctx, `SELECT company_id, key, account_id, created_at, updated_at FROM account_mappings WHERE company_id=$1 AND key=$2`, companyID, key).
		Scan(&m.CompanyID, &m.Key, &m.AccountID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountMapping{}, shared.ErrMappingNotFound
		}
		return AccountMapping{}, shared.Unavailable("mappings: get", err)
	}
	return m, nil
}

func (r *repository) Overrides(ctx context.Context, companyID int64) (map[int64]Bucket, error) {
	rows, err := r.db.Query(ctx, `SELECT account_id, bucket FROM account_classifications WHERE company_id=$1`, companyID)
	if err != nil {
		return nil, shared.Unavailable("mappings: overrides", err)
	}
	defer rows.Close()
	out := make(map[int64]Bucket)
	for rows.Next() {
		var id int64
		var b string
		if err := rows.Scan(&id, &b); err != nil {
			return nil, shared.Unavailable("mappings: overrides", err)
		}
		out[id] = Bucket(b)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Unavailable("mappings: overrides", err)
	}
	return out, nil
}
