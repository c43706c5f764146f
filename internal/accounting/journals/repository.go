package journals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Repository encapsulates DB operations for journals.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetEntry(ctx context.Context, companyID, entryID int64) (JournalEntry, error)
	// ListEntries returns one page of entries and the total matching count.
	ListEntries(ctx context.Context, companyID int64, rng shared.DateRange, limit, offset int) ([]JournalEntry, int, error)
}

// TxRepository exposes methods available within a posting transaction.
type TxRepository interface {
	// LockCompany serialises postings of one company until the transaction ends.
	LockCompany(ctx context.Context, companyID int64) error
	GetPostingLock(ctx context.Context, companyID int64) (periods.Lock, error)
	AccountsByID(ctx context.Context, companyID int64, ids []int64) (map[int64]accounts.Account, error)
	FindReversal(ctx context.Context, companyID, entryID int64) (int64, bool, error)
	InsertJournalEntry(ctx context.Context, in PostingInput) (JournalEntry, error)
	InsertJournalLines(ctx context.Context, entryID int64, lines []PostingLineInput) ([]JournalLine, error)
	LinkSource(ctx context.Context, companyID int64, sourceType SourceType, ref uuid.UUID, entryID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, company_id, entry_date, narration, source_document_type, source_document_id, reversal_of, COALESCE(posted_by, 0), created_at`

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
	var txErr *db.TxError
	if errors.As(err, &txErr) {
		return shared.Unavailable("journals", err)
	}
	return err
}

func (r *repository) GetEntry(ctx context.Context, companyID, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE company_id=$1 AND id=$2`, companyID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, shared.Unavailable("journals: get entry", err)
	}
	lines, err := r.loadLines(ctx, []int64{entry.ID})
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines[entry.ID]
	return entry, nil
}

func (r *repository) ListEntries(ctx context.Context, companyID int64, rng shared.DateRange, limit, offset int) ([]JournalEntry, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries
WHERE company_id=$1 AND ($2::date IS NULL OR entry_date >= $2) AND entry_date <= $3`, companyID, nullDate(rng.From), rng.To).Scan(&total); err != nil {
		return nil, 0, shared.Unavailable("journals: count entries", err)
	}
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE company_id=$1 AND ($2::date IS NULL OR entry_date >= $2) AND entry_date <= $3
ORDER BY entry_date, id LIMIT $4 OFFSET $5`, companyID, nullDate(rng.From), rng.To, limit, offset)
	if err != nil {
		return nil, 0, shared.Unavailable("journals: list entries", err)
	}
	defer rows.Close()
	var entries []JournalEntry
	var ids []int64
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, shared.Unavailable("journals: scan entry", err)
		}
		entries = append(entries, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, shared.Unavailable("journals: list entries", err)
	}
	if len(ids) == 0 {
		return entries, total, nil
	}
	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range entries {
		entries[i].Lines = lines[entries[i].ID]
	}
	return entries, total, nil
}

func (r *repository) loadLines(ctx context.Context, entryIDs []int64) (map[int64][]JournalLine, error) {
	rows, err := r.db.Query(ctx, `SELECT id, journal_entry_id, account_id, debit, credit, COALESCE(party_kind, ''), COALESCE(party_id, 0)
FROM journal_lines WHERE journal_entry_id = ANY($1) ORDER BY journal_entry_id, id`, entryIDs)
	if err != nil {
		return nil, shared.Unavailable("journals: load lines", err)
	}
	defer rows.Close()
	out := make(map[int64][]JournalLine, len(entryIDs))
	for rows.Next() {
		var l JournalLine
		if err := rows.Scan(&l.ID, &l.JournalEntryID, &l.AccountID, &l.Debit, &l.Credit, &l.PartyKind, &l.PartyID); err != nil {
			return nil, shared.Unavailable("journals: scan line", err)
		}
		out[l.JournalEntryID] = append(out[l.JournalEntryID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Unavailable("journals: load lines", err)
	}
	return out, nil
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) LockCompany(ctx context.Context, companyID int64) error {
	if _, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, shared.CompanyPostingLockKey(companyID)); err != nil {
		return shared.Unavailable("journals: lock company", err)
	}
	return nil
}

func (r *txRepository) GetPostingLock(ctx context.Context, companyID int64) (periods.Lock, error) {
	return periods.QueryLock(ctx, r.tx, companyID, true)
}

func (r *txRepository) AccountsByID(ctx context.Context, companyID int64, ids []int64) (map[int64]accounts.Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+accounts.Columns("")+` FROM accounts WHERE company_id=$1 AND id = ANY($2)`, companyID, ids)
	if err != nil {
		return nil, shared.Unavailable("journals: load accounts", err)
	}
	defer rows.Close()
	out := make(map[int64]accounts.Account, len(ids))
	for rows.Next() {
		a, err := accounts.ScanAccount(rows)
		if err != nil {
			return nil, shared.Unavailable("journals: scan account", err)
		}
		out[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Unavailable("journals: load accounts", err)
	}
	return out, nil
}

func (r *txRepository) FindReversal(ctx context.Context, companyID, entryID int64) (int64, bool, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `SELECT id FROM journal_entries WHERE company_id=$1 AND reversal_of=$2 LIMIT 1`, companyID, entryID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, shared.Unavailable("journals: find reversal", err)
	}
	return id, true, nil
}

func (r *txRepository) InsertJournalEntry(ctx context.Context, in PostingInput) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (company_id, entry_date, narration, source_document_type, source_document_id, reversal_of, posted_by)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`,
		in.CompanyID, in.EntryDate, in.Narration, in.SourceDocumentType, in.SourceDocumentID, in.ReversalOf, nullInt(in.PostedBy))
	entry := JournalEntry{
		CompanyID:          in.CompanyID,
		EntryDate:          in.EntryDate,
		Narration:          in.Narration,
		SourceDocumentType: in.SourceDocumentType,
		SourceDocumentID:   in.SourceDocumentID,
		ReversalOf:         in.ReversalOf,
		PostedBy:           in.PostedBy,
	}
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return JournalEntry{}, insertEntryError(err)
	}
	return entry, nil
}

// insertEntryError maps a lost race on the one-reversal-per-entry index to
// ErrAlreadyReversed.
func insertEntryError(err error) error {
	if uniqueViolation(err, "uq_journal_entries_reversal") {
		return shared.ErrAlreadyReversed
	}
	return shared.Unavailable("journals: insert entry", err)
}

func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

func (r *txRepository) InsertJournalLines(ctx context.Context, entryID int64, lines []PostingLineInput) ([]JournalLine, error) {
	out := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		l := JournalLine{
			JournalEntryID: entryID,
			AccountID:      line.AccountID,
			Debit:          line.Debit,
			Credit:         line.Credit,
			PartyKind:      line.PartyKind,
			PartyID:        line.PartyID,
		}
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_lines (journal_entry_id, account_id, debit, credit, party_kind, party_id)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
			entryID, line.AccountID, shared.FormatAmount(line.Debit), shared.FormatAmount(line.Credit), nullString(string(line.PartyKind)), nullInt(line.PartyID)).Scan(&l.ID)
		if err != nil {
			return nil, shared.Unavailable("journals: insert line", err)
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *txRepository) LinkSource(ctx context.Context, companyID int64, sourceType SourceType, ref uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (company_id, source_document_type, source_document_id, journal_entry_id) VALUES ($1,$2,$3,$4)`,
		companyID, sourceType, ref, entryID)
	if err != nil {
		if uniqueViolation(err, "uq_source_links") {
			return shared.ErrSourceConflict
		}
		return shared.Unavailable("journals: link source", err)
	}
	return nil
}

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	var source string
	err := row.Scan(&e.ID, &e.CompanyID, &e.EntryDate, &e.Narration, &source, &e.SourceDocumentID, &e.ReversalOf, &e.PostedBy, &e.CreatedAt)
	e.SourceDocumentType = SourceType(source)
	return e, err
}

// Helpers
func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}

func nullString(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullDate(d time.Time) any {
	if d.IsZero() {
		return nil
	}
	return d
}
