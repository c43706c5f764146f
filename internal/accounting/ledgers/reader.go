package ledgers

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// Repository reads ledger rows. Rows of a subject are ordered by date, entry
// id and line id (movement date and id for products).
type Repository interface {
	Account(ctx context.Context, companyID, accountID int64) (accounts.Account, error)
	// Watermark returns the highest journal line id of the company, or its
	// highest stock movement id for KindProduct. Zero when nothing was posted.
	Watermark(ctx context.Context, companyID int64, kind Kind) (int64, error)
	// Totals sums debit and credit of the subject's lines inside w.
	Totals(ctx context.Context, s Subject, w Window) (debit, credit decimal.Decimal, err error)
	// PrefixTotals sums the first n lines of the subject inside w.
	PrefixTotals(ctx context.Context, s Subject, w Window, n int) (debit, credit decimal.Decimal, err error)
	Lines(ctx context.Context, s Subject, w Window, offset, limit int) ([]LineRecord, error)
	CountLines(ctx context.Context, s Subject, w Window) (int, error)
	Movements(ctx context.Context, companyID, productID int64, w Window, offset, limit int) ([]inventory.Movement, error)
	CountMovements(ctx context.Context, companyID, productID int64, w Window) (int, error)
	// Snapshot runs fn on a view of the store that reads a single snapshot.
	// Errors of fn are returned untouched.
	Snapshot(ctx context.Context, fn func(Repository) error) error
}

// OpeningCache memoises range openings. The watermark is part of the cached
// identity. Implementations must fall back to the loader on any failure of
// their own.
type OpeningCache interface {
	Opening(ctx context.Context, q Query, watermark int64, load func(context.Context) (Opening, error)) (Opening, error)
}

// DefaultBatch is the number of rows fetched per store round trip.
const DefaultBatch = 500

// MaxPageSize caps Page requests.
const MaxPageSize = 500

// Reader builds statements. It is stateless and safe for concurrent use.
type Reader struct {
	repo    Repository
	cache   OpeningCache
	batch   int
	logger  *slog.Logger
	timeout time.Duration
}

func NewReader(repo Repository, cache OpeningCache, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{repo: repo, cache: cache, batch: DefaultBatch, logger: logger, timeout: 15 * time.Second}
}

func (r *Reader) WithBatch(n int) {
	if n > 0 {
		r.batch = n
	}
}

func (r *Reader) WithTimeout(d time.Duration) {
	if d > 0 {
		r.timeout = d
	}
}

func (r *Reader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Statement resolves the subject and its opening balance and pins the
// statement to the rows posted so far. Rows are read lazily from the returned
// statement; postings committed later are not part of it.
func (r *Reader) Statement(ctx context.Context, q Query) (*Statement, error) {
	q.Range = q.Range.Normalize()
	if err := validate(q); err != nil {
		return nil, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	st := &Statement{query: q, reader: r}
	err := r.repo.Snapshot(ctx, func(repo Repository) error {
		mark, err := repo.Watermark(ctx, q.CompanyID, q.Kind)
		if err != nil {
			return err
		}
		st.watermark = mark
		switch q.Kind {
		case KindAccount, KindCashBank:
			acct, err := repo.Account(ctx, q.CompanyID, q.SubjectID)
			if err != nil {
				if errors.Is(err, shared.ErrAccountNotFound) {
					return fmt.Errorf("%w: account %d", shared.ErrInvalidAccount, q.SubjectID)
				}
				return shared.Unavailable("ledgers: account", err)
			}
			if q.Kind == KindCashBank && !acct.IsCashOrBank() {
				return fmt.Errorf("%w: account %s is not a cash or bank account", shared.ErrInvalidAccount, acct.Code)
			}
			st.account = &acct
		}
		opening, err := r.opening(ctx, repo, q, mark, st.account)
		if err != nil {
			return err
		}
		st.opening = opening
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func validate(q Query) error {
	if q.CompanyID <= 0 || q.SubjectID <= 0 {
		return fmt.Errorf("%w: company and subject required", shared.ErrInvalidQuery)
	}
	if _, err := ParseKind(string(q.Kind)); err != nil {
		return err
	}
	return q.Range.Validate()
}

func (r *Reader) opening(ctx context.Context, repo Repository, q Query, mark int64, acct *accounts.Account) (Opening, error) {
	before, ok := q.Range.Before()
	if !ok {
		return Opening{Balance: decimal.Zero, AvgCost: decimal.Zero}, nil
	}
	w := Window{Range: before, MaxID: mark}
	load := func(ctx context.Context) (Opening, error) {
		if q.Kind == KindProduct {
			pos, err := r.replay(ctx, repo, q, w, inventory.Position{}, -1)
			if err != nil {
				return Opening{}, err
			}
			return Opening{Balance: pos.Qty, AvgCost: pos.AvgCost}, nil
		}
		d, c, err := repo.Totals(ctx, q.subject(), w)
		if err != nil {
			return Opening{}, shared.Unavailable("ledgers: opening", err)
		}
		return Opening{Balance: r.sign(q, acct, d, c), AvgCost: decimal.Zero}, nil
	}
	if r.cache == nil {
		return load(ctx)
	}
	return r.cache.Opening(ctx, q, mark, load)
}

// replay applies up to limit movements of w (all when limit < 0) on top of start.
func (r *Reader) replay(ctx context.Context, repo Repository, q Query, w Window, start inventory.Position, limit int) (inventory.Position, error) {
	pos := start
	read := 0
	for limit < 0 || read < limit {
		size := r.batch
		if limit >= 0 && limit-read < size {
			size = limit - read
		}
		batch, err := repo.Movements(ctx, q.CompanyID, q.SubjectID, w, 0, size)
		if err != nil {
			return inventory.Position{}, shared.Unavailable("ledgers: movements", err)
		}
		for _, m := range batch {
			pos = pos.Apply(m)
		}
		read += len(batch)
		if len(batch) < size {
			break
		}
		last := batch[len(batch)-1]
		w.After = Cursor{Date: last.MovementDate, EntryID: last.ID, LineID: last.ID}
	}
	return pos, nil
}

// sign converts debit and credit into the ledger's signed amount.
func (r *Reader) sign(q Query, acct *accounts.Account, debit, credit decimal.Decimal) decimal.Decimal {
	switch q.Kind {
	case KindSupplier:
		return credit.Sub(debit)
	case KindAccount:
		if acct != nil && acct.Type.NormalSide() == accounts.SideCredit {
			return credit.Sub(debit)
		}
		return debit.Sub(credit)
	default:
		return debit.Sub(credit)
	}
}

// Statement is a restartable lazy sequence of ledger rows.
type Statement struct {
	query     Query
	reader    *Reader
	account   *accounts.Account
	opening   Opening
	watermark int64
}

// Query returns the normalised query of the statement.
func (s *Statement) Query() Query { return s.query }

// Account is set for account and cash/bank ledgers.
func (s *Statement) Account() *accounts.Account { return s.account }

// OpeningBalance is the balance (quantity for products) before the first row.
func (s *Statement) OpeningBalance() decimal.Decimal { return s.opening.Balance }

// Watermark is the highest line (movement) id the statement includes.
func (s *Statement) Watermark() int64 { return s.watermark }

func (s *Statement) window(after Cursor) Window {
	return Window{Range: s.query.Range, MaxID: s.watermark, After: after}
}

// Rows streams the statement from the store in batches. Every range over the
// sequence starts again from the opening balance.
func (s *Statement) Rows(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		s.stream(ctx, s.reader.repo, 0, -1, s.startState(), yield)
	}
}

// Collect reads the whole statement.
func (s *Statement) Collect(ctx context.Context) ([]Row, error) {
	var rows []Row
	for row, err := range s.Rows(ctx) {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Page returns rows (page-1)*size .. page*size-1 with the running balance
// carried from the true start of the range.
func (s *Statement) Page(ctx context.Context, page, size int) (Page, error) {
	if page < 1 || size < 1 || size > MaxPageSize {
		return Page{}, fmt.Errorf("%w: page must be >= 1 and per_page within 1..%d", shared.ErrInvalidQuery, MaxPageSize)
	}
	ctx, cancel := s.reader.withTimeout(ctx)
	defer cancel()

	var out Page
	err := s.reader.repo.Snapshot(ctx, func(repo Repository) error {
		total, err := s.count(ctx, repo)
		if err != nil {
			return err
		}
		p := internalShared.NewPagination(page, size, total)
		skip := p.Offset()
		state, err := s.stateAfter(ctx, repo, skip)
		if err != nil {
			return err
		}
		out = Page{
			Number:     page,
			Size:       size,
			TotalRows:  total,
			TotalPages: p.TotalPages,
			Opening:    state.balance,
			Rows:       make([]Row, 0, size),
		}
		var streamErr error
		last := s.stream(ctx, repo, skip, size, state, func(row Row, err error) bool {
			if err != nil {
				streamErr = err
				return false
			}
			out.Rows = append(out.Rows, row)
			return true
		})
		if streamErr != nil {
			return streamErr
		}
		out.Closing = last.balance
		return nil
	})
	if err != nil {
		return Page{}, err
	}
	return out, nil
}

type runState struct {
	balance decimal.Decimal
	pos     inventory.Position
}

func (s *Statement) startState() runState {
	return runState{
		balance: s.opening.Balance,
		pos:     inventory.Position{Qty: s.opening.Balance, AvgCost: s.opening.AvgCost},
	}
}

func (s *Statement) count(ctx context.Context, repo Repository) (int, error) {
	q := s.query
	var (
		n   int
		err error
	)
	if q.Kind == KindProduct {
		n, err = repo.CountMovements(ctx, q.CompanyID, q.SubjectID, s.window(Cursor{}))
	} else {
		n, err = repo.CountLines(ctx, q.subject(), s.window(Cursor{}))
	}
	if err != nil {
		return 0, shared.Unavailable("ledgers: count", err)
	}
	return n, nil
}

// stateAfter returns the running state after the first skip rows of the range.
func (s *Statement) stateAfter(ctx context.Context, repo Repository, skip int) (runState, error) {
	start := s.startState()
	if skip == 0 {
		return start, nil
	}
	q := s.query
	if q.Kind == KindProduct {
		pos, err := s.reader.replay(ctx, repo, q, s.window(Cursor{}), start.pos, skip)
		if err != nil {
			return runState{}, err
		}
		return runState{balance: pos.Qty, pos: pos}, nil
	}
	d, c, err := repo.PrefixTotals(ctx, q.subject(), s.window(Cursor{}), skip)
	if err != nil {
		return runState{}, shared.Unavailable("ledgers: page opening", err)
	}
	start.balance = start.balance.Add(s.reader.sign(q, s.account, d, c))
	return start, nil
}

// stream yields up to limit rows (all when limit < 0) starting offset rows
// into the statement and returns the state after the last yielded row. Only
// the first batch is addressed by offset; the following ones continue after
// the last row read.
func (s *Statement) stream(ctx context.Context, repo Repository, offset, limit int, state runState, yield func(Row, error) bool) runState {
	q := s.query
	batch := s.reader.batch
	read := 0
	var after Cursor
	for limit < 0 || read < limit {
		if err := ctx.Err(); err != nil {
			yield(Row{}, err)
			return state
		}
		size := batch
		if limit >= 0 && limit-read < size {
			size = limit - read
		}
		var rows []Row
		var err error
		if q.Kind == KindProduct {
			rows, state, err = s.productBatch(ctx, repo, s.window(after), offset, size, state)
		} else {
			rows, state, err = s.lineBatch(ctx, repo, s.window(after), offset, size, state)
		}
		if err != nil {
			yield(Row{}, err)
			return state
		}
		for _, row := range rows {
			if !yield(row, nil) {
				return state
			}
		}
		read += len(rows)
		if len(rows) < size {
			break
		}
		last := rows[len(rows)-1]
		after = Cursor{Date: last.Date, EntryID: last.EntryID, LineID: last.LineID}
		offset = 0
	}
	return state
}

func (s *Statement) lineBatch(ctx context.Context, repo Repository, w Window, offset, size int, state runState) ([]Row, runState, error) {
	q := s.query
	lines, err := repo.Lines(ctx, q.subject(), w, offset, size)
	if err != nil {
		return nil, state, shared.Unavailable("ledgers: lines", err)
	}
	rows := make([]Row, 0, len(lines))
	for _, l := range lines {
		amount := s.reader.sign(q, s.account, l.Debit, l.Credit)
		state.balance = state.balance.Add(amount)
		rows = append(rows, Row{
			Date:               l.EntryDate,
			EntryID:            l.EntryID,
			LineID:             l.LineID,
			Narration:          l.Narration,
			SourceDocumentType: l.SourceDocumentType,
			Debit:              l.Debit,
			Credit:             l.Credit,
			Amount:             amount,
			RunningBalance:     state.balance,
		})
	}
	return rows, state, nil
}

func (s *Statement) productBatch(ctx context.Context, repo Repository, w Window, offset, size int, state runState) ([]Row, runState, error) {
	q := s.query
	moves, err := repo.Movements(ctx, q.CompanyID, q.SubjectID, w, offset, size)
	if err != nil {
		return nil, state, shared.Unavailable("ledgers: movements", err)
	}
	rows := make([]Row, 0, len(moves))
	for _, m := range moves {
		state.pos = state.pos.Apply(m)
		state.balance = state.pos.Qty
		rows = append(rows, Row{
			Date:               m.MovementDate,
			EntryID:            m.ID,
			LineID:             m.ID,
			Narration:          m.Narration,
			SourceDocumentType: m.SourceDocumentType,
			Debit:              decimal.Zero,
			Credit:             decimal.Zero,
			Amount:             m.QtyIn.Sub(m.QtyOut),
			RunningBalance:     state.pos.Qty,
			QtyIn:              m.QtyIn,
			QtyOut:             m.QtyOut,
			UnitCost:           m.UnitCost,
			AvgCost:            state.pos.AvgCost,
			StockValue:         state.pos.Value(),
		})
	}
	return rows, state, nil
}
