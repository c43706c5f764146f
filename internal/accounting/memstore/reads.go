package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/ledgers"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
)

// ReportRepo aggregates account activity for statements.
type ReportRepo struct{ s *Store }

var _ reports.Repository = (*ReportRepo)(nil)

func (r *ReportRepo) Balances(ctx context.Context, companyID int64, rng shared.DateRange) ([]reports.AccountBalance, error) {
	if err := r.s.check("reports: balances"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sums := r.s.sums(companyID, rng)
	accs := r.s.companyAccounts(companyID)
	out := make([]reports.AccountBalance, 0, len(accs))
	for _, a := range accs {
		out = append(out, balanceOf(a, sums[a.ID]))
	}
	return out, nil
}

func (r *ReportRepo) AccountBalance(ctx context.Context, companyID, accountID int64, rng shared.DateRange) (reports.AccountBalance, error) {
	if err := r.s.check("reports: account balance"); err != nil {
		return reports.AccountBalance{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[accountID]
	if !ok || a.CompanyID != companyID {
		return reports.AccountBalance{}, shared.ErrAccountNotFound
	}
	return balanceOf(a, r.s.sums(companyID, rng)[accountID]), nil
}

type pair struct{ debit, credit decimal.Decimal }

// sums must be called with mu held.
func (s *Store) sums(companyID int64, rng shared.DateRange) map[int64]pair {
	out := make(map[int64]pair)
	for _, e := range s.entries {
		if e.CompanyID != companyID || !rng.Contains(e.EntryDate) {
			continue
		}
		for _, l := range e.Lines {
			p := out[l.AccountID]
			p.debit = p.debit.Add(l.Debit)
			p.credit = p.credit.Add(l.Credit)
			out[l.AccountID] = p
		}
	}
	return out
}

func balanceOf(a accounts.Account, p pair) reports.AccountBalance {
	return reports.AccountBalance{
		AccountID: a.ID,
		Code:      a.Code,
		Name:      a.Name,
		Type:      a.Type,
		Category:  a.Category,
		Debit:     p.debit,
		Credit:    p.credit,
	}
}

// LedgerRepo serves running-balance reads.
type LedgerRepo struct{ s *Store }

var _ ledgers.Repository = (*LedgerRepo)(nil)

func (r *LedgerRepo) Account(ctx context.Context, companyID, accountID int64) (accounts.Account, error) {
	return accountRepo{r.s}.Get(ctx, companyID, accountID)
}

// Snapshot needs no isolation here: committed rows are immutable and the
// window bounds every read by id.
func (r *LedgerRepo) Snapshot(ctx context.Context, fn func(ledgers.Repository) error) error {
	return fn(r)
}

func (r *LedgerRepo) Watermark(ctx context.Context, companyID int64, kind ledgers.Kind) (int64, error) {
	if err := r.s.check("ledgers: watermark"); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var mark int64
	if kind == ledgers.KindProduct {
		for _, m := range r.s.movements {
			if m.CompanyID == companyID && m.ID > mark {
				mark = m.ID
			}
		}
		return mark, nil
	}
	for _, e := range r.s.entries {
		if e.CompanyID != companyID {
			continue
		}
		for _, l := range e.Lines {
			if l.ID > mark {
				mark = l.ID
			}
		}
	}
	return mark, nil
}

func (r *LedgerRepo) Totals(ctx context.Context, sub ledgers.Subject, w ledgers.Window) (decimal.Decimal, decimal.Decimal, error) {
	return r.PrefixTotals(ctx, sub, w, -1)
}

func (r *LedgerRepo) PrefixTotals(ctx context.Context, sub ledgers.Subject, w ledgers.Window, n int) (decimal.Decimal, decimal.Decimal, error) {
	lines, err := r.lines(sub, w)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if n >= 0 && n < len(lines) {
		lines = lines[:n]
	}
	d, c := decimal.Zero, decimal.Zero
	for _, l := range lines {
		d = d.Add(l.Debit)
		c = c.Add(l.Credit)
	}
	return d, c, nil
}

func (r *LedgerRepo) Lines(ctx context.Context, sub ledgers.Subject, w ledgers.Window, offset, limit int) ([]ledgers.LineRecord, error) {
	lines, err := r.lines(sub, w)
	if err != nil {
		return nil, err
	}
	return window(lines, offset, limit), nil
}

func (r *LedgerRepo) CountLines(ctx context.Context, sub ledgers.Subject, w ledgers.Window) (int, error) {
	lines, err := r.lines(sub, w)
	return len(lines), err
}

func (r *LedgerRepo) Movements(ctx context.Context, companyID, productID int64, w ledgers.Window, offset, limit int) ([]inventory.Movement, error) {
	ms, err := r.movements(companyID, productID, w)
	if err != nil {
		return nil, err
	}
	return window(ms, offset, limit), nil
}

func (r *LedgerRepo) CountMovements(ctx context.Context, companyID, productID int64, w ledgers.Window) (int, error) {
	ms, err := r.movements(companyID, productID, w)
	return len(ms), err
}

func (r *LedgerRepo) lines(sub ledgers.Subject, w ledgers.Window) ([]ledgers.LineRecord, error) {
	if err := r.s.check("ledgers: lines"); err != nil {
		return nil, err
	}
	match, err := lineMatcher(sub)
	if err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []ledgers.LineRecord
	for _, e := range r.s.sortedEntries(sub.CompanyID, w.Range) {
		for _, l := range e.Lines {
			if !match(l) || !w.Contains(e.EntryDate, e.ID, l.ID, l.ID) {
				continue
			}
			out = append(out, ledgers.LineRecord{
				EntryID:            e.ID,
				LineID:             l.ID,
				EntryDate:          e.EntryDate,
				Narration:          e.Narration,
				SourceDocumentType: string(e.SourceDocumentType),
				Debit:              l.Debit,
				Credit:             l.Credit,
			})
		}
	}
	return out, nil
}

func lineMatcher(sub ledgers.Subject) (func(journals.JournalLine) bool, error) {
	switch sub.Kind {
	case ledgers.KindAccount, ledgers.KindCashBank:
		return func(l journals.JournalLine) bool { return l.AccountID == sub.ID }, nil
	case ledgers.KindCustomer:
		return func(l journals.JournalLine) bool {
			return l.PartyKind == journals.PartyCustomer && l.PartyID == sub.ID
		}, nil
	case ledgers.KindSupplier:
		return func(l journals.JournalLine) bool {
			return l.PartyKind == journals.PartySupplier && l.PartyID == sub.ID
		}, nil
	}
	return nil, fmt.Errorf("%w: %s has no journal lines", shared.ErrInvalidQuery, sub.Kind)
}

func (r *LedgerRepo) movements(companyID, productID int64, w ledgers.Window) ([]inventory.Movement, error) {
	if err := r.s.check("ledgers: movements"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []inventory.Movement
	for _, m := range r.s.movements {
		if m.CompanyID == companyID && m.ProductID == productID && w.Contains(m.MovementDate, m.ID, m.ID, m.ID) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].MovementDate.Equal(out[j].MovementDate) {
			return out[i].MovementDate.Before(out[j].MovementDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}
