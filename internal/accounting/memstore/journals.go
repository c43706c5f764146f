package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

type journalRepo struct{ s *Store }

func (r journalRepo) WithTx(ctx context.Context, fn func(context.Context, journals.TxRepository) error) error {
	if err := r.s.check("journals: begin"); err != nil {
		return err
	}
	tx := &journalTx{s: r.s, links: make(map[linkKey]int64)}
	defer tx.release()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

func (r journalRepo) GetEntry(ctx context.Context, companyID, entryID int64) (journals.JournalEntry, error) {
	if err := r.s.check("journals: get entry"); err != nil {
		return journals.JournalEntry{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.entries[entryID]
	if !ok || e.CompanyID != companyID {
		return journals.JournalEntry{}, shared.ErrJournalNotFound
	}
	return cloneEntry(e), nil
}

func (r journalRepo) ListEntries(ctx context.Context, companyID int64, rng shared.DateRange, limit, offset int) ([]journals.JournalEntry, int, error) {
	if err := r.s.check("journals: list entries"); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	all := r.s.sortedEntries(companyID, rng)
	r.s.mu.RUnlock()
	total := len(all)
	if offset >= total {
		return []journals.JournalEntry{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	out := make([]journals.JournalEntry, 0, end-offset)
	for _, e := range all[offset:end] {
		out = append(out, cloneEntry(e))
	}
	return out, total, nil
}

// InsertRawEntry stores e without any validation. Tests use it to simulate
// writers that bypass the poster.
func (s *Store) InsertRawEntry(e journals.JournalEntry) journals.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID()
	e.EntryDate = shared.Date(e.EntryDate)
	e.CreatedAt = s.now().UTC()
	for i := range e.Lines {
		e.Lines[i].ID = s.nextID()
		e.Lines[i].JournalEntryID = e.ID
	}
	s.entries[e.ID] = cloneEntry(e)
	return e
}

// EntryCount returns the number of stored entries of a company.
func (s *Store) EntryCount(companyID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if e.CompanyID == companyID {
			n++
		}
	}
	return n
}

// sortedEntries must be called with mu held. Ordering is entry date then id.
func (s *Store) sortedEntries(companyID int64, rng shared.DateRange) []journals.JournalEntry {
	var out []journals.JournalEntry
	for _, e := range s.entries {
		if e.CompanyID != companyID || !rng.Contains(e.EntryDate) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.Before(out[j].EntryDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneEntry(e journals.JournalEntry) journals.JournalEntry {
	lines := make([]journals.JournalLine, len(e.Lines))
	copy(lines, e.Lines)
	e.Lines = lines
	return e
}

// journalTx stages one posting. Nothing is visible to readers before commit.
type journalTx struct {
	s       *Store
	unlock  []func()
	entries []journals.JournalEntry
	links   map[linkKey]int64
}

func (t *journalTx) release() {
	for i := len(t.unlock) - 1; i >= 0; i-- {
		t.unlock[i]()
	}
	t.unlock = nil
}

func (t *journalTx) LockCompany(ctx context.Context, companyID int64) error {
	if err := t.s.check("journals: lock company"); err != nil {
		return err
	}
	t.unlock = append(t.unlock, t.s.companyLocks.Lock(companyID))
	return nil
}

func (t *journalTx) GetPostingLock(ctx context.Context, companyID int64) (periods.Lock, error) {
	if err := t.s.check("journals: posting lock"); err != nil {
		return periods.Lock{}, err
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.lockOf(companyID), nil
}

func (t *journalTx) AccountsByID(ctx context.Context, companyID int64, ids []int64) (map[int64]accounts.Account, error) {
	if err := t.s.check("journals: load accounts"); err != nil {
		return nil, err
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	out := make(map[int64]accounts.Account, len(ids))
	for _, id := range ids {
		if a, ok := t.s.accounts[id]; ok && a.CompanyID == companyID {
			out[id] = a
		}
	}
	return out, nil
}

func (t *journalTx) FindReversal(ctx context.Context, companyID, entryID int64) (int64, bool, error) {
	if err := t.s.check("journals: find reversal"); err != nil {
		return 0, false, err
	}
	for _, e := range t.entries {
		if e.CompanyID == companyID && e.ReversalOf != nil && *e.ReversalOf == entryID {
			return e.ID, true, nil
		}
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	for _, e := range t.s.entries {
		if e.CompanyID == companyID && e.ReversalOf != nil && *e.ReversalOf == entryID {
			return e.ID, true, nil
		}
	}
	return 0, false, nil
}

func (t *journalTx) InsertJournalEntry(ctx context.Context, in journals.PostingInput) (journals.JournalEntry, error) {
	if err := t.s.check("journals: insert entry"); err != nil {
		return journals.JournalEntry{}, err
	}
	e := journals.JournalEntry{
		ID:                 t.s.nextID(),
		CompanyID:          in.CompanyID,
		EntryDate:          shared.Date(in.EntryDate),
		Narration:          in.Narration,
		SourceDocumentType: in.SourceDocumentType,
		SourceDocumentID:   in.SourceDocumentID,
		ReversalOf:         in.ReversalOf,
		PostedBy:           in.PostedBy,
		CreatedAt:          t.s.now().UTC(),
	}
	t.entries = append(t.entries, e)
	return e, nil
}

func (t *journalTx) InsertJournalLines(ctx context.Context, entryID int64, lines []journals.PostingLineInput) ([]journals.JournalLine, error) {
	if err := t.s.check("journals: insert lines"); err != nil {
		return nil, err
	}
	idx := -1
	for i := range t.entries {
		if t.entries[i].ID == entryID {
			idx = i
		}
	}
	if idx < 0 {
		return nil, shared.ErrJournalNotFound
	}
	out := make([]journals.JournalLine, 0, len(lines))
	for _, in := range lines {
		out = append(out, journals.JournalLine{
			ID:             t.s.nextID(),
			JournalEntryID: entryID,
			AccountID:      in.AccountID,
			Debit:          in.Debit,
			Credit:         in.Credit,
			PartyKind:      in.PartyKind,
			PartyID:        in.PartyID,
		})
	}
	t.entries[idx].Lines = append(t.entries[idx].Lines, out...)
	return out, nil
}

func (t *journalTx) LinkSource(ctx context.Context, companyID int64, sourceType journals.SourceType, ref uuid.UUID, entryID int64) error {
	if err := t.s.check("journals: link source"); err != nil {
		return err
	}
	key := linkKey{companyID: companyID, sourceType: sourceType, ref: ref.String()}
	if _, ok := t.links[key]; ok {
		return shared.ErrSourceConflict
	}
	t.s.mu.RLock()
	_, exists := t.s.links[key]
	t.s.mu.RUnlock()
	if exists {
		return shared.ErrSourceConflict
	}
	t.links[key] = entryID
	return nil
}

func (t *journalTx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.fail != nil {
		return shared.Unavailable("memstore: journals: commit", t.s.fail)
	}
	for key := range t.links {
		if _, ok := t.s.links[key]; ok {
			return shared.ErrSourceConflict
		}
	}
	for _, e := range t.entries {
		t.s.entries[e.ID] = cloneEntry(e)
	}
	for key, id := range t.links {
		t.s.links[key] = id
	}
	return nil
}
