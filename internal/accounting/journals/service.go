package journals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Invalidator drops cached derived data of a company after a posting.
type Invalidator interface {
	Bump(ctx context.Context, companyID int64) error
}

// PostingObserver receives the outcome of every posting attempt.
type PostingObserver interface {
	ObservePosting(result string, elapsed time.Duration)
}

// Posting outcomes reported to the observer.
const (
	ResultPosted   = "posted"
	ResultRejected = "rejected"
	ResultConflict = "conflict"
	ResultFailed   = "failed"
)

// DefaultTimeout bounds operations whose context carries no deadline.
const DefaultTimeout = 15 * time.Second

var reversalNamespace = uuid.MustParse("6f1c3c52-8d0e-4b7e-9a55-1d2f0c7b9e41")

type Service struct {
	repo     Repository
	audit    AuditPort
	cache    Invalidator
	observer PostingObserver
	locks    *shared.CompanyLocks
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewService(repo Repository, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		audit:   audit,
		locks:   shared.NewCompanyLocks(),
		logger:  logger,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithInvalidator registers the cache bumped after each commit.
func (s *Service) WithInvalidator(c Invalidator) {
	s.cache = c
}

func (s *Service) WithObserver(o PostingObserver) {
	s.observer = o
}

func (s *Service) WithTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// WithLocks shares the per-company lock table with other writers.
func (s *Service) WithLocks(l *shared.CompanyLocks) {
	if l != nil {
		s.locks = l
	}
}

// Locks exposes the per-company lock table.
func (s *Service) Locks() *shared.CompanyLocks {
	return s.locks
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// PostEntry validates and atomically stores a balanced journal entry. Postings
// of one company are serialised; other companies proceed in parallel.
func (s *Service) PostEntry(ctx context.Context, input PostingInput) (JournalEntry, error) {
	started := s.now()
	entry, err := s.post(ctx, input)
	s.observe(err, s.now().Sub(started))
	if err != nil {
		return JournalEntry{}, err
	}
	s.afterCommit(ctx, entry, "journal.post")
	return entry, nil
}

func (s *Service) post(ctx context.Context, input PostingInput) (JournalEntry, error) {
	normalized, err := input.Normalize()
	if err != nil {
		return JournalEntry{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock := s.locks.Lock(normalized.CompanyID)
	defer unlock()

	var entry JournalEntry
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockCompany(ctx, normalized.CompanyID); err != nil {
			return err
		}
		if err := checkOpen(ctx, tx, normalized.CompanyID, normalized.EntryDate); err != nil {
			return err
		}
		ids := normalized.AccountIDs()
		accts, err := tx.AccountsByID(ctx, normalized.CompanyID, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			a, ok := accts[id]
			if !ok {
				return fmt.Errorf("%w: account %d", shared.ErrInvalidAccount, id)
			}
			if !a.IsActive {
				return fmt.Errorf("%w: account %s is inactive", shared.ErrInvalidAccount, a.Code)
			}
		}
		if normalized.ReversalOf != nil {
			if _, found, err := tx.FindReversal(ctx, normalized.CompanyID, *normalized.ReversalOf); err != nil {
				return err
			} else if found {
				return shared.ErrAlreadyReversed
			}
		}
		inserted, err := tx.InsertJournalEntry(ctx, normalized)
		if err != nil {
			return err
		}
		lines, err := tx.InsertJournalLines(ctx, inserted.ID, normalized.Lines)
		if err != nil {
			return err
		}
		if normalized.SourceDocumentType != SourceManual {
			if err := tx.LinkSource(ctx, normalized.CompanyID, normalized.SourceDocumentType, *normalized.SourceDocumentID, inserted.ID); err != nil {
				if errors.Is(err, shared.ErrSourceConflict) {
					return shared.ErrSourceAlreadyLinked
				}
				return err
			}
		}
		inserted.Lines = lines
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func checkOpen(ctx context.Context, tx TxRepository, companyID int64, date time.Time) error {
	lock, err := tx.GetPostingLock(ctx, companyID)
	if err != nil {
		return err
	}
	if !lock.Allows(date) {
		return fmt.Errorf("%w: books locked through %s", shared.ErrInvalidDate, shared.FormatDate(lock.LockedThrough))
	}
	return nil
}

// CheckOpen reports ErrInvalidDate when date falls on or before the company's
// posting lock.
func (s *Service) CheckOpen(ctx context.Context, companyID int64, date time.Time) error {
	if date.IsZero() {
		return fmt.Errorf("%w: date required", shared.ErrInvalidDate)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return checkOpen(ctx, tx, companyID, shared.Date(date))
	})
}

// ReverseEntry posts the compensating entry of entryID with every side swapped.
func (s *Service) ReverseEntry(ctx context.Context, input ReverseInput) (JournalEntry, error) {
	if input.EntryID <= 0 {
		return JournalEntry{}, fmt.Errorf("%w: entry id required", shared.ErrInvalidQuery)
	}
	original, err := s.GetEntry(ctx, input.CompanyID, input.EntryID)
	if err != nil {
		return JournalEntry{}, err
	}
	date := input.EntryDate
	if date.IsZero() {
		date = original.EntryDate
	}
	sourceID := uuid.NewSHA1(reversalNamespace, []byte(fmt.Sprintf("%d:%d", original.CompanyID, original.ID)))
	originalID := original.ID
	posting := PostingInput{
		CompanyID:          original.CompanyID,
		EntryDate:          date,
		Narration:          defaultReversalNarration(input.Narration, original.ID),
		SourceDocumentType: SourceJournalVoucher,
		SourceDocumentID:   &sourceID,
		ReversalOf:         &originalID,
		PostedBy:           input.PostedBy,
		Lines:              reverseLines(original.Lines),
	}
	started := s.now()
	reversal, err := s.post(ctx, posting)
	if errors.Is(err, shared.ErrSourceAlreadyLinked) {
		err = shared.ErrAlreadyReversed
	}
	s.observe(err, s.now().Sub(started))
	if err != nil {
		return JournalEntry{}, err
	}
	s.afterCommit(ctx, reversal, "journal.reverse")
	return reversal, nil
}

func (s *Service) GetEntry(ctx context.Context, companyID, entryID int64) (JournalEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.GetEntry(ctx, companyID, entryID)
}

// ListEntries pages through entries ordered by date then id. A zero range end means today.
func (s *Service) ListEntries(ctx context.Context, companyID int64, filter ListFilter) ([]JournalEntry, internalShared.Pagination, error) {
	rng := filter.Range.Normalize()
	if rng.To.IsZero() {
		rng.To = shared.Date(s.now())
	}
	if err := rng.Validate(); err != nil {
		return nil, internalShared.Pagination{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	p := internalShared.NewPagination(filter.Page, filter.PerPage, 0)
	entries, total, err := s.repo.ListEntries(ctx, companyID, rng, p.PerPage, p.Offset())
	if err != nil {
		return nil, internalShared.Pagination{}, err
	}
	return entries, internalShared.NewPagination(p.Page, p.PerPage, total), nil
}

func (s *Service) afterCommit(ctx context.Context, entry JournalEntry, action string) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx, entry.CompanyID); err != nil {
			s.logger.Warn("bump ledger cache", slog.Int64("company_id", entry.CompanyID), slog.Any("error", err))
		}
	}
	if s.audit == nil {
		return
	}
	meta := map[string]any{
		"source_document_type": string(entry.SourceDocumentType),
		"entry_date":           shared.FormatDate(entry.EntryDate),
	}
	if entry.SourceDocumentID != nil {
		meta["source_document_id"] = entry.SourceDocumentID.String()
	}
	if entry.ReversalOf != nil {
		meta["reversal_of"] = *entry.ReversalOf
	}
	if err := s.audit.Record(ctx, internalShared.AuditLog{
		CompanyID: entry.CompanyID,
		ActorID:   entry.PostedBy,
		Action:    action,
		Entity:    "journal_entry",
		EntityID:  fmt.Sprintf("%d", entry.ID),
		Meta:      meta,
		At:        s.now(),
	}); err != nil {
		s.logger.Warn("record journal audit", slog.Int64("entry_id", entry.ID), slog.Any("error", err))
	}
}

func (s *Service) observe(err error, elapsed time.Duration) {
	if s.observer == nil {
		return
	}
	result := ResultPosted
	switch shared.KindOf(err) {
	case shared.KindNone:
	case shared.KindValidation:
		result = ResultRejected
	case shared.KindConflict:
		result = ResultConflict
	default:
		result = ResultFailed
	}
	s.observer.ObservePosting(result, elapsed)
}

func reverseLines(lines []JournalLine) []PostingLineInput {
	out := make([]PostingLineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, PostingLineInput{
			AccountID: line.AccountID,
			Debit:     line.Credit,
			Credit:    line.Debit,
			PartyKind: line.PartyKind,
			PartyID:   line.PartyID,
		})
	}
	return out
}

func defaultReversalNarration(narration string, entryID int64) string {
	if narration != "" {
		return narration
	}
	return fmt.Sprintf("Reversal of JE %d", entryID)
}
