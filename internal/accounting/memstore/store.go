// Package memstore keeps the whole ledger in process memory. It implements
// every repository port of the accounting core and is used by tests and by
// the server when no database is configured.
package memstore

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

type linkKey struct {
	companyID  int64
	sourceType journals.SourceType
	ref        string
}

type mapKey struct {
	companyID int64
	key       string
}

type stockKey struct {
	companyID int64
	productID int64
}

// Store is safe for concurrent use. Writers stage their changes and publish
// them under the write lock on commit, so readers never see a partial entry.
type Store struct {
	mu sync.RWMutex

	companyLocks *shared.CompanyLocks
	ids          atomic.Int64

	accounts  map[int64]accounts.Account
	entries   map[int64]journals.JournalEntry
	links     map[linkKey]int64
	locks     map[int64]periods.Lock
	mappings  map[mapKey]int64
	overrides map[int64]map[int64]mappings.Bucket
	movements []inventory.Movement
	balances  map[stockKey]inventory.Balance
	idem      map[string]idemKey
	audit     []internalShared.AuditLog

	fail error
	now  func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		companyLocks: shared.NewCompanyLocks(),
		accounts:     make(map[int64]accounts.Account),
		entries:      make(map[int64]journals.JournalEntry),
		links:        make(map[linkKey]int64),
		locks:        make(map[int64]periods.Lock),
		mappings:     make(map[mapKey]int64),
		overrides:    make(map[int64]map[int64]mappings.Bucket),
		balances:     make(map[stockKey]inventory.Balance),
		idem:         make(map[string]idemKey),
		now:          time.Now,
	}
}

// WithNow overrides the clock stamping created rows.
func (s *Store) WithNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.now = now
	}
}

// ErrInjected is the cause reported while a failure is injected.
var ErrInjected = errors.New("memstore: injected failure")

// FailWith makes every subsequent store call fail with err (nil clears it).
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *Store) check(op string) error {
	s.mu.RLock()
	err := s.fail
	s.mu.RUnlock()
	if err != nil {
		return shared.Unavailable("memstore: "+op, err)
	}
	return nil
}

func (s *Store) nextID() int64 {
	return s.ids.Add(1)
}

// Accounts returns the chart of accounts port.
func (s *Store) Accounts() accounts.Repository { return accountRepo{s} }

// Journals returns the journal port.
func (s *Store) Journals() journals.Repository { return journalRepo{s} }

// Mappings returns the account mapping port.
func (s *Store) Mappings() mappings.Repository { return mappingRepo{s} }

// Periods returns the posting lock port.
func (s *Store) Periods() periods.Repository { return periodRepo{s} }

// Reports returns the statement read port.
func (s *Store) Reports() *ReportRepo { return &ReportRepo{s} }

// Ledgers returns the running-balance read port.
func (s *Store) Ledgers() *LedgerRepo { return &LedgerRepo{s} }

// Inventory returns the stock movement port.
func (s *Store) Inventory() inventory.RepositoryPort { return inventoryRepo{s} }

// Idempotency returns the processed-key store.
func (s *Store) Idempotency() *IdempotencyStore { return &IdempotencyStore{s} }

// Audit returns the audit recorder.
func (s *Store) Audit() *AuditRecorder { return &AuditRecorder{s} }
