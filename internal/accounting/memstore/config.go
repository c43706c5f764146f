package memstore

import (
	"context"
	"strings"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

type mappingRepo struct{ s *Store }

func (r mappingRepo) Get(ctx context.Context, companyID int64, key string) (mappings.AccountMapping, error) {
	if err := r.s.check("get mapping"); err != nil {
		return mappings.AccountMapping{}, err
	}
	key = strings.ToLower(key)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.mappings[mapKey{companyID, key}]
	if !ok {
		return mappings.AccountMapping{}, shared.ErrMappingNotFound
	}
	return mappings.AccountMapping{CompanyID: companyID, Key: key, AccountID: id}, nil
}

func (r mappingRepo) Overrides(ctx context.Context, companyID int64) (map[int64]mappings.Bucket, error) {
	if err := r.s.check("overrides"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[int64]mappings.Bucket, len(r.s.overrides[companyID]))
	for id, b := range r.s.overrides[companyID] {
		out[id] = b
	}
	return out, nil
}

// SetMapping binds a system posting key to an account.
func (s *Store) SetMapping(companyID int64, key string, accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[mapKey{companyID, strings.ToLower(key)}] = accountID
}

// SetClassification overrides the statement bucket of an account.
func (s *Store) SetClassification(companyID, accountID int64, b mappings.Bucket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overrides[companyID] == nil {
		s.overrides[companyID] = make(map[int64]mappings.Bucket)
	}
	s.overrides[companyID][accountID] = b
}

type periodRepo struct{ s *Store }

func (r periodRepo) GetLock(ctx context.Context, companyID int64) (periods.Lock, error) {
	if err := r.s.check("get lock"); err != nil {
		return periods.Lock{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.lockOf(companyID), nil
}

func (r periodRepo) SaveLock(ctx context.Context, lock periods.Lock) error {
	if err := r.s.check("save lock"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.locks[lock.CompanyID] = lock
	return nil
}

// lockOf must be called with mu held.
func (s *Store) lockOf(companyID int64) periods.Lock {
	if l, ok := s.locks[companyID]; ok {
		return l
	}
	return periods.Lock{CompanyID: companyID}
}

// SetLock stores a posting lock directly.
func (s *Store) SetLock(lock periods.Lock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[lock.CompanyID] = lock
}
