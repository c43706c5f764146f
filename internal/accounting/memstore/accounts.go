package memstore

import (
	"context"
	"sort"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

type accountRepo struct{ s *Store }

func (r accountRepo) List(ctx context.Context, companyID int64) ([]accounts.Account, error) {
	if err := r.s.check("list accounts"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.companyAccounts(companyID), nil
}

func (r accountRepo) Get(ctx context.Context, companyID, id int64) (accounts.Account, error) {
	if err := r.s.check("get account"); err != nil {
		return accounts.Account{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok || a.CompanyID != companyID {
		return accounts.Account{}, shared.ErrAccountNotFound
	}
	return a, nil
}

func (r accountRepo) Create(ctx context.Context, a accounts.Account) (accounts.Account, error) {
	if err := r.s.check("create account"); err != nil {
		return accounts.Account{}, err
	}
	return r.s.AddAccount(a), nil
}

func (r accountRepo) Update(ctx context.Context, a accounts.Account) error {
	if err := r.s.check("update account"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.accounts[a.ID]
	if !ok || cur.CompanyID != a.CompanyID {
		return shared.ErrAccountNotFound
	}
	cur.Code = a.Code
	cur.Name = a.Name
	cur.IsActive = a.IsActive
	cur.UpdatedAt = r.s.now().UTC()
	r.s.accounts[a.ID] = cur
	return nil
}

func (r accountRepo) Companies(ctx context.Context) ([]int64, error) {
	if err := r.s.check("companies"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := make(map[int64]struct{})
	out := make([]int64, 0)
	for _, a := range r.s.accounts {
		if _, ok := seen[a.CompanyID]; ok || !a.IsActive {
			continue
		}
		seen[a.CompanyID] = struct{}{}
		out = append(out, a.CompanyID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// AddAccount stores a, assigning an id when it has none.
func (s *Store) AddAccount(a accounts.Account) accounts.Account {
	if a.ID == 0 {
		a.ID = s.nextID()
	}
	ts := s.now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = ts
	}
	a.UpdatedAt = ts
	s.mu.Lock()
	s.accounts[a.ID] = a
	s.mu.Unlock()
	return a
}

// companyAccounts must be called with mu held.
func (s *Store) companyAccounts(companyID int64) []accounts.Account {
	var out []accounts.Account
	for _, a := range s.accounts {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
