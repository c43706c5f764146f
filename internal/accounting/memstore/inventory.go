package memstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
)

type inventoryRepo struct{ s *Store }

func (r inventoryRepo) WithTx(ctx context.Context, fn func(context.Context, inventory.TxRepository) error) error {
	if err := r.s.check("inventory: begin"); err != nil {
		return err
	}
	tx := &inventoryTx{s: r.s, balances: make(map[stockKey]inventory.Balance)}
	defer tx.release()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements = append(r.s.movements, tx.movements...)
	for k, b := range tx.balances {
		r.s.balances[k] = b
	}
	return nil
}

// StockBalance returns the stored position of a product.
func (s *Store) StockBalance(companyID, productID int64) (inventory.Balance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.balances[stockKey{companyID, productID}]
	return b, ok
}

type inventoryTx struct {
	s         *Store
	movements []inventory.Movement
	balances  map[stockKey]inventory.Balance
	unlock    []func()
}

func (t *inventoryTx) release() {
	for i := len(t.unlock) - 1; i >= 0; i-- {
		t.unlock[i]()
	}
}

func (t *inventoryTx) LockCompany(ctx context.Context, companyID int64) error {
	if err := t.s.check("inventory: lock company"); err != nil {
		return err
	}
	t.unlock = append(t.unlock, t.s.companyLocks.Lock(companyID))
	return nil
}

func (t *inventoryTx) FindMovementBySource(ctx context.Context, companyID, productID int64, sourceType string, sourceID uuid.UUID) (inventory.Movement, bool, error) {
	if err := t.s.check("inventory: find movement"); err != nil {
		return inventory.Movement{}, false, err
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	for _, m := range t.s.movements {
		if m.CompanyID == companyID && m.ProductID == productID && m.SourceDocumentType == sourceType &&
			m.SourceDocumentID != nil && *m.SourceDocumentID == sourceID {
			return m, true, nil
		}
	}
	return inventory.Movement{}, false, nil
}

func (t *inventoryTx) GetBalanceForUpdate(ctx context.Context, companyID, productID int64) (inventory.Balance, error) {
	if err := t.s.check("inventory: get balance"); err != nil {
		return inventory.Balance{}, err
	}
	key := stockKey{companyID, productID}
	if b, ok := t.balances[key]; ok {
		return b, nil
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if b, ok := t.s.balances[key]; ok {
		return b, nil
	}
	return inventory.Balance{CompanyID: companyID, ProductID: productID}, inventory.ErrBalanceNotFound
}

func (t *inventoryTx) InsertMovement(ctx context.Context, m inventory.Movement) (inventory.Movement, error) {
	if err := t.s.check("inventory: insert movement"); err != nil {
		return inventory.Movement{}, err
	}
	m.ID = t.s.nextID()
	m.CreatedAt = t.s.now().UTC()
	t.movements = append(t.movements, m)
	return m, nil
}

func (t *inventoryTx) UpsertBalance(ctx context.Context, b inventory.Balance) error {
	if err := t.s.check("inventory: upsert balance"); err != nil {
		return err
	}
	b.UpdatedAt = t.s.now().UTC()
	t.balances[stockKey{b.CompanyID, b.ProductID}] = b
	return nil
}
