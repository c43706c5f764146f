package memstore

import (
	"context"
	"errors"
	"time"

	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// AuditRecorder keeps audit logs in memory.
type AuditRecorder struct{ s *Store }

func (a *AuditRecorder) Record(ctx context.Context, log internalShared.AuditLog) error {
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.s.audit = append(a.s.audit, log)
	return nil
}

// Logs returns a copy of every recorded log.
func (a *AuditRecorder) Logs() []internalShared.AuditLog {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	out := make([]internalShared.AuditLog, len(a.s.audit))
	copy(out, a.s.audit)
	return out
}

// IdempotencyStore mirrors the Postgres processed-key table.
type IdempotencyStore struct{ s *Store }

type idemKey struct {
	module string
	at     time.Time
}

func (i *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if key == "" || module == "" {
		return errors.New("idempotency key and module required")
	}
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	if _, ok := i.s.idem[key]; ok {
		return internalShared.ErrIdempotencyConflict
	}
	i.s.idem[key] = idemKey{module: module, at: i.s.now()}
	return nil
}

// Cleanup drops keys recorded before now-olderThan.
func (i *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	cutoff := i.s.now().Add(-olderThan)
	for key, k := range i.s.idem {
		if k.at.Before(cutoff) {
			delete(i.s.idem, key)
		}
	}
	return nil
}

// Len reports the number of retained keys.
func (i *IdempotencyStore) Len() int {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()
	return len(i.s.idem)
}

func (i *IdempotencyStore) Delete(ctx context.Context, key string) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	delete(i.s.idem, key)
	return nil
}
