package shared

import (
	"fmt"
	"sync"
)

// CompanyPostingLockKey names the critical section for postings of one company.
func CompanyPostingLockKey(companyID int64) string {
	return fmt.Sprintf("ledger:company:%d:posting", companyID)
}

// CompanyLocks hands out one mutex per company so writers of different
// companies never wait on each other.
type CompanyLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewCompanyLocks builds an empty lock table.
func NewCompanyLocks() *CompanyLocks {
	return &CompanyLocks{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the company mutex and returns its release func.
func (c *CompanyLocks) Lock(companyID int64) func() {
	c.mu.Lock()
	m, ok := c.locks[companyID]
	if !ok {
		m = &sync.Mutex{}
		c.locks[companyID] = m
	}
	c.mu.Unlock()
	m.Lock()
	return m.Unlock
}
