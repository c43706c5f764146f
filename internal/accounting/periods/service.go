package periods

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Current(ctx context.Context, companyID int64) (Lock, error) {
	return s.repo.GetLock(ctx, companyID)
}

// EnsureOpen rejects dates on or before the company's lock date.
func (s *Service) EnsureOpen(ctx context.Context, companyID int64, date time.Time) error {
	lock, err := s.repo.GetLock(ctx, companyID)
	if err != nil {
		return err
	}
	if !lock.Allows(shared.Date(date)) {
		return fmt.Errorf("%w: books locked through %s", shared.ErrInvalidDate, shared.FormatDate(lock.LockedThrough))
	}
	return nil
}

// LockThrough closes every date up to and including through. The lock only moves forward.
func (s *Service) LockThrough(ctx context.Context, companyID int64, through time.Time, actorID int64) (Lock, error) {
	through = shared.Date(through)
	if companyID <= 0 || through.IsZero() {
		return Lock{}, fmt.Errorf("%w: company and date required", shared.ErrInvalidDate)
	}
	current, err := s.repo.GetLock(ctx, companyID)
	if err != nil {
		return Lock{}, err
	}
	if !current.LockedThrough.IsZero() && through.Before(current.LockedThrough) {
		return Lock{}, fmt.Errorf("%w: lock date cannot move backwards", shared.ErrInvalidDate)
	}
	lock := Lock{CompanyID: companyID, LockedThrough: through, LockedBy: actorID, UpdatedAt: s.now().UTC()}
	if err := s.repo.SaveLock(ctx, lock); err != nil {
		return Lock{}, err
	}
	return lock, nil
}
