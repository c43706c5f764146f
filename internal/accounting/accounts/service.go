package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// CreateInput describes a new chart of accounts node.
type CreateInput struct {
	CompanyID int64
	Code      string
	Name      string
	Type      AccountType
	Category  string
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, companyID int64) ([]Account, error) {
	return s.repo.List(ctx, companyID)
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (Account, error) {
	return s.repo.Get(ctx, companyID, id)
}

// Create validates and stores an active account.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if in.CompanyID <= 0 || code == "" || name == "" {
		return Account{}, fmt.Errorf("%w: company, code and name required", shared.ErrInvalidAccount)
	}
	if !in.Type.Valid() {
		return Account{}, fmt.Errorf("%w: unknown type %q", shared.ErrInvalidAccount, in.Type)
	}
	ts := s.now().UTC()
	return s.repo.Create(ctx, Account{
		CompanyID: in.CompanyID,
		Code:      code,
		Name:      name,
		Type:      in.Type,
		Category:  strings.ToLower(strings.TrimSpace(in.Category)),
		IsActive:  true,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
}

// Rename changes the only editable attributes of an account.
func (s *Service) Rename(ctx context.Context, companyID, id int64, code, name string) (Account, error) {
	a, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Account{}, err
	}
	if c := strings.TrimSpace(code); c != "" {
		a.Code = c
	}
	if n := strings.TrimSpace(name); n != "" {
		a.Name = n
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

// Deactivate hides the account from new postings. Accounts are never deleted.
func (s *Service) Deactivate(ctx context.Context, companyID, id int64) error {
	a, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return err
	}
	if !a.IsActive {
		return nil
	}
	a.IsActive = false
	return s.repo.Update(ctx, a)
}

// Companies lists the companies that keep a ledger.
func (s *Service) Companies(ctx context.Context) ([]int64, error) {
	return s.repo.Companies(ctx)
}
