package mappings

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve returns the account configured for key in the company.
func (s *Service) Resolve(ctx context.Context, companyID int64, key string) (int64, error) {
	m, err := s.repo.Get(ctx, companyID, strings.ToLower(key))
	if err != nil {
		return 0, fmt.Errorf("mapping %s: %w", key, err)
	}
	return m.AccountID, nil
}

// ClassifierFor overlays the company's stored overrides on the tag rules.
func (s *Service) ClassifierFor(ctx context.Context, companyID int64) (Classifier, error) {
	overrides, err := s.repo.Overrides(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if len(overrides) == 0 {
		return TagClassifier{}, nil
	}
	return OverrideClassifier{Overrides: overrides, Fallback: TagClassifier{}}, nil
}
