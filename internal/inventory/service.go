package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// IdempotencyPort rejects a second movement for the same source document.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Invalidator drops cached ledger openings of a company.
type Invalidator interface {
	Bump(ctx context.Context, companyID int64) error
}

// Service coordinates inventory operations.
type Service struct {
	repo        RepositoryPort
	cache       Invalidator
	audit       AuditPort
	idempotency IdempotencyPort
	allowNeg    bool
	integration IntegrationHandler
	periods     PeriodGuard
	locks       *shared.CompanyLocks
	logger      *slog.Logger
	now         func() time.Time
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	AllowNegativeStock bool
	// Locks shares the per-company posting lock table with the journal service.
	Locks *shared.CompanyLocks
	// Periods rejects movements dated inside the posting lock.
	Periods PeriodGuard
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem IdempotencyPort, cfg ServiceConfig, integration IntegrationHandler) *Service {
	locks := cfg.Locks
	if locks == nil {
		locks = shared.NewCompanyLocks()
	}
	return &Service{
		repo:        repo,
		audit:       audit,
		idempotency: idem,
		allowNeg:    cfg.AllowNegativeStock,
		integration: integration,
		periods:     cfg.Periods,
		locks:       locks,
		logger:      slog.Default(),
		now:         time.Now,
	}
}

func (s *Service) WithLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// WithInvalidator registers the cache bumped after each movement.
func (s *Service) WithInvalidator(c Invalidator) {
	s.cache = c
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// RecordInward posts a receipt and re-averages the product cost.
func (s *Service) RecordInward(ctx context.Context, input InwardInput) (Movement, Position, error) {
	if input.CompanyID <= 0 || input.ProductID <= 0 {
		return Movement{}, Position{}, errors.New("inventory: company and product required")
	}
	if !input.Qty.IsPositive() {
		return Movement{}, Position{}, ErrInvalidQuantity
	}
	if input.UnitCost.IsNegative() {
		return Movement{}, Position{}, ErrInvalidUnitCost
	}
	m := Movement{
		CompanyID:          input.CompanyID,
		ProductID:          input.ProductID,
		MovementDate:       input.Date,
		Narration:          input.Narration,
		QtyIn:              input.Qty,
		QtyOut:             decimal.Zero,
		UnitCost:           input.UnitCost,
		SourceDocumentType: input.SourceDocumentType,
		SourceDocumentID:   input.SourceDocumentID,
	}
	return s.postMovement(ctx, m, input.ActorID)
}

// RecordOutward posts an issue valued at the current moving-average cost and
// hands it to the integration handler for the cost of goods sold posting. The
// handler is asked first whether that posting would be accepted, so a rejected
// issue leaves no movement behind. Repeating an issue of the same source
// document reports ErrSourceAlreadyLinked once its posting is in place.
func (s *Service) RecordOutward(ctx context.Context, input OutwardInput) (Movement, Position, error) {
	if input.CompanyID <= 0 || input.ProductID <= 0 {
		return Movement{}, Position{}, errors.New("inventory: company and product required")
	}
	if !input.Qty.IsPositive() {
		return Movement{}, Position{}, ErrInvalidQuantity
	}
	m := Movement{
		CompanyID:          input.CompanyID,
		ProductID:          input.ProductID,
		MovementDate:       s.movementDate(input.Date),
		Narration:          input.Narration,
		QtyIn:              decimal.Zero,
		QtyOut:             input.Qty,
		SourceDocumentType: input.SourceDocumentType,
		SourceDocumentID:   input.SourceDocumentID,
	}
	if checker, ok := s.integration.(StockIssueChecker); ok {
		if err := checker.CheckStockIssue(ctx, m.CompanyID, m.MovementDate); err != nil {
			return Movement{}, Position{}, fmt.Errorf("inventory: cogs posting: %w", err)
		}
	}
	movement, pos, err := s.postMovement(ctx, m, input.ActorID)
	if errors.Is(err, shared.ErrSourceAlreadyLinked) && m.SourceDocumentID != nil {
		if redriveErr := s.redriveIssue(ctx, m, input.ActorID); redriveErr != nil {
			return Movement{}, Position{}, redriveErr
		}
		return Movement{}, Position{}, err
	}
	if err != nil {
		return Movement{}, Position{}, err
	}
	if err := s.issue(ctx, movement, input.ActorID); err != nil {
		return movement, pos, err
	}
	return movement, pos, nil
}

func (s *Service) issue(ctx context.Context, movement Movement, actorID int64) error {
	if s.integration == nil {
		return nil
	}
	evt := StockIssuedEvent{
		CompanyID:  movement.CompanyID,
		ProductID:  movement.ProductID,
		MovementID: movement.ID,
		Date:       movement.MovementDate,
		Qty:        movement.QtyOut,
		UnitCost:   movement.UnitCost,
		Value:      shared.Round2(movement.QtyOut.Mul(movement.UnitCost)),
		Narration:  movement.Narration,
		ActorID:    actorID,
	}
	if err := s.integration.HandleStockIssued(ctx, evt); err != nil {
		return fmt.Errorf("inventory: cogs posting: %w", err)
	}
	return nil
}

// redriveIssue hands a stored issue to the integration handler again. The
// handler treats an already posted movement as done.
func (s *Service) redriveIssue(ctx context.Context, m Movement, actorID int64) error {
	if s.integration == nil {
		return nil
	}
	var stored Movement
	var found bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		stored, found, err = tx.FindMovementBySource(ctx, m.CompanyID, m.ProductID, m.SourceDocumentType, *m.SourceDocumentID)
		return err
	})
	if err != nil {
		return err
	}
	if !found || stored.Inward() {
		return nil
	}
	s.logger.Info("redrive stock issue", slog.Int64("movement_id", stored.ID))
	return s.issue(ctx, stored, actorID)
}

func (s *Service) movementDate(date time.Time) time.Time {
	if date.IsZero() {
		date = s.now()
	}
	return shared.Date(date)
}

func (s *Service) postMovement(ctx context.Context, m Movement, actorID int64) (Movement, Position, error) {
	m.MovementDate = s.movementDate(m.MovementDate)
	if s.periods != nil {
		if err := s.periods.CheckOpen(ctx, m.CompanyID, m.MovementDate); err != nil {
			return Movement{}, Position{}, err
		}
	}

	key := ""
	if s.idempotency != nil && m.SourceDocumentID != nil {
		key = fmt.Sprintf("%d:%s:%s:%d", m.CompanyID, m.SourceDocumentType, m.SourceDocumentID, m.ProductID)
		if err := s.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
			if errors.Is(err, internalShared.ErrIdempotencyConflict) {
				return Movement{}, Position{}, shared.ErrSourceAlreadyLinked
			}
			return Movement{}, Position{}, err
		}
	}

	unlock := s.locks.Lock(m.CompanyID)
	defer unlock()

	var stored Movement
	var pos Position
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockCompany(ctx, m.CompanyID); err != nil {
			return err
		}
		balance, err := tx.GetBalanceForUpdate(ctx, m.CompanyID, m.ProductID)
		if err != nil && !errors.Is(err, ErrBalanceNotFound) {
			return err
		}
		if errors.Is(err, ErrBalanceNotFound) {
			balance = Balance{CompanyID: m.CompanyID, ProductID: m.ProductID, Qty: decimal.Zero, AvgCost: decimal.Zero}
		}
		if !balance.LastMovement.IsZero() && m.MovementDate.Before(balance.LastMovement) {
			return ErrBackdatedMovement
		}
		if !m.Inward() {
			if !s.allowNeg && balance.Qty.LessThan(m.QtyOut) {
				return ErrNegativeStock
			}
			m.UnitCost = balance.AvgCost
		}
		next := balance.Position().Apply(m)
		inserted, err := tx.InsertMovement(ctx, m)
		if err != nil {
			return err
		}
		balance.Qty = next.Qty
		balance.AvgCost = next.AvgCost
		balance.LastMovement = m.MovementDate
		if err := tx.UpsertBalance(ctx, balance); err != nil {
			return err
		}
		stored = inserted
		pos = next
		return nil
	})
	if err != nil {
		if key != "" {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Movement{}, Position{}, err
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx, stored.CompanyID); err != nil {
			s.logger.Warn("bump ledger cache", slog.Int64("company_id", stored.CompanyID), slog.Any("error", err))
		}
	}
	if s.audit != nil {
		direction := "in"
		qty := stored.QtyIn
		if !stored.Inward() {
			direction = "out"
			qty = stored.QtyOut
		}
		if err := s.audit.Record(ctx, internalShared.AuditLog{
			CompanyID: stored.CompanyID,
			ActorID:   actorID,
			Action:    "inventory:" + direction,
			Entity:    "stock_movement",
			EntityID:  fmt.Sprintf("%d", stored.ID),
			Meta: map[string]any{
				"product_id": stored.ProductID,
				"qty":        qty.String(),
				"unit_cost":  stored.UnitCost.String(),
			},
			At: s.now(),
		}); err != nil {
			s.logger.Warn("record inventory audit", slog.Int64("movement_id", stored.ID), slog.Any("error", err))
		}
	}
	return stored, pos, nil
}
