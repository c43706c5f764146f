package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StockIssuedEvent represents an outward movement ready for ledger posting.
type StockIssuedEvent struct {
	CompanyID  int64
	ProductID  int64
	MovementID int64
	Date       time.Time
	Qty        decimal.Decimal
	UnitCost   decimal.Decimal
	Value      decimal.Decimal
	Narration  string
	ActorID    int64
}

// IntegrationHandler receives inventory events for financial integration.
type IntegrationHandler interface {
	HandleStockIssued(ctx context.Context, evt StockIssuedEvent) error
}

// StockIssueChecker is implemented by handlers that can tell in advance
// whether the ledger posting of an issue would be accepted.
type StockIssueChecker interface {
	CheckStockIssue(ctx context.Context, companyID int64, date time.Time) error
}

// PeriodGuard rejects movements dated inside a locked accounting period.
type PeriodGuard interface {
	CheckOpen(ctx context.Context, companyID int64, date time.Time) error
}
