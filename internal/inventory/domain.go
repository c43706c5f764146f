package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostPlaces is the precision kept for moving-average unit costs.
const CostPlaces int32 = 6

// Movement is one append-only stock movement of a product. Exactly one of
// QtyIn and QtyOut is non-zero.
type Movement struct {
	ID                 int64
	CompanyID          int64
	ProductID          int64
	MovementDate       time.Time
	Narration          string
	QtyIn              decimal.Decimal
	QtyOut             decimal.Decimal
	UnitCost           decimal.Decimal
	SourceDocumentType string
	SourceDocumentID   *uuid.UUID
	CreatedAt          time.Time
}

// Inward reports whether the movement adds stock.
func (m Movement) Inward() bool {
	return m.QtyIn.IsPositive()
}

// Position is the running quantity and moving-average cost of a product.
type Position struct {
	Qty     decimal.Decimal
	AvgCost decimal.Decimal
}

// Apply returns the position after m. Inward movements re-average the cost
// (restarting from the inward cost when no stock was on hand), outward
// movements keep it until the stock is exhausted.
func (p Position) Apply(m Movement) Position {
	if m.Inward() {
		newQty := p.Qty.Add(m.QtyIn)
		if !p.Qty.IsPositive() {
			return Position{Qty: newQty, AvgCost: m.UnitCost}
		}
		totalCost := p.Qty.Mul(p.AvgCost).Add(m.QtyIn.Mul(m.UnitCost))
		return Position{Qty: newQty, AvgCost: totalCost.DivRound(newQty, CostPlaces)}
	}
	newQty := p.Qty.Sub(m.QtyOut)
	if !newQty.IsPositive() {
		return Position{Qty: newQty, AvgCost: decimal.Zero}
	}
	return Position{Qty: newQty, AvgCost: p.AvgCost}
}

// Value is the stock value at the average cost rounded to the minor unit.
func (p Position) Value() decimal.Decimal {
	return p.Qty.Mul(p.AvgCost).Round(2)
}

// Balance summarises current stock of a product in a company.
type Balance struct {
	CompanyID    int64
	ProductID    int64
	Qty          decimal.Decimal
	AvgCost      decimal.Decimal
	LastMovement time.Time
	UpdatedAt    time.Time
}

// Position of the balance.
func (b Balance) Position() Position {
	return Position{Qty: b.Qty, AvgCost: b.AvgCost}
}

// InwardInput records a receipt of stock (purchase, return).
type InwardInput struct {
	CompanyID          int64
	ProductID          int64
	Date               time.Time
	Qty                decimal.Decimal
	UnitCost           decimal.Decimal
	Narration          string
	SourceDocumentType string
	SourceDocumentID   *uuid.UUID
	ActorID            int64
}

// OutwardInput records an issue of stock valued at the current average cost.
type OutwardInput struct {
	CompanyID          int64
	ProductID          int64
	Date               time.Time
	Qty                decimal.Decimal
	Narration          string
	SourceDocumentType string
	SourceDocumentID   *uuid.UUID
	ActorID            int64
}

// ErrNegativeStock triggered when movement would result negative qty.
var ErrNegativeStock = errors.New("inventory: negative stock not allowed")

// ErrInvalidQuantity indicates invalid qty.
var ErrInvalidQuantity = errors.New("inventory: quantity must be positive")

// ErrInvalidUnitCost indicates invalid cost value.
var ErrInvalidUnitCost = errors.New("inventory: unit cost must be >= 0")

// ErrBackdatedMovement indicates a movement dated before the product's last movement.
var ErrBackdatedMovement = errors.New("inventory: movement predates the last recorded movement")

// ErrBalanceNotFound indicates missing balance row.
var ErrBalanceNotFound = errors.New("inventory: balance not found")
