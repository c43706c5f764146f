// Package tax splits GST between the central/state pair and the integrated levy.
package tax

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// MissingStatePolicy decides the treatment of a transaction whose buyer or
// seller state is unknown.
type MissingStatePolicy string

const (
	MissingStateIntra  MissingStatePolicy = "intra"
	MissingStateInter  MissingStatePolicy = "inter"
	MissingStateReject MissingStatePolicy = "reject"
)

// ParsePolicy accepts the configuration spelling of a policy. Empty means intra.
func ParsePolicy(raw string) (MissingStatePolicy, error) {
	switch p := MissingStatePolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return MissingStateIntra, nil
	case MissingStateIntra, MissingStateInter, MissingStateReject:
		return p, nil
	default:
		return "", fmt.Errorf("tax: unknown missing state policy %q", raw)
	}
}

// Split is the tax breakdown of one taxable amount.
type Split struct {
	IGSTRate       decimal.Decimal `json:"igst_rate"`
	IGSTAmount     decimal.Decimal `json:"igst_amount"`
	CGSTRate       decimal.Decimal `json:"cgst_rate"`
	CGSTAmount     decimal.Decimal `json:"cgst_amount"`
	SGSTRate       decimal.Decimal `json:"sgst_rate"`
	SGSTAmount     decimal.Decimal `json:"sgst_amount"`
	TotalTaxAmount decimal.Decimal `json:"total_tax_amount"`
}

// InterState reports whether the split carries integrated tax.
func (s Split) InterState() bool {
	return !s.IGSTRate.IsZero()
}

// Calculator computes tax splits. The zero value uses the intra policy.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	MissingState MissingStatePolicy
}

// DefaultCalculator treats a missing state as intra-state.
var DefaultCalculator = Calculator{MissingState: MissingStateIntra}

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
	upper   = cases.Upper(language.Und)
)

// ComputeTaxSplit uses DefaultCalculator.
func ComputeTaxSplit(taxable, ratePercent decimal.Decimal, buyerState, sellerState string) (Split, error) {
	return DefaultCalculator.ComputeTaxSplit(taxable, ratePercent, buyerState, sellerState)
}

// NormalizeState trims and upper-cases a state name so that comparisons are
// case and whitespace insensitive.
func NormalizeState(s string) string {
	return upper.String(strings.Join(strings.Fields(s), " "))
}

// ComputeTaxSplit returns IGST at the full rate when the states differ and an
// equal CGST/SGST pair when they match. Names, abbreviations and GST codes of
// the same state match. CGST+SGST always equals the rounded
// full tax.
func (c Calculator) ComputeTaxSplit(taxable, ratePercent decimal.Decimal, buyerState, sellerState string) (Split, error) {
	if taxable.IsNegative() {
		return Split{}, fmt.Errorf("%w: taxable amount is negative", shared.ErrInvalidTaxInput)
	}
	if ratePercent.IsNegative() || ratePercent.GreaterThan(hundred) {
		return Split{}, fmt.Errorf("%w: rate %s outside 0..100", shared.ErrInvalidTaxInput, ratePercent)
	}
	inter, err := c.interState(canonicalState(buyerState), canonicalState(sellerState))
	if err != nil {
		return Split{}, err
	}
	total := shared.Round2(shared.Percent(taxable, ratePercent))
	if inter {
		return Split{
			IGSTRate:       ratePercent,
			IGSTAmount:     total,
			CGSTRate:       decimal.Zero,
			CGSTAmount:     decimal.Zero,
			SGSTRate:       decimal.Zero,
			SGSTAmount:     decimal.Zero,
			TotalTaxAmount: total,
		}, nil
	}
	half := ratePercent.Div(two)
	cgst := shared.Round2(shared.Percent(taxable, half))
	return Split{
		IGSTRate:       decimal.Zero,
		IGSTAmount:     decimal.Zero,
		CGSTRate:       half,
		CGSTAmount:     cgst,
		SGSTRate:       half,
		SGSTAmount:     total.Sub(cgst),
		TotalTaxAmount: total,
	}, nil
}

func (c Calculator) interState(buyer, seller string) (bool, error) {
	if buyer != "" && seller != "" {
		return buyer != seller, nil
	}
	switch c.MissingState {
	case MissingStateInter:
		return true, nil
	case MissingStateReject:
		return false, fmt.Errorf("%w: buyer and seller state required", shared.ErrInvalidTaxInput)
	default:
		return false, nil
	}
}
