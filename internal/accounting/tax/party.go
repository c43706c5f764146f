package tax

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// PartyDetails is the billing identity of a buyer or seller.
type PartyDetails struct {
	Name        string `json:"name" validate:"required,max=200"`
	GSTIN       string `json:"gstin" validate:"omitempty,len=15,alphanum"`
	State       string `json:"state" validate:"omitempty,max=100"`
	StateCode   string `json:"state_code" validate:"omitempty,len=2,numeric"`
	AddressLine string `json:"address_line" validate:"omitempty,max=300"`
	City        string `json:"city" validate:"omitempty,max=100"`
	PostalCode  string `json:"postal_code" validate:"omitempty,max=12"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field shapes.
func (p PartyDetails) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrInvalidTaxInput, describe(err))
	}
	return nil
}

// ParsePartyDetails decodes and validates a party JSON document.
func ParsePartyDetails(raw []byte) (PartyDetails, error) {
	var p PartyDetails
	if err := json.Unmarshal(raw, &p); err != nil {
		return PartyDetails{}, fmt.Errorf("%w: party details: %v", shared.ErrInvalidTaxInput, err)
	}
	if err := p.Validate(); err != nil {
		return PartyDetails{}, err
	}
	return p, nil
}

// ResolvedState returns the upper-case name of the party's state, or "" when
// it cannot be determined.
func (p PartyDetails) ResolvedState() string {
	code, err := p.CanonicalStateCode()
	if err != nil {
		return ""
	}
	return stateCodes[code]
}

type stateSource struct {
	field string
	code  string
}

// CanonicalStateCode reduces the party to its two-digit GST state code. The
// GSTIN prefix wins over the explicit code, which wins over the state name or
// abbreviation. Any two that disagree are rejected, as is a value that names
// no state.
func (p PartyDetails) CanonicalStateCode() (string, error) {
	var sources []stateSource
	if gstin := strings.TrimSpace(p.GSTIN); gstin != "" {
		if len(gstin) < 2 {
			return "", fmt.Errorf("%w: gstin %q too short", shared.ErrInvalidTaxInput, gstin)
		}
		if _, ok := stateCodes[gstin[:2]]; !ok {
			return "", fmt.Errorf("%w: gstin state code %q unknown", shared.ErrInvalidTaxInput, gstin[:2])
		}
		sources = append(sources, stateSource{"gstin", gstin[:2]})
	}
	if code := strings.TrimSpace(p.StateCode); code != "" {
		if _, ok := stateCodes[code]; !ok {
			return "", fmt.Errorf("%w: state code %q unknown", shared.ErrInvalidTaxInput, code)
		}
		sources = append(sources, stateSource{"state_code", code})
	}
	if NormalizeState(p.State) != "" {
		code, ok := LookupStateCode(p.State)
		if !ok {
			return "", fmt.Errorf("%w: state %q unknown", shared.ErrInvalidTaxInput, p.State)
		}
		sources = append(sources, stateSource{"state", code})
	}
	if len(sources) == 0 {
		return "", nil
	}
	first := sources[0]
	for _, src := range sources[1:] {
		if src.code != first.code {
			return "", fmt.Errorf("%w: %s %s does not match %s %s", shared.ErrInvalidTaxInput, src.field, src.code, first.field, first.code)
		}
	}
	return first.code, nil
}

// ComputeForParties validates both parties and splits the tax on their
// canonical state codes.
func (c Calculator) ComputeForParties(taxable, ratePercent decimal.Decimal, buyer, seller PartyDetails) (Split, error) {
	if err := buyer.Validate(); err != nil {
		return Split{}, fmt.Errorf("buyer: %w", err)
	}
	if err := seller.Validate(); err != nil {
		return Split{}, fmt.Errorf("seller: %w", err)
	}
	buyerCode, err := buyer.CanonicalStateCode()
	if err != nil {
		return Split{}, fmt.Errorf("buyer: %w", err)
	}
	sellerCode, err := seller.CanonicalStateCode()
	if err != nil {
		return Split{}, fmt.Errorf("seller: %w", err)
	}
	return c.ComputeTaxSplit(taxable, ratePercent, buyerCode, sellerCode)
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
