package tax

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

func TestParsePartyDetails(t *testing.T) {
	p, err := ParsePartyDetails([]byte(`{"name":"Acme Traders","gstin":"27AAPFU0939F1ZV","city":"Pune"}`))
	require.NoError(t, err)
	require.Equal(t, "MAHARASHTRA", p.ResolvedState())

	_, err = ParsePartyDetails([]byte(`{"gstin":"27AAPFU0939F1ZV"}`))
	require.ErrorIs(t, err, shared.ErrInvalidTaxInput)

	_, err = ParsePartyDetails([]byte(`{"name":"Short","gstin":"27AAP"}`))
	require.ErrorIs(t, err, shared.ErrInvalidTaxInput)

	_, err = ParsePartyDetails([]byte(`not json`))
	require.ErrorIs(t, err, shared.ErrInvalidTaxInput)
}

func TestCanonicalStateCode(t *testing.T) {
	cases := []struct {
		name  string
		party PartyDetails
		want  string
	}{
		{"gstin prefix", PartyDetails{GSTIN: "19AAPFU0939F1ZV"}, "19"},
		{"explicit code", PartyDetails{StateCode: "33"}, "33"},
		{"full name", PartyDetails{State: " west  bengal "}, "19"},
		{"abbreviation", PartyDetails{State: "mh"}, "27"},
		{"old name", PartyDetails{State: "Orissa"}, "21"},
		{"ampersand", PartyDetails{State: "Jammu & Kashmir"}, "01"},
		{"agreeing sources", PartyDetails{GSTIN: "29AAPFU0939F1ZV", StateCode: "29", State: "KA"}, "29"},
		{"nothing known", PartyDetails{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.party.CanonicalStateCode()
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestCanonicalStateCodeRejectsConflicts(t *testing.T) {
	for _, p := range []PartyDetails{
		{GSTIN: "19AAPFU0939F1ZV", State: "Maharashtra"},
		{GSTIN: "19AAPFU0939F1ZV", StateCode: "27"},
		{StateCode: "33", State: "karnataka"},
		{State: "Atlantis"},
		{StateCode: "99"},
		{GSTIN: "99AAPFU0939F1ZV"},
	} {
		_, err := p.CanonicalStateCode()
		require.ErrorIs(t, err, shared.ErrInvalidTaxInput, "%+v", p)
	}
}

func TestResolvedStateName(t *testing.T) {
	require.Equal(t, "WEST BENGAL", PartyDetails{State: "WB"}.ResolvedState())
	require.Equal(t, "TAMIL NADU", PartyDetails{StateCode: "33"}.ResolvedState())
	require.Equal(t, "", PartyDetails{GSTIN: "19AAPFU0939F1ZV", State: "Kerala"}.ResolvedState())
}

func TestComputeForParties(t *testing.T) {
	buyer := PartyDetails{Name: "Buyer", GSTIN: "19AAPFU0939F1ZV"}
	seller := PartyDetails{Name: "Seller", State: "West Bengal"}
	split, err := DefaultCalculator.ComputeForParties(d("1000"), d("18"), buyer, seller)
	require.NoError(t, err)
	require.True(t, split.CGSTAmount.Equal(d("90")))

	buyer.GSTIN = "27AAPFU0939F1ZV"
	split, err = DefaultCalculator.ComputeForParties(d("1000"), d("18"), buyer, seller)
	require.NoError(t, err)
	require.True(t, split.IGSTAmount.Equal(d("180")))

	_, err = DefaultCalculator.ComputeForParties(d("1000"), d("18"), PartyDetails{}, seller)
	require.ErrorIs(t, err, shared.ErrInvalidTaxInput)
}

func TestComputeForPartiesUsesStateCodes(t *testing.T) {
	buyer := PartyDetails{Name: "Buyer", State: "WB"}
	seller := PartyDetails{Name: "Seller", GSTIN: "19AAPFU0939F1ZV"}
	split, err := DefaultCalculator.ComputeForParties(d("1000"), d("18"), buyer, seller)
	require.NoError(t, err)
	require.True(t, split.CGSTAmount.Equal(d("90")))
	require.True(t, split.SGSTAmount.Equal(d("90")))
	require.True(t, split.IGSTAmount.IsZero())

	buyer = PartyDetails{Name: "Buyer", GSTIN: "19AAPFU0939F1ZV", State: "Maharashtra"}
	_, err = DefaultCalculator.ComputeForParties(d("1000"), d("18"), buyer, seller)
	require.ErrorIs(t, err, shared.ErrInvalidTaxInput)
}
