package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTaxSplitIntraState(t *testing.T) {
	split, err := ComputeTaxSplit(d("1000"), d("18"), "WB", "WB")
	require.NoError(t, err)
	require.True(t, split.CGSTAmount.Equal(d("90.00")))
	require.True(t, split.SGSTAmount.Equal(d("90.00")))
	require.True(t, split.IGSTAmount.IsZero())
	require.True(t, split.TotalTaxAmount.Equal(d("180.00")))
	require.True(t, split.CGSTRate.Equal(d("9")))
	require.False(t, split.InterState())
}

func TestComputeTaxSplitInterState(t *testing.T) {
	split, err := ComputeTaxSplit(d("1000"), d("18"), "MH", "WB")
	require.NoError(t, err)
	require.True(t, split.IGSTAmount.Equal(d("180.00")))
	require.True(t, split.CGSTAmount.IsZero())
	require.True(t, split.SGSTAmount.IsZero())
	require.True(t, split.IGSTRate.Equal(d("18")))
	require.True(t, split.InterState())
}

func TestComputeTaxSplitNormalisesStates(t *testing.T) {
	split, err := ComputeTaxSplit(d("500"), d("12"), "  west   bengal ", "WEST BENGAL")
	require.NoError(t, err)
	require.False(t, split.InterState())
	require.True(t, split.TotalTaxAmount.Equal(d("60")))
}

func TestComputeTaxSplitMatchesAbbreviationsAndCodes(t *testing.T) {
	for _, pair := range [][2]string{{"WB", "West Bengal"}, {"19", "wb"}, {"Maharashtra", "27"}} {
		split, err := ComputeTaxSplit(d("100"), d("18"), pair[0], pair[1])
		require.NoError(t, err)
		require.False(t, split.InterState(), "%s vs %s", pair[0], pair[1])
	}
	split, err := ComputeTaxSplit(d("100"), d("18"), "MH", "WB")
	require.NoError(t, err)
	require.True(t, split.InterState())
}

func TestComputeTaxSplitZeroInputs(t *testing.T) {
	for _, tc := range []struct{ amount, rate string }{{"0", "18"}, {"1000", "0"}} {
		split, err := ComputeTaxSplit(d(tc.amount), d(tc.rate), "KA", "TN")
		require.NoError(t, err)
		require.True(t, split.TotalTaxAmount.IsZero())
		require.True(t, split.IGSTAmount.IsZero())
	}
}

func TestComputeTaxSplitRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name         string
		amount, rate string
	}{
		{"negative amount", "-1", "18"},
		{"negative rate", "100", "-5"},
		{"rate above hundred", "100", "100.01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeTaxSplit(d(tc.amount), d(tc.rate), "WB", "WB")
			require.ErrorIs(t, err, shared.ErrInvalidTaxInput)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestComputeTaxSplitOddCentsStillSumToTotal(t *testing.T) {
	// 333.33 * 5% = 16.6665 -> 16.67 total; halves 8.33325 -> 8.33 and 8.34.
	split, err := ComputeTaxSplit(d("333.33"), d("5"), "GOA", "GOA")
	require.NoError(t, err)
	require.True(t, split.TotalTaxAmount.Equal(d("16.67")))
	require.True(t, split.CGSTAmount.Equal(d("8.33")))
	require.True(t, split.SGSTAmount.Equal(d("8.34")))
}

func TestComputeTaxSplitProperty(t *testing.T) {
	amounts := []string{"0.01", "1", "9.99", "101.05", "333.33", "1000", "12345.67", "99999.99"}
	rates := []string{"0.25", "3", "5", "12", "18", "28", "100"}
	states := [][2]string{{"KA", "KA"}, {"KA", "TN"}}
	for _, a := range amounts {
		for _, r := range rates {
			for _, st := range states {
				amount, rate := d(a), d(r)
				want := amount.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
				split, err := ComputeTaxSplit(amount, rate, st[0], st[1])
				require.NoError(t, err)
				if st[0] == st[1] {
					require.True(t, split.IGSTAmount.IsZero())
					require.True(t, split.CGSTAmount.Add(split.SGSTAmount).Equal(want), "%s@%s", a, r)
					require.True(t, split.SGSTAmount.Sub(split.CGSTAmount).Abs().LessThanOrEqual(shared.MinorUnit))
				} else {
					require.True(t, split.CGSTAmount.IsZero())
					require.True(t, split.SGSTAmount.IsZero())
					require.True(t, split.IGSTAmount.Equal(want), "%s@%s", a, r)
				}
			}
		}
	}
}

func TestMissingStatePolicy(t *testing.T) {
	split, err := Calculator{MissingState: MissingStateIntra}.ComputeTaxSplit(d("100"), d("18"), "", "KA")
	require.NoError(t, err)
	require.False(t, split.InterState())

	split, err = Calculator{MissingState: MissingStateInter}.ComputeTaxSplit(d("100"), d("18"), "KA", " ")
	require.NoError(t, err)
	require.True(t, split.InterState())

	_, err = Calculator{MissingState: MissingStateReject}.ComputeTaxSplit(d("100"), d("18"), "", "")
	require.ErrorIs(t, err, shared.ErrInvalidTaxInput)

	split, err = Calculator{}.ComputeTaxSplit(d("100"), d("18"), "", "")
	require.NoError(t, err)
	require.False(t, split.InterState())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	require.Equal(t, MissingStateIntra, p)
	p, err = ParsePolicy(" Reject ")
	require.NoError(t, err)
	require.Equal(t, MissingStateReject, p)
	_, err = ParsePolicy("guess")
	require.Error(t, err)
}
