package shared

import "github.com/shopspring/decimal"

// Integrity check names.
const (
	CheckTrialBalance = "trial_balance"
	CheckBalanceSheet = "balance_sheet"
)

// Severity levels for integrity warnings.
const (
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// IntegrityWarning flags a derived equality that failed on read. It signals a
// problem upstream of the ledger (for example a writer bypassing the poster).
type IntegrityWarning struct {
	Check      string          `json:"check"`
	Expected   decimal.Decimal `json:"expected"`
	Actual     decimal.Decimal `json:"actual"`
	Difference decimal.Decimal `json:"difference"`
	Severity   string          `json:"severity"`
	Message    string          `json:"message"`
}

// NewIntegrityWarning computes the difference and severity.
func NewIntegrityWarning(check, message string, expected, actual decimal.Decimal) IntegrityWarning {
	diff := expected.Sub(actual)
	severity := SeverityWarning
	if diff.Abs().GreaterThan(MinorUnit) {
		severity = SeverityCritical
	}
	return IntegrityWarning{
		Check:      check,
		Expected:   expected,
		Actual:     actual,
		Difference: diff,
		Severity:   severity,
		Message:    message,
	}
}
