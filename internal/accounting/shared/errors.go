package shared

import (
	"context"
	"errors"
	"fmt"
)

// ValidationError is a caller-fixable rejection. It never warrants a retry.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return "accounting: " + e.Message
}

// Is reports membership of the validation family so callers can test errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validation(code, msg string) *ValidationError {
	return &ValidationError{Code: code, Message: msg}
}

var (
	// ErrValidation matches every ValidationError.
	ErrValidation = errors.New("accounting: validation failed")
	// ErrUnbalancedEntry indicates debit != credit.
	ErrUnbalancedEntry = validation("UnbalancedEntry", "journal lines must balance")
	// ErrEmptyLines indicates a journal without lines.
	ErrEmptyLines = validation("EmptyLines", "journal requires at least one line")
	// ErrInvalidLine indicates a line that is not exactly one of debit or credit.
	ErrInvalidLine = validation("InvalidLine", "journal line must carry exactly one non-negative side")
	// ErrInvalidAccount indicates a missing, foreign or inactive account.
	ErrInvalidAccount = validation("InvalidAccount", "account is unknown or inactive for company")
	// ErrInvalidDate indicates a missing date or a date inside a locked range.
	ErrInvalidDate = validation("InvalidDate", "entry date is missing or not open for posting")
	// ErrInvalidTaxInput indicates negative amounts, invalid rates or unresolved states.
	ErrInvalidTaxInput = validation("InvalidTaxInput", "tax input is invalid")
	// ErrInvalidSource indicates an unknown source document type.
	ErrInvalidSource = validation("InvalidSource", "source document type is not supported")
	// ErrInvalidQuery indicates a malformed report or ledger request.
	ErrInvalidQuery = validation("InvalidQuery", "query parameters are invalid")
)

var (
	// ErrDataUnavailable indicates the ledger store could not serve a read or write.
	ErrDataUnavailable = errors.New("accounting: ledger data unavailable")
	// ErrSourceAlreadyLinked indicates the source document was already posted.
	ErrSourceAlreadyLinked = errors.New("accounting: source already linked")
	// ErrSourceConflict is raised by stores when the source link already exists.
	ErrSourceConflict = errors.New("accounting: source link conflict")
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = errors.New("accounting: journal entry not found")
	// ErrAlreadyReversed indicates a second reversal of the same entry.
	ErrAlreadyReversed = errors.New("accounting: journal entry already reversed")
	// ErrAccountNotFound indicates a missing account.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrMappingNotFound indicates account mapping missing.
	ErrMappingNotFound = errors.New("accounting: account mapping not found")
)

// Unavailable wraps a store failure so that it matches ErrDataUnavailable and the cause.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDataUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrDataUnavailable, err)
}

// ErrorKind groups errors for adapters that render user-facing messages.
type ErrorKind string

const (
	KindNone        ErrorKind = ""
	KindValidation  ErrorKind = "validation"
	KindConflict    ErrorKind = "conflict"
	KindNotFound    ErrorKind = "not_found"
	KindUnavailable ErrorKind = "unavailable"
	KindCanceled    ErrorKind = "canceled"
	KindInternal    ErrorKind = "internal"
)

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrSourceAlreadyLinked), errors.Is(err, ErrAlreadyReversed):
		return KindConflict
	case errors.Is(err, ErrJournalNotFound), errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrMappingNotFound):
		return KindNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrDataUnavailable):
		return KindUnavailable
	default:
		return KindInternal
	}
}

// ValidationCode returns the code of the first ValidationError in err's chain.
func ValidationCode(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Code
	}
	return ""
}
