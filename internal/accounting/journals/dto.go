package journals

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// PostingLineInput describes a journal line for posting request.
type PostingLineInput struct {
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	PartyKind PartyKind
	PartyID   int64
}

// PostingInput groups fields required to create a journal entry.
type PostingInput struct {
	CompanyID          int64
	EntryDate          time.Time
	Narration          string
	SourceDocumentType SourceType
	SourceDocumentID   *uuid.UUID
	ReversalOf         *int64
	PostedBy           int64
	Lines              []PostingLineInput
}

// Validate ensures posting input meets minimum criteria.
func (in PostingInput) Validate() error {
	_, err := in.Normalize()
	return err
}

// Normalize validates the input and returns a copy with amounts rounded to
// the minor unit and the date truncated. Checks run in a fixed order so the
// first failing rule decides the error.
func (in PostingInput) Normalize() (PostingInput, error) {
	if in.CompanyID <= 0 {
		return PostingInput{}, fmt.Errorf("%w: company required", shared.ErrInvalidAccount)
	}
	if in.EntryDate.IsZero() {
		return PostingInput{}, shared.ErrInvalidDate
	}
	if len(in.Lines) == 0 {
		return PostingInput{}, shared.ErrEmptyLines
	}
	out := in
	out.EntryDate = shared.Date(in.EntryDate)
	out.Narration = strings.TrimSpace(in.Narration)
	out.Lines = make([]PostingLineInput, len(in.Lines))
	debit, credit := decimal.Zero, decimal.Zero
	for idx, line := range in.Lines {
		if line.AccountID <= 0 {
			return PostingInput{}, fmt.Errorf("%w: line %d missing account", shared.ErrInvalidAccount, idx)
		}
		line.Debit = shared.Round2(line.Debit)
		line.Credit = shared.Round2(line.Credit)
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return PostingInput{}, fmt.Errorf("%w: line %d negative amount", shared.ErrInvalidLine, idx)
		}
		if line.Debit.IsZero() == line.Credit.IsZero() {
			return PostingInput{}, fmt.Errorf("%w: line %d must carry exactly one side", shared.ErrInvalidLine, idx)
		}
		switch line.PartyKind {
		case PartyNone:
			if line.PartyID != 0 {
				return PostingInput{}, fmt.Errorf("%w: line %d party id without kind", shared.ErrInvalidLine, idx)
			}
		case PartyCustomer, PartySupplier:
			if line.PartyID <= 0 {
				return PostingInput{}, fmt.Errorf("%w: line %d party id required", shared.ErrInvalidLine, idx)
			}
		default:
			return PostingInput{}, fmt.Errorf("%w: line %d unknown party kind %q", shared.ErrInvalidLine, idx, line.PartyKind)
		}
		out.Lines[idx] = line
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if out.SourceDocumentType == "" {
		out.SourceDocumentType = SourceManual
	}
	if !out.SourceDocumentType.Valid() {
		return PostingInput{}, fmt.Errorf("%w: %q", shared.ErrInvalidSource, in.SourceDocumentType)
	}
	if out.SourceDocumentType != SourceManual && (out.SourceDocumentID == nil || *out.SourceDocumentID == uuid.Nil) {
		return PostingInput{}, fmt.Errorf("%w: %s requires a source document id", shared.ErrInvalidSource, out.SourceDocumentType)
	}
	if !debit.Equal(credit) {
		return PostingInput{}, fmt.Errorf("%w: debit %s credit %s", shared.ErrUnbalancedEntry, shared.FormatAmount(debit), shared.FormatAmount(credit))
	}
	return out, nil
}

// AccountIDs lists the distinct accounts referenced by the lines.
func (in PostingInput) AccountIDs() []int64 {
	seen := make(map[int64]struct{}, len(in.Lines))
	out := make([]int64, 0, len(in.Lines))
	for _, l := range in.Lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		out = append(out, l.AccountID)
	}
	return out
}

// ReverseInput wraps parameters for reversal. A zero EntryDate reuses the
// original entry date.
type ReverseInput struct {
	CompanyID int64
	EntryID   int64
	EntryDate time.Time
	Narration string
	PostedBy  int64
}

// ListFilter narrows ListEntries.
type ListFilter struct {
	Range   shared.DateRange
	Page    int
	PerPage int
}
