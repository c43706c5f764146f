package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/tax"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
)

// Ledger exposes journal posting operations required by integrations.
type Ledger interface {
	PostEntry(ctx context.Context, input journals.PostingInput) (journals.JournalEntry, error)
}

// AccountResolver maps system posting keys to company accounts.
type AccountResolver interface {
	Resolve(ctx context.Context, companyID int64, key string) (int64, error)
}

var sourceNamespace = uuid.MustParse("0b8f6f2e-4f59-4d0c-a7d6-5b1e2f3c9a10")

// SourceID derives the stable source document id of a business document.
func SourceID(sourceType journals.SourceType, companyID, documentID int64) uuid.UUID {
	return uuid.NewSHA1(sourceNamespace, []byte(fmt.Sprintf("%s:%d:%d", sourceType, companyID, documentID)))
}

// Hooks wires domain events from operational modules into the general ledger.
type Hooks struct {
	ledger   Ledger
	accounts AccountResolver
	tax      tax.Calculator
	logger   *slog.Logger
}

// NewHooks constructs integration hooks.
func NewHooks(ledger Ledger, accounts AccountResolver, calc tax.Calculator, logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{ledger: ledger, accounts: accounts, tax: calc, logger: logger}
}

func (h *Hooks) ready() bool {
	return h != nil && h.ledger != nil && h.accounts != nil
}

func (h *Hooks) post(ctx context.Context, input journals.PostingInput) error {
	if input.SourceDocumentID == nil || *input.SourceDocumentID == uuid.Nil {
		return errors.New("integration: source id required")
	}
	entry, err := h.ledger.PostEntry(ctx, input)
	if errors.Is(err, shared.ErrSourceAlreadyLinked) {
		h.logger.Debug("source already posted",
			slog.String("source_type", string(input.SourceDocumentType)),
			slog.String("source_id", input.SourceDocumentID.String()))
		return nil
	}
	if err != nil {
		return err
	}
	h.logger.Info("system posting",
		slog.Int64("company_id", entry.CompanyID),
		slog.Int64("entry_id", entry.ID),
		slog.String("source_type", string(entry.SourceDocumentType)))
	return nil
}

// taxTotals splits every line and accumulates the components.
type taxTotals struct {
	taxable decimal.Decimal
	split   tax.Split
}

func (h *Hooks) computeTax(lines []TaxableLine, buyer, seller tax.PartyDetails) (taxTotals, error) {
	out := taxTotals{taxable: decimal.Zero}
	out.split = tax.Split{
		IGSTAmount:     decimal.Zero,
		CGSTAmount:     decimal.Zero,
		SGSTAmount:     decimal.Zero,
		TotalTaxAmount: decimal.Zero,
	}
	for idx, line := range lines {
		split, err := h.tax.ComputeForParties(line.Taxable, line.RatePercent, buyer, seller)
		if err != nil {
			return taxTotals{}, fmt.Errorf("line %d: %w", idx, err)
		}
		out.taxable = out.taxable.Add(shared.Round2(line.Taxable))
		out.split.IGSTAmount = out.split.IGSTAmount.Add(split.IGSTAmount)
		out.split.CGSTAmount = out.split.CGSTAmount.Add(split.CGSTAmount)
		out.split.SGSTAmount = out.split.SGSTAmount.Add(split.SGSTAmount)
		out.split.TotalTaxAmount = out.split.TotalTaxAmount.Add(split.TotalTaxAmount)
	}
	return out, nil
}

type taxLeg struct {
	key    string
	amount decimal.Decimal
}

func (h *Hooks) taxLines(ctx context.Context, companyID int64, legs []taxLeg, debit bool) ([]journals.PostingLineInput, error) {
	var out []journals.PostingLineInput
	for _, leg := range legs {
		if leg.amount.IsZero() {
			continue
		}
		account, err := h.accounts.Resolve(ctx, companyID, leg.key)
		if err != nil {
			return nil, err
		}
		line := journals.PostingLineInput{AccountID: account}
		if debit {
			line.Debit = leg.amount
		} else {
			line.Credit = leg.amount
		}
		out = append(out, line)
	}
	return out, nil
}

// HandleSalesInvoicePosted posts Dr receivable, Cr sales and Cr output tax.
func (h *Hooks) HandleSalesInvoicePosted(ctx context.Context, evt SalesInvoicePostedEvent) error {
	if !h.ready() {
		return nil
	}
	if evt.Date.IsZero() {
		return fmt.Errorf("%w: invoice date required", shared.ErrInvalidDate)
	}
	totals, err := h.computeTax(evt.Lines, evt.Buyer, evt.Seller)
	if err != nil {
		return err
	}
	if totals.taxable.IsZero() {
		return nil
	}
	receivable, err := h.accounts.Resolve(ctx, evt.CompanyID, mappings.KeyReceivable)
	if err != nil {
		return err
	}
	sales, err := h.accounts.Resolve(ctx, evt.CompanyID, mappings.KeySales)
	if err != nil {
		return err
	}
	taxes, err := h.taxLines(ctx, evt.CompanyID, []taxLeg{
		{mappings.KeyOutputIGST, totals.split.IGSTAmount},
		{mappings.KeyOutputCGST, totals.split.CGSTAmount},
		{mappings.KeyOutputSGST, totals.split.SGSTAmount},
	}, false)
	if err != nil {
		return err
	}
	lines := []journals.PostingLineInput{
		{AccountID: receivable, Debit: totals.taxable.Add(totals.split.TotalTaxAmount), PartyKind: journals.PartyCustomer, PartyID: evt.CustomerID},
		{AccountID: sales, Credit: totals.taxable},
	}
	sourceID := SourceID(journals.SourceSalesInvoice, evt.CompanyID, evt.InvoiceID)
	return h.post(ctx, journals.PostingInput{
		CompanyID:          evt.CompanyID,
		EntryDate:          evt.Date,
		Narration:          fmt.Sprintf("Sales Invoice %s", evt.Number),
		SourceDocumentType: journals.SourceSalesInvoice,
		SourceDocumentID:   &sourceID,
		PostedBy:           evt.ActorID,
		Lines:              append(lines, taxes...),
	})
}

// HandlePurchaseBillPosted posts Dr purchases, Dr input tax and Cr payable.
func (h *Hooks) HandlePurchaseBillPosted(ctx context.Context, evt PurchaseBillPostedEvent) error {
	if !h.ready() {
		return nil
	}
	if evt.Date.IsZero() {
		return fmt.Errorf("%w: bill date required", shared.ErrInvalidDate)
	}
	totals, err := h.computeTax(evt.Lines, evt.Buyer, evt.Seller)
	if err != nil {
		return err
	}
	if totals.taxable.IsZero() {
		return nil
	}
	purchases, err := h.accounts.Resolve(ctx, evt.CompanyID, mappings.KeyPurchases)
	if err != nil {
		return err
	}
	payable, err := h.accounts.Resolve(ctx, evt.CompanyID, mappings.KeyPayable)
	if err != nil {
		return err
	}
	taxes, err := h.taxLines(ctx, evt.CompanyID, []taxLeg{
		{mappings.KeyInputIGST, totals.split.IGSTAmount},
		{mappings.KeyInputCGST, totals.split.CGSTAmount},
		{mappings.KeyInputSGST, totals.split.SGSTAmount},
	}, true)
	if err != nil {
		return err
	}
	lines := []journals.PostingLineInput{{AccountID: purchases, Debit: totals.taxable}}
	lines = append(lines, taxes...)
	lines = append(lines, journals.PostingLineInput{
		AccountID: payable,
		Credit:    totals.taxable.Add(totals.split.TotalTaxAmount),
		PartyKind: journals.PartySupplier,
		PartyID:   evt.SupplierID,
	})
	sourceID := SourceID(journals.SourcePurchaseBill, evt.CompanyID, evt.BillID)
	return h.post(ctx, journals.PostingInput{
		CompanyID:          evt.CompanyID,
		EntryDate:          evt.Date,
		Narration:          fmt.Sprintf("Purchase Bill %s", evt.Number),
		SourceDocumentType: journals.SourcePurchaseBill,
		SourceDocumentID:   &sourceID,
		PostedBy:           evt.ActorID,
		Lines:              lines,
	})
}

func (h *Hooks) cashAccount(ctx context.Context, evt PaymentEvent) (int64, error) {
	if evt.AccountID > 0 {
		return evt.AccountID, nil
	}
	return h.accounts.Resolve(ctx, evt.CompanyID, mappings.KeyCash)
}

// HandleInvoicePaymentReceived posts Dr cash/bank, Cr receivable.
func (h *Hooks) HandleInvoicePaymentReceived(ctx context.Context, evt PaymentEvent) error {
	if !h.ready() {
		return nil
	}
	amount := shared.Round2(evt.Amount)
	if !amount.IsPositive() {
		return nil
	}
	cash, err := h.cashAccount(ctx, evt)
	if err != nil {
		return err
	}
	receivable, err := h.accounts.Resolve(ctx, evt.CompanyID, mappings.KeyReceivable)
	if err != nil {
		return err
	}
	sourceID := SourceID(journals.SourceInvoicePayment, evt.CompanyID, evt.PaymentID)
	return h.post(ctx, journals.PostingInput{
		CompanyID:          evt.CompanyID,
		EntryDate:          evt.Date,
		Narration:          fmt.Sprintf("Receipt %s", evt.Number),
		SourceDocumentType: journals.SourceInvoicePayment,
		SourceDocumentID:   &sourceID,
		PostedBy:           evt.ActorID,
		Lines: []journals.PostingLineInput{
			{AccountID: cash, Debit: amount},
			{AccountID: receivable, Credit: amount, PartyKind: journals.PartyCustomer, PartyID: evt.PartyID},
		},
	})
}

// HandleBillPaymentMade posts Dr payable, Cr cash/bank.
func (h *Hooks) HandleBillPaymentMade(ctx context.Context, evt PaymentEvent) error {
	if !h.ready() {
		return nil
	}
	amount := shared.Round2(evt.Amount)
	if !amount.IsPositive() {
		return nil
	}
	cash, err := h.cashAccount(ctx, evt)
	if err != nil {
		return err
	}
	payable, err := h.accounts.Resolve(ctx, evt.CompanyID, mappings.KeyPayable)
	if err != nil {
		return err
	}
	sourceID := SourceID(journals.SourceBillPayment, evt.CompanyID, evt.PaymentID)
	return h.post(ctx, journals.PostingInput{
		CompanyID:          evt.CompanyID,
		EntryDate:          evt.Date,
		Narration:          fmt.Sprintf("Payment %s", evt.Number),
		SourceDocumentType: journals.SourceBillPayment,
		SourceDocumentID:   &sourceID,
		PostedBy:           evt.ActorID,
		Lines: []journals.PostingLineInput{
			{AccountID: payable, Debit: amount, PartyKind: journals.PartySupplier, PartyID: evt.PartyID},
			{AccountID: cash, Credit: amount},
		},
	})
}

// HandleStockIssued posts the cost of goods sold of an outward movement.
func (h *Hooks) HandleStockIssued(ctx context.Context, evt inventory.StockIssuedEvent) error {
	if !h.ready() {
		return nil
	}
	amount := shared.Round2(evt.Value)
	if !amount.IsPositive() {
		return nil
	}
	cogs, err := h.accounts.Resolve(ctx, evt.CompanyID, mappings.KeyCOGS)
	if err != nil {
		return err
	}
	stock, err := h.accounts.Resolve(ctx, evt.CompanyID, mappings.KeyInventory)
	if err != nil {
		return err
	}
	narration := evt.Narration
	if narration == "" {
		narration = fmt.Sprintf("Stock issue %d", evt.MovementID)
	}
	sourceID := SourceID(journals.SourceStockMovement, evt.CompanyID, evt.MovementID)
	return h.post(ctx, journals.PostingInput{
		CompanyID:          evt.CompanyID,
		EntryDate:          evt.Date,
		Narration:          narration,
		SourceDocumentType: journals.SourceStockMovement,
		SourceDocumentID:   &sourceID,
		PostedBy:           evt.ActorID,
		Lines: []journals.PostingLineInput{
			{AccountID: cogs, Debit: amount},
			{AccountID: stock, Credit: amount},
		},
	})
}

// CheckStockIssue fails when the cost of goods sold posting of an issue dated
// date could not be made: a mapping is missing or the period is locked.
func (h *Hooks) CheckStockIssue(ctx context.Context, companyID int64, date time.Time) error {
	if !h.ready() {
		return nil
	}
	for _, key := range []string{mappings.KeyCOGS, mappings.KeyInventory} {
		if _, err := h.accounts.Resolve(ctx, companyID, key); err != nil {
			return err
		}
	}
	if guard, ok := h.ledger.(inventory.PeriodGuard); ok {
		return guard.CheckOpen(ctx, companyID, date)
	}
	return nil
}

var (
	_ inventory.IntegrationHandler = (*Hooks)(nil)
	_ inventory.StockIssueChecker  = (*Hooks)(nil)
	_ inventory.PeriodGuard        = (*journals.Service)(nil)
)
