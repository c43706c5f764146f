package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/ledgers"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/memstore"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/tax"
	"github.com/odyssey-erp/odyssey-ledger/internal/integration"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

const companyID = int64(5)

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var apr1 = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

type env struct {
	store  *memstore.Store
	chart  memstore.Chart
	poster *journals.Service
	hooks  *integration.Hooks
	engine *reports.Engine
}

func newEnv(t *testing.T) env {
	t.Helper()
	store := memstore.New()
	chart := store.SeedChart(companyID)
	poster := journals.NewService(store.Journals(), store.Audit(), nil)
	maps := mappings.NewService(store.Mappings())
	hooks := integration.NewHooks(poster, maps, tax.DefaultCalculator, nil)
	return env{store: store, chart: chart, poster: poster, hooks: hooks, engine: reports.NewEngine(store.Reports(), maps, nil)}
}

func (e env) balance(t *testing.T, code string) string {
	t.Helper()
	v, err := e.engine.AccountBalance(context.Background(), companyID, e.chart[code], apr1.AddDate(0, 1, 0))
	require.NoError(t, err)
	return v.StringFixed(2)
}

var (
	westBengal  = tax.PartyDetails{Name: "Seller Pvt Ltd", State: "West Bengal"}
	kolkataShop = tax.PartyDetails{Name: "Kolkata Traders", State: " west  bengal "}
	mumbaiShop  = tax.PartyDetails{Name: "Mumbai Traders", GSTIN: "27AAPFU0939F1ZV"}
)

func TestSalesInvoiceIntraState(t *testing.T) {
	e := newEnv(t)
	evt := integration.SalesInvoicePostedEvent{
		CompanyID: companyID, InvoiceID: 100, Number: "INV-100", Date: apr1, CustomerID: 9,
		Buyer: kolkataShop, Seller: westBengal,
		Lines: []integration.TaxableLine{{Taxable: amt("1000"), RatePercent: amt("18")}},
	}
	require.NoError(t, e.hooks.HandleSalesInvoicePosted(context.Background(), evt))
	require.NoError(t, e.hooks.HandleSalesInvoicePosted(context.Background(), evt), "redelivery is a no-op")
	require.Equal(t, 1, e.store.EntryCount(companyID))

	require.Equal(t, "1180.00", e.balance(t, "1300"))
	require.Equal(t, "1000.00", e.balance(t, "4100"))
	require.Equal(t, "90.00", e.balance(t, "2220"))
	require.Equal(t, "90.00", e.balance(t, "2230"))
	require.Equal(t, "0.00", e.balance(t, "2210"))
}

func TestSalesInvoiceInterStateAndReceipt(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.hooks.HandleSalesInvoicePosted(context.Background(), integration.SalesInvoicePostedEvent{
		CompanyID: companyID, InvoiceID: 101, Number: "INV-101", Date: apr1, CustomerID: 9,
		Buyer: mumbaiShop, Seller: westBengal,
		Lines: []integration.TaxableLine{
			{Taxable: amt("600"), RatePercent: amt("18")},
			{Taxable: amt("400"), RatePercent: amt("5")},
		},
	}))
	require.Equal(t, "128.00", e.balance(t, "2210"))
	require.Equal(t, "1128.00", e.balance(t, "1300"))

	require.NoError(t, e.hooks.HandleInvoicePaymentReceived(context.Background(), integration.PaymentEvent{
		CompanyID: companyID, PaymentID: 1, Number: "RCPT-1", Date: apr1.AddDate(0, 0, 3), PartyID: 9,
		Amount: amt("1000"), AccountID: e.chart["1200"],
	}))
	require.Equal(t, "128.00", e.balance(t, "1300"))
	require.Equal(t, "1000.00", e.balance(t, "1200"))

	reader := ledgers.NewReader(e.store.Ledgers(), nil, nil)
	st, err := reader.Statement(context.Background(), ledgers.Query{CompanyID: companyID, SubjectID: 9, Kind: ledgers.KindCustomer, Range: shared.Through(apr1.AddDate(0, 1, 0))})
	require.NoError(t, err)
	rows, err := st.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "128.00", rows[1].RunningBalance.StringFixed(2))
}

func TestPurchaseBillAndPayment(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.hooks.HandlePurchaseBillPosted(context.Background(), integration.PurchaseBillPostedEvent{
		CompanyID: companyID, BillID: 7, Number: "BILL-7", Date: apr1, SupplierID: 33,
		Buyer: westBengal, Seller: kolkataShop,
		Lines: []integration.TaxableLine{{Taxable: amt("100.05"), RatePercent: amt("18")}},
	}))
	require.Equal(t, "100.05", e.balance(t, "1400"))
	require.Equal(t, "9.00", e.balance(t, "1520"))
	require.Equal(t, "9.01", e.balance(t, "1530"))
	require.Equal(t, "118.06", e.balance(t, "2100"))

	require.NoError(t, e.hooks.HandleBillPaymentMade(context.Background(), integration.PaymentEvent{
		CompanyID: companyID, PaymentID: 8, Number: "PAY-8", Date: apr1, PartyID: 33, Amount: amt("118.06"),
	}))
	require.Equal(t, "0.00", e.balance(t, "2100"))
	require.Equal(t, "-118.06", e.balance(t, "1100"))
}

func TestStockIssueProducesCOGS(t *testing.T) {
	e := newEnv(t)
	svc := inventory.NewService(e.store.Inventory(), e.store.Audit(), e.store.Idempotency(), inventory.ServiceConfig{}, e.hooks)
	ctx := context.Background()
	_, _, err := svc.RecordInward(ctx, inventory.InwardInput{CompanyID: companyID, ProductID: 1, Date: apr1, Qty: amt("10"), UnitCost: amt("50")})
	require.NoError(t, err)
	_, _, err = svc.RecordOutward(ctx, inventory.OutwardInput{CompanyID: companyID, ProductID: 1, Date: apr1, Qty: amt("4")})
	require.NoError(t, err)
	require.Equal(t, "200.00", e.balance(t, "5100"))
	require.Equal(t, "-200.00", e.balance(t, "1400"))
}

func TestStockIssueInLockedPeriodLeavesNoMovement(t *testing.T) {
	e := newEnv(t)
	svc := inventory.NewService(e.store.Inventory(), e.store.Audit(), e.store.Idempotency(), inventory.ServiceConfig{Locks: e.poster.Locks()}, e.hooks)
	ctx := context.Background()
	_, _, err := svc.RecordInward(ctx, inventory.InwardInput{CompanyID: companyID, ProductID: 1, Date: apr1, Qty: amt("10"), UnitCost: amt("50")})
	require.NoError(t, err)
	e.store.SetLock(periods.Lock{CompanyID: companyID, LockedThrough: apr1.AddDate(0, 0, 2)})

	src := integration.SourceID(journals.SourceStockMovement, companyID, 77)
	out := inventory.OutwardInput{CompanyID: companyID, ProductID: 1, Date: apr1.AddDate(0, 0, 1), Qty: amt("4"), SourceDocumentType: "sales_invoice", SourceDocumentID: &src}
	_, _, err = svc.RecordOutward(ctx, out)
	require.ErrorIs(t, err, shared.ErrInvalidDate)
	bal, ok := e.store.StockBalance(companyID, 1)
	require.True(t, ok)
	require.Equal(t, "10", bal.Qty.String())
	require.Zero(t, e.store.EntryCount(companyID))

	out.Date = apr1.AddDate(0, 0, 3)
	_, _, err = svc.RecordOutward(ctx, out)
	require.NoError(t, err, "the rejected issue did not claim its source document")
	require.Equal(t, "200.00", e.balance(t, "5100"))
}

func TestMissingMappingFails(t *testing.T) {
	store := memstore.New()
	poster := journals.NewService(store.Journals(), nil, nil)
	hooks := integration.NewHooks(poster, mappings.NewService(store.Mappings()), tax.DefaultCalculator, nil)
	err := hooks.HandleBillPaymentMade(context.Background(), integration.PaymentEvent{
		CompanyID: companyID, PaymentID: 1, Date: apr1, PartyID: 1, Amount: amt("10"),
	})
	require.ErrorIs(t, err, shared.ErrMappingNotFound)
}

func TestInvalidPartyRejected(t *testing.T) {
	e := newEnv(t)
	err := e.hooks.HandleSalesInvoicePosted(context.Background(), integration.SalesInvoicePostedEvent{
		CompanyID: companyID, InvoiceID: 1, Date: apr1, CustomerID: 9,
		Buyer:  tax.PartyDetails{GSTIN: "short"},
		Seller: westBengal,
		Lines:  []integration.TaxableLine{{Taxable: amt("10"), RatePercent: amt("18")}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidTaxInput)
	require.Zero(t, e.store.EntryCount(companyID))
}

func TestSourceIDIsStable(t *testing.T) {
	a := integration.SourceID(journals.SourceSalesInvoice, 1, 2)
	require.Equal(t, a, integration.SourceID(journals.SourceSalesInvoice, 1, 2))
	require.NotEqual(t, a, integration.SourceID(journals.SourcePurchaseBill, 1, 2))
	require.NotEqual(t, a, integration.SourceID(journals.SourceSalesInvoice, 2, 2))
}
