package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/tax"
	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	"github.com/odyssey-erp/odyssey-ledger/internal/integration"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

type chartRow struct {
	code     string
	name     string
	accType  accounts.AccountType
	category string
}

var chart = []chartRow{
	// Assets
	{"1100", "Cash in Hand", accounts.AccountTypeAsset, accounts.CategoryCash},
	{"1200", "Bank Current Account", accounts.AccountTypeAsset, accounts.CategoryBank},
	{"1300", "Accounts Receivable", accounts.AccountTypeAsset, accounts.CategoryReceivable},
	{"1400", "Inventory", accounts.AccountTypeAsset, accounts.CategoryInventory},
	{"1510", "Input IGST", accounts.AccountTypeAsset, accounts.CategoryTax},
	{"1520", "Input CGST", accounts.AccountTypeAsset, accounts.CategoryTax},
	{"1530", "Input SGST", accounts.AccountTypeAsset, accounts.CategoryTax},
	// Liabilities
	{"2100", "Accounts Payable", accounts.AccountTypeLiability, accounts.CategoryPayable},
	{"2210", "Output IGST", accounts.AccountTypeLiability, accounts.CategoryTax},
	{"2220", "Output CGST", accounts.AccountTypeLiability, accounts.CategoryTax},
	{"2230", "Output SGST", accounts.AccountTypeLiability, accounts.CategoryTax},
	// Equity
	{"3100", "Owner Capital", accounts.AccountTypeEquity, ""},
	// Income
	{"4100", "Sales", accounts.AccountTypeIncome, accounts.CategorySales},
	{"4900", "Interest Income", accounts.AccountTypeIncome, ""},
	// Expenses
	{"5100", "Cost of Goods Sold", accounts.AccountTypeExpense, accounts.CategoryCOGS},
	{"5200", "Freight Inward", accounts.AccountTypeExpense, accounts.CategoryDirect},
	{"6100", "Salaries", accounts.AccountTypeExpense, accounts.CategoryEmployee},
	{"6200", "Bank Interest", accounts.AccountTypeExpense, accounts.CategoryFinance},
	{"6300", "Depreciation", accounts.AccountTypeExpense, accounts.CategoryDepreciate},
	{"6900", "Rent", accounts.AccountTypeExpense, accounts.CategoryIndirect},
}

var systemMappings = map[string]string{
	mappings.KeyCash:       "1100",
	mappings.KeyReceivable: "1300",
	mappings.KeyInventory:  "1400",
	mappings.KeyPurchases:  "1400",
	mappings.KeyInputIGST:  "1510",
	mappings.KeyInputCGST:  "1520",
	mappings.KeyInputSGST:  "1530",
	mappings.KeyPayable:    "2100",
	mappings.KeyOutputIGST: "2210",
	mappings.KeyOutputCGST: "2220",
	mappings.KeyOutputSGST: "2230",
	mappings.KeySales:      "4100",
	mappings.KeyCOGS:       "5100",
}

func main() {
	companyID := flag.Int64("company", 1, "company to seed")
	demo := flag.Bool("demo", false, "post a demo invoice, bill and payments")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.PGDSN == "" {
		log.Fatal("PG_DSN is required")
	}
	ctx := context.Background()
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PoolOptions())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	fmt.Println("→ Seeding chart of accounts...")
	ids, err := seedChart(ctx, pool, *companyID)
	if err != nil {
		log.Fatalf("seed chart: %v", err)
	}
	fmt.Println("→ Seeding account mappings...")
	if err := seedMappings(ctx, pool, *companyID, ids); err != nil {
		log.Fatalf("seed mappings: %v", err)
	}
	if *demo {
		fmt.Println("→ Posting demo documents...")
		if err := seedDemo(ctx, cfg, pool, *companyID); err != nil {
			log.Fatalf("seed demo: %v", err)
		}
	}
	fmt.Println("✓ Seed complete")
}

func seedChart(ctx context.Context, pool *pgxpool.Pool, companyID int64) (map[string]int64, error) {
	ids := make(map[string]int64, len(chart))
	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for _, a := range chart {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO accounts (company_id, code, name, type, category, is_active)
				VALUES ($1, $2, $3, $4, $5, TRUE)
				ON CONFLICT (company_id, code) DO UPDATE SET name = EXCLUDED.name
				RETURNING id`, companyID, a.code, a.name, string(a.accType), a.category).Scan(&id)
			if err != nil {
				return fmt.Errorf("account %s: %w", a.code, err)
			}
			ids[a.code] = id
		}
		return nil
	})
	return ids, err
}

func seedMappings(ctx context.Context, pool *pgxpool.Pool, companyID int64, ids map[string]int64) error {
	return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for key, code := range systemMappings {
			_, err := tx.Exec(ctx, `
				INSERT INTO account_mappings (company_id, key, account_id)
				VALUES ($1, $2, $3)
				ON CONFLICT (company_id, key) DO UPDATE SET account_id = EXCLUDED.account_id, updated_at = NOW()`,
				companyID, key, ids[code])
			if err != nil {
				return fmt.Errorf("mapping %s: %w", key, err)
			}
		}
		return nil
	})
}

// seedDemo runs documents through the integration hooks so that the demo
// entries carry source links and stay idempotent across reruns.
func seedDemo(ctx context.Context, cfg *app.Config, pool *pgxpool.Pool, companyID int64) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ledger := app.BuildLedger(cfg, app.PostgresStores(pool), app.LedgerDeps{Logger: logger})

	seller := tax.PartyDetails{Name: "Odyssey Traders", State: "Karnataka", StateCode: "29"}
	day := time.Now().UTC().AddDate(0, 0, -7).Truncate(24 * time.Hour)

	if err := ledger.Hooks.HandlePurchaseBillPosted(ctx, integration.PurchaseBillPostedEvent{
		CompanyID:  companyID,
		BillID:     1,
		Number:     "BILL-0001",
		Date:       day,
		SupplierID: 7,
		Buyer:      seller,
		Seller:     tax.PartyDetails{Name: "Kerala Spices Co", State: "Kerala", StateCode: "32"},
		Lines: []integration.TaxableLine{
			{Description: "Cardamom 50kg", Taxable: decimal.NewFromInt(60000), RatePercent: decimal.NewFromInt(5)},
		},
	}); err != nil {
		return fmt.Errorf("purchase bill: %w", err)
	}
	if err := ledger.Hooks.HandleSalesInvoicePosted(ctx, integration.SalesInvoicePostedEvent{
		CompanyID:  companyID,
		InvoiceID:  1,
		Number:     "INV-0001",
		Date:       day.AddDate(0, 0, 2),
		CustomerID: 42,
		Buyer:      tax.PartyDetails{Name: "Bengaluru Foods", State: "Karnataka", StateCode: "29"},
		Seller:     seller,
		Lines: []integration.TaxableLine{
			{Description: "Cardamom 20kg", Taxable: decimal.NewFromInt(36000), RatePercent: decimal.NewFromInt(5)},
			{Description: "Packing", Taxable: decimal.NewFromInt(2000), RatePercent: decimal.NewFromInt(18)},
		},
	}); err != nil {
		return fmt.Errorf("sales invoice: %w", err)
	}
	if err := ledger.Hooks.HandleInvoicePaymentReceived(ctx, integration.PaymentEvent{
		CompanyID: companyID,
		PaymentID: 1,
		Number:    "RCPT-0001",
		Date:      day.AddDate(0, 0, 4),
		PartyID:   42,
		Amount:    decimal.NewFromInt(20000),
	}); err != nil {
		return fmt.Errorf("invoice payment: %w", err)
	}
	if err := ledger.Hooks.HandleBillPaymentMade(ctx, integration.PaymentEvent{
		CompanyID: companyID,
		PaymentID: 2,
		Number:    "PAY-0001",
		Date:      day.AddDate(0, 0, 5),
		PartyID:   7,
		Amount:    decimal.NewFromInt(63000),
	}); err != nil {
		return fmt.Errorf("bill payment: %w", err)
	}

	tb, err := ledger.Reports.TrialBalance(ctx, companyID, time.Now().UTC())
	if err != nil {
		return err
	}
	fmt.Printf("  trial balance: debits=%s credits=%s balanced=%t\n", tb.TotalDebits.StringFixed(2), tb.TotalCredits.StringFixed(2), tb.IsBalanced)
	return nil
}
