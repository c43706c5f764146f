package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

type stockKey struct{ company, product int64 }

type memoryRepo struct {
	balances  map[stockKey]Balance
	movements []Movement
	nextID    int64
	failOn    string
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{balances: make(map[stockKey]Balance)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[stockKey]Balance, len(r.balances))
	for k, v := range r.balances {
		snapshot[k] = v
	}
	n := len(r.movements)
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.balances = snapshot
		r.movements = r.movements[:n]
		return err
	}
	return nil
}

func (tx *memoryTx) GetBalanceForUpdate(ctx context.Context, companyID, productID int64) (Balance, error) {
	if bal, ok := tx.repo.balances[stockKey{companyID, productID}]; ok {
		return bal, nil
	}
	return Balance{CompanyID: companyID, ProductID: productID}, ErrBalanceNotFound
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	if tx.repo.failOn == "insert" {
		return Movement{}, shared.Unavailable("inventory: insert movement", errors.New("boom"))
	}
	tx.repo.nextID++
	m.ID = tx.repo.nextID
	tx.repo.movements = append(tx.repo.movements, m)
	return m, nil
}

func (tx *memoryTx) LockCompany(ctx context.Context, companyID int64) error { return nil }

func (tx *memoryTx) FindMovementBySource(ctx context.Context, companyID, productID int64, sourceType string, sourceID uuid.UUID) (Movement, bool, error) {
	for _, m := range tx.repo.movements {
		if m.CompanyID == companyID && m.ProductID == productID && m.SourceDocumentType == sourceType &&
			m.SourceDocumentID != nil && *m.SourceDocumentID == sourceID {
			return m, true, nil
		}
	}
	return Movement{}, false, nil
}

func (tx *memoryTx) UpsertBalance(ctx context.Context, b Balance) error {
	tx.repo.balances[stockKey{b.CompanyID, b.ProductID}] = b
	return nil
}

type memoryIdem struct{ keys map[string]bool }

func (m *memoryIdem) CheckAndInsert(ctx context.Context, key, module string) error {
	if m.keys == nil {
		m.keys = map[string]bool{}
	}
	if m.keys[key] {
		return internalShared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdem) Delete(ctx context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

type recordingHandler struct {
	events []StockIssuedEvent
	err    error
}

func (h *recordingHandler) HandleStockIssued(ctx context.Context, evt StockIssuedEvent) error {
	h.events = append(h.events, evt)
	return h.err
}

// checkingHandler refuses issues up front with checkErr.
type checkingHandler struct {
	recordingHandler
	checkErr error
}

func (h *checkingHandler) CheckStockIssue(ctx context.Context, companyID int64, date time.Time) error {
	return h.checkErr
}

type lockedThrough time.Time

func (l lockedThrough) CheckOpen(ctx context.Context, companyID int64, date time.Time) error {
	if !date.After(time.Time(l)) {
		return shared.ErrInvalidDate
	}
	return nil
}

type bumpCounter struct{ n int }

func (b *bumpCounter) Bump(ctx context.Context, companyID int64) error {
	b.n++
	return nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	apr1 = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	apr2 = apr1.AddDate(0, 0, 1)
	apr5 = apr1.AddDate(0, 0, 4)
)

func TestAverageMovingCost(t *testing.T) {
	repo := newMemoryRepo()
	bumps := &bumpCounter{}
	svc := NewService(repo, nil, nil, ServiceConfig{}, nil)
	svc.WithInvalidator(bumps)
	ctx := context.Background()

	_, pos, err := svc.RecordInward(ctx, InwardInput{CompanyID: 1, ProductID: 9, Date: apr1, Qty: d("10"), UnitCost: d("50")})
	require.NoError(t, err)
	require.True(t, pos.AvgCost.Equal(d("50")))

	_, pos, err = svc.RecordInward(ctx, InwardInput{CompanyID: 1, ProductID: 9, Date: apr2, Qty: d("5"), UnitCost: d("80")})
	require.NoError(t, err)
	require.True(t, pos.Qty.Equal(d("15")))
	require.Equal(t, "60.00", pos.AvgCost.StringFixed(2))
	require.Equal(t, "900.00", pos.Value().StringFixed(2))
	require.Equal(t, 2, bumps.n)

	bal := repo.balances[stockKey{1, 9}]
	require.True(t, bal.Qty.Equal(d("15")))
	require.True(t, bal.LastMovement.Equal(apr2))
}

func TestOutwardValuedAtAverageCost(t *testing.T) {
	repo := newMemoryRepo()
	handler := &recordingHandler{}
	svc := NewService(repo, nil, nil, ServiceConfig{}, handler)
	ctx := context.Background()

	_, _, err := svc.RecordInward(ctx, InwardInput{CompanyID: 1, ProductID: 9, Date: apr1, Qty: d("3"), UnitCost: d("10.10")})
	require.NoError(t, err)
	_, _, err = svc.RecordInward(ctx, InwardInput{CompanyID: 1, ProductID: 9, Date: apr1, Qty: d("2"), UnitCost: d("12.20")})
	require.NoError(t, err)

	m, pos, err := svc.RecordOutward(ctx, OutwardInput{CompanyID: 1, ProductID: 9, Date: apr5, Qty: d("4"), Narration: "issue"})
	require.NoError(t, err)
	require.True(t, m.UnitCost.Equal(d("10.94")))
	require.True(t, pos.Qty.Equal(d("1")))
	require.Len(t, handler.events, 1)
	evt := handler.events[0]
	require.Equal(t, m.ID, evt.MovementID)
	require.Equal(t, "43.76", evt.Value.StringFixed(2))

	_, pos, err = svc.RecordOutward(ctx, OutwardInput{CompanyID: 1, ProductID: 9, Date: apr5, Qty: d("1")})
	require.NoError(t, err)
	require.True(t, pos.Qty.IsZero())
	require.True(t, pos.AvgCost.IsZero())
}

func TestNegativeStockGuard(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{}, nil)
	ctx := context.Background()
	_, _, err := svc.RecordInward(ctx, InwardInput{CompanyID: 1, ProductID: 9, Date: apr1, Qty: d("1"), UnitCost: d("5")})
	require.NoError(t, err)
	_, _, err = svc.RecordOutward(ctx, OutwardInput{CompanyID: 1, ProductID: 9, Date: apr2, Qty: d("2")})
	require.ErrorIs(t, err, ErrNegativeStock)
	require.Len(t, repo.movements, 1)

	lenient := NewService(repo, nil, nil, ServiceConfig{AllowNegativeStock: true}, nil)
	_, pos, err := lenient.RecordOutward(ctx, OutwardInput{CompanyID: 1, ProductID: 9, Date: apr2, Qty: d("2")})
	require.NoError(t, err)
	require.True(t, pos.Qty.Equal(d("-1")))

	_, pos, err = lenient.RecordInward(ctx, InwardInput{CompanyID: 1, ProductID: 9, Date: apr5, Qty: d("4"), UnitCost: d("7")})
	require.NoError(t, err)
	require.True(t, pos.Qty.Equal(d("3")))
	require.True(t, pos.AvgCost.Equal(d("7")))
}

func TestMovementValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, ServiceConfig{}, nil)
	ctx := context.Background()
	_, _, err := svc.RecordInward(ctx, InwardInput{CompanyID: 1, ProductID: 9, Date: apr1, Qty: d("0"), UnitCost: d("5")})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, _, err = svc.RecordInward(ctx, InwardInput{CompanyID: 1, ProductID: 9, Date: apr1, Qty: d("1"), UnitCost: d("-5")})
	require.ErrorIs(t, err, ErrInvalidUnitCost)
	_, _, err = svc.RecordOutward(ctx, OutwardInput{CompanyID: 1, ProductID: 9, Date: apr1, Qty: d("-1")})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, _, err = svc.RecordInward(ctx, InwardInput{CompanyID: 1, ProductID: 9, Date: apr5, Qty: d("1"), UnitCost: d("5")})
	require.NoError(t, err)
	_, _, err = svc.RecordInward(ctx, InwardInput{CompanyID: 1, ProductID: 9, Date: apr2, Qty: d("1"), UnitCost: d("5")})
	require.ErrorIs(t, err, ErrBackdatedMovement)
}

func TestSourceDocumentRecordedOnce(t *testing.T) {
	repo := newMemoryRepo()
	idem := &memoryIdem{}
	svc := NewService(repo, nil, idem, ServiceConfig{}, nil)
	ctx := context.Background()
	src := uuid.New()
	in := InwardInput{CompanyID: 1, ProductID: 9, Date: apr1, Qty: d("1"), UnitCost: d("5"), SourceDocumentType: "purchase_bill", SourceDocumentID: &src}

	_, _, err := svc.RecordInward(ctx, in)
	require.NoError(t, err)
	_, _, err = svc.RecordInward(ctx, in)
	require.ErrorIs(t, err, shared.ErrSourceAlreadyLinked)
	require.Len(t, repo.movements, 1)

	in.ProductID = 10
	repo.failOn = "insert"
	_, _, err = svc.RecordInward(ctx, in)
	require.ErrorIs(t, err, shared.ErrDataUnavailable)
	repo.failOn = ""
	_, _, err = svc.RecordInward(ctx, in)
	require.NoError(t, err, "failed movements release their idempotency key")
}

func TestOutwardRejectedBeforeMovement(t *testing.T) {
	repo := newMemoryRepo()
	handler := &checkingHandler{}
	svc := NewService(repo, nil, nil, ServiceConfig{}, handler)
	ctx := context.Background()
	_, _, err := svc.RecordInward(ctx, InwardInput{CompanyID: 1, ProductID: 9, Date: apr1, Qty: d("5"), UnitCost: d("10")})
	require.NoError(t, err)

	handler.checkErr = shared.ErrMappingNotFound
	_, _, err = svc.RecordOutward(ctx, OutwardInput{CompanyID: 1, ProductID: 9, Date: apr2, Qty: d("2")})
	require.ErrorIs(t, err, shared.ErrMappingNotFound)
	require.Len(t, repo.movements, 1)
	require.Empty(t, handler.events)
	require.True(t, repo.balances[stockKey{1, 9}].Qty.Equal(d("5")))

	handler.checkErr = nil
	_, pos, err := svc.RecordOutward(ctx, OutwardInput{CompanyID: 1, ProductID: 9, Date: apr2, Qty: d("2")})
	require.NoError(t, err)
	require.True(t, pos.Qty.Equal(d("3")))
	require.Len(t, handler.events, 1)
}

func TestOutwardRetryRedrivesCostPosting(t *testing.T) {
	repo := newMemoryRepo()
	handler := &recordingHandler{err: errors.New("ledger down")}
	svc := NewService(repo, nil, &memoryIdem{}, ServiceConfig{}, handler)
	ctx := context.Background()
	_, _, err := svc.RecordInward(ctx, InwardInput{CompanyID: 1, ProductID: 9, Date: apr1, Qty: d("5"), UnitCost: d("10")})
	require.NoError(t, err)

	src := uuid.New()
	out := OutwardInput{CompanyID: 1, ProductID: 9, Date: apr2, Qty: d("2"), SourceDocumentType: "sales_invoice", SourceDocumentID: &src}
	m, _, err := svc.RecordOutward(ctx, out)
	require.Error(t, err)
	require.Len(t, repo.movements, 2)
	require.Len(t, handler.events, 1)

	handler.err = nil
	_, _, err = svc.RecordOutward(ctx, out)
	require.ErrorIs(t, err, shared.ErrSourceAlreadyLinked)
	require.Len(t, repo.movements, 2)
	require.Len(t, handler.events, 2)
	require.Equal(t, m.ID, handler.events[1].MovementID)
	require.Equal(t, "20.00", handler.events[1].Value.StringFixed(2))
}

func TestMovementInsideLockedPeriodRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{Periods: lockedThrough(apr1)}, nil)
	ctx := context.Background()
	_, _, err := svc.RecordInward(ctx, InwardInput{CompanyID: 1, ProductID: 9, Date: apr1, Qty: d("5"), UnitCost: d("10")})
	require.ErrorIs(t, err, shared.ErrInvalidDate)
	require.Empty(t, repo.movements)

	_, _, err = svc.RecordInward(ctx, InwardInput{CompanyID: 1, ProductID: 9, Date: apr2, Qty: d("5"), UnitCost: d("10")})
	require.NoError(t, err)
}
