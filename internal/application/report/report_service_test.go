package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/partner"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingObserver struct {
	calls []string
	errs  []error
}

func (o *recordingObserver) ObserveReport(report string, _ time.Duration, err error) {
	o.calls = append(o.calls, report)
	o.errs = append(o.errs, err)
}

type fixture struct {
	items    *testutil.MockItemRepository
	invoices *testutil.MockInvoiceRepository
	payments *testutil.MockPaymentRepository
	parties  *testutil.MockPartyRepository
	observer *recordingObserver
	service  *ReportService
}

func newFixture() *fixture {
	f := &fixture{
		items:    new(testutil.MockItemRepository),
		invoices: new(testutil.MockInvoiceRepository),
		payments: new(testutil.MockPaymentRepository),
		parties:  new(testutil.MockPartyRepository),
		observer: &recordingObserver{},
	}
	f.service = NewReportService(f.items, f.invoices, f.payments, f.parties, Settings{}, zap.NewNop(), f.observer)
	return f
}

func newInvoice(t *testing.T, kind trade.InvoiceKind, partyID, itemID uuid.UUID, date time.Time, qty, rate string) *trade.Invoice {
	t.Helper()
	draft := trade.LineDraft{
		ItemID:    itemID,
		ItemName:  "Bolt",
		LineInput: trade.LineInput{Quantity: testutil.Dec(qty), Rate: testutil.Dec(rate)},
	}
	inv, err := trade.NewInvoice(kind, "INV-1", partyID, date, nil, []trade.LineDraft{draft}, trade.WithholdingRates{})
	require.NoError(t, err)
	return inv
}

func TestReportService_StockLedger(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	item, err := inventory.NewItem("Bolt", "pcs", testutil.Dec("50"), testutil.Dec("90"), testutil.Dec("120"))
	require.NoError(t, err)
	party := uuid.New()

	period, err := inventory.NewPeriod(testutil.Date(2026, 4, 1), testutil.Date(2026, 5, 1))
	require.NoError(t, err)

	invoices := []*trade.Invoice{
		newInvoice(t, trade.KindPurchase, party, item.ID, testutil.Date(2026, 3, 5), "20", "90"),
		newInvoice(t, trade.KindSale, party, item.ID, testutil.Date(2026, 3, 20), "10", "120"),
		newInvoice(t, trade.KindPurchase, party, item.ID, testutil.Date(2026, 4, 2), "30", "100"),
		newInvoice(t, trade.KindSale, party, item.ID, testutil.Date(2026, 4, 15), "40", "130"),
		newInvoice(t, trade.KindSaleReturn, party, item.ID, testutil.Date(2026, 4, 20), "2", "130"),
	}

	f.items.On("FindActive", ctx).Return([]*inventory.Item{item}, nil)
	f.invoices.On("FindAll", ctx, mock.MatchedBy(func(filter trade.InvoiceFilter) bool {
		return filter.Before != nil && filter.Before.Equal(period.End) && len(filter.Kinds) == 0
	})).Return(invoices, nil)

	result, err := f.service.StockLedger(ctx, period)
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	row := result.Rows[0]
	assert.True(t, testutil.Dec("60").Equal(row.OpeningQty), "opening %s", row.OpeningQty)
	assert.True(t, testutil.Dec("100").Equal(row.PurchaseAvgPrice))
	assert.True(t, testutil.Dec("2").Equal(row.OtherInQty))
	assert.True(t, testutil.Dec("52").Equal(row.ClosingQty))
	assert.True(t, testutil.Dec("5200").Equal(result.ClosingValue))

	assert.Equal(t, []string{ReportStockLedger}, f.observer.calls)
	assert.NoError(t, f.observer.errs[0])
	f.items.AssertExpectations(t)
	f.invoices.AssertExpectations(t)
}

func TestReportService_StockLedger_RepositoryError(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	period := inventory.MonthPeriod(2026, time.April, time.UTC)

	f.items.On("FindActive", ctx).Return(nil, errors.New("connection refused"))

	result, err := f.service.StockLedger(ctx, period)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load items")
	require.Len(t, f.observer.errs, 1)
	assert.Error(t, f.observer.errs[0])
	f.invoices.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}

func TestReportService_PartyBalances(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	customer, err := partner.NewParty("Acme Retail", partner.PartyTypeCustomer, testutil.Dec("500"))
	require.NoError(t, err)
	supplier, err := partner.NewParty("Steel Works", partner.PartyTypeSupplier, testutil.Dec("0"))
	require.NoError(t, err)

	item := uuid.New()
	sale := newInvoice(t, trade.KindSale, customer.ID, item, testutil.Date(2026, 4, 1), "30", "100")
	purchase := newInvoice(t, trade.KindPurchase, supplier.ID, item, testutil.Date(2026, 4, 1), "4", "100")

	in, err := finance.NewPayment(customer.ID, finance.DirectionIn, testutil.Dec("2000"), testutil.Date(2026, 4, 5))
	require.NoError(t, err)

	f.invoices.On("FindAll", ctx, mock.AnythingOfType("trade.InvoiceFilter")).Return([]*trade.Invoice{sale, purchase}, nil)
	f.parties.On("FindAll", ctx).Return([]*partner.Party{customer, supplier}, nil)
	f.payments.On("FindAll", ctx, finance.PaymentFilter{}).Return([]*finance.Payment{in}, nil)

	result, err := f.service.PartyBalances(ctx)
	require.NoError(t, err)

	require.Len(t, result.Balances, 2)
	assert.True(t, testutil.Dec("1500").Equal(result.Balances[0].NetDue))
	assert.True(t, testutil.Dec("400").Equal(result.Balances[1].NetDue))
	assert.True(t, testutil.Dec("1100").Equal(result.Portfolio.NetBalance))
	assert.Equal(t, partner.LabelNetReceivable, result.Portfolio.Label)
}

func TestReportService_Dashboard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	now := time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC)
	f.service.WithClock(func() time.Time { return now })

	item, err := inventory.NewItem("Bolt", "pcs", testutil.Dec("3"), testutil.Dec("1"), testutil.Dec("2"))
	require.NoError(t, err)
	customer, err := partner.NewParty("Acme Retail", partner.PartyTypeCustomer, testutil.Dec("0"))
	require.NoError(t, err)
	sale := newInvoice(t, trade.KindSale, customer.ID, item.ID, testutil.Date(2026, 4, 2), "2", "50")

	f.invoices.On("FindAll", ctx, trade.InvoiceFilter{}).Return([]*trade.Invoice{sale}, nil)
	f.items.On("FindActive", ctx).Return([]*inventory.Item{item}, nil)
	f.parties.On("FindAll", ctx).Return([]*partner.Party{customer}, nil)
	f.payments.On("FindAll", ctx, finance.PaymentFilter{}).Return([]*finance.Payment{}, nil)

	dash, err := f.service.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, now, dash.GeneratedAt)
	require.Len(t, dash.Trend, 9)
	assert.True(t, testutil.Dec("100").Equal(dash.Trend[8].Sales))
	assert.True(t, testutil.Dec("100").Equal(dash.Outstanding.Receivable))
	require.Len(t, dash.StockAlerts, 1)
	assert.Equal(t, "Bolt", dash.StockAlerts[0].ItemName)
	assert.Equal(t, []string{ReportDashboard}, f.observer.calls)
}
