package report

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/partner"
	"github.com/erp/ledger/internal/domain/report"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Report names used in logs and metrics
const (
	ReportStockLedger   = "stock_ledger"
	ReportPartyBalances = "party_balances"
	ReportDashboard     = "dashboard"
)

// Observer receives report timings
type Observer interface {
	ObserveReport(report string, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveReport(string, time.Duration, error) {}

// Settings holds the tunables of derived reports
type Settings struct {
	TrendMonths          int
	DefaultLowStockAlert decimal.Decimal
}

// ReportService fetches raw records and runs the pure ledger computations over them.
// Nothing is cached: every call recomputes from history.
type ReportService struct {
	items    inventory.ItemRepository
	invoices trade.InvoiceRepository
	payments finance.PaymentRepository
	parties  partner.PartyRepository
	settings Settings
	logger   *zap.Logger
	observer Observer
	now      func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(
	items inventory.ItemRepository,
	invoices trade.InvoiceRepository,
	payments finance.PaymentRepository,
	parties partner.PartyRepository,
	settings Settings,
	logger *zap.Logger,
	observer Observer,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if settings.TrendMonths < 1 {
		settings.TrendMonths = report.DefaultTrendMonths
	}
	if settings.DefaultLowStockAlert.IsZero() {
		settings.DefaultLowStockAlert = inventory.DefaultLowStockAlert
	}
	return &ReportService{
		items:    items,
		invoices: invoices,
		payments: payments,
		parties:  parties,
		settings: settings,
		logger:   logger,
		observer: observer,
		now:      time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// StockLedgerResult is the stock ledger for one period
type StockLedgerResult struct {
	PeriodStart  time.Time                 `json:"period_start"`
	PeriodEnd    time.Time                 `json:"period_end"`
	Rows         []inventory.StockMovement `json:"rows"`
	ClosingValue decimal.Decimal           `json:"closing_value"`
}

// PartyBalancesResult holds every party's balance and the portfolio totals
type PartyBalancesResult struct {
	Balances  []partner.PartyBalance `json:"balances"`
	Portfolio partner.Portfolio      `json:"portfolio"`
}

// StockLedger reconciles every live item over the period.
// Invoices dated on or after the period end cannot affect it and are not fetched.
// Every kind is fetched so the closing quantity agrees with the stock check.
func (s *ReportService) StockLedger(ctx context.Context, period inventory.Period) (result *StockLedgerResult, err error) {
	defer s.observe(ReportStockLedger, time.Now(), &err)

	items, err := s.items.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	end := period.End
	invoices, err := s.invoices.FindAll(ctx, trade.InvoiceFilter{Before: &end})
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}

	rows := inventory.ReconcileAll(items, inventory.StockLinesFromInvoices(invoices), period)
	closingValue := decimal.Zero
	for _, row := range rows {
		closingValue = closingValue.Add(row.ClosingValue())
	}

	s.logger.Debug("stock ledger computed",
		zap.Time("period_start", period.Start),
		zap.Time("period_end", period.End),
		zap.Int("items", len(rows)),
		zap.Int("invoices", len(invoices)),
	)
	return &StockLedgerResult{
		PeriodStart:  period.Start,
		PeriodEnd:    period.End,
		Rows:         rows,
		ClosingValue: closingValue,
	}, nil
}

// PartyBalances computes the running balance of every party
func (s *ReportService) PartyBalances(ctx context.Context) (result *PartyBalancesResult, err error) {
	defer s.observe(ReportPartyBalances, time.Now(), &err)

	balances, err := s.loadBalances(ctx)
	if err != nil {
		return nil, err
	}
	return &PartyBalancesResult{
		Balances:  balances,
		Portfolio: partner.Summarize(balances),
	}, nil
}

// Dashboard builds the combined home screen read model
func (s *ReportService) Dashboard(ctx context.Context) (result *report.Dashboard, err error) {
	defer s.observe(ReportDashboard, time.Now(), &err)

	invoices, err := s.invoices.FindAll(ctx, trade.InvoiceFilter{})
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	items, err := s.items.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	balances, err := s.balancesFrom(ctx, invoices)
	if err != nil {
		return nil, err
	}

	dashboard := report.BuildDashboard(report.DashboardInput{
		Invoices:             invoices,
		Items:                items,
		Balances:             balances,
		Now:                  s.now(),
		TrendMonths:          s.settings.TrendMonths,
		DefaultLowStockAlert: s.settings.DefaultLowStockAlert,
	})
	return &dashboard, nil
}

func (s *ReportService) loadBalances(ctx context.Context) ([]partner.PartyBalance, error) {
	invoices, err := s.invoices.FindAll(ctx, trade.InvoiceFilter{
		Kinds: []trade.InvoiceKind{trade.KindSale, trade.KindPurchase},
	})
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	return s.balancesFrom(ctx, invoices)
}

func (s *ReportService) balancesFrom(ctx context.Context, invoices []*trade.Invoice) ([]partner.PartyBalance, error) {
	parties, err := s.parties.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load parties: %w", err)
	}
	payments, err := s.payments.FindAll(ctx, finance.PaymentFilter{})
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	return partner.CalculateBalances(parties, invoices, payments), nil
}

func (s *ReportService) observe(name string, started time.Time, err *error) {
	elapsed := time.Since(started)
	s.observer.ObserveReport(name, elapsed, *err)
	if *err != nil {
		s.logger.Error("report failed",
			zap.String("report", name),
			zap.Duration("elapsed", elapsed),
			zap.Error(*err),
		)
	}
}
