package report

import (
	"slices"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/partner"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTrendMonths is the trailing window used when no length is configured
const DefaultTrendMonths = 9

var hundred = decimal.NewFromInt(100)

// MonthlyPoint is one calendar month of sales and purchase totals
type MonthlyPoint struct {
	Month     time.Time       `json:"month"`
	Label     string          `json:"label"` // e.g. "2026-04"
	Sales     decimal.Decimal `json:"sales"`
	Purchases decimal.Decimal `json:"purchases"`
}

// Comparison pairs this period's figure with the previous one
type Comparison struct {
	Current       decimal.Decimal `json:"current"`
	Previous      decimal.Decimal `json:"previous"`
	PercentChange decimal.Decimal `json:"percent_change"`
}

// MonthOverMonthSummary compares this month with last month
type MonthOverMonthSummary struct {
	Sales     Comparison `json:"sales"`
	Purchases Comparison `json:"purchases"`
}

// StockAlert is an item at or below its alert threshold
type StockAlert struct {
	ItemID       uuid.UUID             `json:"item_id"`
	ItemName     string                `json:"item_name"`
	Unit         string                `json:"unit"`
	CurrentStock decimal.Decimal       `json:"current_stock"`
	Threshold    decimal.Decimal       `json:"threshold"`
	Status       inventory.StockStatus `json:"status"`
}

// OverdueInvoice is a read model row for an invoice past its due date
type OverdueInvoice struct {
	InvoiceID   uuid.UUID         `json:"invoice_id"`
	Number      string            `json:"number"`
	Kind        trade.InvoiceKind `json:"kind"`
	PartyID     uuid.UUID         `json:"party_id"`
	DueDate     time.Time         `json:"due_date"`
	BalanceDue  decimal.Decimal   `json:"balance_due"`
	DaysOverdue int               `json:"days_overdue"`
}

// OutstandingSummary totals open balances on live sale and purchase invoices.
// Overdue figures are kept per side; money owed to us and money we owe never net.
type OutstandingSummary struct {
	Receivable             decimal.Decimal `json:"receivable"`
	Payable                decimal.Decimal `json:"payable"`
	OverdueReceivable      decimal.Decimal `json:"overdue_receivable"`
	OverdueReceivableCount int             `json:"overdue_receivable_count"`
	OverduePayable         decimal.Decimal `json:"overdue_payable"`
	OverduePayableCount    int             `json:"overdue_payable_count"`
}

// isLedgerInvoice filters out deleted invoices and kinds that do not post to the ledger
func isLedgerInvoice(inv *trade.Invoice) bool {
	return inv != nil && !inv.IsDeleted && inv.Kind.CountsTowardLedger()
}

// PercentChange returns the change from previous to current in percent.
// A zero previous value yields zero rather than an infinite change.
func PercentChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(hundred)
}

func monthTotals(invoices []*trade.Invoice, period inventory.Period) (sales, purchases decimal.Decimal) {
	sales, purchases = decimal.Zero, decimal.Zero
	for _, inv := range invoices {
		if !isLedgerInvoice(inv) || !period.Contains(inv.Date) {
			continue
		}
		switch inv.Kind {
		case trade.KindSale:
			sales = sales.Add(inv.TotalAmount)
		case trade.KindPurchase:
			purchases = purchases.Add(inv.TotalAmount)
		}
	}
	return sales, purchases
}

// MonthlyTrend returns sales and purchase totals for the trailing months ending with
// the month of now, oldest first. Months without invoices are zero.
func MonthlyTrend(invoices []*trade.Invoice, now time.Time, months int) []MonthlyPoint {
	if months < 1 {
		months = DefaultTrendMonths
	}
	current := shared.StartOfMonth(now)

	points := make([]MonthlyPoint, 0, months)
	for offset := months - 1; offset >= 0; offset-- {
		start := current.AddDate(0, -offset, 0)
		period := inventory.MonthPeriod(start.Year(), start.Month(), start.Location())
		sales, purchases := monthTotals(invoices, period)
		points = append(points, MonthlyPoint{
			Month:     period.Start,
			Label:     period.Start.Format("2006-01"),
			Sales:     sales,
			Purchases: purchases,
		})
	}
	return points
}

// MonthOverMonth compares the calendar month of now with the one before it
func MonthOverMonth(invoices []*trade.Invoice, now time.Time) MonthOverMonthSummary {
	thisMonth := shared.StartOfMonth(now)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	curSales, curPurchases := monthTotals(invoices, inventory.MonthPeriod(thisMonth.Year(), thisMonth.Month(), thisMonth.Location()))
	prevSales, prevPurchases := monthTotals(invoices, inventory.MonthPeriod(lastMonth.Year(), lastMonth.Month(), lastMonth.Location()))

	return MonthOverMonthSummary{
		Sales:     Comparison{Current: curSales, Previous: prevSales, PercentChange: PercentChange(curSales, prevSales)},
		Purchases: Comparison{Current: curPurchases, Previous: prevPurchases, PercentChange: PercentChange(curPurchases, prevPurchases)},
	}
}

// StockAlerts lists live items that are low or out of stock, out of stock first then by name
func StockAlerts(items []*inventory.Item, defaultAlert decimal.Decimal) []StockAlert {
	alerts := make([]StockAlert, 0)
	for _, item := range items {
		if item == nil || item.IsDeleted {
			continue
		}
		status := item.StockStatus(defaultAlert)
		if status == inventory.StockStatusInStock {
			continue
		}
		alerts = append(alerts, StockAlert{
			ItemID:       item.ID,
			ItemName:     item.Name,
			Unit:         item.Unit,
			CurrentStock: item.CurrentStock,
			Threshold:    item.AlertThreshold(defaultAlert),
			Status:       status,
		})
	}
	slices.SortStableFunc(alerts, func(a, b StockAlert) int {
		if a.Status != b.Status {
			if a.Status == inventory.StockStatusOutOfStock {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ItemName, b.ItemName)
	})
	return alerts
}

// OverdueInvoices lists live invoices due before the start of today with a balance left,
// oldest due date first
func OverdueInvoices(invoices []*trade.Invoice, today time.Time) []OverdueInvoice {
	startOfToday := shared.StartOfDay(today)
	rows := make([]OverdueInvoice, 0)
	for _, inv := range invoices {
		if inv == nil || !inv.IsOverdue(today) {
			continue
		}
		rows = append(rows, OverdueInvoice{
			InvoiceID:   inv.ID,
			Number:      inv.Number,
			Kind:        inv.Kind,
			PartyID:     inv.PartyID,
			DueDate:     *inv.DueDate,
			BalanceDue:  inv.BalanceDue,
			DaysOverdue: int(startOfToday.Sub(shared.StartOfDay(*inv.DueDate)).Hours() / 24),
		})
	}
	slices.SortStableFunc(rows, func(a, b OverdueInvoice) int {
		return a.DueDate.Compare(b.DueDate)
	})
	return rows
}

// Outstanding totals open receivables and payables and the overdue part of each
func Outstanding(invoices []*trade.Invoice, today time.Time) OutstandingSummary {
	summary := OutstandingSummary{
		Receivable:        decimal.Zero,
		Payable:           decimal.Zero,
		OverdueReceivable: decimal.Zero,
		OverduePayable:    decimal.Zero,
	}
	for _, inv := range invoices {
		if !isLedgerInvoice(inv) {
			continue
		}
		overdue := inv.IsOverdue(today)
		switch inv.Kind {
		case trade.KindSale:
			summary.Receivable = summary.Receivable.Add(inv.BalanceDue)
			if overdue {
				summary.OverdueReceivable = summary.OverdueReceivable.Add(inv.BalanceDue)
				summary.OverdueReceivableCount++
			}
		case trade.KindPurchase:
			summary.Payable = summary.Payable.Add(inv.BalanceDue)
			if overdue {
				summary.OverduePayable = summary.OverduePayable.Add(inv.BalanceDue)
				summary.OverduePayableCount++
			}
		}
	}
	return summary
}

// DashboardInput carries every record the dashboard is derived from
type DashboardInput struct {
	Invoices             []*trade.Invoice
	Items                []*inventory.Item
	Balances             []partner.PartyBalance
	Now                  time.Time
	TrendMonths          int
	DefaultLowStockAlert decimal.Decimal
}

// Dashboard is the combined read model shown on the home screen
type Dashboard struct {
	GeneratedAt    time.Time             `json:"generated_at"`
	Trend          []MonthlyPoint        `json:"trend"`
	MonthOverMonth MonthOverMonthSummary `json:"month_over_month"`
	Outstanding    OutstandingSummary    `json:"outstanding"`
	Portfolio      partner.Portfolio     `json:"portfolio"`
	StockAlerts    []StockAlert          `json:"stock_alerts"`
	Overdue        []OverdueInvoice      `json:"overdue"`
}

// BuildDashboard derives the dashboard from raw records
func BuildDashboard(in DashboardInput) Dashboard {
	defaultAlert := in.DefaultLowStockAlert
	if defaultAlert.IsZero() {
		defaultAlert = inventory.DefaultLowStockAlert
	}
	return Dashboard{
		GeneratedAt:    in.Now,
		Trend:          MonthlyTrend(in.Invoices, in.Now, in.TrendMonths),
		MonthOverMonth: MonthOverMonth(in.Invoices, in.Now),
		Outstanding:    Outstanding(in.Invoices, in.Now),
		Portfolio:      partner.Summarize(in.Balances),
		StockAlerts:    StockAlerts(in.Items, defaultAlert),
		Overdue:        OverdueInvoices(in.Invoices, in.Now),
	}
}
