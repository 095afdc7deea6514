package inventory

import (
	"slices"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInsufficientStock is returned when a stock-reducing document asks for more than is on hand
var ErrInsufficientStock = shared.ErrInsufficientStock

// StockLine is one invoice line as seen by the stock ledger
type StockLine struct {
	ItemID      uuid.UUID
	InvoiceID   uuid.UUID
	Kind        trade.InvoiceKind
	InvoiceDate time.Time
	Quantity    decimal.Decimal
	Total       decimal.Decimal
}

// StockLinesFromInvoices flattens live invoices into stock lines.
// Deleted invoices and kinds that do not move stock are skipped.
func StockLinesFromInvoices(invoices []*trade.Invoice) []StockLine {
	var lines []StockLine
	for _, inv := range invoices {
		if inv == nil || inv.IsDeleted || inv.Kind.StockEffect() == 0 {
			continue
		}
		for _, l := range inv.Lines {
			lines = append(lines, StockLine{
				ItemID:      l.ItemID,
				InvoiceID:   inv.ID,
				Kind:        inv.Kind,
				InvoiceDate: inv.Date,
				Quantity:    l.Quantity,
				Total:       l.Total,
			})
		}
	}
	return lines
}

// StockMovement is the derived opening/purchase/sale/closing row of one item for one period.
// Returns and delivery challans move quantity through OtherInQty and OtherOutQty but
// do not feed the average prices. It is never persisted.
type StockMovement struct {
	ItemID           uuid.UUID       `json:"item_id"`
	ItemName         string          `json:"item_name"`
	Unit             string          `json:"unit"`
	OpeningQty       decimal.Decimal `json:"opening_qty"`
	OpeningAvgPrice  decimal.Decimal `json:"opening_avg_price"`
	PurchaseQty      decimal.Decimal `json:"purchase_qty"`
	PurchaseAmount   decimal.Decimal `json:"purchase_amount"`
	PurchaseAvgPrice decimal.Decimal `json:"purchase_avg_price"`
	SaleQty          decimal.Decimal `json:"sale_qty"`
	SaleAmount       decimal.Decimal `json:"sale_amount"`
	SaleAvgPrice     decimal.Decimal `json:"sale_avg_price"`
	OtherInQty       decimal.Decimal `json:"other_in_qty"`
	OtherOutQty      decimal.Decimal `json:"other_out_qty"`
	ClosingQty       decimal.Decimal `json:"closing_qty"`
	ClosingPrice     decimal.Decimal `json:"closing_price"`
}

// ClosingValue returns closing quantity times closing price
func (m StockMovement) ClosingValue() decimal.Decimal {
	return m.ClosingQty.Mul(m.ClosingPrice)
}

// averagePrice returns amount/qty, or zero when nothing moved
func averagePrice(amount, qty decimal.Decimal) decimal.Decimal {
	if qty.IsZero() {
		return decimal.Zero
	}
	return amount.Div(qty)
}

// signedQuantity is the line's quantity with the sign of its kind's stock effect
func signedQuantity(l StockLine) decimal.Decimal {
	switch l.Kind.StockEffect() {
	case 1:
		return l.Quantity
	case -1:
		return l.Quantity.Neg()
	}
	return decimal.Zero
}

// Reconcile computes one item's stock movement for the period.
//
// Every kind that moves stock counts, so a period ending now closes at CurrentQuantity.
// Only sale and purchase invoices set the average prices. The opening average price
// falls back to the item's current purchase price because historical costs are
// not kept per period. A negative closing quantity is reported as is.
func Reconcile(item *Item, lines []StockLine, period Period) StockMovement {
	openingQty := item.OpeningStock
	purchaseQty := decimal.Zero
	purchaseAmount := decimal.Zero
	saleQty := decimal.Zero
	saleAmount := decimal.Zero
	otherInQty := decimal.Zero
	otherOutQty := decimal.Zero

	for _, l := range lines {
		if l.ItemID != item.ID {
			continue
		}
		switch {
		case period.IsBefore(l.InvoiceDate):
			openingQty = openingQty.Add(signedQuantity(l))
		case period.Contains(l.InvoiceDate):
			switch {
			case l.Kind == trade.KindPurchase:
				purchaseQty = purchaseQty.Add(l.Quantity)
				purchaseAmount = purchaseAmount.Add(l.Total)
			case l.Kind == trade.KindSale:
				saleQty = saleQty.Add(l.Quantity)
				saleAmount = saleAmount.Add(l.Total)
			case l.Kind.StockEffect() > 0:
				otherInQty = otherInQty.Add(l.Quantity)
			case l.Kind.StockEffect() < 0:
				otherOutQty = otherOutQty.Add(l.Quantity)
			}
		}
	}

	openingAvgPrice := decimal.Zero
	if openingQty.IsPositive() {
		openingAvgPrice = item.PurchasePrice
	}

	purchaseAvgPrice := averagePrice(purchaseAmount, purchaseQty)
	saleAvgPrice := averagePrice(saleAmount, saleQty)

	closingQty := openingQty.Add(purchaseQty).Add(otherInQty).Sub(saleQty).Sub(otherOutQty)
	closingPrice := openingAvgPrice
	if purchaseQty.IsPositive() {
		closingPrice = purchaseAvgPrice
	}
	if closingQty.LessThanOrEqual(decimal.Zero) {
		closingPrice = decimal.Zero
	}

	return StockMovement{
		ItemID:           item.ID,
		ItemName:         item.Name,
		Unit:             item.Unit,
		OpeningQty:       openingQty,
		OpeningAvgPrice:  openingAvgPrice,
		PurchaseQty:      purchaseQty,
		PurchaseAmount:   purchaseAmount,
		PurchaseAvgPrice: purchaseAvgPrice,
		SaleQty:          saleQty,
		SaleAmount:       saleAmount,
		SaleAvgPrice:     saleAvgPrice,
		OtherInQty:       otherInQty,
		OtherOutQty:      otherOutQty,
		ClosingQty:       closingQty,
		ClosingPrice:     closingPrice,
	}
}

// ReconcileAll reconciles every live item, ordered by name
func ReconcileAll(items []*Item, lines []StockLine, period Period) []StockMovement {
	byItem := make(map[uuid.UUID][]StockLine)
	for _, l := range lines {
		byItem[l.ItemID] = append(byItem[l.ItemID], l)
	}

	live := make([]*Item, 0, len(items))
	for _, item := range items {
		if item != nil && !item.IsDeleted {
			live = append(live, item)
		}
	}
	slices.SortStableFunc(live, func(a, b *Item) int {
		return strings.Compare(a.Name, b.Name)
	})

	rows := make([]StockMovement, 0, len(live))
	for _, item := range live {
		rows = append(rows, Reconcile(item, byItem[item.ID], period))
	}
	return rows
}

// CurrentQuantity is the all-time quantity on hand derived from history:
// opening stock plus every line's signed stock effect.
func CurrentQuantity(item *Item, lines []StockLine) decimal.Decimal {
	qty := item.OpeningStock
	for _, l := range lines {
		if l.ItemID == item.ID {
			qty = qty.Add(signedQuantity(l))
		}
	}
	return qty
}

// CheckAvailability fails with ErrInsufficientStock, naming the item, when
// requested exceeds the quantity derived from history
func CheckAvailability(item *Item, lines []StockLine, requested decimal.Decimal) error {
	available := CurrentQuantity(item, lines)
	if requested.GreaterThan(available) {
		return shared.WrapDomainError(ErrInsufficientStock,
			"Insufficient stock for %s: available %s, requested %s", item.Name, available.String(), requested.String())
	}
	return nil
}

// ExcludeInvoice drops the lines of one invoice, used when re-checking an invoice being edited
func ExcludeInvoice(lines []StockLine, invoiceID uuid.UUID) []StockLine {
	out := make([]StockLine, 0, len(lines))
	for _, l := range lines {
		if l.InvoiceID != invoiceID {
			out = append(out, l)
		}
	}
	return out
}
