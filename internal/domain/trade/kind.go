package trade

import "strings"

// Side is the trading direction of an invoice
type Side string

const (
	SideSale     Side = "sale"
	SidePurchase Side = "purchase"
)

// InvoiceKind tags an invoice with its document type.
// Each kind fixes its side, its effect on stock and whether it posts to party balances.
type InvoiceKind string

const (
	KindSale            InvoiceKind = "sale"
	KindPurchase        InvoiceKind = "purchase"
	KindSaleReturn      InvoiceKind = "sale_return"
	KindPurchaseReturn  InvoiceKind = "purchase_return"
	KindEstimate        InvoiceKind = "estimate"
	KindDeliveryChallan InvoiceKind = "delivery_challan"
	KindPurchaseOrder   InvoiceKind = "purchase_order"
)

type kindTraits struct {
	side        Side
	stockEffect int
	ledger      bool
}

var kindTable = map[InvoiceKind]kindTraits{
	KindSale:            {side: SideSale, stockEffect: -1, ledger: true},
	KindPurchase:        {side: SidePurchase, stockEffect: +1, ledger: true},
	KindSaleReturn:      {side: SideSale, stockEffect: +1, ledger: false},
	KindPurchaseReturn:  {side: SidePurchase, stockEffect: -1, ledger: false},
	KindEstimate:        {side: SideSale, stockEffect: 0, ledger: false},
	KindDeliveryChallan: {side: SideSale, stockEffect: -1, ledger: false},
	KindPurchaseOrder:   {side: SidePurchase, stockEffect: 0, ledger: false},
}

// ParseInvoiceKind parses a kind string case-insensitively.
// Hyphenated and spaced spellings ("delivery-challan") are accepted.
func ParseInvoiceKind(s string) (InvoiceKind, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	kind := InvoiceKind(normalized)
	if !kind.IsValid() {
		return "", false
	}
	return kind, true
}

// IsValid checks if the kind is a known InvoiceKind
func (k InvoiceKind) IsValid() bool {
	_, ok := kindTable[k]
	return ok
}

// String returns the string representation of InvoiceKind
func (k InvoiceKind) String() string {
	return string(k)
}

// Side returns which side of the business the document belongs to
func (k InvoiceKind) Side() Side {
	return kindTable[k].side
}

// StockEffect returns -1 if the document takes quantity out of stock,
// +1 if it brings quantity in, and 0 if it does not move stock.
func (k InvoiceKind) StockEffect() int {
	return kindTable[k].stockEffect
}

// CountsTowardLedger reports whether the document posts to party balances
// and feeds the stock ledger reconciler and period metrics.
func (k InvoiceKind) CountsTowardLedger() bool {
	return kindTable[k].ledger
}

// RequiresStockCheck reports whether saving the document must first verify availability
func (k InvoiceKind) RequiresStockCheck() bool {
	return k.StockEffect() < 0
}

// AllInvoiceKinds returns all valid invoice kinds
func AllInvoiceKinds() []InvoiceKind {
	return []InvoiceKind{
		KindSale,
		KindPurchase,
		KindSaleReturn,
		KindPurchaseReturn,
		KindEstimate,
		KindDeliveryChallan,
		KindPurchaseOrder,
	}
}
