package trade

import (
	"github.com/shopspring/decimal"
)

// PaymentStatus represents how much of an invoice has been settled
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// InvoiceTotals holds the header figures derived from an invoice's lines
type InvoiceTotals struct {
	Subtotal          decimal.Decimal `json:"subtotal"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	TaxableBase       decimal.Decimal `json:"taxable_base"`
	WithholdingAmount decimal.Decimal `json:"withholding_amount"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
}

// CalculateTotals sums the lines and layers withholding tax (TCS) on top.
//
// The withholding base is taxableBase + taxAmount. Rounding happens exactly once,
// on the grand total, to the nearest whole unit (half away from zero).
// An empty line slice yields all-zero totals.
func CalculateTotals(lines []LineInput, withholdingRate decimal.Decimal) InvoiceTotals {
	subtotal := decimal.Zero
	discount := decimal.Zero
	tax := decimal.Zero

	for _, line := range lines {
		amounts := CalculateLine(line)
		subtotal = subtotal.Add(amounts.Subtotal)
		discount = discount.Add(amounts.DiscountAmount)
		tax = tax.Add(amounts.TaxAmount)
	}

	taxableBase := subtotal.Sub(discount)
	withholding := decimal.Zero
	if withholdingRate.IsPositive() {
		withholding = taxableBase.Add(tax).Mul(withholdingRate).Div(hundred)
	}

	return InvoiceTotals{
		Subtotal:          subtotal,
		DiscountAmount:    discount,
		TaxAmount:         tax,
		TaxableBase:       taxableBase,
		WithholdingAmount: withholding,
		GrandTotal:        taxableBase.Add(tax).Add(withholding).Round(0),
	}
}

// Settlement is the payment position of an invoice
type Settlement struct {
	PaidAmount decimal.Decimal `json:"paid_amount"`
	BalanceDue decimal.Decimal `json:"balance_due"`
	Status     PaymentStatus   `json:"status"`
}

// Settle derives balance due and status from the grand total and amount paid.
// The paid amount is clamped to [0, grandTotal].
func Settle(grandTotal, paidAmount decimal.Decimal) Settlement {
	paid := paidAmount
	if paid.IsNegative() {
		paid = decimal.Zero
	}
	if paid.GreaterThan(grandTotal) {
		paid = grandTotal
	}

	balance := grandTotal.Sub(paid)
	return Settlement{
		PaidAmount: paid,
		BalanceDue: balance,
		Status:     StatusFor(balance, paid),
	}
}

// StatusFor is the status rule on its own: paid once nothing is due,
// partial once anything was paid, unpaid otherwise.
func StatusFor(balanceDue, paidAmount decimal.Decimal) PaymentStatus {
	switch {
	case balanceDue.LessThanOrEqual(decimal.Zero):
		return PaymentStatusPaid
	case paidAmount.IsPositive():
		return PaymentStatusPartial
	default:
		return PaymentStatusUnpaid
	}
}

// WithholdingRates holds the configured TCS percentages per side
type WithholdingRates struct {
	Sale     decimal.Decimal
	Purchase decimal.Decimal
}

// RateFor selects the rate that applies to an invoice kind
func (r WithholdingRates) RateFor(kind InvoiceKind) decimal.Decimal {
	if kind.Side() == SidePurchase {
		return r.Purchase
	}
	return r.Sale
}
