package trade

import (
	"bytes"
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLine represents one item entry within an invoice
type InvoiceLine struct {
	ID              uuid.UUID
	InvoiceID       uuid.UUID
	ItemID          uuid.UUID
	ItemName        string
	Quantity        decimal.Decimal
	Rate            decimal.Decimal
	DiscountPercent decimal.Decimal
	TaxRatePercent  decimal.Decimal
	Total           decimal.Decimal // CalculateLine(...).Total, unrounded
}

// Input returns the line's calculator input
func (l InvoiceLine) Input() LineInput {
	return LineInput{
		Quantity:        l.Quantity,
		Rate:            l.Rate,
		DiscountPercent: l.DiscountPercent,
		TaxRatePercent:  l.TaxRatePercent,
	}
}

// Amounts recomputes the line's derived figures
func (l InvoiceLine) Amounts() LineAmounts {
	return CalculateLine(l.Input())
}

// LineDraft is a line as entered, before it belongs to an invoice
type LineDraft struct {
	ItemID   uuid.UUID
	ItemName string
	LineInput
}

// StockDelta is the signed quantity change an invoice applies to one item
type StockDelta struct {
	ItemID   uuid.UUID
	Quantity decimal.Decimal
}

// Invoice is the aggregate root for sale and purchase documents.
// Header amounts are always derived from Lines by Recalculate.
type Invoice struct {
	shared.BaseEntity
	Number            string
	Kind              InvoiceKind
	Date              time.Time
	DueDate           *time.Time
	PartyID           uuid.UUID
	Lines             []InvoiceLine
	Subtotal          decimal.Decimal
	DiscountAmount    decimal.Decimal
	TaxAmount         decimal.Decimal
	WithholdingAmount decimal.Decimal
	TotalAmount       decimal.Decimal
	PaidAmount        decimal.Decimal
	BalanceDue        decimal.Decimal
	Status            PaymentStatus
	IsDeleted         bool
	DeletedAt         *time.Time
}

// NewInvoice validates the drafts and builds a fully calculated invoice.
//
// Validation here is the caller-side check: the calculators downstream assume
// a party, at least one line and positive quantities. Due dates are only kept
// for kinds that post to the ledger.
func NewInvoice(kind InvoiceKind, number string, partyID uuid.UUID, date time.Time, dueDate *time.Time, drafts []LineDraft, rates WithholdingRates) (*Invoice, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Unknown invoice kind")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Party is required")
	}
	if len(number) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Invoice date is required")
	}
	if len(drafts) == 0 {
		return nil, shared.NewDomainError("EMPTY_LINES", "Invoice must have at least one line")
	}

	inv := &Invoice{
		BaseEntity: shared.NewBaseEntity(),
		Number:     number,
		Kind:       kind,
		Date:       date,
		PartyID:    partyID,
		Status:     PaymentStatusUnpaid,
	}

	if kind.CountsTowardLedger() && dueDate != nil {
		if dueDate.Before(shared.StartOfDay(date)) {
			return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before invoice date")
		}
		d := *dueDate
		inv.DueDate = &d
	}

	if err := inv.ReplaceLines(drafts, rates); err != nil {
		return nil, err
	}
	return inv, nil
}

// ReplaceLines swaps the whole line set and recalculates the header.
// Lines are never edited in place.
func (inv *Invoice) ReplaceLines(drafts []LineDraft, rates WithholdingRates) error {
	if inv.IsDeleted {
		return shared.NewDomainError("INVALID_STATE", "Cannot edit a deleted invoice")
	}
	if len(drafts) == 0 {
		return shared.NewDomainError("EMPTY_LINES", "Invoice must have at least one line")
	}

	lines := make([]InvoiceLine, 0, len(drafts))
	for i, d := range drafts {
		if d.ItemID == uuid.Nil {
			return shared.NewDomainError("INVALID_ITEM", "Line item is required")
		}
		if err := d.Validate(); err != nil {
			var de *shared.DomainError
			if errors.As(err, &de) {
				return shared.NewDomainError(de.Code, lineLabel(i, d.ItemName)+": "+de.Message)
			}
			return err
		}
		lines = append(lines, InvoiceLine{
			ID:              uuid.New(),
			InvoiceID:       inv.ID,
			ItemID:          d.ItemID,
			ItemName:        d.ItemName,
			Quantity:        d.Quantity,
			Rate:            d.Rate,
			DiscountPercent: d.DiscountPercent,
			TaxRatePercent:  d.TaxRatePercent,
		})
	}

	inv.Lines = lines
	inv.Recalculate(rates)
	return nil
}

// Recalculate rederives line totals, header totals and settlement from Lines
func (inv *Invoice) Recalculate(rates WithholdingRates) {
	inputs := make([]LineInput, len(inv.Lines))
	for i := range inv.Lines {
		inputs[i] = inv.Lines[i].Input()
		inv.Lines[i].Total = CalculateLine(inputs[i]).Total
	}

	totals := CalculateTotals(inputs, rates.RateFor(inv.Kind))
	inv.Subtotal = totals.Subtotal
	inv.DiscountAmount = totals.DiscountAmount
	inv.TaxAmount = totals.TaxAmount
	inv.WithholdingAmount = totals.WithholdingAmount
	inv.TotalAmount = totals.GrandTotal
	inv.settle(inv.PaidAmount)
	inv.Touch()
}

// Totals returns the header figures as an InvoiceTotals value
func (inv *Invoice) Totals() InvoiceTotals {
	return InvoiceTotals{
		Subtotal:          inv.Subtotal,
		DiscountAmount:    inv.DiscountAmount,
		TaxAmount:         inv.TaxAmount,
		TaxableBase:       inv.Subtotal.Sub(inv.DiscountAmount),
		WithholdingAmount: inv.WithholdingAmount,
		GrandTotal:        inv.TotalAmount,
	}
}

// ApplyPayment records an amount received or paid against the invoice.
// Overpayment is clamped at the total.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal) error {
	if inv.IsDeleted {
		return shared.NewDomainError("INVALID_STATE", "Cannot pay a deleted invoice")
	}
	if !inv.Kind.CountsTowardLedger() {
		return shared.NewDomainError("INVALID_STATE", "Payments can only be recorded against sale or purchase invoices")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	inv.settle(inv.PaidAmount.Add(amount))
	inv.Touch()
	return nil
}

func (inv *Invoice) settle(paid decimal.Decimal) {
	s := Settle(inv.TotalAmount, paid)
	inv.PaidAmount = s.PaidAmount
	inv.BalanceDue = s.BalanceDue
	inv.Status = s.Status
}

// IsOverdue reports whether a live invoice is past due on today's date with money outstanding.
// An invoice due today is not overdue.
func (inv *Invoice) IsOverdue(today time.Time) bool {
	if inv.IsDeleted || inv.DueDate == nil {
		return false
	}
	return inv.DueDate.Before(shared.StartOfDay(today)) && inv.BalanceDue.IsPositive()
}

// ReviseFrom makes inv the edited version of prev: it takes over prev's identity
// and the amount already paid. The kind of a document cannot change.
func (inv *Invoice) ReviseFrom(prev *Invoice) error {
	if prev.IsDeleted {
		return shared.NewDomainError("INVALID_STATE", "Cannot edit a deleted invoice")
	}
	if prev.Kind != inv.Kind {
		return shared.NewDomainError("INVALID_STATE", "Invoice kind cannot change")
	}
	inv.ID = prev.ID
	inv.CreatedAt = prev.CreatedAt
	for i := range inv.Lines {
		inv.Lines[i].InvoiceID = prev.ID
	}
	inv.settle(prev.PaidAmount)
	inv.Touch()
	return nil
}

// MarkDeleted soft-deletes the invoice
func (inv *Invoice) MarkDeleted(at time.Time) {
	inv.IsDeleted = true
	inv.DeletedAt = &at
	inv.Touch()
}

// StockDeltas returns the signed quantity change per item, ordered by item ID.
// Kinds that do not move stock return nil.
func (inv *Invoice) StockDeltas() []StockDelta {
	effect := inv.Kind.StockEffect()
	if effect == 0 {
		return nil
	}
	sign := decimal.NewFromInt(int64(effect))

	byItem := make(map[uuid.UUID]decimal.Decimal)
	for _, l := range inv.Lines {
		byItem[l.ItemID] = byItem[l.ItemID].Add(l.Quantity.Mul(sign))
	}

	deltas := make([]StockDelta, 0, len(byItem))
	for id, qty := range byItem {
		deltas = append(deltas, StockDelta{ItemID: id, Quantity: qty})
	}
	slices.SortFunc(deltas, func(a, b StockDelta) int {
		return bytes.Compare(a.ItemID[:], b.ItemID[:])
	})
	return deltas
}

// RequestedQuantities returns the total quantity per item across the lines
func (inv *Invoice) RequestedQuantities() map[uuid.UUID]decimal.Decimal {
	qty := make(map[uuid.UUID]decimal.Decimal, len(inv.Lines))
	for _, l := range inv.Lines {
		qty[l.ItemID] = qty[l.ItemID].Add(l.Quantity)
	}
	return qty
}

func lineLabel(index int, name string) string {
	if name != "" {
		return name
	}
	return "line " + strconv.Itoa(index+1)
}
