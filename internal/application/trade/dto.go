package trade

import (
	"time"

	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLineInput is one line of an invoice request
type InvoiceLineInput struct {
	ItemID          uuid.UUID       `json:"item_id"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	Rate            decimal.Decimal `json:"rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxRatePercent  decimal.Decimal `json:"tax_rate_percent"`
}

func (in InvoiceLineInput) lineInput() trade.LineInput {
	return trade.LineInput{
		Quantity:        in.Quantity,
		Rate:            in.Rate,
		DiscountPercent: in.DiscountPercent,
		TaxRatePercent:  in.TaxRatePercent,
	}
}

// PreviewInvoiceRequest asks for live totals while an invoice is being entered
type PreviewInvoiceRequest struct {
	Kind       string             `json:"kind" binding:"required"`
	Lines      []InvoiceLineInput `json:"lines" binding:"required,min=1,dive"`
	PaidAmount decimal.Decimal    `json:"paid_amount"`
}

// SaveInvoiceRequest creates an invoice, or replaces one when ID is set.
// PaidAmount, when positive, is recorded as a payment in the same transaction.
type SaveInvoiceRequest struct {
	ID         *uuid.UUID         `json:"id"`
	Kind       string             `json:"kind" binding:"required"`
	Number     string             `json:"number" binding:"max=50"`
	PartyID    uuid.UUID          `json:"party_id" binding:"required"`
	Date       time.Time          `json:"date" binding:"required"`
	DueDate    *time.Time         `json:"due_date"`
	Lines      []InvoiceLineInput `json:"lines" binding:"required,min=1,dive"`
	PaidAmount decimal.Decimal    `json:"paid_amount"`
}

// PreviewResponse carries per-line and header figures without persisting anything
type PreviewResponse struct {
	Lines      []trade.LineAmounts `json:"lines"`
	Totals     trade.InvoiceTotals `json:"totals"`
	Settlement trade.Settlement    `json:"settlement"`
}

// InvoiceLineResponse represents an invoice line in API responses
type InvoiceLineResponse struct {
	ID              uuid.UUID       `json:"id"`
	ItemID          uuid.UUID       `json:"item_id"`
	ItemName        string          `json:"item_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	Rate            decimal.Decimal `json:"rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxRatePercent  decimal.Decimal `json:"tax_rate_percent"`
	Total           decimal.Decimal `json:"total"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                uuid.UUID             `json:"id"`
	Number            string                `json:"number"`
	Kind              string                `json:"kind"`
	Date              time.Time             `json:"date"`
	DueDate           *time.Time            `json:"due_date,omitempty"`
	PartyID           uuid.UUID             `json:"party_id"`
	Lines             []InvoiceLineResponse `json:"lines"`
	Subtotal          decimal.Decimal       `json:"subtotal"`
	DiscountAmount    decimal.Decimal       `json:"discount_amount"`
	TaxAmount         decimal.Decimal       `json:"tax_amount"`
	WithholdingAmount decimal.Decimal       `json:"withholding_amount"`
	TotalAmount       decimal.Decimal       `json:"total_amount"`
	PaidAmount        decimal.Decimal       `json:"paid_amount"`
	BalanceDue        decimal.Decimal       `json:"balance_due"`
	Status            string                `json:"status"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// ToInvoiceResponse converts the domain invoice to a response
func ToInvoiceResponse(inv *trade.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = InvoiceLineResponse{
			ID:              l.ID,
			ItemID:          l.ItemID,
			ItemName:        l.ItemName,
			Quantity:        l.Quantity,
			Rate:            l.Rate,
			DiscountPercent: l.DiscountPercent,
			TaxRatePercent:  l.TaxRatePercent,
			Total:           l.Total,
		}
	}
	return InvoiceResponse{
		ID:                inv.ID,
		Number:            inv.Number,
		Kind:              inv.Kind.String(),
		Date:              inv.Date,
		DueDate:           inv.DueDate,
		PartyID:           inv.PartyID,
		Lines:             lines,
		Subtotal:          inv.Subtotal,
		DiscountAmount:    inv.DiscountAmount,
		TaxAmount:         inv.TaxAmount,
		WithholdingAmount: inv.WithholdingAmount,
		TotalAmount:       inv.TotalAmount,
		PaidAmount:        inv.PaidAmount,
		BalanceDue:        inv.BalanceDue,
		Status:            inv.Status.String(),
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
	}
}
