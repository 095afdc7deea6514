package partner

import (
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Portfolio labels
const (
	LabelNetReceivable = "Net Receivable"
	LabelNetPayable    = "Net Payable"
)

// PartyBalance is the running balance of one party
type PartyBalance struct {
	PartyID        uuid.UUID       `json:"party_id"`
	Name           string          `json:"name"`
	Type           PartyType       `json:"type"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	InvoiceAmount  decimal.Decimal `json:"invoice_amount"`
	PaymentsAmount decimal.Decimal `json:"payments_amount"`
	NetDue         decimal.Decimal `json:"net_due"`
}

// Portfolio totals balances across all parties
type Portfolio struct {
	TotalReceivable decimal.Decimal `json:"total_receivable"`
	TotalPayable    decimal.Decimal `json:"total_payable"`
	NetBalance      decimal.Decimal `json:"net_balance"`
	Label           string          `json:"label"`
}

// invoiceKindFor is the only invoice kind that moves a party's balance
func invoiceKindFor(t PartyType) trade.InvoiceKind {
	if t == PartyTypeSupplier {
		return trade.KindPurchase
	}
	return trade.KindSale
}

func directionFor(t PartyType) finance.Direction {
	if t == PartyTypeSupplier {
		return finance.DirectionOut
	}
	return finance.DirectionIn
}

// CalculateBalance derives a party's balance from its opening balance, its non-deleted
// invoices of the matching kind and its payments in the matching direction.
// Records of other parties are ignored.
func CalculateBalance(party *Party, invoices []*trade.Invoice, payments []*finance.Payment) PartyBalance {
	kind := invoiceKindFor(party.Type)
	direction := directionFor(party.Type)

	invoiceAmount := decimal.Zero
	for _, inv := range invoices {
		if inv == nil || inv.PartyID != party.ID || inv.IsDeleted || inv.Kind != kind {
			continue
		}
		invoiceAmount = invoiceAmount.Add(inv.TotalAmount)
	}

	paymentsAmount := decimal.Zero
	for _, p := range payments {
		if p == nil || p.PartyID != party.ID || p.IsDeleted || p.Direction != direction {
			continue
		}
		paymentsAmount = paymentsAmount.Add(p.Amount)
	}

	return PartyBalance{
		PartyID:        party.ID,
		Name:           party.Name,
		Type:           party.Type,
		OpeningBalance: party.OpeningBalance,
		InvoiceAmount:  invoiceAmount,
		PaymentsAmount: paymentsAmount,
		NetDue:         party.OpeningBalance.Add(invoiceAmount).Sub(paymentsAmount),
	}
}

// CalculateBalances computes every party's balance, grouping invoices and payments once
func CalculateBalances(parties []*Party, invoices []*trade.Invoice, payments []*finance.Payment) []PartyBalance {
	invoicesByParty := make(map[uuid.UUID][]*trade.Invoice)
	for _, inv := range invoices {
		if inv != nil {
			invoicesByParty[inv.PartyID] = append(invoicesByParty[inv.PartyID], inv)
		}
	}
	paymentsByParty := make(map[uuid.UUID][]*finance.Payment)
	for _, p := range payments {
		if p != nil {
			paymentsByParty[p.PartyID] = append(paymentsByParty[p.PartyID], p)
		}
	}

	balances := make([]PartyBalance, 0, len(parties))
	for _, party := range parties {
		if party == nil {
			continue
		}
		balances = append(balances, CalculateBalance(party, invoicesByParty[party.ID], paymentsByParty[party.ID]))
	}
	return balances
}

// Summarize totals receivables and payables across all balances
func Summarize(balances []PartyBalance) Portfolio {
	receivable := decimal.Zero
	payable := decimal.Zero
	for _, b := range balances {
		switch b.Type {
		case PartyTypeCustomer:
			receivable = receivable.Add(b.NetDue)
		case PartyTypeSupplier:
			payable = payable.Add(b.NetDue)
		}
	}

	receivable = receivable.Abs()
	payable = payable.Abs()
	net := receivable.Sub(payable)

	label := LabelNetReceivable
	if net.IsNegative() {
		label = LabelNetPayable
	}
	return Portfolio{
		TotalReceivable: receivable,
		TotalPayable:    payable,
		NetBalance:      net,
		Label:           label,
	}
}
