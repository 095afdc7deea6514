package trade

import (
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draft(itemID uuid.UUID, qty, rate, disc, tax string) LineDraft {
	return LineDraft{
		ItemID:   itemID,
		ItemName: "Widget",
		LineInput: LineInput{
			Quantity:        dec(qty),
			Rate:            dec(rate),
			DiscountPercent: dec(disc),
			TaxRatePercent:  dec(tax),
		},
	}
}

func newTestInvoice(t *testing.T, kind InvoiceKind, drafts ...LineDraft) *Invoice {
	t.Helper()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	due := date.AddDate(0, 0, 15)
	inv, err := NewInvoice(kind, "INV-001", uuid.New(), date, &due, drafts, WithholdingRates{})
	require.NoError(t, err)
	return inv
}

func TestNewInvoice(t *testing.T) {
	itemID := uuid.New()

	t.Run("calculates header from lines", func(t *testing.T) {
		inv := newTestInvoice(t, KindSale,
			draft(itemID, "10", "100", "10", "18"),
			draft(itemID, "10", "100", "10", "18"),
		)

		assertDecimal(t, "2000", inv.Subtotal)
		assertDecimal(t, "200", inv.DiscountAmount)
		assertDecimal(t, "324", inv.TaxAmount)
		assertDecimal(t, "2124", inv.TotalAmount)
		assertDecimal(t, "2124", inv.BalanceDue)
		assert.Equal(t, PaymentStatusUnpaid, inv.Status)
		require.Len(t, inv.Lines, 2)
		assertDecimal(t, "1062", inv.Lines[0].Total)
		assert.Equal(t, inv.ID, inv.Lines[0].InvoiceID)
	})

	t.Run("applies the withholding rate for the invoice side", func(t *testing.T) {
		date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		rates := WithholdingRates{Sale: dec("1"), Purchase: dec("0")}

		sale, err := NewInvoice(KindSale, "S-1", uuid.New(), date, nil, []LineDraft{draft(itemID, "10", "100", "10", "18")}, rates)
		require.NoError(t, err)
		assertDecimal(t, "10.62", sale.WithholdingAmount)
		assertDecimal(t, "1073", sale.TotalAmount)

		purchase, err := NewInvoice(KindPurchase, "P-1", uuid.New(), date, nil, []LineDraft{draft(itemID, "10", "100", "10", "18")}, rates)
		require.NoError(t, err)
		assertDecimal(t, "0", purchase.WithholdingAmount)
		assertDecimal(t, "1062", purchase.TotalAmount)
	})

	t.Run("drops due date for kinds that do not post to the ledger", func(t *testing.T) {
		date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		due := date.AddDate(0, 0, 7)
		inv, err := NewInvoice(KindEstimate, "E-1", uuid.New(), date, &due, []LineDraft{draft(itemID, "1", "10", "0", "0")}, WithholdingRates{})
		require.NoError(t, err)
		assert.Nil(t, inv.DueDate)
	})

	validationCases := []struct {
		name    string
		kind    InvoiceKind
		party   uuid.UUID
		drafts  []LineDraft
		due     *time.Time
		errCode string
	}{
		{"unknown kind", InvoiceKind("quote"), uuid.New(), []LineDraft{draft(itemID, "1", "1", "0", "0")}, nil, "INVALID_KIND"},
		{"missing party", KindSale, uuid.Nil, []LineDraft{draft(itemID, "1", "1", "0", "0")}, nil, "INVALID_PARTY"},
		{"empty lines", KindSale, uuid.New(), nil, nil, "EMPTY_LINES"},
		{"zero quantity", KindSale, uuid.New(), []LineDraft{draft(itemID, "0", "1", "0", "0")}, nil, "INVALID_QUANTITY"},
		{"negative rate", KindPurchase, uuid.New(), []LineDraft{draft(itemID, "1", "-1", "0", "0")}, nil, "INVALID_RATE"},
		{"missing item", KindSale, uuid.New(), []LineDraft{draft(uuid.Nil, "1", "1", "0", "0")}, nil, "INVALID_ITEM"},
		{
			"due before invoice date", KindSale, uuid.New(), []LineDraft{draft(itemID, "1", "1", "0", "0")},
			func() *time.Time { d := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC); return &d }(), "INVALID_DUE_DATE",
		},
	}
	for _, tc := range validationCases {
		t.Run(tc.name, func(t *testing.T) {
			date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
			_, err := NewInvoice(tc.kind, "X-1", tc.party, date, tc.due, tc.drafts, WithholdingRates{})
			require.Error(t, err)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.errCode, de.Code)
		})
	}

	t.Run("line error names the item", func(t *testing.T) {
		date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		d := draft(itemID, "0", "1", "0", "0")
		d.ItemName = "Blue Pen"
		_, err := NewInvoice(KindSale, "X-1", uuid.New(), date, nil, []LineDraft{d}, WithholdingRates{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Blue Pen")
	})
}

func TestInvoice_ApplyPayment(t *testing.T) {
	itemID := uuid.New()

	t.Run("partial then full payment", func(t *testing.T) {
		inv := newTestInvoice(t, KindSale, draft(itemID, "10", "100", "10", "18"), draft(itemID, "10", "100", "10", "18"))

		require.NoError(t, inv.ApplyPayment(dec("1000")))
		assertDecimal(t, "1000", inv.PaidAmount)
		assertDecimal(t, "1124", inv.BalanceDue)
		assert.Equal(t, PaymentStatusPartial, inv.Status)

		require.NoError(t, inv.ApplyPayment(dec("2000")))
		assertDecimal(t, "2124", inv.PaidAmount)
		assertDecimal(t, "0", inv.BalanceDue)
		assert.Equal(t, PaymentStatusPaid, inv.Status)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		inv := newTestInvoice(t, KindSale, draft(itemID, "1", "10", "0", "0"))
		assert.Error(t, inv.ApplyPayment(decimal.Zero))
		assert.Error(t, inv.ApplyPayment(dec("-1")))
	})

	t.Run("rejects payments on estimates", func(t *testing.T) {
		inv := newTestInvoice(t, KindEstimate, draft(itemID, "1", "10", "0", "0"))
		assert.Error(t, inv.ApplyPayment(dec("5")))
	})

	t.Run("rejects payments on deleted invoices", func(t *testing.T) {
		inv := newTestInvoice(t, KindSale, draft(itemID, "1", "10", "0", "0"))
		inv.MarkDeleted(time.Now())
		assert.Error(t, inv.ApplyPayment(dec("5")))
	})
}

func TestInvoice_ReplaceLines(t *testing.T) {
	itemID := uuid.New()
	inv := newTestInvoice(t, KindSale, draft(itemID, "10", "100", "0", "0"))
	require.NoError(t, inv.ApplyPayment(dec("400")))

	err := inv.ReplaceLines([]LineDraft{draft(itemID, "2", "100", "0", "0")}, WithholdingRates{})
	require.NoError(t, err)

	assertDecimal(t, "200", inv.TotalAmount)
	assertDecimal(t, "200", inv.PaidAmount)
	assertDecimal(t, "0", inv.BalanceDue)
	assert.Equal(t, PaymentStatusPaid, inv.Status)
}

func TestInvoice_ReviseFrom(t *testing.T) {
	itemID := uuid.New()
	prev := newTestInvoice(t, KindSale, draft(itemID, "10", "100", "0", "0"))
	require.NoError(t, prev.ApplyPayment(dec("300")))

	next := newTestInvoice(t, KindSale, draft(itemID, "5", "100", "0", "0"))
	require.NoError(t, next.ReviseFrom(prev))

	assert.Equal(t, prev.ID, next.ID)
	assert.Equal(t, prev.ID, next.Lines[0].InvoiceID)
	assertDecimal(t, "300", next.PaidAmount)
	assertDecimal(t, "200", next.BalanceDue)
	assert.Equal(t, PaymentStatusPartial, next.Status)

	other := newTestInvoice(t, KindPurchase, draft(itemID, "1", "1", "0", "0"))
	assert.Error(t, other.ReviseFrom(prev), "kind cannot change")

	prev.MarkDeleted(time.Now())
	assert.Error(t, next.ReviseFrom(prev))
}

func TestInvoice_IsOverdue(t *testing.T) {
	itemID := uuid.New()
	inv := newTestInvoice(t, KindSale, draft(itemID, "1", "100", "0", "0"))
	due := *inv.DueDate

	assert.False(t, inv.IsOverdue(due), "due today is not overdue")
	assert.False(t, inv.IsOverdue(due.Add(23*time.Hour)), "still the due day")
	assert.True(t, inv.IsOverdue(due.AddDate(0, 0, 1)))

	require.NoError(t, inv.ApplyPayment(dec("100")))
	assert.False(t, inv.IsOverdue(due.AddDate(0, 0, 1)), "settled invoices are never overdue")

	unpaid := newTestInvoice(t, KindSale, draft(itemID, "1", "100", "0", "0"))
	unpaid.MarkDeleted(time.Now())
	assert.False(t, unpaid.IsOverdue(due.AddDate(0, 1, 0)), "deleted invoices are never overdue")

	noDue := newTestInvoice(t, KindSale, draft(itemID, "1", "100", "0", "0"))
	noDue.DueDate = nil
	assert.False(t, noDue.IsOverdue(due.AddDate(1, 0, 0)))
}

func TestInvoice_StockDeltas(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	t.Run("sale takes stock out and merges lines per item", func(t *testing.T) {
		inv := newTestInvoice(t, KindSale, draft(b, "2", "1", "0", "0"), draft(a, "3", "1", "0", "0"), draft(b, "5", "1", "0", "0"))
		deltas := inv.StockDeltas()
		require.Len(t, deltas, 2)
		assert.Equal(t, a, deltas[0].ItemID)
		assertDecimal(t, "-3", deltas[0].Quantity)
		assert.Equal(t, b, deltas[1].ItemID)
		assertDecimal(t, "-7", deltas[1].Quantity)
	})

	t.Run("purchase brings stock in", func(t *testing.T) {
		inv := newTestInvoice(t, KindPurchase, draft(a, "4", "1", "0", "0"))
		deltas := inv.StockDeltas()
		require.Len(t, deltas, 1)
		assertDecimal(t, "4", deltas[0].Quantity)
	})

	t.Run("estimate does not move stock", func(t *testing.T) {
		inv := newTestInvoice(t, KindEstimate, draft(a, "4", "1", "0", "0"))
		assert.Nil(t, inv.StockDeltas())
	})
}
