package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceKind_Traits(t *testing.T) {
	tests := []struct {
		kind        InvoiceKind
		side        Side
		stockEffect int
		ledger      bool
	}{
		{KindSale, SideSale, -1, true},
		{KindPurchase, SidePurchase, 1, true},
		{KindSaleReturn, SideSale, 1, false},
		{KindPurchaseReturn, SidePurchase, -1, false},
		{KindEstimate, SideSale, 0, false},
		{KindDeliveryChallan, SideSale, -1, false},
		{KindPurchaseOrder, SidePurchase, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.True(t, tt.kind.IsValid())
			assert.Equal(t, tt.side, tt.kind.Side())
			assert.Equal(t, tt.stockEffect, tt.kind.StockEffect())
			assert.Equal(t, tt.ledger, tt.kind.CountsTowardLedger())
			assert.Equal(t, tt.stockEffect < 0, tt.kind.RequiresStockCheck())
		})
	}

	assert.Len(t, AllInvoiceKinds(), len(tests))
}

func TestParseInvoiceKind(t *testing.T) {
	tests := []struct {
		input string
		want  InvoiceKind
		ok    bool
	}{
		{"sale", KindSale, true},
		{"  PURCHASE ", KindPurchase, true},
		{"delivery-challan", KindDeliveryChallan, true},
		{"Sale Return", KindSaleReturn, true},
		{"quote", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseInvoiceKind(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
