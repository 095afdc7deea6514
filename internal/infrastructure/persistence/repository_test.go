package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/partner"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/erp/ledger/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noWithholding = trade.WithholdingRates{}

type fixture struct {
	repos    *Repositories
	customer *partner.Party
	supplier *partner.Party
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDatabase(t)
	f := &fixture{repos: NewRepositories(db.DB)}

	var err error
	f.customer, err = partner.NewParty("Acme Retail", partner.PartyTypeCustomer, decimal.Zero)
	require.NoError(t, err)
	f.supplier, err = partner.NewParty("Bolt Wholesale", partner.PartyTypeSupplier, testutil.Dec("250"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, f.repos.Parties.Save(ctx, f.customer))
	require.NoError(t, f.repos.Parties.Save(ctx, f.supplier))
	return f
}

func (f *fixture) item(t *testing.T, name, opening string) *inventory.Item {
	t.Helper()
	item, err := inventory.NewItem(name, "pcs", testutil.Dec(opening), testutil.Dec("40"), testutil.Dec("60"))
	require.NoError(t, err)
	require.NoError(t, f.repos.Items.Save(context.Background(), item))
	return item
}

func (f *fixture) stockOf(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	item, err := f.repos.Items.FindByID(context.Background(), id)
	require.NoError(t, err)
	return item.CurrentStock
}

func draft(item *inventory.Item, qty string) trade.LineDraft {
	return trade.LineDraft{
		ItemID:   item.ID,
		ItemName: item.Name,
		LineInput: trade.LineInput{
			Quantity: testutil.Dec(qty),
			Rate:     testutil.Dec("100"),
		},
	}
}

func newInvoice(t *testing.T, kind trade.InvoiceKind, party *partner.Party, date time.Time, drafts ...trade.LineDraft) *trade.Invoice {
	t.Helper()
	inv, err := trade.NewInvoice(kind, "", party.ID, date, nil, drafts, noWithholding)
	require.NoError(t, err)
	return inv
}

func assertDec(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, testutil.Dec(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestGormItemRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		f := newFixture(t)
		item := f.item(t, "Blue Pen", "10")
		alert := testutil.Dec("3")
		require.NoError(t, item.SetLowStockAlert(&alert))
		require.NoError(t, f.repos.Items.Save(ctx, item))

		found, err := f.repos.Items.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Blue Pen", found.Name)
		assertDec(t, "10", found.OpeningStock)
		assertDec(t, "10", found.CurrentStock)
		require.NotNil(t, found.LowStockAlert)
		assertDec(t, "3", *found.LowStockAlert)
	})

	t.Run("save never overwrites cached stock", func(t *testing.T) {
		f := newFixture(t)
		item := f.item(t, "Blue Pen", "10")
		require.NoError(t, f.repos.Items.SetCurrentStock(ctx, item.ID, testutil.Dec("7")))

		item.Name = "Blue Pen Fine"
		item.CurrentStock = testutil.Dec("999")
		require.NoError(t, f.repos.Items.Save(ctx, item))

		found, err := f.repos.Items.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Blue Pen Fine", found.Name)
		assertDec(t, "7", found.CurrentStock)
	})

	t.Run("unknown item", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.repos.Items.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		err = f.repos.Items.SetCurrentStock(ctx, uuid.New(), decimal.Zero)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("active items exclude soft-deleted ones", func(t *testing.T) {
		f := newFixture(t)
		pen := f.item(t, "Pen", "1")
		ink := f.item(t, "Ink", "1")
		require.NoError(t, ink.SoftDelete(time.Now()))
		require.NoError(t, f.repos.Items.Save(ctx, ink))

		active, err := f.repos.Items.FindActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, pen.ID, active[0].ID)

		byIDs, err := f.repos.Items.FindByIDs(ctx, []uuid.UUID{pen.ID, ink.ID, uuid.New()})
		require.NoError(t, err)
		require.Len(t, byIDs, 1)
		assert.Equal(t, pen.ID, byIDs[0].ID)
	})

	t.Run("purge removes only expired soft-deleted items", func(t *testing.T) {
		f := newFixture(t)
		now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
		old := f.item(t, "Old", "0")
		recent := f.item(t, "Recent", "0")
		live := f.item(t, "Live", "0")
		require.NoError(t, old.SoftDelete(now.Add(-10*24*time.Hour)))
		require.NoError(t, recent.SoftDelete(now.Add(-2*24*time.Hour)))
		require.NoError(t, f.repos.Items.Save(ctx, old))
		require.NoError(t, f.repos.Items.Save(ctx, recent))

		purgeable, err := f.repos.Items.FindPurgeable(ctx, now, 7*24*time.Hour)
		require.NoError(t, err)
		require.Len(t, purgeable, 1)
		assert.Equal(t, old.ID, purgeable[0].ID)

		n, err := f.repos.Items.Purge(ctx, []uuid.UUID{old.ID, live.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = f.repos.Items.FindByID(ctx, old.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = f.repos.Items.FindByID(ctx, live.ID)
		assert.NoError(t, err)
	})
}

func TestGormPartyRepository(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	found, err := f.repos.Parties.FindByID(ctx, f.supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bolt Wholesale", found.Name)
	assert.Equal(t, partner.PartyTypeSupplier, found.Type)
	assertDec(t, "250", found.OpeningBalance)

	all, err := f.repos.Parties.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Acme Retail", all[0].Name)

	customers, err := f.repos.Parties.FindByType(ctx, partner.PartyTypeCustomer)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, f.customer.ID, customers[0].ID)

	_, err = f.repos.Parties.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInvoiceRepository_StockMovement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pen := f.item(t, "Pen", "10")
	day := testutil.Date(2026, 1, 5)

	purchase := newInvoice(t, trade.KindPurchase, f.supplier, day, draft(pen, "5"))
	require.NoError(t, f.repos.Invoices.Save(ctx, purchase, nil))
	assertDec(t, "15", f.stockOf(t, pen.ID))

	sale := newInvoice(t, trade.KindSale, f.customer, day.AddDate(0, 0, 1), draft(pen, "3"))
	payment, err := finance.NewPayment(f.customer.ID, finance.DirectionIn, testutil.Dec("100"), sale.Date)
	require.NoError(t, err)
	payment.LinkInvoice(sale.ID)
	require.NoError(t, sale.ApplyPayment(payment.Amount))
	require.NoError(t, f.repos.Invoices.Save(ctx, sale, payment))
	assertDec(t, "12", f.stockOf(t, pen.ID))

	stored, err := f.repos.Invoices.FindByID(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assertDec(t, "3", stored.Lines[0].Quantity)
	assertDec(t, "100", stored.PaidAmount)

	t.Run("edit applies the net difference", func(t *testing.T) {
		require.NoError(t, stored.ReplaceLines([]trade.LineDraft{draft(pen, "1")}, noWithholding))
		require.NoError(t, f.repos.Invoices.Save(ctx, stored, nil))
		assertDec(t, "14", f.stockOf(t, pen.ID))

		reloaded, err := f.repos.Invoices.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		require.Len(t, reloaded.Lines, 1, "old lines are replaced")
		assertDec(t, "1", reloaded.Lines[0].Quantity)
	})

	t.Run("delete reverses stock and voids payments", func(t *testing.T) {
		current, err := f.repos.Invoices.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		current.MarkDeleted(time.Now())
		require.NoError(t, f.repos.Invoices.Delete(ctx, current))
		assertDec(t, "15", f.stockOf(t, pen.ID))

		payments, err := f.repos.Payments.FindAll(ctx, finance.PaymentFilter{InvoiceID: &sale.ID})
		require.NoError(t, err)
		assert.Empty(t, payments)

		live, err := f.repos.Invoices.FindAll(ctx, trade.InvoiceFilter{})
		require.NoError(t, err)
		require.Len(t, live, 1)
		assert.Equal(t, purchase.ID, live[0].ID)

		err = f.repos.Invoices.Delete(ctx, current)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_STATE", de.Code)
		assertDec(t, "15", f.stockOf(t, pen.ID))
	})
}

func TestGormInvoiceRepository_NonStockKindsLeaveCacheAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pen := f.item(t, "Pen", "10")

	estimate := newInvoice(t, trade.KindEstimate, f.customer, testutil.Date(2026, 1, 5), draft(pen, "4"))
	require.NoError(t, f.repos.Invoices.Save(ctx, estimate, nil))
	assertDec(t, "10", f.stockOf(t, pen.ID))
}

func TestGormInvoiceRepository_RollsBackOnPaymentFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pen := f.item(t, "Pen", "10")
	day := testutil.Date(2026, 1, 5)

	payment, err := finance.NewPayment(f.customer.ID, finance.DirectionIn, testutil.Dec("50"), day)
	require.NoError(t, err)
	first := newInvoice(t, trade.KindSale, f.customer, day, draft(pen, "2"))
	require.NoError(t, f.repos.Invoices.Save(ctx, first, payment))
	assertDec(t, "8", f.stockOf(t, pen.ID))

	// reusing the payment ID violates the primary key after the stock update ran
	second := newInvoice(t, trade.KindSale, f.customer, day, draft(pen, "5"))
	err = f.repos.Invoices.Save(ctx, second, payment)
	require.Error(t, err)

	assertDec(t, "8", f.stockOf(t, pen.ID))
	_, err = f.repos.Invoices.FindByID(ctx, second.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInvoiceRepository_SaveUnknownItemFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ghost, err := inventory.NewItem("Ghost", "pcs", decimal.Zero, decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	sale := newInvoice(t, trade.KindSale, f.customer, testutil.Date(2026, 1, 5), draft(ghost, "1"))
	err = f.repos.Invoices.Save(ctx, sale, nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.repos.Invoices.FindByID(ctx, sale.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInvoiceRepository_FindAllFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pen := f.item(t, "Pen", "100")
	ink := f.item(t, "Ink", "100")

	jan := newInvoice(t, trade.KindSale, f.customer, testutil.Date(2026, 1, 10), draft(pen, "1"))
	feb := newInvoice(t, trade.KindPurchase, f.supplier, testutil.Date(2026, 2, 10), draft(ink, "1"))
	mar := newInvoice(t, trade.KindSale, f.customer, testutil.Date(2026, 3, 10), draft(pen, "1"), draft(ink, "1"))
	for _, inv := range []*trade.Invoice{mar, jan, feb} {
		require.NoError(t, f.repos.Invoices.Save(ctx, inv, nil))
	}

	ids := func(invoices []*trade.Invoice) []uuid.UUID {
		out := make([]uuid.UUID, len(invoices))
		for i, inv := range invoices {
			out[i] = inv.ID
		}
		return out
	}
	before := testutil.Date(2026, 3, 1)

	tests := []struct {
		name     string
		filter   trade.InvoiceFilter
		expected []uuid.UUID
	}{
		{"all ordered by date", trade.InvoiceFilter{}, []uuid.UUID{jan.ID, feb.ID, mar.ID}},
		{"by kind", trade.InvoiceFilter{Kinds: []trade.InvoiceKind{trade.KindPurchase}}, []uuid.UUID{feb.ID}},
		{"by party", trade.InvoiceFilter{PartyID: &f.customer.ID}, []uuid.UUID{jan.ID, mar.ID}},
		{"before date", trade.InvoiceFilter{Before: &before}, []uuid.UUID{jan.ID, feb.ID}},
		{"by item", trade.InvoiceFilter{ItemIDs: []uuid.UUID{ink.ID}}, []uuid.UUID{feb.ID, mar.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := f.repos.Invoices.FindAll(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(found))
		})
	}

	t.Run("lines keep their order", func(t *testing.T) {
		found, err := f.repos.Invoices.FindByID(ctx, mar.ID)
		require.NoError(t, err)
		require.Len(t, found.Lines, 2)
		assert.Equal(t, pen.ID, found.Lines[0].ItemID)
		assert.Equal(t, ink.ID, found.Lines[1].ItemID)
	})
}

func TestGormPaymentRepository(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	onAccount, err := finance.NewPayment(f.supplier.ID, finance.DirectionOut, testutil.Dec("75"), testutil.Date(2026, 1, 20))
	require.NoError(t, err)
	require.NoError(t, f.repos.Payments.Save(ctx, onAccount))

	t.Run("filter by party", func(t *testing.T) {
		found, err := f.repos.Payments.FindAll(ctx, finance.PaymentFilter{PartyID: &f.supplier.ID})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, finance.DirectionOut, found[0].Direction)
		assertDec(t, "75", found[0].Amount)
		assert.Nil(t, found[0].InvoiceID)
	})

	t.Run("legacy direction spellings are normalized", func(t *testing.T) {
		legacy := &models.PaymentModel{
			BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
			PartyID:   f.customer.ID,
			Direction: "payment-in",
			Amount:    testutil.Dec("20"),
			Date:      testutil.Date(2026, 1, 21),
		}
		require.NoError(t, f.repos.Payments.db.Create(legacy).Error)

		found, err := f.repos.Payments.FindAll(ctx, finance.PaymentFilter{PartyID: &f.customer.ID})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, finance.DirectionIn, found[0].Direction)
	})

	t.Run("unknown direction is an error", func(t *testing.T) {
		bad := &models.PaymentModel{
			BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
			PartyID:   f.supplier.ID,
			Direction: "sideways",
			Amount:    testutil.Dec("1"),
			Date:      testutil.Date(2026, 1, 22),
		}
		require.NoError(t, f.repos.Payments.db.Create(bad).Error)

		_, err := f.repos.Payments.FindAll(ctx, finance.PaymentFilter{PartyID: &f.supplier.ID})
		assert.Error(t, err)
	})
}

func TestGormInvoiceRepository_KeepsUnroundedLineValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pen := f.item(t, "Pen", "10")

	line := draft(pen, "3")
	line.Rate = testutil.Dec("0.12345")
	line.DiscountPercent = testutil.Dec("0.124875")
	purchase := newInvoice(t, trade.KindPurchase, f.supplier, testutil.Date(2026, 2, 1), line)
	require.NoError(t, f.repos.Invoices.Save(ctx, purchase, nil))

	stored, err := f.repos.Invoices.FindByID(ctx, purchase.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assertDec(t, "0.12345", stored.Lines[0].Rate)
	assertDec(t, "0.124875", stored.Lines[0].DiscountPercent)
	assertDec(t, purchase.Lines[0].Total.String(), stored.Lines[0].Total)
	assertDec(t, purchase.Subtotal.String(), stored.Subtotal)
}
