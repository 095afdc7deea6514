package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	inventoryapp "github.com/erp/ledger/internal/application/inventory"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Write operations reported to the observer
const (
	OperationSave   = "save"
	OperationDelete = "delete"
)

// Write outcomes reported to the observer
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Observer receives invoice write outcomes
type Observer interface {
	ObserveInvoiceWrite(operation, kind, outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveInvoiceWrite(string, string, string) {}

// InvoiceService validates, prices and persists invoices
type InvoiceService struct {
	invoices trade.InvoiceRepository
	items    inventory.ItemRepository
	scope    inventoryapp.TransactionScope
	rates    trade.WithholdingRates
	logger   *zap.Logger
	observer Observer
	now      func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoices trade.InvoiceRepository,
	items inventory.ItemRepository,
	scope inventoryapp.TransactionScope,
	rates trade.WithholdingRates,
	logger *zap.Logger,
	observer Observer,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &InvoiceService{
		invoices: invoices,
		items:    items,
		scope:    scope,
		rates:    rates,
		logger:   logger,
		observer: observer,
		now:      time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *InvoiceService) WithClock(now func() time.Time) *InvoiceService {
	s.now = now
	return s
}

func parseKind(s string) (trade.InvoiceKind, error) {
	kind, ok := trade.ParseInvoiceKind(s)
	if !ok {
		return "", shared.NewDomainError("INVALID_KIND", "Unknown invoice kind: "+s)
	}
	return kind, nil
}

// Preview computes line and header figures for unsaved input. Nothing is read or written.
func (s *InvoiceService) Preview(req PreviewInvoiceRequest) (*PreviewResponse, error) {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return nil, err
	}

	inputs := make([]trade.LineInput, len(req.Lines))
	amounts := make([]trade.LineAmounts, len(req.Lines))
	for i, l := range req.Lines {
		inputs[i] = l.lineInput()
		if err := inputs[i].Validate(); err != nil {
			var de *shared.DomainError
			if errors.As(err, &de) {
				return nil, shared.NewDomainError(de.Code, fmt.Sprintf("line %d: %s", i+1, de.Message))
			}
			return nil, err
		}
		amounts[i] = trade.CalculateLine(inputs[i])
	}

	totals := trade.CalculateTotals(inputs, s.rates.RateFor(kind))
	return &PreviewResponse{
		Lines:      amounts,
		Totals:     totals,
		Settlement: trade.Settle(totals.GrandTotal, req.PaidAmount),
	}, nil
}

// Save validates the request, checks stock for stock-reducing kinds and persists the
// invoice with its optional payment atomically. With req.ID set the stored invoice is
// replaced and its paid amount carried over.
//
// The availability check and the write share one transaction. The items the invoice
// moves are locked first, so two sales of the last units cannot both pass the check.
func (s *InvoiceService) Save(ctx context.Context, req SaveInvoiceRequest) (inv *trade.Invoice, err error) {
	kindLabel := req.Kind
	defer func() {
		s.observer.ObserveInvoiceWrite(OperationSave, kindLabel, classify(err))
	}()

	kind, err := parseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	kindLabel = kind.String()

	items, err := s.loadItems(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	drafts := make([]trade.LineDraft, len(req.Lines))
	for i, l := range req.Lines {
		drafts[i] = trade.LineDraft{ItemID: l.ItemID, LineInput: l.lineInput()}
		if item, ok := items[l.ItemID]; ok {
			drafts[i].ItemName = item.Name
		}
	}

	inv, err = trade.NewInvoice(kind, req.Number, req.PartyID, req.Date, req.DueDate, drafts, s.rates)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		paymentDate := inv.Date
		if req.ID != nil {
			prev, err := repos.Invoices().FindByID(ctx, *req.ID)
			if err != nil {
				return fmt.Errorf("load invoice %s: %w", req.ID, err)
			}
			if err := inv.ReviseFrom(prev); err != nil {
				return err
			}
			paymentDate = s.now()
		}

		if err := s.lockAndCheckStock(ctx, repos, inv); err != nil {
			return err
		}

		payment, err := s.recordPayment(inv, req.PaidAmount, paymentDate)
		if err != nil {
			return err
		}

		if err := repos.Invoices().Save(ctx, inv, payment); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice saved",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("kind", kind.String()),
		zap.String("total", inv.TotalAmount.String()),
		zap.String("status", inv.Status.String()),
		zap.Bool("revision", req.ID != nil),
	)
	return inv, nil
}

// Delete soft-deletes an invoice and reverses its stock effect
func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	kindLabel := "unknown"
	defer func() {
		s.observer.ObserveInvoiceWrite(OperationDelete, kindLabel, classify(err))
	}()

	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load invoice %s: %w", id, err)
	}
	kindLabel = inv.Kind.String()
	if inv.IsDeleted {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already deleted")
	}

	inv.MarkDeleted(s.now())
	if err := s.invoices.Delete(ctx, inv); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}

	s.logger.Info("invoice deleted",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("kind", inv.Kind.String()),
	)
	return nil
}

// loadItems fetches every referenced item, failing with NOT_FOUND on the first unknown one
func (s *InvoiceService) loadItems(ctx context.Context, lines []InvoiceLineInput) (map[uuid.UUID]*inventory.Item, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, l := range lines {
		if l.ItemID == uuid.Nil || seen[l.ItemID] {
			continue
		}
		seen[l.ItemID] = true
		ids = append(ids, l.ItemID)
	}
	if len(ids) == 0 {
		return map[uuid.UUID]*inventory.Item{}, nil
	}

	found, err := s.items.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	items := make(map[uuid.UUID]*inventory.Item, len(found))
	for _, item := range found {
		items[item.ID] = item
	}
	for _, id := range ids {
		if _, ok := items[id]; !ok {
			return nil, shared.WrapDomainError(shared.ErrNotFound, "Item %s not found", id)
		}
	}
	return items, nil
}

// lockAndCheckStock locks the rows of every item the invoice moves and, for
// stock-reducing kinds, verifies availability against quantities derived from history
// read under those locks, never against the cached counter. The invoice's own earlier
// lines are excluded on edit.
func (s *InvoiceService) lockAndCheckStock(ctx context.Context, repos inventoryapp.TransactionalRepositories, inv *trade.Invoice) error {
	deltas := inv.StockDeltas()
	if len(deltas) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(deltas))
	for i, d := range deltas {
		ids[i] = d.ItemID
	}

	locked, err := repos.Items().LockByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("lock items: %w", err)
	}
	if !inv.Kind.RequiresStockCheck() {
		return nil
	}
	items := make(map[uuid.UUID]*inventory.Item, len(locked))
	for _, item := range locked {
		items[item.ID] = item
	}

	history, err := repos.Invoices().FindAll(ctx, trade.InvoiceFilter{ItemIDs: ids})
	if err != nil {
		return fmt.Errorf("load stock history: %w", err)
	}
	lines := inventory.ExcludeInvoice(inventory.StockLinesFromInvoices(history), inv.ID)

	for _, d := range deltas {
		item, ok := items[d.ItemID]
		if !ok {
			return shared.WrapDomainError(shared.ErrNotFound, "Item %s not found", d.ItemID)
		}
		if err := inventory.CheckAvailability(item, lines, d.Quantity.Neg()); err != nil {
			s.logger.Warn("insufficient stock",
				zap.String("item_id", d.ItemID.String()),
				zap.String("requested", d.Quantity.Neg().String()),
			)
			return err
		}
	}
	return nil
}

// recordPayment applies the amount to the invoice and returns the matching payment record
// dated at. Only the part that was actually applied after clamping is recorded.
func (s *InvoiceService) recordPayment(inv *trade.Invoice, amount decimal.Decimal, at time.Time) (*finance.Payment, error) {
	if !amount.IsPositive() {
		return nil, nil
	}
	before := inv.PaidAmount
	if err := inv.ApplyPayment(amount); err != nil {
		return nil, err
	}
	applied := inv.PaidAmount.Sub(before)
	if !applied.IsPositive() {
		return nil, nil
	}

	direction := finance.DirectionIn
	if inv.Kind.Side() == trade.SidePurchase {
		direction = finance.DirectionOut
	}
	payment, err := finance.NewPayment(inv.PartyID, direction, applied, at)
	if err != nil {
		return nil, err
	}
	payment.LinkInvoice(inv.ID)
	return payment, nil
}

func classify(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return OutcomeRejected
	}
	return OutcomeError
}
