package handler

import (
	"context"

	tradeapp "github.com/erp/ledger/internal/application/trade"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceService is the application surface the invoice endpoints call
type InvoiceService interface {
	Preview(req tradeapp.PreviewInvoiceRequest) (*tradeapp.PreviewResponse, error)
	Save(ctx context.Context, req tradeapp.SaveInvoiceRequest) (*trade.Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// InvoiceHandler handles invoice entry endpoints
type InvoiceHandler struct {
	BaseHandler
	service InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(service InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// Preview computes line and header totals for an invoice being entered. Nothing is written.
//
//	POST /invoices/preview
func (h *InvoiceHandler) Preview(c *gin.Context) {
	var req tradeapp.PreviewInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	preview, err := h.service.Preview(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}

// Save validates the invoice, checks stock for outgoing kinds and persists it together
// with its stock movement and optional payment. A request carrying an id replaces that invoice.
//
//	POST /invoices
func (h *InvoiceHandler) Save(c *gin.Context) {
	var req tradeapp.SaveInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	inv, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if req.ID != nil {
		h.Success(c, tradeapp.ToInvoiceResponse(inv))
		return
	}
	h.Created(c, tradeapp.ToInvoiceResponse(inv))
}

// Delete soft-deletes an invoice and reverses its stock effect
//
//	DELETE /invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
