package handler

import (
	"context"
	"time"

	inventoryapp "github.com/erp/ledger/internal/application/inventory"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockService is the application surface the item maintenance endpoints call
type StockService interface {
	RecomputeCurrentStock(ctx context.Context) ([]inventoryapp.StockCorrection, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	RestoreItem(ctx context.Context, id uuid.UUID) (*inventory.Item, error)
	PurgeDeletedItems(ctx context.Context) (*inventoryapp.PurgeResult, error)
}

// ItemResponse represents an item in API responses
type ItemResponse struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Unit          string           `json:"unit"`
	OpeningStock  decimal.Decimal  `json:"opening_stock"`
	CurrentStock  decimal.Decimal  `json:"current_stock"`
	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	SalePrice     decimal.Decimal  `json:"sale_price"`
	LowStockAlert *decimal.Decimal `json:"low_stock_alert,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func toItemResponse(item *inventory.Item) ItemResponse {
	return ItemResponse{
		ID:            item.ID,
		Name:          item.Name,
		Unit:          item.Unit,
		OpeningStock:  item.OpeningStock,
		CurrentStock:  item.CurrentStock,
		PurchasePrice: item.PurchasePrice,
		SalePrice:     item.SalePrice,
		LowStockAlert: item.LowStockAlert,
		UpdatedAt:     item.UpdatedAt,
	}
}

// ItemHandler handles item lifecycle and stock maintenance endpoints
type ItemHandler struct {
	BaseHandler
	service StockService
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(service StockService) *ItemHandler {
	return &ItemHandler{service: service}
}

// RecomputeStock rewrites every cached quantity that disagrees with the ledger
//
//	POST /items/recompute-stock
func (h *ItemHandler) RecomputeStock(c *gin.Context) {
	corrections, err := h.service.RecomputeCurrentStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"corrections": corrections})
}

// Delete soft-deletes an item
//
//	DELETE /items/:id
func (h *ItemHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteItem(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Restore brings back a soft-deleted item within the retention window
//
//	POST /items/:id/restore
func (h *ItemHandler) Restore(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	item, err := h.service.RestoreItem(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toItemResponse(item))
}

// Purge permanently removes items whose retention window has passed
//
//	POST /items/purge
func (h *ItemHandler) Purge(c *gin.Context) {
	result, err := h.service.PurgeDeletedItems(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
