package handler

import (
	"context"
	"time"

	reportapp "github.com/erp/ledger/internal/application/report"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/report"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// ReportService is the application surface the report endpoints call
type ReportService interface {
	StockLedger(ctx context.Context, period inventory.Period) (*reportapp.StockLedgerResult, error)
	PartyBalances(ctx context.Context) (*reportapp.PartyBalancesResult, error)
	Dashboard(ctx context.Context) (*report.Dashboard, error)
}

// ReportHandler serves the derived ledger reports. Every call recomputes from history.
type ReportHandler struct {
	BaseHandler
	service ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// StockLedger returns opening, inward, outward and closing figures per item.
// Both dates are inclusive calendar days in UTC.
//
//	GET /reports/stock-ledger?start_date=2026-01-01&end_date=2026-01-31
func (h *ReportHandler) StockLedger(c *gin.Context) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	// the binding tags already checked the layout
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	period, err := inventory.NewDateRange(start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.service.StockLedger(c.Request.Context(), period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// PartyBalances returns every party's running balance and the portfolio totals
//
//	GET /reports/party-balances
func (h *ReportHandler) PartyBalances(c *gin.Context) {
	result, err := h.service.PartyBalances(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Dashboard returns the home screen read model
//
//	GET /reports/dashboard
func (h *ReportHandler) Dashboard(c *gin.Context) {
	result, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
