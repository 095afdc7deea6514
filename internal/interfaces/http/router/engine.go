package router

import (
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/metrics"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes caps request bodies when Options leaves it unset
const DefaultMaxBodyBytes int64 = 1 << 20

// Services are the application services the API exposes
type Services struct {
	Invoices handler.InvoiceService
	Reports  handler.ReportService
	Stock    handler.StockService
	DB       handler.Pinger
}

// Options tune the engine's ambient middleware
type Options struct {
	Logger       *zap.Logger
	Metrics      *metrics.Metrics // nil disables /metrics and request metrics
	MaxBodyBytes int64
}

// NewEngine builds the gin engine with logging, recovery, metrics and every API route
func NewEngine(svc Services, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(logger.Recovery(log), logger.GinMiddleware(log))
	if opts.Metrics != nil {
		engine.Use(middleware.HTTPMetrics(opts.Metrics))
		engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	engine.Use(middleware.BodyLimit(opts.MaxBodyBytes))

	system := handler.NewSystemHandler(svc.DB)
	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)

	invoices := handler.NewInvoiceHandler(svc.Invoices)
	reports := handler.NewReportHandler(svc.Reports)
	items := handler.NewItemHandler(svc.Stock)

	NewRouter(engine).
		Register(NewDomainGroup("invoices", "/invoices").
			POST("/preview", invoices.Preview).
			POST("", invoices.Save).
			DELETE("/:id", invoices.Delete)).
		Register(NewDomainGroup("reports", "/reports").
			GET("/stock-ledger", reports.StockLedger).
			GET("/party-balances", reports.PartyBalances).
			GET("/dashboard", reports.Dashboard)).
		Register(NewDomainGroup("items", "/items").
			POST("/recompute-stock", items.RecomputeStock).
			POST("/purge", items.Purge).
			POST("/:id/restore", items.Restore).
			DELETE("/:id", items.Delete)).
		Setup()

	return engine
}
