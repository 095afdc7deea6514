package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	inventoryapp "github.com/erp/ledger/internal/application/inventory"
	reportapp "github.com/erp/ledger/internal/application/report"
	tradeapp "github.com/erp/ledger/internal/application/trade"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/metrics"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/scheduler"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting ledger service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	// postgres schemas are managed outside the service
	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.Migrate(context.Background()); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	repos := persistence.NewRepositories(db.DB)
	m := metrics.New()

	invoiceService := tradeapp.NewInvoiceService(repos.Invoices, repos.Items, repos.Scope,
		trade.WithholdingRates{
			Sale:     cfg.Ledger.SaleWithholdingRate,
			Purchase: cfg.Ledger.PurchaseWithholdingRate,
		},
		log.Named("invoice"), m)
	reportService := reportapp.NewReportService(repos.Items, repos.Invoices, repos.Payments, repos.Parties,
		reportapp.Settings{
			TrendMonths:          cfg.Ledger.TrendMonths,
			DefaultLowStockAlert: cfg.Ledger.DefaultLowStockAlert,
		},
		log.Named("report"), m)
	stockService := inventoryapp.NewStockService(repos.Items, repos.Scope,
		cfg.Ledger.SoftDeleteRetention, log.Named("stock"), m)

	if cfg.Maintenance.Enabled {
		stop, err := startMaintenance(cfg.Maintenance, stockService, log.Named("maintenance"))
		if err != nil {
			log.Fatal("Failed to start maintenance scheduler", zap.Error(err))
		}
		defer stop(cfg.HTTP.ShutdownTimeout)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.NewEngine(router.Services{
		Invoices: invoiceService,
		Reports:  reportService,
		Stock:    stockService,
		DB:       db,
	}, router.Options{
		Logger:  log,
		Metrics: m,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

// startMaintenance runs the nightly stock recompute and purge of expired deleted items.
// The returned function stops the trigger and then the workers.
func startMaintenance(cfg config.MaintenanceConfig, stock *inventoryapp.StockService, log *zap.Logger) (func(time.Duration), error) {
	sched := scheduler.NewScheduler(scheduler.Config{
		MaxConcurrentJobs: 1,
		JobTimeout:        cfg.JobTimeout,
		RetryAttempts:     cfg.RetryAttempts,
		RetryDelay:        cfg.RetryDelay,
	}, log).
		Register(scheduler.JobRecomputeStock, func(ctx context.Context) error {
			corrections, err := stock.RecomputeCurrentStock(ctx)
			if err != nil {
				return err
			}
			logger.FromContext(ctx).Info("Stock recomputed", zap.Int("corrections", len(corrections)))
			return nil
		}).
		Register(scheduler.JobPurgeDeletedItems, func(ctx context.Context) error {
			result, err := stock.PurgeDeletedItems(ctx)
			if err != nil {
				return err
			}
			logger.FromContext(ctx).Info("Deleted items purged", zap.Int64("purged", result.Purged))
			return nil
		})

	trigger, err := scheduler.NewDailyTrigger(cfg.Schedule, cfg.CheckInterval, sched, log)
	if err != nil {
		return nil, err
	}
	if err := sched.Start(context.Background()); err != nil {
		return nil, err
	}
	if err := trigger.Start(context.Background()); err != nil {
		return nil, err
	}

	return func(timeout time.Duration) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := trigger.Stop(ctx); err != nil {
			log.Warn("Error stopping maintenance trigger", zap.Error(err))
		}
		if err := sched.Stop(ctx); err != nil {
			log.Warn("Error stopping maintenance scheduler", zap.Error(err))
		}
	}, nil
}
