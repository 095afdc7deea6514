package main

import (
	"context"
	"fmt"

	inventoryapp "github.com/erp/ledger/internal/application/inventory"
	reportapp "github.com/erp/ledger/internal/application/report"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

// session is what every subcommand works with once the root has connected
type session struct {
	log     *zap.Logger
	db      *persistence.Database
	reports *reportapp.ReportService
	stock   *inventoryapp.StockService
}

func (s *session) close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("Error closing database", zap.Error(err))
		}
	}
	_ = s.log.Sync()
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		sess       = &session{}
	)

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operator CLI for the derived ledger",
		Long: `ledgerctl runs the ledger reports and maintenance jobs directly against the database.

Configuration is read from config.toml (or --config) and LEDGER_* environment variables,
the same way the server reads it.`,
		Example: `  # Stock movement for January
  ledgerctl stock-ledger --start 2026-01-01 --end 2026-01-31

  # Fix cached stock drift and purge expired deleted items
  ledgerctl recompute-stock --purge`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return sess.open(cmd.Context(), configPath, logLevel)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			sess.close()
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: ./config.toml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newStockLedgerCmd(sess),
		newBalancesCmd(sess),
		newDashboardCmd(sess),
		newRecomputeStockCmd(sess),
	)
	return root
}

func (s *session) open(ctx context.Context, configPath, logLevel string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logCfg := logger.FromAppConfig(cfg.Log)
	logCfg.Level = logLevel
	logCfg.Output = "stderr"
	s.log, err = logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	s.db, err = persistence.NewDatabase(&cfg.Database,
		logger.NewGormLogger(s.log, logger.MapGormLogLevel(logLevel)))
	if err != nil {
		return err
	}
	if cfg.Database.Driver == config.DriverSQLite {
		if err := s.db.Migrate(ctx); err != nil {
			return err
		}
	}

	repos := persistence.NewRepositories(s.db.DB)
	s.reports = reportapp.NewReportService(repos.Items, repos.Invoices, repos.Payments, repos.Parties,
		reportapp.Settings{
			TrendMonths:          cfg.Ledger.TrendMonths,
			DefaultLowStockAlert: cfg.Ledger.DefaultLowStockAlert,
		},
		s.log, nil)
	s.stock = inventoryapp.NewStockService(repos.Items, repos.Scope,
		cfg.Ledger.SoftDeleteRetention, s.log, nil)

	s.log.Debug("Connected", zap.String("driver", cfg.Database.Driver))
	return nil
}
