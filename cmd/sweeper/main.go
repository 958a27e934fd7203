// Command sweeper runs a single deadline sweep and exits. It is meant for
// cron-style scheduling or manual operation against the same database the
// server uses.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/dispatcher"
	appwf "github.com/garyjia/rfq-procurement/internal/application/workflow"
	"github.com/garyjia/rfq-procurement/internal/config"
	"github.com/garyjia/rfq-procurement/internal/infrastructure/persistence/repository"
	"github.com/garyjia/rfq-procurement/internal/worker"
	"github.com/garyjia/rfq-procurement/pkg/database"
	"github.com/garyjia/rfq-procurement/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.SweepTimeout)
	defer cancel()

	rfqRepo := repository.NewRfqRepository(db, logger)
	bidRepo := repository.NewBidRepository(db, logger)
	negotiationRepo := repository.NewNegotiationRepository(db, logger)
	orderRepo := repository.NewPurchaseOrderRepository(db, logger)
	invitationRepo := repository.NewInvitationRepository(db, logger)
	historyRepo := repository.NewHistoryRepository(db, logger)

	store := repository.NewEntityStore(rfqRepo, bidRepo, negotiationRepo, orderRepo, invitationRepo)
	tables := appwf.BuildTables(rfqRepo, bidRepo)
	eventDispatcher := dispatcher.New(logger)
	engine := appwf.NewEngine(store, historyRepo, db, tables, logger,
		appwf.WithDispatcher(eventDispatcher))

	sweeper := worker.NewDeadlineSweeper(rfqRepo, invitationRepo, negotiationRepo,
		engine, cfg.Scheduler.SweepInterval, cfg.Scheduler.SweepTimeout, logger)

	result, err := sweeper.Sweep(ctx, time.Now().UTC())
	eventDispatcher.Close()
	if err != nil {
		logger.Fatal("Sweep failed", zap.Error(err))
	}

	logger.Info("Sweep finished",
		zap.Int("transitioned", result.Transitioned),
		zap.Int("failed", result.Failed))
}
