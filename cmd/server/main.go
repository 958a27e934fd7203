package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/dispatcher"
	"github.com/garyjia/rfq-procurement/internal/application/service"
	appwf "github.com/garyjia/rfq-procurement/internal/application/workflow"
	"github.com/garyjia/rfq-procurement/internal/config"
	"github.com/garyjia/rfq-procurement/internal/currency"
	"github.com/garyjia/rfq-procurement/internal/domain/event"
	"github.com/garyjia/rfq-procurement/internal/infrastructure/persistence/repository"
	httpadapter "github.com/garyjia/rfq-procurement/internal/interfaces/http"
	"github.com/garyjia/rfq-procurement/internal/notification"
	"github.com/garyjia/rfq-procurement/internal/worker"
	"github.com/garyjia/rfq-procurement/pkg/database"
	"github.com/garyjia/rfq-procurement/pkg/utils"
)

func main() {
	// Local overrides from .env, ignored when absent
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

	logger.Info("Starting RFQ procurement service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(ctx, cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	rfqRepo := repository.NewRfqRepository(db, logger)
	bidRepo := repository.NewBidRepository(db, logger)
	negotiationRepo := repository.NewNegotiationRepository(db, logger)
	orderRepo := repository.NewPurchaseOrderRepository(db, logger)
	invitationRepo := repository.NewInvitationRepository(db, logger)
	historyRepo := repository.NewHistoryRepository(db, logger)
	rateRepo := repository.NewRateRepository(db, logger)
	notificationRepo := repository.NewNotificationRepository(db, logger)

	// Workflow engine
	store := repository.NewEntityStore(rfqRepo, bidRepo, negotiationRepo, orderRepo, invitationRepo)
	tables := appwf.BuildTables(rfqRepo, bidRepo)
	eventDispatcher := dispatcher.New(logger)
	engine := appwf.NewEngine(store, historyRepo, db, tables, logger,
		appwf.WithDispatcher(eventDispatcher))

	// Record every dispatched event as notification rows
	recorder := notification.NewRecorder(notificationRepo, logger)
	for _, t := range event.AllTypes() {
		eventDispatcher.Subscribe(t, "notification-recorder", recorder.Dispatch)
	}

	// Application services
	converter := currency.NewConverter(rateRepo, logger)
	rfqService := service.NewRfqService(rfqRepo, bidRepo, orderRepo, invitationRepo,
		engine, db, eventDispatcher, logger)
	orderService := service.NewOrderService(orderRepo, engine, logger)
	negotiationService := service.NewNegotiationSession(negotiationRepo, rfqRepo,
		converter, engine, db, eventDispatcher, logger)

	// Background workers
	workerManager := worker.NewManager(logger)
	workerManager.Register(worker.NewDeadlineSweeper(
		rfqRepo, invitationRepo, negotiationRepo, engine,
		cfg.Scheduler.SweepInterval, cfg.Scheduler.SweepTimeout, logger))

	if err := workerManager.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	// HTTP adapter
	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:                 cfg.Server.Host,
		Port:                 cfg.Server.Port,
		ReadTimeout:          cfg.Server.ReadTimeout,
		WriteTimeout:         cfg.Server.WriteTimeout,
		DefaultInvitationTTL: cfg.Workflow.DefaultInvitationTTL,
	}, rfqService, orderService, negotiationService, engine, converter,
		httpadapter.NewZapLogger(logger))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down...")
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	cancel()
	workerManager.StopAll()
	eventDispatcher.Close()

	logger.Info("Server exited")
}
