package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendlog/internal/amqp"
	"spendlog/internal/budget"
	"spendlog/internal/cache"
	"spendlog/internal/config"
	"spendlog/internal/core"
	"spendlog/internal/dashboard"
	apphttp "spendlog/internal/http"
	"spendlog/internal/ledger"
	applog "spendlog/internal/log"
	"spendlog/internal/notify"
	"spendlog/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			applog.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional: without a broker, notifications go to the log
	// and nothing is exported.
	var (
		sink    notify.Sink = notify.LogSink{}
		syncPub ledger.SyncPublisher
	)
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
			os.Exit(1)
		}
		defer amqpClient.Close()
		syncPub = amqpClient
		sink = amqp.NewNotificationSink(amqpClient, "")
		logger.Info("AMQP connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - notifications go to the log only")
	}

	currency, ok := core.CurrencyByCode(cfg.DisplayCurrency)
	if !ok {
		currency = core.BaseCurrency()
	}
	engine := budget.NewEngine(repo, sink, currency)
	svc := ledger.NewService(repo, engine, syncPub)
	dash := dashboard.NewService(repo, engine)

	cacheMgr := cache.NewManager()
	cacheMgr.StartCleanup(10 * time.Minute)
	defer cacheMgr.Stop()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:         ":" + cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		CacheSize:    cfg.DashboardCacheSize,
		CacheTTL:     cfg.DashboardCacheTTL,
	}, svc, engine, dash, logger, cacheMgr)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("Starting spendlog server",
		"port", cfg.Port,
		"db_path", cfg.SQLiteDBPath,
		"display_currency", currency.Code)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
