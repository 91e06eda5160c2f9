package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vinoprice/pricesync/internal/auditlog"
	"github.com/vinoprice/pricesync/internal/catalog"
	"github.com/vinoprice/pricesync/internal/config"
	"github.com/vinoprice/pricesync/internal/events"
	"github.com/vinoprice/pricesync/internal/logging"
	"github.com/vinoprice/pricesync/internal/sources"
	"github.com/vinoprice/pricesync/internal/syncer"
	"github.com/vinoprice/pricesync/internal/worker"
)

func main() {
	cfg := config.Load()
	logger := logging.NewStdLogger("worker-service ")

	logger.Printf("ENV=%q AUDIT_BACKEND=%q sync_enabled=%v",
		cfg.Env, cfg.AuditBackend, cfg.PriceSyncEnabled)

	if !cfg.PriceSyncEnabled {
		logger.Printf("PRICE_SYNC_ENABLED is false; nothing to do")
		return
	}

	if cfg.CatalogStoreURL == "" || cfg.CatalogAccessToken == "" {
		logger.Printf("catalog credentials are required for the sweep worker")
		os.Exit(1)
	}

	audit, err := auditlog.NewStore(context.Background(), auditlog.FactoryConfig{
		Backend:    cfg.AuditBackend,
		MySQLDSN:   cfg.MySQLDSN,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		logger.Printf("audit store init failed: %v", err)
		os.Exit(1)
	}
	if audit.DB != nil {
		defer func() { _ = audit.DB.Close() }()
	}

	adminClient, err := catalog.NewAdminClient(cfg.CatalogStoreURL, cfg.CatalogAccessToken, cfg.StoreTimeout)
	if err != nil {
		logger.Printf("catalog client init failed: %v", err)
		os.Exit(1)
	}

	svc := &syncer.Service{
		Catalog:     adminClient,
		Audit:       audit.Store,
		Events:      events.NopPublisher{},
		Logger:      logger,
		FloorMargin: cfg.FloorMargin,
		BinSize:     cfg.ModeBinSize,
	}

	if cfg.SerpAPIKey != "" {
		shopping := sources.NewShoppingClient(cfg.SerpBaseURL, cfg.SerpAPIKey, cfg.SearchTimeout)
		shopping.RawCap = cfg.RawPriceCap
		svc.Shopping = shopping
	} else {
		logger.Printf("SERP_API_KEY not set; shopping source disabled")
	}

	domains, err := sources.LoadCompetitorDomains(cfg.CompetitorsFile)
	if err != nil {
		logger.Printf("competitor domains load failed: %v", err)
		os.Exit(1)
	}
	if len(domains) > 0 {
		scanner := sources.NewStorefrontScanner(domains, cfg.StoreTimeout)
		scanner.MaxPages = cfg.MaxStorePages
		scanner.MinSimilarity = cfg.MinSimilarity
		svc.Storefront = scanner
	}

	if len(cfg.KafkaBrokers) > 0 {
		pub, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Printf("kafka publisher init failed: %v", err)
			os.Exit(1)
		}
		defer func() { _ = pub.Close() }()
		svc.Events = pub
	}

	r := worker.Runner{
		Syncer:      svc,
		Logger:      logger,
		Interval:    cfg.SyncInterval,
		PageSize:    cfg.SyncPageSize,
		Concurrency: cfg.MaxConcurrent,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Printf("starting (env=%s)", cfg.Env)

		err := r.Run(ctx)
		if err != nil && err != context.Canceled {
			logger.Printf("worker stopped: %v", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(logger, cancel)
}

func waitForShutdown(logger interface{ Printf(string, ...any) }, cancel func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Printf("shutdown signal received")
	cancel()
	logger.Printf("shutdown complete")
}
