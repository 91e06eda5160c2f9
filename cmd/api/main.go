package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vinoprice/pricesync/internal/api"
	"github.com/vinoprice/pricesync/internal/api/auth"
	"github.com/vinoprice/pricesync/internal/api/middleware"
	"github.com/vinoprice/pricesync/internal/auditlog"
	"github.com/vinoprice/pricesync/internal/catalog"
	"github.com/vinoprice/pricesync/internal/config"
	"github.com/vinoprice/pricesync/internal/events"
	"github.com/vinoprice/pricesync/internal/logging"
	"github.com/vinoprice/pricesync/internal/sources"
	"github.com/vinoprice/pricesync/internal/syncer"
)

func main() {
	cfg := config.Load()
	logger := logging.NewStdLogger("api-service ")

	ctx := context.Background()

	audit, err := auditlog.NewStore(ctx, auditlog.FactoryConfig{
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

	svc := &syncer.Service{
		Audit:       audit.Store,
		Events:      events.NopPublisher{},
		Logger:      logger,
		FloorMargin: cfg.FloorMargin,
		BinSize:     cfg.ModeBinSize,
	}

	if cfg.CatalogStoreURL != "" && cfg.CatalogAccessToken != "" {
		adminClient, err := catalog.NewAdminClient(cfg.CatalogStoreURL, cfg.CatalogAccessToken, cfg.StoreTimeout)
		if err != nil {
			logger.Printf("catalog client init failed: %v", err)
			os.Exit(1)
		}
		svc.Catalog = adminClient
	} else {
		logger.Printf("catalog credentials not set; candidate listing and updates disabled")
	}

	var shopping *sources.ShoppingClient
	if cfg.SerpAPIKey != "" {
		shopping = sources.NewShoppingClient(cfg.SerpBaseURL, cfg.SerpAPIKey, cfg.SearchTimeout)
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

	var organic *sources.OrganicClient
	if cfg.SerpAPIKey != "" {
		organic = sources.NewOrganicClient(cfg.SerpBaseURL, cfg.SerpAPIKey, cfg.SearchTimeout, cfg.ScrapeTimeout)
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

	pubKey, keyErr := auth.LoadRSAPublicKeyFromEnv("JWT_PUBLIC_KEY_PEM")
	if keyErr != nil {
		if cfg.Env != "dev" {
			logger.Printf("auth key load failed: %v", keyErr)
			os.Exit(1)
		}
		logger.Printf("auth public key not configured; dev passthrough active")
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	idemStore := middleware.NewMemoryIdempotencyStore(24 * time.Hour)

	protect := func(next http.Handler) http.Handler {
		return middleware.AuthMiddleware{
			Env:       cfg.Env,
			PublicKey: pubKey,
			Next:      next,
		}
	}

	idempotent := func(next http.Handler) http.Handler {
		return protect(middleware.Idempotency{Store: idemStore, Next: next})
	}

	mux.Handle("/v1/price-sync/candidates", protect(api.CandidatesHandler{
		Syncer:       svc,
		Enabled:      cfg.PriceSyncEnabled,
		DefaultLimit: cfg.SyncPageSize,
	}))

	mux.Handle("/v1/price-sync/analyze", protect(api.AnalyzeHandler{Syncer: svc}))
	mux.Handle("/v1/price-sync/calculate-target", protect(api.CalculateTargetHandler{Syncer: svc}))
	mux.Handle("/v1/price-sync/execute-update", idempotent(api.ExecuteUpdateHandler{Syncer: svc}))
	mux.Handle("/v1/price-sync/logs", protect(api.LogsHandler{Store: audit.Store}))

	batchHandler := api.BatchPricingHandler{
		FloorMargin: cfg.FloorMargin,
		Concurrency: cfg.MaxConcurrent,
	}
	if shopping != nil {
		batchHandler.Shopping = shopping
	}
	mux.Handle("/v1/pricing/batch", idempotent(batchHandler))

	contextHandler := api.ContextHandler{}
	if organic != nil {
		contextHandler.Organic = organic
	}
	mux.Handle("/v1/pricing/context", protect(contextHandler))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Printf("starting (env=%s) on %s", cfg.Env, server.Addr)

		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Printf("server error: %v", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(logger, server)
}

func waitForShutdown(logger interface{ Printf(string, ...any) }, server *http.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Printf("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = server.Shutdown(ctx)
	logger.Printf("shutdown complete")
}
