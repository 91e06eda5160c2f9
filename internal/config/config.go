package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port string

	// Audit log persistence: memory | mysql | sqlite
	AuditBackend string
	MySQLDSN     string // required when AUDIT_BACKEND=mysql
	SQLitePath   string // used when AUDIT_BACKEND=sqlite

	// Downstream catalog (admin GraphQL API)
	CatalogStoreURL    string
	CatalogAccessToken string

	// Search provider
	SerpBaseURL string
	SerpAPIKey  string

	// Storefront scan
	CompetitorsFile string

	// Pricing policy / aggregation tunables
	FloorMargin   float64
	ModeBinSize   float64
	RawPriceCap   int
	MinSimilarity float64
	MaxStorePages int
	SearchTimeout time.Duration
	ScrapeTimeout time.Duration
	StoreTimeout  time.Duration

	// Batch orchestration
	MaxConcurrent int

	// Sync pipeline
	PriceSyncEnabled bool
	SyncInterval     time.Duration
	SyncPageSize     int

	// Price change events (disabled when no brokers configured)
	KafkaBrokers []string
	KafkaTopic   string
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:  getenv("ENV", "dev"),
		Port: getenv("PORT", "8080"),

		AuditBackend: getenv("AUDIT_BACKEND", "memory"),
		MySQLDSN:     getenv("DB_DSN", ""),
		SQLitePath:   getenv("SQLITE_PATH", "pricesync.db"),

		CatalogStoreURL:    getenv("CATALOG_STORE_URL", ""),
		CatalogAccessToken: getenv("CATALOG_ACCESS_TOKEN", ""),

		SerpBaseURL: getenv("SERP_BASE_URL", "https://serpapi.com"),
		SerpAPIKey:  getenv("SERP_API_KEY", ""),

		CompetitorsFile: getenv("COMPETITORS_FILE", "competitors.yaml"),

		FloorMargin:   getEnvFloat("FLOOR_MARGIN", 1.3),
		ModeBinSize:   getEnvFloat("MODE_BIN_SIZE", 5),
		RawPriceCap:   getEnvInt("RAW_PRICE_CAP", 10),
		MinSimilarity: getEnvFloat("MIN_SIMILARITY", 0.4),
		MaxStorePages: getEnvInt("MAX_STORE_PAGES", 3),
		SearchTimeout: getEnvDuration("SEARCH_TIMEOUT", 20*time.Second),
		ScrapeTimeout: getEnvDuration("SCRAPE_TIMEOUT", 12*time.Second),
		StoreTimeout:  getEnvDuration("STORE_TIMEOUT", 10*time.Second),

		MaxConcurrent: getEnvInt("MAX_CONCURRENT_REQUESTS", 3),

		PriceSyncEnabled: getEnvBool("PRICE_SYNC_ENABLED", false),
		SyncInterval:     getEnvDuration("SYNC_INTERVAL", 24*time.Hour),
		SyncPageSize:     getEnvInt("SYNC_PAGE_SIZE", 10),

		KafkaBrokers: splitList(getenv("KAFKA_BROKERS", "")),
		KafkaTopic:   getenv("KAFKA_TOPIC", "price-sync.updates"),
	}
	return cfg
}

func getenv(key string, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
