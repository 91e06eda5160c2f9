package auditlog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/vinoprice/pricesync/internal/db"
)

type FactoryConfig struct {
	Backend    string // memory | mysql | sqlite
	MySQLDSN   string
	SQLitePath string
}

type FactoryResult struct {
	Store Store
	DB    *sql.DB // set for sql backends so callers can Close
}

func NewStore(ctx context.Context, cfg FactoryConfig) (FactoryResult, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = "memory"
	}

	switch backend {
	case "memory":
		return FactoryResult{Store: NewMemoryStore()}, nil

	case "mysql":
		if strings.TrimSpace(cfg.MySQLDSN) == "" {
			return FactoryResult{}, errors.New("DB_DSN is required when AUDIT_BACKEND=mysql")
		}

		sqlDB, err := db.OpenMySQL(cfg.MySQLDSN)
		if err != nil {
			return FactoryResult{}, err
		}

		c, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := sqlDB.PingContext(c); err != nil {
			_ = sqlDB.Close()
			return FactoryResult{}, err
		}

		store := NewMySQLStore(sqlDB)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = sqlDB.Close()
			return FactoryResult{}, err
		}

		return FactoryResult{Store: store, DB: sqlDB}, nil

	case "sqlite":
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			path = "pricesync.db"
		}

		sqlDB, err := db.OpenSQLite(path)
		if err != nil {
			return FactoryResult{}, err
		}

		store := NewSQLiteStore(sqlDB)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = sqlDB.Close()
			return FactoryResult{}, err
		}

		return FactoryResult{Store: store, DB: sqlDB}, nil

	default:
		return FactoryResult{}, errors.New("unknown AUDIT_BACKEND (use memory, mysql or sqlite)")
	}
}
