package db

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

func OpenMySQL(dsn string) (*sql.DB, error) {
	d, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Conservative defaults (tune later)
	d.SetMaxOpenConns(20)
	d.SetMaxIdleConns(20)
	d.SetConnMaxLifetime(5 * time.Minute)

	return d, nil
}

// OpenSQLite opens an embedded database for single-process deployments.
func OpenSQLite(path string) (*sql.DB, error) {
	d, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// sqlite serializes writers anyway
	d.SetMaxOpenConns(1)

	return d, nil
}

func Ping(ctx context.Context, d *sql.DB) error {
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return d.PingContext(c)
}
