package auditlog

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vinoprice/pricesync/internal/domain"
)

// SQLiteStore backs the audit log with an embedded database for
// single-process deployments that want durability without a server.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS price_sync_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  product_title TEXT,
  old_price REAL,
  new_price REAL,
  competitor_price REAL,
  cost REAL,
  action TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  reason TEXT,
  ts TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_variant_status ON price_sync_logs (variant_id, status);
`)
	return err
}

func (s *SQLiteStore) Insert(ctx context.Context, e Entry) (int64, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO price_sync_logs
		   (product_id, variant_id, product_title, old_price, new_price,
		    competitor_price, cost, action, status, reason, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ProductID, e.VariantID, e.ProductTitle,
		nullFloat(e.OldPrice), nullFloat(e.NewPrice),
		nullFloat(e.CompetitorPr), nullFloat(e.Cost),
		string(e.Action), string(e.Status), e.Reason, e.Timestamp,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) ResolvePending(ctx context.Context, variantID string, status domain.SyncStatus, reason string) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE price_sync_logs
		 SET status = ?2,
		     reason = CASE WHEN ?3 = '' THEN reason ELSE ?3 END
		 WHERE id = (
		   SELECT id FROM price_sync_logs
		   WHERE variant_id = ?1 AND status = 'PENDING'
		   ORDER BY ts DESC, id DESC
		   LIMIT 1
		 )`,
		variantID, string(status), reason,
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]Entry, int, error) {
	where := ""
	args := []any{}

	status := strings.TrimSpace(f.Status)
	if status != "" && !strings.EqualFold(status, "ALL") {
		where = " WHERE status = ?"
		args = append(args, status)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM price_sync_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, product_id, variant_id, product_title, old_price, new_price,
		        competitor_price, cost, action, status, reason, ts
		 FROM price_sync_logs`+where+`
		 ORDER BY ts DESC, id DESC
		 LIMIT ? OFFSET ?`,
		append(args, limit, f.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
