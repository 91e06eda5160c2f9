package auditlog

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vinoprice/pricesync/internal/domain"
)

type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS price_sync_logs (
  id BIGINT NOT NULL AUTO_INCREMENT,
  product_id VARCHAR(50) NOT NULL,
  variant_id VARCHAR(50) NULL,
  product_title VARCHAR(255) NULL,
  old_price DECIMAL(10,2) NULL,
  new_price DECIMAL(10,2) NULL,
  competitor_price DECIMAL(10,2) NULL,
  cost DECIMAL(10,2) NULL,
  action VARCHAR(20) NOT NULL,
  status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
  reason TEXT NULL,
  ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  KEY idx_variant_status (variant_id, status),
  KEY idx_product (product_id)
) ENGINE=InnoDB;
`)
	return err
}

func (s *MySQLStore) Insert(ctx context.Context, e Entry) (int64, error) {
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

func (s *MySQLStore) ResolvePending(ctx context.Context, variantID string, status domain.SyncStatus, reason string) (bool, error) {
	// MySQL cannot subquery the table being updated directly; the derived
	// table works around that.
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE price_sync_logs
		 SET status = ?, reason = IF(? = '', reason, ?)
		 WHERE id = (
		   SELECT id FROM (
		     SELECT id FROM price_sync_logs
		     WHERE variant_id = ? AND status = 'PENDING'
		     ORDER BY ts DESC, id DESC
		     LIMIT 1
		   ) latest
		 )`,
		string(status), reason, reason, variantID,
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

func (s *MySQLStore) List(ctx context.Context, f Filter) ([]Entry, int, error) {
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (Entry, error) {
	var (
		e          Entry
		variantID  sql.NullString
		title      sql.NullString
		oldPrice   sql.NullFloat64
		newPrice   sql.NullFloat64
		competitor sql.NullFloat64
		cost       sql.NullFloat64
		reason     sql.NullString
		action     string
		status     string
	)

	err := r.Scan(&e.ID, &e.ProductID, &variantID, &title, &oldPrice, &newPrice,
		&competitor, &cost, &action, &status, &reason, &e.Timestamp)
	if err != nil {
		return Entry{}, err
	}

	e.VariantID = variantID.String
	e.ProductTitle = title.String
	e.OldPrice = floatPtr(oldPrice)
	e.NewPrice = floatPtr(newPrice)
	e.CompetitorPr = floatPtr(competitor)
	e.Cost = floatPtr(cost)
	e.Action = domain.SyncAction(action)
	e.Status = domain.SyncStatus(status)
	e.Reason = reason.String
	return e, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
