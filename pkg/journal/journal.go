// Package journal keeps a sqlite ledger of completed provider calls. It is
// an audit trail for the stats CLI and dashboards; admission decisions never
// read from it.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

// Journal records and queries completed calls.
type Journal interface {
	// Record stores one completed call.
	Record(ctx context.Context, rec models.CallRecord) error
	// Summary returns per-model aggregates, optionally filtered by model id.
	Summary(ctx context.Context, model string) ([]models.CallSummary, error)
	// TotalByModel returns total tokens recorded for a model since a given time.
	TotalByModel(ctx context.Context, model string, since time.Time) (int64, error)
	// Recent returns the most recent calls, newest first.
	Recent(ctx context.Context, limit int) ([]models.CallRecord, error)
	// Close releases resources.
	Close() error
}

// SQLiteJournal implements Journal with a SQLite database.
type SQLiteJournal struct {
	db *sql.DB
}

const createCallsTable = `
CREATE TABLE IF NOT EXISTS calls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	model TEXT NOT NULL,
	provider TEXT NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	total_tokens INTEGER NOT NULL,
	cost_usd REAL NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_calls_model_time ON calls(model, created_at);
`

// New creates a SQLiteJournal and runs auto-migration.
func New(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec(createCallsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal db: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

// Record stores one completed call.
func (j *SQLiteJournal) Record(ctx context.Context, rec models.CallRecord) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO calls (model, provider, input_tokens, output_tokens, total_tokens, cost_usd, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Model, rec.Provider, rec.InputTokens, rec.OutputTokens, rec.TotalTokens, rec.CostUSD, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record call: %w", err)
	}
	return nil
}

// Summary returns per-model aggregates, optionally filtered by model id.
func (j *SQLiteJournal) Summary(ctx context.Context, model string) ([]models.CallSummary, error) {
	query := `SELECT model, provider, COUNT(*), SUM(input_tokens), SUM(output_tokens), SUM(total_tokens), SUM(cost_usd)
		 FROM calls`
	var args []any
	if model != "" {
		query += ` WHERE model = ?`
		args = append(args, model)
	}
	query += ` GROUP BY model, provider ORDER BY model, provider`

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.CallSummary
	for rows.Next() {
		var s models.CallSummary
		if err := rows.Scan(&s.Model, &s.Provider, &s.Calls, &s.TotalInput, &s.TotalOutput, &s.TotalTokens, &s.CostUSD); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// TotalByModel returns total tokens recorded for a model since a given time.
func (j *SQLiteJournal) TotalByModel(ctx context.Context, model string, since time.Time) (int64, error) {
	var total int64
	err := j.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_tokens), 0) FROM calls WHERE model = ? AND created_at >= ?`,
		model, since,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total by model: %w", err)
	}
	return total, nil
}

// Recent returns the most recent calls, newest first.
func (j *SQLiteJournal) Recent(ctx context.Context, limit int) ([]models.CallRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, model, provider, input_tokens, output_tokens, total_tokens, cost_usd, created_at
		 FROM calls ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent calls: %w", err)
	}
	defer rows.Close()

	var records []models.CallRecord
	for rows.Next() {
		var r models.CallRecord
		if err := rows.Scan(&r.ID, &r.Model, &r.Provider, &r.InputTokens, &r.OutputTokens, &r.TotalTokens, &r.CostUSD, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
