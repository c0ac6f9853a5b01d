// ABOUTME: SQLite-backed request audit log using modernc.org/sqlite
// ABOUTME: Records every gateway dispatch with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/startrader/gateway/internal/gateway"
)

// RequestRecord is one audited dispatch against the remote API.
type RequestRecord struct {
	ID          string
	Method      string
	Path        string
	AgentSymbol string
	Status      int
	DurationMs  int64
	Error       string
	CreatedAt   time.Time
}

// SQLiteStore persists request records to a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS requests (
			id TEXT PRIMARY KEY,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			agent_symbol TEXT NOT NULL DEFAULT '',
			status INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_requests_agent ON requests(agent_symbol);
		CREATE INDEX IF NOT EXISTS idx_requests_created ON requests(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordDispatch implements gateway.Auditor.
func (s *SQLiteStore) RecordDispatch(ctx context.Context, entry gateway.AuditEntry) error {
	rec := &RequestRecord{
		ID:          uuid.New().String(),
		Method:      entry.Method,
		Path:        entry.Path,
		AgentSymbol: entry.AgentSymbol,
		Status:      entry.Status,
		DurationMs:  entry.Duration.Milliseconds(),
		Error:       entry.Err,
		CreatedAt:   time.Now().UTC(),
	}
	return s.insert(ctx, rec)
}

func (s *SQLiteStore) insert(ctx context.Context, rec *RequestRecord) error {
	query := `
		INSERT INTO requests (id, method, path, agent_symbol, status, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Method,
		rec.Path,
		rec.AgentSymbol,
		rec.Status,
		rec.DurationMs,
		rec.Error,
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting request record: %w", err)
	}

	s.logger.Debug("recorded dispatch",
		"method", rec.Method,
		"path", rec.Path,
		"agent", rec.AgentSymbol,
		"status", rec.Status,
	)
	return nil
}

// ListRecent returns the most recent request records, newest first.
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]*RequestRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, method, path, agent_symbol, status, duration_ms, error, created_at
		FROM requests
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying requests: %w", err)
	}
	defer rows.Close()

	var records []*RequestRecord
	for rows.Next() {
		var rec RequestRecord
		var createdAt string
		if err := rows.Scan(
			&rec.ID,
			&rec.Method,
			&rec.Path,
			&rec.AgentSymbol,
			&rec.Status,
			&rec.DurationMs,
			&rec.Error,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning request record: %w", err)
		}

		if parsed, err := time.Parse(time.RFC3339, createdAt); err != nil {
			s.logger.Warn("failed to parse request created_at", "id", rec.ID, "error", err)
		} else {
			rec.CreatedAt = parsed
		}

		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating request records: %w", err)
	}

	return records, nil
}

// CountByAgent returns the number of audited requests per agent symbol.
// Requests dispatched without an agent credential are grouped under "".
func (s *SQLiteStore) CountByAgent(ctx context.Context) (map[string]int, error) {
	query := `SELECT agent_symbol, COUNT(*) FROM requests GROUP BY agent_symbol`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("counting requests: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var agent string
		var count int
		if err := rows.Scan(&agent, &count); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[agent] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}

	return counts, nil
}
