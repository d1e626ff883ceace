// Package audit persists a record of every pipeline run for traceability.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helixdata-ai/query-engine/internal/observability"
)

// ErrNotFound is returned when no audit record matches.
var ErrNotFound = errors.New("record not found")

// Outcome values recorded per run.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Entry is one audited pipeline run.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	UserRequest string    `json:"user_request"`
	SpecJSON    string    `json:"spec_json"`
	Outcome     string    `json:"outcome"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	ResultCount int64     `json:"result_count"`
	Collections string    `json:"collections"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store writes and reads audit entries. Recording is best-effort: callers
// treat a failed write as a log-and-continue event, never as a query failure.
type Store struct {
	db     DB
	logger *observability.Logger
}

// NewStore creates an audit store over an open database handle.
func NewStore(db DB, logger *observability.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Migrate creates the audit table if it does not exist. The statement is
// valid for both sqlite3 and postgres.
func Migrate(ctx context.Context, db DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS query_audit (
			id TEXT PRIMARY KEY,
			user_request TEXT NOT NULL,
			spec_json TEXT NOT NULL,
			outcome TEXT NOT NULL,
			error_kind TEXT NOT NULL DEFAULT '',
			duration_ms BIGINT NOT NULL,
			result_count BIGINT NOT NULL,
			collections TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`
	_, err := db.ExecContext(ctx, query)
	return err
}

// Record persists one entry. Errors are logged and swallowed.
func (s *Store) Record(ctx context.Context, entry Entry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO query_audit (id, user_request, spec_json, outcome, error_kind,
			duration_ms, result_count, collections, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID.String(), entry.UserRequest, entry.SpecJSON, entry.Outcome, entry.ErrorKind,
		entry.DurationMs, entry.ResultCount, entry.Collections, entry.CreatedAt,
	)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("audit_id", entry.ID.String()).
			Msg("Failed to record audit entry")
		return
	}

	s.logger.Debug().
		Str("audit_id", entry.ID.String()).
		Str("outcome", entry.Outcome).
		Int64("duration_ms", entry.DurationMs).
		Msg("Audit entry recorded")
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_request, spec_json, outcome, error_kind,
			duration_ms, result_count, collections, created_at
		FROM query_audit
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		var id string
		if err := rows.Scan(
			&id, &entry.UserRequest, &entry.SpecJSON, &entry.Outcome, &entry.ErrorKind,
			&entry.DurationMs, &entry.ResultCount, &entry.Collections, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetByID retrieves one audit entry.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	query := `
		SELECT id, user_request, spec_json, outcome, error_kind,
			duration_ms, result_count, collections, created_at
		FROM query_audit WHERE id = $1
	`
	entry := &Entry{}
	var rawID string
	err := s.db.QueryRowContext(ctx, query, id.String()).Scan(
		&rawID, &entry.UserRequest, &entry.SpecJSON, &entry.Outcome, &entry.ErrorKind,
		&entry.DurationMs, &entry.ResultCount, &entry.Collections, &entry.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	entry.ID, err = uuid.Parse(rawID)
	return entry, err
}

// JoinCollections flattens a collection list into the stored form.
func JoinCollections(collections []string) string {
	return strings.Join(collections, ",")
}
