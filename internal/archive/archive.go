// Package archive gives sealed job results a durable home beyond
// ProgressStore's bounded in-memory retention window. Grounded on the
// teacher's internal/database wrapper plus its msgpack-backed cache
// database usage; the job-archive schema itself is new.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/sentinel/internal/database"
	"github.com/aristath/sentinel/internal/domain"
)

// Store persists FinalResult records, msgpack-encoded, in a local SQLite
// database. Safe for concurrent use via the underlying connection pool.
type Store struct {
	db *database.DB
}

// Open opens (creating if necessary) the archive database under dataDir
// and applies its schema.
func Open(dataDir string) (*Store, error) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(dataDir, "archive.db"),
		Profile: database.ProfileStandard,
		Name:    "archive",
	})
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate archive database: %w", err)
	}
	return &Store{db: db}, nil
}

// Save archives result. A later Save with the same ExecutionID replaces it
// (a job is sealed exactly once, but Save is idempotent for safety).
func (s *Store) Save(ctx context.Context, result domain.FinalResult) error {
	payload, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode final result: %w", err)
	}

	return database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO job_results (execution_id, strategy_id, state, completed_at, payload)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(execution_id) DO UPDATE SET
				state = excluded.state,
				completed_at = excluded.completed_at,
				payload = excluded.payload
		`, result.ExecutionID, result.StrategyID, string(result.State), result.CompletedAt, payload)
		return err
	})
}

// Load retrieves a previously archived FinalResult by execution id.
func (s *Store) Load(ctx context.Context, executionID string) (domain.FinalResult, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM job_results WHERE execution_id = ?`, executionID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.FinalResult{}, domain.ErrJobNotFound
	}
	if err != nil {
		return domain.FinalResult{}, fmt.Errorf("load archived result: %w", err)
	}

	var result domain.FinalResult
	if err := msgpack.Unmarshal(payload, &result); err != nil {
		return domain.FinalResult{}, fmt.Errorf("decode archived result: %w", err)
	}
	return result, nil
}

// RecentByStrategy returns up to limit archived execution ids for
// strategyID, most recently completed first.
func (s *Store) RecentByStrategy(ctx context.Context, strategyID string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT execution_id FROM job_results
		WHERE strategy_id = ?
		ORDER BY completed_at DESC
		LIMIT ?
	`, strategyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list archived results: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan archived result id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Ping is a cheap reachability probe suitable for a request-path health
// check: it pings the connection without running an integrity check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.QuickCheck(ctx)
}

// HealthCheck runs a full integrity check in addition to a ping. More
// expensive than Ping; meant for periodic maintenance, not per-request use.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
