package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/fitgram/exercise-bot/internal/apperrors"
)

// PostgresStore journals entries in a Postgres table. The database serializes
// concurrent appends, so no additional locking is needed.
type PostgresStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgresStore opens a connection pool against the provided DSN.
func NewPostgresStore(dsn string, log *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return &PostgresStore{db: db, log: log}, nil
}

// NewPostgresStoreWithDB wraps an existing connection pool. Used by tests and
// by callers that manage the pool themselves.
func NewPostgresStoreWithDB(db *sql.DB, log *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

// DB exposes the underlying pool for migrations and health checks.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	const query = `
		INSERT INTO history (user_id, username, description, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := s.db.ExecContext(
		ctx,
		query,
		entry.UserID,
		entry.Username,
		entry.Description,
		entry.Timestamp,
	); err != nil {
		if s.log != nil {
			s.log.Error("failed to insert history entry", slog.Int64("user_id", entry.UserID), slog.Any("error", err))
		}
		return apperrors.NewHistoryError(fmt.Errorf("insert history entry: %w", err))
	}

	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID int64) ([]Entry, error) {
	const query = `
		SELECT user_id, username, description, created_at
		FROM history
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.NewHistoryError(fmt.Errorf("select history entries: %w", err))
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.UserID,
			&entry.Username,
			&entry.Description,
			&entry.Timestamp,
		); err != nil {
			return nil, apperrors.NewHistoryError(fmt.Errorf("scan history entry: %w", err))
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewHistoryError(fmt.Errorf("iterate history entries: %w", err))
	}

	return entries, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
