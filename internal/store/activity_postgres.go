package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/clck-web/internal/activity"
)

var activitySchema = []string{`
CREATE TABLE IF NOT EXISTS submission_events (
	id            BIGSERIAL PRIMARY KEY,
	session_id    TEXT        NOT NULL,
	long_url      TEXT        NOT NULL,
	short_url     TEXT,
	status        TEXT        NOT NULL,
	error_message TEXT,
	settled_at    TIMESTAMPTZ NOT NULL,
	client_ip     TEXT,
	user_agent    TEXT
)`, `
CREATE TABLE IF NOT EXISTS redirect_events (
	id         BIGSERIAL PRIMARY KEY,
	code       TEXT        NOT NULL,
	target     TEXT        NOT NULL,
	issued_at  TIMESTAMPTZ NOT NULL,
	client_ip  TEXT,
	user_agent TEXT,
	referrer   TEXT
)`,
	`CREATE INDEX IF NOT EXISTS redirect_events_code_idx ON redirect_events (code)`,
}

// ActivityPostgresStore is a PostgreSQL implementation of activity.Store.
type ActivityPostgresStore struct {
	pool *pgxpool.Pool
}

// NewActivityPostgresStore creates a new PostgreSQL-backed activity store.
func NewActivityPostgresStore(pool *pgxpool.Pool) *ActivityPostgresStore {
	return &ActivityPostgresStore{pool: pool}
}

// EnsureSchema creates the event tables if they do not exist.
func (p *ActivityPostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range activitySchema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure activity schema: %w", err)
		}
	}

	return nil
}

func (p *ActivityPostgresStore) SaveSubmissionSettled(ctx context.Context, event *activity.SubmissionSettledEvent) error {
	query := `
		INSERT INTO submission_events
			(session_id, long_url, short_url, status, error_message, settled_at, client_ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := p.pool.Exec(ctx, query,
		event.SessionID,
		event.LongURL,
		nullableString(event.ShortURL),
		event.Status,
		nullableString(event.ErrorMessage),
		event.SettledAt,
		nullableString(event.ClientIP),
		nullableString(event.UserAgent),
	)

	return err
}

func (p *ActivityPostgresStore) SaveRedirectIssued(ctx context.Context, event *activity.RedirectIssuedEvent) error {
	query := `
		INSERT INTO redirect_events (code, target, issued_at, client_ip, user_agent, referrer)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.pool.Exec(ctx, query,
		event.Code,
		event.Target,
		event.IssuedAt,
		nullableString(event.ClientIP),
		nullableString(event.UserAgent),
		nullableString(event.Referrer),
	)

	return err
}

// Shutdown is a no-op (pool managed externally).
func (p *ActivityPostgresStore) Shutdown() error {
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

var _ activity.Store = (*ActivityPostgresStore)(nil)
