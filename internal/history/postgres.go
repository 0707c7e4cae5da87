package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig tunes the history connection pool.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect opens and pings a pool for url.
func Connect(ctx context.Context, url string, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse history database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect history database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	return pool, nil
}

// Postgres stores entries in the operation_log table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const createOperationLog = `
CREATE TABLE IF NOT EXISTS operation_log (
	id          UUID PRIMARY KEY,
	operation   TEXT NOT NULL,
	session_id  TEXT,
	inputs      TEXT[] NOT NULL DEFAULT '{}',
	rows_in     INTEGER NOT NULL DEFAULT 0,
	rows_out    INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	error_code  TEXT,
	ip_address  TEXT,
	user_agent  TEXT,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS operation_log_created_at_idx ON operation_log (created_at DESC);
CREATE INDEX IF NOT EXISTS operation_log_session_idx ON operation_log (session_id, created_at DESC);
`

// Migrate creates the operation_log table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, createOperationLog); err != nil {
		return fmt.Errorf("migrate operation_log: %w", err)
	}
	return nil
}

// Record implements Recorder.
func (p *Postgres) Record(ctx context.Context, e Entry) error {
	e = stamp(ctx, e)
	if e.Inputs == nil {
		e.Inputs = []string{}
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO operation_log
			(id, operation, session_id, inputs, rows_in, rows_out, status, error_code, ip_address, user_agent, duration_ms, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11, $12)`,
		e.ID, string(e.Operation), e.Session, e.Inputs, e.RowsIn, e.RowsOut, string(e.Status),
		e.ErrorCode, e.IPAddress, e.UserAgent, e.Duration.Milliseconds(), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record operation: %w", err)
	}
	return nil
}

// Recent implements Recorder. Entries come back newest first.
func (p *Postgres) Recent(ctx context.Context, session string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultMaxEntries
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id::text, operation, COALESCE(session_id, ''), inputs, rows_in, rows_out, status,
		       COALESCE(error_code, ''), COALESCE(ip_address, ''), COALESCE(user_agent, ''),
		       duration_ms, created_at
		FROM operation_log
		WHERE $1 = '' OR session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, session, limit)
	if err != nil {
		return nil, fmt.Errorf("query operation_log: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			e          Entry
			op, status string
			durationMS int64
		)
		err := row.Scan(&e.ID, &op, &e.Session, &e.Inputs, &e.RowsIn, &e.RowsOut, &status,
			&e.ErrorCode, &e.IPAddress, &e.UserAgent, &durationMS, &e.CreatedAt)
		e.Operation = Operation(op)
		e.Status = Status(status)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan operation_log: %w", err)
	}
	return entries, nil
}

// Prune deletes entries created before cutoff and returns how many went.
func (p *Postgres) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM operation_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune operation_log: %w", err)
	}
	return tag.RowsAffected(), nil
}
