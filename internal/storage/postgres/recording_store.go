// Package postgres mirrors newly catalogued recordings into Postgres.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/lecture-indexer/internal/catalog"
)

const defaultTable = "recordings"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RecordingStoreConfig controls the Postgres connection pool used for recording rows.
type RecordingStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// RecordingStore writes one row per catalogued recording. Rows are keyed by
// link id and never updated.
type RecordingStore struct {
	pool  execCloser
	table string
}

// NewRecordingStore connects a pool using cfg.
func NewRecordingStore(ctx context.Context, cfg RecordingStoreConfig) (*RecordingStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RecordingStore{pool: pool, table: table}, nil
}

// NewRecordingStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewRecordingStoreWithPool(pool execCloser, table string) (*RecordingStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &RecordingStore{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		return defaultTable, nil
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *RecordingStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Name identifies the store in logs.
func (s *RecordingStore) Name() string { return "postgres" }

// Notify inserts the added entries. Rows that already exist are left as they are.
func (s *RecordingStore) Notify(ctx context.Context, runID string, added []catalog.Entry) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("recording store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	link_id,
	course_id,
	course_name,
	portal_url,
	term_name,
	run_id
) VALUES (
	$1,$2,$3,$4,$5,$6
) ON CONFLICT (link_id) DO NOTHING`, s.table)

	for _, entry := range added {
		if entry.LinkID == "" {
			return fmt.Errorf("link id is required")
		}
		_, err := s.pool.Exec(ctx, query,
			entry.LinkID,
			entry.Record.CourseID,
			entry.Record.CourseName,
			entry.Record.PortalURL,
			entry.Record.TermName,
			runID,
		)
		if err != nil {
			return fmt.Errorf("insert recording %s: %w", entry.LinkID, err)
		}
	}
	return nil
}
