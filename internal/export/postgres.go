package export

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/wsmetrics/internal/metrics"
)

// DefaultTable is the table snapshots are appended to.
const DefaultTable = "connection_metrics"

// Execer is the subset of pgxpool.Pool used by PostgresReporter.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresReporter appends one row per snapshot. Rows are never updated.
type PostgresReporter struct {
	db       Execer
	table    string
	instance string
}

// NewPostgresReporter creates a reporter writing to table (DefaultTable if empty).
func NewPostgresReporter(db Execer, table, instance string) *PostgresReporter {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresReporter{
		db:       db,
		table:    pgx.Identifier(strings.Split(table, ".")).Sanitize(),
		instance: instance,
	}
}

// EnsureSchema creates the table if it does not exist.
func (p *PostgresReporter) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+p.table+` (
			generated_at                   TIMESTAMPTZ NOT NULL,
			instance                       TEXT NOT NULL,
			close_code_counts              JSONB NOT NULL,
			total_reconnects               INTEGER NOT NULL,
			avg_reconnect_backoff_ms       BIGINT NOT NULL,
			total_connections              INTEGER NOT NULL,
			avg_connection_duration_ms     BIGINT NOT NULL,
			p95_connection_duration_ms     BIGINT NOT NULL,
			current_connection_duration_ms BIGINT NOT NULL,
			session_in_progress            BOOLEAN NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create %s: %w", p.table, err)
	}
	return nil
}

// Report inserts snap.
func (p *PostgresReporter) Report(ctx context.Context, snap metrics.Snapshot) error {
	counts := snap.CloseCodeCounts
	if counts == nil {
		counts = map[int]int{}
	}
	codes, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("marshal close codes: %w", err)
	}

	_, err = p.db.Exec(ctx, `
		INSERT INTO `+p.table+` (
			generated_at, instance, close_code_counts,
			total_reconnects, avg_reconnect_backoff_ms,
			total_connections, avg_connection_duration_ms, p95_connection_duration_ms,
			current_connection_duration_ms, session_in_progress
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		snap.GeneratedAt,
		p.instance,
		string(codes),
		snap.TotalReconnects,
		snap.AvgReconnectBackoffMs,
		snap.TotalConnections,
		snap.AvgConnectionDurationMs,
		snap.P95ConnectionDurationMs,
		snap.CurrentConnectionDurationMs,
		snap.SessionInProgress,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}
