package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/ChuheLin/cs2-wang/internal/domain"
	"github.com/ChuheLin/cs2-wang/internal/ports"
)

const reportsTable = "published_reports"

const createReportsTable = `CREATE TABLE IF NOT EXISTS published_reports (
    report_date DATE        NOT NULL,
    kind        TEXT        NOT NULL,
    title       TEXT        NOT NULL,
    path        TEXT        NOT NULL,
    audio_file  TEXT        NOT NULL DEFAULT '',
    body        TEXT        NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (report_date, kind)
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresArchive keeps a history row per published report.
type PostgresArchive struct {
	db *sql.DB
}

var _ ports.ReportArchive = (*PostgresArchive)(nil)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresArchive wires a sql.DB implementation.
func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{db: db}
}

// EnsureSchema creates the archive table when it does not exist.
func (a *PostgresArchive) EnsureSchema(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	if _, err := a.db.ExecContext(ctx, createReportsTable); err != nil {
		return fmt.Errorf("create %s: %w", reportsTable, err)
	}
	return nil
}

// SaveReport upserts the report keyed by date and kind; the latest run wins.
func (a *PostgresArchive) SaveReport(ctx context.Context, report domain.Report) error {
	if a.db == nil {
		return nil
	}

	query, args, err := upsertReportQuery(report)
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}

func upsertReportQuery(report domain.Report) (string, []any, error) {
	return psql.Insert(reportsTable).
		Columns("report_date", "kind", "title", "path", "audio_file", "body").
		Values(
			report.Date.Format("2006-01-02"),
			string(report.Kind),
			report.Title,
			report.Path,
			report.AudioFile,
			report.Body,
		).
		Suffix(`ON CONFLICT (report_date, kind) DO UPDATE
              SET title = EXCLUDED.title,
                  path = EXCLUDED.path,
                  audio_file = EXCLUDED.audio_file,
                  body = EXCLUDED.body,
                  updated_at = NOW()`).
		ToSql()
}
