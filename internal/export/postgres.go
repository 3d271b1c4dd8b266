package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/codalotl/benchtable/internal/table"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS exports (
    id          TEXT PRIMARY KEY,
    exported_at TIMESTAMPTZ NOT NULL,
    row_count   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS flat_rows (
    export_id            TEXT NOT NULL REFERENCES exports(id),
    agent                TEXT NOT NULL,
    benchmark_start_time TIMESTAMPTZ NOT NULL,
    challenge            TEXT NOT NULL,
    attempted            BOOLEAN,
    categories           TEXT NOT NULL,
    task                 TEXT,
    success              DOUBLE PRECISION,
    difficulty           TEXT NOT NULL,
    success_pct          DOUBLE PRECISION,
    run_time             TEXT,
    is_regression        BOOLEAN NOT NULL,
    report_time          TIMESTAMPTZ NOT NULL
);`

// Postgres appends t to the database at dsn using COPY.
func Postgres(ctx context.Context, dsn string, t *table.Table, logger *slog.Logger) (*Summary, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	sum := &Summary{ID: newID(), ExportedAt: now(), Rows: t.Len()}
	logger.Debug("exporting to postgres", slog.String("export_id", sum.ID), slog.Int("rows", sum.Rows))

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO exports (id, exported_at, row_count) VALUES ($1, $2, $3)`,
		sum.ID, sum.ExportedAt, sum.Rows,
	); err != nil {
		return nil, fmt.Errorf("failed to record export: %w", err)
	}
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"flat_rows"}, columns, pgx.CopyFromRows(copyRows(sum.ID, t.Rows)))
	if err != nil {
		return nil, fmt.Errorf("failed to copy rows: %w", err)
	}
	if int(copied) != sum.Rows {
		return nil, fmt.Errorf("copied %d rows, expected %d", copied, sum.Rows)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit export: %w", err)
	}
	return sum, nil
}

func copyRows(exportID string, rows []table.Row) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowValues(exportID, r, func(t time.Time) any { return t.UTC() }))
	}
	return out
}
