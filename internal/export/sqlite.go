package export

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/codalotl/benchtable/internal/table"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLite appends t to the SQLite database at path, creating the file and
// schema when needed.
func SQLite(ctx context.Context, path string, t *table.Table, logger *slog.Logger) (*Summary, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, err
	}

	sum := &Summary{ID: newID(), ExportedAt: now(), Rows: t.Len()}
	logger.Debug("exporting to sqlite", slog.String("path", path), slog.String("export_id", sum.ID), slog.Int("rows", sum.Rows))
	if err := insertRows(ctx, db, sum, t.Rows); err != nil {
		return nil, err
	}
	return sum, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func insertRowSQL() string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO flat_rows (%s) VALUES (%s)", strings.Join(columns, ", "), marks)
}

func sqliteTime(t time.Time) any {
	return t.UTC().Format(time.RFC3339)
}

// insertRows writes the export record and all rows in one transaction.
func insertRows(ctx context.Context, db *sql.DB, sum *Summary, rows []table.Row) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO exports (id, exported_at, row_count) VALUES (?, ?, ?)`,
		sum.ID, sqliteTime(sum.ExportedAt), sum.Rows,
	); err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertRowSQL())
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range rows {
		if _, err = stmt.ExecContext(ctx, rowValues(sum.ID, r, sqliteTime)...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}
	return nil
}
