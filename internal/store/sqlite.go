// Package store persists the consolidated dataset into SQLite.
//
// The sink is optional and replaces its table on every run: the table holds
// exactly the last consolidated dataset, one column per dataset column, typed
// from the column kind (REAL for kilometres, INTEGER for counts and the year,
// TEXT for everything else with dates in the "2006-01-02 15:04:05" layout).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	apperrors "accidentscli/internal/errors"
	"accidentscli/internal/infrastructure"
	"accidentscli/pkg/contracts/domain"
)

const busyTimeoutMS = 10_000

// SQLiteStore writes datasets into one table of an SQLite database
type SQLiteStore struct {
	db        *sql.DB
	path      string
	table     string
	logger    *slog.Logger
	telemetry *infrastructure.OTelProviders
}

// Open opens or creates the database at path, creating parent directories
// as needed. telemetry may be nil.
func Open(path, table string, logger *slog.Logger, telemetry *infrastructure.OTelProviders) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, apperrors.StoreFailed(path, fmt.Errorf("mkdir: %w", err))
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.StoreFailed(path, fmt.Errorf("open: %w", err))
	}
	// One connection keeps pragmas and in-memory databases consistent
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMS),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, apperrors.StoreFailed(path, fmt.Errorf("%s: %w", p, err))
		}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperrors.StoreFailed(path, fmt.Errorf("ping: %w", err))
	}

	return &SQLiteStore{
		db:        db,
		path:      path,
		table:     table,
		logger:    infrastructure.WithComponent(logger, "sqlite-store"),
		telemetry: telemetry,
	}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save replaces the table with ds in a single transaction. Nothing is
// changed when any statement fails.
func (s *SQLiteStore) Save(ctx context.Context, ds *domain.Dataset) (err error) {
	ctx, end := s.telemetry.StartStage(ctx, "store")
	defer func() { end(err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.StoreFailed(s.path, fmt.Errorf("begin: %w", err))
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	table := quoteIdent(s.table)
	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return apperrors.StoreFailed(s.path, fmt.Errorf("drop table: %w", err))
	}
	names := columnNames(ds.Columns)
	if _, err = tx.ExecContext(ctx, createTableSQL(s.table, ds.Columns, names)); err != nil {
		return apperrors.StoreFailed(s.path, fmt.Errorf("create table: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(s.table, names))
	if err != nil {
		return apperrors.StoreFailed(s.path, fmt.Errorf("prepare insert: %w", err))
	}
	defer stmt.Close()

	args := make([]any, len(ds.Columns))
	for i, rec := range ds.Records {
		if err = ctx.Err(); err != nil {
			return err
		}
		for j, col := range ds.Columns {
			args[j] = columnValue(rec, col)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return apperrors.StoreFailed(s.path, fmt.Errorf("insert record %d: %w", i, err))
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.StoreFailed(s.path, fmt.Errorf("commit: %w", err))
	}

	s.telemetry.Counters().RecordStored(ctx, ds.Len())
	s.logger.InfoContext(ctx, "Dataset stored",
		slog.String("path", s.path),
		slog.String("table", s.table),
		slog.Int("records", ds.Len()))
	return nil
}

// Count returns the number of rows in the table
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(s.table)).Scan(&n)
	if err != nil {
		return 0, apperrors.StoreFailed(s.path, err)
	}
	return n, nil
}

// columnNames maps dataset columns to table column names. SQLite compares
// identifiers without regard to case, so a column equal to an earlier one up
// to case gets a numeric suffix.
func columnNames(columns []string) []string {
	names := make([]string, len(columns))
	used := make(map[string]bool, len(columns))
	for i, col := range columns {
		name := col
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s_%d", col, n)
		}
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

func createTableSQL(table string, columns, names []string) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = quoteIdent(names[i]) + " " + sqlType(domain.KindOf(col))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

func insertSQL(table string, columns []string) string {
	names := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, col := range columns {
		names[i] = quoteIdent(col)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(names, ", "), strings.Join(marks, ", "))
}

func sqlType(kind domain.ColumnKind) string {
	switch kind {
	case domain.KindFloat:
		return "REAL"
	case domain.KindInteger:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// columnValue returns the statement argument of one cell. Null types are
// passed as driver.Valuer so missing values become NULL.
func columnValue(rec domain.AccidentRecord, column string) any {
	switch column {
	case domain.ColKm:
		return rec.Km
	case domain.ColLight:
		return rec.Light
	case domain.ColSevere:
		return rec.Severe
	case domain.ColFatal:
		return rec.Fatal
	case domain.ColTotalVictims:
		return rec.TotalVictims
	case domain.ColYear:
		return int64(rec.SourceYear)
	}
	if v, ok := rec.Text(column); ok {
		return v
	}
	return nil
}

// quoteIdent quotes an SQL identifier; column names carry spaces and accents
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
