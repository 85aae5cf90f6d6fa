// Package query answers ad-hoc questions about exported datasets.
//
// It runs DuckDB in-memory and reads the long-format Parquet export
// directly, so large history files never have to be loaded back into
// the session to be inspected.
package query

import (
	"context"
	"database/sql"
	"strconv"
	"sync/atomic"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/mizzou-racing/monolith/internal/errors"
)

// Service runs SQL over long-format Parquet exports.
type Service struct {
	db *sql.DB

	queries atomic.Int64
	rows    atomic.Int64
	errors  atomic.Int64
}

// Stats holds query counters.
type Stats struct {
	QueriesExecuted int64
	RowsReturned    int64
	Errors          int64
}

// ColumnQuery selects one column's samples from an export file.
type ColumnQuery struct {
	// Path is the Parquet export to read.
	Path string

	// Column is the column name to select.
	Column string

	// Start and End bound the time axis inclusively. With End <= Start
	// the range filter is skipped.
	Start float64
	End   float64

	// Limit caps the number of returned rows; zero means unlimited.
	Limit int
}

// Sample is one (time, value) result row.
type Sample struct {
	Time  float64
	Value float64
}

// New opens an in-memory DuckDB instance.
func New() (*Service, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(err, "open duckdb")
	}
	return &Service{db: db}, nil
}

// Close shuts down the database.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SelectColumn returns one column's samples from an export, time-ordered.
func (s *Service) SelectColumn(ctx context.Context, q ColumnQuery) ([]Sample, error) {
	query := `
		SELECT time, value
		FROM read_parquet($1)
		WHERE "column" = $2
	`
	args := []any{q.Path, q.Column}

	if q.End > q.Start {
		query += ` AND time >= $3 AND time <= $4`
		args = append(args, q.Start, q.End)
	}
	query += ` ORDER BY time`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.errors.Add(1)
		return nil, errors.Wrap(err, "select column")
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var sm Sample
		if err := rows.Scan(&sm.Time, &sm.Value); err != nil {
			s.errors.Add(1)
			return nil, errors.Wrap(err, "scan row")
		}
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		s.errors.Add(1)
		return nil, errors.Wrap(err, "iterate rows")
	}

	s.queries.Add(1)
	s.rows.Add(int64(len(out)))
	return out, nil
}

// Columns lists the distinct column names present in an export.
func (s *Service) Columns(ctx context.Context, path string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT "column" FROM read_parquet($1) ORDER BY "column"`, path)
	if err != nil {
		s.errors.Add(1)
		return nil, errors.Wrap(err, "list columns")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			s.errors.Add(1)
			return nil, errors.Wrap(err, "scan column name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		s.errors.Add(1)
		return nil, errors.Wrap(err, "iterate columns")
	}

	s.queries.Add(1)
	s.rows.Add(int64(len(names)))
	return names, nil
}

// Stats returns a copy of the query counters.
func (s *Service) Stats() Stats {
	return Stats{
		QueriesExecuted: s.queries.Load(),
		RowsReturned:    s.rows.Load(),
		Errors:          s.errors.Load(),
	}
}
