// Package extract reads export rows out of a relational database.
//
// The sequencer and CSV assembly operate on fully materialized rows:
// reference-data tables are small, so one export's rows always fit in
// memory and there is no streaming surface. NULLs are flattened to
// empty strings on the way in, matching what the import tool expects
// in the CSV.
package extract

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Row is one result row with column order preserved. Columns and
// Values are parallel slices.
type Row struct {
	Columns []string
	Values  []string
}

// Get returns the value for a column and whether the column exists.
func (r Row) Get(column string) (string, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return "", false
}

// Source wraps a database connection for export queries. Supported
// drivers are "mysql" (live OpenMRS databases) and "sqlite3" (local
// snapshots and tests).
type Source struct {
	db *sql.DB
}

// Open connects to the database and verifies the connection.
//
// Exports are single batch reads, so the pool is kept minimal: one
// open connection, no idle pool churn.
func Open(driver, dsn string) (*Source, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", driver, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Source{db: db}, nil
}

// Close closes the database connection.
func (s *Source) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer Rows for export reads.
func (s *Source) DB() *sql.DB {
	return s.db
}

// Rows runs a query and materializes every result row, preserving the
// result set's column order. NULL values become empty strings.
func (s *Source) Rows(ctx context.Context, query string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		cells := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row %d: %w", len(out)+1, err)
		}

		values := make([]string, len(columns))
		for i, c := range cells {
			if c.Valid {
				values[i] = c.String
			}
		}
		out = append(out, Row{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}
