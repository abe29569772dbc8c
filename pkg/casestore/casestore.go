// Package casestore reads case records from a database and stores the flammable product
// list attached to a case.
//
// A case is one JSON snapshot in the cases table, the same document the editing
// application persists. Flammable products live in their own table so they can be saved
// on their own; when rows exist for a case they replace the list in the snapshot.
//
// Postgres (lib/pq) is used for postgres:// DSNs, SQLite (go-sqlite3) for everything
// else, which keeps offline fixtures and tests free of a server.
package casestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/gardar/laudo/pkg/casedata"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite3"
)

// ErrNotFound is returned when no case has the requested id.
var ErrNotFound = errors.New("case not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS cases (
	id TEXT PRIMARY KEY,
	data TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS flammable_products (
	case_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	attachment_path TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (case_id, position)
	)`,
}

// Store is a case source backed by database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database named by dsn.
func Open(dsn string) (*Store, error) {
	driver, source := parseDSN(dsn)
	if source == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == driverSQLite {
		db.SetMaxOpenConns(1)
	}
	return New(db, driver), nil
}

// New wraps an open database. driver is "postgres" or "sqlite3".
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, q := range schema {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Get reads the case with the given id.
func (s *Store) Get(ctx context.Context, id string) (*casedata.Case, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT data FROM cases WHERE id = $1`), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read case %s: %w", id, err)
	}
	c, err := casedata.Parse([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("case %s: %w", id, err)
	}

	products, err := s.products(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(products) > 0 {
		c.FlammableProducts = products
	}
	return c, nil
}

// Put stores the JSON snapshot of a case, replacing any previous one.
func (s *Store) Put(ctx context.Context, id string, data []byte) error {
	if _, err := casedata.Parse(data); err != nil {
		return err
	}
	q := `INSERT INTO cases (id, data) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET data = excluded.data`
	if _, err := s.db.ExecContext(ctx, s.rebind(q), id, string(data)); err != nil {
		return fmt.Errorf("failed to store case %s: %w", id, err)
	}
	return nil
}

func (s *Store) products(ctx context.Context, id string) ([]casedata.FlammableProduct, error) {
	q := `SELECT name, attachment_path, notes FROM flammable_products WHERE case_id = $1 ORDER BY position`
	rows, err := s.db.QueryContext(ctx, s.rebind(q), id)
	if missingTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read flammable products of case %s: %w", id, err)
	}
	defer rows.Close()

	var out []casedata.FlammableProduct
	for rows.Next() {
		var name, path, notes string
		if err := rows.Scan(&name, &path, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan flammable product: %w", err)
		}
		out = append(out, casedata.FlammableProduct{
			Name:           casedata.Text(name),
			AttachmentPath: casedata.Text(path),
			Notes:          casedata.Text(notes),
		})
	}
	return out, rows.Err()
}

// SaveFlammableProducts replaces the flammable products of a case. The list is validated
// before anything is written, so an entry without its safety data sheet leaves the
// stored list untouched.
func (s *Store) SaveFlammableProducts(ctx context.Context, id string, products []casedata.FlammableProduct) (err error) {
	if err := casedata.ValidateFlammableProducts(products); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, s.rebind(`DELETE FROM flammable_products WHERE case_id = $1`), id); err != nil {
		return fmt.Errorf("failed to clear flammable products: %w", err)
	}
	insert := s.rebind(`INSERT INTO flammable_products (case_id, position, name, attachment_path, notes) VALUES ($1, $2, $3, $4, $5)`)
	for i, p := range products {
		if _, err = tx.ExecContext(ctx, insert, id, i, p.Name.Trim(), p.AttachmentPath.Trim(), p.Notes.Trim()); err != nil {
			return fmt.Errorf("failed to insert flammable product %d: %w", i, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flammable products: %w", err)
	}
	return nil
}

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

// rebind rewrites $N placeholders for SQLite.
func (s *Store) rebind(q string) string {
	if s.driver != driverSQLite {
		return q
	}
	return placeholderPattern.ReplaceAllString(q, "?$1")
}

// parseDSN picks the driver from the DSN scheme.
func parseDSN(dsn string) (driver, source string) {
	dsn = strings.TrimSpace(dsn)
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return driverPostgres, dsn
	case strings.HasPrefix(lower, "sqlite://"):
		return driverSQLite, dsn[len("sqlite://"):]
	case strings.HasPrefix(lower, "sqlite3://"):
		return driverSQLite, dsn[len("sqlite3://"):]
	}
	return driverSQLite, dsn
}

// missingTable reports an error caused by a table that does not exist yet.
func missingTable(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01" // undefined_table
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrError && strings.Contains(liteErr.Error(), "no such table")
	}
	return false
}
