package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/fibertree/fibertree/internal/fiber"
)

// DefaultTable is the fiber table name used when none is configured.
// The table name is configurable so multiple trees can share one file.
const DefaultTable = "fibers"

var validTable = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLite is a durable Backend keeping one row per fiber in a single-file
// embedded database. Each row maps the fiber id to its serialized record.
type SQLite struct {
	db    *sql.DB
	Path  string
	table string
}

// OpenSQLite opens (or creates) the database at the given path,
// configures pragmas, and ensures the fiber table exists. An empty table
// name selects DefaultTable.
func OpenSQLite(path, table string) (*SQLite, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return openSQLite(path, table)
}

// OpenSQLiteMemory opens an in-memory database, mainly for testing.
func OpenSQLiteMemory(table string) (*SQLite, error) {
	return openSQLite(":memory:", table)
}

func openSQLite(path, table string) (*SQLite, error) {
	if table == "" {
		table = DefaultTable
	}
	if !validTable.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", fiber.ErrBackendIO)
	}
	if path == ":memory:" {
		// Each pooled connection would get its own empty memory database
		sqlDB.SetMaxOpenConns(1)
	}

	s := &SQLite{db: sqlDB, Path: path, table: table}
	if err := s.configurePragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := s.createTable(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, fiber.ErrBackendIO)
		}
	}
	return nil
}

func (s *SQLite) createTable() error {
	_, err := s.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
		    fiber_id TEXT PRIMARY KEY,
		    record   TEXT NOT NULL
		)
	`, s.table))
	if err != nil {
		return fmt.Errorf("create table %s: %w", s.table, fiber.ErrBackendIO)
	}
	return nil
}

// Table returns the configured fiber table name.
func (s *SQLite) Table() string {
	return s.table
}

func (s *SQLite) Get(id string) (*fiber.Fiber, error) {
	var record string
	err := s.db.QueryRow(
		fmt.Sprintf("SELECT record FROM %s WHERE fiber_id = ?", s.table), id,
	).Scan(&record)
	if err == sql.ErrNoRows {
		return nil, fiber.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fiber %s: %w", id, fiber.ErrBackendIO)
	}
	return fiber.Decode([]byte(record))
}

func (s *SQLite) Put(id string, f *fiber.Fiber) error {
	record, err := f.Encode()
	if err != nil {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf(`
		INSERT INTO %s (fiber_id, record) VALUES (?, ?)
		ON CONFLICT(fiber_id) DO UPDATE SET record = excluded.record
	`, s.table), id, string(record))
	if err != nil {
		return fmt.Errorf("put fiber %s: %w", id, fiber.ErrBackendIO)
	}
	return nil
}

func (s *SQLite) Delete(id string) error {
	_, err := s.db.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE fiber_id = ?", s.table), id,
	)
	if err != nil {
		return fmt.Errorf("delete fiber %s: %w", id, fiber.ErrBackendIO)
	}
	return nil
}

func (s *SQLite) All(fn func(id string, f *fiber.Fiber) error) error {
	rows, err := s.db.Query(
		fmt.Sprintf("SELECT fiber_id, record FROM %s", s.table),
	)
	if err != nil {
		return fmt.Errorf("enumerate fibers: %w", fiber.ErrBackendIO)
	}
	defer rows.Close()

	for rows.Next() {
		var id, record string
		if err := rows.Scan(&id, &record); err != nil {
			return fmt.Errorf("scan fiber row: %w", fiber.ErrBackendIO)
		}
		f, err := fiber.Decode([]byte(record))
		if err != nil {
			return err
		}
		if err := fn(id, f); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("enumerate fibers: %w", fiber.ErrBackendIO)
	}
	return nil
}

func (s *SQLite) Count() (int, error) {
	var n int
	err := s.db.QueryRow(
		fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count fibers: %w", fiber.ErrBackendIO)
	}
	return n, nil
}

func (s *SQLite) Clear() error {
	if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return fmt.Errorf("clear fibers: %w", fiber.ErrBackendIO)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
