package governance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects driver-specific SQL details
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// driverName returns the database/sql driver registered for the dialect
func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectPostgres:
		return "postgres", nil
	case DialectSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unknown SQL dialect: %s (supported: postgres, sqlite)", d)
	}
}

// placeholder returns the bind parameter for the first argument
func (d Dialect) placeholder() string {
	if d == DialectPostgres {
		return "$1"
	}
	return "?"
}

// SQLStore reads member maps from the member_certs and member_info tables
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	certs   *sqlMap[[]byte]
	info    *sqlMap[MemberInfo]
}

// OpenSQLStore opens a database for the dialect and wraps it in a store
func OpenSQLStore(dialect Dialect, dsn string) (*SQLStore, error) {
	driver, err := dialect.driverName()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	return NewSQLStore(db, dialect), nil
}

// NewSQLStore wraps an open database
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	p := dialect.placeholder()

	return &SQLStore{
		db:      db,
		dialect: dialect,
		certs: &sqlMap[[]byte]{
			db:       db,
			hasQuery: "SELECT 1 FROM member_certs WHERE member_id = " + p,
			getQuery: "SELECT cert FROM member_certs WHERE member_id = " + p,
			decode:   func(_ string, raw []byte) ([]byte, error) { return raw, nil },
		},
		info: &sqlMap[MemberInfo]{
			db:       db,
			hasQuery: "SELECT 1 FROM member_info WHERE member_id = " + p,
			getQuery: "SELECT info FROM member_info WHERE member_id = " + p,
			decode:   decodeMemberInfo,
		},
	}
}

// Migrate creates the member tables if they do not exist.
// It never writes member records.
func (s *SQLStore) Migrate(ctx context.Context) error {
	blob := "BLOB"
	if s.dialect == DialectPostgres {
		blob = "BYTEA"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS member_certs (
			member_id TEXT PRIMARY KEY,
			cert ` + blob + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS member_info (
			member_id TEXT PRIMARY KEY,
			info TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate member tables: %w", err)
		}
	}
	return nil
}

// MemberCerts implements Store
func (s *SQLStore) MemberCerts() Map[[]byte] {
	return s.certs
}

// MemberInfo implements Store
func (s *SQLStore) MemberInfo() Map[MemberInfo] {
	return s.info
}

// Ping verifies the database is reachable
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type sqlMap[V any] struct {
	db       *sql.DB
	hasQuery string
	getQuery string
	decode   func(key string, raw []byte) (V, error)
}

func (m *sqlMap[V]) Has(ctx context.Context, key string) (bool, error) {
	var one int
	err := m.db.QueryRowContext(ctx, m.hasQuery, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check member %s: %w", key, err)
	}
	return true, nil
}

func (m *sqlMap[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V

	var raw []byte
	err := m.db.QueryRowContext(ctx, m.getQuery, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("failed to get member %s: %w", key, err)
	}

	v, err := m.decode(key, raw)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}
