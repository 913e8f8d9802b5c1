// FilePath: internal/database/database.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gardenhub/server/hub/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	nuts "github.com/vaudience/go-nuts"
)

// Dialect names the SQL flavour behind a DB.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB is an interface that both the SQLite and PostgreSQL stores implement
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	GetDB() *sqlx.DB
	Dialect() Dialect
}

// Querier is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx.
// Repositories accept it so callers can run several writes in one transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
}

// Transaction represents a database transaction
type Transaction interface {
	Querier
	Commit() error
	Rollback() error
}

// Repository represents common repository operations
type Repository interface {
	BeginTx(ctx context.Context) (Transaction, error)
}

// SQLiteDB represents a SQLite database connection
type SQLiteDB struct {
	db *sqlx.DB
}

// PostgresDB represents a PostgreSQL database connection
type PostgresDB struct {
	db *sqlx.DB
}

// Open connects to the backend selected in cfg.Driver.
func Open(cfg config.DatabaseConfig) (DB, error) {
	switch Dialect(cfg.Driver) {
	case DialectSQLite:
		return NewSQLiteDB(cfg.SQLite)
	case DialectPostgres:
		return NewPostgresDB(cfg.Postgres)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewSQLiteDB opens (and creates if needed) a SQLite database file
func NewSQLiteDB(cfg config.SQLiteConfig) (DB, error) {
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0750); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on&_journal_mode=WAL",
		cfg.Path, cfg.BusyTimeout*1000)

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	nuts.L.Infof("[SQLiteDB] Opened %s", cfg.Path)
	return &SQLiteDB{db: db}, nil
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg config.PostgresConfig) (DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to PostgreSQL: %w", err)
	}

	nuts.L.Infof("[PostgresDB] Connected to %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return &PostgresDB{db: db}, nil
}

// Wrap adapts an existing sqlx handle, used by tests with in-memory or mocked stores.
func Wrap(db *sqlx.DB, dialect Dialect) DB {
	if dialect == DialectPostgres {
		return &PostgresDB{db: db}
	}
	return &SQLiteDB{db: db}
}

// Implementation of DB interface for SQLiteDB
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) GetDB() *sqlx.DB {
	return s.db
}

func (s *SQLiteDB) Dialect() Dialect {
	return DialectSQLite
}

// Implementation of DB interface for PostgresDB
func (p *PostgresDB) Close() error {
	return p.db.Close()
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresDB) GetDB() *sqlx.DB {
	return p.db
}

func (p *PostgresDB) Dialect() Dialect {
	return DialectPostgres
}
