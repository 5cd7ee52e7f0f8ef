package store

import (
	"database/sql"
	"fmt"
)

// Dialect captures what differs between the SQL databases SQLStore runs on.
type Dialect interface {
	// Name is the store.driver value selecting this dialect.
	Name() string

	// DriverName returns the driver name for sql.Open.
	DriverName() string

	// ConfigureConnection applies database-specific connection settings.
	ConfigureConnection(db *sql.DB) error

	// Schema returns idempotent DDL statements, executed in order.
	Schema() []string

	// InsertIgnore is the statement prefix for an insert that skips
	// duplicate keys.
	InsertIgnore() string

	// LockSuffix is appended to the sequence read to lock the row
	// for the rest of the transaction.
	LockSuffix() string
}

type sqliteDialect struct{}

// NewSQLiteDialect returns the dialect for the pure Go SQLite driver.
func NewSQLiteDialect() Dialect { return sqliteDialect{} }

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite" }

// ConfigureConnection applies pragmas for single-process use. A single
// connection keeps in-memory databases coherent and serializes writers.
func (sqliteDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (sqliteDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS global_sequence (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			next_val INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS answer_records (
			sequence INTEGER PRIMARY KEY,
			session_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			question_text TEXT NOT NULL,
			user_answer INTEGER NOT NULL,
			correct_answer INTEGER NOT NULL,
			is_correct INTEGER NOT NULL,
			operation TEXT NOT NULL,
			grade INTEGER NOT NULL,
			difficulty INTEGER NOT NULL,
			time_spent REAL NOT NULL,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_answer_records_session
			ON answer_records (session_id, sequence)`,
	}
}

func (sqliteDialect) InsertIgnore() string { return "INSERT OR IGNORE" }
func (sqliteDialect) LockSuffix() string   { return "" }

type mysqlDialect struct{}

// NewMySQLDialect returns the dialect for go-sql-driver/mysql.
func NewMySQLDialect() Dialect { return mysqlDialect{} }

func (mysqlDialect) Name() string       { return "mysql" }
func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db.Ping()
}

func (mysqlDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS global_sequence (
			id TINYINT PRIMARY KEY,
			next_val BIGINT NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS answer_records (
			sequence BIGINT PRIMARY KEY,
			session_id VARCHAR(64) NOT NULL,
			question_id VARCHAR(64) NOT NULL,
			question_text TEXT NOT NULL,
			user_answer INT NOT NULL,
			correct_answer INT NOT NULL,
			is_correct BOOLEAN NOT NULL,
			operation VARCHAR(16) NOT NULL,
			grade INT NOT NULL,
			difficulty INT NOT NULL,
			time_spent DOUBLE NOT NULL,
			recorded_at VARCHAR(40) NOT NULL,
			INDEX idx_answer_records_session (session_id, sequence)
		)`,
	}
}

func (mysqlDialect) InsertIgnore() string { return "INSERT IGNORE" }
func (mysqlDialect) LockSuffix() string   { return " FOR UPDATE" }
