package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	// Database drivers registered with database/sql.
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Driver names accepted in Config.Driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config selects and locates the answer store.
type Config struct {
	Driver string

	// DSN is the connection string for mysql, postgres and mongo. For
	// sqlite it overrides Path.
	DSN string

	// Path is the SQLite database file. Empty means DefaultDBPath.
	Path string

	// Database is the MongoDB database name.
	Database string
}

// Open creates the AnswerRepo described by cfg.
func Open(ctx context.Context, cfg Config) (AnswerRepo, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			p := cfg.Path
			if p == "" {
				var err error
				if p, err = DefaultDBPath(); err != nil {
					return nil, err
				}
			} else if err := ensureDir(p); err != nil {
				return nil, err
			}
			dsn = p
		}
		return OpenSQL(ctx, NewSQLiteDialect(), dsn)
	case DriverMySQL:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("store.dsn is required for the mysql driver")
		}
		return OpenSQL(ctx, NewMySQLDialect(), cfg.DSN)
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("store.dsn is required for the postgres driver")
		}
		return OpenPostgres(ctx, cfg.DSN, PoolConfig{})
	case DriverMongo:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("store.dsn is required for the mongo driver")
		}
		db := cfg.Database
		if db == "" {
			db = "mathsprint"
		}
		return OpenMongo(ctx, cfg.DSN, db)
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Driver)
	}
}

// DefaultDBPath resolves the SQLite database file path in priority order:
// 1. MATHSPRINT_DB environment variable
// 2. $XDG_DATA_HOME/mathsprint/mathsprint.db
// 3. ~/.local/share/mathsprint/mathsprint.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("MATHSPRINT_DB"); p != "" {
		return p, ensureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "mathsprint", "mathsprint.db")
	return p, ensureDir(p)
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
