// Package db provides database initialization and access for SQLite and PostgreSQL.
package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Postgres connection pool settings.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

// sqliteDriverName is go-sqlite3 with a Unicode-aware lower() and foreign
// keys enabled on every connection. SQLite's built-in lower() only folds ASCII.
const sqliteDriverName = "sqlite3_shepherd"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("lower", strings.ToLower, true); err != nil {
				return fmt.Errorf("registering lower: %w", err)
			}
			if _, err := conn.Exec("PRAGMA foreign_keys=ON", nil); err != nil {
				return fmt.Errorf("enabling foreign keys: %w", err)
			}
			return nil
		},
	})
}

// TimeLayout is the storage format for every timestamp column.
// Fixed width and UTC, so string comparison in SQL orders chronologically.
const TimeLayout = "2006-01-02T15:04:05Z"

// DB wraps *sql.DB with the driver it was opened with.
type DB struct {
	*sql.DB
	Driver string
}

// DefaultPath returns the default database path: ~/.shepherd/shepherd.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".shepherd", "shepherd.db"), nil
}

// Open opens (or creates) a database and runs migrations.
// For sqlite3 the dsn is a file path; WAL mode and foreign keys are enabled.
// For postgres the dsn is a connection URL.
func Open(driver, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		sqlDB, err = openSQLite(dsn)
	case DriverPostgres:
		sqlDB, err = openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q (use %s or %s)", driver, DriverSQLite, DriverPostgres)
	}
	if err != nil {
		return nil, err
	}

	d := &DB{DB: sqlDB, Driver: driver}
	if err := migrate(d); err != nil {
		closeErr := sqlDB.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (also failed to close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	slog.Debug("Database opened", "driver", driver)
	return d, nil
}

func openSQLite(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}

	sqlDB, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := configure(sqlDB); err != nil {
		closeErr := sqlDB.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("%w (also failed to close: %v)", err, closeErr)
		}
		return nil, err
	}

	return sqlDB, nil
}

func openPostgres(dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB.SetMaxOpenConns(DefaultMaxOpenConns)
	sqlDB.SetMaxIdleConns(DefaultMaxIdleConns)
	sqlDB.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		closeErr := sqlDB.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("pinging database: %w (also failed to close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return sqlDB, nil
}

// configure puts the database in WAL mode. Foreign keys are switched on by
// the driver's connect hook.
func configure(db *sql.DB) error {
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("executing %s: %w", p, err)
		}
	}

	return nil
}

// Rebind rewrites ? placeholders into the driver's bind syntax.
func (d *DB) Rebind(query string) string {
	if d.Driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ContainsPattern builds a lowercase LIKE pattern matching s anywhere.
// Wildcards in s are escaped; queries must use ESCAPE '\'.
func ContainsPattern(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

// FormatTime renders t in the storage layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", s, err)
	}
	return t, nil
}

// NullTime renders an optional time for a nullable column.
func NullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return FormatTime(*t)
}

// ParseNullTime parses an optional stored timestamp.
func ParseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := ParseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
