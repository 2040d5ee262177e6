package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/tgienger/taskmate/internal/task"
)

//go:embed schema.sql
var schema string

// Supported database/sql driver names.
const (
	DriverCgo  = "sqlite3" // mattn/go-sqlite3
	DriverPure = "sqlite"  // modernc.org/sqlite
)

// Options configures the database connection
type Options struct {
	Path   string // empty means the default XDG location
	Driver string // DriverCgo or DriverPure, default DriverCgo
	Logger *zap.Logger
}

// DB wraps the database connection and fans task snapshots out to
// subscribers after every write.
type DB struct {
	*sql.DB
	path   string
	driver string
	log    *zap.Logger

	mu      sync.Mutex
	subs    map[int]task.SnapshotFunc
	nextSub int

	// feed orders snapshot reads and deliveries so a subscriber never sees
	// an older snapshot after a newer one.
	feed sync.Mutex
}

// New creates a new database connection and initializes the schema
func New(opts Options) (*DB, error) {
	dbPath := opts.Path
	if dbPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		dbPath = p
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	driver := opts.Driver
	if driver == "" {
		driver = DriverCgo
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	sqlDB, err := sql.Open(driver, dsn(driver, dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer; one connection keeps writes serialized
	// inside this process.
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	// Initialize schema
	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &DB{
		DB:     sqlDB,
		path:   dbPath,
		driver: driver,
		log:    log.With(zap.String("component", "db")),
		subs:   make(map[int]task.SnapshotFunc),
	}, nil
}

func dsn(driver, path string) string {
	if driver == DriverPure {
		return "file:" + path + "?_pragma=foreign_keys(1)"
	}
	return path + "?_foreign_keys=on"
}

// Path returns the database file location
func (db *DB) Path() string {
	return db.path
}

// DefaultPath returns the path to the database file
func DefaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "taskmate.db"), nil
}

// DataDir returns (and creates) the application data directory
func DataDir() (string, error) {
	// Use XDG data directory or fallback to home directory
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	appDir := filepath.Join(dataDir, "taskmate")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", err
	}
	return appDir, nil
}

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting sets a setting value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
