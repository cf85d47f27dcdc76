package watermark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Dialect selects driver name, schema and upsert syntax for SQLStore.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

func (d Dialect) driver() (string, error) {
	switch d {
	case SQLite:
		return "sqlite", nil
	case Postgres:
		return "pgx", nil
	case MySQL:
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported sql dialect %q", string(d))
	}
}

func (d Dialect) createTable() string {
	if d == MySQL {
		return `
			CREATE TABLE IF NOT EXISTS watermarks (
				name VARCHAR(191) PRIMARY KEY,
				value VARCHAR(64) NOT NULL,
				updated_at BIGINT NOT NULL
			)`
	}
	return `
		CREATE TABLE IF NOT EXISTS watermarks (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`
}

func (d Dialect) selectValue() string {
	if d == Postgres {
		return `SELECT value FROM watermarks WHERE name = $1`
	}
	return `SELECT value FROM watermarks WHERE name = ?`
}

func (d Dialect) upsert() string {
	switch d {
	case Postgres:
		return `
			INSERT INTO watermarks (name, value, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE
			SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	case MySQL:
		return `
			INSERT INTO watermarks (name, value, updated_at)
			VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE
				value = VALUES(value),
				updated_at = VALUES(updated_at)`
	default:
		return `
			INSERT INTO watermarks (name, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT (name) DO UPDATE
			SET value = excluded.value, updated_at = excluded.updated_at`
	}
}

// SQLStore keeps the watermark as one row keyed by name. The upsert is a
// single statement, so a reader sees either the old or the new value.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	name    string
	logger  *zap.Logger
}

// OpenSQLStore opens the database, checks the connection and creates the
// watermarks table if needed. For SQLite the dsn is a file path.
func OpenSQLStore(ctx context.Context, dialect Dialect, dsn, name string, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if name == "" {
		return nil, errors.New("watermark name must not be empty")
	}
	driver, err := dialect.driver()
	if err != nil {
		return nil, err
	}

	if dialect == SQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if dialect == SQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect, err)
	}

	if _, err := db.ExecContext(ctx, dialect.createTable()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLStore{db: db, dialect: dialect, name: name, logger: logger}, nil
}

func (s *SQLStore) Load(ctx context.Context) (time.Time, bool) {
	var raw string
	err := s.db.QueryRowContext(ctx, s.dialect.selectValue(), s.name).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to query watermark", zap.String("dialect", string(s.dialect)), zap.Error(err))
		}
		return time.Time{}, false
	}

	ts, err := Parse(raw)
	if err != nil {
		s.logger.Warn("ignoring stored watermark", zap.String("dialect", string(s.dialect)), zap.Error(err))
		return time.Time{}, false
	}
	return ts, true
}

func (s *SQLStore) Save(ctx context.Context, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, s.dialect.upsert(), s.name, Format(ts), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
