package watermark

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()

	s, err := OpenSQLStore(context.Background(), SQLite, filepath.Join(t.TempDir(), "db", "watermark.db"), "default", nil)
	if err != nil {
		t.Fatalf("OpenSQLStore() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLStore_SQLite_LoadEmpty(t *testing.T) {
	t.Parallel()

	s := openSQLite(t)
	if ts, ok := s.Load(context.Background()); ok {
		t.Fatalf("expected no watermark, got %v", ts)
	}
}

func TestSQLStore_SQLite_SaveOverwrites(t *testing.T) {
	t.Parallel()

	s := openSQLite(t)
	ctx := context.Background()

	first := time.Date(2026, 2, 2, 18, 0, 0, 0, time.UTC)
	second := first.Add(90 * time.Second)

	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("first Save() error: %v", err)
	}
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("second Save() error: %v", err)
	}

	got, ok := s.Load(ctx)
	if !ok || !got.Equal(second) {
		t.Fatalf("expected %v, got %v (ok=%v)", second, got, ok)
	}

	var rows int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM watermarks`).Scan(&rows); err != nil {
		t.Fatalf("count query error: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected a single row, got %d", rows)
	}
}

func TestSQLStore_SQLite_CorruptValueIsAbsent(t *testing.T) {
	t.Parallel()

	s := openSQLite(t)
	ctx := context.Background()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO watermarks (name, value, updated_at) VALUES (?, ?, ?)`,
		"default", "2026-02-", 0,
	); err != nil {
		t.Fatalf("insert error: %v", err)
	}

	if ts, ok := s.Load(ctx); ok {
		t.Fatalf("expected corrupt value to load as absent, got %v", ts)
	}
}

func TestSQLStore_SQLite_NamesAreIndependent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "watermark.db")
	ctx := context.Background()

	a, err := OpenSQLStore(ctx, SQLite, path, "phone-a", nil)
	if err != nil {
		t.Fatalf("OpenSQLStore(a) error: %v", err)
	}
	defer a.Close()

	b, err := OpenSQLStore(ctx, SQLite, path, "phone-b", nil)
	if err != nil {
		t.Fatalf("OpenSQLStore(b) error: %v", err)
	}
	defer b.Close()

	if err := a.Save(ctx, time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, ok := b.Load(ctx); ok {
		t.Fatalf("expected store b to have no watermark")
	}
}

func TestOpenSQLStore_InvalidArgs(t *testing.T) {
	t.Parallel()

	if _, err := OpenSQLStore(context.Background(), Dialect("oracle"), "x", "default", nil); err == nil ||
		!strings.Contains(err.Error(), "unsupported sql dialect") {
		t.Fatalf("expected unsupported dialect error, got %v", err)
	}
	if _, err := OpenSQLStore(context.Background(), SQLite, "x", "", nil); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestDialectStatements(t *testing.T) {
	t.Parallel()

	if !strings.Contains(Postgres.upsert(), "$3") || !strings.Contains(Postgres.selectValue(), "$1") {
		t.Fatalf("postgres statements must use numbered placeholders")
	}
	if !strings.Contains(MySQL.upsert(), "ON DUPLICATE KEY UPDATE") {
		t.Fatalf("mysql upsert must use ON DUPLICATE KEY UPDATE")
	}
	if !strings.Contains(SQLite.upsert(), "ON CONFLICT (name)") {
		t.Fatalf("sqlite upsert must use ON CONFLICT")
	}
}
