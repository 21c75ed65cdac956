package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bridgee/internal/bootstrap/config"
)

func TestSQLitePath(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{dsn: "data/bridgee.sqlite", want: "data/bridgee.sqlite"},
		{dsn: "file:data/x.db?cache=shared", want: "data/x.db"},
		{dsn: ":memory:", want: ""},
		{dsn: "file::memory:?cache=shared", want: ""},
		{dsn: "  ", want: ""},
	}
	for _, tt := range tests {
		if got := sqlitePath(tt.dsn); got != tt.want {
			t.Fatalf("sqlitePath(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}

func TestWithPragmas(t *testing.T) {
	got := withPragmas("a.db", false)
	want := "a.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if got != want {
		t.Fatalf("withPragmas() = %q, want %q", got, want)
	}
	if got := withPragmas(":memory:", true); got != ":memory:?_pragma=busy_timeout(5000)" {
		t.Fatalf("withPragmas(memory) = %q", got)
	}
	if got := withPragmas("a.db?_pragma=busy_timeout(5000)", true); got != "a.db?_pragma=busy_timeout(5000)" {
		t.Fatalf("withPragmas(existing) = %q", got)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "bridgee.sqlite")
	db, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("DB() error = %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(dsn)); err != nil {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres", DSN: "x"}); err == nil {
		t.Fatalf("Open(postgres) error = nil, want error")
	}
}
