package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/flowzz-ingest/pkg/config"
	"github.com/angelmondragon/flowzz-ingest/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := Open(sqlite.Open("file::memory:"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// every new connection would get its own empty in-memory database
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestNewSQLiteConnectsAndCloses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowzz.db")
	client, err := New(context.Background(), config.DBConfig{MaxOpenConns: 1}, config.FeatureFlagsConfig{UseSQLite: true, SQLitePath: path}, logger.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Driver() != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %s", client.Driver())
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestNewFailsWhenDatabaseIsUnreachable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "flowzz.db")
	if _, err := New(context.Background(), config.DBConfig{}, config.FeatureFlagsConfig{UseSQLite: true, SQLitePath: path}, logger.Nop()); err == nil {
		t.Fatal("expected an unopenable sqlite path to fail")
	}
}

func TestPing(t *testing.T) {
	client := NewFromGorm(newTestDB(t), DriverSQLite)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestDialectorFor(t *testing.T) {
	if _, _, err := dialectorFor(config.DBConfig{}, config.FeatureFlagsConfig{}); err == nil {
		t.Fatal("expected missing DSN to fail")
	}

	_, driver, err := dialectorFor(config.DBConfig{DSN: "postgres://x"}, config.FeatureFlagsConfig{UseSQLite: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if driver != DriverSQLite {
		t.Fatalf("expected sqlite flag to win, got %s", driver)
	}

	_, driver, err = dialectorFor(config.DBConfig{DSN: "postgres://x"}, config.FeatureFlagsConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if driver != DriverPostgres {
		t.Fatalf("expected postgres, got %s", driver)
	}
}
