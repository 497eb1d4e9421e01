package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/angelmondragon/flowzz-ingest/pkg/db"
	"github.com/angelmondragon/flowzz-ingest/pkg/db/models"
	"github.com/angelmondragon/flowzz-ingest/pkg/logger"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
	require.NoError(t, ValidateDir("migrations"))
}

func TestMigrationsContainSchemas(t *testing.T) {
	checks := map[string][]string{
		"*_create_catalog_table.sql": {
			"CREATE TABLE IF NOT EXISTS catalog",
			"source_id BIGINT NOT NULL",
			"rating NUMERIC(3,1)",
			"CREATE UNIQUE INDEX IF NOT EXISTS catalog_source_id_key ON catalog (source_id)",
		},
		"*_create_vendor_table.sql": {
			"CREATE TABLE IF NOT EXISTS vendor",
			"CREATE UNIQUE INDEX IF NOT EXISTS vendor_name_key ON vendor (name)",
		},
	}

	for pattern, statements := range checks {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		require.NoError(t, err)
		require.Len(t, matches, 1, pattern)

		data, err := os.ReadFile(matches[0])
		require.NoError(t, err)
		for _, sub := range statements {
			assert.Contains(t, string(data), sub)
		}
	}
}

func TestValidateDirRejectsUnguardedCreate(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\nCREATE TABLE catalog (id int);\n-- +goose Down\nDROP TABLE catalog;\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250101000000_bad.sql"), []byte(body), 0o644))

	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unguarded")
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, ValidateDir(dir))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	path, err := createSQLMigration(dir, "Add Vendor Index!", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20250301093000_add_vendor_index.sql"), path)
	require.NoError(t, ValidateDir(dir))

	_, err = createSQLMigration(dir, "add vendor index", now)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "already exists"))

	_, err = createSQLMigration(dir, "!!!", now)
	assert.Error(t, err)
}

func TestBootstrapSQLiteIsIdempotent(t *testing.T) {
	conn, err := db.Open(sqlite.Open("file::memory:"))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	client := db.NewFromGorm(conn, db.DriverSQLite)
	ctx := context.Background()

	require.NoError(t, Bootstrap(ctx, client, logger.Nop()))
	require.NoError(t, Bootstrap(ctx, client, logger.Nop()))

	assert.True(t, conn.Migrator().HasTable(&models.CatalogRecord{}))
	assert.True(t, conn.Migrator().HasTable(&models.VendorRecord{}))
	assert.True(t, conn.Migrator().HasIndex(&models.CatalogRecord{}, "catalog_source_id_key"))
	assert.True(t, conn.Migrator().HasIndex(&models.VendorRecord{}, "vendor_name_key"))
}
