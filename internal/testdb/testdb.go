// Package testdb gives integration tests a migrated Postgres schema.
// Tests skip when TEST_DATABASE_URL is not set.
package testdb

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/tienbob/Tubex-sub003/internal/migration"
	"github.com/tienbob/Tubex-sub003/pkg/config"
	"github.com/tienbob/Tubex-sub003/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to TEST_DATABASE_URL, recreates schema and applies every
// migration inside it. Each package passes its own schema so packages can
// run in parallel against one database.
func Open(t *testing.T, schema string) *gorm.DB {
	t.Helper()
	_ = godotenv.Load("../../.env")

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	// search_path travels in the DSN so every pooled connection sees the schema.
	db, err := database.Open(withSearchPath(dsn, schema), &config.DBConfig{
		MaxOpenConns: 4,
		MaxIdleConns: 4,
		LogLevel:     logger.Silent,
	}, nil)
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}

	stmts := []string{
		fmt.Sprintf(`DROP SCHEMA IF EXISTS %q CASCADE`, schema),
		fmt.Sprintf(`CREATE SCHEMA %q`, schema),
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("prepare schema %s: %v", schema, err)
		}
	}

	if err := migration.New(db).Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		db.Exec(fmt.Sprintf(`DROP SCHEMA IF EXISTS %q CASCADE`, schema))
		_ = database.Close(db)
	})
	return db
}

// withSearchPath adds a search_path runtime parameter to a URL or
// keyword/value DSN.
func withSearchPath(dsn, schema string) string {
	path := schema + ",public"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err == nil {
			q := u.Query()
			q.Set("search_path", path)
			u.RawQuery = q.Encode()
			return u.String()
		}
	}
	return dsn + " search_path=" + path
}
