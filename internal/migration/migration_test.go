package migration_test

import (
	"sort"
	"testing"

	"github.com/tienbob/Tubex-sub003/internal/migration"
	"github.com/tienbob/Tubex-sub003/internal/testdb"
)

func TestMigrationsOrderedAndReversible(t *testing.T) {
	ms := migration.Migrations()
	if len(ms) != 11 {
		t.Fatalf("expected 11 migrations, got %d", len(ms))
	}
	seen := map[string]bool{}
	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		if seen[m.ID] {
			t.Errorf("duplicate migration id %s", m.ID)
		}
		seen[m.ID] = true
		ids = append(ids, m.ID)
		if m.Migrate == nil || m.Rollback == nil {
			t.Errorf("migration %s must have both directions", m.ID)
		}
	}
	if !sort.StringsAreSorted(ids) {
		t.Errorf("migration ids are not in apply order: %v", ids)
	}
}

func TestMigrateUpAndDown(t *testing.T) {
	db := testdb.Open(t, "test_migration")

	for _, table := range []string{"companies", "users", "products", "inventory", "batches", "orders", "order_items", "order_history", "invitations", "user_audit_logs"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("table %s missing after migrate", table)
		}
	}

	m := migration.New(db)
	ms := migration.Migrations()
	for i := 0; i < len(ms); i++ {
		if err := m.RollbackLast(); err != nil {
			t.Fatalf("rollback %d: %v", i, err)
		}
	}
	if db.Migrator().HasTable("companies") {
		t.Error("companies still present after full rollback")
	}

	if err := m.Migrate(); err != nil {
		t.Fatalf("re-apply: %v", err)
	}
	if !db.Migrator().HasTable("orders") {
		t.Error("orders missing after re-apply")
	}
}
