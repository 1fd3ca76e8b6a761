// Package storetest opens throwaway stores for tests in other packages:
// SQLite always, PostgreSQL when a server is configured.
package storetest

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JonMunkholm/smartmart/internal/config"
	"github.com/JonMunkholm/smartmart/internal/store"
)

// New returns a migrated store backed by a SQLite file in t.TempDir().
// The store is closed when the test finishes.
func New(t testing.TB) *store.Store {
	t.Helper()

	cfg := config.DatabaseConfig{
		URL:      "sqlite:" + filepath.Join(t.TempDir(), "smartmart.db"),
		MaxConns: 1,
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

// PostgresURLEnv names the variable that points the PostgreSQL tests at a
// server. Those tests are skipped when it is unset.
const PostgresURLEnv = "DATABASE_URL"

// NewPostgres returns a migrated store in a fresh schema on the server named
// by $DATABASE_URL, or skips the test when the variable is unset or not a
// PostgreSQL URL. The schema is dropped when the test finishes.
func NewPostgres(t testing.TB) *store.Store {
	t.Helper()

	base := os.Getenv(PostgresURLEnv)
	if base == "" {
		t.Skipf("%s not set", PostgresURLEnv)
	}
	admin := config.DatabaseConfig{URL: base, MaxConns: 2, MinConns: 0}
	if driver, err := admin.Driver(); err != nil || driver != config.DriverPostgres {
		t.Skipf("%s is not a PostgreSQL URL", PostgresURLEnv)
	}

	ctx := context.Background()
	adminStore, err := store.Open(ctx, admin)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { adminStore.Close() })

	schema := "smartmart_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := adminStore.DB(ctx).Exec("CREATE SCHEMA " + schema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		if err := adminStore.DB(context.Background()).Exec("DROP SCHEMA " + schema + " CASCADE").Error; err != nil {
			t.Errorf("drop schema %s: %v", schema, err)
		}
	})

	u, err := url.Parse(base)
	if err != nil {
		t.Fatalf("parse %s: %v", PostgresURLEnv, err)
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()

	st, err := store.Open(ctx, config.DatabaseConfig{URL: u.String(), MaxConns: 4, MinConns: 0})
	if err != nil {
		t.Fatalf("open postgres schema: %v", err)
	}
	// Registered after the schema cleanup, so it runs first.
	t.Cleanup(func() { st.Close() })

	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}
