// Package testutil holds shared helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/exptrack/exptrack/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// schemaMigrations lists migration basenames in apply order.
var schemaMigrations = []string{
	"000001_users",
	"000002_categories",
	"000003_expenses",
}

// ResetSchema drops every table and re-applies the up migrations.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}
	dir := filepath.Join(root, "internal", "repository", "migrations")

	for i := len(schemaMigrations) - 1; i >= 0; i-- {
		if err := execFile(ctx, pool, filepath.Join(dir, schemaMigrations[i]+".down.sql")); err != nil {
			return err
		}
	}
	for _, name := range schemaMigrations {
		if err := execFile(ctx, pool, filepath.Join(dir, name+".up.sql")); err != nil {
			return err
		}
	}

	// Leave golang-migrate bookkeeping consistent with a fresh schema.
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS schema_migrations"); err != nil {
		return fmt.Errorf("drop schema_migrations: %w", err)
	}

	return nil
}

func execFile(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", filepath.Base(path), err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", filepath.Base(path), err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a test user with sensible defaults.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	id := UniqueID("user")
	return &model.User{
		ID:           trimID(id),
		Name:         "Test User",
		Email:        id + "@example.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestCategory creates a category owned by userID.
func NewTestCategory(t testing.TB, userID, name string) *model.Category {
	t.Helper()
	return &model.Category{
		ID:        trimID(UniqueID("cat")),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestExpense creates an expense owned by userID in category.
func NewTestExpense(t testing.TB, userID, category string, amount float64, date time.Time) *model.Expense {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Expense{
		ID:        trimID(UniqueID("exp")),
		UserID:    userID,
		Category:  category,
		Amount:    amount,
		Date:      date.UTC().Truncate(time.Microsecond),
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// trimID fits an ID into the 26-character ULID columns.
func trimID(id string) string {
	if len(id) > 26 {
		return id[len(id)-26:]
	}
	return id
}
