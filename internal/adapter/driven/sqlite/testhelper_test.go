package sqlite

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/ericfisherdev/proxmoxvm/internal/adapter/driven/secret"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via cache=shared.
// A unique name derived from t.Name() keeps parallel tests isolated.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it cannot be read as DSN query parameters.
	safeName := url.PathEscape(t.Name())
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		safeName,
	)

	db, err := open(context.Background(), dsn, ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := RunMigrations(db); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// testBox returns a Box with a fixed 32-byte key.
func testBox(t *testing.T) *secret.Box {
	t.Helper()

	box, err := secret.NewBox(bytes.Repeat([]byte{0x5a}, secret.KeySize))
	if err != nil {
		t.Fatalf("create box: %v", err)
	}
	return box
}
