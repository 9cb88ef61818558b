// Package databasetest opens migrated in-memory SQLite databases for tests.
package databasetest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jordanlanch/realtycrm/pkg/database"
)

// Open returns a migrated client backed by a private in-memory SQLite
// database. The database is closed when the test finishes.
func Open(t testing.TB) *database.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name)

	client, err := database.NewClientWithPoolAndSSL(context.Background(), "sqlite3", dsn, database.DefaultPoolConfig(), nil)
	if err != nil {
		t.Fatalf("failed opening test database: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}
