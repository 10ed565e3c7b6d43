package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/SiteNotice/SiteNotice/pkg/database"
	_ "github.com/mattn/go-sqlite3"
)

// SetupTest creates a test environment with a temporary database, initialized
// with the same schema and seeded defaults as runtime startup.
func SetupTest(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "sitenotice-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	cleanupTmpDir := func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			t.Logf("Failed to remove temp directory %q: %v", tmpDir, err)
		}
	}

	db, err := database.Initialize(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		cleanupTmpDir()
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := database.InitSchema(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			t.Logf("Failed to close test database after schema init error: %v", closeErr)
		}
		cleanupTmpDir()
		t.Fatalf("Failed to initialize test schema: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
		cleanupTmpDir()
	}

	return db, cleanup
}
