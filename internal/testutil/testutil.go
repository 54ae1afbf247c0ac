// Package testutil provides shared test helpers for setting up vaults and
// ledger databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/matome/internal/history"
	"github.com/starford/matome/internal/storage"
)

// TestVault creates a temporary vault with an input directory and returns
// the vault root with its storage provider.
func TestVault(t *testing.T, inputDir string) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(vaultDir, inputDir), 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TestDB creates a temporary ledger database that is automatically cleaned up.
func TestDB(t *testing.T) *history.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "matome-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := history.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
