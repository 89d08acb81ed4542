package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/framefarm/framefarm/internal/config"
	"github.com/framefarm/framefarm/internal/users"
	"github.com/framefarm/framefarm/pkg/logger"
	"github.com/framefarm/framefarm/pkg/store"
)

func testLogger() logger.Logger {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "Development"},
		Logger: config.Logger{Encoding: "console", Level: "error"},
	}
	log := logger.NewApiLogger(cfg)
	log.InitLogger()
	return log
}

func newTestRepo(t *testing.T) users.Repository {
	t.Helper()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "users.json"))
	repo, err := NewUserRepo(st, "admin", testLogger())
	if err != nil {
		t.Fatalf("NewUserRepo: %v", err)
	}
	return repo
}

func TestBootstrapCreatesDefaultUser(t *testing.T) {
	repo := newTestRepo(t)

	admin, err := repo.GetByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("bootstrap user missing: %v", err)
	}
	if len(admin.Key) != 16 {
		t.Fatalf("bootstrap key length = %d, want 16", len(admin.Key))
	}

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("bootstrap created %d users, want exactly 1", len(list))
	}
}

func TestBootstrapOnlyRunsOnce(t *testing.T) {
	dir := t.TempDir()
	st := store.NewFileStore(filepath.Join(dir, "users.json"))
	repo, err := NewUserRepo(st, "admin", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	first, err := repo.GetByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatal(err)
	}

	// A second process opening the same store must not mint a new key.
	repo2, err := NewUserRepo(store.NewFileStore(filepath.Join(dir, "users.json")), "admin", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	second, err := repo2.GetByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatal(err)
	}
	if first.Key != second.Key {
		t.Fatal("reopening the registry replaced the bootstrap key")
	}
}

func TestAddDuplicateUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Add(ctx, "node-1"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	_, err := repo.Add(ctx, "node-1")
	if !errors.Is(err, users.ErrUserExists) {
		t.Fatalf("duplicate add returned %v, want ErrUserExists", err)
	}
}

func TestAddGeneratesDistinctKeys(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, err := repo.Add(ctx, "node-1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := repo.Add(ctx, "node-2")
	if err != nil {
		t.Fatal(err)
	}
	if a.Key == b.Key {
		t.Fatal("two users share a generated key")
	}
}

func TestRekeyReplacesKey(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	before, err := repo.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatal(err)
	}
	after, err := repo.Rekey(ctx, "admin")
	if err != nil {
		t.Fatalf("Rekey: %v", err)
	}
	if before.Key == after.Key {
		t.Fatal("rekey did not replace the key")
	}

	stored, err := repo.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Key != after.Key {
		t.Fatal("rekey not persisted")
	}
}

func TestRemove(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Add(ctx, "node-1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Remove(ctx, "node-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := repo.GetByUsername(ctx, "node-1"); !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("lookup after remove returned %v, want ErrUserNotFound", err)
	}
	if err := repo.Remove(ctx, "node-1"); !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("second remove returned %v, want ErrUserNotFound", err)
	}
}
