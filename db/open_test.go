package db

import (
	"context"
	"testing"

	"github.com/lunateq/mnemo/db/models"
)

func TestOpen_MigratesSchema(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DSN = "file::memory:"
	cfg.SQLite.WAL = false
	gdb, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for _, table := range []string{"guilds", "users", "contexts", "memory_messages"} {
		if !gdb.Migrator().HasTable(table) {
			t.Fatalf("table %s missing after migrate", table)
		}
	}
}

func TestOpen_ContextUniquenessEnforcedByIndex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DSN = "file::memory:"
	cfg.SQLite.WAL = false
	gdb, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	row := models.Context{GuildID: "g", UserID: "", Name: "n", Content: "c", CreatedAt: 1}
	if err := gdb.Create(&row).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	dup := models.Context{GuildID: "g", UserID: "", Name: "n", Content: "other", CreatedAt: 2}
	if err := gdb.Create(&dup).Error; err == nil {
		t.Fatal("second server-scoped insert with the same name must violate the index")
	}

	// The same name under a user scope does not collide.
	personal := models.Context{GuildID: "g", UserID: "u", Name: "n", Content: "p", CreatedAt: 3}
	if err := gdb.Create(&personal).Error; err != nil {
		t.Fatalf("personal insert: %v", err)
	}
}

func TestResolveSQLiteDSN(t *testing.T) {
	if _, err := ResolveSQLiteDSN("  "); err == nil {
		t.Fatal("expected error for empty dsn")
	}
	got, err := ResolveSQLiteDSN("file::memory:")
	if err != nil || got != "file::memory:" {
		t.Fatalf("memory dsn must pass through, got %q err=%v", got, err)
	}
}
