package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/lunateq/mnemo/db"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := db.DefaultConfig()
	cfg.DSN = "file::memory:"
	cfg.SQLite.WAL = false
	gdb, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return gdb
}

func TestAppendThenHistory_ChronologicalOrder(t *testing.T) {
	l := NewLedger(newTestDB(t))
	ctx := context.Background()

	if err := l.Append(ctx, "u1", RoleUser, "hello", nil); err != nil {
		t.Fatalf("append user turn: %v", err)
	}
	if err := l.Append(ctx, "u1", RoleAssistant, "hi there", nil); err != nil {
		t.Fatalf("append assistant turn: %v", err)
	}

	got, err := l.History(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := []Turn{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi there"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d turns, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("turn %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestHistory_BoundedToMostRecent(t *testing.T) {
	l := NewLedger(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := l.Append(ctx, "u1", RoleUser, fmt.Sprintf("m%d", i), nil); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := l.History(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(got))
	}
	// The window holds the newest three, still oldest-first.
	for i, want := range []string{"m7", "m8", "m9"} {
		if got[i].Content != want {
			t.Fatalf("turn %d: expected %q, got %q", i, want, got[i].Content)
		}
	}
}

func TestHistory_GlobalAcrossGuilds(t *testing.T) {
	// The ledger has no guild column at all; this pins the contract that
	// two different servers asking for the same user see one history.
	l := NewLedger(newTestDB(t))
	ctx := context.Background()

	if err := l.Append(ctx, "u1", RoleUser, "from guild A", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Append(ctx, "u1", RoleUser, "from guild B", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := l.History(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected one continuous history, got %d turns", len(got))
	}
}

func TestClear_ReturnsCountAndEmptiesLedger(t *testing.T) {
	l := NewLedger(newTestDB(t))
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		if err := l.Append(ctx, "u1", RoleUser, "m", nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	// Another user's turns are untouched by the clear.
	if err := l.Append(ctx, "u2", RoleUser, "other", nil); err != nil {
		t.Fatalf("append other user: %v", err)
	}

	deleted, err := l.Clear(ctx, "u1")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if deleted != n {
		t.Fatalf("expected %d deleted, got %d", n, deleted)
	}

	got, err := l.History(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("history after clear: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %d turns", len(got))
	}
	other, _ := l.History(ctx, "u2", 10)
	if len(other) != 1 {
		t.Fatalf("clear leaked into another user's ledger: %d turns", len(other))
	}
}

func TestStats_EmptyAndNonEmpty(t *testing.T) {
	l := NewLedger(newTestDB(t))
	ctx := context.Background()

	st, err := l.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Count != 0 || st.First != nil || st.Last != nil {
		t.Fatalf("expected empty stats, got %+v", st)
	}

	model := "gpt-4o"
	if err := l.Append(ctx, "u1", RoleUser, "q", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Append(ctx, "u1", RoleAssistant, "a", &model); err != nil {
		t.Fatalf("append: %v", err)
	}

	st, err = l.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Count != 2 {
		t.Fatalf("expected count 2, got %d", st.Count)
	}
	if st.First == nil || st.Last == nil {
		t.Fatal("expected timestamps on a non-empty ledger")
	}
	if *st.First > *st.Last {
		t.Fatalf("first %d after last %d", *st.First, *st.Last)
	}

	// Clearing brings stats back to the empty shape.
	if _, err := l.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	st, err = l.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats after clear: %v", err)
	}
	if st.Count != 0 || st.First != nil || st.Last != nil {
		t.Fatalf("expected empty stats after clear, got %+v", st)
	}
}

func TestAppend_RejectsUnknownRole(t *testing.T) {
	l := NewLedger(newTestDB(t))
	if err := l.Append(context.Background(), "u1", "system", "x", nil); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
