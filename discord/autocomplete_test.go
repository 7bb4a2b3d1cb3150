package discord

import (
	"testing"

	"github.com/lunateq/mnemo/contexts"
)

func TestMergeContextLists_PersonalWinsAndOrderHolds(t *testing.T) {
	personal := []contexts.Item{
		{Name: "guide", Personal: true},
		{Name: "notes", Personal: true},
	}
	server := []contexts.Item{
		{Name: "rules"},
		{Name: "guide"}, // shadowed by the personal one
		{Name: "faq"},
	}

	got := mergeContextLists(personal, server)
	wantNames := []string{"guide", "notes", "rules", "faq"}
	if len(got) != len(wantNames) {
		t.Fatalf("expected %d items, got %v", len(wantNames), got)
	}
	for i, name := range wantNames {
		if got[i].Name != name {
			t.Fatalf("position %d: expected %q, got %q", i, name, got[i].Name)
		}
	}
	if !got[0].Personal {
		t.Fatal("the shadowing item must be the personal one")
	}
}

func TestMergeContextLists_EmptyScopes(t *testing.T) {
	if got := mergeContextLists(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty merge, got %v", got)
	}
	server := []contexts.Item{{Name: "only"}}
	got := mergeContextLists(nil, server)
	if len(got) != 1 || got[0].Name != "only" {
		t.Fatalf("server-only merge broken: %v", got)
	}
}
