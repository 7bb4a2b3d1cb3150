package persona

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "PERSONA.md")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp persona: %v", err)
	}
	return path
}

func TestLoad_PlainDocument(t *testing.T) {
	path := writeTemp(t, "You are a helpful librarian.\n")
	doc, ok := Load(path, nil)
	if !ok {
		t.Fatal("expected persona to load")
	}
	if doc.Body != "You are a helpful librarian." {
		t.Fatalf("unexpected body %q", doc.Body)
	}
}

func TestLoad_FrontmatterParsed(t *testing.T) {
	path := writeTemp(t, "---\nname: Archie\nstatus: active\n---\nBe terse.\n")
	doc, ok := Load(path, nil)
	if !ok {
		t.Fatal("expected persona to load")
	}
	if doc.Name != "Archie" {
		t.Fatalf("expected name from frontmatter, got %q", doc.Name)
	}
	if doc.Body != "Be terse." {
		t.Fatalf("frontmatter leaked into body: %q", doc.Body)
	}
}

func TestLoad_DraftSkipped(t *testing.T) {
	path := writeTemp(t, "---\nstatus: draft\n---\nNot ready yet.\n")
	if _, ok := Load(path, nil); ok {
		t.Fatal("draft persona must be skipped")
	}
}

func TestLoad_MissingFileNotAnError(t *testing.T) {
	if _, ok := Load(filepath.Join(t.TempDir(), "absent.md"), nil); ok {
		t.Fatal("missing file should load nothing")
	}
}

func TestLoad_UnterminatedFrontmatterTreatedAsBody(t *testing.T) {
	path := writeTemp(t, "---\nname: broken\nno closing fence")
	doc, ok := Load(path, nil)
	if !ok {
		t.Fatal("expected document to load as plain body")
	}
	if !strings.Contains(doc.Body, "no closing fence") {
		t.Fatalf("body lost: %q", doc.Body)
	}
}

func TestSystemPrompt_Composition(t *testing.T) {
	doc := Doc{Name: "Archie", Body: "Be terse."}
	got := SystemPrompt("You are a Discord assistant.", doc, "rules", "No spoilers.")
	for _, want := range []string{"You are a Discord assistant.", "Be terse.", "(rules)", "No spoilers."} {
		if !strings.Contains(got, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, got)
		}
	}

	// Without persona or context, the base prompt passes through clean.
	got = SystemPrompt("Base.", Doc{}, "", "")
	if got != "Base." {
		t.Fatalf("expected bare base prompt, got %q", got)
	}
}
