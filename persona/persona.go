// Package persona loads an optional Markdown persona document that is
// merged into the system prompt. The document may carry YAML frontmatter;
// a `status: draft` document is ignored.
package persona

import (
	"bufio"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Frontmatter struct {
	Name   string `yaml:"name"`
	Status string `yaml:"status"`
}

type Doc struct {
	Name string
	Body string
}

// Load reads the persona document at path. A missing file is not an error:
// the bot simply runs without a persona. A draft document is skipped with
// a log line so the operator can see why it was ignored.
func Load(path string, log *slog.Logger) (Doc, bool) {
	if log == nil {
		log = slog.Default()
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Doc{}, false
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("persona_load_failed", "path", path, "error", err.Error())
		}
		return Doc{}, false
	}

	fm, body, hasFM := parseFrontmatter(string(raw))
	if hasFM && strings.EqualFold(strings.TrimSpace(fm.Status), "draft") {
		log.Info("persona_skipped_draft", "path", path)
		return Doc{}, false
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Doc{}, false
	}
	return Doc{Name: strings.TrimSpace(fm.Name), Body: body}, true
}

// SystemPrompt builds the system message for a request: the base prompt,
// then the persona body, then an optional named context block.
func SystemPrompt(base string, doc Doc, contextName, contextBody string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))
	if doc.Body != "" {
		b.WriteString("\n\nAdopt the persona described below as your identity and tone.\n\n")
		b.WriteString(doc.Body)
	}
	if strings.TrimSpace(contextBody) != "" {
		b.WriteString("\n\nReference document")
		if n := strings.TrimSpace(contextName); n != "" {
			b.WriteString(" (" + n + ")")
		}
		b.WriteString(":\n\n")
		b.WriteString(strings.TrimSpace(contextBody))
	}
	return strings.TrimSpace(b.String())
}

func parseFrontmatter(contents string) (Frontmatter, string, bool) {
	sc := bufio.NewScanner(strings.NewReader(contents))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "---" {
		return Frontmatter{}, contents, false
	}

	var yamlLines []string
	foundEnd := false
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "---" {
			foundEnd = true
			break
		}
		yamlLines = append(yamlLines, line)
	}
	if !foundEnd {
		return Frontmatter{}, contents, false
	}

	var bodyLines []string
	for sc.Scan() {
		bodyLines = append(bodyLines, sc.Text())
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(strings.Join(yamlLines, "\n")), &fm); err != nil {
		return Frontmatter{}, contents, false
	}
	return fm, strings.Join(bodyLines, "\n"), true
}
