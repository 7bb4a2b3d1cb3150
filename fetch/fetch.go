// Package fetch retrieves a web page and reduces it to readable text for
// the /fetch command. Responses are size-bounded and private addresses are
// refused.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

type Fetcher struct {
	Timeout        time.Duration
	MaxBytes       int64
	UserAgent      string
	HTTPClient     *http.Client
	DenyPrivateIPs bool
}

func New() *Fetcher {
	const timeout = 30 * time.Second
	return &Fetcher{
		Timeout:        timeout,
		MaxBytes:       512 * 1024,
		UserAgent:      "mnemo/1.0 (+https://github.com/lunateq/mnemo)",
		HTTPClient:     &http.Client{Timeout: timeout},
		DenyPrivateIPs: true,
	}
}

// Text fetches rawURL and returns the page reduced to plain text. Non-HTML
// responses come back as-is (truncated to MaxBytes).
func (f *Fetcher) Text(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme: %s", u.Scheme)
	}
	if f.DenyPrivateIPs {
		if err := checkHostPublic(ctx, u.Hostname()); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: f.Timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, u.Host)
	}

	maxBytes := f.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 512 * 1024
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return "", err
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml") {
		return ExtractText(string(raw)), nil
	}
	return string(raw), nil
}

// ExtractText walks an HTML document and collects visible text, skipping
// script, style, and similar non-content subtrees. Block elements become
// line breaks so the output stays readable.
func ExtractText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return strings.TrimSpace(rawHTML)
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template", "head", "iframe", "svg":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			b.WriteString("\n")
		}
	}
	walk(doc)

	lines := strings.Split(b.String(), "\n")
	var out []string
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6",
		"li", "ul", "ol", "tr", "table", "section", "article",
		"header", "footer", "blockquote", "pre":
		return true
	}
	return false
}

func checkHostPublic(ctx context.Context, host string) error {
	if host == "" {
		return fmt.Errorf("empty host")
	}
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}
	for _, ip := range ips {
		if ip.IP.IsLoopback() || ip.IP.IsPrivate() || ip.IP.IsLinkLocalUnicast() || ip.IP.IsUnspecified() {
			return fmt.Errorf("refusing to fetch private address %s", ip.IP)
		}
	}
	return nil
}
