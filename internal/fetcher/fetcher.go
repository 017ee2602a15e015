// Package fetcher pulls reference text from a brand or product page.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	maxBodyBytes = 5 * 1024 * 1024

	// MaxReferenceChars keeps the reference short enough for a prompt
	MaxReferenceChars = 4000
)

// Fetcher downloads pages and extracts their readable text
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New creates a Fetcher with a 30 second timeout
func New() *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: "contentforge/1.0 (reference-fetcher)",
	}
}

// Fetch retrieves URL content and extracts readable text
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := normalizeURL(rawURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := extractText(string(body), MaxReferenceChars)
	if text == "" {
		return "", fmt.Errorf("no text content found")
	}
	return text, nil
}

func normalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if strings.HasPrefix(rawURL, "www.") {
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid URL: missing host")
	}
	return u.String(), nil
}

// IsURL checks if a string looks like a URL
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.")
}

// Tags to skip (non-content)
var skipTags = map[string]bool{
	"script": true, "style": true, "nav": true,
	"header": true, "footer": true, "aside": true,
	"noscript": true, "iframe": true, "form": true,
}

// extractText parses HTML and returns readable text content, the page title first
func extractText(htmlContent string, limit int) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var title string
	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "title" && n.FirstChild != nil && title == "" {
				title = strings.TrimSpace(n.FirstChild.Data)
				return
			}
			if skipTags[n.Data] {
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	result := strings.Join(strings.Fields(sb.String()), " ")
	if title != "" {
		result = strings.TrimSpace(title + ". " + result)
	}

	if r := []rune(result); len(r) > limit {
		result = string(r[:limit]) + "..."
	}
	return result
}
