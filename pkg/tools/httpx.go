package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const (
	fetchTimeout = 10 * time.Second
	userAgent    = "KaziAI/1.0"
	// Browser UA for sites that block obvious bots.
	browserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var httpClient = &http.Client{Timeout: fetchTimeout}

// getJSON fetches a URL and decodes the JSON body into out.
func getJSON(ctx context.Context, rawURL string, params url.Values, headers map[string]string, out any) error {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// page is the readable content extracted from a fetched webpage.
type page struct {
	Title       string
	Description string
	Content     string
}

var (
	titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaRe  = regexp.MustCompile(`(?is)<meta\s+[^>]*name=["']description["'][^>]*content=["']([^"']*)["']`)
	stripRe = regexp.MustCompile(`(?is)<(script|style|nav|footer|header|aside)[^>]*>.*?</\w+>`)
	blankRe = regexp.MustCompile(`\n{3,}`)
)

// fetchPage fetches a URL and extracts title, meta description and the main
// text as markdown, truncated to maxContent runes.
func fetchPage(ctx context.Context, rawURL string, maxContent int) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	html := string(body)
	p := &page{}
	if m := titleRe.FindStringSubmatch(html); m != nil {
		p.Title = strings.TrimSpace(m[1])
	}
	if m := metaRe.FindStringSubmatch(html); m != nil {
		p.Description = strings.TrimSpace(m[1])
	}

	cleaned := stripRe.ReplaceAllString(html, "")
	md, err := htmltomarkdown.ConvertString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	md = blankRe.ReplaceAllString(strings.TrimSpace(md), "\n\n")
	p.Content = truncate(md, maxContent)
	return p, nil
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// normalizeURL prefixes https:// when the scheme is missing.
func normalizeURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}
