// Package fetcher downloads exam papers published on the web.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/pbaille/pyq/internal/domain"
)

// DefaultMaxBytes bounds a single download
const DefaultMaxBytes = 20 * 1024 * 1024

// Fetcher retrieves remote documents
type Fetcher struct {
	Client   *http.Client
	MaxBytes int64
}

// New creates a Fetcher with a 30s timeout
func New() *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: 30 * time.Second},
		MaxBytes: DefaultMaxBytes,
	}
}

// Fetch downloads rawURL into an InputDocument
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (domain.InputDocument, error) {
	// Validate URL
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return domain.InputDocument{}, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + strings.TrimSpace(rawURL))
		if err != nil {
			return domain.InputDocument{}, fmt.Errorf("invalid URL: %w", err)
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return domain.InputDocument{}, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.InputDocument{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "pyq/1.0 (paper-organizer)")

	resp, err := f.Client.Do(req)
	if err != nil {
		return domain.InputDocument{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.InputDocument{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	// Read one byte past the limit to detect oversized bodies
	limited := io.LimitReader(resp.Body, f.MaxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return domain.InputDocument{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.MaxBytes {
		return domain.InputDocument{}, fmt.Errorf("document exceeds %d bytes", f.MaxBytes)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" {
		name = u.Host
	}
	return domain.InputDocument{
		Name:        name,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        body,
	}, nil
}

// IsURL checks if a string looks like a URL
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.")
}
