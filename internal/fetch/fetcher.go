// Package fetch downloads a source distribution and extracts it into a
// project directory. Bodies are buffered whole in memory before extraction;
// source distributions are small enough that this is acceptable, but it is a
// known scalability limit.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// FetchError reports a non-success HTTP status from the archive host. The
// upstream status code is carried so the API layer can pass it through.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("downloading %s: upstream returned status %d", e.URL, e.StatusCode)
}

// UnsupportedFormatError reports an archive URL whose suffix is neither
// .tar.gz nor .zip.
type UnsupportedFormatError struct {
	URL string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported archive format: %s", e.URL)
}

type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

type Option func(*Fetcher)

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

func WithRateLimit(l *rate.Limiter) Option {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

func NewFetcher(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &Fetcher{
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(5), 10),
		userAgent: "wheelforge/1.0",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url and extracts the archive under destDir. Nothing is
// written under destDir unless the download succeeded. There is no retry.
func (f *Fetcher) Fetch(ctx context.Context, url, destDir string) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading body of %s: %w", url, err)
	}

	switch {
	case strings.HasSuffix(url, ".tar.gz"):
		return extractTarGz(body, destDir)
	case strings.HasSuffix(url, ".zip"):
		return extractZip(body, destDir)
	default:
		return &UnsupportedFormatError{URL: url}
	}
}
