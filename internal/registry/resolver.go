// Package registry resolves a package name to a source-distribution URL by
// scraping a PEP-503 "simple" index page. The contract is deliberately
// narrow: the first anchor in document order whose target ends in .tar.gz or
// .zip wins, with no version selection and no preference between the two
// archive types. Repository clients depend on that tie-break.
package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// NotFoundError reports that the index has no usable source distribution for
// a package, either because the index page is missing or because it carries
// no archive links.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("package %q: no source distribution found on index", e.Name)
}

func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

var sourceSuffixes = []string{".tar.gz", ".zip"}

type Resolver struct {
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

type Option func(*Resolver)

func WithUserAgent(ua string) Option {
	return func(r *Resolver) {
		r.userAgent = ua
	}
}

func WithRateLimit(l *rate.Limiter) Option {
	return func(r *Resolver) {
		r.limiter = l
	}
}

func NewResolver(baseURL string, client *http.Client, opts ...Option) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	r := &Resolver{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(5), 10),
		userAgent: "wheelforge/1.0",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches the index page for name and returns the first archive URL
// in document order. There is no retry: a transient upstream failure surfaces
// to the caller as NotFoundError, same as a genuinely unknown package.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}

	pageURL := fmt.Sprintf("%s/simple/%s/", r.baseURL, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &NotFoundError{Name: name}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &NotFoundError{Name: name}
	}

	href := firstSourceLink(resp.Body)
	if href == "" {
		return "", &NotFoundError{Name: name}
	}

	return resolveRef(pageURL, href), nil
}

// firstSourceLink tokenizes the page and returns the href of the first
// anchor whose target ends with a recognized archive suffix. The tokenizer
// walks the markup in document order, which is what preserves the
// first-match-wins contract.
func firstSourceLink(body io.Reader) string {
	z := html.NewTokenizer(body)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tagName, hasAttr := z.TagName()
			if len(tagName) != 1 || tagName[0] != 'a' || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" && hasSourceSuffix(string(val)) {
					return string(val)
				}
				if !more {
					break
				}
			}
		}
	}
}

func hasSourceSuffix(href string) bool {
	for _, suffix := range sourceSuffixes {
		if strings.HasSuffix(href, suffix) {
			return true
		}
	}
	return false
}

// resolveRef makes relative index links absolute. Absolute links pass
// through untouched.
func resolveRef(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
