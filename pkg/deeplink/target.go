package deeplink

import (
	"fmt"
	"net/url"
)

// Target is an immutable deeplink destination. The derived URL is computed
// once at construction.
type Target struct {
	scheme          string
	host            string
	path            string
	query           url.Values
	fallbackSchemes []string
	u               *url.URL
}

// NewTarget builds a deeplink target from its components.
func NewTarget(scheme, host, path string, query url.Values) (*Target, error) {
	if scheme == "" {
		return nil, fmt.Errorf("deeplink target requires a scheme")
	}
	t := &Target{
		scheme: scheme,
		host:   host,
		path:   path,
		query:  query,
	}
	t.u = &url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     path,
		RawQuery: query.Encode(),
	}
	return t, nil
}

// NewAppTarget builds a deeplink target for the given app, carrying the
// app's fallback scheme variants.
func NewAppTarget(app App, host, path string, query url.Values) (*Target, error) {
	t, err := NewTarget(app.Scheme, host, path, query)
	if err != nil {
		return nil, err
	}
	t.fallbackSchemes = app.fallbackSchemes()
	return t, nil
}

// URL returns a copy of the derived URL.
func (t *Target) URL() *url.URL {
	u := *t.u
	return &u
}

// FallbackURLs returns the same destination under each fallback scheme, in
// the order they should be attempted after the primary URL.
func (t *Target) FallbackURLs() []*url.URL {
	urls := make([]*url.URL, 0, len(t.fallbackSchemes))
	for _, scheme := range t.fallbackSchemes {
		u := *t.u
		u.Scheme = scheme
		urls = append(urls, &u)
	}
	return urls
}
