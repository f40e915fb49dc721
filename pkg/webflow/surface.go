// Package webflow presents hosted login pages and captures the OAuth
// redirect that concludes them.
package webflow

import "net/url"

// Surface presents an authorization URL to the user and delivers the
// redirect URL that ends the flow. A nil redirect means the surface was
// dismissed before a redirect arrived.
type Surface interface {
	// Present shows the authorization page. The completion fires exactly
	// once, from any goroutine.
	Present(authURL *url.URL, completion func(redirect *url.URL)) error

	// Dismiss tears the surface down. If a flow is still pending its
	// completion fires with nil.
	Dismiss()
}
