// Package deeplink builds URLs that switch the user into an external
// application and executes them, inferring from application lifecycle
// signals whether the switch succeeded, failed, or was rejected.
package deeplink

import "fmt"

// App describes a target application a deeplink can switch into. The SDK is
// multi-tenant over product families: any number of apps may be configured,
// each with its own URL scheme, bundle identifier prefix, and app-store
// listing.
type App struct {
	// Family is the product family name, e.g. "rides" or "eats".
	Family string

	// Scheme is the custom URL scheme the app registers.
	Scheme string

	// BundleIDPrefix identifies callbacks originating from the app.
	BundleIDPrefix string

	// AppStoreID is the store listing used for the install fallback.
	AppStoreID string
}

// Valid reports whether the app carries the fields required to build
// authorization and app-store targets.
func (a App) Valid() error {
	if a.Family == "" || a.Scheme == "" || a.BundleIDPrefix == "" {
		return fmt.Errorf("app registration requires family, scheme, and bundle ID prefix: %+v", a)
	}
	return nil
}

// fallbackSchemes returns the scheme variants tried when the primary scheme
// cannot be opened. Enterprise and nightly builds of the target apps register
// suffixed schemes.
func (a App) fallbackSchemes() []string {
	return []string{
		a.Scheme + "-enterprise",
		a.Scheme + "-nightly",
	}
}
