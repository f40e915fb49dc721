// Package config holds the client configuration for the authentication SDK:
// client identity, callback URIs per flow type, the target-app priority
// list, and the fallback policy flags.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sosodev/duration"
	"github.com/tendant/ride-auth/pkg/autherr"
	"github.com/tendant/ride-auth/pkg/deeplink"
)

// CallbackType selects which registered callback URI an authorization flow
// uses. Flows without a dedicated URI fall back to the general one.
type CallbackType string

const (
	CallbackGeneral           CallbackType = "general"
	CallbackNative            CallbackType = "native"
	CallbackAuthorizationCode CallbackType = "authorization_code"
	CallbackImplicit          CallbackType = "implicit"
)

const (
	defaultLoginURL = "https://login.rideplatform.example"
	sandboxLoginURL = "https://sandbox-login.rideplatform.example"
)

// Config contains the client-side authentication settings.
type Config struct {
	// ClientID is the OAuth client identifier issued for the host app.
	ClientID string `env:"RIDE_AUTH_CLIENT_ID"`

	// AppDisplayName is shown to the user during the native SSO handoff.
	AppDisplayName string `env:"RIDE_AUTH_APP_NAME" env-default:"Ride App"`

	// BaseLoginURL is the authorization server origin for web flows and
	// token endpoints.
	BaseLoginURL string `env:"RIDE_AUTH_LOGIN_URL" env-default:"https://login.rideplatform.example"`

	// CallbackURI is the general redirect URI registered for the client.
	CallbackURI string `env:"RIDE_AUTH_CALLBACK_URI"`

	// Per-flow callback URI overrides. Empty values fall back to CallbackURI.
	CallbackURINative            string `env:"RIDE_AUTH_CALLBACK_URI_NATIVE"`
	CallbackURIAuthorizationCode string `env:"RIDE_AUTH_CALLBACK_URI_AUTH_CODE"`
	CallbackURIImplicit          string `env:"RIDE_AUTH_CALLBACK_URI_IMPLICIT"`

	// UseFallback permits falling back from native SSO to the
	// authorization-code flow for privileged scopes. Without it a failed
	// native attempt for privileged scopes redirects to the app store.
	UseFallback bool `env:"RIDE_AUTH_USE_FALLBACK" env-default:"false"`

	// AlwaysUseAuthorizationCodeFallback forces every native fallback onto
	// the authorization-code flow regardless of requested scopes.
	AlwaysUseAuthorizationCodeFallback bool `env:"RIDE_AUTH_ALWAYS_AUTH_CODE_FALLBACK" env-default:"false"`

	// SettleDelay is the post-foreground settle timer as an ISO 8601
	// duration, e.g. "PT0.25S".
	SettleDelay string `env:"RIDE_AUTH_SETTLE_DELAY" env-default:"PT0.25S"`

	// WebSourceIdentifiers lists source identifiers accepted for callbacks
	// arriving from web flows (system or embedded browsers).
	WebSourceIdentifiers []string `env:"RIDE_AUTH_WEB_SOURCES" env-default:"com.apple.mobilesafari,com.apple.SafariViewService"`

	// SDKVersion is reported to the authorization endpoints.
	SDKVersion string `env:"RIDE_AUTH_SDK_VERSION" env-default:"0.1.0"`

	// Sandbox points web flows and token endpoints at the sandbox
	// authorization server. An explicit RIDE_AUTH_LOGIN_URL wins.
	Sandbox bool `env:"RIDE_AUTH_SANDBOX" env-default:"false"`

	// Apps is the target-application priority list for native SSO, tried in
	// order. Not environment-loadable; override after Load when the defaults
	// do not apply.
	Apps []deeplink.App
}

// DefaultApps returns the built-in target-application priority list.
func DefaultApps() []deeplink.App {
	return []deeplink.App{
		{
			Family:         "rides",
			Scheme:         "rideauth",
			BundleIDPrefix: "com.rideplatform",
			AppStoreID:     "id00000001",
		},
		{
			Family:         "eats",
			Scheme:         "eatsauth",
			BundleIDPrefix: "com.rideplatform.eats",
			AppStoreID:     "id00000002",
		},
	}
}

// Load reads the configuration from the environment and applies defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.Apps = DefaultApps()
	if cfg.Sandbox && cfg.BaseLoginURL == defaultLoginURL {
		cfg.BaseLoginURL = sandboxLoginURL
	}
	return &cfg, nil
}

// Validate checks the fields every login flow depends on.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return autherr.New(autherr.KindInvalidClientConfiguration, "client ID is not configured")
	}
	if c.CallbackURI == "" {
		return autherr.New(autherr.KindInvalidClientConfiguration, "callback URI is not configured")
	}
	if _, err := url.Parse(c.CallbackURI); err != nil {
		return autherr.Wrap(autherr.KindInvalidClientConfiguration, "callback URI is malformed", err)
	}
	if _, err := url.Parse(c.BaseLoginURL); err != nil {
		return autherr.Wrap(autherr.KindInvalidClientConfiguration, "base login URL is malformed", err)
	}
	for _, app := range c.Apps {
		if err := app.Valid(); err != nil {
			return autherr.Wrap(autherr.KindInvalidClientConfiguration, "invalid app registration", err)
		}
	}
	return nil
}

// CallbackURIFor returns the callback URI registered for the given flow
// type, falling back to the general URI.
func (c *Config) CallbackURIFor(t CallbackType) (*url.URL, error) {
	raw := c.CallbackURI
	switch t {
	case CallbackNative:
		if c.CallbackURINative != "" {
			raw = c.CallbackURINative
		}
	case CallbackAuthorizationCode:
		if c.CallbackURIAuthorizationCode != "" {
			raw = c.CallbackURIAuthorizationCode
		}
	case CallbackImplicit:
		if c.CallbackURIImplicit != "" {
			raw = c.CallbackURIImplicit
		}
	}
	if raw == "" {
		return nil, autherr.New(autherr.KindInvalidClientConfiguration, "no callback URI configured for flow "+string(t))
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, autherr.Wrap(autherr.KindInvalidClientConfiguration, "callback URI is malformed", err)
	}
	return u, nil
}

// SettleDuration parses the configured settle delay, defaulting to 250ms
// when unset or unparseable.
func (c *Config) SettleDuration() time.Duration {
	if c.SettleDelay == "" {
		return 250 * time.Millisecond
	}
	d, err := duration.Parse(c.SettleDelay)
	if err != nil {
		return 250 * time.Millisecond
	}
	return d.ToTimeDuration()
}

// IsWebSource reports whether the source identifier belongs to a system or
// embedded browser.
func (c *Config) IsWebSource(sourceID string) bool {
	for _, id := range c.WebSourceIdentifiers {
		if strings.EqualFold(id, sourceID) {
			return true
		}
	}
	return false
}

// AppForSource returns the configured app whose bundle ID prefix matches the
// source identifier of an inbound callback.
func (c *Config) AppForSource(sourceID string) (deeplink.App, bool) {
	// Longest prefix wins so "com.rideplatform.eats" is not claimed by the
	// "com.rideplatform" registration.
	var best deeplink.App
	found := false
	for _, app := range c.Apps {
		if strings.HasPrefix(sourceID, app.BundleIDPrefix) {
			if !found || len(app.BundleIDPrefix) > len(best.BundleIDPrefix) {
				best = app
				found = true
			}
		}
	}
	return best, found
}

// UserAgent identifies the SDK on app-store fallback deeplinks.
func (c *Config) UserAgent() string {
	return "ride-auth-go-v" + c.SDKVersion
}
