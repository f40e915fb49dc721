// Package credential defines the persisted access credential, the parsing of
// OAuth redirect URLs and token-endpoint bodies into credentials, and the
// keyed store contract used to persist them.
package credential

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tendant/ride-auth/pkg/autherr"
	"github.com/tendant/ride-auth/pkg/scope"
)

// Credential stores information about an access token used for authorizing
// requests. It is created on successful authentication and persisted under a
// caller-chosen Key.
type Credential struct {
	// TokenString is the opaque bearer token.
	TokenString string `json:"token_string"`

	// RefreshToken, when present, can be used to obtain a new credential.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is the token-type tag reported by the server, e.g. "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresAt is the absolute expiry, zero when the server reported none.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// GrantedScopes holds the scopes the server actually granted.
	GrantedScopes []scope.Scope `json:"granted_scopes,omitempty"`
}

// Expired reports whether the credential carries an expiry in the past.
// Credentials without an expiry never report expired.
func (c Credential) Expired() bool {
	return !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)
}

// FromRedirectURL parses a credential out of an OAuth redirect URL. Both the
// query and the fragment are considered, since the implicit grant delivers
// token parameters in the fragment while native callbacks may use either.
// An "error" parameter resolves to the corresponding typed error; a missing
// access token resolves to an invalid-response error.
func FromRedirectURL(redirect *url.URL) (*Credential, error) {
	if redirect == nil {
		return nil, autherr.New(autherr.KindInvalidResponse, "redirect URL is nil")
	}

	values, err := url.ParseQuery(redirect.RawQuery)
	if err != nil {
		return nil, autherr.Wrap(autherr.KindInvalidResponse, "unparseable redirect query", err)
	}
	if redirect.Fragment != "" {
		fragment, err := url.ParseQuery(redirect.Fragment)
		if err != nil {
			return nil, autherr.Wrap(autherr.KindInvalidResponse, "unparseable redirect fragment", err)
		}
		for k, vs := range fragment {
			for _, v := range vs {
				values.Add(k, v)
			}
		}
	}

	return fromValues(values)
}

// FromJSON parses a credential out of a token-endpoint response body.
func FromJSON(data []byte) (*Credential, error) {
	var body struct {
		AccessToken  string          `json:"access_token"`
		RefreshToken string          `json:"refresh_token"`
		TokenType    string          `json:"token_type"`
		ExpiresIn    json.RawMessage `json:"expires_in"`
		Scope        string          `json:"scope"`
		Error        string          `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, autherr.Wrap(autherr.KindInvalidResponse, "malformed token response body", err)
	}
	if body.Error != "" {
		return nil, autherr.FromOAuthCode(body.Error)
	}
	if body.AccessToken == "" {
		return nil, autherr.New(autherr.KindInvalidResponse, "token response missing access_token")
	}

	cred := &Credential{
		TokenString:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		TokenType:    body.TokenType,
	}
	if len(body.ExpiresIn) > 0 {
		if seconds, ok := parseExpiresIn(string(body.ExpiresIn)); ok {
			cred.ExpiresAt = time.Now().Add(time.Duration(seconds * float64(time.Second)))
		}
	}
	if body.Scope != "" {
		cred.GrantedScopes = scope.ParseList(body.Scope)
	}
	enrichExpiry(cred)
	return cred, nil
}

func fromValues(values url.Values) (*Credential, error) {
	if code := values.Get("error"); code != "" {
		return nil, autherr.FromOAuthCode(code)
	}

	token := values.Get("access_token")
	if token == "" {
		return nil, autherr.New(autherr.KindInvalidResponse, "redirect carries neither access_token nor error")
	}

	cred := &Credential{
		TokenString:  token,
		RefreshToken: values.Get("refresh_token"),
		TokenType:    values.Get("token_type"),
	}
	if raw := values.Get("expires_in"); raw != "" {
		if seconds, ok := parseExpiresIn(raw); ok {
			cred.ExpiresAt = time.Now().Add(time.Duration(seconds * float64(time.Second)))
		}
	}
	if raw := values.Get("scope"); raw != "" {
		cred.GrantedScopes = scope.ParseList(raw)
	}
	enrichExpiry(cred)
	return cred, nil
}

func parseExpiresIn(raw string) (float64, bool) {
	raw = trimQuotes(raw)
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return seconds, true
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// enrichExpiry derives an expiry from the access token's exp claim when the
// server did not report expires_in and the token happens to be a JWT. The
// token is parsed without verification; the claim is informational only.
func enrichExpiry(cred *Credential) {
	if !cred.ExpiresAt.IsZero() {
		return
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(cred.TokenString, claims); err != nil {
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	cred.ExpiresAt = exp.Time
}
