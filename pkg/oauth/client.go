// Package oauth talks to the authorization server's token, refresh, and
// pre-authorization endpoints. Every call is single-attempt; retry policy is
// the caller's concern. Failures surface as typed autherr errors, never
// panics.
package oauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tendant/ride-auth/pkg/autherr"
	"github.com/tendant/ride-auth/pkg/credential"
)

const (
	tokenPath   = "/oauth/v2/token"
	refreshPath = "/oauth/v2/mobile/token"
	parPath     = "/oauth/v2/par"
)

// Exchanger swaps an authorization code for a credential. The
// authorization-code strategy depends on this narrow interface so hosts that
// exchange codes on their own backend can substitute their implementation.
// verifier carries the PKCE code verifier bound to the attempt; it may be
// empty for servers that do not enforce proof keys.
type Exchanger interface {
	Exchange(ctx context.Context, code, verifier string) (*credential.Credential, error)
}

// AuthorizationPusher performs the pre-authorization (PAR) request binding
// prefill hints to a short-lived request URI.
type AuthorizationPusher interface {
	PushedAuthorization(ctx context.Context, prefill Prefill) (*RequestURI, error)
}

// RequestURI is the result of a pre-authorization request.
type RequestURI struct {
	// Value is the request_uri parameter for the authorization request.
	Value string

	// ExpiresIn is the lifetime the server granted the request URI.
	ExpiresIn time.Duration
}

// Client calls the authorization server over HTTP.
type Client struct {
	baseURL     string
	clientID    string
	redirectURI string
	httpClient  *http.Client
	logger      *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger overrides the client's logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates an authorization-server client.
func NewClient(baseURL, clientID, redirectURI string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		clientID:    clientID,
		redirectURI: redirectURI,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Exchange swaps an authorization code for a credential.
func (c *Client) Exchange(ctx context.Context, code, verifier string) (*credential.Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.clientID)
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURI)
	if verifier != "" {
		form.Set("code_verifier", verifier)
	}

	body, err := c.postForm(ctx, tokenPath, form)
	if err != nil {
		return nil, err
	}
	cred, err := credential.FromJSON(body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Authorization code exchanged", "tokenType", cred.TokenType)
	return cred, nil
}

// Refresh obtains a new credential from a refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*credential.Credential, error) {
	if refreshToken == "" {
		return nil, autherr.New(autherr.KindInvalidRequest, "refresh token is empty")
	}
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("refresh_token", refreshToken)

	body, err := c.postForm(ctx, refreshPath, form)
	if err != nil {
		return nil, err
	}
	return credential.FromJSON(body)
}

// PushedAuthorization binds the prefill hints to a short-lived request URI.
// The hints travel base64-encoded in the login_hint parameter.
func (c *Client) PushedAuthorization(ctx context.Context, prefill Prefill) (*RequestURI, error) {
	hint, err := json.Marshal(prefill.values())
	if err != nil {
		return nil, autherr.Wrap(autherr.KindInvalidRequest, "failed to encode prefill hints", err)
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("response_type", "code")
	form.Set("login_hint", base64.StdEncoding.EncodeToString(hint))

	body, err := c.postForm(ctx, parPath, form)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		RequestURI string  `json:"request_uri"`
		ExpiresIn  float64 `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, autherr.Wrap(autherr.KindInvalidResponse, "malformed pre-authorization response", err)
	}
	if parsed.RequestURI == "" {
		return nil, autherr.New(autherr.KindInvalidResponse, "pre-authorization response missing request_uri")
	}
	return &RequestURI{
		Value:     parsed.RequestURI,
		ExpiresIn: time.Duration(parsed.ExpiresIn * float64(time.Second)),
	}, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, autherr.Wrap(autherr.KindInvalidRequest, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Authorization server unreachable", "path", path, "err", err)
		return nil, autherr.Wrap(autherr.KindNetworkError, "authorization server unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, autherr.Wrap(autherr.KindNetworkError, "failed to read response body", err)
	}

	switch {
	case resp.StatusCode >= 500:
		c.logger.Warn("Authorization server error", "path", path, "status", resp.StatusCode)
		return nil, autherr.New(autherr.KindServerError, fmt.Sprintf("authorization server returned %d", resp.StatusCode))
	case resp.StatusCode >= 300:
		if kindErr := errorFromBody(body); kindErr != nil {
			return nil, kindErr
		}
		return nil, autherr.New(autherr.KindInvalidRequest, fmt.Sprintf("authorization server returned %d", resp.StatusCode))
	}
	return body, nil
}

// errorFromBody extracts an RFC 6749 error code from a non-2xx body when the
// server reported one.
func errorFromBody(body []byte) error {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error == "" {
		return nil
	}
	return autherr.FromOAuthCode(parsed.Error)
}
