package authenticator

import (
	"context"
	"encoding/base64"
	"net/url"

	"github.com/google/uuid"
	"github.com/tendant/ride-auth/pkg/autherr"
	"github.com/tendant/ride-auth/pkg/oauth"
	"github.com/tendant/ride-auth/pkg/pkce"
	"github.com/tendant/ride-auth/pkg/scope"
)

const authorizePath = "/oauth/v2/authorize"

// signupParams asks the authorization page to land on login rather than the
// signup funnel.
var signupParams = base64.StdEncoding.EncodeToString([]byte(`{"redirect_to_login":true}`))

// AuthorizationCode runs the authorization-code grant. The redirect carries
// a one-time code bound to the state parameter; the code is exchanged for a
// credential through the configured exchanger. A nil exchanger means the
// host's own backend performs the exchange, and the completion fires with
// neither credential nor error once the code is handed off.
type AuthorizationCode struct {
	gate      responseGate
	params    Params
	state     string
	proof     *pkce.Proof
	exchanger oauth.Exchanger
}

// NewAuthorizationCode builds an authorization-code strategy with a fresh
// state parameter and proof key.
func NewAuthorizationCode(params Params, exchanger oauth.Exchanger) *AuthorizationCode {
	// Generation only fails when the system entropy source is broken; the
	// flow then degrades to the plain grant.
	proof, err := pkce.Generate()
	if err != nil {
		proof = nil
	}
	return &AuthorizationCode{
		params:    params,
		state:     uuid.New().String(),
		proof:     proof,
		exchanger: exchanger,
	}
}

func (a *AuthorizationCode) Kind() Kind { return KindAuthorizationCode }

// State returns the anti-forgery state parameter bound to this attempt.
func (a *AuthorizationCode) State() string { return a.state }

// AuthorizationURL builds the hosted login page URL for this attempt.
func (a *AuthorizationCode) AuthorizationURL() (*url.URL, error) {
	u, err := buildAuthorizeURL(a.params, "code", a.state)
	if err != nil {
		return nil, err
	}
	if a.proof != nil {
		query := u.Query()
		query.Set("code_challenge", a.proof.Challenge)
		query.Set("code_challenge_method", pkce.MethodS256)
		u.RawQuery = query.Encode()
	}
	return u, nil
}

func (a *AuthorizationCode) Begin() { a.gate.begin() }

// ConsumeResponse validates the redirect and exchanges the code. The
// exchange runs off the caller's goroutine since it performs network I/O.
func (a *AuthorizationCode) ConsumeResponse(redirect *url.URL, complete Completion) bool {
	if !a.gate.tryConsume() {
		return false
	}
	query := redirect.Query()
	if code := query.Get("error"); code != "" {
		complete(nil, autherr.FromOAuthCode(code))
		return true
	}
	if query.Get("state") != a.state {
		complete(nil, autherr.New(autherr.KindMismatchingState, "redirect state does not match the request"))
		return true
	}
	code := query.Get("code")
	if code == "" {
		complete(nil, autherr.New(autherr.KindInvalidResponse, "redirect carries no authorization code"))
		return true
	}
	if a.exchanger == nil {
		complete(nil, nil)
		return true
	}
	verifier := ""
	if a.proof != nil {
		verifier = a.proof.Verifier
	}
	go func() {
		cred, err := a.exchanger.Exchange(context.Background(), code, verifier)
		complete(cred, err)
	}()
	return true
}

func buildAuthorizeURL(params Params, responseType, state string) (*url.URL, error) {
	u, err := url.Parse(params.BaseLoginURL)
	if err != nil {
		return nil, autherr.Wrap(autherr.KindInvalidClientConfiguration, "base login URL is malformed", err)
	}
	u.Path = authorizePath
	query := url.Values{}
	query.Set("response_type", responseType)
	query.Set("client_id", params.ClientID)
	if params.CallbackURI != nil {
		query.Set("redirect_uri", params.CallbackURI.String())
	}
	query.Set("scope", scope.Join(params.Scopes))
	query.Set("sdk", "go")
	query.Set("sdk_version", params.SDKVersion)
	query.Set("signup_params", signupParams)
	if state != "" {
		query.Set("state", state)
	}
	if params.RequestURI != "" {
		query.Set("request_uri", params.RequestURI)
	}
	u.RawQuery = query.Encode()
	return u, nil
}
