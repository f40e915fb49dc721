// Package authenticator implements the authorization strategies: native SSO
// over a deeplink, the authorization-code grant, and the implicit grant.
// Each strategy is a single-use state machine that accepts at most one
// redirect response.
package authenticator

import (
	"net/url"
	"sync"

	"github.com/tendant/ride-auth/pkg/credential"
	"github.com/tendant/ride-auth/pkg/scope"
)

// Completion receives the outcome of a consumed response. Exactly one of the
// credential and the error is set, except for server-side exchange variants
// where both may be nil after the code is handed off.
type Completion func(*credential.Credential, error)

// Authenticator is a single-use authorization strategy. Begin arms it for a
// response; ConsumeResponse reports whether the redirect was accepted.
type Authenticator interface {
	Kind() Kind
	Begin()
	ConsumeResponse(redirect *url.URL, complete Completion) bool
}

// Params carries the client settings shared by all strategies.
type Params struct {
	ClientID       string
	AppDisplayName string

	// CallbackURI is the redirect URI for this flow type.
	CallbackURI *url.URL

	// BaseLoginURL is the authorization server origin for web flows.
	BaseLoginURL string

	SDKVersion string

	// RequestURI references a pushed authorization request. Optional.
	RequestURI string

	Scopes []scope.Scope
}

const (
	stateIdle = iota
	stateAwaitingResponse
	stateResolved
)

// responseGate enforces the single-use lifecycle. A response is consumed
// only between Begin and the first accepted redirect.
type responseGate struct {
	mu    sync.Mutex
	state int
}

func (g *responseGate) begin() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == stateIdle {
		g.state = stateAwaitingResponse
	}
}

// tryConsume transitions awaiting-response to resolved, reporting whether
// this call won the transition.
func (g *responseGate) tryConsume() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != stateAwaitingResponse {
		return false
	}
	g.state = stateResolved
	return true
}
