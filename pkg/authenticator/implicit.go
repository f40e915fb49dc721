package authenticator

import (
	"net/url"

	"github.com/tendant/ride-auth/pkg/credential"
)

// Implicit runs the implicit grant. The credential arrives directly in the
// redirect fragment; only general scopes may be requested this way.
type Implicit struct {
	gate   responseGate
	params Params
}

// NewImplicit builds an implicit-grant strategy.
func NewImplicit(params Params) *Implicit {
	return &Implicit{params: params}
}

func (i *Implicit) Kind() Kind { return KindImplicit }

// AuthorizationURL builds the hosted login page URL for this attempt.
func (i *Implicit) AuthorizationURL() (*url.URL, error) {
	return buildAuthorizeURL(i.params, "token", "")
}

func (i *Implicit) Begin() { i.gate.begin() }

// ConsumeResponse parses the token material off the redirect fragment.
func (i *Implicit) ConsumeResponse(redirect *url.URL, complete Completion) bool {
	if !i.gate.tryConsume() {
		return false
	}
	cred, err := credential.FromRedirectURL(redirect)
	complete(cred, err)
	return true
}
