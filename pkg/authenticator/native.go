package authenticator

import (
	"net/url"

	"github.com/tendant/ride-auth/pkg/credential"
	"github.com/tendant/ride-auth/pkg/deeplink"
	"github.com/tendant/ride-auth/pkg/scope"
)

const connectHost = "connect"

// Native authorizes through an installed first-party app. The deeplink
// carries the client identity and requested scopes; the app answers on the
// callback URI with the credential in the redirect.
type Native struct {
	gate   responseGate
	app    deeplink.App
	params Params
}

// NewNative builds a native strategy targeting the given app.
func NewNative(app deeplink.App, params Params) *Native {
	return &Native{app: app, params: params}
}

func (n *Native) Kind() Kind { return KindNative }

// App returns the target application.
func (n *Native) App() deeplink.App { return n.app }

// Target builds the authorization deeplink for the target app.
func (n *Native) Target() (*deeplink.Target, error) {
	query := url.Values{}
	query.Set("third_party_app_name", n.params.AppDisplayName)
	if n.params.CallbackURI != nil {
		query.Set("callback_uri_string", n.params.CallbackURI.String())
	}
	query.Set("client_id", n.params.ClientID)
	query.Set("scope", scope.Join(n.params.Scopes))
	query.Set("sdk", "go")
	query.Set("sdk_version", n.params.SDKVersion)
	if n.params.RequestURI != "" {
		query.Set("request_uri", n.params.RequestURI)
	}
	return deeplink.NewAppTarget(n.app, connectHost, "", query)
}

func (n *Native) Begin() { n.gate.begin() }

// ConsumeResponse parses the credential off the callback redirect. The app
// answers with token material in the query or fragment, or an error code.
func (n *Native) ConsumeResponse(redirect *url.URL, complete Completion) bool {
	if !n.gate.tryConsume() {
		return false
	}
	cred, err := credential.FromRedirectURL(redirect)
	complete(cred, err)
	return true
}
