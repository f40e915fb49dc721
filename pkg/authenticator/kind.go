package authenticator

// Kind identifies an authorization strategy.
type Kind int

const (
	// KindNative switches into an installed first-party app over a deeplink
	// and receives the credential on the callback URL.
	KindNative Kind = iota

	// KindAuthorizationCode runs the authorization-code grant in a web
	// surface and exchanges the returned code for a credential.
	KindAuthorizationCode

	// KindImplicit runs the implicit grant in a web surface and reads the
	// credential straight off the redirect fragment.
	KindImplicit
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindAuthorizationCode:
		return "authorization_code"
	case KindImplicit:
		return "implicit"
	default:
		return "unknown"
	}
}
