package autherr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of an authentication failure.
type Kind int

const (
	// KindInvalidClientConfiguration indicates the SDK was configured with a
	// missing or malformed client ID, callback URI, or app registration.
	KindInvalidClientConfiguration Kind = iota

	// KindInvalidRedirect indicates the redirect URI did not match the one
	// registered for the client.
	KindInvalidRedirect

	// KindInvalidRequest indicates a malformed authorization request.
	KindInvalidRequest

	// KindInvalidResponse indicates a callback URL or endpoint body that
	// could not be parsed into a credential.
	KindInvalidResponse

	// KindInvalidScope indicates the requested scope set was rejected.
	KindInvalidScope

	// KindMismatchingState indicates the state parameter on an
	// authorization-code redirect did not match the one issued for the
	// attempt.
	KindMismatchingState

	// KindNetworkError indicates the token or pre-authorization endpoint
	// could not be reached.
	KindNetworkError

	// KindServerError indicates the authorization server failed to fulfill
	// the request.
	KindServerError

	// KindUnableToPresentLogin indicates no login surface could be shown,
	// or the flow was redirected to an app-store fallback.
	KindUnableToPresentLogin

	// KindUnableToSaveCredential indicates authentication succeeded but the
	// credential could not be persisted.
	KindUnableToSaveCredential

	// KindTemporarilyUnavailable indicates the authorization server is
	// overloaded or under maintenance.
	KindTemporarilyUnavailable

	// KindUserCancelled indicates the user rejected the app-switch prompt or
	// abandoned the flow without completing it.
	KindUserCancelled
)

// String returns the wire-style name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidClientConfiguration:
		return "invalid_client_configuration"
	case KindInvalidRedirect:
		return "invalid_redirect"
	case KindInvalidRequest:
		return "invalid_request"
	case KindInvalidResponse:
		return "invalid_response"
	case KindInvalidScope:
		return "invalid_scope"
	case KindMismatchingState:
		return "mismatching_state"
	case KindNetworkError:
		return "network_error"
	case KindServerError:
		return "server_error"
	case KindUnableToPresentLogin:
		return "unable_to_present_login"
	case KindUnableToSaveCredential:
		return "unable_to_save_credential"
	case KindTemporarilyUnavailable:
		return "temporarily_unavailable"
	case KindUserCancelled:
		return "user_cancelled"
	default:
		return "unknown"
	}
}

// Error is the single error type surfaced across the SDK's public boundary.
// Nothing is ever panicked or thrown to the caller; every failure resolves
// to one of these through the login completion handler.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from an error chain. The second return value is
// false when the chain contains no *Error.
func KindOf(err error) (Kind, bool) {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// FromOAuthCode maps an RFC 6749 error code delivered on a redirect or token
// response into a typed Error. Unrecognized codes map to an invalid-request
// error, matching how the authorization server reports malformed attempts.
func FromOAuthCode(code string) *Error {
	switch code {
	case "invalid_request":
		return New(KindInvalidRequest, "the authorization request was malformed")
	case "unauthorized_client", "invalid_client":
		return New(KindInvalidClientConfiguration, "the client is not authorized for this grant")
	case "access_denied", "cancelled":
		return New(KindUserCancelled, "the user denied the authorization request")
	case "unsupported_response_type":
		return New(KindInvalidRequest, "the requested response type is not supported")
	case "invalid_scope":
		return New(KindInvalidScope, "the requested scope is invalid, unknown, or malformed")
	case "invalid_redirect_uri", "mismatching_redirect_uri":
		return New(KindInvalidRedirect, "the redirect URI does not match the registered value")
	case "server_error":
		return New(KindServerError, "the authorization server encountered an unexpected condition")
	case "temporarily_unavailable":
		return New(KindTemporarilyUnavailable, "the authorization server is temporarily unavailable")
	default:
		return New(KindInvalidRequest, fmt.Sprintf("unrecognized authorization error code %q", code))
	}
}
