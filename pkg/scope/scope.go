// Package scope defines the typed catalog of permission scopes and their
// privileged/general classification used by the login fallback policy.
package scope

import "strings"

// Kind categorizes the level of access a scope grants.
//
//   - KindGeneral:    usable without platform review.
//   - KindPrivileged: requires approval, only obtainable via the
//     authorization-code flow in production.
//   - KindCustom:     an unrecognized scope string that still round-trips as
//     an opaque scope. Treated as privileged for policy decisions.
type Kind int

const (
	KindGeneral Kind = iota
	KindPrivileged
	KindCustom
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindGeneral:
		return "general"
	case KindPrivileged:
		return "privileged"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Scope is an immutable permission identifier plus its classification.
type Scope struct {
	Name string
	Kind Kind
}

// String returns the raw scope name.
func (s Scope) String() string {
	return s.Name
}

// IsPrivileged reports whether the scope requires the authorization-code
// flow. Custom scopes are privileged by default for safety.
func (s Scope) IsPrivileged() bool {
	return s.Kind == KindPrivileged || s.Kind == KindCustom
}

// Known scope catalog.
var (
	Profile        = Scope{Name: "profile", Kind: KindGeneral}
	History        = Scope{Name: "history", Kind: KindGeneral}
	HistoryLite    = Scope{Name: "history_lite", Kind: KindGeneral}
	Places         = Scope{Name: "places", Kind: KindGeneral}
	RideWidgets    = Scope{Name: "ride_widgets", Kind: KindGeneral}
	AllTrips       = Scope{Name: "all_trips", Kind: KindPrivileged}
	Request        = Scope{Name: "request", Kind: KindPrivileged}
	RequestReceipt = Scope{Name: "request_receipt", Kind: KindPrivileged}
)

var catalog = map[string]Scope{
	Profile.Name:        Profile,
	History.Name:        History,
	HistoryLite.Name:    HistoryLite,
	Places.Name:         Places,
	RideWidgets.Name:    RideWidgets,
	AllTrips.Name:       AllTrips,
	Request.Name:        Request,
	RequestReceipt.Name: RequestReceipt,
}

// Parse resolves a raw scope string against the known catalog. Unknown names
// produce a custom scope rather than an error so that server-granted scopes
// the SDK does not know about still round-trip.
func Parse(raw string) Scope {
	name := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := catalog[name]; ok {
		return s
	}
	return Scope{Name: name, Kind: KindCustom}
}

// ParseList parses a space- or plus-delimited scope field, as delivered on
// OAuth redirects, into scopes. Empty tokens are dropped.
func ParseList(raw string) []Scope {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == '+'
	})
	scopes := make([]Scope, 0, len(fields))
	for _, f := range fields {
		scopes = append(scopes, Parse(f))
	}
	return scopes
}

// Join renders scopes as a space-delimited request parameter.
func Join(scopes []Scope) string {
	names := make([]string, 0, len(scopes))
	for _, s := range scopes {
		names = append(names, s.Name)
	}
	return strings.Join(names, " ")
}

// ContainsPrivileged reports whether any scope in the set requires the
// authorization-code flow.
func ContainsPrivileged(scopes []Scope) bool {
	for _, s := range scopes {
		if s.IsPrivileged() {
			return true
		}
	}
	return false
}
