package oauth

// Prefill carries optional user contact hints attached to a login attempt.
// When any field is non-empty, a pre-authorization request binds the hints to
// a short-lived request URI included in the subsequent authorization request.
type Prefill struct {
	Email       string
	PhoneNumber string
	FirstName   string
	LastName    string
}

// IsEmpty reports whether the prefill carries no hints at all. An empty
// prefill must not produce any network call.
func (p Prefill) IsEmpty() bool {
	return p.Email == "" && p.PhoneNumber == "" && p.FirstName == "" && p.LastName == ""
}

// values returns the populated hints keyed by their wire names.
func (p Prefill) values() map[string]string {
	out := make(map[string]string, 4)
	if p.Email != "" {
		out["email"] = p.Email
	}
	if p.PhoneNumber != "" {
		out["phone"] = p.PhoneNumber
	}
	if p.FirstName != "" {
		out["first_name"] = p.FirstName
	}
	if p.LastName != "" {
		out["last_name"] = p.LastName
	}
	return out
}
