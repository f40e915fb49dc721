package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_KnownScopes(t *testing.T) {
	tests := []struct {
		raw  string
		want Scope
	}{
		{"profile", Profile},
		{"history", History},
		{"history_lite", HistoryLite},
		{"places", Places},
		{"ride_widgets", RideWidgets},
		{"all_trips", AllTrips},
		{"request", Request},
		{"request_receipt", RequestReceipt},
		{"  Profile ", Profile},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Parse(tt.raw), "raw=%q", tt.raw)
	}
}

func TestParse_UnknownScopeIsCustom(t *testing.T) {
	s := Parse("partner_dispatch")
	assert.Equal(t, "partner_dispatch", s.Name)
	assert.Equal(t, KindCustom, s.Kind)
	assert.True(t, s.IsPrivileged(), "custom scopes are privileged by default")
}

func TestParseList_SpaceAndPlusDelimited(t *testing.T) {
	assert.Equal(t, []Scope{Profile, History}, ParseList("profile history"))
	assert.Equal(t, []Scope{Profile, History}, ParseList("profile+history"))
	assert.Equal(t, []Scope{Profile, History}, ParseList(" profile++history "))
	assert.Empty(t, ParseList(""))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "profile request", Join([]Scope{Profile, Request}))
	assert.Equal(t, "", Join(nil))
}

func TestContainsPrivileged(t *testing.T) {
	assert.False(t, ContainsPrivileged([]Scope{Profile, History}))
	assert.True(t, ContainsPrivileged([]Scope{Profile, Request}))
	assert.True(t, ContainsPrivileged([]Scope{Parse("something_new")}))
	assert.False(t, ContainsPrivileged(nil))
}
