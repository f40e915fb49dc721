package credential

import (
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/ride-auth/pkg/autherr"
	"github.com/tendant/ride-auth/pkg/scope"
)

func TestFromRedirectURL_FragmentToken(t *testing.T) {
	redirect, err := url.Parse("rideauth://oauth#access_token=tokenABC&token_type=bearer&expires_in=3600&scope=profile+history")
	require.NoError(t, err)

	cred, err := FromRedirectURL(redirect)
	require.NoError(t, err)
	assert.Equal(t, "tokenABC", cred.TokenString)
	assert.Equal(t, "bearer", cred.TokenType)
	assert.Equal(t, []scope.Scope{scope.Profile, scope.History}, cred.GrantedScopes)
	assert.WithinDuration(t, time.Now().Add(time.Hour), cred.ExpiresAt, 5*time.Second)
}

func TestFromRedirectURL_QueryToken(t *testing.T) {
	redirect, err := url.Parse("rideauth://oauth?access_token=tokenABC&refresh_token=refreshXYZ")
	require.NoError(t, err)

	cred, err := FromRedirectURL(redirect)
	require.NoError(t, err)
	assert.Equal(t, "tokenABC", cred.TokenString)
	assert.Equal(t, "refreshXYZ", cred.RefreshToken)
	assert.True(t, cred.ExpiresAt.IsZero())
	assert.False(t, cred.Expired())
}

func TestFromRedirectURL_ErrorParameter(t *testing.T) {
	tests := []struct {
		code string
		want autherr.Kind
	}{
		{"access_denied", autherr.KindUserCancelled},
		{"invalid_scope", autherr.KindInvalidScope},
		{"server_error", autherr.KindServerError},
		{"temporarily_unavailable", autherr.KindTemporarilyUnavailable},
		{"bogus_code", autherr.KindInvalidRequest},
	}

	for _, tt := range tests {
		redirect, err := url.Parse("rideauth://oauth?error=" + tt.code)
		require.NoError(t, err)

		cred, err := FromRedirectURL(redirect)
		assert.Nil(t, cred)
		kind, ok := autherr.KindOf(err)
		require.True(t, ok, "code=%q", tt.code)
		assert.Equal(t, tt.want, kind, "code=%q", tt.code)
	}
}

func TestFromRedirectURL_Unparseable(t *testing.T) {
	redirect, err := url.Parse("rideauth://oauth?foo=bar")
	require.NoError(t, err)

	cred, err := FromRedirectURL(redirect)
	assert.Nil(t, cred)
	assert.True(t, autherr.Is(err, autherr.KindInvalidResponse))

	cred, err = FromRedirectURL(nil)
	assert.Nil(t, cred)
	assert.True(t, autherr.Is(err, autherr.KindInvalidResponse))
}

func TestFromJSON(t *testing.T) {
	body := []byte(`{"access_token":"tokenABC","refresh_token":"refreshXYZ","token_type":"Bearer","expires_in":120,"scope":"profile request"}`)

	cred, err := FromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, "tokenABC", cred.TokenString)
	assert.Equal(t, "refreshXYZ", cred.RefreshToken)
	assert.Equal(t, "Bearer", cred.TokenType)
	assert.Equal(t, []scope.Scope{scope.Profile, scope.Request}, cred.GrantedScopes)
	assert.WithinDuration(t, time.Now().Add(2*time.Minute), cred.ExpiresAt, 5*time.Second)
}

func TestFromJSON_StringExpiresIn(t *testing.T) {
	cred, err := FromJSON([]byte(`{"access_token":"tokenABC","expires_in":"60"}`))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), cred.ExpiresAt, 5*time.Second)
}

func TestFromJSON_ErrorBody(t *testing.T) {
	cred, err := FromJSON([]byte(`{"error":"temporarily_unavailable"}`))
	assert.Nil(t, cred)
	assert.True(t, autherr.Is(err, autherr.KindTemporarilyUnavailable))
}

func TestFromJSON_Malformed(t *testing.T) {
	cred, err := FromJSON([]byte(`not json`))
	assert.Nil(t, cred)
	assert.True(t, autherr.Is(err, autherr.KindInvalidResponse))

	cred, err = FromJSON([]byte(`{}`))
	assert.Nil(t, cred)
	assert.True(t, autherr.Is(err, autherr.KindInvalidResponse))
}

func TestEnrichExpiry_FromJWT(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "rider",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	redirect, err := url.Parse("rideauth://oauth#access_token=" + signed)
	require.NoError(t, err)

	cred, err := FromRedirectURL(redirect)
	require.NoError(t, err)
	assert.True(t, cred.ExpiresAt.Equal(exp), "expiry derived from the exp claim")
}
