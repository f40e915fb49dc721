package oauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/ride-auth/pkg/autherr"
)

func TestClient_Exchange(t *testing.T) {
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/oauth/v2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"grant_type":    r.PostForm.Get("grant_type"),
			"client_id":     r.PostForm.Get("client_id"),
			"code":          r.PostForm.Get("code"),
			"redirect_uri":  r.PostForm.Get("redirect_uri"),
			"code_verifier": r.PostForm.Get("code_verifier"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tokenABC","refresh_token":"refreshXYZ","expires_in":3600,"scope":"profile"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "client123", "rideauth://oauth")
	cred, err := client.Exchange(context.Background(), "code456", "verifier789")
	require.NoError(t, err)

	assert.Equal(t, "tokenABC", cred.TokenString)
	assert.Equal(t, "refreshXYZ", cred.RefreshToken)
	assert.Equal(t, map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     "client123",
		"code":          "code456",
		"redirect_uri":  "rideauth://oauth",
		"code_verifier": "verifier789",
	}, gotForm)
}

func TestClient_ExchangeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "client123", "rideauth://oauth")
	cred, err := client.Exchange(context.Background(), "code456", "")
	assert.Nil(t, cred)
	assert.True(t, autherr.Is(err, autherr.KindServerError))
}

func TestClient_ExchangeOAuthErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_scope"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "client123", "rideauth://oauth")
	_, err := client.Exchange(context.Background(), "code456", "")
	assert.True(t, autherr.Is(err, autherr.KindInvalidScope))
}

func TestClient_ExchangeMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "client123", "rideauth://oauth")
	_, err := client.Exchange(context.Background(), "code456", "")
	assert.True(t, autherr.Is(err, autherr.KindInvalidResponse))
}

func TestClient_ExchangeNetworkError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "client123", "rideauth://oauth",
		WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))
	_, err := client.Exchange(context.Background(), "code456", "")
	assert.True(t, autherr.Is(err, autherr.KindNetworkError))
}

func TestClient_Refresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/v2/mobile/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refreshXYZ", r.PostForm.Get("refresh_token"))
		w.Write([]byte(`{"access_token":"fresh","expires_in":60}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "client123", "rideauth://oauth")
	cred, err := client.Refresh(context.Background(), "refreshXYZ")
	require.NoError(t, err)
	assert.Equal(t, "fresh", cred.TokenString)

	_, err = client.Refresh(context.Background(), "")
	assert.True(t, autherr.Is(err, autherr.KindInvalidRequest))
}

func TestClient_PushedAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/v2/par", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "code", r.PostForm.Get("response_type"))

		raw, err := base64.StdEncoding.DecodeString(r.PostForm.Get("login_hint"))
		require.NoError(t, err)
		var hints map[string]string
		require.NoError(t, json.Unmarshal(raw, &hints))
		assert.Equal(t, map[string]string{"email": "a@b.com", "first_name": "Sam"}, hints)

		w.Write([]byte(`{"request_uri":"urn:ride:req:1","expires_in":90}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "client123", "rideauth://oauth")
	requestURI, err := client.PushedAuthorization(context.Background(), Prefill{Email: "a@b.com", FirstName: "Sam"})
	require.NoError(t, err)
	assert.Equal(t, "urn:ride:req:1", requestURI.Value)
	assert.Equal(t, 90*time.Second, requestURI.ExpiresIn)
}

func TestClient_PushedAuthorizationMissingRequestURI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "client123", "rideauth://oauth")
	_, err := client.PushedAuthorization(context.Background(), Prefill{Email: "a@b.com"})
	assert.True(t, autherr.Is(err, autherr.KindInvalidResponse))
}

func TestPrefill_IsEmpty(t *testing.T) {
	assert.True(t, Prefill{}.IsEmpty())
	assert.False(t, Prefill{Email: "a@b.com"}.IsEmpty())
	assert.False(t, Prefill{LastName: "Lee"}.IsEmpty())
}
