package webflow

import (
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingOpener accepts every open request and records the URLs.
type recordingOpener struct {
	mu   sync.Mutex
	urls []*url.URL
	ok   bool
}

func (o *recordingOpener) CanOpen(u *url.URL) bool { return true }

func (o *recordingOpener) Open(u *url.URL) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, u)
	return o.ok
}

func TestLoopbackCapturesRedirect(t *testing.T) {
	opener := &recordingOpener{ok: true}
	surface := NewLoopbackSurface(opener)

	authURL, err := url.Parse("https://login.rideplatform.example/oauth/v2/authorize?response_type=code")
	require.NoError(t, err)

	redirects := make(chan *url.URL, 1)
	require.NoError(t, surface.Present(authURL, func(redirect *url.URL) {
		redirects <- redirect
	}))

	callback := surface.RedirectURL()
	require.NotEmpty(t, callback)

	resp, err := http.Get(callback + "?code=one-time&state=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case redirect := <-redirects:
		require.NotNil(t, redirect)
		assert.Equal(t, "one-time", redirect.Query().Get("code"))
		assert.Equal(t, "abc", redirect.Query().Get("state"))
	case <-time.After(2 * time.Second):
		t.Fatal("redirect was not delivered")
	}

	require.Len(t, opener.urls, 1)
	assert.Equal(t, authURL.String(), opener.urls[0].String())
}

func TestLoopbackDismissDeliversNil(t *testing.T) {
	surface := NewLoopbackSurface(&recordingOpener{ok: true})

	authURL, err := url.Parse("https://login.rideplatform.example/oauth/v2/authorize")
	require.NoError(t, err)

	redirects := make(chan *url.URL, 1)
	require.NoError(t, surface.Present(authURL, func(redirect *url.URL) {
		redirects <- redirect
	}))

	surface.Dismiss()

	select {
	case redirect := <-redirects:
		assert.Nil(t, redirect)
	case <-time.After(2 * time.Second):
		t.Fatal("dismissal did not complete the flow")
	}
}

func TestLoopbackPresentFailsWhenBrowserRefuses(t *testing.T) {
	surface := NewLoopbackSurface(&recordingOpener{ok: false})

	authURL, err := url.Parse("https://login.rideplatform.example/oauth/v2/authorize")
	require.NoError(t, err)

	called := false
	err = surface.Present(authURL, func(*url.URL) { called = true })
	require.Error(t, err)
	assert.False(t, called)
}

func TestBrowserOpenerCanOpen(t *testing.T) {
	var b BrowserOpener
	https, _ := url.Parse("https://example.com")
	custom, _ := url.Parse("rideauth://connect")

	assert.True(t, b.CanOpen(https))
	assert.False(t, b.CanOpen(custom))
	assert.False(t, b.Open(custom))
}
