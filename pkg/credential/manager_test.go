package credential

import (
	"testing"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/ride-auth/pkg/scope"
)

type fakeClearer struct {
	domains []string
}

func (f *fakeClearer) ClearCookies(domain string) {
	f.domains = append(f.domains, domain)
}

func testKey() Key {
	return Key{Identifier: DefaultIdentifier, AccessGroup: "group.test"}
}

func testCredential() Credential {
	return Credential{
		TokenString:   "tokenABC",
		RefreshToken:  "refreshXYZ",
		TokenType:     "Bearer",
		ExpiresAt:     time.Now().Add(time.Hour).Truncate(time.Second),
		GrantedScopes: []scope.Scope{scope.Profile, scope.History},
	}
}

func TestManager_SaveFetchRoundTrip(t *testing.T) {
	mgr := NewManager(NewInMemStore())
	key := testKey()
	cred := testCredential()

	require.NoError(t, mgr.Save(cred, key))

	got, ok := mgr.Fetch(key)
	require.True(t, ok)
	assert.Equal(t, cred.TokenString, got.TokenString)
	assert.Equal(t, cred.RefreshToken, got.RefreshToken)
	assert.Equal(t, cred.TokenType, got.TokenType)
	assert.True(t, cred.ExpiresAt.Equal(got.ExpiresAt))
	assert.Equal(t, cred.GrantedScopes, got.GrantedScopes)
}

func TestManager_SaveOverwrites(t *testing.T) {
	mgr := NewManager(NewInMemStore())
	key := testKey()

	require.NoError(t, mgr.Save(Credential{TokenString: "first"}, key))
	require.NoError(t, mgr.Save(Credential{TokenString: "second"}, key))

	got, ok := mgr.Fetch(key)
	require.True(t, ok)
	assert.Equal(t, "second", got.TokenString)
}

func TestManager_DeleteThenFetchReturnsNothing(t *testing.T) {
	mgr := NewManager(NewInMemStore())
	key := testKey()

	require.NoError(t, mgr.Save(testCredential(), key))
	require.NoError(t, mgr.Delete(key))

	got, ok := mgr.Fetch(key)
	assert.Nil(t, got)
	assert.False(t, ok)

	// Deleting an absent key is not an error.
	assert.NoError(t, mgr.Delete(key))
}

func TestManager_Notifications(t *testing.T) {
	bus := evbus.New()
	mgr := NewManager(NewInMemStore(), WithBus(bus))
	key := testKey()

	var saved, deleted []Key
	require.NoError(t, bus.Subscribe(TopicCredentialSaved, func(k Key) {
		saved = append(saved, k)
	}))
	require.NoError(t, bus.Subscribe(TopicCredentialDeleted, func(k Key) {
		deleted = append(deleted, k)
	}))

	require.NoError(t, mgr.Save(testCredential(), key))
	require.NoError(t, mgr.Delete(key))

	assert.Equal(t, []Key{key}, saved)
	assert.Equal(t, []Key{key}, deleted)
}

func TestManager_DeleteClearsCookies(t *testing.T) {
	clearer := &fakeClearer{}
	mgr := NewManager(NewInMemStore(), WithCookieClearer(clearer, "login.rideplatform.example"))
	key := testKey()

	require.NoError(t, mgr.Save(testCredential(), key))
	require.NoError(t, mgr.Delete(key))

	assert.Equal(t, []string{"login.rideplatform.example"}, clearer.domains)
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	key := testKey()
	cred := testCredential()

	require.NoError(t, store.Save(cred, key))

	got, ok := store.Fetch(key)
	require.True(t, ok)
	assert.Equal(t, cred.TokenString, got.TokenString)
	assert.Equal(t, cred.GrantedScopes, got.GrantedScopes)

	require.NoError(t, store.Delete(key))
	_, ok = store.Fetch(key)
	assert.False(t, ok)
}

func TestFileStore_KeysAreIndependent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	keyA := Key{Identifier: "a", AccessGroup: "group"}
	keyB := Key{Identifier: "b", AccessGroup: "group"}

	require.NoError(t, store.Save(Credential{TokenString: "A"}, keyA))
	require.NoError(t, store.Save(Credential{TokenString: "B"}, keyB))
	require.NoError(t, store.Delete(keyA))

	got, ok := store.Fetch(keyB)
	require.True(t, ok)
	assert.Equal(t, "B", got.TokenString)
}
