package credential

// Key names the storage slot for a credential. At most one credential is
// ever stored per key; saving overwrites.
type Key struct {
	// Identifier distinguishes credentials within an access group, e.g.
	// "RideAuthAccessTokenKey".
	Identifier string

	// AccessGroup scopes the identifier, mirroring platform shared-storage
	// groups. May be empty for the default group.
	AccessGroup string
}

// DefaultIdentifier is the identifier used when the caller does not choose
// one.
const DefaultIdentifier = "RideAuthAccessTokenKey"

// Store is the persistence contract for credentials. Implementations must be
// safe for concurrent use; writes under the same key are last-write-wins.
type Store interface {
	// Save persists the credential under key, overwriting any previous value.
	Save(cred Credential, key Key) error

	// Fetch returns the credential stored under key, or false when none is
	// stored.
	Fetch(key Key) (*Credential, bool)

	// Delete removes the credential stored under key. Deleting an absent key
	// is not an error.
	Delete(key Key) error
}
