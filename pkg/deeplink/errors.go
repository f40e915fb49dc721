package deeplink

import "errors"

var (
	// ErrNotFollowed is returned when the app-switch prompt was shown but the
	// external application never took over because the user declined it.
	ErrNotFollowed = errors.New("deeplink not followed")

	// ErrUnableToFollow is returned when the OS accepted the URL but failed
	// to open it.
	ErrUnableToFollow = errors.New("unable to follow deeplink")

	// ErrUnableToOpen is returned when the OS cannot even attempt to open the
	// URL, typically because no installed application registers the scheme.
	ErrUnableToOpen = errors.New("unable to open deeplink")
)
