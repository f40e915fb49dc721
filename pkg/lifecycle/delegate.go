package lifecycle

import (
	"log/slog"
	"net/url"
	"sync"
)

// LoginManaging is the slice of the login orchestrator the delegate routes
// events into. The orchestrator registers itself at login start and is
// cleared at terminal resolution.
type LoginManaging interface {
	// HandleCallbackURL routes an OS-delivered callback URL. It returns true
	// when the URL belonged to the active login flow.
	HandleCallbackURL(u *url.URL, sourceID string) bool

	// ApplicationWillEnterForeground records a pending foreground transition.
	ApplicationWillEnterForeground()

	// ApplicationDidBecomeActive detects an abandoned native login.
	ApplicationDidBecomeActive()
}

// Delegate mirrors the host application's lifecycle delegate. The host calls
// the corresponding method from each of its own lifecycle hooks; the delegate
// forwards URL and foreground events to the active login manager and
// publishes resign/active/background signals on the notifier for the
// deeplink executor.
type Delegate struct {
	notifier *Notifier

	mu      sync.Mutex
	manager LoginManaging
}

// NewDelegate creates a delegate publishing on notifier.
func NewDelegate(notifier *Notifier) *Delegate {
	return &Delegate{notifier: notifier}
}

// Notifier returns the lifecycle notifier events are published on.
func (d *Delegate) Notifier() *Notifier {
	return d.notifier
}

// SetActiveManager registers the login manager that inbound events should be
// routed to. Passing nil clears the registration.
func (d *Delegate) SetActiveManager(m LoginManaging) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.manager = m
}

// ClearActiveManager clears the registration only if m is still the active
// manager, so a stale flow cannot unregister its successor.
func (d *Delegate) ClearActiveManager(m LoginManaging) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.manager == m {
		d.manager = nil
	}
}

func (d *Delegate) activeManager() LoginManaging {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.manager
}

// OpenURL routes an OS-delivered callback URL to the active login manager.
// It returns true if the URL was meant for the SDK, false if the host should
// handle it itself.
func (d *Delegate) OpenURL(u *url.URL, sourceID string) bool {
	manager := d.activeManager()
	if manager == nil {
		return false
	}
	handled := manager.HandleCallbackURL(u, sourceID)
	if handled {
		slog.Debug("Callback URL handled", "source", sourceID)
		d.ClearActiveManager(manager)
	}
	return handled
}

// WillEnterForeground forwards the will-enter-foreground event.
func (d *Delegate) WillEnterForeground() {
	if manager := d.activeManager(); manager != nil {
		manager.ApplicationWillEnterForeground()
	}
}

// DidBecomeActive publishes the did-become-active signal and forwards it to
// the active manager for abandoned-login detection.
func (d *Delegate) DidBecomeActive() {
	d.notifier.Publish(EventDidBecomeActive)
	if manager := d.activeManager(); manager != nil {
		manager.ApplicationDidBecomeActive()
	}
}

// WillResignActive publishes the will-resign-active signal.
func (d *Delegate) WillResignActive() {
	d.notifier.Publish(EventWillResignActive)
}

// DidEnterBackground publishes the did-enter-background signal.
func (d *Delegate) DidEnterBackground() {
	d.notifier.Publish(EventDidEnterBackground)
}
