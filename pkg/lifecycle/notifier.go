// Package lifecycle bridges host-application lifecycle events (foreground,
// background, inbound callback URLs) into the authentication components that
// depend on them.
package lifecycle

import "sync"

// Event is an application lifecycle signal forwarded by the host.
type Event string

const (
	EventWillResignActive   Event = "will_resign_active"
	EventDidBecomeActive    Event = "did_become_active"
	EventDidEnterBackground Event = "did_enter_background"
)

// Notifier fans lifecycle events out to subscribers. Handlers are invoked
// synchronously on the publishing goroutine, and may subscribe or cancel
// other subscriptions from within a handler.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[Event]map[int]func()
}

// NewNotifier creates a new lifecycle notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[Event]map[int]func()),
	}
}

// Subscribe registers fn for the given event and returns a cancel function.
// Cancel is idempotent.
func (n *Notifier) Subscribe(event Event, fn func()) (cancel func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	if n.subs[event] == nil {
		n.subs[event] = make(map[int]func())
	}
	n.subs[event][id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs[event], id)
	}
}

// Publish delivers the event to all current subscribers. The subscriber set
// is snapshotted before invocation so handlers can mutate subscriptions.
func (n *Notifier) Publish(event Event) {
	n.mu.Lock()
	handlers := make([]func(), 0, len(n.subs[event]))
	for _, fn := range n.subs[event] {
		handlers = append(handlers, fn)
	}
	n.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}
