package deeplink

import (
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/tendant/ride-auth/pkg/lifecycle"
)

// DefaultSettleDelay is how long the executor waits after the application
// becomes active again before concluding the external app never responded.
// Long enough for a real context switch to background the app, short enough
// that a dismissed "open in app?" prompt fails fast.
const DefaultSettleDelay = 250 * time.Millisecond

// URLOpener asks the host OS to open URLs.
type URLOpener interface {
	// CanOpen reports whether the OS could attempt to open the URL.
	CanOpen(u *url.URL) bool

	// Open asks the OS to open the URL and reports whether the request was
	// accepted.
	Open(u *url.URL) bool
}

// Executor opens deeplink targets and observes application lifecycle signals
// to infer the outcome of the app switch.
type Executor struct {
	opener        URLOpener
	notifier      *lifecycle.Notifier
	settleDelay   time.Duration
	legacySignals bool
	logger        *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithSettleDelay overrides the settle timer duration.
func WithSettleDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.settleDelay = d
		}
	}
}

// WithLegacySignals disables the lifecycle heuristic for hosts that cannot
// deliver reliable resign/active/background signals. Outcomes then depend
// solely on whether the OS accepted the open request.
func WithLegacySignals() ExecutorOption {
	return func(e *Executor) {
		e.legacySignals = true
	}
}

// WithLogger overrides the executor's logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an executor opening URLs through opener and observing
// lifecycle signals on notifier.
func NewExecutor(opener URLOpener, notifier *lifecycle.Notifier, opts ...ExecutorOption) *Executor {
	e := &Executor{
		opener:      opener,
		notifier:    notifier,
		settleDelay: DefaultSettleDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute opens the target, trying fallback scheme variants when the primary
// URL cannot be opened, and invokes completion exactly once with the outcome.
// A nil outcome means the external application took over (or the host
// backgrounded for unrelated reasons); the actual result arrives later as a
// callback URL. ErrNotFollowed is never retried against fallback URLs: it
// means the user explicitly declined the switch.
func (e *Executor) Execute(target *Target, completion func(error)) {
	urls := append([]*url.URL{target.URL()}, target.FallbackURLs()...)

	var next func(i int)
	next = func(i int) {
		e.attempt(urls[i], func(err error) {
			if err != nil && !errors.Is(err, ErrNotFollowed) && i+1 < len(urls) {
				e.logger.Debug("Deeplink attempt failed, trying fallback URL", "url", urls[i].Redacted(), "err", err)
				next(i + 1)
				return
			}
			completion(err)
		})
	}
	next(0)
}

func (e *Executor) attempt(u *url.URL, done func(error)) {
	if e.legacySignals {
		if !e.opener.CanOpen(u) {
			done(ErrUnableToOpen)
			return
		}
		if !e.opener.Open(u) {
			done(ErrUnableToFollow)
			return
		}
		done(nil)
		return
	}

	a := &switchAttempt{
		settleDelay: e.settleDelay,
		done:        done,
		logger:      e.logger,
	}
	// Observers must be registered before the open: the resign signal can
	// arrive before Open returns.
	a.cancels = []func(){
		e.notifier.Subscribe(lifecycle.EventWillResignActive, a.handleResign),
		e.notifier.Subscribe(lifecycle.EventDidBecomeActive, a.handleActive),
		e.notifier.Subscribe(lifecycle.EventDidEnterBackground, a.handleBackground),
	}

	if !e.opener.CanOpen(u) {
		a.finish(ErrUnableToOpen)
		return
	}
	if !e.opener.Open(u) {
		a.finish(ErrUnableToFollow)
		return
	}
	e.logger.Debug("Deeplink opened, awaiting lifecycle signals", "url", u.Redacted())
}

// switchAttempt tracks one open request through the lifecycle heuristic:
//
//	resign            → awaiting external response
//	active (awaiting) → verifying; start settle timer
//	resign (verifying)→ external app handled it; resolve nil
//	background        → host backgrounding is not our concern; resolve nil
//	timer elapses     → the prompt was dismissed; resolve ErrNotFollowed
type switchAttempt struct {
	settleDelay time.Duration
	done        func(error)
	logger      *slog.Logger

	mu        sync.Mutex
	resolved  bool
	awaiting  bool
	verifying bool
	timer     *time.Timer
	cancels   []func()
}

func (a *switchAttempt) handleResign() {
	a.mu.Lock()
	if a.resolved {
		a.mu.Unlock()
		return
	}
	if !a.awaiting {
		a.awaiting = true
		a.mu.Unlock()
		return
	}
	verifying := a.verifying
	a.mu.Unlock()

	if verifying {
		// Bounced straight back out again: the external app is handling the
		// request. Defer to the URL callback.
		a.finish(nil)
	}
}

func (a *switchAttempt) handleActive() {
	a.mu.Lock()
	if a.resolved || !a.awaiting || a.verifying {
		a.mu.Unlock()
		return
	}
	a.verifying = true
	a.timer = time.AfterFunc(a.settleDelay, func() {
		a.finish(ErrNotFollowed)
	})
	a.mu.Unlock()
}

func (a *switchAttempt) handleBackground() {
	a.finish(nil)
}

func (a *switchAttempt) finish(err error) {
	a.mu.Lock()
	if a.resolved {
		a.mu.Unlock()
		return
	}
	a.resolved = true
	if a.timer != nil {
		a.timer.Stop()
	}
	cancels := a.cancels
	a.cancels = nil
	a.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	if err != nil {
		a.logger.Debug("Deeplink attempt resolved", "err", err)
	}
	a.done(err)
}
