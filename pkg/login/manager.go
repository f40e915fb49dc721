// Package login orchestrates one authentication attempt: it selects a
// strategy, drives native app-switch attempts with web fallbacks, routes
// inbound callback URLs, and resolves exactly one completion per attempt.
package login

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/tendant/ride-auth/pkg/authenticator"
	"github.com/tendant/ride-auth/pkg/autherr"
	"github.com/tendant/ride-auth/pkg/config"
	"github.com/tendant/ride-auth/pkg/credential"
	"github.com/tendant/ride-auth/pkg/deeplink"
	"github.com/tendant/ride-auth/pkg/dispatch"
	"github.com/tendant/ride-auth/pkg/lifecycle"
	"github.com/tendant/ride-auth/pkg/oauth"
	"github.com/tendant/ride-auth/pkg/scope"
	"github.com/tendant/ride-auth/pkg/webflow"
)

// State names the orchestrator's position in an attempt.
type State int

const (
	StateIdle State = iota
	StateSelectingStrategy
	StateAwaitingNativeResponse
	StateAwaitingWebResponse
	StateFallbackPending
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelectingStrategy:
		return "selecting_strategy"
	case StateAwaitingNativeResponse:
		return "awaiting_native_response"
	case StateAwaitingWebResponse:
		return "awaiting_web_response"
	case StateFallbackPending:
		return "fallback_pending"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Completion receives the terminal outcome of a login attempt.
type Completion func(*credential.Credential, error)

// webAuthenticator is the slice of a strategy the web surface path needs.
type webAuthenticator interface {
	authenticator.Authenticator
	AuthorizationURL() (*url.URL, error)
}

// Manager runs login attempts. One attempt may span several native deeplink
// tries and a web fallback, but its completion fires exactly once.
type Manager struct {
	cfg       *config.Config
	creds     *credential.Manager
	delegate  *lifecycle.Delegate
	executor  *deeplink.Executor
	exchanger oauth.Exchanger
	pusher    oauth.AuthorizationPusher
	logger    *slog.Logger

	key         credential.Key
	defaultKind authenticator.Kind

	mu            sync.Mutex
	state         State
	kind          authenticator.Kind
	active        authenticator.Authenticator
	completion    Completion
	scopes        []scope.Scope
	prefill       *oauth.Prefill
	surface       webflow.Surface
	requestURI    string
	inProgress    bool
	sawForeground bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithKind sets the strategy the manager starts attempts with. Defaults to
// the native flow.
func WithKind(k authenticator.Kind) Option {
	return func(m *Manager) {
		m.defaultKind = k
	}
}

// WithCredentialKey sets the key credentials are persisted under.
func WithCredentialKey(key credential.Key) Option {
	return func(m *Manager) {
		m.key = key
	}
}

// WithExchanger sets the code exchanger for the authorization-code flow.
// Without one the code is left to the host's backend and the completion
// fires with neither credential nor error.
func WithExchanger(ex oauth.Exchanger) Option {
	return func(m *Manager) {
		m.exchanger = ex
	}
}

// WithAuthorizationPusher enables pushed authorization requests carrying
// the prefill values.
func WithAuthorizationPusher(p oauth.AuthorizationPusher) Option {
	return func(m *Manager) {
		m.pusher = p
	}
}

// WithLogger overrides the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a login manager. The delegate routes callback URLs and
// lifecycle events into it while an attempt is in progress; the executor
// performs the native app switches.
func NewManager(cfg *config.Config, creds *credential.Manager, delegate *lifecycle.Delegate, executor *deeplink.Executor, opts ...Option) *Manager {
	m := &Manager{
		cfg:         cfg,
		creds:       creds,
		delegate:    delegate,
		executor:    executor,
		logger:      slog.Default(),
		key:         credential.Key{Identifier: credential.DefaultIdentifier},
		defaultKind: authenticator.KindNative,
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current attempt state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Credential returns the persisted credential, if any.
func (m *Manager) Credential() (*credential.Credential, bool) {
	return m.creds.Fetch(m.key)
}

// Logout deletes the persisted credential together with its session cookies.
func (m *Manager) Logout() error {
	return m.creds.Delete(m.key)
}

// Login starts an attempt for the given scopes. The surface presents web
// flows and may be nil when only the native flow is acceptable. A non-empty
// prefill is pushed to the authorization server for web flows. The
// completion fires exactly once, from an arbitrary goroutine.
func (m *Manager) Login(scopes []scope.Scope, surface webflow.Surface, prefill *oauth.Prefill, completion Completion) {
	if completion == nil {
		completion = func(*credential.Credential, error) {}
	}
	if err := m.cfg.Validate(); err != nil {
		completion(nil, err)
		return
	}

	m.mu.Lock()
	if m.inProgress {
		m.mu.Unlock()
		completion(nil, autherr.New(autherr.KindInvalidRequest, "a login attempt is already in progress"))
		return
	}
	m.inProgress = true
	m.sawForeground = false
	m.state = StateSelectingStrategy
	m.kind = m.defaultKind
	m.scopes = scopes
	m.prefill = prefill
	m.surface = surface
	m.completion = completion
	m.requestURI = ""
	m.active = nil
	kind := m.kind
	m.mu.Unlock()

	m.delegate.SetActiveManager(m)
	m.logger.Info("Starting login attempt", "kind", kind.String(), "scopes", scope.Join(scopes))
	m.startAuthorization(kind)
}

// startAuthorization launches the strategy for kind, pre-pushing the
// authorization request when the flow and prefill call for it.
func (m *Manager) startAuthorization(kind authenticator.Kind) {
	m.mu.Lock()
	m.kind = kind
	m.state = StateSelectingStrategy
	prefill := m.prefill
	requestURI := m.requestURI
	m.mu.Unlock()

	needsPush := kind != authenticator.KindNative &&
		prefill != nil && !prefill.IsEmpty() &&
		m.pusher != nil && requestURI == ""
	if !needsPush {
		m.launch(kind)
		return
	}

	go func() {
		ru, err := m.pusher.PushedAuthorization(context.Background(), *prefill)
		if err != nil {
			// Prefill is best effort. The attempt proceeds without it.
			m.logger.Warn("Pushed authorization failed, continuing without prefill", "err", err)
		} else {
			m.mu.Lock()
			m.requestURI = ru.Value
			m.mu.Unlock()
		}
		m.launch(kind)
	}()
}

func (m *Manager) launch(kind authenticator.Kind) {
	switch kind {
	case authenticator.KindNative:
		m.launchNative()
	case authenticator.KindAuthorizationCode, authenticator.KindImplicit:
		m.launchWeb(kind)
	default:
		m.resolve(nil, autherr.New(autherr.KindInvalidRequest, "unknown authorization strategy"))
	}
}

// launchNative tries each configured app in priority order. The first app
// that takes the switch owns the attempt; every other outcome, including a
// dismissed "open in app?" prompt, advances the walk and ends in the
// fallback policy.
func (m *Manager) launchNative() {
	params, err := m.paramsFor(config.CallbackNative)
	if err != nil {
		m.resolve(nil, err)
		return
	}

	natives := make([]*authenticator.Native, 0, len(m.cfg.Apps))
	for _, app := range m.cfg.Apps {
		natives = append(natives, authenticator.NewNative(app, params))
	}

	var handedOff bool
	dispatch.Sequential(natives,
		func(n *authenticator.Native) {
			m.mu.Lock()
			m.active = n
			m.state = StateAwaitingNativeResponse
			m.mu.Unlock()
			n.Begin()
		},
		func(n *authenticator.Native, done func(error)) {
			target, err := n.Target()
			if err != nil {
				done(err)
				return
			}
			m.executor.Execute(target, done)
		},
		func(err error) bool {
			if err == nil {
				handedOff = true
				return false
			}
			m.mu.Lock()
			settled := !m.inProgress
			m.mu.Unlock()
			if settled {
				// A callback URL or a cancellation already resolved the
				// attempt while this deeplink outcome was pending.
				handedOff = true
				return false
			}
			m.logger.Debug("Native attempt failed, trying next app", "err", err)
			return true
		},
		func() {
			if handedOff {
				// The external app owns the attempt now. The credential
				// arrives on the callback URL, or the foreground pattern
				// resolves a cancellation.
				return
			}
			m.applyFallback()
		},
	)
}

func (m *Manager) launchWeb(kind authenticator.Kind) {
	m.mu.Lock()
	surface := m.surface
	m.mu.Unlock()
	if surface == nil {
		m.resolve(nil, autherr.New(autherr.KindUnableToPresentLogin, "no web surface available for "+kind.String()))
		return
	}

	callbackType := config.CallbackAuthorizationCode
	if kind == authenticator.KindImplicit {
		callbackType = config.CallbackImplicit
	}
	params, err := m.paramsFor(callbackType)
	if err != nil {
		m.resolve(nil, err)
		return
	}

	var auth webAuthenticator
	if kind == authenticator.KindAuthorizationCode {
		auth = authenticator.NewAuthorizationCode(params, m.exchanger)
	} else {
		auth = authenticator.NewImplicit(params)
	}

	authURL, err := auth.AuthorizationURL()
	if err != nil {
		m.resolve(nil, err)
		return
	}

	m.mu.Lock()
	m.active = auth
	m.state = StateAwaitingWebResponse
	m.mu.Unlock()
	auth.Begin()

	err = surface.Present(authURL, func(redirect *url.URL) {
		if redirect == nil {
			m.resolve(nil, autherr.New(autherr.KindUserCancelled, "login page dismissed"))
			return
		}
		auth.ConsumeResponse(redirect, m.resolve)
	})
	if err != nil {
		m.resolve(nil, autherr.Wrap(autherr.KindUnableToPresentLogin, "failed to present login page", err))
	}
}

// applyFallback selects the follow-up strategy after every native target has
// been exhausted.
func (m *Manager) applyFallback() {
	m.mu.Lock()
	m.state = StateFallbackPending
	scopes := m.scopes
	m.mu.Unlock()

	switch {
	case m.cfg.AlwaysUseAuthorizationCodeFallback:
		m.logger.Info("Falling back to the authorization-code flow")
		m.startAuthorization(authenticator.KindAuthorizationCode)
	case scope.ContainsPrivileged(scopes):
		if m.cfg.UseFallback {
			m.logger.Info("Privileged scopes requested, falling back to the authorization-code flow")
			m.startAuthorization(authenticator.KindAuthorizationCode)
			return
		}
		m.promptInstall()
	default:
		m.logger.Info("Falling back to the implicit flow")
		m.startAuthorization(authenticator.KindImplicit)
	}
}

// promptInstall sends the user to the app store for the highest-priority
// app. Privileged scopes cannot be granted without it.
func (m *Manager) promptInstall() {
	unable := autherr.New(autherr.KindUnableToPresentLogin, "privileged scopes require the app to be installed")
	if len(m.cfg.Apps) == 0 {
		m.resolve(nil, unable)
		return
	}
	target, err := deeplink.AppStoreTarget(m.cfg.Apps[0], m.cfg.ClientID, m.cfg.UserAgent())
	if err != nil {
		m.resolve(nil, unable)
		return
	}
	m.executor.Execute(target, func(error) {
		m.resolve(nil, unable)
	})
}

// HandleCallbackURL routes an inbound callback URL to the active strategy.
// It returns false while idle, when the source does not fit the active
// strategy, or when the strategy has already resolved.
func (m *Manager) HandleCallbackURL(u *url.URL, sourceID string) bool {
	m.mu.Lock()
	active := m.active
	kind := m.kind
	inProgress := m.inProgress
	m.mu.Unlock()

	if !inProgress || active == nil {
		return false
	}
	if !m.sourceMatches(kind, sourceID) {
		m.logger.Debug("Callback URL from unexpected source ignored", "source", sourceID, "kind", kind.String())
		return false
	}
	return active.ConsumeResponse(u, m.resolve)
}

// sourceMatches checks the callback's origin against the active strategy:
// native callbacks must come from a configured app, web callbacks from a
// known browser. Hosts that cannot report a source pass an empty string.
func (m *Manager) sourceMatches(kind authenticator.Kind, sourceID string) bool {
	if sourceID == "" {
		return true
	}
	if kind == authenticator.KindNative {
		_, ok := m.cfg.AppForSource(sourceID)
		return ok
	}
	return m.cfg.IsWebSource(sourceID)
}

// ApplicationWillEnterForeground records a pending foreground transition.
// Only transitions observed during an attempt count.
func (m *Manager) ApplicationWillEnterForeground() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inProgress {
		m.sawForeground = true
	}
}

// ApplicationDidBecomeActive resolves an abandoned native attempt. Returning
// to the foreground without a callback URL means the user backed out of the
// external app.
func (m *Manager) ApplicationDidBecomeActive() {
	m.mu.Lock()
	abandoned := m.inProgress && m.sawForeground && m.kind == authenticator.KindNative
	m.sawForeground = false
	m.mu.Unlock()

	if abandoned {
		m.resolve(nil, autherr.New(autherr.KindUserCancelled, "returned to the app without completing login"))
	}
}

// resolve fires the attempt's completion exactly once. In-progress state is
// cleared before the completion runs so re-entrant calls observe an idle
// manager.
func (m *Manager) resolve(cred *credential.Credential, err error) {
	m.mu.Lock()
	completion := m.completion
	if completion == nil {
		m.mu.Unlock()
		return
	}
	m.completion = nil
	surface := m.surface
	m.surface = nil
	m.active = nil
	m.prefill = nil
	m.requestURI = ""
	m.inProgress = false
	m.sawForeground = false
	m.state = StateResolved
	m.mu.Unlock()

	m.delegate.ClearActiveManager(m)
	if surface != nil {
		surface.Dismiss()
	}

	if err == nil && cred != nil {
		if saveErr := m.creds.Save(*cred, m.key); saveErr != nil {
			cred = nil
			err = autherr.Wrap(autherr.KindUnableToSaveCredential, "credential could not be persisted", saveErr)
		}
	}

	if err != nil {
		m.logger.Info("Login attempt resolved", "err", err)
	} else {
		m.logger.Info("Login attempt resolved")
	}
	completion(cred, err)

	// Settle back to idle unless the completion already started a new
	// attempt, whose state must not be clobbered.
	m.mu.Lock()
	if m.state == StateResolved {
		m.state = StateIdle
	}
	m.mu.Unlock()
}

// paramsFor assembles the strategy parameters for a flow type.
func (m *Manager) paramsFor(t config.CallbackType) (authenticator.Params, error) {
	callback, err := m.cfg.CallbackURIFor(t)
	if err != nil {
		return authenticator.Params{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return authenticator.Params{
		ClientID:       m.cfg.ClientID,
		AppDisplayName: m.cfg.AppDisplayName,
		CallbackURI:    callback,
		BaseLoginURL:   m.cfg.BaseLoginURL,
		SDKVersion:     m.cfg.SDKVersion,
		RequestURI:     m.requestURI,
		Scopes:         m.scopes,
	}, nil
}
