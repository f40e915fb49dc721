package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	evbus "github.com/asaskevich/EventBus"
	"github.com/joho/godotenv"
	"github.com/tendant/ride-auth/pkg/authenticator"
	"github.com/tendant/ride-auth/pkg/config"
	"github.com/tendant/ride-auth/pkg/credential"
	"github.com/tendant/ride-auth/pkg/deeplink"
	"github.com/tendant/ride-auth/pkg/lifecycle"
	"github.com/tendant/ride-auth/pkg/login"
	"github.com/tendant/ride-auth/pkg/oauth"
	"github.com/tendant/ride-auth/pkg/scope"
	"github.com/tendant/ride-auth/pkg/webflow"
)

const demoListenAddr = "127.0.0.1:8911"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	// Optional .env in the working directory for local runs.
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(-1)
	}
	if cfg.CallbackURIAuthorizationCode == "" {
		cfg.CallbackURIAuthorizationCode = "http://" + demoListenAddr + "/callback"
	}
	if cfg.CallbackURI == "" {
		cfg.CallbackURI = cfg.CallbackURIAuthorizationCode
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(-1)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		slog.Error("Failed to locate config directory", "error", err)
		os.Exit(-1)
	}
	store, err := credential.NewFileStore(filepath.Join(configDir, "ride-auth"))
	if err != nil {
		slog.Error("Failed to open credential store", "error", err)
		os.Exit(-1)
	}

	bus := evbus.New()
	if err := bus.Subscribe(credential.TopicCredentialSaved, func(key credential.Key) {
		slog.Info("Credential saved", "identifier", key.Identifier)
	}); err != nil {
		slog.Error("Failed to subscribe to credential notifications", "error", err)
		os.Exit(-1)
	}
	creds := credential.NewManager(store, credential.WithBus(bus))

	if existing, ok := creds.Fetch(credential.Key{Identifier: credential.DefaultIdentifier}); ok && !existing.Expired() {
		slog.Info("Already logged in", "token_type", existing.TokenType, "scopes", scope.Join(existing.GrantedScopes))
		return
	}

	notifier := lifecycle.NewNotifier()
	delegate := lifecycle.NewDelegate(notifier)
	opener := webflow.BrowserOpener{}
	// A desktop host cannot observe app-switch lifecycle signals, so deeplink
	// outcomes rest on whether the OS accepted the open request. The settle
	// delay still comes from configuration for hosts that forward signals.
	executor := deeplink.NewExecutor(opener, notifier,
		deeplink.WithSettleDelay(cfg.SettleDuration()),
		deeplink.WithLegacySignals(),
	)

	client := oauth.NewClient(cfg.BaseLoginURL, cfg.ClientID, cfg.CallbackURIAuthorizationCode)
	manager := login.NewManager(cfg, creds, delegate, executor,
		login.WithKind(authenticator.KindAuthorizationCode),
		login.WithExchanger(client),
		login.WithAuthorizationPusher(client),
	)
	surface := webflow.NewLoopbackSurface(opener, webflow.WithListenAddr(demoListenAddr))

	scopes := scope.ParseList(os.Getenv("RIDE_AUTH_SCOPES"))
	if len(scopes) == 0 {
		scopes = []scope.Scope{scope.Profile, scope.History}
	}
	var prefill *oauth.Prefill
	if email := os.Getenv("RIDE_AUTH_PREFILL_EMAIL"); email != "" {
		prefill = &oauth.Prefill{Email: email}
	}

	done := make(chan struct{})
	slog.Info("Starting login", "scopes", scope.Join(scopes), "redirect", cfg.CallbackURIAuthorizationCode)
	manager.Login(scopes, surface, prefill, func(cred *credential.Credential, err error) {
		defer close(done)
		if err != nil {
			slog.Error("Login failed", "error", err)
			return
		}
		slog.Info("Login succeeded",
			"token_type", cred.TokenType,
			"scopes", scope.Join(cred.GrantedScopes),
			"expires_at", cred.ExpiresAt)
	})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	select {
	case <-done:
	case <-interrupt:
		slog.Info("Interrupted, dismissing login")
		surface.Dismiss()
		<-done
	}
}
