package webflow

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/tendant/ride-auth/pkg/deeplink"
)

// LoopbackSurface serves the redirect URI on a loopback listener and opens
// the authorization page in the system browser. It implements Surface for
// hosts without an embeddable web view.
type LoopbackSurface struct {
	opener       deeplink.URLOpener
	callbackPath string
	listenAddr   string
	logger       *slog.Logger

	mu       sync.Mutex
	once     *sync.Once
	complete func(*url.URL)
	server   *http.Server
	addr     string
}

// LoopbackOption configures a LoopbackSurface.
type LoopbackOption func(*LoopbackSurface)

// WithCallbackPath overrides the path the redirect URI must use.
func WithCallbackPath(path string) LoopbackOption {
	return func(s *LoopbackSurface) {
		s.callbackPath = path
	}
}

// WithListenAddr pins the listener to a fixed address so the redirect URI
// can be registered with the authorization server ahead of time. Defaults to
// an ephemeral loopback port.
func WithListenAddr(addr string) LoopbackOption {
	return func(s *LoopbackSurface) {
		s.listenAddr = addr
	}
}

// WithLoopbackLogger overrides the surface's logger.
func WithLoopbackLogger(logger *slog.Logger) LoopbackOption {
	return func(s *LoopbackSurface) {
		s.logger = logger
	}
}

// NewLoopbackSurface creates a surface that opens pages through opener.
func NewLoopbackSurface(opener deeplink.URLOpener, opts ...LoopbackOption) *LoopbackSurface {
	s := &LoopbackSurface{
		opener:       opener,
		callbackPath: "/callback",
		listenAddr:   "127.0.0.1:0",
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RedirectURL returns the loopback redirect URI once Present has bound the
// listener. Register this URL (or a fixed-port equivalent) with the
// authorization server.
func (s *LoopbackSurface) RedirectURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr == "" {
		return ""
	}
	return fmt.Sprintf("http://%s%s", s.addr, s.callbackPath)
}

// Present binds a loopback listener, opens the authorization URL in the
// browser, and fires the completion with the first redirect that arrives.
func (s *LoopbackSurface) Present(authURL *url.URL, completion func(redirect *url.URL)) error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to bind loopback listener: %w", err)
	}

	once := &sync.Once{}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(s.callbackPath, func(w http.ResponseWriter, req *http.Request) {
		redirect := *req.URL
		redirect.Scheme = "http"
		redirect.Host = req.Host
		render.PlainText(w, req, "Login complete. You can return to the application.")
		s.deliver(once, &redirect)
	})

	server := &http.Server{Handler: r}

	s.mu.Lock()
	s.once = once
	s.complete = completion
	s.server = server
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Loopback surface failed", "err", err)
			s.deliver(once, nil)
		}
	}()

	s.logger.Debug("Presenting authorization page", "url", authURL.Redacted(), "listen", ln.Addr().String())
	if !s.opener.Open(authURL) {
		// The completion never fires when Present fails.
		s.mu.Lock()
		s.once = nil
		s.complete = nil
		s.server = nil
		s.addr = ""
		s.mu.Unlock()
		s.shutdown(server)
		return fmt.Errorf("failed to open browser for %s", authURL.Redacted())
	}
	return nil
}

// Dismiss stops the listener. A pending flow completes with nil.
func (s *LoopbackSurface) Dismiss() {
	s.mu.Lock()
	once := s.once
	server := s.server
	s.mu.Unlock()

	if server != nil {
		s.shutdown(server)
	}
	if once != nil {
		s.deliver(once, nil)
	}
}

func (s *LoopbackSurface) deliver(once *sync.Once, redirect *url.URL) {
	once.Do(func() {
		s.mu.Lock()
		complete := s.complete
		server := s.server
		s.complete = nil
		s.server = nil
		s.once = nil
		s.addr = ""
		s.mu.Unlock()

		if server != nil {
			s.shutdown(server)
		}
		if complete != nil {
			complete(redirect)
		}
	})
}

// shutdown stops the server without blocking the caller, which may be the
// handler goroutine the server is waiting on.
func (s *LoopbackSurface) shutdown(server *http.Server) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()
}
