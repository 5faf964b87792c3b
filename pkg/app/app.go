package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rhysemmas/modulatify/pkg/config"
	"github.com/rhysemmas/modulatify/pkg/hotkey"
	"github.com/rhysemmas/modulatify/pkg/http"
	"github.com/rhysemmas/modulatify/pkg/secret"
	"github.com/rhysemmas/modulatify/pkg/settings"
	"github.com/rhysemmas/modulatify/pkg/spotify"
)

const (
	enabledKey      = "hotkeys.enabled"
	shutdownTimeout = 5 * time.Second
)

// Option customises how an App is assembled
type Option func(*options)

type options struct {
	hook     hotkey.KeyboardHook
	authURL  string
	tokenURL string
}

// WithKeyboardHook replaces the system-wide keyboard hook
func WithKeyboardHook(h hotkey.KeyboardHook) Option {
	return func(o *options) { o.hook = h }
}

// WithAccountsURLs points the OAuth flow at a different accounts service
func WithAccountsURLs(authURL, tokenURL string) Option {
	return func(o *options) {
		o.authURL = authURL
		o.tokenURL = tokenURL
	}
}

// App wires persisted settings, the Spotify credential and client, the
// hotkey dispatcher and the OAuth callback server together. Its exported
// methods are what the tray menu calls.
type App struct {
	cfg    *config.Config
	logger *zap.SugaredLogger

	settings   *settings.Store
	auth       *spotify.Authenticator
	client     *spotify.Client
	dispatcher *hotkey.Dispatcher
	server     *http.Server
	stopServer func(context.Context)

	errorCh chan error

	mu       sync.Mutex
	bindings hotkey.Bindings

	shutdownOnce sync.Once
	shutdownErr  error
}

// New assembles an App from cfg. Nothing is started until Start or Run.
func New(cfg *config.Config, logger *zap.SugaredLogger, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.hook == nil {
		o.hook = hotkey.NewSystemHook(logger)
	}

	callbackPath, err := cfg.CallbackPath()
	if err != nil {
		return nil, err
	}

	cipher, err := secret.Open(cfg.KeyPath())
	if err != nil {
		return nil, fmt.Errorf("error opening encryption key: %w", err)
	}

	store := settings.New(cfg.SettingsPath(), logger)
	if err := store.Load(); err != nil {
		logger.Warnw("using default settings", "error", err)
	}

	tokens := spotify.NewTokenStore(store, cipher, logger)
	auth := spotify.NewAuthenticator(spotify.AuthConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		AuthURL:      o.authURL,
		TokenURL:     o.tokenURL,
		Timeout:      cfg.Timeout,
	}, tokens, logger)
	client := spotify.NewClient(auth, cfg.APIURL, cfg.Timeout, logger)

	handlers := map[hotkey.Action]hotkey.Handler{
		hotkey.SkipForward:  client.SkipForward,
		hotkey.SkipBackward: client.SkipBackward,
		hotkey.PlayPause:    client.TogglePlayPause,
		hotkey.VolumeUp:     client.VolumeUp,
		hotkey.VolumeDown:   client.VolumeDown,
	}
	dispatcher := hotkey.NewDispatcher(o.hook, handlers, hotkey.DefaultQueueSize, 2*cfg.Timeout, logger)

	a := &App{
		cfg:        cfg,
		logger:     logger,
		settings:   store,
		auth:       auth,
		client:     client,
		dispatcher: dispatcher,
		errorCh:    make(chan error, 1),
	}
	a.server = http.NewServer(cfg.Addr, http.NewRoutes(callbackPath, auth, logger), logger)

	a.loadHotkeys()

	return a, nil
}

func (a *App) loadHotkeys() {
	bindings, err := hotkey.LoadBindings(a.settings)
	if err != nil {
		var cfgErr *hotkey.ConfigurationError
		if !errors.As(err, &cfgErr) {
			a.logger.Warnw("error loading hotkeys", "error", err)
		} else {
			a.logger.Warnw("stored hotkeys are invalid, using defaults", "error", cfgErr)
		}
		bindings = hotkey.DefaultBindings()
	}

	if err := a.dispatcher.Apply(bindings); err != nil {
		a.logger.Errorw("error applying hotkeys", "error", err)
	}
	a.bindings = bindings

	enabled := true
	if v, ok := a.settings.Get(enabledKey); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			enabled = b
		}
	}
	a.dispatcher.SetEnabled(enabled)
}

// Start registers the keyboard hook and starts the callback server. The
// callback server failing to bind is logged, not fatal: hotkeys still work
// with a stored credential.
func (a *App) Start(ctx context.Context) error {
	if err := a.dispatcher.Start(ctx); err != nil {
		return err
	}

	shutdown, err := a.server.Start(a.errorCh)
	if err != nil {
		a.logger.Warnw("callback server unavailable, connecting to spotify will not work", "address", a.cfg.Addr, "error", err)
		shutdown = func(context.Context) {}
	}
	a.stopServer = shutdown

	a.logger.Infow("modulatify started",
		"authenticated", a.auth.IsAuthenticated(),
		"hotkeys_enabled", a.dispatcher.Enabled(),
	)
	return nil
}

// Run starts the app and blocks until ctx is cancelled or the callback
// server fails, then shuts down
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		a.logger.Infow("shutdown requested")
	case err := <-a.errorCh:
		a.logger.Warnw("callback server stopped", "error", err)
	}

	return a.Shutdown()
}

// Shutdown releases the keyboard hook, stops the callback server and saves
// settings. Only the first call has any effect.
func (a *App) Shutdown() error {
	a.shutdownOnce.Do(func() {
		var errs []error

		if err := a.dispatcher.Stop(); err != nil {
			errs = append(errs, err)
		}

		if a.stopServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			a.stopServer(ctx)
			cancel()
		}

		if err := a.settings.Persist(); err != nil {
			a.logger.Warnw("error saving settings", "error", err)
			errs = append(errs, err)
		}

		a.shutdownErr = errors.Join(errs...)
		a.logger.Infow("modulatify stopped")
	})

	return a.shutdownErr
}

func (a *App) IsAuthenticated() bool {
	return a.auth.IsAuthenticated()
}

// AuthState describes the credential for display
func (a *App) AuthState() spotify.AuthState {
	return a.auth.State()
}

func (a *App) AuthorizationURL() string {
	return a.auth.AuthorizationURL()
}

// ExchangeCodeForTokens completes authorisation with a code pasted or
// received out of band. It blocks on the token endpoint for up to the HTTP
// timeout, so UI code should use ExchangeCodeForTokensAsync instead.
func (a *App) ExchangeCodeForTokens(ctx context.Context, code string) bool {
	return a.auth.ExchangeAuthorizationCode(ctx, code)
}

// ExchangeCodeForTokensAsync runs the exchange in the background and returns
// immediately. The result is delivered once on the returned channel.
func (a *App) ExchangeCodeForTokensAsync(ctx context.Context, code string) <-chan bool {
	result := make(chan bool, 1)
	go func() {
		result <- a.auth.ExchangeAuthorizationCode(ctx, code)
	}()
	return result
}

// The playback actions only queue work and return immediately. They report
// false when the action was dropped.

func (a *App) SkipForward() bool  { return a.dispatcher.Submit(hotkey.SkipForward) }
func (a *App) SkipBackward() bool { return a.dispatcher.Submit(hotkey.SkipBackward) }
func (a *App) PlayPause() bool    { return a.dispatcher.Submit(hotkey.PlayPause) }
func (a *App) VolumeUp() bool     { return a.dispatcher.Submit(hotkey.VolumeUp) }
func (a *App) VolumeDown() bool   { return a.dispatcher.Submit(hotkey.VolumeDown) }

func (a *App) HotkeysEnabled() bool {
	return a.dispatcher.Enabled()
}

// SetHotkeysEnabled turns hotkeys on or off and remembers the choice
func (a *App) SetHotkeysEnabled(enabled bool) error {
	a.dispatcher.SetEnabled(enabled)
	a.settings.Set(enabledKey, strconv.FormatBool(enabled))

	if err := a.settings.Persist(); err != nil {
		return fmt.Errorf("error saving hotkey state: %w", err)
	}
	return nil
}

// Hotkeys returns the bindings currently in effect
func (a *App) Hotkeys() hotkey.Bindings {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(hotkey.Bindings, len(a.bindings))
	for k, v := range a.bindings {
		out[k] = v
	}
	return out
}

// UpdateHotkeys replaces all bindings at once. Invalid bindings are rejected
// with a *hotkey.ConfigurationError and nothing changes.
func (a *App) UpdateHotkeys(b hotkey.Bindings) error {
	canonical, err := b.Canonical()
	if err != nil {
		return err
	}

	if err := a.dispatcher.Apply(canonical); err != nil {
		return err
	}

	a.mu.Lock()
	a.bindings = canonical
	a.mu.Unlock()

	return hotkey.SaveBindings(a.settings, canonical)
}
