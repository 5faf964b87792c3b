package spotify

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// Spotify issues access tokens for an hour; used when a response omits expires_in
	defaultTokenTTL = time.Hour

	defaultRefreshTimeout = 10 * time.Second
)

// AuthConfig contains the OAuth client registration
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// AuthURL and TokenURL default to the Spotify accounts service
	AuthURL  string
	TokenURL string

	Timeout time.Duration
}

// Authenticator owns the credential lifecycle: authorisation code exchange,
// refresh of expired access tokens and persistence of every change
type Authenticator struct {
	oauth          *oauth2.Config
	tokens         *TokenStore
	httpClient     *http.Client
	logger         *zap.SugaredLogger
	state          string
	refreshTimeout time.Duration
	now            func() time.Time

	// saveMu orders persistence so the file always ends with the latest credential
	saveMu  sync.Mutex
	mu      sync.RWMutex
	cred    Credential
	refresh singleflight.Group
}

var _ oauth2.TokenSource = (*Authenticator)(nil)

// NewAuthenticator creates an authenticator seeded with the stored credential
func NewAuthenticator(cfg AuthConfig, tokens *TokenStore, logger *zap.SugaredLogger) *Authenticator {
	if cfg.AuthURL == "" {
		cfg.AuthURL = spotifyauth.AuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = spotifyauth.TokenURL
	}

	a := &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		tokens:         tokens,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		logger:         logger,
		state:          uuid.NewString(),
		refreshTimeout: cfg.Timeout,
		now:            time.Now,
	}
	if a.refreshTimeout <= 0 {
		a.refreshTimeout = defaultRefreshTimeout
	}
	a.cred = tokens.Load()

	return a
}

// AuthorizationURL returns the URL the user visits to grant access
func (a *Authenticator) AuthorizationURL() string {
	return a.oauth.AuthCodeURL(a.state)
}

// ValidState reports whether state matches the one sent in AuthorizationURL
func (a *Authenticator) ValidState(state string) bool {
	return state == a.state
}

// State returns the current state of the stored credential
func (a *Authenticator) State() AuthState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cred.State(a.now())
}

// IsAuthenticated reports whether an unexpired access token is held
func (a *Authenticator) IsAuthenticated() bool {
	return a.State() == Valid
}

// AccessToken returns the current access token, which may be empty or expired
func (a *Authenticator) AccessToken() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cred.AccessToken
}

// Token implements oauth2.TokenSource over the held credential. It never
// refreshes; callers go through EnsureValid first.
func (a *Authenticator) Token() (*oauth2.Token, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.cred.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}

	return &oauth2.Token{
		AccessToken: a.cred.AccessToken,
		TokenType:   "Bearer",
		Expiry:      a.cred.ExpiresAt,
	}, nil
}

// ExchangeAuthorizationCode swaps a user-obtained authorisation code for a
// token pair. Failures are logged and leave the stored credential untouched.
func (a *Authenticator) ExchangeAuthorizationCode(ctx context.Context, code string) bool {
	if code == "" {
		a.logger.Warnw("refusing to exchange empty authorisation code")
		return false
	}

	tok, err := a.oauth.Exchange(a.clientContext(ctx), code)
	if err != nil {
		a.logger.Warnw("failed to exchange authorisation code", "error", err)
		return false
	}
	if tok.RefreshToken == "" {
		a.logger.Warnw("token response did not include a refresh token")
		return false
	}

	a.store(Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    a.expiry(tok),
	})

	a.logger.Infow("obtained spotify tokens")
	return true
}

// Refresh uses the stored refresh token to obtain a new access token. A
// revoked refresh token (invalid_grant) clears the credential; any other
// failure leaves it as it was. No retries are attempted.
func (a *Authenticator) Refresh(ctx context.Context) bool {
	a.mu.RLock()
	current := a.cred
	a.mu.RUnlock()

	if current.RefreshToken == "" {
		a.logger.Debugw("no refresh token stored")
		return false
	}

	src := a.oauth.TokenSource(a.clientContext(ctx), &oauth2.Token{RefreshToken: current.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_grant" {
			if !a.replace(current, Credential{}) {
				a.logger.Infow("ignoring rejected refresh, credential was replaced meanwhile")
				return a.State() == Valid
			}
			a.logger.Warnw("refresh token was rejected, authorisation required", "error", err)
			return false
		}

		a.logger.Warnw("failed to refresh access token", "error", err)
		return false
	}

	next := Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: current.RefreshToken,
		ExpiresAt:    a.expiry(tok),
	}
	if tok.RefreshToken != "" {
		next.RefreshToken = tok.RefreshToken
	}
	if !a.replace(current, next) {
		a.logger.Infow("discarding refreshed token, credential was replaced meanwhile")
		return a.State() == Valid
	}

	a.logger.Infow("refreshed spotify access token", "expiresAt", next.ExpiresAt)
	return true
}

// EnsureValid returns true when an unexpired access token is available,
// refreshing an expired one first. Concurrent callers share a single refresh
// that runs on its own deadline, detached from any one caller's context.
func (a *Authenticator) EnsureValid(ctx context.Context) bool {
	switch a.State() {
	case Valid:
		return true
	case Unauthenticated:
		return false
	}

	ch := a.refresh.DoChan("refresh", func() (interface{}, error) {
		switch a.State() {
		case Valid:
			return true, nil
		case Unauthenticated:
			return false, nil
		}

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.refreshTimeout)
		defer cancel()
		return a.Refresh(rctx), nil
	})

	select {
	case res := <-ch:
		return res.Val.(bool)
	case <-ctx.Done():
		a.logger.Debugw("gave up waiting for token refresh", "error", ctx.Err())
		return false
	}
}

// store unconditionally installs c, as after a fresh authorisation
func (a *Authenticator) store(c Credential) {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	a.cred = c
	a.mu.Unlock()

	a.persist(c)
}

// replace installs next only if the held credential is still prev. A refresh
// started before a re-authorisation must not overwrite the newer tokens.
func (a *Authenticator) replace(prev, next Credential) bool {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	if a.cred.AccessToken != prev.AccessToken || a.cred.RefreshToken != prev.RefreshToken {
		a.mu.Unlock()
		return false
	}
	a.cred = next
	a.mu.Unlock()

	a.persist(next)
	return true
}

func (a *Authenticator) persist(c Credential) {
	if err := a.tokens.Save(c); err != nil {
		a.logger.Warnw("failed to persist credential", "error", err)
	}
}

func (a *Authenticator) expiry(tok *oauth2.Token) time.Time {
	switch {
	case tok.ExpiresIn > 0:
		return a.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	case !tok.Expiry.IsZero():
		return tok.Expiry
	default:
		return a.now().Add(defaultTokenTTL)
	}
}

func (a *Authenticator) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}
