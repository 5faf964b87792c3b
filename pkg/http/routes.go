package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DefaultCallbackPath is the path of the default redirect URI
const DefaultCallbackPath = "/callback"

// Authenticator completes the OAuth authorization code flow
type Authenticator interface {
	ValidState(state string) bool
	ExchangeAuthorizationCode(ctx context.Context, code string) bool
}

// Routes is a struct containing an http router and logger
type Routes struct {
	*mux.Router
	auth   Authenticator
	logger *zap.SugaredLogger
}

// NewRoutes returns an http handler with routes configured. The OAuth
// redirect is served on callbackPath.
func NewRoutes(callbackPath string, auth Authenticator, logger *zap.SugaredLogger) http.Handler {
	if callbackPath == "" {
		callbackPath = DefaultCallbackPath
	}

	routes := Routes{
		Router: mux.NewRouter(),
		auth:   auth,
		logger: logger,
	}
	routes.setup(callbackPath)

	return routes
}

func (r *Routes) setup(callbackPath string) {
	r.HandleFunc("/status", r.readinessHandler).Methods("GET")
	r.HandleFunc(callbackPath, r.callbackHandler).Methods("GET")
}

func (r *Routes) readinessHandler(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// callbackHandler receives the redirect from the spotify authorize page and
// exchanges its code for tokens
func (r *Routes) callbackHandler(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()

	if reason := query.Get("error"); reason != "" {
		r.logger.Warnw("authorization was denied", "reason", reason)
		http.Error(w, "Authorization denied: "+reason, http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		r.logger.Warnw("callback is missing the authorization code")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if !r.auth.ValidState(query.Get("state")) {
		r.logger.Warnw("callback state does not match")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if !r.auth.ExchangeAuthorizationCode(req.Context(), code) {
		http.Error(w, "Could not connect to Spotify, please try again", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("<html><body><p>Spotify connected. You can close this window.</p></body></html>"))
}
