package spotify

import (
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

// AuthState describes whether API calls can currently be authorised
type AuthState int

const (
	// Unauthenticated means there is no usable access token
	Unauthenticated AuthState = iota
	// Valid means the access token has not expired yet
	Valid
	// Expired means the access token must be refreshed before use
	Expired
)

func (s AuthState) String() string {
	switch s {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	default:
		return "unauthenticated"
	}
}

// Credential contains the token pair and the instant the access token expires
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// State reports the credential's state at the given instant
func (c Credential) State(now time.Time) AuthState {
	if c.AccessToken == "" {
		return Unauthenticated
	}
	if now.Before(c.ExpiresAt) {
		return Valid
	}
	return Expired
}

// settings keys holding the encrypted credential
const (
	accessTokenKey  = "spotify.access_token"
	refreshTokenKey = "spotify.refresh_token"
	expiresAtKey    = "spotify.token_expires_at"
)

// Scopes requested during authorisation
var Scopes = []string{
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
}
