package spotify

import (
	"context"
	"net/http"
	"sync"
	"time"

	spotifyapi "github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the Spotify Web API root; it must end with a slash
	DefaultBaseURL = "https://api.spotify.com/v1/"

	defaultVolume = 50
	volumeStep    = 10
)

// Authoriser hands out access tokens, refreshing them when needed
type Authoriser interface {
	oauth2.TokenSource
	EnsureValid(ctx context.Context) bool
}

// playerAPI is the subset of the Web API client used for transport controls
type playerAPI interface {
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Volume(ctx context.Context, percent int) error
	PlayerState(ctx context.Context, opts ...spotifyapi.RequestOption) (*spotifyapi.PlayerState, error)
}

// Client translates playback actions into authorised Spotify API calls.
// Calls made through one Client never overlap.
type Client struct {
	auth   Authoriser
	api    playerAPI
	logger *zap.SugaredLogger

	mu     sync.Mutex
	volume int
}

// NewClient creates a new spotify client. baseURL defaults to DefaultBaseURL
// and every request is bounded by timeout.
func NewClient(auth Authoriser, baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: auth,
			Base:   http.DefaultTransport,
		},
	}

	return &Client{
		auth:   auth,
		api:    spotifyapi.New(httpClient, spotifyapi.WithBaseURL(baseURL)),
		logger: logger,
		volume: defaultVolume,
	}
}

// SkipForward skips to the next track
func (c *Client) SkipForward(ctx context.Context) error {
	return c.call(ctx, "skip forward", c.api.Next)
}

// SkipBackward skips to the previous track
func (c *Client) SkipBackward(ctx context.Context) error {
	return c.call(ctx, "skip backward", c.api.Previous)
}

// TogglePlayPause pauses playback if something is playing and resumes it
// otherwise. When the player state cannot be read the toggle is abandoned.
func (c *Client) TogglePlayPause(ctx context.Context) error {
	if !c.authorised(ctx, "play/pause") {
		return ErrNotAuthenticated
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.api.PlayerState(ctx)
	if err != nil {
		return c.failed(newTransportError("get player state", err))
	}
	if state == nil || state.Device.ID == "" {
		c.logger.Warnw("no active device, abandoning play/pause")
		return ErrNoActiveDevice
	}

	if state.Playing {
		return c.send(ctx, "pause", c.api.Pause)
	}
	return c.send(ctx, "play", c.api.Play)
}

// VolumeUp raises the cached volume by one step and pushes it
func (c *Client) VolumeUp(ctx context.Context) error {
	return c.adjustVolume(ctx, "volume up", volumeStep)
}

// VolumeDown lowers the cached volume by one step and pushes it
func (c *Client) VolumeDown(ctx context.Context) error {
	return c.adjustVolume(ctx, "volume down", -volumeStep)
}

// Volume returns the last volume pushed to the player. It is never read back
// from Spotify, so it drifts if the volume is changed elsewhere.
func (c *Client) Volume() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

func (c *Client) adjustVolume(ctx context.Context, op string, delta int) error {
	if !c.authorised(ctx, op) {
		return ErrNotAuthenticated
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = clamp(c.volume+delta, 0, 100)
	volume := c.volume

	return c.send(ctx, op, func(ctx context.Context) error {
		return c.api.Volume(ctx, volume)
	})
}

func (c *Client) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if !c.authorised(ctx, op) {
		return ErrNotAuthenticated
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.send(ctx, op, fn)
}

// send must be called with c.mu held
func (c *Client) send(ctx context.Context, op string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		return c.failed(newTransportError(op, err))
	}

	c.logger.Debugw("spotify request succeeded", "action", op)
	return nil
}

func (c *Client) authorised(ctx context.Context, op string) bool {
	if c.auth.EnsureValid(ctx) {
		return true
	}

	c.logger.Warnw("no valid token", "action", op)
	return false
}

func (c *Client) failed(err *TransportError) error {
	c.logger.Warnw("spotify request failed", "action", err.Op, "status", err.Status, "error", err.Err)
	return err
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
