package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/oauth2"
)

type fakeAuth struct {
	valid bool
}

func (f *fakeAuth) EnsureValid(context.Context) bool { return f.valid }

func (f *fakeAuth) Token() (*oauth2.Token, error) {
	if !f.valid {
		return nil, errors.New("no token")
	}
	return &oauth2.Token{AccessToken: "access-1", TokenType: "Bearer"}, nil
}

type recordedCall struct {
	Method string
	Path   string
	Query  string
}

// fakePlayer stands in for the Spotify Web API, recording every call
type fakePlayer struct {
	t *testing.T

	mu        sync.Mutex
	calls     []recordedCall
	stateCode int
	stateBody string
	failCode  int
}

func (p *fakePlayer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(p.t, "Bearer access-1", r.Header.Get("Authorization"))

	p.mu.Lock()
	p.calls = append(p.calls, recordedCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery})
	stateCode, stateBody, failCode := p.stateCode, p.stateBody, p.failCode
	p.mu.Unlock()

	if r.Method == http.MethodGet && r.URL.Path == "/v1/me/player" {
		if stateCode != http.StatusOK {
			w.WriteHeader(stateCode)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(stateBody))
		return
	}

	if failCode != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(failCode)
		w.Write([]byte(`{"error":{"status":404,"message":"Player command failed: No active device found"}}`))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (p *fakePlayer) recorded() []recordedCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedCall(nil), p.calls...)
}

func newTestClient(t *testing.T, authenticated bool) (*Client, *fakePlayer) {
	t.Helper()

	player := &fakePlayer{
		t:         t,
		stateCode: http.StatusOK,
		stateBody: `{"is_playing":true,"device":{"id":"device-1","is_active":true,"name":"Desk"}}`,
	}
	srv := httptest.NewServer(player)
	t.Cleanup(srv.Close)

	c := NewClient(&fakeAuth{valid: authenticated}, srv.URL+"/v1/", 5*time.Second, zaptest.NewLogger(t).Sugar())
	return c, player
}

func TestClient_Skip(t *testing.T) {
	c, player := newTestClient(t, true)
	ctx := context.Background()

	require.NoError(t, c.SkipForward(ctx))
	require.NoError(t, c.SkipBackward(ctx))

	assert.Equal(t, []recordedCall{
		{Method: http.MethodPost, Path: "/v1/me/player/next"},
		{Method: http.MethodPost, Path: "/v1/me/player/previous"},
	}, player.recorded())
}

func TestClient_TogglePlayPause(t *testing.T) {
	tests := []struct {
		name     string
		state    string
		wantPath string
	}{
		{
			name:     "pauses when playing",
			state:    `{"is_playing":true,"device":{"id":"device-1","is_active":true}}`,
			wantPath: "/v1/me/player/pause",
		},
		{
			name:     "plays when paused",
			state:    `{"is_playing":false,"device":{"id":"device-1","is_active":true}}`,
			wantPath: "/v1/me/player/play",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, player := newTestClient(t, true)
			player.stateBody = tt.state

			require.NoError(t, c.TogglePlayPause(context.Background()))

			assert.Equal(t, []recordedCall{
				{Method: http.MethodGet, Path: "/v1/me/player"},
				{Method: http.MethodPut, Path: tt.wantPath},
			}, player.recorded())
		})
	}
}

func TestClient_TogglePlayPause_AbandonedWithoutState(t *testing.T) {
	tests := []struct {
		name      string
		stateCode int
		wantErr   error
	}{
		{name: "state query fails", stateCode: http.StatusInternalServerError},
		{name: "no active device", stateCode: http.StatusNoContent, wantErr: ErrNoActiveDevice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, player := newTestClient(t, true)
			player.stateCode = tt.stateCode

			err := c.TogglePlayPause(context.Background())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				var te *TransportError
				assert.ErrorAs(t, err, &te)
			}

			assert.Equal(t, []recordedCall{
				{Method: http.MethodGet, Path: "/v1/me/player"},
			}, player.recorded(), "no playback call may follow a failed state query")
		})
	}
}

func TestClient_VolumeUpClampsAt100(t *testing.T) {
	c, player := newTestClient(t, true)
	require.Equal(t, 50, c.Volume())

	for i := 0; i < 20; i++ {
		require.NoError(t, c.VolumeUp(context.Background()))
	}

	calls := player.recorded()
	require.Len(t, calls, 20)

	want := []string{"60", "70", "80", "90", "100"}
	for i, call := range calls {
		assert.Equal(t, http.MethodPut, call.Method)
		assert.Equal(t, "/v1/me/player/volume", call.Path)

		expected := "100"
		if i < len(want) {
			expected = want[i]
		}
		assert.Equal(t, "volume_percent="+expected, call.Query, "call %d", i)
	}
	assert.Equal(t, 100, c.Volume())
}

func TestClient_VolumeDownClampsAt0(t *testing.T) {
	c, player := newTestClient(t, true)

	for i := 0; i < 7; i++ {
		require.NoError(t, c.VolumeDown(context.Background()))
	}

	calls := player.recorded()
	require.Len(t, calls, 7)
	assert.Equal(t, "volume_percent=40", calls[0].Query)
	assert.Equal(t, "volume_percent=0", calls[4].Query)
	assert.Equal(t, "volume_percent=0", calls[6].Query)
	assert.Equal(t, 0, c.Volume())
}

func TestClient_NotAuthenticatedMakesNoCalls(t *testing.T) {
	c, player := newTestClient(t, false)
	ctx := context.Background()

	actions := map[string]func(context.Context) error{
		"skip forward":  c.SkipForward,
		"skip backward": c.SkipBackward,
		"play/pause":    c.TogglePlayPause,
		"volume up":     c.VolumeUp,
		"volume down":   c.VolumeDown,
	}
	for name, action := range actions {
		assert.ErrorIs(t, action(ctx), ErrNotAuthenticated, name)
	}

	assert.Empty(t, player.recorded())
	assert.Equal(t, 50, c.Volume())
}

func TestClient_Non2xxIsTransportError(t *testing.T) {
	c, player := newTestClient(t, true)
	player.failCode = http.StatusNotFound

	err := c.SkipForward(context.Background())

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "skip forward", te.Op)
	assert.Equal(t, http.StatusNotFound, te.Status)
}

func TestClient_TimeoutIsTransportError(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(block) })

	c := NewClient(&fakeAuth{valid: true}, srv.URL+"/v1/", 50*time.Millisecond, zaptest.NewLogger(t).Sugar())

	var te *TransportError
	assert.ErrorAs(t, c.SkipForward(context.Background()), &te)
}
