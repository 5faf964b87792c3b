package spotify

import (
	"errors"
	"fmt"

	spotifyapi "github.com/zmb3/spotify/v2"
)

var (
	// ErrNotAuthenticated is returned by actions when no valid access token
	// could be obtained
	ErrNotAuthenticated = errors.New("spotify: not authenticated")

	// ErrNoActiveDevice is returned when the player state does not report a
	// device to control
	ErrNoActiveDevice = errors.New("spotify: no active device")
)

// TransportError is used when a call to the Spotify API fails on the network
// or returns a non-2xx status
type TransportError struct {
	Op     string
	Status int
	Err    error
}

// Error returns the error string for TransportError
func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("spotify %s: got http error code %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("spotify %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newTransportError(op string, err error) *TransportError {
	te := &TransportError{Op: op, Err: err}

	var apiErr spotifyapi.Error
	if errors.As(err, &apiErr) {
		te.Status = apiErr.Status
	}

	return te
}
