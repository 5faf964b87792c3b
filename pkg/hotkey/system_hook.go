package hotkey

import (
	"errors"
	"fmt"
	"sync"

	hook "github.com/robotn/gohook"
	"go.uber.org/zap"
)

const eventBuffer = 100

var _ KeyboardHook = (*SystemHook)(nil)

// SystemHook implements KeyboardHook on top of libuiohook via gohook. It sees
// every key event of the desktop session, not only those sent to this process.
type SystemHook struct {
	logger *zap.SugaredLogger

	mu      sync.Mutex
	running bool
	done    chan struct{}
	exited  chan struct{}
}

// NewSystemHook creates a new, unstarted system keyboard hook
func NewSystemHook(logger *zap.SugaredLogger) *SystemHook {
	return &SystemHook{logger: logger}
}

// Start registers the native hook and forwards keyboard events. Forwarding
// never blocks the native event pump: events are dropped when the buffer is
// full.
func (h *SystemHook) Start() (<-chan KeyEvent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil, errors.New("keyboard hook already started")
	}

	source := hook.Start()
	events := make(chan KeyEvent, eventBuffer)
	h.done = make(chan struct{})
	h.exited = make(chan struct{})
	h.running = true

	go h.forward(source, events, h.done, h.exited)

	h.logger.Infow("global keyboard hook registered")
	return events, nil
}

// Stop unregisters the native hook. It is safe to call more than once.
func (h *SystemHook) Stop() (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}
	h.running = false

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("error releasing keyboard hook: %v", r)
		}
	}()

	close(h.done)
	hook.End()
	<-h.exited

	h.logger.Infow("global keyboard hook unregistered")
	return nil
}

func (h *SystemHook) forward(source chan hook.Event, out chan<- KeyEvent, done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)
	defer close(out)

	for {
		select {
		case <-done:
			return
		case ev, ok := <-source:
			if !ok {
				return
			}

			kind, ok := eventKind(ev.Kind)
			if !ok {
				continue
			}

			select {
			case out <- KeyEvent{Kind: kind, Code: ev.Keycode, Mask: ev.Mask}:
			default:
				h.logger.Warnw("keyboard event dropped, consumer is not keeping up", "keycode", ev.Keycode)
			}
		}
	}
}

// gohook reports physical presses as KeyHold; KeyDown carries typed characters
func eventKind(kind uint8) (EventKind, bool) {
	switch kind {
	case hook.KeyHold:
		return KeyPressed, true
	case hook.KeyUp:
		return KeyReleased, true
	case hook.KeyDown:
		return KeyTyped, true
	default:
		return 0, false
	}
}
