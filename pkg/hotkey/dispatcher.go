package hotkey

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultQueueSize     = 16
	DefaultActionTimeout = 15 * time.Second
)

// Handler performs the work bound to an action
type Handler func(ctx context.Context) error

// Dispatcher turns key presses from a KeyboardHook into actions. Matching
// happens on the hook's goroutine and never blocks; handlers run one at a
// time on a separate worker.
type Dispatcher struct {
	hook     KeyboardHook
	handlers map[Action]Handler
	timeout  time.Duration
	logger   *zap.SugaredLogger

	enabled atomic.Bool

	mu     sync.RWMutex
	combos map[string]Action

	jobs chan Action

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopErr  error
}

// NewDispatcher creates a dispatcher. Hotkeys start enabled with no bindings
// until Apply is called.
func NewDispatcher(hook KeyboardHook, handlers map[Action]Handler, queueSize int, timeout time.Duration, logger *zap.SugaredLogger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}

	d := &Dispatcher{
		hook:     hook,
		handlers: handlers,
		timeout:  timeout,
		logger:   logger,
		combos:   map[string]Action{},
		jobs:     make(chan Action, queueSize),
	}
	d.enabled.Store(true)

	return d
}

// Start registers the keyboard hook and begins dispatching
func (d *Dispatcher) Start(ctx context.Context) error {
	events, err := d.hook.Start()
	if err != nil {
		return fmt.Errorf("error registering keyboard hook: %w", err)
	}

	ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(2)
	go d.pump(ctx, events)
	go d.work(ctx)

	return nil
}

// Stop releases the keyboard hook and waits for the dispatcher goroutines to
// exit. Only the first call has any effect.
func (d *Dispatcher) Stop() error {
	d.stopOnce.Do(func() {
		if err := d.hook.Stop(); err != nil {
			d.logger.Warnw("error releasing keyboard hook", "error", err)
			d.stopErr = err
		}
		if d.cancel != nil {
			d.cancel()
		}
		d.wg.Wait()
	})

	return d.stopErr
}

// Apply replaces every binding at once. Nothing changes if the bindings are
// invalid.
func (d *Dispatcher) Apply(b Bindings) error {
	canonical, err := b.Canonical()
	if err != nil {
		return err
	}

	combos := make(map[string]Action, len(canonical))
	for action, combo := range canonical {
		combos[combo] = action
	}

	d.mu.Lock()
	d.combos = combos
	d.mu.Unlock()

	d.logger.Infow("hotkeys updated", "bindings", canonical)
	return nil
}

// SetEnabled turns hotkey handling on or off without touching the hook
func (d *Dispatcher) SetEnabled(enabled bool) {
	d.enabled.Store(enabled)
	d.logger.Infow("hotkeys toggled", "enabled", enabled)
}

func (d *Dispatcher) Enabled() bool {
	return d.enabled.Load()
}

// Submit queues an action for the worker. It reports false when the queue is
// full and the action was dropped.
func (d *Dispatcher) Submit(action Action) bool {
	select {
	case d.jobs <- action:
		return true
	default:
		d.logger.Warnw("action dropped, queue is full", "action", action)
		return false
	}
}

func (d *Dispatcher) pump(ctx context.Context, events <-chan KeyEvent) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			d.dispatch(ev)
		}
	}
}

func (d *Dispatcher) dispatch(ev KeyEvent) {
	if ev.Kind != KeyPressed || !d.enabled.Load() {
		return
	}

	combo := Normalize(ev.Code, ev.Mask)

	d.mu.RLock()
	action, ok := d.combos[combo]
	d.mu.RUnlock()

	if !ok {
		return
	}

	d.logger.Debugw("hotkey matched", "combination", combo, "action", action)
	d.Submit(action)
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case action := <-d.jobs:
			d.run(ctx, action)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, action Action) {
	handler, ok := d.handlers[action]
	if !ok {
		d.logger.Warnw("no handler for action", "action", action)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorw("action panicked", "action", action, "panic", r)
		}
	}()

	if err := handler(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		d.logger.Debugw("action failed", "action", action, "error", err)
	}
}
