package hotkey

import (
	"fmt"

	"github.com/rhysemmas/modulatify/pkg/settings"
)

// Action identifies one of the fixed playback commands a hotkey can trigger
type Action string

const (
	SkipForward  Action = "skip_forward"
	SkipBackward Action = "skip_backward"
	PlayPause    Action = "play_pause"
	VolumeUp     Action = "volume_up"
	VolumeDown   Action = "volume_down"
)

// Actions lists every action in a stable order
var Actions = []Action{SkipForward, SkipBackward, PlayPause, VolumeUp, VolumeDown}

func (a Action) settingsKey() string {
	return "hotkey." + string(a)
}

func (a Action) valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// ConfigurationError is returned when a set of bindings cannot be applied
type ConfigurationError struct {
	Action      Action
	Combination string
	Reason      string
}

// Error returns the error string for ConfigurationError
func (e *ConfigurationError) Error() string {
	if e.Combination == "" {
		return fmt.Sprintf("hotkey %s: %s", e.Action, e.Reason)
	}
	return fmt.Sprintf("hotkey %s (%q): %s", e.Action, e.Combination, e.Reason)
}

// Bindings maps every action to its key combination
type Bindings map[Action]string

// DefaultBindings returns the bindings used when nothing has been configured
func DefaultBindings() Bindings {
	b := make(Bindings, len(Actions))
	for _, a := range Actions {
		b[a] = settings.Defaults[a.settingsKey()]
	}
	return b
}

// Canonical validates the bindings and returns a copy with every combination
// in canonical form. Every action must be bound exactly once, to a parseable
// combination no other action uses.
func (b Bindings) Canonical() (Bindings, error) {
	for a := range b {
		if !a.valid() {
			return nil, &ConfigurationError{Action: a, Reason: "unknown action"}
		}
	}

	out := make(Bindings, len(Actions))
	owners := make(map[string]Action, len(Actions))

	for _, a := range Actions {
		combo, ok := b[a]
		if !ok || combo == "" {
			return nil, &ConfigurationError{Action: a, Reason: "no combination bound"}
		}

		canonical, err := Canonicalize(combo)
		if err != nil {
			return nil, &ConfigurationError{Action: a, Combination: combo, Reason: err.Error()}
		}

		if owner, taken := owners[canonical]; taken {
			return nil, &ConfigurationError{
				Action:      a,
				Combination: combo,
				Reason:      fmt.Sprintf("already bound to %s", owner),
			}
		}

		owners[canonical] = a
		out[a] = canonical
	}

	return out, nil
}

// Validate reports whether the bindings could be applied
func (b Bindings) Validate() error {
	_, err := b.Canonical()
	return err
}

// LoadBindings reads and validates the bindings stored in kv
func LoadBindings(kv settings.KV) (Bindings, error) {
	b := make(Bindings, len(Actions))
	for _, a := range Actions {
		if combo, ok := kv.Get(a.settingsKey()); ok {
			b[a] = combo
		}
	}
	return b.Canonical()
}

// SaveBindings validates b and, only if every binding is acceptable, writes
// all of them to kv and persists it
func SaveBindings(kv settings.KV, b Bindings) error {
	canonical, err := b.Canonical()
	if err != nil {
		return err
	}

	for _, a := range Actions {
		kv.Set(a.settingsKey(), canonical[a])
	}

	if err := kv.Persist(); err != nil {
		return fmt.Errorf("error saving hotkeys: %w", err)
	}
	return nil
}
