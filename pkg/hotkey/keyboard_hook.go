package hotkey

// KeyboardHook is the interface for system-wide keyboard hooks
type KeyboardHook interface {
	// Start begins capturing keyboard events
	// Returns a channel that receives KeyEvents
	Start() (<-chan KeyEvent, error)

	// Stop terminates the keyboard hook
	Stop() error
}
