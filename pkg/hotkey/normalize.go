package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// Normalize renders a key press as its canonical combination, e.g.
// "Ctrl+Alt+P". Modifiers always appear in the order Ctrl, Alt, Shift, Meta
// and left/right variants are not distinguished.
func Normalize(code, mask uint16) string {
	var b strings.Builder

	if mask&MaskCtrl != 0 {
		b.WriteString("Ctrl+")
	}
	if mask&MaskAlt != 0 {
		b.WriteString("Alt+")
	}
	if mask&MaskShift != 0 {
		b.WriteString("Shift+")
	}
	if mask&MaskMeta != 0 {
		b.WriteString("Meta+")
	}
	b.WriteString(KeyName(code))

	return b.String()
}

// KeyName returns the textual name of a key code. Unmapped codes get a
// best-effort hexadecimal name so that lookups miss instead of failing.
func KeyName(code uint16) string {
	if name, ok := keyNames[code]; ok {
		return name
	}
	return fmt.Sprintf("KEY_0x%04X", code)
}

var modifierNames = map[string]uint16{
	"ctrl":    MaskCtrl,
	"control": MaskCtrl,
	"ctl":     MaskCtrl,
	"alt":     MaskAlt,
	"option":  MaskAlt,
	"opt":     MaskAlt,
	"shift":   MaskShift,
	"meta":    MaskMeta,
	"cmd":     MaskMeta,
	"command": MaskMeta,
	"super":   MaskMeta,
	"win":     MaskMeta,
}

var keyAliases = map[string]string{
	"ESC":       "ESCAPE",
	"RETURN":    "ENTER",
	"DEL":       "DELETE",
	"INS":       "INSERT",
	"PGUP":      "PAGE_UP",
	"PAGEUP":    "PAGE_UP",
	"PGDN":      "PAGE_DOWN",
	"PAGEDOWN":  "PAGE_DOWN",
	"BKSP":      "BACKSPACE",
	"SPACEBAR":  "SPACE",
	"PAGE-UP":   "PAGE_UP",
	"PAGE-DOWN": "PAGE_DOWN",
}

var errNoKey = errors.New("combination has no key")

// Canonicalize parses a user-entered combination such as "alt + ctrl + p" and
// returns the form Normalize produces for the same press ("Ctrl+Alt+P")
func Canonicalize(combo string) (string, error) {
	var (
		mask  uint16
		code  uint16
		found bool
	)

	for _, part := range strings.Split(combo, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			return "", fmt.Errorf("empty component in %q", combo)
		}

		if m, ok := modifierNames[strings.ToLower(part)]; ok {
			mask |= m
			continue
		}

		if found {
			return "", fmt.Errorf("%q names more than one key", combo)
		}

		name := strings.ToUpper(part)
		if alias, ok := keyAliases[name]; ok {
			name = alias
		}
		c, ok := keyCodes[name]
		if !ok {
			return "", fmt.Errorf("unknown key %q", part)
		}
		code, found = c, true
	}

	if !found {
		return "", errNoKey
	}

	return Normalize(code, mask), nil
}
