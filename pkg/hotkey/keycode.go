package hotkey

// EventKind represents the type of keyboard event
type EventKind int

const (
	KeyPressed EventKind = iota
	KeyReleased
	KeyTyped
)

// KeyEvent represents a keyboard event from the platform hook. Code is a
// libuiohook virtual key code, which is the same on every platform.
type KeyEvent struct {
	Kind EventKind
	Code uint16
	Mask uint16
}

// Modifier bits as reported by libuiohook. Lock and mouse-button bits are
// ignored when normalizing.
const (
	MaskShiftL uint16 = 1 << 0
	MaskCtrlL  uint16 = 1 << 1
	MaskMetaL  uint16 = 1 << 2
	MaskAltL   uint16 = 1 << 3
	MaskShiftR uint16 = 1 << 4
	MaskCtrlR  uint16 = 1 << 5
	MaskMetaR  uint16 = 1 << 6
	MaskAltR   uint16 = 1 << 7

	MaskShift = MaskShiftL | MaskShiftR
	MaskCtrl  = MaskCtrlL | MaskCtrlR
	MaskMeta  = MaskMetaL | MaskMetaR
	MaskAlt   = MaskAltL | MaskAltR
)

// Virtual key codes
const (
	VCEscape    uint16 = 0x0001
	VCBackspace uint16 = 0x000E
	VCTab       uint16 = 0x000F
	VCEnter     uint16 = 0x001C
	VCSpace     uint16 = 0x0039

	VCA uint16 = 0x001E
	VCI uint16 = 0x0017
	VCK uint16 = 0x0025
	VCL uint16 = 0x0026
	VCO uint16 = 0x0018
	VCP uint16 = 0x0019

	VCF5 uint16 = 0x003F

	VCControlL uint16 = 0x001D
	VCControlR uint16 = 0x0E1D
	VCAltL     uint16 = 0x0038
	VCAltR     uint16 = 0x0E38
	VCShiftL   uint16 = 0x002A
	VCShiftR   uint16 = 0x0036
	VCMetaL    uint16 = 0x0E5B
	VCMetaR    uint16 = 0x0E5C
)

var keyNames = map[uint16]string{
	0x0001: "ESCAPE",

	0x0002: "1", 0x0003: "2", 0x0004: "3", 0x0005: "4", 0x0006: "5",
	0x0007: "6", 0x0008: "7", 0x0009: "8", 0x000A: "9", 0x000B: "0",

	0x0010: "Q", 0x0011: "W", 0x0012: "E", 0x0013: "R", 0x0014: "T",
	0x0015: "Y", 0x0016: "U", 0x0017: "I", 0x0018: "O", 0x0019: "P",
	0x001E: "A", 0x001F: "S", 0x0020: "D", 0x0021: "F", 0x0022: "G",
	0x0023: "H", 0x0024: "J", 0x0025: "K", 0x0026: "L",
	0x002C: "Z", 0x002D: "X", 0x002E: "C", 0x002F: "V", 0x0030: "B",
	0x0031: "N", 0x0032: "M",

	0x003B: "F1", 0x003C: "F2", 0x003D: "F3", 0x003E: "F4",
	0x003F: "F5", 0x0040: "F6", 0x0041: "F7", 0x0042: "F8",
	0x0043: "F9", 0x0044: "F10", 0x0057: "F11", 0x0058: "F12",

	0x000C: "MINUS",
	0x000D: "EQUALS",
	0x000E: "BACKSPACE",
	0x000F: "TAB",
	0x001A: "OPEN_BRACKET",
	0x001B: "CLOSE_BRACKET",
	0x001C: "ENTER",
	0x0027: "SEMICOLON",
	0x0028: "QUOTE",
	0x0029: "BACK_QUOTE",
	0x002B: "BACK_SLASH",
	0x0033: "COMMA",
	0x0034: "PERIOD",
	0x0035: "SLASH",
	0x0039: "SPACE",
	0x003A: "CAPS_LOCK",

	0x0E52: "INSERT",
	0x0E53: "DELETE",
	0x0E47: "HOME",
	0x0E4F: "END",
	0x0E49: "PAGE_UP",
	0x0E51: "PAGE_DOWN",
	0xE048: "UP",
	0xE050: "DOWN",
	0xE04B: "LEFT",
	0xE04D: "RIGHT",

	// left and right variants share a name
	0x001D: "CTRL", 0x0E1D: "CTRL",
	0x0038: "ALT", 0x0E38: "ALT",
	0x002A: "SHIFT", 0x0036: "SHIFT",
	0x0E5B: "META", 0x0E5C: "META",

	0xE022: "MEDIA_PLAY",
	0xE024: "MEDIA_STOP",
	0xE010: "MEDIA_PREVIOUS",
	0xE019: "MEDIA_NEXT",
	0xE020: "VOLUME_MUTE",
	0xE030: "VOLUME_UP",
	0xE02E: "VOLUME_DOWN",
}

var keyCodes = func() map[string]uint16 {
	codes := make(map[string]uint16, len(keyNames))
	for code, name := range keyNames {
		if existing, ok := codes[name]; !ok || code < existing {
			codes[name] = code
		}
	}
	return codes
}()
