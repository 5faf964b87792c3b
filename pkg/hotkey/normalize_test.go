package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		code uint16
		mask uint16
		want string
	}{
		{"bare key", VCP, 0, "P"},
		{"ctrl alt", VCP, MaskCtrlL | MaskAltL, "Ctrl+Alt+P"},
		{"all modifiers", VCA, MaskMetaL | MaskShiftL | MaskAltL | MaskCtrlL, "Ctrl+Alt+Shift+Meta+A"},
		{"right hand modifiers", VCO, MaskCtrlR | MaskAltR, "Ctrl+Alt+O"},
		{"mixed sides", VCL, MaskCtrlL | MaskCtrlR | MaskAltR, "Ctrl+Alt+L"},
		{"function key", VCF5, MaskShiftR, "Shift+F5"},
		{"lock bits ignored", VCK, MaskCtrlL | 1<<9 | 1<<13, "Ctrl+K"},
		{"space", VCSpace, MaskMetaR, "Meta+SPACE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.code, tt.mask))
		})
	}
}

func TestNormalize_LeftRightEquivalent(t *testing.T) {
	pairs := [][2]uint16{
		{MaskCtrlL, MaskCtrlR},
		{MaskAltL, MaskAltR},
		{MaskShiftL, MaskShiftR},
		{MaskMetaL, MaskMetaR},
	}

	for _, p := range pairs {
		assert.Equal(t, Normalize(VCP, p[0]), Normalize(VCP, p[1]))
	}

	assert.Equal(t, KeyName(VCControlL), KeyName(VCControlR))
	assert.Equal(t, KeyName(VCAltL), KeyName(VCAltR))
	assert.Equal(t, KeyName(VCShiftL), KeyName(VCShiftR))
	assert.Equal(t, KeyName(VCMetaL), KeyName(VCMetaR))
}

func TestNormalize_Deterministic(t *testing.T) {
	for code := range keyNames {
		for mask := uint16(0); mask < 1<<8; mask++ {
			require.Equal(t, Normalize(code, mask), Normalize(code, mask))
		}
	}
}

func TestCanonicalize_RoundTripsNormalize(t *testing.T) {
	modifierKeys := map[uint16]bool{
		VCControlL: true, VCControlR: true,
		VCAltL: true, VCAltR: true,
		VCShiftL: true, VCShiftR: true,
		VCMetaL: true, VCMetaR: true,
	}

	for code := range keyNames {
		if modifierKeys[code] {
			continue
		}
		for mask := uint16(0); mask < 1<<8; mask++ {
			combo := Normalize(code, mask)
			got, err := Canonicalize(combo)
			require.NoError(t, err, combo)
			require.Equal(t, combo, got)
		}
	}
}

func TestKeyName_UnknownCode(t *testing.T) {
	assert.Equal(t, "KEY_0xBEEF", KeyName(0xBEEF))
	assert.Equal(t, "Ctrl+KEY_0x0E00", Normalize(0x0E00, MaskCtrlL))
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name    string
		combo   string
		want    string
		wantErr bool
	}{
		{"already canonical", "Ctrl+Alt+P", "Ctrl+Alt+P", false},
		{"reordered and lower case", "alt + ctrl + p", "Ctrl+Alt+P", false},
		{"aliases", "Cmd+Option+Esc", "Alt+Meta+ESCAPE", false},
		{"key only", "f5", "F5", false},
		{"digit", "Control+Shift+1", "Ctrl+Shift+1", false},
		{"repeated modifier", "Ctrl+ctrl+K", "Ctrl+K", false},
		{"empty", "", "", true},
		{"trailing plus", "Ctrl+Alt+", "", true},
		{"modifiers only", "Ctrl+Alt", "", true},
		{"two keys", "Ctrl+P+Q", "", true},
		{"unknown key", "Ctrl+Hyper", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.combo)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
