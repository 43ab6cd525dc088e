// Package config validates the daemon's CLI-surface values: the color
// swatch, the escape-combo spec, and the delay bounds (§6). It carries
// none of the teacher's internal/config Viper/TOML persistence — this
// daemon has no config file to load — but keeps the same
// fmt.Errorf("...: %w", err) wrapping style.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bnema/kloakd/internal/escape"
	"github.com/bnema/libwldevices-go/virtual_keyboard"
	"github.com/bnema/libwldevices-go/virtual_pointer"
)

// MaxDelayMS is the upper bound on -d/--delay and -s/--start-delay,
// matching the CLI contract's int32 range (§6).
const MaxDelayMS = 1<<31 - 1

// ValidateDelay checks that a parsed delay value falls in [0, 2^31-1].
func ValidateDelay(ms int64) error {
	if ms < 0 || ms > MaxDelayMS {
		return fmt.Errorf("config: delay %d out of range [0, %d]", ms, MaxDelayMS)
	}
	return nil
}

// ParseColor parses an 8-hex-digit AARRGGBB string into its uint32
// value, default FFFF0000 (§6).
func ParseColor(s string) (uint32, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 8 {
		return 0, fmt.Errorf("config: color %q must be 8 hex digits (AARRGGBB)", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("config: parsing color %q: %w", s, err)
	}
	return uint32(v), nil
}

// ParseComboSpec parses a -k/--esc-key-combo spec of the form
// "KEY_A|KEY_B,KEY_C" into escape slots: commas separate slots
// (conjunction), pipes separate aliases within a slot (§6).
func ParseComboSpec(spec string) ([]escape.Slot, error) {
	rawSlots := strings.Split(spec, ",")
	slots := make([]escape.Slot, 0, len(rawSlots))
	for _, raw := range rawSlots {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil, fmt.Errorf("config: empty slot in combo spec %q", spec)
		}
		var codes []uint16
		for _, alias := range strings.Split(raw, "|") {
			alias = strings.TrimSpace(alias)
			code, ok := KeyByName(alias)
			if !ok {
				return nil, fmt.Errorf("config: unrecognized key name %q in combo spec %q", alias, spec)
			}
			codes = append(codes, code)
		}
		slots = append(slots, escape.Slot{Codes: codes})
	}
	return slots, nil
}

// DefaultComboSpec is the default -k/--esc-key-combo value (§6).
const DefaultComboSpec = "KEY_LEFTSHIFT,KEY_RIGHTSHIFT,KEY_ESC"

// KeyByName resolves an evdev KEY_*/BTN_* name to its numeric code. The
// table references libwldevices-go/virtual_keyboard's and
// virtual_pointer's exported KEY_*/BTN_* constants directly wherever
// they exist (the same packages internal/injector already depends on),
// rather than re-deriving the numbers by hand; codes the library
// doesn't export (function keys, navigation keys, lock keys, the
// right-hand modifiers past KEY_RIGHTSHIFT) are given as the evdev
// input-event-codes literal, named in a comment.
func KeyByName(name string) (uint16, bool) {
	code, ok := keyTable[strings.ToUpper(name)]
	return code, ok
}

var keyTable = map[string]uint16{
	"KEY_ESC":        virtual_keyboard.KEY_ESC,
	"KEY_1":          virtual_keyboard.KEY_1,
	"KEY_2":          virtual_keyboard.KEY_2,
	"KEY_3":          virtual_keyboard.KEY_3,
	"KEY_4":          virtual_keyboard.KEY_4,
	"KEY_5":          virtual_keyboard.KEY_5,
	"KEY_6":          virtual_keyboard.KEY_6,
	"KEY_7":          virtual_keyboard.KEY_7,
	"KEY_8":          virtual_keyboard.KEY_8,
	"KEY_9":          virtual_keyboard.KEY_9,
	"KEY_0":          virtual_keyboard.KEY_0,
	"KEY_MINUS":      virtual_keyboard.KEY_MINUS,
	"KEY_EQUAL":      virtual_keyboard.KEY_EQUAL,
	"KEY_BACKSPACE":  virtual_keyboard.KEY_BACKSPACE,
	"KEY_TAB":        virtual_keyboard.KEY_TAB,
	"KEY_Q":          virtual_keyboard.KEY_Q,
	"KEY_W":          virtual_keyboard.KEY_W,
	"KEY_E":          virtual_keyboard.KEY_E,
	"KEY_R":          virtual_keyboard.KEY_R,
	"KEY_T":          virtual_keyboard.KEY_T,
	"KEY_Y":          virtual_keyboard.KEY_Y,
	"KEY_U":          virtual_keyboard.KEY_U,
	"KEY_I":          virtual_keyboard.KEY_I,
	"KEY_O":          virtual_keyboard.KEY_O,
	"KEY_P":          virtual_keyboard.KEY_P,
	"KEY_LEFTBRACE":  virtual_keyboard.KEY_LEFTBRACE,
	"KEY_RIGHTBRACE": virtual_keyboard.KEY_RIGHTBRACE,
	"KEY_ENTER":      virtual_keyboard.KEY_ENTER,
	"KEY_LEFTCTRL":   virtual_keyboard.KEY_LEFTCTRL,
	"KEY_A":          virtual_keyboard.KEY_A,
	"KEY_S":          virtual_keyboard.KEY_S,
	"KEY_D":          virtual_keyboard.KEY_D,
	"KEY_F":          virtual_keyboard.KEY_F,
	"KEY_G":          virtual_keyboard.KEY_G,
	"KEY_H":          virtual_keyboard.KEY_H,
	"KEY_J":          virtual_keyboard.KEY_J,
	"KEY_K":          virtual_keyboard.KEY_K,
	"KEY_L":          virtual_keyboard.KEY_L,
	"KEY_SEMICOLON":  virtual_keyboard.KEY_SEMICOLON,
	"KEY_APOSTROPHE": virtual_keyboard.KEY_APOSTROPHE,
	"KEY_GRAVE":      virtual_keyboard.KEY_GRAVE,
	"KEY_LEFTSHIFT":  virtual_keyboard.KEY_LEFTSHIFT,
	"KEY_BACKSLASH":  virtual_keyboard.KEY_BACKSLASH,
	"KEY_Z":          virtual_keyboard.KEY_Z,
	"KEY_X":          virtual_keyboard.KEY_X,
	"KEY_C":          virtual_keyboard.KEY_C,
	"KEY_V":          virtual_keyboard.KEY_V,
	"KEY_B":          virtual_keyboard.KEY_B,
	"KEY_N":          virtual_keyboard.KEY_N,
	"KEY_M":          virtual_keyboard.KEY_M,
	"KEY_COMMA":      virtual_keyboard.KEY_COMMA,
	"KEY_DOT":        virtual_keyboard.KEY_DOT,
	"KEY_SLASH":      virtual_keyboard.KEY_SLASH,
	"KEY_RIGHTSHIFT": virtual_keyboard.KEY_RIGHTSHIFT,
	"KEY_LEFTALT":    virtual_keyboard.KEY_LEFTALT,
	"KEY_SPACE":      virtual_keyboard.KEY_SPACE,
	"KEY_CAPSLOCK":   virtual_keyboard.KEY_CAPSLOCK,
	"KEY_LEFTMETA":   virtual_keyboard.KEY_LEFTMETA,

	// Not exported by virtual_keyboard (it only carries the alphanumeric
	// row, the modifiers, and common punctuation) — evdev
	// input-event-codes.h values given directly.
	"KEY_KPASTERISK": 55,
	"KEY_F1":         59,
	"KEY_F2":         60,
	"KEY_F3":         61,
	"KEY_F4":         62,
	"KEY_F5":         63,
	"KEY_F6":         64,
	"KEY_F7":         65,
	"KEY_F8":         66,
	"KEY_F9":         67,
	"KEY_F10":        68,
	"KEY_NUMLOCK":    69,
	"KEY_SCROLLLOCK": 70,
	"KEY_F11":        87,
	"KEY_F12":        88,
	"KEY_RIGHTCTRL":  97,
	"KEY_RIGHTALT":   100,
	"KEY_HOME":       102,
	"KEY_UP":         103,
	"KEY_PAGEUP":     104,
	"KEY_LEFT":       105,
	"KEY_RIGHT":      106,
	"KEY_END":        107,
	"KEY_DOWN":       108,
	"KEY_PAGEDOWN":   109,
	"KEY_INSERT":     110,
	"KEY_DELETE":     111,
	"KEY_RIGHTMETA":  126,

	// Exported by virtual_pointer, already depended on by internal/injector.
	"BTN_LEFT":   virtual_pointer.BTN_LEFT,
	"BTN_RIGHT":  virtual_pointer.BTN_RIGHT,
	"BTN_MIDDLE": virtual_pointer.BTN_MIDDLE,
	"BTN_SIDE":   virtual_pointer.BTN_SIDE,
	"BTN_EXTRA":  virtual_pointer.BTN_EXTRA,
}
