package trigger

import (
	"fmt"
	"strings"
)

// buttonCodes maps Linux input event code names to their numeric values.
// The table covers the gamepad button range plus the common A/B/X/Y
// aliases; chords reference these names in configuration.
var buttonCodes = map[string]uint16{
	"BTN_SOUTH":      0x130,
	"BTN_EAST":       0x131,
	"BTN_C":          0x132,
	"BTN_NORTH":      0x133,
	"BTN_WEST":       0x134,
	"BTN_Z":          0x135,
	"BTN_TL":         0x136,
	"BTN_TR":         0x137,
	"BTN_TL2":        0x138,
	"BTN_TR2":        0x139,
	"BTN_SELECT":     0x13a,
	"BTN_START":      0x13b,
	"BTN_MODE":       0x13c,
	"BTN_THUMBL":     0x13d,
	"BTN_THUMBR":     0x13e,
	"BTN_DPAD_UP":    0x220,
	"BTN_DPAD_DOWN":  0x221,
	"BTN_DPAD_LEFT":  0x222,
	"BTN_DPAD_RIGHT": 0x223,

	// Legacy aliases used by older pad drivers and configs.
	"BTN_A": 0x130,
	"BTN_B": 0x131,
	"BTN_X": 0x133,
	"BTN_Y": 0x134,
}

type chord struct {
	kind  Kind
	codes []uint16
}

func parseChord(kind Kind, names []string) (chord, error) {
	c := chord{kind: kind}
	for _, name := range names {
		code, ok := buttonCodes[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			return chord{}, fmt.Errorf("unknown button name %q in %s chord", name, kind)
		}
		c.codes = append(c.codes, code)
	}
	if len(c.codes) == 0 {
		return chord{}, fmt.Errorf("%s chord is empty", kind)
	}
	return c, nil
}

func (c chord) contains(code uint16) bool {
	for _, candidate := range c.codes {
		if candidate == code {
			return true
		}
	}
	return false
}

// ChordTracker turns a stream of button press/release events into
// edge-triggered chord activations. A chord fires exactly once on the
// transition to all-buttons-held and cannot fire again until at least one
// of its buttons is released.
type ChordTracker struct {
	chords    []chord
	held      map[uint16]bool
	satisfied []bool
}

// NewChordTracker builds a tracker for the request and view chords.
func NewChordTracker(requestChord, viewChord []string) (*ChordTracker, error) {
	request, err := parseChord(KindRequest, requestChord)
	if err != nil {
		return nil, err
	}
	view, err := parseChord(KindView, viewChord)
	if err != nil {
		return nil, err
	}
	chords := []chord{request, view}
	return &ChordTracker{
		chords:    chords,
		held:      make(map[uint16]bool),
		satisfied: make([]bool, len(chords)),
	}, nil
}

// Press records a button press and reports a chord activation when the
// press completes one.
func (t *ChordTracker) Press(code uint16) (Kind, bool) {
	t.held[code] = true
	for i, c := range t.chords {
		if t.satisfied[i] || !t.allHeld(c) {
			continue
		}
		t.satisfied[i] = true
		return c.kind, true
	}
	return 0, false
}

// Release records a button release and re-arms any chord the button
// belongs to.
func (t *ChordTracker) Release(code uint16) {
	delete(t.held, code)
	for i, c := range t.chords {
		if c.contains(code) {
			t.satisfied[i] = false
		}
	}
}

// Reset drops all held state and re-arms every chord. Called when the
// device detaches: release events for buttons held at that moment never
// arrive, and stale held state must not complete a chord after a reattach.
func (t *ChordTracker) Reset() {
	t.held = make(map[uint16]bool)
	for i := range t.satisfied {
		t.satisfied[i] = false
	}
}

func (t *ChordTracker) allHeld(c chord) bool {
	for _, code := range c.codes {
		if !t.held[code] {
			return false
		}
	}
	return true
}
