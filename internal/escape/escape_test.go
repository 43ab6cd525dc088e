package escape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	keyLeftShift  = 42
	keyRightShift = 54
	keyEsc        = 1
)

func defaultCombo(t *testing.T) *Watcher {
	t.Helper()
	w, err := New([]Slot{
		{Codes: []uint16{keyLeftShift}},
		{Codes: []uint16{keyRightShift}},
		{Codes: []uint16{keyEsc}},
	})
	require.NoError(t, err)
	return w
}

func TestComboRequiresAllSlots(t *testing.T) {
	w := defaultCombo(t)
	require.False(t, w.HandleKey(keyLeftShift, true))
	require.False(t, w.HandleKey(keyRightShift, true))
	require.True(t, w.HandleKey(keyEsc, true))
}

func TestEscAloneDoesNotTerminate(t *testing.T) {
	w := defaultCombo(t)
	require.False(t, w.HandleKey(keyEsc, true))
}

func TestReleaseResetsSlot(t *testing.T) {
	w := defaultCombo(t)
	require.False(t, w.HandleKey(keyLeftShift, true))
	require.False(t, w.HandleKey(keyRightShift, true))
	require.False(t, w.HandleKey(keyLeftShift, false))
	require.False(t, w.HandleKey(keyEsc, true))
}

func TestAliasWithinSlot(t *testing.T) {
	w, err := New([]Slot{{Codes: []uint16{keyLeftShift, keyRightShift}}})
	require.NoError(t, err)
	require.True(t, w.HandleKey(keyRightShift, true))
}

func TestEmptyComboRejected(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}
