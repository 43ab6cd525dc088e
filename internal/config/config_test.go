package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseColorDefault(t *testing.T) {
	v, err := ParseColor("FFFF0000")
	require.NoError(t, err)
	require.Equal(t, uint32(0xFFFF0000), v)
}

func TestParseColorRejectsWrongLength(t *testing.T) {
	_, err := ParseColor("FF0000")
	require.Error(t, err)
}

func TestParseComboSpecDefault(t *testing.T) {
	slots, err := ParseComboSpec(DefaultComboSpec)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	require.Equal(t, []uint16{42}, slots[0].Codes)
	require.Equal(t, []uint16{54}, slots[1].Codes)
	require.Equal(t, []uint16{1}, slots[2].Codes)
}

func TestParseComboSpecAlias(t *testing.T) {
	slots, err := ParseComboSpec("KEY_LEFTSHIFT|KEY_RIGHTSHIFT")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Equal(t, []uint16{42, 54}, slots[0].Codes)
}

func TestParseComboSpecUnknownKey(t *testing.T) {
	_, err := ParseComboSpec("KEY_NOT_A_REAL_KEY")
	require.Error(t, err)
}

func TestValidateDelayRange(t *testing.T) {
	require.NoError(t, ValidateDelay(0))
	require.NoError(t, ValidateDelay(MaxDelayMS))
	require.Error(t, ValidateDelay(-1))
	require.Error(t, ValidateDelay(MaxDelayMS+1))
}
