package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeText(t *testing.T) {
	header := []byte{0x00, 0x00, 0x00, 0x2A}

	txt, err := DecodeText(9, header)
	require.NoError(t, err)
	require.Equal(t, TextID(9), txt.ID)
	require.Equal(t, uint32(42), txt.Size)

	// The body is loaded lazily; only the size is known so far.
	require.False(t, txt.Loaded())
	_, err = txt.Value()
	require.ErrorIs(t, err, ErrTextValueNotLoaded)
}

func TestDecodeText_InvalidID(t *testing.T) {
	_, err := DecodeText(0, make([]byte, TextSize))
	require.ErrorIs(t, err, ErrInvalidTextID)
}

func TestText_SetValue(t *testing.T) {
	txt := &Text{ID: 1}
	txt.SetValue("interned name")

	require.True(t, txt.Loaded())
	require.Equal(t, uint32(13), txt.Size)

	v, err := txt.Value()
	require.NoError(t, err)
	require.Equal(t, "interned name", v)

	require.Equal(t, []byte{0, 0, 0, 13}, txt.EncodeHeader())
}
