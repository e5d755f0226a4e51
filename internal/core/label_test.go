package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeLabel(t *testing.T) {
	record := []byte{
		0x00, 0x00, 0x00, 0x09, // text id 9
		0x00, 0x00, 0x00, 0x15, // refs 21
	}

	l, err := DecodeLabel(4, record)
	require.NoError(t, err)
	require.Equal(t, LabelID(4), l.ID)
	require.Equal(t, TextID(9), l.TextID)
	require.Equal(t, uint32(21), l.Refs)
	require.True(t, l.InUse())
	require.True(t, l.HasRefs())
}

func TestDecodeLabel_InvalidID(t *testing.T) {
	_, err := DecodeLabel(0, make([]byte, LabelSize))
	require.ErrorIs(t, err, ErrInvalidLabelID)
}

func TestLabel_EncodeRoundTrip(t *testing.T) {
	l := &Label{ID: 4, TextID: 9, Refs: 21}

	encoded := l.Encode()
	require.Len(t, encoded, LabelSize)
	require.Equal(t, []byte{0, 0, 0, 9, 0, 0, 0, 0x15}, encoded)

	decoded, err := DecodeLabel(4, encoded)
	require.NoError(t, err)
	require.Equal(t, l, decoded)
}

func TestLabel_RefCounting(t *testing.T) {
	l := &Label{ID: 1, TextID: 3, Refs: 1}

	l.AddRef()
	require.Equal(t, uint32(2), l.Refs)

	l.RemoveRef()
	l.RemoveRef()
	require.False(t, l.HasRefs())
}
