package core

import (
	"encoding/binary"
	"errors"
)

// ErrInvalidTextID reports a text id below the valid range.
var ErrInvalidTextID = errors.New("invalid text id")

// ErrTextValueNotLoaded reports access to a value that has not been
// read from the store yet.
var ErrTextValueNotLoaded = errors.New("text value not loaded")

// Text is a variable-length string stored out of line so the entities
// referencing it stay fixed size. Only the 4-byte size header is
// stored with the record; the body follows immediately and spans as
// many fixed-size blocks as it needs. A text id addresses blocks, not
// bytes.
//
// The value is loaded lazily. Decoding reads only the size, which is
// often all a caller needs; the store fills the value on demand.
type Text struct {
	ID     TextID
	Size   uint32
	value  []byte
	loaded bool
}

// DecodeText parses a stored text header. The body is not read.
func DecodeText(id TextID, data []byte) (*Text, error) {
	if id < 1 {
		return nil, ErrInvalidTextID
	}
	return &Text{
		ID:   id,
		Size: binary.BigEndian.Uint32(data[0:4]),
	}, nil
}

// EncodeHeader serializes the size header.
func (t *Text) EncodeHeader() []byte {
	buf := make([]byte, TextSize)
	binary.BigEndian.PutUint32(buf, t.Size)
	return buf
}

// Loaded reports whether the value has been read from the store.
func (t *Text) Loaded() bool {
	return t.loaded
}

// Value returns the text body. ErrTextValueNotLoaded is returned
// until the store has filled the value in.
func (t *Text) Value() (string, error) {
	if !t.loaded {
		return "", ErrTextValueNotLoaded
	}
	return string(t.value), nil
}

// SetValue fills in the text body and its size.
func (t *Text) SetValue(s string) {
	t.value = []byte(s)
	t.Size = uint32(len(s))
	t.loaded = true
}
