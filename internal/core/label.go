package core

import (
	"encoding/binary"
	"errors"
)

// ErrInvalidLabelID reports a label id below the valid range.
var ErrInvalidLabelID = errors.New("invalid label id")

// Label is an interned, reference-counted name shared by classes,
// edges and properties. The name itself lives in the text store.
//
// Stored layout (8 bytes, big-endian):
//
//	bytes 0-3: text id (0 means the slot is free)
//	bytes 4-7: reference count
//
// While a slot sits on the free list its refs field holds the next
// free label id instead.
type Label struct {
	ID     LabelID
	TextID TextID
	Refs   uint32
}

// DecodeLabel parses a stored label record.
func DecodeLabel(id LabelID, data []byte) (*Label, error) {
	if id < 1 {
		return nil, ErrInvalidLabelID
	}
	return &Label{
		ID:     id,
		TextID: TextID(binary.BigEndian.Uint32(data[0:4])),
		Refs:   binary.BigEndian.Uint32(data[4:8]),
	}, nil
}

// Encode serializes the label into its stored form.
func (l *Label) Encode() []byte {
	buf := make([]byte, LabelSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(l.TextID))
	binary.BigEndian.PutUint32(buf[4:8], l.Refs)
	return buf
}

// InUse reports whether the slot holds a live label.
func (l *Label) InUse() bool {
	return l.TextID != 0
}

// HasRefs reports whether anything still references the label.
func (l *Label) HasRefs() bool {
	return l.Refs != 0
}

// AddRef records one more referent.
func (l *Label) AddRef() {
	l.Refs++
}

// RemoveRef records one fewer referent. The caller reclaims the label
// once HasRefs reports false.
func (l *Label) RemoveRef() {
	l.Refs--
}
