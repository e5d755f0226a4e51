package core

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrInvalidPropertyID reports a property id below the valid range.
var ErrInvalidPropertyID = errors.New("invalid property id")

// Property value type tags. A short text stores its bytes inline and
// encodes its length in the tag itself (tag minus PropTypeEmptyText).
// Text longer than 8 bytes goes to the text store and the inline data
// holds the text id. Booleans carry their value in the tag, the data
// bytes are unused. Tag 0x18 doubles as the reserved binary type,
// which stays unimplemented.
const (
	PropTypeNothing   uint8 = 0x00 // deleted / free slot
	PropTypeInteger   uint8 = 0x01
	PropTypeReal      uint8 = 0x02
	PropTypeUnichar   uint8 = 0x05
	PropTypeEmptyText uint8 = 0x10
	PropTypeText1     uint8 = 0x11
	PropTypeText2     uint8 = 0x12
	PropTypeText3     uint8 = 0x13
	PropTypeText4     uint8 = 0x14
	PropTypeText5     uint8 = 0x15
	PropTypeText6     uint8 = 0x16
	PropTypeText7     uint8 = 0x17
	PropTypeText8     uint8 = 0x18
	PropTypeLongText  uint8 = 0x19
	PropTypeDatetime  uint8 = 0x20 // 64-bit unix timestamp
	PropTypeFalse     uint8 = 0x30
	PropTypeTrue      uint8 = 0x31
)

// MaxShortTextLen is the longest text stored inline in a property.
const MaxShortTextLen = 8

// Property is a typed key-value pair owned by a vertex or an edge.
// Properties of one owner form a singly linked chain through
// NextPropertyID.
//
// Stored layout (17 bytes, big-endian):
//
//	bytes 0-3: label id (0 means the slot is free)
//	bytes 4-7: next property id in the owner's chain
//	byte  8:   value type tag
//	bytes 9-16: inline value data
//
// While a slot sits on the free list its next property field holds
// the next free property id instead.
type Property struct {
	ID             PropertyID
	LabelID        LabelID
	NextPropertyID PropertyID
	Type           uint8
	Data           [8]byte
}

// DecodeProperty parses a stored property record.
func DecodeProperty(id PropertyID, data []byte) (*Property, error) {
	if id < 1 {
		return nil, ErrInvalidPropertyID
	}
	p := &Property{
		ID:             id,
		LabelID:        LabelID(binary.BigEndian.Uint32(data[0:4])),
		NextPropertyID: PropertyID(binary.BigEndian.Uint32(data[4:8])),
		Type:           data[8],
	}
	copy(p.Data[:], data[9:17])
	return p, nil
}

// Encode serializes the property into its stored form.
func (p *Property) Encode() []byte {
	buf := make([]byte, PropertySize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(p.LabelID))
	binary.BigEndian.PutUint32(buf[4:8], uint32(p.NextPropertyID))
	buf[8] = p.Type
	copy(buf[9:17], p.Data[:])
	return buf
}

// InUse reports whether the slot holds a live property.
func (p *Property) InUse() bool {
	return p.LabelID != 0
}

// HasNext reports whether another property follows in the owner's
// chain.
func (p *Property) HasNext() bool {
	return p.NextPropertyID != 0
}

// IntegerValue returns the inline data as a signed 64-bit integer.
func (p *Property) IntegerValue() int64 {
	return int64(binary.BigEndian.Uint64(p.Data[:]))
}

// SetIntegerValue stores a signed 64-bit integer inline and tags the
// property as an integer.
func (p *Property) SetIntegerValue(v int64) {
	p.Type = PropTypeInteger
	binary.BigEndian.PutUint64(p.Data[:], uint64(v))
}

// RealValue returns the inline data as a 64-bit float.
func (p *Property) RealValue() float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(p.Data[:]))
}

// SetRealValue stores a 64-bit float inline and tags the property as
// a real.
func (p *Property) SetRealValue(v float64) {
	p.Type = PropTypeReal
	binary.BigEndian.PutUint64(p.Data[:], math.Float64bits(v))
}

// IsBoolean reports whether the property holds a boolean.
func (p *Property) IsBoolean() bool {
	return p.Type == PropTypeFalse || p.Type == PropTypeTrue
}

// BooleanValue returns the boolean encoded in the type tag. Anything
// other than the true tag reads as false.
func (p *Property) BooleanValue() bool {
	return p.Type == PropTypeTrue
}

// SetBooleanValue encodes a boolean in the type tag. The data bytes
// are not touched.
func (p *Property) SetBooleanValue(v bool) {
	if v {
		p.Type = PropTypeTrue
	} else {
		p.Type = PropTypeFalse
	}
}

// IsText reports whether the property holds text of any length.
func (p *Property) IsText() bool {
	return p.Type >= PropTypeEmptyText && p.Type <= PropTypeLongText
}

// IsShortText reports whether the property holds text stored inline.
func (p *Property) IsShortText() bool {
	return p.Type >= PropTypeEmptyText && p.Type < PropTypeLongText
}

// ShortTextLen returns the length in bytes of an inline text value.
func (p *Property) ShortTextLen() int {
	return int(p.Type - PropTypeEmptyText)
}

// ShortText returns the inline text value.
func (p *Property) ShortText() string {
	return string(p.Data[:p.ShortTextLen()])
}

// SetShortText stores up to MaxShortTextLen bytes of text inline and
// encodes the length in the type tag.
func (p *Property) SetShortText(s string) {
	p.Type = PropTypeEmptyText + uint8(len(s))
	copy(p.Data[:], s)
}

// TextValueID returns the text store id of a long text value.
func (p *Property) TextValueID() TextID {
	return TextID(binary.BigEndian.Uint64(p.Data[:]))
}

// SetTextValueID stores the text store id of a long text value and
// tags the property as long text.
func (p *Property) SetTextValueID(id TextID) {
	p.Type = PropTypeLongText
	binary.BigEndian.PutUint64(p.Data[:], uint64(id))
}
