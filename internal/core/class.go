package core

import (
	"encoding/binary"
	"errors"
)

// ErrInvalidClassID reports a class id below the valid range.
var ErrInvalidClassID = errors.New("invalid class id")

// Class is a typed category of vertices arranged in a single
// inheritance hierarchy. The hierarchy root has ParentID 0; sibling
// classes form a singly linked list through NextChildID.
//
// Stored layout (21 bytes, big-endian):
//
//	bytes 0-3:   label id (0 means the slot is free)
//	bytes 4-5:   parent class id
//	bytes 6-7:   first child class id
//	bytes 8-9:   next child (sibling) class id
//	bytes 10-11: first index id
//	bytes 12-15: direct member count
//	byte  16:    abstract flag
//	bytes 17-20: auto-increment counter
//
// While a slot sits on the free list its parent id field holds the
// next free class id instead.
type Class struct {
	ID           ClassID
	LabelID      LabelID
	ParentID     ClassID
	FirstChildID ClassID
	NextChildID  ClassID
	FirstIndexID IndexID
	Count        uint32
	IsAbstract   bool
	Incrementer  uint32
}

// DecodeClass parses a stored class record. The id must be known by
// the caller (records do not store their own id) and must be ≥ 1.
func DecodeClass(id ClassID, data []byte) (*Class, error) {
	if id < 1 {
		return nil, ErrInvalidClassID
	}
	return &Class{
		ID:           id,
		LabelID:      LabelID(binary.BigEndian.Uint32(data[0:4])),
		ParentID:     ClassID(binary.BigEndian.Uint16(data[4:6])),
		FirstChildID: ClassID(binary.BigEndian.Uint16(data[6:8])),
		NextChildID:  ClassID(binary.BigEndian.Uint16(data[8:10])),
		FirstIndexID: IndexID(binary.BigEndian.Uint16(data[10:12])),
		Count:        binary.BigEndian.Uint32(data[12:16]),
		IsAbstract:   data[16] != 0,
		Incrementer:  binary.BigEndian.Uint32(data[17:21]),
	}, nil
}

// Encode serializes the class into its stored form.
func (c *Class) Encode() []byte {
	buf := make([]byte, ClassSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(c.LabelID))
	binary.BigEndian.PutUint16(buf[4:6], uint16(c.ParentID))
	binary.BigEndian.PutUint16(buf[6:8], uint16(c.FirstChildID))
	binary.BigEndian.PutUint16(buf[8:10], uint16(c.NextChildID))
	binary.BigEndian.PutUint16(buf[10:12], uint16(c.FirstIndexID))
	binary.BigEndian.PutUint32(buf[12:16], c.Count)
	if c.IsAbstract {
		buf[16] = 1
	}
	binary.BigEndian.PutUint32(buf[17:21], c.Incrementer)
	return buf
}

// InUse reports whether the slot holds a live class. Every live class
// has a label, so a zero label id marks a free slot.
func (c *Class) InUse() bool {
	return c.LabelID != 0
}

// HasParent reports whether the class extends another class. Only the
// hierarchy root has no parent.
func (c *Class) HasParent() bool {
	return c.ParentID != 0
}

// HasChildren reports whether any class extends this one.
func (c *Class) HasChildren() bool {
	return c.FirstChildID != 0
}

// HasNextChild reports whether the class has a following sibling.
func (c *Class) HasNextChild() bool {
	return c.NextChildID != 0
}

// HasMembers reports whether any vertices belong directly to the class.
func (c *Class) HasMembers() bool {
	return c.Count != 0
}

// Increment returns the current auto-increment value and advances the
// counter. The caller is responsible for marking the class dirty.
func (c *Class) Increment() uint32 {
	v := c.Incrementer
	c.Incrementer++
	return v
}
