package core

import (
	"encoding/binary"
	"errors"
)

// ErrInvalidVertexID reports a vertex id below the valid range.
var ErrInvalidVertexID = errors.New("invalid vertex id")

// Vertex is a node in the graph. It belongs to exactly one class and
// heads three intrusive lists: outgoing edges (linked through each
// edge's next-out id), incoming edges (next-in id) and its property
// chain.
//
// Stored layout (14 bytes, big-endian):
//
//	bytes 0-1:   class id (0 means the slot is free)
//	bytes 2-5:   first outgoing edge id
//	bytes 6-9:   first incoming edge id
//	bytes 10-13: first property id
//
// While a slot sits on the free list its first outgoing edge field
// holds the next free vertex id instead.
type Vertex struct {
	ID              VertexID
	ClassID         ClassID
	FirstOutID      EdgeID
	FirstInID       EdgeID
	FirstPropertyID PropertyID
}

// DecodeVertex parses a stored vertex record.
func DecodeVertex(id VertexID, data []byte) (*Vertex, error) {
	if id < 1 {
		return nil, ErrInvalidVertexID
	}
	return &Vertex{
		ID:              id,
		ClassID:         ClassID(binary.BigEndian.Uint16(data[0:2])),
		FirstOutID:      EdgeID(binary.BigEndian.Uint32(data[2:6])),
		FirstInID:       EdgeID(binary.BigEndian.Uint32(data[6:10])),
		FirstPropertyID: PropertyID(binary.BigEndian.Uint32(data[10:14])),
	}, nil
}

// Encode serializes the vertex into its stored form.
func (v *Vertex) Encode() []byte {
	buf := make([]byte, VertexSize)
	binary.BigEndian.PutUint16(buf[0:2], uint16(v.ClassID))
	binary.BigEndian.PutUint32(buf[2:6], uint32(v.FirstOutID))
	binary.BigEndian.PutUint32(buf[6:10], uint32(v.FirstInID))
	binary.BigEndian.PutUint32(buf[10:14], uint32(v.FirstPropertyID))
	return buf
}

// InUse reports whether the slot holds a live vertex. Every live
// vertex belongs to a class, so a zero class id marks a free slot.
func (v *Vertex) InUse() bool {
	return v.ClassID != 0
}

// HasOutEdges reports whether any edge leaves the vertex.
func (v *Vertex) HasOutEdges() bool {
	return v.FirstOutID != 0
}

// HasInEdges reports whether any edge arrives at the vertex.
func (v *Vertex) HasInEdges() bool {
	return v.FirstInID != 0
}

// HasProperties reports whether the vertex owns any properties.
func (v *Vertex) HasProperties() bool {
	return v.FirstPropertyID != 0
}
