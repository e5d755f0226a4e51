package core

import (
	"encoding/binary"
	"errors"
)

// ErrInvalidEdgeID reports an edge id below the valid range.
var ErrInvalidEdgeID = errors.New("invalid edge id")

// Edge is a directed, labeled connection between two vertices. Edges
// participate in two intrusive lists at once: the source vertex's
// outgoing list (through NextOutID) and the target vertex's incoming
// list (through NextInID).
//
// Stored layout (24 bytes, big-endian):
//
//	bytes 0-3:   label id (0 means the slot is free)
//	bytes 4-7:   source vertex id
//	bytes 8-11:  target vertex id
//	bytes 12-15: next outgoing edge id at the source
//	bytes 16-19: next incoming edge id at the target
//	bytes 20-23: first property id
//
// While a slot sits on the free list its source vertex field holds
// the next free edge id instead.
type Edge struct {
	ID              EdgeID
	LabelID         LabelID
	FromID          VertexID
	ToID            VertexID
	NextOutID       EdgeID
	NextInID        EdgeID
	FirstPropertyID PropertyID
}

// DecodeEdge parses a stored edge record.
func DecodeEdge(id EdgeID, data []byte) (*Edge, error) {
	if id < 1 {
		return nil, ErrInvalidEdgeID
	}
	return &Edge{
		ID:              id,
		LabelID:         LabelID(binary.BigEndian.Uint32(data[0:4])),
		FromID:          VertexID(binary.BigEndian.Uint32(data[4:8])),
		ToID:            VertexID(binary.BigEndian.Uint32(data[8:12])),
		NextOutID:       EdgeID(binary.BigEndian.Uint32(data[12:16])),
		NextInID:        EdgeID(binary.BigEndian.Uint32(data[16:20])),
		FirstPropertyID: PropertyID(binary.BigEndian.Uint32(data[20:24])),
	}, nil
}

// Encode serializes the edge into its stored form.
func (e *Edge) Encode() []byte {
	buf := make([]byte, EdgeSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(e.LabelID))
	binary.BigEndian.PutUint32(buf[4:8], uint32(e.FromID))
	binary.BigEndian.PutUint32(buf[8:12], uint32(e.ToID))
	binary.BigEndian.PutUint32(buf[12:16], uint32(e.NextOutID))
	binary.BigEndian.PutUint32(buf[16:20], uint32(e.NextInID))
	binary.BigEndian.PutUint32(buf[20:24], uint32(e.FirstPropertyID))
	return buf
}

// InUse reports whether the slot holds a live edge.
func (e *Edge) InUse() bool {
	return e.LabelID != 0
}

// HasNextOut reports whether another edge follows in the source
// vertex's outgoing list.
func (e *Edge) HasNextOut() bool {
	return e.NextOutID != 0
}

// HasNextIn reports whether another edge follows in the target
// vertex's incoming list.
func (e *Edge) HasNextIn() bool {
	return e.NextInID != 0
}

// HasProperties reports whether the edge owns any properties.
func (e *Edge) HasProperties() bool {
	return e.FirstPropertyID != 0
}
