// Package core implements the fixed-size binary records a FabricDB
// graph file is made of: classes, labels, vertices, edges, properties
// and text headers. All integers are stored big-endian. Decoding
// validates the record id before touching bytes; an id of 0 is the
// null sentinel everywhere, valid ids start at 1.
package core

// Entity id types. Classes and indexes are 16-bit, everything else
// is 32-bit.
type (
	ClassID    uint16
	LabelID    uint32
	VertexID   uint32
	EdgeID     uint32
	PropertyID uint32
	TextID     uint32
	IndexID    uint16
)

// Stored record sizes in bytes.
const (
	ClassSize    = 21
	LabelSize    = 8
	VertexSize   = 14
	EdgeSize     = 24
	PropertySize = 17
	TextSize     = 4 // stored header only; the body follows in blocks
)
