package store

import (
	"encoding/binary"
	"sort"

	"github.com/fabricdb/fabric/internal/blockio"
	"github.com/fabricdb/fabric/internal/core"
	"github.com/fabricdb/fabric/internal/utils"
)

// vertexStoreHeaderSize covers the vertex count and the free-list
// head and tail (12 bytes, three big-endian uint32s).
const vertexStoreHeaderSize = 12

// VertexStore manages the graph's nodes. Creating a vertex bumps its
// class's member count; deletion refuses while edges or properties
// still reference the vertex.
type VertexStore struct {
	file   *blockio.File
	offset uint32
	size   uint32

	numVertices uint32
	nextFreeID  core.VertexID
	lastFreeID  core.VertexID

	cache map[core.VertexID]*core.Vertex
	dirty map[core.VertexID]struct{}

	classes *ClassStore
}

// Init attaches the store to its file region, reads the header and
// wires the class store.
func (s *VertexStore) Init(f *blockio.File, offset, size uint32, classes *ClassStore) error {
	s.file = f
	s.offset = offset
	s.size = size
	s.classes = classes
	s.cache = make(map[core.VertexID]*core.Vertex)
	s.dirty = make(map[core.VertexID]struct{})

	var buf [vertexStoreHeaderSize]byte
	if err := f.ReadBytes(buf[:], int64(offset)); err != nil {
		return utils.WrapError("reading vertex store header", err)
	}
	s.numVertices = binary.BigEndian.Uint32(buf[0:4])
	s.nextFreeID = core.VertexID(binary.BigEndian.Uint32(buf[4:8]))
	s.lastFreeID = core.VertexID(binary.BigEndian.Uint32(buf[8:12]))
	return nil
}

// Offset returns the store's position in the graph file.
func (s *VertexStore) Offset() uint32 { return s.offset }

// NumVertices returns the number of live vertices.
func (s *VertexStore) NumVertices() uint32 { return s.numVertices }

// idOffset computes a slot's file position in 64-bit arithmetic so a
// large id cannot wrap back into the store's region.
func (s *VertexStore) idOffset(id core.VertexID) int64 {
	return int64(s.offset) + vertexStoreHeaderSize + int64(id-1)*core.VertexSize
}

// Get returns the vertex with the given id, reading it into the cache
// on first access. Free slots report ErrVertexNotFound.
func (s *VertexStore) Get(id core.VertexID) (*core.Vertex, error) {
	if v, ok := s.cache[id]; ok {
		if !v.InUse() {
			return nil, ErrVertexNotFound
		}
		return v, nil
	}
	if id < 1 {
		return nil, ErrInvalidID
	}
	off := s.idOffset(id)
	if off+core.VertexSize > int64(s.offset)+int64(s.size) {
		return nil, ErrInvalidID
	}
	var buf [core.VertexSize]byte
	if err := s.file.ReadBytes(buf[:], off); err != nil {
		return nil, utils.WrapError("reading vertex record", err)
	}
	v, err := core.DecodeVertex(id, buf[:])
	if err != nil {
		return nil, err
	}
	s.cache[id] = v
	if !v.InUse() {
		return nil, ErrVertexNotFound
	}
	return v, nil
}

// Touch registers a vertex mutation so the next flush writes it out.
func (s *VertexStore) Touch(v *core.Vertex) {
	s.cache[v.ID] = v
	s.dirty[v.ID] = struct{}{}
}

// Create adds a vertex of the given class and bumps the class's
// member count.
func (s *VertexStore) Create(class *core.Class) (*core.Vertex, error) {
	id, err := s.nextID()
	if err != nil {
		return nil, err
	}
	v := &core.Vertex{ID: id, ClassID: class.ID}
	class.Count++
	s.classes.Touch(class)
	s.Touch(v)
	s.numVertices++
	return v, nil
}

// Delete removes a vertex. A vertex still holding edges or properties
// is refused; either guard leaves the store untouched.
func (s *VertexStore) Delete(v *core.Vertex) error {
	if !v.InUse() {
		return nil
	}
	if v.HasOutEdges() || v.HasInEdges() {
		return ErrVertexHasEdges
	}
	if v.HasProperties() {
		return ErrVertexHasProperties
	}

	class, err := s.classes.Get(v.ClassID)
	if err != nil {
		return utils.WrapError("loading vertex class", err)
	}
	class.Count--
	s.classes.Touch(class)

	v.ClassID = 0
	s.addFreeID(v)
	s.numVertices--
	return nil
}

// Class resolves the class a vertex belongs to.
func (s *VertexStore) Class(v *core.Vertex) (*core.Class, error) {
	return s.classes.Get(v.ClassID)
}

// nextID pops the free list, minting a new id at the frontier when
// the list is empty. Freed slots store the next free id in their
// first-out field.
func (s *VertexStore) nextID() (core.VertexID, error) {
	id := s.nextFreeID
	switch {
	case s.nextFreeID == s.lastFreeID:
		s.nextFreeID++
		s.lastFreeID++
	default:
		if v, ok := s.cache[id]; ok {
			s.nextFreeID = core.VertexID(v.FirstOutID)
			break
		}
		raw, err := s.file.ReadUint32(s.idOffset(id) + 2)
		if err != nil {
			return 0, utils.WrapError("reading vertex free list", err)
		}
		s.nextFreeID = core.VertexID(raw)
	}
	return id, nil
}

// addFreeID pushes a reclaimed slot onto the free list.
func (s *VertexStore) addFreeID(v *core.Vertex) {
	v.FirstOutID = core.EdgeID(s.nextFreeID)
	s.nextFreeID = v.ID
	s.Touch(v)
}

// Flush writes dirty records and the store header. If a dirty id does
// not fit in the store's region, the records written so far stay
// written, the rest stay dirty and ErrNeedsResize is returned.
func (s *VertexStore) Flush() error {
	if len(s.dirty) == 0 {
		return nil
	}
	ids := make([]core.VertexID, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	maxID := core.VertexID((s.size - vertexStoreHeaderSize) / core.VertexSize)
	for _, id := range ids {
		if id > maxID {
			return ErrNeedsResize
		}
		v := s.cache[id]
		if err := s.file.WriteBytes(v.Encode(), s.idOffset(id)); err != nil {
			return utils.WrapError("writing vertex record", err)
		}
		delete(s.dirty, id)
	}
	return s.writeHeader()
}

func (s *VertexStore) writeHeader() error {
	var buf [vertexStoreHeaderSize]byte
	binary.BigEndian.PutUint32(buf[0:4], s.numVertices)
	binary.BigEndian.PutUint32(buf[4:8], uint32(s.nextFreeID))
	binary.BigEndian.PutUint32(buf[8:12], uint32(s.lastFreeID))
	if err := s.file.WriteBytes(buf[:], int64(s.offset)); err != nil {
		return utils.WrapError("writing vertex store header", err)
	}
	return nil
}
