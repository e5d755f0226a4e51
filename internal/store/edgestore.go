package store

import (
	"encoding/binary"
	"sort"

	"github.com/fabricdb/fabric/internal/blockio"
	"github.com/fabricdb/fabric/internal/core"
	"github.com/fabricdb/fabric/internal/utils"
)

// edgeStoreHeaderSize covers the edge count and the free-list head
// and tail (12 bytes, three big-endian uint32s).
const edgeStoreHeaderSize = 12

// EdgeStore manages directed, labeled connections. A new edge is
// pushed onto the source vertex's outgoing list and the target
// vertex's incoming list; deletion splices it out of both and drops
// its label reference.
type EdgeStore struct {
	file   *blockio.File
	offset uint32
	size   uint32

	numEdges   uint32
	nextFreeID core.EdgeID
	lastFreeID core.EdgeID

	cache map[core.EdgeID]*core.Edge
	dirty map[core.EdgeID]struct{}

	vertices *VertexStore
	labels   *LabelStore
}

// Init attaches the store to its file region, reads the header and
// wires the collaborating stores.
func (s *EdgeStore) Init(f *blockio.File, offset, size uint32, vertices *VertexStore, labels *LabelStore) error {
	s.file = f
	s.offset = offset
	s.size = size
	s.vertices = vertices
	s.labels = labels
	s.cache = make(map[core.EdgeID]*core.Edge)
	s.dirty = make(map[core.EdgeID]struct{})

	var buf [edgeStoreHeaderSize]byte
	if err := f.ReadBytes(buf[:], int64(offset)); err != nil {
		return utils.WrapError("reading edge store header", err)
	}
	s.numEdges = binary.BigEndian.Uint32(buf[0:4])
	s.nextFreeID = core.EdgeID(binary.BigEndian.Uint32(buf[4:8]))
	s.lastFreeID = core.EdgeID(binary.BigEndian.Uint32(buf[8:12]))
	return nil
}

// Offset returns the store's position in the graph file.
func (s *EdgeStore) Offset() uint32 { return s.offset }

// NumEdges returns the number of live edges.
func (s *EdgeStore) NumEdges() uint32 { return s.numEdges }

// idOffset computes a slot's file position in 64-bit arithmetic so a
// large id cannot wrap back into the store's region.
func (s *EdgeStore) idOffset(id core.EdgeID) int64 {
	return int64(s.offset) + edgeStoreHeaderSize + int64(id-1)*core.EdgeSize
}

// Get returns the edge with the given id, reading it into the cache
// on first access. Free slots report ErrEdgeNotFound.
func (s *EdgeStore) Get(id core.EdgeID) (*core.Edge, error) {
	if e, ok := s.cache[id]; ok {
		if !e.InUse() {
			return nil, ErrEdgeNotFound
		}
		return e, nil
	}
	if id < 1 {
		return nil, ErrInvalidID
	}
	off := s.idOffset(id)
	if off+core.EdgeSize > int64(s.offset)+int64(s.size) {
		return nil, ErrInvalidID
	}
	var buf [core.EdgeSize]byte
	if err := s.file.ReadBytes(buf[:], off); err != nil {
		return nil, utils.WrapError("reading edge record", err)
	}
	e, err := core.DecodeEdge(id, buf[:])
	if err != nil {
		return nil, err
	}
	s.cache[id] = e
	if !e.InUse() {
		return nil, ErrEdgeNotFound
	}
	return e, nil
}

// Touch registers an edge mutation so the next flush writes it out.
func (s *EdgeStore) Touch(e *core.Edge) {
	s.cache[e.ID] = e
	s.dirty[e.ID] = struct{}{}
}

// Create connects from to to with a labeled edge. The label is
// interned; the edge heads both vertices' edge lists.
func (s *EdgeStore) Create(from, to *core.Vertex, label string) (*core.Edge, error) {
	id, err := s.nextID()
	if err != nil {
		return nil, err
	}
	e := &core.Edge{ID: id}
	var undo undoStack
	undo.push(func() { s.addFreeID(e) })

	labelID, err := s.labels.AddLabel(label)
	if err != nil {
		undo.unwind()
		return nil, utils.WrapError("interning edge label", err)
	}

	e.LabelID = labelID
	e.FromID = from.ID
	e.ToID = to.ID
	e.NextOutID = from.FirstOutID
	e.NextInID = to.FirstInID
	from.FirstOutID = id
	to.FirstInID = id

	s.vertices.Touch(from)
	s.vertices.Touch(to)
	s.Touch(e)
	s.numEdges++
	return e, nil
}

// Delete removes an edge, splicing it out of both endpoint lists. An
// edge still holding properties is refused and the store is left
// untouched.
func (s *EdgeStore) Delete(e *core.Edge) error {
	if !e.InUse() {
		return nil
	}
	if e.HasProperties() {
		return ErrEdgeHasProperties
	}

	from, err := s.vertices.Get(e.FromID)
	if err != nil {
		return utils.WrapError("loading edge source", err)
	}
	to, err := s.vertices.Get(e.ToID)
	if err != nil {
		return utils.WrapError("loading edge target", err)
	}

	var undo undoStack
	if err := s.spliceOut(from, e, &undo); err != nil {
		return err
	}
	if err := s.spliceIn(to, e, &undo); err != nil {
		undo.unwind()
		return err
	}
	if err := s.labels.RemoveLabel(e.LabelID); err != nil {
		undo.unwind()
		return utils.WrapError("releasing edge label", err)
	}

	e.LabelID = 0
	s.addFreeID(e)
	s.numEdges--
	return nil
}

// spliceOut unlinks e from the source vertex's outgoing list.
func (s *EdgeStore) spliceOut(from *core.Vertex, e *core.Edge, undo *undoStack) error {
	if from.FirstOutID == e.ID {
		from.FirstOutID = e.NextOutID
		undo.push(func() { from.FirstOutID = e.ID })
		s.vertices.Touch(from)
		return nil
	}
	prev, err := s.Get(from.FirstOutID)
	if err != nil {
		return utils.WrapError("walking outgoing edges", err)
	}
	for prev.NextOutID != e.ID {
		prev, err = s.Get(prev.NextOutID)
		if err != nil {
			return utils.WrapError("walking outgoing edges", err)
		}
	}
	link := prev
	link.NextOutID = e.NextOutID
	undo.push(func() { link.NextOutID = e.ID })
	s.Touch(link)
	return nil
}

// spliceIn unlinks e from the target vertex's incoming list.
func (s *EdgeStore) spliceIn(to *core.Vertex, e *core.Edge, undo *undoStack) error {
	if to.FirstInID == e.ID {
		to.FirstInID = e.NextInID
		undo.push(func() { to.FirstInID = e.ID })
		s.vertices.Touch(to)
		return nil
	}
	prev, err := s.Get(to.FirstInID)
	if err != nil {
		return utils.WrapError("walking incoming edges", err)
	}
	for prev.NextInID != e.ID {
		prev, err = s.Get(prev.NextInID)
		if err != nil {
			return utils.WrapError("walking incoming edges", err)
		}
	}
	link := prev
	link.NextInID = e.NextInID
	undo.push(func() { link.NextInID = e.ID })
	s.Touch(link)
	return nil
}

// Label resolves an edge's label.
func (s *EdgeStore) Label(e *core.Edge) (*core.Label, error) {
	return s.labels.Get(e.LabelID)
}

// nextID pops the free list, minting a new id at the frontier when
// the list is empty. Freed slots store the next free id in their
// source vertex field.
func (s *EdgeStore) nextID() (core.EdgeID, error) {
	id := s.nextFreeID
	switch {
	case s.nextFreeID == s.lastFreeID:
		s.nextFreeID++
		s.lastFreeID++
	default:
		if e, ok := s.cache[id]; ok {
			s.nextFreeID = core.EdgeID(e.FromID)
			break
		}
		raw, err := s.file.ReadUint32(s.idOffset(id) + 4)
		if err != nil {
			return 0, utils.WrapError("reading edge free list", err)
		}
		s.nextFreeID = core.EdgeID(raw)
	}
	return id, nil
}

// addFreeID pushes a reclaimed slot onto the free list.
func (s *EdgeStore) addFreeID(e *core.Edge) {
	e.FromID = core.VertexID(s.nextFreeID)
	s.nextFreeID = e.ID
	s.Touch(e)
}

// Flush writes dirty records and the store header. If a dirty id does
// not fit in the store's region, the records written so far stay
// written, the rest stay dirty and ErrNeedsResize is returned.
func (s *EdgeStore) Flush() error {
	if len(s.dirty) == 0 {
		return nil
	}
	ids := make([]core.EdgeID, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	maxID := core.EdgeID((s.size - edgeStoreHeaderSize) / core.EdgeSize)
	for _, id := range ids {
		if id > maxID {
			return ErrNeedsResize
		}
		e := s.cache[id]
		if err := s.file.WriteBytes(e.Encode(), s.idOffset(id)); err != nil {
			return utils.WrapError("writing edge record", err)
		}
		delete(s.dirty, id)
	}
	return s.writeHeader()
}

func (s *EdgeStore) writeHeader() error {
	var buf [edgeStoreHeaderSize]byte
	binary.BigEndian.PutUint32(buf[0:4], s.numEdges)
	binary.BigEndian.PutUint32(buf[4:8], uint32(s.nextFreeID))
	binary.BigEndian.PutUint32(buf[8:12], uint32(s.lastFreeID))
	if err := s.file.WriteBytes(buf[:], int64(s.offset)); err != nil {
		return utils.WrapError("writing edge store header", err)
	}
	return nil
}
