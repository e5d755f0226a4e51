package store

import (
	"encoding/binary"
	"sort"

	"github.com/fabricdb/fabric/internal/blockio"
	"github.com/fabricdb/fabric/internal/core"
	"github.com/fabricdb/fabric/internal/utils"
)

// propertyStoreHeaderSize covers the property count and the free-list
// head and tail (12 bytes, three big-endian uint32s).
const propertyStoreHeaderSize = 12

// PropertyStore manages the key-value pairs owned by vertices and
// edges. Keys are interned labels; values live inline except for text
// longer than eight bytes, which goes to the text store.
type PropertyStore struct {
	file   *blockio.File
	offset uint32
	size   uint32

	numProperties uint32
	nextFreeID    core.PropertyID
	lastFreeID    core.PropertyID

	cache map[core.PropertyID]*core.Property
	dirty map[core.PropertyID]struct{}

	labels   *LabelStore
	texts    *TextStore
	vertices *VertexStore
	edges    *EdgeStore
}

// Init attaches the store to its file region, reads the header and
// wires the collaborating stores.
func (s *PropertyStore) Init(f *blockio.File, offset, size uint32, labels *LabelStore, texts *TextStore, vertices *VertexStore, edges *EdgeStore) error {
	s.file = f
	s.offset = offset
	s.size = size
	s.labels = labels
	s.texts = texts
	s.vertices = vertices
	s.edges = edges
	s.cache = make(map[core.PropertyID]*core.Property)
	s.dirty = make(map[core.PropertyID]struct{})

	var buf [propertyStoreHeaderSize]byte
	if err := f.ReadBytes(buf[:], int64(offset)); err != nil {
		return utils.WrapError("reading property store header", err)
	}
	s.numProperties = binary.BigEndian.Uint32(buf[0:4])
	s.nextFreeID = core.PropertyID(binary.BigEndian.Uint32(buf[4:8]))
	s.lastFreeID = core.PropertyID(binary.BigEndian.Uint32(buf[8:12]))
	return nil
}

// Offset returns the store's position in the graph file.
func (s *PropertyStore) Offset() uint32 { return s.offset }

// NumProperties returns the number of live properties.
func (s *PropertyStore) NumProperties() uint32 { return s.numProperties }

// idOffset computes a slot's file position in 64-bit arithmetic so a
// large id cannot wrap back into the store's region.
func (s *PropertyStore) idOffset(id core.PropertyID) int64 {
	return int64(s.offset) + propertyStoreHeaderSize + int64(id-1)*core.PropertySize
}

// Get returns the property with the given id, reading it into the
// cache on first access. Free slots report ErrPropertyNotFound.
func (s *PropertyStore) Get(id core.PropertyID) (*core.Property, error) {
	if p, ok := s.cache[id]; ok {
		if !p.InUse() {
			return nil, ErrPropertyNotFound
		}
		return p, nil
	}
	if id < 1 {
		return nil, ErrInvalidID
	}
	off := s.idOffset(id)
	if off+core.PropertySize > int64(s.offset)+int64(s.size) {
		return nil, ErrInvalidID
	}
	var buf [core.PropertySize]byte
	if err := s.file.ReadBytes(buf[:], off); err != nil {
		return nil, utils.WrapError("reading property record", err)
	}
	p, err := core.DecodeProperty(id, buf[:])
	if err != nil {
		return nil, err
	}
	s.cache[id] = p
	if !p.InUse() {
		return nil, ErrPropertyNotFound
	}
	return p, nil
}

// Touch registers a property mutation so the next flush writes it
// out.
func (s *PropertyStore) Touch(p *core.Property) {
	s.cache[p.ID] = p
	s.dirty[p.ID] = struct{}{}
}

// Label resolves a property's key label.
func (s *PropertyStore) Label(p *core.Property) (*core.Label, error) {
	return s.labels.Get(p.LabelID)
}

// CreateForVertex adds a property keyed by name at the head of the
// vertex's property chain.
func (s *PropertyStore) CreateForVertex(v *core.Vertex, name string) (*core.Property, error) {
	p, err := s.create(name, v.FirstPropertyID)
	if err != nil {
		return nil, err
	}
	v.FirstPropertyID = p.ID
	s.vertices.Touch(v)
	return p, nil
}

// CreateForEdge adds a property keyed by name at the head of the
// edge's property chain.
func (s *PropertyStore) CreateForEdge(e *core.Edge, name string) (*core.Property, error) {
	p, err := s.create(name, e.FirstPropertyID)
	if err != nil {
		return nil, err
	}
	e.FirstPropertyID = p.ID
	s.edges.Touch(e)
	return p, nil
}

func (s *PropertyStore) create(name string, next core.PropertyID) (*core.Property, error) {
	id, err := s.nextID()
	if err != nil {
		return nil, err
	}
	p := &core.Property{ID: id}

	labelID, err := s.labels.AddLabel(name)
	if err != nil {
		s.addFreeID(p)
		return nil, utils.WrapError("interning property key", err)
	}

	p.LabelID = labelID
	p.NextPropertyID = next
	s.Touch(p)
	s.numProperties++
	return p, nil
}

// RemoveFromVertex unlinks a property from the vertex's chain and
// deletes it.
func (s *PropertyStore) RemoveFromVertex(v *core.Vertex, p *core.Property) error {
	newFirst, undo, err := s.unlink(v.FirstPropertyID, p)
	if err != nil {
		return err
	}
	if v.FirstPropertyID != newFirst {
		v.FirstPropertyID = newFirst
		s.vertices.Touch(v)
		old := p.ID
		undo.push(func() {
			v.FirstPropertyID = old
			s.vertices.Touch(v)
		})
	}
	return s.delete(p, undo)
}

// RemoveFromEdge unlinks a property from the edge's chain and deletes
// it.
func (s *PropertyStore) RemoveFromEdge(e *core.Edge, p *core.Property) error {
	newFirst, undo, err := s.unlink(e.FirstPropertyID, p)
	if err != nil {
		return err
	}
	if e.FirstPropertyID != newFirst {
		e.FirstPropertyID = newFirst
		s.edges.Touch(e)
		old := p.ID
		undo.push(func() {
			e.FirstPropertyID = old
			s.edges.Touch(e)
		})
	}
	return s.delete(p, undo)
}

// unlink splices p out of the chain starting at first and returns the
// new chain head. When p is not the head the predecessor is rewritten
// in place and the head is unchanged.
func (s *PropertyStore) unlink(first core.PropertyID, p *core.Property) (core.PropertyID, *undoStack, error) {
	undo := &undoStack{}
	if first == p.ID {
		return p.NextPropertyID, undo, nil
	}
	prev, err := s.Get(first)
	if err != nil {
		return 0, nil, utils.WrapError("walking property chain", err)
	}
	for prev.NextPropertyID != p.ID {
		prev, err = s.Get(prev.NextPropertyID)
		if err != nil {
			return 0, nil, utils.WrapError("walking property chain", err)
		}
	}
	link := prev
	link.NextPropertyID = p.NextPropertyID
	undo.push(func() { link.NextPropertyID = p.ID })
	s.Touch(link)
	return first, undo, nil
}

// delete releases a property's long text and key label, tombstones
// the record and returns its slot to the free list.
func (s *PropertyStore) delete(p *core.Property, undo *undoStack) error {
	if p.Type == core.PropTypeLongText {
		if err := s.texts.DeleteText(p.TextValueID()); err != nil {
			undo.unwind()
			return utils.WrapError("releasing property text", err)
		}
	}
	if err := s.labels.RemoveLabel(p.LabelID); err != nil {
		undo.unwind()
		return utils.WrapError("releasing property key", err)
	}

	p.LabelID = 0
	p.Type = core.PropTypeNothing
	s.addFreeID(p)
	s.numProperties--
	return nil
}

// SetTextValue stores a text value, inline when it fits in eight
// bytes, through the text store otherwise. A previously stored long
// text is released first.
func (s *PropertyStore) SetTextValue(p *core.Property, value string) error {
	if err := s.ClearTextValue(p); err != nil {
		return err
	}
	if len(value) <= core.MaxShortTextLen {
		p.SetShortText(value)
		s.Touch(p)
		return nil
	}
	id, err := s.texts.CreateText(value)
	if err != nil {
		return utils.WrapError("storing property text", err)
	}
	p.SetTextValueID(id)
	s.Touch(p)
	return nil
}

// ClearTextValue releases a long text value ahead of the property
// being retagged with a non-text type. Properties of any other type
// pass through untouched.
func (s *PropertyStore) ClearTextValue(p *core.Property) error {
	if p.Type != core.PropTypeLongText {
		return nil
	}
	if err := s.texts.DeleteText(p.TextValueID()); err != nil {
		return utils.WrapError("replacing property text", err)
	}
	return nil
}

// TextValue resolves a text property's value, inline or stored.
func (s *PropertyStore) TextValue(p *core.Property) (string, error) {
	if p.IsShortText() {
		return p.ShortText(), nil
	}
	t, err := s.texts.GetText(p.TextValueID())
	if err != nil {
		return "", utils.WrapError("loading property text", err)
	}
	return s.texts.LoadValue(t)
}

// nextID pops the free list, minting a new id at the frontier when
// the list is empty. Freed slots store the next free id in their
// next-property field.
func (s *PropertyStore) nextID() (core.PropertyID, error) {
	id := s.nextFreeID
	switch {
	case s.nextFreeID == s.lastFreeID:
		s.nextFreeID++
		s.lastFreeID++
	default:
		if p, ok := s.cache[id]; ok {
			s.nextFreeID = p.NextPropertyID
			break
		}
		raw, err := s.file.ReadUint32(s.idOffset(id) + 4)
		if err != nil {
			return 0, utils.WrapError("reading property free list", err)
		}
		s.nextFreeID = core.PropertyID(raw)
	}
	return id, nil
}

// addFreeID pushes a reclaimed slot onto the free list.
func (s *PropertyStore) addFreeID(p *core.Property) {
	p.NextPropertyID = s.nextFreeID
	s.nextFreeID = p.ID
	s.Touch(p)
}

// Flush writes dirty records and the store header. If a dirty id does
// not fit in the store's region, the records written so far stay
// written, the rest stay dirty and ErrNeedsResize is returned.
func (s *PropertyStore) Flush() error {
	if len(s.dirty) == 0 {
		return nil
	}
	ids := make([]core.PropertyID, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	maxID := core.PropertyID((s.size - propertyStoreHeaderSize) / core.PropertySize)
	for _, id := range ids {
		if id > maxID {
			return ErrNeedsResize
		}
		p := s.cache[id]
		if err := s.file.WriteBytes(p.Encode(), s.idOffset(id)); err != nil {
			return utils.WrapError("writing property record", err)
		}
		delete(s.dirty, id)
	}
	return s.writeHeader()
}

func (s *PropertyStore) writeHeader() error {
	var buf [propertyStoreHeaderSize]byte
	binary.BigEndian.PutUint32(buf[0:4], s.numProperties)
	binary.BigEndian.PutUint32(buf[4:8], uint32(s.nextFreeID))
	binary.BigEndian.PutUint32(buf[8:12], uint32(s.lastFreeID))
	if err := s.file.WriteBytes(buf[:], int64(s.offset)); err != nil {
		return utils.WrapError("writing property store header", err)
	}
	return nil
}
