package store

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/fabricdb/fabric/internal/blockio"
	"github.com/fabricdb/fabric/internal/core"
	"github.com/fabricdb/fabric/internal/utils"
)

// labelStoreHeaderSize covers the label count and the free-list head
// and tail (12 bytes, three big-endian uint32s).
const labelStoreHeaderSize = 12

// LabelStore interns names. AddLabel returns the existing label for a
// name that is already stored, bumping its reference count; a label
// whose last reference is removed is reclaimed along with its text.
type LabelStore struct {
	file   *blockio.File
	offset uint32
	size   uint32

	numLabels  uint32
	nextFreeID core.LabelID
	lastFreeID core.LabelID

	cache map[core.LabelID]*core.Label
	dirty map[core.LabelID]struct{}

	texts   *TextStore
	indexes *IndexStore
}

// Init attaches the store to its file region, reads the header and
// wires the collaborating stores.
func (s *LabelStore) Init(f *blockio.File, offset, size uint32, texts *TextStore, indexes *IndexStore) error {
	s.file = f
	s.offset = offset
	s.size = size
	s.texts = texts
	s.indexes = indexes
	s.cache = make(map[core.LabelID]*core.Label)
	s.dirty = make(map[core.LabelID]struct{})

	var buf [labelStoreHeaderSize]byte
	if err := f.ReadBytes(buf[:], int64(offset)); err != nil {
		return utils.WrapError("reading label store header", err)
	}
	s.numLabels = binary.BigEndian.Uint32(buf[0:4])
	s.nextFreeID = core.LabelID(binary.BigEndian.Uint32(buf[4:8]))
	s.lastFreeID = core.LabelID(binary.BigEndian.Uint32(buf[8:12]))
	return nil
}

// Offset returns the store's position in the graph file.
func (s *LabelStore) Offset() uint32 { return s.offset }

// NumLabels returns the number of live labels.
func (s *LabelStore) NumLabels() uint32 { return s.numLabels }

// idOffset computes a slot's file position in 64-bit arithmetic so a
// large id cannot wrap back into the store's region.
func (s *LabelStore) idOffset(id core.LabelID) int64 {
	return int64(s.offset) + labelStoreHeaderSize + int64(id-1)*core.LabelSize
}

// Get returns the label with the given id, reading it into the cache
// on first access. Free slots report ErrLabelNotFound.
func (s *LabelStore) Get(id core.LabelID) (*core.Label, error) {
	if l, ok := s.cache[id]; ok {
		if !l.InUse() {
			return nil, ErrLabelNotFound
		}
		return l, nil
	}
	if id < 1 {
		return nil, ErrInvalidID
	}
	off := s.idOffset(id)
	if off+core.LabelSize > int64(s.offset)+int64(s.size) {
		return nil, ErrInvalidID
	}
	var buf [core.LabelSize]byte
	if err := s.file.ReadBytes(buf[:], off); err != nil {
		return nil, utils.WrapError("reading label record", err)
	}
	l, err := core.DecodeLabel(id, buf[:])
	if err != nil {
		return nil, err
	}
	s.cache[id] = l
	if !l.InUse() {
		return nil, ErrLabelNotFound
	}
	return l, nil
}

// GetByName returns the label interning the given name.
func (s *LabelStore) GetByName(name string) (*core.Label, error) {
	id := s.indexes.LabelIDByName(name)
	if id == 0 {
		return nil, ErrLabelNotFound
	}
	return s.Get(id)
}

// Name resolves a label's interned text.
func (s *LabelStore) Name(l *core.Label) (string, error) {
	t, err := s.texts.GetText(l.TextID)
	if err != nil {
		return "", utils.WrapError("resolving label text", err)
	}
	return s.texts.LoadValue(t)
}

// Touch registers a label mutation so the next flush writes it out.
func (s *LabelStore) Touch(l *core.Label) {
	s.cache[l.ID] = l
	s.dirty[l.ID] = struct{}{}
}

// AddLabel interns a name. An existing label gains a reference; a new
// one is created with its text and indexed.
func (s *LabelStore) AddLabel(name string) (core.LabelID, error) {
	l, err := s.GetByName(name)
	if err == nil {
		l.AddRef()
		s.Touch(l)
		return l.ID, nil
	}
	if !errors.Is(err, ErrLabelNotFound) {
		return 0, err
	}

	id, err := s.nextID()
	if err != nil {
		return 0, err
	}
	l = &core.Label{ID: id}
	var undo undoStack
	undo.push(func() { s.addFreeID(l) })

	textID, err := s.texts.CreateText(name)
	if err != nil {
		undo.unwind()
		return 0, utils.WrapError("storing label text", err)
	}

	l.TextID = textID
	l.Refs = 1
	s.indexes.AddLabel(name, id)
	s.Touch(l)
	s.numLabels++
	return id, nil
}

// RemoveLabel drops one reference. The label and its text are
// reclaimed when no references remain.
func (s *LabelStore) RemoveLabel(id core.LabelID) error {
	l, err := s.Get(id)
	if errors.Is(err, ErrLabelNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	l.RemoveRef()
	s.Touch(l)
	if l.HasRefs() {
		return nil
	}

	name, indexed := s.indexes.RemoveLabel(id)
	if err := s.texts.DeleteText(l.TextID); err != nil {
		if indexed {
			s.indexes.AddLabel(name, id)
		}
		l.AddRef()
		return utils.WrapError("reclaiming label text", err)
	}
	l.TextID = 0
	s.addFreeID(l)
	s.numLabels--
	return nil
}

// nextID pops the free list, minting a new id at the frontier when
// the list is empty. Freed slots store the next free id in their refs
// field.
func (s *LabelStore) nextID() (core.LabelID, error) {
	id := s.nextFreeID
	switch {
	case s.nextFreeID == s.lastFreeID:
		s.nextFreeID++
		s.lastFreeID++
	default:
		if l, ok := s.cache[id]; ok {
			s.nextFreeID = core.LabelID(l.Refs)
			break
		}
		v, err := s.file.ReadUint32(s.idOffset(id) + 4)
		if err != nil {
			return 0, utils.WrapError("reading label free list", err)
		}
		s.nextFreeID = core.LabelID(v)
	}
	return id, nil
}

// addFreeID pushes a reclaimed slot onto the free list.
func (s *LabelStore) addFreeID(l *core.Label) {
	l.Refs = uint32(s.nextFreeID)
	s.nextFreeID = l.ID
	s.Touch(l)
}

// Flush writes dirty records and the store header. If a dirty id does
// not fit in the store's region, the records written so far stay
// written, the rest stay dirty and ErrNeedsResize is returned.
func (s *LabelStore) Flush() error {
	if len(s.dirty) == 0 {
		return nil
	}
	ids := make([]core.LabelID, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	maxID := core.LabelID((s.size - labelStoreHeaderSize) / core.LabelSize)
	for _, id := range ids {
		if id > maxID {
			return ErrNeedsResize
		}
		l := s.cache[id]
		if err := s.file.WriteBytes(l.Encode(), s.idOffset(id)); err != nil {
			return utils.WrapError("writing label record", err)
		}
		delete(s.dirty, id)
	}
	return s.writeHeader()
}

func (s *LabelStore) writeHeader() error {
	var buf [labelStoreHeaderSize]byte
	binary.BigEndian.PutUint32(buf[0:4], s.numLabels)
	binary.BigEndian.PutUint32(buf[4:8], uint32(s.nextFreeID))
	binary.BigEndian.PutUint32(buf[8:12], uint32(s.lastFreeID))
	if err := s.file.WriteBytes(buf[:], int64(s.offset)); err != nil {
		return utils.WrapError("writing label store header", err)
	}
	return nil
}
