package store

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/fabricdb/fabric/internal/blockio"
	"github.com/fabricdb/fabric/internal/core"
	"github.com/fabricdb/fabric/internal/utils"
)

// classStoreHeaderSize covers the class count and the free-list head
// and tail (6 bytes, three big-endian uint16s).
const classStoreHeaderSize = 6

// ClassStore manages the class hierarchy. Classes form a tree rooted
// at id 1: each class points at its parent, its first child and its
// next sibling. Creating a class interns its name as a label and, for
// concrete classes, allocates an id index; deleting reverses both.
type ClassStore struct {
	file   *blockio.File
	offset uint32
	size   uint32

	numClasses uint16
	nextFreeID core.ClassID
	lastFreeID core.ClassID

	cache map[core.ClassID]*core.Class
	dirty map[core.ClassID]struct{}

	labels  *LabelStore
	indexes *IndexStore
}

// Init attaches the store to its file region, reads the header and
// wires the collaborating stores.
func (s *ClassStore) Init(f *blockio.File, offset, size uint32, labels *LabelStore, indexes *IndexStore) error {
	s.file = f
	s.offset = offset
	s.size = size
	s.labels = labels
	s.indexes = indexes
	s.cache = make(map[core.ClassID]*core.Class)
	s.dirty = make(map[core.ClassID]struct{})

	var buf [classStoreHeaderSize]byte
	if err := f.ReadBytes(buf[:], int64(offset)); err != nil {
		return utils.WrapError("reading class store header", err)
	}
	s.numClasses = binary.BigEndian.Uint16(buf[0:2])
	s.nextFreeID = core.ClassID(binary.BigEndian.Uint16(buf[2:4]))
	s.lastFreeID = core.ClassID(binary.BigEndian.Uint16(buf[4:6]))
	return nil
}

// Offset returns the store's position in the graph file.
func (s *ClassStore) Offset() uint32 { return s.offset }

// NumClasses returns the number of live classes.
func (s *ClassStore) NumClasses() uint16 { return s.numClasses }

// idOffset computes a slot's file position in 64-bit arithmetic so a
// large id cannot wrap back into the store's region.
func (s *ClassStore) idOffset(id core.ClassID) int64 {
	return int64(s.offset) + classStoreHeaderSize + int64(id-1)*core.ClassSize
}

// Get returns the class with the given id, reading it into the cache
// on first access. Free slots report ErrClassNotFound.
func (s *ClassStore) Get(id core.ClassID) (*core.Class, error) {
	if c, ok := s.cache[id]; ok {
		if !c.InUse() {
			return nil, ErrClassNotFound
		}
		return c, nil
	}
	if id < 1 {
		return nil, ErrInvalidID
	}
	off := s.idOffset(id)
	if off+core.ClassSize > int64(s.offset)+int64(s.size) {
		return nil, ErrInvalidID
	}
	var buf [core.ClassSize]byte
	if err := s.file.ReadBytes(buf[:], off); err != nil {
		return nil, utils.WrapError("reading class record", err)
	}
	c, err := core.DecodeClass(id, buf[:])
	if err != nil {
		return nil, err
	}
	s.cache[id] = c
	if !c.InUse() {
		return nil, ErrClassNotFound
	}
	return c, nil
}

// GetByName returns the class with the given name.
func (s *ClassStore) GetByName(name string) (*core.Class, error) {
	id := s.indexes.ClassIDByName(name)
	if id == 0 {
		return nil, ErrClassNotFound
	}
	return s.Get(id)
}

// Name resolves a class's name through its label.
func (s *ClassStore) Name(c *core.Class) (string, error) {
	l, err := s.labels.Get(c.LabelID)
	if err != nil {
		return "", utils.WrapError("resolving class label", err)
	}
	return s.labels.Name(l)
}

// Touch registers a class mutation so the next flush writes it out.
func (s *ClassStore) Touch(c *core.Class) {
	s.cache[c.ID] = c
	s.dirty[c.ID] = struct{}{}
}

// CreateRoot creates the hierarchy root (parent 0). Used once, when a
// graph file is bootstrapped.
func (s *ClassStore) CreateRoot(name string) (*core.Class, error) {
	id, err := s.nextID()
	if err != nil {
		return nil, err
	}
	c := &core.Class{ID: id}

	labelID, err := s.labels.AddLabel(name)
	if err != nil {
		s.addFreeID(c)
		return nil, utils.WrapError("interning root class name", err)
	}
	indexID, err := s.indexes.CreateIDIndex(id)
	if err != nil {
		_ = s.labels.RemoveLabel(labelID)
		s.addFreeID(c)
		return nil, utils.WrapError("creating root id index", err)
	}

	c.LabelID = labelID
	c.FirstIndexID = indexID
	c.Incrementer = 1
	s.Touch(c)
	s.indexes.AddClass(name, id)
	s.numClasses++
	return c, nil
}

// Create adds a class extending the given parent. Abstract classes
// get no id index. Any step failing rolls every earlier step back.
func (s *ClassStore) Create(extends *core.Class, name string, isAbstract bool) (*core.Class, error) {
	_, err := s.GetByName(name)
	if err == nil {
		return nil, ErrDuplicateClassName
	}
	if !errors.Is(err, ErrClassNotFound) {
		return nil, err
	}

	id, err := s.nextID()
	if err != nil {
		return nil, err
	}
	c := &core.Class{ID: id}
	var undo undoStack
	undo.push(func() { s.addFreeID(c) })

	labelID, err := s.labels.AddLabel(name)
	if err != nil {
		undo.unwind()
		return nil, utils.WrapError("interning class name", err)
	}
	undo.push(func() { _ = s.labels.RemoveLabel(labelID) })

	var indexID core.IndexID
	if !isAbstract {
		indexID, err = s.indexes.CreateIDIndex(id)
		if err != nil {
			undo.unwind()
			return nil, utils.WrapError("creating class id index", err)
		}
	}

	c.LabelID = labelID
	c.ParentID = extends.ID
	c.NextChildID = extends.FirstChildID
	c.FirstIndexID = indexID
	c.Incrementer = 1
	c.IsAbstract = isAbstract
	extends.FirstChildID = id

	s.Touch(c)
	s.Touch(extends)
	s.indexes.AddClass(name, id)
	s.numClasses++
	return c, nil
}

// Delete removes a class. The root and any class with subclasses or
// member vertices are refused; every guard leaves the store untouched.
// The class is spliced out of its parent's child list, its name
// reference dropped and its slot returned to the free list.
func (s *ClassStore) Delete(c *core.Class) error {
	if !c.InUse() {
		return nil
	}
	if !c.HasParent() {
		return ErrRootClass
	}
	if c.HasChildren() {
		return ErrHasChildren
	}
	if c.HasMembers() {
		return ErrHasMembers
	}

	parent, err := s.Get(c.ParentID)
	if err != nil {
		return utils.WrapError("loading parent class", err)
	}

	var undo undoStack
	if parent.FirstChildID == c.ID {
		parent.FirstChildID = c.NextChildID
		undo.push(func() { parent.FirstChildID = c.ID })
		s.Touch(parent)
	} else {
		sibling, err := s.Get(parent.FirstChildID)
		if err != nil {
			return utils.WrapError("walking sibling classes", err)
		}
		for sibling.NextChildID != c.ID {
			sibling, err = s.Get(sibling.NextChildID)
			if err != nil {
				return utils.WrapError("walking sibling classes", err)
			}
		}
		next := c.NextChildID
		sibling.NextChildID = next
		undo.push(func() { sibling.NextChildID = c.ID })
		s.Touch(sibling)
	}

	name, indexed := s.indexes.RemoveClass(c.ID)
	undo.push(func() {
		if indexed {
			s.indexes.AddClass(name, c.ID)
		}
	})
	if c.FirstIndexID != 0 {
		if err := s.indexes.DeleteIDIndex(c.FirstIndexID); err != nil {
			undo.unwind()
			return utils.WrapError("dropping class id index", err)
		}
		undo.push(func() {
			s.indexes.registry[c.FirstIndexID] = &core.Index{ID: c.FirstIndexID, Type: core.IndexTypeID}
		})
	}
	if err := s.labels.RemoveLabel(c.LabelID); err != nil {
		undo.unwind()
		return utils.WrapError("releasing class name", err)
	}

	c.LabelID = 0
	s.addFreeID(c)
	s.numClasses--
	return nil
}

// ChildClasses returns the direct subclasses in sibling-list order.
func (s *ClassStore) ChildClasses(c *core.Class) ([]*core.Class, error) {
	var children []*core.Class
	id := c.FirstChildID
	for id != 0 {
		child, err := s.Get(id)
		if err != nil {
			return nil, utils.WrapError("walking child classes", err)
		}
		children = append(children, child)
		id = child.NextChildID
	}
	return children, nil
}

// DescendantClasses returns every class below c in the hierarchy.
func (s *ClassStore) DescendantClasses(c *core.Class) ([]*core.Class, error) {
	var all []*core.Class
	queue := []*core.Class{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		children, err := s.ChildClasses(cur)
		if err != nil {
			return nil, err
		}
		all = append(all, children...)
		queue = append(queue, children...)
	}
	return all, nil
}

// TotalCount returns the member count of a class including every
// descendant class.
func (s *ClassStore) TotalCount(c *core.Class) (uint32, error) {
	total := c.Count
	descendants, err := s.DescendantClasses(c)
	if err != nil {
		return 0, err
	}
	for _, d := range descendants {
		total += d.Count
	}
	return total, nil
}

// nextID pops the free list, minting a new id at the frontier when
// the list is empty. Freed slots store the next free id in their
// parent field.
func (s *ClassStore) nextID() (core.ClassID, error) {
	id := s.nextFreeID
	switch {
	case s.nextFreeID == s.lastFreeID:
		s.nextFreeID++
		s.lastFreeID++
	default:
		if c, ok := s.cache[id]; ok {
			s.nextFreeID = c.ParentID
			break
		}
		v, err := s.file.ReadUint16(s.idOffset(id) + 4)
		if err != nil {
			return 0, utils.WrapError("reading class free list", err)
		}
		s.nextFreeID = core.ClassID(v)
	}
	return id, nil
}

// addFreeID pushes a reclaimed slot onto the free list.
func (s *ClassStore) addFreeID(c *core.Class) {
	c.ParentID = s.nextFreeID
	s.nextFreeID = c.ID
	s.Touch(c)
}

// Flush writes dirty records and the store header. If a dirty id does
// not fit in the store's region, the records written so far stay
// written, the rest stay dirty and ErrNeedsResize is returned.
func (s *ClassStore) Flush() error {
	if len(s.dirty) == 0 {
		return nil
	}
	ids := make([]core.ClassID, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	maxID := core.ClassID((s.size - classStoreHeaderSize) / core.ClassSize)
	for _, id := range ids {
		if id > maxID {
			return ErrNeedsResize
		}
		c := s.cache[id]
		if err := s.file.WriteBytes(c.Encode(), s.idOffset(id)); err != nil {
			return utils.WrapError("writing class record", err)
		}
		delete(s.dirty, id)
	}
	return s.writeHeader()
}

func (s *ClassStore) writeHeader() error {
	var buf [classStoreHeaderSize]byte
	binary.BigEndian.PutUint16(buf[0:2], s.numClasses)
	binary.BigEndian.PutUint16(buf[2:4], uint16(s.nextFreeID))
	binary.BigEndian.PutUint16(buf[4:6], uint16(s.lastFreeID))
	if err := s.file.WriteBytes(buf[:], int64(s.offset)); err != nil {
		return utils.WrapError("writing class store header", err)
	}
	return nil
}
