package store

import (
	"github.com/fabricdb/fabric/internal/core"
	"github.com/fabricdb/fabric/internal/utils"
)

// IndexStore answers name lookups for classes and labels and tracks
// the per-class id indexes. The on-disk region reserved for index
// pages is addressed by the graph header but not yet populated; the
// maps here are rebuilt from the record stores when a graph loads,
// which keeps lookups exact without a page format.
type IndexStore struct {
	offset    uint32
	pageSize  uint32
	pageCount uint32

	registry   map[core.IndexID]*core.Index
	nextID     core.IndexID
	classNames map[string]core.ClassID
	classIDs   map[core.ClassID]string
	labelNames map[string]core.LabelID
	labelIDs   map[core.LabelID]string
}

// Init prepares the store. The built-in class, label and edge indexes
// are always registered.
func (s *IndexStore) Init(offset, pageSize, pageCount uint32) {
	s.offset = offset
	s.pageSize = pageSize
	s.pageCount = pageCount
	s.registry = map[core.IndexID]*core.Index{
		core.ClassIndexID: {ID: core.ClassIndexID, Type: core.IndexTypeClass},
		core.LabelIndexID: {ID: core.LabelIndexID, Type: core.IndexTypeLabel},
		core.EdgeIndexID:  {ID: core.EdgeIndexID, Type: core.IndexTypeLabel},
	}
	s.nextID = core.EdgeIndexID + 1
	s.classNames = make(map[string]core.ClassID)
	s.classIDs = make(map[core.ClassID]string)
	s.labelNames = make(map[string]core.LabelID)
	s.labelIDs = make(map[core.LabelID]string)
}

// Offset returns the store's position in the graph file.
func (s *IndexStore) Offset() uint32 { return s.offset }

// PageSize returns the configured index page size.
func (s *IndexStore) PageSize() uint32 { return s.pageSize }

// PageCount returns the number of allocated index pages.
func (s *IndexStore) PageCount() uint32 { return s.pageCount }

// GetIndex returns a registered index by id.
func (s *IndexStore) GetIndex(id core.IndexID) (*core.Index, error) {
	if id < 1 {
		return nil, ErrInvalidID
	}
	idx, ok := s.registry[id]
	if !ok {
		return nil, ErrIndexNotFound
	}
	return idx, nil
}

// CreateIDIndex allocates an id index for a concrete class.
func (s *IndexStore) CreateIDIndex(classID core.ClassID) (core.IndexID, error) {
	id := s.nextID
	s.nextID++
	s.registry[id] = &core.Index{ID: id, Type: core.IndexTypeID}
	return id, nil
}

// DeleteIDIndex drops an id index.
func (s *IndexStore) DeleteIDIndex(id core.IndexID) error {
	if _, ok := s.registry[id]; !ok {
		return ErrIndexNotFound
	}
	delete(s.registry, id)
	return nil
}

// ClassIDByName returns the id of the named class, 0 if unknown.
func (s *IndexStore) ClassIDByName(name string) core.ClassID {
	return s.classNames[name]
}

// AddClass indexes a class under its name.
func (s *IndexStore) AddClass(name string, id core.ClassID) {
	s.classNames[name] = id
	s.classIDs[id] = name
}

// RemoveClass drops a class from the name index, returning the name
// it was indexed under.
func (s *IndexStore) RemoveClass(id core.ClassID) (string, bool) {
	name, ok := s.classIDs[id]
	if !ok {
		return "", false
	}
	delete(s.classIDs, id)
	delete(s.classNames, name)
	return name, true
}

// LabelIDByName returns the id of the named label, 0 if unknown.
func (s *IndexStore) LabelIDByName(name string) core.LabelID {
	return s.labelNames[name]
}

// AddLabel indexes a label under its name.
func (s *IndexStore) AddLabel(name string, id core.LabelID) {
	s.labelNames[name] = id
	s.labelIDs[id] = name
}

// RemoveLabel drops a label from the name index.
func (s *IndexStore) RemoveLabel(id core.LabelID) (string, bool) {
	name, ok := s.labelIDs[id]
	if !ok {
		return "", false
	}
	delete(s.labelIDs, id)
	delete(s.labelNames, name)
	return name, true
}

// Rebuild repopulates the name indexes by scanning the class and
// label stores. Free slots are skipped; id indexes referenced by
// classes are re-registered.
func (s *IndexStore) Rebuild(classes *ClassStore, labels *LabelStore) error {
	for id := core.LabelID(1); id < labels.lastFreeID; id++ {
		l, err := labels.Get(id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return utils.WrapError("rebuilding label index", err)
		}
		name, err := labels.Name(l)
		if err != nil {
			return utils.WrapError("rebuilding label index", err)
		}
		s.AddLabel(name, id)
	}

	for id := core.ClassID(1); id < classes.lastFreeID; id++ {
		c, err := classes.Get(id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return utils.WrapError("rebuilding class index", err)
		}
		name, ok := s.labelIDs[c.LabelID]
		if !ok {
			return utils.WrapError("rebuilding class index", ErrLabelNotFound)
		}
		s.AddClass(name, id)

		if c.FirstIndexID != 0 {
			s.registry[c.FirstIndexID] = &core.Index{ID: c.FirstIndexID, Type: core.IndexTypeID}
			if c.FirstIndexID >= s.nextID {
				s.nextID = c.FirstIndexID + 1
			}
		}
	}
	return nil
}
