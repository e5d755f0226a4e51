// Package store implements the seven entity stores a graph file is
// divided into. Every record store follows the same protocol: a small
// header (record count plus the free-list head and tail), fixed-size
// record slots addressed by id, a write-back cache of decoded
// entities, a dirty set of ids whose cached state differs from disk,
// and a LIFO free list of deleted ids threaded through a repurposed
// field of the stored records themselves.
package store

import "errors"

var (
	// ErrInvalidID reports an id outside the store's slot range.
	ErrInvalidID = errors.New("id out of store range")

	// ErrNeedsResize reports a flush that ran out of slot space.
	// Dirty records that fit were written; the rest stay dirty.
	ErrNeedsResize = errors.New("store needs resize before flush can complete")

	ErrClassNotFound    = errors.New("class does not exist")
	ErrLabelNotFound    = errors.New("label does not exist")
	ErrVertexNotFound   = errors.New("vertex does not exist")
	ErrEdgeNotFound     = errors.New("edge does not exist")
	ErrPropertyNotFound = errors.New("property does not exist")
	ErrTextNotFound     = errors.New("text does not exist")
	ErrIndexNotFound    = errors.New("index does not exist")

	// ErrDuplicateClassName reports a create with an already-taken
	// class name.
	ErrDuplicateClassName = errors.New("class name already in use")

	// ErrHasChildren guards class deletion: subclasses must go first.
	ErrHasChildren = errors.New("class has child classes")

	// ErrHasMembers guards class deletion: member vertices must go
	// first.
	ErrHasMembers = errors.New("class has member vertices")

	// ErrVertexHasEdges guards vertex deletion.
	ErrVertexHasEdges = errors.New("vertex still has edges")

	// ErrVertexHasProperties guards vertex deletion.
	ErrVertexHasProperties = errors.New("vertex still has properties")

	// ErrEdgeHasProperties guards edge deletion.
	ErrEdgeHasProperties = errors.New("edge still has properties")

	// ErrRootClass guards class deletion: the hierarchy root is
	// permanent.
	ErrRootClass = errors.New("the root class cannot be deleted")

	// ErrEmptyText reports an attempt to store an empty string; empty
	// text is represented inline by its property type tag instead.
	ErrEmptyText = errors.New("empty text is not stored")
)

// isNotFound reports whether err marks a free slot rather than a
// real failure.
func isNotFound(err error) bool {
	return errors.Is(err, ErrClassNotFound) || errors.Is(err, ErrLabelNotFound)
}
