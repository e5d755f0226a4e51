package fabric

import (
	"errors"

	"github.com/fabricdb/fabric/internal/store"
)

// Errors reported while opening a graph file.
var (
	// ErrNotFabricFile reports a file that does not start with the
	// FabricDB header string.
	ErrNotFabricFile = errors.New("not a fabricdb file")

	// ErrUnsupportedVersion reports a graph file written by an
	// incompatible library version.
	ErrUnsupportedVersion = errors.New("unsupported fabricdb file version")
)

// ErrUnsupportedValueType reports a property value of a Go type the
// format cannot represent.
var ErrUnsupportedValueType = errors.New("unsupported property value type")

// Store errors, re-exported so callers can match them with errors.Is.
var (
	ErrInvalidID           = store.ErrInvalidID
	ErrNeedsResize         = store.ErrNeedsResize
	ErrClassNotFound       = store.ErrClassNotFound
	ErrLabelNotFound       = store.ErrLabelNotFound
	ErrVertexNotFound      = store.ErrVertexNotFound
	ErrEdgeNotFound        = store.ErrEdgeNotFound
	ErrPropertyNotFound    = store.ErrPropertyNotFound
	ErrTextNotFound        = store.ErrTextNotFound
	ErrDuplicateClassName  = store.ErrDuplicateClassName
	ErrRootClass           = store.ErrRootClass
	ErrHasChildren         = store.ErrHasChildren
	ErrHasMembers          = store.ErrHasMembers
	ErrVertexHasEdges      = store.ErrVertexHasEdges
	ErrVertexHasProperties = store.ErrVertexHasProperties
	ErrEdgeHasProperties   = store.ErrEdgeHasProperties
)
