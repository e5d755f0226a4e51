package core

// Index kinds. The class and label name indexes are built in; id
// indexes are allocated per concrete class.
const (
	IndexTypeUnused uint8 = 0x00
	IndexTypeClass  uint8 = 0x01
	IndexTypeLabel  uint8 = 0x02
	IndexTypeID     uint8 = 0x03
)

// Well-known index ids.
const (
	ClassIndexID IndexID = 1
	LabelIndexID IndexID = 2
	EdgeIndexID  IndexID = 3
)

// Index describes one index registered with the index store.
type Index struct {
	ID   IndexID
	Type uint8
}
