package store

import (
	"encoding/binary"

	"github.com/fabricdb/fabric/internal/blockio"
	"github.com/fabricdb/fabric/internal/core"
	"github.com/fabricdb/fabric/internal/utils"
)

// textStoreHeaderSize covers the text count plus the allocation
// frontier and its mirror (12 bytes, three big-endian uint32s).
const textStoreHeaderSize = 12

// TextStore manages variable-length strings. Texts live in fixed-size
// blocks; a text id addresses its first block and the value spans as
// many consecutive blocks as the 4-byte size header plus the body
// need.
//
// Unlike the record stores, deleted text ids are not recycled: a
// freed span rarely matches the size of the next value, so reuse
// would fragment the store without a compactor. Deletion zeroes the
// size header, which reads back as not-found, and allocation always
// happens at the frontier.
type TextStore struct {
	file      *blockio.File
	offset    uint32
	size      uint32
	blockSize uint32

	numTexts   uint32
	nextFreeID core.TextID
	lastFreeID core.TextID

	dirty bool
}

// Init attaches the store to its file region and reads the header.
func (s *TextStore) Init(f *blockio.File, offset, size, blockSize uint32) error {
	s.file = f
	s.offset = offset
	s.size = size
	s.blockSize = blockSize

	var buf [textStoreHeaderSize]byte
	if err := f.ReadBytes(buf[:], int64(offset)); err != nil {
		return utils.WrapError("reading text store header", err)
	}
	s.numTexts = binary.BigEndian.Uint32(buf[0:4])
	s.nextFreeID = core.TextID(binary.BigEndian.Uint32(buf[4:8]))
	s.lastFreeID = core.TextID(binary.BigEndian.Uint32(buf[8:12]))
	return nil
}

// Offset returns the store's position in the graph file.
func (s *TextStore) Offset() uint32 { return s.offset }

// BlockSize returns the block granularity of the store.
func (s *TextStore) BlockSize() uint32 { return s.blockSize }

// NumTexts returns the number of live texts.
func (s *TextStore) NumTexts() uint32 { return s.numTexts }

// blockOffset computes a block's file position in 64-bit arithmetic
// so a large id cannot wrap back into the store's region.
func (s *TextStore) blockOffset(id core.TextID) int64 {
	return int64(s.offset) + textStoreHeaderSize + int64(id-1)*int64(s.blockSize)
}

// blocksFor returns the number of blocks a value occupies, header
// included.
func (s *TextStore) blocksFor(size uint32) uint32 {
	return (size+core.TextSize)/s.blockSize + 1
}

// CreateText stores a new value and returns its id.
func (s *TextStore) CreateText(value string) (core.TextID, error) {
	if value == "" {
		return 0, ErrEmptyText
	}
	blocks := s.blocksFor(uint32(len(value)))
	id := s.nextFreeID
	end := s.blockOffset(id) + int64(blocks)*int64(s.blockSize)
	if end > int64(s.offset)+int64(s.size) {
		return 0, ErrNeedsResize
	}

	buf := utils.GetBuffer(core.TextSize + len(value))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(value)))
	copy(buf[4:], value)
	err := s.file.WriteBytes(buf, s.blockOffset(id))
	utils.ReleaseBuffer(buf)
	if err != nil {
		return 0, utils.WrapError("writing text", err)
	}

	s.nextFreeID += core.TextID(blocks)
	s.lastFreeID = s.nextFreeID
	s.numTexts++
	s.dirty = true
	return id, nil
}

// GetText loads a text header. The value stays unloaded until
// LoadValue is called.
func (s *TextStore) GetText(id core.TextID) (*core.Text, error) {
	if id < 1 {
		return nil, ErrInvalidID
	}
	off := s.blockOffset(id)
	if off+core.TextSize > int64(s.offset)+int64(s.size) {
		return nil, ErrInvalidID
	}
	var buf [core.TextSize]byte
	if err := s.file.ReadBytes(buf[:], off); err != nil {
		return nil, utils.WrapError("reading text header", err)
	}
	t, err := core.DecodeText(id, buf[:])
	if err != nil {
		return nil, err
	}
	if t.Size == 0 {
		return nil, ErrTextNotFound
	}
	return t, nil
}

// LoadValue reads a text's body from the store and fills it in.
func (s *TextStore) LoadValue(t *core.Text) (string, error) {
	if v, err := t.Value(); err == nil {
		return v, nil
	}
	buf := make([]byte, t.Size)
	if err := s.file.ReadBytes(buf, s.blockOffset(t.ID)+core.TextSize); err != nil {
		return "", utils.WrapError("reading text value", err)
	}
	v := string(buf)
	t.SetValue(v)
	return v, nil
}

// DeleteText tombstones a text. Its blocks are not reclaimed.
func (s *TextStore) DeleteText(id core.TextID) error {
	if _, err := s.GetText(id); err != nil {
		return err
	}
	if err := s.file.WriteUint32(0, s.blockOffset(id)); err != nil {
		return utils.WrapError("deleting text", err)
	}
	s.numTexts--
	s.dirty = true
	return nil
}

// Flush writes the store header if it changed.
func (s *TextStore) Flush() error {
	if !s.dirty {
		return nil
	}
	var buf [textStoreHeaderSize]byte
	binary.BigEndian.PutUint32(buf[0:4], s.numTexts)
	binary.BigEndian.PutUint32(buf[4:8], uint32(s.nextFreeID))
	binary.BigEndian.PutUint32(buf[8:12], uint32(s.lastFreeID))
	if err := s.file.WriteBytes(buf[:], int64(s.offset)); err != nil {
		return utils.WrapError("writing text store header", err)
	}
	s.dirty = false
	return nil
}
