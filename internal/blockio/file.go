// Package blockio provides positioned big-endian access to the byte
// regions of a graph file. All multi-byte values in a FabricDB file
// are stored big-endian, so every numeric helper here encodes and
// decodes in that order.
package blockio

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/fabricdb/fabric/internal/utils"
)

// Device is the storage a graph file lives on. An *os.File satisfies
// it; tests use MemFile.
type Device interface {
	io.ReaderAt
	io.WriterAt
}

// File wraps a Device with offset-addressed big-endian accessors.
type File struct {
	dev Device
}

// New creates a File over the given device.
func New(dev Device) *File {
	return &File{dev: dev}
}

// ReadBytes fills dst with the bytes stored at offset.
func (f *File) ReadBytes(dst []byte, offset int64) error {
	n, err := f.dev.ReadAt(dst, offset)
	if n == len(dst) {
		// ReadAt may return io.EOF alongside a full read.
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return utils.WrapError("short read from graph file", err)
}

// ReadUint16 reads a big-endian uint16 stored at offset.
func (f *File) ReadUint16(offset int64) (uint16, error) {
	var buf [2]byte
	if err := f.ReadBytes(buf[:], offset); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// ReadUint32 reads a big-endian uint32 stored at offset.
func (f *File) ReadUint32(offset int64) (uint32, error) {
	var buf [4]byte
	if err := f.ReadBytes(buf[:], offset); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// WriteBytes stores src at offset.
func (f *File) WriteBytes(src []byte, offset int64) error {
	n, err := f.dev.WriteAt(src, offset)
	if err != nil {
		return utils.WrapError("writing graph file", err)
	}
	if n != len(src) {
		return utils.WrapError("writing graph file", io.ErrShortWrite)
	}
	return nil
}

// WriteUint16 stores v big-endian at offset.
func (f *File) WriteUint16(v uint16, offset int64) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return f.WriteBytes(buf[:], offset)
}

// WriteUint32 stores v big-endian at offset.
func (f *File) WriteUint32(v uint32, offset int64) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return f.WriteBytes(buf[:], offset)
}

// ErrOutOfRange reports access beyond a fixed-size device.
var ErrOutOfRange = errors.New("blockio: access beyond device size")

// MemFile is a fixed-size in-memory Device.
type MemFile struct {
	data []byte
}

// NewMemFile creates an in-memory device of the given size, zero
// filled like a freshly truncated sparse file.
func NewMemFile(size int) *MemFile {
	return &MemFile{data: make([]byte, size)}
}

// ReadAt implements io.ReaderAt.
func (m *MemFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.data)) {
		return 0, ErrOutOfRange
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt.
func (m *MemFile) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return 0, ErrOutOfRange
	}
	return copy(m.data[off:], p), nil
}

// Bytes exposes the underlying buffer for test assertions.
func (m *MemFile) Bytes() []byte {
	return m.data
}
