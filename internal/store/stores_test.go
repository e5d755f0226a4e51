package store

import (
	"encoding/binary"
	"testing"

	"github.com/fabricdb/fabric/internal/blockio"
	"github.com/stretchr/testify/require"
)

// Test layout: seven stores of testPageSize bytes each, following an
// 84-byte graph header, over an in-memory device.
const (
	testHeaderSize = 84
	testPageSize   = 4096
	testBlockSize  = 32
)

type testStores struct {
	mem        *blockio.MemFile
	file       *blockio.File
	classes    ClassStore
	labels     LabelStore
	vertices   VertexStore
	edges      EdgeStore
	properties PropertyStore
	texts      TextStore
	indexes    IndexStore
}

// newTestStores bootstraps a fresh set of stores: zeroed regions,
// initial headers (empty, free list at id 1) and a root class.
func newTestStores(t *testing.T) *testStores {
	t.Helper()

	mem := blockio.NewMemFile(testHeaderSize + 7*testPageSize)
	f := blockio.New(mem)

	// Class store header is three uint16s; the others three uint32s.
	classOff := int64(testHeaderSize)
	var ch [6]byte
	binary.BigEndian.PutUint16(ch[2:4], 1)
	binary.BigEndian.PutUint16(ch[4:6], 1)
	require.NoError(t, f.WriteBytes(ch[:], classOff))
	for i := 1; i <= 5; i++ {
		var h [12]byte
		binary.BigEndian.PutUint32(h[4:8], 1)
		binary.BigEndian.PutUint32(h[8:12], 1)
		require.NoError(t, f.WriteBytes(h[:], classOff+int64(i*testPageSize)))
	}

	ts := openTestStores(t, mem)
	_, err := ts.classes.CreateRoot("Vertex")
	require.NoError(t, err)
	return ts
}

// openTestStores attaches stores to an existing device, the way a
// graph load does, and rebuilds the name indexes.
func openTestStores(t *testing.T, mem *blockio.MemFile) *testStores {
	t.Helper()

	ts := &testStores{mem: mem, file: blockio.New(mem)}
	off := func(i int) uint32 { return testHeaderSize + uint32(i)*testPageSize }

	ts.indexes.Init(off(6), testPageSize, 0)
	require.NoError(t, ts.texts.Init(ts.file, off(5), testPageSize, testBlockSize))
	require.NoError(t, ts.labels.Init(ts.file, off(1), testPageSize, &ts.texts, &ts.indexes))
	require.NoError(t, ts.classes.Init(ts.file, off(0), testPageSize, &ts.labels, &ts.indexes))
	require.NoError(t, ts.vertices.Init(ts.file, off(2), testPageSize, &ts.classes))
	require.NoError(t, ts.edges.Init(ts.file, off(3), testPageSize, &ts.vertices, &ts.labels))
	require.NoError(t, ts.properties.Init(ts.file, off(4), testPageSize, &ts.labels, &ts.texts, &ts.vertices, &ts.edges))
	require.NoError(t, ts.indexes.Rebuild(&ts.classes, &ts.labels))
	return ts
}

// flushAll mirrors a graph flush across every store.
func (ts *testStores) flushAll(t *testing.T) {
	t.Helper()
	require.NoError(t, ts.classes.Flush())
	require.NoError(t, ts.labels.Flush())
	require.NoError(t, ts.vertices.Flush())
	require.NoError(t, ts.edges.Flush())
	require.NoError(t, ts.properties.Flush())
	require.NoError(t, ts.texts.Flush())
}
