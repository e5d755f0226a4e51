// Package fabric implements an embedded graph database stored in a
// single binary file: typed vertices connected by directed, labeled
// edges, with key-value properties and interned names. A Graph is the
// composition root; it owns the file header and the seven stores the
// file is divided into.
//
// The model is single-writer: a Graph and everything reached through
// it must be confined to one goroutine. Mutations accumulate in
// memory and reach the file when Flush is called.
package fabric

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/fabricdb/fabric/internal/blockio"
	"github.com/fabricdb/fabric/internal/core"
	"github.com/fabricdb/fabric/internal/store"
	"github.com/fabricdb/fabric/internal/utils"
)

// File format constants. The header string identifies a FabricDB
// file; the offsets that follow it locate every store region.
const (
	headerSize    = 84
	fabricVersion = 1

	// DefaultPageSize is the region size each record store starts
	// with.
	DefaultPageSize = 65536

	// DefaultTextBlockSize is the allocation granularity of the text
	// store.
	DefaultTextBlockSize = 32

	// DefaultIndexPageSize is the on-disk index page size recorded in
	// the header.
	DefaultIndexPageSize = 65536
)

// fabricTag marks byte 0 of every graph file, null padded to 16
// bytes.
var fabricTag = [16]byte{'f', 'a', 'b', 'r', 'i', 'c', 'd', 'b', ' ', 'v', '0', '.', '1'}

// Header field offsets within the first 84 bytes of the file.
const (
	offFabricTag      = 0
	offAppTag         = 16
	offFabricVersion  = 32
	offAppVersion     = 36
	offChangeCounter  = 40
	offClassStore     = 44
	offLabelStore     = 48
	offVertexStore    = 52
	offEdgeStore      = 56
	offPropertyStore  = 60
	offTextStore      = 64
	offTextBlockSize  = 68
	offIndexStore     = 72
	offIndexPageSize  = 76
	offIndexPageCount = 80
)

// Options control the layout of a newly created graph file. The zero
// value picks the defaults.
type Options struct {
	// PageSize is the initial region size of each record store.
	PageSize uint32

	// TextBlockSize is the text store's allocation granularity.
	TextBlockSize uint32

	// IndexPageSize is recorded in the header for the index region.
	IndexPageSize uint32

	// AppTag is an application-chosen marker stored alongside the
	// file tag, null padded to 16 bytes.
	AppTag [16]byte

	// AppVersion is an application-chosen version number.
	AppVersion uint32
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.PageSize == 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.TextBlockSize == 0 {
		opts.TextBlockSize = DefaultTextBlockSize
	}
	if opts.IndexPageSize == 0 {
		opts.IndexPageSize = DefaultIndexPageSize
	}
	return opts
}

// Graph is a FabricDB database. Its header fields mirror the first 84
// bytes of the file; the stores partition the rest.
type Graph struct {
	file   *blockio.File
	osFile *os.File // nil when the graph lives on a caller-supplied device

	fabricTag     [16]byte
	appTag        [16]byte
	fabricVersion uint32
	appVersion    uint32
	changeCounter uint32

	classes    store.ClassStore
	labels     store.LabelStore
	vertices   store.VertexStore
	edges      store.EdgeStore
	properties store.PropertyStore
	texts      store.TextStore
	indexes    store.IndexStore
}

// Create creates a new graph file at the given path with default
// options.
func Create(filename string) (*Graph, error) {
	return CreateWithOptions(filename, Options{})
}

// CreateWithOptions creates a new graph file at the given path. The
// file is laid out, bootstrapped with the root class "Vertex" and
// flushed before Create returns.
func CreateWithOptions(filename string, opts Options) (*Graph, error) {
	f, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, utils.WrapError("creating graph file", err)
	}
	g, err := createGraph(f, opts)
	if err != nil {
		f.Close()
		os.Remove(filename)
		return nil, err
	}
	g.osFile = f
	return g, nil
}

// Open loads an existing graph file.
func Open(filename string) (*Graph, error) {
	f, err := os.OpenFile(filename, os.O_RDWR, 0)
	if err != nil {
		return nil, utils.WrapError("opening graph file", err)
	}
	g, err := loadGraph(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	g.osFile = f
	return g, nil
}

// createGraph lays out a fresh graph on a device: header, empty store
// headers with free lists starting at id 1, and the hierarchy root.
func createGraph(dev blockio.Device, opts Options) (*Graph, error) {
	opts = opts.withDefaults()

	g := &Graph{
		file:          blockio.New(dev),
		fabricTag:     fabricTag,
		appTag:        opts.AppTag,
		fabricVersion: fabricVersion,
		appVersion:    opts.AppVersion,
		changeCounter: 1,
	}

	classOff := uint32(headerSize)
	labelOff := classOff + opts.PageSize
	vertexOff := labelOff + opts.PageSize
	edgeOff := vertexOff + opts.PageSize
	propertyOff := edgeOff + opts.PageSize
	textOff := propertyOff + opts.PageSize
	indexOff := textOff + opts.PageSize

	// Store headers first, farthest region first, so the file is
	// grown once and the header write below lands in allocated space.
	if err := g.file.WriteUint32(0, int64(indexOff)); err != nil {
		return nil, utils.WrapError("allocating graph file", err)
	}
	if err := writeEmptyStoreHeader16(g.file, classOff); err != nil {
		return nil, err
	}
	for _, off := range []uint32{labelOff, vertexOff, edgeOff, propertyOff, textOff} {
		if err := writeEmptyStoreHeader32(g.file, off); err != nil {
			return nil, err
		}
	}

	g.indexes.Init(indexOff, opts.IndexPageSize, 0)
	if err := g.initStores(classOff, labelOff, vertexOff, edgeOff, propertyOff, textOff, indexOff, opts.TextBlockSize); err != nil {
		return nil, err
	}

	if _, err := g.classes.CreateRoot("Vertex"); err != nil {
		return nil, utils.WrapError("bootstrapping root class", err)
	}
	if err := g.flushStores(); err != nil {
		return nil, err
	}
	if err := g.writeHeader(); err != nil {
		return nil, err
	}
	return g, nil
}

// loadGraph reads the header from a device and attaches the stores.
func loadGraph(dev blockio.Device) (*Graph, error) {
	g := &Graph{file: blockio.New(dev)}

	var hdr [headerSize]byte
	if err := g.file.ReadBytes(hdr[:], 0); err != nil {
		return nil, utils.WrapError("reading graph header", err)
	}
	copy(g.fabricTag[:], hdr[offFabricTag:offFabricTag+16])
	if !bytes.Equal(g.fabricTag[:], fabricTag[:]) {
		return nil, ErrNotFabricFile
	}
	copy(g.appTag[:], hdr[offAppTag:offAppTag+16])

	readU32 := func(off int) uint32 {
		return binary.BigEndian.Uint32(hdr[off : off+4])
	}
	g.fabricVersion = readU32(offFabricVersion)
	if g.fabricVersion != fabricVersion {
		return nil, ErrUnsupportedVersion
	}
	g.appVersion = readU32(offAppVersion)
	g.changeCounter = readU32(offChangeCounter)

	classOff := readU32(offClassStore)
	labelOff := readU32(offLabelStore)
	vertexOff := readU32(offVertexStore)
	edgeOff := readU32(offEdgeStore)
	propertyOff := readU32(offPropertyStore)
	textOff := readU32(offTextStore)
	blockSize := readU32(offTextBlockSize)
	indexOff := readU32(offIndexStore)

	g.indexes.Init(indexOff, readU32(offIndexPageSize), readU32(offIndexPageCount))
	if err := g.initStores(classOff, labelOff, vertexOff, edgeOff, propertyOff, textOff, indexOff, blockSize); err != nil {
		return nil, err
	}
	return g, nil
}

// initStores attaches every record store to its region. A store's
// size is the gap to the next region, the way the offsets in the
// header define it. The name indexes are rebuilt by scanning.
func (g *Graph) initStores(classOff, labelOff, vertexOff, edgeOff, propertyOff, textOff, indexOff, blockSize uint32) error {
	if err := g.texts.Init(g.file, textOff, indexOff-textOff, blockSize); err != nil {
		return err
	}
	if err := g.labels.Init(g.file, labelOff, vertexOff-labelOff, &g.texts, &g.indexes); err != nil {
		return err
	}
	if err := g.classes.Init(g.file, classOff, labelOff-classOff, &g.labels, &g.indexes); err != nil {
		return err
	}
	if err := g.vertices.Init(g.file, vertexOff, edgeOff-vertexOff, &g.classes); err != nil {
		return err
	}
	if err := g.edges.Init(g.file, edgeOff, propertyOff-edgeOff, &g.vertices, &g.labels); err != nil {
		return err
	}
	if err := g.properties.Init(g.file, propertyOff, textOff-propertyOff, &g.labels, &g.texts, &g.vertices, &g.edges); err != nil {
		return err
	}
	return g.indexes.Rebuild(&g.classes, &g.labels)
}

// Flush writes every dirty record, the store headers and the graph
// header, bumping the change counter.
func (g *Graph) Flush() error {
	if err := g.flushStores(); err != nil {
		return err
	}
	g.changeCounter++
	return g.writeHeader()
}

func (g *Graph) flushStores() error {
	if err := g.classes.Flush(); err != nil {
		return utils.WrapError("flushing class store", err)
	}
	if err := g.labels.Flush(); err != nil {
		return utils.WrapError("flushing label store", err)
	}
	if err := g.vertices.Flush(); err != nil {
		return utils.WrapError("flushing vertex store", err)
	}
	if err := g.edges.Flush(); err != nil {
		return utils.WrapError("flushing edge store", err)
	}
	if err := g.properties.Flush(); err != nil {
		return utils.WrapError("flushing property store", err)
	}
	if err := g.texts.Flush(); err != nil {
		return utils.WrapError("flushing text store", err)
	}
	return nil
}

// Close flushes pending changes and releases the underlying file.
func (g *Graph) Close() error {
	flushErr := g.Flush()
	if g.osFile != nil {
		if err := g.osFile.Close(); err != nil {
			return utils.WrapError("closing graph file", err)
		}
		g.osFile = nil
	}
	return flushErr
}

// writeHeader serializes the 84-byte graph header.
func (g *Graph) writeHeader() error {
	var hdr [headerSize]byte
	copy(hdr[offFabricTag:], g.fabricTag[:])
	copy(hdr[offAppTag:], g.appTag[:])
	putU32 := func(off int, v uint32) {
		binary.BigEndian.PutUint32(hdr[off:off+4], v)
	}
	putU32(offFabricVersion, g.fabricVersion)
	putU32(offAppVersion, g.appVersion)
	putU32(offChangeCounter, g.changeCounter)
	putU32(offClassStore, g.classes.Offset())
	putU32(offLabelStore, g.labels.Offset())
	putU32(offVertexStore, g.vertices.Offset())
	putU32(offEdgeStore, g.edges.Offset())
	putU32(offPropertyStore, g.properties.Offset())
	putU32(offTextStore, g.texts.Offset())
	putU32(offTextBlockSize, g.texts.BlockSize())
	putU32(offIndexStore, g.indexes.Offset())
	putU32(offIndexPageSize, g.indexes.PageSize())
	putU32(offIndexPageCount, g.indexes.PageCount())
	return g.file.WriteBytes(hdr[:], 0)
}

// ChangeCounter returns the file change counter.
func (g *Graph) ChangeCounter() uint32 { return g.changeCounter }

// AppTag returns the application marker stored in the header.
func (g *Graph) AppTag() [16]byte { return g.appTag }

// AppVersion returns the application version stored in the header.
func (g *Graph) AppVersion() uint32 { return g.appVersion }

// DumpHeader writes a human-readable rendering of the graph header.
func (g *Graph) DumpHeader(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Fabric Header String: %s\n"+
			"Application Header String: %s\n"+
			"Fabric Version Number: %d\n"+
			"Application Version Number: %d\n"+
			"File Change Counter: %d\n"+
			"Class Store Offset: %d\n"+
			"Label Store Offset: %d\n"+
			"Vertex Store Offset: %d\n"+
			"Edge Store Offset: %d\n"+
			"Property Store Offset: %d\n"+
			"Text Store Offset: %d\n"+
			"Text Block Size: %d\n"+
			"Index Store Offset: %d\n"+
			"Index Page Size: %d\n"+
			"Index Page Count: %d\n",
		trimTag(g.fabricTag), trimTag(g.appTag),
		g.fabricVersion, g.appVersion, g.changeCounter,
		g.classes.Offset(), g.labels.Offset(), g.vertices.Offset(),
		g.edges.Offset(), g.properties.Offset(), g.texts.Offset(),
		g.texts.BlockSize(), g.indexes.Offset(), g.indexes.PageSize(),
		g.indexes.PageCount())
	return err
}

func trimTag(tag [16]byte) string {
	return string(bytes.TrimRight(tag[:], "\x00"))
}

// writeEmptyStoreHeader16 writes a record store header with 16-bit
// fields: zero records, free list at id 1.
func writeEmptyStoreHeader16(f *blockio.File, offset uint32) error {
	hdr := [6]byte{0, 0, 0, 1, 0, 1}
	return f.WriteBytes(hdr[:], int64(offset))
}

// writeEmptyStoreHeader32 writes a record store header with 32-bit
// fields: zero records, free list at id 1.
func writeEmptyStoreHeader32(f *blockio.File, offset uint32) error {
	hdr := [12]byte{0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 1}
	return f.WriteBytes(hdr[:], int64(offset))
}

// rootClass returns the hierarchy root every class descends from.
func (g *Graph) rootClass() (*core.Class, error) {
	return g.classes.Get(1)
}
