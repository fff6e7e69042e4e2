// Package format defines the on-disk chunk/page layout shared by the tsfile
// read path: type codes, endianness, and the chunk and page header wire
// formats. Encoding/compression payloads themselves are plug-in points
// (see internal/tsfile/codec); this package only speaks to the headers that
// wrap them.
package format

import "fmt"

// DataType identifies the value type stored in a chunk. The wire encoding
// uses the numeric codes below; callers must not depend on iota ordering
// surviving a reorder of this list.
type DataType uint8

const (
	Bool   DataType = 0
	Int32  DataType = 1
	Int64  DataType = 2
	Float  DataType = 3
	Double DataType = 4
	Text   DataType = 5
)

func (t DataType) String() string {
	switch t {
	case Bool:
		return "BOOL"
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case Text:
		return "TEXT"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the enumerated data types.
func (t DataType) Valid() bool {
	return t <= Text
}

// Endianness selects the byte order a chunk's pages were encoded with.
type Endianness uint8

const (
	BigEndian    Endianness = 0
	LittleEndian Endianness = 1
)

func (e Endianness) Valid() bool {
	return e == BigEndian || e == LittleEndian
}

// ChunkHeaderMarker is the single marker byte that opens every chunk header.
const ChunkHeaderMarker byte = 0x01
