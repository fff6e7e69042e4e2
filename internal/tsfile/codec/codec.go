// Package codec defines the plug-in points for per-chunk time/value
// decoding and page decompression. Encoding/compression algorithms
// themselves are out of scope for the read path (they are a write-path
// concern); this package only implements enough real codecs to decode what
// a writer using the same encoding/compression codes would have produced,
// grounded on the compression libraries the teacher wires for whole-file
// compression.
package codec

import (
	"tsfile/internal/stats"
	"tsfile/internal/tsfile/format"
)

// Compression identifies a page body's compression algorithm.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionGzip Compression = 1
	CompressionZstd Compression = 2
)

// Encoding identifies how a page's time and value columns are encoded
// inside the (decompressed) page body.
type Encoding uint8

const (
	// EncodingPlain stores every value as its fixed-width wire
	// representation (or, for TEXT, length-prefixed UTF-8), and every
	// timestamp as a delta-encoded varint run. This is the only encoding
	// implemented; RLE/Gorilla/dictionary encodings are write-path
	// concerns (§1 Non-goals: "encoding/compression algorithms
	// themselves") and have no codes here: NewTimeDecoder and
	// NewValueDecoder reject any other code with ErrUnknownType.
	EncodingPlain Encoding = 0
)

// TimeDecoder decodes a run of strictly-increasing (within a page) int64
// timestamps from a page body. Implementations own their own cursor state;
// Reset must be called between pages.
type TimeDecoder interface {
	Reset()
	SetEndianness(e format.Endianness)
	HasNext(buf []byte) bool
	Next(buf []byte) (int64, error)
}

// ValueDecoder decodes a run of typed values from a page body, in lock-step
// with a TimeDecoder over the same buffer.
type ValueDecoder interface {
	Reset()
	SetEndianness(e format.Endianness)
	HasNext(buf []byte) bool
	Next(buf []byte) (stats.Value, error)
}

// Uncompressor decompresses a page's compressed body into its
// uncompressed-size buffer.
type Uncompressor interface {
	Decompress(compressed []byte, uncompressedSize int) ([]byte, error)
}

// NewUncompressor returns the Uncompressor registered for c, using the
// package-level default buffer pool for CompressionGzip.
func NewUncompressor(c Compression) (Uncompressor, error) {
	return NewUncompressorWithPool(c, nil)
}

// NewUncompressorWithPool returns the Uncompressor registered for c. For
// CompressionGzip, its intermediate decompression buffer is drawn from pool
// (nil uses the package-level default) instead of allocating fresh per
// call.
func NewUncompressorWithPool(c Compression, pool *BufferPool) (Uncompressor, error) {
	switch c {
	case CompressionNone:
		return noneUncompressor{}, nil
	case CompressionGzip:
		return NewGzipUncompressorWithPool(pool), nil
	case CompressionZstd:
		return newZstdUncompressor()
	default:
		return nil, format.ErrUnknownType
	}
}

// NewTimeDecoder returns the TimeDecoder registered for e.
func NewTimeDecoder(e Encoding) (TimeDecoder, error) {
	switch e {
	case EncodingPlain:
		return &plainTimeDecoder{}, nil
	default:
		return nil, format.ErrUnknownType
	}
}

// NewValueDecoder returns the ValueDecoder registered for (e, dataType).
func NewValueDecoder(e Encoding, dataType format.DataType) (ValueDecoder, error) {
	switch e {
	case EncodingPlain:
		return &plainValueDecoder{dataType: dataType}, nil
	default:
		return nil, format.ErrUnknownType
	}
}
