package tsfile

import (
	"fmt"

	"tsfile/internal/stats"
	"tsfile/internal/tsfile/codec"
	"tsfile/internal/tsfile/format"
	"tsfile/internal/tsfile/storage"
)

// pageHeader is the fully-parsed PageHeader (format.PagePrefix + Statistics
// + format.PageSuffix), assembled here rather than in package format
// because Statistics decoding would otherwise create an import cycle
// (internal/stats already imports internal/tsfile/format).
type pageHeader struct {
	format.PagePrefix
	Statistics *stats.Statistics
	format.PageSuffix
}

// decodePageHeader reads a PageHeader from the front of buf and returns the
// header plus the number of bytes consumed.
func decodePageHeader(buf []byte, dataType format.DataType) (pageHeader, int, error) {
	prefix, err := format.DecodePagePrefix(buf)
	if err != nil {
		return pageHeader{}, 0, err
	}
	offset := format.PagePrefixSize

	st, n, err := stats.Deserialize(buf[offset:], dataType)
	if err != nil {
		return pageHeader{}, 0, fmt.Errorf("%w: statistics: %v", format.ErrCorruptChunk, err)
	}
	offset += n

	suffix, err := format.DecodePageSuffix(buf[offset:])
	if err != nil {
		return pageHeader{}, 0, err
	}
	offset += format.PageSuffixSize

	st.SetCount(int64(suffix.NumPoints))
	st.SetTimeRange(suffix.MinTimestamp, suffix.MaxTimestamp)

	return pageHeader{PagePrefix: prefix, Statistics: st, PageSuffix: suffix}, offset, nil
}

// ChunkReader iterates the pages of one chunk, pruning by header statistics
// before decompressing, and produces BatchData (C4). It supports two
// variants selected at construction: a filtered scan and a point lookup by
// timestamp (§4.4).
type ChunkReader struct {
	body         []byte
	offset       int
	dataType     format.DataType
	encoding     codec.Encoding
	uncompressor codec.Uncompressor
	endianness   format.Endianness
	filter       Filter
	deletedAt    int64

	// pointLookup, when true, switches page_satisfied to the point-lookup
	// rule and tracks currentTimestamp.
	pointLookup      bool
	currentTimestamp int64

	cached    *pageHeader
	cachedLen int
}

// NewChunkReader constructs the filtered-scan variant, drawing decompression
// scratch space from the package-level default BufferPool.
func NewChunkReader(c storage.Chunk, filter Filter) (*ChunkReader, error) {
	return newChunkReader(c, filter, false, 0, nil)
}

// NewPointLookupChunkReader constructs the point-lookup variant, seeded
// with the timestamp being looked up, drawing decompression scratch space
// from the package-level default BufferPool.
func NewPointLookupChunkReader(c storage.Chunk, ts int64) (*ChunkReader, error) {
	return newChunkReader(c, nil, true, ts, nil)
}

// NewChunkReaderWithPool is NewChunkReader, but draws its gzip decompressor's
// scratch buffer from pool instead of the package-level default.
func NewChunkReaderWithPool(c storage.Chunk, filter Filter, pool *codec.BufferPool) (*ChunkReader, error) {
	return newChunkReader(c, filter, false, 0, pool)
}

// NewPointLookupChunkReaderWithPool is NewPointLookupChunkReader, but draws
// its gzip decompressor's scratch buffer from pool.
func NewPointLookupChunkReaderWithPool(c storage.Chunk, ts int64, pool *codec.BufferPool) (*ChunkReader, error) {
	return newChunkReader(c, nil, true, ts, pool)
}

func newChunkReader(c storage.Chunk, filter Filter, pointLookup bool, ts int64, pool *codec.BufferPool) (*ChunkReader, error) {
	uncompressor, err := codec.NewUncompressorWithPool(codec.Compression(c.Header.Compression), pool)
	if err != nil {
		return nil, err
	}
	return &ChunkReader{
		body:             c.Body,
		dataType:         c.Header.DataType,
		encoding:         codec.Encoding(c.Header.Encoding),
		uncompressor:     uncompressor,
		endianness:       c.Endianness,
		filter:           filter,
		deletedAt:        c.DeletedAt,
		pointLookup:      pointLookup,
		currentTimestamp: ts,
	}, nil
}

// pageSatisfied applies the variant-specific page-acceptance rule:
// filtered scan checks the filter against the page's statistics and that
// the page isn't wholly tombstoned; point lookup instead requires the
// page's time range to reach the timestamp being sought.
func (r *ChunkReader) pageSatisfied(h pageHeader) bool {
	if h.MaxTimestamp <= r.deletedAt {
		return false
	}
	if r.pointLookup {
		return h.MaxTimestamp >= r.currentTimestamp
	}
	return acceptsStats(r.filter, h.Statistics, h.MinTimestamp, h.MaxTimestamp)
}

// HasNextBatch reports whether a satisfying page remains. It deserializes
// page headers (and skips non-satisfying pages' compressed bodies without
// decompressing them) until it finds one that satisfies the variant's rule,
// or runs out of bytes.
func (r *ChunkReader) HasNextBatch() (bool, error) {
	if r.cached != nil {
		return true, nil
	}
	for r.offset < len(r.body) {
		h, n, err := decodePageHeader(r.body[r.offset:], r.dataType)
		if err != nil {
			return false, err
		}
		headerEnd := r.offset + n
		if headerEnd+int(h.CompressedSize) > len(r.body) {
			return false, format.ErrCorruptChunk
		}
		if r.pageSatisfied(h) {
			r.cached = &h
			r.cachedLen = n
			return true, nil
		}
		r.offset = headerEnd + int(h.CompressedSize)
	}
	return false, nil
}

// NextBatch decompresses and decodes the cached satisfying page, advancing
// past it, and returns its first batch (which may itself be empty after
// filtering — callers treat an empty batch as "skip, try next page").
func (r *ChunkReader) NextBatch() (*BatchData, error) {
	if r.cached == nil {
		ok, err := r.HasNextBatch()
		if err != nil {
			return nil, err
		}
		if !ok {
			return NewBatchData(r.dataType), nil
		}
	}
	h := r.cached
	headerEnd := r.offset + r.cachedLen
	compressed := r.body[headerEnd : headerEnd+int(h.CompressedSize)]
	r.offset = headerEnd + int(h.CompressedSize)
	r.cached = nil

	uncompressed, err := r.uncompressor.Decompress(compressed, int(h.UncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("chunk reader: decompress: %w", err)
	}

	timeDec, err := codec.NewTimeDecoder(r.encoding)
	if err != nil {
		return nil, err
	}
	valueDec, err := codec.NewValueDecoder(r.encoding, r.dataType)
	if err != nil {
		return nil, err
	}

	pr, err := NewPageReader(uncompressed, r.dataType, timeDec, valueDec, r.pageFilter(), r.deletedAt, r.endianness)
	if err != nil {
		return nil, err
	}
	return pr.NextBatch()
}

// Close releases the reader's cached page header. Idempotent.
func (r *ChunkReader) Close() error {
	r.cached = nil
	return nil
}

// pageFilter returns the value-level filter to apply inside the page: the
// scan variant's user filter, or nil for point lookup (the caller walks the
// batch looking for an exact timestamp instead).
func (r *ChunkReader) pageFilter() Filter {
	if r.pointLookup {
		return nil
	}
	return r.filter
}
