// Package storage resolves a chunk-metadata locator to its on-disk bytes
// (C6): ChunkLoader reads a chunk's header and body at an offset;
// FileReaderCache bounds the number of concurrently-open file handles with
// ref-counted, LRU-evicted borrows, grounded on the teacher's ReaderAt-based
// file readers (internal/chunk/file/reader.go, mmap_reader.go). A resource
// file named with the seekableSuffix is transparently opened as a whole-file
// seekable-zstd container (see seekable.go), the same random-access-under-
// compression trade-off the teacher makes for rotated log segments
// (internal/chunk/file/compress.go).
package storage

import (
	"fmt"
	"io"
	"os"
	"strings"

	"tsfile/internal/tsfile/format"
)

// Chunk is a loaded chunk: its parsed header and the raw body bytes that
// follow it (num_pages page headers/bodies back to back), plus the
// deletion watermark and endianness a ChunkReader needs to decode it.
type Chunk struct {
	Header    format.ChunkHeader
	Body      []byte
	DeletedAt int64
	Endianness format.Endianness
}

// Loader resolves a (file, offset) locator to a Chunk. Implementations may
// share file handles through a FileReaderCache.
type Loader interface {
	Load(filePath string, offset int64, deletedAt int64) (Chunk, error)
}

// ChunkLoader is the default Loader: it borrows a file handle from a
// FileReaderCache, seeks to offset, and reads header+body into memory.
type ChunkLoader struct {
	cache *FileReaderCache
}

// NewChunkLoader returns a ChunkLoader backed by cache.
func NewChunkLoader(cache *FileReaderCache) *ChunkLoader {
	return &ChunkLoader{cache: cache}
}

// Load implements Loader.
func (l *ChunkLoader) Load(filePath string, offset int64, deletedAt int64) (Chunk, error) {
	handle, err := l.cache.Acquire(filePath)
	if err != nil {
		return Chunk{}, fmt.Errorf("chunk loader: acquire %s: %w", filePath, err)
	}
	defer l.cache.Release(handle)

	// Read a fixed-size prefix first to discover the header's true length
	// (the measurement UID is variable-width), then re-read if needed.
	const probeLen = 4096
	probe := make([]byte, probeLen)
	n, err := handle.reader.ReadAt(probe, offset)
	if err != nil && err != io.EOF {
		return Chunk{}, fmt.Errorf("chunk loader: read header probe: %w", err)
	}
	probe = probe[:n]

	header, headerLen, err := format.DecodeChunkHeader(probe)
	if err != nil {
		return Chunk{}, fmt.Errorf("chunk loader: decode header: %w", err)
	}

	// Whole-chunk-size check before any page is touched (§4.6). Skipped for
	// a seekable-zstd resource: its physical file size is the compressed
	// size, not the logical size body_size is measured against.
	if !strings.HasSuffix(filePath, seekableSuffix) {
		if info, statErr := os.Stat(filePath); statErr == nil {
			remaining := info.Size() - offset - int64(headerLen)
			if err := format.Validate(header, remaining); err != nil {
				return Chunk{}, fmt.Errorf("chunk loader: %w", err)
			}
		}
	}

	total := headerLen + int(header.BodySize)
	buf := make([]byte, total)
	if total <= len(probe) {
		copy(buf, probe[:total])
	} else {
		if _, err := handle.reader.ReadAt(buf, offset); err != nil {
			return Chunk{}, fmt.Errorf("chunk loader: read chunk body: %w", err)
		}
	}

	return Chunk{
		Header:     header,
		Body:       buf[headerLen:],
		DeletedAt:  deletedAt,
		Endianness: header.Endianness,
	}, nil
}

// fileHandle is a single cached, ref-counted open file.
type fileHandle struct {
	path     string
	reader   io.ReaderAt
	closer   io.Closer
	refCount int
}
