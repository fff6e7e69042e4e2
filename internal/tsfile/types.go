// Package tsfile implements the read path of a columnar time-series file
// engine: chunk/page decoding, statistics-based pruning, and priority merge
// across sequential files, unsequential files, and in-memory buffers. See
// SPEC_FULL.md for the full component breakdown (C1-C9).
package tsfile

import (
	"tsfile/internal/stats"
	"tsfile/internal/tsfile/format"
)

// TimeValuePair is a single decoded point.
type TimeValuePair struct {
	Time  int64
	Value stats.Value
}

// BatchSizeLimit is the default cap on points per BatchData, per §6.
const BatchSizeLimit = 10_000

// ReaderConfig bundles the tunables a caller may want to override when
// constructing a SeriesReader and its collaborators: how many file handles
// FileReaderCache may hold open at once, how many points SeriesReader packs
// into a single BatchData, and the size of the buffer pool codec
// decompressors draw scratch space from. Every field is optional; the zero
// value of each falls back to the package default.
type ReaderConfig struct {
	// FileCacheCapacity is the maximum number of open file handles
	// storage.FileReaderCache holds at once. storage.NewFileReaderCache
	// treats zero (or any non-positive value) as a capacity of 1.
	FileCacheCapacity int

	// MergeBatchSize caps the number of points SeriesReader.NextBatch
	// returns per call. Zero falls back to BatchSizeLimit.
	MergeBatchSize int

	// DecompressBufferPoolSize bounds the number of scratch buffers
	// codec.BufferPool keeps ready for reuse between page decompressions.
	// Zero falls back to codec.DefaultBufferPoolSize.
	DecompressBufferPoolSize int
}

// BatchData is the parallel-array output contract shared by every reader
// layer: a pair of times[]/values[] slices with a moving cursor. Callers
// drive advancement explicitly rather than the reader holding hidden
// "current batch" state (§9: "mutable shared iterators -> explicit
// cursors").
type BatchData struct {
	DataType format.DataType
	times    []int64
	values   []stats.Value
	cursor   int
}

// NewBatchData returns an empty, writable BatchData for the given type.
func NewBatchData(t format.DataType) *BatchData {
	return &BatchData{DataType: t}
}

// Put appends a point to the batch. Not safe for concurrent use; batches are
// built by a single PageReader before being handed to a consumer.
func (b *BatchData) Put(time int64, value stats.Value) {
	b.times = append(b.times, time)
	b.values = append(b.values, value)
}

// Len returns the number of points currently held, irrespective of cursor
// position.
func (b *BatchData) Len() int {
	return len(b.times)
}

// IsEmpty reports whether the batch holds zero points.
func (b *BatchData) IsEmpty() bool {
	return len(b.times) == 0
}

// HasNext reports whether the cursor has a point left to read.
func (b *BatchData) HasNext() bool {
	return b.cursor < len(b.times)
}

// CurrentTime returns the timestamp at the cursor. Panics if HasNext is
// false; callers must check HasNext first, matching the reader-driven
// cursor contract of §4.3.
func (b *BatchData) CurrentTime() int64 {
	return b.times[b.cursor]
}

// CurrentValue returns the value at the cursor.
func (b *BatchData) CurrentValue() stats.Value {
	return b.values[b.cursor]
}

// Advance moves the cursor forward by one.
func (b *BatchData) Advance() {
	b.cursor++
}

// Reset rewinds the cursor to the start without discarding the underlying
// arrays, so a freshly-decoded batch can be reused in place.
func (b *BatchData) Reset() {
	b.cursor = 0
}
