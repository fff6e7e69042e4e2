package tsfile

import (
	"tsfile/internal/stats"
	"tsfile/internal/tsfile/format"
	"tsfile/internal/tsfile/storage"
)

// ChunkMetaData is an immutable locator-plus-summary for one chunk (C2).
// Once constructed it is never mutated, so it is safe to share across
// concurrent queries (§5).
type ChunkMetaData struct {
	MeasurementUID string
	FilePath       string
	Offset         int64
	NumPoints      int64
	StartTime      int64
	EndTime        int64
	DataType       format.DataType
	Version        int64
	DeletedAt      int64
	Statistics     *stats.Statistics

	// Priority is assigned per-query at read start; higher wins ties. Zero
	// value means "not yet assigned to a query" and must never be used for
	// merge ordering.
	Priority int

	// Loader resolves this metadata to its chunk bytes. Set at query
	// construction; ChunkMetaData holds the handle, never a back-pointer to
	// a file resource (§9 "Chunk loader indirection").
	Loader storage.Loader
}

// IsDeletedAbove reports whether ts is covered by this chunk's deletion
// watermark.
func (m *ChunkMetaData) IsDeletedAbove(ts int64) bool {
	return ts <= m.DeletedAt
}

// Satisfies reports whether f accepts this chunk's statistics and time
// range, i.e. whether the chunk could contain a satisfying point. A false
// result lets a reader skip the chunk without ever loading its bytes.
func (m *ChunkMetaData) Satisfies(f Filter) bool {
	return acceptsStats(f, m.Statistics, m.StartTime, m.EndTime)
}

// Load resolves this chunk's bytes via its Loader.
func (m *ChunkMetaData) Load() (storage.Chunk, error) {
	return m.Loader.Load(m.FilePath, m.Offset, m.DeletedAt)
}
