package tsfile

import (
	"tsfile/internal/stats"
	"tsfile/internal/tsfile/codec"
	"tsfile/internal/tsfile/format"
)

// FileSeriesReader iterates the chunks of one file for one series, pruning
// chunks by their ChunkMetaData.Statistics before ever loading chunk bytes
// (C5). Two variants mirror ChunkReader: a filtered scan and a point lookup
// by timestamp.
type FileSeriesReader struct {
	metas  []*ChunkMetaData
	cursor int
	filter Filter
	pool   *codec.BufferPool

	active *ChunkReader
	batch  *BatchData

	pointLookup    bool
	lastLookup     int64
	haveLastLookup bool
}

// NewFileSeriesReader constructs the filtered-scan variant over metas,
// which must already be sorted by StartTime ascending.
func NewFileSeriesReader(metas []*ChunkMetaData, filter Filter) *FileSeriesReader {
	return &FileSeriesReader{metas: metas, filter: filter}
}

// NewPointLookupFileSeriesReader constructs the point-lookup variant.
func NewPointLookupFileSeriesReader(metas []*ChunkMetaData) *FileSeriesReader {
	return &FileSeriesReader{metas: metas, pointLookup: true}
}

// NewFileSeriesReaderWithPool is NewFileSeriesReader, but its ChunkReaders
// draw decompression scratch buffers from pool.
func NewFileSeriesReaderWithPool(metas []*ChunkMetaData, filter Filter, pool *codec.BufferPool) *FileSeriesReader {
	return &FileSeriesReader{metas: metas, filter: filter, pool: pool}
}

// NewPointLookupFileSeriesReaderWithPool is NewPointLookupFileSeriesReader,
// but its ChunkReaders draw decompression scratch buffers from pool.
func NewPointLookupFileSeriesReaderWithPool(metas []*ChunkMetaData, pool *codec.BufferPool) *FileSeriesReader {
	return &FileSeriesReader{metas: metas, pointLookup: true, pool: pool}
}

// HasNext reports whether the active chunk reader has another batch, or
// whether a later, filter-satisfying chunk remains.
func (r *FileSeriesReader) HasNext() (bool, error) {
	if r.active != nil {
		ok, err := r.active.HasNextBatch()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		r.active = nil
	}
	for r.cursor < len(r.metas) {
		meta := r.metas[r.cursor]
		if !meta.Satisfies(r.filter) {
			r.cursor++
			continue
		}
		c, err := meta.Load()
		if err != nil {
			return false, err
		}
		cr, err := NewChunkReaderWithPool(c, r.filter, r.pool)
		if err != nil {
			return false, err
		}
		r.cursor++
		ok, err := cr.HasNextBatch()
		if err != nil {
			return false, err
		}
		if ok {
			r.active = cr
			return true, nil
		}
	}
	return false, nil
}

// NextBatch returns the next batch from the active chunk reader. Callers
// must call HasNext first.
func (r *FileSeriesReader) NextBatch() (*BatchData, error) {
	return r.active.NextBatch()
}

// Close releases the active chunk reader, if any. Idempotent.
func (r *FileSeriesReader) Close() error {
	if r.active != nil {
		err := r.active.Close()
		r.active = nil
		return err
	}
	return nil
}

// ValueAt implements the point-lookup algorithm of §4.5. Repeated calls
// must use non-decreasing ts; a call with a smaller ts than a previous call
// returns ErrOutOfOrderLookup.
func (r *FileSeriesReader) ValueAt(ts int64) (stats.Value, bool, error) {
	if r.haveLastLookup && ts < r.lastLookup {
		return stats.Value{}, false, format.ErrOutOfOrderLookup
	}
	r.lastLookup = ts
	r.haveLastLookup = true

	for {
		if r.active == nil {
			opened, err := r.openNextCandidate(ts)
			if err != nil {
				return stats.Value{}, false, err
			}
			if !opened {
				return stats.Value{}, false, nil
			}
		}

		if r.batch == nil {
			ok, err := r.active.HasNextBatch()
			if err != nil {
				return stats.Value{}, false, err
			}
			if !ok {
				r.active = nil
				continue
			}
			batch, err := r.active.NextBatch()
			if err != nil {
				return stats.Value{}, false, err
			}
			r.batch = batch
		}

		for r.batch.HasNext() && r.batch.CurrentTime() < ts {
			r.batch.Advance()
		}
		if !r.batch.HasNext() {
			// this batch is spent; the chunk reader may still have another
			// page, or another chunk may follow — either way, re-enter the
			// loop rather than dropping the remaining decoded state.
			r.batch = nil
			continue
		}
		if r.batch.CurrentTime() == ts {
			return r.batch.CurrentValue(), true, nil
		}
		// current_time > ts: the timestamp is absent so far, but the batch
		// (and active chunk reader) are retained for the next call — a
		// later, larger ts may still land inside what's already decoded.
		return stats.Value{}, false, nil
	}
}

// openNextCandidate advances the cursor to, and opens a point-lookup chunk
// reader for, the next chunk whose EndTime >= ts. Returns false if none
// remain.
func (r *FileSeriesReader) openNextCandidate(ts int64) (bool, error) {
	for r.cursor < len(r.metas) {
		meta := r.metas[r.cursor]
		r.cursor++
		if meta.EndTime < ts {
			continue
		}
		c, err := meta.Load()
		if err != nil {
			return false, err
		}
		cr, err := NewPointLookupChunkReaderWithPool(c, ts, r.pool)
		if err != nil {
			return false, err
		}
		r.active = cr
		r.batch = nil
		return true, nil
	}
	return false, nil
}
