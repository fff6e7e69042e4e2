package tsfile

import "tsfile/internal/modset"

// ResourceSource is the minimal view UnseqResourceMergeReader needs of a
// file resource; internal/catalog.Resource implements it. Defined here
// (rather than depending on internal/catalog) because catalog already
// depends on tsfile for ChunkMetaData — depending on it back would cycle.
type ResourceSource interface {
	ResourcePath() string
	IsClosed() bool
	EndTime(seriesPath string) (int64, bool)
	SeriesChunkMetas(seriesPath string) []*ChunkMetaData
	SeriesMemChunk(seriesPath string) *ChunkMetaData
}

// UnseqResourceMergeReader collects chunks from every unsequential file
// plus the unflushed memory buffer for one series, and feeds them into a
// PriorityMergeReader (C8).
type UnseqResourceMergeReader struct {
	merge *PriorityMergeReader
}

// NewUnseqResourceMergeReader builds the merge reader following the
// seven-step construction of §4.8:
//  1. Skip resources a ResourceFilter proves are outside the query.
//  2. Take each surviving resource's chunk-metadata list.
//  3. Apply pending modifications, raising each chunk's DeletedAt.
//  4. Prune by filter.AcceptsStats.
//  5. Assign a monotonically increasing priority by resource scan order
//     (§3: "higher priority = newer resource", §9 design note: "compute
//     priorities at query start by scanning resources oldest-first") —
//     NOT by a chunk's own StartTime, which an unsequential file may set
//     arbitrarily; attach loader (already set on the metadata by the
//     catalogue/query construction step).
//  6. Wrap each unclosed resource's mem-chunk as a source outranking its
//     own disk chunks only (§3).
//  7. Sort survivors by StartTime ascending for open order only — every
//     survivor's chunk is loaded and its reader opened here, at
//     construction, in that order; opening is not deferred until the merge
//     reaches a chunk's StartTime. Priority travels with the resource a
//     chunk came from, not the sort.
func NewUnseqResourceMergeReader(
	resources []ResourceSource,
	seriesPath string,
	filter Filter,
	minTime, maxTime int64,
	resourceFilter func(r ResourceSource, seriesPath string, minTime, maxTime int64) bool,
	modsFor func(resourcePath, seriesPath string) ([]modset.Modification, error),
) (*UnseqResourceMergeReader, error) {
	type survivor struct {
		meta     *ChunkMetaData
		priority int
	}
	var survivors []survivor

	for resourceIdx, r := range resources {
		// Disk chunks from this resource all share diskPriority; its
		// mem-chunk gets memPriority, one above it — enough to outrank its
		// own resource's disk chunks (step 6) without ever exceeding a
		// later-scanned resource's diskPriority (step 5's scan order).
		diskPriority := 2*resourceIdx + 1
		memPriority := diskPriority + 1

		if _, hasEndTime := r.EndTime(seriesPath); r.IsClosed() && hasEndTime && resourceFilter != nil {
			if !resourceFilter(r, seriesPath, minTime, maxTime) {
				continue
			}
		}

		metas := r.SeriesChunkMetas(seriesPath)
		mods, err := modsFor(r.ResourcePath(), seriesPath)
		if err != nil {
			return nil, err
		}

		// Build the filtered list afresh rather than mutating metas while
		// iterating it (§9 Open Question: do not replicate mutate-during-
		// iteration; iterate a snapshot and keep only satisfying chunks).
		fresh := make([]*ChunkMetaData, 0, len(metas))
		for _, m := range metas {
			copied := *m
			copied.DeletedAt = modset.DeletedAtWatermark(mods, m.Version, m.DeletedAt)
			if !copied.Satisfies(filter) {
				continue
			}
			fresh = append(fresh, &copied)
		}
		for _, m := range fresh {
			survivors = append(survivors, survivor{meta: m, priority: diskPriority})
		}

		if !r.IsClosed() {
			if mem := r.SeriesMemChunk(seriesPath); mem != nil {
				copied := *mem
				copied.DeletedAt = modset.DeletedAtWatermark(mods, mem.Version, mem.DeletedAt)
				if copied.Satisfies(filter) {
					survivors = append(survivors, survivor{meta: &copied, priority: memPriority})
				}
			}
		}
	}

	// Sort by StartTime ascending (step 7) — open order only; priority was
	// already fixed above by resource scan order and travels with each
	// survivor through the sort.
	for i := 1; i < len(survivors); i++ {
		for j := i; j > 0 && survivors[j].meta.StartTime < survivors[j-1].meta.StartTime; j-- {
			survivors[j], survivors[j-1] = survivors[j-1], survivors[j]
		}
	}

	readers := make([]IPointReader, 0, len(survivors))
	priorities := make([]int, 0, len(survivors))
	for _, s := range survivors {
		cr, err := chunkReaderFor(s.meta, filter)
		if err != nil {
			return nil, err
		}
		readers = append(readers, newBatchPointReader(cr))
		priorities = append(priorities, s.priority)
	}

	merge, err := NewPriorityMergeReader(readers, priorities)
	if err != nil {
		return nil, err
	}
	return &UnseqResourceMergeReader{merge: merge}, nil
}

func chunkReaderFor(meta *ChunkMetaData, filter Filter) (*ChunkReader, error) {
	c, err := meta.Load()
	if err != nil {
		return nil, err
	}
	return NewChunkReader(c, filter)
}

// HasNext reports whether the merge has another point.
func (u *UnseqResourceMergeReader) HasNext() (bool, error) {
	return u.merge.HasNext()
}

// Next returns the next merged point.
func (u *UnseqResourceMergeReader) Next() (TimeValuePair, error) {
	return u.merge.Next()
}

// Close closes every underlying reader.
func (u *UnseqResourceMergeReader) Close() error {
	return u.merge.Close()
}
