package tsfile

import (
	"container/heap"
	"log/slog"

	"tsfile/internal/logging"
)

// mergeEntry is one cursor in the priority-merge heap: a reader, its
// current point, its priority, and a stable reader id for deterministic
// tie-breaking when priorities are equal (§4.7).
type mergeEntry struct {
	reader   IPointReader
	readerID int
	priority int
	current  TimeValuePair
}

// mergeHeap is a min-heap by (timestamp asc, priority desc, readerID asc) —
// lower timestamp first; among equal timestamps, higher priority wins; among
// equal priorities, lower reader id wins, for a stable order.
type mergeHeap []*mergeEntry

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.current.Time != b.current.Time {
		return a.current.Time < b.current.Time
	}
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.readerID < b.readerID
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x any) { *h = append(*h, x.(*mergeEntry)) } //nolint:errcheck

func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// PriorityMergeReader merges N IPointReaders by ascending timestamp,
// resolving ties in favour of higher priority and dropping shadowed values
// (C7).
type PriorityMergeReader struct {
	h      mergeHeap
	init   bool
	logger *slog.Logger
}

// NewPriorityMergeReader constructs a merge reader over readers, assigning
// each the given parallel priority. Closing the merge reader closes every
// child reader, primed or not. Lifecycle events are discarded; use
// NewPriorityMergeReaderWithLogger to observe them.
func NewPriorityMergeReader(readers []IPointReader, priorities []int) (*PriorityMergeReader, error) {
	return NewPriorityMergeReaderWithLogger(readers, priorities, nil)
}

// NewPriorityMergeReaderWithLogger is NewPriorityMergeReader, logging
// merge-started and merge-closed lifecycle events to logger (discarded if
// nil).
func NewPriorityMergeReaderWithLogger(readers []IPointReader, priorities []int, logger *slog.Logger) (*PriorityMergeReader, error) {
	r := &PriorityMergeReader{logger: logging.Default(logger).With("component", "tsfile.prioritymerge")}
	for i, reader := range readers {
		ok, err := reader.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			if err := reader.Close(); err != nil {
				return nil, err
			}
			continue
		}
		cur, err := reader.Current()
		if err != nil {
			return nil, err
		}
		r.h = append(r.h, &mergeEntry{reader: reader, readerID: i, priority: priorities[i], current: cur})
	}
	heap.Init(&r.h)
	r.init = true
	r.logger.Debug("merge started", "readers", len(readers), "active", len(r.h))
	return r, nil
}

// HasNext reports whether the merge has another point to emit.
func (r *PriorityMergeReader) HasNext() (bool, error) {
	return len(r.h) > 0, nil
}

// Next pops the earliest-timestamp, highest-priority entry, discards any
// other entries sharing the same timestamp with lower priority (they are
// shadowed), advances and re-pushes the winner if it has more, and returns
// the winning point.
func (r *PriorityMergeReader) Next() (TimeValuePair, error) {
	if len(r.h) == 0 {
		return TimeValuePair{}, nil
	}
	winner := heap.Pop(&r.h).(*mergeEntry) //nolint:errcheck
	result := winner.current

	for len(r.h) > 0 && r.h[0].current.Time == result.Time {
		shadowed := heap.Pop(&r.h).(*mergeEntry) //nolint:errcheck
		if err := r.advanceAndRequeue(shadowed); err != nil {
			return TimeValuePair{}, err
		}
	}

	if err := r.advanceAndRequeue(winner); err != nil {
		return TimeValuePair{}, err
	}
	return result, nil
}

func (r *PriorityMergeReader) advanceAndRequeue(e *mergeEntry) error {
	if err := e.reader.Advance(); err != nil {
		return err
	}
	ok, err := e.reader.HasNext()
	if err != nil {
		return err
	}
	if !ok {
		return e.reader.Close()
	}
	cur, err := e.reader.Current()
	if err != nil {
		return err
	}
	e.current = cur
	heap.Push(&r.h, e)
	return nil
}

// Close closes every remaining child reader. Idempotent.
func (r *PriorityMergeReader) Close() error {
	var firstErr error
	for _, e := range r.h {
		if err := e.reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.h = nil
	r.logger.Debug("merge closed")
	return firstErr
}
