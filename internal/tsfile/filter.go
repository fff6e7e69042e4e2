package tsfile

import "tsfile/internal/stats"

// Filter is consulted at two granularities: accepts_stats lets a reader
// prune an entire page or chunk without decompressing it; accepts_point
// makes the final per-value decision. A nil Filter accepts everything.
type Filter interface {
	AcceptsStats(s *stats.Statistics, startTime, endTime int64) bool
	AcceptsPoint(time int64, value stats.Value) bool
}

// acceptsStats applies f, treating a nil Filter as accept-all.
func acceptsStats(f Filter, s *stats.Statistics, startTime, endTime int64) bool {
	if f == nil {
		return true
	}
	return f.AcceptsStats(s, startTime, endTime)
}

// acceptsPoint applies f, treating a nil Filter as accept-all.
func acceptsPoint(f Filter, time int64, value stats.Value) bool {
	if f == nil {
		return true
	}
	return f.AcceptsPoint(time, value)
}

// TimeFilter accepts points whose timestamp falls in (lower, upper]
// (either bound may be disabled). A block is pruned when its entire time
// range falls outside the bound: for a lower bound k ("time > k"), any
// block with max_time <= k is eliminated.
type TimeFilter struct {
	HasLower bool
	Lower    int64 // exclusive
	HasUpper bool
	Upper    int64 // inclusive
}

func (f TimeFilter) AcceptsStats(_ *stats.Statistics, startTime, endTime int64) bool {
	if f.HasLower && endTime <= f.Lower {
		return false
	}
	if f.HasUpper && startTime > f.Upper {
		return false
	}
	return true
}

func (f TimeFilter) AcceptsPoint(time int64, _ stats.Value) bool {
	if f.HasLower && time <= f.Lower {
		return false
	}
	if f.HasUpper && time > f.Upper {
		return false
	}
	return true
}

// ValueFilter accepts numeric values within [Lo, Hi]. A block is pruned
// when stats.max < lo || stats.min > hi.
type ValueFilter struct {
	Lo, Hi float64
}

func (f ValueFilter) AcceptsStats(s *stats.Statistics, _, _ int64) bool {
	if s == nil || s.Empty() {
		return true
	}
	if s.Max.AsFloat64() < f.Lo || s.Min.AsFloat64() > f.Hi {
		return false
	}
	return true
}

func (f ValueFilter) AcceptsPoint(_ int64, value stats.Value) bool {
	v := value.AsFloat64()
	return v >= f.Lo && v <= f.Hi
}

// AndFilter requires every sub-filter to accept.
type AndFilter []Filter

func (a AndFilter) AcceptsStats(s *stats.Statistics, startTime, endTime int64) bool {
	for _, f := range a {
		if !acceptsStats(f, s, startTime, endTime) {
			return false
		}
	}
	return true
}

func (a AndFilter) AcceptsPoint(time int64, value stats.Value) bool {
	for _, f := range a {
		if !acceptsPoint(f, time, value) {
			return false
		}
	}
	return true
}
