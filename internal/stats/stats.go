// Package stats implements per-column summary statistics (min, max, first,
// last, sum, count) used to prune pages and chunks without decompressing
// them, and their on-disk serialization.
//
// The source this package generalizes from dispatches statistics by a class
// hierarchy per data type; here the dispatch point is a single tagged union
// (Value) plus a type tag on Statistics, matching the enum boundary used
// throughout the tsfile read path.
package stats

import (
	"errors"
	"fmt"

	"tsfile/internal/tsfile/format"
)

// ErrTypeMismatch is returned by Merge when the two statistics summarize
// different data types. The receiver is left unmutated.
var ErrTypeMismatch = errors.New("stats: type mismatch")

// Value is a tagged union over the five storable data types plus TEXT.
// It intentionally holds all fields inline rather than boxing into
// interface{} or any: statistics are computed in page/chunk hot paths and a
// fixed-size value avoids a heap allocation per point.
type Value struct {
	Type format.DataType
	Bool bool
	I32  int32
	I64  int64
	F32  float32
	F64  float64
	Text string
}

// Numeric reports whether the value participates in Sum accumulation.
func (v Value) Numeric() bool {
	switch v.Type {
	case format.Int32, format.Int64, format.Float, format.Double:
		return true
	default:
		return false
	}
}

// AsFloat64 returns the value widened to float64 for min/max/sum
// comparisons. Only meaningful for numeric types.
func (v Value) AsFloat64() float64 {
	switch v.Type {
	case format.Int32:
		return float64(v.I32)
	case format.Int64:
		return float64(v.I64)
	case format.Float:
		return float64(v.F32)
	case format.Double:
		return v.F64
	default:
		return 0
	}
}

// less reports whether v < other for the purposes of min/max tracking.
// Bool orders false < true; TEXT orders lexicographically.
func (v Value) less(other Value) bool {
	switch v.Type {
	case format.Bool:
		return !v.Bool && other.Bool
	case format.Text:
		return v.Text < other.Text
	default:
		return v.AsFloat64() < other.AsFloat64()
	}
}

// Statistics accumulates min/max/first/last/sum/count for one column of one
// data type. The zero value is an empty Statistics ready for Update.
type Statistics struct {
	Type format.DataType

	Count int64

	Min, Max    Value
	First, Last Value
	FirstTime   int64
	LastTime    int64
	Sum         float64
	hasBounds   bool
	hasFirst    bool
}

// New returns an empty Statistics for the given data type.
func New(t format.DataType) *Statistics {
	return &Statistics{Type: t}
}

// Empty reports whether no point has been folded into the statistics yet.
func (s *Statistics) Empty() bool {
	return s.Count == 0
}

// Update folds a single (timestamp, value) point into the statistics.
// value.Type must equal s.Type; callers are expected to validate this
// upstream (statistics are always built per-chunk, where the type is fixed
// by the chunk header), so Update does not return an error.
func (s *Statistics) Update(ts int64, value Value) {
	if !s.hasBounds {
		s.Min, s.Max = value, value
		s.hasBounds = true
	} else {
		if value.less(s.Min) {
			s.Min = value
		}
		if s.Max.less(value) {
			s.Max = value
		}
	}

	if !s.hasFirst {
		s.First = value
		s.FirstTime = ts
		s.hasFirst = true
	}
	s.Last = value
	s.LastTime = ts

	if value.Numeric() {
		s.Sum += value.AsFloat64()
	}
	s.Count++
}

// UpdateBatch folds a run of points into the statistics. times and values
// must be the same length and already in their page's sorted order.
func (s *Statistics) UpdateBatch(times []int64, values []Value) {
	for i, t := range times {
		s.Update(t, values[i])
	}
}

// Merge widens the receiver with other's min/max, keeps the earlier First
// (by timestamp) and later Last, and sums Sum and Count. Returns
// ErrTypeMismatch without mutating the receiver if the two statistics
// summarize different data types.
func (s *Statistics) Merge(other *Statistics) error {
	if other.Empty() {
		return nil
	}
	if s.Type != other.Type {
		return fmt.Errorf("%w: %s vs %s", ErrTypeMismatch, s.Type, other.Type)
	}
	if s.Empty() {
		*s = *other
		return nil
	}

	if other.Min.less(s.Min) {
		s.Min = other.Min
	}
	if s.Max.less(other.Max) {
		s.Max = other.Max
	}
	if other.FirstTime < s.FirstTime {
		s.First, s.FirstTime = other.First, other.FirstTime
	}
	if other.LastTime >= s.LastTime {
		s.Last, s.LastTime = other.Last, other.LastTime
	}
	s.Sum += other.Sum
	s.Count += other.Count
	return nil
}

// SetCount overrides Count. Deserialize does not populate Count (it is not
// part of the wire blob); callers reconstructing a Statistics from a page or
// chunk header call SetCount with the header's NumPoints.
func (s *Statistics) SetCount(count int64) {
	s.Count = count
}

// SetTimeRange overrides FirstTime and LastTime. Deserialize does not
// populate these (they are not part of the wire blob); callers reconstruct
// them from the enclosing header's MinTimestamp/MaxTimestamp, since a
// page's points are stored in ascending time order.
func (s *Statistics) SetTimeRange(firstTime, lastTime int64) {
	s.FirstTime = firstTime
	s.LastTime = lastTime
}

// Equal reports whether s and other carry the same Min, Max, First, Last,
// and Sum for the same data type — the fields that actually round-trip
// through Serialize/Deserialize. Count and First/LastTime are excluded
// since the wire format does not carry them (see Deserialize); emptiness is
// therefore judged by whether any min/max/first value is present, not by
// Count.
func (s *Statistics) Equal(other *Statistics) bool {
	sEmpty := !s.hasBounds && !s.hasFirst
	otherEmpty := !other.hasBounds && !other.hasFirst
	if sEmpty != otherEmpty {
		return false
	}
	if sEmpty {
		return s.Type == other.Type
	}
	return s.Type == other.Type &&
		s.Min == other.Min &&
		s.Max == other.Max &&
		s.First == other.First &&
		s.Last == other.Last &&
		s.Sum == other.Sum
}

// SizeOfDatum returns the fixed on-wire byte width of a single value of the
// statistics' data type, or -1 for the variable-length TEXT type.
func (s *Statistics) SizeOfDatum() int {
	return sizeOfDatum(s.Type)
}

func sizeOfDatum(t format.DataType) int {
	switch t {
	case format.Bool:
		return 1
	case format.Int32, format.Float:
		return 4
	case format.Int64, format.Double:
		return 8
	case format.Text:
		return -1
	default:
		return -1
	}
}
