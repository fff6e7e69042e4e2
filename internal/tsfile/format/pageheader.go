package format

import "encoding/binary"

// PagePrefix is the fixed portion of a PageHeader that precedes its
// variable-length Statistics blob.
//
//	uncompressed_size  4 bytes (i32)
//	compressed_size    4 bytes (i32)
type PagePrefix struct {
	UncompressedSize int32
	CompressedSize   int32
}

// PagePrefixSize is the encoded byte width of PagePrefix.
const PagePrefixSize = 4 + 4

// DecodePagePrefix reads a PagePrefix from the front of buf.
func DecodePagePrefix(buf []byte) (PagePrefix, error) {
	if len(buf) < PagePrefixSize {
		return PagePrefix{}, ErrHeaderTooSmall
	}
	p := PagePrefix{
		UncompressedSize: int32(binary.BigEndian.Uint32(buf)),   //nolint:gosec
		CompressedSize:   int32(binary.BigEndian.Uint32(buf[4:])), //nolint:gosec
	}
	if p.UncompressedSize < 0 || p.CompressedSize < 0 {
		return PagePrefix{}, ErrCorruptChunk
	}
	return p, nil
}

// EncodeInto writes p to buf, which must be at least PagePrefixSize bytes.
func (p PagePrefix) EncodeInto(buf []byte) int {
	binary.BigEndian.PutUint32(buf, uint32(p.UncompressedSize)) //nolint:gosec
	binary.BigEndian.PutUint32(buf[4:], uint32(p.CompressedSize)) //nolint:gosec
	return PagePrefixSize
}

// PageSuffix is the fixed portion of a PageHeader that follows the
// Statistics blob. NumPoints, MaxTimestamp and MinTimestamp are the fields a
// caller feeds back into a deserialized Statistics via SetCount and
// SetTimeRange, since the wire-carried Statistics blob does not repeat them
// (see internal/stats.Deserialize).
//
//	num_points     4 bytes (i32)
//	max_timestamp  8 bytes (i64)
//	min_timestamp  8 bytes (i64)
type PageSuffix struct {
	NumPoints     int32
	MaxTimestamp  int64
	MinTimestamp  int64
}

// PageSuffixSize is the encoded byte width of PageSuffix.
const PageSuffixSize = 4 + 8 + 8

// DecodePageSuffix reads a PageSuffix from the front of buf.
func DecodePageSuffix(buf []byte) (PageSuffix, error) {
	if len(buf) < PageSuffixSize {
		return PageSuffix{}, ErrHeaderTooSmall
	}
	s := PageSuffix{
		NumPoints:    int32(binary.BigEndian.Uint32(buf)),    //nolint:gosec
		MaxTimestamp: int64(binary.BigEndian.Uint64(buf[4:])), //nolint:gosec
		MinTimestamp: int64(binary.BigEndian.Uint64(buf[12:])), //nolint:gosec
	}
	if s.NumPoints < 0 {
		return PageSuffix{}, ErrCorruptChunk
	}
	if s.MinTimestamp > s.MaxTimestamp {
		return PageSuffix{}, ErrCorruptChunk
	}
	return s, nil
}

// EncodeInto writes s to buf, which must be at least PageSuffixSize bytes.
func (s PageSuffix) EncodeInto(buf []byte) int {
	binary.BigEndian.PutUint32(buf, uint32(s.NumPoints)) //nolint:gosec
	binary.BigEndian.PutUint64(buf[4:], uint64(s.MaxTimestamp)) //nolint:gosec
	binary.BigEndian.PutUint64(buf[12:], uint64(s.MinTimestamp)) //nolint:gosec
	return PageSuffixSize
}
