package format

import "testing"

func TestChunkHeaderRoundTrip(t *testing.T) {
	h := ChunkHeader{
		MeasurementUID: "root.sg1.d1.temperature",
		BodySize:       4096,
		NumPages:       3,
		Compression:    2,
		Encoding:       0,
		DataType:       Double,
		Endianness:     BigEndian,
	}
	buf := make([]byte, h.EncodedSize())
	n := h.EncodeInto(buf)
	if n != len(buf) {
		t.Fatalf("EncodeInto wrote %d, EncodedSize = %d", n, len(buf))
	}

	got, consumed, err := DecodeChunkHeader(buf)
	if err != nil {
		t.Fatalf("DecodeChunkHeader: %v", err)
	}
	if consumed != len(buf) {
		t.Errorf("consumed %d, want %d", consumed, len(buf))
	}
	if got != h {
		t.Errorf("got %+v, want %+v", got, h)
	}
}

func TestChunkHeaderBadMarker(t *testing.T) {
	buf := []byte{0xFF, 0, 0}
	if _, _, err := DecodeChunkHeader(buf); err == nil {
		t.Fatal("expected error for bad marker")
	}
}

func TestChunkHeaderTruncated(t *testing.T) {
	h := ChunkHeader{MeasurementUID: "x", DataType: Int64, Endianness: LittleEndian}
	buf := make([]byte, h.EncodedSize())
	h.EncodeInto(buf)

	if _, _, err := DecodeChunkHeader(buf[:len(buf)-1]); err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestPagePrefixRoundTrip(t *testing.T) {
	p := PagePrefix{UncompressedSize: 1024, CompressedSize: 512}
	buf := make([]byte, PagePrefixSize)
	p.EncodeInto(buf)

	got, err := DecodePagePrefix(buf)
	if err != nil {
		t.Fatalf("DecodePagePrefix: %v", err)
	}
	if got != p {
		t.Errorf("got %+v, want %+v", got, p)
	}
}

func TestPageSuffixRoundTrip(t *testing.T) {
	s := PageSuffix{NumPoints: 500, MaxTimestamp: 2000, MinTimestamp: 1000}
	buf := make([]byte, PageSuffixSize)
	s.EncodeInto(buf)

	got, err := DecodePageSuffix(buf)
	if err != nil {
		t.Fatalf("DecodePageSuffix: %v", err)
	}
	if got != s {
		t.Errorf("got %+v, want %+v", got, s)
	}
}

func TestPageSuffixRejectsInvertedTimeRange(t *testing.T) {
	s := PageSuffix{NumPoints: 1, MaxTimestamp: 1, MinTimestamp: 2}
	buf := make([]byte, PageSuffixSize)
	s.EncodeInto(buf)
	if _, err := DecodePageSuffix(buf); err == nil {
		t.Fatal("expected error for min > max")
	}
}
