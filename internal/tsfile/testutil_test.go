package tsfile

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"tsfile/internal/stats"
	"tsfile/internal/tsfile/format"
	"tsfile/internal/tsfile/storage"
)

// testPage is one page's worth of points to encode, used only by tests to
// build a chunk file byte-for-byte compatible with the production decode
// path (pagereader.go, chunkreader.go).
type testPage struct {
	times  []int64
	values []float64
}

// encodePageBody builds a page body in the [time-section-len][time
// section][value section] layout NewPageReader expects, encoding times as
// delta-varints and values as big-endian float64 (DOUBLE).
func encodePageBody(p testPage) []byte {
	var timeSection []byte
	prev := int64(0)
	for _, t := range p.times {
		timeSection = appendTestUvarint(timeSection, uint64(t-prev))
		prev = t
	}
	var valueSection []byte
	for _, v := range p.values {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
		valueSection = append(valueSection, b[:]...)
	}

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(timeSection))) //nolint:gosec
	body := append(append([]byte{}, lenPrefix[:]...), timeSection...)
	body = append(body, valueSection...)
	return body
}

func appendTestUvarint(dst []byte, v uint64) []byte {
	var tmp [10]byte
	n := 0
	for v >= 0x80 {
		tmp[n] = byte(v) | 0x80
		v >>= 7
		n++
	}
	tmp[n] = byte(v)
	n++
	return append(dst, tmp[:n]...)
}

// encodePageHeader builds a PagePrefix + Statistics + PageSuffix blob for a
// page, computing statistics from the page's own points.
func encodePageHeader(p testPage, uncompressedSize, compressedSize int32) []byte {
	st := stats.New(format.Double)
	for i, t := range p.times {
		st.Update(t, stats.Value{Type: format.Double, F64: p.values[i]})
	}

	var buf []byte
	var prefixBuf [8]byte
	binary.BigEndian.PutUint32(prefixBuf[:4], uint32(uncompressedSize)) //nolint:gosec
	binary.BigEndian.PutUint32(prefixBuf[4:], uint32(compressedSize))   //nolint:gosec
	buf = append(buf, prefixBuf[:]...)
	buf = st.Serialize(buf)

	var suffixBuf [20]byte
	binary.BigEndian.PutUint32(suffixBuf[:4], uint32(len(p.times))) //nolint:gosec
	binary.BigEndian.PutUint64(suffixBuf[4:12], uint64(p.times[len(p.times)-1])) //nolint:gosec
	binary.BigEndian.PutUint64(suffixBuf[12:20], uint64(p.times[0]))             //nolint:gosec
	buf = append(buf, suffixBuf[:]...)
	return buf
}

// writeTestChunkFile writes a single-chunk DOUBLE file (no compression) to
// dir, returning its path; the chunk always starts at byte offset 0.
func writeTestChunkFile(t *testing.T, dir, name string, pages []testPage) string {
	t.Helper()

	var body []byte
	for _, p := range pages {
		pageBody := encodePageBody(p)
		body = append(body, encodePageHeader(p, int32(len(pageBody)), int32(len(pageBody)))...) //nolint:gosec
		body = append(body, pageBody...)
	}

	h := format.ChunkHeader{
		MeasurementUID: "root.sg.d1.s1",
		BodySize:       int32(len(body)), //nolint:gosec
		NumPages:       int32(len(pages)), //nolint:gosec
		Compression:    uint8(codecNone),
		Encoding:       0,
		DataType:       format.Double,
		Endianness:     format.BigEndian,
	}
	headerBuf := make([]byte, h.EncodedSize())
	h.EncodeInto(headerBuf)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, append(headerBuf, body...), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const codecNone = 0

func newTestLoader(t *testing.T) storage.Loader {
	t.Helper()
	return storage.NewChunkLoader(storage.NewFileReaderCache(8))
}

func chunkMetaForFile(t *testing.T, path string, loader storage.Loader, pages []testPage) *ChunkMetaData {
	t.Helper()
	st := stats.New(format.Double)
	var startTime, endTime int64
	first := true
	for _, p := range pages {
		for i, tm := range p.times {
			st.Update(tm, stats.Value{Type: format.Double, F64: p.values[i]})
			if first || tm < startTime {
				startTime = tm
			}
			if first || tm > endTime {
				endTime = tm
			}
			first = false
		}
	}
	return &ChunkMetaData{
		MeasurementUID: "root.sg.d1.s1",
		FilePath:       path,
		Offset:         0,
		NumPoints:      int64(st.Count),
		StartTime:      startTime,
		EndTime:        endTime,
		DataType:       format.Double,
		Statistics:     st,
		Loader:         loader,
	}
}
