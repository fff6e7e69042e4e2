package codec

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/klauspost/compress/zstd"

	"tsfile/internal/tsfile/format"
)

func TestPlainTimeDecoderDeltaRoundTrip(t *testing.T) {
	want := []int64{100, 105, 200, 200, 500}

	var buf []byte
	prev := int64(0)
	for _, ts := range want {
		buf = appendUvarint(buf, uint64(ts-prev))
		prev = ts
	}

	dec := &plainTimeDecoder{}
	dec.Reset()
	var got []int64
	for dec.HasNext(buf) {
		ts, err := dec.Next(buf)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, ts)
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPlainValueDecoderInt64BigEndian(t *testing.T) {
	dec := &plainValueDecoder{dataType: format.Int64}
	dec.SetEndianness(format.BigEndian)

	buf := append(encodeInt64BE(7), encodeInt64BE(-3)...)
	v1, err := dec.Next(buf)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if v1.I64 != 7 {
		t.Errorf("v1 = %d, want 7", v1.I64)
	}
	v2, err := dec.Next(buf)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if v2.I64 != -3 {
		t.Errorf("v2 = %d, want -3", v2.I64)
	}
	if dec.HasNext(buf) {
		t.Error("expected no more values")
	}
}

func TestPlainValueDecoderText(t *testing.T) {
	dec := &plainValueDecoder{dataType: format.Text}
	var buf []byte
	buf = appendUvarint(buf, 5)
	buf = append(buf, "hello"...)
	buf = appendUvarint(buf, 0)

	v1, err := dec.Next(buf)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if v1.Text != "hello" {
		t.Errorf("v1 = %q, want hello", v1.Text)
	}
	v2, err := dec.Next(buf)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if v2.Text != "" {
		t.Errorf("v2 = %q, want empty", v2.Text)
	}
}

func TestZstdUncompressorRoundTrip(t *testing.T) {
	u, err := NewUncompressor(CompressionZstd)
	if err != nil {
		t.Fatalf("NewUncompressor: %v", err)
	}
	plain := []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility, repeated again")
	compressed := zstdEncodeForTest(t, plain)

	got, err := u.Decompress(compressed, len(plain))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(got) != string(plain) {
		t.Errorf("got %q, want %q", got, plain)
	}
}

func TestGzipUncompressorWithPoolReusesBuffer(t *testing.T) {
	plain := []byte("repeated repeated repeated repeated repeated content for gzip")
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(plain); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	compressed := buf.Bytes()

	pool := NewBufferPool(1)
	u := NewGzipUncompressorWithPool(pool)

	for i := 0; i < 3; i++ {
		got, err := u.Decompress(compressed, len(plain))
		if err != nil {
			t.Fatalf("Decompress: %v", err)
		}
		if string(got) != string(plain) {
			t.Errorf("iteration %d: got %q, want %q", i, got, plain)
		}
	}
}

func TestNewUncompressorUnknown(t *testing.T) {
	if _, err := NewUncompressor(Compression(99)); err != format.ErrUnknownType {
		t.Errorf("err = %v, want ErrUnknownType", err)
	}
}

func appendUvarint(dst []byte, v uint64) []byte {
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

func encodeInt64BE(v int64) []byte {
	var b [8]byte
	u := uint64(v) //nolint:gosec
	for i := 7; i >= 0; i-- {
		b[i] = byte(u)
		u >>= 8
	}
	return b[:]
}

func zstdEncodeForTest(t *testing.T, plain []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll(plain, nil)
}
