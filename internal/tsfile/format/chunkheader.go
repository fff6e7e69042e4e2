package format

import (
	"encoding/binary"
	"fmt"
)

// ChunkHeader is the fixed-plus-variable-length header that opens every
// chunk: a marker byte, the length-prefixed measurement identifier, the
// chunk's total body size, its page count, and the codes a ChunkLoader needs
// to pick a decompressor and decoder before touching a single page.
//
//	marker            1 byte  (ChunkHeaderMarker)
//	measurement_uid   2-byte length prefix + UTF-8 bytes
//	body_size         4 bytes (i32, bytes of page data following the header)
//	num_pages         4 bytes (i32)
//	compression       1 byte
//	encoding          1 byte
//	data_type         1 byte
//	endianness        1 byte
type ChunkHeader struct {
	MeasurementUID string
	BodySize       int32
	NumPages       int32
	Compression    uint8
	Encoding       uint8
	DataType       DataType
	Endianness     Endianness
}

// DecodeChunkHeader reads a ChunkHeader from the front of buf, returning the
// header and the number of bytes consumed.
func DecodeChunkHeader(buf []byte) (ChunkHeader, int, error) {
	if len(buf) < 1 {
		return ChunkHeader{}, 0, ErrHeaderTooSmall
	}
	if buf[0] != ChunkHeaderMarker {
		return ChunkHeader{}, 0, fmt.Errorf("%w: unexpected marker 0x%02x", ErrCorruptChunk, buf[0])
	}
	offset := 1

	if len(buf) < offset+2 {
		return ChunkHeader{}, 0, ErrHeaderTooSmall
	}
	uidLen := int(binary.BigEndian.Uint16(buf[offset:]))
	offset += 2
	if len(buf) < offset+uidLen {
		return ChunkHeader{}, 0, ErrHeaderTooSmall
	}
	uid := string(buf[offset : offset+uidLen])
	offset += uidLen

	const tailLen = 4 + 4 + 1 + 1 + 1 + 1
	if len(buf) < offset+tailLen {
		return ChunkHeader{}, 0, ErrHeaderTooSmall
	}

	h := ChunkHeader{
		MeasurementUID: uid,
		BodySize:       int32(binary.BigEndian.Uint32(buf[offset:])), //nolint:gosec
		NumPages:       int32(binary.BigEndian.Uint32(buf[offset+4:])), //nolint:gosec
		Compression:    buf[offset+8],
		Encoding:       buf[offset+9],
		DataType:       DataType(buf[offset+10]),
		Endianness:     Endianness(buf[offset+11]),
	}
	offset += tailLen

	if h.BodySize < 0 || h.NumPages < 0 {
		return ChunkHeader{}, 0, fmt.Errorf("%w: negative body_size/num_pages", ErrCorruptChunk)
	}
	if !h.DataType.Valid() {
		return ChunkHeader{}, 0, ErrUnknownType
	}
	if !h.Endianness.Valid() {
		return ChunkHeader{}, 0, fmt.Errorf("%w: invalid endianness %d", ErrCorruptChunk, h.Endianness)
	}
	return h, offset, nil
}

// EncodeInto writes h to buf, which must be at least h.EncodedSize() bytes,
// and returns the number of bytes written. It exists alongside the read-path
// decoder to keep tests self-contained without a separate writer package.
func (h ChunkHeader) EncodeInto(buf []byte) int {
	buf[0] = ChunkHeaderMarker
	offset := 1
	binary.BigEndian.PutUint16(buf[offset:], uint16(len(h.MeasurementUID))) //nolint:gosec
	offset += 2
	offset += copy(buf[offset:], h.MeasurementUID)
	binary.BigEndian.PutUint32(buf[offset:], uint32(h.BodySize)) //nolint:gosec
	offset += 4
	binary.BigEndian.PutUint32(buf[offset:], uint32(h.NumPages)) //nolint:gosec
	offset += 4
	buf[offset] = h.Compression
	offset++
	buf[offset] = h.Encoding
	offset++
	buf[offset] = byte(h.DataType)
	offset++
	buf[offset] = byte(h.Endianness)
	offset++
	return offset
}

// EncodedSize returns the number of bytes EncodeInto writes for h.
func (h ChunkHeader) EncodedSize() int {
	return 1 + 2 + len(h.MeasurementUID) + 4 + 4 + 1 + 1 + 1 + 1
}

// Validate checks h.BodySize against the number of bytes actually available
// after the header in the file (remainingFileBytes), surfacing ErrCorruptChunk
// before a ChunkLoader reads past the end of the file or silently truncates a
// chunk's page data.
func Validate(h ChunkHeader, remainingFileBytes int64) error {
	if int64(h.BodySize) > remainingFileBytes {
		return fmt.Errorf("%w: body_size %d exceeds %d remaining file bytes", ErrCorruptChunk, h.BodySize, remainingFileBytes)
	}
	return nil
}
