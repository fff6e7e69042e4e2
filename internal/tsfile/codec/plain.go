package codec

import (
	"encoding/binary"
	"math"

	"tsfile/internal/stats"
	"tsfile/internal/tsfile/format"
)

// plainTimeDecoder decodes a run of delta-varint-encoded timestamps. The
// first timestamp is the delta from zero; each subsequent timestamp is the
// delta from the previous one, so a decoder's cursor (pos, prev) must be
// reset between pages per §4.4 ("decoder state MUST be reset between
// pages").
type plainTimeDecoder struct {
	pos  int
	prev int64
}

func (d *plainTimeDecoder) Reset() {
	d.pos = 0
	d.prev = 0
}

func (d *plainTimeDecoder) SetEndianness(format.Endianness) {
	// Timestamps are always varint-encoded regardless of chunk endianness;
	// only fixed-width value columns are byte-order sensitive.
}

func (d *plainTimeDecoder) HasNext(buf []byte) bool {
	return d.pos < len(buf)
}

func (d *plainTimeDecoder) Next(buf []byte) (int64, error) {
	delta, n := binary.Uvarint(buf[d.pos:])
	if n <= 0 {
		return 0, format.ErrDecodeError
	}
	d.pos += n
	d.prev += int64(delta) //nolint:gosec
	return d.prev, nil
}

// plainValueDecoder decodes a run of fixed-width (or, for TEXT,
// length-prefixed) values for a single data type.
type plainValueDecoder struct {
	pos        int
	dataType   format.DataType
	endianness format.Endianness
}

func (d *plainValueDecoder) Reset() {
	d.pos = 0
}

func (d *plainValueDecoder) SetEndianness(e format.Endianness) {
	d.endianness = e
}

func (d *plainValueDecoder) byteOrder() binary.ByteOrder {
	if d.endianness == format.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (d *plainValueDecoder) HasNext(buf []byte) bool {
	return d.pos < len(buf)
}

func (d *plainValueDecoder) Next(buf []byte) (stats.Value, error) {
	switch d.dataType {
	case format.Bool:
		if d.pos+1 > len(buf) {
			return stats.Value{}, format.ErrDecodeError
		}
		v := stats.Value{Type: format.Bool, Bool: buf[d.pos] != 0}
		d.pos++
		return v, nil
	case format.Int32:
		if d.pos+4 > len(buf) {
			return stats.Value{}, format.ErrDecodeError
		}
		v := stats.Value{Type: format.Int32, I32: int32(d.byteOrder().Uint32(buf[d.pos:]))} //nolint:gosec
		d.pos += 4
		return v, nil
	case format.Int64:
		if d.pos+8 > len(buf) {
			return stats.Value{}, format.ErrDecodeError
		}
		v := stats.Value{Type: format.Int64, I64: int64(d.byteOrder().Uint64(buf[d.pos:]))} //nolint:gosec
		d.pos += 8
		return v, nil
	case format.Float:
		if d.pos+4 > len(buf) {
			return stats.Value{}, format.ErrDecodeError
		}
		v := stats.Value{Type: format.Float, F32: math.Float32frombits(d.byteOrder().Uint32(buf[d.pos:]))}
		d.pos += 4
		return v, nil
	case format.Double:
		if d.pos+8 > len(buf) {
			return stats.Value{}, format.ErrDecodeError
		}
		v := stats.Value{Type: format.Double, F64: math.Float64frombits(d.byteOrder().Uint64(buf[d.pos:]))}
		d.pos += 8
		return v, nil
	case format.Text:
		length, n := binary.Uvarint(buf[d.pos:])
		if n <= 0 {
			return stats.Value{}, format.ErrDecodeError
		}
		start := d.pos + n
		end := start + int(length) //nolint:gosec
		if end > len(buf) {
			return stats.Value{}, format.ErrDecodeError
		}
		v := stats.Value{Type: format.Text, Text: string(buf[start:end])}
		d.pos = end
		return v, nil
	default:
		return stats.Value{}, format.ErrUnknownType
	}
}
