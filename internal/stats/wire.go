package stats

import (
	"encoding/binary"
	"fmt"
	"math"

	"tsfile/internal/tsfile/format"
)

// Wire slots for the current (slot-id) serialization, in the order given by
// the format specification: min=0, max=1, first=2, last=3, sum=4.
const (
	slotMin  = 0
	slotMax  = 1
	slotFirst = 2
	slotLast = 3
	slotSum  = 4
)

// legacyNames are the field names used by the pre-slot-id wire format,
// indexed the same way as the slot constants above.
var legacyNames = [5]string{
	slotMin:  "min_value",
	slotMax:  "max_value",
	slotFirst: "first",
	slotLast: "last",
	slotSum:  "sum",
}

// Serialize appends the on-wire representation of s to dst and returns the
// result. Format: i32 valid_count, then valid_count entries of
// (i16 slot_id, i32 length, bytes). Empty statistics serialize to a single
// zero valid_count.
func (s *Statistics) Serialize(dst []byte) []byte {
	if s.Empty() {
		return appendI32(dst, 0)
	}

	entries := s.encodeEntries()
	dst = appendI32(dst, int32(len(entries))) //nolint:gosec // bounded by 5 entries
	for _, e := range entries {
		dst = appendI16(dst, int16(e.slot))
		dst = appendI32(dst, int32(len(e.bytes)))
		dst = append(dst, e.bytes...)
	}
	return dst
}

// SerializedSize returns the number of bytes Serialize would emit: 4 if
// empty (the zero valid_count alone); otherwise the 4-byte count plus five
// entries of (2-byte slot id, 4-byte length, payload), where the min, max,
// first and last payloads are datumSize bytes each for fixed-width types or
// their text lengths for TEXT, and the sum payload is 8 bytes.
func (s *Statistics) SerializedSize() int {
	if s.Empty() {
		return 4
	}
	datumSize := s.SizeOfDatum()
	if datumSize >= 0 {
		// count(4) + 4 slots * (slotID(2)+len(4)+datumSize) + sum slot(2+4+8)
		return 4 + 4*(2+4+datumSize) + (2 + 4 + 8)
	}
	// Variable length: min,max,first,last each carry their own text length.
	total := 4 + 4*(2+4) + (2 + 4 + 8)
	for _, v := range []Value{s.Min, s.Max, s.First, s.Last} {
		total += len(v.Text)
	}
	return total
}

type wireEntry struct {
	slot  int
	bytes []byte
}

func (s *Statistics) encodeEntries() []wireEntry {
	return []wireEntry{
		{slotMin, encodeValue(s.Min)},
		{slotMax, encodeValue(s.Max)},
		{slotFirst, encodeValue(s.First)},
		{slotLast, encodeValue(s.Last)},
		{slotSum, encodeFloat64(s.Sum)},
	}
}

func encodeValue(v Value) []byte {
	switch v.Type {
	case format.Bool:
		if v.Bool {
			return []byte{1}
		}
		return []byte{0}
	case format.Int32:
		return encodeInt32(v.I32)
	case format.Int64:
		return encodeInt64(v.I64)
	case format.Float:
		return encodeFloat32(v.F32)
	case format.Double:
		return encodeFloat64Value(v.F64)
	case format.Text:
		return []byte(v.Text)
	default:
		return nil
	}
}

func decodeValue(t format.DataType, b []byte) (Value, error) {
	switch t {
	case format.Bool:
		if len(b) < 1 {
			return Value{}, format.ErrDecodeError
		}
		return Value{Type: t, Bool: b[0] != 0}, nil
	case format.Int32:
		if len(b) < 4 {
			return Value{}, format.ErrDecodeError
		}
		return Value{Type: t, I32: int32(binary.BigEndian.Uint32(b))}, nil //nolint:gosec
	case format.Int64:
		if len(b) < 8 {
			return Value{}, format.ErrDecodeError
		}
		return Value{Type: t, I64: int64(binary.BigEndian.Uint64(b))}, nil //nolint:gosec
	case format.Float:
		if len(b) < 4 {
			return Value{}, format.ErrDecodeError
		}
		return Value{Type: t, F32: math.Float32frombits(binary.BigEndian.Uint32(b))}, nil
	case format.Double:
		if len(b) < 8 {
			return Value{}, format.ErrDecodeError
		}
		return Value{Type: t, F64: math.Float64frombits(binary.BigEndian.Uint64(b))}, nil
	case format.Text:
		return Value{Type: t, Text: string(b)}, nil
	default:
		return Value{}, format.ErrUnknownType
	}
}

// Deserialize reads a Statistics blob for the given data type from src,
// returning the parsed Statistics and the number of bytes consumed.
//
// Two wire layouts are accepted: the current slot-id layout and a legacy
// layout that keys each entry by name ("min_value", "max_value", "first",
// "last", "sum"). The two are distinguished without a format flag: after
// the leading i32 count, each entry's next two bytes are tried first as a
// slot id in [0,4]; if any entry fails that check the whole blob is
// re-parsed under the legacy, name-keyed layout instead.
//
// The blob carries Min, Max, First, Last, and Sum only. Count and the
// timestamps of First/Last are not part of the wire format — they live in
// the enclosing PageHeader/ChunkMetaData (NumPoints, MinTimestamp,
// MaxTimestamp) because a page's points are stored in ascending time order,
// so First's timestamp is always the page's start time and Last's the
// page's end time. Callers must call SetCount and SetTimeRange after
// Deserialize to get a fully-populated Statistics.
func Deserialize(src []byte, t format.DataType) (*Statistics, int, error) {
	if len(src) < 4 {
		return nil, 0, format.ErrDecodeError
	}
	count := int(readI32(src))
	if count == 0 {
		return New(t), 4, nil
	}

	if s, n, ok := tryDeserializeSlotID(src, t, count); ok {
		return s, n, nil
	}
	return deserializeLegacy(src, t, count)
}

func tryDeserializeSlotID(src []byte, t format.DataType, count int) (*Statistics, int, bool) {
	s := New(t)
	offset := 4
	seen := map[int]bool{}
	var sum float64
	for range count {
		if offset+6 > len(src) {
			return nil, 0, false
		}
		slot := int(int16(binary.BigEndian.Uint16(src[offset : offset+2]))) //nolint:gosec
		if slot < 0 || slot > slotSum || seen[slot] {
			return nil, 0, false
		}
		seen[slot] = true
		offset += 2
		length := int(readI32(src[offset:]))
		offset += 4
		if length < 0 || offset+length > len(src) {
			return nil, 0, false
		}
		payload := src[offset : offset+length]
		offset += length

		switch slot {
		case slotMin:
			v, err := decodeValue(t, payload)
			if err != nil {
				return nil, 0, false
			}
			s.Min = v
		case slotMax:
			v, err := decodeValue(t, payload)
			if err != nil {
				return nil, 0, false
			}
			s.Max = v
		case slotFirst:
			v, err := decodeValue(t, payload)
			if err != nil {
				return nil, 0, false
			}
			s.First = v
		case slotLast:
			v, err := decodeValue(t, payload)
			if err != nil {
				return nil, 0, false
			}
			s.Last = v
		case slotSum:
			if len(payload) < 8 {
				return nil, 0, false
			}
			sum = math.Float64frombits(binary.BigEndian.Uint64(payload))
		}
	}
	s.Sum = sum
	s.hasBounds = seen[slotMin] || seen[slotMax]
	s.hasFirst = seen[slotFirst]
	return s, offset, true
}

func deserializeLegacy(src []byte, t format.DataType, count int) (*Statistics, int, error) {
	s := New(t)
	offset := 4
	var sum float64
	for range count {
		if offset+2 > len(src) {
			return nil, 0, format.ErrDecodeError
		}
		nameLen := int(binary.BigEndian.Uint16(src[offset : offset+2]))
		offset += 2
		if nameLen < 0 || offset+nameLen > len(src) {
			return nil, 0, format.ErrDecodeError
		}
		name := string(src[offset : offset+nameLen])
		offset += nameLen

		if offset+4 > len(src) {
			return nil, 0, format.ErrDecodeError
		}
		valLen := int(readI32(src[offset:]))
		offset += 4
		if valLen < 0 || offset+valLen > len(src) {
			return nil, 0, format.ErrDecodeError
		}
		payload := src[offset : offset+valLen]
		offset += valLen

		switch name {
		case legacyNames[slotMin]:
			v, err := decodeValue(t, payload)
			if err != nil {
				return nil, 0, err
			}
			s.Min = v
			s.hasBounds = true
		case legacyNames[slotMax]:
			v, err := decodeValue(t, payload)
			if err != nil {
				return nil, 0, err
			}
			s.Max = v
			s.hasBounds = true
		case legacyNames[slotFirst]:
			v, err := decodeValue(t, payload)
			if err != nil {
				return nil, 0, err
			}
			s.First = v
			s.hasFirst = true
		case legacyNames[slotLast]:
			v, err := decodeValue(t, payload)
			if err != nil {
				return nil, 0, err
			}
			s.Last = v
		case legacyNames[slotSum]:
			if len(payload) < 8 {
				return nil, 0, format.ErrDecodeError
			}
			sum = math.Float64frombits(binary.BigEndian.Uint64(payload))
		default:
			return nil, 0, fmt.Errorf("stats: unrecognized legacy field %q", name)
		}
	}
	s.Sum = sum
	return s, offset, nil
}

func appendI16(dst []byte, v int16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v)) //nolint:gosec
	return append(dst, b[:]...)
}

func appendI32(dst []byte, v int32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v)) //nolint:gosec
	return append(dst, b[:]...)
}

func readI32(src []byte) int32 {
	return int32(binary.BigEndian.Uint32(src)) //nolint:gosec
}

func encodeInt32(v int32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v)) //nolint:gosec
	return b[:]
}

func encodeInt64(v int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v)) //nolint:gosec
	return b[:]
}

func encodeFloat32(v float32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	return b[:]
}

func encodeFloat64Value(v float64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	return b[:]
}

func encodeFloat64(v float64) []byte {
	return encodeFloat64Value(v)
}
