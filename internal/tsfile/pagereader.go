package tsfile

import (
	"encoding/binary"

	"tsfile/internal/tsfile/codec"
	"tsfile/internal/tsfile/format"
)

// PageReader decodes one already-decompressed page body into an ordered
// sequence of (time, value) pairs (C3). It buffers one decoded BatchData at
// a time to amortise decoder overhead; the reader itself is lazy, finite,
// and non-restartable.
//
// A decompressed page body is laid out as a 4-byte big-endian length
// prefix for the time column, the time column itself, then the value
// column running to the end of the buffer — this lets the time and value
// decoders each own an independent cursor over their own slice while still
// decoding in lock-step, one (time, value) pair at a time.
type PageReader struct {
	timeSection  []byte
	valueSection []byte
	dataType     format.DataType
	timeDec      codec.TimeDecoder
	valueDec     codec.ValueDecoder
	filter       Filter
	deletedAt    int64
	done         bool
}

// NewPageReader constructs a PageReader over a decompressed page body.
// timeDec and valueDec must already be Reset by the caller if reused across
// pages (§4.4: "decoder state MUST be reset between pages").
func NewPageReader(body []byte, dataType format.DataType, timeDec codec.TimeDecoder, valueDec codec.ValueDecoder, filter Filter, deletedAt int64, endianness format.Endianness) (*PageReader, error) {
	if len(body) < 4 {
		return nil, format.ErrDecodeError
	}
	timeLen := int(binary.BigEndian.Uint32(body))
	if 4+timeLen > len(body) {
		return nil, format.ErrDecodeError
	}
	timeDec.SetEndianness(endianness)
	valueDec.SetEndianness(endianness)
	return &PageReader{
		timeSection:  body[4 : 4+timeLen],
		valueSection: body[4+timeLen:],
		dataType:     dataType,
		timeDec:      timeDec,
		valueDec:     valueDec,
		filter:       filter,
		deletedAt:    deletedAt,
	}, nil
}

// NextBatch decodes the entire page into a BatchData, applying the deletion
// watermark and filter per point. A point is emitted iff time > deletedAt
// AND (filter is nil or filter.AcceptsPoint(time, value)); deletion is
// applied before the value filter so a value-referencing filter never sees
// tombstoned data (§9).
func (r *PageReader) NextBatch() (*BatchData, error) {
	batch := NewBatchData(r.dataType)
	if r.done {
		return batch, nil
	}
	r.done = true

	for r.timeDec.HasNext(r.timeSection) {
		t, err := r.timeDec.Next(r.timeSection)
		if err != nil {
			return nil, err
		}
		v, err := r.valueDec.Next(r.valueSection)
		if err != nil {
			return nil, err
		}
		if t <= r.deletedAt {
			continue
		}
		if !acceptsPoint(r.filter, t, v) {
			continue
		}
		batch.Put(t, v)
	}
	return batch, nil
}
