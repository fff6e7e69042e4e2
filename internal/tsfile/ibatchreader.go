package tsfile

// IBatchReader is the consumer-facing interface every top-level reader
// implements (§6).
type IBatchReader interface {
	HasNextBatch() (bool, error)
	NextBatch() (*BatchData, error)
	Close() error
}

// IPointReader is the single-point-at-a-time capability PriorityMergeReader
// merges over (§4.7): has_next, current, advance, close. Anything that can
// produce a point stream — a ChunkReader's decoded batches, a mem-chunk —
// can be adapted to it.
type IPointReader interface {
	HasNext() (bool, error)
	Current() (TimeValuePair, error)
	Advance() error
	Close() error
}

// batchPointReader adapts an IBatchReader (here, typically a ChunkReader)
// to IPointReader by pulling whole batches and walking
// their cursor, re-pulling when a batch is exhausted or comes back empty
// after filtering.
type batchPointReader struct {
	source IBatchReader
	batch  *BatchData
}

// newBatchPointReader wraps source. Tie-breaking reader ids are assigned by
// PriorityMergeReader, not here.
func newBatchPointReader(source IBatchReader) *batchPointReader {
	return &batchPointReader{source: source}
}

func (p *batchPointReader) HasNext() (bool, error) {
	for {
		if p.batch != nil && p.batch.HasNext() {
			return true, nil
		}
		ok, err := p.source.HasNextBatch()
		if err != nil {
			return false, err
		}
		if !ok {
			p.batch = nil
			return false, nil
		}
		b, err := p.source.NextBatch()
		if err != nil {
			return false, err
		}
		p.batch = b
		if b.HasNext() {
			return true, nil
		}
		// Empty batch after filtering: try the next page/chunk.
	}
}

func (p *batchPointReader) Current() (TimeValuePair, error) {
	return TimeValuePair{Time: p.batch.CurrentTime(), Value: p.batch.CurrentValue()}, nil
}

func (p *batchPointReader) Advance() error {
	p.batch.Advance()
	return nil
}

func (p *batchPointReader) Close() error {
	return p.source.Close()
}
