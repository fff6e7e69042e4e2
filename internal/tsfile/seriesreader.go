package tsfile

import "errors"

// ReaderState is the SeriesReader facade's lifecycle (§4.9).
type ReaderState int

const (
	StateInit ReaderState = iota
	StateReady
	StateEOF
	StateFailed
)

// ErrReaderFailed is returned by every call after a subordinate reader
// faults; a failed SeriesReader fails fast on every subsequent call (§7:
// "Partial results are never returned").
var ErrReaderFailed = errors.New("tsfile: series reader failed")

// SeriesReader is the top-level facade (C9): it combines a sequential-file
// FileSeriesReader with an unsequential UnseqResourceMergeReader behind one
// IBatchReader, applying the user filter and resolving duplicate
// timestamps in favour of the unsequential (newer) side.
type SeriesReader struct {
	seq   *FileSeriesReader
	unseq *UnseqResourceMergeReader

	state     ReaderState
	batchSize int

	haveSeq    bool
	seqCurrent TimeValuePair
	seqBatch   *BatchData
	haveUnseq  bool
	unseqCur   TimeValuePair
}

// NewSeriesReader constructs the facade. Either side may be nil if that
// source has nothing to contribute (e.g. no unsequential files). Batches are
// capped at BatchSizeLimit; use NewSeriesReaderWithConfig to override it.
func NewSeriesReader(seq *FileSeriesReader, unseq *UnseqResourceMergeReader) *SeriesReader {
	return NewSeriesReaderWithConfig(seq, unseq, ReaderConfig{})
}

// NewSeriesReaderWithConfig constructs the facade with an explicit
// ReaderConfig; a zero MergeBatchSize falls back to BatchSizeLimit.
func NewSeriesReaderWithConfig(seq *FileSeriesReader, unseq *UnseqResourceMergeReader, cfg ReaderConfig) *SeriesReader {
	batchSize := cfg.MergeBatchSize
	if batchSize <= 0 {
		batchSize = BatchSizeLimit
	}
	return &SeriesReader{seq: seq, unseq: unseq, state: StateInit, batchSize: batchSize}
}

// HasNextBatch implements IBatchReader by buffering the next point of each
// side (NextBatch does the draining), advancing the state machine
// INIT->READY when either side has a point and to EOF when both sides are
// exhausted.
func (s *SeriesReader) HasNextBatch() (bool, error) {
	if s.state == StateFailed {
		return false, ErrReaderFailed
	}
	if s.state == StateEOF {
		return false, nil
	}
	if err := s.fill(); err != nil {
		s.state = StateFailed
		return false, err
	}
	if !s.haveSeq && !s.haveUnseq {
		s.state = StateEOF
		return false, nil
	}
	s.state = StateReady
	return true, nil
}

// NextBatch drains up to s.batchSize merged points into a BatchData. Callers
// must call HasNextBatch first; a second call after EOF returns an empty
// batch (§8 idempotence).
func (s *SeriesReader) NextBatch() (*BatchData, error) {
	if s.state == StateFailed {
		return nil, ErrReaderFailed
	}
	batch := NewBatchData(0)
	if s.state == StateEOF {
		return batch, nil
	}

	for batch.Len() < s.batchSize {
		if err := s.fill(); err != nil {
			s.state = StateFailed
			return nil, err
		}
		if !s.haveSeq && !s.haveUnseq {
			s.state = StateEOF
			break
		}

		var point TimeValuePair
		switch {
		case s.haveUnseq && s.haveSeq:
			if s.unseqCur.Time <= s.seqCurrent.Time {
				point = s.unseqCur
				if s.unseqCur.Time == s.seqCurrent.Time {
					// Unsequential (newer version) wins ties; drop the
					// shadowed sequential value (§4.9, §8).
					s.haveSeq = false
				}
				s.haveUnseq = false
			} else {
				point = s.seqCurrent
				s.haveSeq = false
			}
		case s.haveUnseq:
			point = s.unseqCur
			s.haveUnseq = false
		case s.haveSeq:
			point = s.seqCurrent
			s.haveSeq = false
		}
		batch.Put(point.Time, point.Value)
	}
	return batch, nil
}

// fill ensures both sides have a buffered current point (or are known
// exhausted) without consuming either.
func (s *SeriesReader) fill() error {
	if !s.haveSeq && s.seq != nil {
		ok, err := s.nextSeqPoint()
		if err != nil {
			return err
		}
		s.haveSeq = ok
	}
	if !s.haveUnseq && s.unseq != nil {
		ok, err := s.unseq.HasNext()
		if err != nil {
			return err
		}
		if ok {
			cur, err := s.unseq.Next()
			if err != nil {
				return err
			}
			s.unseqCur = cur
			s.haveUnseq = true
		}
	}
	return nil
}

// nextSeqPoint pulls one point from the sequential side, advancing through
// batches as needed.
func (s *SeriesReader) nextSeqPoint() (bool, error) {
	for {
		if s.seqBatch != nil && s.seqBatch.HasNext() {
			s.seqCurrent = TimeValuePair{Time: s.seqBatch.CurrentTime(), Value: s.seqBatch.CurrentValue()}
			s.seqBatch.Advance()
			return true, nil
		}
		ok, err := s.seq.HasNext()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		b, err := s.seq.NextBatch()
		if err != nil {
			return false, err
		}
		s.seqBatch = b
	}
}

// Close releases both subordinate readers. Idempotent.
func (s *SeriesReader) Close() error {
	var firstErr error
	if s.seq != nil {
		if err := s.seq.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.unseq != nil {
		if err := s.unseq.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
