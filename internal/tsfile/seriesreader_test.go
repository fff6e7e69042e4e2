package tsfile

import (
	"testing"

	"tsfile/internal/modset"
)

// fakeResource is a minimal ResourceSource for testing UnseqResourceMergeReader
// without the catalog package, which imports tsfile and so cannot be
// imported from package tsfile's own tests without an import cycle.
type fakeResource struct {
	path       string
	closed     bool
	endTimeMap map[string]int64
	chunkMetas map[string][]*ChunkMetaData
	memChunk   map[string]*ChunkMetaData
}

func (r *fakeResource) ResourcePath() string { return r.path }
func (r *fakeResource) IsClosed() bool       { return r.closed }
func (r *fakeResource) EndTime(seriesPath string) (int64, bool) {
	t, ok := r.endTimeMap[seriesPath]
	return t, ok
}
func (r *fakeResource) SeriesChunkMetas(seriesPath string) []*ChunkMetaData {
	return r.chunkMetas[seriesPath]
}
func (r *fakeResource) SeriesMemChunk(seriesPath string) *ChunkMetaData {
	if r.memChunk == nil {
		return nil
	}
	return r.memChunk[seriesPath]
}

func TestScenario4And5SeriesReaderMergeAndTombstone(t *testing.T) {
	const series = "root.sg.d1.s1"
	dir := t.TempDir()
	loader := newTestLoader(t)

	seqPages := []testPage{{times: []int64{10, 20, 30}, values: []float64{1, 1, 1}}} // "a" == 1
	seqPath := writeTestChunkFile(t, dir, "seq.tsf", seqPages)
	seqMeta := chunkMetaForFile(t, seqPath, loader, seqPages)
	seqMeta.Version = 1

	unseqPages := []testPage{{times: []int64{20}, values: []float64{2}}} // "b" == 2
	unseqPath := writeTestChunkFile(t, dir, "unseq.tsf", unseqPages)
	unseqMeta := chunkMetaForFile(t, unseqPath, loader, unseqPages)
	unseqMeta.Version = 2

	resource := &fakeResource{
		path:       "unseq.tsf",
		closed:     true,
		chunkMetas: map[string][]*ChunkMetaData{series: {unseqMeta}},
	}

	buildReader := func(seqDeletedAt int64) *SeriesReader {
		seqMetaCopy := *seqMeta
		seqMetaCopy.DeletedAt = seqDeletedAt
		seqReader := NewFileSeriesReader([]*ChunkMetaData{&seqMetaCopy}, nil)

		unseqReader, err := NewUnseqResourceMergeReader(
			[]ResourceSource{resource}, series, nil, 0, 0,
			nil,
			func(string, string) ([]modset.Modification, error) { return nil, nil },
		)
		if err != nil {
			t.Fatalf("NewUnseqResourceMergeReader: %v", err)
		}
		return NewSeriesReader(seqReader, unseqReader)
	}

	drain := func(r *SeriesReader) []TimeValuePair {
		var out []TimeValuePair
		for {
			ok, err := r.HasNextBatch()
			if err != nil {
				t.Fatalf("HasNextBatch: %v", err)
			}
			if !ok {
				break
			}
			batch, err := r.NextBatch()
			if err != nil {
				t.Fatalf("NextBatch: %v", err)
			}
			for batch.HasNext() {
				out = append(out, TimeValuePair{Time: batch.CurrentTime(), Value: batch.CurrentValue()})
				batch.Advance()
			}
		}
		return out
	}

	t.Run("scenario4_no_tombstone", func(t *testing.T) {
		got := drain(buildReader(0))
		wantTimes := []int64{10, 20, 30}
		wantVals := []float64{1, 2, 1}
		if len(got) != 3 {
			t.Fatalf("got %d points: %+v", len(got), got)
		}
		for i := range wantTimes {
			if got[i].Time != wantTimes[i] || got[i].Value.F64 != wantVals[i] {
				t.Errorf("index %d: got %+v, want t=%d v=%v", i, got[i], wantTimes[i], wantVals[i])
			}
		}
	})

	t.Run("scenario5_tombstone_through_20", func(t *testing.T) {
		got := drain(buildReader(20))
		wantTimes := []int64{20, 30}
		wantVals := []float64{2, 1}
		if len(got) != 2 {
			t.Fatalf("got %d points: %+v", len(got), got)
		}
		for i := range wantTimes {
			if got[i].Time != wantTimes[i] || got[i].Value.F64 != wantVals[i] {
				t.Errorf("index %d: got %+v, want t=%d v=%v", i, got[i], wantTimes[i], wantVals[i])
			}
		}
	})

	t.Run("mergebatchsize_caps_points_per_batch", func(t *testing.T) {
		seqMetaCopy := *seqMeta
		seqReader := NewFileSeriesReader([]*ChunkMetaData{&seqMetaCopy}, nil)
		unseqReader, err := NewUnseqResourceMergeReader(
			[]ResourceSource{resource}, series, nil, 0, 0,
			nil,
			func(string, string) ([]modset.Modification, error) { return nil, nil },
		)
		if err != nil {
			t.Fatalf("NewUnseqResourceMergeReader: %v", err)
		}
		r := NewSeriesReaderWithConfig(seqReader, unseqReader, ReaderConfig{MergeBatchSize: 1})

		ok, err := r.HasNextBatch()
		if err != nil || !ok {
			t.Fatalf("HasNextBatch: ok=%v err=%v", ok, err)
		}
		batch, err := r.NextBatch()
		if err != nil {
			t.Fatalf("NextBatch: %v", err)
		}
		if batch.Len() != 1 {
			t.Errorf("batch.Len() = %d, want 1 with MergeBatchSize=1", batch.Len())
		}
	})
}
