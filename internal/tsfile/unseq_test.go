package tsfile

import (
	"testing"

	"tsfile/internal/modset"
)

// TestUnseqMergePriorityTracksResourceScanOrderNotStartTime exercises two
// unsequential resources whose registration (scan) order and chunk
// StartTime order disagree: the older-registered resource's chunk starts
// later than the newer-registered resource's. Priority must still track
// scan order (§3: "higher priority = newer resource"), not the StartTime
// sort used only to pick chunk-reader open order (§4.8 step 7).
func TestUnseqMergePriorityTracksResourceScanOrderNotStartTime(t *testing.T) {
	const series = "root.sg.d1.s1"
	dir := t.TempDir()
	loader := newTestLoader(t)

	// Older resource, registered first: its one chunk starts late (t=20),
	// after the newer resource's chunk range begins.
	olderPages := []testPage{{times: []int64{20}, values: []float64{100}}}
	olderPath := writeTestChunkFile(t, dir, "older.tsf", olderPages)
	olderMeta := chunkMetaForFile(t, olderPath, loader, olderPages)

	// Newer resource, registered second: its chunk starts earlier (t=10)
	// but also has a point at t=20, colliding with the older resource's.
	newerPages := []testPage{{times: []int64{10, 20}, values: []float64{20, 200}}}
	newerPath := writeTestChunkFile(t, dir, "newer.tsf", newerPages)
	newerMeta := chunkMetaForFile(t, newerPath, loader, newerPages)

	older := &fakeResource{
		path:       "older.tsf",
		closed:     true,
		chunkMetas: map[string][]*ChunkMetaData{series: {olderMeta}},
	}
	newer := &fakeResource{
		path:       "newer.tsf",
		closed:     true,
		chunkMetas: map[string][]*ChunkMetaData{series: {newerMeta}},
	}

	noMods := func(string, string) ([]modset.Modification, error) { return nil, nil }

	r, err := NewUnseqResourceMergeReader(
		// Scan order: older first, newer second — newer must win ties
		// despite sorting before older by StartTime (10 < 20).
		[]ResourceSource{older, newer}, series, nil, 0, 0, nil, noMods,
	)
	if err != nil {
		t.Fatalf("NewUnseqResourceMergeReader: %v", err)
	}
	defer r.Close()

	var got []TimeValuePair
	for {
		ok, err := r.HasNext()
		if err != nil {
			t.Fatalf("HasNext: %v", err)
		}
		if !ok {
			break
		}
		p, err := r.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, p)
	}

	want := []TimeValuePair{
		{Time: 10, Value: got[0].Value}, // checked for time only below
		{Time: 20, Value: got[1].Value},
	}
	if len(got) != 2 {
		t.Fatalf("got %d points: %+v", len(got), got)
	}
	if got[0].Time != want[0].Time {
		t.Errorf("point 0 time = %d, want %d", got[0].Time, want[0].Time)
	}
	if got[1].Time != 20 || got[1].Value.F64 != 200 {
		t.Errorf("point at t=20 = %+v, want value 200 (the newer-registered resource's point, not the older resource's 100)", got[1])
	}
}
