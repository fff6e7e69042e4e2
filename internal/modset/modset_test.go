package modset

import "testing"

func TestDeletedAtWatermarkAppliesMatchingVersion(t *testing.T) {
	mods := []Modification{
		{SeriesPath: "root.sg.d1.s1", Version: 5, TimestampUpperBound: 20},
	}

	// Chunk at version 3 (<= modification's version 5) is covered.
	got := DeletedAtWatermark(mods, 3, 0)
	if got != 20 {
		t.Errorf("got %d, want 20", got)
	}
}

func TestDeletedAtWatermarkIgnoresOlderModificationVersion(t *testing.T) {
	mods := []Modification{
		{SeriesPath: "root.sg.d1.s1", Version: 1, TimestampUpperBound: 20},
	}
	// Chunk at version 5 postdates the modification's version; not deleted.
	got := DeletedAtWatermark(mods, 5, 0)
	if got != 0 {
		t.Errorf("got %d, want 0 (modification must not apply)", got)
	}
}

func TestDeletedAtWatermarkKeepsExistingIfHigher(t *testing.T) {
	mods := []Modification{
		{SeriesPath: "root.sg.d1.s1", Version: 5, TimestampUpperBound: 10},
	}
	got := DeletedAtWatermark(mods, 3, 50)
	if got != 50 {
		t.Errorf("got %d, want 50 (existing watermark already higher)", got)
	}
}

func TestMemStoreModifications(t *testing.T) {
	s := NewMemStore()
	s.Add("seq.tsf", Modification{SeriesPath: "root.sg.d1.s1", Version: 1, TimestampUpperBound: 20})

	mods, err := s.Modifications("seq.tsf", "root.sg.d1.s1")
	if err != nil {
		t.Fatalf("Modifications: %v", err)
	}
	if len(mods) != 1 || mods[0].TimestampUpperBound != 20 {
		t.Errorf("got %+v", mods)
	}

	none, err := s.Modifications("seq.tsf", "root.sg.d1.s2")
	if err != nil {
		t.Fatalf("Modifications: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %+v, want none", none)
	}
}
