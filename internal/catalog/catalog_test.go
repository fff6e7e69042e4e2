package catalog

import "testing"

func TestNewResourceAssignsDistinctIDs(t *testing.T) {
	a := NewResource("seq-a.tsf", Sequential)
	b := NewResource("seq-b.tsf", Sequential)

	if a.ID == b.ID {
		t.Fatal("expected distinct resource IDs")
	}
	if a.Path != "seq-a.tsf" || a.Kind != Sequential {
		t.Errorf("got %+v", a)
	}
}

func TestEndTimeFilterSatisfies(t *testing.T) {
	r := &Resource{EndTimeMap: map[string]int64{"root.sg.d1.s1": 100}}
	var f ResourceFilter = EndTimeFilter{}

	if !f.Satisfies(r, "root.sg.d1.s1", 50, 0) {
		t.Error("expected resource ending at 100 to satisfy a query starting at 50")
	}
	if f.Satisfies(r, "root.sg.d1.s1", 150, 0) {
		t.Error("expected resource ending at 100 to reject a query starting at 150")
	}
	if !f.Satisfies(r, "root.sg.d1.s2", 150, 0) {
		t.Error("expected a series with no recorded end time to satisfy unconditionally")
	}
}

func TestStaticCatalogueChunkMetas(t *testing.T) {
	r := NewResource("seq.tsf", Sequential)

	cat := NewStaticCatalogue([]*Resource{r})
	if got := cat.Resource("seq.tsf"); got != r {
		t.Fatalf("Resource lookup mismatch")
	}
	if got := cat.Resource("missing.tsf"); got != nil {
		t.Errorf("expected nil for unknown resource, got %+v", got)
	}

	seq := cat.Resources(Sequential)
	if len(seq) != 1 || seq[0] != r {
		t.Errorf("got %+v", seq)
	}
}
