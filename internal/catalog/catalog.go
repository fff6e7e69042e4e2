// Package catalog stands in for the metadata catalogue and write-path view
// that the core treats as an external collaborator (§1, §6:
// "MetadataCatalogue::chunk_metas(resource, path) -> Vec<ChunkMetaData>").
// It is not the write path itself — just the minimal read-side surface the
// merge components (C8, C9) need: which file resources exist, whether each
// is closed, and its chunk metadata.
package catalog

import (
	"tsfile/internal/tsfile"

	"github.com/google/uuid"
)

// Kind distinguishes how a resource participates in merge ordering.
type Kind uint8

const (
	Sequential Kind = iota
	Unsequential
)

// Resource is one file resource: either a closed, fully-indexed file, or an
// unclosed file with a disk-resident prefix plus an in-memory tail exposed
// as a ReadOnlyMemChunk (§3 "File resource").
type Resource struct {
	// ID is a sortable, time-ordered identifier assigned when the resource
	// is registered with the catalogue, not derived from its file name.
	ID     uuid.UUID
	Path   string
	Kind   Kind
	Closed bool

	// EndTimeMap records, for an unclosed resource, the last flushed
	// timestamp per series — used by ResourceFilter to skip resources that
	// are provably outside a query's time range without touching disk.
	EndTimeMap map[string]int64

	// ChunkMetas are the resource's on-disk chunk metadata for every series
	// it holds (closed resources: loaded once and cached; unclosed: the
	// live in-memory list per §4.8 step 2).
	ChunkMetas map[string][]*tsfile.ChunkMetaData

	// MemChunk is the unflushed in-memory tail for an unclosed resource,
	// keyed by series path. Nil for closed resources.
	MemChunk map[string]*tsfile.ChunkMetaData
}

// NewResource builds a Resource with a fresh sortable ID, matching the
// teacher's uuid.NewV7() convention for entity identifiers created at
// registration time (cmd/gastrolog/cli/ingester.go).
func NewResource(path string, kind Kind) *Resource {
	return &Resource{
		ID:   uuid.Must(uuid.NewV7()),
		Path: path,
		Kind: kind,
	}
}

// ResourcePath implements tsfile.ResourceSource.
func (r *Resource) ResourcePath() string { return r.Path }

// IsClosed implements tsfile.ResourceSource.
func (r *Resource) IsClosed() bool { return r.Closed }

// EndTime implements tsfile.ResourceSource.
func (r *Resource) EndTime(seriesPath string) (int64, bool) {
	t, ok := r.EndTimeMap[seriesPath]
	return t, ok
}

// SeriesChunkMetas implements tsfile.ResourceSource.
func (r *Resource) SeriesChunkMetas(seriesPath string) []*tsfile.ChunkMetaData {
	return r.ChunkMetas[seriesPath]
}

// SeriesMemChunk implements tsfile.ResourceSource.
func (r *Resource) SeriesMemChunk(seriesPath string) *tsfile.ChunkMetaData {
	if r.MemChunk == nil {
		return nil
	}
	return r.MemChunk[seriesPath]
}

// Catalogue resolves a resource + series path to its chunk metadata list.
type Catalogue interface {
	ChunkMetas(resourcePath, seriesPath string) ([]*tsfile.ChunkMetaData, error)
}

// StaticCatalogue is a Catalogue backed by an in-memory list of Resources,
// sufficient for tests and the CLI's directory-scan entry point; a real
// deployment would back this with the on-disk catalogue the write path
// maintains.
type StaticCatalogue struct {
	resources map[string]*Resource
}

// NewStaticCatalogue indexes resources by path.
func NewStaticCatalogue(resources []*Resource) *StaticCatalogue {
	c := &StaticCatalogue{resources: make(map[string]*Resource, len(resources))}
	for _, r := range resources {
		c.resources[r.Path] = r
	}
	return c
}

// Resource returns the named resource, or nil if unknown.
func (c *StaticCatalogue) Resource(path string) *Resource {
	return c.resources[path]
}

// Resources returns every resource of the given kind.
func (c *StaticCatalogue) Resources(kind Kind) []*Resource {
	var out []*Resource
	for _, r := range c.resources {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// ChunkMetas implements Catalogue.
func (c *StaticCatalogue) ChunkMetas(resourcePath, seriesPath string) ([]*tsfile.ChunkMetaData, error) {
	r, ok := c.resources[resourcePath]
	if !ok {
		return nil, nil
	}
	return r.ChunkMetas[seriesPath], nil
}

// Invalidate clears a closed resource's cached chunk metadata, forcing the
// next ChunkMetas call to treat it as unknown until re-registered. Called by
// Watcher when the underlying file is rewritten out from under the
// catalogue (e.g. by external compaction).
func (c *StaticCatalogue) Invalidate(resourcePath string) {
	if r, ok := c.resources[resourcePath]; ok {
		r.ChunkMetas = nil
	}
}

// Remove drops a resource entirely, used by Watcher when the underlying
// file is deleted or renamed away.
func (c *StaticCatalogue) Remove(resourcePath string) {
	delete(c.resources, resourcePath)
}

// ResourceFilter lets C8 skip an unsequential resource without touching
// disk when its EndTimeMap proves it cannot satisfy a time-range filter.
type ResourceFilter interface {
	Satisfies(r *Resource, seriesPath string, minTime, maxTime int64) bool
}

// EndTimeFilter rejects a resource whose recorded end time for the series
// falls before the query's minimum time.
type EndTimeFilter struct{}

func (EndTimeFilter) Satisfies(r *Resource, seriesPath string, minTime, _ int64) bool {
	if r.EndTimeMap == nil {
		return true
	}
	end, ok := r.EndTimeMap[seriesPath]
	if !ok {
		return true
	}
	return end >= minTime
}
