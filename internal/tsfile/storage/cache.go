package storage

import (
	"container/list"
	"fmt"
	"log/slog"
	"sync"

	"tsfile/internal/logging"
)

// FileReaderCache bounds the number of concurrently-open file handles.
// Borrows are ref-counted so an in-flight query pins its file open even
// under eviction pressure; eviction only ever drops handles with a zero
// ref-count, and a handle whose ref-count drops to zero while marked for
// eviction is closed immediately (§4.6, §5 "Shared resources").
type FileReaderCache struct {
	mu       sync.Mutex
	capacity int
	handles  map[string]*list.Element // path -> entry in lru
	lru      *list.List                // front = most recently used
	logger   *slog.Logger
}

type cacheEntry struct {
	handle  *fileHandle
	evicted bool
}

// NewFileReaderCache returns a cache that keeps at most capacity open file
// handles with zero outstanding borrows before evicting the least recently
// used. Lifecycle events (open, evict) are discarded; use
// NewFileReaderCacheWithLogger to observe them.
func NewFileReaderCache(capacity int) *FileReaderCache {
	return NewFileReaderCacheWithLogger(capacity, nil)
}

// NewFileReaderCacheWithLogger is NewFileReaderCache, logging file-open and
// eviction lifecycle events to logger (or discarding them if nil).
func NewFileReaderCacheWithLogger(capacity int, logger *slog.Logger) *FileReaderCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &FileReaderCache{
		capacity: capacity,
		handles:  make(map[string]*list.Element),
		lru:      list.New(),
		logger:   logging.Default(logger).With("component", "storage.filereadercache"),
	}
}

// Acquire borrows the file handle for path, opening it if not already
// cached, and increments its ref-count. Callers must call Release exactly
// once per successful Acquire.
func (c *FileReaderCache) Acquire(path string) (*fileHandle, error) {
	c.mu.Lock()
	if el, ok := c.handles[path]; ok {
		entry := el.Value.(*cacheEntry) //nolint:errcheck
		entry.handle.refCount++
		c.lru.MoveToFront(el)
		c.mu.Unlock()
		return entry.handle, nil
	}
	c.mu.Unlock()

	reader, closer, err := openResourceFile(path)
	if err != nil {
		return nil, fmt.Errorf("file reader cache: open %s: %w", path, err)
	}
	c.logger.Debug("file opened", "path", path)
	handle := &fileHandle{path: path, reader: reader, closer: closer, refCount: 1}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.handles[path]; ok {
		// Lost the race to open path; reuse the winner's handle and close ours.
		closer.Close()
		entry := el.Value.(*cacheEntry) //nolint:errcheck
		entry.handle.refCount++
		c.lru.MoveToFront(el)
		return entry.handle, nil
	}
	el := c.lru.PushFront(&cacheEntry{handle: handle})
	c.handles[path] = el
	c.evictLocked()
	return handle, nil
}

// Release returns a borrowed handle. When the ref-count reaches zero and
// the handle was marked for eviction, it is closed immediately.
func (c *FileReaderCache) Release(handle *fileHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	handle.refCount--
	if handle.refCount > 0 {
		return
	}
	el, ok := c.handles[handle.path]
	if !ok {
		handle.closer.Close()
		return
	}
	entry := el.Value.(*cacheEntry) //nolint:errcheck
	if entry.evicted {
		delete(c.handles, handle.path)
		c.lru.Remove(el)
		handle.closer.Close()
	}
}

// evictLocked drops least-recently-used handles with zero ref-count until
// the cache is back under capacity. Must be called with c.mu held.
func (c *FileReaderCache) evictLocked() {
	for c.lru.Len() > c.capacity {
		el := c.lru.Back()
		entry := el.Value.(*cacheEntry) //nolint:errcheck
		if entry.handle.refCount > 0 {
			entry.evicted = true
			// Can't evict a pinned handle; nothing more we can do from the
			// back, and everything in front of it is more recently used.
			break
		}
		delete(c.handles, entry.handle.path)
		c.lru.Remove(el)
		entry.handle.closer.Close()
		c.logger.Debug("file evicted", "path", entry.handle.path)
	}
}

// Close closes every handle with zero ref-count and marks any still-borrowed
// handle for close-on-release.
func (c *FileReaderCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for path, el := range c.handles {
		entry := el.Value.(*cacheEntry) //nolint:errcheck
		if entry.handle.refCount == 0 {
			entry.handle.closer.Close()
			delete(c.handles, path)
			c.lru.Remove(el)
		} else {
			entry.evicted = true
		}
	}
	return nil
}
