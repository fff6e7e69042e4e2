package codec

import "bytes"

// DefaultBufferPoolSize is the number of scratch buffers a BufferPool holds
// ready for reuse when the caller doesn't override it via
// tsfile.ReaderConfig.DecompressBufferPoolSize.
const DefaultBufferPoolSize = 32

// BufferPool hands gzipUncompressor reusable *bytes.Buffer scratch space for
// the decompressed page body, so a scan that decodes thousands of pages
// back to back doesn't allocate a fresh buffer per page. Channel-based
// rather than sync.Pool: page decompression sits in the merge hot loop, and
// sync.Pool drops every entry on each GC cycle, which would re-trigger the
// buffer's ring-growth on the very next page — the same churn the teacher's
// brotliPool comment calls out for its writer pool.
type BufferPool struct {
	ch chan *bytes.Buffer
}

// NewBufferPool returns a BufferPool holding up to size buffers. A
// non-positive size falls back to DefaultBufferPoolSize.
func NewBufferPool(size int) *BufferPool {
	if size <= 0 {
		size = DefaultBufferPoolSize
	}
	return &BufferPool{ch: make(chan *bytes.Buffer, size)}
}

// Get returns a reset, empty buffer, reusing one from the pool when
// available.
func (p *BufferPool) Get() *bytes.Buffer {
	select {
	case buf := <-p.ch:
		return buf
	default:
		return new(bytes.Buffer)
	}
}

// Put returns buf to the pool for reuse. If the pool is full, buf is
// dropped for the garbage collector to reclaim.
func (p *BufferPool) Put(buf *bytes.Buffer) {
	buf.Reset()
	select {
	case p.ch <- buf:
	default:
	}
}

// defaultBufferPool is used by the package-level Uncompressor constructors
// (NewUncompressor), which have no way to take a per-call pool; a dedicated
// BufferPool sized from tsfile.ReaderConfig can be wired in instead via
// NewGzipUncompressorWithPool where the caller controls construction.
var defaultBufferPool = NewBufferPool(DefaultBufferPoolSize)
