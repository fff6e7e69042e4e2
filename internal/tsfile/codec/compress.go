package codec

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"
)

// noneUncompressor returns its input unchanged; used for CompressionNone.
type noneUncompressor struct{}

func (noneUncompressor) Decompress(compressed []byte, _ int) ([]byte, error) {
	return compressed, nil
}

// gzipUncompressor decompresses a single gzip stream per page, borrowing its
// intermediate buffer from a BufferPool instead of allocating fresh per
// call.
type gzipUncompressor struct {
	pool *BufferPool
}

// NewGzipUncompressorWithPool returns a gzip Uncompressor that draws its
// scratch buffer from pool, letting a caller size the pool from
// tsfile.ReaderConfig.DecompressBufferPoolSize.
func NewGzipUncompressorWithPool(pool *BufferPool) Uncompressor {
	if pool == nil {
		pool = defaultBufferPool
	}
	return gzipUncompressor{pool: pool}
}

func (g gzipUncompressor) Decompress(compressed []byte, uncompressedSize int) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	pool := g.pool
	if pool == nil {
		pool = defaultBufferPool
	}
	buf := pool.Get()
	defer pool.Put(buf)
	buf.Grow(uncompressedSize)

	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// zstdUncompressor decompresses a single zstd frame per page, sharing one
// package-level decoder across calls the way the teacher shares one for
// whole-file decompression.
type zstdUncompressor struct{}

var zstdDec *zstd.Decoder

func init() {
	var err error
	zstdDec, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic("tsfile/codec: init zstd decoder: " + err.Error())
	}
}

func newZstdUncompressor() (Uncompressor, error) {
	return zstdUncompressor{}, nil
}

func (zstdUncompressor) Decompress(compressed []byte, uncompressedSize int) ([]byte, error) {
	return zstdDec.DecodeAll(compressed, make([]byte, 0, uncompressedSize))
}
