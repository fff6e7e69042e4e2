package storage

import (
	"fmt"
	"io"
	"os"
	"strings"

	seekable "github.com/SaveTheRbtz/zstd-seekable-format-go/pkg"
	"github.com/klauspost/compress/zstd"
)

// seekableSuffix marks a resource file as a whole-file seekable-zstd
// container rather than a plain file of chunk bytes. Grounded on the
// teacher's FlagCompressed convention (internal/chunk/file/compress.go),
// adapted to a file-extension marker since this engine has no shared
// format header of its own to carry a flag bit.
const seekableSuffix = ".zst"

// zstdDec is a package-level decoder, concurrent-safe, shared by every
// seekable reader opened through this package.
var zstdDec *zstd.Decoder

func init() {
	var err error
	zstdDec, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic("storage: init zstd decoder: " + err.Error())
	}
}

// openResourceFile opens path for random-access reads, transparently
// unwrapping a whole-file seekable-zstd container when the name carries
// seekableSuffix. A closed resource written this way lets the engine read
// individual chunk byte ranges (via ReadAt) without decompressing the
// whole file, the same trade-off the teacher's seekable zstd compression
// makes for rotated log segments.
func openResourceFile(path string) (io.ReaderAt, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	if !strings.HasSuffix(path, seekableSuffix) {
		return f, f, nil
	}

	r, err := seekable.NewReader(f, zstdDec)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("open seekable resource %s: %w", path, err)
	}
	return r, seekableCloser{reader: r, file: f}, nil
}

// seekableCloser closes both the seekable reader's own state and the
// underlying file, matching the teacher's "caller must close both" contract
// for openSeekableReader.
type seekableCloser struct {
	reader seekable.Reader
	file   *os.File
}

func (c seekableCloser) Close() error {
	rerr := c.reader.Close()
	ferr := c.file.Close()
	if rerr != nil {
		return rerr
	}
	return ferr
}
