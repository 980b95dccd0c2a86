package storage

import (
	"io"

	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 16

type chunkedReader struct {
	maxReadSize      int
	concurrencyLimit int
	reader           io.ReaderAt
}

// NewChunkedReader splits reads larger than maxReadSize into concurrent
// reads of at most maxReadSize bytes.
func NewChunkedReader(reader io.ReaderAt, maxReadSize int) io.ReaderAt {
	return chunkedReader{
		maxReadSize:      maxReadSize,
		concurrencyLimit: defaultConcurrency,
		reader:           reader,
	}
}

func (r chunkedReader) ReadAt(p []byte, off int64) (n int, err error) {
	if len(p) <= r.maxReadSize {
		return r.reader.ReadAt(p, off)
	}

	var g errgroup.Group
	g.SetLimit(r.concurrencyLimit)
	for bytesRead := 0; bytesRead < len(p); bytesRead += r.maxReadSize {
		readUntil := minInt(bytesRead+r.maxReadSize, len(p))
		part := p[bytesRead:readUntil]
		partOffset := int64(bytesRead) + off
		g.Go(func() error {
			_, err := r.reader.ReadAt(part, partOffset)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(p), nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
