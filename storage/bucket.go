package storage

import (
	"context"
	"io"

	"github.com/thanos-io/objstore"
)

// BucketReader exposes one object of a bucket as an io.ReaderAt.
type BucketReader struct {
	ctx    context.Context
	name   string
	bucket objstore.BucketReader
}

func NewBucketReader(ctx context.Context, name string, bucket objstore.BucketReader) *BucketReader {
	return &BucketReader{
		ctx:    ctx,
		name:   name,
		bucket: bucket,
	}
}

func (i BucketReader) Name() string {
	return i.name
}

func (i BucketReader) Attributes() (objstore.ObjectAttributes, error) {
	return i.bucket.Attributes(i.ctx, i.name)
}

func (i BucketReader) ReadAt(p []byte, off int64) (n int, err error) {
	rangeReader, err := i.bucket.GetRange(i.ctx, i.name, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer rangeReader.Close()

	return io.ReadFull(rangeReader, p)
}
