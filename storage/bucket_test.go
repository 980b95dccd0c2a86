package storage_test

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thanos-io/objstore"

	"fpetkovski/mfem-parquet/storage"
)

const (
	kb = 1 * 1024
	mb = 1 * 1024 * 1024
)

func newBucket(t testing.TB, name string, size int) (objstore.Bucket, []byte) {
	data := make([]byte, size)
	rand.New(rand.NewSource(1)).Read(data)

	bucket := objstore.NewInMemBucket()
	require.NoError(t, bucket.Upload(context.Background(), name, bytes.NewReader(data)))
	return bucket, data
}

func TestBucketReader(t *testing.T) {
	bucket, data := newBucket(t, "mesh.parquet", 10*kb)
	reader := storage.NewBucketReader(context.Background(), "mesh.parquet", bucket)

	attrs, err := reader.Attributes()
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), attrs.Size)

	buffer := make([]byte, 100)
	n, err := reader.ReadAt(buffer, 1000)
	require.NoError(t, err)
	require.Equal(t, 100, n)
	require.Equal(t, data[1000:1100], buffer)
}

func TestChunkedReader(t *testing.T) {
	bucket, data := newBucket(t, "mesh.parquet", 100*kb)
	reader := storage.NewBucketReader(context.Background(), "mesh.parquet", bucket)

	for _, chunkSize := range []int{1 * kb, 3 * kb, 64 * kb, 1 * mb} {
		t.Run(fmt.Sprintf("%dKB", chunkSize/kb), func(t *testing.T) {
			chunked := storage.NewChunkedReader(reader, chunkSize)
			buffer := make([]byte, 50*kb+17)
			n, err := chunked.ReadAt(buffer, 123)
			require.NoError(t, err)
			require.Equal(t, len(buffer), n)
			require.Equal(t, data[123:123+len(buffer)], buffer)
		})
	}
}

func TestChunkedReaderMissingObject(t *testing.T) {
	reader := storage.NewBucketReader(context.Background(), "missing.parquet", objstore.NewInMemBucket())
	_, err := storage.NewChunkedReader(reader, kb).ReadAt(make([]byte, 4*kb), 0)
	require.Error(t, err)
}

func BenchmarkChunkedReads(b *testing.B) {
	bucket, _ := newBucket(b, "mesh.parquet", 16*mb)
	reader := storage.NewBucketReader(context.Background(), "mesh.parquet", bucket)
	chunkSizes := []int{
		16 * mb,
		4 * mb,
		1 * mb,
		256 * kb,
	}
	for _, chunkSize := range chunkSizes {
		b.Run(fmt.Sprintf("%dKB", chunkSize/kb), func(b *testing.B) {
			chunked := storage.NewChunkedReader(reader, chunkSize)
			buffer := make([]byte, 16*mb)
			for i := 0; i < b.N; i++ {
				_, err := chunked.ReadAt(buffer, 0)
				require.NoError(b, err)
			}
		})
	}
}
