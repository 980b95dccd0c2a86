package db

import (
	"context"
	"io"

	"github.com/apache/arrow/go/v10/parquet/metadata"
	"github.com/pkg/errors"
	"github.com/segmentio/parquet-go"
	"github.com/thanos-io/objstore"
	"golang.org/x/exp/slices"

	"fpetkovski/mfem-parquet/storage"
)

const (
	ReadBufferSize = 4 * 1024
	maxRangeSize   = 1024 * 1024
)

type section struct {
	from  int64
	to    int64
	bytes []byte
}

// FileReader reads a table file from a bucket. The footer comes from the
// table's metadata file and bloom filters are prefetched in one range read.
type FileReader struct {
	name     string
	size     int64
	metadata *metadata.FileMetaData
	reader   io.ReaderAt
	file     *parquet.File

	loadedSections []section
}

// OpenFileReader opens the table stored as <name>.parquet with its
// <name>.metadata file in bucket.
func OpenFileReader(ctx context.Context, name string, bucket objstore.BucketReader) (*FileReader, error) {
	fileMetadata, err := ReadMetadata(ctx, name+MetadataFileSuffix, bucket)
	if err != nil {
		return nil, errors.Wrap(err, "error reading file metadata")
	}

	dataFile := name + DataFileSuffix
	dataFileAttrs, err := bucket.Attributes(ctx, dataFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading file attributes")
	}

	reader := &FileReader{
		name:     name,
		size:     dataFileAttrs.Size,
		metadata: fileMetadata,
		reader:   storage.NewChunkedReader(storage.NewBucketReader(ctx, dataFile, bucket), maxRangeSize),
	}
	if err := reader.loadBloomFilters(); err != nil {
		return nil, errors.Wrap(err, "error reading column bloom filters")
	}
	return reader, nil
}

func (r *FileReader) MetaData() *metadata.FileMetaData {
	return r.metadata
}

func (r *FileReader) FileSize() int64 {
	return r.size
}

func (r *FileReader) ReadAt(p []byte, off int64) (int, error) {
	for _, s := range r.loadedSections {
		if off >= s.from && off+int64(len(p)) <= s.to {
			copy(p, s.bytes[off-s.from:off-s.from+int64(len(p))])
			return len(p), nil
		}
	}
	return r.reader.ReadAt(p, off)
}

// Open parses the table file.
func (r *FileReader) Open() (*parquet.File, error) {
	if r.file != nil {
		return r.file, nil
	}
	f, err := parquet.OpenFile(r, r.size, parquet.ReadBufferSize(ReadBufferSize))
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening %s", r.name)
	}
	r.file = f
	return f, nil
}

// RowGroups returns the row groups of the table. Rows read from them stay
// valid after subsequent reads.
func (r *FileReader) RowGroups() ([]parquet.RowGroup, error) {
	f, err := r.Open()
	if err != nil {
		return nil, err
	}
	groups := make([]parquet.RowGroup, 0, len(f.RowGroups()))
	for _, rg := range f.RowGroups() {
		groups = append(groups, newCopyingRowGroup(rg))
	}
	return groups, nil
}

func (r *FileReader) loadBloomFilters() error {
	var bloomFilterOffsets []int64
	for _, rg := range r.metadata.RowGroups {
		for _, c := range rg.Columns {
			if c.MetaData.BloomFilterOffset != nil {
				bloomFilterOffsets = append(bloomFilterOffsets, *c.MetaData.BloomFilterOffset)
			}
		}
	}
	if len(bloomFilterOffsets) == 0 {
		return nil
	}
	slices.SortFunc(bloomFilterOffsets, func(a, b int64) bool {
		return a < b
	})

	from := bloomFilterOffsets[0]
	to := bloomFilterOffsets[len(bloomFilterOffsets)-1] + ReadBufferSize
	if to > r.size {
		to = r.size
	}
	return r.loadSection(from, to)
}

func (r *FileReader) loadSection(from, to int64) error {
	buffer := make([]byte, to-from)
	if _, err := r.reader.ReadAt(buffer, from); err != nil {
		return err
	}
	r.loadedSections = append(r.loadedSections, section{
		from:  from,
		to:    to,
		bytes: buffer,
	})
	return nil
}

// ReadMetadata reads a metadata file written next to a table file.
func ReadMetadata(ctx context.Context, metadataFile string, bucket objstore.BucketReader) (*metadata.FileMetaData, error) {
	metaFileAttrs, err := bucket.Attributes(ctx, metadataFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get attributes for metadata file "+metadataFile)
	}

	metaReader, err := bucket.Get(ctx, metadataFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get metadata file "+metadataFile)
	}
	defer metaReader.Close()

	metadataBytes := make([]byte, metaFileAttrs.Size)
	if _, err := io.ReadFull(metaReader, metadataBytes); err != nil {
		return nil, err
	}

	return metadata.NewFileMetaData(metadataBytes, nil)
}
