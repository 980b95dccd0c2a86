package db

import (
	"context"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v10/parquet/file"
	"github.com/pkg/errors"
	"github.com/segmentio/parquet-go"

	"fpetkovski/mfem-parquet/generic"
	"fpetkovski/mfem-parquet/pkg/write"
	"fpetkovski/mfem-parquet/schema"
)

const (
	MaxPageSize = 8 * 1024

	writeBufferSize    = 256 * 1024
	DataFileSuffix     = ".parquet"
	MetadataFileSuffix = ".metadata"
	tmpSuffix          = ".tmp"
)

type SinkOption func(*sinkOptions)

type sinkOptions struct {
	pageBufferSize  int
	bloomFilterBits uint
	metadataFiles   bool
}

func WithPageBufferSize(size int) SinkOption {
	return func(o *sinkOptions) {
		o.pageBufferSize = size
	}
}

// WithBloomFilterBits sets the bits per value of the element_id and vertex_id
// bloom filters. Zero disables them.
func WithBloomFilterBits(bits uint) SinkOption {
	return func(o *sinkOptions) {
		o.bloomFilterBits = bits
	}
}

// WithoutMetadataFiles skips writing a .metadata footer copy next to each
// table.
func WithoutMetadataFiles() SinkOption {
	return func(o *sinkOptions) {
		o.metadataFiles = false
	}
}

func applySinkOptions(opts []SinkOption) sinkOptions {
	o := sinkOptions{
		pageBufferSize:  MaxPageSize,
		bloomFilterBits: 10,
		metadataFiles:   true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type tableWriter struct {
	table  *schema.Table
	path   string
	file   *os.File
	writer *parquet.GenericWriter[any]
}

func (t *tableWriter) tmpPath() string {
	return t.path + tmpSuffix
}

// ParquetSink writes one parquet file per table into dir. Each batch becomes
// one row group. Files are written under a temporary name and only appear
// under their final name after Finalize.
type ParquetSink struct {
	dir     string
	opts    sinkOptions
	writers []*tableWriter
	closed  bool
}

func NewParquetSink(dir string, kind schema.Kind, opts ...SinkOption) (*ParquetSink, error) {
	tables, err := kind.Tables()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed creating output directory")
	}

	sink := &ParquetSink{dir: dir, opts: applySinkOptions(opts)}
	for _, table := range tables {
		w := &tableWriter{
			table: table,
			path:  filepath.Join(dir, table.Name()+DataFileSuffix),
		}
		f, err := os.Create(w.tmpPath())
		if err != nil {
			sink.Abort()
			return nil, errors.Wrapf(err, "failed creating file for table %s", table.Name())
		}
		w.file = f
		w.writer = sink.openWriter(f, table)
		sink.writers = append(sink.writers, w)
	}
	return sink, nil
}

func (s *ParquetSink) WriteBatch(ctx context.Context, batch write.Batch) error {
	if s.closed {
		return errors.New("sink is closed")
	}
	for _, w := range s.writers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if batch.TableRows(w.table) == 0 {
			continue
		}
		group, err := batch.RowGroup(w.table)
		if err != nil {
			return errors.Wrapf(err, "failed buffering rows of table %s", w.table.Name())
		}
		if _, err := w.writer.WriteRowGroup(group); err != nil {
			return errors.Wrapf(err, "failed writing row group of table %s", w.table.Name())
		}
	}
	return nil
}

// Finalize closes every table file, renames it into place and writes its
// metadata file.
func (s *ParquetSink) Finalize() error {
	if s.closed {
		return errors.New("sink is closed")
	}
	s.closed = true
	for _, w := range s.writers {
		if err := w.writer.Close(); err != nil {
			s.removeAll()
			return errors.Wrapf(err, "failed closing writer of table %s", w.table.Name())
		}
		if err := w.file.Close(); err != nil {
			s.removeAll()
			return errors.Wrapf(err, "failed closing file of table %s", w.table.Name())
		}
	}
	for _, w := range s.writers {
		if err := os.Rename(w.tmpPath(), w.path); err != nil {
			s.removeAll()
			return errors.Wrapf(err, "failed renaming file of table %s", w.table.Name())
		}
	}
	if !s.opts.metadataFiles {
		return nil
	}
	return generic.ParallelEach(s.writers, func(_ int, w *tableWriter) error {
		return errors.Wrapf(createMetadataFile(w.path), "failed writing metadata of table %s", w.table.Name())
	})
}

// Abort closes and removes every file written by the sink.
func (s *ParquetSink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for _, w := range s.writers {
		w.file.Close()
	}
	return s.removeAll()
}

func (s *ParquetSink) removeAll() error {
	var firstErr error
	for _, w := range s.writers {
		for _, p := range []string{w.tmpPath(), w.path, metadataPath(w.path)} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Files returns the final paths of the table files.
func (s *ParquetSink) Files() []string {
	files := make([]string, 0, len(s.writers))
	for _, w := range s.writers {
		files = append(files, w.path)
	}
	return files
}

func (s *ParquetSink) openWriter(f *os.File, table *schema.Table) *parquet.GenericWriter[any] {
	options := []parquet.WriterOption{
		table.ParquetSchema(),
		parquet.DefaultWriterConfig(),
		parquet.WriteBufferSize(writeBufferSize),
		parquet.PageBufferSize(s.opts.pageBufferSize),
		parquet.DataPageStatistics(true),
	}
	if filters := bloomFilters(table, s.opts.bloomFilterBits); len(filters) > 0 {
		options = append(options, parquet.BloomFilters(filters...))
	}
	return parquet.NewGenericWriter[any](f, options...)
}

func bloomFilters(table *schema.Table, bits uint) []parquet.BloomFilterColumn {
	if bits == 0 {
		return nil
	}
	var filters []parquet.BloomFilterColumn
	for _, column := range []string{schema.ElementIDColumn, schema.VertexIDColumn} {
		if table.ColumnIndex(column) >= 0 {
			filters = append(filters, parquet.SplitBlockFilter(bits, column))
		}
	}
	return filters
}

func metadataPath(dataPath string) string {
	return dataPath[:len(dataPath)-len(DataFileSuffix)] + MetadataFileSuffix
}

func createMetadataFile(dataPath string) error {
	f, err := os.Open(dataPath)
	if err != nil {
		return err
	}
	defer f.Close()

	pqReader, err := file.NewParquetReader(f)
	if err != nil {
		return err
	}
	defer pqReader.Close()

	metaFile, err := os.Create(metadataPath(dataPath))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	_, err = pqReader.MetaData().WriteTo(metaFile, nil)
	return err
}
