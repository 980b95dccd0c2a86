package db

import (
	"context"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/ipc"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/pkg/errors"

	"fpetkovski/mfem-parquet/pkg/write"
	"fpetkovski/mfem-parquet/schema"
)

const ArrowFileSuffix = ".arrow"

type arrowTableWriter struct {
	table  *schema.Table
	path   string
	file   *os.File
	writer *ipc.FileWriter
}

// ArrowSink writes one Arrow IPC file per table into dir, one record per
// batch.
type ArrowSink struct {
	mem     memory.Allocator
	writers []*arrowTableWriter
	closed  bool
}

func NewArrowSink(dir string, kind schema.Kind, mem memory.Allocator) (*ArrowSink, error) {
	tables, err := kind.Tables()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed creating output directory")
	}

	sink := &ArrowSink{mem: mem}
	for _, table := range tables {
		w := &arrowTableWriter{
			table: table,
			path:  filepath.Join(dir, table.Name()+ArrowFileSuffix),
		}
		f, err := os.Create(w.path + tmpSuffix)
		if err != nil {
			sink.Abort()
			return nil, errors.Wrapf(err, "failed creating file for table %s", table.Name())
		}
		w.file = f
		sink.writers = append(sink.writers, w)

		w.writer, err = ipc.NewFileWriter(f, ipc.WithSchema(table.ArrowSchema()), ipc.WithAllocator(mem))
		if err != nil {
			sink.Abort()
			return nil, errors.Wrapf(err, "failed creating arrow writer for table %s", table.Name())
		}
	}
	return sink, nil
}

func (s *ArrowSink) WriteBatch(ctx context.Context, batch write.Batch) error {
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
		if err := s.writeRecord(w, batch); err != nil {
			return errors.Wrapf(err, "failed writing record of table %s", w.table.Name())
		}
	}
	return nil
}

func (s *ArrowSink) writeRecord(w *arrowTableWriter, batch write.Batch) error {
	record := NewRecord(s.mem, w.table, batch)
	defer record.Release()
	return w.writer.Write(record)
}

func (s *ArrowSink) Finalize() error {
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
		if err := os.Rename(w.path+tmpSuffix, w.path); err != nil {
			s.removeAll()
			return errors.Wrapf(err, "failed renaming file of table %s", w.table.Name())
		}
	}
	return nil
}

func (s *ArrowSink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for _, w := range s.writers {
		w.file.Close()
	}
	return s.removeAll()
}

func (s *ArrowSink) removeAll() error {
	var firstErr error
	for _, w := range s.writers {
		for _, p := range []string{w.path + tmpSuffix, w.path} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *ArrowSink) Files() []string {
	files := make([]string, 0, len(s.writers))
	for _, w := range s.writers {
		files = append(files, w.path)
	}
	return files
}

// NewRecord builds an Arrow record from the records of table in batch. The
// caller must release it.
func NewRecord(mem memory.Allocator, table *schema.Table, batch write.Batch) arrow.Record {
	builder := array.NewRecordBuilder(mem, table.ArrowSchema())
	defer builder.Release()

	columns := table.Columns()
	for _, row := range batch.Rows(table) {
		for i, c := range columns {
			switch c.Type {
			case schema.Int64:
				builder.Field(i).(*array.Int64Builder).Append(row[i].Int64())
			case schema.Double:
				builder.Field(i).(*array.Float64Builder).Append(row[i].Double())
			}
		}
	}
	return builder.NewRecord()
}
