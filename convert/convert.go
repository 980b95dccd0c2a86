package convert

import (
	"context"

	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/pkg/errors"

	"fpetkovski/mfem-parquet/db"
	"fpetkovski/mfem-parquet/extract"
	"fpetkovski/mfem-parquet/mesh"
	"fpetkovski/mfem-parquet/pkg/write"
	"fpetkovski/mfem-parquet/schema"
)

type Result struct {
	Files    []string
	Elements int
	Batches  int
}

type fileSink interface {
	write.Sink
	Files() []string
}

func newSink(dir string, kind schema.Kind, cfg Config) (fileSink, error) {
	if cfg.Format == FormatArrow {
		return db.NewArrowSink(dir, kind, memory.DefaultAllocator)
	}
	return db.NewParquetSink(dir, kind,
		db.WithBloomFilterBits(cfg.BloomFilterBits),
		db.WithPageBufferSize(cfg.PageBufferSize),
	)
}

// Convert writes every element of src into dir. Output files only appear
// once the whole mesh was written.
func Convert(ctx context.Context, src mesh.Source, dir string, cfg Config, opts ...write.WriterOption) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	kind, err := cfg.Kind()
	if err != nil {
		return Result{}, err
	}

	session, err := extract.NewSession(src, kind)
	if err != nil {
		return Result{}, err
	}
	defer session.Close()

	sink, err := newSink(dir, kind, cfg)
	if err != nil {
		return Result{}, err
	}
	if cfg.BatchElements > 0 {
		opts = append(opts, write.WithMaxBatchElements(cfg.BatchElements))
	}
	writer, err := write.NewBatchWriter(session, sink, cfg.BufferRows, opts...)
	if err != nil {
		sink.Abort()
		return Result{}, err
	}
	if err := writer.Run(ctx); err != nil {
		return Result{}, errors.Wrap(err, "failed converting mesh")
	}
	return Result{
		Files:    sink.Files(),
		Elements: writer.Cursor().Position,
		Batches:  writer.Batches(),
	}, nil
}
