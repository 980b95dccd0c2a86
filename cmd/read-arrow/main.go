package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v10/arrow/ipc"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet/file"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"

	"fpetkovski/mfem-parquet/db"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalln("usage: read-arrow <table.parquet|table.arrow>")
	}
	path := os.Args[1]

	var err error
	switch filepath.Ext(path) {
	case db.ArrowFileSuffix:
		err = printArrowFile(os.Stdout, path)
	default:
		err = printParquetFile(os.Stdout, path)
	}
	if err != nil {
		log.Fatalln(err.Error())
	}
}

func printParquetFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pqreader, err := file.NewParquetReader(f)
	if err != nil {
		return err
	}
	defer pqreader.Close()

	schema := pqreader.MetaData().Schema
	for i := 0; i < schema.NumColumns(); i++ {
		fmt.Fprintln(w, schema.Column(i).Name())
	}

	freader, err := pqarrow.NewFileReader(pqreader, pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: 4 * 1024,
	}, memory.DefaultAllocator)
	if err != nil {
		return err
	}

	table, err := freader.ReadTable(context.Background())
	if err != nil {
		return err
	}
	defer table.Release()

	fmt.Fprintf(w, "rows=%d columns=%d\n", table.NumRows(), table.NumCols())
	for i := 0; i < int(table.NumCols()); i++ {
		column := table.Column(i)
		fmt.Fprintf(w, "%s: %d values in %d chunks\n", column.Name(), column.Len(), len(column.Data().Chunks()))
	}
	return nil
}

func printArrowFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return err
	}
	defer reader.Close()

	fmt.Fprintln(w, reader.Schema())
	var rows int64
	for i := 0; i < reader.NumRecords(); i++ {
		record, err := reader.Record(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "record=%d rows=%d\n", i, record.NumRows())
		rows += record.NumRows()
	}
	fmt.Fprintf(w, "records=%d rows=%d\n", reader.NumRecords(), rows)
	return nil
}
