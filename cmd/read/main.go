package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/segmentio/parquet-go"
	"github.com/thanos-io/objstore"
	"github.com/thanos-io/objstore/providers/filesystem"
	"gopkg.in/alecthomas/kingpin.v2"

	"fpetkovski/mfem-parquet/convert"
	"fpetkovski/mfem-parquet/dataset"
	"fpetkovski/mfem-parquet/db"
	"fpetkovski/mfem-parquet/schema"
)

func main() {
	app := kingpin.New("read", "Print row group statistics of a table written by mfem2parquet.")
	dir := app.Flag("dir", "Local directory holding the tables.").Default("./out").String()
	bucketConfigFile := app.Flag("bucket-config-file", "Bucket config; overrides --dir.").Default("").String()
	table := app.Arg("table", "Table name, optionally prefixed by the mesh name.").Default("mesh").String()
	rowsToPrint := app.Flag("rows", "Number of rows to print.").Default("0").Int()
	element := app.Flag("element", "Print the rows of this element id instead of statistics.").Default("-1").Int64()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	ctx := context.Background()

	bucket, err := openBucket(ctx, logger, *dir, *bucketConfigFile)
	if err != nil {
		level.Error(logger).Log("msg", "failed opening bucket", "err", err)
		os.Exit(1)
	}
	if *element >= 0 {
		err = printElement(ctx, os.Stdout, bucket, *table, *element)
	} else {
		err = printTable(ctx, os.Stdout, bucket, *table, *rowsToPrint)
	}
	if err != nil {
		level.Error(logger).Log("msg", "failed reading table", "table", *table, "err", err)
		os.Exit(1)
	}
}

func openBucket(ctx context.Context, logger log.Logger, dir, configFile string) (objstore.BucketReader, error) {
	if configFile == "" {
		return filesystem.NewBucket(dir)
	}
	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := convert.ParseBucketConfig(content)
	if err != nil {
		return nil, err
	}
	return convert.NewBucket(ctx, logger, cfg, "mfem2parquet-reader")
}

func printTable(ctx context.Context, w io.Writer, bucket objstore.BucketReader, table string, rowsToPrint int) error {
	reader, err := db.OpenFileReader(ctx, table, bucket)
	if err != nil {
		return err
	}
	file, err := reader.Open()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "table=%s size=%d rows=%d row_groups=%d\n", table, reader.FileSize(), file.NumRows(), len(file.RowGroups()))
	columns := file.Schema().Columns()
	for i, rg := range file.RowGroups() {
		fmt.Fprintf(w, "row_group=%d rows=%d\n", i, rg.NumRows())
		for j, chunk := range rg.ColumnChunks() {
			index := chunk.ColumnIndex()
			if index == nil || index.NumPages() == 0 {
				continue
			}
			minValue, maxValue := index.MinValue(0), index.MaxValue(0)
			for p := 1; p < index.NumPages(); p++ {
				if chunk.Type().Compare(index.MinValue(p), minValue) < 0 {
					minValue = index.MinValue(p)
				}
				if chunk.Type().Compare(index.MaxValue(p), maxValue) > 0 {
					maxValue = index.MaxValue(p)
				}
			}
			fmt.Fprintf(w, "  column=%s min=%v max=%v\n", columns[j][0], minValue, maxValue)
		}
	}
	if rowsToPrint <= 0 {
		return nil
	}

	groups, err := reader.RowGroups()
	if err != nil {
		return err
	}
	rows := make([]parquet.Row, rowsToPrint)
	var printed int
	for _, rg := range groups {
		groupRows := rg.Rows()
		n, err := groupRows.ReadRows(rows[printed:])
		groupRows.Close()
		if err != nil && err != io.EOF {
			return err
		}
		for _, row := range rows[printed : printed+n] {
			fmt.Fprintln(w, row)
		}
		printed += n
		if printed == rowsToPrint {
			break
		}
	}
	return nil
}

func printElement(ctx context.Context, w io.Writer, bucket objstore.BucketReader, table string, element int64) error {
	reader, err := db.OpenFileReader(ctx, table, bucket)
	if err != nil {
		return err
	}
	file, err := reader.Open()
	if err != nil {
		return err
	}

	scanner, err := dataset.NewEqualsScanner(file, schema.ElementIDColumn, element)
	if err != nil {
		return err
	}
	var candidates int64
	for _, result := range scanner.Scan() {
		candidates += result.NumRows()
	}
	rows, err := scanner.Rows()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "element=%d candidate_rows=%d matching_rows=%d\n", element, candidates, len(rows))
	for _, row := range rows {
		fmt.Fprintln(w, row)
	}
	return nil
}
