package pqtest

import (
	"io"
	"os"

	"github.com/segmentio/parquet-go"

	"fpetkovski/mfem-parquet/schema"
)

func WriteFile(path string, table *schema.Table, groups ...[]parquet.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := parquet.NewGenericWriter[any](f, table.ParquetSchema())
	for _, rows := range groups {
		if _, err := writer.WriteRows(rows); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
	}
	return writer.Close()
}

func OpenFile(path string) (*parquet.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return parquet.OpenFile(f, stat.Size())
}

// ReadFile returns every row of the file at path, in file order.
func ReadFile(path string) ([]parquet.Row, error) {
	file, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	return ReadRows(file)
}

func ReadRows(file *parquet.File) ([]parquet.Row, error) {
	var result []parquet.Row
	buf := make([]parquet.Row, 32)
	for _, rowGroup := range file.RowGroups() {
		rows := rowGroup.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				result = append(result, row.Clone())
			}
			if err == io.EOF || (err == nil && n == 0) {
				break
			}
			if err != nil {
				rows.Close()
				return nil, err
			}
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// CopyFile writes every row of rows into a new single row group file.
func CopyFile(path string, table *schema.Table, rows parquet.RowReader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := parquet.NewGenericWriter[any](f, table.ParquetSchema())
	if _, err := parquet.CopyRows(writer, rows); err != nil {
		return err
	}
	return writer.Close()
}
