package db

import (
	"github.com/segmentio/parquet-go"
)

type copyingRowGroup struct {
	parquet.RowGroup
}

func newCopyingRowGroup(rowGroup parquet.RowGroup) *copyingRowGroup {
	return &copyingRowGroup{RowGroup: rowGroup}
}

func (b copyingRowGroup) Rows() parquet.Rows {
	return newCopyingRows(b.RowGroup.Rows())
}

type copyingRows struct {
	parquet.Rows
}

func newCopyingRows(rows parquet.Rows) *copyingRows {
	return &copyingRows{Rows: rows}
}

// ReadRows clones every row read, since the underlying pages are reused.
func (b copyingRows) ReadRows(rows []parquet.Row) (int, error) {
	n, err := b.Rows.ReadRows(rows)
	for i, row := range rows[:n] {
		rows[i] = row.Clone()
	}
	return n, err
}
