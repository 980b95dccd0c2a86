package write

import (
	"github.com/segmentio/parquet-go"

	"fpetkovski/mfem-parquet/schema"
)

// RowGroup buffers rows of one table in insertion order.
type RowGroup struct {
	table  *schema.Table
	buffer *parquet.RowBuffer[any]
}

func NewRowGroup(table *schema.Table) *RowGroup {
	return &RowGroup{
		table:  table,
		buffer: parquet.NewRowBuffer[any](table.ParquetSchema()),
	}
}

func (r *RowGroup) WriteRows(rows []parquet.Row) (int, error) {
	return r.buffer.WriteRows(rows)
}

func (r *RowGroup) NumRows() int64 {
	return r.buffer.NumRows()
}

func (r *RowGroup) ColumnChunks() []parquet.ColumnChunk {
	return r.buffer.ColumnChunks()
}

func (r *RowGroup) Schema() *parquet.Schema {
	return r.table.ParquetSchema()
}

func (r *RowGroup) SortingColumns() []parquet.SortingColumn {
	return nil
}

func (r *RowGroup) Rows() parquet.Rows {
	return r.buffer.Rows()
}
