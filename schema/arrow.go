package schema

import (
	"github.com/apache/arrow/go/v10/arrow"
)

func (t ColumnType) arrowType() arrow.DataType {
	if t == Double {
		return arrow.PrimitiveTypes.Float64
	}
	return arrow.PrimitiveTypes.Int64
}

// ArrowSchema returns the table columns as non-nullable Arrow fields, in
// the same order as the parquet leaves.
func (t *Table) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, 0, len(t.columns))
	for _, c := range t.columns {
		fields = append(fields, arrow.Field{Name: c.Name, Type: c.Type.arrowType()})
	}
	return arrow.NewSchema(fields, nil)
}
