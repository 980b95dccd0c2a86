package schema

import (
	"fmt"
	"reflect"

	"github.com/segmentio/parquet-go"
	"github.com/segmentio/parquet-go/compress"
	"github.com/segmentio/parquet-go/encoding"
)

// Table describes one output stream: its name, its ordered columns and the
// parquet schema derived from them. Column order is the leaf order of rows.
type Table struct {
	name    string
	columns []Column
	schema  *parquet.Schema
}

func newTable(name string, columns ...Column) *Table {
	return &Table{
		name:    name,
		columns: columns,
		schema:  parquet.NewSchema(name, newTableNode(columns)),
	}
}

func (t *Table) Name() string { return t.name }

func (t *Table) Columns() []Column { return t.columns }

func (t *Table) ParquetSchema() *parquet.Schema { return t.schema }

// ColumnIndex returns the leaf position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

type tableNode struct {
	columns []Column
}

func newTableNode(columns []Column) *tableNode {
	return &tableNode{columns: columns}
}

func (c tableNode) String() string {
	return fmt.Sprintf("%v", c.columns)
}

func (c tableNode) Type() parquet.Type { return groupType{} }

func (c tableNode) Optional() bool { return false }

func (c tableNode) Repeated() bool { return false }

func (c tableNode) Required() bool { return true }

func (c tableNode) Leaf() bool { return false }

func (c tableNode) Fields() []parquet.Field {
	fields := make([]parquet.Field, 0, len(c.columns))
	for _, col := range c.columns {
		fields = append(fields, newParquetColumn(col))
	}
	return fields
}

func (c tableNode) Encoding() encoding.Encoding { return nil }

func (c tableNode) Compression() compress.Codec { return nil }

func (c tableNode) GoType() reflect.Type { return reflect.TypeOf(tableNode{}) }
