package write

import (
	"github.com/segmentio/parquet-go"

	"fpetkovski/mfem-parquet/schema"
)

// Batch is a group of whole elements handed to a Sink at once.
type Batch struct {
	// Sequence numbers batches from 0 in hand-off order.
	Sequence int
	// FirstElement is the index of the first element in the batch.
	FirstElement int
	NumElements  int

	Flat       []schema.FlatRow
	Vertices   []schema.Vertex
	Attributes []schema.ElementAttribute
	Geometry   []schema.ElementGeometry
}

// NumRows is the number of rows counted against the buffer capacity.
func (b Batch) NumRows() int {
	return len(b.Flat) + len(b.Attributes)
}

func (b Batch) Empty() bool {
	return len(b.Flat) == 0 && len(b.Vertices) == 0 && len(b.Attributes) == 0 && len(b.Geometry) == 0
}

// TableRows is the number of records the batch holds for table.
func (b Batch) TableRows(table *schema.Table) int {
	switch table {
	case schema.Flat:
		return len(b.Flat)
	case schema.Vertices:
		return len(b.Vertices)
	case schema.Attributes:
		return len(b.Attributes)
	case schema.Geometry:
		return len(b.Geometry)
	}
	return 0
}

// Rows converts the records of table into parquet rows, in extraction order.
func (b Batch) Rows(table *schema.Table) []parquet.Row {
	rows := make([]parquet.Row, 0, b.TableRows(table))
	switch table {
	case schema.Flat:
		for _, r := range b.Flat {
			rows = append(rows, r.Row())
		}
	case schema.Vertices:
		for _, r := range b.Vertices {
			rows = append(rows, r.Row())
		}
	case schema.Attributes:
		for _, r := range b.Attributes {
			rows = append(rows, r.Row())
		}
	case schema.Geometry:
		for _, r := range b.Geometry {
			rows = append(rows, r.Row())
		}
	}
	return rows
}

// RowGroup returns the records of table as a single row group.
func (b Batch) RowGroup(table *schema.Table) (*RowGroup, error) {
	group := NewRowGroup(table)
	if _, err := group.WriteRows(b.Rows(table)); err != nil {
		return nil, err
	}
	return group, nil
}
