package write

import (
	"fpetkovski/mfem-parquet/schema"
)

// Buffer accumulates extracted records up to a fixed row capacity. Rows are
// counted as flat rows or, for the normalized layout, element attribute
// records. Handing a batch off transfers ownership of the records; the
// buffer continues with fresh storage.
type Buffer struct {
	capacity int

	flat       []schema.FlatRow
	vertices   []schema.Vertex
	attributes []schema.ElementAttribute
	geometry   []schema.ElementGeometry
}

func NewBuffer(capacity int) *Buffer {
	b := &Buffer{capacity: capacity}
	b.Reset()
	return b
}

func (b *Buffer) AppendFlat(row schema.FlatRow) {
	if b.flat == nil {
		b.flat = make([]schema.FlatRow, 0, b.capacity)
	}
	b.flat = append(b.flat, row)
}

func (b *Buffer) AppendVertex(v schema.Vertex) {
	b.vertices = append(b.vertices, v)
}

func (b *Buffer) AppendAttribute(a schema.ElementAttribute) {
	if b.attributes == nil {
		b.attributes = make([]schema.ElementAttribute, 0, b.capacity)
	}
	b.attributes = append(b.attributes, a)
}

func (b *Buffer) AppendGeometry(g schema.ElementGeometry) {
	b.geometry = append(b.geometry, g)
}

func (b *Buffer) Capacity() int {
	return b.capacity
}

// Len is the number of rows counted against the capacity.
func (b *Buffer) Len() int {
	return len(b.flat) + len(b.attributes)
}

func (b *Buffer) Remaining() int {
	return b.capacity - b.Len()
}

func (b *Buffer) IsFull() bool {
	return b.Len() >= b.capacity
}

// Batch moves the buffered records into a batch and resets the buffer.
func (b *Buffer) Batch() Batch {
	batch := Batch{
		Flat:       b.flat,
		Vertices:   b.vertices,
		Attributes: b.attributes,
		Geometry:   b.geometry,
	}
	b.Reset()
	return batch
}

// Reset drops references to the buffered records without reusing their
// storage, since it may be owned by a batch.
func (b *Buffer) Reset() {
	b.flat = nil
	b.vertices = nil
	b.attributes = nil
	b.geometry = nil
}
