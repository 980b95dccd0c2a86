package extract

import (
	"io"

	"github.com/pkg/errors"

	"fpetkovski/mfem-parquet/schema"
)

// RowReader reads flat rows one buffer of whole elements at a time.
type RowReader struct {
	session  *Session
	cursor   Cursor
	capacity int

	buffer flatRows
	offset int
}

func NewRowReader(session *Session, bufferRows int) (*RowReader, error) {
	if session.Kind() != schema.KindFlat {
		return nil, errors.Wrapf(schema.ErrSchemaMismatch, "row reader requires the flat schema, got %s", session.Kind())
	}
	return &RowReader{
		session:  session,
		capacity: bufferRows,
		buffer:   make(flatRows, 0, bufferRows),
	}, nil
}

// ReadRows copies up to len(rows) rows into rows. It returns io.EOF once every
// element has been read.
func (r *RowReader) ReadRows(rows []schema.FlatRow) (int, error) {
	var n int
	for n < len(rows) {
		if r.offset == len(r.buffer) {
			if err := r.refill(); err != nil {
				return n, err
			}
		}
		copied := copy(rows[n:], r.buffer[r.offset:])
		r.offset += copied
		n += copied
	}
	return n, nil
}

func (r *RowReader) refill() error {
	if r.session.AtEnd(r.cursor) {
		return io.EOF
	}
	r.buffer = r.buffer[:0]
	r.offset = 0
	next, produced, err := r.session.Advance(r.cursor, Limits{MaxRows: r.capacity}, &r.buffer)
	if err != nil {
		return err
	}
	if produced == 0 {
		return errors.Wrapf(ErrBufferTooSmall, "element %d does not fit in %d rows", r.cursor.Position, r.capacity)
	}
	r.cursor = next
	return nil
}

type flatRows []schema.FlatRow

func (f *flatRows) AppendFlat(row schema.FlatRow) { *f = append(*f, row) }

func (f *flatRows) AppendVertex(schema.Vertex) {}

func (f *flatRows) AppendAttribute(schema.ElementAttribute) {}

func (f *flatRows) AppendGeometry(schema.ElementGeometry) {}
