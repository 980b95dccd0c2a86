package extract

import (
	"github.com/pkg/errors"

	"fpetkovski/mfem-parquet/mesh"
	"fpetkovski/mfem-parquet/schema"
)

// ErrBufferTooSmall is returned when a row budget cannot hold the next
// element, so extraction would make no progress.
var ErrBufferTooSmall = errors.New("buffer too small for element")

// Cursor is the index of the next element to extract. It only moves forward
// and only on whole element boundaries.
type Cursor struct {
	Position int
}

// Limits bounds a single Advance call.
type Limits struct {
	// MaxElements caps consumed elements; 0 means no cap.
	MaxElements int
	// MaxRows caps produced rows. In the normalized layout rows are counted
	// as element attribute records.
	MaxRows int
}

type SessionOption func(*Session)

// WithVisitedCapacity sets the initial capacity, in vertex ids, of the set of
// emitted vertices used by the normalized layout.
func WithVisitedCapacity(capacity int) SessionOption {
	return func(s *Session) {
		s.visitedCapacity = capacity
	}
}

// Session extracts rows from one mesh. It is not safe for concurrent use.
type Session struct {
	src         mesh.Source
	kind        schema.Kind
	numElements int
	flattener   flattener

	visitedCapacity int
	visited         *visitedSet
	closed          bool
}

func NewSession(src mesh.Source, kind schema.Kind, opts ...SessionOption) (*Session, error) {
	if _, err := kind.Tables(); err != nil {
		return nil, err
	}
	dim := src.Dimension()
	if dim < 1 || dim > 3 {
		return nil, errors.Errorf("mesh dimension %d out of range", dim)
	}

	s := &Session{
		src:             src,
		kind:            kind,
		numElements:     src.NumElements(),
		flattener:       newFlattener(src),
		visitedCapacity: defaultVisitedCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	if kind == schema.KindNormalized {
		s.visited = newVisitedSet(s.visitedCapacity)
	}
	return s, nil
}

func (s *Session) Kind() schema.Kind { return s.kind }

func (s *Session) NumElements() int { return s.numElements }

// AtEnd reports whether every element has been extracted. A zero row Advance
// does not imply AtEnd.
func (s *Session) AtEnd(c Cursor) bool {
	return c.Position == s.numElements
}

// MaxElementVertices scans the mesh for the largest element.
func (s *Session) MaxElementVertices() (int, error) {
	if s.closed {
		return 0, mesh.ErrInvalidHandle
	}
	var max int
	for i := 0; i < s.numElements; i++ {
		verts, err := s.src.ElementVertices(i)
		if err != nil {
			return 0, errors.Wrapf(err, "element %d: reading topology", i)
		}
		if len(verts) > max {
			max = len(verts)
		}
	}
	return max, nil
}

// Advance consumes whole elements starting at c while their vertex counts fit
// in the remaining row budget, hands their records to out, and returns the
// new cursor and the number of rows produced. Extraction stops at the first
// element that does not fit, even if budget remains.
//
// On error the returned cursor points at the failing element; every element
// before it was fully appended and none of the failing element was.
func (s *Session) Advance(c Cursor, limits Limits, out Appender) (Cursor, int, error) {
	if s.closed {
		return c, 0, mesh.ErrInvalidHandle
	}
	if c.Position < 0 || c.Position > s.numElements {
		return c, 0, errors.Wrapf(mesh.ErrNotFound, "cursor position %d of %d elements", c.Position, s.numElements)
	}

	var rows, consumed int
	remaining := limits.MaxRows
	for c.Position < s.numElements {
		if limits.MaxElements > 0 && consumed >= limits.MaxElements {
			break
		}
		element := c.Position
		verts, err := s.src.ElementVertices(element)
		if err != nil {
			return c, rows, errors.Wrapf(err, "element %d: reading topology", element)
		}
		if remaining < len(verts) {
			break
		}

		if s.kind == schema.KindNormalized {
			err = s.flattener.flattenNormalized(element, verts, s.visited, out)
		} else {
			err = s.flattener.flattenFlat(element, verts, out)
		}
		if err != nil {
			return c, rows, errors.Wrapf(err, "element %d", element)
		}

		remaining -= len(verts)
		rows += len(verts)
		consumed++
		c.Position++
	}
	return c, rows, nil
}

// VisitedVertices is the number of vertices emitted so far by the normalized
// layout.
func (s *Session) VisitedVertices() int {
	if s.visited == nil {
		return 0
	}
	return s.visited.len()
}

// Close releases the visited vertex set. It does not close the mesh.
func (s *Session) Close() error {
	if s.closed {
		return mesh.ErrInvalidHandle
	}
	s.closed = true
	s.visited = nil
	return nil
}
