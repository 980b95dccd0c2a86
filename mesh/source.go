package mesh

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidHandle is returned when a closed mesh is accessed.
	ErrInvalidHandle = errors.New("invalid mesh handle")
	// ErrNotFound is returned for element or vertex indices outside the mesh.
	ErrNotFound = errors.New("not found")
	// ErrIOFailure is returned when a mesh or field file cannot be read.
	ErrIOFailure = errors.New("io failure")
	// ErrUnsupported is returned for valid MFEM inputs this reader does not handle.
	ErrUnsupported = errors.New("unsupported")
)

type Field int

const (
	FieldEnergy Field = iota
	FieldDensity
	FieldVelocity

	numFields
)

func (f Field) String() string {
	switch f {
	case FieldEnergy:
		return "e"
	case FieldDensity:
		return "rho"
	case FieldVelocity:
		return "v"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Vector is a field sample. Scalar fields only populate the first component.
type Vector [3]float64

// Source exposes mesh topology and per (element, vertex) field samples.
// Implementations are read-only during extraction.
type Source interface {
	NumElements() int
	NumVertices() int
	// Dimension is the number of populated coordinate axes, 1 to 3.
	Dimension() int
	// ElementVertices returns the ordered vertex ids of an element. The
	// returned slice must not be modified.
	ElementVertices(element int) ([]int, error)
	VertexCoordinates(vertex int) ([]float64, error)
	FieldSample(element, localVertex int, field Field) (Vector, error)
}

// EstimateRows approximates the number of flat rows of a mesh assuming
// tensor-product elements of the mesh dimension.
func EstimateRows(src Source) int {
	return (1 << src.Dimension()) * src.NumElements()
}

type ioError struct {
	path string
	err  error
}

func ioFailure(path string, err error) error {
	return &ioError{path: path, err: err}
}

func (e *ioError) Error() string {
	return fmt.Sprintf("%s: reading %s: %v", ErrIOFailure, e.path, e.err)
}

func (e *ioError) Unwrap() error { return e.err }

func (e *ioError) Is(target error) bool { return target == ErrIOFailure }
