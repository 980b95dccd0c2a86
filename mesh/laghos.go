package mesh

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// File names of a Laghos output directory.
const (
	MeshFile     = "mesh"
	EnergyFile   = "e"
	DensityFile  = "rho"
	VelocityFile = "v"
)

// LaghosFiles lists the files OpenLaghos reads from a mesh directory.
var LaghosFiles = []string{MeshFile, EnergyFile, DensityFile, VelocityFile}

// LaghosMesh is a mesh with the energy, density and velocity fields written
// by a Laghos run.
type LaghosMesh struct {
	topology *Topology
	fields   [numFields]*GridFunction
	closed   bool
}

func NewLaghosMesh(topology *Topology, energy, density, velocity *GridFunction) (*LaghosMesh, error) {
	if err := topology.Validate(); err != nil {
		return nil, err
	}
	m := &LaghosMesh{topology: topology}
	m.fields[FieldEnergy] = energy
	m.fields[FieldDensity] = density
	m.fields[FieldVelocity] = velocity
	for f, gf := range m.fields {
		if gf == nil {
			return nil, errors.Errorf("missing %s grid function", Field(f))
		}
		if err := gf.validate(topology); err != nil {
			return nil, errors.Wrapf(err, "field %s", Field(f))
		}
	}
	return m, nil
}

// OpenLaghos reads the mesh and its e, rho and v grid functions from dir.
func OpenLaghos(dir string) (*LaghosMesh, error) {
	topology, err := readFile(filepath.Join(dir, MeshFile), ReadTopology)
	if err != nil {
		return nil, err
	}

	var fields [numFields]*GridFunction
	for f, name := range []string{EnergyFile, DensityFile, VelocityFile} {
		gf, err := readFile(filepath.Join(dir, name), ReadGridFunction)
		if err != nil {
			return nil, err
		}
		fields[f] = gf
	}

	m, err := NewLaghosMesh(topology, fields[FieldEnergy], fields[FieldDensity], fields[FieldVelocity])
	if err != nil {
		return nil, ioFailure(dir, err)
	}
	return m, nil
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, ioFailure(path, err)
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			return zero, errors.Wrap(err, path)
		}
		return zero, ioFailure(path, err)
	}
	return v, nil
}

func (m *LaghosMesh) Topology() *Topology { return m.topology }

func (m *LaghosMesh) NumElements() int {
	if m.closed {
		return 0
	}
	return len(m.topology.Elements)
}

func (m *LaghosMesh) NumVertices() int {
	if m.closed {
		return 0
	}
	return len(m.topology.Vertices)
}

func (m *LaghosMesh) Dimension() int {
	return m.topology.SpaceDimension
}

func (m *LaghosMesh) ElementVertices(element int) ([]int, error) {
	if m.closed {
		return nil, ErrInvalidHandle
	}
	if element < 0 || element >= len(m.topology.Elements) {
		return nil, errors.Wrapf(ErrNotFound, "element %d", element)
	}
	return m.topology.Elements[element].Vertices, nil
}

func (m *LaghosMesh) VertexCoordinates(vertex int) ([]float64, error) {
	if m.closed {
		return nil, ErrInvalidHandle
	}
	if vertex < 0 || vertex >= len(m.topology.Vertices) {
		return nil, errors.Wrapf(ErrNotFound, "vertex %d", vertex)
	}
	return m.topology.Vertices[vertex], nil
}

func (m *LaghosMesh) FieldSample(element, localVertex int, field Field) (Vector, error) {
	verts, err := m.ElementVertices(element)
	if err != nil {
		return Vector{}, err
	}
	if localVertex < 0 || localVertex >= len(verts) {
		return Vector{}, errors.Wrapf(ErrNotFound, "local vertex %d of element %d", localVertex, element)
	}
	if field < 0 || field >= numFields {
		return Vector{}, errors.Wrapf(ErrNotFound, "%s", field)
	}
	return m.fields[field].sample(element, verts[localVertex]), nil
}

// Close releases the mesh. Later accesses fail with ErrInvalidHandle.
func (m *LaghosMesh) Close() error {
	if m.closed {
		return ErrInvalidHandle
	}
	m.closed = true
	m.topology = &Topology{SpaceDimension: m.topology.SpaceDimension}
	m.fields = [numFields]*GridFunction{}
	return nil
}
