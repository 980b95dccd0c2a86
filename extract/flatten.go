package extract

import (
	"github.com/pkg/errors"

	"fpetkovski/mfem-parquet/mesh"
	"fpetkovski/mfem-parquet/schema"
)

// Appender receives the records of consumed elements.
type Appender interface {
	AppendFlat(schema.FlatRow)
	AppendVertex(schema.Vertex)
	AppendAttribute(schema.ElementAttribute)
	AppendGeometry(schema.ElementGeometry)
}

// flattener turns one element into records. Records of an element are staged
// in scratch buffers and only appended once the whole element was read.
type flattener struct {
	src mesh.Source
	dim int

	flat       []schema.FlatRow
	vertices   []schema.Vertex
	attributes []schema.ElementAttribute
}

func newFlattener(src mesh.Source) flattener {
	dim := src.Dimension()
	if dim > 3 {
		dim = 3
	}
	return flattener{
		src:        src,
		dim:        dim,
		flat:       make([]schema.FlatRow, 0, schema.MaxElementVertices),
		vertices:   make([]schema.Vertex, 0, schema.MaxElementVertices),
		attributes: make([]schema.ElementAttribute, 0, schema.MaxElementVertices),
	}
}

type sample struct {
	coords   [3]float64
	energy   float64
	density  float64
	velocity [3]float64
}

func (f *flattener) sample(element, localVertex, vertex int) (sample, error) {
	var s sample
	coords, err := f.src.VertexCoordinates(vertex)
	if err != nil {
		return s, errors.Wrapf(err, "reading coordinates of vertex %d", vertex)
	}
	for axis := 0; axis < f.dim && axis < len(coords); axis++ {
		s.coords[axis] = coords[axis]
	}

	energy, err := f.src.FieldSample(element, localVertex, mesh.FieldEnergy)
	if err != nil {
		return s, errors.Wrapf(err, "sampling %s", mesh.FieldEnergy)
	}
	density, err := f.src.FieldSample(element, localVertex, mesh.FieldDensity)
	if err != nil {
		return s, errors.Wrapf(err, "sampling %s", mesh.FieldDensity)
	}
	velocity, err := f.src.FieldSample(element, localVertex, mesh.FieldVelocity)
	if err != nil {
		return s, errors.Wrapf(err, "sampling %s", mesh.FieldVelocity)
	}
	s.energy = energy[0]
	s.density = density[0]
	s.velocity = velocity
	return s, nil
}

func (f *flattener) flattenFlat(element int, verts []int, out Appender) error {
	f.flat = f.flat[:0]
	for j, vertex := range verts {
		s, err := f.sample(element, j, vertex)
		if err != nil {
			return err
		}
		f.flat = append(f.flat, schema.FlatRow{
			ElementID: int64(element),
			VertexID:  int64(vertex),
			Coords:    s.coords,
			Energy:    s.energy,
			Density:   s.density,
			Velocity:  s.velocity,
		})
	}

	for _, row := range f.flat {
		out.AppendFlat(row)
	}
	return nil
}

func (f *flattener) flattenNormalized(element int, verts []int, visited *visitedSet, out Appender) error {
	f.vertices = f.vertices[:0]
	f.attributes = f.attributes[:0]
	for j, vertex := range verts {
		s, err := f.sample(element, j, vertex)
		if err != nil {
			return err
		}
		if !visited.contains(vertex) && !f.staged(vertex) {
			f.vertices = append(f.vertices, schema.Vertex{VertexID: int64(vertex), Coords: s.coords})
		}
		f.attributes = append(f.attributes, schema.ElementAttribute{
			ElementID: int64(element),
			VertexID:  int64(vertex),
			Energy:    s.energy,
			Density:   s.density,
			Velocity:  s.velocity,
		})
	}

	for _, v := range f.vertices {
		visited.mark(int(v.VertexID))
		out.AppendVertex(v)
	}
	for _, a := range f.attributes {
		out.AppendAttribute(a)
	}
	out.AppendGeometry(schema.NewElementGeometry(int64(element), verts))
	return nil
}

func (f *flattener) staged(vertex int) bool {
	for _, v := range f.vertices {
		if v.VertexID == int64(vertex) {
			return true
		}
	}
	return false
}
