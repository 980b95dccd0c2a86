package extract_test

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"fpetkovski/mfem-parquet/mesh"
	"fpetkovski/mfem-parquet/schema"
)

// twoQuads is a 2D mesh of two quadrilaterals sharing vertices 2 and 3.
func twoQuads(t testing.TB) *mesh.LaghosMesh {
	topology := &mesh.Topology{
		Dimension:      2,
		SpaceDimension: 2,
		Elements: []mesh.Element{
			{Attribute: 1, Geometry: mesh.Square, Vertices: []int{0, 1, 2, 3}},
			{Attribute: 1, Geometry: mesh.Square, Vertices: []int{2, 3, 4, 5}},
		},
		Vertices: [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 2}, {1, 2}},
	}
	return newLaghosMesh(t, topology)
}

var geometries = map[int]mesh.Geometry{
	2: mesh.Segment,
	3: mesh.Triangle,
	4: mesh.Square,
	5: mesh.Pyramid,
	6: mesh.Prism,
	8: mesh.Cube,
}

// randomMesh builds a mesh of elements with 2 to 8 vertices drawn from a
// shared pool, so that vertices are referenced by several elements.
func randomMesh(t testing.TB, rng *rand.Rand, numElements, numVertices, dim int) *mesh.LaghosMesh {
	topology := &mesh.Topology{Dimension: dim, SpaceDimension: dim}
	for i := 0; i < numVertices; i++ {
		coords := make([]float64, dim)
		for j := range coords {
			coords[j] = rng.Float64()
		}
		topology.Vertices = append(topology.Vertices, coords)
	}
	sizes := []int{2, 3, 4, 5, 6, 8}
	for i := 0; i < numElements; i++ {
		nv := sizes[rng.Intn(len(sizes))]
		verts := rng.Perm(numVertices)[:nv]
		topology.Elements = append(topology.Elements, mesh.Element{
			Attribute: 1,
			Geometry:  geometries[nv],
			Vertices:  verts,
		})
	}
	return newLaghosMesh(t, topology)
}

func newLaghosMesh(t testing.TB, topology *mesh.Topology) *mesh.LaghosMesh {
	numVertices, numElements, dim := len(topology.Vertices), len(topology.Elements), topology.SpaceDimension

	energyValues := make([]float64, numElements)
	for i := range energyValues {
		energyValues[i] = 100 + float64(i)
	}
	densityValues := make([]float64, numVertices)
	for i := range densityValues {
		densityValues[i] = 10 + float64(i)
	}
	velocityValues := make([]float64, numVertices*dim)
	for i := range velocityValues {
		velocityValues[i] = float64(i) / 10
	}

	energy, err := mesh.NewGridFunction("L2_T1_2D_P0", 1, mesh.ByNodes, energyValues)
	require.NoError(t, err)
	density, err := mesh.NewGridFunction("H1_2D_P1", 1, mesh.ByNodes, densityValues)
	require.NoError(t, err)
	velocity, err := mesh.NewGridFunction("H1_2D_P1", dim, mesh.ByNodes, velocityValues)
	require.NoError(t, err)

	m, err := mesh.NewLaghosMesh(topology, energy, density, velocity)
	require.NoError(t, err)
	return m
}

type recorder struct {
	flat       []schema.FlatRow
	vertices   []schema.Vertex
	attributes []schema.ElementAttribute
	geometry   []schema.ElementGeometry
}

func (r *recorder) AppendFlat(row schema.FlatRow) { r.flat = append(r.flat, row) }

func (r *recorder) AppendVertex(v schema.Vertex) { r.vertices = append(r.vertices, v) }

func (r *recorder) AppendAttribute(a schema.ElementAttribute) {
	r.attributes = append(r.attributes, a)
}

func (r *recorder) AppendGeometry(g schema.ElementGeometry) { r.geometry = append(r.geometry, g) }

// failingSource fails to sample fields of one element.
type failingSource struct {
	mesh.Source
	element int
}

func (f failingSource) FieldSample(element, localVertex int, field mesh.Field) (mesh.Vector, error) {
	if element == f.element && localVertex == 1 {
		return mesh.Vector{}, errors.Wrap(mesh.ErrIOFailure, "field file truncated")
	}
	return f.Source.FieldSample(element, localVertex, field)
}
