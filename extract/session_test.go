package extract_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"fpetkovski/mfem-parquet/extract"
	"fpetkovski/mfem-parquet/mesh"
	"fpetkovski/mfem-parquet/schema"
)

func TestAdvanceTwoQuadsFlat(t *testing.T) {
	session, err := extract.NewSession(twoQuads(t), schema.KindFlat)
	require.NoError(t, err)
	defer session.Close()

	var (
		cursor extract.Cursor
		first  recorder
	)
	cursor, rows, err := session.Advance(cursor, extract.Limits{MaxRows: 4}, &first)
	require.NoError(t, err)
	require.Equal(t, 4, rows)
	require.Equal(t, extract.Cursor{Position: 1}, cursor)
	require.False(t, session.AtEnd(cursor))
	require.Equal(t, []int64{0, 0, 0, 0}, elementIDs(first.flat))
	require.Equal(t, []int64{0, 1, 2, 3}, vertexIDs(first.flat))

	var second recorder
	cursor, rows, err = session.Advance(cursor, extract.Limits{MaxRows: 4}, &second)
	require.NoError(t, err)
	require.Equal(t, 4, rows)
	require.True(t, session.AtEnd(cursor))
	require.Equal(t, []int64{1, 1, 1, 1}, elementIDs(second.flat))
	require.Equal(t, []int64{2, 3, 4, 5}, vertexIDs(second.flat))

	row := second.flat[2]
	require.Equal(t, [3]float64{0, 2, 0}, row.Coords)
	require.Equal(t, 101.0, row.Energy)
	require.Equal(t, 14.0, row.Density)
	require.Equal(t, [3]float64{0.4, 1.0, 0}, row.Velocity)

	cursor, rows, err = session.Advance(cursor, extract.Limits{MaxRows: 4}, &second)
	require.NoError(t, err)
	require.Equal(t, 0, rows)
	require.True(t, session.AtEnd(cursor))
}

func TestAdvanceTwoQuadsNormalized(t *testing.T) {
	session, err := extract.NewSession(twoQuads(t), schema.KindNormalized)
	require.NoError(t, err)

	var (
		cursor extract.Cursor
		out    recorder
	)
	for !session.AtEnd(cursor) {
		var rows int
		cursor, rows, err = session.Advance(cursor, extract.Limits{MaxRows: 4}, &out)
		require.NoError(t, err)
		require.Equal(t, 4, rows)
	}

	require.Len(t, out.vertices, 6)
	for i, v := range out.vertices {
		require.Equal(t, int64(i), v.VertexID)
	}
	require.Len(t, out.attributes, 8)
	require.Len(t, out.geometry, 2)
	require.Equal(t, []int64{0, 1, 2, 3}, out.geometry[0].Vertices())
	require.Equal(t, []int64{2, 3, 4, 5}, out.geometry[1].Vertices())
	require.Empty(t, out.flat)
	require.Equal(t, 6, session.VisitedVertices())
}

func TestAdvanceStallsOnSmallBudget(t *testing.T) {
	session, err := extract.NewSession(twoQuads(t), schema.KindFlat)
	require.NoError(t, err)

	var out recorder
	cursor, rows, err := session.Advance(extract.Cursor{}, extract.Limits{MaxRows: 3}, &out)
	require.NoError(t, err)
	require.Equal(t, 0, rows)
	require.Equal(t, extract.Cursor{}, cursor)
	require.False(t, session.AtEnd(cursor))
	require.Empty(t, out.flat)

	cursor, rows, err = session.Advance(extract.Cursor{}, extract.Limits{MaxRows: 7}, &out)
	require.NoError(t, err)
	require.Equal(t, 4, rows)
	require.Equal(t, 1, cursor.Position)
}

func TestAdvanceMaxElements(t *testing.T) {
	session, err := extract.NewSession(twoQuads(t), schema.KindFlat)
	require.NoError(t, err)

	var out recorder
	cursor, rows, err := session.Advance(extract.Cursor{}, extract.Limits{MaxElements: 1, MaxRows: 100}, &out)
	require.NoError(t, err)
	require.Equal(t, 4, rows)
	require.Equal(t, 1, cursor.Position)
}

func TestResumableExtraction(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, kind := range []schema.Kind{schema.KindFlat, schema.KindNormalized} {
		t.Run(kind.String(), func(t *testing.T) {
			m := randomMesh(t, rng, 200, 64, 3)

			whole := extractAll(t, m, kind, func() int { return 1 << 20 })
			var expectedRows int
			for i := 0; i < m.NumElements(); i++ {
				verts, err := m.ElementVertices(i)
				require.NoError(t, err)
				expectedRows += len(verts)
			}
			if kind == schema.KindFlat {
				require.Len(t, whole.flat, expectedRows)
			} else {
				require.Len(t, whole.attributes, expectedRows)
			}

			for i := 0; i < 5; i++ {
				split := extractAll(t, m, kind, func() int {
					return schema.MaxElementVertices + rng.Intn(40)
				})
				require.Equal(t, whole, split)
			}
		})
	}
}

// extractAll runs a session to the end with per call budgets drawn from
// budget and checks that every call emitted whole elements only.
func extractAll(t *testing.T, m mesh.Source, kind schema.Kind, budget func() int) recorder {
	session, err := extract.NewSession(m, kind)
	require.NoError(t, err)
	defer session.Close()

	var (
		cursor extract.Cursor
		all    recorder
	)
	for !session.AtEnd(cursor) {
		var out recorder
		next, rows, err := session.Advance(cursor, extract.Limits{MaxRows: budget()}, &out)
		require.NoError(t, err)
		require.Greater(t, rows, 0)
		require.GreaterOrEqual(t, next.Position, cursor.Position)

		emitted := elementIDs(out.flat)
		if kind == schema.KindNormalized {
			emitted = attributeElementIDs(out.attributes)
			require.Len(t, out.geometry, next.Position-cursor.Position)
		}
		require.Len(t, emitted, rows)
		counts := make(map[int64]int)
		for _, id := range emitted {
			counts[id]++
		}
		for element := cursor.Position; element < next.Position; element++ {
			verts, err := m.ElementVertices(element)
			require.NoError(t, err)
			require.Equal(t, len(verts), counts[int64(element)], "element %d was split", element)
		}

		all.flat = append(all.flat, out.flat...)
		all.vertices = append(all.vertices, out.vertices...)
		all.attributes = append(all.attributes, out.attributes...)
		all.geometry = append(all.geometry, out.geometry...)
		cursor = next
	}
	return all
}

func TestNormalizedDeduplication(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := randomMesh(t, rng, 500, 300, 3)

	session, err := extract.NewSession(m, schema.KindNormalized, extract.WithVisitedCapacity(1))
	require.NoError(t, err)

	var (
		cursor extract.Cursor
		out    recorder
	)
	for !session.AtEnd(cursor) {
		cursor, _, err = session.Advance(cursor, extract.Limits{MaxRows: 16}, &out)
		require.NoError(t, err)
	}

	emitted := make(map[int64]int)
	for _, v := range out.vertices {
		emitted[v.VertexID]++
		coords, err := m.VertexCoordinates(int(v.VertexID))
		require.NoError(t, err)
		require.Equal(t, coords, v.Coords[:])
	}
	for id, count := range emitted {
		require.Equal(t, 1, count, "vertex %d emitted more than once", id)
	}
	for _, g := range out.geometry {
		for _, v := range g.Vertices() {
			require.Contains(t, emitted, v)
		}
	}
	require.Equal(t, len(emitted), session.VisitedVertices())
}

func TestAtEndMonotonic(t *testing.T) {
	m := twoQuads(t)
	session, err := extract.NewSession(m, schema.KindFlat)
	require.NoError(t, err)

	var cursor extract.Cursor
	for i := 0; i < 4; i++ {
		require.Equal(t, cursor.Position == m.NumElements(), session.AtEnd(cursor))
		next, _, err := session.Advance(cursor, extract.Limits{MaxElements: 1, MaxRows: 8}, &recorder{})
		require.NoError(t, err)
		require.GreaterOrEqual(t, next.Position, cursor.Position)
		cursor = next
	}
	require.True(t, session.AtEnd(cursor))
}

func TestUnpopulatedAxesDefaultToZero(t *testing.T) {
	topology := &mesh.Topology{
		Dimension:      1,
		SpaceDimension: 1,
		Elements:       []mesh.Element{{Geometry: mesh.Segment, Vertices: []int{0, 1}}},
		Vertices:       [][]float64{{0.5}, {1.5}},
	}
	session, err := extract.NewSession(newLaghosMesh(t, topology), schema.KindFlat)
	require.NoError(t, err)

	var out recorder
	_, _, err = session.Advance(extract.Cursor{}, extract.Limits{MaxRows: 2}, &out)
	require.NoError(t, err)
	require.Equal(t, [3]float64{1.5, 0, 0}, out.flat[1].Coords)
	require.Equal(t, [3]float64{0.1, 0, 0}, out.flat[1].Velocity)
}

func TestAdvanceErrorKeepsWholeElements(t *testing.T) {
	for _, kind := range []schema.Kind{schema.KindFlat, schema.KindNormalized} {
		t.Run(kind.String(), func(t *testing.T) {
			session, err := extract.NewSession(failingSource{Source: twoQuads(t), element: 1}, kind)
			require.NoError(t, err)

			var out recorder
			cursor, rows, err := session.Advance(extract.Cursor{}, extract.Limits{MaxRows: 8}, &out)
			require.ErrorIs(t, err, mesh.ErrIOFailure)
			require.Contains(t, err.Error(), "element 1")
			require.Equal(t, 4, rows)
			require.Equal(t, 1, cursor.Position)
			if kind == schema.KindFlat {
				require.Len(t, out.flat, 4)
			} else {
				require.Len(t, out.attributes, 4)
				require.Len(t, out.vertices, 4)
				require.Len(t, out.geometry, 1)
				require.Equal(t, 4, session.VisitedVertices())
			}
		})
	}
}

func TestClosedSession(t *testing.T) {
	session, err := extract.NewSession(twoQuads(t), schema.KindNormalized)
	require.NoError(t, err)
	require.NoError(t, session.Close())

	_, _, err = session.Advance(extract.Cursor{}, extract.Limits{MaxRows: 8}, &recorder{})
	require.ErrorIs(t, err, mesh.ErrInvalidHandle)
	_, err = session.MaxElementVertices()
	require.ErrorIs(t, err, mesh.ErrInvalidHandle)
	require.ErrorIs(t, session.Close(), mesh.ErrInvalidHandle)
}

func TestClosedMesh(t *testing.T) {
	m := twoQuads(t)
	session, err := extract.NewSession(m, schema.KindFlat)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	_, _, err = session.Advance(extract.Cursor{}, extract.Limits{MaxRows: 8}, &recorder{})
	require.ErrorIs(t, err, mesh.ErrInvalidHandle)
	require.Contains(t, err.Error(), "element 0: reading topology")
}

func TestInvalidCursor(t *testing.T) {
	session, err := extract.NewSession(twoQuads(t), schema.KindFlat)
	require.NoError(t, err)

	_, _, err = session.Advance(extract.Cursor{Position: 3}, extract.Limits{MaxRows: 8}, &recorder{})
	require.ErrorIs(t, err, mesh.ErrNotFound)
}

func TestMaxElementVertices(t *testing.T) {
	session, err := extract.NewSession(twoQuads(t), schema.KindFlat)
	require.NoError(t, err)

	max, err := session.MaxElementVertices()
	require.NoError(t, err)
	require.Equal(t, 4, max)
}

func TestUnknownKind(t *testing.T) {
	_, err := extract.NewSession(twoQuads(t), schema.Kind(9))
	require.ErrorIs(t, err, schema.ErrSchemaMismatch)
}

func elementIDs(rows []schema.FlatRow) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ElementID)
	}
	return ids
}

func vertexIDs(rows []schema.FlatRow) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.VertexID)
	}
	return ids
}

func attributeElementIDs(rows []schema.ElementAttribute) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ElementID)
	}
	return ids
}
