package schema_test

import (
	"path"
	"testing"

	"github.com/segmentio/parquet-go"
	"github.com/stretchr/testify/require"

	"fpetkovski/mfem-parquet/pqtest"
	"fpetkovski/mfem-parquet/schema"
)

func TestFlatSchema(t *testing.T) {
	file := path.Join(t.TempDir(), "mesh.parquet")
	rows := []parquet.Row{
		schema.FlatRow{
			ElementID: 0,
			VertexID:  3,
			Coords:    [3]float64{1.5, -2},
			Energy:    10,
			Density:   0.25,
			Velocity:  [3]float64{1, 2, 3},
		}.Row(),
		schema.FlatRow{ElementID: 1, VertexID: 4}.Row(),
	}
	require.NoError(t, pqtest.WriteFile(file, schema.Flat, rows))

	read, err := pqtest.ReadFile(file)
	require.NoError(t, err)
	require.Len(t, read, 2)

	first := read[0]
	require.Len(t, first, len(schema.Flat.Columns()))
	require.Equal(t, int64(0), first[schema.Flat.ColumnIndex(schema.ElementIDColumn)].Int64())
	require.Equal(t, int64(3), first[schema.Flat.ColumnIndex(schema.VertexIDColumn)].Int64())
	require.Equal(t, 1.5, first[schema.Flat.ColumnIndex("x")].Double())
	require.Equal(t, -2.0, first[schema.Flat.ColumnIndex("y")].Double())
	require.Equal(t, 0.0, first[schema.Flat.ColumnIndex("z")].Double())
	require.Equal(t, 0.25, first[schema.Flat.ColumnIndex("rho")].Double())
	require.Equal(t, 3.0, first[schema.Flat.ColumnIndex("v_z")].Double())
	require.Equal(t, int64(1), read[1][0].Int64())
}

func TestGeometrySchema(t *testing.T) {
	file := path.Join(t.TempDir(), "geometry.parquet")
	geometry := schema.NewElementGeometry(7, []int{2, 3, 4, 5})
	require.Equal(t, []int64{2, 3, 4, 5}, geometry.Vertices())
	require.NoError(t, pqtest.WriteFile(file, schema.Geometry, []parquet.Row{geometry.Row()}))

	read, err := pqtest.ReadFile(file)
	require.NoError(t, err)
	require.Len(t, read, 1)

	row := read[0]
	require.Equal(t, int64(7), row[0].Int64())
	require.Equal(t, int64(4), row[schema.Geometry.ColumnIndex(schema.NumVerticesColumn)].Int64())
	require.Equal(t, int64(5), row[schema.Geometry.ColumnIndex("v3")].Int64())
	require.Equal(t, schema.UnusedVertex, row[schema.Geometry.ColumnIndex("v4")].Int64())
	require.Equal(t, schema.UnusedVertex, row[schema.Geometry.ColumnIndex("v7")].Int64())
}

func TestNormalizedSchemas(t *testing.T) {
	dir := t.TempDir()
	vertexFile := path.Join(dir, "vertices.parquet")
	vertex := schema.Vertex{VertexID: 9, Coords: [3]float64{1, 2, 3}}
	require.NoError(t, pqtest.WriteFile(vertexFile, schema.Vertices, []parquet.Row{vertex.Row()}))

	read, err := pqtest.ReadFile(vertexFile)
	require.NoError(t, err)
	require.Len(t, read, 1)
	require.Equal(t, int64(9), read[0][0].Int64())
	require.Equal(t, 3.0, read[0][schema.Vertices.ColumnIndex("z")].Double())

	attributeFile := path.Join(dir, "attributes.parquet")
	attribute := schema.ElementAttribute{ElementID: 1, VertexID: 9, Energy: 4, Density: 5, Velocity: [3]float64{6, 7, 8}}
	require.NoError(t, pqtest.WriteFile(attributeFile, schema.Attributes, []parquet.Row{attribute.Row()}))

	read, err = pqtest.ReadFile(attributeFile)
	require.NoError(t, err)
	require.Len(t, read, 1)
	require.Equal(t, 4.0, read[0][schema.Attributes.ColumnIndex("e")].Double())
	require.Equal(t, 7.0, read[0][schema.Attributes.ColumnIndex("v_y")].Double())
}

func TestParseKind(t *testing.T) {
	kind, err := schema.ParseKind("flat")
	require.NoError(t, err)
	require.Equal(t, schema.KindFlat, kind)

	kind, err = schema.ParseKind(" Normalized ")
	require.NoError(t, err)
	require.Equal(t, schema.KindNormalized, kind)

	tables, err := kind.Tables()
	require.NoError(t, err)
	require.Equal(t, []*schema.Table{schema.Vertices, schema.Attributes, schema.Geometry}, tables)

	_, err = schema.ParseKind("columnar")
	require.ErrorIs(t, err, schema.ErrSchemaMismatch)

	_, err = schema.Kind(5).Tables()
	require.ErrorIs(t, err, schema.ErrSchemaMismatch)
}

func TestArrowSchema(t *testing.T) {
	arrowSchema := schema.Geometry.ArrowSchema()
	require.Equal(t, len(schema.Geometry.Columns()), len(arrowSchema.Fields()))
	require.Equal(t, "v0", arrowSchema.Field(2).Name)
}
