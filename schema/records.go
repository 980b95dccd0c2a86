package schema

import (
	"github.com/segmentio/parquet-go"
)

const (
	ElementIDColumn   = "element_id"
	VertexIDColumn    = "vertex_id"
	NumVerticesColumn = "num_vertices"

	// MaxElementVertices is the largest vertex count of any supported element
	// geometry (hexahedron).
	MaxElementVertices = 8

	// UnusedVertex fills geometry slots beyond an element's vertex count.
	UnusedVertex int64 = -1
)

var (
	Flat = newTable("mesh",
		Column{Name: ElementIDColumn, Type: Int64},
		Column{Name: VertexIDColumn, Type: Int64},
		Column{Name: "x", Type: Double},
		Column{Name: "y", Type: Double},
		Column{Name: "z", Type: Double},
		Column{Name: "e", Type: Double},
		Column{Name: "rho", Type: Double},
		Column{Name: "v_x", Type: Double},
		Column{Name: "v_y", Type: Double},
		Column{Name: "v_z", Type: Double},
	)

	Vertices = newTable("vertices",
		Column{Name: VertexIDColumn, Type: Int64},
		Column{Name: "x", Type: Double},
		Column{Name: "y", Type: Double},
		Column{Name: "z", Type: Double},
	)

	Attributes = newTable("element_attributes",
		Column{Name: ElementIDColumn, Type: Int64},
		Column{Name: VertexIDColumn, Type: Int64},
		Column{Name: "e", Type: Double},
		Column{Name: "rho", Type: Double},
		Column{Name: "v_x", Type: Double},
		Column{Name: "v_y", Type: Double},
		Column{Name: "v_z", Type: Double},
	)

	Geometry = newTable("element_geometry", geometryColumns()...)
)

func geometryColumns() []Column {
	columns := []Column{
		{Name: ElementIDColumn, Type: Int64},
		{Name: NumVerticesColumn, Type: Int64},
	}
	for i := 0; i < MaxElementVertices; i++ {
		columns = append(columns, Column{Name: "v" + string(rune('0'+i)), Type: Int64})
	}
	return columns
}

// FlatRow is one (element, vertex) pair with every field inlined.
type FlatRow struct {
	ElementID int64
	VertexID  int64
	// Coords holds x, y, z. Axes beyond the mesh dimension are 0.
	Coords   [3]float64
	Energy   float64
	Density  float64
	Velocity [3]float64
}

func (r FlatRow) Row() parquet.Row {
	row := make(parquet.Row, 0, 10)
	row = append(row,
		parquet.Int64Value(r.ElementID).Level(0, 0, 0),
		parquet.Int64Value(r.VertexID).Level(0, 0, 1),
	)
	row = appendDoubles(row, 2, r.Coords[0], r.Coords[1], r.Coords[2], r.Energy, r.Density,
		r.Velocity[0], r.Velocity[1], r.Velocity[2])
	return row
}

type Vertex struct {
	VertexID int64
	Coords   [3]float64
}

func (v Vertex) Row() parquet.Row {
	row := make(parquet.Row, 0, 4)
	row = append(row, parquet.Int64Value(v.VertexID).Level(0, 0, 0))
	return appendDoubles(row, 1, v.Coords[0], v.Coords[1], v.Coords[2])
}

type ElementAttribute struct {
	ElementID int64
	VertexID  int64
	Energy    float64
	Density   float64
	Velocity  [3]float64
}

func (a ElementAttribute) Row() parquet.Row {
	row := make(parquet.Row, 0, 7)
	row = append(row,
		parquet.Int64Value(a.ElementID).Level(0, 0, 0),
		parquet.Int64Value(a.VertexID).Level(0, 0, 1),
	)
	return appendDoubles(row, 2, a.Energy, a.Density, a.Velocity[0], a.Velocity[1], a.Velocity[2])
}

type ElementGeometry struct {
	ElementID   int64
	NumVertices int
	VertexIDs   [MaxElementVertices]int64
}

func NewElementGeometry(elementID int64, vertexIDs []int) ElementGeometry {
	g := ElementGeometry{ElementID: elementID, NumVertices: len(vertexIDs)}
	for i := range g.VertexIDs {
		g.VertexIDs[i] = UnusedVertex
	}
	for i, v := range vertexIDs {
		g.VertexIDs[i] = int64(v)
	}
	return g
}

func (g ElementGeometry) Vertices() []int64 {
	return g.VertexIDs[:g.NumVertices]
}

func (g ElementGeometry) Row() parquet.Row {
	row := make(parquet.Row, 0, 2+MaxElementVertices)
	row = append(row,
		parquet.Int64Value(g.ElementID).Level(0, 0, 0),
		parquet.Int64Value(int64(g.NumVertices)).Level(0, 0, 1),
	)
	for i, v := range g.VertexIDs {
		row = append(row, parquet.Int64Value(v).Level(0, 0, 2+i))
	}
	return row
}

func appendDoubles(row parquet.Row, firstColumn int, values ...float64) parquet.Row {
	for i, v := range values {
		row = append(row, parquet.DoubleValue(v).Level(0, 0, firstColumn+i))
	}
	return row
}
