package mesh

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Ordering is the layout of vector components in a grid function.
type Ordering int

const (
	// ByNodes stores all values of component 0, then component 1, ...
	ByNodes Ordering = iota
	// ByVDim interleaves the components of each dof.
	ByVDim
)

type basis int

const (
	// h1Linear has one dof per mesh vertex.
	h1Linear basis = iota
	// l2Constant has one dof per element.
	l2Constant
)

// GridFunction holds the dofs of a field on a low-order finite element space.
type GridFunction struct {
	Collection string
	VDim       int
	Ordering   Ordering
	Values     []float64

	basis basis
}

func NewGridFunction(collection string, vdim int, ordering Ordering, values []float64) (*GridFunction, error) {
	b, err := parseCollection(collection)
	if err != nil {
		return nil, err
	}
	if vdim < 1 {
		return nil, errors.Errorf("vdim %d out of range", vdim)
	}
	if ordering != ByNodes && ordering != ByVDim {
		return nil, errors.Errorf("unknown ordering %d", ordering)
	}
	if len(values)%vdim != 0 {
		return nil, errors.Errorf("%d values do not divide into vdim %d", len(values), vdim)
	}
	return &GridFunction{
		Collection: collection,
		VDim:       vdim,
		Ordering:   ordering,
		Values:     values,
		basis:      b,
	}, nil
}

// parseCollection accepts names such as H1_2D_P1, L2_3D_P0 and L2_T1_2D_P0.
func parseCollection(name string) (basis, error) {
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return 0, errors.Wrapf(ErrUnsupported, "finite element collection %q", name)
	}
	family, order := parts[0], parts[len(parts)-1]
	switch {
	case family == "H1" && order == "P1":
		return h1Linear, nil
	case family == "L2" && order == "P0":
		return l2Constant, nil
	default:
		return 0, errors.Wrapf(ErrUnsupported, "finite element collection %q", name)
	}
}

func (g *GridFunction) NumDofs() int {
	return len(g.Values) / g.VDim
}

func (g *GridFunction) validate(t *Topology) error {
	want := len(t.Vertices)
	if g.basis == l2Constant {
		want = len(t.Elements)
	}
	if g.NumDofs() != want {
		return errors.Errorf("%s grid function has %d dofs, mesh requires %d", g.Collection, g.NumDofs(), want)
	}
	return nil
}

// sample returns the nodal value of the field at a vertex of an element.
func (g *GridFunction) sample(element, vertex int) Vector {
	dof := vertex
	if g.basis == l2Constant {
		dof = element
	}

	var v Vector
	ndofs := g.NumDofs()
	for comp := 0; comp < g.VDim && comp < len(v); comp++ {
		if g.Ordering == ByNodes {
			v[comp] = g.Values[comp*ndofs+dof]
		} else {
			v[comp] = g.Values[dof*g.VDim+comp]
		}
	}
	return v
}

// ReadGridFunction parses a grid function saved by MFEM's GridFunction::Save.
func ReadGridFunction(r io.Reader) (*GridFunction, error) {
	tokens := newTokenizer(r)
	header, err := tokens.headerLine()
	if err != nil {
		return nil, err
	}
	if header != "FiniteElementSpace" {
		return nil, errors.Wrapf(ErrUnsupported, "grid function header %q", header)
	}

	var (
		collection string
		vdim       = 1
		ordering   = ByNodes
	)
	for {
		key, err := tokens.peek()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		if !strings.HasSuffix(key, ":") {
			break
		}
		if _, err := tokens.next(); err != nil {
			return nil, err
		}
		value, err := tokens.line()
		if err != nil {
			return nil, unexpectedEOF(err)
		}

		switch key {
		case "FiniteElementCollection:":
			collection = value
		case "VDim:":
			if vdim, err = strconv.Atoi(value); err != nil {
				return nil, errors.Wrap(err, "failed parsing VDim")
			}
		case "Ordering:":
			o, err := strconv.Atoi(value)
			if err != nil {
				return nil, errors.Wrap(err, "failed parsing Ordering")
			}
			ordering = Ordering(o)
		}
	}

	var values []float64
	for {
		tok, err := tokens.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed parsing value %d", len(values))
		}
		values = append(values, v)
	}
	return NewGridFunction(collection, vdim, ordering, values)
}
