package mesh

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const mfemMeshHeader = "MFEM mesh v1.0"

// Geometry is an MFEM element geometry code.
type Geometry int

const (
	Point Geometry = iota
	Segment
	Triangle
	Square
	Tetrahedron
	Cube
	Prism
	Pyramid
)

func (g Geometry) String() string {
	if g < Point || g > Pyramid {
		return "Geometry(" + strconv.Itoa(int(g)) + ")"
	}
	return [...]string{"Point", "Segment", "Triangle", "Square", "Tetrahedron", "Cube", "Prism", "Pyramid"}[g]
}

func (g Geometry) NumVertices() int {
	if g < Point || g > Pyramid {
		return 0
	}
	return [...]int{1, 2, 3, 4, 4, 8, 6, 5}[g]
}

type Element struct {
	Attribute int
	Geometry  Geometry
	Vertices  []int
}

// Topology is the vertex and element structure of a mesh with straight-sided
// elements.
type Topology struct {
	Dimension int
	// SpaceDimension is the number of coordinates stored per vertex.
	SpaceDimension int
	Elements       []Element
	Boundary       []Element
	Vertices       [][]float64
}

func (t *Topology) Validate() error {
	if t.SpaceDimension < 1 || t.SpaceDimension > 3 {
		return errors.Errorf("space dimension %d out of range", t.SpaceDimension)
	}
	for i, ele := range t.Elements {
		if len(ele.Vertices) < 2 || len(ele.Vertices) > 8 {
			return errors.Errorf("element %d has %d vertices", i, len(ele.Vertices))
		}
		for _, v := range ele.Vertices {
			if v < 0 || v >= len(t.Vertices) {
				return errors.Errorf("element %d references vertex %d of %d", i, v, len(t.Vertices))
			}
		}
	}
	for i, coords := range t.Vertices {
		if len(coords) != t.SpaceDimension {
			return errors.Errorf("vertex %d has %d coordinates, expected %d", i, len(coords), t.SpaceDimension)
		}
	}
	return nil
}

// ReadTopology parses a mesh in the MFEM v1.0 ASCII format.
func ReadTopology(r io.Reader) (*Topology, error) {
	tokens := newTokenizer(r)
	header, err := tokens.headerLine()
	if err != nil {
		return nil, err
	}
	if header != mfemMeshHeader {
		return nil, errors.Wrapf(ErrUnsupported, "mesh header %q", header)
	}

	topology := &Topology{}
	for {
		section, err := tokens.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch section {
		case "dimension":
			if topology.Dimension, err = tokens.nextInt(); err != nil {
				return nil, errors.Wrap(err, "failed reading dimension")
			}
		case "elements":
			if topology.Elements, err = readElements(tokens); err != nil {
				return nil, errors.Wrap(err, "failed reading elements")
			}
		case "boundary":
			if topology.Boundary, err = readElements(tokens); err != nil {
				return nil, errors.Wrap(err, "failed reading boundary")
			}
		case "vertices":
			if err := readVertices(tokens, topology); err != nil {
				return nil, errors.Wrap(err, "failed reading vertices")
			}
		case "mfem_mesh_end":
			return topology, topology.Validate()
		default:
			return nil, errors.Errorf("unexpected section %q", section)
		}
	}
	return topology, topology.Validate()
}

func readElements(tokens *tokenizer) ([]Element, error) {
	n, err := tokens.nextInt()
	if err != nil {
		return nil, err
	}
	elements := make([]Element, n)
	for i := 0; i < n; i++ {
		attr, err := tokens.nextInt()
		if err != nil {
			return nil, err
		}
		geom, err := tokens.nextInt()
		if err != nil {
			return nil, err
		}
		geometry := Geometry(geom)
		nv := geometry.NumVertices()
		if nv == 0 {
			return nil, errors.Wrapf(ErrUnsupported, "element %d geometry %d", i, geom)
		}
		verts := make([]int, nv)
		for j := range verts {
			if verts[j], err = tokens.nextInt(); err != nil {
				return nil, err
			}
		}
		elements[i] = Element{Attribute: attr, Geometry: geometry, Vertices: verts}
	}
	return elements, nil
}

func readVertices(tokens *tokenizer, topology *Topology) error {
	n, err := tokens.nextInt()
	if err != nil {
		return err
	}
	next, err := tokens.peek()
	if err != nil {
		return err
	}
	if next == "nodes" {
		return errors.Wrap(ErrUnsupported, "curved meshes with a nodes grid function")
	}
	if topology.SpaceDimension, err = tokens.nextInt(); err != nil {
		return err
	}
	topology.Vertices = make([][]float64, n)
	for i := 0; i < n; i++ {
		coords := make([]float64, topology.SpaceDimension)
		for j := range coords {
			if coords[j], err = tokens.nextFloat(); err != nil {
				return err
			}
		}
		topology.Vertices[i] = coords
	}
	return nil
}

// tokenizer splits MFEM text into whitespace separated tokens, dropping
// '#' comments.
type tokenizer struct {
	scanner *bufio.Scanner
	pending []string
}

func newTokenizer(r io.Reader) *tokenizer {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &tokenizer{scanner: scanner}
}

// headerLine returns the first non-blank line verbatim.
func (t *tokenizer) headerLine() (string, error) {
	for t.scanner.Scan() {
		line := strings.TrimSpace(t.scanner.Text())
		if line != "" {
			return line, nil
		}
	}
	if err := t.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.ErrUnexpectedEOF
}

func (t *tokenizer) fill() error {
	for len(t.pending) == 0 {
		if !t.scanner.Scan() {
			if err := t.scanner.Err(); err != nil {
				return err
			}
			return io.EOF
		}
		line := t.scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		t.pending = strings.Fields(line)
	}
	return nil
}

func (t *tokenizer) peek() (string, error) {
	if err := t.fill(); err != nil {
		return "", err
	}
	return t.pending[0], nil
}

func (t *tokenizer) next() (string, error) {
	if err := t.fill(); err != nil {
		return "", err
	}
	tok := t.pending[0]
	t.pending = t.pending[1:]
	return tok, nil
}

// line returns the remaining tokens of the current line joined by a space.
func (t *tokenizer) line() (string, error) {
	if err := t.fill(); err != nil {
		return "", err
	}
	rest := strings.Join(t.pending, " ")
	t.pending = nil
	return rest, nil
}

func (t *tokenizer) nextInt() (int, error) {
	tok, err := t.next()
	if err != nil {
		return 0, unexpectedEOF(err)
	}
	return strconv.Atoi(tok)
}

func (t *tokenizer) nextFloat() (float64, error) {
	tok, err := t.next()
	if err != nil {
		return 0, unexpectedEOF(err)
	}
	return strconv.ParseFloat(tok, 64)
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
