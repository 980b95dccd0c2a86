package schema

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrSchemaMismatch = errors.New("unsupported schema variant")

// Kind selects the output layout of an extraction session.
type Kind int

const (
	// KindFlat emits one row per (element, vertex) pair.
	KindFlat Kind = iota
	// KindNormalized emits deduplicated vertices, per-vertex element
	// attributes and per-element geometry as three streams.
	KindNormalized
)

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat":
		return KindFlat, nil
	case "normalized":
		return KindNormalized, nil
	default:
		return 0, errors.Wrapf(ErrSchemaMismatch, "schema %q", s)
	}
}

func (k Kind) String() string {
	switch k {
	case KindFlat:
		return "flat"
	case KindNormalized:
		return "normalized"
	default:
		return "unknown"
	}
}

// Tables lists the output tables of the kind in hand-off order.
func (k Kind) Tables() ([]*Table, error) {
	switch k {
	case KindFlat:
		return []*Table{Flat}, nil
	case KindNormalized:
		return []*Table{Vertices, Attributes, Geometry}, nil
	default:
		return nil, errors.Wrapf(ErrSchemaMismatch, "schema kind %d", int(k))
	}
}
