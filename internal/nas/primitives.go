package nas

import (
	"github.com/pkg/errors"
)

// Primitive is one of the candidate operations searched on every edge.
type Primitive int

// The candidate operations, in the column order of the alpha tensors.
const (
	None Primitive = iota
	MaxPool3x3
	AvgPool3x3
	SkipConnect
	SepConv3x3
	SepConv5x5
	DilConv3x3
	DilConv5x5
)

// NumPrimitives is the width of an alpha row.
const NumPrimitives = 8

var primitiveNames = [NumPrimitives]string{
	"none",
	"max_pool_3x3",
	"avg_pool_3x3",
	"skip_connect",
	"sep_conv_3x3",
	"sep_conv_5x5",
	"dil_conv_3x3",
	"dil_conv_5x5",
}

// Primitives returns every primitive in column order.
func Primitives() []Primitive {
	out := make([]Primitive, NumPrimitives)
	for i := range out {
		out[i] = Primitive(i)
	}
	return out
}

// ParsePrimitive resolves an operation name.
func ParsePrimitive(name string) (Primitive, error) {
	for i, n := range primitiveNames {
		if n == name {
			return Primitive(i), nil
		}
	}
	return None, errors.Wrapf(ErrUnknownPrimitive, "%q", name)
}

// String returns the operation name.
func (p Primitive) String() string {
	if !p.Valid() {
		return "unknown"
	}
	return primitiveNames[p]
}

// Valid reports whether p is one of the defined primitives.
func (p Primitive) Valid() bool {
	return p >= 0 && p < NumPrimitives
}

// IsPool reports whether p is a pooling primitive.
func (p Primitive) IsPool() bool {
	return p == MaxPool3x3 || p == AvgPool3x3
}

// MarshalText encodes p as its name.
func (p Primitive) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, errors.Wrapf(ErrUnknownPrimitive, "%d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a primitive name.
func (p *Primitive) UnmarshalText(text []byte) error {
	parsed, err := ParsePrimitive(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
