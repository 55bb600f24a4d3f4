package nas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveNames(t *testing.T) {
	want := []string{
		"none", "max_pool_3x3", "avg_pool_3x3", "skip_connect",
		"sep_conv_3x3", "sep_conv_5x5", "dil_conv_3x3", "dil_conv_5x5",
	}
	prims := Primitives()
	require.Len(t, prims, NumPrimitives)
	for i, p := range prims {
		assert.Equal(t, want[i], p.String())
		parsed, err := ParsePrimitive(want[i])
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
}

func TestParsePrimitiveUnknown(t *testing.T) {
	_, err := ParsePrimitive("conv_7x1_1x7")
	assert.ErrorIs(t, err, ErrUnknownPrimitive)
	assert.Equal(t, "unknown", Primitive(42).String())
	assert.False(t, Primitive(-1).Valid())
}

func TestPrimitiveIsPool(t *testing.T) {
	for _, p := range Primitives() {
		assert.Equal(t, p == MaxPool3x3 || p == AvgPool3x3, p.IsPool(), p.String())
	}
}

func TestPrimitiveText(t *testing.T) {
	text, err := DilConv5x5.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "dil_conv_5x5", string(text))

	var p Primitive
	require.NoError(t, p.UnmarshalText([]byte("skip_connect")))
	assert.Equal(t, SkipConnect, p)

	assert.ErrorIs(t, p.UnmarshalText([]byte("bogus")), ErrUnknownPrimitive)
	_, err = Primitive(99).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownPrimitive)
}
