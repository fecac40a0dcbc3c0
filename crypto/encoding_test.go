package crypto

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedPointRoundtrip(t *testing.T) {
	codec := NewFixedPointCodec()

	for _, v := range []float64{0, 1, -1, 0.5, -0.5, 3.14159, -2.71828, 1e6, -1e6} {
		el, err := codec.Encode(v)
		require.NoError(t, err)
		require.InDelta(t, v, codec.Decode(el), 1.0/float64(uint64(1)<<codec.FracBits))
	}
}

func TestFixedPointRejectsNonFinite(t *testing.T) {
	codec := NewFixedPointCodec()

	_, err := codec.Encode(math.NaN())
	require.ErrorIs(t, err, ErrValueOutOfRange)

	_, err = codec.Encode(math.Inf(1))
	require.ErrorIs(t, err, ErrValueOutOfRange)
}

func TestFixedPointVectorRoundtrip(t *testing.T) {
	codec := NewFixedPointCodec()

	vec := []float64{0.25, -1.75, 42.0, -0.001}
	els, err := codec.EncodeVector(vec)
	require.NoError(t, err)

	got := codec.DecodeVector(els)
	require.Len(t, got, len(vec))
	for i := range vec {
		require.InDelta(t, vec[i], got[i], 1.0/float64(uint64(1)<<codec.FracBits))
	}
}
