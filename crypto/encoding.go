package crypto

import (
	"errors"
	"math"
	"math/big"
)

// DefaultFracBits is the number of fractional bits used by the default
// fixed-precision encoding.
const DefaultFracBits = 16

// ErrValueOutOfRange is returned when a value cannot be represented in
// the configured ring at the configured precision.
var ErrValueOutOfRange = errors.New("value out of encodable range")

// FixedPointCodec maps real-valued vector components to elements of a
// prime ring so that subsequent secret-sharing arithmetic is exact.
//
// A component v encodes as round(v * 2^FracBits) mod RingOrder, with
// negative values wrapping into the upper half of the ring. Decoding
// performs the centered lift: elements above RingOrder/2 are interpreted
// as negative.
type FixedPointCodec struct {
	// FracBits is the number of fractional bits of precision.
	FracBits uint

	// RingOrder is the order of the ring shares live in.
	RingOrder *big.Int
}

// NewFixedPointCodec returns a codec with the package defaults.
func NewFixedPointCodec() *FixedPointCodec {
	return &FixedPointCodec{
		FracBits:  DefaultFracBits,
		RingOrder: DefaultRingOrder,
	}
}

func (c *FixedPointCodec) scale() *big.Float {
	return new(big.Float).SetMantExp(big.NewFloat(1), int(c.FracBits))
}

// Encode converts a single component to its ring representation.
func (c *FixedPointCodec) Encode(v float64) (*big.Int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, ErrValueOutOfRange
	}

	scaled := new(big.Float).Mul(big.NewFloat(v), c.scale())
	el, _ := scaled.Int(nil)

	// Reject magnitudes that would collide across the ring midpoint.
	half := new(big.Int).Rsh(c.RingOrder, 1)
	if new(big.Int).Abs(el).Cmp(half) >= 0 {
		return nil, ErrValueOutOfRange
	}

	return el.Mod(el, c.RingOrder), nil
}

// Decode converts a ring element back to a float using the centered lift.
func (c *FixedPointCodec) Decode(el *big.Int) float64 {
	half := new(big.Int).Rsh(c.RingOrder, 1)
	lifted := new(big.Int).Set(el)
	if lifted.Cmp(half) > 0 {
		lifted.Sub(lifted, c.RingOrder)
	}

	f := new(big.Float).SetInt(lifted)
	f.Quo(f, c.scale())
	v, _ := f.Float64()
	return v
}

// EncodeVector encodes every component of the vector.
func (c *FixedPointCodec) EncodeVector(vec []float64) ([]*big.Int, error) {
	els := make([]*big.Int, len(vec))
	for i, v := range vec {
		el, err := c.Encode(v)
		if err != nil {
			return nil, err
		}
		els[i] = el
	}
	return els, nil
}

// DecodeVector decodes every ring element back to a float.
func (c *FixedPointCodec) DecodeVector(els []*big.Int) []float64 {
	vec := make([]float64, len(els))
	for i, el := range els {
		vec[i] = c.Decode(el)
	}
	return vec
}
