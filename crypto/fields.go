package crypto

import (
	"math/big"
)

// DefaultRingOrder is the prime ring all shares live in unless a session
// configures its own. 127 bits leaves ample headroom above the
// fixed-precision encoding of typical embedding components.
var DefaultRingOrder *big.Int

func init() {
	DefaultRingOrder, _ = big.NewInt(0).SetString("141504642401084501264176625615135659301", 10)
}

// FieldAddInplace performs modular addition in-place: l = (l + r) mod ringOrder.
// The result is stored in l and also returned.
func FieldAddInplace(l *big.Int, r *big.Int, ringOrder *big.Int) *big.Int {
	l.Add(l, r)
	if l.Cmp(ringOrder) >= 0 {
		l.Sub(l, ringOrder)
	}
	if l.Sign() < 0 {
		l.Add(l, ringOrder)
	}
	return l
}

// FieldSubInplace performs modular subtraction in-place: l = (l - r) mod ringOrder.
// The result is stored in l and also returned.
func FieldSubInplace(l *big.Int, r *big.Int, ringOrder *big.Int) *big.Int {
	l.Sub(l, r)
	if l.Cmp(ringOrder) >= 0 {
		l.Sub(l, ringOrder)
	}
	if l.Sign() < 0 {
		l.Add(l, ringOrder)
	}
	return l
}

// VectorAddInplace adds rs into ls component-wise in the ring.
// Panics if the vectors differ in length.
func VectorAddInplace(ls []*big.Int, rs []*big.Int, ringOrder *big.Int) {
	if len(ls) != len(rs) {
		panic("vector length mismatch")
	}
	for i := range ls {
		FieldAddInplace(ls[i], rs[i], ringOrder)
	}
}
