package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"math/big"

	"golang.org/x/crypto/hkdf"
)

// ErrTooFewShareholders is returned when a value is split among fewer
// than two holders. A single-holder split is no secret at all.
var ErrTooFewShareholders = errors.New("need at least two shareholders")

// SplitAdditive splits a ring element into n additive shares: n-1 shares
// drawn uniformly at random and one remainder share so that the shares
// sum to the secret in the ring. Any n-1 shares are uniformly random and
// reveal nothing about the secret.
func SplitAdditive(secret *big.Int, n int, ringOrder *big.Int) ([]*big.Int, error) {
	if n < 2 {
		return nil, ErrTooFewShareholders
	}

	shares := make([]*big.Int, n)
	last := new(big.Int).Set(secret)
	for i := 0; i < n-1; i++ {
		r, err := rand.Int(rand.Reader, ringOrder)
		if err != nil {
			return nil, err
		}
		shares[i] = r
		FieldSubInplace(last, r, ringOrder)
	}
	shares[n-1] = last

	return shares, nil
}

// SplitAdditiveVector splits each component of a vector of ring elements,
// returning one share vector per holder.
func SplitAdditiveVector(secrets []*big.Int, n int, ringOrder *big.Int) ([][]*big.Int, error) {
	if n < 2 {
		return nil, ErrTooFewShareholders
	}

	holders := make([][]*big.Int, n)
	for h := range holders {
		holders[h] = make([]*big.Int, len(secrets))
	}

	for i, secret := range secrets {
		shares, err := SplitAdditive(secret, n, ringOrder)
		if err != nil {
			return nil, err
		}
		for h := range holders {
			holders[h][i] = shares[h]
		}
	}

	return holders, nil
}

// CombineAdditive reconstructs the secret vector by summing one share
// vector per holder in the ring. All holders must contribute.
func CombineAdditive(holders [][]*big.Int, ringOrder *big.Int) ([]*big.Int, error) {
	if len(holders) < 2 {
		return nil, ErrTooFewShareholders
	}

	dim := len(holders[0])
	out := make([]*big.Int, dim)
	for i := range out {
		out[i] = new(big.Int)
	}
	for _, shares := range holders {
		if len(shares) != dim {
			return nil, errors.New("share vector length mismatch")
		}
		VectorAddInplace(out, shares, ringOrder)
	}

	return out, nil
}

// DeriveAuxShares derives auxiliary correctness-check elements for a
// crypto-coordination party. The elements are an HKDF expansion of the
// encoded secrets keyed by the session identifier, so any participant
// holding the plaintext can recompute and verify them, but they are not
// a reconstructing set: without the random participant shares they carry
// no information usable for reconstruction by the coordinator alone.
func DeriveAuxShares(sessionID string, secrets []*big.Int, count int, ringOrder *big.Int) ([]*big.Int, error) {
	material := make([]byte, 0, len(secrets)*16)
	for _, s := range secrets {
		material = append(material, s.Bytes()...)
	}

	r := hkdf.New(sha256.New, material, []byte(sessionID), []byte("textmesh-aux-share"))

	elSize := (ringOrder.BitLen() + 7) / 8
	buf := make([]byte, elSize)
	out := make([]*big.Int, count)
	for i := range out {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		el := new(big.Int).SetBytes(buf)
		out[i] = el.Mod(el, ringOrder)
	}

	return out, nil
}
