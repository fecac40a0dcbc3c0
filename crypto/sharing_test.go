package crypto

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitAdditiveReconstructs(t *testing.T) {
	secret := big.NewInt(1234567)

	shares, err := SplitAdditive(secret, 3, DefaultRingOrder)
	require.NoError(t, err)
	require.Len(t, shares, 3)

	sum := new(big.Int)
	for _, s := range shares {
		FieldAddInplace(sum, s, DefaultRingOrder)
	}
	require.Zero(t, sum.Cmp(secret))
}

func TestSplitAdditiveRejectsSingleHolder(t *testing.T) {
	_, err := SplitAdditive(big.NewInt(1), 1, DefaultRingOrder)
	require.ErrorIs(t, err, ErrTooFewShareholders)
}

func TestSplitCombineVector(t *testing.T) {
	secrets := []*big.Int{big.NewInt(10), big.NewInt(20), big.NewInt(30)}

	holders, err := SplitAdditiveVector(secrets, 4, DefaultRingOrder)
	require.NoError(t, err)
	require.Len(t, holders, 4)

	got, err := CombineAdditive(holders, DefaultRingOrder)
	require.NoError(t, err)
	for i := range secrets {
		require.Zero(t, got[i].Cmp(secrets[i]), "component %d", i)
	}
}

func TestCombineAdditiveRejectsMismatchedLengths(t *testing.T) {
	_, err := CombineAdditive([][]*big.Int{
		{big.NewInt(1), big.NewInt(2)},
		{big.NewInt(3)},
	}, DefaultRingOrder)
	require.Error(t, err)
}

func TestDeriveAuxSharesDeterministic(t *testing.T) {
	secrets := []*big.Int{big.NewInt(7), big.NewInt(8)}

	a, err := DeriveAuxShares("session-1", secrets, 2, DefaultRingOrder)
	require.NoError(t, err)
	b, err := DeriveAuxShares("session-1", secrets, 2, DefaultRingOrder)
	require.NoError(t, err)

	for i := range a {
		require.Zero(t, a[i].Cmp(b[i]))
	}

	// A different session id yields different elements.
	c, err := DeriveAuxShares("session-2", secrets, 2, DefaultRingOrder)
	require.NoError(t, err)
	require.NotZero(t, a[0].Cmp(c[0]))
}

func TestSignVerify(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	sig, err := Sign(priv, []byte("hello"))
	require.NoError(t, err)
	require.True(t, sig.Verify(pub, []byte("hello")))
	require.False(t, sig.Verify(pub, []byte("tampered")))
}
