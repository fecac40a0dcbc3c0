package vocab

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapStoreInternResolve(t *testing.T) {
	s := NewMapStore()

	k1 := s.Intern("Alice")
	k2 := s.Intern("Bob")
	require.NotEqual(t, k1, k2)

	// Interning again returns the same key.
	require.Equal(t, k1, s.Intern("Alice"))

	text, err := s.Resolve(k1)
	require.NoError(t, err)
	require.Equal(t, "Alice", text)

	_, err = s.Resolve(Key(9999))
	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestMapStoreConcurrentIntern(t *testing.T) {
	s := NewMapStore()

	var wg sync.WaitGroup
	keys := make([]Key, 32)
	for i := range keys {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys[i] = s.Intern("same-word")
		}(i)
	}
	wg.Wait()

	for _, k := range keys {
		require.Equal(t, keys[0], k)
	}
}

func TestInMemoryVectors(t *testing.T) {
	vt := NewInMemoryVectors(map[string][]float64{
		"Alice": {1, 2, 3, 4},
	})

	require.True(t, vt.HasVector("Alice"))
	require.False(t, vt.HasVector("Bob"))

	vec, ok := vt.Vector("Alice")
	require.True(t, ok)
	require.Equal(t, []float64{1, 2, 3, 4}, vec)
}

func TestReadVectors(t *testing.T) {
	in := "Alice 0.1 0.2 0.3 0.4\nBob -1.0 2.5 0 7\n"
	vt, err := ReadVectors(strings.NewReader(in))
	require.NoError(t, err)

	vec, ok := vt.Vector("Bob")
	require.True(t, ok)
	require.Equal(t, []float64{-1.0, 2.5, 0, 7}, vec)

	_, err = ReadVectors(strings.NewReader("broken not-a-number\n"))
	require.Error(t, err)
}
