package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterResolve(t *testing.T) {
	r := New()

	obj := &struct{ name string }{"token"}
	id := r.Register(obj)
	require.NotEmpty(t, id)

	got, err := r.Resolve(id)
	require.NoError(t, err)
	require.Same(t, obj, got)

	_, err = r.Resolve("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterIDIdempotent(t *testing.T) {
	r := New()
	obj := &struct{}{}

	require.NoError(t, r.RegisterID("obj-1", obj))
	require.NoError(t, r.RegisterID("obj-1", obj))
	require.Equal(t, int64(1), r.Refs("obj-1"))

	other := &struct{}{}
	require.ErrorIs(t, r.RegisterID("obj-1", other), ErrIDConflict)
}

func TestReleaseRemovesAtZero(t *testing.T) {
	r := New()
	id := r.Register(&struct{}{})

	require.NoError(t, r.Retain(id))
	require.Equal(t, int64(2), r.Refs(id))

	require.NoError(t, r.Release(id))
	_, err := r.Resolve(id)
	require.NoError(t, err)

	require.NoError(t, r.Release(id))
	_, err = r.Resolve(id)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, r.Release(id), ErrNotFound)
}

func TestRemoveForcesDeletion(t *testing.T) {
	r := New()
	id := r.Register(&struct{}{})
	require.NoError(t, r.Retain(id))

	r.Remove(id)
	_, err := r.Resolve(id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentRetainRelease(t *testing.T) {
	r := New()
	id := r.Register(&struct{}{})

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, r.Retain(id))
		}()
	}
	wg.Wait()
	require.Equal(t, int64(n+1), r.Refs(id))

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, r.Release(id))
		}()
	}
	wg.Wait()

	// Exactly the initial reference remains.
	require.Equal(t, int64(1), r.Refs(id))
	_, err := r.Resolve(id)
	require.NoError(t, err)
}

func TestConcurrentRegisterDistinctIDs(t *testing.T) {
	r := New()

	var wg sync.WaitGroup
	ids := make([]string, 32)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = r.Register(i)
		}(i)
	}
	wg.Wait()

	require.Equal(t, len(ids), r.Len())
	seen := make(map[string]bool)
	for _, id := range ids {
		require.False(t, seen[id])
		seen[id] = true
	}
}
