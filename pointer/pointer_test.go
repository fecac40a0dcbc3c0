package pointer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/textmesh/textmesh/doc"
	"github.com/textmesh/textmesh/registry"
	"github.com/textmesh/textmesh/vocab"
	"github.com/textmesh/textmesh/worker"
)

// failTransport fails the test if any network method is called.
type failTransport struct{ t *testing.T }

func (ft *failTransport) ResolveToken(ctx context.Context, location worker.ID, objectID string) (*doc.Token, error) {
	ft.t.Fatalf("unexpected remote resolve of %s at %s", objectID, location)
	return nil, nil
}

func (ft *failTransport) ReleaseObject(ctx context.Context, location worker.ID, objectID string) error {
	ft.t.Fatalf("unexpected remote release of %s at %s", objectID, location)
	return nil
}

// fakeTransport serves tokens from a remote worker's registry.
type fakeTransport struct {
	remote      *registry.Registry
	unreachable bool
	releases    int
}

func (ft *fakeTransport) ResolveToken(ctx context.Context, location worker.ID, objectID string) (*doc.Token, error) {
	if ft.unreachable {
		return nil, ErrRemoteUnavailable
	}
	obj, err := ft.remote.Resolve(objectID)
	if err != nil {
		return nil, err
	}
	src := obj.(*doc.Token)
	vec, _ := src.Doc().Vocab.Vectors.Vector(src.Text())
	return doc.NewDetached(src.ID, src.Owner, src.Text(), vec, doc.TokenMeta{
		StartPos:   src.StartPos,
		EndPos:     src.StopPos - 1,
		HasEnd:     src.HasStop,
		IsSpace:    src.IsSpace,
		SpaceAfter: src.SpaceAfter,
	}), nil
}

func (ft *fakeTransport) ReleaseObject(ctx context.Context, location worker.ID, objectID string) error {
	if ft.unreachable {
		return ErrRemoteUnavailable
	}
	ft.releases++
	return ft.remote.Release(objectID)
}

func makeToken(t *testing.T, owner worker.ID, text string) *doc.Token {
	t.Helper()
	v := vocab.NewInMemory(map[string][]float64{text: {1, 2, 3}})
	d := doc.NewDocument(owner, v, text)
	tok, err := d.AddToken(doc.TokenMeta{
		Orth:     v.Store.Intern(text),
		StartPos: 0,
		EndPos:   len(text) - 1,
		HasEnd:   true,
	})
	require.NoError(t, err)
	return tok
}

func TestLocalGetShortCircuits(t *testing.T) {
	local := registry.New()
	tok := makeToken(t, "worker-a", "Alice")
	require.NoError(t, local.RegisterID(tok.ID, tok))

	// Owner == location: the transport must never be touched.
	p := Create(tok, "worker-a", local, &failTransport{t})
	require.Equal(t, tok.ID, p.IDAtLocation)
	require.Equal(t, worker.ID("worker-a"), p.Owner)
	require.True(t, p.GarbageCollectData)

	got, err := p.Get(context.Background())
	require.NoError(t, err)
	require.Same(t, tok, got)
}

func TestLocalGetUnknownID(t *testing.T) {
	local := registry.New()
	tok := makeToken(t, "worker-a", "Alice")

	p := Create(tok, "worker-a", local, &failTransport{t})
	_, err := p.Get(context.Background())
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestRemoteGet(t *testing.T) {
	remote := registry.New()
	tok := makeToken(t, "worker-a", "Alice")
	require.NoError(t, remote.RegisterID(tok.ID, tok))

	ft := &fakeTransport{remote: remote}
	p := Create(tok, "worker-a", registry.New(), ft, WithOwner("worker-b"))

	got, err := p.Get(context.Background())
	require.NoError(t, err)
	require.NotSame(t, tok, got)
	require.Equal(t, "Alice", got.Text())
	require.Equal(t, tok.ID, got.ID)
}

func TestRemoteGetUnavailable(t *testing.T) {
	tok := makeToken(t, "worker-a", "Alice")
	ft := &fakeTransport{remote: registry.New(), unreachable: true}

	p := Create(tok, "worker-a", registry.New(), ft, WithOwner("worker-b"))
	_, err := p.Get(context.Background())
	require.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestDropReleasesRemoteObject(t *testing.T) {
	remote := registry.New()
	tok := makeToken(t, "worker-a", "Alice")
	require.NoError(t, remote.RegisterID(tok.ID, tok))

	ft := &fakeTransport{remote: remote}
	p := Create(tok, "worker-a", registry.New(), ft, WithOwner("worker-b"))

	require.NoError(t, p.Drop(context.Background()))
	require.Equal(t, 1, ft.releases)

	// Last reference released: the object is gone at the location.
	_, err := remote.Resolve(tok.ID)
	require.ErrorIs(t, err, registry.ErrNotFound)

	// Dropping again is a no-op.
	require.NoError(t, p.Drop(context.Background()))
	require.Equal(t, 1, ft.releases)
}

func TestDropWithoutGCIsNoop(t *testing.T) {
	remote := registry.New()
	tok := makeToken(t, "worker-a", "Alice")
	require.NoError(t, remote.RegisterID(tok.ID, tok))

	ft := &fakeTransport{remote: remote}
	p := Create(tok, "worker-a", registry.New(), ft, WithOwner("worker-b"), WithoutGC())

	require.NoError(t, p.Drop(context.Background()))
	require.Equal(t, 0, ft.releases)

	_, err := remote.Resolve(tok.ID)
	require.NoError(t, err)
}

func TestTwoPointersOneObject(t *testing.T) {
	remote := registry.New()
	tok := makeToken(t, "worker-a", "Alice")
	require.NoError(t, remote.RegisterID(tok.ID, tok))
	require.NoError(t, remote.Retain(tok.ID)) // second pointer handed out

	ft := &fakeTransport{remote: remote}
	p1 := Create(tok, "worker-a", registry.New(), ft, WithOwner("worker-b"))
	p2 := Create(tok, "worker-a", registry.New(), ft, WithOwner("worker-c"))
	require.NotEqual(t, p1.ID, p2.ID)
	require.Equal(t, p1.IDAtLocation, p2.IDAtLocation)

	require.NoError(t, p1.Drop(context.Background()))
	_, err := remote.Resolve(tok.ID)
	require.NoError(t, err, "object survives while another pointer references it")

	require.NoError(t, p2.Drop(context.Background()))
	_, err = remote.Resolve(tok.ID)
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestRemoteErrorsAreDistinguishable(t *testing.T) {
	unreachable := errors.Is(ErrRemoteUnavailable, registry.ErrNotFound)
	require.False(t, unreachable)
}
