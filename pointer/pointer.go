package pointer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/textmesh/textmesh/doc"
	"github.com/textmesh/textmesh/registry"
	"github.com/textmesh/textmesh/worker"
)

// ErrRemoteUnavailable is returned when the target worker cannot be
// reached. It is distinct from registry.ErrNotFound, which the target
// reports when it is reachable but does not know the identifier.
var ErrRemoteUnavailable = errors.New("remote worker unavailable")

// Transport performs the network round trips a pointer needs. The local
// case never touches it.
type Transport interface {
	// ResolveToken fetches the token registered under objectID at the
	// given worker and deserializes it into a detached proxy.
	ResolveToken(ctx context.Context, location worker.ID, objectID string) (*doc.Token, error)

	// ReleaseObject asks the given worker's registry to release one
	// reference to objectID.
	ReleaseObject(ctx context.Context, location worker.ID, objectID string) error
}

// Pointer is a reference to a token living on a possibly-different
// worker.
type Pointer struct {
	// ID is the pointer's own identity, distinct from the identity of
	// the object it points at.
	ID string

	// Location is the worker holding the real object.
	Location worker.ID

	// IDAtLocation is the identifier Location's registry knows the
	// object by.
	IDAtLocation string

	// Owner is the worker holding this pointer value.
	Owner worker.ID

	// GarbageCollectData controls whether dropping the pointer requests
	// a remote release of the object.
	GarbageCollectData bool

	local     *registry.Registry
	transport Transport
	dropped   bool
}

// Option customizes pointer creation.
type Option func(*Pointer)

// WithID sets the pointer's own identifier instead of a generated one.
func WithID(id string) Option {
	return func(p *Pointer) { p.ID = id }
}

// WithIDAtLocation overrides the remote object identifier. The default
// is the token's own identifier.
func WithIDAtLocation(id string) Option {
	return func(p *Pointer) { p.IDAtLocation = id }
}

// WithOwner overrides the pointer's owning worker. The default is the
// token's current owner.
func WithOwner(owner worker.ID) Option {
	return func(p *Pointer) { p.Owner = owner }
}

// WithoutGC disables the release request on Drop.
func WithoutGC() Option {
	return func(p *Pointer) { p.GarbageCollectData = false }
}

// Create builds a pointer to a token held at location. It registers
// nothing by itself: before handing the pointer to another worker the
// caller must ensure the token is registered at the location under
// IDAtLocation.
func Create(tok *doc.Token, location worker.ID, local *registry.Registry, transport Transport, opts ...Option) *Pointer {
	p := &Pointer{
		ID:                 uuid.NewString(),
		Location:           location,
		IDAtLocation:       tok.ID,
		Owner:              tok.Owner,
		GarbageCollectData: true,
		local:              local,
		transport:          transport,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get dereferences the pointer. When the target worker is the pointer's
// own owner the object resolves through the local registry and no
// network call happens; otherwise Get issues one resolve round trip and
// returns the deserialized proxy token.
func (p *Pointer) Get(ctx context.Context) (*doc.Token, error) {
	if p.Location == p.Owner {
		obj, err := p.local.Resolve(p.IDAtLocation)
		if err != nil {
			return nil, err
		}
		tok, ok := obj.(*doc.Token)
		if !ok {
			return nil, fmt.Errorf("object %s is %T, not a token", p.IDAtLocation, obj)
		}
		return tok, nil
	}

	if p.transport == nil {
		return nil, fmt.Errorf("%w: no transport configured for %s", ErrRemoteUnavailable, p.Location)
	}
	return p.transport.ResolveToken(ctx, p.Location, p.IDAtLocation)
}

// Drop releases the pointer. With GarbageCollectData set it sends one
// release request to the target worker's registry; otherwise it is a
// no-op. Dropping twice is a no-op.
func (p *Pointer) Drop(ctx context.Context) error {
	if p.dropped || !p.GarbageCollectData {
		p.dropped = true
		return nil
	}
	p.dropped = true

	if p.Location == p.Owner {
		return p.local.Release(p.IDAtLocation)
	}
	if p.transport == nil {
		return fmt.Errorf("%w: no transport configured for %s", ErrRemoteUnavailable, p.Location)
	}
	return p.transport.ReleaseObject(ctx, p.Location, p.IDAtLocation)
}
