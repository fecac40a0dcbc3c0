package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/textmesh/textmesh/pointer"
	"github.com/textmesh/textmesh/registry"
	"github.com/textmesh/textmesh/smpc"
	"github.com/textmesh/textmesh/worker"
)

// TestE2E_PointerAndEncryptedVector walks the full cross-worker flow
// over real HTTP: worker A holds a document, worker B resolves a proxy
// through a pointer, requests an encrypted vector with A and B as
// shareholders, and the combined shares decode back to the original
// embedding.
func TestE2E_PointerAndEncryptedVector(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	ctx := context.Background()

	svcA, srvA := startWorker(t, "worker-a")
	svcB, srvB := startWorker(t, "worker-b")

	transport := NewHTTPTransport(map[worker.ID]string{
		"worker-a": srvA.URL,
		"worker-b": srvB.URL,
	})

	tok := registerAliceToken(t, svcA)

	// Worker B holds only a pointer, not the token itself.
	localB := registry.New()
	ptr := pointer.Create(tok, "worker-a", localB, transport, pointer.WithOwner("worker-b"))
	require.Equal(t, tok.ID, ptr.IDAtLocation)

	proxy, err := ptr.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "Alice", proxy.Text())
	require.True(t, proxy.HasVector)

	// Encrypt the proxy's embedding across both workers with a third
	// party coordinating.
	agg := &smpc.Aggregator{Sender: transport}
	sv, err := proxy.EncryptedVector(ctx, agg, []worker.ID{"worker-a", "worker-b"}, smpc.EncryptOptions{
		Coordinator:        "worker-c",
		GradientCompatible: true,
	})
	require.NoError(t, err)
	require.Equal(t, smpc.StateShared, agg.LastState())
	require.True(t, sv.GradientCompatible)
	require.Len(t, sv.AuxShares, 4)

	// Each shareholder received exactly its own package.
	heldA, ok := svcA.Inbox.Get(sv.SessionID)
	require.True(t, ok)
	heldB, ok := svcB.Inbox.Get(sv.SessionID)
	require.True(t, ok)
	require.NotEqual(t, heldA.ParticipantIndex, heldB.ParticipantIndex)
	require.Len(t, heldA.Shares, 4)
	require.Len(t, heldB.Shares, 4)

	// No single holder's shares decode to anything meaningful on their
	// own; combining both recovers the embedding up to rounding.
	got, err := sv.Reconstruct()
	require.NoError(t, err)
	want := []float64{0.5, -0.5, 1.5, -1.5}
	require.Len(t, got, len(want))
	for i := range want {
		require.InDelta(t, want[i], got[i], 1e-4)
	}

	// Dropping the pointer releases the remote object.
	require.NoError(t, ptr.Drop(ctx))
	_, err = svcA.Registry.Resolve(tok.ID)
	require.ErrorIs(t, err, registry.ErrNotFound)
}

// TestE2E_DistributionAbortsWhenWorkerUnreachable verifies that no
// worker keeps shares from a session that failed to reach every
// shareholder.
func TestE2E_DistributionAbortsWhenWorkerUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	ctx := context.Background()

	svcA, srvA := startWorker(t, "worker-a")
	transport := NewHTTPTransport(map[worker.ID]string{
		"worker-a": srvA.URL,
		"worker-b": "http://127.0.0.1:1",
	})

	tok := registerAliceToken(t, svcA)

	agg := &smpc.Aggregator{Sender: transport}
	_, err := tok.EncryptedVector(ctx, agg, []worker.ID{"worker-a", "worker-b"}, smpc.EncryptOptions{})

	var distErr *smpc.ShareDistributionError
	require.ErrorAs(t, err, &distErr)
	require.Equal(t, worker.ID("worker-b"), distErr.Participant)
	require.Equal(t, smpc.StateFailed, agg.LastState())

	// The reachable worker's delivery was retracted.
	require.Zero(t, svcA.Inbox.Len())
}
