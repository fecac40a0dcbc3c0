package services

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/textmesh/textmesh/doc"
	"github.com/textmesh/textmesh/pointer"
	"github.com/textmesh/textmesh/registry"
	"github.com/textmesh/textmesh/smpc"
	"github.com/textmesh/textmesh/vocab"
	"github.com/textmesh/textmesh/worker"
)

func startWorker(t *testing.T, id worker.ID) (*WorkerService, *httptest.Server) {
	t.Helper()
	svc := NewWorkerService(id, registry.New(), slog.Default())
	router := chi.NewRouter()
	svc.RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return svc, srv
}

func registerAliceToken(t *testing.T, svc *WorkerService) *doc.Token {
	t.Helper()
	v := vocab.NewInMemory(map[string][]float64{"Alice": {0.5, -0.5, 1.5, -1.5}})
	d := doc.NewDocument(svc.ID, v, "Alice")
	tok, err := d.AddToken(doc.TokenMeta{
		Orth:       v.Store.Intern("Alice"),
		StartPos:   0,
		EndPos:     4,
		HasEnd:     true,
		SpaceAfter: true,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Registry.RegisterID(tok.ID, tok))
	return tok
}

func TestResolveOverHTTP(t *testing.T) {
	svc, srv := startWorker(t, "worker-a")
	tok := registerAliceToken(t, svc)

	transport := NewHTTPTransport(map[worker.ID]string{"worker-a": srv.URL})

	proxy, err := transport.ResolveToken(context.Background(), "worker-a", tok.ID)
	require.NoError(t, err)
	require.Equal(t, "Alice", proxy.Text())
	require.Equal(t, "Alice ", proxy.TextWithWS())
	require.Equal(t, tok.ID, proxy.ID)
	require.True(t, proxy.HasVector)
}

func TestResolveUnknownObject(t *testing.T) {
	_, srv := startWorker(t, "worker-a")
	transport := NewHTTPTransport(map[worker.ID]string{"worker-a": srv.URL})

	_, err := transport.ResolveToken(context.Background(), "worker-a", "no-such-object")
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestResolveUnreachableWorker(t *testing.T) {
	transport := NewHTTPTransport(map[worker.ID]string{"worker-a": "http://127.0.0.1:1"})

	_, err := transport.ResolveToken(context.Background(), "worker-a", "id")
	require.ErrorIs(t, err, pointer.ErrRemoteUnavailable)

	// A worker the transport has no endpoint for is also unavailable.
	_, err = transport.ResolveToken(context.Background(), "worker-z", "id")
	require.ErrorIs(t, err, pointer.ErrRemoteUnavailable)
}

func TestReleaseOverHTTP(t *testing.T) {
	svc, srv := startWorker(t, "worker-a")
	tok := registerAliceToken(t, svc)

	transport := NewHTTPTransport(map[worker.ID]string{"worker-a": srv.URL})

	require.NoError(t, transport.ReleaseObject(context.Background(), "worker-a", tok.ID))

	// Last reference released: the object is gone.
	_, err := svc.Registry.Resolve(tok.ID)
	require.ErrorIs(t, err, registry.ErrNotFound)

	err = transport.ReleaseObject(context.Background(), "worker-a", tok.ID)
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestShareDeliveryAndRetraction(t *testing.T) {
	svc, srv := startWorker(t, "worker-b")
	transport := NewHTTPTransport(map[worker.ID]string{"worker-b": srv.URL})

	agg := &smpc.Aggregator{}
	sv, err := agg.Encrypt(context.Background(), []float64{1.5, -2.5}, []worker.ID{"worker-b", "worker-c"}, smpc.EncryptOptions{})
	require.NoError(t, err)

	pkg := &smpc.SharePackage{
		SessionID:        sv.SessionID,
		ParticipantIndex: 0,
		Shares:           sv.Shares["worker-b"],
		FracBits:         sv.FracBits,
		RingOrder:        sv.RingOrder,
	}
	require.NoError(t, transport.SendShares(context.Background(), "worker-b", pkg))

	held, ok := svc.Inbox.Get(sv.SessionID)
	require.True(t, ok)
	require.Len(t, held.Shares, 2)

	require.NoError(t, transport.RetractShares(context.Background(), "worker-b", sv.SessionID))
	_, ok = svc.Inbox.Get(sv.SessionID)
	require.False(t, ok)
}

func TestCancelledContextAbortsRoundTrip(t *testing.T) {
	_, srv := startWorker(t, "worker-a")
	transport := NewHTTPTransport(map[worker.ID]string{"worker-a": srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := transport.ResolveToken(ctx, "worker-a", "id")
	require.Error(t, err)
}
