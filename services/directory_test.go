package services

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/textmesh/textmesh/crypto"
	"github.com/textmesh/textmesh/protocol"
	"github.com/textmesh/textmesh/worker"
)

// memoryStore is an in-memory DirectoryStore for tests.
type memoryStore struct {
	mu      sync.Mutex
	workers map[worker.ID]*protocol.Signed[protocol.WorkerRegistration]
}

func newMemoryStore() *memoryStore {
	return &memoryStore{workers: make(map[worker.ID]*protocol.Signed[protocol.WorkerRegistration])}
}

func (m *memoryStore) SaveWorker(signed *protocol.Signed[protocol.WorkerRegistration]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers[signed.Object.WorkerID] = signed
	return nil
}

func (m *memoryStore) LoadWorkers() ([]*protocol.Signed[protocol.WorkerRegistration], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*protocol.Signed[protocol.WorkerRegistration], 0, len(m.workers))
	for _, s := range m.workers {
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryStore) DeleteWorker(id worker.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.workers, id)
	return nil
}

func startDirectory(t *testing.T, store DirectoryStore) (*Directory, *httptest.Server) {
	t.Helper()
	dir, err := NewDirectory(slog.Default(), store)
	require.NoError(t, err)
	router := chi.NewRouter()
	dir.RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return dir, srv
}

func TestDirectoryRegisterAndDiscover(t *testing.T) {
	_, srv := startDirectory(t, nil)

	pub, priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	require.NoError(t, RegisterWorker(srv.URL, priv, &worker.Info{
		ID:           "worker-a",
		HTTPEndpoint: "http://localhost:8081",
	}))

	workers, err := FetchWorkers(srv.URL)
	require.NoError(t, err)
	require.Len(t, workers, 1)
	require.Equal(t, worker.ID("worker-a"), workers[0].ID)
	require.Equal(t, pub.String(), workers[0].PublicKey.String())
}

func TestDirectoryRejectsForgedRegistration(t *testing.T) {
	_, srv := startDirectory(t, nil)

	_, priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	otherPub, _, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	// Sign with one key but claim another.
	signed, err := protocol.NewSigned(priv, &protocol.WorkerRegistration{
		WorkerID:     "worker-a",
		HTTPEndpoint: "http://localhost:8081",
		PublicKey:    otherPub.String(),
	})
	require.NoError(t, err)

	body, err := protocol.SerializeMessage(signed)
	require.NoError(t, err)

	resp, err := srv.Client().Post(srv.URL+"/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 403, resp.StatusCode)
}

func TestDirectoryRejectsIDTakeover(t *testing.T) {
	_, srv := startDirectory(t, nil)

	_, priv1, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	_, priv2, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	info := &worker.Info{ID: "worker-a", HTTPEndpoint: "http://localhost:8081"}
	require.NoError(t, RegisterWorker(srv.URL, priv1, info))

	// A different key may not re-register the same worker id.
	err = RegisterWorker(srv.URL, priv2, info)
	require.Error(t, err)
}

func TestDirectoryPersistsAcrossRestart(t *testing.T) {
	store := newMemoryStore()
	_, srv := startDirectory(t, store)

	_, priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, RegisterWorker(srv.URL, priv, &worker.Info{
		ID:           "worker-a",
		HTTPEndpoint: "http://localhost:8081",
	}))

	// A fresh directory over the same store sees the registration.
	reloaded, err := NewDirectory(slog.Default(), store)
	require.NoError(t, err)
	require.Len(t, reloaded.Workers(), 1)
}

func TestDirectoryUnregister(t *testing.T) {
	dir, srv := startDirectory(t, nil)

	_, priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, RegisterWorker(srv.URL, priv, &worker.Info{
		ID:           "worker-a",
		HTTPEndpoint: "http://localhost:8081",
	}))

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/unregister/worker-a", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	require.Empty(t, dir.Workers())
}
