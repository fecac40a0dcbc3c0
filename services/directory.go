package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/textmesh/textmesh/crypto"
	"github.com/textmesh/textmesh/protocol"
	"github.com/textmesh/textmesh/worker"
)

// DirectoryStore persists worker registrations across directory
// restarts. Nil stores are allowed; the directory then runs in-memory
// only.
type DirectoryStore interface {
	SaveWorker(signed *protocol.Signed[protocol.WorkerRegistration]) error
	LoadWorkers() ([]*protocol.Signed[protocol.WorkerRegistration], error)
	DeleteWorker(id worker.ID) error
}

// Directory is the central service workers register with and discover
// each other through. Registrations are signed; the directory rejects a
// registration whose signer does not match the claimed public key, and a
// re-registration of an existing worker id under a different key.
type Directory struct {
	log   *slog.Logger
	store DirectoryStore

	mu      sync.RWMutex
	workers map[worker.ID]*protocol.Signed[protocol.WorkerRegistration]
}

// NewDirectory creates a directory, loading any persisted registrations.
func NewDirectory(log *slog.Logger, store DirectoryStore) (*Directory, error) {
	d := &Directory{
		log:     log,
		store:   store,
		workers: make(map[worker.ID]*protocol.Signed[protocol.WorkerRegistration]),
	}

	if store != nil {
		persisted, err := store.LoadWorkers()
		if err != nil {
			return nil, fmt.Errorf("loading persisted workers: %w", err)
		}
		for _, signed := range persisted {
			d.workers[signed.Object.WorkerID] = signed
		}
	}

	return d, nil
}

// RegisterRoutes registers the directory's endpoints.
func (d *Directory) RegisterRoutes(r chi.Router) {
	r.Post("/register", d.handleRegister)
	r.Delete("/unregister/{worker_id}", d.handleUnregister)
	r.Get("/workers", d.handleListWorkers)
}

func (d *Directory) handleRegister(w http.ResponseWriter, req *http.Request) {
	var signedReq protocol.Signed[protocol.WorkerRegistration]
	if err := json.NewDecoder(req.Body).Decode(&signedReq); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reg, signer, err := signedReq.Recover()
	if err != nil {
		http.Error(w, fmt.Errorf("invalid signature: %w", err).Error(), http.StatusForbidden)
		return
	}

	if reg.WorkerID == "" || reg.HTTPEndpoint == "" {
		http.Error(w, "worker id and endpoint are required", http.StatusBadRequest)
		return
	}

	pubKey, err := crypto.NewPublicKeyFromString(reg.PublicKey)
	if err != nil {
		http.Error(w, "invalid public key", http.StatusBadRequest)
		return
	}
	if signer.String() != pubKey.String() {
		http.Error(w, "signer does not match claimed public key", http.StatusForbidden)
		return
	}

	d.mu.Lock()
	if existing, ok := d.workers[reg.WorkerID]; ok && existing.PublicKey.String() != signer.String() {
		d.mu.Unlock()
		http.Error(w, "worker id registered under a different key", http.StatusForbidden)
		return
	}
	d.workers[reg.WorkerID] = &signedReq
	d.mu.Unlock()

	if d.store != nil {
		if err := d.store.SaveWorker(&signedReq); err != nil {
			d.log.Error("persisting registration failed", "worker", reg.WorkerID, "err", err)
		}
	}

	d.log.Info("worker registered", "worker", reg.WorkerID, "endpoint", reg.HTTPEndpoint)
	json.NewEncoder(w).Encode(&protocol.RegistrationResponse{Success: true, WorkerID: reg.WorkerID})
}

func (d *Directory) handleUnregister(w http.ResponseWriter, req *http.Request) {
	id := worker.ID(chi.URLParam(req, "worker_id"))

	d.mu.Lock()
	delete(d.workers, id)
	d.mu.Unlock()

	if d.store != nil {
		if err := d.store.DeleteWorker(id); err != nil {
			d.log.Error("deleting persisted registration failed", "worker", id, "err", err)
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (d *Directory) handleListWorkers(w http.ResponseWriter, req *http.Request) {
	json.NewEncoder(w).Encode(&protocol.WorkerListResponse{Workers: d.Workers()})
}

// Workers returns the registered workers as directory entries.
func (d *Directory) Workers() []*worker.Info {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*worker.Info, 0, len(d.workers))
	for _, signed := range d.workers {
		reg := signed.Object
		pk, _ := crypto.NewPublicKeyFromString(reg.PublicKey)
		out = append(out, &worker.Info{
			ID:           reg.WorkerID,
			HTTPEndpoint: reg.HTTPEndpoint,
			PublicKey:    pk,
		})
	}
	return out
}

// FetchWorkers retrieves the worker list from a directory over HTTP and
// is how transports learn peer endpoints.
func FetchWorkers(directoryURL string) ([]*worker.Info, error) {
	resp, err := http.Get(directoryURL + "/workers")
	if err != nil {
		return nil, fmt.Errorf("fetch workers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	list, err := protocol.DecodeMessage[protocol.WorkerListResponse](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode workers: %w", err)
	}
	return list.Workers, nil
}

// RegisterWorker signs and submits a registration to a directory.
func RegisterWorker(directoryURL string, signingKey crypto.PrivateKey, info *worker.Info) error {
	if err := info.Validate(); err != nil {
		return err
	}

	pub, err := signingKey.PublicKey()
	if err != nil {
		return err
	}

	signed, err := protocol.NewSigned(signingKey, &protocol.WorkerRegistration{
		WorkerID:     info.ID,
		HTTPEndpoint: info.HTTPEndpoint,
		PublicKey:    pub.String(),
	})
	if err != nil {
		return fmt.Errorf("signing registration: %w", err)
	}

	body, err := json.Marshal(signed)
	if err != nil {
		return err
	}

	resp, err := http.Post(directoryURL+"/register", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submitting registration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("directory returned status %d", resp.StatusCode)
	}
	return nil
}
