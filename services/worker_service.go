package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/textmesh/textmesh/doc"
	"github.com/textmesh/textmesh/metrics"
	"github.com/textmesh/textmesh/protocol"
	"github.com/textmesh/textmesh/registry"
	"github.com/textmesh/textmesh/smpc"
	"github.com/textmesh/textmesh/vocab"
	"github.com/textmesh/textmesh/worker"
)

// WorkerService exposes a worker's object registry and share inbox over
// HTTP. It implements httpserver.RouteRegistrar.
type WorkerService struct {
	ID       worker.ID
	Registry *registry.Registry
	Inbox    *smpc.Inbox
	Log      *slog.Logger
	Metrics  *metrics.Metrics

	// Vocab is the vocabulary documents hosted on this worker resolve
	// their tokens against. Optional.
	Vocab *vocab.Vocab
}

// NewWorkerService creates the HTTP face of a worker.
func NewWorkerService(id worker.ID, reg *registry.Registry, log *slog.Logger) *WorkerService {
	return &WorkerService{
		ID:       id,
		Registry: reg,
		Inbox:    smpc.NewInbox(),
		Log:      log.With("worker", id),
	}
}

// RegisterRoutes registers the worker's endpoints.
func (s *WorkerService) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Recoverer)

	r.Post("/objects/resolve", s.handleResolve)
	r.Post("/objects/release", s.handleRelease)
	r.Post("/sessions/shares", s.handleShares)
	r.Delete("/sessions/{session_id}/shares", s.handleRetract)
}

func (s *WorkerService) handleResolve(w http.ResponseWriter, r *http.Request) {
	req, err := protocol.DecodeMessage[protocol.ResolveRequest](r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.countResolve()
	obj, err := s.Registry.Resolve(req.ObjectID)
	if err != nil {
		s.countResolveMiss()
		status := http.StatusInternalServerError
		if errors.Is(err, registry.ErrNotFound) {
			status = http.StatusNotFound
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(&protocol.ResolveResponse{Found: false, Error: err.Error()})
		return
	}

	tok, ok := obj.(*doc.Token)
	if !ok {
		http.Error(w, "registered object is not a token", http.StatusUnprocessableEntity)
		return
	}

	json.NewEncoder(w).Encode(&protocol.ResolveResponse{
		Found:  true,
		Object: protocol.PayloadFromToken(tok),
	})
}

func (s *WorkerService) handleRelease(w http.ResponseWriter, r *http.Request) {
	req, err := protocol.DecodeMessage[protocol.ReleaseRequest](r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.countRelease()
	if err := s.Registry.Release(req.ObjectID); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(&protocol.ReleaseResponse{Ack: true})
}

func (s *WorkerService) handleShares(w http.ResponseWriter, r *http.Request) {
	req, err := protocol.DecodeMessage[protocol.ShareRequest](r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pkg, err := protocol.PackageFromShareRequest(req)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(&protocol.ShareResponse{Error: err.Error()})
		return
	}

	s.Inbox.Put(pkg)
	if s.Metrics != nil {
		s.Metrics.SharesReceived.Inc()
	}
	s.Log.Debug("shares accepted", "session", pkg.SessionID, "index", pkg.ParticipantIndex)

	json.NewEncoder(w).Encode(&protocol.ShareResponse{Ack: true})
}

func (s *WorkerService) handleRetract(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	s.Inbox.Retract(sessionID)
	if s.Metrics != nil {
		s.Metrics.SharesRetracted.Inc()
	}
	s.Log.Debug("shares retracted", "session", sessionID)

	json.NewEncoder(w).Encode(&protocol.ShareResponse{Ack: true})
}

func (s *WorkerService) countResolve() {
	if s.Metrics != nil {
		s.Metrics.ResolvesTotal.Inc()
	}
}

func (s *WorkerService) countResolveMiss() {
	if s.Metrics != nil {
		s.Metrics.ResolveMissesTotal.Inc()
	}
}

func (s *WorkerService) countRelease() {
	if s.Metrics != nil {
		s.Metrics.ReleasesTotal.Inc()
	}
}
