// Command worker runs a textmesh worker node.
//
// A worker hosts a registry of documents and tokens, answers pointer
// resolution and release requests from peers, and accepts secret shares
// from vector aggregation sessions.
//
// # Registration
//
// With --directory set the worker signs a registration with its Ed25519
// key and submits it on startup, and unregisters on shutdown. Peers
// discover the worker's endpoint through the directory's GET /workers.
//
// # Usage
//
//	go run ./cmd/worker --id=worker-a --addr=:8081 --directory=http://localhost:8080
//	go run ./cmd/worker --config=worker.yaml --vectors=/data/embeddings.txt
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/textmesh/textmesh/api/httpserver"
	"github.com/textmesh/textmesh/cmd/common"
	"github.com/textmesh/textmesh/registry"
	"github.com/textmesh/textmesh/services"
	"github.com/textmesh/textmesh/vocab"
	"github.com/textmesh/textmesh/worker"
)

func main() {
	var (
		configPath    = flag.String("config", "", "YAML config file")
		id            = flag.String("id", "", "Worker identifier (required)")
		addr          = flag.String("addr", "", "HTTP listen address (default :8081)")
		metricsAddr   = flag.String("metrics-addr", "", "Metrics listen address (empty disables)")
		endpoint      = flag.String("endpoint", "", "Endpoint published to the directory")
		directoryURL  = flag.String("directory", "", "Directory URL for registration")
		vectorsPath   = flag.String("vectors", "", "Word embedding file, one token per line")
		signingKeyHex = flag.String("signing-key", "", "Ed25519 signing key (hex, generates if empty)")
		pprof         = flag.Bool("pprof", false, "Enable pprof debug API")
		debug         = flag.Bool("debug", false, "Debug logging")
		logJSON       = flag.Bool("log-json", false, "JSON log output")
	)
	flag.Parse()

	cfg, err := common.LoadWorkerConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *id != "" {
		cfg.ID = worker.ID(*id)
	}
	common.Override(&cfg.ListenAddr, *addr)
	common.Override(&cfg.MetricsAddr, *metricsAddr)
	common.Override(&cfg.Endpoint, *endpoint)
	common.Override(&cfg.DirectoryURL, *directoryURL)
	common.Override(&cfg.VectorsPath, *vectorsPath)
	common.Override(&cfg.SigningKey, *signingKeyHex)

	if cfg.ID == "" {
		fmt.Fprintln(os.Stderr, "Error: --id is required")
		os.Exit(1)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8081"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost" + cfg.ListenAddr
	}

	log := common.NewLogger(*debug, *logJSON)

	signingKey, err := common.LoadOrGenerateSigningKey(cfg.SigningKey)
	if err != nil {
		log.Error("Signing key error", "err", err)
		os.Exit(1)
	}
	pubKey, err := signingKey.PublicKey()
	if err != nil {
		log.Error("Signing key error", "err", err)
		os.Exit(1)
	}
	log.Info("Worker identity", "id", cfg.ID, "publicKey", pubKey.String())

	svc := services.NewWorkerService(cfg.ID, registry.New(), log)
	svc.Vocab = loadVocab(log, cfg.VectorsPath)

	srv, err := httpserver.New(&httpserver.Config{
		ListenAddr:               cfg.ListenAddr,
		MetricsAddr:              cfg.MetricsAddr,
		Namespace:                "textmesh_worker",
		EnablePprof:              *pprof,
		Log:                      log,
		DrainDuration:            time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             15 * time.Second,
	}, svc)
	if err != nil {
		log.Error("Create server error", "err", err)
		os.Exit(1)
	}
	svc.Metrics = srv.Metrics()

	srv.RunInBackground()

	if cfg.DirectoryURL != "" {
		info := &worker.Info{ID: cfg.ID, HTTPEndpoint: cfg.Endpoint, PublicKey: pubKey}
		if err := services.RegisterWorker(cfg.DirectoryURL, signingKey, info); err != nil {
			log.Error("Directory registration failed", "err", err)
			os.Exit(1)
		}
		log.Info("Registered with directory", "directory", cfg.DirectoryURL, "endpoint", cfg.Endpoint)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker")
	if cfg.DirectoryURL != "" {
		unregister(log, cfg.DirectoryURL, cfg.ID)
	}
	srv.Shutdown()
}

// loadVocab builds the worker's vocabulary, empty when no embedding
// file is configured.
func loadVocab(log *slog.Logger, path string) *vocab.Vocab {
	if path == "" {
		return vocab.NewInMemory(nil)
	}
	f, err := os.Open(path)
	if err != nil {
		log.Error("Opening vectors file", "err", err)
		os.Exit(1)
	}
	defer f.Close()

	table, err := vocab.ReadVectors(f)
	if err != nil {
		log.Error("Parsing vectors file", "err", err)
		os.Exit(1)
	}
	return &vocab.Vocab{Store: vocab.NewMapStore(), Vectors: table}
}

// unregister is best effort, the directory also tolerates stale entries.
func unregister(log *slog.Logger, directoryURL string, id worker.ID) {
	req, err := http.NewRequest(http.MethodDelete, directoryURL+"/unregister/"+id.String(), nil)
	if err != nil {
		log.Warn("Unregister request error", "err", err)
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Warn("Unregister failed", "err", err)
		return
	}
	resp.Body.Close()
}
