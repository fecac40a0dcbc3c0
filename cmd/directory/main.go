// Command directory runs the textmesh directory service.
//
// The directory is where workers register their endpoints and signing
// keys and where peers discover each other. Registrations are signed;
// the directory rejects submissions whose signature does not match the
// key being registered, and rejects identifier takeovers by a different
// key.
//
// With a Postgres configuration the directory reloads surviving
// registrations on startup; without one it keeps them in memory.
//
// # Usage
//
//	go run ./cmd/directory --addr=:8080
//	go run ./cmd/directory --config=directory.yaml
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/textmesh/textmesh/api/httpserver"
	"github.com/textmesh/textmesh/cmd/common"
	"github.com/textmesh/textmesh/services"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file")
		addr        = flag.String("addr", "", "HTTP listen address (default :8080)")
		metricsAddr = flag.String("metrics-addr", "", "Metrics listen address (empty disables)")
		pprof       = flag.Bool("pprof", false, "Enable pprof debug API")
		debug       = flag.Bool("debug", false, "Debug logging")
		logJSON     = flag.Bool("log-json", false, "JSON log output")
	)
	flag.Parse()

	cfg, err := common.LoadDirectoryConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	common.Override(&cfg.ListenAddr, *addr)
	common.Override(&cfg.MetricsAddr, *metricsAddr)
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	log := common.NewLogger(*debug, *logJSON)

	var store services.DirectoryStore
	if cfg.Postgres != nil {
		pg, err := services.NewPostgresStore(cfg.Postgres)
		if err != nil {
			log.Error("Postgres error", "err", err)
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
		log.Info("Using Postgres registration store", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	}

	dir, err := services.NewDirectory(log, store)
	if err != nil {
		log.Error("Create directory error", "err", err)
		os.Exit(1)
	}

	srv, err := httpserver.New(&httpserver.Config{
		ListenAddr:               cfg.ListenAddr,
		MetricsAddr:              cfg.MetricsAddr,
		Namespace:                "textmesh_directory",
		EnablePprof:              *pprof,
		AllowCORS:                true,
		Log:                      log,
		DrainDuration:            time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             15 * time.Second,
	}, dir)
	if err != nil {
		log.Error("Create server error", "err", err)
		os.Exit(1)
	}

	srv.RunInBackground()
	log.Info("Directory listening", "addr", cfg.ListenAddr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down directory")
	srv.Shutdown()
}
