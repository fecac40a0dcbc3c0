// Package common provides shared utilities for textmesh CLI commands.
//
// This package contains helper functions used by the standalone service
// binaries (worker, directory) to reduce code duplication:
//
//   - Key loading and generation for Ed25519 signing keys
//   - YAML configuration loading with flag overrides
//   - Logger construction
package common

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/textmesh/textmesh/crypto"
	"github.com/textmesh/textmesh/services"
	"github.com/textmesh/textmesh/worker"
)

// LoadOrGenerateSigningKey loads an Ed25519 private key from a hex
// string, or generates a fresh key pair if hexKey is empty.
func LoadOrGenerateSigningKey(hexKey string) (crypto.PrivateKey, error) {
	if hexKey != "" {
		keyBytes, err := hex.DecodeString(hexKey)
		if err != nil {
			return nil, fmt.Errorf("invalid hex: %w", err)
		}
		return crypto.NewPrivateKeyFromBytes(keyBytes), nil
	}
	_, privKey, err := crypto.GenerateKeyPair()
	return privKey, err
}

// NewLogger builds the process logger. JSON output is for production
// log pipelines, text for local runs.
func NewLogger(debug, json bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// WorkerConfig is the YAML configuration of a worker node.
type WorkerConfig struct {
	ID          worker.ID `yaml:"id"`
	ListenAddr  string    `yaml:"listen_addr"`
	MetricsAddr string    `yaml:"metrics_addr"`

	// Endpoint is the address peers reach this worker at, as published
	// to the directory. Defaults to http://<listen_addr> when empty.
	Endpoint string `yaml:"endpoint"`

	DirectoryURL string `yaml:"directory_url"`
	VectorsPath  string `yaml:"vectors_path"`
	SigningKey   string `yaml:"signing_key"`
}

// DirectoryConfig is the YAML configuration of the directory service.
type DirectoryConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`

	// Postgres enables persistent registration storage when set.
	Postgres *services.PostgresConfig `yaml:"postgres"`
}

// LoadWorkerConfig reads a worker YAML config file. A missing path
// yields an empty config so flags alone can configure the process.
func LoadWorkerConfig(path string) (*WorkerConfig, error) {
	cfg := &WorkerConfig{}
	if path == "" {
		return cfg, nil
	}
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDirectoryConfig reads a directory YAML config file.
func LoadDirectoryConfig(path string) (*DirectoryConfig, error) {
	cfg := &DirectoryConfig{}
	if path == "" {
		return cfg, nil
	}
	if err := loadYAML(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// Override replaces dst with val when val is non-empty, letting flags
// win over config file values.
func Override(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}
