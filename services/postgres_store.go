package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/textmesh/textmesh/crypto"
	"github.com/textmesh/textmesh/protocol"
	"github.com/textmesh/textmesh/worker"
)

// PostgresStore implements DirectoryStore with PostgreSQL persistence.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// NewPostgresStore opens and migrates a PostgreSQL-backed store.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS registered_workers (
		worker_id VARCHAR(128) PRIMARY KEY,
		http_endpoint VARCHAR(512) NOT NULL,
		public_key VARCHAR(128) NOT NULL,
		signature BYTEA NOT NULL,
		signer_public_key VARCHAR(128) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_workers_created ON registered_workers(created_at);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveWorker persists a signed worker registration, replacing any
// earlier registration for the same worker id.
func (s *PostgresStore) SaveWorker(signed *protocol.Signed[protocol.WorkerRegistration]) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reg := signed.Object

	query := `
	INSERT INTO registered_workers
		(worker_id, http_endpoint, public_key, signature, signer_public_key, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (worker_id) DO UPDATE SET
		http_endpoint = EXCLUDED.http_endpoint,
		public_key = EXCLUDED.public_key,
		signature = EXCLUDED.signature,
		signer_public_key = EXCLUDED.signer_public_key,
		updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query,
		string(reg.WorkerID), reg.HTTPEndpoint, reg.PublicKey,
		signed.Signature.Bytes(), signed.PublicKey.String())
	if err != nil {
		return fmt.Errorf("saving worker %s: %w", reg.WorkerID, err)
	}
	return nil
}

// LoadWorkers returns all persisted registrations.
func (s *PostgresStore) LoadWorkers() ([]*protocol.Signed[protocol.WorkerRegistration], error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT worker_id, http_endpoint, public_key, signature, signer_public_key FROM registered_workers`)
	if err != nil {
		return nil, fmt.Errorf("querying workers: %w", err)
	}
	defer rows.Close()

	var out []*protocol.Signed[protocol.WorkerRegistration]
	for rows.Next() {
		var (
			id, endpoint, pubKey, signerKey string
			signature                       []byte
		)
		if err := rows.Scan(&id, &endpoint, &pubKey, &signature, &signerKey); err != nil {
			return nil, fmt.Errorf("scanning worker row: %w", err)
		}

		signerPK, err := crypto.NewPublicKeyFromString(signerKey)
		if err != nil {
			return nil, fmt.Errorf("bad signer key for %s: %w", id, err)
		}

		out = append(out, &protocol.Signed[protocol.WorkerRegistration]{
			PublicKey: signerPK,
			Signature: crypto.Signature(signature),
			Object: &protocol.WorkerRegistration{
				WorkerID:     worker.ID(id),
				HTTPEndpoint: endpoint,
				PublicKey:    pubKey,
			},
		})
	}
	return out, rows.Err()
}

// DeleteWorker removes a persisted registration.
func (s *PostgresStore) DeleteWorker(id worker.ID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM registered_workers WHERE worker_id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("deleting worker %s: %w", id, err)
	}
	return nil
}

// Close releases the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
