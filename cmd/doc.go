// Package cmd provides the textmesh service binaries.
//
// # Commands
//
// worker: Runs a worker node. A worker hosts a registry of documents
// and tokens, answers pointer resolution and release requests from
// peers, and accepts secret shares from aggregation sessions.
//
//	go run ./cmd/worker --id=worker-a --addr=:8081 --directory=http://localhost:8080
//	go run ./cmd/worker --config=worker.yaml
//
// directory: Runs the directory service workers register with and
// discover each other through. With a Postgres config the directory
// survives restarts; without one it keeps registrations in memory.
//
//	go run ./cmd/directory --addr=:8080
//	go run ./cmd/directory --config=directory.yaml
//
// # Configuration
//
// Both commands accept a YAML configuration file via --config.
// Command-line flags override config file values.
//
// Example worker config:
//
//	id: "worker-a"
//	listen_addr: ":8081"
//	metrics_addr: ":9081"
//	endpoint: "http://worker-a.internal:8081"
//	directory_url: "http://localhost:8080"
//	vectors_path: "/data/embeddings.txt"
//	signing_key: ""
//
// Example directory config:
//
//	listen_addr: ":8080"
//	metrics_addr: ":9080"
//	postgres:
//	  host: "localhost"
//	  port: 5432
//	  user: "textmesh"
//	  password: "textmesh"
//	  database: "textmesh"
package cmd
