package worker

import (
	"fmt"

	"github.com/textmesh/textmesh/crypto"
)

// ID uniquely identifies a worker across the mesh. IDs are opaque strings
// chosen at deployment time (hostnames, UUIDs, and hex-encoded public keys
// all work); the only requirement is mesh-wide uniqueness.
type ID string

// String returns the raw worker identifier.
func (id ID) String() string { return string(id) }

// Info describes a worker as published to the directory: its identity,
// the HTTP endpoint its registry is reachable at, and the signing key
// other workers verify its messages against.
type Info struct {
	ID           ID               `json:"id"`
	HTTPEndpoint string           `json:"http_endpoint"`
	PublicKey    crypto.PublicKey `json:"public_key"`
}

// Validate checks that the info names a worker and an endpoint.
func (i *Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("worker info: empty id")
	}
	if i.HTTPEndpoint == "" {
		return fmt.Errorf("worker info: empty endpoint for %s", i.ID)
	}
	return nil
}
