// Package protocol defines the wire messages exchanged between workers:
// remote object resolution and release, share distribution and
// retraction, and directory registration. Messages are JSON-encoded;
// ring elements travel as decimal strings so arbitrary-precision values
// survive the trip.
//
// Signed wraps any message with an Ed25519 signature for operations that
// cross the trust boundary between workers.
package protocol
