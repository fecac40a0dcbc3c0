// Package services implements the HTTP layer of the distributed object
// model: the per-worker service exposing the object registry and share
// inbox, the HTTP transport remote pointers and aggregation sessions go
// through, and the central directory workers discover each other in.
//
// Every cross-worker operation is a point-to-point request/response
// exchange. Handlers never block past their request context; clients
// honor cancellation on every round trip so a caller-level timeout can
// abort a stalled dereference or share distribution.
package services
