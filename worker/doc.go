// Package worker defines the identity types shared by every component of
// the textmesh distributed object model.
//
// A worker is an independent process holding documents and tokens in its
// local object registry. Workers identify each other by a stable ID and
// authenticate with Ed25519 signing keys. The types here are deliberately
// minimal so that every other package can depend on them without cycles.
package worker
