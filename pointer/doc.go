// Package pointer implements capability-bearing remote object pointers.
//
// A Pointer references a token that lives on a possibly-different
// worker. It never holds the referenced data: dereferencing a pointer
// whose target is the local worker resolves through the local object
// registry with no network traffic; dereferencing a remote one costs a
// resolve round trip through a Transport and yields a detached proxy
// token. On the wire a pointer is always {worker_id, object_id}, never
// the object itself.
//
// Many pointers, on many workers, may reference the same remote object.
// The target worker's registry tracks the reference count; a pointer
// only carries its own garbage-collection policy.
package pointer
