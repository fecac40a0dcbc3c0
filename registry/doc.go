// Package registry implements the per-worker object registry remote
// pointers resolve against.
//
// Each worker process holds exactly one registry mapping object
// identifiers to live object instances with per-entry reference counts.
// An object becomes eligible for removal when its count reaches zero.
// Locking is scoped to the table; counts are per-entry and atomic, so
// concurrent releases of the same identifier never under- or
// over-decrement.
package registry
