// Package crypto provides the cryptographic primitives for secure
// multi-party vector aggregation.
//
// This package implements the low-level operations the aggregation
// protocol is built on:
//
//   - Field arithmetic over a prime ring (share addition and subtraction)
//   - Fixed-precision encoding of real-valued vectors into ring elements
//   - Additive n-of-n secret sharing and reconstruction
//   - Digital signatures (Ed25519) for worker authentication
//   - HKDF-derived auxiliary shares for a crypto-coordination party
//
// Note: field arithmetic over math/big is not constant-time. The secrecy
// of a shared vector rests on the uniformity of the random shares, not on
// timing behavior.
//
// # Ring agreement
//
// All participants of an aggregation session must agree on the ring order
// and encoding precision out of band; nothing here negotiates them at
// call time. DefaultRingOrder and DefaultFracBits are the values the rest
// of the repository uses unless configured otherwise.
package crypto
