// Package smpc implements secure multi-party aggregation of per-token
// embedding vectors.
//
// An aggregation session takes a plaintext vector and an ordered set of
// at least two participant workers, encodes the vector into a prime ring
// at fixed precision, splits every component into additive shares (one
// per participant), and optionally distributes the shares over the
// network. The result is a SharedVector: an opaque value reconstructible
// only by combining the shares of all participants.
//
// A designated crypto-coordination party may be named on a session. The
// coordinator receives auxiliary correctness-check elements but never a
// reconstructing set of shares.
//
// Share distribution is all-or-nothing: a delivery failure to any
// participant aborts the session, already-delivered shares are retracted,
// and the error names the unreachable participant. Sessions are not
// resumable; callers retry by starting a new session.
package smpc
