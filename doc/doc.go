// Package doc implements the linguistic-document object model: documents
// owning ordered sequences of tokens, and the per-token records carrying
// span bookkeeping, whitespace flags, custom attributes, and embedding
// access.
//
// Tokenization happens upstream; this package consumes finished TokenMeta
// spans. A Document owns its tokens, each Token borrows a reference back
// to its document for vocabulary lookups, so there is never an ownership
// cycle.
package doc
