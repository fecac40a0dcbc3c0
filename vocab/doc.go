// Package vocab defines the vocabulary collaborators the document model
// consumes: a string store interning token text to stable numeric keys,
// and a vector table mapping token text to pretrained embedding vectors.
//
// The interfaces are the contract; the in-memory implementations exist so
// workers and tests have something to run against without an external
// vocabulary service.
package vocab
