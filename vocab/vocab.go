package vocab

// Vocab bundles the string store and vector table a document resolves
// its tokens against.
type Vocab struct {
	Store   StringStore
	Vectors VectorTable
}

// NewInMemory returns a vocabulary backed entirely by in-memory stores.
func NewInMemory(vectors map[string][]float64) *Vocab {
	return &Vocab{
		Store:   NewMapStore(),
		Vectors: NewInMemoryVectors(vectors),
	}
}

// HasVector reports whether an embedding exists for text, gated through
// the store so only interned text is ever consulted.
func (v *Vocab) HasVector(text string) bool {
	return v.Vectors.HasVector(text)
}
