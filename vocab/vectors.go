package vocab

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// VectorTable maps a token's text to a pretrained embedding vector and
// reports whether a vector exists for a given text. Implementations must
// be safe for concurrent use.
type VectorTable interface {
	// Vector returns the embedding for text, or false if none exists.
	Vector(text string) ([]float64, bool)

	// HasVector reports whether an embedding exists for text.
	HasVector(text string) bool
}

// InMemoryVectors is a VectorTable backed by a map.
type InMemoryVectors struct {
	mu      sync.RWMutex
	vectors map[string][]float64
}

// NewInMemoryVectors creates a vector table from the given embeddings.
// The map is used directly; callers must not mutate it afterwards.
func NewInMemoryVectors(vectors map[string][]float64) *InMemoryVectors {
	if vectors == nil {
		vectors = make(map[string][]float64)
	}
	return &InMemoryVectors{vectors: vectors}
}

// Vector returns the embedding for text, or false if none exists.
func (t *InMemoryVectors) Vector(text string) ([]float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	vec, ok := t.vectors[text]
	return vec, ok
}

// HasVector reports whether an embedding exists for text.
func (t *InMemoryVectors) HasVector(text string) bool {
	_, ok := t.Vector(text)
	return ok
}

// Set stores or replaces the embedding for text.
func (t *InMemoryVectors) Set(text string, vec []float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.vectors[text] = vec
}

// ReadVectors parses the common word-embedding text format: one entry
// per line, token first, followed by whitespace-separated components.
func ReadVectors(r io.Reader) (*InMemoryVectors, error) {
	vectors := make(map[string][]float64)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		vec := make([]float64, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad component %q: %w", line, f, err)
			}
			vec[i] = v
		}
		vectors[fields[0]] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return NewInMemoryVectors(vectors), nil
}
