package doc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/textmesh/textmesh/vocab"
	"github.com/textmesh/textmesh/worker"
)

// Document is the container owning an ordered sequence of tokens. It
// carries the raw text buffer spans index into and the vocabulary tokens
// resolve their text and vectors against.
type Document struct {
	ID    string
	Owner worker.ID
	Vocab *vocab.Vocab
	Text  string

	mu     sync.RWMutex
	tokens []*Token
}

// NewDocument creates an empty document owned by the given worker.
func NewDocument(owner worker.ID, v *vocab.Vocab, text string) *Document {
	return &Document{
		ID:    uuid.NewString(),
		Owner: owner,
		Vocab: v,
		Text:  text,
	}
}

// AddToken appends a token built from upstream segmentation metadata.
// The metadata's text key must already exist in the document's string
// store; a token referencing an unknown key is invalid.
func (d *Document) AddToken(meta TokenMeta) (*Token, error) {
	if _, err := d.Vocab.Store.Resolve(meta.Orth); err != nil {
		return nil, fmt.Errorf("token meta references unknown text key %d: %w", meta.Orth, err)
	}
	if meta.HasEnd && meta.EndPos+1 < meta.StartPos {
		return nil, fmt.Errorf("token span inverted: start %d, end %d", meta.StartPos, meta.EndPos)
	}

	tok := newToken(d, meta, uuid.NewString(), d.Owner)

	d.mu.Lock()
	d.tokens = append(d.tokens, tok)
	d.mu.Unlock()

	return tok, nil
}

// Tokens returns the document's tokens in order.
func (d *Document) Tokens() []*Token {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*Token(nil), d.tokens...)
}

// TokenAt returns the i-th token.
func (d *Document) TokenAt(i int) (*Token, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.tokens) {
		return nil, fmt.Errorf("token index %d out of range [0, %d)", i, len(d.tokens))
	}
	return d.tokens[i], nil
}

// Len returns the number of tokens.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.tokens)
}

// String reassembles the document text from its tokens' trailing
// whitespace forms.
func (d *Document) String() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var b strings.Builder
	for _, tok := range d.tokens {
		b.WriteString(tok.TextWithWS())
	}
	return b.String()
}
