package doc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/textmesh/textmesh/smpc"
	"github.com/textmesh/textmesh/vocab"
	"github.com/textmesh/textmesh/worker"
)

// ErrVectorNotFound is returned when a token's text has no embedding in
// the vector table. Callers gate on HasVector to avoid it; no silent
// zero-vector substitution happens.
var ErrVectorNotFound = errors.New("no vector for token text")

// TokenMeta is the finished segmentation output a token is built from.
// EndPos is the inclusive end position; it is undefined when HasEnd is
// false (end-of-text sentinels).
type TokenMeta struct {
	Orth       vocab.Key
	StartPos   int
	EndPos     int
	HasEnd     bool
	IsSpace    bool
	SpaceAfter bool

	// Attrs are custom attributes already set by upstream stages.
	Attrs map[string]AttrValue
}

// Token is the per-token record: a lightweight value borrowing its
// owning document, carrying the interned text key, its character span,
// whitespace flags, and an open-ended custom attribute bag.
//
// StopPos is one past the metadata end position, so [StartPos, StopPos)
// is the half-open span into the document text. HasStop is false when
// the token has no determinate end.
type Token struct {
	ID    string
	Owner worker.ID

	doc *Document

	Orth       vocab.Key
	StartPos   int
	StopPos    int
	HasStop    bool
	IsSpace    bool
	SpaceAfter bool

	// HasVector is derived from the vector table once at construction
	// and cached.
	HasVector bool

	attrMu sync.RWMutex
	attrs  map[string]AttrValue
}

func newToken(d *Document, meta TokenMeta, id string, owner worker.ID) *Token {
	tok := &Token{
		ID:         id,
		Owner:      owner,
		doc:        d,
		Orth:       meta.Orth,
		StartPos:   meta.StartPos,
		IsSpace:    meta.IsSpace,
		SpaceAfter: meta.SpaceAfter,
		attrs:      make(map[string]AttrValue, len(meta.Attrs)),
	}
	if meta.HasEnd {
		tok.StopPos = meta.EndPos + 1
		tok.HasStop = true
	}
	for name, v := range meta.Attrs {
		tok.attrs[name] = v
	}
	tok.HasVector = d.Vocab.HasVector(tok.Text())
	return tok
}

// NewDetached builds a token not bound to a caller-visible document, as
// produced when a remote token is deserialized into a local proxy. The
// token gets a private single-entry document so text and vector lookups
// behave like any other token's.
func NewDetached(id string, owner worker.ID, text string, vec []float64, meta TokenMeta) *Token {
	vectors := map[string][]float64{}
	if vec != nil {
		vectors[text] = vec
	}
	v := vocab.NewInMemory(vectors)
	d := NewDocument(owner, v, text)
	meta.Orth = v.Store.Intern(text)

	tok := newToken(d, meta, id, owner)
	d.mu.Lock()
	d.tokens = append(d.tokens, tok)
	d.mu.Unlock()
	return tok
}

// Doc returns the owning document.
func (t *Token) Doc() *Document { return t.doc }

// Text resolves the token's interned key through the document's string
// store. Construction guarantees the key resolves, so the lookup cannot
// fail for a valid token.
func (t *Token) Text() string {
	text, _ := t.doc.Vocab.Store.Resolve(t.Orth)
	return text
}

// TextWithWS returns the text plus one trailing space iff a single
// whitespace character followed the token in the original text.
func (t *Token) TextWithWS() string {
	if t.SpaceAfter {
		return t.Text() + " "
	}
	return t.Text()
}

// Len returns the character count of the token's text.
func (t *Token) Len() int {
	return utf8.RuneCountInString(t.Text())
}

// String implements fmt.Stringer.
func (t *Token) String() string {
	return t.Text()
}

// SetAttr inserts or overwrites a custom attribute. Last write wins.
func (t *Token) SetAttr(name string, value AttrValue) {
	t.attrMu.Lock()
	defer t.attrMu.Unlock()
	t.attrs[name] = value
}

// Attr returns a custom attribute by name.
func (t *Token) Attr(name string) (AttrValue, bool) {
	t.attrMu.RLock()
	defer t.attrMu.RUnlock()
	v, ok := t.attrs[name]
	return v, ok
}

// Attrs returns a copy of the attribute bag.
func (t *Token) Attrs() map[string]AttrValue {
	t.attrMu.RLock()
	defer t.attrMu.RUnlock()
	out := make(map[string]AttrValue, len(t.attrs))
	for name, v := range t.attrs {
		out[name] = v
	}
	return out
}

// Vector returns the token's embedding from the vector table. It fails
// with ErrVectorNotFound when HasVector is false; check HasVector first
// to avoid triggering it.
func (t *Token) Vector() ([]float64, error) {
	vec, ok := t.doc.Vocab.Vectors.Vector(t.Text())
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrVectorNotFound, t.Text())
	}
	return vec, nil
}

// EncryptedVector secret-shares the token's embedding across the given
// participant workers using the aggregator. The returned SharedVector is
// reconstructible only by combining the shares of all participants.
func (t *Token) EncryptedVector(ctx context.Context, agg *smpc.Aggregator, participants []worker.ID, opts smpc.EncryptOptions) (*smpc.SharedVector, error) {
	vec, err := t.Vector()
	if err != nil {
		return nil, err
	}
	return agg.Encrypt(ctx, vec, participants, opts)
}
