package protocol

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/textmesh/textmesh/doc"
	"github.com/textmesh/textmesh/smpc"
	"github.com/textmesh/textmesh/worker"
)

// SerializeMessage encodes a message as JSON.
func SerializeMessage[T any](obj *T) ([]byte, error) {
	return json.Marshal(obj)
}

// DecodeMessage decodes a JSON message from a reader.
func DecodeMessage[T any](r io.Reader) (*T, error) {
	var obj T
	if err := json.NewDecoder(r).Decode(&obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

// ResolveRequest asks a worker's registry for the object under ObjectID.
type ResolveRequest struct {
	ObjectID string `json:"object_id"`
}

// ResolveResponse carries the serialized object, or reports it unknown.
type ResolveResponse struct {
	Found  bool          `json:"found"`
	Object *TokenPayload `json:"object,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// ReleaseRequest asks a worker's registry to release one reference.
type ReleaseRequest struct {
	ObjectID string `json:"object_id"`
}

// ReleaseResponse acknowledges a release.
type ReleaseResponse struct {
	Ack bool `json:"ack"`
}

// ShareRequest delivers one participant's share vector of an aggregation
// session. Shares are decimal strings in the session's ring.
type ShareRequest struct {
	SessionID          string   `json:"session_id"`
	ParticipantIndex   int      `json:"participant_index"`
	Shares             []string `json:"encoded_shares"`
	FracBits           uint     `json:"precision"`
	RingOrder          string   `json:"ring_size"`
	GradientCompatible bool     `json:"gradient_compatible,omitempty"`
}

// ShareResponse acknowledges a share delivery.
type ShareResponse struct {
	Ack   bool   `json:"ack"`
	Error string `json:"error,omitempty"`
}

// RetractRequest asks a participant to discard everything it holds for
// an aborted session.
type RetractRequest struct {
	SessionID string `json:"session_id"`
}

// WorkerRegistration is the signed body a worker registers with the
// directory.
type WorkerRegistration struct {
	WorkerID     worker.ID `json:"worker_id"`
	HTTPEndpoint string    `json:"http_endpoint"`
	PublicKey    string    `json:"public_key"`
}

// RegistrationResponse confirms a directory registration.
type RegistrationResponse struct {
	Success  bool      `json:"success"`
	WorkerID worker.ID `json:"worker_id"`
}

// WorkerListResponse lists the directory's known workers.
type WorkerListResponse struct {
	Workers []*worker.Info `json:"workers"`
}

// ShareRequestFromPackage converts an smpc share package to its wire form.
func ShareRequestFromPackage(pkg *smpc.SharePackage) *ShareRequest {
	shares := make([]string, len(pkg.Shares))
	for i, s := range pkg.Shares {
		shares[i] = s.String()
	}
	return &ShareRequest{
		SessionID:          pkg.SessionID,
		ParticipantIndex:   pkg.ParticipantIndex,
		Shares:             shares,
		FracBits:           pkg.FracBits,
		RingOrder:          pkg.RingOrder.String(),
		GradientCompatible: pkg.GradientCompatible,
	}
}

// PackageFromShareRequest converts a wire share request back to a package.
func PackageFromShareRequest(req *ShareRequest) (*smpc.SharePackage, error) {
	ring, ok := new(big.Int).SetString(req.RingOrder, 10)
	if !ok {
		return nil, fmt.Errorf("bad ring order %q", req.RingOrder)
	}
	shares := make([]*big.Int, len(req.Shares))
	for i, s := range req.Shares {
		el, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("bad share element %q at index %d", s, i)
		}
		shares[i] = el
	}
	return &smpc.SharePackage{
		SessionID:          req.SessionID,
		ParticipantIndex:   req.ParticipantIndex,
		Shares:             shares,
		FracBits:           req.FracBits,
		RingOrder:          ring,
		GradientCompatible: req.GradientCompatible,
	}, nil
}

// TokenPayload is the serialized form of a token crossing the network
// boundary: text already resolved, span and flags inline, attributes as
// the tagged union, and the embedding when one exists. A payload never
// carries registry or document internals.
type TokenPayload struct {
	ID         string                   `json:"id"`
	Owner      worker.ID                `json:"owner"`
	Text       string                   `json:"text"`
	StartPos   int                      `json:"start_pos"`
	StopPos    int                      `json:"stop_pos,omitempty"`
	HasStop    bool                     `json:"has_stop"`
	IsSpace    bool                     `json:"is_space"`
	SpaceAfter bool                     `json:"space_after"`
	HasVector  bool                     `json:"has_vector"`
	Vector     []float64                `json:"vector,omitempty"`
	Attrs      map[string]doc.AttrValue `json:"attrs,omitempty"`
}

// PayloadFromToken serializes a token for the wire.
func PayloadFromToken(tok *doc.Token) *TokenPayload {
	p := &TokenPayload{
		ID:         tok.ID,
		Owner:      tok.Owner,
		Text:       tok.Text(),
		StartPos:   tok.StartPos,
		StopPos:    tok.StopPos,
		HasStop:    tok.HasStop,
		IsSpace:    tok.IsSpace,
		SpaceAfter: tok.SpaceAfter,
		HasVector:  tok.HasVector,
		Attrs:      tok.Attrs(),
	}
	if tok.HasVector {
		if vec, err := tok.Vector(); err == nil {
			p.Vector = vec
		}
	}
	return p
}

// TokenFromPayload deserializes a payload into a detached proxy token.
func TokenFromPayload(p *TokenPayload) *doc.Token {
	meta := doc.TokenMeta{
		StartPos:   p.StartPos,
		IsSpace:    p.IsSpace,
		SpaceAfter: p.SpaceAfter,
		Attrs:      p.Attrs,
	}
	if p.HasStop {
		meta.EndPos = p.StopPos - 1
		meta.HasEnd = true
	}
	return doc.NewDetached(p.ID, p.Owner, p.Text, p.Vector, meta)
}
