package smpc

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/textmesh/textmesh/crypto"
	"github.com/textmesh/textmesh/worker"
)

// State identifies a phase of an aggregation session.
type State int

const (
	// StateCollectingParticipants validates the participant set.
	StateCollectingParticipants State = iota

	// StateEncoding converts the plaintext vector to ring elements.
	StateEncoding

	// StateSharing splits and distributes the shares.
	StateSharing

	// StateShared is the terminal success state.
	StateShared

	// StateFailed is the terminal failure state, reachable from any
	// other state.
	StateFailed
)

// String returns the state name for logs and tests.
func (s State) String() string {
	switch s {
	case StateCollectingParticipants:
		return "collecting_participants"
	case StateEncoding:
		return "encoding"
	case StateSharing:
		return "sharing"
	case StateShared:
		return "shared"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrInsufficientParties is returned when a session is started with
// fewer than two participants.
var ErrInsufficientParties = errors.New("need at least two participants for secret sharing")

// ErrDuplicateParticipant is returned when the participant set names the
// same worker twice.
var ErrDuplicateParticipant = errors.New("duplicate participant")

// ShareDistributionError reports a failed share delivery. The session it
// came from left no committed shares on any participant.
type ShareDistributionError struct {
	Participant worker.ID
	cause       error
}

func (e *ShareDistributionError) Error() string {
	return fmt.Sprintf("share distribution to %s failed: %v", e.Participant, e.cause)
}

func (e *ShareDistributionError) Unwrap() error { return e.cause }

// EncryptOptions configures an aggregation session.
type EncryptOptions struct {
	// Coordinator is the optional crypto-coordination party. It receives
	// auxiliary correctness elements, never a reconstructing share set.
	Coordinator worker.ID

	// GradientCompatible marks the resulting shares as usable for
	// further secure arithmetic.
	GradientCompatible bool
}

// SharedVector is the opaque output of a completed session: one share
// vector per participant plus the metadata needed to later request
// reconstruction or further secret arithmetic.
type SharedVector struct {
	SessionID          string
	Participants       []worker.ID
	Coordinator        worker.ID
	FracBits           uint
	RingOrder          *big.Int
	Shares             map[worker.ID][]*big.Int
	AuxShares          []*big.Int
	GradientCompatible bool
}

// Dim returns the dimensionality of the shared vector.
func (sv *SharedVector) Dim() int {
	for _, shares := range sv.Shares {
		return len(shares)
	}
	return 0
}

// Reconstruct combines the shares of all participants and decodes the
// result back to floats. Coordinator auxiliary elements are ignored,
// they exist for correctness checks, not reconstruction.
func (sv *SharedVector) Reconstruct() ([]float64, error) {
	holders := make([][]*big.Int, 0, len(sv.Participants))
	for _, p := range sv.Participants {
		shares, ok := sv.Shares[p]
		if !ok {
			return nil, fmt.Errorf("missing shares for participant %s", p)
		}
		holders = append(holders, shares)
	}

	els, err := crypto.CombineAdditive(holders, sv.RingOrder)
	if err != nil {
		return nil, err
	}

	codec := &crypto.FixedPointCodec{FracBits: sv.FracBits, RingOrder: sv.RingOrder}
	return codec.DecodeVector(els), nil
}

func validateParticipants(participants []worker.ID) error {
	if len(participants) < 2 {
		return ErrInsufficientParties
	}
	seen := make(map[worker.ID]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateParticipant, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}
