package smpc

import (
	"context"
	"log/slog"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/textmesh/textmesh/crypto"
	"github.com/textmesh/textmesh/worker"
)

// SharePackage is one participant's slice of a session, as handed to the
// transport for delivery.
type SharePackage struct {
	SessionID          string
	ParticipantIndex   int
	Shares             []*big.Int
	FracBits           uint
	RingOrder          *big.Int
	GradientCompatible bool
}

// ShareSender delivers share packages to participants. Implementations
// must honor context cancellation; a cancelled delivery is reported as a
// failure and triggers retraction of the whole session.
type ShareSender interface {
	// SendShares delivers a participant's share package.
	SendShares(ctx context.Context, participant worker.ID, pkg *SharePackage) error

	// RetractShares asks a participant to discard everything it holds
	// for a session.
	RetractShares(ctx context.Context, participant worker.ID, sessionID string) error
}

// Aggregator runs secure vector aggregation sessions.
//
// With a nil Sender the aggregator operates locally: shares are computed
// but not distributed, which is what library callers reconstructing in
// process want. With a Sender every participant receives its share
// package before the session reaches StateShared.
type Aggregator struct {
	// Codec encodes plaintext components into the ring. Defaults to
	// crypto.NewFixedPointCodec when nil.
	Codec *crypto.FixedPointCodec

	// Sender distributes shares to participants. Optional.
	Sender ShareSender

	// Log receives session lifecycle events. Defaults to slog.Default.
	Log *slog.Logger

	mu        sync.Mutex
	lastState State
}

// LastState returns the terminal state of the most recent session. It
// exists for observability; concurrent sessions each run independently.
func (a *Aggregator) LastState() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastState
}

func (a *Aggregator) setState(s State) {
	a.mu.Lock()
	a.lastState = s
	a.mu.Unlock()
}

func (a *Aggregator) codec() *crypto.FixedPointCodec {
	if a.Codec != nil {
		return a.Codec
	}
	return crypto.NewFixedPointCodec()
}

func (a *Aggregator) log() *slog.Logger {
	if a.Log != nil {
		return a.Log
	}
	return slog.Default()
}

// Encrypt runs one full session over the plaintext vector: participant
// validation, fixed-precision encoding, additive sharing, and (when a
// Sender is configured) all-or-nothing distribution.
func (a *Aggregator) Encrypt(ctx context.Context, vec []float64, participants []worker.ID, opts EncryptOptions) (*SharedVector, error) {
	a.setState(StateCollectingParticipants)
	if err := validateParticipants(participants); err != nil {
		a.setState(StateFailed)
		return nil, err
	}

	sessionID := uuid.NewString()
	log := a.log().With("session", sessionID, "participants", len(participants))

	a.setState(StateEncoding)
	codec := a.codec()
	els, err := codec.EncodeVector(vec)
	if err != nil {
		a.setState(StateFailed)
		return nil, err
	}

	a.setState(StateSharing)
	holders, err := crypto.SplitAdditiveVector(els, len(participants), codec.RingOrder)
	if err != nil {
		a.setState(StateFailed)
		return nil, err
	}

	sv := &SharedVector{
		SessionID:          sessionID,
		Participants:       append([]worker.ID(nil), participants...),
		Coordinator:        opts.Coordinator,
		FracBits:           codec.FracBits,
		RingOrder:          codec.RingOrder,
		Shares:             make(map[worker.ID][]*big.Int, len(participants)),
		GradientCompatible: opts.GradientCompatible,
	}
	for i, p := range participants {
		sv.Shares[p] = holders[i]
	}

	if opts.Coordinator != "" {
		aux, err := crypto.DeriveAuxShares(sessionID, els, len(els), codec.RingOrder)
		if err != nil {
			a.setState(StateFailed)
			return nil, err
		}
		sv.AuxShares = aux
	}

	if a.Sender != nil {
		if err := a.distribute(ctx, sv); err != nil {
			a.setState(StateFailed)
			return nil, err
		}
	}

	a.setState(StateShared)
	log.Debug("vector shared", "dim", len(vec), "coordinator", opts.Coordinator != "")
	return sv, nil
}

// distribute delivers every participant's package, retracting all
// deliveries if any one fails so that no partial distribution stays live.
func (a *Aggregator) distribute(ctx context.Context, sv *SharedVector) error {
	var (
		mu        sync.Mutex
		delivered []worker.ID
		failed    worker.ID
		failedErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range sv.Participants {
		i, p := i, p
		g.Go(func() error {
			pkg := &SharePackage{
				SessionID:          sv.SessionID,
				ParticipantIndex:   i,
				Shares:             sv.Shares[p],
				FracBits:           sv.FracBits,
				RingOrder:          sv.RingOrder,
				GradientCompatible: sv.GradientCompatible,
			}
			if err := a.Sender.SendShares(gctx, p, pkg); err != nil {
				mu.Lock()
				if failedErr == nil {
					failed, failedErr = p, err
				}
				mu.Unlock()
				return err
			}
			mu.Lock()
			delivered = append(delivered, p)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Best-effort retraction with a fresh context: the group context
		// is already cancelled.
		for _, p := range delivered {
			if rerr := a.Sender.RetractShares(context.WithoutCancel(ctx), p, sv.SessionID); rerr != nil {
				a.log().Warn("share retraction failed", "session", sv.SessionID, "participant", p, "err", rerr)
			}
		}
		if failedErr == nil {
			failed, failedErr = "", err
		}
		return &ShareDistributionError{Participant: failed, cause: failedErr}
	}

	return nil
}
