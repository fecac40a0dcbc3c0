package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/textmesh/textmesh/doc"
	"github.com/textmesh/textmesh/pointer"
	"github.com/textmesh/textmesh/protocol"
	"github.com/textmesh/textmesh/registry"
	"github.com/textmesh/textmesh/smpc"
	"github.com/textmesh/textmesh/worker"
)

// HTTPTransport is the client side of the worker protocol. It implements
// pointer.Transport and smpc.ShareSender over plain HTTP.
type HTTPTransport struct {
	client  *http.Client
	limiter *rate.Limiter

	mu        sync.RWMutex
	endpoints map[worker.ID]string
}

// TransportOption customizes an HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *HTTPTransport) { t.client = c }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) TransportOption {
	return func(t *HTTPTransport) { t.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewHTTPTransport creates a transport with a static worker endpoint map.
func NewHTTPTransport(endpoints map[worker.ID]string, opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		client:    &http.Client{Timeout: 10 * time.Second},
		endpoints: make(map[worker.ID]string, len(endpoints)),
	}
	for id, ep := range endpoints {
		t.endpoints[id] = ep
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetEndpoint adds or updates a worker's endpoint, as learned from the
// directory.
func (t *HTTPTransport) SetEndpoint(id worker.ID, endpoint string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endpoints[id] = endpoint
}

func (t *HTTPTransport) endpoint(id worker.ID) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ep, ok := t.endpoints[id]
	if !ok {
		return "", fmt.Errorf("%w: no endpoint known for %s", pointer.ErrRemoteUnavailable, id)
	}
	return ep, nil
}

// post issues one JSON round trip, honoring context cancellation and the
// configured rate limit. Transport-level failures map to
// pointer.ErrRemoteUnavailable.
func (t *HTTPTransport) post(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pointer.ErrRemoteUnavailable, err)
	}
	return resp, nil
}

// ResolveToken fetches a token from a remote worker's registry and
// deserializes it into a detached proxy.
func (t *HTTPTransport) ResolveToken(ctx context.Context, location worker.ID, objectID string) (*doc.Token, error) {
	ep, err := t.endpoint(location)
	if err != nil {
		return nil, err
	}

	body, err := protocol.SerializeMessage(&protocol.ResolveRequest{ObjectID: objectID})
	if err != nil {
		return nil, err
	}

	resp, err := t.post(ctx, http.MethodPost, ep+"/objects/resolve", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNotFound:
	default:
		return nil, fmt.Errorf("%w: %s returned status %d", pointer.ErrRemoteUnavailable, location, resp.StatusCode)
	}

	decoded, err := protocol.DecodeMessage[protocol.ResolveResponse](resp.Body)
	if err != nil {
		return nil, err
	}
	if !decoded.Found {
		return nil, fmt.Errorf("%w: %s at %s", registry.ErrNotFound, objectID, location)
	}
	return protocol.TokenFromPayload(decoded.Object), nil
}

// ReleaseObject asks a remote worker's registry to release one reference.
func (t *HTTPTransport) ReleaseObject(ctx context.Context, location worker.ID, objectID string) error {
	ep, err := t.endpoint(location)
	if err != nil {
		return err
	}

	body, err := protocol.SerializeMessage(&protocol.ReleaseRequest{ObjectID: objectID})
	if err != nil {
		return err
	}

	resp, err := t.post(ctx, http.MethodPost, ep+"/objects/release", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s at %s", registry.ErrNotFound, objectID, location)
	default:
		return fmt.Errorf("%w: %s returned status %d", pointer.ErrRemoteUnavailable, location, resp.StatusCode)
	}
}

// SendShares delivers one participant's share package.
func (t *HTTPTransport) SendShares(ctx context.Context, participant worker.ID, pkg *smpc.SharePackage) error {
	ep, err := t.endpoint(participant)
	if err != nil {
		return err
	}

	body, err := protocol.SerializeMessage(protocol.ShareRequestFromPackage(pkg))
	if err != nil {
		return err
	}

	resp, err := t.post(ctx, http.MethodPost, ep+"/sessions/shares", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		decoded, derr := protocol.DecodeMessage[protocol.ShareResponse](resp.Body)
		if derr == nil && decoded.Error != "" {
			return fmt.Errorf("participant %s rejected shares: %s", participant, decoded.Error)
		}
		return fmt.Errorf("participant %s returned status %d", participant, resp.StatusCode)
	}
	return nil
}

// RetractShares asks a participant to discard a session's shares.
func (t *HTTPTransport) RetractShares(ctx context.Context, participant worker.ID, sessionID string) error {
	ep, err := t.endpoint(participant)
	if err != nil {
		return err
	}

	resp, err := t.post(ctx, http.MethodDelete, ep+"/sessions/"+sessionID+"/shares", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("participant %s returned status %d", participant, resp.StatusCode)
	}
	return nil
}
