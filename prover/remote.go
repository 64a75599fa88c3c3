package prover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/util/circomgnark"
)

// DefaultRemoteTimeout bounds a request to the remote prover.
const DefaultRemoteTimeout = 2 * time.Minute

// RemoteRequest is the body posted to the prover service.
type RemoteRequest struct {
	Identifier    string `json:"identifier"`
	CircuitInputs Inputs `json:"circuitInputs"`
}

// RemoteResponse is the body returned by the prover service.
type RemoteResponse struct {
	Proof         *circomgnark.CircomProof `json:"proof"`
	PublicSignals []string                 `json:"publicSignals"`
}

// RemoteProver delegates proving to an external service over HTTP.
type RemoteProver struct {
	url    string
	client *http.Client
}

// NewRemoteProver returns a prover posting to url. A zero timeout uses
// DefaultRemoteTimeout.
func NewRemoteProver(url string, timeout time.Duration) (*RemoteProver, error) {
	if url == "" {
		return nil, fmt.Errorf("remote prover requires an URL")
	}
	if timeout == 0 {
		timeout = DefaultRemoteTimeout
	}
	return &RemoteProver{url: url, client: &http.Client{Timeout: timeout}}, nil
}

// Prove implements Prover.
func (r *RemoteProver) Prove(ctx context.Context, identifier string, inputs Inputs) (*circomgnark.CircomProof, []string, error) {
	body, err := json.Marshal(&RemoteRequest{Identifier: identifier, CircuitInputs: inputs})
	if err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reach prover: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, nil, fmt.Errorf("prover status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	out := &RemoteResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, nil, fmt.Errorf("failed to decode prover response: %w", err)
	}
	if out.Proof == nil {
		return nil, nil, fmt.Errorf("prover response without proof")
	}
	log.Debugw("voter proof generated", "backend", "remote", "url", r.url)
	return out.Proof, out.PublicSignals, nil
}
