// Package client is an HTTP client of the node API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/vocdoni/zkvote-node/api"
	"github.com/vocdoni/zkvote-node/auth"
	"github.com/vocdoni/zkvote-node/crypto/signatures/ethereum"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/prover"
	"github.com/vocdoni/zkvote-node/types"
)

const (
	// HTTPGET is the method string used for calling Request()
	HTTPGET = http.MethodGet
	// HTTPPOST is the method string used for calling Request()
	HTTPPOST = http.MethodPost

	errCodeNot200 = "API error"

	// DefaultRetries this enables Request() to handle the situation where the server connection fails
	DefaultRetries = 3
	// DefaultTimeout is the default timeout for the HTTP client
	DefaultTimeout = 10 * time.Second
)

// HTTPclient is the node API HTTP client.
type HTTPclient struct {
	c       *http.Client
	host    *url.URL
	retries int
	admin   *ethereum.Signer
}

// New connects to the API host and returns the handle
func New(host string) (*HTTPclient, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	c := &HTTPclient{
		c:       &http.Client{Timeout: DefaultTimeout},
		host:    hostURL,
		retries: DefaultRetries,
	}
	log.Debugw("http client created", "host", hostURL.String())
	data, status, err := c.Request(HTTPGET, nil, nil, api.PingEndpoint)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
	}
	return c, nil
}

// SetRetries configures the number of retries for the HTTP client.
func (c *HTTPclient) SetRetries(n int) {
	c.retries = n
}

// SetTimeout configures the timeout for the HTTP client.
func (c *HTTPclient) SetTimeout(d time.Duration) {
	c.c.Timeout = d
}

// SetAdminSigner sets the key used to sign a fresh admin token for every
// request.
func (c *HTTPclient) SetAdminSigner(signer *ethereum.Signer) {
	c.admin = signer
}

// Request performs a `method` type raw request to the endpoint specified in urlPath parameter.
// Method is either GET or POST. If POST, a JSON struct should be attached.  Returns the response,
// the status code and an error.
//
// Supports query parameters via `params` slice. If the slice is not empty, it should contain pairs of strings;
// the first element of each pair is the key, and the second element is the value.
func (c *HTTPclient) Request(method string, jsonBody any, params []string, urlPath ...string) ([]byte, int, error) {
	var body []byte
	if jsonBody != nil {
		var err error
		if body, err = json.Marshal(jsonBody); err != nil {
			return nil, 0, fmt.Errorf("failed to marshal JSON: %w", err)
		}
	}

	u := *c.host
	u.Path = path.Join(u.Path, path.Join(urlPath...))
	if len(params) > 0 {
		values := url.Values{}
		for i := 0; i < len(params)-1; i += 2 {
			values.Set(params[i], params[i+1])
		}
		u.RawQuery = values.Encode()
	}

	headers := http.Header{}
	if jsonBody != nil {
		headers.Set("Content-Type", "application/json")
		headers.Set("Accept", "application/json")
	}
	if c.admin != nil {
		token, err := auth.NewAdminToken(c.admin, time.Now())
		if err != nil {
			return nil, 0, fmt.Errorf("failed to sign admin token: %w", err)
		}
		headers.Set("Authorization", "Bearer "+token.String())
	}

	log.Debugw("http client request", "type", method, "url", u.String())

	var (
		resp *http.Response
		err  error
	)
	for i := 1; i <= c.retries; i++ {
		// Create a fresh request each attempt
		var reqBody io.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		}
		req, reqErr := http.NewRequest(method, u.String(), reqBody)
		if reqErr != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header = headers

		resp, err = c.c.Do(req)
		if err == nil {
			break
		}
		log.Warnw("http request failed", "error", err.Error(), "attempt", i, "retries", c.retries)
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("http request ultimately failed after retries: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnw("failed to close response body", "error", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, resp.StatusCode, nil
}

// call performs a request and decodes the response into out. Non 200
// responses are returned as *api.Error.
func (c *HTTPclient) call(method string, jsonBody, out any, urlPath string) error {
	data, status, err := c.Request(method, jsonBody, nil, urlPath)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		apiErr := &api.Error{HTTPstatus: status}
		if err := json.Unmarshal(data, apiErr); err != nil {
			return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, bytes.TrimSpace(data))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func electionPath(endpoint string, eid types.ElectionID) string {
	return api.EndpointWithParam(endpoint, api.ElectionURLParam, eid.String())
}

// Info returns the node information.
func (c *HTTPclient) Info() (*api.InfoResponse, error) {
	info := &api.InfoResponse{}
	return info, c.call(HTTPGET, nil, info, api.InfoEndpoint)
}

// Commitment returns the identity commitment of identifier.
func (c *HTTPclient) Commitment(identifier string) (*types.BigInt, error) {
	resp := &api.CommitmentResponse{}
	if err := c.call(HTTPPOST, &api.CommitmentRequest{Identifier: identifier}, resp, api.CommitmentsEndpoint); err != nil {
		return nil, err
	}
	return resp.Commitment, nil
}

// CreateElection creates an election. Requires an admin signer.
func (c *HTTPclient) CreateElection(name string) (*api.ElectionResponse, error) {
	election := &api.ElectionResponse{}
	return election, c.call(HTTPPOST, &api.NewElectionRequest{Name: name}, election, api.ElectionsEndpoint)
}

// Elections lists the elections.
func (c *HTTPclient) Elections() ([]types.Election, error) {
	resp := &api.ElectionsResponse{}
	if err := c.call(HTTPGET, nil, resp, api.ElectionsEndpoint); err != nil {
		return nil, err
	}
	return resp.Elections, nil
}

// Election returns an election and its vote total.
func (c *HTTPclient) Election(eid types.ElectionID) (*api.ElectionResponse, error) {
	election := &api.ElectionResponse{}
	return election, c.call(HTTPGET, nil, election, electionPath(api.ElectionEndpoint, eid))
}

// AddCandidate adds a candidate to an election. Requires an admin signer.
func (c *HTTPclient) AddCandidate(eid types.ElectionID, name string) (*types.Candidate, error) {
	candidate := &types.Candidate{}
	return candidate, c.call(HTTPPOST, &api.NewCandidateRequest{Name: name}, candidate, electionPath(api.CandidatesEndpoint, eid))
}

// Candidates lists the candidates of an election.
func (c *HTTPclient) Candidates(eid types.ElectionID) ([]types.Candidate, error) {
	resp := &api.CandidatesResponse{}
	if err := c.call(HTTPGET, nil, resp, electionPath(api.CandidatesEndpoint, eid)); err != nil {
		return nil, err
	}
	return resp.Candidates, nil
}

// RegisterVoter registers a voter in an election. Requires an admin signer.
func (c *HTTPclient) RegisterVoter(eid types.ElectionID, req *api.RegisterVoterRequest) (*types.RegistryEntry, error) {
	entry := &types.RegistryEntry{}
	return entry, c.call(HTTPPOST, req, entry, electionPath(api.VotersEndpoint, eid))
}

// Voter returns the registry entry of commitment. Requires an admin signer.
func (c *HTTPclient) Voter(eid types.ElectionID, commitment *types.BigInt) (*types.RegistryEntry, error) {
	entry := &types.RegistryEntry{}
	p := api.EndpointWithParam(electionPath(api.VoterEndpoint, eid), api.CommitmentURLParam, commitment.String())
	return entry, c.call(HTTPGET, nil, entry, p)
}

// MarkVoted spends commitment without a vote. Requires an admin signer.
func (c *HTTPclient) MarkVoted(eid types.ElectionID, commitment *types.BigInt) (*types.RegistryEntry, error) {
	entry := &types.RegistryEntry{}
	p := api.EndpointWithParam(electionPath(api.VoterMarkEndpoint, eid), api.CommitmentURLParam, commitment.String())
	return entry, c.call(HTTPPOST, nil, entry, p)
}

// Proof asks the node to assemble a vote proof for identifier.
func (c *HTTPclient) Proof(eid types.ElectionID, identifier string, inputs prover.Inputs) (*types.ProofTuple, error) {
	tuple := &types.ProofTuple{}
	req := &api.ProofRequest{Identifier: identifier, CircuitInputs: inputs}
	return tuple, c.call(HTTPPOST, req, tuple, electionPath(api.ProofsEndpoint, eid))
}

// Vote casts a vote for candidateID with proof, on behalf of the commitment
// the proof asserts.
func (c *HTTPclient) Vote(eid types.ElectionID, candidateID uint64, proof *types.ProofTuple) (*types.Receipt, error) {
	commitment, err := proof.Commitment()
	if err != nil {
		return nil, err
	}
	receipt := &types.Receipt{}
	req := &api.VoteRequest{CandidateID: &candidateID, Commitment: commitment, Proof: proof}
	return receipt, c.call(HTTPPOST, req, receipt, electionPath(api.VotesEndpoint, eid))
}

// Receipt returns the receipt of the vote with sequence seq.
func (c *HTTPclient) Receipt(eid types.ElectionID, seq uint64) (*types.Receipt, error) {
	receipt := &types.Receipt{}
	p := api.EndpointWithParam(electionPath(api.ReceiptEndpoint, eid), api.SequenceURLParam, strconv.FormatUint(seq, 10))
	return receipt, c.call(HTTPGET, nil, receipt, p)
}

// Receipts returns the receipts of the accepted votes of an election.
func (c *HTTPclient) Receipts(eid types.ElectionID) ([]types.Receipt, error) {
	resp := &api.ReceiptsResponse{}
	if err := c.call(HTTPGET, nil, resp, electionPath(api.VotesEndpoint, eid)); err != nil {
		return nil, err
	}
	return resp.Receipts, nil
}

// Tally returns the counts of an election.
func (c *HTTPclient) Tally(eid types.ElectionID) (*types.Tally, error) {
	tally := &types.Tally{}
	return tally, c.call(HTTPGET, nil, tally, electionPath(api.TallyEndpoint, eid))
}
