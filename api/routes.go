package api

import (
	"fmt"
	"net/url"
	"strings"
)

// Route constants for the API endpoints

const (
	// Health endpoints
	PingEndpoint = "/ping" // Health check endpoint

	// Info endpoint
	InfoEndpoint = "/info" // GET: verification key and circuit information

	// Identity endpoints
	CommitmentsEndpoint = "/commitments" // POST: compute the commitment of an identifier

	// Election endpoints
	ElectionURLParam   = "electionId"                                        // URL parameter for election ID
	ElectionsEndpoint  = "/elections"                                        // GET: list elections, POST: create election (admin)
	ElectionEndpoint   = ElectionsEndpoint + "/{" + ElectionURLParam + "}"   // GET: election info
	TallyEndpoint      = ElectionEndpoint + "/tally"                         // GET: election tally
	CandidateURLParam  = "candidateId"                                       // URL parameter for candidate ID
	CandidatesEndpoint = ElectionEndpoint + "/candidates"                    // GET: list candidates, POST: add candidate (admin)
	CandidateEndpoint  = CandidatesEndpoint + "/{" + CandidateURLParam + "}" // GET: candidate info

	// Registry endpoints
	CommitmentURLParam = "commitment"                                     // URL parameter for commitment
	VotersEndpoint     = ElectionEndpoint + "/voters"                     // POST: register voter (admin)
	VoterEndpoint      = VotersEndpoint + "/{" + CommitmentURLParam + "}" // GET: registry entry (admin)
	VoterMarkEndpoint  = VoterEndpoint + "/voted"                         // POST: mark as voted (admin)

	// Proof and vote endpoints
	ProofsEndpoint   = ElectionEndpoint + "/proofs"                  // POST: assemble a vote proof
	VotesEndpoint    = ElectionEndpoint + "/votes"                   // GET: list receipts, POST: cast a vote
	SequenceURLParam = "seq"                                         // URL parameter for receipt sequence
	ReceiptEndpoint  = VotesEndpoint + "/{" + SequenceURLParam + "}" // GET: vote receipt
)

// EndpointWithParam creates an endpoint URL by replacing the parameter
// placeholder with the actual value. Used to build fully qualified
// endpoint URLs.
func EndpointWithParam(path, key, param string) string {
	rawKey := fmt.Sprintf("{%s}", key)

	// Always try to replace the placeholder, even if it's after the '?'
	if strings.Contains(path, rawKey) {
		return strings.Replace(path, rawKey, url.PathEscape(param), 1)
	}

	// Fallback: add as query param
	escapedKey := url.QueryEscape(key)
	escapedVal := url.QueryEscape(param)

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	return fmt.Sprintf("%s%s%s=%s", path, sep, escapedKey, escapedVal)
}

// LogExcludedPrefixes defines URL prefixes to exclude from request logging
var LogExcludedPrefixes = []string{
	PingEndpoint,
	InfoEndpoint,
}
