package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/zkvote-node/api"
	"github.com/vocdoni/zkvote-node/api/client"
	"github.com/vocdoni/zkvote-node/auth"
	"github.com/vocdoni/zkvote-node/crypto/signatures/ethereum"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/types"
	"github.com/vocdoni/zkvote-node/web3"
)

// CLIServices holds the connections used by the commands.
type CLIServices struct {
	ctx      context.Context
	cli      *client.HTTPclient
	admin    *ethereum.Signer
	contract *web3.Contract
	election types.ElectionID
}

// NewCLIServices connects to the node API. The admin key and the contract
// are optional.
func NewCLIServices(ctx context.Context, host, adminKey, rpc, contract string, election types.ElectionID) (*CLIServices, error) {
	s := &CLIServices{ctx: ctx, election: election}
	var err error
	if adminKey != "" {
		if s.admin, err = ethereum.NewSignerFromHex(adminKey); err != nil {
			return nil, fmt.Errorf("invalid admin key: %w", err)
		}
	}
	if rpc != "" {
		if !common.IsHexAddress(contract) {
			return nil, fmt.Errorf("invalid contract address %q", contract)
		}
		if s.contract, err = web3.Dial(ctx, rpc, common.HexToAddress(contract), nil); err != nil {
			return nil, err
		}
	}
	if host == "" {
		return s, nil
	}
	if s.cli, err = client.New(host); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", host, err)
	}
	if s.admin != nil {
		s.cli.SetAdminSigner(s.admin)
	}
	return s, nil
}

// AdminToken prints a fresh admin token.
func (s *CLIServices) AdminToken() error {
	if s.admin == nil {
		return fmt.Errorf("admin key required")
	}
	token, err := auth.NewAdminToken(s.admin, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(token.String())
	return nil
}

// CreateElection creates an election and prints its ID.
func (s *CLIServices) CreateElection(name string) error {
	election, err := s.cli.CreateElection(name)
	if err != nil {
		return err
	}
	log.Infow("election created", "electionId", election.ID.String(), "name", election.Name)
	fmt.Println(election.ID.String())
	return nil
}

// AddCandidates adds the candidates named in names.
func (s *CLIServices) AddCandidates(names ...string) error {
	for _, name := range names {
		candidate, err := s.cli.AddCandidate(s.election, name)
		if err != nil {
			return fmt.Errorf("candidate %q: %w", name, err)
		}
		log.Infow("candidate added", "id", candidate.ID, "name", candidate.Name)
	}
	return nil
}

// RegisterVoters registers the raw identifiers in ids.
func (s *CLIServices) RegisterVoters(ids ...string) error {
	for _, id := range ids {
		entry, err := s.cli.RegisterVoter(s.election, &api.RegisterVoterRequest{Identifier: id})
		if err != nil {
			return err
		}
		log.Infow("voter registered", "commitment", entry.Commitment.String())
	}
	return nil
}

// Vote asks the node to assemble a proof for identifier and casts it for
// the candidate.
func (s *CLIServices) Vote(identifier, candidate string) error {
	candidateID, err := strconv.ParseUint(candidate, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid candidate id %q", candidate)
	}
	proof, err := s.cli.Proof(s.election, identifier, nil)
	if err != nil {
		return fmt.Errorf("proof: %w", err)
	}
	receipt, err := s.cli.Vote(s.election, candidateID, proof)
	if err != nil {
		return fmt.Errorf("vote: %w", err)
	}
	log.Infow("vote accepted",
		"sequence", receipt.Sequence,
		"candidateId", receipt.CandidateID,
		"voteCount", receipt.VoteCount)
	return nil
}

// Tally prints the counts of the election and, with a contract, the
// on-chain counts next to them.
func (s *CLIServices) Tally() error {
	tally, err := s.cli.Tally(s.election)
	if err != nil {
		return err
	}
	for _, c := range tally.Candidates {
		line := fmt.Sprintf("%d\t%s\t%d", c.ID, c.Name, c.VoteCount)
		if s.contract != nil {
			onchain, err := s.contract.Candidate(s.ctx, c.ID)
			if err != nil {
				log.Warnw("failed to read on-chain candidate", "id", c.ID, "error", err)
			} else {
				line += fmt.Sprintf("\t(on-chain %d)", onchain.VoteCount)
			}
		}
		fmt.Println(line)
	}
	fmt.Printf("total %d, spent %d, marked %d\n", tally.TotalVotes, tally.SpentCommitments, tally.MarkedCommitments)
	return nil
}
