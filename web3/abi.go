package web3

import (
	_ "embed"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/vocdoni/zkvote-node/types"
)

// EVotingABIJSON is the ABI of the EVoting contract.
//
//go:embed abi/EVoting.json
var EVotingABIJSON string

// EVotingABI parses the embedded EVoting ABI.
func EVotingABI() (*abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(EVotingABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse EVoting ABI: %w", err)
	}
	return &parsed, nil
}

// VoteArgs are the arguments of the vote contract method.
type VoteArgs struct {
	CandidateID *big.Int
	VoterHash   *big.Int
	A           [2]*big.Int
	B           [2][2]*big.Int
	C           [2]*big.Int
	Input       [2]*big.Int
}

// NewVoteArgs converts a proof tuple to the vote arguments. The tuple is
// passed through as is: b already has the inner pairs in the order of the
// on-chain verifier, and the voter hash is the commitment of the public
// signals.
func NewVoteArgs(candidateID uint64, proof *types.ProofTuple) (*VoteArgs, error) {
	if proof == nil || len(proof.A) != 2 || len(proof.B) != 2 || len(proof.C) != 2 ||
		len(proof.PublicSignals) != types.VoterPublicSignals {
		return nil, fmt.Errorf("invalid proof tuple shape")
	}
	args := &VoteArgs{CandidateID: new(big.Int).SetUint64(candidateID)}
	var err error
	for i := range 2 {
		if args.A[i], err = word(proof.A[i]); err != nil {
			return nil, err
		}
		if args.C[i], err = word(proof.C[i]); err != nil {
			return nil, err
		}
		if args.Input[i], err = word(proof.PublicSignals[i]); err != nil {
			return nil, err
		}
		if len(proof.B[i]) != 2 {
			return nil, fmt.Errorf("invalid proof tuple shape")
		}
		for j := range 2 {
			if args.B[i][j], err = word(proof.B[i][j]); err != nil {
				return nil, err
			}
		}
	}
	args.VoterHash = args.Input[types.PublicSignalCommitment]
	return args, nil
}

// word parses a decimal uint256.
func word(s string) (*big.Int, error) {
	n, err := types.ParseDecimal(s)
	if err != nil {
		return nil, err
	}
	if n.MathBigInt().BitLen() > 256 {
		return nil, fmt.Errorf("value %s overflows uint256", s)
	}
	return n.MathBigInt(), nil
}

// PackVote returns the calldata of
// vote(uint256,uint256,uint256[2],uint256[2][2],uint256[2],uint256[2]).
func PackVote(contractABI *abi.ABI, candidateID uint64, proof *types.ProofTuple) ([]byte, error) {
	args, err := NewVoteArgs(candidateID, proof)
	if err != nil {
		return nil, err
	}
	return contractABI.Pack("vote", args.CandidateID, args.VoterHash, args.A, args.B, args.C, args.Input)
}
