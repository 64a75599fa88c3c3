package poseidon

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

// maxInputs is the widest permutation supported by the iden3 implementation.
const maxInputs = 16

// MultiPoseidon computes the Poseidon hash of any number of inputs. Up to 16
// inputs are hashed directly; longer inputs are hashed in chunks of 16 and
// the chunk digests are hashed again, recursively.
func MultiPoseidon(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs provided")
	}
	if len(inputs) <= maxInputs {
		return poseidon.Hash(inputs)
	}
	digests := make([]*big.Int, 0, (len(inputs)+maxInputs-1)/maxInputs)
	for i := 0; i < len(inputs); i += maxInputs {
		d, err := poseidon.Hash(inputs[i:min(i+maxInputs, len(inputs))])
		if err != nil {
			return nil, err
		}
		digests = append(digests, d)
	}
	return MultiPoseidon(digests...)
}
