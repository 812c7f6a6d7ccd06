package compute_budget

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/nina-protocol/nina-go/pkg/solana"
	"github.com/nina-protocol/nina-go/pkg/solana/binary"
)

// ComputeBudget111111111111111111111111111111
var ProgramKey = ed25519.PublicKey{3, 6, 70, 111, 229, 33, 23, 50, 255, 236, 173, 186, 114, 195, 155, 231, 188, 140, 229, 187, 197, 247, 18, 107, 44, 67, 155, 58, 64, 0, 0, 0}

var (
	ErrInvalidLength      = errors.New("invalid length")
	ErrInvalidInstruction = errors.New("invalid instruction")
)

const (
	commandRequestUnits uint8 = iota
	commandRequestHeapFrame
	commandSetComputeUnitLimit
	commandSetComputeUnitPrice
)

// DefaultComputeUnitLimit covers a validity proof verification plus the
// invoking program's own work.
const DefaultComputeUnitLimit = 1_000_000

func SetComputeUnitLimit(computeUnitLimit uint32) solana.Instruction {
	data := make([]byte, 1+4)

	var offset int
	binary.PutUint8(data[offset:], commandSetComputeUnitLimit, &offset)
	binary.PutUint32(data[offset:], computeUnitLimit, &offset)

	return solana.NewInstruction(ProgramKey, data)
}

// SetComputeUnitPrice sets the priority fee in micro-lamports per compute unit.
func SetComputeUnitPrice(microLamports uint64) solana.Instruction {
	data := make([]byte, 1+8)

	var offset int
	binary.PutUint8(data[offset:], commandSetComputeUnitPrice, &offset)
	binary.PutUint64(data[offset:], microLamports, &offset)

	return solana.NewInstruction(ProgramKey, data)
}

// WithComputeBudget prefixes instructions with a compute unit limit and,
// when microLamports is non-zero, a compute unit price.
func WithComputeBudget(computeUnitLimit uint32, microLamports uint64, instructions ...solana.Instruction) []solana.Instruction {
	budgeted := make([]solana.Instruction, 0, len(instructions)+2)
	budgeted = append(budgeted, SetComputeUnitLimit(computeUnitLimit))
	if microLamports > 0 {
		budgeted = append(budgeted, SetComputeUnitPrice(microLamports))
	}
	return append(budgeted, instructions...)
}

func ParseSetComputeUnitLimitIxnData(data []byte) (uint32, error) {
	if len(data) != 5 {
		return 0, ErrInvalidLength
	}
	if data[0] != commandSetComputeUnitLimit {
		return 0, ErrInvalidInstruction
	}

	var limit uint32
	var offset int
	binary.GetUint32(data[1:], &limit, &offset)
	return limit, nil
}

func ParseSetComputeUnitPriceIxnData(data []byte) (uint64, error) {
	if len(data) != 9 {
		return 0, ErrInvalidLength
	}
	if data[0] != commandSetComputeUnitPrice {
		return 0, ErrInvalidInstruction
	}

	var price uint64
	var offset int
	binary.GetUint64(data[1:], &price, &offset)
	return price, nil
}
