package lightsystem

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/nina-protocol/nina-go/pkg/pointer"
)

// PackedAccounts are the packed inputs and outputs of a single instruction.
type PackedAccounts struct {
	Inputs  []PackedCompressedAccountWithMerkleContext
	Outputs []OutputCompressedAccountWithPackedContext
}

// MerkleContexts returns the packed merkle context of every input, in input
// order.
func (p *PackedAccounts) MerkleContexts() []PackedMerkleContext {
	contexts := make([]PackedMerkleContext, len(p.Inputs))
	for i, input := range p.Inputs {
		contexts[i] = input.MerkleContext
	}
	return contexts
}

// PackCompressedAccounts packs input accounts against the root indices of a
// validity proof, then packs output accounts into state trees.
//
// rootIndices[i] must be the root index the proof used for inputs[i]. Outputs
// are appended to outputTrees as described by PackOutputAccounts.
//
// Argument errors are reported before any key is registered. A table that
// failed while registering keys (ErrIndexOverflow) must be discarded.
func PackCompressedAccounts(
	table *ReferenceTable,
	inputs []CompressedAccountWithMerkleContext,
	rootIndices []uint16,
	outputs []CompressedAccount,
	outputTrees ...ed25519.PublicKey,
) (*PackedAccounts, error) {
	if len(inputs) != len(rootIndices) {
		return nil, errors.Wrapf(ErrProofCardinalityMismatch, "%d input accounts, %d root indices", len(inputs), len(rootIndices))
	}

	if len(outputTrees) == 0 && len(outputs) > 0 {
		if len(inputs) == 0 {
			return nil, errors.Wrap(ErrNoStateContext, "no input accounts nor output state trees provided")
		}
		outputTrees = []ed25519.PublicKey{inputs[0].MerkleTree}
	}
	if err := checkOutputTrees(outputs, outputTrees); err != nil {
		return nil, err
	}

	packedInputs, err := PackInputAccounts(table, inputs, rootIndices)
	if err != nil {
		return nil, err
	}

	packedOutputs, err := PackOutputAccounts(table, outputs, outputTrees...)
	if err != nil {
		return nil, err
	}

	return &PackedAccounts{
		Inputs:  packedInputs,
		Outputs: packedOutputs,
	}, nil
}

// PackInputAccounts registers each input's state tree and nullifier queue in
// the table and returns the packed form of each input, in the order given.
func PackInputAccounts(
	table *ReferenceTable,
	inputs []CompressedAccountWithMerkleContext,
	rootIndices []uint16,
) ([]PackedCompressedAccountWithMerkleContext, error) {
	if len(inputs) != len(rootIndices) {
		return nil, errors.Wrapf(ErrProofCardinalityMismatch, "%d input accounts, %d root indices", len(inputs), len(rootIndices))
	}

	packed := make([]PackedCompressedAccountWithMerkleContext, len(inputs))
	for i, input := range inputs {
		treeIndex, err := table.GetOrAdd(input.MerkleTree)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to register merkle tree of input %d", i)
		}

		queueIndex, err := table.GetOrAdd(input.NullifierQueue)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to register nullifier queue of input %d", i)
		}

		packed[i] = PackedCompressedAccountWithMerkleContext{
			CompressedAccount: input.CompressedAccount,
			MerkleContext: PackedMerkleContext{
				MerkleTreePubkeyIndex:     treeIndex,
				NullifierQueuePubkeyIndex: queueIndex,
				LeafIndex:                 input.LeafIndex,
				QueueIndex:                pointer.Uint16Copy(input.QueueIndex),
			},
			RootIndex: rootIndices[i],
		}
	}

	return packed, nil
}

// PackOutputAccounts registers the state trees new accounts are appended to.
// A single tree receives every output; otherwise there must be exactly one
// tree per output.
func PackOutputAccounts(
	table *ReferenceTable,
	outputs []CompressedAccount,
	outputTrees ...ed25519.PublicKey,
) ([]OutputCompressedAccountWithPackedContext, error) {
	if len(outputs) == 0 {
		return nil, nil
	}

	if err := checkOutputTrees(outputs, outputTrees); err != nil {
		return nil, err
	}

	packed := make([]OutputCompressedAccountWithPackedContext, len(outputs))
	for i, output := range outputs {
		tree := outputTrees[0]
		if len(outputTrees) > 1 {
			tree = outputTrees[i]
		}

		treeIndex, err := table.GetOrAdd(tree)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to register state tree of output %d", i)
		}

		packed[i] = OutputCompressedAccountWithPackedContext{
			CompressedAccount: output,
			MerkleTreeIndex:   treeIndex,
		}
	}

	return packed, nil
}

// checkOutputTrees requires either a single tree for every output or exactly
// one tree per output.
func checkOutputTrees(outputs []CompressedAccount, outputTrees []ed25519.PublicKey) error {
	if len(outputs) == 0 {
		return nil
	}

	switch len(outputTrees) {
	case 0:
		return errors.Wrap(ErrNoStateContext, "no output state tree provided")
	case 1, len(outputs):
		return nil
	default:
		return errors.Wrapf(ErrOutputTreeMismatch, "%d outputs, %d trees", len(outputs), len(outputTrees))
	}
}

// PackNewAddressParams registers each request's address tree and queue in the
// table. Seeds and root indices are carried through unchanged, in order.
func PackNewAddressParams(table *ReferenceTable, params []NewAddressParams) ([]PackedNewAddressParams, error) {
	packed := make([]PackedNewAddressParams, len(params))
	for i, p := range params {
		treeIndex, err := table.GetOrAdd(p.AddressMerkleTreePubkey)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to register address tree of address %d", i)
		}

		queueIndex, err := table.GetOrAdd(p.AddressQueuePubkey)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to register address queue of address %d", i)
		}

		packed[i] = PackedNewAddressParams{
			Seed:                          p.Seed,
			AddressMerkleTreeAccountIndex: treeIndex,
			AddressQueueAccountIndex:      queueIndex,
			AddressMerkleTreeRootIndex:    p.AddressMerkleTreeRootIndex,
		}
	}
	return packed, nil
}

// PackedQuery is everything a ProofQuery and its proof pack into.
type PackedQuery struct {
	Proof        CompressedProof
	Inputs       []PackedCompressedAccountWithMerkleContext
	Outputs      []OutputCompressedAccountWithPackedContext
	NewAddresses []PackedNewAddressParams
}

// PackQuery validates the proof against the query it was requested for, then
// packs the query's inputs, the outputs and the query's new addresses into the
// same table.
func PackQuery(
	table *ReferenceTable,
	query *ProofQuery,
	proof *ValidityProof,
	outputs []CompressedAccount,
	outputTrees ...ed25519.PublicKey,
) (*PackedQuery, error) {
	if proof == nil {
		return nil, errors.Wrap(ErrIncompleteProof, "missing validity proof")
	}
	if err := proof.Validate(query); err != nil {
		return nil, err
	}

	rootIndices, err := proof.InputRootIndices(query)
	if err != nil {
		return nil, err
	}

	accounts, err := PackCompressedAccounts(table, query.InputAccounts(), rootIndices, outputs, outputTrees...)
	if err != nil {
		return nil, err
	}

	params, err := proof.NewAddressParams(query)
	if err != nil {
		return nil, err
	}

	newAddresses, err := PackNewAddressParams(table, params)
	if err != nil {
		return nil, err
	}

	packed := &PackedQuery{
		Inputs:       accounts.Inputs,
		Outputs:      accounts.Outputs,
		NewAddresses: newAddresses,
	}
	if proof.CompressedProof != nil {
		packed.Proof = *proof.CompressedProof
	}
	return packed, nil
}
