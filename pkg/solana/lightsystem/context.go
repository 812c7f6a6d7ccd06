package lightsystem

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
)

// ContextSource records where a resolved context came from.
type ContextSource uint8

const (
	ContextSourceUnknown ContextSource = iota
	ContextSourceRequest
	ContextSourceFallback
)

func (s ContextSource) String() string {
	switch s {
	case ContextSourceRequest:
		return "request"
	case ContextSourceFallback:
		return "fallback"
	}
	return "unknown"
}

// AddressContext is the address tree context a program receives alongside a
// packed instruction.
type AddressContext struct {
	Source        ContextSource
	MerkleContext PackedAddressMerkleContext
	RootIndex     uint16
}

// AddressFallback names the address tree and queue to use when an instruction
// registers no new address but its program still requires an address context.
type AddressFallback struct {
	AddressTree  ed25519.PublicKey
	AddressQueue ed25519.PublicKey
	RootIndex    uint16
}

// ResolveAddressContext returns the context of the first packed new address.
// When there is none, the explicitly provided fallback is registered in the
// table and used instead. With neither, ErrNoAddressContext is returned.
func ResolveAddressContext(table *ReferenceTable, packed []PackedNewAddressParams, fallback *AddressFallback) (*AddressContext, error) {
	if len(packed) > 0 {
		return &AddressContext{
			Source: ContextSourceRequest,
			MerkleContext: PackedAddressMerkleContext{
				AddressMerkleTreePubkeyIndex: packed[0].AddressMerkleTreeAccountIndex,
				AddressQueuePubkeyIndex:      packed[0].AddressQueueAccountIndex,
			},
			RootIndex: packed[0].AddressMerkleTreeRootIndex,
		}, nil
	}

	if fallback == nil {
		return nil, ErrNoAddressContext
	}

	treeIndex, err := table.GetOrAdd(fallback.AddressTree)
	if err != nil {
		return nil, errors.Wrap(err, "failed to register fallback address tree")
	}

	queueIndex, err := table.GetOrAdd(fallback.AddressQueue)
	if err != nil {
		return nil, errors.Wrap(err, "failed to register fallback address queue")
	}

	return &AddressContext{
		Source: ContextSourceFallback,
		MerkleContext: PackedAddressMerkleContext{
			AddressMerkleTreePubkeyIndex: treeIndex,
			AddressQueuePubkeyIndex:      queueIndex,
		},
		RootIndex: fallback.RootIndex,
	}, nil
}

// StateContext is the state tree context a program receives alongside a
// packed instruction.
type StateContext struct {
	Source        ContextSource
	MerkleContext PackedMerkleContext
	RootIndex     uint16
}

// StateFallback names the state tree and nullifier queue to use when an
// instruction consumes no input accounts.
type StateFallback struct {
	MerkleTree     ed25519.PublicKey
	NullifierQueue ed25519.PublicKey
}

// ResolveStateContext returns the context of the first packed input. When
// there is none, the explicitly provided fallback is registered in the table
// with a zero leaf index. With neither, ErrNoStateContext is returned.
func ResolveStateContext(table *ReferenceTable, inputs []PackedCompressedAccountWithMerkleContext, fallback *StateFallback) (*StateContext, error) {
	if len(inputs) > 0 {
		return &StateContext{
			Source:        ContextSourceRequest,
			MerkleContext: inputs[0].MerkleContext,
			RootIndex:     inputs[0].RootIndex,
		}, nil
	}

	if fallback == nil {
		return nil, ErrNoStateContext
	}

	treeIndex, err := table.GetOrAdd(fallback.MerkleTree)
	if err != nil {
		return nil, errors.Wrap(err, "failed to register fallback state tree")
	}

	queueIndex, err := table.GetOrAdd(fallback.NullifierQueue)
	if err != nil {
		return nil, errors.Wrap(err, "failed to register fallback nullifier queue")
	}

	return &StateContext{
		Source: ContextSourceFallback,
		MerkleContext: PackedMerkleContext{
			MerkleTreePubkeyIndex:     treeIndex,
			NullifierQueuePubkeyIndex: queueIndex,
		},
	}, nil
}

// PackedContext is the full set of packed values a program instruction that
// CPIs into the light system program is built from.
type PackedContext struct {
	*PackedQuery

	AddressContext *AddressContext
	StateContext   *StateContext
}

// PackWithInput packs an operation that consumes at least one existing
// compressed account. The state context comes from the first input; the
// address context comes from the first new address or, when the query
// registers none, from addressFallback. The fallback root index is
// conventionally the first input's root index.
func PackWithInput(
	table *ReferenceTable,
	query *ProofQuery,
	proof *ValidityProof,
	outputs []CompressedAccount,
	addressFallback *AddressFallback,
) (*PackedContext, error) {
	if len(query.InputAccounts()) == 0 {
		return nil, errors.Wrap(ErrNoStateContext, "query has no input accounts")
	}

	packed, err := PackQuery(table, query, proof, outputs)
	if err != nil {
		return nil, err
	}

	stateContext, err := ResolveStateContext(table, packed.Inputs, nil)
	if err != nil {
		return nil, err
	}

	addressContext, err := ResolveAddressContext(table, packed.NewAddresses, addressFallback)
	if err != nil {
		return nil, err
	}

	return &PackedContext{
		PackedQuery:    packed,
		AddressContext: addressContext,
		StateContext:   stateContext,
	}, nil
}

// PackNew packs an operation that only creates state: the query must register
// at least one new address and carry no inputs. Outputs are appended to the
// fallback state tree, which also provides the state context.
func PackNew(
	table *ReferenceTable,
	query *ProofQuery,
	proof *ValidityProof,
	outputs []CompressedAccount,
	state StateFallback,
) (*PackedContext, error) {
	if len(query.InputAccounts()) > 0 {
		return nil, errors.New("query has input accounts, use PackWithInput")
	}
	if len(query.NewAddresses()) == 0 {
		return nil, ErrNoAddressContext
	}

	packed, err := PackQuery(table, query, proof, outputs, state.MerkleTree)
	if err != nil {
		return nil, err
	}

	stateContext, err := ResolveStateContext(table, nil, &state)
	if err != nil {
		return nil, err
	}

	addressContext, err := ResolveAddressContext(table, packed.NewAddresses, nil)
	if err != nil {
		return nil, err
	}

	return &PackedContext{
		PackedQuery:    packed,
		AddressContext: addressContext,
		StateContext:   stateContext,
	}, nil
}
