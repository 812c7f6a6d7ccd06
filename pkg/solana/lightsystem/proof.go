package lightsystem

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrIncompleteProof = errors.New("incomplete validity proof")
)

const (
	CompressedProofSize = 32 + 64 + 32
)

// CompressedProof is a compressed Groth16 proof over BN254.
type CompressedProof struct {
	A [32]byte
	B [64]byte
	C [32]byte
}

// ValidityProof proves that a set of leaves exist, and a set of addresses do
// not yet exist, at specific tree roots. Every positional array has one entry
// per query item: input account leaves first, then new addresses, in the order
// they were added to the ProofQuery.
type ValidityProof struct {
	CompressedProof *CompressedProof

	Roots           []Hash
	RootIndices     []uint16
	LeafIndices     []uint32
	Leaves          []Hash
	MerkleTrees     []ed25519.PublicKey
	NullifierQueues []ed25519.PublicKey
}

// NewAddressRequest asks for a new address to be proven absent from, and then
// inserted into, an address tree.
type NewAddressRequest struct {
	Seed         FieldElement
	AddressTree  ed25519.PublicKey
	AddressQueue ed25519.PublicKey
}

// Address is the address the request's seed resolves to in its address tree.
func (r NewAddressRequest) Address() FieldElement {
	return DeriveAddress(r.Seed, r.AddressTree)
}

// ProofQuery is the single ordered list of input accounts and new addresses
// shared by the validity proof request and the packing step. Building both
// from the same value keeps proof positions and packed accounts aligned.
type ProofQuery struct {
	inputs    []CompressedAccountWithMerkleContext
	addresses []NewAddressRequest
}

func NewProofQuery() *ProofQuery {
	return &ProofQuery{}
}

// AddInputAccount appends an existing compressed account whose inclusion must
// be proven.
func (q *ProofQuery) AddInputAccount(accounts ...CompressedAccountWithMerkleContext) *ProofQuery {
	q.inputs = append(q.inputs, accounts...)
	return q
}

// AddNewAddress appends an address whose non-inclusion must be proven.
func (q *ProofQuery) AddNewAddress(requests ...NewAddressRequest) *ProofQuery {
	q.addresses = append(q.addresses, requests...)
	return q
}

func (q *ProofQuery) InputAccounts() []CompressedAccountWithMerkleContext {
	return q.inputs
}

func (q *ProofQuery) NewAddresses() []NewAddressRequest {
	return q.addresses
}

// Len is the number of positional entries a matching proof must carry.
func (q *ProofQuery) Len() int {
	return len(q.inputs) + len(q.addresses)
}

// Validate checks that the proof was produced for exactly this query: the same
// number of entries, and the same trees and queues, in the same order.
func (p *ValidityProof) Validate(q *ProofQuery) error {
	if p == nil {
		return errors.Wrap(ErrIncompleteProof, "missing validity proof")
	}

	n := q.Len()
	if n == 0 {
		return nil
	}

	if p.CompressedProof == nil {
		return errors.Wrap(ErrIncompleteProof, "missing compressed proof")
	}

	if len(p.RootIndices) != n || len(p.MerkleTrees) != n || len(p.NullifierQueues) != n {
		return errors.Wrapf(
			ErrProofCardinalityMismatch,
			"query has %d entries, proof has %d root indices, %d trees and %d queues",
			n,
			len(p.RootIndices),
			len(p.MerkleTrees),
			len(p.NullifierQueues),
		)
	}

	for i, input := range q.inputs {
		if !bytes.Equal(p.MerkleTrees[i], input.MerkleTree) {
			return errors.Wrapf(ErrProofCardinalityMismatch, "input %d proven against tree %s, expected %s", i, base58.Encode(p.MerkleTrees[i]), base58.Encode(input.MerkleTree))
		}
		if !bytes.Equal(p.NullifierQueues[i], input.NullifierQueue) {
			return errors.Wrapf(ErrProofCardinalityMismatch, "input %d proven with queue %s, expected %s", i, base58.Encode(p.NullifierQueues[i]), base58.Encode(input.NullifierQueue))
		}
		if len(p.Leaves) == n && p.Leaves[i] != input.Hash {
			return errors.Wrapf(ErrProofCardinalityMismatch, "input %d proven for leaf %s, expected %s", i, p.Leaves[i].String(), input.Hash.String())
		}
	}

	offset := len(q.inputs)
	for i, address := range q.addresses {
		if !bytes.Equal(p.MerkleTrees[offset+i], address.AddressTree) {
			return errors.Wrapf(ErrProofCardinalityMismatch, "address %d proven against tree %s, expected %s", i, base58.Encode(p.MerkleTrees[offset+i]), base58.Encode(address.AddressTree))
		}
		if !bytes.Equal(p.NullifierQueues[offset+i], address.AddressQueue) {
			return errors.Wrapf(ErrProofCardinalityMismatch, "address %d proven with queue %s, expected %s", i, base58.Encode(p.NullifierQueues[offset+i]), base58.Encode(address.AddressQueue))
		}
	}

	return nil
}

// InputRootIndices returns the root indices belonging to the query's input
// accounts.
func (p *ValidityProof) InputRootIndices(q *ProofQuery) ([]uint16, error) {
	if p == nil {
		return nil, errors.Wrap(ErrIncompleteProof, "missing validity proof")
	}
	if len(p.RootIndices) != q.Len() {
		return nil, errors.Wrapf(ErrProofCardinalityMismatch, "query has %d entries, proof has %d root indices", q.Len(), len(p.RootIndices))
	}
	return p.RootIndices[:len(q.inputs)], nil
}

// NewAddressParams pairs each of the query's new address requests with the
// root index the proof used for it.
func (p *ValidityProof) NewAddressParams(q *ProofQuery) ([]NewAddressParams, error) {
	if p == nil {
		return nil, errors.Wrap(ErrIncompleteProof, "missing validity proof")
	}
	if len(p.RootIndices) != q.Len() {
		return nil, errors.Wrapf(ErrProofCardinalityMismatch, "query has %d entries, proof has %d root indices", q.Len(), len(p.RootIndices))
	}

	offset := len(q.inputs)
	params := make([]NewAddressParams, len(q.addresses))
	for i, address := range q.addresses {
		params[i] = NewAddressParams{
			Seed:                       address.Seed,
			AddressMerkleTreeRootIndex: p.RootIndices[offset+i],
			AddressMerkleTreePubkey:    address.AddressTree,
			AddressQueuePubkey:         address.AddressQueue,
		}
	}
	return params, nil
}

// NewAddressParamsFromProof builds new address params for a single address
// seed from the last entry of a proof, which is where the indexer places the
// address when it is queried after any input leaves.
func NewAddressParamsFromProof(seed FieldElement, proof *ValidityProof) (*NewAddressParams, error) {
	if proof == nil {
		return nil, errors.Wrap(ErrIncompleteProof, "missing validity proof")
	}

	n := len(proof.RootIndices)
	if n == 0 || len(proof.MerkleTrees) != n || len(proof.NullifierQueues) != n {
		return nil, errors.Wrap(ErrIncompleteProof, "proof has no address entry")
	}

	return &NewAddressParams{
		Seed:                       seed,
		AddressMerkleTreeRootIndex: proof.RootIndices[n-1],
		AddressMerkleTreePubkey:    proof.MerkleTrees[n-1],
		AddressQueuePubkey:         proof.NullifierQueues[n-1],
	}, nil
}
