package photon

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/nina-protocol/nina-go/pkg/solana/lightsystem"
)

// AddressWithTree is a new address and the address tree it must be proven
// absent from.
type AddressWithTree struct {
	Address lightsystem.FieldElement
	Tree    ed25519.PublicKey
}

type addressWithTreeParam struct {
	Address string `json:"address"`
	Tree    string `json:"tree"`
}

type validityProofParams struct {
	Hashes                []string               `json:"hashes"`
	NewAddressesWithTrees []addressWithTreeParam `json:"newAddressesWithTrees"`
}

type compressedProofResult struct {
	A []int `json:"a"`
	B []int `json:"b"`
	C []int `json:"c"`
}

type validityProofResult struct {
	CompressedProof *compressedProofResult `json:"compressedProof"`
	Roots           []string               `json:"roots"`
	RootIndices     []uint16               `json:"rootIndices"`
	LeafIndices     []uint32               `json:"leafIndices"`
	Leaves          []string               `json:"leaves"`
	MerkleTrees     []string               `json:"merkleTrees"`

	// Not every indexer version reports queues. When absent they are resolved
	// from the tree through the client's QueueResolver.
	NullifierQueues []string `json:"nullifierQueues,omitempty"`
}

type rpcContext struct {
	Slot uint64 `json:"slot"`
}

type validityProofResponse struct {
	Context rpcContext          `json:"context"`
	Value   validityProofResult `json:"value"`
}

type accountParams struct {
	Address *string `json:"address,omitempty"`
	Hash    *string `json:"hash,omitempty"`
}

type accountDataResult struct {
	Data          string `json:"data"`
	DataHash      string `json:"dataHash"`
	Discriminator uint64 `json:"discriminator"`
}

type accountResult struct {
	Address     *string            `json:"address"`
	Data        *accountDataResult `json:"data"`
	Hash        string             `json:"hash"`
	Lamports    uint64             `json:"lamports"`
	LeafIndex   uint32             `json:"leafIndex"`
	Owner       string             `json:"owner"`
	Seq         *uint64            `json:"seq"`
	SlotCreated uint64             `json:"slotCreated"`
	Tree        string             `json:"tree"`
}

type accountResponse struct {
	Context rpcContext     `json:"context"`
	Value   *accountResult `json:"value"`
}

type accountsByOwnerParams struct {
	Owner  string  `json:"owner"`
	Cursor *string `json:"cursor,omitempty"`
	Limit  uint64  `json:"limit,omitempty"`
}

type accountsByOwnerResponse struct {
	Context rpcContext `json:"context"`
	Value   struct {
		Items  []*accountResult `json:"items"`
		Cursor *string          `json:"cursor"`
	} `json:"value"`
}

func decodePublicKey(s string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return nil, err
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid public key size: %d", len(decoded))
	}
	return decoded, nil
}

func decodeHash(s string) (lightsystem.Hash, error) {
	var h lightsystem.Hash

	decoded, err := base58.Decode(s)
	if err != nil {
		return h, err
	}
	if len(decoded) != lightsystem.HashSize {
		return h, errors.Errorf("invalid hash size: %d", len(decoded))
	}

	copy(h[:], decoded)
	return h, nil
}

func copyProofBytes(dst []byte, src []int, name string) error {
	if len(src) != len(dst) {
		return errors.Wrapf(lightsystem.ErrIncompleteProof, "proof element %s has %d bytes, expected %d", name, len(src), len(dst))
	}

	for i, v := range src {
		if v < 0 || v > 255 {
			return errors.Errorf("proof element %s has invalid byte %d at %d", name, v, i)
		}
		dst[i] = byte(v)
	}
	return nil
}

func (r *compressedProofResult) toProof() (*lightsystem.CompressedProof, error) {
	var proof lightsystem.CompressedProof
	if err := copyProofBytes(proof.A[:], r.A, "a"); err != nil {
		return nil, err
	}
	if err := copyProofBytes(proof.B[:], r.B, "b"); err != nil {
		return nil, err
	}
	if err := copyProofBytes(proof.C[:], r.C, "c"); err != nil {
		return nil, err
	}
	return &proof, nil
}

// toValidityProof converts the wire result, requiring exactly expected entries
// in every positional array.
func (r *validityProofResult) toValidityProof(expected int, queues QueueResolver) (*lightsystem.ValidityProof, error) {
	if expected == 0 {
		return &lightsystem.ValidityProof{}, nil
	}

	if r.CompressedProof == nil {
		return nil, errors.Wrap(lightsystem.ErrIncompleteProof, "missing compressed proof")
	}

	if len(r.Roots) != expected || len(r.RootIndices) != expected || len(r.MerkleTrees) != expected {
		return nil, errors.Wrapf(
			lightsystem.ErrIncompleteProof,
			"expected %d entries, got %d roots, %d root indices and %d trees",
			expected,
			len(r.Roots),
			len(r.RootIndices),
			len(r.MerkleTrees),
		)
	}
	if len(r.NullifierQueues) != 0 && len(r.NullifierQueues) != expected {
		return nil, errors.Wrapf(lightsystem.ErrIncompleteProof, "expected %d entries, got %d queues", expected, len(r.NullifierQueues))
	}

	compressed, err := r.CompressedProof.toProof()
	if err != nil {
		return nil, err
	}

	proof := &lightsystem.ValidityProof{
		CompressedProof: compressed,
		Roots:           make([]lightsystem.Hash, expected),
		RootIndices:     append([]uint16(nil), r.RootIndices...),
		LeafIndices:     append([]uint32(nil), r.LeafIndices...),
		Leaves:          make([]lightsystem.Hash, len(r.Leaves)),
		MerkleTrees:     make([]ed25519.PublicKey, expected),
		NullifierQueues: make([]ed25519.PublicKey, expected),
	}

	for i, root := range r.Roots {
		if proof.Roots[i], err = decodeHash(root); err != nil {
			return nil, errors.Wrapf(err, "invalid root %d", i)
		}
	}
	for i, leaf := range r.Leaves {
		if proof.Leaves[i], err = decodeHash(leaf); err != nil {
			return nil, errors.Wrapf(err, "invalid leaf %d", i)
		}
	}
	for i, tree := range r.MerkleTrees {
		if proof.MerkleTrees[i], err = decodePublicKey(tree); err != nil {
			return nil, errors.Wrapf(err, "invalid merkle tree %d", i)
		}

		if len(r.NullifierQueues) > 0 {
			proof.NullifierQueues[i], err = decodePublicKey(r.NullifierQueues[i])
		} else {
			proof.NullifierQueues[i], err = queues.QueueForTree(proof.MerkleTrees[i])
		}
		if err != nil {
			return nil, errors.Wrapf(err, "cannot resolve queue %d", i)
		}
	}

	return proof, nil
}

func (r *accountResult) toAccount(queues QueueResolver) (*lightsystem.CompressedAccountWithMerkleContext, error) {
	var account lightsystem.CompressedAccountWithMerkleContext
	var err error

	if account.Owner, err = decodePublicKey(r.Owner); err != nil {
		return nil, errors.Wrap(err, "invalid owner")
	}
	if account.Hash, err = decodeHash(r.Hash); err != nil {
		return nil, errors.Wrap(err, "invalid hash")
	}
	if account.MerkleTree, err = decodePublicKey(r.Tree); err != nil {
		return nil, errors.Wrap(err, "invalid tree")
	}
	if account.NullifierQueue, err = queues.QueueForTree(account.MerkleTree); err != nil {
		return nil, err
	}
	account.Lamports = r.Lamports
	account.LeafIndex = r.LeafIndex

	if r.Address != nil {
		address, err := lightsystem.FieldElementFromBase58(*r.Address)
		if err != nil {
			return nil, errors.Wrap(err, "invalid address")
		}
		account.Address = &address
	}

	if r.Data != nil {
		data := &lightsystem.CompressedAccountData{}
		binary.LittleEndian.PutUint64(data.Discriminator[:], r.Data.Discriminator)

		if data.Data, err = base64.StdEncoding.DecodeString(r.Data.Data); err != nil {
			return nil, errors.Wrap(err, "invalid data")
		}

		dataHash, err := decodeHash(r.Data.DataHash)
		if err != nil {
			return nil, errors.Wrap(err, "invalid data hash")
		}
		data.DataHash = dataHash

		account.Data = data
	}

	return &account, nil
}
