package lightsystem

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

const (
	HashSize = 32
)

// Hash is a tree node, leaf or root hash. Unlike a FieldElement its leading
// byte may be non-zero.
type Hash [HashSize]byte

func (h Hash) String() string {
	return base58.Encode(h[:])
}

// MerkleContext identifies the leaf a compressed account occupies.
type MerkleContext struct {
	MerkleTree     ed25519.PublicKey
	NullifierQueue ed25519.PublicKey
	LeafIndex      uint32

	// QueueIndex is set when the account still sits in the output queue
	// rather than in the tree itself.
	QueueIndex *uint16
}

// CompressedAccountData is the opaque payload of a compressed account.
type CompressedAccountData struct {
	Discriminator [8]byte
	Data          []byte
	DataHash      [32]byte
}

// CompressedAccount is account state stored as a leaf in a state tree.
type CompressedAccount struct {
	Owner    ed25519.PublicKey
	Lamports uint64
	Address  *FieldElement
	Data     *CompressedAccountData
}

// CompressedAccountWithMerkleContext is an existing compressed account, as
// returned by the indexer, that can be consumed as an instruction input.
type CompressedAccountWithMerkleContext struct {
	CompressedAccount
	MerkleContext

	// Hash is the leaf hash of the account within its state tree.
	Hash Hash
}

// PackedMerkleContext is a MerkleContext with its tree and queue replaced by
// indices into the instruction's remaining accounts.
type PackedMerkleContext struct {
	MerkleTreePubkeyIndex     uint8
	NullifierQueuePubkeyIndex uint8
	LeafIndex                 uint32
	QueueIndex                *uint16
}

// PackedCompressedAccountWithMerkleContext is a packed instruction input.
type PackedCompressedAccountWithMerkleContext struct {
	CompressedAccount CompressedAccount
	MerkleContext     PackedMerkleContext
	RootIndex         uint16
	ReadOnly          bool
}

// OutputCompressedAccountWithPackedContext is a packed instruction output,
// referencing the state tree it will be appended to.
type OutputCompressedAccountWithPackedContext struct {
	CompressedAccount CompressedAccount
	MerkleTreeIndex   uint8
}

// NewAddressParams is a request to register a new address in an address tree.
type NewAddressParams struct {
	Seed                       FieldElement
	AddressMerkleTreeRootIndex uint16
	AddressMerkleTreePubkey    ed25519.PublicKey
	AddressQueuePubkey         ed25519.PublicKey
}

// PackedNewAddressParams is NewAddressParams with the tree and queue replaced
// by remaining account indices.
type PackedNewAddressParams struct {
	Seed                          FieldElement
	AddressQueueAccountIndex      uint8
	AddressMerkleTreeAccountIndex uint8
	AddressMerkleTreeRootIndex    uint16
}

// PackedAddressMerkleContext is the address tree and queue pair a program
// uses when it creates an address on behalf of the caller.
type PackedAddressMerkleContext struct {
	AddressMerkleTreePubkeyIndex uint8
	AddressQueuePubkeyIndex      uint8
}
