package lightsystem

import (
	"github.com/nina-protocol/nina-go/pkg/solana/binary"
)

const (
	PackedMerkleContextMinSize = (1 + // merkle_tree_pubkey_index
		1 + // nullifier_queue_pubkey_index
		4 + // leaf_index
		1) // queue_index option tag

	PackedNewAddressParamsSize = (FieldElementSize + // seed
		1 + // address_queue_account_index
		1 + // address_merkle_tree_account_index
		2) // address_merkle_tree_root_index

	PackedAddressMerkleContextSize = (1 + // address_merkle_tree_pubkey_index
		1) // address_queue_pubkey_index
)

func (c *PackedMerkleContext) Marshal() []byte {
	var offset int

	size := PackedMerkleContextMinSize
	if c.QueueIndex != nil {
		size += 2
	}
	data := make([]byte, size)

	binary.PutUint8(data[offset:], c.MerkleTreePubkeyIndex, &offset)
	binary.PutUint8(data[offset:], c.NullifierQueuePubkeyIndex, &offset)
	binary.PutUint32(data[offset:], c.LeafIndex, &offset)
	binary.PutBorshOptionalUint16(data[offset:], c.QueueIndex, &offset)

	return data
}

func (c *PackedMerkleContext) Unmarshal(data []byte) error {
	var offset int

	if len(data) < PackedMerkleContextMinSize {
		return ErrInvalidInstructionData
	}

	binary.GetUint8(data[offset:], &c.MerkleTreePubkeyIndex, &offset)
	binary.GetUint8(data[offset:], &c.NullifierQueuePubkeyIndex, &offset)
	binary.GetUint32(data[offset:], &c.LeafIndex, &offset)
	if !binary.GetBorshOptionalUint16(data[offset:], &c.QueueIndex, &offset) {
		return ErrInvalidInstructionData
	}
	return nil
}

func (p *PackedNewAddressParams) Marshal() []byte {
	var offset int
	data := make([]byte, PackedNewAddressParamsSize)

	binary.PutBytes(data[offset:], p.Seed[:], &offset)
	binary.PutUint8(data[offset:], p.AddressQueueAccountIndex, &offset)
	binary.PutUint8(data[offset:], p.AddressMerkleTreeAccountIndex, &offset)
	binary.PutUint16(data[offset:], p.AddressMerkleTreeRootIndex, &offset)

	return data
}

func (p *PackedNewAddressParams) Unmarshal(data []byte) error {
	var offset int

	if len(data) < PackedNewAddressParamsSize {
		return ErrInvalidInstructionData
	}

	binary.GetBytes(data[offset:], p.Seed[:], &offset)
	binary.GetUint8(data[offset:], &p.AddressQueueAccountIndex, &offset)
	binary.GetUint8(data[offset:], &p.AddressMerkleTreeAccountIndex, &offset)
	binary.GetUint16(data[offset:], &p.AddressMerkleTreeRootIndex, &offset)

	return nil
}

func (c *PackedAddressMerkleContext) Marshal() []byte {
	var offset int
	data := make([]byte, PackedAddressMerkleContextSize)

	binary.PutUint8(data[offset:], c.AddressMerkleTreePubkeyIndex, &offset)
	binary.PutUint8(data[offset:], c.AddressQueuePubkeyIndex, &offset)

	return data
}

func (c *PackedAddressMerkleContext) Unmarshal(data []byte) error {
	var offset int

	if len(data) < PackedAddressMerkleContextSize {
		return ErrInvalidInstructionData
	}

	binary.GetUint8(data[offset:], &c.AddressMerkleTreePubkeyIndex, &offset)
	binary.GetUint8(data[offset:], &c.AddressQueuePubkeyIndex, &offset)

	return nil
}

func (p *CompressedProof) Marshal() []byte {
	var offset int
	data := make([]byte, CompressedProofSize)

	binary.PutBytes(data[offset:], p.A[:], &offset)
	binary.PutBytes(data[offset:], p.B[:], &offset)
	binary.PutBytes(data[offset:], p.C[:], &offset)

	return data
}

func (p *CompressedProof) Unmarshal(data []byte) error {
	var offset int

	if len(data) < CompressedProofSize {
		return ErrInvalidInstructionData
	}

	binary.GetBytes(data[offset:], p.A[:], &offset)
	binary.GetBytes(data[offset:], p.B[:], &offset)
	binary.GetBytes(data[offset:], p.C[:], &offset)

	return nil
}
