package lightsystem

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidityProof_Validate(t *testing.T) {
	request := NewAddressRequest{
		Seed:         DeriveAddressSeed(nil, testKey(5)),
		AddressTree:  testKey(3),
		AddressQueue: testKey(4),
	}
	query := NewProofQuery().
		AddInputAccount(testInputAccount(testKey(1), testKey(2), 0)).
		AddNewAddress(request)
	require.Equal(t, 2, query.Len())

	require.NoError(t, testProof(query, 1, 2).Validate(query))

	// Empty queries need no proof at all
	assert.NoError(t, (&ValidityProof{}).Validate(NewProofQuery()))

	proof := testProof(query, 1, 2)
	proof.CompressedProof = nil
	assert.ErrorIs(t, proof.Validate(query), ErrIncompleteProof)

	proof = testProof(query, 1, 2)
	proof.MerkleTrees = proof.MerkleTrees[:1]
	assert.ErrorIs(t, proof.Validate(query), ErrProofCardinalityMismatch)

	proof = testProof(query, 1, 2)
	proof.NullifierQueues = append(proof.NullifierQueues, testKey(9))
	assert.ErrorIs(t, proof.Validate(query), ErrProofCardinalityMismatch)

	// Entries swapped relative to the query
	proof = testProof(query, 1, 2)
	proof.MerkleTrees[0], proof.MerkleTrees[1] = proof.MerkleTrees[1], proof.MerkleTrees[0]
	assert.ErrorIs(t, proof.Validate(query), ErrProofCardinalityMismatch)

	proof = testProof(query, 1, 2)
	proof.Leaves[0][5] ^= 0xff
	assert.ErrorIs(t, proof.Validate(query), ErrProofCardinalityMismatch)

	// Right trees, wrong queues
	proof = testProof(query, 1, 2)
	proof.NullifierQueues[0] = testKey(9)
	assert.ErrorIs(t, proof.Validate(query), ErrProofCardinalityMismatch)

	proof = testProof(query, 1, 2)
	proof.NullifierQueues[1] = testKey(2)
	assert.ErrorIs(t, proof.Validate(query), ErrProofCardinalityMismatch)

	var missing *ValidityProof
	assert.ErrorIs(t, missing.Validate(query), ErrIncompleteProof)
	assert.ErrorIs(t, missing.Validate(NewProofQuery()), ErrIncompleteProof)
	_, err := missing.InputRootIndices(query)
	assert.ErrorIs(t, err, ErrIncompleteProof)
	_, err = missing.NewAddressParams(query)
	assert.ErrorIs(t, err, ErrIncompleteProof)
}

func TestValidityProof_NewAddressParams(t *testing.T) {
	first := NewAddressRequest{Seed: DeriveAddressSeed([][]byte{{1}}, testKey(5)), AddressTree: testKey(3), AddressQueue: testKey(4)}
	second := NewAddressRequest{Seed: DeriveAddressSeed([][]byte{{2}}, testKey(5)), AddressTree: testKey(3), AddressQueue: testKey(4)}

	query := NewProofQuery().
		AddInputAccount(testInputAccount(testKey(1), testKey(2), 0)).
		AddNewAddress(first, second)
	proof := testProof(query, 7, 8, 9)

	rootIndices, err := proof.InputRootIndices(query)
	require.NoError(t, err)
	assert.Equal(t, []uint16{7}, rootIndices)

	params, err := proof.NewAddressParams(query)
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, first.Seed, params[0].Seed)
	assert.EqualValues(t, 8, params[0].AddressMerkleTreeRootIndex)
	assert.Equal(t, second.Seed, params[1].Seed)
	assert.EqualValues(t, 9, params[1].AddressMerkleTreeRootIndex)
	assert.EqualValues(t, testKey(3), params[1].AddressMerkleTreePubkey)
	assert.EqualValues(t, testKey(4), params[1].AddressQueuePubkey)

	proof.RootIndices = proof.RootIndices[:2]
	_, err = proof.NewAddressParams(query)
	assert.ErrorIs(t, err, ErrProofCardinalityMismatch)
	_, err = proof.InputRootIndices(query)
	assert.ErrorIs(t, err, ErrProofCardinalityMismatch)
}

func TestNewAddressParamsFromProof(t *testing.T) {
	seed := DeriveAddressSeed([][]byte{[]byte("seed")}, testKey(1))

	proof := &ValidityProof{
		RootIndices:     []uint16{3, 4},
		MerkleTrees:     []ed25519.PublicKey{testKey(1), testKey(3)},
		NullifierQueues: []ed25519.PublicKey{testKey(2), testKey(4)},
	}

	params, err := NewAddressParamsFromProof(seed, proof)
	require.NoError(t, err)
	assert.Equal(t, seed, params.Seed)
	assert.EqualValues(t, 4, params.AddressMerkleTreeRootIndex)
	assert.EqualValues(t, testKey(3), params.AddressMerkleTreePubkey)
	assert.EqualValues(t, testKey(4), params.AddressQueuePubkey)

	_, err = NewAddressParamsFromProof(seed, &ValidityProof{})
	assert.ErrorIs(t, err, ErrIncompleteProof)
}
