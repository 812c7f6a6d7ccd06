package lightsystem

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nina-protocol/nina-go/pkg/solana"
)

func TestPackCompressedAccounts_SingleInput(t *testing.T) {
	tree, queue := testKey(1), testKey(2)

	input := testInputAccount(tree, queue, 5)
	output := CompressedAccount{Owner: testKey(9), Lamports: 10}

	table := NewReferenceTable()
	packed, err := PackCompressedAccounts(table, []CompressedAccountWithMerkleContext{input}, []uint16{42}, []CompressedAccount{output})
	require.NoError(t, err)

	require.Len(t, packed.Inputs, 1)
	assert.Equal(t, PackedMerkleContext{
		MerkleTreePubkeyIndex:     0,
		NullifierQueuePubkeyIndex: 1,
		LeafIndex:                 5,
		QueueIndex:                nil,
	}, packed.Inputs[0].MerkleContext)
	assert.EqualValues(t, 42, packed.Inputs[0].RootIndex)
	assert.Equal(t, input.CompressedAccount, packed.Inputs[0].CompressedAccount)
	assert.Equal(t, []PackedMerkleContext{packed.Inputs[0].MerkleContext}, packed.MerkleContexts())

	// The output lands in the input's tree, which is already registered
	require.Len(t, packed.Outputs, 1)
	assert.EqualValues(t, 0, packed.Outputs[0].MerkleTreeIndex)
	assert.Equal(t, output, packed.Outputs[0].CompressedAccount)

	metas := FormatRemainingAccounts(table)
	require.Len(t, metas, 2)
	assert.EqualValues(t, tree, metas[0].PublicKey)
	assert.EqualValues(t, queue, metas[1].PublicKey)
}

func TestPackCompressedAccounts_QueueIndexCarriedThrough(t *testing.T) {
	queueIndex := uint16(7)

	input := testInputAccount(testKey(1), testKey(2), 3)
	input.QueueIndex = &queueIndex

	packed, err := PackInputAccounts(NewReferenceTable(), []CompressedAccountWithMerkleContext{input}, []uint16{1})
	require.NoError(t, err)
	require.NotNil(t, packed[0].MerkleContext.QueueIndex)
	assert.EqualValues(t, 7, *packed[0].MerkleContext.QueueIndex)
	assert.NotSame(t, input.QueueIndex, packed[0].MerkleContext.QueueIndex)
}

func TestPackCompressedAccounts_OrderPreservingRoundTrip(t *testing.T) {
	a, b, c := testKey(1), testKey(2), testKey(3)
	qa, qb, qc := testKey(11), testKey(12), testKey(13)

	inputs := []CompressedAccountWithMerkleContext{
		testInputAccount(a, qa, 0),
		testInputAccount(b, qb, 1),
		testInputAccount(a, qa, 2),
		testInputAccount(c, qc, 3),
	}

	table := NewReferenceTable()
	packed, err := PackCompressedAccounts(table, inputs, []uint16{4, 3, 2, 1}, nil)
	require.NoError(t, err)

	var treeIndices []uint8
	for _, input := range packed.Inputs {
		treeIndices = append(treeIndices, input.MerkleContext.MerkleTreePubkeyIndex)
	}
	assert.Equal(t, []uint8{0, 2, 0, 4}, treeIndices)

	metas := FormatRemainingAccounts(table)
	require.Len(t, metas, 6)

	for i, input := range packed.Inputs {
		assert.EqualValues(t, inputs[i].MerkleTree, resolve(t, metas, input.MerkleContext.MerkleTreePubkeyIndex))
		assert.EqualValues(t, inputs[i].NullifierQueue, resolve(t, metas, input.MerkleContext.NullifierQueuePubkeyIndex))
		assert.Equal(t, inputs[i].LeafIndex, input.MerkleContext.LeafIndex)
		assert.EqualValues(t, 4-i, input.RootIndex)
	}
}

func TestPackCompressedAccounts_CardinalityMismatch(t *testing.T) {
	inputs := []CompressedAccountWithMerkleContext{
		testInputAccount(testKey(1), testKey(2), 0),
		testInputAccount(testKey(1), testKey(2), 1),
	}

	table := NewReferenceTable()
	_, err := PackCompressedAccounts(table, inputs, []uint16{1}, nil)
	assert.ErrorIs(t, err, ErrProofCardinalityMismatch)
	assert.Equal(t, 0, table.Len())

	_, err = PackCompressedAccounts(table, inputs[:1], []uint16{1, 2}, nil)
	assert.ErrorIs(t, err, ErrProofCardinalityMismatch)
}

func TestPackCompressedAccounts_OutputTreeMismatchLeavesTableUnchanged(t *testing.T) {
	inputs := []CompressedAccountWithMerkleContext{testInputAccount(testKey(1), testKey(2), 0)}
	outputs := []CompressedAccount{{Owner: testKey(9)}, {Owner: testKey(9)}, {Owner: testKey(9)}}

	table := NewReferenceTable()
	_, err := PackCompressedAccounts(table, inputs, []uint16{1}, outputs, testKey(3), testKey(4))
	assert.ErrorIs(t, err, ErrOutputTreeMismatch)
	assert.Equal(t, 0, table.Len())

	packed, err := PackCompressedAccounts(table, inputs, []uint16{1}, outputs, testKey(3))
	require.NoError(t, err)
	assert.Len(t, packed.Outputs, 3)
	assert.Equal(t, 3, table.Len())
}

func TestPackCompressedAccounts_NoStateContext(t *testing.T) {
	outputs := []CompressedAccount{{Owner: testKey(9)}}

	_, err := PackCompressedAccounts(NewReferenceTable(), nil, nil, outputs)
	assert.ErrorIs(t, err, ErrNoStateContext)

	// No outputs and no inputs needs no state tree at all
	packed, err := PackCompressedAccounts(NewReferenceTable(), nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, packed.Inputs)
	assert.Empty(t, packed.Outputs)
}

func TestPackOutputAccounts(t *testing.T) {
	outputs := []CompressedAccount{{Lamports: 1}, {Lamports: 2}, {Lamports: 3}}

	table := NewReferenceTable()
	packed, err := PackOutputAccounts(table, outputs, testKey(1))
	require.NoError(t, err)
	for _, output := range packed {
		assert.EqualValues(t, 0, output.MerkleTreeIndex)
	}

	packed, err = PackOutputAccounts(table, outputs, testKey(2), testKey(1), testKey(3))
	require.NoError(t, err)
	assert.EqualValues(t, 1, packed[0].MerkleTreeIndex)
	assert.EqualValues(t, 0, packed[1].MerkleTreeIndex)
	assert.EqualValues(t, 2, packed[2].MerkleTreeIndex)

	_, err = PackOutputAccounts(table, outputs, testKey(1), testKey(2))
	assert.ErrorIs(t, err, ErrOutputTreeMismatch)

	_, err = PackOutputAccounts(table, outputs)
	assert.ErrorIs(t, err, ErrNoStateContext)
}

func TestPackNewAddressParams_SharedTree(t *testing.T) {
	addressTree, addressQueue := testKey(20), testKey(21)

	params := []NewAddressParams{
		{
			Seed:                       DeriveAddressSeed([][]byte{[]byte("one")}, testKey(1)),
			AddressMerkleTreeRootIndex: 3,
			AddressMerkleTreePubkey:    addressTree,
			AddressQueuePubkey:         addressQueue,
		},
		{
			Seed:                       DeriveAddressSeed([][]byte{[]byte("two")}, testKey(1)),
			AddressMerkleTreeRootIndex: 4,
			AddressMerkleTreePubkey:    addressTree,
			AddressQueuePubkey:         addressQueue,
		},
	}

	table := NewReferenceTable()
	packed, err := PackNewAddressParams(table, params)
	require.NoError(t, err)
	require.Len(t, packed, 2)

	for i, p := range packed {
		assert.Equal(t, params[i].Seed, p.Seed)
		assert.Equal(t, params[i].AddressMerkleTreeRootIndex, p.AddressMerkleTreeRootIndex)
		assert.EqualValues(t, 0, p.AddressMerkleTreeAccountIndex)
		assert.EqualValues(t, 1, p.AddressQueueAccountIndex)
	}

	metas := FormatRemainingAccounts(table)
	require.Len(t, metas, 2)
	assert.EqualValues(t, addressTree, metas[0].PublicKey)
	assert.EqualValues(t, addressQueue, metas[1].PublicKey)
}

func TestPackNewAddressParams_SharesTableWithAccounts(t *testing.T) {
	tree, queue := testKey(1), testKey(2)
	addressTree, addressQueue := testKey(3), testKey(4)

	table := NewReferenceTable()
	_, err := PackCompressedAccounts(table, []CompressedAccountWithMerkleContext{testInputAccount(tree, queue, 0)}, []uint16{0}, nil)
	require.NoError(t, err)

	packed, err := PackNewAddressParams(table, []NewAddressParams{{
		AddressMerkleTreePubkey: addressTree,
		AddressQueuePubkey:      addressQueue,
	}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, packed[0].AddressMerkleTreeAccountIndex)
	assert.EqualValues(t, 3, packed[0].AddressQueueAccountIndex)

	metas := FormatRemainingAccounts(table)
	assert.EqualValues(t, addressTree, resolve(t, metas, packed[0].AddressMerkleTreeAccountIndex))
	assert.EqualValues(t, addressQueue, resolve(t, metas, packed[0].AddressQueueAccountIndex))
}

func TestPackQuery(t *testing.T) {
	tree, queue := testKey(1), testKey(2)
	addressTree, addressQueue := testKey(3), testKey(4)

	input := testInputAccount(tree, queue, 8)
	request := NewAddressRequest{
		Seed:         DeriveAddressSeed([][]byte{[]byte("release")}, testKey(5)),
		AddressTree:  addressTree,
		AddressQueue: addressQueue,
	}

	query := NewProofQuery().AddInputAccount(input).AddNewAddress(request)
	proof := testProof(query, 11, 12)

	table := NewReferenceTable()
	packed, err := PackQuery(table, query, proof, []CompressedAccount{{Lamports: 1}})
	require.NoError(t, err)

	assert.Equal(t, *proof.CompressedProof, packed.Proof)
	require.Len(t, packed.Inputs, 1)
	assert.EqualValues(t, 11, packed.Inputs[0].RootIndex)
	require.Len(t, packed.Outputs, 1)
	assert.EqualValues(t, 0, packed.Outputs[0].MerkleTreeIndex)
	require.Len(t, packed.NewAddresses, 1)
	assert.Equal(t, request.Seed, packed.NewAddresses[0].Seed)
	assert.EqualValues(t, 12, packed.NewAddresses[0].AddressMerkleTreeRootIndex)
	assert.EqualValues(t, 2, packed.NewAddresses[0].AddressMerkleTreeAccountIndex)
	assert.EqualValues(t, 3, packed.NewAddresses[0].AddressQueueAccountIndex)

	assert.Len(t, FormatRemainingAccounts(table), 4)
}

func TestPackQuery_RejectsMismatchedProof(t *testing.T) {
	query := NewProofQuery().AddInputAccount(
		testInputAccount(testKey(1), testKey(2), 0),
		testInputAccount(testKey(1), testKey(2), 1),
	)

	proof := testProof(query, 1, 2)
	proof.RootIndices = proof.RootIndices[:1]

	table := NewReferenceTable()
	_, err := PackQuery(table, query, proof, nil)
	assert.ErrorIs(t, err, ErrProofCardinalityMismatch)
	assert.Equal(t, 0, table.Len())
}

func TestPackQuery_MissingProof(t *testing.T) {
	request := NewAddressRequest{
		Seed:         DeriveAddressSeed(nil, testKey(5)),
		AddressTree:  testKey(3),
		AddressQueue: testKey(4),
	}

	for _, query := range []*ProofQuery{
		NewProofQuery(),
		NewProofQuery().AddNewAddress(request),
		NewProofQuery().AddInputAccount(testInputAccount(testKey(1), testKey(2), 0)),
	} {
		table := NewReferenceTable()
		_, err := PackQuery(table, query, nil, nil)
		assert.ErrorIs(t, err, ErrIncompleteProof)
		assert.Equal(t, 0, table.Len())
	}

	_, err := PackWithInput(NewReferenceTable(), NewProofQuery().AddInputAccount(testInputAccount(testKey(1), testKey(2), 0)), nil, nil, nil)
	assert.ErrorIs(t, err, ErrIncompleteProof)

	_, err = PackNew(NewReferenceTable(), NewProofQuery().AddNewAddress(request), nil, nil, StateFallback{MerkleTree: testKey(1), NullifierQueue: testKey(2)})
	assert.ErrorIs(t, err, ErrIncompleteProof)
}

func testInputAccount(tree, queue ed25519.PublicKey, leafIndex uint32) CompressedAccountWithMerkleContext {
	var hash Hash
	hash[0] = 0xff
	hash[1] = byte(leafIndex)
	copy(hash[2:], tree[:8])

	return CompressedAccountWithMerkleContext{
		CompressedAccount: CompressedAccount{
			Owner:    testKey(100),
			Lamports: uint64(leafIndex),
		},
		MerkleContext: MerkleContext{
			MerkleTree:     tree,
			NullifierQueue: queue,
			LeafIndex:      leafIndex,
		},
		Hash: hash,
	}
}

// testProof builds a proof that matches the query, using the provided root
// indices in query order.
func testProof(query *ProofQuery, rootIndices ...uint16) *ValidityProof {
	proof := &ValidityProof{
		CompressedProof: &CompressedProof{A: [32]byte{1}, B: [64]byte{2}, C: [32]byte{3}},
		RootIndices:     rootIndices,
	}
	for _, input := range query.InputAccounts() {
		proof.MerkleTrees = append(proof.MerkleTrees, input.MerkleTree)
		proof.NullifierQueues = append(proof.NullifierQueues, input.NullifierQueue)
		proof.Leaves = append(proof.Leaves, input.Hash)
		proof.LeafIndices = append(proof.LeafIndices, input.LeafIndex)
	}
	for _, address := range query.NewAddresses() {
		proof.MerkleTrees = append(proof.MerkleTrees, address.AddressTree)
		proof.NullifierQueues = append(proof.NullifierQueues, address.AddressQueue)
		proof.Leaves = append(proof.Leaves, Hash(address.Address()))
		proof.LeafIndices = append(proof.LeafIndices, 0)
	}
	return proof
}

func resolve(t *testing.T, metas []solana.AccountMeta, index uint8) ed25519.PublicKey {
	require.Less(t, int(index), len(metas))
	return metas[index].PublicKey
}
