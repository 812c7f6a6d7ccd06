package address_lookup_table

import (
	"crypto/ed25519"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nina-protocol/nina-go/pkg/solana"
	"github.com/nina-protocol/nina-go/pkg/solana/binary"
)

type accountClient struct {
	solana.Client

	accounts map[string]solana.AccountInfo
}

func (c *accountClient) GetAccountInfo(account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	info, ok := c.accounts[string(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func testKey(b byte) ed25519.PublicKey {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := range key {
		key[i] = b
	}
	return key
}

func encodeTable(deactivationSlot uint64, authority ed25519.PublicKey, addresses ...ed25519.PublicKey) []byte {
	data := make([]byte, metadataSize+len(addresses)*ed25519.PublicKeySize)

	var offset int
	binary.PutUint32(data[offset:], lookupTableDiscriminator, &offset)
	binary.PutUint64(data[offset:], deactivationSlot, &offset)
	binary.PutUint64(data[offset:], 42, &offset)
	binary.PutUint8(data[offset:], 1, &offset)
	if authority != nil {
		binary.PutUint8(data[offset:], 1, &offset)
		binary.PutKey32(data[offset:], authority, &offset)
	}

	offset = metadataSize
	for _, address := range addresses {
		binary.PutKey32(data[offset:], address, &offset)
	}
	return data
}

func TestAddressLookupTableAccount_Unmarshal(t *testing.T) {
	authority := testKey(7)
	data := encodeTable(math.MaxUint64, authority, testKey(1), testKey(2), testKey(3))

	var account AddressLookupTableAccount
	require.NoError(t, account.Unmarshal(data))

	assert.EqualValues(t, uint64(math.MaxUint64), account.DeactivationSlot)
	assert.EqualValues(t, 42, account.LastExtendedSlot)
	assert.EqualValues(t, 1, account.LastExtendedSlotStartIndex)
	assert.Equal(t, authority, account.Authority)
	assert.Equal(t, []ed25519.PublicKey{testKey(1), testKey(2), testKey(3)}, account.Addresses)
	assert.True(t, account.IsActive())

	frozen := encodeTable(math.MaxUint64, nil, testKey(1))
	require.NoError(t, account.Unmarshal(frozen))
	assert.Nil(t, account.Authority)
	assert.Len(t, account.Addresses, 1)
}

func TestAddressLookupTableAccount_Invalid(t *testing.T) {
	var account AddressLookupTableAccount

	assert.Equal(t, ErrInvalidAccountSize, account.Unmarshal(make([]byte, metadataSize-1)))
	assert.Equal(t, ErrInvalidAccountType, account.Unmarshal(make([]byte, metadataSize)))

	data := encodeTable(math.MaxUint64, nil, testKey(1))
	assert.Equal(t, ErrInvalidAccountSize, account.Unmarshal(data[:len(data)-1]))
}

func TestFetch(t *testing.T) {
	active := testKey(10)
	deactivated := testKey(11)
	foreign := testKey(12)

	client := &accountClient{
		accounts: map[string]solana.AccountInfo{
			string(active): {
				Owner: ProgramKey,
				Data:  encodeTable(math.MaxUint64, nil, testKey(1), testKey(2)),
			},
			string(deactivated): {
				Owner: ProgramKey,
				Data:  encodeTable(100, nil, testKey(1)),
			},
			string(foreign): {
				Owner: testKey(0),
				Data:  encodeTable(math.MaxUint64, nil, testKey(1)),
			},
		},
	}

	table, err := Fetch(client, active, solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, active, table.PublicKey)
	assert.Equal(t, []ed25519.PublicKey{testKey(1), testKey(2)}, table.Addresses)

	_, err = Fetch(client, deactivated, solana.CommitmentConfirmed)
	assert.Equal(t, ErrDeactivated, err)

	_, err = Fetch(client, foreign, solana.CommitmentConfirmed)
	assert.Equal(t, ErrInvalidOwner, err)

	_, err = Fetch(client, testKey(13), solana.CommitmentConfirmed)
	assert.ErrorIs(t, err, solana.ErrNoAccountInfo)
}

func TestCreateAndExtend(t *testing.T) {
	authority := testKey(1)
	payer := testKey(2)

	alt, bump, err := GetAddress(authority, 1234)
	require.NoError(t, err)

	create := Create(alt, authority, payer, 1234, bump)
	assert.Equal(t, ProgramKey, create.Program)
	require.Len(t, create.Data, 13)
	assert.Equal(t, []byte{0, 0, 0, 0}, create.Data[:4])
	assert.Equal(t, []byte{0xd2, 0x04, 0, 0, 0, 0, 0, 0}, create.Data[4:12])
	assert.Equal(t, bump, create.Data[12])
	require.Len(t, create.Accounts, 4)
	assert.Equal(t, alt, create.Accounts[0].PublicKey)
	assert.True(t, create.Accounts[1].IsSigner)
	assert.False(t, create.Accounts[1].IsWritable)

	extend := Extend(alt, authority, payer, testKey(3), testKey(4))
	require.Len(t, extend.Data, 4+8+2*32)
	assert.Equal(t, []byte{2, 0, 0, 0}, extend.Data[:4])
	assert.Equal(t, []byte{2, 0, 0, 0, 0, 0, 0, 0}, extend.Data[4:12])
	assert.Equal(t, []byte(testKey(4)), extend.Data[44:])
}
