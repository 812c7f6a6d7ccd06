package solana

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitClient struct {
	Client

	blockhash Blockhash
	submitted []Transaction
	status    *SignatureStatus
	submitErr error
}

func (c *submitClient) GetLatestBlockhash() (Blockhash, error) {
	return c.blockhash, nil
}

func (c *submitClient) SubmitTransaction(txn Transaction, commitment Commitment) (Signature, error) {
	c.submitted = append(c.submitted, txn)
	return txn.Signatures[0], c.submitErr
}

func (c *submitClient) GetSignatureStatus(sig Signature, commitment Commitment) (*SignatureStatus, error) {
	return c.status, nil
}

func TestBuildSignAndSubmit(t *testing.T) {
	keys := generateKeys(t, 3)
	payer, signer, program := keys[0], keys[1], keys[2]

	readonly := generateKeys(t, 1)[0]
	table := AddressLookupTable{
		PublicKey: public(generateKeys(t, 1)[0]),
		Addresses: []ed25519.PublicKey{public(readonly)},
	}

	client := &submitClient{
		blockhash: Blockhash{1, 2, 3},
		status:    &SignatureStatus{ConfirmationStatus: confirmationStatusConfirmed},
	}

	ixn := NewInstruction(
		public(program),
		[]byte{9},
		NewReadonlyAccountMeta(public(signer), true),
		NewReadonlyAccountMeta(public(readonly), false),
	)

	sig, err := BuildSignAndSubmit(client, payer, []Instruction{ixn}, []AddressLookupTable{table}, signer)
	require.NoError(t, err)
	require.Len(t, client.submitted, 1)

	txn := client.submitted[0]
	assert.Equal(t, MessageVersion0, txn.Message.Version)
	assert.Equal(t, client.blockhash, txn.Message.RecentBlockhash)
	assert.Equal(t, txn.Signatures[0], sig)
	require.Len(t, txn.Message.AddressTableLookups, 1)
	assert.Equal(t, []byte{0}, txn.Message.AddressTableLookups[0].ReadonlyIndexes)

	message := txn.Message.Marshal()
	assert.True(t, ed25519.Verify(public(payer), message, txn.Signatures[0][:]))
	assert.True(t, ed25519.Verify(public(signer), message, txn.Signatures[1][:]))
}

func TestBuildSignAndSubmit_Failures(t *testing.T) {
	keys := generateKeys(t, 3)
	payer, signer, program := keys[0], keys[1], keys[2]
	ixn := NewInstruction(public(program), nil, NewAccountMeta(public(signer), true))

	client := &submitClient{status: &SignatureStatus{}}

	// An unrelated signer cannot be placed in the transaction.
	_, err := BuildSignAndSubmit(client, payer, []Instruction{ixn}, nil, generateKeys(t, 1)[0])
	assert.ErrorIs(t, err, ErrUnknownSigner)
	assert.Empty(t, client.submitted)

	txErr := NewTransactionError(TransactionErrorBlockhashNotFound)
	client.status = &SignatureStatus{ErrorResult: txErr}
	_, err = BuildSignAndSubmit(client, payer, []Instruction{ixn}, nil, signer)
	assert.Equal(t, txErr, err)

	client.submitErr = errors.New("connection refused")
	_, err = BuildSignAndSubmit(client, payer, []Instruction{ixn}, nil, signer)
	assert.ErrorIs(t, err, client.submitErr)

	client.submitErr = nil
	big := NewInstruction(public(program), make([]byte, MaxTransactionSize), NewAccountMeta(public(signer), true))
	_, err = BuildSignAndSubmit(client, payer, []Instruction{big}, nil, signer)
	assert.ErrorIs(t, err, ErrTransactionTooLarge)
}
