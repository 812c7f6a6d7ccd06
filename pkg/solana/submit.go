package solana

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrTransactionTooLarge = errors.New("transaction exceeds max size")
)

// BuildSignAndSubmit compiles instructions into a v0 transaction against the
// latest blockhash, signs it with the payer and any additional signers, and
// submits it without preflight. It returns once the transaction is confirmed,
// or with the on-chain error if it failed.
func BuildSignAndSubmit(
	client Client,
	payer ed25519.PrivateKey,
	instructions []Instruction,
	lookupTables []AddressLookupTable,
	signers ...ed25519.PrivateKey,
) (Signature, error) {
	log := logrus.StandardLogger().WithField("type", "solana/submit")

	blockhash, err := client.GetLatestBlockhash()
	if err != nil {
		return Signature{}, errors.Wrap(err, "failed to get latest blockhash")
	}

	txn := NewV0Transaction(payer.Public().(ed25519.PublicKey), lookupTables, instructions)
	txn.SetBlockhash(blockhash)

	if err := txn.Sign(append([]ed25519.PrivateKey{payer}, signers...)...); err != nil {
		return Signature{}, errors.Wrap(err, "failed to sign transaction")
	}
	if size := len(txn.Marshal()); size > MaxTransactionSize {
		return Signature{}, errors.Wrapf(ErrTransactionTooLarge, "%d bytes", size)
	}

	sig, err := client.SubmitTransaction(txn, CommitmentConfirmed)
	if err != nil {
		return sig, errors.Wrap(err, "failed to submit transaction")
	}

	log = log.WithField("signature", base58.Encode(sig[:]))

	status, err := client.GetSignatureStatus(sig, CommitmentConfirmed)
	if err != nil {
		log.WithError(err).Warn("transaction not confirmed")
		return sig, errors.Wrap(err, "failed to confirm transaction")
	}
	if status != nil && status.ErrorResult != nil {
		log.WithError(status.ErrorResult).Debug("transaction failed")
		return sig, status.ErrorResult
	}

	log.Debug("transaction confirmed")
	return sig, nil
}
