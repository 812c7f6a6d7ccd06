package address_lookup_table

import (
	"crypto/ed25519"
	"fmt"
	"math"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/nina-protocol/nina-go/pkg/solana"
	"github.com/nina-protocol/nina-go/pkg/solana/binary"
)

var (
	ErrInvalidAccountSize = errors.New("invalid address lookup table account size")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidOwner       = errors.New("account is not owned by the address lookup table program")
	ErrDeactivated        = errors.New("address lookup table is deactivated")
)

const (
	lookupTableDiscriminator = 1

	// discriminator, deactivation slot, last extended slot, start index,
	// optional authority and two bytes of padding
	metadataSize = 56
	maxAddresses = 256

	optionSize = 1
)

// AddressLookupTableAccount is the decoded state of a lookup table account.
type AddressLookupTableAccount struct {
	DeactivationSlot           uint64
	LastExtendedSlot           uint64
	LastExtendedSlotStartIndex uint8
	Authority                  ed25519.PublicKey
	Addresses                  []ed25519.PublicKey
}

func (obj *AddressLookupTableAccount) Unmarshal(data []byte) error {
	if len(data) < metadataSize {
		return ErrInvalidAccountSize
	}

	var offset int

	var discriminator uint32
	binary.GetUint32(data[offset:], &discriminator, &offset)
	if discriminator != lookupTableDiscriminator {
		return ErrInvalidAccountType
	}

	binary.GetUint64(data[offset:], &obj.DeactivationSlot, &offset)
	binary.GetUint64(data[offset:], &obj.LastExtendedSlot, &offset)
	binary.GetUint8(data[offset:], &obj.LastExtendedSlotStartIndex, &offset)

	obj.Authority = nil
	binary.GetOptionalKey32(data[offset:], &obj.Authority, &offset, optionSize)

	offset = metadataSize

	addressBytes := len(data) - offset
	if addressBytes%ed25519.PublicKeySize != 0 || addressBytes/ed25519.PublicKeySize > maxAddresses {
		return ErrInvalidAccountSize
	}

	obj.Addresses = make([]ed25519.PublicKey, addressBytes/ed25519.PublicKeySize)
	for i := range obj.Addresses {
		binary.GetKey32(data[offset:], &obj.Addresses[i], &offset)
	}

	return nil
}

// IsActive reports whether the table can still be referenced by new
// transactions.
func (obj *AddressLookupTableAccount) IsActive() bool {
	return obj.DeactivationSlot == math.MaxUint64
}

// ToLookupTable converts the account into the form consumed when compiling
// v0 transactions.
func (obj *AddressLookupTableAccount) ToLookupTable(address ed25519.PublicKey) solana.AddressLookupTable {
	return solana.AddressLookupTable{
		PublicKey: address,
		Addresses: obj.Addresses,
	}
}

func (obj *AddressLookupTableAccount) String() string {
	var addresses strings.Builder
	addresses.WriteString("{")
	for i, address := range obj.Addresses {
		fmt.Fprintf(&addresses, "%d:%s,", i, base58.Encode(address))
	}
	addresses.WriteString("}")

	return fmt.Sprintf(
		"AddressLookupTable{deactivation_slot=%d,last_extended_slot=%d,last_extended_slot_start_index=%d,authority=%s,addresses=%s}",
		obj.DeactivationSlot,
		obj.LastExtendedSlot,
		obj.LastExtendedSlotStartIndex,
		base58.Encode(obj.Authority),
		addresses.String(),
	)
}

// Fetch loads an active lookup table from the chain.
func Fetch(client solana.Client, address ed25519.PublicKey, commitment solana.Commitment) (solana.AddressLookupTable, error) {
	info, err := client.GetAccountInfo(address, commitment)
	if err != nil {
		return solana.AddressLookupTable{}, errors.Wrapf(err, "failed to get lookup table %s", base58.Encode(address))
	}
	if !ProgramKey.Equal(info.Owner) {
		return solana.AddressLookupTable{}, ErrInvalidOwner
	}

	var account AddressLookupTableAccount
	if err := account.Unmarshal(info.Data); err != nil {
		return solana.AddressLookupTable{}, errors.Wrapf(err, "invalid lookup table %s", base58.Encode(address))
	}
	if !account.IsActive() {
		return solana.AddressLookupTable{}, ErrDeactivated
	}

	return account.ToLookupTable(address), nil
}
