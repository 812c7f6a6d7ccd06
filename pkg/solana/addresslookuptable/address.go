package address_lookup_table

import (
	"crypto/ed25519"

	"github.com/nina-protocol/nina-go/pkg/solana"
	"github.com/nina-protocol/nina-go/pkg/solana/binary"
)

// GetAddress derives the lookup table address owned by authority and created
// at recentSlot.
func GetAddress(authority ed25519.PublicKey, recentSlot uint64) (ed25519.PublicKey, uint8, error) {
	var slot [8]byte
	var offset int
	binary.PutUint64(slot[:], recentSlot, &offset)

	return solana.FindProgramAddressAndBump(ProgramKey, authority, slot[:])
}
