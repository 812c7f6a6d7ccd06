package lightsystem

import (
	"crypto/ed25519"

	"github.com/nina-protocol/nina-go/pkg/solana"
)

var (
	cpiAuthorityPrefix = []byte("cpi_authority")
)

// DeriveAddressSeed derives the seed for a new compressed account address. The
// hash input is the program id followed by each seed, in order, so any two
// parties that agree on both always arrive at the same seed.
func DeriveAddressSeed(seeds [][]byte, programID ed25519.PublicKey) FieldElement {
	inputs := make([][]byte, 0, len(seeds)+1)
	inputs = append(inputs, programID)
	inputs = append(inputs, seeds...)
	return HashvToBn254FieldSizeBe(inputs...)
}

// DeriveAddress derives the address that a seed resolves to within a specific
// address tree.
func DeriveAddress(seed FieldElement, addressTree ed25519.PublicKey) FieldElement {
	return HashvToBn254FieldSizeBe(addressTree, seed[:])
}

// GetCPIAuthorityAddress returns the PDA a program signs with when invoking
// the light system program.
func GetCPIAuthorityAddress(program ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		program,
		cpiAuthorityPrefix,
	)
}

// GetAccountCompressionAuthorityAddress returns the light system program's own
// CPI authority over the account compression program.
func GetAccountCompressionAuthorityAddress() (ed25519.PublicKey, uint8, error) {
	return GetCPIAuthorityAddress(LIGHT_SYSTEM_PROGRAM_ID)
}

// GetRegisteredProgramAddress returns the account compression program's
// registration record for the light system program.
func GetRegisteredProgramAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		ACCOUNT_COMPRESSION_PROGRAM_ID,
		LIGHT_SYSTEM_PROGRAM_ID,
	)
}
