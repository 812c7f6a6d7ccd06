package lightsystem

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/nina-protocol/nina-go/pkg/solana"
)

var (
	ErrProofCardinalityMismatch = errors.New("proof entries do not match the packed accounts")
	ErrNoAddressContext         = errors.New("no address context available")
	ErrNoStateContext           = errors.New("no state context available")
	ErrOutputTreeMismatch       = errors.New("output state trees do not match output accounts")
	ErrIndexOverflow            = errors.New("reference table index overflow")
	ErrTableConsumed            = errors.New("reference table already consumed")
	ErrUnknownTree              = errors.New("unknown merkle tree")
	ErrInvalidInstructionData   = errors.New("unexpected instruction data")
)

var (
	LIGHT_SYSTEM_PROGRAM_ID        = ed25519.PublicKey(mustBase58Decode("SySTEM1eSU2p4BGQfQpimFEWWSC1XDFeun3Nqzz3rT7"))
	ACCOUNT_COMPRESSION_PROGRAM_ID = ed25519.PublicKey(mustBase58Decode("compr6CUsB5m2jS4Y3831ztGSTnDpnKJTKS95d64XVq"))
	NOOP_PROGRAM_ID                = ed25519.PublicKey(mustBase58Decode("noopb9bkMVfRPU8AsbpTUg8AQkHtKwMYZiFUjNRtMmV"))
	SYSTEM_PROGRAM_ID              = ed25519.PublicKey(mustBase58Decode("11111111111111111111111111111111"))
)

// SystemAccounts are the fixed accounts a program forwards to the light
// system program when it CPIs with compressed account state. They precede
// the remaining accounts in the instruction.
type SystemAccounts struct {
	LightSystemProgram          ed25519.PublicKey
	CPIAuthority                ed25519.PublicKey
	RegisteredProgramPDA        ed25519.PublicKey
	NoopProgram                 ed25519.PublicKey
	AccountCompressionAuthority ed25519.PublicKey
	AccountCompressionProgram   ed25519.PublicKey
	SystemProgram               ed25519.PublicKey
}

// GetSystemAccounts resolves the light system accounts for a program that
// invokes the light system program.
func GetSystemAccounts(invokingProgram ed25519.PublicKey) (*SystemAccounts, error) {
	cpiAuthority, _, err := GetCPIAuthorityAddress(invokingProgram)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive cpi authority")
	}

	registeredProgram, _, err := GetRegisteredProgramAddress()
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive registered program pda")
	}

	compressionAuthority, _, err := GetAccountCompressionAuthorityAddress()
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive account compression authority")
	}

	return &SystemAccounts{
		LightSystemProgram:          LIGHT_SYSTEM_PROGRAM_ID,
		CPIAuthority:                cpiAuthority,
		RegisteredProgramPDA:        registeredProgram,
		NoopProgram:                 NOOP_PROGRAM_ID,
		AccountCompressionAuthority: compressionAuthority,
		AccountCompressionProgram:   ACCOUNT_COMPRESSION_PROGRAM_ID,
		SystemProgram:               SYSTEM_PROGRAM_ID,
	}, nil
}

// AccountMetas returns the system accounts in the order the light system
// program expects them. None of them are writable or signers.
func (a *SystemAccounts) AccountMetas() []solana.AccountMeta {
	return []solana.AccountMeta{
		solana.NewReadonlyAccountMeta(a.LightSystemProgram, false),
		solana.NewReadonlyAccountMeta(a.CPIAuthority, false),
		solana.NewReadonlyAccountMeta(a.RegisteredProgramPDA, false),
		solana.NewReadonlyAccountMeta(a.NoopProgram, false),
		solana.NewReadonlyAccountMeta(a.AccountCompressionAuthority, false),
		solana.NewReadonlyAccountMeta(a.AccountCompressionProgram, false),
		solana.NewReadonlyAccountMeta(a.SystemProgram, false),
	}
}

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
