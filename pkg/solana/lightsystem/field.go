package lightsystem

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

const (
	// FieldElementSize is the size, in bytes, of a big-endian BN254 field element.
	FieldElementSize = 32
)

var (
	ErrInvalidFieldElement = errors.New("invalid field element")
)

// FieldElement is a 32 byte big-endian value whose most significant byte is
// always zero, which keeps it strictly below the BN254 scalar field modulus.
type FieldElement [FieldElementSize]byte

// FieldElementFromBytes copies b into a FieldElement. The value must be exactly
// FieldElementSize bytes with a zero leading byte.
func FieldElementFromBytes(b []byte) (FieldElement, error) {
	var fe FieldElement
	if len(b) != FieldElementSize {
		return fe, errors.Wrapf(ErrInvalidFieldElement, "expected %d bytes, got %d", FieldElementSize, len(b))
	}
	if b[0] != 0 {
		return fe, errors.Wrap(ErrInvalidFieldElement, "leading byte is non-zero")
	}

	copy(fe[:], b)
	return fe, nil
}

// FieldElementFromBase58 decodes a base58 encoded field element, as returned by
// the indexer.
func FieldElementFromBase58(s string) (FieldElement, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return FieldElement{}, errors.Wrap(err, "invalid base58 field element")
	}
	return FieldElementFromBytes(decoded)
}

func (fe FieldElement) Bytes() []byte {
	b := make([]byte, FieldElementSize)
	copy(b, fe[:])
	return b
}

func (fe FieldElement) String() string {
	return base58.Encode(fe[:])
}

func (fe FieldElement) BigInt() *big.Int {
	return new(big.Int).SetBytes(fe[:])
}

// IsValid reports whether the element has a zero leading byte and lies within
// the BN254 scalar field.
func (fe FieldElement) IsValid() bool {
	return fe[0] == 0 && fe.BigInt().Cmp(fr.Modulus()) < 0
}

// HashvToBn254FieldSizeBe hashes the concatenation of the provided byte slices
// with Keccak-256 and zeroes the first byte of the digest. Input order is
// significant, and an empty input list still produces a deterministic result.
func HashvToBn254FieldSizeBe(inputs ...[]byte) FieldElement {
	h := sha3.NewLegacyKeccak256()
	for _, input := range inputs {
		// hash.Hash writes never return an error
		_, _ = h.Write(input)
	}

	var fe FieldElement
	copy(fe[:], h.Sum(nil))
	fe[0] = 0
	return fe
}
