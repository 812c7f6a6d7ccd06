// Package binary provides offset-tracking little endian helpers for Solana
// account and instruction layouts.
//
// Every helper reads from or writes to the start of the provided slice and
// advances offset by the number of bytes consumed, so callers pass
// data[offset:] and the running offset together.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst, src)
	*offset += ed25519.PublicKeySize
}

func PutBytes(dst []byte, src []byte, offset *int) {
	copy(dst, src)
	*offset += len(src)
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst, v)
	*offset += 8
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst, v)
	*offset += 4
}

func PutUint16(dst []byte, v uint16, offset *int) {
	binary.LittleEndian.PutUint16(dst, v)
	*offset += 2
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[0] = v
	*offset += 1
}

// PutBorshOptionalUint16 writes a Borsh Option<u16>: a zero tag when v is nil,
// otherwise a one tag followed by the value.
func PutBorshOptionalUint16(dst []byte, v *uint16, offset *int) {
	if v == nil {
		PutUint8(dst, 0, offset)
		return
	}

	PutUint8(dst, 1, offset)
	PutUint16(dst[1:], *v, offset)
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src)
	*offset += ed25519.PublicKeySize
}

// GetOptionalKey32 reads a fixed size optional key, where the value occupies
// its slot whether or not the option tag is set.
func GetOptionalKey32(src []byte, dst *ed25519.PublicKey, offset *int, optionSize int) {
	if src[0] == 1 {
		*dst = make([]byte, ed25519.PublicKeySize)
		copy(*dst, src[optionSize:])
	}
	*offset += optionSize + ed25519.PublicKeySize
}

func GetBytes(src []byte, dst []byte, offset *int) {
	copy(dst, src)
	*offset += len(dst)
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src)
	*offset += 8
}

func GetUint32(src []byte, dst *uint32, offset *int) {
	*dst = binary.LittleEndian.Uint32(src)
	*offset += 4
}

func GetUint16(src []byte, dst *uint16, offset *int) {
	*dst = binary.LittleEndian.Uint16(src)
	*offset += 2
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[0]
	*offset += 1
}

// GetBorshOptionalUint16 reads a Borsh Option<u16>. It returns false when the
// tag is invalid or the value is truncated.
func GetBorshOptionalUint16(src []byte, dst **uint16, offset *int) bool {
	if len(src) < 1 {
		return false
	}

	switch src[0] {
	case 0:
		*dst = nil
		*offset += 1
		return true
	case 1:
		if len(src) < 3 {
			return false
		}

		var v uint16
		*offset += 1
		GetUint16(src[1:], &v, offset)
		*dst = &v
		return true
	default:
		return false
	}
}
