// Package shortvec implements the compact-u16 length prefix used throughout
// the Solana wire format.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedBytes = 3

// EncodeLen writes length as a compact-u16 into w.
//
// If length > math.MaxUint16, an error is returned.
func EncodeLen(w io.Writer, length int) (n int, err error) {
	if length < 0 || length > math.MaxUint16 {
		return 0, errors.Errorf("len %d outside [0, %d]", length, math.MaxUint16)
	}

	var buf [maxEncodedBytes]byte
	size := 0
	for {
		buf[size] = byte(length & 0x7f)
		length >>= 7
		if length == 0 {
			size++
			break
		}

		buf[size] |= 0x80
		size++
	}

	return w.Write(buf[:size])
}

// DecodeLen reads a compact-u16 length from r.
func DecodeLen(r io.Reader) (val int, err error) {
	var b [1]byte
	for size := 0; ; size++ {
		if size == maxEncodedBytes {
			return 0, errors.Errorf("invalid size: more than %d bytes", maxEncodedBytes)
		}

		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}

		val |= int(b[0]&0x7f) << (size * 7)
		if b[0]&0x80 == 0 {
			return val, nil
		}
	}
}
