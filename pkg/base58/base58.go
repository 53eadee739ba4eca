// Package base58 wraps base58 address handling for 32-byte account keys.
package base58

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// MustDecodeFromString decodes a base58 address into a 32-byte key.
// Panics if the string is not valid base58 or does not decode to exactly 32 bytes.
// Intended for package-level address constants.
func MustDecodeFromString(s string) [32]byte {
	out, err := DecodeFromString(s)
	if err != nil {
		panic(err.Error())
	}
	return out
}

func DecodeFromString(s string) ([32]byte, error) {
	var out [32]byte
	b, err := base58.Decode(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("invalid address length %d for %q", len(b), s)
	}
	copy(out[:], b)
	return out, nil
}

func Encode(b []byte) string {
	return base58.Encode(b)
}
