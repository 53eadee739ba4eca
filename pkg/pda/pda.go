// Package pda derives program-derived addresses.
//
// An address is sha256(seeds... || program_id || "ProgramDerivedAddress")
// and is only valid if it does not lie on the ed25519 curve. The final
// seed of a "bumped" address is a single byte chosen so that the hash
// lands off-curve; FindProgramAddress searches for the canonical (highest)
// bump, VerifyProgramAddress recomputes with a declared bump and never
// searches.
package pda

import (
	"errors"
	"math"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
	"github.com/minio/sha256-simd"
)

const MaxSeeds = 16
const MaxSeedLen = 32
const PublicKeyLength = 32
const PdaMarker = "ProgramDerivedAddress"

var (
	ErrSeedLength          = errors.New("Max seeds (16) exceeded")
	ErrAddressLength       = errors.New("Wrong key length; addresses are 32 bytes long")
	ErrOnCurveInvalidSeeds = errors.New("Invalid seeds - generated address must be off-curve")
	ErrNoViableBump        = errors.New("Unable to find a viable program address bump seed")
)

func CreateProgramAddressBytes(seeds [][]byte, programID []byte) ([]byte, error) {
	// the bump (when present) counts against MaxSeeds as well
	if len(seeds) > MaxSeeds {
		return nil, ErrSeedLength
	}

	if len(programID) != PublicKeyLength {
		return nil, ErrAddressLength
	}

	hasher := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return nil, ErrSeedLength
		}
		hasher.Write(seed)
	}

	hasher.Write(programID)
	hasher.Write([]byte(PdaMarker))
	hash := hasher.Sum(nil)

	if IsOnCurve(hash[:]) {
		return nil, ErrOnCurveInvalidSeeds
	}

	return hash[:], nil
}

func CreateProgramAddress(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, error) {
	addr, err := CreateProgramAddressBytes(seeds, programID[:])
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(addr), nil
}

// FindProgramAddress returns the address for the canonical bump, i.e. the
// highest bump value for which the derived address is off-curve.
func FindProgramAddress(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return solana.PublicKey{}, 0, ErrSeedLength
	}

	seedsWithBump := make([][]byte, len(seeds)+1)
	copy(seedsWithBump, seeds)

	for bump := uint8(math.MaxUint8); ; bump-- {
		seedsWithBump[len(seeds)] = []byte{bump}
		addr, err := CreateProgramAddress(seedsWithBump, programID)
		if err == nil {
			return addr, bump, nil
		}
		if err != ErrOnCurveInvalidSeeds {
			return solana.PublicKey{}, 0, err
		}
		if bump == 0 {
			break
		}
	}

	return solana.PublicKey{}, 0, ErrNoViableBump
}

// VerifyProgramAddress recomputes the address with exactly the given bump
// and reports whether it equals addr.
func VerifyProgramAddress(addr solana.PublicKey, seeds [][]byte, bump uint8, programID solana.PublicKey) bool {
	seedsWithBump := make([][]byte, 0, len(seeds)+1)
	seedsWithBump = append(seedsWithBump, seeds...)
	seedsWithBump = append(seedsWithBump, []byte{bump})

	derived, err := CreateProgramAddress(seedsWithBump, programID)
	if err != nil {
		return false
	}
	return derived == addr
}

// IsOnCurve checks if 'b' is on the ed25519 curve
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	onCurve := err == nil
	return onCurve
}
