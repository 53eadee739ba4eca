package pda

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProgramID = solana.MustPublicKeyFromBase58("2f71NvBTJDUq72fkdVvTDbsYCB3Z5Scmgev5zXjpnb79")

func TestFindProgramAddress_IsCanonical(t *testing.T) {
	seeds := [][]byte{[]byte("state")}

	addr, bump, err := FindProgramAddress(seeds, testProgramID)
	require.NoError(t, err)
	assert.False(t, IsOnCurve(addr[:]))

	// every bump above the canonical one must be on-curve
	for b := int(bump) + 1; b <= 255; b++ {
		_, err := CreateProgramAddress([][]byte{[]byte("state"), {byte(b)}}, testProgramID)
		assert.Equal(t, ErrOnCurveInvalidSeeds, err)
	}

	assert.True(t, VerifyProgramAddress(addr, seeds, bump, testProgramID))
}

func TestVerifyProgramAddress_RejectsOtherBumps(t *testing.T) {
	seeds := [][]byte{[]byte("withdraw"), testProgramID[:], {7}}

	addr, bump, err := FindProgramAddress(seeds, testProgramID)
	require.NoError(t, err)

	for b := 0; b < 256; b++ {
		if uint8(b) == bump {
			continue
		}
		assert.False(t, VerifyProgramAddress(addr, seeds, uint8(b), testProgramID))
	}
}

func TestVerifyProgramAddress_WrongProgram(t *testing.T) {
	seeds := [][]byte{[]byte("state")}
	addr, bump, err := FindProgramAddress(seeds, testProgramID)
	require.NoError(t, err)

	assert.False(t, VerifyProgramAddress(addr, seeds, bump, solana.SystemProgramID))
}

func TestCreateProgramAddress_SeedLimits(t *testing.T) {
	tooLong := make([]byte, MaxSeedLen+1)
	_, err := CreateProgramAddress([][]byte{tooLong}, testProgramID)
	assert.Equal(t, ErrSeedLength, err)

	tooMany := make([][]byte, MaxSeeds+1)
	_, err = CreateProgramAddress(tooMany, testProgramID)
	assert.Equal(t, ErrSeedLength, err)

	_, err = CreateProgramAddressBytes(nil, []byte{1, 2, 3})
	assert.Equal(t, ErrAddressLength, err)
}
