package lst

import (
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToReceipt_Bootstrap(t *testing.T) {
	for _, tc := range []struct {
		nonEscrowed, supply uint64
	}{
		{0, 0},
		{0, 5},
		{5, 0},
	} {
		out, err := ToReceipt(10, tc.nonEscrowed, tc.supply)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), out)
	}

	out, err := ToReceipt(math.MaxUint64, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), out)
}

func TestToBase_EmptyPool(t *testing.T) {
	_, err := ToBase(10, 0, 0)
	assert.ErrorIs(t, err, ErrArithmetic)
	_, err = ToBase(10, 5, 0)
	assert.ErrorIs(t, err, ErrArithmetic)
	_, err = ToBase(10, 0, 5)
	assert.ErrorIs(t, err, ErrArithmetic)
}

func TestToReceipt_Nominal(t *testing.T) {
	out, err := ToReceipt(100_000_000_000, 400_000_000_000, 200_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000_000_012), out)

	// 1,000,000 receipts backed by 1,250,000 base
	out, err = ToBase(100_000, 1_250_000, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(124_997), out)
}

func TestConversion_Overflow(t *testing.T) {
	_, err := ToReceipt(math.MaxUint64, math.MaxUint64, math.MaxUint64)
	assert.ErrorIs(t, err, ErrArithmetic)

	// product fits in 128 bits, quotient does not fit in 64
	_, err = ToReceipt(math.MaxUint64, 1, 1000)
	assert.ErrorIs(t, err, ErrArithmetic)

	_, err = ToBase(math.MaxUint64, math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrArithmetic)
}

func floorMulDiv(amount, num, den uint64) *big.Int {
	n := new(big.Int).Mul(new(big.Int).SetUint64(amount), new(big.Int).SetUint64(num))
	return n.Quo(n, new(big.Int).SetUint64(den))
}

func TestConversion_FloorsAgainstBigInt(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		amount := uint64(rng.Int63n(1 << 20))
		nonEscrowed := uint64(rng.Int63n(1<<40)) + 1
		supply := uint64(rng.Int63n(1<<40)) + 1

		receipt, err := ToReceipt(amount, nonEscrowed, supply)
		require.NoError(t, err)
		want := floorMulDiv(amount, supply+VirtualReceiptOffset, nonEscrowed+VirtualBaseOffset)
		assert.Equal(t, want.Uint64(), receipt)

		base, err := ToBase(amount, nonEscrowed, supply)
		require.NoError(t, err)
		want = floorMulDiv(amount, nonEscrowed+VirtualBaseOffset, supply+VirtualReceiptOffset)
		assert.Equal(t, want.Uint64(), base)
	}
}

func TestConversion_RoundTripNeverGains(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		amount := uint64(rng.Int63n(1 << 24))
		nonEscrowed := uint64(rng.Int63n(1<<32)) + 1
		supply := uint64(rng.Int63n(1<<32)) + 1

		receipt, err := ToReceipt(amount, nonEscrowed, supply)
		require.NoError(t, err)
		back, err := ToBase(receipt, nonEscrowed, supply)
		require.NoError(t, err)
		assert.LessOrEqual(t, back, amount)
	}

	// exact when the rate divides evenly
	receipt, err := ToReceipt(1000, 900, 1900)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), receipt)
	back, err := ToBase(receipt, 900, 1900)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), back)
}

func TestConversion_DonationDistortionBounded(t *testing.T) {
	// one receipt unit outstanding, then a large donation to the vault
	attackerReceipt, err := ToReceipt(1, 0, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), attackerReceipt)

	donation := uint64(1_000_000)
	nonEscrowed := 1 + donation

	// the attacker's single unit redeems for a small fraction of the donation
	redeem, err := ToBase(attackerReceipt, nonEscrowed, attackerReceipt)
	require.NoError(t, err)
	assert.Less(t, redeem, donation/50)
}

func TestSnapshot_NonEscrowed(t *testing.T) {
	snap := Snapshot{VaultAmount: 10, EscrowedBaseAmount: 11, ReceiptSupply: 1}
	_, err := snap.NonEscrowed()
	assert.ErrorIs(t, err, ErrArithmetic)
	_, err = QuoteStake(snap, 1)
	assert.ErrorIs(t, err, ErrArithmetic)

	snap = Snapshot{VaultAmount: 1_250_000, EscrowedBaseAmount: 0, ReceiptSupply: 1_000_000}
	out, err := QuoteUnstake(snap, 100_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(124_997), out)

	out, err = QuoteStake(Snapshot{}, 42)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), out)
}
