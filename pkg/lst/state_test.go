package lst

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolState_Layout(t *testing.T) {
	state := PoolState{
		StateBump:             254,
		VaultBump:             253,
		EscrowedBaseAmount:    0x0102030405060708,
		CooldownPeriodSeconds: -2,
		UpdateAuthority:       solana.NewWallet().PublicKey(),
		BaseMint:              solana.NewWallet().PublicKey(),
		ReceiptMint:           solana.NewWallet().PublicKey(),
	}

	data := state.Pack()
	require.Len(t, data, PoolStateLen)
	assert.Equal(t, byte(PoolStateDiscriminator), data[0])
	assert.Equal(t, byte(254), data[1])
	assert.Equal(t, byte(253), data[2])
	assert.Equal(t, make([]byte, 5), data[3:8])
	assert.Equal(t, state.EscrowedBaseAmount, binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, state.CooldownPeriodSeconds, int64(binary.LittleEndian.Uint64(data[16:24])))
	assert.Equal(t, state.UpdateAuthority[:], data[24:56])
	assert.Equal(t, state.BaseMint[:], data[56:88])
	assert.Equal(t, state.ReceiptMint[:], data[88:120])
	assert.Equal(t, make([]byte, PoolStateLen-120), data[120:])

	decoded, err := UnpackPoolState(data)
	require.NoError(t, err)
	assert.Equal(t, state, *decoded)
}

func TestPendingWithdraw_Layout(t *testing.T) {
	pending := PendingWithdraw{
		Bump:                   251,
		WithdrawIndex:          7,
		Unstaker:               solana.NewWallet().PublicKey(),
		WithdrawableBaseAmount: 124_997,
		WithdrawableTimestamp:  1_700_000_060,
	}

	data := pending.Pack()
	require.Len(t, data, PendingWithdrawLen)
	assert.Equal(t, byte(PendingWithdrawDiscriminator), data[0])
	assert.Equal(t, byte(251), data[1])
	assert.Equal(t, byte(7), data[2])
	assert.Equal(t, pending.Unstaker[:], data[8:40])
	assert.Equal(t, uint64(124_997), binary.LittleEndian.Uint64(data[40:48]))
	assert.Equal(t, uint64(1_700_000_060), binary.LittleEndian.Uint64(data[48:56]))

	decoded, err := UnpackPendingWithdraw(data)
	require.NoError(t, err)
	assert.Equal(t, pending, *decoded)
}

func TestUnpack_RejectsWrongLengthAndDiscriminator(t *testing.T) {
	state := PoolState{StateBump: 1}
	data := state.Pack()

	_, err := UnpackPoolState(data[:PoolStateLen-1])
	assert.ErrorIs(t, err, ErrInvalidAccountData)
	_, err = UnpackPoolState(append(data, 0))
	assert.ErrorIs(t, err, ErrInvalidAccountData)

	// a pending record padded to pool length is still the wrong kind
	pending := PendingWithdraw{Bump: 1}
	wrongKind := make([]byte, PoolStateLen)
	copy(wrongKind, pending.Pack())
	_, err = UnpackPoolState(wrongKind)
	assert.ErrorIs(t, err, ErrInvalidAccountData)

	_, err = UnpackPendingWithdraw(make([]byte, PendingWithdrawLen))
	assert.ErrorIs(t, err, ErrInvalidAccountData)
	_, err = UnpackPendingWithdraw(nil)
	assert.ErrorIs(t, err, ErrInvalidAccountData)
}

func TestAddresses_Deterministic(t *testing.T) {
	state, bump, err := FindPoolStateAddress(ProgramAddr)
	require.NoError(t, err)
	again, againBump, err := FindPoolStateAddress(ProgramAddr)
	require.NoError(t, err)
	assert.Equal(t, state, again)
	assert.Equal(t, bump, againBump)

	unstaker := solana.NewWallet().PublicKey()
	first, _, err := FindPendingWithdrawAddress(ProgramAddr, unstaker, 0)
	require.NoError(t, err)
	second, _, err := FindPendingWithdrawAddress(ProgramAddr, unstaker, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	other, _, err := FindPendingWithdrawAddress(ProgramAddr, solana.NewWallet().PublicKey(), 0)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}
