package lst

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	PoolStateDiscriminator       = 1
	PendingWithdrawDiscriminator = 2
)

// Records are padded to a fixed size so fields can be added without a
// realloc.
const (
	PoolStateLen       = 1024
	PendingWithdrawLen = 256
)

// PoolState is the singleton pool record.
//
//	0   discriminator u8
//	1   state bump u8
//	2   vault bump u8
//	8   escrowed base amount u64
//	16  cooldown period seconds i64
//	24  update authority [32]
//	56  base mint [32]
//	88  receipt mint [32]
type PoolState struct {
	StateBump             uint8
	VaultBump             uint8
	EscrowedBaseAmount    uint64
	CooldownPeriodSeconds int64
	UpdateAuthority       solana.PublicKey
	BaseMint              solana.PublicKey
	ReceiptMint           solana.PublicKey
}

// PendingWithdraw is one unstake waiting out its cooldown.
//
//	0   discriminator u8
//	1   bump u8
//	2   withdraw index u8
//	8   unstaker [32]
//	40  withdrawable base amount u64
//	48  withdrawable timestamp i64
type PendingWithdraw struct {
	Bump                   uint8
	WithdrawIndex          uint8
	Unstaker               solana.PublicKey
	WithdrawableBaseAmount uint64
	WithdrawableTimestamp  int64
}

func readPubkey(decoder *bin.Decoder) (solana.PublicKey, error) {
	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(pk), nil
}

func (state *PoolState) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	discriminator, err := decoder.ReadByte()
	if err != nil {
		return err
	}
	if discriminator != PoolStateDiscriminator {
		return ErrInvalidAccountData
	}

	state.StateBump, err = decoder.ReadByte()
	if err != nil {
		return err
	}

	state.VaultBump, err = decoder.ReadByte()
	if err != nil {
		return err
	}

	_, err = decoder.ReadBytes(5)
	if err != nil {
		return err
	}

	state.EscrowedBaseAmount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	state.CooldownPeriodSeconds, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return err
	}

	state.UpdateAuthority, err = readPubkey(decoder)
	if err != nil {
		return err
	}

	state.BaseMint, err = readPubkey(decoder)
	if err != nil {
		return err
	}

	state.ReceiptMint, err = readPubkey(decoder)
	return err
}

func (state *PoolState) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteByte(PoolStateDiscriminator)
	_ = encoder.WriteByte(state.StateBump)
	_ = encoder.WriteByte(state.VaultBump)
	_ = encoder.WriteBytes(make([]byte, 5), false)
	_ = encoder.WriteUint64(state.EscrowedBaseAmount, bin.LE)
	_ = encoder.WriteInt64(state.CooldownPeriodSeconds, bin.LE)
	_ = encoder.WriteBytes(state.UpdateAuthority[:], false)
	_ = encoder.WriteBytes(state.BaseMint[:], false)
	return encoder.WriteBytes(state.ReceiptMint[:], false)
}

// Pack encodes the record padded to PoolStateLen.
func (state *PoolState) Pack() []byte {
	return packPadded(state, PoolStateLen)
}

// UnpackPoolState decodes a pool record. The data must be exactly
// PoolStateLen bytes and carry the pool discriminator.
func UnpackPoolState(data []byte) (*PoolState, error) {
	if len(data) != PoolStateLen {
		return nil, ErrInvalidAccountData
	}
	state := new(PoolState)
	if err := state.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return nil, ErrInvalidAccountData
	}
	return state, nil
}

func (pending *PendingWithdraw) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	discriminator, err := decoder.ReadByte()
	if err != nil {
		return err
	}
	if discriminator != PendingWithdrawDiscriminator {
		return ErrInvalidAccountData
	}

	pending.Bump, err = decoder.ReadByte()
	if err != nil {
		return err
	}

	pending.WithdrawIndex, err = decoder.ReadByte()
	if err != nil {
		return err
	}

	_, err = decoder.ReadBytes(5)
	if err != nil {
		return err
	}

	pending.Unstaker, err = readPubkey(decoder)
	if err != nil {
		return err
	}

	pending.WithdrawableBaseAmount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	pending.WithdrawableTimestamp, err = decoder.ReadInt64(bin.LE)
	return err
}

func (pending *PendingWithdraw) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteByte(PendingWithdrawDiscriminator)
	_ = encoder.WriteByte(pending.Bump)
	_ = encoder.WriteByte(pending.WithdrawIndex)
	_ = encoder.WriteBytes(make([]byte, 5), false)
	_ = encoder.WriteBytes(pending.Unstaker[:], false)
	_ = encoder.WriteUint64(pending.WithdrawableBaseAmount, bin.LE)
	return encoder.WriteInt64(pending.WithdrawableTimestamp, bin.LE)
}

func (pending *PendingWithdraw) Pack() []byte {
	return packPadded(pending, PendingWithdrawLen)
}

func UnpackPendingWithdraw(data []byte) (*PendingWithdraw, error) {
	if len(data) != PendingWithdrawLen {
		return nil, ErrInvalidAccountData
	}
	pending := new(PendingWithdraw)
	if err := pending.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return nil, ErrInvalidAccountData
	}
	return pending, nil
}

type binMarshaler interface {
	MarshalWithEncoder(encoder *bin.Encoder) error
}

func packPadded(record binMarshaler, size int) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(size)
	_ = record.MarshalWithEncoder(bin.NewBinEncoder(buf))
	out := make([]byte, size)
	copy(out, buf.Bytes())
	return out
}
