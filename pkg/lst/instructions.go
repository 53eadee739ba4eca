package lst

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	InstrTypeInitialize = 0
	InstrTypeStake      = 1
	InstrTypeUnstake    = 2
	InstrTypeWithdraw   = 3
	InstrTypeSet        = 4
)

// Instruction is a decoded instruction payload.
type Instruction interface {
	Discriminant() uint8
	MarshalWithEncoder(encoder *bin.Encoder) error
	UnmarshalWithDecoder(decoder *bin.Decoder) error
}

type InitializeArgs struct {
	CooldownPeriodSeconds int64
	UpdateAuthority       solana.PublicKey
}

type StakeArgs struct {
	Amount uint64
}

type UnstakeArgs struct {
	Amount        uint64
	WithdrawIndex uint8
}

type WithdrawArgs struct {
	WithdrawIndex uint8
}

// SetArgs carries optional new values. A nil field is left unchanged.
type SetArgs struct {
	CooldownPeriodSeconds *int64
	UpdateAuthority       *solana.PublicKey
}

func (*InitializeArgs) Discriminant() uint8 { return InstrTypeInitialize }
func (*StakeArgs) Discriminant() uint8      { return InstrTypeStake }
func (*UnstakeArgs) Discriminant() uint8    { return InstrTypeUnstake }
func (*WithdrawArgs) Discriminant() uint8   { return InstrTypeWithdraw }
func (*SetArgs) Discriminant() uint8        { return InstrTypeSet }

func (args *InitializeArgs) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	args.CooldownPeriodSeconds, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return err
	}
	args.UpdateAuthority, err = readPubkey(decoder)
	return err
}

func (args *InitializeArgs) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteInt64(args.CooldownPeriodSeconds, bin.LE)
	return encoder.WriteBytes(args.UpdateAuthority[:], false)
}

func (args *StakeArgs) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	args.Amount, err = decoder.ReadUint64(bin.LE)
	return err
}

func (args *StakeArgs) MarshalWithEncoder(encoder *bin.Encoder) error {
	return encoder.WriteUint64(args.Amount, bin.LE)
}

func (args *UnstakeArgs) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	args.Amount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	args.WithdrawIndex, err = decoder.ReadByte()
	return err
}

func (args *UnstakeArgs) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteUint64(args.Amount, bin.LE)
	return encoder.WriteByte(args.WithdrawIndex)
}

func (args *WithdrawArgs) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	args.WithdrawIndex, err = decoder.ReadByte()
	return err
}

func (args *WithdrawArgs) MarshalWithEncoder(encoder *bin.Encoder) error {
	return encoder.WriteByte(args.WithdrawIndex)
}

func readPresenceFlag(decoder *bin.Decoder) (bool, error) {
	flag, err := decoder.ReadByte()
	if err != nil {
		return false, err
	}
	switch flag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidInstructionData
	}
}

func (args *SetArgs) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	hasCooldown, err := readPresenceFlag(decoder)
	if err != nil {
		return err
	}
	if hasCooldown {
		cooldown, err := decoder.ReadInt64(bin.LE)
		if err != nil {
			return err
		}
		args.CooldownPeriodSeconds = &cooldown
	}

	hasAuthority, err := readPresenceFlag(decoder)
	if err != nil {
		return err
	}
	if hasAuthority {
		authority, err := readPubkey(decoder)
		if err != nil {
			return err
		}
		args.UpdateAuthority = &authority
	}
	return nil
}

func (args *SetArgs) MarshalWithEncoder(encoder *bin.Encoder) error {
	if args.CooldownPeriodSeconds == nil {
		_ = encoder.WriteByte(0)
	} else {
		_ = encoder.WriteByte(1)
		_ = encoder.WriteInt64(*args.CooldownPeriodSeconds, bin.LE)
	}
	if args.UpdateAuthority == nil {
		return encoder.WriteByte(0)
	}
	_ = encoder.WriteByte(1)
	return encoder.WriteBytes(args.UpdateAuthority[:], false)
}

// EncodeInstruction prefixes the payload with its discriminant.
func EncodeInstruction(instr Instruction) []byte {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	_ = encoder.WriteByte(instr.Discriminant())
	_ = instr.MarshalWithEncoder(encoder)
	return buf.Bytes()
}

// DecodeInstruction parses instruction data. Short payloads, bad presence
// flags and trailing bytes are InvalidInstructionData; an empty payload or
// unknown discriminant is UnknownInstruction.
func DecodeInstruction(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, ErrUnknownInstruction
	}

	var instr Instruction
	switch data[0] {
	case InstrTypeInitialize:
		instr = new(InitializeArgs)
	case InstrTypeStake:
		instr = new(StakeArgs)
	case InstrTypeUnstake:
		instr = new(UnstakeArgs)
	case InstrTypeWithdraw:
		instr = new(WithdrawArgs)
	case InstrTypeSet:
		instr = new(SetArgs)
	default:
		return nil, ErrUnknownInstruction
	}

	decoder := bin.NewBinDecoder(data[1:])
	if err := instr.UnmarshalWithDecoder(decoder); err != nil {
		return nil, ErrInvalidInstructionData
	}
	if decoder.Remaining() != 0 {
		return nil, ErrInvalidInstructionData
	}
	return instr, nil
}
