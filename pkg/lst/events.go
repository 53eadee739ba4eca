package lst

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

const (
	EventTypeStake    = 0
	EventTypeUnstake  = 1
	EventTypeWithdraw = 2
)

const programDataPrefix = "Program data: "

var ErrUnknownEvent = errors.New("unknown event")

// Event is a record emitted on the program data channel. Every event
// carries the pool snapshot taken before the instruction mutated
// anything.
type Event interface {
	EventType() uint8
	MarshalWithEncoder(encoder *bin.Encoder) error
	UnmarshalWithDecoder(decoder *bin.Decoder) error
}

type StakeEvent struct {
	Staker     solana.PublicKey
	BaseIn     uint64
	ReceiptOut uint64
	Pre        Snapshot
}

type UnstakeEvent struct {
	Unstaker              solana.PublicKey
	WithdrawIndex         uint8
	ReceiptIn             uint64
	BaseOut               uint64
	WithdrawableTimestamp int64
	Pre                   Snapshot
}

// WithdrawEvent carries the vault and escrow before the transfer. The
// receipt mint is not part of a withdraw, so there is no supply.
type WithdrawEvent struct {
	Unstaker              solana.PublicKey
	WithdrawIndex         uint8
	BaseOut               uint64
	Timestamp             int64
	PreVaultAmount        uint64
	PreEscrowedBaseAmount uint64
}

func (*StakeEvent) EventType() uint8    { return EventTypeStake }
func (*UnstakeEvent) EventType() uint8  { return EventTypeUnstake }
func (*WithdrawEvent) EventType() uint8 { return EventTypeWithdraw }

func (s *Snapshot) marshal(encoder *bin.Encoder) error {
	_ = encoder.WriteUint64(s.VaultAmount, bin.LE)
	_ = encoder.WriteUint64(s.EscrowedBaseAmount, bin.LE)
	return encoder.WriteUint64(s.ReceiptSupply, bin.LE)
}

func (s *Snapshot) unmarshal(decoder *bin.Decoder) error {
	var err error
	s.VaultAmount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	s.EscrowedBaseAmount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	s.ReceiptSupply, err = decoder.ReadUint64(bin.LE)
	return err
}

func (ev *StakeEvent) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteBytes(ev.Staker[:], false)
	_ = encoder.WriteUint64(ev.BaseIn, bin.LE)
	_ = encoder.WriteUint64(ev.ReceiptOut, bin.LE)
	return ev.Pre.marshal(encoder)
}

func (ev *StakeEvent) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	ev.Staker, err = readPubkey(decoder)
	if err != nil {
		return err
	}
	ev.BaseIn, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	ev.ReceiptOut, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	return ev.Pre.unmarshal(decoder)
}

func (ev *UnstakeEvent) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteBytes(ev.Unstaker[:], false)
	_ = encoder.WriteByte(ev.WithdrawIndex)
	_ = encoder.WriteUint64(ev.ReceiptIn, bin.LE)
	_ = encoder.WriteUint64(ev.BaseOut, bin.LE)
	_ = encoder.WriteInt64(ev.WithdrawableTimestamp, bin.LE)
	return ev.Pre.marshal(encoder)
}

func (ev *UnstakeEvent) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	ev.Unstaker, err = readPubkey(decoder)
	if err != nil {
		return err
	}
	ev.WithdrawIndex, err = decoder.ReadByte()
	if err != nil {
		return err
	}
	ev.ReceiptIn, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	ev.BaseOut, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	ev.WithdrawableTimestamp, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return err
	}
	return ev.Pre.unmarshal(decoder)
}

func (ev *WithdrawEvent) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteBytes(ev.Unstaker[:], false)
	_ = encoder.WriteByte(ev.WithdrawIndex)
	_ = encoder.WriteUint64(ev.BaseOut, bin.LE)
	_ = encoder.WriteInt64(ev.Timestamp, bin.LE)
	_ = encoder.WriteUint64(ev.PreVaultAmount, bin.LE)
	return encoder.WriteUint64(ev.PreEscrowedBaseAmount, bin.LE)
}

func (ev *WithdrawEvent) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	ev.Unstaker, err = readPubkey(decoder)
	if err != nil {
		return err
	}
	ev.WithdrawIndex, err = decoder.ReadByte()
	if err != nil {
		return err
	}
	ev.BaseOut, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	ev.Timestamp, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return err
	}
	ev.PreVaultAmount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	ev.PreEscrowedBaseAmount, err = decoder.ReadUint64(bin.LE)
	return err
}

func encodeEvent(ev Event) []byte {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	_ = encoder.WriteByte(ev.EventType())
	_ = ev.MarshalWithEncoder(encoder)
	return buf.Bytes()
}

func emitEvent(log sealevel.Logger, ev Event) {
	sealevel.LogData(log, encodeEvent(ev))
}

// ParseEvent decodes one event payload.
func ParseEvent(data []byte) (Event, error) {
	if len(data) == 0 {
		return nil, ErrUnknownEvent
	}

	var ev Event
	switch data[0] {
	case EventTypeStake:
		ev = new(StakeEvent)
	case EventTypeUnstake:
		ev = new(UnstakeEvent)
	case EventTypeWithdraw:
		ev = new(WithdrawEvent)
	default:
		return nil, ErrUnknownEvent
	}

	decoder := bin.NewBinDecoder(data[1:])
	if err := ev.UnmarshalWithDecoder(decoder); err != nil {
		return nil, err
	}
	if decoder.Remaining() != 0 {
		return nil, ErrUnknownEvent
	}
	return ev, nil
}

// ParseEventsFromLogs collects every event in a transaction's log lines.
// Lines that are not program data, or not this program's events, are
// skipped.
func ParseEventsFromLogs(logs []string) []Event {
	var events []Event
	for _, line := range logs {
		payload, ok := strings.CutPrefix(line, programDataPrefix)
		if !ok {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			continue
		}
		ev, err := ParseEvent(data)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events
}
