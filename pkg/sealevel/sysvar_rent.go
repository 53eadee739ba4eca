package sealevel

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"

	"github.com/Overclock-Validator/liquidstake/pkg/accounts"
	"github.com/Overclock-Validator/liquidstake/pkg/base58"
)

const SysvarRentAddrStr = "SysvarRent111111111111111111111111111111111"

var SysvarRentAddr = base58.MustDecodeFromString(SysvarRentAddrStr)

const SysvarRentStructLen = 17

// AccountStorageOverhead is the per-account byte overhead charged by rent.
const AccountStorageOverhead = 128

type SysvarRent struct {
	LamportsPerUint8Year uint64
	ExemptionThreshold   float64
	BurnPercent          byte
}

func DefaultRent() SysvarRent {
	return SysvarRent{LamportsPerUint8Year: 3480, ExemptionThreshold: 2.0, BurnPercent: 50}
}

func (sr *SysvarRent) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	lamportsPerUint8Year, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read LamportsPerUint8Year when decoding SysvarRent: %w", err)
	}
	sr.LamportsPerUint8Year = lamportsPerUint8Year

	exemptionThreshold, err := decoder.ReadFloat64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read ExemptionThreshold when decoding SysvarRent: %w", err)
	}
	sr.ExemptionThreshold = exemptionThreshold

	burnPercent, err := decoder.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read BurnPercent when decoding SysvarRent: %w", err)
	}
	sr.BurnPercent = burnPercent

	return
}

func (sr *SysvarRent) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteUint64(sr.LamportsPerUint8Year, bin.LE)
	_ = encoder.WriteFloat64(sr.ExemptionThreshold, bin.LE)
	return encoder.WriteByte(sr.BurnPercent)
}

// MinimumBalance is the lamport balance that makes an account of dataLen
// bytes rent exempt.
func (sr *SysvarRent) MinimumBalance(dataLen uint64) uint64 {
	bytes := AccountStorageOverhead + dataLen
	return uint64(float64(bytes*sr.LamportsPerUint8Year) * sr.ExemptionThreshold)
}

// ReadRentSysvar falls back to DefaultRent when the ledger has no rent
// sysvar account yet.
func ReadRentSysvar(accts accounts.Accounts) (SysvarRent, error) {
	rentAcct, err := accts.GetAccount(&SysvarRentAddr)
	if err != nil {
		return SysvarRent{}, err
	}
	if rentAcct == nil || len(rentAcct.Data) == 0 {
		return DefaultRent(), nil
	}

	var rent SysvarRent
	err = rent.UnmarshalWithDecoder(bin.NewBinDecoder(rentAcct.Data))
	return rent, err
}

func WriteRentSysvar(accts accounts.Accounts, rent SysvarRent) error {
	buf := new(bytes.Buffer)
	if err := rent.MarshalWithEncoder(bin.NewBinEncoder(buf)); err != nil {
		return err
	}

	rentAcct := accounts.Account{Key: SysvarRentAddr, Lamports: 1, Data: buf.Bytes(), Owner: SysvarOwnerAddr}
	return accts.SetAccount(&SysvarRentAddr, &rentAcct)
}
