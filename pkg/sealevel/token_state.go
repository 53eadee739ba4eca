package sealevel

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	TokenMintLen    = 82
	TokenAccountLen = 165
)

const (
	TokenAccountStateUninitialized = 0
	TokenAccountStateInitialized   = 1
	TokenAccountStateFrozen        = 2
)

// TokenMint is the 82-byte mint record. Optional keys are encoded with a
// four-byte tag.
type TokenMint struct {
	MintAuthority   *solana.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *solana.PublicKey
}

// TokenAccount is the 165-byte holder record.
type TokenAccount struct {
	Mint            solana.PublicKey
	Owner           solana.PublicKey
	Amount          uint64
	Delegate        *solana.PublicKey
	State           uint8
	IsNative        *uint64
	DelegatedAmount uint64
	CloseAuthority  *solana.PublicKey
}

func readCOptionPubkey(decoder *bin.Decoder) (*solana.PublicKey, error) {
	tag, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}
	pkBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		pk := solana.PublicKeyFromBytes(pkBytes)
		return &pk, nil
	default:
		return nil, InstrErrInvalidAccountData
	}
}

func writeCOptionPubkey(encoder *bin.Encoder, pk *solana.PublicKey) error {
	if pk == nil {
		_ = encoder.WriteUint32(0, bin.LE)
		return encoder.WriteBytes(make([]byte, solana.PublicKeyLength), false)
	}
	_ = encoder.WriteUint32(1, bin.LE)
	return encoder.WriteBytes(pk[:], false)
}

func (mint *TokenMint) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	mint.MintAuthority, err = readCOptionPubkey(decoder)
	if err != nil {
		return err
	}

	mint.Supply, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	mint.Decimals, err = decoder.ReadByte()
	if err != nil {
		return err
	}

	mint.IsInitialized, err = decoder.ReadBool()
	if err != nil {
		return err
	}

	mint.FreezeAuthority, err = readCOptionPubkey(decoder)
	return err
}

func (mint *TokenMint) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := writeCOptionPubkey(encoder, mint.MintAuthority)
	if err != nil {
		return err
	}
	_ = encoder.WriteUint64(mint.Supply, bin.LE)
	_ = encoder.WriteByte(mint.Decimals)
	_ = encoder.WriteBool(mint.IsInitialized)
	return writeCOptionPubkey(encoder, mint.FreezeAuthority)
}

func (acct *TokenAccount) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	mint, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	acct.Mint = solana.PublicKeyFromBytes(mint)

	owner, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	acct.Owner = solana.PublicKeyFromBytes(owner)

	acct.Amount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	acct.Delegate, err = readCOptionPubkey(decoder)
	if err != nil {
		return err
	}

	acct.State, err = decoder.ReadByte()
	if err != nil {
		return err
	}
	if acct.State > TokenAccountStateFrozen {
		return InstrErrInvalidAccountData
	}

	nativeTag, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return err
	}
	nativeAmount, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	switch nativeTag {
	case 0:
		acct.IsNative = nil
	case 1:
		acct.IsNative = &nativeAmount
	default:
		return InstrErrInvalidAccountData
	}

	acct.DelegatedAmount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	acct.CloseAuthority, err = readCOptionPubkey(decoder)
	return err
}

func (acct *TokenAccount) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteBytes(acct.Mint[:], false)
	_ = encoder.WriteBytes(acct.Owner[:], false)
	_ = encoder.WriteUint64(acct.Amount, bin.LE)
	err := writeCOptionPubkey(encoder, acct.Delegate)
	if err != nil {
		return err
	}
	_ = encoder.WriteByte(acct.State)
	if acct.IsNative == nil {
		_ = encoder.WriteUint32(0, bin.LE)
		_ = encoder.WriteUint64(0, bin.LE)
	} else {
		_ = encoder.WriteUint32(1, bin.LE)
		_ = encoder.WriteUint64(*acct.IsNative, bin.LE)
	}
	_ = encoder.WriteUint64(acct.DelegatedAmount, bin.LE)
	return writeCOptionPubkey(encoder, acct.CloseAuthority)
}

func (acct *TokenAccount) IsFrozen() bool {
	return acct.State == TokenAccountStateFrozen
}

// UnpackTokenMint decodes an initialized mint. The data must be exactly
// TokenMintLen bytes.
func UnpackTokenMint(data []byte) (*TokenMint, error) {
	if len(data) != TokenMintLen {
		return nil, InstrErrInvalidAccountData
	}
	mint := new(TokenMint)
	if err := mint.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return nil, InstrErrInvalidAccountData
	}
	if !mint.IsInitialized {
		return nil, InstrErrUninitializedAccount
	}
	return mint, nil
}

// UnpackTokenAccount decodes an initialized token account.
func UnpackTokenAccount(data []byte) (*TokenAccount, error) {
	if len(data) != TokenAccountLen {
		return nil, InstrErrInvalidAccountData
	}
	acct := new(TokenAccount)
	if err := acct.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return nil, InstrErrInvalidAccountData
	}
	if acct.State == TokenAccountStateUninitialized {
		return nil, InstrErrUninitializedAccount
	}
	return acct, nil
}

func (mint *TokenMint) Pack() []byte {
	buf := new(bytes.Buffer)
	_ = mint.MarshalWithEncoder(bin.NewBinEncoder(buf))
	return buf.Bytes()
}

func (acct *TokenAccount) Pack() []byte {
	buf := new(bytes.Buffer)
	_ = acct.MarshalWithEncoder(bin.NewBinEncoder(buf))
	return buf.Bytes()
}
