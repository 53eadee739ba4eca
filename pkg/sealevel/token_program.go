package sealevel

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/liquidstake/pkg/safemath"
)

const (
	TokenInstrTypeTransfer           = 3
	TokenInstrTypeMintTo             = 7
	TokenInstrTypeBurn               = 8
	TokenInstrTypeInitializeAccount3 = 18
	TokenInstrTypeInitializeMint2    = 20
)

var (
	TokenErrNotRentExempt     = NewCustomError(0, "TokenErrNotRentExempt")
	TokenErrInsufficientFunds = NewCustomError(1, "TokenErrInsufficientFunds")
	TokenErrInvalidMint       = NewCustomError(2, "TokenErrInvalidMint")
	TokenErrMintMismatch      = NewCustomError(3, "TokenErrMintMismatch")
	TokenErrOwnerMismatch     = NewCustomError(4, "TokenErrOwnerMismatch")
	TokenErrFixedSupply       = NewCustomError(5, "TokenErrFixedSupply")
	TokenErrAlreadyInUse      = NewCustomError(6, "TokenErrAlreadyInUse")
	TokenErrOverflow          = NewCustomError(14, "TokenErrOverflow")
	TokenErrAccountFrozen     = NewCustomError(17, "TokenErrAccountFrozen")
)

type TokenInstrAmount struct {
	Amount uint64
}

type TokenInstrInitializeMint2 struct {
	Decimals        uint8
	MintAuthority   solana.PublicKey
	FreezeAuthority *solana.PublicKey
}

type TokenInstrInitializeAccount3 struct {
	Owner solana.PublicKey
}

func (instr *TokenInstrInitializeMint2) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	instr.Decimals, err = decoder.ReadByte()
	if err != nil {
		return err
	}

	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	instr.MintAuthority = solana.PublicKeyFromBytes(pk)

	// instruction options use a one-byte tag
	hasFreeze, err := decoder.ReadByte()
	if err != nil {
		return err
	}
	switch hasFreeze {
	case 0:
		instr.FreezeAuthority = nil
	case 1:
		pk, err = decoder.ReadBytes(solana.PublicKeyLength)
		if err != nil {
			return err
		}
		freeze := solana.PublicKeyFromBytes(pk)
		instr.FreezeAuthority = &freeze
	default:
		return InstrErrInvalidInstructionData
	}
	return nil
}

func (instr *TokenInstrInitializeMint2) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteByte(TokenInstrTypeInitializeMint2)
	_ = encoder.WriteByte(instr.Decimals)
	_ = encoder.WriteBytes(instr.MintAuthority[:], false)
	if instr.FreezeAuthority == nil {
		return encoder.WriteByte(0)
	}
	_ = encoder.WriteByte(1)
	return encoder.WriteBytes(instr.FreezeAuthority[:], false)
}

func (instr *TokenInstrInitializeAccount3) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	instr.Owner = solana.PublicKeyFromBytes(pk)
	return nil
}

func (instr *TokenInstrInitializeAccount3) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteByte(TokenInstrTypeInitializeAccount3)
	return encoder.WriteBytes(instr.Owner[:], false)
}

func (instr *TokenInstrAmount) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	instr.Amount, err = decoder.ReadUint64(bin.LE)
	return err
}

func tokenAmountInstrData(instrType byte, amount uint64) []byte {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	_ = encoder.WriteByte(instrType)
	_ = encoder.WriteUint64(amount, bin.LE)
	return buf.Bytes()
}

func NewTokenTransferInstruction(source solana.PublicKey, destination solana.PublicKey, authority solana.PublicKey, amount uint64) Instruction {
	accountMetas := []AccountMeta{
		{Pubkey: source, IsWritable: true},
		{Pubkey: destination, IsWritable: true},
		{Pubkey: authority, IsSigner: true},
	}
	return Instruction{Accounts: accountMetas, Data: tokenAmountInstrData(TokenInstrTypeTransfer, amount), ProgramId: TokenProgramAddr}
}

func NewTokenMintToInstruction(mint solana.PublicKey, account solana.PublicKey, mintAuthority solana.PublicKey, amount uint64) Instruction {
	accountMetas := []AccountMeta{
		{Pubkey: mint, IsWritable: true},
		{Pubkey: account, IsWritable: true},
		{Pubkey: mintAuthority, IsSigner: true},
	}
	return Instruction{Accounts: accountMetas, Data: tokenAmountInstrData(TokenInstrTypeMintTo, amount), ProgramId: TokenProgramAddr}
}

func NewTokenBurnInstruction(account solana.PublicKey, mint solana.PublicKey, authority solana.PublicKey, amount uint64) Instruction {
	accountMetas := []AccountMeta{
		{Pubkey: account, IsWritable: true},
		{Pubkey: mint, IsWritable: true},
		{Pubkey: authority, IsSigner: true},
	}
	return Instruction{Accounts: accountMetas, Data: tokenAmountInstrData(TokenInstrTypeBurn, amount), ProgramId: TokenProgramAddr}
}

func NewTokenInitializeMint2Instruction(mint solana.PublicKey, decimals uint8, mintAuthority solana.PublicKey, freezeAuthority *solana.PublicKey) Instruction {
	instr := TokenInstrInitializeMint2{Decimals: decimals, MintAuthority: mintAuthority, FreezeAuthority: freezeAuthority}
	accountMetas := []AccountMeta{{Pubkey: mint, IsWritable: true}}
	return Instruction{Accounts: accountMetas, Data: marshalInstrData(&instr), ProgramId: TokenProgramAddr}
}

func NewTokenInitializeAccount3Instruction(account solana.PublicKey, mint solana.PublicKey, owner solana.PublicKey) Instruction {
	instr := TokenInstrInitializeAccount3{Owner: owner}
	accountMetas := []AccountMeta{
		{Pubkey: account, IsWritable: true},
		{Pubkey: mint},
	}
	return Instruction{Accounts: accountMetas, Data: marshalInstrData(&instr), ProgramId: TokenProgramAddr}
}

func TokenProgramExecute(execCtx *ExecutionCtx) error {
	err := execCtx.ComputeMeter.Consume(CUTokenProgramDefaultComputeUnits)
	if err != nil {
		return InstrErrComputationalBudgetExceeded
	}

	instrCtx, err := execCtx.TransactionContext.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	decoder := bin.NewBinDecoder(instrCtx.Data)
	instructionType, err := decoder.ReadByte()
	if err != nil {
		return InstrErrInvalidInstructionData
	}

	switch instructionType {
	case TokenInstrTypeInitializeMint2:
		var initMint TokenInstrInitializeMint2
		err = initMint.UnmarshalWithDecoder(decoder)
		if err != nil {
			return InstrErrInvalidInstructionData
		}
		return TokenProgramInitializeMint(execCtx, initMint)

	case TokenInstrTypeInitializeAccount3:
		var initAcct TokenInstrInitializeAccount3
		err = initAcct.UnmarshalWithDecoder(decoder)
		if err != nil {
			return InstrErrInvalidInstructionData
		}
		return TokenProgramInitializeAccount(execCtx, initAcct.Owner)

	case TokenInstrTypeTransfer:
		var transfer TokenInstrAmount
		err = transfer.UnmarshalWithDecoder(decoder)
		if err != nil {
			return InstrErrInvalidInstructionData
		}
		return TokenProgramTransfer(execCtx, transfer.Amount)

	case TokenInstrTypeMintTo:
		var mintTo TokenInstrAmount
		err = mintTo.UnmarshalWithDecoder(decoder)
		if err != nil {
			return InstrErrInvalidInstructionData
		}
		return TokenProgramMintTo(execCtx, mintTo.Amount)

	case TokenInstrTypeBurn:
		var burn TokenInstrAmount
		err = burn.UnmarshalWithDecoder(decoder)
		if err != nil {
			return InstrErrInvalidInstructionData
		}
		return TokenProgramBurn(execCtx, burn.Amount)

	default:
		return InstrErrInvalidInstructionData
	}
}

// borrowTokenProgramAccount borrows an instruction account and checks
// that the token program owns it.
func borrowTokenProgramAccount(execCtx *ExecutionCtx, instrAcctIdx uint64) (*BorrowedAccount, error) {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return nil, err
	}

	acct, err := instrCtx.BorrowInstructionAccount(txCtx, instrAcctIdx)
	if err != nil {
		return nil, err
	}

	if acct.Owner() != TokenProgramAddr {
		klog.Errorf("token: account %s not owned by token program", acct.Key())
		return nil, InstrErrIncorrectProgramId
	}
	return acct, nil
}

// validateOwner checks that the authority at instrAcctIdx is expected
// and has signed.
func validateOwner(execCtx *ExecutionCtx, expected solana.PublicKey, instrAcctIdx uint64) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	authority, err := extractAddress(txCtx, instrCtx, instrAcctIdx)
	if err != nil {
		return err
	}
	if authority != expected {
		klog.Errorf("token: authority %s does not match owner %s", authority, expected)
		return TokenErrOwnerMismatch
	}

	isSigner, err := instrCtx.IsInstructionAccountSigner(instrAcctIdx)
	if err != nil {
		return err
	}
	if !isSigner {
		return InstrErrMissingRequiredSignature
	}
	return nil
}

func checkRentExempt(execCtx *ExecutionCtx, acct *BorrowedAccount) error {
	rent := execCtx.SysvarCache.Rent()
	if acct.Lamports() < rent.MinimumBalance(uint64(len(acct.Data()))) {
		return TokenErrNotRentExempt
	}
	return nil
}

func TokenProgramInitializeMint(execCtx *ExecutionCtx, initMint TokenInstrInitializeMint2) error {
	instrCtx, err := execCtx.TransactionContext.CurrentInstructionCtx()
	if err != nil {
		return err
	}
	err = instrCtx.CheckNumOfInstructionAccounts(1)
	if err != nil {
		return err
	}

	mintAcct, err := borrowTokenProgramAccount(execCtx, 0)
	if err != nil {
		return err
	}
	if len(mintAcct.Data()) != TokenMintLen {
		return InstrErrInvalidAccountData
	}

	var existing TokenMint
	err = existing.UnmarshalWithDecoder(bin.NewBinDecoder(mintAcct.Data()))
	if err != nil {
		return InstrErrInvalidAccountData
	}
	if existing.IsInitialized {
		return TokenErrAlreadyInUse
	}

	err = checkRentExempt(execCtx, mintAcct)
	if err != nil {
		return err
	}

	mintAuthority := initMint.MintAuthority
	mint := TokenMint{
		MintAuthority:   &mintAuthority,
		Decimals:        initMint.Decimals,
		IsInitialized:   true,
		FreezeAuthority: initMint.FreezeAuthority,
	}
	return mintAcct.SetData(mint.Pack())
}

func TokenProgramInitializeAccount(execCtx *ExecutionCtx, owner solana.PublicKey) error {
	instrCtx, err := execCtx.TransactionContext.CurrentInstructionCtx()
	if err != nil {
		return err
	}
	err = instrCtx.CheckNumOfInstructionAccounts(2)
	if err != nil {
		return err
	}

	tokenAcct, err := borrowTokenProgramAccount(execCtx, 0)
	if err != nil {
		return err
	}
	if len(tokenAcct.Data()) != TokenAccountLen {
		return InstrErrInvalidAccountData
	}
	if tokenAcct.Data()[108] != TokenAccountStateUninitialized {
		return TokenErrAlreadyInUse
	}

	err = checkRentExempt(execCtx, tokenAcct)
	if err != nil {
		return err
	}

	mintAcct, err := instrCtx.BorrowInstructionAccount(execCtx.TransactionContext, 1)
	if err != nil {
		return err
	}
	if mintAcct.Owner() != TokenProgramAddr {
		return TokenErrInvalidMint
	}
	if _, err = UnpackTokenMint(mintAcct.Data()); err != nil {
		return TokenErrInvalidMint
	}

	acct := TokenAccount{
		Mint:  mintAcct.Key(),
		Owner: owner,
		State: TokenAccountStateInitialized,
	}
	return tokenAcct.SetData(acct.Pack())
}

func TokenProgramTransfer(execCtx *ExecutionCtx, amount uint64) error {
	instrCtx, err := execCtx.TransactionContext.CurrentInstructionCtx()
	if err != nil {
		return err
	}
	err = instrCtx.CheckNumOfInstructionAccounts(3)
	if err != nil {
		return err
	}

	sourceAcct, err := borrowTokenProgramAccount(execCtx, 0)
	if err != nil {
		return err
	}
	source, err := UnpackTokenAccount(sourceAcct.Data())
	if err != nil {
		return err
	}

	destAcct, err := borrowTokenProgramAccount(execCtx, 1)
	if err != nil {
		return err
	}
	dest, err := UnpackTokenAccount(destAcct.Data())
	if err != nil {
		return err
	}

	if source.IsFrozen() || dest.IsFrozen() {
		return TokenErrAccountFrozen
	}
	if source.Amount < amount {
		klog.Errorf("token transfer: balance %d, need %d", source.Amount, amount)
		return TokenErrInsufficientFunds
	}
	if source.Mint != dest.Mint {
		return TokenErrMintMismatch
	}

	err = validateOwner(execCtx, source.Owner, 2)
	if err != nil {
		return err
	}

	// self-transfers are validated but leave balances untouched
	if sourceAcct.Key() == destAcct.Key() {
		return nil
	}

	newDestAmount, err := safemath.CheckedAddU64(dest.Amount, amount)
	if err != nil {
		return TokenErrOverflow
	}
	source.Amount -= amount
	dest.Amount = newDestAmount

	err = sourceAcct.SetData(source.Pack())
	if err != nil {
		return err
	}
	return destAcct.SetData(dest.Pack())
}

func TokenProgramMintTo(execCtx *ExecutionCtx, amount uint64) error {
	instrCtx, err := execCtx.TransactionContext.CurrentInstructionCtx()
	if err != nil {
		return err
	}
	err = instrCtx.CheckNumOfInstructionAccounts(3)
	if err != nil {
		return err
	}

	mintAcct, err := borrowTokenProgramAccount(execCtx, 0)
	if err != nil {
		return err
	}
	mint, err := UnpackTokenMint(mintAcct.Data())
	if err != nil {
		return err
	}

	destAcct, err := borrowTokenProgramAccount(execCtx, 1)
	if err != nil {
		return err
	}
	dest, err := UnpackTokenAccount(destAcct.Data())
	if err != nil {
		return err
	}

	if dest.IsFrozen() {
		return TokenErrAccountFrozen
	}
	if dest.Mint != mintAcct.Key() {
		return TokenErrMintMismatch
	}
	if mint.MintAuthority == nil {
		return TokenErrFixedSupply
	}

	err = validateOwner(execCtx, *mint.MintAuthority, 2)
	if err != nil {
		return err
	}

	newSupply, err := safemath.CheckedAddU64(mint.Supply, amount)
	if err != nil {
		return TokenErrOverflow
	}
	newAmount, err := safemath.CheckedAddU64(dest.Amount, amount)
	if err != nil {
		return TokenErrOverflow
	}
	mint.Supply = newSupply
	dest.Amount = newAmount

	err = destAcct.SetData(dest.Pack())
	if err != nil {
		return err
	}
	return mintAcct.SetData(mint.Pack())
}

func TokenProgramBurn(execCtx *ExecutionCtx, amount uint64) error {
	instrCtx, err := execCtx.TransactionContext.CurrentInstructionCtx()
	if err != nil {
		return err
	}
	err = instrCtx.CheckNumOfInstructionAccounts(3)
	if err != nil {
		return err
	}

	sourceAcct, err := borrowTokenProgramAccount(execCtx, 0)
	if err != nil {
		return err
	}
	source, err := UnpackTokenAccount(sourceAcct.Data())
	if err != nil {
		return err
	}

	mintAcct, err := borrowTokenProgramAccount(execCtx, 1)
	if err != nil {
		return err
	}
	mint, err := UnpackTokenMint(mintAcct.Data())
	if err != nil {
		return err
	}

	if source.IsFrozen() {
		return TokenErrAccountFrozen
	}
	if source.Amount < amount {
		return TokenErrInsufficientFunds
	}
	if source.Mint != mintAcct.Key() {
		return TokenErrMintMismatch
	}

	err = validateOwner(execCtx, source.Owner, 2)
	if err != nil {
		return err
	}

	newSupply, err := safemath.CheckedSubU64(mint.Supply, amount)
	if err != nil {
		return TokenErrOverflow
	}
	source.Amount -= amount
	mint.Supply = newSupply

	err = sourceAcct.SetData(source.Pack())
	if err != nil {
		return err
	}
	return mintAcct.SetData(mint.Pack())
}
