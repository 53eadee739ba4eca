package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/liquidstake/pkg/pda"
)

const (
	AssociatedTokenInstrTypeCreate           = 0
	AssociatedTokenInstrTypeCreateIdempotent = 1
)

var AssociatedTokenErrInvalidOwner = NewCustomError(0, "AssociatedTokenErrInvalidOwner")

// FindAssociatedTokenAddress derives the canonical token account of
// wallet for mint.
func FindAssociatedTokenAddress(wallet solana.PublicKey, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return pda.FindProgramAddress(associatedTokenSeeds(wallet, mint), AssociatedTokenProgramAddr)
}

func associatedTokenSeeds(wallet solana.PublicKey, mint solana.PublicKey) [][]byte {
	return [][]byte{wallet[:], TokenProgramAddr[:], mint[:]}
}

func NewCreateAssociatedTokenAccountInstruction(payer solana.PublicKey, wallet solana.PublicKey, mint solana.PublicKey, idempotent bool) Instruction {
	ata, _, err := FindAssociatedTokenAddress(wallet, mint)
	if err != nil {
		panic("no viable associated token address")
	}

	instrType := byte(AssociatedTokenInstrTypeCreate)
	if idempotent {
		instrType = AssociatedTokenInstrTypeCreateIdempotent
	}

	accountMetas := []AccountMeta{
		{Pubkey: payer, IsSigner: true, IsWritable: true},
		{Pubkey: ata, IsWritable: true},
		{Pubkey: wallet},
		{Pubkey: mint},
		{Pubkey: SystemProgramAddr},
		{Pubkey: TokenProgramAddr},
	}
	return Instruction{Accounts: accountMetas, Data: []byte{instrType}, ProgramId: AssociatedTokenProgramAddr}
}

func AssociatedTokenProgramExecute(execCtx *ExecutionCtx) error {
	err := execCtx.ComputeMeter.Consume(CUAssociatedTokenProgramDefaultUnits)
	if err != nil {
		return InstrErrComputationalBudgetExceeded
	}

	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	var idempotent bool
	switch {
	case len(instrCtx.Data) == 0:
	case len(instrCtx.Data) == 1 && instrCtx.Data[0] == AssociatedTokenInstrTypeCreate:
	case len(instrCtx.Data) == 1 && instrCtx.Data[0] == AssociatedTokenInstrTypeCreateIdempotent:
		idempotent = true
	default:
		return InstrErrInvalidInstructionData
	}

	err = instrCtx.CheckNumOfInstructionAccounts(6)
	if err != nil {
		return err
	}

	payer, err := extractAddress(txCtx, instrCtx, 0)
	if err != nil {
		return err
	}
	wallet, err := extractAddress(txCtx, instrCtx, 2)
	if err != nil {
		return err
	}
	mint, err := extractAddress(txCtx, instrCtx, 3)
	if err != nil {
		return err
	}

	ataAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}

	seeds := associatedTokenSeeds(wallet, mint)
	expected, bump, err := pda.FindProgramAddress(seeds, AssociatedTokenProgramAddr)
	if err != nil {
		return InstrErrInvalidSeeds
	}
	if expected != ataAcct.Key() {
		klog.Errorf("associated token: address %s does not match derived %s", ataAcct.Key(), expected)
		return InstrErrInvalidSeeds
	}

	if idempotent && ataAcct.Owner() == TokenProgramAddr {
		existing, err := UnpackTokenAccount(ataAcct.Data())
		if err != nil {
			return err
		}
		if existing.Owner != wallet {
			return AssociatedTokenErrInvalidOwner
		}
		if existing.Mint != mint {
			return TokenErrMintMismatch
		}
		return nil
	}

	signerSeeds := [][][]byte{append(seeds, []byte{bump})}
	err = CreatePdaAccount(execCtx, payer, ataAcct, TokenAccountLen, TokenProgramAddr, signerSeeds)
	if err != nil {
		return err
	}

	return execCtx.NativeInvoke(NewTokenInitializeAccount3Instruction(expected, mint, wallet), nil)
}

// CreatePdaAccount brings a program-derived address into existence with
// space bytes owned by owner, funded to rent exemption by payer. An
// address that already holds lamports is topped up, allocated and
// assigned rather than created.
func CreatePdaAccount(execCtx *ExecutionCtx, payer solana.PublicKey, acct *BorrowedAccount, space uint64, owner solana.PublicKey, signerSeeds [][][]byte) error {
	addr := acct.Key()
	rent := execCtx.SysvarCache.Rent()
	required := rent.MinimumBalance(space)

	if acct.Lamports() == 0 {
		return execCtx.NativeInvokeSigned(NewCreateAccountInstruction(payer, addr, required, space, owner), signerSeeds)
	}

	if acct.Lamports() < required {
		err := execCtx.NativeInvoke(NewTransferInstruction(payer, addr, required-acct.Lamports()), nil)
		if err != nil {
			return err
		}
	}

	err := execCtx.NativeInvokeSigned(NewAllocateInstruction(addr, space), signerSeeds)
	if err != nil {
		return err
	}

	return execCtx.NativeInvokeSigned(NewAssignInstruction(addr, owner), signerSeeds)
}
