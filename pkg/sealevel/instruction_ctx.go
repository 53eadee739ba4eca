package sealevel

import (
	"github.com/gagliardetto/solana-go"
)

type InstructionCtx struct {
	programId           solana.PublicKey
	InstructionAccounts []InstructionAccount
	Data                []byte
}

func NewInstructionCtx(programId solana.PublicKey, instrAccts []InstructionAccount, data []byte) InstructionCtx {
	return InstructionCtx{programId: programId, InstructionAccounts: instrAccts, Data: data}
}

func (instrCtx *InstructionCtx) ProgramId() solana.PublicKey {
	return instrCtx.programId
}

func (instrCtx *InstructionCtx) NumberOfInstructionAccounts() uint64 {
	return uint64(len(instrCtx.InstructionAccounts))
}

func (instrCtx *InstructionCtx) CheckNumOfInstructionAccounts(expectedAtLeast uint64) error {
	if instrCtx.NumberOfInstructionAccounts() < expectedAtLeast {
		return InstrErrNotEnoughAccountKeys
	}
	return nil
}

func (instrCtx *InstructionCtx) IndexOfInstructionAccountInTransaction(instrAcctIdx uint64) (uint64, error) {
	if instrAcctIdx >= instrCtx.NumberOfInstructionAccounts() {
		return 0, InstrErrNotEnoughAccountKeys
	}
	return instrCtx.InstructionAccounts[instrAcctIdx].IndexInTransaction, nil
}

// IndexOfInstructionAccount finds the position of pubkey in this
// instruction's account list.
func (instrCtx *InstructionCtx) IndexOfInstructionAccount(txCtx *TransactionCtx, pubkey solana.PublicKey) (uint64, error) {
	for idx, ia := range instrCtx.InstructionAccounts {
		key, err := txCtx.KeyOfAccountAtIndex(ia.IndexInTransaction)
		if err != nil {
			return 0, err
		}
		if key == pubkey {
			return uint64(idx), nil
		}
	}
	return 0, InstrErrMissingAccount
}

func (instrCtx *InstructionCtx) IsInstructionAccountSigner(instrAcctIdx uint64) (bool, error) {
	if instrAcctIdx >= instrCtx.NumberOfInstructionAccounts() {
		return false, InstrErrMissingAccount
	}
	return instrCtx.InstructionAccounts[instrAcctIdx].IsSigner, nil
}

func (instrCtx *InstructionCtx) IsInstructionAccountWritable(instrAcctIdx uint64) (bool, error) {
	if instrAcctIdx >= instrCtx.NumberOfInstructionAccounts() {
		return false, InstrErrMissingAccount
	}
	return instrCtx.InstructionAccounts[instrAcctIdx].IsWritable, nil
}

func (instrCtx *InstructionCtx) BorrowInstructionAccount(txCtx *TransactionCtx, instrAcctIdx uint64) (*BorrowedAccount, error) {
	idxInTx, err := instrCtx.IndexOfInstructionAccountInTransaction(instrAcctIdx)
	if err != nil {
		return nil, err
	}

	acct, err := txCtx.Accounts.GetAccount(idxInTx)
	if err != nil {
		return nil, err
	}

	return &BorrowedAccount{
		TxCtx:              txCtx,
		InstrCtx:           instrCtx,
		IndexInTransaction: idxInTx,
		IndexInInstruction: instrAcctIdx,
		Account:            acct,
	}, nil
}

// Signers returns the keys of every instruction account marked signer.
func (instrCtx *InstructionCtx) Signers(txCtx *TransactionCtx) []solana.PublicKey {
	var signers []solana.PublicKey
	for _, ia := range instrCtx.InstructionAccounts {
		if !ia.IsSigner {
			continue
		}
		key, err := txCtx.KeyOfAccountAtIndex(ia.IndexInTransaction)
		if err == nil {
			signers = append(signers, key)
		}
	}
	return signers
}
