package sealevel

import (
	"github.com/gagliardetto/solana-go"
)

const DefaultMaxInstructionStackDepth = 5

type TransactionCtx struct {
	Accounts                 TransactionAccounts
	instructionStack         []InstructionCtx
	instructionTraceLength   uint64
	MaxInstructionStackDepth uint64
}

func NewTransactionCtx(txAccts TransactionAccounts, maxStackDepth uint64) *TransactionCtx {
	return &TransactionCtx{Accounts: txAccts, MaxInstructionStackDepth: maxStackDepth}
}

func (txCtx *TransactionCtx) KeyOfAccountAtIndex(index uint64) (solana.PublicKey, error) {
	acct, err := txCtx.Accounts.GetAccount(index)
	if err != nil {
		return solana.PublicKey{}, InstrErrNotEnoughAccountKeys
	}
	return acct.Key, nil
}

func (txCtx *TransactionCtx) IndexOfAccount(pubkey solana.PublicKey) (uint64, error) {
	for idx, acct := range txCtx.Accounts.Accounts {
		if acct.Key == pubkey {
			return uint64(idx), nil
		}
	}
	return 0, InstrErrMissingAccount
}

func (txCtx *TransactionCtx) InstructionCtxStackHeight() uint64 {
	return uint64(len(txCtx.instructionStack))
}

// InstructionTraceLength counts every instruction pushed so far, top-level
// and inner.
func (txCtx *TransactionCtx) InstructionTraceLength() uint64 {
	return txCtx.instructionTraceLength
}

func (txCtx *TransactionCtx) CurrentInstructionCtx() (*InstructionCtx, error) {
	if len(txCtx.instructionStack) == 0 {
		return nil, InstrErrCallDepth
	}
	return &txCtx.instructionStack[len(txCtx.instructionStack)-1], nil
}

func (txCtx *TransactionCtx) InstructionCtxAtNestingLevel(level uint64) (*InstructionCtx, error) {
	if level >= uint64(len(txCtx.instructionStack)) {
		return nil, InstrErrCallDepth
	}
	return &txCtx.instructionStack[level], nil
}

func (txCtx *TransactionCtx) Push(instrCtx InstructionCtx) error {
	if txCtx.InstructionCtxStackHeight() >= txCtx.MaxInstructionStackDepth {
		return InstrErrCallDepth
	}
	txCtx.instructionStack = append(txCtx.instructionStack, instrCtx)
	txCtx.instructionTraceLength++
	return nil
}

func (txCtx *TransactionCtx) Pop() error {
	if len(txCtx.instructionStack) == 0 {
		return InstrErrCallDepth
	}
	txCtx.instructionStack = txCtx.instructionStack[:len(txCtx.instructionStack)-1]
	return nil
}
