package sealevel

import (
	"github.com/gagliardetto/solana-go"
)

// Instruction is a cross-program invocation issued by a native program.
type Instruction struct {
	Accounts  []AccountMeta
	Data      []byte
	ProgramId solana.PublicKey
}

type AccountMeta struct {
	Pubkey     solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

type InstructionAccount struct {
	IndexInTransaction uint64
	IndexInCaller      uint64
	IndexInCallee      uint64
	IsSigner           bool
	IsWritable         bool
}

// ToSolana converts the instruction for inclusion in a client
// transaction.
func (ix Instruction) ToSolana() solana.Instruction {
	metas := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	for _, meta := range ix.Accounts {
		metas = append(metas, solana.NewAccountMeta(meta.Pubkey, meta.IsWritable, meta.IsSigner))
	}
	return solana.NewInstruction(ix.ProgramId, metas, ix.Data)
}
