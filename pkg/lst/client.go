package lst

import (
	"github.com/gagliardetto/solana-go"

	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

// Pool holds every fixed address of one pool deployment.
type Pool struct {
	ProgramID   solana.PublicKey
	State       solana.PublicKey
	StateBump   uint8
	Vault       solana.PublicKey
	VaultBump   uint8
	BaseMint    solana.PublicKey
	ReceiptMint solana.PublicKey
}

func (p *Program) Pool(baseMint solana.PublicKey, receiptMint solana.PublicKey) (Pool, error) {
	state, stateBump, err := FindPoolStateAddress(p.ProgramID)
	if err != nil {
		return Pool{}, err
	}
	vault, vaultBump, err := FindVaultAddress(state, baseMint)
	if err != nil {
		return Pool{}, err
	}
	return Pool{
		ProgramID:   p.ProgramID,
		State:       state,
		StateBump:   stateBump,
		Vault:       vault,
		VaultBump:   vaultBump,
		BaseMint:    baseMint,
		ReceiptMint: receiptMint,
	}, nil
}

func (pool Pool) PendingWithdrawAddress(unstaker solana.PublicKey, index uint8) solana.PublicKey {
	addr, _, err := FindPendingWithdrawAddress(pool.ProgramID, unstaker, index)
	if err != nil {
		panic("no viable pending withdraw address")
	}
	return addr
}

func (pool Pool) instruction(instr Instruction, metas []sealevel.AccountMeta) solana.Instruction {
	ix := sealevel.Instruction{Accounts: metas, Data: EncodeInstruction(instr), ProgramId: pool.ProgramID}
	return ix.ToSolana()
}

// CreateVaultInstruction creates the pool's vault. It must run before
// Initialize, usually in the same transaction.
func (pool Pool) CreateVaultInstruction(payer solana.PublicKey) solana.Instruction {
	return sealevel.NewCreateAssociatedTokenAccountInstruction(payer, pool.State, pool.BaseMint, true).ToSolana()
}

func (pool Pool) InitializeInstruction(payer solana.PublicKey, cooldownPeriodSeconds int64, updateAuthority solana.PublicKey) solana.Instruction {
	return pool.instruction(&InitializeArgs{CooldownPeriodSeconds: cooldownPeriodSeconds, UpdateAuthority: updateAuthority},
		[]sealevel.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: pool.State, IsWritable: true},
			{Pubkey: pool.ReceiptMint},
			{Pubkey: pool.BaseMint},
			{Pubkey: pool.Vault},
			{Pubkey: sealevel.SystemProgramAddr},
			{Pubkey: sealevel.TokenProgramAddr},
		})
}

func (pool Pool) StakeInstruction(staker solana.PublicKey, stakerBaseToken solana.PublicKey, stakerReceiptToken solana.PublicKey, amount uint64) solana.Instruction {
	return pool.instruction(&StakeArgs{Amount: amount},
		[]sealevel.AccountMeta{
			{Pubkey: staker, IsSigner: true},
			{Pubkey: stakerBaseToken, IsWritable: true},
			{Pubkey: stakerReceiptToken, IsWritable: true},
			{Pubkey: pool.State},
			{Pubkey: pool.Vault, IsWritable: true},
			{Pubkey: pool.ReceiptMint, IsWritable: true},
			{Pubkey: sealevel.TokenProgramAddr},
		})
}

func (pool Pool) UnstakeInstruction(unstaker solana.PublicKey, unstakerReceiptToken solana.PublicKey, amount uint64, index uint8) solana.Instruction {
	return pool.instruction(&UnstakeArgs{Amount: amount, WithdrawIndex: index},
		[]sealevel.AccountMeta{
			{Pubkey: unstaker, IsSigner: true, IsWritable: true},
			{Pubkey: unstakerReceiptToken, IsWritable: true},
			{Pubkey: pool.State, IsWritable: true},
			{Pubkey: pool.PendingWithdrawAddress(unstaker, index), IsWritable: true},
			{Pubkey: pool.Vault},
			{Pubkey: pool.ReceiptMint, IsWritable: true},
			{Pubkey: sealevel.SystemProgramAddr},
			{Pubkey: sealevel.TokenProgramAddr},
		})
}

func (pool Pool) WithdrawInstruction(unstaker solana.PublicKey, unstakerBaseToken solana.PublicKey, index uint8) solana.Instruction {
	return pool.instruction(&WithdrawArgs{WithdrawIndex: index},
		[]sealevel.AccountMeta{
			{Pubkey: unstaker, IsSigner: true, IsWritable: true},
			{Pubkey: unstakerBaseToken, IsWritable: true},
			{Pubkey: pool.State, IsWritable: true},
			{Pubkey: pool.PendingWithdrawAddress(unstaker, index), IsWritable: true},
			{Pubkey: pool.Vault, IsWritable: true},
			{Pubkey: sealevel.TokenProgramAddr},
		})
}

func (pool Pool) SetInstruction(updateAuthority solana.PublicKey, args SetArgs) solana.Instruction {
	return pool.instruction(&args,
		[]sealevel.AccountMeta{
			{Pubkey: updateAuthority, IsSigner: true},
			{Pubkey: pool.State, IsWritable: true},
		})
}
