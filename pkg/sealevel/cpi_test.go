package sealevel

import (
	"bytes"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overclock-Validator/liquidstake/pkg/accounts"
	"github.com/Overclock-Validator/liquidstake/pkg/pda"
)

// forwardTransfer is a program that moves one lamport from its first
// account to its second through the system program.
func forwardTransfer(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}
	from, err := extractAddress(txCtx, instrCtx, 0)
	if err != nil {
		return err
	}
	to, err := extractAddress(txCtx, instrCtx, 1)
	if err != nil {
		return err
	}
	return execCtx.NativeInvoke(NewTransferInstruction(from, to, 1), nil)
}

func TestNativeInvoke_Privileges(t *testing.T) {
	caller := newKey()
	registry := DefaultProgramRegistry()
	registry.Register(caller, forwardTransfer)

	setup := func(t *testing.T) (*testRuntime, solana.PublicKey, solana.PublicKey) {
		from, to := newKey(), newKey()
		rt := newTestRuntime(t, registry,
			systemAccount(from, 10),
			systemAccount(to, 0),
			NativeProgramAccount(SystemProgramAddr),
			NativeProgramAccount(caller))
		return rt, from, to
	}

	invoke := func(from, to solana.PublicKey, fromSigner, toWritable bool) Instruction {
		return Instruction{
			ProgramId: caller,
			Accounts: []AccountMeta{
				{Pubkey: from, IsSigner: fromSigner, IsWritable: true},
				{Pubkey: to, IsWritable: toWritable},
				{Pubkey: SystemProgramAddr},
			},
		}
	}

	t.Run("forwards caller signature", func(t *testing.T) {
		rt, from, to := setup(t)
		require.NoError(t, rt.process(invoke(from, to, true, true)))
		assert.Equal(t, uint64(9), rt.account(from).Lamports)
		assert.Equal(t, uint64(1), rt.account(to).Lamports)
		assert.Equal(t, uint64(2), rt.txCtx.InstructionTraceLength())
	})

	t.Run("signer escalation", func(t *testing.T) {
		rt, from, to := setup(t)
		assert.ErrorIs(t, rt.process(invoke(from, to, false, true)), InstrErrPrivilegeEscalation)
	})

	t.Run("writable escalation", func(t *testing.T) {
		rt, from, to := setup(t)
		assert.ErrorIs(t, rt.process(invoke(from, to, true, false)), InstrErrPrivilegeEscalation)
	})
}

func TestNativeInvoke_CalleeAccount(t *testing.T) {
	caller := newKey()
	registry := DefaultProgramRegistry()
	registry.Register(caller, forwardTransfer)

	t.Run("callee not passed", func(t *testing.T) {
		from, to := newKey(), newKey()
		rt := newTestRuntime(t, registry, systemAccount(from, 10), systemAccount(to, 0), NativeProgramAccount(caller))
		ix := Instruction{ProgramId: caller, Accounts: []AccountMeta{
			{Pubkey: from, IsSigner: true, IsWritable: true},
			{Pubkey: to, IsWritable: true},
		}}
		assert.ErrorIs(t, rt.process(ix), InstrErrMissingAccount)
	})

	t.Run("callee not executable", func(t *testing.T) {
		from, to := newKey(), newKey()
		plain := systemAccount(SystemProgramAddr, 1)
		rt := newTestRuntime(t, registry, systemAccount(from, 10), systemAccount(to, 0), plain, NativeProgramAccount(caller))
		ix := Instruction{ProgramId: caller, Accounts: []AccountMeta{
			{Pubkey: from, IsSigner: true, IsWritable: true},
			{Pubkey: to, IsWritable: true},
			{Pubkey: SystemProgramAddr},
		}}
		assert.ErrorIs(t, rt.process(ix), InstrErrAccountNotExecutable)
	})
}

func TestNativeInvoke_Reentrancy(t *testing.T) {
	progA, progB := newKey(), newKey()
	registry := NewProgramRegistry()

	registry.Register(progA, func(execCtx *ExecutionCtx) error {
		if execCtx.StackHeight() > 1 {
			return nil
		}
		return execCtx.NativeInvoke(Instruction{ProgramId: progB, Accounts: []AccountMeta{{Pubkey: progA}, {Pubkey: progB}}}, nil)
	})
	registry.Register(progB, func(execCtx *ExecutionCtx) error {
		return execCtx.NativeInvoke(Instruction{ProgramId: progA, Accounts: []AccountMeta{{Pubkey: progA}}}, nil)
	})

	rt := newTestRuntime(t, registry, NativeProgramAccount(progA), NativeProgramAccount(progB))
	err := rt.process(Instruction{ProgramId: progA, Accounts: []AccountMeta{{Pubkey: progA}, {Pubkey: progB}}})
	assert.ErrorIs(t, err, InstrErrReentrancyNotAllowed)
	assert.Equal(t, uint64(0), rt.execCtx.StackHeight())
}

func TestNativeInvoke_SelfRecursion(t *testing.T) {
	prog := newKey()
	var deepest uint64
	var limit uint64

	registry := NewProgramRegistry()
	registry.Register(prog, func(execCtx *ExecutionCtx) error {
		if execCtx.StackHeight() > deepest {
			deepest = execCtx.StackHeight()
		}
		if execCtx.StackHeight() >= limit {
			return nil
		}
		return execCtx.NativeInvoke(Instruction{ProgramId: prog, Accounts: []AccountMeta{{Pubkey: prog}}}, nil)
	})
	top := Instruction{ProgramId: prog, Accounts: []AccountMeta{{Pubkey: prog}}}

	limit = DefaultMaxInstructionStackDepth
	rt := newTestRuntime(t, registry, NativeProgramAccount(prog))
	require.NoError(t, rt.process(top))
	assert.Equal(t, uint64(DefaultMaxInstructionStackDepth), deepest)

	limit = DefaultMaxInstructionStackDepth + 1
	rt = newTestRuntime(t, registry, NativeProgramAccount(prog))
	assert.ErrorIs(t, rt.process(top), InstrErrCallDepth)
}

func TestNativeInvokeSigned(t *testing.T) {
	prog := newKey()
	seeds := [][]byte{[]byte("vault")}
	vault, bump, err := pda.FindProgramAddress(seeds, prog)
	require.NoError(t, err)

	var signWith [][]byte
	registry := DefaultProgramRegistry()
	registry.Register(prog, func(execCtx *ExecutionCtx) error {
		txCtx := execCtx.TransactionContext
		instrCtx, err := txCtx.CurrentInstructionCtx()
		if err != nil {
			return err
		}
		to, err := extractAddress(txCtx, instrCtx, 1)
		if err != nil {
			return err
		}
		return execCtx.NativeInvokeSigned(NewTransferInstruction(vault, to, 25), [][][]byte{signWith})
	})

	run := func(t *testing.T, signerSeeds [][]byte) (*testRuntime, solana.PublicKey, error) {
		signWith = signerSeeds
		to := newKey()
		rt := newTestRuntime(t, registry,
			systemAccount(vault, 100),
			systemAccount(to, 0),
			NativeProgramAccount(SystemProgramAddr),
			NativeProgramAccount(prog))
		err := rt.process(Instruction{ProgramId: prog, Accounts: []AccountMeta{
			{Pubkey: vault, IsWritable: true},
			{Pubkey: to, IsWritable: true},
			{Pubkey: SystemProgramAddr},
		}})
		return rt, to, err
	}

	t.Run("derived signer", func(t *testing.T) {
		rt, to, err := run(t, [][]byte{[]byte("vault"), {bump}})
		require.NoError(t, err)
		assert.Equal(t, uint64(75), rt.account(vault).Lamports)
		assert.Equal(t, uint64(25), rt.account(to).Lamports)
	})

	t.Run("seeds of another address", func(t *testing.T) {
		_, otherBump, err := pda.FindProgramAddress([][]byte{[]byte("other")}, prog)
		require.NoError(t, err)
		_, _, err = run(t, [][]byte{[]byte("other"), {otherBump}})
		assert.ErrorIs(t, err, InstrErrPrivilegeEscalation)
	})

	t.Run("seed too long", func(t *testing.T) {
		_, _, err := run(t, [][]byte{bytes.Repeat([]byte{1}, 33)})
		assert.ErrorIs(t, err, InstrErrInvalidSeeds)
	})
}

func TestAssociatedTokenProgram(t *testing.T) {
	payer, wallet, mint, authority := newKey(), newKey(), newKey(), newKey()
	ata, _, err := FindAssociatedTokenAddress(wallet, mint)
	require.NoError(t, err)

	setup := func(t *testing.T, ataAcct accounts.Account, extra ...accounts.Account) *testRuntime {
		accts := []accounts.Account{
			systemAccount(payer, solana.LAMPORTS_PER_SOL),
			ataAcct,
			systemAccount(wallet, 0),
			mintAccount(mint, &authority, 0),
			NativeProgramAccount(SystemProgramAddr),
			NativeProgramAccount(TokenProgramAddr),
		}
		return newTestRuntime(t, DefaultProgramRegistry(), append(accts, extra...)...)
	}

	t.Run("create", func(t *testing.T) {
		rt := setup(t, systemAccount(ata, 0))
		require.NoError(t, rt.process(NewCreateAssociatedTokenAccountInstruction(payer, wallet, mint, false)))

		created := rt.account(ata)
		assert.Equal(t, TokenProgramAddr, created.Owner)
		assert.Equal(t, rentExempt(TokenAccountLen), created.Lamports)
		tokenAcct := rt.tokenAccount(ata)
		assert.Equal(t, wallet, tokenAcct.Owner)
		assert.Equal(t, mint, tokenAcct.Mint)
		assert.Equal(t, uint64(0), tokenAcct.Amount)
		assert.Equal(t, solana.LAMPORTS_PER_SOL-rentExempt(TokenAccountLen), rt.account(payer).Lamports)

		// idempotent create on an existing account is a no-op
		require.NoError(t, rt.process(NewCreateAssociatedTokenAccountInstruction(payer, wallet, mint, true)))
		assert.ErrorIs(t, rt.process(NewCreateAssociatedTokenAccountInstruction(payer, wallet, mint, false)), SystemProgErrAccountAlreadyInUse)
	})

	t.Run("prefunded address", func(t *testing.T) {
		rt := setup(t, systemAccount(ata, 1_000))
		require.NoError(t, rt.process(NewCreateAssociatedTokenAccountInstruction(payer, wallet, mint, true)))
		assert.Equal(t, rentExempt(TokenAccountLen), rt.account(ata).Lamports)
		assert.Equal(t, TokenProgramAddr, rt.account(ata).Owner)
		assert.Equal(t, wallet, rt.tokenAccount(ata).Owner)
	})

	t.Run("wrong address", func(t *testing.T) {
		imposter := newKey()
		rt := setup(t, systemAccount(ata, 0), systemAccount(imposter, 0))
		ix := NewCreateAssociatedTokenAccountInstruction(payer, wallet, mint, false)
		ix.Accounts[1].Pubkey = imposter
		assert.ErrorIs(t, rt.process(ix), InstrErrInvalidSeeds)
	})

	t.Run("existing account of another wallet", func(t *testing.T) {
		rt := setup(t, tokenAccount(ata, mint, newKey(), 0))
		assert.ErrorIs(t, rt.process(NewCreateAssociatedTokenAccountInstruction(payer, wallet, mint, true)), AssociatedTokenErrInvalidOwner)
	})

	t.Run("bad data", func(t *testing.T) {
		rt := setup(t, systemAccount(ata, 0))
		ix := NewCreateAssociatedTokenAccountInstruction(payer, wallet, mint, false)
		ix.Data = []byte{2}
		assert.ErrorIs(t, rt.process(ix), InstrErrInvalidInstructionData)
	})
}
