package sealevel

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/Overclock-Validator/liquidstake/pkg/accounts"
	"github.com/Overclock-Validator/liquidstake/pkg/cu"
)

// testRuntime runs top-level instructions against a fixed set of
// transaction accounts.
type testRuntime struct {
	t       *testing.T
	txCtx   *TransactionCtx
	execCtx *ExecutionCtx
}

func newTestRuntime(t *testing.T, registry *ProgramRegistry, accts ...accounts.Account) *testRuntime {
	txCtx := NewTransactionCtx(*NewTransactionAccounts(accts), DefaultMaxInstructionStackDepth)
	execCtx := &ExecutionCtx{
		Log:                new(LogRecorder),
		TransactionContext: txCtx,
		Programs:           registry,
		SysvarCache:        NewSysvarCache(SysvarClock{Slot: 5, UnixTimestamp: 1_000}, DefaultRent()),
		ComputeMeter:       cu.NewComputeMeterDefault(),
	}
	return &testRuntime{t: t, txCtx: txCtx, execCtx: execCtx}
}

// process executes ix at stack height one. Signer and writable flags are
// taken from the metas as given.
func (rt *testRuntime) process(ix Instruction) error {
	instrAccts := make([]InstructionAccount, 0, len(ix.Accounts))
	for position, meta := range ix.Accounts {
		idxInTx, err := rt.txCtx.IndexOfAccount(meta.Pubkey)
		require.NoError(rt.t, err, "account %s not in transaction", meta.Pubkey)

		indexInCallee := uint64(position)
		for first, prior := range ix.Accounts[:position] {
			if prior.Pubkey == meta.Pubkey {
				indexInCallee = uint64(first)
				break
			}
		}

		instrAccts = append(instrAccts, InstructionAccount{
			IndexInTransaction: idxInTx,
			IndexInCaller:      uint64(position),
			IndexInCallee:      indexInCallee,
			IsSigner:           meta.IsSigner,
			IsWritable:         meta.IsWritable,
		})
	}
	return rt.execCtx.ProcessInstruction(ix.ProgramId, ix.Data, instrAccts)
}

func (rt *testRuntime) account(key solana.PublicKey) *accounts.Account {
	idx, err := rt.txCtx.IndexOfAccount(key)
	require.NoError(rt.t, err)
	acct, err := rt.txCtx.Accounts.GetAccount(idx)
	require.NoError(rt.t, err)
	return acct
}

func (rt *testRuntime) tokenAccount(key solana.PublicKey) *TokenAccount {
	tokenAcct, err := UnpackTokenAccount(rt.account(key).Data)
	require.NoError(rt.t, err)
	return tokenAcct
}

func (rt *testRuntime) mint(key solana.PublicKey) *TokenMint {
	mint, err := UnpackTokenMint(rt.account(key).Data)
	require.NoError(rt.t, err)
	return mint
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func systemAccount(key solana.PublicKey, lamports uint64) accounts.Account {
	return accounts.Account{Key: key, Lamports: lamports, Owner: SystemProgramAddr}
}

func rentExempt(dataLen int) uint64 {
	rent := DefaultRent()
	return rent.MinimumBalance(uint64(dataLen))
}

func mintAccount(key solana.PublicKey, authority *solana.PublicKey, supply uint64) accounts.Account {
	mint := TokenMint{MintAuthority: authority, Supply: supply, Decimals: 6, IsInitialized: true}
	data := mint.Pack()
	return accounts.Account{Key: key, Lamports: rentExempt(len(data)), Data: data, Owner: TokenProgramAddr}
}

func tokenAccount(key solana.PublicKey, mint solana.PublicKey, owner solana.PublicKey, amount uint64) accounts.Account {
	tokenAcct := TokenAccount{Mint: mint, Owner: owner, Amount: amount, State: TokenAccountStateInitialized}
	data := tokenAcct.Pack()
	return accounts.Account{Key: key, Lamports: rentExempt(len(data)), Data: data, Owner: TokenProgramAddr}
}
