package sealevel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemProgram_CreateAccount(t *testing.T) {
	funder, created := newKey(), newKey()
	rt := newTestRuntime(t, DefaultProgramRegistry(),
		systemAccount(funder, 10_000),
		systemAccount(created, 0))

	err := rt.process(NewCreateAccountInstruction(funder, created, 1234, 64, TokenProgramAddr))
	require.NoError(t, err)

	acct := rt.account(created)
	assert.Equal(t, uint64(1234), acct.Lamports)
	assert.Len(t, acct.Data, 64)
	assert.Equal(t, TokenProgramAddr, acct.Owner)
	assert.Equal(t, uint64(10_000-1234), rt.account(funder).Lamports)
	assert.ElementsMatch(t, []string{funder.String(), created.String()}, touchedKeys(rt))
}

func touchedKeys(rt *testRuntime) []string {
	var keys []string
	for _, acct := range rt.txCtx.Accounts.TouchedAccounts() {
		keys = append(keys, acct.Key.String())
	}
	return keys
}

func TestSystemProgram_CreateAccountRejects(t *testing.T) {
	t.Run("already funded", func(t *testing.T) {
		funder, created := newKey(), newKey()
		rt := newTestRuntime(t, DefaultProgramRegistry(), systemAccount(funder, 10_000), systemAccount(created, 1))
		err := rt.process(NewCreateAccountInstruction(funder, created, 100, 0, TokenProgramAddr))
		assert.ErrorIs(t, err, SystemProgErrAccountAlreadyInUse)
	})

	t.Run("new account not signer", func(t *testing.T) {
		funder, created := newKey(), newKey()
		rt := newTestRuntime(t, DefaultProgramRegistry(), systemAccount(funder, 10_000), systemAccount(created, 0))
		ix := NewCreateAccountInstruction(funder, created, 100, 0, TokenProgramAddr)
		ix.Accounts[1].IsSigner = false
		err := rt.process(ix)
		assert.ErrorIs(t, err, InstrErrMissingRequiredSignature)
	})

	t.Run("too large", func(t *testing.T) {
		funder, created := newKey(), newKey()
		rt := newTestRuntime(t, DefaultProgramRegistry(), systemAccount(funder, 10_000), systemAccount(created, 0))
		err := rt.process(NewCreateAccountInstruction(funder, created, 100, MaxPermittedDataLength+1, TokenProgramAddr))
		assert.ErrorIs(t, err, SystemProgErrInvalidAccountDataLength)
	})

	t.Run("underfunded", func(t *testing.T) {
		funder, created := newKey(), newKey()
		rt := newTestRuntime(t, DefaultProgramRegistry(), systemAccount(funder, 99), systemAccount(created, 0))
		err := rt.process(NewCreateAccountInstruction(funder, created, 100, 0, TokenProgramAddr))
		assert.ErrorIs(t, err, SystemProgErrResultWithNegativeLamports)
	})
}

func TestSystemProgram_Transfer(t *testing.T) {
	from, to := newKey(), newKey()
	rt := newTestRuntime(t, DefaultProgramRegistry(), systemAccount(from, 100), systemAccount(to, 0))

	require.NoError(t, rt.process(NewTransferInstruction(from, to, 60)))
	assert.Equal(t, uint64(40), rt.account(from).Lamports)
	assert.Equal(t, uint64(60), rt.account(to).Lamports)

	err := rt.process(NewTransferInstruction(from, to, 41))
	assert.ErrorIs(t, err, SystemProgErrResultWithNegativeLamports)

	ix := NewTransferInstruction(from, to, 1)
	ix.Accounts[0].IsSigner = false
	assert.ErrorIs(t, rt.process(ix), InstrErrMissingRequiredSignature)

	ix = NewTransferInstruction(from, to, 1)
	ix.Accounts[1].IsWritable = false
	assert.ErrorIs(t, rt.process(ix), InstrErrReadonlyLamportChange)
}

func TestSystemProgram_TransferFromDataAccount(t *testing.T) {
	from, to := newKey(), newKey()
	withData := systemAccount(from, 100)
	withData.Data = []byte{1}
	rt := newTestRuntime(t, DefaultProgramRegistry(), withData, systemAccount(to, 0))

	err := rt.process(NewTransferInstruction(from, to, 1))
	assert.ErrorIs(t, err, InstrErrInvalidArgument)
}

func TestSystemProgram_AllocateAssign(t *testing.T) {
	key := newKey()
	rt := newTestRuntime(t, DefaultProgramRegistry(), systemAccount(key, 100))

	require.NoError(t, rt.process(NewAllocateInstruction(key, 10)))
	assert.Len(t, rt.account(key).Data, 10)

	// allocating twice finds the account in use
	assert.ErrorIs(t, rt.process(NewAllocateInstruction(key, 10)), SystemProgErrAccountAlreadyInUse)

	require.NoError(t, rt.process(NewAssignInstruction(key, TokenProgramAddr)))
	assert.Equal(t, TokenProgramAddr, rt.account(key).Owner)

	// the system program no longer owns it
	assert.ErrorIs(t, rt.process(NewAssignInstruction(key, SystemProgramAddr)), InstrErrModifiedProgramId)
}

func TestSystemProgram_InvalidData(t *testing.T) {
	key := newKey()
	rt := newTestRuntime(t, DefaultProgramRegistry(), systemAccount(key, 100))

	ix := Instruction{Accounts: []AccountMeta{{Pubkey: key, IsSigner: true, IsWritable: true}}, Data: []byte{99, 0, 0, 0}, ProgramId: SystemProgramAddr}
	assert.ErrorIs(t, rt.process(ix), InstrErrInvalidInstructionData)

	ix.Data = []byte{2}
	assert.ErrorIs(t, rt.process(ix), InstrErrInvalidInstructionData)
}
