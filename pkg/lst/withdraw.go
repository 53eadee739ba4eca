package lst

import (
	"github.com/Overclock-Validator/liquidstake/pkg/safemath"
	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

const (
	withdrawAcctIdxUnstaker = iota
	withdrawAcctIdxUnstakerBaseToken
	withdrawAcctIdxPoolState
	withdrawAcctIdxPendingWithdraw
	withdrawAcctIdxVault
	withdrawAcctIdxTokenProgram
	withdrawNumAccounts
)

func (p *Program) withdraw(execCtx *sealevel.ExecutionCtx, args *WithdrawArgs) error {
	ia, err := newInstrAccounts(execCtx, withdrawNumAccounts)
	if err != nil {
		return err
	}

	unstaker, err := ia.borrow(withdrawAcctIdxUnstaker)
	if err != nil {
		return err
	}
	if err = CheckSigner(unstaker); err != nil {
		return err
	}
	if err = CheckWritable(unstaker); err != nil {
		return err
	}

	poolState, err := ia.borrow(withdrawAcctIdxPoolState)
	if err != nil {
		return err
	}
	if err = CheckWritable(poolState); err != nil {
		return err
	}
	state, err := p.loadPoolState(poolState)
	if err != nil {
		return err
	}

	vault, err := ia.borrow(withdrawAcctIdxVault)
	if err != nil {
		return err
	}
	if err = CheckWritable(vault); err != nil {
		return err
	}
	vaultToken, err := loadVault(vault, poolState.Key(), state)
	if err != nil {
		return err
	}

	unstakerBase, err := ia.borrow(withdrawAcctIdxUnstakerBaseToken)
	if err != nil {
		return err
	}
	if err = CheckWritable(unstakerBase); err != nil {
		return err
	}
	if _, err = DecodeTokenAccount(unstakerBase, state.BaseMint, unstaker.Key()); err != nil {
		return err
	}

	pendingWithdraw, err := ia.borrow(withdrawAcctIdxPendingWithdraw)
	if err != nil {
		return err
	}
	if err = CheckWritable(pendingWithdraw); err != nil {
		return err
	}
	if err = CheckOwner(pendingWithdraw, p.ProgramID); err != nil {
		return err
	}
	pending, err := UnpackPendingWithdraw(pendingWithdraw.Data())
	if err != nil {
		return err
	}
	seeds := pendingWithdrawSeeds(unstaker.Key(), args.WithdrawIndex)
	if err = CheckSeedsWithBump(pendingWithdraw, seeds, pending.Bump, p.ProgramID); err != nil {
		return err
	}
	if pending.Unstaker != unstaker.Key() || pending.WithdrawIndex != args.WithdrawIndex {
		return ErrInvalidAccountData
	}

	tokenProgram, err := ia.borrow(withdrawAcctIdxTokenProgram)
	if err != nil {
		return err
	}
	if err = CheckAddress(tokenProgram, sealevel.TokenProgramAddr); err != nil {
		return err
	}

	now := execCtx.SysvarCache.Clock().UnixTimestamp
	if now < pending.WithdrawableTimestamp {
		return ErrCooldownNotElapsed
	}

	preEscrow := state.EscrowedBaseAmount
	newEscrow, err := safemath.CheckedSubU64(state.EscrowedBaseAmount, pending.WithdrawableBaseAmount)
	if err != nil {
		return ErrArithmetic
	}
	if vaultToken.Amount < pending.WithdrawableBaseAmount {
		return ErrInsufficientFunds
	}

	signerSeeds := [][][]byte{withBump(poolStateSeeds(), state.StateBump)}
	err = execCtx.NativeInvokeSigned(sealevel.NewTokenTransferInstruction(vault.Key(), unstakerBase.Key(), poolState.Key(), pending.WithdrawableBaseAmount), signerSeeds)
	if err != nil {
		return err
	}

	state.EscrowedBaseAmount = newEscrow
	err = poolState.SetData(state.Pack())
	if err != nil {
		return err
	}

	err = closeAccount(pendingWithdraw, unstaker)
	if err != nil {
		return err
	}

	emitEvent(execCtx.Log, &WithdrawEvent{
		Unstaker:              unstaker.Key(),
		WithdrawIndex:         args.WithdrawIndex,
		BaseOut:               pending.WithdrawableBaseAmount,
		Timestamp:             now,
		PreVaultAmount:        vaultToken.Amount,
		PreEscrowedBaseAmount: preEscrow,
	})
	return nil
}

// closeAccount refunds every lamport to dest, clears the data and hands
// the account back to the system program.
func closeAccount(acct *sealevel.BorrowedAccount, dest *sealevel.BorrowedAccount) error {
	lamports := acct.Lamports()
	err := dest.CheckedAddLamports(lamports)
	if err != nil {
		return ErrArithmetic
	}
	err = acct.SetLamports(0)
	if err != nil {
		return err
	}
	err = acct.SetDataLength(0)
	if err != nil {
		return err
	}
	return acct.SetOwner(sealevel.SystemProgramAddr)
}
