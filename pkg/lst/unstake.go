package lst

import (
	"github.com/Overclock-Validator/liquidstake/pkg/safemath"
	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

const (
	unstakeAcctIdxUnstaker = iota
	unstakeAcctIdxUnstakerReceiptToken
	unstakeAcctIdxPoolState
	unstakeAcctIdxPendingWithdraw
	unstakeAcctIdxVault
	unstakeAcctIdxReceiptMint
	unstakeAcctIdxSystemProgram
	unstakeAcctIdxTokenProgram
	unstakeNumAccounts
)

func (p *Program) unstake(execCtx *sealevel.ExecutionCtx, args *UnstakeArgs) error {
	ia, err := newInstrAccounts(execCtx, unstakeNumAccounts)
	if err != nil {
		return err
	}

	unstaker, err := ia.borrow(unstakeAcctIdxUnstaker)
	if err != nil {
		return err
	}
	if err = CheckSigner(unstaker); err != nil {
		return err
	}
	if err = CheckWritable(unstaker); err != nil {
		return err
	}

	poolState, err := ia.borrow(unstakeAcctIdxPoolState)
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

	receiptMintAcct, err := ia.borrow(unstakeAcctIdxReceiptMint)
	if err != nil {
		return err
	}
	if err = CheckWritable(receiptMintAcct); err != nil {
		return err
	}
	receiptMint, err := loadReceiptMint(receiptMintAcct, state)
	if err != nil {
		return err
	}

	vault, err := ia.borrow(unstakeAcctIdxVault)
	if err != nil {
		return err
	}
	vaultToken, err := loadVault(vault, poolState.Key(), state)
	if err != nil {
		return err
	}

	unstakerReceipt, err := ia.borrow(unstakeAcctIdxUnstakerReceiptToken)
	if err != nil {
		return err
	}
	if err = CheckWritable(unstakerReceipt); err != nil {
		return err
	}
	unstakerReceiptToken, err := DecodeTokenAccount(unstakerReceipt, state.ReceiptMint, unstaker.Key())
	if err != nil {
		return err
	}

	// a live record at this index is owned by the program and is rejected
	// here, so an index cannot be reused before it is withdrawn
	pendingWithdraw, err := ia.borrow(unstakeAcctIdxPendingWithdraw)
	if err != nil {
		return err
	}
	if err = CheckWritable(pendingWithdraw); err != nil {
		return err
	}
	if err = CheckOwner(pendingWithdraw, sealevel.SystemProgramAddr); err != nil {
		return err
	}
	seeds := pendingWithdrawSeeds(unstaker.Key(), args.WithdrawIndex)
	pendingBump, err := CheckCanonicalSeeds(pendingWithdraw, seeds, p.ProgramID)
	if err != nil {
		return err
	}

	systemProgram, err := ia.borrow(unstakeAcctIdxSystemProgram)
	if err != nil {
		return err
	}
	if err = CheckAddress(systemProgram, sealevel.SystemProgramAddr); err != nil {
		return err
	}

	tokenProgram, err := ia.borrow(unstakeAcctIdxTokenProgram)
	if err != nil {
		return err
	}
	if err = CheckAddress(tokenProgram, sealevel.TokenProgramAddr); err != nil {
		return err
	}

	if unstakerReceiptToken.Amount < args.Amount {
		return ErrInsufficientFunds
	}

	// priced against the supply before the burn
	pre := Snapshot{
		VaultAmount:        vaultToken.Amount,
		EscrowedBaseAmount: state.EscrowedBaseAmount,
		ReceiptSupply:      receiptMint.Supply,
	}
	baseOut, err := pre.ToBase(args.Amount)
	if err != nil {
		return err
	}

	newEscrow, err := safemath.CheckedAddU64(state.EscrowedBaseAmount, baseOut)
	if err != nil {
		return ErrArithmetic
	}
	// the vault must always cover every pending withdrawal
	if newEscrow > pre.VaultAmount {
		return ErrInsufficientFunds
	}

	now := execCtx.SysvarCache.Clock().UnixTimestamp
	withdrawableAt, err := safemath.CheckedAddI64(now, state.CooldownPeriodSeconds)
	if err != nil {
		return ErrArithmetic
	}

	err = execCtx.NativeInvoke(sealevel.NewTokenBurnInstruction(unstakerReceipt.Key(), receiptMintAcct.Key(), unstaker.Key(), args.Amount), nil)
	if err != nil {
		return err
	}

	signerSeeds := [][][]byte{withBump(seeds, pendingBump)}
	err = sealevel.CreatePdaAccount(execCtx, unstaker.Key(), pendingWithdraw, PendingWithdrawLen, p.ProgramID, signerSeeds)
	if err != nil {
		return err
	}

	pending := PendingWithdraw{
		Bump:                   pendingBump,
		WithdrawIndex:          args.WithdrawIndex,
		Unstaker:               unstaker.Key(),
		WithdrawableBaseAmount: baseOut,
		WithdrawableTimestamp:  withdrawableAt,
	}
	err = pendingWithdraw.SetData(pending.Pack())
	if err != nil {
		return err
	}

	state.EscrowedBaseAmount = newEscrow
	err = poolState.SetData(state.Pack())
	if err != nil {
		return err
	}

	emitEvent(execCtx.Log, &UnstakeEvent{
		Unstaker:              unstaker.Key(),
		WithdrawIndex:         args.WithdrawIndex,
		ReceiptIn:             args.Amount,
		BaseOut:               baseOut,
		WithdrawableTimestamp: withdrawableAt,
		Pre:                   pre,
	})
	return nil
}
