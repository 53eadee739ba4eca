package lst

import (
	"github.com/Overclock-Validator/liquidstake/pkg/safemath"
	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

const (
	stakeAcctIdxStaker = iota
	stakeAcctIdxStakerBaseToken
	stakeAcctIdxStakerReceiptToken
	stakeAcctIdxPoolState
	stakeAcctIdxVault
	stakeAcctIdxReceiptMint
	stakeAcctIdxTokenProgram
	stakeNumAccounts
)

func (p *Program) stake(execCtx *sealevel.ExecutionCtx, args *StakeArgs) error {
	ia, err := newInstrAccounts(execCtx, stakeNumAccounts)
	if err != nil {
		return err
	}

	staker, err := ia.borrow(stakeAcctIdxStaker)
	if err != nil {
		return err
	}
	if err = CheckSigner(staker); err != nil {
		return err
	}

	poolState, err := ia.borrow(stakeAcctIdxPoolState)
	if err != nil {
		return err
	}
	state, err := p.loadPoolState(poolState)
	if err != nil {
		return err
	}

	receiptMintAcct, err := ia.borrow(stakeAcctIdxReceiptMint)
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

	vault, err := ia.borrow(stakeAcctIdxVault)
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

	stakerBase, err := ia.borrow(stakeAcctIdxStakerBaseToken)
	if err != nil {
		return err
	}
	if err = CheckWritable(stakerBase); err != nil {
		return err
	}
	stakerBaseToken, err := DecodeTokenAccount(stakerBase, state.BaseMint, staker.Key())
	if err != nil {
		return err
	}

	stakerReceipt, err := ia.borrow(stakeAcctIdxStakerReceiptToken)
	if err != nil {
		return err
	}
	if err = CheckWritable(stakerReceipt); err != nil {
		return err
	}
	if _, err = DecodeTokenAccount(stakerReceipt, state.ReceiptMint, staker.Key()); err != nil {
		return err
	}

	tokenProgram, err := ia.borrow(stakeAcctIdxTokenProgram)
	if err != nil {
		return err
	}
	if err = CheckAddress(tokenProgram, sealevel.TokenProgramAddr); err != nil {
		return err
	}

	if stakerBaseToken.Amount < args.Amount {
		return ErrInsufficientFunds
	}

	pre := Snapshot{
		VaultAmount:        vaultToken.Amount,
		EscrowedBaseAmount: state.EscrowedBaseAmount,
		ReceiptSupply:      receiptMint.Supply,
	}
	receiptOut, err := pre.ToReceipt(args.Amount)
	if err != nil {
		return err
	}

	// balances after the transfer and mint must stay representable
	if _, err = safemath.CheckedAddU64(pre.VaultAmount, args.Amount); err != nil {
		return ErrArithmetic
	}
	if _, err = safemath.CheckedAddU64(pre.ReceiptSupply, receiptOut); err != nil {
		return ErrArithmetic
	}

	err = execCtx.NativeInvoke(sealevel.NewTokenTransferInstruction(stakerBase.Key(), vault.Key(), staker.Key(), args.Amount), nil)
	if err != nil {
		return err
	}

	signerSeeds := [][][]byte{withBump(poolStateSeeds(), state.StateBump)}
	err = execCtx.NativeInvokeSigned(sealevel.NewTokenMintToInstruction(receiptMintAcct.Key(), stakerReceipt.Key(), poolState.Key(), receiptOut), signerSeeds)
	if err != nil {
		return err
	}

	emitEvent(execCtx.Log, &StakeEvent{Staker: staker.Key(), BaseIn: args.Amount, ReceiptOut: receiptOut, Pre: pre})
	return nil
}
