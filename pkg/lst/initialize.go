package lst

import (
	"fmt"

	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

const (
	initializeAcctIdxPayer = iota
	initializeAcctIdxPoolState
	initializeAcctIdxReceiptMint
	initializeAcctIdxBaseMint
	initializeAcctIdxVault
	initializeAcctIdxSystemProgram
	initializeAcctIdxTokenProgram
	initializeNumAccounts
)

func (p *Program) initialize(execCtx *sealevel.ExecutionCtx, args *InitializeArgs) error {
	ia, err := newInstrAccounts(execCtx, initializeNumAccounts)
	if err != nil {
		return err
	}

	payer, err := ia.borrow(initializeAcctIdxPayer)
	if err != nil {
		return err
	}
	if err = CheckSigner(payer); err != nil {
		return err
	}
	if err = CheckWritable(payer); err != nil {
		return err
	}

	// the pool record must not exist yet
	poolState, err := ia.borrow(initializeAcctIdxPoolState)
	if err != nil {
		return err
	}
	if err = CheckWritable(poolState); err != nil {
		return err
	}
	if err = CheckOwner(poolState, sealevel.SystemProgramAddr); err != nil {
		return err
	}
	stateBump, err := CheckCanonicalSeeds(poolState, poolStateSeeds(), p.ProgramID)
	if err != nil {
		return err
	}

	receiptMintAcct, err := ia.borrow(initializeAcctIdxReceiptMint)
	if err != nil {
		return err
	}
	receiptMint, err := DecodeMint(receiptMintAcct)
	if err != nil {
		return err
	}
	if receiptMint.Supply != 0 {
		return ErrInvalidAccountData
	}
	if receiptMint.MintAuthority == nil || *receiptMint.MintAuthority != poolState.Key() {
		return ErrInvalidAccountData
	}
	if receiptMint.FreezeAuthority != nil {
		return ErrInvalidAccountData
	}

	baseMintAcct, err := ia.borrow(initializeAcctIdxBaseMint)
	if err != nil {
		return err
	}
	if _, err = DecodeMint(baseMintAcct); err != nil {
		return err
	}
	if baseMintAcct.Key() == receiptMintAcct.Key() {
		return ErrIncorrectAccountAddress
	}

	vault, err := ia.borrow(initializeAcctIdxVault)
	if err != nil {
		return err
	}
	vaultBump, err := CheckCanonicalSeeds(vault, vaultSeeds(poolState.Key(), baseMintAcct.Key()), sealevel.AssociatedTokenProgramAddr)
	if err != nil {
		return err
	}
	if _, err = DecodeTokenAccount(vault, baseMintAcct.Key(), poolState.Key()); err != nil {
		return err
	}

	systemProgram, err := ia.borrow(initializeAcctIdxSystemProgram)
	if err != nil {
		return err
	}
	if err = CheckAddress(systemProgram, sealevel.SystemProgramAddr); err != nil {
		return err
	}

	tokenProgram, err := ia.borrow(initializeAcctIdxTokenProgram)
	if err != nil {
		return err
	}
	if err = CheckAddress(tokenProgram, sealevel.TokenProgramAddr); err != nil {
		return err
	}

	if args.UpdateAuthority != p.BootstrapAuthority {
		return ErrIncorrectAccountAddress
	}
	if args.CooldownPeriodSeconds < 0 {
		return ErrInvalidCooldownPeriod
	}

	signerSeeds := [][][]byte{withBump(poolStateSeeds(), stateBump)}
	err = sealevel.CreatePdaAccount(execCtx, payer.Key(), poolState, PoolStateLen, p.ProgramID, signerSeeds)
	if err != nil {
		return err
	}

	state := PoolState{
		StateBump:             stateBump,
		VaultBump:             vaultBump,
		EscrowedBaseAmount:    0,
		CooldownPeriodSeconds: args.CooldownPeriodSeconds,
		UpdateAuthority:       args.UpdateAuthority,
		BaseMint:              baseMintAcct.Key(),
		ReceiptMint:           receiptMintAcct.Key(),
	}
	err = poolState.SetData(state.Pack())
	if err != nil {
		return err
	}

	sealevel.LogMsg(execCtx.Log, fmt.Sprintf("initialized pool %s base_mint=%s receipt_mint=%s cooldown=%d",
		poolState.Key(), state.BaseMint, state.ReceiptMint, state.CooldownPeriodSeconds))
	return nil
}
