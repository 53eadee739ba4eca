package lst

import (
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/liquidstake/pkg/pda"
	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

// instrAccounts gives positional access to the accounts of the
// instruction being executed.
type instrAccounts struct {
	txCtx    *sealevel.TransactionCtx
	instrCtx *sealevel.InstructionCtx
}

func newInstrAccounts(execCtx *sealevel.ExecutionCtx, expected uint64) (*instrAccounts, error) {
	instrCtx, err := execCtx.TransactionContext.CurrentInstructionCtx()
	if err != nil {
		return nil, err
	}
	if instrCtx.NumberOfInstructionAccounts() < expected {
		return nil, ErrNotEnoughAccountKeys
	}
	return &instrAccounts{txCtx: execCtx.TransactionContext, instrCtx: instrCtx}, nil
}

func (ia *instrAccounts) borrow(idx uint64) (*sealevel.BorrowedAccount, error) {
	acct, err := ia.instrCtx.BorrowInstructionAccount(ia.txCtx, idx)
	if err != nil {
		return nil, ErrNotEnoughAccountKeys
	}
	return acct, nil
}

func CheckSigner(acct *sealevel.BorrowedAccount) error {
	if !acct.IsSigner() {
		klog.V(2).Infof("account %s must sign", acct.Key())
		return ErrInvalidAccountRole
	}
	return nil
}

func CheckWritable(acct *sealevel.BorrowedAccount) error {
	if !acct.IsWritable() {
		klog.V(2).Infof("account %s must be writable", acct.Key())
		return ErrInvalidAccountRole
	}
	return nil
}

func CheckOwner(acct *sealevel.BorrowedAccount, owner solana.PublicKey) error {
	if acct.Owner() != owner {
		klog.V(2).Infof("account %s owned by %s, expected %s", acct.Key(), acct.Owner(), owner)
		return ErrIncorrectOwner
	}
	return nil
}

func CheckAddress(acct *sealevel.BorrowedAccount, expected solana.PublicKey) error {
	if acct.Key() != expected {
		klog.V(2).Infof("account %s, expected %s", acct.Key(), expected)
		return ErrIncorrectAccountAddress
	}
	return nil
}

// CheckCanonicalSeeds derives the canonical address for seeds and
// returns its bump if it matches the account.
func CheckCanonicalSeeds(acct *sealevel.BorrowedAccount, seeds [][]byte, programID solana.PublicKey) (uint8, error) {
	expected, bump, err := pda.FindProgramAddress(seeds, programID)
	if err != nil || expected != acct.Key() {
		klog.V(2).Infof("account %s does not match derived address %s", acct.Key(), expected)
		return 0, ErrInvalidSeeds
	}
	return bump, nil
}

// CheckSeedsWithBump recomputes the address with exactly the declared
// bump. A non-canonical bump that still derives a valid address is
// rejected because it will not equal the cached canonical one.
func CheckSeedsWithBump(acct *sealevel.BorrowedAccount, seeds [][]byte, bump uint8, programID solana.PublicKey) error {
	if !pda.VerifyProgramAddress(acct.Key(), seeds, bump, programID) {
		klog.V(2).Infof("account %s does not match seeds with bump %d", acct.Key(), bump)
		return ErrInvalidSeeds
	}
	return nil
}

// DecodeTokenAccount decodes a token account and checks it is bound to
// mint and held by owner.
func DecodeTokenAccount(acct *sealevel.BorrowedAccount, mint solana.PublicKey, owner solana.PublicKey) (*sealevel.TokenAccount, error) {
	if err := CheckOwner(acct, sealevel.TokenProgramAddr); err != nil {
		return nil, err
	}
	tokenAcct, err := sealevel.UnpackTokenAccount(acct.Data())
	if err != nil {
		return nil, ErrInvalidAccountData
	}
	if tokenAcct.Mint != mint {
		klog.V(2).Infof("token account %s has mint %s, expected %s", acct.Key(), tokenAcct.Mint, mint)
		return nil, ErrInvalidAccountData
	}
	if tokenAcct.Owner != owner {
		klog.V(2).Infof("token account %s held by %s, expected %s", acct.Key(), tokenAcct.Owner, owner)
		return nil, ErrInvalidAccountData
	}
	return tokenAcct, nil
}

func DecodeMint(acct *sealevel.BorrowedAccount) (*sealevel.TokenMint, error) {
	if err := CheckOwner(acct, sealevel.TokenProgramAddr); err != nil {
		return nil, err
	}
	mint, err := sealevel.UnpackTokenMint(acct.Data())
	if err != nil {
		return nil, ErrInvalidAccountData
	}
	return mint, nil
}

// loadPoolState checks the pool record's owner and address and decodes
// it.
func (p *Program) loadPoolState(acct *sealevel.BorrowedAccount) (*PoolState, error) {
	if err := CheckOwner(acct, p.ProgramID); err != nil {
		return nil, err
	}
	state, err := UnpackPoolState(acct.Data())
	if err != nil {
		return nil, err
	}
	if err = CheckSeedsWithBump(acct, poolStateSeeds(), state.StateBump, p.ProgramID); err != nil {
		return nil, err
	}
	return state, nil
}

// loadVault checks the vault address against the cached bump and the
// decoded token account against the pool.
func loadVault(acct *sealevel.BorrowedAccount, poolStateKey solana.PublicKey, state *PoolState) (*sealevel.TokenAccount, error) {
	err := CheckSeedsWithBump(acct, vaultSeeds(poolStateKey, state.BaseMint), state.VaultBump, sealevel.AssociatedTokenProgramAddr)
	if err != nil {
		return nil, err
	}
	return DecodeTokenAccount(acct, state.BaseMint, poolStateKey)
}

func loadReceiptMint(acct *sealevel.BorrowedAccount, state *PoolState) (*sealevel.TokenMint, error) {
	if err := CheckAddress(acct, state.ReceiptMint); err != nil {
		return nil, err
	}
	return DecodeMint(acct)
}
