package sealevel

import (
	"github.com/gagliardetto/solana-go"

	"github.com/Overclock-Validator/liquidstake/pkg/accounts"
	"github.com/Overclock-Validator/liquidstake/pkg/safemath"
)

// MaxPermittedDataLength bounds account data size.
const MaxPermittedDataLength = 10 * 1024 * 1024

type BorrowedAccount struct {
	TxCtx              *TransactionCtx
	InstrCtx           *InstructionCtx
	IndexInTransaction uint64
	IndexInInstruction uint64
	Account            *accounts.Account
}

func (acct *BorrowedAccount) Key() solana.PublicKey {
	return acct.Account.Key
}

func (acct *BorrowedAccount) Owner() solana.PublicKey {
	return acct.Account.Owner
}

func (acct *BorrowedAccount) Lamports() uint64 {
	return acct.Account.Lamports
}

func (acct *BorrowedAccount) Data() []byte {
	return acct.Account.Data
}

func (acct *BorrowedAccount) Touch() error {
	return acct.TxCtx.Accounts.Touch(acct.IndexInTransaction)
}

func (acct *BorrowedAccount) IsSigner() bool {
	isSigner, err := acct.InstrCtx.IsInstructionAccountSigner(acct.IndexInInstruction)
	if err != nil {
		return false
	}
	return isSigner
}

func (acct *BorrowedAccount) IsWritable() bool {
	writable, err := acct.InstrCtx.IsInstructionAccountWritable(acct.IndexInInstruction)
	if err != nil {
		return false
	}
	return writable
}

func (acct *BorrowedAccount) IsExecutable() bool {
	return acct.Account.Executable
}

func (acct *BorrowedAccount) IsOwnedByCurrentProgram() bool {
	return acct.InstrCtx.ProgramId() == acct.Owner()
}

func (acct *BorrowedAccount) DataCanBeChanged() error {
	if acct.IsExecutable() {
		return InstrErrExecutableDataModified
	}
	if !acct.IsWritable() {
		return InstrErrReadonlyDataModified
	}
	if !acct.IsOwnedByCurrentProgram() {
		return InstrErrExternalAccountDataModified
	}
	return nil
}

// SetData overwrites the account data in place; the length must not change.
func (acct *BorrowedAccount) SetData(data []byte) error {
	if err := acct.DataCanBeChanged(); err != nil {
		return err
	}
	if len(data) != len(acct.Account.Data) {
		return InstrErrInvalidRealloc
	}
	if err := acct.Touch(); err != nil {
		return err
	}
	acct.Account.SetData(data)
	return nil
}

func (acct *BorrowedAccount) SetDataLength(newLength uint64) error {
	if err := acct.DataCanBeChanged(); err != nil {
		return err
	}
	if newLength > MaxPermittedDataLength {
		return InstrErrInvalidRealloc
	}
	if uint64(len(acct.Account.Data)) == newLength {
		return nil
	}
	if err := acct.Touch(); err != nil {
		return err
	}
	data := make([]byte, newLength)
	copy(data, acct.Account.Data)
	acct.Account.Data = data
	return nil
}

func (acct *BorrowedAccount) SetLamports(lamports uint64) error {
	// only the owner may take lamports away
	if !acct.IsOwnedByCurrentProgram() && lamports < acct.Lamports() {
		return InstrErrExternalAccountLamportSpend
	}
	if !acct.IsWritable() {
		return InstrErrReadonlyLamportChange
	}
	if acct.IsExecutable() {
		return InstrErrExecutableLamportChange
	}
	if acct.Lamports() == lamports {
		return nil
	}
	if err := acct.Touch(); err != nil {
		return err
	}
	acct.Account.Lamports = lamports
	return nil
}

func (acct *BorrowedAccount) CheckedAddLamports(lamports uint64) error {
	newLamports, err := safemath.CheckedAddU64(acct.Lamports(), lamports)
	if err != nil {
		return InstrErrArithmeticOverflow
	}
	return acct.SetLamports(newLamports)
}

func (acct *BorrowedAccount) CheckedSubLamports(lamports uint64) error {
	newLamports, err := safemath.CheckedSubU64(acct.Lamports(), lamports)
	if err != nil {
		return InstrErrInsufficientFunds
	}
	return acct.SetLamports(newLamports)
}

// SetOwner reassigns the account. Only the current owner may do so, and
// only once the data has been cleared.
func (acct *BorrowedAccount) SetOwner(owner solana.PublicKey) error {
	if !acct.IsOwnedByCurrentProgram() {
		return InstrErrModifiedProgramId
	}
	if !acct.IsWritable() {
		return InstrErrModifiedProgramId
	}
	if acct.IsExecutable() {
		return InstrErrModifiedProgramId
	}
	for _, b := range acct.Data() {
		if b != 0 {
			return InstrErrModifiedProgramId
		}
	}
	if acct.Owner() == owner {
		return nil
	}
	if err := acct.Touch(); err != nil {
		return err
	}
	acct.Account.Owner = owner
	return nil
}
