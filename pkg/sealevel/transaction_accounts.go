package sealevel

import (
	"github.com/Overclock-Validator/liquidstake/pkg/accounts"
)

// TransactionAccounts is the staged working set of a transaction. Every
// account is a private copy; nothing reaches the store until the bank
// commits the touched entries.
type TransactionAccounts struct {
	Accounts []*accounts.Account
	Touched  []bool
}

func NewTransactionAccounts(accts []accounts.Account) *TransactionAccounts {
	txAccounts := new(TransactionAccounts)
	txAccounts.Accounts = make([]*accounts.Account, 0, len(accts))
	for idx := range accts {
		txAccounts.Accounts = append(txAccounts.Accounts, accts[idx].Clone())
	}
	txAccounts.Touched = make([]bool, len(accts))
	return txAccounts
}

func (txAccounts *TransactionAccounts) GetAccount(idx uint64) (*accounts.Account, error) {
	if idx >= uint64(len(txAccounts.Accounts)) {
		return nil, InstrErrMissingAccount
	}
	return txAccounts.Accounts[idx], nil
}

func (txAccounts *TransactionAccounts) Touch(idx uint64) error {
	if idx >= uint64(len(txAccounts.Touched)) {
		return InstrErrNotEnoughAccountKeys
	}
	txAccounts.Touched[idx] = true
	return nil
}

func (txAccounts *TransactionAccounts) TouchedAccounts() []*accounts.Account {
	var touched []*accounts.Account
	for idx, t := range txAccounts.Touched {
		if t {
			touched = append(touched, txAccounts.Accounts[idx])
		}
	}
	return touched
}
