package lst

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/Overclock-Validator/liquidstake/pkg/accounts"
	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

func loadAccount(store accounts.Accounts, key solana.PublicKey) (*accounts.Account, error) {
	pk := [32]byte(key)
	acct, err := store.GetAccount(&pk)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, fmt.Errorf("%s: %w", key, accounts.ErrNoAccount)
	}
	return acct, nil
}

func ReadPoolState(store accounts.Accounts, pool Pool) (*PoolState, error) {
	acct, err := loadAccount(store, pool.State)
	if err != nil {
		return nil, err
	}
	if acct.Owner != pool.ProgramID {
		return nil, ErrIncorrectOwner
	}
	return UnpackPoolState(acct.Data)
}

// ReadSnapshot reads the pool's pricing inputs from a ledger.
func ReadSnapshot(store accounts.Accounts, pool Pool) (Snapshot, error) {
	state, err := ReadPoolState(store, pool)
	if err != nil {
		return Snapshot{}, err
	}

	vaultAcct, err := loadAccount(store, pool.Vault)
	if err != nil {
		return Snapshot{}, err
	}
	vault, err := sealevel.UnpackTokenAccount(vaultAcct.Data)
	if err != nil {
		return Snapshot{}, err
	}

	mintAcct, err := loadAccount(store, state.ReceiptMint)
	if err != nil {
		return Snapshot{}, err
	}
	mint, err := sealevel.UnpackTokenMint(mintAcct.Data)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		VaultAmount:        vault.Amount,
		EscrowedBaseAmount: state.EscrowedBaseAmount,
		ReceiptSupply:      mint.Supply,
	}, nil
}

// QuoteStake is the receipt amount a stake of baseIn would mint against
// snapshot.
func QuoteStake(snapshot Snapshot, baseIn uint64) (uint64, error) {
	return snapshot.ToReceipt(baseIn)
}

// QuoteUnstake is the base amount an unstake of receiptIn would escrow.
func QuoteUnstake(snapshot Snapshot, receiptIn uint64) (uint64, error) {
	return snapshot.ToBase(receiptIn)
}

// ReadPendingWithdraw returns nil when no live record exists at index.
func ReadPendingWithdraw(store accounts.Accounts, pool Pool, unstaker solana.PublicKey, index uint8) (*PendingWithdraw, error) {
	pk := [32]byte(pool.PendingWithdrawAddress(unstaker, index))
	acct, err := store.GetAccount(&pk)
	if err != nil {
		return nil, err
	}
	if acct == nil || acct.Owner != pool.ProgramID {
		return nil, nil
	}
	return UnpackPendingWithdraw(acct.Data)
}

// ListPendingWithdraws scans every index of unstaker.
func ListPendingWithdraws(store accounts.Accounts, pool Pool, unstaker solana.PublicKey) ([]PendingWithdraw, error) {
	var out []PendingWithdraw
	for index := 0; index <= 255; index++ {
		pending, err := ReadPendingWithdraw(store, pool, unstaker, uint8(index))
		if err != nil {
			return nil, err
		}
		if pending != nil {
			out = append(out, *pending)
		}
	}
	return out, nil
}
