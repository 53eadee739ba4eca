package lst

import (
	"github.com/Overclock-Validator/liquidstake/pkg/safemath"
)

// Snapshot is the pool's pricing inputs read once at the start of an
// instruction.
type Snapshot struct {
	VaultAmount        uint64
	EscrowedBaseAmount uint64
	ReceiptSupply      uint64
}

// NonEscrowed is the vault balance backing the receipt supply.
func (s Snapshot) NonEscrowed() (uint64, error) {
	nonEscrowed, err := safemath.CheckedSubU64(s.VaultAmount, s.EscrowedBaseAmount)
	if err != nil {
		return 0, ErrArithmetic
	}
	return nonEscrowed, nil
}

func (s Snapshot) ToReceipt(baseIn uint64) (uint64, error) {
	nonEscrowed, err := s.NonEscrowed()
	if err != nil {
		return 0, err
	}
	return ToReceipt(baseIn, nonEscrowed, s.ReceiptSupply)
}

func (s Snapshot) ToBase(receiptIn uint64) (uint64, error) {
	nonEscrowed, err := s.NonEscrowed()
	if err != nil {
		return 0, err
	}
	return ToBase(receiptIn, nonEscrowed, s.ReceiptSupply)
}
