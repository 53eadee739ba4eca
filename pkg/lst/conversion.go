package lst

import (
	"github.com/ryanavella/wide"

	"github.com/Overclock-Validator/liquidstake/pkg/safemath"
)

// Virtual offsets added to the receipt supply and the non-escrowed base
// balance before an exchange rate is taken. They bound how far a donation
// into a nearly empty vault can move the rate.
const (
	VirtualReceiptOffset = 100
	VirtualBaseOffset    = 100
)

// ToReceipt prices a deposit of baseIn base units in receipt units:
//
//	floor(baseIn * (receiptSupply + V_r) / (nonEscrowedBase + V_b))
//
// An empty pool (no supply or no backing) mints 1:1.
func ToReceipt(baseIn, nonEscrowedBase, receiptSupply uint64) (uint64, error) {
	if receiptSupply == 0 || nonEscrowedBase == 0 {
		return baseIn, nil
	}
	return mulDiv(baseIn,
		wide.Uint128FromUint64(receiptSupply).Add(wide.Uint128FromUint64(VirtualReceiptOffset)),
		wide.Uint128FromUint64(nonEscrowedBase).Add(wide.Uint128FromUint64(VirtualBaseOffset)))
}

// ToBase prices a redemption of receiptIn receipt units in base units:
//
//	floor(receiptIn * (nonEscrowedBase + V_b) / (receiptSupply + V_r))
//
// Redemption has no bootstrap rate; an empty pool is an arithmetic error.
func ToBase(receiptIn, nonEscrowedBase, receiptSupply uint64) (uint64, error) {
	if receiptSupply == 0 || nonEscrowedBase == 0 {
		return 0, ErrArithmetic
	}
	return mulDiv(receiptIn,
		wide.Uint128FromUint64(nonEscrowedBase).Add(wide.Uint128FromUint64(VirtualBaseOffset)),
		wide.Uint128FromUint64(receiptSupply).Add(wide.Uint128FromUint64(VirtualReceiptOffset)))
}

func mulDiv(amount uint64, numerator, denominator wide.Uint128) (uint64, error) {
	product, err := safemath.CheckedMulU128(wide.Uint128FromUint64(amount), numerator)
	if err != nil {
		return 0, ErrArithmetic
	}
	quotient, err := safemath.CheckedDivU128(product, denominator)
	if err != nil {
		return 0, ErrArithmetic
	}
	out, err := safemath.NarrowU128(quotient)
	if err != nil {
		return 0, ErrArithmetic
	}
	return out, nil
}
