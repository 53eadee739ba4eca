package lst

import (
	"errors"

	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

// program errors, reported as custom program errors
var (
	ErrUnknownInstruction      = sealevel.NewCustomError(0, "UnknownInstruction")
	ErrWrongProgram            = sealevel.NewCustomError(1, "WrongProgram")
	ErrInvalidAccountRole      = sealevel.NewCustomError(2, "InvalidAccountRole")
	ErrNotEnoughAccountKeys    = sealevel.NewCustomError(3, "NotEnoughAccountKeys")
	ErrIncorrectOwner          = sealevel.NewCustomError(4, "IncorrectOwner")
	ErrInvalidSeeds            = sealevel.NewCustomError(5, "InvalidSeeds")
	ErrIncorrectAccountAddress = sealevel.NewCustomError(6, "IncorrectAccountAddress")
	ErrInvalidAccountData      = sealevel.NewCustomError(7, "InvalidAccountData")
	ErrInsufficientFunds       = sealevel.NewCustomError(8, "InsufficientFunds")
	ErrArithmetic              = sealevel.NewCustomError(9, "ArithmeticError")
	ErrInvalidCooldownPeriod   = sealevel.NewCustomError(10, "InvalidCooldownPeriod")
	ErrCooldownNotElapsed      = sealevel.NewCustomError(11, "CooldownNotElapsed")
	ErrInvalidInstructionData  = sealevel.NewCustomError(12, "InvalidInstructionData")
)

var programErrors = []*sealevel.CustomError{
	ErrUnknownInstruction,
	ErrWrongProgram,
	ErrInvalidAccountRole,
	ErrNotEnoughAccountKeys,
	ErrIncorrectOwner,
	ErrInvalidSeeds,
	ErrIncorrectAccountAddress,
	ErrInvalidAccountData,
	ErrInsufficientFunds,
	ErrArithmetic,
	ErrInvalidCooldownPeriod,
	ErrCooldownNotElapsed,
	ErrInvalidInstructionData,
}

// ErrorCode returns the numeric code of a program error anywhere in
// err's chain.
func ErrorCode(err error) (uint32, bool) {
	var custom *sealevel.CustomError
	if !errors.As(err, &custom) {
		return 0, false
	}
	for _, programErr := range programErrors {
		if programErr == custom {
			return custom.Code, true
		}
	}
	return 0, false
}

// ErrorFromCode maps a code back to its program error.
func ErrorFromCode(code uint32) error {
	for _, programErr := range programErrors {
		if programErr.Code == code {
			return programErr
		}
	}
	return nil
}
