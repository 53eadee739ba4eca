package sealevel

import (
	"errors"
	"fmt"
)

// instruction errors
var (
	InstrErrInvalidInstructionData      = errors.New("InstrErrInvalidInstructionData")
	InstrErrNotEnoughAccountKeys        = errors.New("InstrErrNotEnoughAccountKeys")
	InstrErrComputationalBudgetExceeded = errors.New("InstrErrComputationalBudgetExceeded")
	InstrErrMissingAccount              = errors.New("InstrErrMissingAccount")
	InstrErrInvalidAccountOwner         = errors.New("InstrErrInvalidAccountOwner")
	InstrErrInvalidAccountData          = errors.New("InstrErrInvalidAccountData")
	InstrErrMissingRequiredSignature    = errors.New("InstrErrMissingRequiredSignature")
	InstrErrInvalidArgument             = errors.New("InstrErrInvalidArgument")
	InstrErrInvalidSeeds                = errors.New("InstrErrInvalidSeeds")
	InstrErrExecutableDataModified      = errors.New("InstrErrExecutableDataModified")
	InstrErrReadonlyDataModified        = errors.New("InstrErrReadonlyDataModified")
	InstrErrExternalAccountDataModified = errors.New("InstrErrExternalAccountDataModified")
	InstrErrModifiedProgramId           = errors.New("InstrErrModifiedProgramId")
	InstrErrPrivilegeEscalation         = errors.New("InstrErrPrivilegeEscalation")
	InstrErrAccountNotExecutable        = errors.New("InstrErrAccountNotExecutable")
	InstrErrInvalidRealloc              = errors.New("InstrErrInvalidRealloc")
	InstrErrCallDepth                   = errors.New("InstrErrCallDepth")
	InstrErrUnsupportedProgramId        = errors.New("InstrErrUnsupportedProgramId")
	InstrErrReentrancyNotAllowed        = errors.New("InstrErrReentrancyNotAllowed")
	InstrErrArithmeticOverflow          = errors.New("InstrErrArithmeticOverflow")
	InstrErrAccountDataTooSmall         = errors.New("InstrErrAccountDataTooSmall")
	InstrErrExternalAccountLamportSpend = errors.New("InstrErrExternalAccountLamportSpend")
	InstrErrReadonlyLamportChange       = errors.New("InstrErrReadonlyLamportChange")
	InstrErrExecutableLamportChange     = errors.New("InstrErrExecutableLamportChange")
	InstrErrInsufficientFunds           = errors.New("InstrErrInsufficientFunds")
	InstrErrAccountAlreadyInitialized   = errors.New("InstrErrAccountAlreadyInitialized")
	InstrErrUninitializedAccount        = errors.New("InstrErrUninitializedAccount")
	InstrErrIncorrectProgramId          = errors.New("InstrErrIncorrectProgramId")
)

// pubkey errors
var (
	PubkeyErrMaxSeedLengthExceeded = errors.New("PubkeyErrMaxSeedLengthExceeded")
	PubkeyErrInvalidSeeds          = errors.New("PubkeyErrInvalidSeeds")
)

// instruction errors - Solana numerical error codes
const (
	InstrErrCodeSuccess                     = 0
	InstrErrCodeInvalidArgument             = 2
	InstrErrCodeInvalidInstructionData      = 3
	InstrErrCodeInvalidAccountData          = 4
	InstrErrCodeAccountDataTooSmall         = 5
	InstrErrCodeInsufficientFunds           = 6
	InstrErrCodeIncorrectProgramId          = 7
	InstrErrCodeMissingRequiredSignature    = 8
	InstrErrCodeAccountAlreadyInitialized   = 9
	InstrErrCodeUninitializedAccount        = 10
	InstrErrCodeExternalAccountDataModified = 14
	InstrErrCodeReadonlyDataModified        = 16
	InstrErrCodeNotEnoughAccountKeys        = 20
	InstrErrCodeExecutableDataModified      = 28
	InstrErrCodeMissingAccount              = 33
	InstrErrCodeComputationalBudgetExceeded = 38
	InstrErrCodePrivilegeEscalation         = 39
	InstrErrCodeInvalidAccountOwner         = 47
	InstrErrCodeArithmeticOverflow          = 48
	InstrErrCodeInvalidSeeds                = 52
)

// CustomError is a program-defined error carrying a numeric code, the
// equivalent of InstructionError::Custom.
type CustomError struct {
	Code uint32
	Name string
}

func NewCustomError(code uint32, name string) *CustomError {
	return &CustomError{Code: code, Name: name}
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%s (custom program error: 0x%x)", e.Name, e.Code)
}

// TranslateErrToInstrErrCode maps runtime errors onto the numeric codes
// used in transaction status. Custom program errors are reported by the
// caller through CustomError.Code.
func TranslateErrToInstrErrCode(err error) int {
	switch {
	case errors.Is(err, InstrErrInvalidArgument):
		return InstrErrCodeInvalidArgument
	case errors.Is(err, InstrErrInvalidInstructionData):
		return InstrErrCodeInvalidInstructionData
	case errors.Is(err, InstrErrInvalidAccountData):
		return InstrErrCodeInvalidAccountData
	case errors.Is(err, InstrErrAccountDataTooSmall):
		return InstrErrCodeAccountDataTooSmall
	case errors.Is(err, InstrErrInsufficientFunds):
		return InstrErrCodeInsufficientFunds
	case errors.Is(err, InstrErrIncorrectProgramId):
		return InstrErrCodeIncorrectProgramId
	case errors.Is(err, InstrErrMissingRequiredSignature):
		return InstrErrCodeMissingRequiredSignature
	case errors.Is(err, InstrErrAccountAlreadyInitialized):
		return InstrErrCodeAccountAlreadyInitialized
	case errors.Is(err, InstrErrUninitializedAccount):
		return InstrErrCodeUninitializedAccount
	case errors.Is(err, InstrErrExternalAccountDataModified):
		return InstrErrCodeExternalAccountDataModified
	case errors.Is(err, InstrErrReadonlyDataModified):
		return InstrErrCodeReadonlyDataModified
	case errors.Is(err, InstrErrNotEnoughAccountKeys):
		return InstrErrCodeNotEnoughAccountKeys
	case errors.Is(err, InstrErrExecutableDataModified):
		return InstrErrCodeExecutableDataModified
	case errors.Is(err, InstrErrMissingAccount):
		return InstrErrCodeMissingAccount
	case errors.Is(err, InstrErrComputationalBudgetExceeded):
		return InstrErrCodeComputationalBudgetExceeded
	case errors.Is(err, InstrErrPrivilegeEscalation):
		return InstrErrCodePrivilegeEscalation
	case errors.Is(err, InstrErrInvalidAccountOwner):
		return InstrErrCodeInvalidAccountOwner
	case errors.Is(err, InstrErrArithmeticOverflow):
		return InstrErrCodeArithmeticOverflow
	case errors.Is(err, InstrErrInvalidSeeds):
		return InstrErrCodeInvalidSeeds
	}
	return -1
}
