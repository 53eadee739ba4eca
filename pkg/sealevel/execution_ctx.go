package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/liquidstake/pkg/cu"
	"github.com/Overclock-Validator/liquidstake/pkg/pda"
)

type ExecutionCtx struct {
	Log                Logger
	TransactionContext *TransactionCtx
	Programs           *ProgramRegistry
	SysvarCache        SysvarCache
	ComputeMeter       cu.ComputeMeter
}

// PrepareInstruction maps a cross-program invocation onto the caller's
// accounts. Duplicate metas are merged, and no account may gain a
// privilege the caller does not hold unless the caller signs for it
// through a program-derived address in signers.
func (execCtx *ExecutionCtx) PrepareInstruction(ix Instruction, signers []solana.PublicKey) ([]InstructionAccount, error) {
	txCtx := execCtx.TransactionContext

	ixCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return nil, err
	}

	dedupInstructionAccounts := make([]InstructionAccount, 0)
	duplicateIndices := make([]uint64, 0)

	for instructionAcctIndex, accountMeta := range ix.Accounts {
		indexInTx, err := txCtx.IndexOfAccount(accountMeta.Pubkey)
		if err != nil {
			klog.Errorf("instruction references unknown account %s", accountMeta.Pubkey)
			return nil, err
		}

		duplicateIndex := -1
		for index, instrAcct := range dedupInstructionAccounts {
			if instrAcct.IndexInTransaction == indexInTx {
				duplicateIndex = index
				break
			}
		}

		if duplicateIndex != -1 {
			duplicateIndices = append(duplicateIndices, uint64(duplicateIndex))
			dedupInstructionAccounts[duplicateIndex].IsSigner = dedupInstructionAccounts[duplicateIndex].IsSigner || accountMeta.IsSigner
			dedupInstructionAccounts[duplicateIndex].IsWritable = dedupInstructionAccounts[duplicateIndex].IsWritable || accountMeta.IsWritable
		} else {
			indexInCaller, err := ixCtx.IndexOfInstructionAccount(txCtx, accountMeta.Pubkey)
			if err != nil {
				return nil, err
			}
			duplicateIndices = append(duplicateIndices, uint64(len(dedupInstructionAccounts)))

			instrAcct := InstructionAccount{IndexInTransaction: indexInTx,
				IndexInCaller: indexInCaller,
				IndexInCallee: uint64(instructionAcctIndex),
				IsSigner:      accountMeta.IsSigner,
				IsWritable:    accountMeta.IsWritable}

			dedupInstructionAccounts = append(dedupInstructionAccounts, instrAcct)
		}
	}

	for _, instructionAcct := range dedupInstructionAccounts {
		borrowedAcct, err := ixCtx.BorrowInstructionAccount(txCtx, instructionAcct.IndexInCaller)
		if err != nil {
			return nil, err
		}

		if instructionAcct.IsWritable && !borrowedAcct.IsWritable() {
			klog.Errorf("%s is read-only in caller but writable in callee", borrowedAcct.Key())
			return nil, InstrErrPrivilegeEscalation
		}

		var presentInSigners bool
		for _, addr := range signers {
			if addr == borrowedAcct.Key() {
				presentInSigners = true
				break
			}
		}
		if instructionAcct.IsSigner && !(borrowedAcct.IsSigner() || presentInSigners) {
			klog.Errorf("%s signs in callee but not in caller", borrowedAcct.Key())
			return nil, InstrErrPrivilegeEscalation
		}
	}

	instructionAccounts := make([]InstructionAccount, 0, len(duplicateIndices))
	for _, duplicateIndex := range duplicateIndices {
		instructionAccounts = append(instructionAccounts, dedupInstructionAccounts[duplicateIndex])
	}

	// the callee must be passed in by the caller and be executable
	programAcctIdx, err := ixCtx.IndexOfInstructionAccount(txCtx, ix.ProgramId)
	if err != nil {
		klog.Errorf("unknown program %s", ix.ProgramId)
		return nil, err
	}

	borrowedProgramAcct, err := ixCtx.BorrowInstructionAccount(txCtx, programAcctIdx)
	if err != nil {
		return nil, err
	}

	if !borrowedProgramAcct.IsExecutable() {
		klog.Errorf("account %s is not executable", ix.ProgramId)
		return nil, InstrErrAccountNotExecutable
	}

	return instructionAccounts, nil
}

func (execCtx *ExecutionCtx) ProcessInstruction(programId solana.PublicKey, instrData []byte, instructionAccts []InstructionAccount) error {
	err := execCtx.Push(NewInstructionCtx(programId, instructionAccts, instrData))
	if err != nil {
		return err
	}

	err1 := execCtx.ExecuteInstruction()

	err2 := execCtx.Pop()

	if err1 != nil {
		return err1
	} else if err2 != nil {
		return err2
	}

	return nil
}

func (execCtx *ExecutionCtx) ExecuteInstruction() error {
	instrCtx, err := execCtx.TransactionContext.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	programId := instrCtx.ProgramId()
	nativeProgramFn, err := execCtx.Programs.Resolve(programId)
	if err != nil {
		klog.V(2).Infof("no native program registered at %s", programId)
		return err
	}

	klog.V(3).Infof("calling native program %s at stack height %d", programId, execCtx.StackHeight())
	return nativeProgramFn(execCtx)
}

// Push enters a new instruction frame. A program already on the stack
// may only be entered again as a direct self-invocation.
func (execCtx *ExecutionCtx) Push(instrCtx InstructionCtx) error {
	txCtx := execCtx.TransactionContext

	if txCtx.InstructionCtxStackHeight() != 0 {
		programId := instrCtx.ProgramId()

		var contains bool
		for level := uint64(0); level < txCtx.InstructionCtxStackHeight(); level++ {
			ic, err := txCtx.InstructionCtxAtNestingLevel(level)
			if err == nil && ic.ProgramId() == programId {
				contains = true
				break
			}
		}

		current, err := txCtx.CurrentInstructionCtx()
		if err != nil {
			return err
		}
		isLast := current.ProgramId() == programId

		if contains && !isLast {
			return InstrErrReentrancyNotAllowed
		}
	}

	return txCtx.Push(instrCtx)
}

func (execCtx *ExecutionCtx) Pop() error {
	return execCtx.TransactionContext.Pop()
}

func (execCtx *ExecutionCtx) StackHeight() uint64 {
	return execCtx.TransactionContext.InstructionCtxStackHeight()
}

func (execCtx *ExecutionCtx) NativeInvoke(instruction Instruction, signers []solana.PublicKey) error {
	err := execCtx.ComputeMeter.Consume(CUInvokeUnits)
	if err != nil {
		return InstrErrComputationalBudgetExceeded
	}

	instrAccts, err := execCtx.PrepareInstruction(instruction, signers)
	if err != nil {
		return err
	}

	return execCtx.ProcessInstruction(instruction.ProgramId, instruction.Data, instrAccts)
}

// NativeInvokeSigned invokes with the calling program signing for every
// address derived from signerSeeds.
func (execCtx *ExecutionCtx) NativeInvokeSigned(instruction Instruction, signerSeeds [][][]byte) error {
	instrCtx, err := execCtx.TransactionContext.CurrentInstructionCtx()
	if err != nil {
		return err
	}
	callerProgramId := instrCtx.ProgramId()

	signers := make([]solana.PublicKey, 0, len(signerSeeds))
	for _, seeds := range signerSeeds {
		err = execCtx.ComputeMeter.Consume(CUCreateProgramAddressUnits)
		if err != nil {
			return InstrErrComputationalBudgetExceeded
		}
		signer, err := pda.CreateProgramAddress(seeds, callerProgramId)
		if err != nil {
			return InstrErrInvalidSeeds
		}
		signers = append(signers, signer)
	}

	return execCtx.NativeInvoke(instruction, signers)
}
