// Package lst is the liquid-staking program: it takes deposits of a base
// asset into a pooled vault, mints a receipt asset at a floating exchange
// rate and redeems receipts for base after a cooldown.
package lst

import (
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/liquidstake/pkg/base58"
	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

const ProgramAddrStr = "2f71NvBTJDUq72fkdVvTDbsYCB3Z5Scmgev5zXjpnb79"

var ProgramAddr = solana.PublicKey(base58.MustDecodeFromString(ProgramAddrStr))

// BootstrapAuthorityAddrStr is the only update authority Initialize
// accepts on the default deployment.
const BootstrapAuthorityAddrStr = "4tJHGzShTZwgvaGQL9RPWDjgrH5Ptoir2ZU6vKJAVD1g"

var BootstrapAuthorityAddr = solana.PublicKey(base58.MustDecodeFromString(BootstrapAuthorityAddrStr))

// Program is one deployment of the liquid-staking program. Each
// deployment has its own pool record, so independent instances can share
// a ledger.
type Program struct {
	ProgramID          solana.PublicKey
	BootstrapAuthority solana.PublicKey
}

func NewProgram() *Program {
	return &Program{ProgramID: ProgramAddr, BootstrapAuthority: BootstrapAuthorityAddr}
}

func (p *Program) Register(registry *sealevel.ProgramRegistry) {
	registry.Register(p.ProgramID, p.Execute)
}

// Execute is the program entrypoint.
func (p *Program) Execute(execCtx *sealevel.ExecutionCtx) error {
	err := execCtx.ComputeMeter.Consume(sealevel.CULiquidStakeProgramDefaultComputeUnits)
	if err != nil {
		return sealevel.InstrErrComputationalBudgetExceeded
	}

	instrCtx, err := execCtx.TransactionContext.CurrentInstructionCtx()
	if err != nil {
		return err
	}
	if instrCtx.ProgramId() != p.ProgramID {
		return ErrWrongProgram
	}

	instr, err := DecodeInstruction(instrCtx.Data)
	if err != nil {
		return err
	}

	switch args := instr.(type) {
	case *InitializeArgs:
		sealevel.LogMsg(execCtx.Log, "Instruction: Initialize")
		err = p.initialize(execCtx, args)
	case *StakeArgs:
		sealevel.LogMsg(execCtx.Log, "Instruction: Stake")
		err = p.stake(execCtx, args)
	case *UnstakeArgs:
		sealevel.LogMsg(execCtx.Log, "Instruction: Unstake")
		err = p.unstake(execCtx, args)
	case *WithdrawArgs:
		sealevel.LogMsg(execCtx.Log, "Instruction: Withdraw")
		err = p.withdraw(execCtx, args)
	case *SetArgs:
		sealevel.LogMsg(execCtx.Log, "Instruction: Set")
		err = p.set(execCtx, args)
	default:
		err = ErrUnknownInstruction
	}

	if err != nil {
		klog.V(2).Infof("liquid stake instruction failed: %s", err)
		sealevel.LogMsg(execCtx.Log, "Error: "+err.Error())
	}
	return err
}
