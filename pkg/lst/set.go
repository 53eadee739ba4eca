package lst

import (
	"fmt"

	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

const (
	setAcctIdxUpdateAuthority = iota
	setAcctIdxPoolState
	setNumAccounts
)

// set applies the optional cooldown and authority updates. Writing a
// field's current value succeeds.
func (p *Program) set(execCtx *sealevel.ExecutionCtx, args *SetArgs) error {
	ia, err := newInstrAccounts(execCtx, setNumAccounts)
	if err != nil {
		return err
	}

	authority, err := ia.borrow(setAcctIdxUpdateAuthority)
	if err != nil {
		return err
	}
	if err = CheckSigner(authority); err != nil {
		return err
	}

	poolState, err := ia.borrow(setAcctIdxPoolState)
	if err != nil {
		return err
	}
	if err = CheckWritable(poolState); err != nil {
		return err
	}
	state, err := p.loadPoolState(poolState)
	if err != nil {
		return err
	}
	if authority.Key() != state.UpdateAuthority {
		return ErrIncorrectAccountAddress
	}

	if args.CooldownPeriodSeconds != nil {
		if *args.CooldownPeriodSeconds < 0 {
			return ErrInvalidCooldownPeriod
		}
		state.CooldownPeriodSeconds = *args.CooldownPeriodSeconds
	}
	if args.UpdateAuthority != nil {
		state.UpdateAuthority = *args.UpdateAuthority
	}

	err = poolState.SetData(state.Pack())
	if err != nil {
		return err
	}

	sealevel.LogMsg(execCtx.Log, fmt.Sprintf("pool settings cooldown=%d update_authority=%s",
		state.CooldownPeriodSeconds, state.UpdateAuthority))
	return nil
}
