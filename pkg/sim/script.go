package sim

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/liquidstake/pkg/lst"
)

// Step is one scripted operation. Fields not used by Op are ignored.
//
//	- op: stake | unstake | withdraw | set | warp | yield
//	  user: alice
//	  amount: 1000
//	  index: 0
//	  seconds: 60
//	  cooldown: 30
//	  authority: bob
//	  expect: fail
type Step struct {
	Op        string `yaml:"op"`
	User      string `yaml:"user"`
	Amount    uint64 `yaml:"amount"`
	Index     uint8  `yaml:"index"`
	Seconds   int64  `yaml:"seconds"`
	Cooldown  *int64 `yaml:"cooldown"`
	Authority string `yaml:"authority"`
	// Expect is "fail" for steps that must be rejected.
	Expect string `yaml:"expect"`
}

type Script struct {
	Steps []Step `yaml:"steps"`
}

var (
	ErrUnexpectedOutcome = errors.New("step outcome differs from expectation")
	ErrUnknownOp         = errors.New("unknown op")
)

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	script := new(Script)
	if err = yaml.Unmarshal(data, script); err != nil {
		return nil, errors.Wrapf(err, "parsing script %s", path)
	}
	return script, nil
}

func (s *Simulator) runStep(step Step) error {
	var err error
	switch step.Op {
	case "stake":
		_, err = s.Stake(step.User, step.Amount)
	case "unstake":
		_, err = s.Unstake(step.User, step.Amount, step.Index)
	case "withdraw":
		_, err = s.Withdraw(step.User, step.Index)
	case "set":
		_, err = s.Set(step.Cooldown, step.Authority)
	case "warp":
		_, err = s.Warp(step.Seconds)
	case "yield":
		_, err = s.Yield(step.Amount)
	default:
		return errors.Wrapf(ErrUnknownOp, "%q", step.Op)
	}
	return err
}

// RunScript executes every step in order, calling progress after each.
// It stops at the first step whose outcome does not match Expect, or
// when ctx is cancelled.
func (s *Simulator) RunScript(ctx context.Context, script *Script, progress func()) error {
	for idx, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.runStep(step)
		wantFail := step.Expect == "fail"
		switch {
		case errors.Is(err, ErrUnknownUser), errors.Is(err, ErrUnknownOp):
			return errors.Wrapf(err, "step %d", idx)
		case err != nil && !wantFail:
			return errors.Wrapf(err, "step %d (%s)", idx, step.Op)
		case err == nil && wantFail:
			return errors.Wrapf(ErrUnexpectedOutcome, "step %d (%s) succeeded", idx, step.Op)
		case err != nil:
			code, ok := lst.ErrorCode(err)
			klog.V(1).Infof("step %d (%s) rejected as expected: %s (code %d, program error %t)", idx, step.Op, err, code, ok)
		default:
			klog.V(1).Infof("step %d (%s) ok", idx, step.Op)
		}

		if progress != nil {
			progress()
		}
	}
	return nil
}
