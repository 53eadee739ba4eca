// Package cu meters compute units within a transaction.
package cu

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/liquidstake/pkg/safemath"
)

var ErrComputeExceeded = errors.New("compute budget exceeded")

const DefaultComputeBudget = 200000

// ComputeMeter is copied by value into each execution context. Once a
// charge exceeds the budget the meter stays drained.
type ComputeMeter struct {
	budget    uint64
	remaining uint64
}

func NewComputeMeter(budget uint64) ComputeMeter {
	return ComputeMeter{budget: budget, remaining: budget}
}

func NewComputeMeterDefault() ComputeMeter {
	return NewComputeMeter(DefaultComputeBudget)
}

func (cm *ComputeMeter) Consume(cost uint64) error {
	if cm.remaining < cost {
		klog.V(3).Infof("compute charge of %d exceeds remaining %d", cost, cm.remaining)
		cm.remaining = 0
		return errors.Wrapf(ErrComputeExceeded, "charged %d with budget %d", cost, cm.budget)
	}
	cm.remaining = safemath.SaturatingSubU64(cm.remaining, cost)
	return nil
}

func (cm *ComputeMeter) Used() uint64 {
	return cm.budget - cm.remaining
}

func (cm *ComputeMeter) Remaining() uint64 {
	return cm.remaining
}

func (cm *ComputeMeter) Budget() uint64 {
	return cm.budget
}
