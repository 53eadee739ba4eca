// Package bank is the transactional boundary around the runtime. A bank
// executes one signed transaction at a time against an account store:
// every account is staged in memory and touched accounts are written
// back only if every instruction succeeded.
package bank

import (
	"fmt"
	"sync"

	"github.com/VividCortex/ewma"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/liquidstake/pkg/accounts"
	"github.com/Overclock-Validator/liquidstake/pkg/cu"
	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

var (
	ErrSignatureVerification = errors.New("transaction signature verification failed")
	ErrInvalidAccountIndex   = errors.New("instruction references an account index outside the message")
)

// InstructionError reports which top-level instruction failed.
type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d failed: %s", e.Index, e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a committed transaction.
type Result struct {
	Logs           []string
	ComputeUnits   uint64
	AcctsDeltaHash [32]byte
	BankHash       [32]byte
}

type Bank struct {
	mu            sync.Mutex
	store         accounts.Accounts
	programs      *sealevel.ProgramRegistry
	computeBudget uint64
	bankHash      [32]byte
	txCount       uint64
	metrics       *Metrics
	cuAverage     ewma.MovingAverage
}

type Option func(*Bank)

// WithPrograms replaces the default native program set.
func WithPrograms(programs *sealevel.ProgramRegistry) Option {
	return func(b *Bank) {
		b.programs = programs
	}
}

func WithComputeBudget(budget uint64) Option {
	return func(b *Bank) {
		b.computeBudget = budget
	}
}

// New creates a bank over store and makes sure every registered program
// has an executable account.
func New(store accounts.Accounts, opts ...Option) (*Bank, error) {
	b := &Bank{
		store:         store,
		programs:      sealevel.DefaultProgramRegistry(),
		computeBudget: cu.DefaultComputeBudget,
		metrics:       newMetrics(),
		cuAverage:     ewma.NewMovingAverage(),
	}
	for _, opt := range opts {
		opt(b)
	}

	for _, programId := range b.programs.ProgramIds() {
		acct, err := b.GetAccount(programId)
		if err != nil {
			return nil, err
		}
		if acct != nil && acct.Executable {
			continue
		}
		programAcct := sealevel.NativeProgramAccount(programId)
		if err = b.SetAccount(&programAcct); err != nil {
			return nil, err
		}
	}

	clock, err := b.Clock()
	if err != nil {
		return nil, err
	}
	b.metrics.ClockUnixTime.Set(float64(clock.UnixTimestamp))

	return b, nil
}

func (b *Bank) Metrics() *Metrics {
	return b.metrics
}

func (b *Bank) Programs() *sealevel.ProgramRegistry {
	return b.programs
}

// AverageComputeUnits is a moving average of compute units per committed
// transaction.
func (b *Bank) AverageComputeUnits() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cuAverage.Value()
}

func (b *Bank) BankHash() [32]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bankHash
}

func (b *Bank) TransactionCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.txCount
}

// GetAccount returns nil for keys the store has never seen.
func (b *Bank) GetAccount(key solana.PublicKey) (*accounts.Account, error) {
	pk := [32]byte(key)
	acct, err := b.store.GetAccount(&pk)
	if err != nil {
		return nil, errors.Wrapf(err, "loading account %s", key)
	}
	return acct, nil
}

// SetAccount writes an account directly, bypassing execution. It is used
// for genesis and test fixtures.
func (b *Bank) SetAccount(acct *accounts.Account) error {
	pk := [32]byte(acct.Key)
	err := b.store.SetAccount(&pk, acct)
	if err != nil {
		return errors.Wrapf(err, "storing account %s", acct.Key)
	}
	return nil
}

func (b *Bank) Clock() (sealevel.SysvarClock, error) {
	clock, err := sealevel.ReadClockSysvar(b.store)
	if err != nil {
		return clock, errors.Wrap(err, "reading clock sysvar")
	}
	return clock, nil
}

func (b *Bank) SetClock(clock sealevel.SysvarClock) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := sealevel.WriteClockSysvar(b.store, clock)
	if err != nil {
		return errors.Wrap(err, "writing clock sysvar")
	}
	b.metrics.ClockUnixTime.Set(float64(clock.UnixTimestamp))
	return nil
}

// WarpClock advances the clock by seconds and one slot.
func (b *Bank) WarpClock(seconds int64) (sealevel.SysvarClock, error) {
	clock, err := b.Clock()
	if err != nil {
		return clock, err
	}
	clock.UnixTimestamp += seconds
	clock.Slot++
	return clock, b.SetClock(clock)
}

func isSignerIndex(msg *solana.Message, idx int) bool {
	return idx < int(msg.Header.NumRequiredSignatures)
}

func isWritableIndex(msg *solana.Message, idx int) bool {
	numSigned := int(msg.Header.NumRequiredSignatures)
	if idx < numSigned {
		return idx < numSigned-int(msg.Header.NumReadonlySignedAccounts)
	}
	return idx < len(msg.AccountKeys)-int(msg.Header.NumReadonlyUnsignedAccounts)
}

func (b *Bank) loadTransactionAccounts(msg *solana.Message) ([]accounts.Account, error) {
	txAccts := make([]accounts.Account, 0, len(msg.AccountKeys))
	for _, key := range msg.AccountKeys {
		acct, err := b.GetAccount(key)
		if err != nil {
			return nil, err
		}
		if acct == nil {
			acct = accounts.NewEmpty(key)
		}
		txAccts = append(txAccts, *acct)
	}
	return txAccts, nil
}

// instructionAccounts maps a compiled instruction's account indices. A
// duplicated account shares the callee index of its first occurrence.
func instructionAccounts(msg *solana.Message, inst solana.CompiledInstruction) ([]sealevel.InstructionAccount, error) {
	instrAccts := make([]sealevel.InstructionAccount, 0, len(inst.Accounts))
	for position, acctIdx := range inst.Accounts {
		if int(acctIdx) >= len(msg.AccountKeys) {
			return nil, ErrInvalidAccountIndex
		}

		indexInCallee := uint64(position)
		for firstPosition, prior := range inst.Accounts[:position] {
			if prior == acctIdx {
				indexInCallee = uint64(firstPosition)
				break
			}
		}

		instrAccts = append(instrAccts, sealevel.InstructionAccount{
			IndexInTransaction: uint64(acctIdx),
			IndexInCaller:      uint64(position),
			IndexInCallee:      indexInCallee,
			IsSigner:           isSignerIndex(msg, int(acctIdx)),
			IsWritable:         isWritableIndex(msg, int(acctIdx)),
		})
	}
	return instrAccts, nil
}

// ProcessTransaction verifies, executes and commits tx. On any failure
// the store is left untouched and the returned Result still carries the
// logs produced up to the failure.
func (b *Bank) ProcessTransaction(tx *solana.Transaction) (*Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	result, err := b.processTransaction(tx)
	if err != nil {
		b.metrics.Transactions.WithLabelValues("failed").Inc()
		klog.V(2).Infof("transaction failed: %s", err)
		return result, err
	}

	b.metrics.Transactions.WithLabelValues("ok").Inc()
	b.metrics.ComputeUnits.Observe(float64(result.ComputeUnits))
	b.cuAverage.Add(float64(result.ComputeUnits))
	return result, nil
}

func (b *Bank) processTransaction(tx *solana.Transaction) (*Result, error) {
	result := new(Result)

	if err := tx.VerifySignatures(); err != nil {
		return result, errors.Wrap(ErrSignatureVerification, err.Error())
	}

	msg := &tx.Message
	txAccts, err := b.loadTransactionAccounts(msg)
	if err != nil {
		return result, err
	}

	sysvarCache, err := sealevel.LoadSysvarCache(b.store)
	if err != nil {
		return result, errors.Wrap(err, "loading sysvars")
	}

	logRecorder := new(sealevel.LogRecorder)
	txCtx := sealevel.NewTransactionCtx(*sealevel.NewTransactionAccounts(txAccts), sealevel.DefaultMaxInstructionStackDepth)
	execCtx := &sealevel.ExecutionCtx{
		Log:                logRecorder,
		TransactionContext: txCtx,
		Programs:           b.programs,
		SysvarCache:        sysvarCache,
		ComputeMeter:       cu.NewComputeMeter(b.computeBudget),
	}

	for idx, inst := range msg.Instructions {
		if int(inst.ProgramIDIndex) >= len(msg.AccountKeys) {
			return result, &InstructionError{Index: idx, Err: ErrInvalidAccountIndex}
		}
		programId := msg.AccountKeys[inst.ProgramIDIndex]

		instrAccts, err := instructionAccounts(msg, inst)
		if err != nil {
			return result, &InstructionError{Index: idx, Err: err}
		}

		programAcct, err := txCtx.Accounts.GetAccount(uint64(inst.ProgramIDIndex))
		if err != nil || !programAcct.Executable {
			return result, &InstructionError{Index: idx, Err: sealevel.InstrErrUnsupportedProgramId}
		}

		logRecorder.Log(fmt.Sprintf("Program %s invoke [1]", programId))
		err = execCtx.ProcessInstruction(programId, inst.Data, instrAccts)
		if err != nil {
			logRecorder.Log(fmt.Sprintf("Program %s failed: %s", programId, err))
			result.Logs = logRecorder.Logs
			result.ComputeUnits = execCtx.ComputeMeter.Used()
			b.metrics.Instructions.WithLabelValues(programId.String(), "failed").Inc()
			return result, &InstructionError{Index: idx, Err: err}
		}
		logRecorder.Log(fmt.Sprintf("Program %s success", programId))
		b.metrics.Instructions.WithLabelValues(programId.String(), "ok").Inc()
	}

	touched := txCtx.Accounts.TouchedAccounts()
	if err = b.store.SetAccounts(touched); err != nil {
		return result, errors.Wrapf(err, "committing %d accounts", len(touched))
	}
	b.metrics.AccountsCommitted.Add(float64(len(touched)))

	result.Logs = logRecorder.Logs
	result.ComputeUnits = execCtx.ComputeMeter.Used()
	result.AcctsDeltaHash = calculateAcctsDeltaHash(touched)
	b.bankHash = chainHash(b.bankHash, result.AcctsDeltaHash, uint64(len(tx.Signatures)))
	result.BankHash = b.bankHash
	b.txCount++

	klog.V(3).Infof("committed transaction %s touching %d accounts", tx.Signatures[0], len(touched))
	return result, nil
}
