package sealevel

import (
	"sort"

	"github.com/gagliardetto/solana-go"

	"github.com/Overclock-Validator/liquidstake/pkg/accounts"
	"github.com/Overclock-Validator/liquidstake/pkg/base58"
)

const NativeLoaderAddrStr = "NativeLoader1111111111111111111111111111111"

var NativeLoaderAddr = solana.PublicKey(base58.MustDecodeFromString(NativeLoaderAddrStr))

const SystemProgramAddrStr = "11111111111111111111111111111111"

var SystemProgramAddr = solana.PublicKey(base58.MustDecodeFromString(SystemProgramAddrStr))

const TokenProgramAddrStr = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

var TokenProgramAddr = solana.PublicKey(base58.MustDecodeFromString(TokenProgramAddrStr))

const AssociatedTokenProgramAddrStr = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"

var AssociatedTokenProgramAddr = solana.PublicKey(base58.MustDecodeFromString(AssociatedTokenProgramAddrStr))

type ProgramFn func(execCtx *ExecutionCtx) error

// ProgramRegistry resolves program ids to native entrypoints.
type ProgramRegistry struct {
	programs map[solana.PublicKey]ProgramFn
}

func NewProgramRegistry() *ProgramRegistry {
	return &ProgramRegistry{programs: make(map[solana.PublicKey]ProgramFn)}
}

// DefaultProgramRegistry has the system, token and associated token
// programs registered.
func DefaultProgramRegistry() *ProgramRegistry {
	registry := NewProgramRegistry()
	registry.Register(SystemProgramAddr, SystemProgramExecute)
	registry.Register(TokenProgramAddr, TokenProgramExecute)
	registry.Register(AssociatedTokenProgramAddr, AssociatedTokenProgramExecute)
	return registry
}

func (registry *ProgramRegistry) Register(programId solana.PublicKey, fn ProgramFn) {
	registry.programs[programId] = fn
}

func (registry *ProgramRegistry) Resolve(programId solana.PublicKey) (ProgramFn, error) {
	fn, ok := registry.programs[programId]
	if !ok {
		return nil, InstrErrUnsupportedProgramId
	}
	return fn, nil
}

func (registry *ProgramRegistry) IsRegistered(programId solana.PublicKey) bool {
	_, ok := registry.programs[programId]
	return ok
}

// ProgramIds lists registered programs in byte order.
func (registry *ProgramRegistry) ProgramIds() []solana.PublicKey {
	ids := make([]solana.PublicKey, 0, len(registry.programs))
	for id := range registry.programs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return string(ids[i][:]) < string(ids[j][:])
	})
	return ids
}

// NativeProgramAccount is the executable account a ledger holds for a
// native program.
func NativeProgramAccount(programId solana.PublicKey) accounts.Account {
	return accounts.Account{
		Key:        programId,
		Lamports:   1,
		Data:       []byte{},
		Owner:      NativeLoaderAddr,
		Executable: true,
	}
}
