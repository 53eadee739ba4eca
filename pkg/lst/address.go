package lst

import (
	"github.com/gagliardetto/solana-go"

	"github.com/Overclock-Validator/liquidstake/pkg/pda"
	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

const (
	PoolStateSeed       = "state"
	PendingWithdrawSeed = "withdraw"
)

func poolStateSeeds() [][]byte {
	return [][]byte{[]byte(PoolStateSeed)}
}

func pendingWithdrawSeeds(unstaker solana.PublicKey, index uint8) [][]byte {
	return [][]byte{[]byte(PendingWithdrawSeed), unstaker[:], {index}}
}

func vaultSeeds(poolState solana.PublicKey, baseMint solana.PublicKey) [][]byte {
	return [][]byte{poolState[:], sealevel.TokenProgramAddr[:], baseMint[:]}
}

func withBump(seeds [][]byte, bump uint8) [][]byte {
	out := make([][]byte, 0, len(seeds)+1)
	out = append(out, seeds...)
	return append(out, []byte{bump})
}

// FindPoolStateAddress returns the pool record address and its canonical
// bump under programID.
func FindPoolStateAddress(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return pda.FindProgramAddress(poolStateSeeds(), programID)
}

func FindPendingWithdrawAddress(programID solana.PublicKey, unstaker solana.PublicKey, index uint8) (solana.PublicKey, uint8, error) {
	return pda.FindProgramAddress(pendingWithdrawSeeds(unstaker, index), programID)
}

// FindVaultAddress returns the associated token account holding the
// pool's base asset.
func FindVaultAddress(poolState solana.PublicKey, baseMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return sealevel.FindAssociatedTokenAddress(poolState, baseMint)
}
