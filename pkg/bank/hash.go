package bank

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/minio/sha256-simd"
	"github.com/zeebo/blake3"

	"github.com/Overclock-Validator/liquidstake/pkg/accounts"
)

const merkleFanout = 16

func calculateSingleAcctHash(acct *accounts.Account) []byte {
	hasher := blake3.New()

	var lamportBytes [8]byte
	binary.LittleEndian.PutUint64(lamportBytes[:], acct.Lamports)
	_, _ = hasher.Write(lamportBytes[:])

	var rentEpochBytes [8]byte
	binary.LittleEndian.PutUint64(rentEpochBytes[:], acct.RentEpoch)
	_, _ = hasher.Write(rentEpochBytes[:])

	_, _ = hasher.Write(acct.Data)

	if acct.Executable {
		_, _ = hasher.Write([]byte{1})
	} else {
		_, _ = hasher.Write([]byte{0})
	}

	_, _ = hasher.Write(acct.Owner[:])
	_, _ = hasher.Write(acct.Key[:])

	return hasher.Sum(nil)
}

func divCeil(x uint64, y uint64) uint64 {
	result := x / y
	if (x % y) != 0 {
		result++
	}
	return result
}

func computeMerkleRoot(hashes [][]byte) []byte {
	if len(hashes) == 0 {
		return make([]byte, 32)
	}

	total := uint64(len(hashes))
	chunks := divCeil(total, merkleFanout)
	results := make([][]byte, chunks)

	for i := uint64(0); i < chunks; i++ {
		startIdx := i * merkleFanout
		endIdx := min(startIdx+merkleFanout, total)

		hasher := sha256.New()
		for _, h := range hashes[startIdx:endIdx] {
			hasher.Write(h)
		}
		results[i] = hasher.Sum(nil)
	}

	if len(results) == 1 {
		return results[0]
	}
	return computeMerkleRoot(results)
}

// calculateAcctsDeltaHash is the merkle root over the hashes of every
// account a transaction committed, ordered by key.
func calculateAcctsDeltaHash(accts []*accounts.Account) [32]byte {
	sorted := make([]*accounts.Account, len(accts))
	copy(sorted, accts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Key[:], sorted[j].Key[:]) < 0
	})

	hashes := make([][]byte, len(sorted))
	for idx, acct := range sorted {
		hashes[idx] = calculateSingleAcctHash(acct)
	}

	var out [32]byte
	copy(out[:], computeMerkleRoot(hashes))
	return out
}

// chainHash folds a transaction's delta hash into the running bank hash.
func chainHash(parent [32]byte, acctsDeltaHash [32]byte, numSigs uint64) [32]byte {
	hasher := sha256.New()
	hasher.Write(parent[:])
	hasher.Write(acctsDeltaHash[:])

	var numSigsBytes [8]byte
	binary.LittleEndian.PutUint64(numSigsBytes[:], numSigs)
	hasher.Write(numSigsBytes[:])

	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	return out
}
