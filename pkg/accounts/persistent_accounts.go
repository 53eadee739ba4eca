package accounts

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/lotusdblabs/lotusdb/v2"

	"github.com/Overclock-Validator/liquidstake/pkg/base58"
)

// PersistentAccountsDb is an Accounts store backed by lotusdb, used by the
// simulator to keep ledger state between invocations.
type PersistentAccountsDb struct {
	db *lotusdb.DB
}

func OpenAccountsDb(dirPath string) (*PersistentAccountsDb, error) {
	options := lotusdb.DefaultOptions
	options.DirPath = dirPath

	db, err := lotusdb.Open(options)
	if err != nil {
		return nil, err
	}

	return &PersistentAccountsDb{db: db}, nil
}

func (m *PersistentAccountsDb) Close() error {
	return m.db.Close()
}

func (m *PersistentAccountsDb) GetAccount(pubkey *[32]byte) (*Account, error) {
	acctBytes, err := m.db.Get(pubkey[:])
	if errors.Is(err, lotusdb.ErrKeyNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error whilst retrieving account %s: %w", base58.Encode(pubkey[:]), err)
	}
	if len(acctBytes) == 0 {
		return nil, nil
	}

	decoder := bin.NewBinDecoder(acctBytes)
	acct := new(Account)

	err = acct.UnmarshalWithDecoder(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize account %s: %w", base58.Encode(pubkey[:]), err)
	}

	return acct, nil
}

func encodeAccount(pubkey *[32]byte, acct *Account) ([]byte, error) {
	writer := new(bytes.Buffer)
	err := acct.MarshalWithEncoder(bin.NewBinEncoder(writer))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize account %s: %w", base58.Encode(pubkey[:]), err)
	}
	return writer.Bytes(), nil
}

func (m *PersistentAccountsDb) SetAccount(pubkey *[32]byte, acct *Account) error {
	acctBytes, err := encodeAccount(pubkey, acct)
	if err != nil {
		return err
	}

	err = m.db.Put(pubkey[:], acctBytes)
	if err != nil {
		return fmt.Errorf("error setting account for %s: %w", base58.Encode(pubkey[:]), err)
	}

	return nil
}

// SetAccounts writes accts in a single lotusdb batch.
func (m *PersistentAccountsDb) SetAccounts(accts []*Account) error {
	if len(accts) == 0 {
		return nil
	}

	encoded := make([][]byte, len(accts))
	for idx, acct := range accts {
		pk := [32]byte(acct.Key)
		acctBytes, err := encodeAccount(&pk, acct)
		if err != nil {
			return err
		}
		encoded[idx] = acctBytes
	}

	// the batch holds the db lock until Commit
	batch := m.db.NewBatch(lotusdb.DefaultBatchOptions)
	for idx, acct := range accts {
		if err := batch.Put(acct.Key[:], encoded[idx]); err != nil {
			// Put only fails on a closed db, where Commit writes nothing
			_ = batch.Commit()
			return fmt.Errorf("error staging account %s: %w", acct.Key, err)
		}
	}

	if err := batch.Commit(); err != nil {
		return fmt.Errorf("error committing %d accounts: %w", len(accts), err)
	}
	return nil
}
