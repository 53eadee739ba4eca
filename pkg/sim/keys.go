package sim

import (
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const keysFileName = "keys.yaml"

// Keys is the keypair file written at genesis. Private keys and
// addresses are base58 strings.
type Keys struct {
	Payer              string            `yaml:"payer"`
	BootstrapAuthority string            `yaml:"bootstrap_authority"`
	Authority          string            `yaml:"authority"`
	BaseMintAuthority  string            `yaml:"base_mint_authority"`
	BaseMint           string            `yaml:"base_mint"`
	ReceiptMint        string            `yaml:"receipt_mint"`
	Users              map[string]string `yaml:"users"`
}

// keyring is Keys decoded.
type keyring struct {
	payer              solana.PrivateKey
	bootstrapAuthority solana.PublicKey
	authority          solana.PrivateKey
	baseMintAuthority  solana.PrivateKey
	baseMint           solana.PublicKey
	receiptMint        solana.PublicKey
	users              map[string]solana.PrivateKey
}

func newKeyring(users []string) *keyring {
	ring := &keyring{
		payer:             solana.NewWallet().PrivateKey,
		authority:         solana.NewWallet().PrivateKey,
		baseMintAuthority: solana.NewWallet().PrivateKey,
		baseMint:          solana.NewWallet().PublicKey(),
		receiptMint:       solana.NewWallet().PublicKey(),
		users:             make(map[string]solana.PrivateKey, len(users)),
	}
	ring.bootstrapAuthority = ring.authority.PublicKey()
	for _, name := range users {
		ring.users[name] = solana.NewWallet().PrivateKey
	}
	return ring
}

func (ring *keyring) encode() Keys {
	keys := Keys{
		Payer:              ring.payer.String(),
		BootstrapAuthority: ring.bootstrapAuthority.String(),
		Authority:          ring.authority.String(),
		BaseMintAuthority:  ring.baseMintAuthority.String(),
		BaseMint:           ring.baseMint.String(),
		ReceiptMint:        ring.receiptMint.String(),
		Users:              make(map[string]string, len(ring.users)),
	}
	for name, key := range ring.users {
		keys.Users[name] = key.String()
	}
	return keys
}

func (keys *Keys) decode() (*keyring, error) {
	ring := &keyring{users: make(map[string]solana.PrivateKey, len(keys.Users))}

	var err error
	privateKeys := []struct {
		name string
		in   string
		out  *solana.PrivateKey
	}{
		{"payer", keys.Payer, &ring.payer},
		{"authority", keys.Authority, &ring.authority},
		{"base_mint_authority", keys.BaseMintAuthority, &ring.baseMintAuthority},
	}
	for _, pk := range privateKeys {
		*pk.out, err = solana.PrivateKeyFromBase58(pk.in)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %s", pk.name)
		}
	}

	publicKeys := []struct {
		name string
		in   string
		out  *solana.PublicKey
	}{
		{"bootstrap_authority", keys.BootstrapAuthority, &ring.bootstrapAuthority},
		{"base_mint", keys.BaseMint, &ring.baseMint},
		{"receipt_mint", keys.ReceiptMint, &ring.receiptMint},
	}
	for _, pk := range publicKeys {
		*pk.out, err = solana.PublicKeyFromBase58(pk.in)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %s", pk.name)
		}
	}

	for name, encoded := range keys.Users {
		ring.users[name], err = solana.PrivateKeyFromBase58(encoded)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding user %q", name)
		}
	}
	return ring, nil
}

func loadKeys(dir string) (*keyring, error) {
	data, err := os.ReadFile(filepath.Join(dir, keysFileName))
	if err != nil {
		return nil, err
	}
	var keys Keys
	if err = yaml.Unmarshal(data, &keys); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", keysFileName)
	}
	return keys.decode()
}

func saveKeys(dir string, ring *keyring) error {
	data, err := yaml.Marshal(ring.encode())
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, keysFileName), data, 0o600)
}
