// Package sim drives the liquid-staking program on a local ledger. It
// backs the lstsim command: genesis creates the mints, users and pool,
// and every later operation is a signed transaction through the bank.
package sim

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/liquidstake/pkg/accounts"
	"github.com/Overclock-Validator/liquidstake/pkg/bank"
	"github.com/Overclock-Validator/liquidstake/pkg/lst"
	"github.com/Overclock-Validator/liquidstake/pkg/safemath"
	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

const accountsDirName = "accounts"

var ErrUnknownUser = errors.New("unknown user")

type Simulator struct {
	dir     string
	store   accounts.Accounts
	closer  io.Closer
	keys    *keyring
	program *lst.Program
	pool    lst.Pool
	bank    *bank.Bank
}

func newSimulator(dir string, store accounts.Accounts, closer io.Closer, keys *keyring) (*Simulator, error) {
	program := &lst.Program{ProgramID: lst.ProgramAddr, BootstrapAuthority: keys.bootstrapAuthority}
	registry := sealevel.DefaultProgramRegistry()
	program.Register(registry)

	b, err := bank.New(store, bank.WithPrograms(registry))
	if err != nil {
		return nil, err
	}

	pool, err := program.Pool(keys.baseMint, keys.receiptMint)
	if err != nil {
		return nil, err
	}

	return &Simulator{
		dir:     dir,
		store:   store,
		closer:  closer,
		keys:    keys,
		program: program,
		pool:    pool,
		bank:    b,
	}, nil
}

// Open loads a ledger created by Genesis.
func Open(dir string) (*Simulator, error) {
	keys, err := loadKeys(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "loading keys from %s (run genesis first)", dir)
	}

	db, err := accounts.OpenAccountsDb(filepath.Join(dir, accountsDirName))
	if err != nil {
		return nil, errors.Wrap(err, "opening accounts db")
	}

	s, err := newSimulator(dir, db, db, keys)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Genesis creates a new ledger in dir. It fails if dir already holds one.
func Genesis(dir string, cfg Config) (*Simulator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(dir, keysFileName)); err == nil {
		return nil, errors.Errorf("%s already contains a ledger", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	db, err := accounts.OpenAccountsDb(filepath.Join(dir, accountsDirName))
	if err != nil {
		return nil, errors.Wrap(err, "creating accounts db")
	}

	s, err := genesis(dir, db, db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err = saveKeys(dir, s.keys); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// genesis writes the fixtures directly into store and initializes the
// pool through a transaction.
func genesis(dir string, store accounts.Accounts, closer io.Closer, cfg Config) (*Simulator, error) {
	names := lo.Map(cfg.Users, func(user UserConfig, _ int) string { return user.Name })
	s, err := newSimulator(dir, store, closer, newKeyring(names))
	if err != nil {
		return nil, err
	}

	err = s.bank.SetClock(sealevel.SysvarClock{Slot: 1, UnixTimestamp: cfg.StartTime})
	if err != nil {
		return nil, err
	}
	if err = s.fund(s.keys.payer.PublicKey(), cfg.PayerLamports); err != nil {
		return nil, err
	}

	var baseSupply uint64
	for _, user := range cfg.Users {
		baseSupply, err = safemath.CheckedAddU64(baseSupply, user.Base)
		if err != nil {
			return nil, errors.New("total base supply overflows")
		}
	}

	baseAuthority := s.keys.baseMintAuthority.PublicKey()
	err = s.putRentExempt(s.pool.BaseMint, sealevel.TokenProgramAddr,
		(&sealevel.TokenMint{MintAuthority: &baseAuthority, Supply: baseSupply, Decimals: cfg.Decimals, IsInitialized: true}).Pack())
	if err != nil {
		return nil, err
	}
	receiptAuthority := s.pool.State
	err = s.putRentExempt(s.pool.ReceiptMint, sealevel.TokenProgramAddr,
		(&sealevel.TokenMint{MintAuthority: &receiptAuthority, Decimals: cfg.Decimals, IsInitialized: true}).Pack())
	if err != nil {
		return nil, err
	}

	for _, user := range cfg.Users {
		if err = s.createUser(user); err != nil {
			return nil, errors.Wrapf(err, "creating user %q", user.Name)
		}
	}

	_, err = s.send([]solana.PrivateKey{s.keys.payer},
		s.pool.CreateVaultInstruction(s.keys.payer.PublicKey()),
		s.pool.InitializeInstruction(s.keys.payer.PublicKey(), cfg.CooldownSeconds, s.keys.authority.PublicKey()))
	if err != nil {
		return nil, errors.Wrap(err, "initializing pool")
	}

	klog.Infof("genesis: pool %s, vault %s, %d users", s.pool.State, s.pool.Vault, len(cfg.Users))
	return s, nil
}

func (s *Simulator) createUser(user UserConfig) error {
	wallet := s.keys.users[user.Name].PublicKey()
	lamports := user.Lamports
	if lamports == 0 {
		lamports = solana.LAMPORTS_PER_SOL
	}
	if err := s.fund(wallet, lamports); err != nil {
		return err
	}

	baseToken, receiptToken, err := s.tokenAccounts(wallet)
	if err != nil {
		return err
	}
	err = s.putRentExempt(baseToken, sealevel.TokenProgramAddr,
		(&sealevel.TokenAccount{Mint: s.pool.BaseMint, Owner: wallet, Amount: user.Base, State: sealevel.TokenAccountStateInitialized}).Pack())
	if err != nil {
		return err
	}
	return s.putRentExempt(receiptToken, sealevel.TokenProgramAddr,
		(&sealevel.TokenAccount{Mint: s.pool.ReceiptMint, Owner: wallet, State: sealevel.TokenAccountStateInitialized}).Pack())
}

func (s *Simulator) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *Simulator) Bank() *bank.Bank {
	return s.bank
}

func (s *Simulator) Pool() lst.Pool {
	return s.pool
}

// Users lists user names in order.
func (s *Simulator) Users() []string {
	names := lo.Keys(s.keys.users)
	sort.Strings(names)
	return names
}

func (s *Simulator) fund(key solana.PublicKey, lamports uint64) error {
	return s.bank.SetAccount(&accounts.Account{Key: key, Lamports: lamports, Owner: sealevel.SystemProgramAddr})
}

func (s *Simulator) putRentExempt(key solana.PublicKey, owner solana.PublicKey, data []byte) error {
	rent := sealevel.DefaultRent()
	return s.bank.SetAccount(&accounts.Account{Key: key, Lamports: rent.MinimumBalance(uint64(len(data))), Data: data, Owner: owner})
}

func (s *Simulator) tokenAccounts(wallet solana.PublicKey) (solana.PublicKey, solana.PublicKey, error) {
	baseToken, _, err := sealevel.FindAssociatedTokenAddress(wallet, s.pool.BaseMint)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	receiptToken, _, err := sealevel.FindAssociatedTokenAddress(wallet, s.pool.ReceiptMint)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	return baseToken, receiptToken, nil
}

func (s *Simulator) user(name string) (solana.PrivateKey, error) {
	key, ok := s.keys.users[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownUser, "%q", name)
	}
	return key, nil
}

func (s *Simulator) send(signers []solana.PrivateKey, instrs ...solana.Instruction) (*bank.Result, error) {
	tx, err := solana.NewTransaction(instrs, solana.Hash{}, solana.TransactionPayer(signers[0].PublicKey()))
	if err != nil {
		return nil, err
	}
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for idx := range signers {
			if signers[idx].PublicKey() == key {
				return &signers[idx]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.bank.ProcessTransaction(tx)
	if result != nil {
		for _, line := range result.Logs {
			klog.V(2).Info(line)
		}
	}
	return result, err
}

func (s *Simulator) Stake(name string, amount uint64) (*bank.Result, error) {
	user, err := s.user(name)
	if err != nil {
		return nil, err
	}
	baseToken, receiptToken, err := s.tokenAccounts(user.PublicKey())
	if err != nil {
		return nil, err
	}
	return s.send([]solana.PrivateKey{user}, s.pool.StakeInstruction(user.PublicKey(), baseToken, receiptToken, amount))
}

func (s *Simulator) Unstake(name string, amount uint64, index uint8) (*bank.Result, error) {
	user, err := s.user(name)
	if err != nil {
		return nil, err
	}
	_, receiptToken, err := s.tokenAccounts(user.PublicKey())
	if err != nil {
		return nil, err
	}
	return s.send([]solana.PrivateKey{user}, s.pool.UnstakeInstruction(user.PublicKey(), receiptToken, amount, index))
}

func (s *Simulator) Withdraw(name string, index uint8) (*bank.Result, error) {
	user, err := s.user(name)
	if err != nil {
		return nil, err
	}
	baseToken, _, err := s.tokenAccounts(user.PublicKey())
	if err != nil {
		return nil, err
	}
	return s.send([]solana.PrivateKey{user}, s.pool.WithdrawInstruction(user.PublicKey(), baseToken, index))
}

// Set updates pool parameters signed by the current authority. A
// non-empty newAuthority names the user who becomes the authority; the
// simulator signs as that user from then on.
func (s *Simulator) Set(cooldown *int64, newAuthority string) (*bank.Result, error) {
	args := lst.SetArgs{CooldownPeriodSeconds: cooldown}

	var next solana.PrivateKey
	if newAuthority != "" {
		user, err := s.user(newAuthority)
		if err != nil {
			return nil, err
		}
		next = user
		pubkey := user.PublicKey()
		args.UpdateAuthority = &pubkey
	}

	result, err := s.send([]solana.PrivateKey{s.keys.authority}, s.pool.SetInstruction(s.keys.authority.PublicKey(), args))
	if err != nil || next == nil {
		return result, err
	}

	s.keys.authority = next
	if s.dir != "" {
		return result, saveKeys(s.dir, s.keys)
	}
	return result, nil
}

// Yield mints base straight into the vault, raising the exchange rate.
func (s *Simulator) Yield(amount uint64) (*bank.Result, error) {
	mintTo := sealevel.NewTokenMintToInstruction(s.pool.BaseMint, s.pool.Vault, s.keys.baseMintAuthority.PublicKey(), amount)
	return s.send([]solana.PrivateKey{s.keys.payer, s.keys.baseMintAuthority}, mintTo.ToSolana())
}

func (s *Simulator) Warp(seconds int64) (sealevel.SysvarClock, error) {
	return s.bank.WarpClock(seconds)
}
