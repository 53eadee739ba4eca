package lst

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/Overclock-Validator/liquidstake/pkg/accounts"
	"github.com/Overclock-Validator/liquidstake/pkg/bank"
	"github.com/Overclock-Validator/liquidstake/pkg/safemath"
	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

const (
	testStartTime = 1_700_000_000
	testCooldown  = 60
	testLamports  = solana.LAMPORTS_PER_SOL
)

// testEnv is a bank with the program registered and both mints in place.
type testEnv struct {
	t                 *testing.T
	bank              *bank.Bank
	store             accounts.Accounts
	program           *Program
	pool              Pool
	authority         solana.PrivateKey
	payer             solana.PrivateKey
	baseMintAuthority solana.PrivateKey
}

type testUser struct {
	key          solana.PrivateKey
	baseToken    solana.PublicKey
	receiptToken solana.PublicKey
}

func (u *testUser) pubkey() solana.PublicKey {
	return u.key.PublicKey()
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		t:                 t,
		store:             accounts.NewMemAccounts(),
		authority:         solana.NewWallet().PrivateKey,
		payer:             solana.NewWallet().PrivateKey,
		baseMintAuthority: solana.NewWallet().PrivateKey,
	}
	env.program = &Program{ProgramID: ProgramAddr, BootstrapAuthority: env.authority.PublicKey()}

	registry := sealevel.DefaultProgramRegistry()
	env.program.Register(registry)

	var err error
	env.bank, err = bank.New(env.store, bank.WithPrograms(registry))
	require.NoError(t, err)
	require.NoError(t, env.bank.SetClock(sealevel.SysvarClock{Slot: 1, UnixTimestamp: testStartTime}))

	env.pool, err = env.program.Pool(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	require.NoError(t, err)

	baseAuthority := env.baseMintAuthority.PublicKey()
	stateAuthority := env.pool.State
	env.putMint(env.pool.BaseMint, &baseAuthority, 0)
	env.putMint(env.pool.ReceiptMint, &stateAuthority, 0)
	env.fund(env.payer.PublicKey(), 10*testLamports)

	return env
}

// newInitializedEnv is newTestEnv plus a successful Initialize.
func newInitializedEnv(t *testing.T) *testEnv {
	env := newTestEnv(t)
	_, err := env.initialize(testCooldown, env.authority.PublicKey())
	require.NoError(t, err)
	return env
}

func (env *testEnv) put(key solana.PublicKey, owner solana.PublicKey, data []byte) {
	rent := sealevel.DefaultRent()
	acct := accounts.Account{Key: key, Lamports: rent.MinimumBalance(uint64(len(data))), Data: data, Owner: owner}
	require.NoError(env.t, env.bank.SetAccount(&acct))
}

func (env *testEnv) fund(key solana.PublicKey, lamports uint64) {
	acct := accounts.Account{Key: key, Lamports: lamports, Owner: sealevel.SystemProgramAddr}
	require.NoError(env.t, env.bank.SetAccount(&acct))
}

func (env *testEnv) putMint(key solana.PublicKey, authority *solana.PublicKey, supply uint64) {
	mint := sealevel.TokenMint{MintAuthority: authority, Supply: supply, Decimals: 9, IsInitialized: true}
	env.put(key, sealevel.TokenProgramAddr, mint.Pack())
}

func (env *testEnv) putTokenAccount(key solana.PublicKey, mint solana.PublicKey, owner solana.PublicKey, amount uint64) {
	tokenAcct := sealevel.TokenAccount{Mint: mint, Owner: owner, Amount: amount, State: sealevel.TokenAccountStateInitialized}
	env.put(key, sealevel.TokenProgramAddr, tokenAcct.Pack())
}

func (env *testEnv) addSupply(mintKey solana.PublicKey, amount uint64) {
	mint := env.mint(mintKey)
	var err error
	mint.Supply, err = safemath.CheckedAddU64(mint.Supply, amount)
	require.NoError(env.t, err)
	env.put(mintKey, sealevel.TokenProgramAddr, mint.Pack())
}

// newUser funds a wallet and gives it base and receipt token accounts.
func (env *testEnv) newUser(baseAmount uint64) *testUser {
	user := &testUser{key: solana.NewWallet().PrivateKey}

	var err error
	user.baseToken, _, err = sealevel.FindAssociatedTokenAddress(user.pubkey(), env.pool.BaseMint)
	require.NoError(env.t, err)
	user.receiptToken, _, err = sealevel.FindAssociatedTokenAddress(user.pubkey(), env.pool.ReceiptMint)
	require.NoError(env.t, err)

	env.fund(user.pubkey(), testLamports)
	env.putTokenAccount(user.baseToken, env.pool.BaseMint, user.pubkey(), baseAmount)
	env.putTokenAccount(user.receiptToken, env.pool.ReceiptMint, user.pubkey(), 0)
	env.addSupply(env.pool.BaseMint, baseAmount)
	return user
}

func (env *testEnv) send(signers []solana.PrivateKey, instrs ...solana.Instruction) (*bank.Result, error) {
	tx, err := solana.NewTransaction(instrs, solana.Hash{}, solana.TransactionPayer(signers[0].PublicKey()))
	require.NoError(env.t, err)

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for idx := range signers {
			if signers[idx].PublicKey() == key {
				return &signers[idx]
			}
		}
		return nil
	})
	require.NoError(env.t, err)

	return env.bank.ProcessTransaction(tx)
}

func (env *testEnv) initialize(cooldown int64, authority solana.PublicKey) (*bank.Result, error) {
	return env.send([]solana.PrivateKey{env.payer},
		env.pool.CreateVaultInstruction(env.payer.PublicKey()),
		env.pool.InitializeInstruction(env.payer.PublicKey(), cooldown, authority))
}

func (env *testEnv) stake(user *testUser, amount uint64) (*bank.Result, error) {
	return env.send([]solana.PrivateKey{user.key},
		env.pool.StakeInstruction(user.pubkey(), user.baseToken, user.receiptToken, amount))
}

func (env *testEnv) unstake(user *testUser, amount uint64, index uint8) (*bank.Result, error) {
	return env.send([]solana.PrivateKey{user.key},
		env.pool.UnstakeInstruction(user.pubkey(), user.receiptToken, amount, index))
}

func (env *testEnv) withdraw(user *testUser, index uint8) (*bank.Result, error) {
	return env.send([]solana.PrivateKey{user.key},
		env.pool.WithdrawInstruction(user.pubkey(), user.baseToken, index))
}

func (env *testEnv) set(authority solana.PrivateKey, args SetArgs) (*bank.Result, error) {
	return env.send([]solana.PrivateKey{authority}, env.pool.SetInstruction(authority.PublicKey(), args))
}

// depositYield mints base straight into the vault, the way rewards
// arrive.
func (env *testEnv) depositYield(amount uint64) {
	mintTo := sealevel.NewTokenMintToInstruction(env.pool.BaseMint, env.pool.Vault, env.baseMintAuthority.PublicKey(), amount)
	_, err := env.send([]solana.PrivateKey{env.payer, env.baseMintAuthority}, mintTo.ToSolana())
	require.NoError(env.t, err)
}

func (env *testEnv) warp(seconds int64) {
	_, err := env.bank.WarpClock(seconds)
	require.NoError(env.t, err)
}

func (env *testEnv) account(key solana.PublicKey) *accounts.Account {
	acct, err := env.bank.GetAccount(key)
	require.NoError(env.t, err)
	require.NotNil(env.t, acct, "account %s", key)
	return acct
}

func (env *testEnv) mint(key solana.PublicKey) *sealevel.TokenMint {
	mint, err := sealevel.UnpackTokenMint(env.account(key).Data)
	require.NoError(env.t, err)
	return mint
}

func (env *testEnv) balance(key solana.PublicKey) uint64 {
	tokenAcct, err := sealevel.UnpackTokenAccount(env.account(key).Data)
	require.NoError(env.t, err)
	return tokenAcct.Amount
}

func (env *testEnv) state() *PoolState {
	state, err := ReadPoolState(env.store, env.pool)
	require.NoError(env.t, err)
	return state
}

func (env *testEnv) snapshot() Snapshot {
	snap, err := ReadSnapshot(env.store, env.pool)
	require.NoError(env.t, err)
	return snap
}
