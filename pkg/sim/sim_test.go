package sim

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overclock-Validator/liquidstake/pkg/accounts"
	"github.com/Overclock-Validator/liquidstake/pkg/lst"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Users = []UserConfig{
		{Name: "bob", Base: 500_000},
		{Name: "alice", Base: 1_000_000},
	}
	return cfg
}

func newMemSimulator(t *testing.T) *Simulator {
	t.Helper()
	s, err := genesis("", accounts.NewMemAccounts(), nil, testConfig())
	require.NoError(t, err)
	return s
}

func TestGenesis(t *testing.T) {
	s := newMemSimulator(t)
	assert.Equal(t, []string{"alice", "bob"}, s.Users())

	report, err := s.Report()
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000), report.Clock.UnixTimestamp)
	assert.Equal(t, int64(60), report.State.CooldownPeriodSeconds)
	assert.Equal(t, s.keys.authority.PublicKey(), report.State.UpdateAuthority)
	assert.Equal(t, lst.Snapshot{}, report.Snapshot)

	require.Len(t, report.Users, 2)
	assert.Equal(t, "alice", report.Users[0].Name)
	assert.Equal(t, uint64(1_000_000), report.Users[0].Base)
	assert.Equal(t, uint64(500_000), report.Users[1].Base)
	assert.Empty(t, report.Users[0].Pending)
}

func TestRunScript(t *testing.T) {
	s := newMemSimulator(t)

	script := &Script{Steps: []Step{
		{Op: "stake", User: "alice", Amount: 1_000_000},
		{Op: "yield", Amount: 250_000},
		{Op: "unstake", User: "alice", Amount: 100_000, Index: 0},
		{Op: "warp", Seconds: 59},
		{Op: "withdraw", User: "alice", Index: 0, Expect: "fail"},
		{Op: "warp", Seconds: 1},
		{Op: "withdraw", User: "alice", Index: 0},
		{Op: "withdraw", User: "alice", Index: 0, Expect: "fail"},
	}}

	var steps int
	require.NoError(t, s.RunScript(context.Background(), script, func() { steps++ }))
	assert.Equal(t, len(script.Steps), steps)

	report, err := s.Report()
	require.NoError(t, err)
	assert.Equal(t, lst.Snapshot{VaultAmount: 1_125_003, EscrowedBaseAmount: 0, ReceiptSupply: 900_000}, report.Snapshot)

	alice := report.Users[0]
	assert.Equal(t, uint64(124_997), alice.Base)
	assert.Equal(t, uint64(900_000), alice.Receipt)
	assert.Equal(t, uint64(1_124_978), alice.Redeemable)
	assert.Empty(t, alice.Pending)
}

func TestRunScript_Stops(t *testing.T) {
	t.Run("unexpected success", func(t *testing.T) {
		s := newMemSimulator(t)
		err := s.RunScript(context.Background(), &Script{Steps: []Step{
			{Op: "stake", User: "alice", Amount: 1, Expect: "fail"},
		}}, nil)
		assert.ErrorIs(t, err, ErrUnexpectedOutcome)
	})

	t.Run("unexpected failure", func(t *testing.T) {
		s := newMemSimulator(t)
		err := s.RunScript(context.Background(), &Script{Steps: []Step{
			{Op: "stake", User: "alice", Amount: 2_000_000},
		}}, nil)
		assert.ErrorIs(t, err, lst.ErrInsufficientFunds)
	})

	t.Run("unknown user even when failure expected", func(t *testing.T) {
		s := newMemSimulator(t)
		err := s.RunScript(context.Background(), &Script{Steps: []Step{
			{Op: "stake", User: "carol", Amount: 1, Expect: "fail"},
		}}, nil)
		assert.ErrorIs(t, err, ErrUnknownUser)
	})

	t.Run("unknown op", func(t *testing.T) {
		s := newMemSimulator(t)
		err := s.RunScript(context.Background(), &Script{Steps: []Step{{Op: "mint", Expect: "fail"}}}, nil)
		assert.ErrorIs(t, err, ErrUnknownOp)
	})

	t.Run("cancelled", func(t *testing.T) {
		s := newMemSimulator(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := s.RunScript(ctx, &Script{Steps: []Step{{Op: "warp", Seconds: 1}}}, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSet_RotatesAuthority(t *testing.T) {
	s := newMemSimulator(t)
	bob := s.keys.users["bob"].PublicKey()

	_, err := s.Set(nil, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob, s.keys.authority.PublicKey())

	cooldown := int64(5)
	_, err = s.Set(&cooldown, "")
	require.NoError(t, err)

	state, err := lst.ReadPoolState(s.store, s.pool)
	require.NoError(t, err)
	assert.Equal(t, bob, state.UpdateAuthority)
	assert.Equal(t, int64(5), state.CooldownPeriodSeconds)

	_, err = s.Set(nil, "carol")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestReport_WriteTo(t *testing.T) {
	s := newMemSimulator(t)
	_, err := s.Stake("alice", 1_000)
	require.NoError(t, err)
	_, err = s.Unstake("alice", 400, 3)
	require.NoError(t, err)

	report, err := s.Report()
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := report.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	out := buf.String()
	assert.Contains(t, out, "pool "+s.pool.State.String())
	assert.Contains(t, out, "  receipt supply:   600\n")
	assert.Contains(t, out, "user alice")
	assert.Contains(t, out, "  pending #3: 400 base at 1700000060 (cooling down)\n")
}

func TestKeys_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ring := newKeyring([]string{"alice"})
	require.NoError(t, saveKeys(dir, ring))

	loaded, err := loadKeys(dir)
	require.NoError(t, err)
	assert.Equal(t, ring.encode(), loaded.encode())

	require.NoError(t, os.WriteFile(filepath.Join(dir, keysFileName), []byte("payer: notbase58!\n"), 0o600))
	_, err = loadKeys(dir)
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "genesis.yaml")

	require.NoError(t, os.WriteFile(path, []byte("cooldown_seconds: 10\nusers:\n  - name: alice\n    base: 7\n"), 0o600))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(10), cfg.CooldownSeconds)
	assert.Equal(t, DefaultConfig().StartTime, cfg.StartTime)
	assert.Equal(t, []UserConfig{{Name: "alice", Base: 7}}, cfg.Users)

	require.NoError(t, os.WriteFile(path, []byte("users:\n  - name: a\n  - name: a\n"), 0o600))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "duplicate user")

	require.NoError(t, os.WriteFile(path, []byte("cooldown_seconds: -1\n"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestGenesis_PersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Genesis(dir, testConfig())
	require.NoError(t, err)
	_, err = s.Stake("bob", 10_000)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Genesis(dir, testConfig())
	assert.ErrorContains(t, err, "already contains a ledger")

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	report, err := s.Report()
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), report.Snapshot.VaultAmount)
	assert.Equal(t, uint64(10_000), report.Users[1].Receipt)
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.yaml")

	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - op: set\n    cooldown: 0\n    expect: fail\n"), 0o600))
	script, err := LoadScript(path)
	require.NoError(t, err)
	require.Len(t, script.Steps, 1)
	require.NotNil(t, script.Steps[0].Cooldown)
	assert.Equal(t, int64(0), *script.Steps[0].Cooldown)
	assert.Equal(t, "fail", script.Steps[0].Expect)

	require.NoError(t, os.WriteFile(path, []byte("steps: [\n"), 0o600))
	_, err = LoadScript(path)
	assert.ErrorContains(t, err, "parsing script "+path)

	s := newMemSimulator(t)
	err = s.RunScript(context.Background(), &Script{Steps: []Step{{Op: "mint"}}}, nil)
	assert.ErrorIs(t, err, ErrUnknownOp)
	assert.ErrorContains(t, err, `"mint"`)

	_, err = s.Stake("carol", 1)
	assert.ErrorIs(t, err, ErrUnknownUser)
	assert.ErrorContains(t, err, `"carol"`)
}
