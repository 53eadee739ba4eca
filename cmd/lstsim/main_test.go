package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overclock-Validator/liquidstake/pkg/lst"
	"github.com/Overclock-Validator/liquidstake/pkg/sim"
)

func execute(t *testing.T, out *bytes.Buffer, args ...string) error {
	t.Helper()
	cmd.SetOut(out)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestFailedOperationReleasesLedger(t *testing.T) {
	ledger := filepath.Join(t.TempDir(), "ledger")
	config := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(config, []byte("users:\n  - name: alice\n    base: 1000\n"), 0o600))

	var out bytes.Buffer
	require.NoError(t, execute(t, &out, "--ledger", ledger, "genesis", "--config", config))
	require.NoError(t, execute(t, &out, "--ledger", ledger, "stake", "alice", "400"))

	err := execute(t, &out, "--ledger", ledger, "stake", "alice", "5000")
	require.ErrorIs(t, err, lst.ErrInsufficientFunds)
	assert.ErrorContains(t, err, "stake rejected with program error 8")

	assert.ErrorIs(t, execute(t, &out, "--ledger", ledger, "stake", "carol", "1"), sim.ErrUnknownUser)
	assert.Error(t, execute(t, &out, "--ledger", ledger, "stake", "alice", "lots"))

	// the ledger lock must be free again after every failure
	require.NoError(t, execute(t, &out, "--ledger", ledger, "stake", "alice", "100"))

	out.Reset()
	require.NoError(t, execute(t, &out, "--ledger", ledger, "show"))
	assert.Contains(t, out.String(), "receipt supply:   500\n")
	assert.Contains(t, out.String(), "  receipt: 500 (redeems 500)\n")
}

func TestRunScriptFailureReleasesLedger(t *testing.T) {
	ledger := filepath.Join(t.TempDir(), "ledger")
	dir := t.TempDir()
	config := filepath.Join(dir, "genesis.yaml")
	script := filepath.Join(dir, "script.yaml")
	require.NoError(t, os.WriteFile(config, []byte("users:\n  - name: bob\n    base: 50\n"), 0o600))
	require.NoError(t, os.WriteFile(script, []byte("steps:\n  - op: stake\n    user: bob\n    amount: 10\n  - op: withdraw\n    user: bob\n"), 0o600))

	var out bytes.Buffer
	require.NoError(t, execute(t, &out, "--ledger", ledger, "genesis", "--config", config))

	err := execute(t, &out, "--ledger", ledger, "run", "--script", script)
	assert.ErrorContains(t, err, "script failed")

	s, err := sim.Open(ledger)
	require.NoError(t, err)
	defer s.Close()

	report, err := s.Report()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), report.Snapshot.VaultAmount)
}
