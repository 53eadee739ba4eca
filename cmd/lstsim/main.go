package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/liquidstake/pkg/sim"
)

var cmd = cobra.Command{
	Use:           "lstsim",
	Short:         "Liquid staking pool simulator",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var ledgerDir string

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)
	cmd.PersistentFlags().StringVarP(&ledgerDir, "ledger", "l", "ledger", "Ledger directory")

	cmd.AddCommand(
		&genesisCmd,
		&stakeCmd,
		&unstakeCmd,
		&withdrawCmd,
		&setCmd,
		&warpCmd,
		&yieldCmd,
		&showCmd,
		&runCmd,
	)
}

func openLedger() (*sim.Simulator, error) {
	s, err := sim.Open(ledgerDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ledger")
	}
	return s, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	cobra.CheckErr(cmd.ExecuteContext(ctx))
}
