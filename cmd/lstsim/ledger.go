package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/liquidstake/pkg/sim"
)

var (
	genesisCmd = cobra.Command{
		Use:   "genesis",
		Short: "Create a ledger with mints, users and an initialized pool",
		Args:  cobra.NoArgs,
		RunE:  runGenesis,
	}
	showCmd = cobra.Command{
		Use:   "show",
		Short: "Print pool state and user balances",
		Args:  cobra.NoArgs,
		RunE:  runShow,
	}

	genesisConfig string
)

func init() {
	genesisCmd.Flags().StringVarP(&genesisConfig, "config", "c", "", "Genesis YAML config (defaults when empty)")
}

func runGenesis(c *cobra.Command, _ []string) error {
	cfg := sim.DefaultConfig()
	if genesisConfig != "" {
		var err error
		if cfg, err = sim.LoadConfig(genesisConfig); err != nil {
			return errors.Wrap(err, "invalid genesis config")
		}
	}

	s, err := sim.Genesis(ledgerDir, cfg)
	if err != nil {
		return errors.Wrap(err, "genesis failed")
	}
	defer s.Close()

	pool := s.Pool()
	klog.Infof("ledger %s created", ledgerDir)
	klog.Infof("pool state %s", pool.State)
	klog.Infof("vault      %s", pool.Vault)
	klog.Infof("users      %v", s.Users())
	return nil
}

func runShow(c *cobra.Command, _ []string) error {
	s, err := openLedger()
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.Report()
	if err != nil {
		return errors.Wrap(err, "failed to read pool")
	}
	_, err = report.WriteTo(c.OutOrStdout())
	return err
}

