package main

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/liquidstake/pkg/bank"
	"github.com/Overclock-Validator/liquidstake/pkg/lst"
)

var (
	stakeCmd = cobra.Command{
		Use:   "stake USER AMOUNT",
		Short: "Deposit base tokens for receipt tokens",
		Args:  cobra.ExactArgs(2),
		RunE:  runStake,
	}
	unstakeCmd = cobra.Command{
		Use:   "unstake USER AMOUNT",
		Short: "Burn receipt tokens and open a pending withdrawal",
		Args:  cobra.ExactArgs(2),
		RunE:  runUnstake,
	}
	withdrawCmd = cobra.Command{
		Use:   "withdraw USER",
		Short: "Claim a pending withdrawal after its cooldown",
		Args:  cobra.ExactArgs(1),
		RunE:  runWithdraw,
	}
	setCmd = cobra.Command{
		Use:   "set",
		Short: "Update the cooldown period or the update authority",
		Args:  cobra.NoArgs,
		RunE:  runSet,
	}
	warpCmd = cobra.Command{
		Use:   "warp SECONDS",
		Short: "Advance the clock",
		Args:  cobra.ExactArgs(1),
		RunE:  runWarp,
	}
	yieldCmd = cobra.Command{
		Use:   "yield AMOUNT",
		Short: "Mint base tokens into the vault",
		Args:  cobra.ExactArgs(1),
		RunE:  runYield,
	}

	withdrawIndex uint8
	setCooldown   int64
	setAuthority  string
)

func init() {
	unstakeCmd.Flags().Uint8VarP(&withdrawIndex, "index", "i", 0, "Pending withdrawal slot")
	withdrawCmd.Flags().Uint8VarP(&withdrawIndex, "index", "i", 0, "Pending withdrawal slot")
	setCmd.Flags().Int64Var(&setCooldown, "cooldown", 0, "New cooldown period in seconds")
	setCmd.Flags().StringVar(&setAuthority, "authority", "", "User who becomes the update authority")
}

func parseAmount(arg string) (uint64, error) {
	amount, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid amount %q", arg)
	}
	return amount, nil
}

func logResult(op string, result *bank.Result, err error) error {
	if err != nil {
		if code, ok := lst.ErrorCode(err); ok {
			return errors.Wrapf(err, "%s rejected with program error %d", op, code)
		}
		return errors.Wrapf(err, "%s failed", op)
	}
	klog.Infof("%s ok: %d compute units, bank hash %s", op, result.ComputeUnits, solana.Hash(result.BankHash))
	return nil
}

func runStake(c *cobra.Command, args []string) error {
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	s, err := openLedger()
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.Stake(args[0], amount)
	return logResult("stake", result, err)
}

func runUnstake(c *cobra.Command, args []string) error {
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	s, err := openLedger()
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.Unstake(args[0], amount, withdrawIndex)
	return logResult("unstake", result, err)
}

func runWithdraw(c *cobra.Command, args []string) error {
	s, err := openLedger()
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.Withdraw(args[0], withdrawIndex)
	return logResult("withdraw", result, err)
}

func runSet(c *cobra.Command, _ []string) error {
	var cooldown *int64
	if c.Flags().Changed("cooldown") {
		cooldown = &setCooldown
	}
	if cooldown == nil && setAuthority == "" {
		return errors.New("nothing to set: pass --cooldown or --authority")
	}

	s, err := openLedger()
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.Set(cooldown, setAuthority)
	return logResult("set", result, err)
}

func runWarp(c *cobra.Command, args []string) error {
	seconds, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid seconds %q", args[0])
	}

	s, err := openLedger()
	if err != nil {
		return err
	}
	defer s.Close()

	clock, err := s.Warp(seconds)
	if err != nil {
		return errors.Wrap(err, "warp failed")
	}
	klog.Infof("clock at slot %d, unix time %d", clock.Slot, clock.UnixTimestamp)
	return nil
}

func runYield(c *cobra.Command, args []string) error {
	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	s, err := openLedger()
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.Yield(amount)
	return logResult("yield", result, err)
}
