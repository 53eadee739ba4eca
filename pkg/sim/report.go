package sim

import (
	"fmt"
	"io"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/segmentio/textio"

	"github.com/Overclock-Validator/liquidstake/pkg/lst"
	"github.com/Overclock-Validator/liquidstake/pkg/sealevel"
)

type UserReport struct {
	Name    string
	Wallet  solana.PublicKey
	Base    uint64
	Receipt uint64
	// Redeemable is the base the receipt balance would escrow right now.
	Redeemable uint64
	Pending    []lst.PendingWithdraw
}

// Report is a point-in-time view of the pool and every user.
type Report struct {
	Clock    sealevel.SysvarClock
	Pool     lst.Pool
	State    *lst.PoolState
	Snapshot lst.Snapshot
	Users    []UserReport
}

func (s *Simulator) Report() (*Report, error) {
	clock, err := s.bank.Clock()
	if err != nil {
		return nil, err
	}
	state, err := lst.ReadPoolState(s.store, s.pool)
	if err != nil {
		return nil, err
	}
	snapshot, err := lst.ReadSnapshot(s.store, s.pool)
	if err != nil {
		return nil, err
	}

	report := &Report{Clock: clock, Pool: s.pool, State: state, Snapshot: snapshot}
	for _, name := range s.Users() {
		wallet := s.keys.users[name].PublicKey()
		userReport := UserReport{Name: name, Wallet: wallet}

		baseToken, receiptToken, err := s.tokenAccounts(wallet)
		if err != nil {
			return nil, err
		}
		if userReport.Base, err = s.tokenBalance(baseToken); err != nil {
			return nil, err
		}
		if userReport.Receipt, err = s.tokenBalance(receiptToken); err != nil {
			return nil, err
		}
		if userReport.Receipt > 0 {
			if userReport.Redeemable, err = lst.QuoteUnstake(snapshot, userReport.Receipt); err != nil {
				return nil, err
			}
		}
		if userReport.Pending, err = lst.ListPendingWithdraws(s.store, s.pool, wallet); err != nil {
			return nil, err
		}
		report.Users = append(report.Users, userReport)
	}
	return report, nil
}

func (s *Simulator) tokenBalance(key solana.PublicKey) (uint64, error) {
	acct, err := s.bank.GetAccount(key)
	if err != nil || acct == nil {
		return 0, err
	}
	tokenAcct, err := sealevel.UnpackTokenAccount(acct.Data)
	if err != nil {
		return 0, err
	}
	return tokenAcct.Amount, nil
}

func (r *Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	fmt.Fprintf(cw, "clock: slot %d, %s\n", r.Clock.Slot, time.Unix(r.Clock.UnixTimestamp, 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(cw, "pool %s\n", r.Pool.State)

	pw := textio.NewPrefixWriter(cw, "  ")
	fmt.Fprintf(pw, "vault:            %d\n", r.Snapshot.VaultAmount)
	fmt.Fprintf(pw, "escrowed:         %d\n", r.Snapshot.EscrowedBaseAmount)
	fmt.Fprintf(pw, "receipt supply:   %d\n", r.Snapshot.ReceiptSupply)
	fmt.Fprintf(pw, "cooldown:         %ds\n", r.State.CooldownPeriodSeconds)
	fmt.Fprintf(pw, "update authority: %s\n", r.State.UpdateAuthority)
	if nonEscrowed, err := r.Snapshot.NonEscrowed(); err == nil && r.Snapshot.ReceiptSupply > 0 {
		fmt.Fprintf(pw, "rate:             %.9f base per receipt\n", float64(nonEscrowed)/float64(r.Snapshot.ReceiptSupply))
	}
	if err := pw.Flush(); err != nil {
		return cw.n, err
	}

	for _, user := range r.Users {
		fmt.Fprintf(cw, "user %s (%s)\n", user.Name, user.Wallet)
		uw := textio.NewPrefixWriter(cw, "  ")
		fmt.Fprintf(uw, "base:    %d\n", user.Base)
		fmt.Fprintf(uw, "receipt: %d (redeems %d)\n", user.Receipt, user.Redeemable)
		for _, pending := range user.Pending {
			status := "cooling down"
			if r.Clock.UnixTimestamp >= pending.WithdrawableTimestamp {
				status = "withdrawable"
			}
			fmt.Fprintf(uw, "pending #%d: %d base at %d (%s)\n",
				pending.WithdrawIndex, pending.WithdrawableBaseAmount, pending.WithdrawableTimestamp, status)
		}
		if err := uw.Flush(); err != nil {
			return cw.n, err
		}
	}
	return cw.n, cw.err
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	if cw.err != nil {
		return 0, cw.err
	}
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	cw.err = err
	return n, err
}
