package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/liquidstake/pkg/sim"
)

var (
	runCmd = cobra.Command{
		Use:   "run",
		Short: "Execute a YAML script of operations against the ledger",
		Args:  cobra.NoArgs,
		RunE:  runScript,
	}

	scriptPath  string
	metricsAddr string
)

func init() {
	runCmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Path to script YAML")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve bank metrics on this address while running")
	_ = runCmd.MarkFlagRequired("script")
}

func runScript(c *cobra.Command, _ []string) error {
	script, err := sim.LoadScript(scriptPath)
	if err != nil {
		return errors.Wrap(err, "failed to load script")
	}

	s, err := openLedger()
	if err != nil {
		return err
	}
	defer s.Close()

	var progress *mpb.Progress
	var bar *mpb.Bar
	onStep := func() {}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		progress = mpb.New(mpb.WithOutput(os.Stderr))
		bar = progress.AddBar(int64(len(script.Steps)),
			mpb.PrependDecorators(
				decor.Name("steps "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
		onStep = bar.Increment
	}

	group, ctx := errgroup.WithContext(c.Context())

	var server *http.Server
	if metricsAddr != "" {
		server = &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(s.Bank().Metrics().Registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		group.Go(func() error {
			klog.Infof("serving metrics on %s", metricsAddr)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		err := s.RunScript(ctx, script, onStep)
		if server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if shutdownErr := server.Shutdown(shutdownCtx); err == nil {
				err = shutdownErr
			}
		}
		return err
	})

	err = group.Wait()
	if progress != nil {
		if err != nil {
			bar.Abort(false)
		}
		progress.Wait()
	}
	if err != nil {
		return errors.Wrap(err, "script failed")
	}

	klog.Infof("ran %d steps, %d transactions, %.0f compute units on average",
		len(script.Steps), s.Bank().TransactionCount(), s.Bank().AverageComputeUnits())
	return nil
}
