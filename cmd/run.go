package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ludviglundgren/torrent-reconcile/internal/app"
	"github.com/ludviglundgren/torrent-reconcile/internal/config"
	"github.com/ludviglundgren/torrent-reconcile/internal/logger"

	"github.com/spf13/cobra"
)

// RunJob cmd to run a single pass of one job
func RunJob() *cobra.Command {
	var (
		dryRun bool
		debug  bool
	)

	var command = &cobra.Command{
		Use:       "run <" + strings.Join(app.Jobs, "|") + ">",
		Short:     "Run a job once",
		Example:   `  trc run tag --dry-run
  trc run delete`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: app.Jobs,
	}
	command.Flags().BoolVar(&dryRun, "dry-run", false, "Log what would change without changing anything")
	command.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	command.Run = func(cmd *cobra.Command, args []string) {
		config.InitConfig()

		cfg := config.Config
		log := logger.New(cfg.Log, cfg.Debug || debug)

		a, err := app.New(cfg, log, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		job, err := a.Job(args[0], dryRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: could not create job: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sum, err := job.Run(ctx)
		printSummary(os.Stdout, sum)

		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s failed: %v\n", job.Name(), err)
			a.Close()
			os.Exit(1)
		}
	}

	return command
}
