package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/config"
	"github.com/ludviglundgren/torrent-reconcile/internal/state"
	"github.com/ludviglundgren/torrent-reconcile/pkg/archive"
	"github.com/ludviglundgren/torrent-reconcile/pkg/utils"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunState cmd for the failure counter store
func RunState() *cobra.Command {
	var command = &cobra.Command{
		Use:   "state",
		Short: "Inspect and manage the failure counters of the delete job",
	}

	command.AddCommand(RunStateList())
	command.AddCommand(RunStateForget())
	command.AddCommand(RunStateBackup())

	return command
}

func openState() *state.Store {
	config.InitConfig()

	store, err := state.Open(config.Config.State)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	return store
}

// RunStateList cmd to print every failure record
func RunStateList() *cobra.Command {
	var command = &cobra.Command{
		Use:     "list",
		Short:   "List torrents with failed tracker checks",
		Example: `  trc state list`,
	}

	command.Run = func(cmd *cobra.Command, args []string) {
		store := openState()
		defer store.Close()

		records, err := store.List(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}

		printRecords(os.Stdout, records)
	}

	return command
}

// RunStateForget cmd to reset the counters of one or more torrents
func RunStateForget() *cobra.Command {
	var command = &cobra.Command{
		Use:     "forget <hash>...",
		Short:   "Reset the failure counter of torrents",
		Example: `  trc state forget 6957bf5272f5b994132458a557864e3ea747489f`,
		Args:    cobra.MinimumNArgs(1),
	}

	command.Run = func(cmd *cobra.Command, args []string) {
		if err := utils.ValidateHash(args); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}

		store := openState()
		defer store.Close()

		if err := store.Lock(); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			store.Close()
			os.Exit(1)
		}

		for _, hash := range args {
			n, err := store.Forget(cmd.Context(), hash)
			if err != nil {
				fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
				store.Close()
				os.Exit(1)
			}
			fmt.Printf("%s: removed %d records\n", strings.ToLower(hash), n)
		}
	}

	return command
}

// RunStateBackup cmd to write the state and config into a tar.gz
func RunStateBackup() *cobra.Command {
	var out string

	var command = &cobra.Command{
		Use:     "backup",
		Short:   "Back up the state database and config file",
		Example: `  trc state backup --out ~/backups/trc.tar.gz`,
	}
	command.Flags().StringVar(&out, "out", "", "Archive to write (default trc-backup-<date>.tar.gz)")

	command.Run = func(cmd *cobra.Command, args []string) {
		store := openState()
		defer store.Close()

		if out == "" {
			out = fmt.Sprintf("trc-backup-%s.tar.gz", time.Now().Format("20060102-150405"))
		}

		names, err := backupState(cmd.Context(), store, viper.ConfigFileUsed(), out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			store.Close()
			os.Exit(1)
		}

		fmt.Printf("backup written to %s (%s)\n", out, strings.Join(names, ", "))
	}

	return command
}

// backupState archives a snapshot of the store and the config file, then reads the
// archive back and returns the names it holds.
func backupState(ctx context.Context, store *state.Store, configFile, out string) ([]string, error) {
	tmp, err := os.MkdirTemp("", "trc-backup")
	if err != nil {
		return nil, errors.Wrap(err, "could not create temp dir")
	}
	defer os.RemoveAll(tmp)

	name := filepath.Base(store.Path())
	snapshot := filepath.Join(tmp, name)
	if err := store.Snapshot(ctx, snapshot); err != nil {
		return nil, err
	}

	files := map[string]string{snapshot: name}
	if configFile != "" {
		files[configFile] = filepath.Base(configFile)
	}

	if err := archive.TarGz(ctx, out, files); err != nil {
		return nil, err
	}

	names, err := archive.List(ctx, out)
	if err != nil {
		return nil, errors.Wrap(err, "could not verify backup")
	}

	return names, nil
}
