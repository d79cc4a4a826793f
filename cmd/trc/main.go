package main

import (
	"log"
	"os"

	"github.com/ludviglundgren/torrent-reconcile/cmd"
	"github.com/ludviglundgren/torrent-reconcile/internal/config"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	log.SetFlags(0)

	var rootCmd = &cobra.Command{
		Use:   "trc",
		Short: "Reconcile torrents across qBittorrent and Transmission",
		Long: `Tag, limit and clean up torrents across qBittorrent and Transmission.

Documentation is available at https://github.com/ludviglundgren/torrent-reconcile`,
	}

	// override config
	rootCmd.PersistentFlags().StringVar(&config.CfgFile, "config", "", "config file (default is $HOME/.config/trc/.trc.toml)")

	rootCmd.AddCommand(cmd.RunVersion(version, commit, date))
	rootCmd.AddCommand(cmd.RunUpdate(version))
	rootCmd.AddCommand(cmd.RunDaemon())
	rootCmd.AddCommand(cmd.RunJob())
	rootCmd.AddCommand(cmd.RunRules())
	rootCmd.AddCommand(cmd.RunClassify())
	rootCmd.AddCommand(cmd.RunState())
	rootCmd.AddCommand(cmd.RunDownloaders())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
