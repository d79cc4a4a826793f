package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/config"
	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/downloader"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// RunDownloaders cmd to list configured downloaders and check that they respond
func RunDownloaders() *cobra.Command {
	var timeout time.Duration

	var command = &cobra.Command{
		Use:     "downloaders",
		Short:   "List downloaders and check their connection",
		Example: `  trc downloaders --timeout 5s`,
	}
	command.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Timeout per downloader")

	command.Run = func(cmd *cobra.Command, args []string) {
		config.InitConfig()

		statuses := make([]downloaderStatus, 0, len(config.Config.Downloaders))
		for _, cfg := range config.Config.Downloaders {
			statuses = append(statuses, checkDownloader(cmd.Context(), cfg, timeout))
		}

		printDownloaders(os.Stdout, statuses)
	}

	return command
}

type downloaderStatus struct {
	Config   domain.DownloaderConfig
	Torrents int
	Err      error
}

func checkDownloader(ctx context.Context, cfg domain.DownloaderConfig, timeout time.Duration) downloaderStatus {
	status := downloaderStatus{Config: cfg}

	client, err := downloader.New(cfg)
	if err != nil {
		status.Err = err
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		status.Err = err
		return status
	}

	torrents, err := client.Torrents(ctx)
	if err != nil {
		status.Err = err
		return status
	}
	status.Torrents = len(torrents)

	return status
}

func printDownloaders(w io.Writer, statuses []downloaderStatus) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Name", "Type", "Address", "Status", "Torrents"})
	for _, s := range statuses {
		state, count := "ok", any(s.Torrents)
		if s.Err != nil {
			state, count = s.Err.Error(), "-"
		}
		t.AppendRow(table.Row{s.Config.Name, s.Config.Type, s.Config.Addr, state, count})
	}
	t.Render()
}
