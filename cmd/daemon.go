package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/app"
	"github.com/ludviglundgren/torrent-reconcile/internal/config"
	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/logger"
	"github.com/ludviglundgren/torrent-reconcile/internal/metrics"

	"github.com/spf13/cobra"
)

// RunDaemon cmd to schedule every enabled job until interrupted
func RunDaemon() *cobra.Command {
	var debug bool

	var command = &cobra.Command{
		Use:   "daemon",
		Short: "Run enabled jobs on their schedules",
		Long: `Run the tag, limit and delete jobs on their configured schedules.
The config file is watched and jobs are rescheduled after each save.`,
		Example: `  trc daemon
  trc daemon --config ~/.config/trc/.trc.toml --debug`,
	}
	command.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	command.Run = func(cmd *cobra.Command, args []string) {
		config.InitConfig()

		cfg := config.Config
		log := logger.New(cfg.Log, cfg.Debug || debug)

		manager := metrics.NewManager()

		var server *metrics.Server
		if cfg.Metrics.Enabled {
			server = metrics.NewServer(manager, cfg.Metrics.Host, cfg.Metrics.Port, log.With().Str("module", "metrics").Logger())
			go func() {
				if err := server.ListenAndServe(); err != nil {
					log.Error().Err(err).Msg("metrics server stopped")
				}
			}()
		}

		daemon := app.NewDaemon(log, manager.Jobs)
		if err := daemon.Start(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: could not start jobs: %v\n", err)
			os.Exit(1)
		}

		config.Watch(func(cfg domain.AppConfig, err error) {
			if err != nil {
				log.Error().Err(err).Msg("could not reload config")
				return
			}
			if err := daemon.Reload(cfg); err != nil {
				log.Error().Err(err).Msg("could not reschedule jobs")
			}
		})

		for name, trigger := range daemon.Triggers() {
			if next := trigger.Next(); !next.IsZero() {
				log.Info().Str("job", name).Time("next", next).Msg("job scheduled")
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		<-ctx.Done()
		log.Info().Msg("shutting down")

		daemon.Stop()

		if server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("could not stop metrics server")
			}
		}
	}

	return command
}
