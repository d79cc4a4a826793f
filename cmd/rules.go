package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ludviglundgren/torrent-reconcile/internal/config"
	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/rules"

	"github.com/spf13/cobra"
)

// RunRules cmd for rule table helpers
func RunRules() *cobra.Command {
	var command = &cobra.Command{
		Use:   "rules",
		Short: "Rule table subcommands",
	}

	command.AddCommand(RunRulesCheck())

	return command
}

// RunRulesCheck cmd to parse every configured rule table and report skipped lines
func RunRulesCheck() *cobra.Command {
	var command = &cobra.Command{
		Use:     "check",
		Short:   "Check rule tables for malformed lines",
		Example: `  trc rules check`,
	}

	command.Run = func(cmd *cobra.Command, args []string) {
		config.InitConfig()

		if n := checkRules(os.Stdout, config.Config); n > 0 {
			fmt.Fprintf(os.Stderr, "ERROR: %d malformed lines\n", n)
			os.Exit(1)
		}
	}

	return command
}

// checkRules prints a line per table and returns the number of skipped lines.
func checkRules(w io.Writer, cfg domain.AppConfig) int {
	tables := []struct {
		name    string
		text    string
		numeric bool
	}{
		{name: "tag.tracker_map", text: cfg.Tag.TrackerMap},
		{name: "tag.save_path_map", text: cfg.Tag.SavePathMap},
		{name: "limit.tag_map", text: cfg.Limit.TagMap, numeric: true},
	}

	total := 0
	for _, table := range tables {
		var (
			entries  int
			warnings []rules.Warning
		)
		if table.numeric {
			var t rules.IntTable
			t, warnings = rules.ParseInt(table.text, rules.DefaultSeparator)
			entries = len(t)
		} else {
			var t rules.Table
			t, warnings = rules.Parse(table.text, rules.DefaultSeparator)
			entries = len(t)
		}

		fmt.Fprintf(w, "%s: %d rules\n", table.name, entries)
		for _, warning := range warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
		total += len(warnings)
	}

	return total
}
