package cmd

import (
	"log"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"
)

const releaseRepo = "ludviglundgren/torrent-reconcile"

func RunUpdate(version string) *cobra.Command {
	var command = &cobra.Command{
		Use:     "update",
		Short:   "Update trc to the latest release",
		Example: `  trc update --verbose`,
	}

	var verbose bool
	command.Flags().BoolVar(&verbose, "verbose", false, "Print the release notes")

	command.Run = func(cmd *cobra.Command, args []string) {
		current, err := semver.ParseTolerant(version)
		if err != nil {
			log.Printf("could not parse version %q: %v\n", version, err)
			return
		}

		latest, err := selfupdate.UpdateSelf(current, releaseRepo)
		if err != nil {
			log.Println("update failed:", err)
			return
		}

		if latest.Version.Equals(current) {
			log.Println("already up to date:", version)
			return
		}

		log.Println("updated to", latest.Version)
		if verbose {
			log.Println("Release notes:\n", latest.ReleaseNotes)
		}
	}

	return command
}
