package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ludviglundgren/torrent-reconcile/internal/app"
	"github.com/ludviglundgren/torrent-reconcile/internal/classify"
	"github.com/ludviglundgren/torrent-reconcile/internal/config"
	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/logger"
	"github.com/ludviglundgren/torrent-reconcile/internal/rules"
	"github.com/ludviglundgren/torrent-reconcile/pkg/torrent"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// RunClassify cmd to try the configured rules against a torrent file without a downloader
func RunClassify() *cobra.Command {
	var (
		savePath    string
		tags        []string
		fastresume  string
		uploadLimit int64
		cover       bool
	)

	var command = &cobra.Command{
		Use:   "classify <file.torrent|magnet>",
		Short: "Show which tags and upload limit the rules give a torrent",
		Example: `  trc classify ./release.torrent --save-path /data/movies --tags PT
  trc classify ./BT_backup/<hash>.torrent --fastresume ./BT_backup/<hash>.fastresume`,
		Args: cobra.ExactArgs(1),
	}
	command.Flags().StringVar(&savePath, "save-path", "", "Save path of the torrent")
	command.Flags().StringSliceVar(&tags, "tags", []string{}, "Tags of the torrent. Comma separated")
	command.Flags().StringVar(&fastresume, "fastresume", "", "qBittorrent fastresume file to read save path, tags and limit from")
	command.Flags().Int64Var(&uploadLimit, "upload-limit", 0, "Current upload limit in KiB/s")
	command.Flags().BoolVar(&cover, "cover", false, "Overwrite manually set limits (default from limit.cover)")

	command.Run = func(cmd *cobra.Command, args []string) {
		config.InitConfig()

		t, err := torrent.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}

		if fastresume != "" {
			fr, err := torrent.DecodeFastresume(fastresume)
			if err != nil {
				fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
				os.Exit(1)
			}
			fr.Apply(&t)
		}

		if savePath != "" {
			t.SavePath = savePath
		}
		for _, tag := range tags {
			if !t.HasTag(tag) {
				t.Tags = append(t.Tags, tag)
			}
		}
		if command.Flags().Changed("upload-limit") {
			t.UploadLimit = uploadLimit
		}
		if !command.Flags().Changed("cover") {
			cover = config.Config.Limit.Cover
		}

		log := logger.New(config.Config.Log, config.Config.Debug)
		res := classifyTorrent(t, config.Config, app.Registry(config.Config, log), cover)
		res.print(os.Stdout)
	}

	return command
}

type classification struct {
	Torrent  domain.Torrent
	Site     string
	Path     string
	NewTags  []string
	Limit    int64
	HasLimit bool
	Warnings []rules.Warning
}

func classifyTorrent(t domain.Torrent, cfg domain.AppConfig, sites classify.SiteResolver, cover bool) classification {
	trackerRules, w1 := rules.Parse(cfg.Tag.TrackerMap, rules.DefaultSeparator)
	pathRules, w2 := rules.Parse(cfg.Tag.SavePathMap, rules.DefaultSeparator)
	speedRules, w3 := rules.ParseInt(cfg.Limit.TagMap, rules.DefaultSeparator)

	res := classification{
		Torrent:  t,
		Warnings: append(append(w1, w2...), w3...),
	}

	res.Site, _ = classify.SiteLabel(t, trackerRules, sites)
	res.Path, _ = classify.PathLabel(t, pathRules)
	res.NewTags = classify.Labels(t, pathRules, trackerRules, sites)

	// limits are matched against the tags the tag job would leave behind
	tagged := t
	tagged.Tags = append(append([]string{}, t.Tags...), res.NewTags...)
	res.Limit, res.HasLimit = classify.SpeedLimit(tagged, speedRules, cover)

	return res
}

func (c classification) print(w io.Writer) {
	limit := "unchanged"
	if c.HasLimit {
		limit = fmt.Sprintf("%d KiB/s", c.Limit)
	}

	t := newTable(w)
	t.SetTitle("%s", c.Torrent.Name)
	t.AppendRows([]table.Row{
		{"Hash", c.Torrent.Hash},
		{"Size", humanize.IBytes(uint64(c.Torrent.TotalSize))},
		{"Save path", c.Torrent.SavePath},
		{"Tags", joinTags(c.Torrent.Tags)},
		{"Trackers", len(c.Torrent.Trackers)},
		{"Site label", orDash(c.Site)},
		{"Path label", orDash(c.Path)},
		{"New tags", joinTags(c.NewTags)},
		{"Upload limit", limit},
	})
	t.Render()

	for _, warning := range c.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
