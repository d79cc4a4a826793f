package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/domain"
	"github.com/ludviglundgren/torrent-reconcile/internal/reconcile"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func printSummary(w io.Writer, sum reconcile.Summary) {
	title := sum.Job
	if sum.DryRun {
		title += " (dry run)"
	}

	t := newTable(w)
	t.SetTitle("%s", title)
	t.AppendHeader(table.Row{"Downloaders", "Scanned", "Changed", "Failed", "Deleted", "Tracked", "Duration"})
	t.AppendRow(table.Row{sum.Downloaders, sum.Scanned, sum.Changed, sum.Failed, sum.Deleted, sum.Tracked, sum.Duration.Round(time.Millisecond)})
	t.Render()
}

func printRecords(w io.Writer, records []domain.FailureRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No failure records")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Downloader", "Hash", "Name", "Size", "Failures", "Updated"})
	for _, r := range records {
		t.AppendRow(table.Row{r.Downloader, r.Hash, r.Name, humanize.IBytes(uint64(r.Size)), r.Failures, humanize.Time(r.UpdatedAt)})
	}
	t.Render()
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ", ")
}
