package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"bilisum/internal/batch"
	"bilisum/internal/config"
	"bilisum/internal/pipeline"
)

// runBatch submits the requests, streams progress lines while the run is
// live, and renders a final summary table. It returns the final snapshot
// so callers can act on per-item outcomes.
func runBatch(cmd *cobra.Command, cfg *config.Config, svc *serviceSet, reqs []pipeline.Request) (batch.Snapshot, error) {
	lock, err := acquireRunLock(cfg)
	if err != nil {
		return batch.Snapshot{}, err
	}
	defer lock.Unlock()

	out := cmd.OutOrStdout()
	printer := newProgressPrinter(out, shouldColorize(out))

	sub, cancelSub := svc.orch.Subscribe()
	defer cancelSub()

	if err := svc.orch.Submit(reqs...); err != nil {
		return batch.Snapshot{}, err
	}
	fmt.Fprintf(out, "Processing %d video(s)...\n", len(reqs))

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- svc.orch.Wait(cmd.Context())
	}()

	for {
		select {
		case snap := <-sub:
			printer.observe(snap)
		case err := <-waitErr:
			final := svc.orch.Snapshot()
			printer.observe(final)
			if err != nil {
				return final, err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderRunSummary(final))
			return final, nil
		}
	}
}

// progressPrinter emits one line per observed item transition, so a run's
// history stays readable in plain terminals and log captures alike.
type progressPrinter struct {
	out      io.Writer
	colorize bool
	last     map[string]string
}

func newProgressPrinter(out io.Writer, colorize bool) *progressPrinter {
	return &progressPrinter{out: out, colorize: colorize, last: make(map[string]string)}
}

func (p *progressPrinter) observe(snap batch.Snapshot) {
	for _, item := range snap.Items {
		key := fmt.Sprintf("%s|%s|%s", item.Status, item.Title, item.Message)
		if p.last[item.BVID] == key {
			continue
		}
		p.last[item.BVID] = key
		if item.Status == pipeline.StatusPending {
			continue
		}
		fmt.Fprintln(p.out, p.formatLine(item))
	}
}

func (p *progressPrinter) formatLine(item pipeline.ProgressItem) string {
	badge := statusBadge(item.Status)
	line := fmt.Sprintf("  [%s] %s", badge, item.Title)
	if item.Message != "" {
		line += " — " + item.Message
	}
	if p.colorize {
		if color := statusColor(item.Status); color != "" {
			return color + line + ansiReset
		}
	}
	return line
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

func statusBadge(status pipeline.Status) string {
	switch status {
	case pipeline.StatusProcessing:
		return ".."
	case pipeline.StatusSuccess:
		return "OK"
	case pipeline.StatusSkipped:
		return "SKIP"
	case pipeline.StatusNoSubtitle:
		return "NOSUB"
	case pipeline.StatusFailed:
		return "FAIL"
	default:
		return "WAIT"
	}
}

func statusColor(status pipeline.Status) string {
	switch status {
	case pipeline.StatusSuccess:
		return ansiGreen
	case pipeline.StatusSkipped, pipeline.StatusNoSubtitle:
		return ansiYellow
	case pipeline.StatusFailed:
		return ansiRed
	case pipeline.StatusProcessing:
		return ansiCyan
	default:
		return ""
	}
}

func renderRunSummary(snap batch.Snapshot) string {
	counts := map[pipeline.Status]int{}
	rows := make([][]string, 0, len(snap.Items))
	for _, item := range snap.Items {
		counts[item.Status]++
		rows = append(rows, []string{item.BVID, item.Title, string(item.Status), item.Message})
	}
	summary := renderTable([]string{"BV", "Title", "Status", "Message"}, rows)
	summary += fmt.Sprintf("\n%d/%d done: %d ok, %d skipped, %d without subtitles, %d failed",
		snap.Completed, snap.Total,
		counts[pipeline.StatusSuccess], counts[pipeline.StatusSkipped],
		counts[pipeline.StatusNoSubtitle], counts[pipeline.StatusFailed])
	return summary
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
