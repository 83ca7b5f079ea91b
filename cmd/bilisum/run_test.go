package main

import (
	"bytes"
	"strings"
	"testing"

	"bilisum/internal/batch"
	"bilisum/internal/pipeline"
)

func TestProgressPrinterEmitsTransitionsOnce(t *testing.T) {
	var buf bytes.Buffer
	printer := newProgressPrinter(&buf, false)

	snap := batch.Snapshot{Items: []pipeline.ProgressItem{
		{BVID: "BV1", Title: "BV1", Status: pipeline.StatusPending},
		{BVID: "BV2", Title: "Second", Status: pipeline.StatusProcessing, Message: "获取字幕..."},
	}}
	printer.observe(snap)
	printer.observe(snap)

	output := buf.String()
	if strings.Contains(output, "BV1") {
		t.Fatalf("pending items should stay silent, got:\n%s", output)
	}
	if strings.Count(output, "Second") != 1 {
		t.Fatalf("repeated snapshots must not repeat lines, got:\n%s", output)
	}
	requireContains(t, output, "[..] Second — 获取字幕...")

	snap.Items[1].Status = pipeline.StatusSuccess
	snap.Items[1].Message = "完成 (3.0s)"
	printer.observe(snap)
	requireContains(t, buf.String(), "[OK] Second — 完成 (3.0s)")
}

func TestProgressPrinterColorizesTerminalStatuses(t *testing.T) {
	var buf bytes.Buffer
	printer := newProgressPrinter(&buf, true)
	printer.observe(batch.Snapshot{Items: []pipeline.ProgressItem{
		{BVID: "BV1", Title: "Broken", Status: pipeline.StatusFailed, Message: "boom"},
	}})
	requireContains(t, buf.String(), ansiRed)
	requireContains(t, buf.String(), ansiReset)
}

func TestRenderRunSummaryCounts(t *testing.T) {
	snap := batch.Snapshot{
		Total:     4,
		Completed: 4,
		Items: []pipeline.ProgressItem{
			{BVID: "BV1", Title: "A", Status: pipeline.StatusSuccess},
			{BVID: "BV2", Title: "B", Status: pipeline.StatusSkipped},
			{BVID: "BV3", Title: "C", Status: pipeline.StatusNoSubtitle},
			{BVID: "BV4", Title: "D", Status: pipeline.StatusFailed, Message: "boom"},
		},
	}
	summary := renderRunSummary(snap)
	requireContains(t, summary, "4/4 done: 1 ok, 1 skipped, 1 without subtitles, 1 failed")
	requireContains(t, summary, "BV4")
	requireContains(t, summary, "boom")
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}})
	requireContains(t, out, "only")
	requireContains(t, out, "A")
}

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{0: "00:00", 65: "01:05", 125: "02:05", -3: "00:00"}
	for seconds, want := range cases {
		if got := formatDuration(seconds); got != want {
			t.Fatalf("formatDuration(%d) = %q, want %q", seconds, got, want)
		}
	}
}
