package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bilisum/internal/ai"
	"bilisum/internal/bili"
	"bilisum/internal/library"
	"bilisum/internal/services"
	"bilisum/internal/storage"
	"bilisum/internal/subtitle"
)

type fakeMetadata struct {
	info bili.VideoInfo
	err  error
}

func (f *fakeMetadata) VideoInfo(context.Context, string, *bili.Credential) (bili.VideoInfo, error) {
	return f.info, f.err
}

type fakeResolver struct {
	result subtitle.Result
	err    error
	calls  int
}

func (f *fakeResolver) Resolve(context.Context, string, *bili.Credential) (subtitle.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(context.Context, string, *bili.Credential) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeSummarizer struct {
	summary     ai.Summary
	err         error
	calls       int
	transcripts []string
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string, transcript string) (ai.Summary, error) {
	f.calls++
	f.transcripts = append(f.transcripts, transcript)
	return f.summary, f.err
}

type fakeSink struct {
	exists  bool
	saved   []storage.Record
	saveErr error
	casCues [][]subtitle.Cue
}

func (f *fakeSink) SaveSummary(rec storage.Record) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved = append(f.saved, rec)
	return rec.Category + "/" + rec.Title + ".md", nil
}

func (f *fakeSink) SaveCaptions(_, _ string, cues []subtitle.Cue) (string, error) {
	f.casCues = append(f.casCues, cues)
	return "", nil
}

func (f *fakeSink) SummaryExists(string, string) bool {
	return f.exists
}

type fakeIndex struct {
	records []library.Record
}

func (f *fakeIndex) Upsert(_ context.Context, rec library.Record) error {
	f.records = append(f.records, rec)
	return nil
}

type progressLog struct {
	statuses []Status
	messages []string
	title    string
}

func (p *progressLog) update(title string, status Status, message string) {
	p.title = title
	p.statuses = append(p.statuses, status)
	p.messages = append(p.messages, message)
}

func demoInfo() bili.VideoInfo {
	return bili.VideoInfo{
		BVID:     "BV1xy4y1X7",
		Title:    "Demo",
		Duration: 125,
		Pic:      "//i0.hdslb.com/cover.jpg",
		Owner:    bili.Owner{Mid: 42, Name: "uploader"},
	}
}

func TestProcessSubtitlePathEndToEnd(t *testing.T) {
	resolver := &fakeResolver{result: subtitle.Result{
		Transcript: "hello\nworld",
		Cues: []subtitle.Cue{
			{From: 0, To: 5, Content: "hello"},
			{From: 5, To: 10, Content: "world"},
		},
		Language: "zh-CN",
	}}
	summarizer := &fakeSummarizer{summary: ai.Summary{Text: "notes"}}
	sink := &fakeSink{}
	index := &fakeIndex{}
	transcriber := &fakeTranscriber{}
	p := NewProcessor(&fakeMetadata{info: demoInfo()}, resolver, transcriber, summarizer, sink, index, nil)

	progress := &progressLog{}
	status := p.Process(context.Background(), Request{BVID: "BV1xy4y1X7", Category: "standalone"}, progress.update)

	if status != StatusSuccess {
		t.Fatalf("expected success, got %s", status)
	}
	if summarizer.calls != 1 || summarizer.transcripts[0] != "hello\nworld" {
		t.Fatalf("unexpected summarizer input: %+v", summarizer.transcripts)
	}
	if transcriber.calls != 0 {
		t.Fatal("fallback must not run when a subtitle exists")
	}
	if len(sink.saved) != 1 {
		t.Fatalf("expected one persisted record, got %d", len(sink.saved))
	}
	rec := sink.saved[0]
	if !rec.HasSubtitle || rec.Summary != "notes" || rec.Duration != 125 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.URL != "https://www.bilibili.com/video/BV1xy4y1X7" {
		t.Fatalf("unexpected url: %q", rec.URL)
	}
	if len(sink.casCues) != 1 || len(sink.casCues[0]) != 2 {
		t.Fatalf("caption artifact not saved: %+v", sink.casCues)
	}
	if len(index.records) != 1 || index.records[0].BVID != "BV1xy4y1X7" {
		t.Fatalf("index not updated: %+v", index.records)
	}
	if progress.title != "Demo" {
		t.Fatalf("progress title not updated: %q", progress.title)
	}
	last := progress.statuses[len(progress.statuses)-1]
	if last != StatusSuccess {
		t.Fatalf("unexpected final progress status: %s", last)
	}
}

func TestProcessNoSubtitleAndFailedASR(t *testing.T) {
	resolver := &fakeResolver{err: services.Wrap(services.ErrSubtitleUnavailable, "subtitle", "b", "no subtitle tracks", nil)}
	transcriber := &fakeTranscriber{err: errors.New("audio stream gone")}
	summarizer := &fakeSummarizer{}
	sink := &fakeSink{}
	p := NewProcessor(&fakeMetadata{info: demoInfo()}, resolver, transcriber, summarizer, sink, nil, nil)

	status := p.Process(context.Background(), Request{BVID: "BV1xy4y1X7"}, nil)

	if status != StatusNoSubtitle {
		t.Fatalf("expected noSubtitle, got %s", status)
	}
	if summarizer.calls != 0 {
		t.Fatal("summarizer must not run without a transcript")
	}
	if len(sink.saved) != 1 {
		t.Fatalf("expected a placeholder record, got %d", len(sink.saved))
	}
	rec := sink.saved[0]
	if rec.HasSubtitle || !strings.Contains(rec.Summary, "无法获取字幕") {
		t.Fatalf("unexpected placeholder record: %+v", rec)
	}
}

func TestProcessASRFallbackFeedsSummarizer(t *testing.T) {
	resolver := &fakeResolver{err: services.Wrap(services.ErrSubtitleUnavailable, "subtitle", "b", "no subtitle tracks", nil)}
	transcriber := &fakeTranscriber{text: "recognized speech"}
	summarizer := &fakeSummarizer{summary: ai.Summary{Text: "notes"}}
	sink := &fakeSink{}
	p := NewProcessor(&fakeMetadata{info: demoInfo()}, resolver, transcriber, summarizer, sink, nil, nil)

	status := p.Process(context.Background(), Request{BVID: "BV1xy4y1X7"}, nil)

	if status != StatusSuccess {
		t.Fatalf("expected success, got %s", status)
	}
	if summarizer.transcripts[0] != "recognized speech" {
		t.Fatalf("unexpected summarizer input: %+v", summarizer.transcripts)
	}
	// The transcript was synthesized, not from a published caption track.
	if sink.saved[0].HasSubtitle {
		t.Fatal("speech-recognized transcripts must be marked as no-subtitle")
	}
}

func TestProcessSkipsExistingSummary(t *testing.T) {
	resolver := &fakeResolver{}
	p := NewProcessor(&fakeMetadata{info: demoInfo()}, resolver, &fakeTranscriber{}, &fakeSummarizer{}, &fakeSink{exists: true}, nil, nil)

	status := p.Process(context.Background(), Request{BVID: "BV1xy4y1X7"}, nil)

	if status != StatusSkipped {
		t.Fatalf("expected skipped, got %s", status)
	}
	if resolver.calls != 0 {
		t.Fatal("skipped items must not fetch subtitles")
	}
}

func TestProcessOverwriteBypassesExistenceCheck(t *testing.T) {
	resolver := &fakeResolver{result: subtitle.Result{Transcript: "text"}}
	summarizer := &fakeSummarizer{summary: ai.Summary{Text: "notes"}}
	sink := &fakeSink{exists: true}
	p := NewProcessor(&fakeMetadata{info: demoInfo()}, resolver, &fakeTranscriber{}, summarizer, sink, nil, nil)

	status := p.Process(context.Background(), Request{BVID: "BV1xy4y1X7", Overwrite: true}, nil)

	if status != StatusSuccess {
		t.Fatalf("expected success, got %s", status)
	}
	if len(sink.saved) != 1 {
		t.Fatal("overwrite run must persist a record")
	}
}

func TestProcessMetadataFailureIsTerminal(t *testing.T) {
	p := NewProcessor(&fakeMetadata{err: errors.New("network down")}, &fakeResolver{}, &fakeTranscriber{}, &fakeSummarizer{}, &fakeSink{}, nil, nil)

	progress := &progressLog{}
	status := p.Process(context.Background(), Request{BVID: "BV1xy4y1X7"}, progress.update)

	if status != StatusFailed {
		t.Fatalf("expected failed, got %s", status)
	}
	if !strings.Contains(progress.messages[len(progress.messages)-1], "network down") {
		t.Fatalf("failure message missing cause: %v", progress.messages)
	}
}

func TestProcessSummarizerFailureIsTerminal(t *testing.T) {
	resolver := &fakeResolver{result: subtitle.Result{Transcript: "text"}}
	summarizer := &fakeSummarizer{err: services.Wrap(services.ErrRateLimitExhausted, "ai", "summarize", "", nil)}
	sink := &fakeSink{}
	p := NewProcessor(&fakeMetadata{info: demoInfo()}, resolver, &fakeTranscriber{}, summarizer, sink, nil, nil)

	status := p.Process(context.Background(), Request{BVID: "BV1xy4y1X7"}, nil)

	if status != StatusFailed {
		t.Fatalf("expected failed, got %s", status)
	}
	if len(sink.saved) != 0 {
		t.Fatal("failed items must not persist records")
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusSuccess, StatusSkipped, StatusFailed, StatusNoSubtitle} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusProcessing} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}
