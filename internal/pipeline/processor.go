package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"bilisum/internal/ai"
	"bilisum/internal/bili"
	"bilisum/internal/library"
	"bilisum/internal/services"
	"bilisum/internal/storage"
	"bilisum/internal/subtitle"
)

// Status is the user-visible state of one video in a batch.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
	StatusNoSubtitle Status = "noSubtitle"
)

// Terminal reports whether a status ends processing for the item.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusSkipped, StatusFailed, StatusNoSubtitle:
		return true
	}
	return false
}

// noTranscriptNotice is persisted when neither a subtitle track nor speech
// recognition produced any text.
const noTranscriptNotice = "⚠️ 无法获取字幕，也无法进行语音识别"

// ProgressItem tracks one video from enqueue to terminal status.
type ProgressItem struct {
	BVID    string
	Title   string
	Status  Status
	Message string
}

// Request describes one video to process.
type Request struct {
	BVID string
	// Category routes output: "standalone", "favorites", "users/<uid>".
	Category string
	// Overwrite regenerates the summary even when one already exists.
	Overwrite bool
	// Credential, when set, authenticates platform calls.
	Credential *bili.Credential
}

// UpdateFunc receives progress transitions as the item advances.
type UpdateFunc func(title string, status Status, message string)

// Metadata fetches video details.
type Metadata interface {
	VideoInfo(ctx context.Context, bvid string, cred *bili.Credential) (bili.VideoInfo, error)
}

// Resolver finds the transcript for a video's subtitle track.
type Resolver interface {
	Resolve(ctx context.Context, bvid string, cred *bili.Credential) (subtitle.Result, error)
}

// Transcriber produces a transcript from the video's audio.
type Transcriber interface {
	Transcribe(ctx context.Context, bvid string, cred *bili.Credential) (string, error)
}

// Summarizer turns a transcript into notes.
type Summarizer interface {
	Summarize(ctx context.Context, title, transcript string) (ai.Summary, error)
}

// Sink persists finished records.
type Sink interface {
	SaveSummary(rec storage.Record) (string, error)
	SaveCaptions(title, category string, cues []subtitle.Cue) (string, error)
	SummaryExists(title, category string) bool
}

// Index records finished summaries for fast lookup. Optional.
type Index interface {
	Upsert(ctx context.Context, rec library.Record) error
}

// Processor composes the per-video services.
type Processor struct {
	metadata   Metadata
	resolver   Resolver
	transcript Transcriber
	summarizer Summarizer
	sink       Sink
	index      Index
	logger     *slog.Logger
}

// NewProcessor wires the pipeline. index may be nil.
func NewProcessor(metadata Metadata, resolver Resolver, transcriber Transcriber, summarizer Summarizer, sink Sink, index Index, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{
		metadata:   metadata,
		resolver:   resolver,
		transcript: transcriber,
		summarizer: summarizer,
		sink:       sink,
		index:      index,
		logger:     logger,
	}
}

// Process runs one video to a terminal status and returns it. Progress
// transitions are reported through update; errors never escape, they become
// the failed status with a message.
func (p *Processor) Process(ctx context.Context, req Request, update UpdateFunc) Status {
	if update == nil {
		update = func(string, Status, string) {}
	}
	bvid := req.BVID
	watchURL := "https://www.bilibili.com/video/" + bvid

	info, err := p.metadata.VideoInfo(ctx, bvid, req.Credential)
	if err != nil {
		p.logger.Error("video info failed", slog.String("bvid", bvid), slog.Any("error", err))
		update(bvid, StatusFailed, err.Error())
		return StatusFailed
	}
	title := info.Title
	update(title, StatusProcessing, "获取字幕...")

	if !req.Overwrite && p.sink.SummaryExists(title, req.Category) {
		p.logger.Info("summary exists, skipping", slog.String("bvid", bvid))
		update(title, StatusSkipped, "已存在")
		return StatusSkipped
	}

	var transcript string
	hasSubtitle := false
	resolved, err := p.resolver.Resolve(ctx, bvid, req.Credential)
	switch {
	case err == nil:
		transcript = resolved.Transcript
		hasSubtitle = true
		if _, saveErr := p.sink.SaveCaptions(title, req.Category, resolved.Cues); saveErr != nil {
			p.logger.Warn("caption artifact not saved", slog.String("bvid", bvid), slog.Any("error", saveErr))
		}
	case errors.Is(err, services.ErrSubtitleUnavailable):
		update(title, StatusProcessing, "无字幕，尝试 ASR...")
		text, asrErr := p.transcript.Transcribe(ctx, bvid, req.Credential)
		if asrErr != nil {
			p.logger.Warn("transcription fallback failed", slog.String("bvid", bvid), slog.Any("error", asrErr))
			return p.saveWithoutTranscript(ctx, req, info, watchURL, update)
		}
		transcript = text
	default:
		p.logger.Error("subtitle resolution failed", slog.String("bvid", bvid), slog.Any("error", err))
		update(title, StatusFailed, err.Error())
		return StatusFailed
	}

	update(title, StatusProcessing, "AI 总结中...")
	summary, err := p.summarizer.Summarize(ctx, title, transcript)
	if err != nil {
		p.logger.Error("summarization failed", slog.String("bvid", bvid), slog.Any("error", err))
		update(title, StatusFailed, err.Error())
		return StatusFailed
	}

	rec := storage.Record{
		Title:       title,
		BVID:        bvid,
		URL:         watchURL,
		Duration:    info.Duration,
		Summary:     summary.Text,
		Category:    req.Category,
		AuthorName:  info.Owner.Name,
		AuthorUID:   info.Owner.Mid,
		CoverURL:    info.Pic,
		HasSubtitle: hasSubtitle,
	}
	rel, err := p.sink.SaveSummary(rec)
	if err != nil {
		p.logger.Error("save failed", slog.String("bvid", bvid), slog.Any("error", err))
		update(title, StatusFailed, err.Error())
		return StatusFailed
	}
	p.recordInIndex(ctx, rec, rel)

	update(title, StatusSuccess, fmt.Sprintf("完成 (%.1fs)", summary.Elapsed.Seconds()))
	return StatusSuccess
}

// saveWithoutTranscript persists the placeholder record after both the
// subtitle and the fallback came up empty. This outcome is terminal and
// counted as processed, not as a failure.
func (p *Processor) saveWithoutTranscript(ctx context.Context, req Request, info bili.VideoInfo, watchURL string, update UpdateFunc) Status {
	rec := storage.Record{
		Title:       info.Title,
		BVID:        req.BVID,
		URL:         watchURL,
		Duration:    info.Duration,
		Summary:     noTranscriptNotice,
		Category:    req.Category,
		AuthorName:  info.Owner.Name,
		AuthorUID:   info.Owner.Mid,
		CoverURL:    info.Pic,
		HasSubtitle: false,
	}
	rel, err := p.sink.SaveSummary(rec)
	if err != nil {
		p.logger.Error("placeholder save failed", slog.String("bvid", req.BVID), slog.Any("error", err))
		update(info.Title, StatusFailed, err.Error())
		return StatusFailed
	}
	p.recordInIndex(ctx, rec, rel)
	update(info.Title, StatusNoSubtitle, "无字幕")
	return StatusNoSubtitle
}

func (p *Processor) recordInIndex(ctx context.Context, rec storage.Record, rel string) {
	if p.index == nil {
		return
	}
	err := p.index.Upsert(ctx, library.Record{
		BVID:         rec.BVID,
		Title:        rec.Title,
		Category:     rec.Category,
		RelativePath: rel,
		AuthorName:   rec.AuthorName,
		AuthorUID:    rec.AuthorUID,
		Duration:     rec.Duration,
		HasSubtitle:  rec.HasSubtitle,
	})
	if err != nil {
		p.logger.Warn("index update failed", slog.String("bvid", rec.BVID), slog.Any("error", err))
	}
}
