package subtitle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"bilisum/internal/bili"
	"bilisum/internal/retry"
	"bilisum/internal/services"
)

// Cue is one timed caption line.
type Cue struct {
	From    float64 `json:"from"`
	To      float64 `json:"to"`
	Content string  `json:"content"`
}

type document struct {
	Body []Cue `json:"body"`
}

// Result is a successfully resolved transcript.
type Result struct {
	// Transcript is the cue texts joined by newlines.
	Transcript string
	// Cues preserves the timed lines for caption artifacts.
	Cues []Cue
	// Language is the code of the track the transcript came from.
	Language string
	// CID is the content id of the page the track belongs to.
	CID int64
}

// Catalog is the slice of the API client the resolver needs.
type Catalog interface {
	Pages(ctx context.Context, bvid string, cred *bili.Credential) ([]bili.VideoPage, error)
	PlayerInfo(ctx context.Context, bvid string, cid int64, cred *bili.Credential) (bili.PlayerInfo, error)
	DownloadJSON(ctx context.Context, rawURL string, cred *bili.Credential, out any) error
}

// Config tunes track selection and the warm-up retry loop.
type Config struct {
	// PreferredLanguage is matched as a substring of the track language
	// code, case-insensitively. Empty means "zh".
	PreferredLanguage string
	// Attempts is the total number of player-info polls while the chosen
	// track's URL is empty. Zero means 3.
	Attempts int
	// Wait is the delay between polls. Zero means 2s.
	Wait time.Duration
}

// Resolver picks and downloads one caption track per video.
type Resolver struct {
	catalog Catalog
	cfg     Config
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option adjusts resolver construction.
type Option func(*Resolver)

// WithSleep replaces the inter-poll wait, letting tests run without delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Resolver) {
		r.sleep = sleep
	}
}

// NewResolver builds a resolver around the given catalog.
func NewResolver(catalog Catalog, cfg Config, logger *slog.Logger, opts ...Option) *Resolver {
	if cfg.PreferredLanguage == "" {
		cfg.PreferredLanguage = "zh"
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Wait <= 0 {
		cfg.Wait = 2 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Resolver{catalog: catalog, cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// errCaptionNotReady signals a selected track whose URL has not published
// yet. Worth polling again; never leaves this package.
var errCaptionNotReady = errors.New("caption url not ready")

// Resolve finds the best track for the video's first page and returns its
// transcript. The no-subtitle outcome is reported as
// services.ErrSubtitleUnavailable so callers can route to a fallback.
func (r *Resolver) Resolve(ctx context.Context, bvid string, cred *bili.Credential) (Result, error) {
	pages, err := r.catalog.Pages(ctx, bvid, cred)
	if err != nil {
		return Result{}, fmt.Errorf("resolve subtitle for %s: %w", bvid, err)
	}
	if len(pages) == 0 {
		return Result{}, services.Wrap(services.ErrSubtitleUnavailable, "subtitle", bvid, "video has no pages", nil)
	}
	cid := pages[0].CID

	policy := retry.Policy{
		MaxAttempts: r.cfg.Attempts,
		Delay:       retry.Fixed(r.cfg.Wait),
		Retryable: func(err error) bool {
			return errors.Is(err, errCaptionNotReady)
		},
		Sleep: r.sleep,
	}
	track, err := retry.Do(ctx, policy, func(ctx context.Context) (bili.SubtitleTrack, error) {
		return r.selectTrack(ctx, bvid, cid, cred)
	})
	if errors.Is(err, errCaptionNotReady) {
		r.logger.Warn("caption url never published",
			slog.String("bvid", bvid),
			slog.Int("attempts", r.cfg.Attempts))
		return Result{}, services.Wrap(services.ErrSubtitleUnavailable, "subtitle", bvid, "track url empty after warm-up", nil)
	}
	if err != nil {
		return Result{}, err
	}

	var doc document
	if err := r.catalog.DownloadJSON(ctx, track.DownloadURL(), cred, &doc); err != nil {
		return Result{}, fmt.Errorf("download subtitle for %s: %w", bvid, err)
	}
	if len(doc.Body) == 0 {
		return Result{}, services.Wrap(services.ErrSubtitleUnavailable, "subtitle", bvid, "subtitle body empty", nil)
	}

	lines := make([]string, 0, len(doc.Body))
	for _, cue := range doc.Body {
		lines = append(lines, cue.Content)
	}
	transcript := strings.Join(lines, "\n")
	r.logger.Info("subtitle resolved",
		slog.String("bvid", bvid),
		slog.String("language", track.Lan),
		slog.Int("cues", len(doc.Body)))
	return Result{
		Transcript: transcript,
		Cues:       doc.Body,
		Language:   track.Lan,
		CID:        cid,
	}, nil
}

// selectTrack fetches the current track list and applies the language
// preference. A missing track list ends resolution immediately; a chosen
// track with an empty URL asks the retry loop for another poll.
func (r *Resolver) selectTrack(ctx context.Context, bvid string, cid int64, cred *bili.Credential) (bili.SubtitleTrack, error) {
	info, err := r.catalog.PlayerInfo(ctx, bvid, cid, cred)
	if err != nil {
		return bili.SubtitleTrack{}, fmt.Errorf("player info for %s: %w", bvid, err)
	}
	// player/v2 omits the subtitle object entirely for many videos.
	if info.Subtitle == nil {
		return bili.SubtitleTrack{}, services.Wrap(services.ErrSubtitleUnavailable, "subtitle", bvid, "no subtitle tracks", nil)
	}
	tracks := info.Subtitle.Subtitles
	if len(tracks) == 0 {
		return bili.SubtitleTrack{}, services.Wrap(services.ErrSubtitleUnavailable, "subtitle", bvid, "no subtitle tracks", nil)
	}

	chosen := tracks[0]
	marker := strings.ToLower(r.cfg.PreferredLanguage)
	for _, track := range tracks {
		if strings.Contains(strings.ToLower(track.Lan), marker) {
			chosen = track
			break
		}
	}
	if chosen.DownloadURL() == "" {
		return bili.SubtitleTrack{}, fmt.Errorf("track %s for %s: %w", chosen.Lan, bvid, errCaptionNotReady)
	}
	return chosen, nil
}
