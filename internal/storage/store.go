package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"bilisum/internal/subtitle"
)

// noSubtitleDir separates speech-recognized and caption-less videos from
// those with a real subtitle track.
const noSubtitleDir = "no_subtitle"

// Record is one finished video ready to be written to disk.
type Record struct {
	Title       string
	BVID        string
	URL         string
	Duration    int
	Summary     string
	Category    string // "standalone", "favorites", "users/<uid>"
	AuthorName  string
	AuthorUID   int64
	CoverURL    string
	HasSubtitle bool
}

// Meta is the sidecar format written next to every markdown summary.
type Meta struct {
	Title       string `json:"title"`
	BVID        string `json:"bvid"`
	URL         string `json:"url"`
	Duration    int    `json:"duration"`
	AuthorName  string `json:"author_name"`
	AuthorUID   int64  `json:"author_uid"`
	CoverURL    string `json:"cover_url"`
	GeneratedAt string `json:"generated_at"`
}

// Store writes summaries and caption artifacts under two root directories.
type Store struct {
	summaryRoot string
	captionRoot string
	logger      *slog.Logger
	now         func() time.Time
}

// Option adjusts store construction.
type Option func(*Store)

// WithClock replaces the timestamp source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore builds a store rooted at the given directories.
func NewStore(summaryRoot, captionRoot string, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{
		summaryRoot: summaryRoot,
		captionRoot: captionRoot,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveSummary writes the markdown file and its meta.json sidecar, creating
// directories as needed, and returns the markdown path relative to the
// summary root.
func (s *Store) SaveSummary(rec Record) (string, error) {
	if rec.Title == "" || rec.BVID == "" {
		return "", errors.New("save summary: title and bvid required")
	}
	category := rec.Category
	if category == "" {
		category = "standalone"
	}
	subdir := category
	if !rec.HasSubtitle {
		subdir = filepath.Join(category, noSubtitleDir)
	}
	dir := filepath.Join(s.summaryRoot, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create summary dir: %w", err)
	}

	safeTitle := SanitizeFilename(rec.Title)
	generatedAt := s.now().Format("2006-01-02 15:04:05")

	mdPath := filepath.Join(dir, safeTitle+".md")
	if err := os.WriteFile(mdPath, []byte(s.renderMarkdown(rec, generatedAt)), 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}

	meta := Meta{
		Title:       rec.Title,
		BVID:        rec.BVID,
		URL:         rec.URL,
		Duration:    rec.Duration,
		AuthorName:  rec.AuthorName,
		AuthorUID:   rec.AuthorUID,
		CoverURL:    normalizeCover(rec.CoverURL),
		GeneratedAt: generatedAt,
	}
	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode meta: %w", err)
	}
	metaPath := filepath.Join(dir, safeTitle+".meta.json")
	if err := os.WriteFile(metaPath, payload, 0o644); err != nil {
		return "", fmt.Errorf("write meta: %w", err)
	}

	rel := filepath.Join(subdir, safeTitle+".md")
	s.logger.Info("summary saved",
		slog.String("bvid", rec.BVID),
		slog.String("path", rel),
		slog.Bool("has_subtitle", rec.HasSubtitle))
	return rel, nil
}

func (s *Store) renderMarkdown(rec Record, generatedAt string) string {
	authorLine := ""
	switch {
	case rec.AuthorName != "" && rec.AuthorUID > 0:
		authorLine = fmt.Sprintf("**作者**: [%s](https://space.bilibili.com/%d)\n", rec.AuthorName, rec.AuthorUID)
	case rec.AuthorName != "":
		authorLine = fmt.Sprintf("**作者**: %s\n", rec.AuthorName)
	}
	duration := fmt.Sprintf("%02d:%02d", rec.Duration/60, rec.Duration%60)

	return fmt.Sprintf(`# %s

**BV号**: %s
**视频链接**: https://www.bilibili.com/video/%s
%s**时长**: %s
**生成时间**: %s

---

## 📝 摘要

%s`, rec.Title, rec.BVID, rec.BVID, authorLine, duration, generatedAt, rec.Summary)
}

// SaveCaptions renders cues as an ASS script under the caption root. A
// cue-less call is a no-op.
func (s *Store) SaveCaptions(title, category string, cues []subtitle.Cue) (string, error) {
	if len(cues) == 0 {
		return "", nil
	}
	if category == "" {
		category = "standalone"
	}
	dir := filepath.Join(s.captionRoot, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create caption dir: %w", err)
	}
	rel := filepath.Join(category, SanitizeFilename(title)+".ass")
	path := filepath.Join(s.captionRoot, rel)
	if err := os.WriteFile(path, []byte(subtitle.ASSDocument(title, cues)), 0o644); err != nil {
		return "", fmt.Errorf("write captions: %w", err)
	}
	return rel, nil
}

// SummaryExists reports whether a summary for the title is already on disk
// in either the normal or the no-subtitle location.
func (s *Store) SummaryExists(title, category string) bool {
	_, ok := s.FindSummaryPath(title, category)
	return ok
}

// FindSummaryPath returns the relative path of an existing summary, trying
// the normal location first and the no-subtitle one second.
func (s *Store) FindSummaryPath(title, category string) (string, bool) {
	if category == "" {
		category = "standalone"
	}
	safeTitle := SanitizeFilename(title)
	for _, rel := range []string{
		filepath.Join(category, safeTitle+".md"),
		filepath.Join(category, noSubtitleDir, safeTitle+".md"),
	} {
		if _, err := os.Stat(filepath.Join(s.summaryRoot, rel)); err == nil {
			return rel, true
		}
	}
	return "", false
}

// ReadSummary returns the markdown content at a relative path.
func (s *Store) ReadSummary(rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.summaryRoot, rel))
	if err != nil {
		return "", fmt.Errorf("read summary: %w", err)
	}
	return string(data), nil
}

// DeleteSummary removes the markdown file and its sidecar. Missing files
// are not an error.
func (s *Store) DeleteSummary(rel string) error {
	mdPath := filepath.Join(s.summaryRoot, rel)
	if err := os.Remove(mdPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete summary: %w", err)
	}
	metaPath := mdPath[:len(mdPath)-len(filepath.Ext(mdPath))] + ".meta.json"
	if err := os.Remove(metaPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete meta: %w", err)
	}
	return nil
}

// SaveUserMeta records an uploader's display name next to their summaries
// so listings can label the uid directory.
func (s *Store) SaveUserMeta(uid int64, name string) error {
	dir := filepath.Join(s.summaryRoot, "users", strconv.FormatInt(uid, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create user dir: %w", err)
	}
	payload, err := json.Marshal(map[string]any{"name": name, "uid": uid})
	if err != nil {
		return fmt.Errorf("encode user meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".meta.json"), payload, 0o644); err != nil {
		return fmt.Errorf("write user meta: %w", err)
	}
	return nil
}

// UserDisplayName reads back the name stored by SaveUserMeta, falling back
// to the uid itself.
func (s *Store) UserDisplayName(uid string) string {
	data, err := os.ReadFile(filepath.Join(s.summaryRoot, "users", uid, ".meta.json"))
	if err != nil {
		return uid
	}
	var meta struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &meta); err != nil || meta.Name == "" {
		return uid
	}
	return meta.Name
}

func normalizeCover(cover string) string {
	if len(cover) >= 2 && cover[:2] == "//" {
		return "https:" + cover
	}
	return cover
}
