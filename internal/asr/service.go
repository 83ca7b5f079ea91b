package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bilisum/internal/bili"
	"bilisum/internal/services"
)

// Streams is the slice of the API client the fallback needs.
type Streams interface {
	Pages(ctx context.Context, bvid string, cred *bili.Credential) ([]bili.VideoPage, error)
	AudioStreamURL(ctx context.Context, bvid string, cid int64, cred *bili.Credential) (string, error)
	Download(ctx context.Context, rawURL string, cred *bili.Credential) ([]byte, error)
}

// HTTPDoer abstracts the transcription endpoint calls for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config tunes the transcription fallback.
type Config struct {
	// BaseURL is the speech-recognition API root; shares the AI endpoint.
	BaseURL string
	// AuthToken authenticates against the endpoint.
	AuthToken string
	// Model names the recognition model sent with each segment.
	Model string
	// SegmentSeconds is the split length. Zero means 60.
	SegmentSeconds int
	// RequestTimeout bounds each segment upload. Zero means 120s.
	RequestTimeout time.Duration
	// FFmpegBinary and FFprobeBinary locate the media tools.
	FFmpegBinary  string
	FFprobeBinary string
	// TempDir hosts per-run scratch directories. Empty means os.TempDir.
	TempDir string
}

// Service downloads a video's audio and transcribes it segment by segment.
type Service struct {
	streams Streams
	cfg     Config
	http    HTTPDoer
	logger  *slog.Logger

	probe   func(ctx context.Context, binary, path string) (float64, error)
	extract func(ctx context.Context, binary, source string, startSec, durationSec int, dest string) error
}

// Option adjusts service construction.
type Option func(*Service)

// WithHTTPClient replaces the transcription endpoint client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(s *Service) {
		s.http = doer
	}
}

// WithMediaTools replaces the probe and extraction helpers, letting tests
// run without ffmpeg installed.
func WithMediaTools(
	probe func(ctx context.Context, binary, path string) (float64, error),
	extract func(ctx context.Context, binary, source string, startSec, durationSec int, dest string) error,
) Option {
	return func(s *Service) {
		s.probe = probe
		s.extract = extract
	}
}

// NewService builds the transcription fallback.
func NewService(streams Streams, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	if cfg.SegmentSeconds <= 0 {
		cfg.SegmentSeconds = 60
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 120 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "asr"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		streams: streams,
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger,
		probe:   probeDuration,
		extract: extractSegment,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transcribe pulls the video's audio stream and returns the concatenated
// segment transcripts, separated by newlines. Empty segment results are
// dropped.
func (s *Service) Transcribe(ctx context.Context, bvid string, cred *bili.Credential) (string, error) {
	if strings.TrimSpace(s.cfg.BaseURL) == "" || strings.TrimSpace(s.cfg.AuthToken) == "" {
		return "", services.Wrap(services.ErrConfiguration, "asr", bvid, "speech endpoint or token not configured", nil)
	}

	pages, err := s.streams.Pages(ctx, bvid, cred)
	if err != nil {
		return "", services.Wrap(services.ErrTranscription, "asr", bvid, "fetch pages", err)
	}
	if len(pages) == 0 {
		return "", services.Wrap(services.ErrTranscription, "asr", bvid, "video has no pages", nil)
	}

	audioURL, err := s.streams.AudioStreamURL(ctx, bvid, pages[0].CID, cred)
	if err != nil {
		return "", services.Wrap(services.ErrTranscription, "asr", bvid, "resolve audio stream", err)
	}
	audio, err := s.streams.Download(ctx, audioURL, cred)
	if err != nil {
		return "", services.Wrap(services.ErrTranscription, "asr", bvid, "download audio", err)
	}

	workDir := filepath.Join(s.tempRoot(), "bilisum-asr-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrTranscription, "asr", bvid, "create scratch dir", err)
	}
	defer os.RemoveAll(workDir)

	audioPath := filepath.Join(workDir, bvid+".m4a")
	if err := os.WriteFile(audioPath, audio, 0o644); err != nil {
		return "", services.Wrap(services.ErrTranscription, "asr", bvid, "write audio file", err)
	}

	duration, err := s.probe(ctx, s.cfg.FFprobeBinary, audioPath)
	if err != nil {
		return "", services.Wrap(services.ErrTranscription, "asr", bvid, "probe audio duration", err)
	}

	var transcripts []string
	segment := 0
	for offset := 0; float64(offset) < duration; offset += s.cfg.SegmentSeconds {
		segment++
		segmentPath := filepath.Join(workDir, fmt.Sprintf("%s_seg%d.m4a", bvid, offset))
		if err := s.extract(ctx, s.cfg.FFmpegBinary, audioPath, offset, s.cfg.SegmentSeconds, segmentPath); err != nil {
			return "", services.Wrap(services.ErrTranscription, "asr", bvid, fmt.Sprintf("extract segment %d", segment), err)
		}
		data, err := os.ReadFile(segmentPath)
		if err != nil {
			return "", services.Wrap(services.ErrTranscription, "asr", bvid, fmt.Sprintf("read segment %d", segment), err)
		}
		text, err := s.transcribeSegment(ctx, data)
		if err != nil {
			return "", services.Wrap(services.ErrTranscription, "asr", bvid, fmt.Sprintf("transcribe segment %d", segment), err)
		}
		if text != "" {
			transcripts = append(transcripts, text)
		}
	}

	s.logger.Info("audio transcribed",
		slog.String("bvid", bvid),
		slog.Int("segments", segment),
		slog.Int("kept", len(transcripts)))
	return strings.Join(transcripts, "\n"), nil
}

func (s *Service) tempRoot() string {
	if s.cfg.TempDir != "" {
		return s.cfg.TempDir
	}
	return os.TempDir()
}

// transcribeSegment uploads one audio segment as multipart form data and
// returns the recognized text.
func (s *Service) transcribeSegment(ctx context.Context, audio []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Disposition", `form-data; name="file"; filename="audio.m4a"`)
	fileHeader.Set("Content-Type", "audio/m4a")
	filePart, err := writer.CreatePart(fileHeader)
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := filePart.Write(audio); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if err := writer.WriteField("model", s.cfg.Model); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, transcriptionEndpoint(s.cfg.BaseURL), &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.cfg.AuthToken)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload segment: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &bili.HTTPError{Status: resp.StatusCode, Body: string(payload)}
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return result.Text, nil
}

// transcriptionEndpoint builds the segment upload URL. A base that already
// ends in /v1 is not doubled up.
func transcriptionEndpoint(baseURL string) string {
	base := strings.Trim(strings.TrimSpace(baseURL), "/")
	base = strings.TrimSuffix(base, "/v1")
	return base + "/v1/audio/transcriptions"
}
