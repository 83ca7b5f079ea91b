package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"bilisum/internal/ai"
	"bilisum/internal/asr"
	"bilisum/internal/batch"
	"bilisum/internal/bili"
	"bilisum/internal/bili/wbi"
	"bilisum/internal/config"
	"bilisum/internal/library"
	"bilisum/internal/logging"
	"bilisum/internal/pipeline"
	"bilisum/internal/storage"
	"bilisum/internal/subtitle"
)

// serviceSet is the wired processing graph behind a single command
// invocation. Close releases the library database handle.
type serviceSet struct {
	client *bili.Client
	store  *storage.Store
	index  *library.Store
	orch   *batch.Orchestrator
	logger *slog.Logger
}

func buildServices(ctx *commandContext) (*serviceSet, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}

	client := bili.NewClient(bili.Config{
		BaseURL:           cfg.API.BaseURL,
		RequestTimeout:    time.Duration(cfg.API.RequestTimeout) * time.Second,
		ResourceTimeout:   time.Duration(cfg.API.ResourceTimeout) * time.Second,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
	})
	client.UseSigner(wbi.NewSigner(client))

	resolver := subtitle.NewResolver(client, subtitle.Config{
		PreferredLanguage: cfg.Pipeline.PreferredLanguage,
		Attempts:          cfg.Pipeline.SubtitleRetries,
		Wait:              time.Duration(cfg.Pipeline.SubtitleRetryWait) * time.Second,
	}, logging.WithComponent(logger, "subtitle"))

	transcriber := asr.NewService(client, asr.Config{
		BaseURL:        cfg.AI.BaseURL,
		AuthToken:      cfg.AI.AuthToken,
		Model:          cfg.ASR.Model,
		SegmentSeconds: cfg.ASR.SegmentSeconds,
		RequestTimeout: time.Duration(cfg.ASR.RequestTimeout) * time.Second,
		FFmpegBinary:   cfg.ASR.FFmpegBinary,
		FFprobeBinary:  cfg.ASR.FFprobeBinary,
		TempDir:        cfg.Paths.TempDir,
	}, logging.WithComponent(logger, "asr"))

	summarizer := ai.NewClient(aiConfig(cfg), logging.WithComponent(logger, "ai"))

	store := storage.NewStore(cfg.Paths.OutputDir, cfg.Paths.CaptionsDir, logging.WithComponent(logger, "storage"))

	index, err := library.Open(cfg.Paths.LibraryDB)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}

	processor := pipeline.NewProcessor(client, resolver, transcriber, summarizer, store, index, logging.WithComponent(logger, "pipeline"))
	orch := batch.New(processor, batch.Config{
		Concurrency:   cfg.Pipeline.Concurrency,
		CourtesyDelay: time.Duration(cfg.Pipeline.CourtesyDelayMs) * time.Millisecond,
	}, logging.WithComponent(logger, "batch"))

	return &serviceSet{
		client: client,
		store:  store,
		index:  index,
		orch:   orch,
		logger: logger,
	}, nil
}

func (s *serviceSet) Close() {
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			s.logger.Warn("close library", slog.String("error", err.Error()))
		}
	}
}

func aiConfig(cfg *config.Config) ai.Config {
	return ai.Config{
		BaseURL:            cfg.AI.BaseURL,
		AuthToken:          cfg.AI.AuthToken,
		Model:              cfg.AI.Model,
		MaxTokens:          cfg.AI.MaxTokens,
		MaxRetries:         cfg.AI.MaxRetries,
		RetryBaseWait:      time.Duration(cfg.AI.RetryBaseWait) * time.Second,
		RequestTimeout:     time.Duration(cfg.AI.RequestTimeout) * time.Second,
		MaxTranscriptChars: cfg.AI.MaxTranscriptChars,
	}
}

// acquireRunLock takes the per-output-root lock that keeps concurrent
// bilisum invocations from interleaving writes. The caller must Unlock.
func acquireRunLock(cfg *config.Config) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(cfg.Paths.OutputDir, ".bilisum.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another bilisum run is already writing to %s", cfg.Paths.OutputDir)
	}
	return lock, nil
}
