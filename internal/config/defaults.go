package config

const (
	defaultOutputDir   = "~/bilisum/summary"
	defaultCaptionsDir = "~/bilisum/captions"
	defaultLogDir      = "~/.local/share/bilisum/logs"
	defaultLibraryDB   = "~/.local/share/bilisum/library.db"

	defaultAPIBaseURL        = "https://api.bilibili.com"
	defaultRequestTimeout    = 30
	defaultResourceTimeout   = 120
	defaultRequestsPerSecond = 0

	defaultAIBaseURL          = "https://open.bigmodel.cn/api/anthropic"
	defaultAIModel            = "GLM-4-FlashX-250414"
	defaultAIMaxTokens        = 8192
	defaultAIMaxRetries       = 5
	defaultAIRetryBaseWait    = 2
	defaultAIRequestTimeout   = 120
	defaultMaxTranscriptChars = 30_000

	defaultASRModel          = "asr"
	defaultSegmentSeconds    = 60
	defaultASRRequestTimeout = 120
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"

	defaultConcurrency       = 12
	defaultCourtesyDelayMs   = 500
	defaultSubtitleRetries   = 3
	defaultSubtitleRetryWait = 2
	defaultPreferredLanguage = "zh"

	defaultLogLevel  = "info"
	defaultLogFormat = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:   defaultOutputDir,
			CaptionsDir: defaultCaptionsDir,
			LogDir:      defaultLogDir,
			LibraryDB:   defaultLibraryDB,
		},
		API: API{
			BaseURL:           defaultAPIBaseURL,
			RequestTimeout:    defaultRequestTimeout,
			ResourceTimeout:   defaultResourceTimeout,
			RequestsPerSecond: defaultRequestsPerSecond,
		},
		AI: AI{
			BaseURL:            defaultAIBaseURL,
			Model:              defaultAIModel,
			MaxTokens:          defaultAIMaxTokens,
			MaxRetries:         defaultAIMaxRetries,
			RetryBaseWait:      defaultAIRetryBaseWait,
			RequestTimeout:     defaultAIRequestTimeout,
			MaxTranscriptChars: defaultMaxTranscriptChars,
		},
		ASR: ASR{
			Model:          defaultASRModel,
			SegmentSeconds: defaultSegmentSeconds,
			RequestTimeout: defaultASRRequestTimeout,
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
		},
		Pipeline: Pipeline{
			Concurrency:       defaultConcurrency,
			CourtesyDelayMs:   defaultCourtesyDelayMs,
			SubtitleRetries:   defaultSubtitleRetries,
			SubtitleRetryWait: defaultSubtitleRetryWait,
			PreferredLanguage: defaultPreferredLanguage,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
