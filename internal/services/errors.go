package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks failures caused by missing or invalid
	// configuration (unset endpoint, empty auth token). Never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrSigning marks failures to obtain the request-signing key material.
	ErrSigning = errors.New("signing unavailable")
	// ErrValidation marks malformed caller input (empty id list, bad URL).
	ErrValidation = errors.New("validation error")
	// ErrRateLimited marks an upstream 429 that may still be retried.
	ErrRateLimited = errors.New("rate limited")
	// ErrRateLimitExhausted marks a 429 that survived every backoff attempt.
	ErrRateLimitExhausted = errors.New("rate limit retries exhausted")
	// ErrSubtitleUnavailable marks the normal no-subtitle outcome: no
	// tracks at all, or a track URL that never warmed up.
	ErrSubtitleUnavailable = errors.New("subtitle unavailable")
	// ErrTranscription marks a speech-recognition fallback failure.
	ErrTranscription = errors.New("transcription failed")
	// ErrTransient marks failures with no better classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later outcome classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
