// Package ai talks to an Anthropic-compatible messages endpoint to turn a
// video transcript into structured notes, retrying rate-limited calls with
// exponential backoff.
package ai
