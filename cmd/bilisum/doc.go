// Command bilisum summarizes Bilibili videos in batches: it fetches
// metadata and subtitles (with a speech-recognition fallback), asks an
// Anthropic-compatible endpoint for a summary, and files the result as
// markdown with a metadata sidecar.
package main
