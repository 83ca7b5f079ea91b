// Package asr transcribes a video's audio track when no subtitle exists.
// It pulls the dash audio stream, splits it into fixed-length segments with
// ffmpeg, and sends each segment to a speech-recognition endpoint.
package asr
