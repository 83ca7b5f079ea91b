// Package pipeline runs one video through the summarization state machine:
// metadata, existence check, subtitle resolution with a speech-recognition
// fallback, summarization, and persistence. Failures terminate the item,
// never the batch.
package pipeline
