// Package storage persists finished summaries as markdown files with a
// machine-readable meta.json sidecar, plus optional timed-caption
// artifacts. Videos whose notes came from speech recognition rather than a
// published subtitle land in a no_subtitle subdirectory.
package storage
