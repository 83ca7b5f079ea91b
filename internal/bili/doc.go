// Package bili implements the authenticated Bilibili REST client used by
// the summarization pipeline: envelope unwrapping, cookie injection, and
// the typed endpoints for video metadata, pages, player info, playback
// descriptors, user listings, and favorites.
//
// The client performs no retries; retry behavior is a pipeline-level
// policy because different calls need different semantics.
package bili
