// Package retry provides the shared retry policy used by the subtitle
// warm-up loop and the summarizer rate-limit backoff. A Policy bundles the
// attempt ceiling, the backoff schedule, and the retryable-error predicate
// so both call sites run the same loop.
package retry
