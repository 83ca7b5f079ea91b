// Package subtitle resolves the best caption track for a video and turns
// it into a plain transcript. Auto-generated tracks sometimes publish with
// an empty download URL while the platform finishes rendering them, so the
// resolver polls the player endpoint a few times before giving up.
package subtitle
