// Package services defines the shared error vocabulary used by the
// pipeline and the remote-service clients. Stage code wraps failures with
// one of the sentinel markers so callers can classify outcomes without
// inspecting message strings.
package services
