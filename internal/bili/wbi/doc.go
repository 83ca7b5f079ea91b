// Package wbi computes the request signature certain Bilibili endpoints
// demand. The signing key is derived from two fragments served by the
// navigation endpoint through a fixed permutation table; the derived key
// is cached process-wide for one hour with single-flight refresh.
//
// The permutation table and the value filter set mirror an undocumented
// external contract. Treat them as fixed data; breakage is detected by
// the literal test vectors, not derived from first principles.
package wbi
