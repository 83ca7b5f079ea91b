// Package batch runs pipeline items through a bounded worker pool. The
// queue accepts new submissions while a run is active; late arrivals join
// the live run instead of starting a second one.
package batch
