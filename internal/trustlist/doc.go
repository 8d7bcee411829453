// Package trustlist maintains the curated trusted-accounts set.
//
// The Cache refreshes the set from a remote newline-delimited list on a TTL
// basis and persists it wholesale, so restarts do not require a network
// round-trip. Refresh failures are non-fatal: readers keep the last-known-good
// set. The snapshot is replaced by pointer swap, never mutated in place.
package trustlist
