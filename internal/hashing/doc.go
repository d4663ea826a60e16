// Package hashing computes content fingerprints for source files.
//
// Files with equal SHA-256 digests are treated as identical content by the
// placement planner. HashAll is the fork half of the pipeline's fork-join
// phase: it fans paths out over a bounded pool sized to the host's
// parallelism and joins before any placement decision runs, so phase two
// never observes a missing digest.
package hashing
