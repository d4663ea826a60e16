// Package planner decides the disposition and destination of every eligible
// file: migrated into the dated library, shunted into the duplicates tree, or
// quarantined for review when no capture date exists.
//
// The Arbiter is the run's dedup referee. It is seeded with every fingerprint
// the ledger already holds as migrated, collects per-fingerprint occurrence
// groups as dated files are registered, and guarantees at most one file per
// fingerprint is ever promoted to migrated. Canonical selection favors
// camera-produced names (configured prefixes) over app-generated ones,
// falling back to discovery order.
package planner
