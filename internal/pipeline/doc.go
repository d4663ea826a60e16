// Package pipeline coordinates a full sorting run: source discovery,
// destination capacity pre-flight, concurrent content hashing, strictly
// sequential placement, and the closing ledger validation pass.
package pipeline
