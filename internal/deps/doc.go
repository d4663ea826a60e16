// Package deps reports the availability of external binaries mediasort
// shells out to, so operators see missing tools before a run instead of as
// per-file warnings in the middle of one.
package deps
