// Package preflight validates the environment before a sorting run touches
// anything: directory permissions, destination free space, and the optional
// exiftool binary.
package preflight
