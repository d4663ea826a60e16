// Package dateresolve derives a (year, month, day-stamp) capture date for a
// media file.
//
// Resolution runs in strict priority order: an external exiftool query for
// DateTimeOriginal, then a date-like substring in the file's base name, then
// "absent". Exiftool failures of any kind (missing binary, non-zero exit,
// unparseable output) are logged and collapse to a fallthrough rather than
// propagating, so an environment without exiftool degrades to filename
// matching instead of failing the run.
package dateresolve
