package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// SafeCopy copies src into destDir under its base name without clobbering
// anything already there. On a name collision the stem gains a __N counter
// suffix (stem__1.ext, stem__2.ext, ...) until a free slot is found. The
// source's modification time is carried over. Returns the final path.
//
// The copy is not atomic across crashes; a partial file may remain if the
// process dies mid-write.
func SafeCopy(src, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create destination %s: %w", destDir, err)
	}

	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}

	base := filepath.Base(src)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	target := filepath.Join(destDir, base)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(target); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				break
			}
			return "", fmt.Errorf("stat target: %w", err)
		}
		target = filepath.Join(destDir, fmt.Sprintf("%s__%d%s", stem, counter, ext))
	}

	if err := CopyFileMode(src, target, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	if err := os.Chtimes(target, info.ModTime(), info.ModTime()); err != nil {
		return "", fmt.Errorf("preserve mtime: %w", err)
	}
	return target, nil
}
