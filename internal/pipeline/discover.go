package pipeline

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"mediasort/internal/config"
	"mediasort/internal/logging"
)

type sourceFile struct {
	path string
	size int64
}

// discover walks the source tree and returns the eligible files in
// deterministic lexical order, plus the count of files skipped by the
// extension allow-list. Unreadable entries below the root are logged and
// skipped; an unreadable root fails the walk.
func discover(cfg *config.Config, logger *slog.Logger) ([]sourceFile, int, error) {
	var (
		files   []sourceFile
		ignored int
	)

	root := cfg.Paths.SourceDir
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			logger.Warn("skipping unreadable entry", logging.String("path", path), logging.Error(walkErr))
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if !cfg.AllowsExtension(filepath.Ext(path)) {
			ignored++
			logger.Info("ignored unsupported file",
				logging.String("path", path),
				logging.String("extension", filepath.Ext(path)),
			)
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			logger.Warn("skipping unreadable entry", logging.String("path", path), logging.Error(err))
			return nil
		}
		files = append(files, sourceFile{path: path, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan source directory: %w", err)
	}
	return files, ignored, nil
}
