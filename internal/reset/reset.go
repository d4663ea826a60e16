package reset

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mediasort/internal/config"
	"mediasort/internal/logging"
)

// destSubtrees are the directories mediasort manages under the destination
// root. Anything else under the destination is left alone.
var destSubtrees = []string{
	"PHOTO",
	"VIDEO",
	"PHOTO_DUPLICATES",
	"VIDEO_DUPLICATES",
	"ToReview",
}

// Run removes the ledger database, the run log, and every managed
// destination subtree, returning the paths actually removed. Paths that do
// not exist are skipped silently so reset stays safe to repeat.
func Run(cfg *config.Config, logger *slog.Logger) ([]string, error) {
	log := logging.NewComponentLogger(logger, "reset")

	targets := []string{
		cfg.Paths.LedgerPath,
		cfg.Paths.LedgerPath + "-wal",
		cfg.Paths.LedgerPath + "-shm",
		cfg.LogPath(),
	}
	for _, subtree := range destSubtrees {
		targets = append(targets, filepath.Join(cfg.Paths.DestDir, subtree))
	}

	var removed []string
	for _, target := range targets {
		if _, err := os.Stat(target); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("inspect %s: %w", target, err)
		}
		if err := os.RemoveAll(target); err != nil {
			return removed, fmt.Errorf("remove %s: %w", target, err)
		}
		log.Info("removed", logging.String("path", target))
		removed = append(removed, target)
	}

	log.Info("reset complete", logging.Int("removed", len(removed)))
	return removed, nil
}
