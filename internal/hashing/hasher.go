package hashing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
)

// readBlockSize is the buffer used when streaming file contents.
const readBlockSize = 64 * 1024

// Hash streams the file at path and returns its hex-encoded SHA-256 digest.
func Hash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	buf := make([]byte, readBlockSize)
	if _, err := io.CopyBuffer(hasher, file, buf); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

type result struct {
	path   string
	digest string
	err    error
}

// HashAll fingerprints every path using a bounded worker pool and blocks
// until all workers finish. Digests come back keyed by path so callers can
// process files in their own order. Per-file failures land in the second map
// and never abort the batch; a canceled context records ctx.Err() for every
// remaining path.
func HashAll(ctx context.Context, paths []string, workers int) (map[string]string, map[string]error) {
	digests := make(map[string]string, len(paths))
	failures := make(map[string]error)
	if len(paths) == 0 {
		return digests, failures
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan string)
	results := make(chan result, len(paths))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for path := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{path: path, err: err}
					continue
				}
				digest, err := Hash(path)
				results <- result{path: path, digest: digest, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			jobs <- path
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.err != nil {
			failures[res.path] = res.err
			continue
		}
		digests[res.path] = res.digest
	}
	return digests, failures
}
