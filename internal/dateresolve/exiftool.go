package dateresolve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

var stampPattern = regexp.MustCompile(`: (\d{8})`)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
}

// Option configures the exiftool extractor.
type Option func(*ExiftoolExtractor)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(e *ExiftoolExtractor) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// ExiftoolExtractor queries exiftool for a file's original capture date.
type ExiftoolExtractor struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// NewExiftool constructs an extractor shelling out to the given binary.
// timeoutSeconds <= 0 disables the per-invocation timeout.
func NewExiftool(binary string, timeoutSeconds int, opts ...Option) (*ExiftoolExtractor, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("exiftool binary required")
	}
	extractor := &ExiftoolExtractor{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(extractor)
	}
	return extractor, nil
}

// ExtractDate runs exiftool against path and parses the YYYYMMDD stamp from
// its output. Every failure mode (spawn error, non-zero exit, unparseable
// output) returns an error; callers treat all of them as "no result".
func (e *ExiftoolExtractor) ExtractDate(ctx context.Context, path string) (ResolvedDate, error) {
	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	stdout, err := e.exec.Run(runCtx, e.binary, []string{"-DateTimeOriginal", "-d", "%Y%m%d", path})
	if err != nil {
		return ResolvedDate{}, fmt.Errorf("exiftool: %w", err)
	}

	match := stampPattern.FindStringSubmatch(stdout)
	if match == nil {
		return ResolvedDate{}, fmt.Errorf("exiftool: no date stamp in output for %s", path)
	}
	return dateFromStamp(match[1]), nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}
