package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations for a sorting run.
type Paths struct {
	SourceDir  string `toml:"source_dir"`
	DestDir    string `toml:"dest_dir"`
	LogDir     string `toml:"log_dir"`
	LedgerPath string `toml:"ledger_path"`
}

// Scan controls which files are eligible for processing.
type Scan struct {
	Extensions      []string `toml:"extensions"`
	PhotoExtensions []string `toml:"photo_extensions"`
}

// Arbitration configures canonical-copy selection among identical files.
type Arbitration struct {
	PreferredPrefixes []string `toml:"preferred_prefixes"`
}

// Exiftool configures the external metadata extraction tool.
type Exiftool struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains tuning knobs for the run coordinator.
type Workflow struct {
	HashWorkers int `toml:"hash_workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mediasort.
//
// Configuration sections by subsystem:
//   - Paths: source tree, destination library, log directory, ledger location
//   - Scan: eligible extensions and the photo/video split
//   - Arbitration: preferred filename prefixes for canonical-copy selection
//   - Exiftool: external capture-date extraction tool
//   - Workflow: hashing concurrency
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Scan        Scan        `toml:"scan"`
	Arbitration Arbitration `toml:"arbitration"`
	Exiftool    Exiftool    `toml:"exiftool"`
	Workflow    Workflow    `toml:"workflow"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mediasort/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediasort.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run needs before it starts:
// the log directory and the parent of the ledger database.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if ledgerDir := filepath.Dir(c.Paths.LedgerPath); ledgerDir != "" && ledgerDir != "." {
		dirs = append(dirs, ledgerDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogPath returns the location of the run log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "mediasort.log")
}

// LockPath returns the location of the single-writer lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "mediasort.lock")
}

// ReviewDir returns the quarantine directory for files without a resolvable date.
func (c *Config) ReviewDir() string {
	return filepath.Join(c.Paths.DestDir, "ToReview")
}

// AllowsExtension reports whether a file extension is in the scan allow-list.
// The comparison is case-insensitive.
func (c *Config) AllowsExtension(ext string) bool {
	return containsFold(c.Scan.Extensions, ext)
}

// IsPhotoExtension reports whether an extension maps to the PHOTO media kind.
func (c *Config) IsPhotoExtension(ext string) bool {
	return containsFold(c.Scan.PhotoExtensions, ext)
}

func containsFold(values []string, candidate string) bool {
	for _, value := range values {
		if strings.EqualFold(value, candidate) {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
