package config

const (
	defaultSourceDir      = "~/media/incoming"
	defaultDestDir        = "~/media/library"
	defaultLogDir         = "~/.local/share/mediasort/logs"
	defaultLedgerPath     = "~/.local/share/mediasort/ledger.db"
	defaultExiftoolBinary = "exiftool"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir:  defaultSourceDir,
			DestDir:    defaultDestDir,
			LogDir:     defaultLogDir,
			LedgerPath: defaultLedgerPath,
		},
		Scan: Scan{
			Extensions:      []string{".jpg", ".jpeg", ".png", ".gif", ".heic", ".mp4", ".mov", ".avi", ".mkv"},
			PhotoExtensions: []string{".jpg", ".jpeg", ".png", ".gif", ".heic"},
		},
		Arbitration: Arbitration{
			PreferredPrefixes: []string{"DCIM", "IMG", "DSC", "GOPR"},
		},
		Exiftool: Exiftool{
			Binary:         defaultExiftoolBinary,
			TimeoutSeconds: 0,
		},
		Workflow: Workflow{
			HashWorkers: 0,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
