package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every location a run reads from or writes to. All fields
// are absolute once built by NewPaths.
type Paths struct {
	BaseDir    string
	DataDir    string
	ReportsDir string
	TablesDir  string
	LogsDir    string

	// Well-known files
	ConsolidatedCSV string
	StatsJSON       string
	ReportBundle    string
}

// NewPaths resolves the configured directories. Relative entries are joined
// to BaseDir, or to the working directory when BaseDir is empty.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory %s: %w", base, err)
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	dataDir := resolve(cfg.DataDir)
	reportsDir := resolve(cfg.ReportsDir)

	consolidated := cfg.ConsolidatedCSV
	if !filepath.IsAbs(consolidated) {
		consolidated = filepath.Join(dataDir, consolidated)
	}

	return &Paths{
		BaseDir:         base,
		DataDir:         dataDir,
		ReportsDir:      reportsDir,
		TablesDir:       filepath.Join(reportsDir, TablesSubdir),
		LogsDir:         resolve(cfg.LogsDir),
		ConsolidatedCSV: consolidated,
		StatsJSON:       filepath.Join(reportsDir, StatsFile),
		ReportBundle:    filepath.Join(reportsDir, ReportBundleFile),
	}, nil
}

// EnsureDirectories creates all output directories if they don't exist.
// The data directory holds inputs and is expected to exist already.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.ReportsDir,
		p.TablesDir,
		p.LogsDir,
		filepath.Dir(p.ConsolidatedCSV),
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetDataPath resolves a source workbook path against the data directory
func (p *Paths) GetDataPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(p.DataDir, filename)
}

// GetReportPath returns the full path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetTablePath returns the full path for one metric table CSV
func (p *Paths) GetTablePath(name string) string {
	return filepath.Join(p.TablesDir, name+".csv")
}

// GetLogPath returns the full path for a log file
func (p *Paths) GetLogPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LogPathResolution logs the resolved locations for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("reports", p.ReportsDir),
			slog.String("tables", p.TablesDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("report_files",
			slog.String("consolidated_csv", p.ConsolidatedCSV),
			slog.String("stats_json", p.StatsJSON),
			slog.String("report_bundle", p.ReportBundle),
		))
}
