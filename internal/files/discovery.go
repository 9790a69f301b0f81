package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"accidentscli/internal/config"
	apperrors "accidentscli/internal/errors"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Source is a configured yearly workbook resolved on disk
type Source struct {
	Year  int
	Sheet string
	File  FileInfo
}

// Discovery resolves workbook locations under a data directory
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(d.basePath, path)
}

// ResolveSources stats every configured workbook in order. The first
// missing workbook is returned as a SOURCE_NOT_FOUND error naming its year.
func (d *Discovery) ResolveSources(sources []config.SourceConfig) ([]Source, error) {
	resolved := make([]Source, 0, len(sources))
	for _, s := range sources {
		path := d.resolve(s.Path)
		info, err := os.Stat(path)
		if err != nil {
			return nil, apperrors.SourceNotFound(s.Year, path, err)
		}
		if info.IsDir() {
			return nil, apperrors.SourceNotFound(s.Year, path, fmt.Errorf("%s is a directory", path))
		}
		resolved = append(resolved, Source{
			Year:  s.Year,
			Sheet: s.Sheet,
			File: FileInfo{
				Path:    path,
				Name:    info.Name(),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			},
		})
	}
	return resolved, nil
}

// FindExcelFiles finds all Excel workbooks in the specified directory,
// skipping lock files left by open spreadsheets.
func (d *Discovery) FindExcelFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		lower := strings.ToLower(name)
		if strings.HasPrefix(name, "~$") {
			continue
		}
		if !strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".xlsm") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

var yearPattern = regexp.MustCompile(`(?:^|[^0-9])((?:19|20)[0-9]{2})(?:[^0-9]|$)`)

// YearFromName extracts a four-digit year from a workbook name such as
// Acidentes_DER_2025.xlsx.
func YearFromName(name string) (int, bool) {
	m := yearPattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// UnconfiguredWorkbooks lists workbooks in dir whose name carries a year
// with no configured source. They usually mean a new year was dropped in
// the data directory without a matching configuration entry.
func (d *Discovery) UnconfiguredWorkbooks(dir string, sources []config.SourceConfig) ([]FileInfo, error) {
	files, err := d.FindExcelFiles(dir)
	if err != nil {
		return nil, err
	}

	configured := make(map[int]bool, len(sources))
	for _, s := range sources {
		configured[s.Year] = true
	}

	var out []FileInfo
	for _, f := range files {
		if year, ok := YearFromName(f.Name); ok && !configured[year] {
			out = append(out, f)
		}
	}
	return out, nil
}
