// Package files locates the source workbook on disk. Earlier revisions of
// the dashboard probed a list of hardcoded absolute paths; here the candidate
// directories come from configuration and the core only ever receives an
// already-resolved path.
package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// WorkbookInfo describes one discovered workbook file.
type WorkbookInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery probes an ordered list of candidate directories for workbooks.
// An optional pinned path short-circuits the probe.
type Discovery struct {
	logger *slog.Logger
	pinned string
	dirs   []string
}

// NewDiscovery creates a discovery over the given candidate directories.
// When pinned is non-empty, that exact file is used and the directories are
// only consulted if it is missing.
func NewDiscovery(logger *slog.Logger, pinned string, dirs []string) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		logger: logger.With(slog.String("component", "discovery")),
		pinned: pinned,
		dirs:   dirs,
	}
}

// FindWorkbooks lists every Excel workbook in one directory, newest first.
func (d *Discovery) FindWorkbooks(dir string) ([]WorkbookInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []WorkbookInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".xls") {
			continue
		}
		// Excel lock files start with ~$ and are not workbooks.
		if strings.HasPrefix(name, "~$") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, WorkbookInfo{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Resolve returns the path of the workbook to load: the newest workbook in
// the first candidate directory that holds one. A missing source is not an
// error here; ok is false and the caller reports the "no data" outcome.
func (d *Discovery) Resolve() (WorkbookInfo, bool) {
	if d.pinned != "" {
		if info, err := os.Stat(d.pinned); err == nil && !info.IsDir() {
			return WorkbookInfo{
				Path:    d.pinned,
				Name:    filepath.Base(d.pinned),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			}, true
		}
		d.logger.Warn("pinned workbook missing, probing directories",
			slog.String("path", d.pinned))
	}
	for _, dir := range d.dirs {
		files, err := d.FindWorkbooks(dir)
		if err != nil {
			d.logger.Debug("candidate directory not readable",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			continue
		}
		if len(files) == 0 {
			continue
		}
		d.logger.Info("workbook resolved",
			slog.String("path", files[0].Path),
			slog.Int("candidates", len(files)))
		return files[0], true
	}
	return WorkbookInfo{}, false
}
