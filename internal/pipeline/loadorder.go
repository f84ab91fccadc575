package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/mergedlands/internal/config"
	"github.com/Faultbox/mergedlands/internal/logger"
)

// pluginFile is one entry of the resolved load order.
type pluginFile struct {
	Name    string
	Path    string
	Master  bool
	Size    int64
	ModTime time.Time
}

// loadOrder resolves the plugin load order: the explicit list from the
// config when given, otherwise the [Game Files] section of
// Morrowind.ini. Entries are then ordered the way the game orders
// them, masters first and by file modification time within each group.
// Missing files are logged and dropped.
func loadOrder(cfg *config.Config) ([]pluginFile, error) {
	names := cfg.Data.Plugins
	if len(names) == 0 {
		var err error
		names, err = parseGameFiles(cfg.Data.IniPath)
		if err != nil {
			return nil, err
		}
	}

	files := make([]pluginFile, 0, len(names))
	for _, name := range names {
		path := filepath.Join(cfg.Data.DataFiles, name)
		info, err := os.Stat(path)
		if err != nil {
			logger.Warn("plugin in load order not found", zap.String("plugin", name), zap.Error(err))
			continue
		}
		files = append(files, pluginFile{
			Name:    name,
			Path:    path,
			Master:  strings.EqualFold(filepath.Ext(name), ".esm"),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	slices.SortStableFunc(files, func(a, b pluginFile) int {
		if a.Master != b.Master {
			if a.Master {
				return -1
			}
			return 1
		}
		return a.ModTime.Compare(b.ModTime)
	})

	return files, nil
}

// parseGameFiles extracts the GameFile<N> entries from a Morrowind.ini,
// ordered by N. Lines it cannot make sense of are logged and skipped.
func parseGameFiles(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading load order: %w", err)
	}

	type entry struct {
		index int
		name  string
	}
	var entries []entry

	inSection := false
	for lineNo, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inSection = strings.EqualFold(line, "[Game Files]")
			continue
		}
		if !inSection {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || !strings.HasPrefix(strings.ToLower(key), "gamefile") {
			logger.Warn("ignoring malformed load order line",
				zap.String("ini", path),
				zap.Int("line", lineNo+1),
				zap.String("text", line))
			continue
		}
		index, err := strconv.Atoi(key[len("gamefile"):])
		if err != nil {
			logger.Warn("ignoring load order line with bad index",
				zap.String("ini", path),
				zap.Int("line", lineNo+1),
				zap.String("text", line))
			continue
		}
		entries = append(entries, entry{index: index, name: strings.TrimSpace(value)})
	}

	slices.SortStableFunc(entries, func(a, b entry) int { return a.index - b.index })

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}
	return names, nil
}
