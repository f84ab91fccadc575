// Package pipeline drives a whole merge run: resolving the load
// order, folding every plugin's terrain edits into one landmass, and
// writing the merged plugin.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/mergedlands/internal/config"
	"github.com/Faultbox/mergedlands/internal/land"
	"github.com/Faultbox/mergedlands/internal/logger"
	"github.com/Faultbox/mergedlands/internal/merge"
	"github.com/Faultbox/mergedlands/internal/meta"
	"github.com/Faultbox/mergedlands/internal/repair"
	"github.com/Faultbox/mergedlands/internal/report"
	"github.com/Faultbox/mergedlands/internal/textures"
	"github.com/Faultbox/mergedlands/pkg/esp"
)

// Run executes a full merge under cfg and writes the merged plugin
// plus its sidecar to the output directory.
func Run(cfg *config.Config) error {
	order, err := loadOrder(cfg)
	if err != nil {
		return err
	}
	if len(order) == 0 {
		return errors.New("no plugins in the load order")
	}

	registry := textures.NewKnown()
	reference := make(map[land.Coords]*land.Landscape)

	var masters []esp.Master
	for _, pf := range order {
		if !pf.Master {
			continue
		}
		plugin, err := loadPlugin(pf, registry)
		if err != nil {
			return err
		}
		foldReference(reference, plugin, pf.Name)
		masters = append(masters, esp.Master{Name: pf.Name, Size: uint64(pf.Size)})
		logger.Info("loaded master", zap.String("plugin", pf.Name), zap.Int("cells", len(plugin.Lands)))
	}

	merged := merge.NewLandmassDiff(cfg.Output.Plugin)
	for _, landscape := range reference {
		merged.Insert(merge.FromReference(landscape, land.AllChannels))
	}

	params := merge.DefaultConflictParams()
	for _, pf := range order {
		if pf.Master {
			continue
		}
		if pf.Name == cfg.Output.Plugin {
			logger.Info("skipping the output plugin itself", zap.String("plugin", pf.Name))
			continue
		}

		m, err := loadMeta(pf)
		if err != nil {
			return err
		}
		if m.Type == meta.TypeMerged {
			logger.Info("skipping previous merge output", zap.String("plugin", pf.Name))
			continue
		}

		plugin, err := loadPlugin(pf, registry)
		if err != nil {
			return err
		}

		pluginDiff := diffPlugin(pf.Name, plugin, reference, m.AllowedData())
		if len(pluginDiff.Cells) == 0 {
			logger.Info("plugin changes no terrain", zap.String("plugin", pf.Name))
			continue
		}

		foldPlugin(merged, pluginDiff, m.Strategies(), params)

		if cfg.Images.Enabled {
			report.SaveLandmassImages(cfg.ImagesDir(), merged, pluginDiff)
		}
		if cfg.Merge.DebugVertexColors {
			report.PaintDebugColors(merged, pluginDiff)
		}

		repaired := repair.RepairSeams(merged)
		logger.Info("merged plugin",
			zap.String("plugin", pf.Name),
			zap.Int("cells", len(pluginDiff.Cells)),
			zap.Int("seamVertices", repaired))
	}

	repair.Clean(merged)

	output := buildOutput(merged, registry, masters)
	return saveOutput(cfg, output, len(merged.Cells))
}

// loadPlugin parses a plugin file and rewrites its texture indices
// into the global registry's index space.
func loadPlugin(pf pluginFile, registry *textures.Known) (*esp.Plugin, error) {
	plugin, err := esp.Load(pf.Path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", pf.Name, err)
	}

	remap := textures.NewRemapped()
	for _, ltex := range plugin.Textures {
		registry.Add(pf.Name, ltex, remap)
		registry.Update(pf.Name, ltex)
	}
	for _, rec := range plugin.Lands {
		if rec.Textures != nil {
			textures.RemapGrid(rec.Textures, remap)
		}
	}

	return plugin, nil
}

// loadMeta reads a plugin's sidecar, writing the default one next to
// plugins that do not have one yet.
func loadMeta(pf pluginFile) (*meta.PluginMeta, error) {
	m, err := meta.Load(pf.Path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(meta.PathFor(pf.Path)); errors.Is(err, os.ErrNotExist) {
		if err := m.Save(pf.Path); err != nil {
			logger.Warn("cannot write plugin sidecar", zap.String("plugin", pf.Name), zap.Error(err))
		}
	}

	return m, nil
}

// foldReference overlays a master's cells onto the reference landmass.
func foldReference(reference map[land.Coords]*land.Landscape, plugin *esp.Plugin, name string) {
	for _, rec := range plugin.Lands {
		landscape := land.FromLAND(rec, name)
		if existing, ok := reference[landscape.Coords]; ok {
			existing.Apply(landscape)
		} else {
			reference[landscape.Coords] = landscape
		}
	}
}

// diffPlugin computes one plugin's terrain edits relative to the
// reference landmass. Cells with no surviving differences are left
// out.
func diffPlugin(name string, plugin *esp.Plugin, reference map[land.Coords]*land.Landscape, allowed land.Channels) *merge.LandmassDiff {
	diff := merge.NewLandmassDiff(name)
	for _, rec := range plugin.Lands {
		landscape := land.FromLAND(rec, name)
		cell := merge.DiffLandscape(landscape, reference[landscape.Coords], allowed)
		if !cell.IsModified() {
			continue
		}
		diff.Insert(cell)
	}
	return diff
}

// foldPlugin merges a plugin's cell diffs into the landmass and marks
// elevation-touching cells for seam repair.
func foldPlugin(merged, plugin *merge.LandmassDiff, strategies merge.Strategies, params merge.ConflictParams) {
	for coords, cell := range plugin.Sorted() {
		existing := merged.Get(coords)
		if existing == nil {
			cell.Plugins = []merge.Provenance{{Plugin: plugin.Plugin, Data: cell.ModifiedData()}}
			merged.Insert(cell)
		} else {
			next := existing.Merge(cell, strategies, params)
			next.AddProvenance(plugin.Plugin, cell.ModifiedData())
			merged.Insert(next)
		}

		if cell.HeightMap.IsModified() {
			merged.MarkPossibleSeam(coords)
		}
	}
}

// saveOutput writes the merged plugin and its sidecar. When a previous
// merge output exists its modification time is kept, so rebuilding the
// merge does not shuffle the game's load order.
func saveOutput(cfg *config.Config, output *esp.Plugin, cells int) error {
	if err := os.MkdirAll(cfg.OutputDir(), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(cfg.OutputDir(), cfg.Output.Plugin)
	prior, priorErr := os.Stat(path)

	if err := output.Save(path); err != nil {
		return err
	}
	if priorErr == nil {
		if err := os.Chtimes(path, time.Now(), prior.ModTime()); err != nil {
			logger.Warn("cannot keep output modification time", zap.String("path", path), zap.Error(err))
		}
	}

	if err := meta.Merged().Save(path); err != nil {
		return err
	}

	logger.Info("wrote merged plugin",
		zap.String("path", path),
		zap.Int("cells", cells),
		zap.Int("textures", len(output.Textures)))
	return nil
}
