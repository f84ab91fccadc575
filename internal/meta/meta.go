// Package meta reads and writes the per-plugin sidecar files that
// control how a plugin's terrain is merged.
//
// The sidecar lives next to the plugin as <plugin>.mergedlands.yaml.
// A missing sidecar means defaults: every channel included, automatic
// strategies.
package meta

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/mergedlands/internal/land"
	"github.com/Faultbox/mergedlands/internal/merge"
)

// Suffix is appended to a plugin filename to name its sidecar.
const Suffix = ".mergedlands.yaml"

// Version is the only sidecar schema version this build understands.
const Version = 0

// Plugin types.
const (
	TypeAuto   = "auto"   // written by the tool when no sidecar existed
	TypePatch  = "patch"  // hand-edited to control merging
	TypeMerged = "merged" // marks a previous merge output, skipped on later runs
)

// MergeSettings controls one channel of a plugin.
type MergeSettings struct {
	// Included false drops the plugin's changes to this channel.
	Included bool `yaml:"included"`
	// Strategy picks the conflict strategy; "auto" defers to the
	// channel default.
	Strategy string `yaml:"strategy,omitempty"`
}

// DefaultSettings returns the included/auto settings.
func DefaultSettings() MergeSettings {
	return MergeSettings{Included: true}
}

// PluginMeta is the sidecar schema. The height map settings also
// cover vertex normals.
type PluginMeta struct {
	Version        int           `yaml:"version"`
	Type           string        `yaml:"type"`
	HeightMap      MergeSettings `yaml:"height_map"`
	VertexColors   MergeSettings `yaml:"vertex_colors"`
	TextureIndices MergeSettings `yaml:"texture_indices"`
	WorldMapData   MergeSettings `yaml:"world_map_data"`
}

// Default returns the sidecar the tool assumes for plugins without
// one.
func Default() *PluginMeta {
	return &PluginMeta{
		Version:        Version,
		Type:           TypeAuto,
		HeightMap:      DefaultSettings(),
		VertexColors:   DefaultSettings(),
		TextureIndices: DefaultSettings(),
		WorldMapData:   DefaultSettings(),
	}
}

// Merged returns the sidecar written next to the merge output.
func Merged() *PluginMeta {
	m := Default()
	m.Type = TypeMerged
	return m
}

// PathFor returns the sidecar path for a plugin path.
func PathFor(pluginPath string) string {
	return pluginPath + Suffix
}

// Load reads the sidecar for a plugin, returning Default when none
// exists.
func Load(pluginPath string) (*PluginMeta, error) {
	data, err := os.ReadFile(PathFor(pluginPath))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading plugin meta: %w", err)
	}

	m := Default()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing plugin meta: %w", err)
	}

	if m.Version != Version {
		return nil, fmt.Errorf("unsupported plugin meta version %d in %s", m.Version, PathFor(pluginPath))
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid plugin meta %s: %w", PathFor(pluginPath), err)
	}

	return m, nil
}

// Save writes the sidecar for a plugin.
func (m *PluginMeta) Save(pluginPath string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding plugin meta: %w", err)
	}
	if err := os.WriteFile(PathFor(pluginPath), data, 0644); err != nil {
		return fmt.Errorf("writing plugin meta: %w", err)
	}
	return nil
}

func (m *PluginMeta) validate() error {
	switch m.Type {
	case TypeAuto, TypePatch, TypeMerged:
	default:
		return fmt.Errorf("unknown plugin type %q", m.Type)
	}
	for _, s := range []MergeSettings{m.HeightMap, m.VertexColors, m.TextureIndices, m.WorldMapData} {
		if _, err := merge.ParseStrategy(s.Strategy); err != nil {
			return err
		}
	}
	return nil
}

// AllowedData returns the channels the sidecar includes. Excluding
// the height map also excludes vertex normals.
func (m *PluginMeta) AllowedData() land.Channels {
	var allowed land.Channels
	if m.HeightMap.Included {
		allowed |= land.Heights | land.Normals
	}
	if m.WorldMapData.Included {
		allowed |= land.WorldMap
	}
	if m.VertexColors.Included {
		allowed |= land.Colors
	}
	if m.TextureIndices.Included {
		allowed |= land.Textures
	}
	return allowed
}

// Strategies returns the per-channel strategy overrides for the merge
// engine. Validation already happened in Load, so parse errors here
// are programming mistakes.
func (m *PluginMeta) Strategies() merge.Strategies {
	return merge.Strategies{
		HeightMap:      mustStrategy(m.HeightMap.Strategy),
		VertexColors:   mustStrategy(m.VertexColors.Strategy),
		TextureIndices: mustStrategy(m.TextureIndices.Strategy),
		WorldMapData:   mustStrategy(m.WorldMapData.Strategy),
	}
}

func mustStrategy(s string) merge.Strategy {
	strategy, err := merge.ParseStrategy(s)
	if err != nil {
		panic(err)
	}
	return strategy
}
