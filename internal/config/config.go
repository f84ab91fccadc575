// Package config handles tool configuration loading and management.
package config

// Config holds all merge tool settings.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Output  OutputConfig  `yaml:"output"`
	Merge   MergeConfig   `yaml:"merge"`
	Images  ImagesConfig  `yaml:"images"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig locates the game installation and the plugin load order.
type DataConfig struct {
	// DataFiles is the game's Data Files directory.
	DataFiles string `yaml:"data_files"`
	// IniPath is the Morrowind.ini to read the load order from.
	IniPath string `yaml:"ini_path"`
	// Plugins is an explicit load order; when set, the ini is not
	// consulted.
	Plugins []string `yaml:"plugins"`
}

// OutputConfig names the merged plugin.
type OutputConfig struct {
	Plugin string `yaml:"plugin"` // file name of the merged plugin
	Dir    string `yaml:"dir"`    // output directory, DataFiles when empty
}

// MergeConfig holds merge behavior settings.
type MergeConfig struct {
	// DebugVertexColors paints conflict markers into the merged
	// vertex colors so they show up in-game.
	DebugVertexColors bool `yaml:"debug_vertex_colors"`
}

// ImagesConfig controls conflict image export.
type ImagesConfig struct {
	Enabled bool `yaml:"enabled"`
	// Dir receives the Conflicts directory; the output dir when
	// empty.
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			DataFiles: ".",
			IniPath:   "../Morrowind.ini",
		},
		Output: OutputConfig{
			Plugin: "Merged Lands.esp",
		},
		Images: ImagesConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// OutputDir returns the directory the merged plugin is written to.
func (c *Config) OutputDir() string {
	if c.Output.Dir != "" {
		return c.Output.Dir
	}
	return c.Data.DataFiles
}

// ImagesDir returns the directory conflict images are written to.
func (c *Config) ImagesDir() string {
	if c.Images.Dir != "" {
		return c.Images.Dir
	}
	return c.OutputDir()
}
