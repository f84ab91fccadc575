package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagDataFiles = flag.String("data-files", "", "Path to the game's Data Files directory")
	flagOutput    = flag.String("output", "", "Output directory for the merged plugin")
	flagImages    = flag.Bool("images", false, "Force conflict image export on")
	flagNoImages  = flag.Bool("no-images", false, "Disable conflict image export")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagDataFiles != "" {
		cfg.Data.DataFiles = *flagDataFiles
	}
	if *flagOutput != "" {
		cfg.Output.Dir = *flagOutput
	}
	if *flagImages {
		cfg.Images.Enabled = true
	}
	if *flagNoImages {
		cfg.Images.Enabled = false
	}
}
