// mergedlands merges the terrain edits of a Morrowind load order into
// a single plugin.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/mergedlands/internal/config"
	"github.com/Faultbox/mergedlands/internal/land"
	"github.com/Faultbox/mergedlands/internal/logger"
	"github.com/Faultbox/mergedlands/internal/meta"
	"github.com/Faultbox/mergedlands/internal/pipeline"
	"github.com/Faultbox/mergedlands/pkg/esp"
)

func main() {
	command := "merge"
	if len(os.Args) >= 2 && !strings.HasPrefix(os.Args[1], "-") {
		command = os.Args[1]
		os.Args = append(os.Args[:1], os.Args[2:]...)
	}

	switch command {
	case "merge":
		cmdMerge()
	case "inspect":
		cmdInspect(os.Args[1:])
	case "gen-meta":
		cmdGenMeta(os.Args[1:])
	case "gen-config":
		cmdGenConfig(os.Args[1:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mergedlands - Morrowind landmass merger

Usage:
  mergedlands [merge] [options]
  mergedlands inspect <plugin>
  mergedlands gen-meta <plugin>
  mergedlands gen-config [-global]

Commands:
  merge       Merge the load order's terrain into one plugin (default)
  inspect     Show a plugin's terrain records
  gen-meta    Write a default merge sidecar next to a plugin
  gen-config  Write a default config file to edit

Merge options:
  -config <path>      Config file (default: ./mergedlands.yaml)
  -data-files <path>  The game's Data Files directory
  -output <path>      Output directory for the merged plugin
  -images             Force conflict image export on
  -no-images          Disable conflict image export
  -debug              Enable debug logging

Examples:
  mergedlands -data-files "C:\Games\Morrowind\Data Files"
  mergedlands inspect "Merged Lands.esp"
  mergedlands gen-meta mod.esp`)
}

func cmdMerge() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := pipeline.Run(cfg); err != nil {
		logger.Error("merge failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func cmdInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mergedlands inspect <plugin>")
		os.Exit(1)
	}

	plugin, err := esp.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	header := plugin.Header
	fmt.Printf("Plugin:      %s\n", fs.Arg(0))
	fmt.Printf("Version:     %.2f\n", header.Version)
	fmt.Printf("Author:      %s\n", header.Author)
	fmt.Printf("Description: %s\n", header.Description)
	for _, master := range header.Masters {
		fmt.Printf("Master:      %s (%d bytes)\n", master.Name, master.Size)
	}
	fmt.Printf("Textures:    %d\n", len(plugin.Textures))
	fmt.Printf("Cells:       %d\n", len(plugin.Lands))

	for _, rec := range plugin.Lands {
		fmt.Printf("  (%d, %d) %s\n", rec.X, rec.Y, land.FromDataFlags(rec.Included))
	}
}

func cmdGenMeta(args []string) {
	fs := flag.NewFlagSet("gen-meta", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing sidecar")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mergedlands gen-meta <plugin>")
		os.Exit(1)
	}

	pluginPath := fs.Arg(0)
	sidecar := meta.PathFor(pluginPath)
	if _, err := os.Stat(sidecar); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Sidecar already exists: %s (use -force to overwrite)\n", sidecar)
		os.Exit(1)
	}

	if err := meta.Default().Save(pluginPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", sidecar)
}

func cmdGenConfig(args []string) {
	fs := flag.NewFlagSet("gen-config", flag.ExitOnError)
	global := fs.Bool("global", false, "Write to the user config directory instead of the working directory")
	force := fs.Bool("force", false, "Overwrite an existing config file")
	fs.Parse(args)

	path := "mergedlands.yaml"
	if *global {
		path = filepath.Join(config.ConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(path); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Config already exists: %s (use -force to overwrite)\n", path)
		os.Exit(1)
	}

	cfg := config.Default()
	var err error
	if *global {
		err = cfg.Save()
	} else {
		err = cfg.SaveTo(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}
