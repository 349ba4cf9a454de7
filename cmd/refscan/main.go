package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/refscan/internal/config"
	"github.com/standardbeagle/refscan/internal/debug"
	"github.com/standardbeagle/refscan/internal/version"
)

var (
	Version      = version.Version // Use centralized version management
	cleanupFuncs []func()
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configPath := c.String("config"); configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		root := c.String("root")
		if root == "" {
			root = "."
		}
		cfg, err = config.Load(root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Apply CLI flag overrides
	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Filter.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Filter.Exclude = append(cfg.Filter.Exclude, excludeFlags...)
	}
	if rootFlag := c.String("root"); rootFlag != "" {
		// Convert to absolute path to ensure consistent path handling
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}
	if workers := c.Int("workers"); workers > 0 {
		cfg.Scan.Workers = workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:                   "refscan",
		Usage:                  "Fast asset reference search for serialized game projects",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (.refscan.kdl or .refscan.toml)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Scan only files matching glob patterns (e.g., --include 'Assets/**')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/Plugins/**')",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Scan worker count (0 = one per CPU)",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Suppress the progress bar",
			},
			&cli.StringFlag{
				Name:   "profile-cpu",
				Usage:  "Write CPU profile to file",
				Hidden: true,
			},
			&cli.StringFlag{
				Name:   "profile-memory",
				Usage:  "Write memory profile to file",
				Hidden: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "scan",
				Aliases:   []string{"s"},
				Usage:     "Find every file referencing the given assets",
				ArgsUsage: "<path-or-guid>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "meta",
						Aliases: []string{"m"},
						Usage:   "Sidecar handling: none, with-asset, only (default from config)",
					},
					&cli.BoolFlag{
						Name:    "guid-only",
						Aliases: []string{"g"},
						Usage:   "Match on the main identifier alone, ignoring sub identifiers",
					},
					&cli.BoolFlag{
						Name:    "include-subs",
						Aliases: []string{"s"},
						Usage:   "Also search for each target's sub-entities",
					},
					&cli.StringFlag{
						Name:  "save",
						Usage: "Save the results to a named slot",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "compact",
						Usage: "One line per target",
					},
					&cli.BoolFlag{
						Name:  "inverted",
						Usage: "Show the referenced-by view",
					},
					&cli.BoolFlag{
						Name:  "show-refs",
						Usage: "Show entity refs next to paths",
					},
					&cli.IntFlag{
						Name:    "max-entries",
						Aliases: []string{"n"},
						Usage:   "Max references shown per target (0 = all)",
					},
				},
				Action: scanCommand,
			},
			{
				Name:      "text",
				Aliases:   []string{"t"},
				Usage:     "Find every file containing a raw substring",
				ArgsUsage: "<string>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "meta",
						Aliases: []string{"m"},
						Usage:   "Sidecar handling: none, with-asset, only (default from config)",
					},
					&cli.StringFlag{
						Name:  "save",
						Usage: "Save the results to a named slot",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "compact",
						Usage: "One line per target",
					},
					&cli.BoolFlag{
						Name:  "inverted",
						Usage: "Show the referenced-by view",
					},
					&cli.IntFlag{
						Name:    "max-entries",
						Aliases: []string{"n"},
						Usage:   "Max references shown per target (0 = all)",
					},
				},
				Action: textCommand,
			},
			{
				Name:      "file",
				Aliases:   []string{"f"},
				Usage:     "Check whether one file references the given assets (exit 1 when not)",
				ArgsUsage: "<path> <path-or-guid>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "meta",
						Aliases: []string{"m"},
						Usage:   "Sidecar handling: none, with-asset, only (default from config)",
					},
					&cli.BoolFlag{
						Name:    "guid-only",
						Aliases: []string{"g"},
						Usage:   "Match on the main identifier alone",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: fileCommand,
			},
			{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Build or refresh the asset index",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rebuild",
						Usage: "Discard the existing index and build from scratch",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: indexCommand,
			},
			{
				Name:    "history",
				Aliases: []string{"h"},
				Usage:   "Browse past searches",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List retained searches",
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:    "json",
								Aliases: []string{"j"},
								Usage:   "Output as JSON",
							},
						},
						Action: historyListCommand,
					},
					{
						Name:      "show",
						Usage:     "Show one retained search (default: current)",
						ArgsUsage: "[n]",
						Flags:     historyDisplayFlags(),
						Action:    historyShowCommand,
					},
					{
						Name:   "prev",
						Usage:  "Step to the previous search and show it",
						Flags:  historyDisplayFlags(),
						Action: historyPrevCommand,
					},
					{
						Name:   "next",
						Usage:  "Step to the next search and show it",
						Flags:  historyDisplayFlags(),
						Action: historyNextCommand,
					},
				},
				Action: historyListCommand,
			},
			{
				Name:      "save",
				Usage:     "Save the current results to a named slot",
				ArgsUsage: "<slot>",
				Action:    saveCommand,
			},
			{
				Name:      "load",
				Usage:     "Load a saved slot and make it current",
				ArgsUsage: "<slot>",
				Flags:     historyDisplayFlags(),
				Action:    loadCommand,
			},
			{
				Name:  "slots",
				Usage: "List saved slots",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: slotsCommand,
			},
			{
				Name:      "watch",
				Aliases:   []string{"w"},
				Usage:     "Re-run a search whenever project files change",
				ArgsUsage: "<path-or-guid>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "text",
						Aliases: []string{"t"},
						Usage:   "Watch a raw substring search instead of entity targets",
					},
					&cli.StringFlag{
						Name:    "meta",
						Aliases: []string{"m"},
						Usage:   "Sidecar handling: none, with-asset, only (default from config)",
					},
					&cli.BoolFlag{
						Name:    "guid-only",
						Aliases: []string{"g"},
						Usage:   "Match on the main identifier alone",
					},
					&cli.BoolFlag{
						Name:    "include-subs",
						Aliases: []string{"s"},
						Usage:   "Also search for each target's sub-entities",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output each rescan as JSON",
					},
					&cli.BoolFlag{
						Name:  "compact",
						Usage: "One line per target",
					},
				},
				Action: watchCommand,
			},
			{
				Name:   "version",
				Usage:  "Show detailed version information",
				Action: versionCommand,
			},
		},
		Before: func(c *cli.Context) error {
			// Setup profiling if requested
			if cpuProfilePath := c.String("profile-cpu"); cpuProfilePath != "" {
				f, err := os.Create(cpuProfilePath)
				if err != nil {
					return fmt.Errorf("failed to create CPU profile: %w", err)
				}
				if err := pprof.StartCPUProfile(f); err != nil {
					f.Close()
					return fmt.Errorf("failed to start CPU profile: %w", err)
				}
				cleanupFuncs = append(cleanupFuncs, func() {
					pprof.StopCPUProfile()
					f.Close()
				})
			}

			if memProfilePath := c.String("profile-memory"); memProfilePath != "" {
				cleanupFuncs = append(cleanupFuncs, func() {
					runtime.GC() // Force garbage collection before profiling

					f, err := os.Create(memProfilePath)
					if err != nil {
						fmt.Fprintf(os.Stderr, "Failed to create memory profile: %v\n", err)
						return
					}
					defer f.Close()

					if err := pprof.WriteHeapProfile(f); err != nil {
						fmt.Fprintf(os.Stderr, "Failed to write memory profile: %v\n", err)
					}
				})
			}

			if debug.IsDebugEnabled() {
				if path, err := debug.InitDebugLogFile(); err == nil {
					debug.Log("cli", "debug log at %s\n", path)
					cleanupFuncs = append(cleanupFuncs, func() { debug.CloseDebugLog() })
				}
			}

			return nil
		},
		Action: func(c *cli.Context) error {
			// Default to scan when targets are given
			if c.NArg() > 0 {
				return scanCommand(c)
			}
			return cli.ShowAppHelp(c)
		},
	}

	// Handle cleanup on exit
	defer func() {
		for _, cleanup := range cleanupFuncs {
			cleanup()
		}
	}()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// historyDisplayFlags are shared by every command that renders one
// retained result set.
func historyDisplayFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "json",
			Aliases: []string{"j"},
			Usage:   "Output as JSON",
		},
		&cli.BoolFlag{
			Name:  "compact",
			Usage: "One line per target",
		},
		&cli.BoolFlag{
			Name:  "inverted",
			Usage: "Show the referenced-by view",
		},
	}
}

// determineFormat determines the output format based on CLI flags
func determineFormat(c *cli.Context) string {
	if c.Bool("json") {
		return "json"
	}
	if c.Bool("compact") {
		return "compact"
	}
	return "text"
}

func versionCommand(c *cli.Context) error {
	fmt.Println(version.FullInfo())
	return nil
}
