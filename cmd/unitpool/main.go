package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/unitpool/pkg/config"
	"github.com/ajitpratap0/unitpool/pkg/logger"
)

var version = "0.1.0"

func main() {
	err := newRootCmd().Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile, logLevel string

	root := &cobra.Command{
		Use:   "unitpool",
		Short: "unitpool - fixed-size unit pool allocator",
		Long: `unitpool exercises a thread-safe fixed-size object pool: batched
allocation, double-recycle detection and idle shrinking.

Configuration is read from --config (YAML, JSON or TOML) and can be
overridden with UNITPOOL_* environment variables, e.g.
UNITPOOL_POOL_BATCH_COUNT=64.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	// loadConfig reads the file and environment, then initializes logging
	loadConfig := func() (*config.Config, error) {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if len(cfg.Logging.OutputPaths) == 0 {
			// stdout carries command output
			cfg.Logging.OutputPaths = []string{"stderr"}
		}
		if err := logger.Init(cfg.Logging); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "unitpool v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	root.AddCommand(newBenchCmd(loadConfig))
	return root
}
