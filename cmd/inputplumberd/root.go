package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/inputplumberd/internal/logger"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0-dev"

var logLevel string
var configPath string

var rootCmd = &cobra.Command{
	Use:   "inputplumberd",
	Short: "inputplumberd - composite input device controller",
	Long: `inputplumberd multiplexes physical input devices (evdev, hidraw, iio)
into configurable virtual composite devices, translating and intercepting
input according to per-device profiles and a static capability map.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetLevel(logLevel)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", os.Getenv("LOG_LEVEL"), "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (overrides default search path)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
