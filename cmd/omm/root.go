package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	jsonOutput bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "omm",
	Short: "Media library compliance and batch encoding",
	Long: `omm - media library compliance and batch encoding

Scans media libraries with ffprobe, classifies every file against
configured quality standards, and drives ffmpeg to re-encode the
files that miss them.

Start with 'omm config init', then 'omm scan' and 'omm encode'.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: discovered)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override configured log level (debug, info, warn, error)")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("omm {{.Version}}\n")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
