package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/vmunix/omm/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter config file",
	Long: `Write a commented starter config.

Without a path the file lands at the default location
($XDG_CONFIG_HOME/omm/omm.toml, usually ~/.config/omm/omm.toml).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Show the effective configuration",
	Long:  "Prints the configuration with defaults applied, as TOML.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a configuration file",
	Long:  "Validates TOML syntax, required fields, and environment variable substitution.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	path := config.DefaultPath()
	if configPath != "" {
		path = configPath
	}
	if len(args) > 0 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	fmt.Println("Edit library.roots, then run 'omm scan'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadWithoutValidation(path)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(configSummary(cfg))
		return nil
	}

	fmt.Printf("# effective configuration from %s\n", path)
	return toml.NewEncoder(os.Stdout).Encode(cfg)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath(args)
	if err != nil {
		return err
	}

	fmt.Printf("Validating %s...\n\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		var configErr *config.ConfigError
		if errors.As(err, &configErr) {
			printConfigErrors(configErr)
			return fmt.Errorf("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	printConfigSummary(cfg)
	fmt.Println("\nConfiguration valid!")
	return nil
}

// resolveConfigPath picks the config file for show/validate: the
// argument, then --config, then discovery.
func resolveConfigPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if configPath != "" {
		return configPath, nil
	}
	return config.Discover()
}

func printConfigErrors(e *config.ConfigError) {
	if len(e.Missing) > 0 {
		fmt.Println("Missing environment variables:")
		for _, m := range e.Missing {
			fmt.Printf("  - %s\n", m)
		}
		fmt.Println()
	}

	if len(e.Errors) > 0 {
		fmt.Println("Validation errors:")
		for _, err := range e.Errors {
			fmt.Printf("  - %s\n", err)
		}
		fmt.Println()
	}
}

func printConfigSummary(cfg *config.Config) {
	std := cfg.MediaStandards()
	set := cfg.EncodeSettings()

	fmt.Println("Configuration Summary:")
	fmt.Printf("  Log level:  %s\n", cfg.LogLevel)
	fmt.Printf("  Database:   %s\n", cfg.Database.Path)
	fmt.Printf("  Roots:      %s\n", strings.Join(cfg.Library.Roots, ", "))
	fmt.Printf("  Standards:  codec %s, minimum tier %s\n", std.RequiredCodec, std.MinimumTier)
	gpu := "software"
	if set.UseGPU {
		gpu = "gpu"
	}
	fmt.Printf("  Encoding:   %s (%s, %s, cq %d)\n", set.CodecType, set.ResolvedCodec(), gpu, set.CQ)
}

func configSummary(cfg *config.Config) map[string]any {
	std := cfg.MediaStandards()
	set := cfg.EncodeSettings()
	return map[string]any{
		"log_level":      cfg.LogLevel,
		"database":       cfg.Database.Path,
		"roots":          cfg.Library.Roots,
		"required_codec": std.RequiredCodec,
		"minimum_tier":   std.MinimumTier.String(),
		"codec_type":     string(set.CodecType),
		"resolved_codec": set.ResolvedCodec(),
		"use_gpu":        set.UseGPU,
		"cq":             set.CQ,
	}
}
