package main

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/vmunix/omm/internal/config"
	"github.com/vmunix/omm/internal/media"
	"github.com/vmunix/omm/internal/scan"
	"github.com/vmunix/omm/pkg/shows"
)

// PathParse is what the scanner would make of one path.
type PathParse struct {
	Path     string `json:"path"`
	Category string `json:"category"`
	Show     string `json:"show,omitempty"`
	Season   *int   `json:"season,omitempty"`
	Episode  *int   `json:"episode,omitempty"`
}

var parseCmd = &cobra.Command{
	Use:   "parse <path>...",
	Short: "Parse media paths (local, no database needed)",
	Long: `Run the category and show/season/episode parsers over paths and
show what a scan would make of them. Useful for debugging library
layouts without touching the database.

Extras markers come from the config when one is found, otherwise the
built-in defaults apply.

Examples:
  omm parse "/shows/Breaking Bad/Season 1/Breaking.Bad.S01E02.mkv"
  omm parse --json "/movies/Heat (1995)/Heat.mkv"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParseCmd,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParseCmd(cmd *cobra.Command, args []string) error {
	markers, err := parseMarkers()
	if err != nil {
		return err
	}

	results := make([]PathParse, 0, len(args))
	for _, path := range args {
		results = append(results, parsePath(path, markers))
	}

	if jsonOutput {
		if len(results) == 1 {
			printJSON(results[0])
		} else {
			printJSON(results)
		}
		return nil
	}

	for i, r := range results {
		if i > 0 {
			fmt.Println()
		}
		printPathParse(r)
	}
	return nil
}

// parseMarkers compiles the extras markers the scanner would use: the
// configured ones when a config is found, the defaults otherwise. An
// explicit --config that fails to load is an error rather than a
// silent fallback.
func parseMarkers() ([]*regexp.Regexp, error) {
	patterns := shows.DefaultExtrasMarkers

	path := configPath
	if path == "" {
		path, _ = config.Discover()
	}
	if path != "" {
		cfg, err := config.LoadWithoutValidation(path)
		if err != nil {
			if configPath != "" {
				return nil, err
			}
		} else if len(cfg.Library.ExtrasMarkers) > 0 {
			patterns = cfg.Library.ExtrasMarkers
		}
	}
	return shows.CompileMarkers(patterns)
}

func parsePath(path string, markers []*regexp.Regexp) PathParse {
	r := PathParse{Path: path}

	category := scan.Categorize(path, markers)
	r.Category = string(category)

	switch category {
	case media.CategoryExtra:
		r.Show = shows.ShowFromExtrasPath(path)
	default:
		if info, ok := shows.Parse(path); ok {
			r.Category = string(media.CategoryShow)
			r.Show = info.Show
			r.Season = info.Season
			r.Episode = info.Episode
		}
	}
	return r
}

func printPathParse(r PathParse) {
	fmt.Println(r.Path)
	fmt.Printf("  Category:  %s\n", r.Category)
	if r.Show != "" {
		fmt.Printf("  Show:      %s\n", r.Show)
	}
	if r.Season != nil {
		fmt.Printf("  Season:    %d\n", *r.Season)
	}
	if r.Episode != nil {
		fmt.Printf("  Episode:   %d\n", *r.Episode)
	}
}
