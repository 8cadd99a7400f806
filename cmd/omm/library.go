package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/omm/internal/media"
	"github.com/vmunix/omm/pkg/shows"
)

// RecordJSON is the JSON shape of a library record.
type RecordJSON struct {
	Path        string   `json:"path"`
	Filename    string   `json:"filename"`
	Category    string   `json:"category"`
	ShowName    string   `json:"show_name,omitempty"`
	Season      *int     `json:"season,omitempty"`
	Episode     *int     `json:"episode,omitempty"`
	Tier        string   `json:"tier"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Codec       string   `json:"codec"`
	BitDepth    int      `json:"bit_depth"`
	BitrateKbps int      `json:"bitrate_kbps"`
	SizeBytes   int64    `json:"size_bytes"`
	Status      string   `json:"status"`
	Error       string   `json:"error,omitempty"`
	Issues      []string `json:"issues,omitempty"`
}

func toRecordJSON(rec *media.Record) RecordJSON {
	return RecordJSON{
		Path:        rec.Path,
		Filename:    rec.Filename,
		Category:    string(rec.Category),
		ShowName:    rec.ShowName,
		Season:      rec.Season,
		Episode:     rec.Episode,
		Tier:        rec.Tier.String(),
		Width:       rec.Width,
		Height:      rec.Height,
		Codec:       rec.Codec,
		BitDepth:    rec.BitDepth,
		BitrateKbps: rec.BitrateKbps,
		SizeBytes:   rec.FileSizeBytes,
		Status:      string(rec.Status),
		Error:       rec.ErrorMessage,
		Issues:      rec.Issues,
	}
}

func init() {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect scanned library records",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List scanned records",
		Long: `List library records with optional filters.

Examples:
  omm library list -s needs_reencoding
  omm library list -c show --show "Breaking Bad"
  omm library list --group`,
		RunE: runLibraryList,
	}
	listCmd.Flags().StringP("category", "c", "", "Filter by category (movie, show, extra)")
	listCmd.Flags().StringP("status", "s", "", "Filter by status (compliant, needs_reencoding, below_standard, error)")
	listCmd.Flags().StringP("tier", "t", "", "Filter by tier (low_res, 720p, 1080p, 1440p, 4k)")
	listCmd.Flags().String("show", "", "Filter by show name")
	listCmd.Flags().IntP("limit", "l", 50, "Maximum number of records to list")
	listCmd.Flags().Int("offset", 0, "Number of records to skip")
	listCmd.Flags().BoolP("group", "g", false, "Group show episodes by show, merging name variants")

	issuesCmd := &cobra.Command{
		Use:   "issues <path>",
		Short: "Explain why a file is non-compliant",
		Args:  cobra.ExactArgs(1),
		RunE:  runLibraryIssues,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete a record from the library database",
		Long:  "Removes the record for the given path. The file on disk is untouched.",
		Args:  cobra.ExactArgs(1),
		RunE:  runLibraryDelete,
	}

	rootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(listCmd)
	libraryCmd.AddCommand(issuesCmd)
	libraryCmd.AddCommand(deleteCmd)
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	status, _ := cmd.Flags().GetString("status")
	tier, _ := cmd.Flags().GetString("tier")
	show, _ := cmd.Flags().GetString("show")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	group, _ := cmd.Flags().GetBool("group")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	filter := media.RecordFilter{Limit: limit, Offset: offset}
	if category != "" {
		c := media.Category(category)
		if !c.IsValid() {
			return fmt.Errorf("unknown category: %s", category)
		}
		filter.Category = &c
	}
	if status != "" {
		s := media.Status(status)
		if !s.IsValid() {
			return fmt.Errorf("unknown status: %s", status)
		}
		filter.Status = &s
	}
	if tier != "" {
		t := media.ParseTier(tier)
		if t == media.TierUnknown {
			return fmt.Errorf("unknown tier: %s", tier)
		}
		filter.Tier = &t
	}
	if show != "" {
		filter.ShowName = &show
	}
	if group {
		// Grouping needs the whole show population, not one page.
		c := media.CategoryShow
		filter = media.RecordFilter{Category: &c, ShowName: filter.ShowName}
	}

	store := media.NewStore(a.db)
	records, total, err := store.ListRecords(filter)
	if err != nil {
		return err
	}

	if group {
		return printShowGroups(records)
	}

	if jsonOutput {
		rows := make([]RecordJSON, len(records))
		for i, rec := range records {
			rows[i] = toRecordJSON(rec)
		}
		printJSON(map[string]any{"items": rows, "total": total})
		return nil
	}

	if len(records) == 0 {
		fmt.Println("No records (run 'omm scan' first)")
		return nil
	}

	fmt.Printf("Records (%d of %d):\n\n", len(records), total)
	fmt.Printf("  %-44s %-7s %-6s %-3s %-9s %-10s %s\n",
		"FILE", "TIER", "CODEC", "BD", "BITRATE", "SIZE", "STATUS")
	fmt.Println("  " + dashes(92))

	for _, rec := range records {
		fmt.Printf("  %-44s %-7s %-6s %-3d %-9s %-10s %s\n",
			truncate(rec.Filename, 44),
			rec.Tier,
			rec.Codec,
			rec.BitDepth,
			fmt.Sprintf("%d kbps", rec.BitrateKbps),
			formatBytes(rec.FileSizeBytes),
			rec.Status)
	}
	return nil
}

func runLibraryIssues(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	rec, err := media.NewStore(a.db).GetRecord(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(toRecordJSON(rec))
		return nil
	}

	fmt.Printf("File:    %s\n", rec.Path)
	fmt.Printf("Status:  %s\n", rec.Status)
	if rec.ErrorMessage != "" {
		fmt.Printf("Error:   %s\n", rec.ErrorMessage)
	}
	if len(rec.Issues) > 0 {
		fmt.Println("Issues:")
		for _, issue := range rec.Issues {
			fmt.Printf("  - %s\n", issue)
		}
	}
	return nil
}

func runLibraryDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := media.NewStore(a.db).DeleteRecord(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted record for %s\n", args[0])
	return nil
}

// showGroup aggregates a show's episodes under one canonical name.
type showGroup struct {
	Name         string `json:"name"`
	Episodes     int    `json:"episodes"`
	Seasons      int    `json:"seasons"`
	NonCompliant int    `json:"non_compliant"`
	SizeBytes    int64  `json:"size_bytes"`

	seasons map[int]bool
}

// groupShows folds records into per-show aggregates. Name variants are
// merged with a fuzzy match, so "Show Name" and "Show.Name.2019" land
// in one group when the cleaned titles agree closely enough.
func groupShows(records []*media.Record) []*showGroup {
	var canonical []string
	byName := map[string]*showGroup{}

	for _, rec := range records {
		if rec.Category != media.CategoryShow || rec.ShowName == "" {
			continue
		}
		name := rec.ShowName
		if m := shows.Match(name, canonical); m.Confidence >= shows.ConfidenceHigh {
			name = m.Name
		} else {
			canonical = append(canonical, name)
		}

		g := byName[name]
		if g == nil {
			g = &showGroup{Name: name, seasons: map[int]bool{}}
			byName[name] = g
		}
		g.Episodes++
		if rec.Season != nil {
			g.seasons[*rec.Season] = true
		}
		if rec.Status == media.StatusNeedsReencoding || rec.Status == media.StatusError {
			g.NonCompliant++
		}
		g.SizeBytes += rec.FileSizeBytes
	}

	groups := make([]*showGroup, 0, len(byName))
	for _, g := range byName {
		g.Seasons = len(g.seasons)
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups
}

func printShowGroups(records []*media.Record) error {
	groups := groupShows(records)

	if jsonOutput {
		printJSON(groups)
		return nil
	}

	if len(groups) == 0 {
		fmt.Println("No shows in the library")
		return nil
	}

	fmt.Printf("Shows (%d):\n\n", len(groups))
	fmt.Printf("  %-40s %-9s %-8s %-14s %s\n", "SHOW", "EPISODES", "SEASONS", "NON-COMPLIANT", "SIZE")
	fmt.Println("  " + dashes(84))

	for _, g := range groups {
		fmt.Printf("  %-40s %-9d %-8d %-14d %s\n",
			truncate(g.Name, 40), g.Episodes, g.Seasons, g.NonCompliant, formatBytes(g.SizeBytes))
	}
	return nil
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func dashes(n int) string {
	return strings.Repeat("-", n)
}
