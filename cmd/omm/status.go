package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/omm/internal/media"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Library compliance overview",
	Long: `Show aggregate counts for the scanned library: totals, compliance
status, categories, and resolution tiers.`,
	RunE: runStatusCmd,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// StatusJSON is the JSON shape of the status dashboard.
type StatusJSON struct {
	Total      int            `json:"total"`
	TotalBytes int64          `json:"total_bytes"`
	ByStatus   map[string]int `json:"by_status"`
	ByCategory map[string]int `json:"by_category"`
	ByTier     map[string]int `json:"by_tier"`
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := media.NewStore(a.db).Stats()
	if err != nil {
		return err
	}

	if jsonOutput {
		out := StatusJSON{
			Total:      stats.Total,
			TotalBytes: stats.TotalBytes,
			ByStatus:   map[string]int{},
			ByCategory: map[string]int{},
			ByTier:     map[string]int{},
		}
		for s, n := range stats.ByStatus {
			out.ByStatus[string(s)] = n
		}
		for c, n := range stats.ByCategory {
			out.ByCategory[string(c)] = n
		}
		for t, n := range stats.ByTier {
			out.ByTier[t.String()] = n
		}
		printJSON(out)
		return nil
	}

	printStatus(stats)
	return nil
}

func printStatus(stats *media.LibraryStats) {
	fmt.Printf("omm v%s | %d files | %s\n\n", version, stats.Total, formatBytes(stats.TotalBytes))

	if stats.Total == 0 {
		fmt.Println("Library is empty (run 'omm scan' first)")
		return
	}

	fmt.Println("By Status")
	for _, st := range []media.Status{
		media.StatusCompliant, media.StatusNeedsReencoding,
		media.StatusBelowStandard, media.StatusError,
		media.StatusScanning, media.StatusUnknown,
	} {
		if n := stats.ByStatus[st]; n > 0 {
			fmt.Printf("  %-18s %d\n", st, n)
		}
	}
	fmt.Println()

	fmt.Println("By Category")
	for _, cat := range []media.Category{media.CategoryMovie, media.CategoryShow, media.CategoryExtra} {
		if n := stats.ByCategory[cat]; n > 0 {
			fmt.Printf("  %-18s %d\n", cat, n)
		}
	}
	fmt.Println()

	fmt.Println("By Tier")
	for _, tier := range media.Tiers() {
		if n := stats.ByTier[tier]; n > 0 {
			fmt.Printf("  %-18s %d\n", tier, n)
		}
	}
	if n := stats.ByTier[media.TierUnknown]; n > 0 {
		fmt.Printf("  %-18s %d\n", media.TierUnknown, n)
	}

	if n := stats.ByStatus[media.StatusNeedsReencoding]; n > 0 {
		fmt.Printf("\n%d files need re-encoding (run 'omm encode')\n", n)
	}
}
