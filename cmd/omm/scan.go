package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/omm/internal/events"
	"github.com/vmunix/omm/internal/media"
	"github.com/vmunix/omm/internal/probe"
	"github.com/vmunix/omm/internal/proc"
	"github.com/vmunix/omm/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan [root...]",
	Short: "Scan library roots and classify media files",
	Long: `Walk the library roots, probe every media file with ffprobe,
classify it against the configured standards, and persist the results.

Roots given as arguments override the configured library.roots.

Examples:
  omm scan                      # Scan configured roots
  omm scan /media/movies        # Scan one directory
  omm scan --workers 16         # More concurrent probes
  omm scan --prune              # Also drop records for deleted files`,
	RunE: runScanCmd,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntP("workers", "w", 0, "Concurrent ffprobe workers (default from config)")
	scanCmd.Flags().Bool("prune", false, "Remove records for files that no longer exist under the scanned roots")
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	workers, _ := cmd.Flags().GetInt("workers")
	prune, _ := cmd.Flags().GetBool("prune")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	roots := a.cfg.Library.Roots
	if len(args) > 0 {
		roots = args
	}
	if len(roots) == 0 {
		return fmt.Errorf("no library roots: pass a directory or set library.roots in the config")
	}
	if workers <= 0 {
		workers = a.cfg.Library.ScanThreads
	}

	bus := events.NewBus(events.NewEventLog(a.db), a.log.With("component", "events"))
	defer bus.Close()

	prober := probe.New(proc.ExecRunner{}, a.log.With("component", "probe"))
	scanner, err := scan.New(prober, bus, a.log.With("component", "scan"), scan.Options{
		Workers:       workers,
		MinFileSize:   a.cfg.Library.MinFileSizeBytes(),
		Extensions:    a.cfg.Library.Extensions,
		ExtrasMarkers: a.cfg.Library.ExtrasMarkers,
	})
	if err != nil {
		return err
	}

	store := media.NewStore(a.db)
	std := a.cfg.MediaStandards()
	started := time.Now().UTC()

	var all []*media.Record
	var pruned int64
	for _, root := range roots {
		records, err := scanner.Scan(cmd.Context(), root, std)
		if err != nil {
			return fmt.Errorf("scan %s: %w", root, err)
		}
		for _, rec := range records {
			if err := store.SaveRecord(rec); err != nil {
				return fmt.Errorf("save record %s: %w", rec.Path, err)
			}
		}
		if prune {
			n, err := store.PruneBefore(root, started)
			if err != nil {
				return fmt.Errorf("prune %s: %w", root, err)
			}
			pruned += n
		}
		all = append(all, records...)
	}

	if jsonOutput {
		printJSON(scanSummary(all, pruned))
		return nil
	}

	printScanSummary(all, pruned)
	return nil
}

// ScanSummary is the JSON shape of a scan run's outcome.
type ScanSummary struct {
	Scanned    int            `json:"scanned"`
	TotalBytes int64          `json:"total_bytes"`
	ByStatus   map[string]int `json:"by_status"`
	ByCategory map[string]int `json:"by_category"`
	Pruned     int64          `json:"pruned,omitempty"`
}

func scanSummary(records []*media.Record, pruned int64) ScanSummary {
	s := ScanSummary{
		ByStatus:   map[string]int{},
		ByCategory: map[string]int{},
		Pruned:     pruned,
	}
	for _, rec := range records {
		s.Scanned++
		s.TotalBytes += rec.FileSizeBytes
		s.ByStatus[string(rec.Status)]++
		s.ByCategory[string(rec.Category)]++
	}
	return s
}

func printScanSummary(records []*media.Record, pruned int64) {
	s := scanSummary(records, pruned)

	fmt.Printf("Scanned %d files (%s)\n\n", s.Scanned, formatBytes(s.TotalBytes))

	fmt.Println("By Status")
	for _, st := range []media.Status{
		media.StatusCompliant, media.StatusNeedsReencoding,
		media.StatusBelowStandard, media.StatusError,
	} {
		if n := s.ByStatus[string(st)]; n > 0 {
			fmt.Printf("  %-18s %d\n", st, n)
		}
	}
	fmt.Println()

	fmt.Println("By Category")
	for _, cat := range []media.Category{media.CategoryMovie, media.CategoryShow, media.CategoryExtra} {
		if n := s.ByCategory[string(cat)]; n > 0 {
			fmt.Printf("  %-18s %d\n", cat, n)
		}
	}

	if pruned > 0 {
		fmt.Printf("\nPruned %d stale records\n", pruned)
	}

	if n := s.ByStatus[string(media.StatusNeedsReencoding)]; n > 0 {
		fmt.Printf("\n%d files need re-encoding (run 'omm encode')\n", n)
	}
	if n := s.ByStatus[string(media.StatusError)]; n > 0 {
		fmt.Printf("%d files failed probing (see 'omm library list -s error')\n", n)
	}
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	const gb = 1 << 30
	if n >= gb {
		return fmt.Sprintf("%.2f GB", float64(n)/gb)
	}
	return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
}
