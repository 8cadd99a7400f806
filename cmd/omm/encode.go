package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vmunix/omm/internal/batch"
	"github.com/vmunix/omm/internal/encode"
	"github.com/vmunix/omm/internal/events"
	"github.com/vmunix/omm/internal/media"
	"github.com/vmunix/omm/internal/probe"
	"github.com/vmunix/omm/internal/proc"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [path-prefix...]",
	Short: "Re-encode files that miss the standards",
	Long: `Queue every non-compliant record and encode the files one at a
time with ffmpeg. Encoded output lands in an encoded/ directory next to
each source file; with auto_move_smaller the original is replaced when
the encode comes out smaller.

Path prefixes restrict the queue to records under those paths. Without
arguments, all records marked needs_reencoding or error are queued.

Press Ctrl-C to stop: the in-flight encode is cancelled and its partial
output removed.

Examples:
  omm encode                    # Encode everything flagged by the scan
  omm encode /media/shows       # Only records under this path
  omm encode --limit 5          # Stop after five files
  omm encode --dry-run          # Show the queue and exit`,
	RunE: runEncodeCmd,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().IntP("limit", "l", 0, "Encode at most N files (0 = no limit)")
	encodeCmd.Flags().Bool("dry-run", false, "Show the queue without encoding")
	encodeCmd.Flags().Bool("no-report", false, "Skip the comparison report at the end")
}

func runEncodeCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noReport, _ := cmd.Flags().GetBool("no-report")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	store := media.NewStore(a.db)
	set := a.cfg.EncodeSettings()

	queue, err := selectForEncoding(store, args, set, limit)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		fmt.Println("Nothing to encode")
		return nil
	}

	if dryRun {
		printEncodeQueue(queue)
		return nil
	}

	bus := events.NewBus(events.NewEventLog(a.db), a.log.With("component", "events"))
	defer bus.Close()
	sub := bus.SubscribeAll(256)

	runner := proc.ExecRunner{}
	history := batch.NewHistory(a.db)
	sched := batch.NewScheduler(encode.New(runner, a.log.With("component", "encode")), batch.Deps{
		Prober:    probe.New(runner, a.log.With("component", "probe")),
		Store:     store,
		History:   history,
		Bus:       bus,
		Standards: a.cfg.MediaStandards(),
	}, a.log.With("component", "batch"))

	sess, err := sched.Start(cmd.Context(), queue, set)
	if err != nil {
		var cfgErr *batch.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Println("Cannot start encoding:")
			for _, p := range cfgErr.Problems {
				fmt.Printf("  - %s\n", p)
			}
			return fmt.Errorf("encoding not started")
		}
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nstopping encode...")
		sched.Stop()
	}()

	render := renderEvent
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		render = func(e events.Event) { enc.Encode(e) }
	}

loop:
	for {
		select {
		case e := <-sub:
			render(e)
		case <-sess.Done():
			break loop
		}
	}
	// Drain events that were still buffered when the session finished.
	for {
		select {
		case e := <-sub:
			render(e)
			continue
		default:
		}
		break
	}
	sess.Wait()

	if noReport || jsonOutput {
		return nil
	}
	row, jobs, err := history.BySession(sess.ID)
	if err != nil {
		return fmt.Errorf("load session history: %w", err)
	}
	fmt.Println()
	fmt.Println(batch.Report(row, jobs))
	return nil
}

// selectForEncoding pulls the records a batch would queue: everything
// under the given path prefixes, or all needs_reencoding and error
// records when no prefix is given.
func selectForEncoding(store *media.Store, prefixes []string, set encode.Settings, limit int) ([]*media.Record, error) {
	var candidates []*media.Record
	if len(prefixes) > 0 {
		for _, prefix := range prefixes {
			p := prefix
			recs, _, err := store.ListRecords(media.RecordFilter{PathPrefix: &p})
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, recs...)
		}
	} else {
		for _, status := range []media.Status{media.StatusNeedsReencoding, media.StatusError} {
			st := status
			recs, _, err := store.ListRecords(media.RecordFilter{Status: &st})
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, recs...)
		}
	}

	var queue []*media.Record
	for _, rec := range candidates {
		if !batch.Eligible(rec, set) {
			continue
		}
		queue = append(queue, rec)
		if limit > 0 && len(queue) == limit {
			break
		}
	}
	return queue, nil
}

func printEncodeQueue(queue []*media.Record) {
	fmt.Printf("Would encode %d files:\n\n", len(queue))
	fmt.Printf("  %-44s %-8s %-10s %s\n", "FILE", "CODEC", "SIZE", "STATUS")
	fmt.Println("  " + dashes(76))

	var total int64
	for _, rec := range queue {
		fmt.Printf("  %-44s %-8s %-10s %s\n",
			truncate(rec.Filename, 44), rec.Codec, formatBytes(rec.FileSizeBytes), rec.Status)
		total += rec.FileSizeBytes
	}
	fmt.Printf("\nTotal: %s\n", formatBytes(total))
}

// renderEvent prints one bus event for the live console view. Progress
// lines rewrite themselves with \r; everything else gets its own line.
func renderEvent(e events.Event) {
	switch ev := e.(type) {
	case *events.EncodingStart:
		fmt.Printf("Encoding %d files\n", ev.JobCount)
	case *events.FileStart:
		fmt.Printf("\n%s\n", ev.Filename)
	case *events.FileProgress:
		fmt.Printf("\r  %5.1f%%  %7.1f fps  ETA %s  |  batch %5.1f%%  ETA %s ",
			ev.Progress, ev.FPS, ev.ETA, ev.BatchProgress, ev.BatchETA)
	case *events.FileComplete:
		fmt.Println()
		if ev.Success {
			red := batch.FileReduction{OriginalSize: ev.OriginalSize, EncodedSize: ev.EncodedSize}
			fmt.Printf("  ok: %s -> %s (%+.1f%%)\n",
				formatBytes(ev.OriginalSize), formatBytes(ev.EncodedSize), red.Percent())
		} else {
			fmt.Println("  failed")
		}
	case *events.LogMessage:
		switch ev.LogType {
		case events.LogWarning, events.LogError, events.LogFFmpegError:
			fmt.Printf("  [%s] %s\n", ev.LogType, ev.Message)
		}
	case *events.EncodingComplete:
		fmt.Println("\nBatch complete")
	case *events.EncodingStopped:
		fmt.Println("\nBatch stopped")
	}
}
