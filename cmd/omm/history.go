package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/omm/internal/batch"
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Past encoding sessions",
	Long: `List recent encoding sessions, or show one session's jobs.

Examples:
  omm history                   # Recent sessions
  omm history 3f2a9c81-...      # One session's jobs
  omm history --report          # Comparison report for the latest session`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistoryCmd,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 10, "Number of sessions to list")
	historyCmd.Flags().Bool("report", false, "Print the comparison report instead of the job table")
}

// SessionJSON is the JSON shape of a persisted session.
type SessionJSON struct {
	ID          string     `json:"id"`
	State       string     `json:"state"`
	TotalJobs   int        `json:"total_jobs"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	Cancelled   int        `json:"cancelled"`
	BytesBefore int64      `json:"bytes_before"`
	BytesAfter  int64      `json:"bytes_after"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// JobJSON is the JSON shape of a persisted job attempt.
type JobJSON struct {
	ID           string     `json:"id"`
	Path         string     `json:"path"`
	Filename     string     `json:"filename"`
	State        string     `json:"state"`
	Error        string     `json:"error,omitempty"`
	OriginalSize int64      `json:"original_size"`
	EncodedSize  int64      `json:"encoded_size"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

func toSessionJSON(row *batch.SessionRow) SessionJSON {
	return SessionJSON{
		ID:          row.ID,
		State:       string(row.State),
		TotalJobs:   row.TotalJobs,
		Succeeded:   row.Succeeded,
		Failed:      row.Failed,
		Cancelled:   row.Cancelled,
		BytesBefore: row.BytesBefore,
		BytesAfter:  row.BytesAfter,
		StartedAt:   row.StartedAt,
		FinishedAt:  row.FinishedAt,
	}
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	report, _ := cmd.Flags().GetBool("report")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	history := batch.NewHistory(a.db)

	sessionID := ""
	if len(args) > 0 {
		sessionID = args[0]
	}
	if sessionID == "" && report {
		recent, err := history.Recent(1)
		if err != nil {
			return err
		}
		if len(recent) == 0 {
			fmt.Println("No encoding sessions yet")
			return nil
		}
		sessionID = recent[0].ID
	}

	if sessionID != "" {
		return showSession(history, sessionID, report)
	}

	sessions, err := history.Recent(limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		rows := make([]SessionJSON, len(sessions))
		for i, row := range sessions {
			rows[i] = toSessionJSON(row)
		}
		printJSON(rows)
		return nil
	}

	if len(sessions) == 0 {
		fmt.Println("No encoding sessions yet")
		return nil
	}

	fmt.Printf("Sessions (%d):\n\n", len(sessions))
	fmt.Printf("  %-12s %-10s %-5s %-4s %-5s %-10s %s\n",
		"STARTED", "STATE", "JOBS", "OK", "FAIL", "SAVED", "ID")
	fmt.Println("  " + dashes(86))

	for _, row := range sessions {
		fmt.Printf("  %-12s %-10s %-5d %-4d %-5d %-10s %s\n",
			formatTimeAgo(row.StartedAt.Unix()),
			row.State,
			row.TotalJobs,
			row.Succeeded,
			row.Failed,
			formatBytes(row.BytesBefore-row.BytesAfter),
			shortID(row.ID))
	}
	fmt.Println("\nUse 'omm history <session-id>' for details")
	return nil
}

func showSession(history *batch.History, id string, report bool) error {
	row, jobs, err := history.BySession(id)
	if err != nil {
		return err
	}

	if report && !jsonOutput {
		fmt.Println(batch.Report(row, jobs))
		return nil
	}

	if jsonOutput {
		jj := make([]JobJSON, len(jobs))
		for i, job := range jobs {
			jj[i] = JobJSON{
				ID:           job.ID,
				Path:         job.Path,
				Filename:     job.Filename,
				State:        string(job.State),
				Error:        job.ErrorMessage,
				OriginalSize: job.OriginalSize,
				EncodedSize:  job.EncodedSize,
				StartedAt:    job.StartedAt,
				FinishedAt:   job.FinishedAt,
			}
		}
		printJSON(map[string]any{"session": toSessionJSON(row), "jobs": jj})
		return nil
	}

	fmt.Printf("Session %s (%s)\n", shortID(row.ID), row.State)
	fmt.Printf("Started:  %s\n", row.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if row.FinishedAt != nil {
		fmt.Printf("Finished: %s\n", row.FinishedAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Println()

	fmt.Printf("  %-44s %-10s %-10s %-10s %s\n", "FILE", "STATE", "ORIGINAL", "ENCODED", "REDUCTION")
	fmt.Println("  " + dashes(88))
	for _, job := range jobs {
		reduction := "-"
		if job.State == batch.JobSucceeded {
			reduction = fmt.Sprintf("%+.1f%%", job.Reduction())
		}
		fmt.Printf("  %-44s %-10s %-10s %-10s %s\n",
			truncate(job.Filename, 44),
			job.State,
			formatBytes(job.OriginalSize),
			formatBytes(job.EncodedSize),
			reduction)
		if job.ErrorMessage != "" {
			fmt.Printf("    error: %s\n", job.ErrorMessage)
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatTimeAgo renders a unix timestamp as a relative time.
func formatTimeAgo(unixTime int64) string {
	if unixTime == 0 {
		return "never"
	}

	t := time.Unix(unixTime, 0)
	ago := time.Since(t)

	switch {
	case ago < time.Minute:
		return "just now"
	case ago < time.Hour:
		mins := int(ago.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case ago < 24*time.Hour:
		hours := int(ago.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	default:
		days := int(ago.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	}
}
