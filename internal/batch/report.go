package batch

import (
	"fmt"
	"strings"
)

const reportBar = "============================================================"

// Report renders the comparison report for a session: one block per
// succeeded job plus an overall summary with the session's counts.
func Report(sess *SessionRow, jobs []*JobRow) string {
	var b strings.Builder
	b.WriteString(reportBar + "\n")
	b.WriteString("ENCODING COMPARISON REPORT\n")
	b.WriteString(reportBar + "\n")

	var origTotal, encTotal int64
	var pctSum float64
	count := 0
	for _, j := range jobs {
		if j.State != JobSucceeded {
			continue
		}
		count++
		origTotal += j.OriginalSize
		encTotal += j.EncodedSize
		pct := j.Reduction()
		pctSum += pct
		fmt.Fprintf(&b, "\nFile: %s\n", j.Filename)
		fmt.Fprintf(&b, "  Original:  %s\n", formatSize(j.OriginalSize))
		fmt.Fprintf(&b, "  Encoded:   %s\n", formatSize(j.EncodedSize))
		fmt.Fprintf(&b, "  Reduction: %+.2f%%\n", pct)
	}

	b.WriteString("\n" + reportBar + "\n")
	b.WriteString("OVERALL SUMMARY\n")
	b.WriteString(reportBar + "\n")
	fmt.Fprintf(&b, "Total Files: %d\n", count)
	fmt.Fprintf(&b, "Succeeded: %d  Failed: %d  Cancelled: %d\n",
		sess.Succeeded, sess.Failed, sess.Cancelled)
	fmt.Fprintf(&b, "Original Size: %s\n", formatSize(origTotal))
	fmt.Fprintf(&b, "Encoded Size: %s\n", formatSize(encTotal))

	var total, avg float64
	if origTotal > 0 {
		total = (1 - float64(encTotal)/float64(origTotal)) * 100
	}
	if count > 0 {
		avg = pctSum / float64(count)
	}
	fmt.Fprintf(&b, "Total Reduction: %+.2f%%\n", total)
	fmt.Fprintf(&b, "Average Reduction: %+.2f%%\n", avg)
	fmt.Fprintf(&b, "Space Saved: %s\n", formatSize(origTotal-encTotal))
	return b.String()
}

// formatSize renders bytes as MB below a gigabyte, GB at or above.
func formatSize(n int64) string {
	const gb = 1 << 30
	if n >= gb {
		return fmt.Sprintf("%.2f GB", float64(n)/gb)
	}
	return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
}
