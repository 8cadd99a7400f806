package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/omm/internal/batch"
	"github.com/vmunix/omm/internal/events"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent events",
	Long: `Show the most recent entries from the persisted event log: scan
messages, batch lifecycle, and per-file encode outcomes.`,
	RunE: runEventsCmd,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	eventsCmd.Flags().String("entity", "", "Entity type to filter on (session, file, scan), requires --id")
	eventsCmd.Flags().String("id", "", "Entity ID to filter on, requires --entity")
	eventsCmd.MarkFlagsRequiredTogether("entity", "id")
}

// EventJSON is the JSON shape of a persisted event log entry.
type EventJSON struct {
	ID         int64           `json:"id"`
	EventType  string          `json:"event_type"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt string          `json:"occurred_at"`
}

func runEventsCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	entity, _ := cmd.Flags().GetString("entity")
	entityID, _ := cmd.Flags().GetString("id")

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	log := events.NewEventLog(a.db)

	var items []events.RawEvent
	if entity != "" {
		items, err = log.ForEntity(entity, entityID)
		if err == nil && limit > 0 && len(items) > limit {
			items = items[len(items)-limit:]
		}
	} else {
		items, err = log.Recent(limit)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		rows := make([]EventJSON, len(items))
		for i, e := range items {
			rows[i] = EventJSON{
				ID:         e.ID,
				EventType:  e.EventType,
				EntityType: e.EntityType,
				EntityID:   e.EntityID,
				Payload:    json.RawMessage(e.Payload),
				OccurredAt: e.OccurredAt.Format(time.RFC3339),
			}
		}
		printJSON(rows)
		return nil
	}

	if len(items) == 0 {
		fmt.Println("No events")
		return nil
	}

	fmt.Printf("Recent Events (%d):\n\n", len(items))
	fmt.Printf("  %-12s %-18s %-14s %s\n", "TIME", "TYPE", "ENTITY", "DETAIL")
	fmt.Println("  " + dashes(80))

	for _, e := range items {
		label := e.EntityType
		if e.EntityID != "" {
			label = fmt.Sprintf("%s/%s", e.EntityType, shortID(e.EntityID))
		}
		fmt.Printf("  %-12s %-18s %-14s %s\n",
			formatTimeAgo(e.OccurredAt.Unix()), e.EventType, label, eventDetail(e))
	}
	return nil
}

// eventDetail summarizes a typed payload for the table. Entries that
// fail to decode render without detail rather than erroring the listing.
func eventDetail(raw events.RawEvent) string {
	event, err := events.Decode(raw)
	if err != nil {
		return ""
	}
	switch p := event.(type) {
	case *events.EncodingStart:
		return fmt.Sprintf("%d jobs", p.JobCount)
	case *events.FileStart:
		return truncate(p.Filename, 44)
	case *events.FileProgress:
		return fmt.Sprintf("%s %.1f%%", truncate(p.Filename, 36), p.Progress)
	case *events.FileComplete:
		if !p.Success {
			return truncate(p.Filename, 36) + " failed"
		}
		red := batch.FileReduction{OriginalSize: p.OriginalSize, EncodedSize: p.EncodedSize}
		return fmt.Sprintf("%s %+.1f%%", truncate(p.Filename, 36), red.Percent())
	case *events.LogMessage:
		return truncate(p.Message, 50)
	}
	return ""
}
