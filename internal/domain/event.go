package domain

import "strings"

// Provenance values stamped on every event at insert time.
const (
	SourceManual     = "manual"
	SourceCSVImport  = "csv_import"
	SourceJSONImport = "json_import"
)

// Event is one logged occurrence. Timestamp and CreatedAt are epoch
// milliseconds; CreatedAt is assigned once at insert and never changes.
type Event struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Timestamp int64      `json:"timestamp"`
	EventType string     `json:"event_type"`
	Data      *EventData `json:"data,omitempty"`
	Tags      []string   `json:"tags"`
	Source    string     `json:"source"`
	CreatedAt int64      `json:"created_at"`
}

// CreateEventParams carries a fully normalized event into the store.
// Timestamp defaulting happens in the caller, where an absent value is still
// distinguishable from a literal zero.
type CreateEventParams struct {
	OwnerID   string
	EventType string
	Timestamp int64
	Data      *EventData
	Tags      []string
	Source    string
}

// UpdateEventParams is a partial update: nil fields are left untouched, a
// non-nil Data replaces the stored mapping wholesale.
type UpdateEventParams struct {
	EventType *string
	Timestamp *int64
	Data      *EventData
	Tags      *[]string
}

// EventFilter narrows a list query. Start and End bound Timestamp
// inclusively; Tags uses intersection semantics (every tag must be present).
type EventFilter struct {
	EventType string
	Start     *int64
	End       *int64
	Tags      []string
	Limit     int
	Offset    int
}

// NormalizeTags trims whitespace, drops empty entries, and collapses
// duplicates while preserving first-occurrence order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
