package schedule

import (
	"time"

	"example.com/calendariko/internal/models"
)

// Conflict describes one existing event colliding with a proposed window
type Conflict struct {
	EventID string           `json:"event_id"`
	Title   string           `json:"title"`
	Type    models.EventType `json:"type"`
	Start   time.Time        `json:"start"`
	End     time.Time        `json:"end"`
}

// Overlaps reports whether an existing event window collides with the
// proposed [start, end] window. Bounds are treated inclusively on both ends,
// so an event ending exactly when the proposed window starts still counts as
// a conflict.
func Overlaps(eventStart, eventEnd, start, end time.Time) bool {
	return !eventStart.After(end) && !eventEnd.Before(start)
}

// FindConflicts scans candidate events of a single band for collisions with
// the proposed window. Events of every type collide under the same rule;
// excludeEventID skips the event being updated so it cannot conflict with
// itself.
func FindConflicts(candidates []models.Event, start, end time.Time, excludeEventID string) []Conflict {
	var conflicts []Conflict
	for _, e := range candidates {
		if excludeEventID != "" && e.ID == excludeEventID {
			continue
		}
		if Overlaps(e.Start, e.End, start, end) {
			conflicts = append(conflicts, Conflict{
				EventID: e.ID,
				Title:   e.Title,
				Type:    e.Type,
				Start:   e.Start,
				End:     e.End,
			})
		}
	}
	return conflicts
}
