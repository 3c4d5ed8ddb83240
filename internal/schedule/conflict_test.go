package schedule

import (
	"testing"
	"time"

	"example.com/calendariko/internal/models"

	"github.com/stretchr/testify/require"
)

func day(d int, hour int) time.Time {
	return time.Date(2026, time.September, d, hour, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name       string
		eventStart time.Time
		eventEnd   time.Time
		start      time.Time
		end        time.Time
		want       bool
	}{
		{
			name:       "fully inside",
			eventStart: day(1, 10), eventEnd: day(1, 12),
			start: day(1, 9), end: day(1, 13),
			want: true,
		},
		{
			name:       "fully containing",
			eventStart: day(1, 9), eventEnd: day(1, 13),
			start: day(1, 10), end: day(1, 12),
			want: true,
		},
		{
			name:       "partial overlap at start",
			eventStart: day(1, 8), eventEnd: day(1, 11),
			start: day(1, 10), end: day(1, 14),
			want: true,
		},
		{
			name:       "touching at the boundary still conflicts",
			eventStart: day(1, 8), eventEnd: day(1, 10),
			start: day(1, 10), end: day(1, 12),
			want: true,
		},
		{
			name:       "touching at the other boundary still conflicts",
			eventStart: day(1, 12), eventEnd: day(1, 14),
			start: day(1, 10), end: day(1, 12),
			want: true,
		},
		{
			name:       "strictly before",
			eventStart: day(1, 6), eventEnd: day(1, 8),
			start: day(1, 9), end: day(1, 11),
			want: false,
		},
		{
			name:       "strictly after",
			eventStart: day(2, 10), eventEnd: day(2, 12),
			start: day(1, 9), end: day(1, 11),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Overlaps(tt.eventStart, tt.eventEnd, tt.start, tt.end))
		})
	}
}

func TestFindConflicts(t *testing.T) {
	candidates := []models.Event{
		{
			Model: models.Model{ID: "evt-1"},
			Title: "Live in Milano",
			Type:  models.EventTypeConcert,
			Start: day(1, 20), End: day(1, 23),
		},
		{
			Model: models.Model{ID: "evt-2"},
			Title: "Vacanze",
			Type:  models.EventTypeUnavailable,
			Start: day(5, 0), End: day(5, 23),
		},
	}

	t.Run("returns every colliding event", func(t *testing.T) {
		conflicts := FindConflicts(candidates, day(1, 22), day(5, 10), "")
		require.Len(t, conflicts, 2)
		require.Equal(t, "evt-1", conflicts[0].EventID)
		require.Equal(t, "evt-2", conflicts[1].EventID)
	})

	t.Run("unavailability collides like any other type", func(t *testing.T) {
		conflicts := FindConflicts(candidates, day(5, 10), day(5, 12), "")
		require.Len(t, conflicts, 1)
		require.Equal(t, models.EventTypeUnavailable, conflicts[0].Type)
	})

	t.Run("excludes the event being updated", func(t *testing.T) {
		conflicts := FindConflicts(candidates, day(1, 20), day(1, 23), "evt-1")
		require.Empty(t, conflicts)
	})

	t.Run("no collision in a free window", func(t *testing.T) {
		conflicts := FindConflicts(candidates, day(3, 10), day(3, 12), "")
		require.Empty(t, conflicts)
	})
}
