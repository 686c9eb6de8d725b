// Package schedule converts a ranked posting list into the fixed drip
// cadence of future send times.
package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumina-beauty/lumina-offer/internal/salon"
)

// Past the cutoff the cadence shifts one day forward so the first offer
// never lands late at night on the registration day.
const (
	cutoffHour   = 19
	cutoffMinute = 30
)

type slot struct {
	dayOffset int
	hour      int
	minute    int
}

// The five-slot cadence relative to the first send day. Two offers share
// firstDay+1; every other day carries at most one.
var cadence = []slot{
	{0, 21, 30},
	{1, 12, 30},
	{1, 20, 0},
	{3, 12, 30},
	{4, 21, 30},
}

type Builder struct {
	location *time.Location
}

// NewBuilder creates a schedule builder for the service timezone.
func NewBuilder(location *time.Location) *Builder {
	return &Builder{location: location}
}

// Build assigns the cadence slots to the ranked postings in order, truncated
// to the shorter of the two. All entries start pending.
func (b *Builder) Build(userID string, ranked []*salon.Posting, now time.Time) []*salon.QueueEntry {
	now = now.In(b.location)

	firstDay := now
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), cutoffHour, cutoffMinute, 0, 0, b.location)
	if !now.Before(cutoff) {
		firstDay = firstDay.AddDate(0, 0, 1)
	}

	count := len(ranked)
	if count > len(cadence) {
		count = len(cadence)
	}

	entries := make([]*salon.QueueEntry, 0, count)
	for i := 0; i < count; i++ {
		s := cadence[i]
		day := firstDay.AddDate(0, 0, s.dayOffset)
		sendAt := time.Date(day.Year(), day.Month(), day.Day(), s.hour, s.minute, 0, 0, b.location)

		entries = append(entries, &salon.QueueEntry{
			ID:        uuid.NewString(),
			UserID:    userID,
			PostingID: ranked[i].ID,
			SendAt:    salon.FormatSendTime(sendAt),
			Status:    salon.QueuePending,
		})
	}

	return entries
}
