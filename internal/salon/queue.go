package salon

import "time"

// Queue entry statuses. An entry is written once as pending and transitions
// exactly once to sent or error after its send time has passed.
const (
	QueuePending = "pending"
	QueueSent    = "sent"
	QueueError   = "error"
)

// SendTimeLayout is the stored format for scheduled send times. All stored
// times share the single service timezone offset, so the zero-padded layout
// keeps lexical comparison consistent with chronological order.
const SendTimeLayout = "2006-01-02T15:04:05-07:00"

// QueueEntry is one scheduled offer delivery.
type QueueEntry struct {
	ID        string
	UserID    string
	PostingID string
	SendAt    string
	Status    string
}

// Due reports whether the entry is pending with a send time at or before now.
// Comparison is lexical, which SendTimeLayout makes ordering-safe.
func (e *QueueEntry) Due(now string) bool {
	return e.Status == QueuePending && e.SendAt <= now
}

// FormatSendTime renders t in the stored send-time format.
func FormatSendTime(t time.Time) string {
	return t.Format(SendTimeLayout)
}
