// Package store defines the row-store capabilities the pipeline depends on.
// The interfaces are deliberately narrow so the core logic can be tested
// with in-memory stand-ins.
package store

import (
	"context"
	"errors"

	"github.com/lumina-beauty/lumina-offer/internal/salon"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("row not found")

// Users holds candidate profiles keyed by LINE user id.
type Users interface {
	Get(ctx context.Context, userID string) (*salon.UserWishes, error)
	Upsert(ctx context.Context, user *salon.UserWishes) error
	SaveQuestionnaire(ctx context.Context, userID string, q *salon.Questionnaire) error
}

// Postings exposes the salon posting master, read-only.
type Postings interface {
	All(ctx context.Context) (*salon.Postings, error)
	Get(ctx context.Context, postingID string) (*salon.Posting, error)
}

// History is the offer audit trail and exclusion set.
type History interface {
	ListByUser(ctx context.Context, userID string) ([]*salon.OfferHistoryEntry, error)
	Append(ctx context.Context, entry *salon.OfferHistoryEntry) error
	MarkScheduling(ctx context.Context, userID, postingID string, iv *salon.Interview) error
}

// Queue is the durable offer dispatch queue. Entries are appended in batch
// and only their status is ever mutated afterwards.
type Queue interface {
	Enqueue(ctx context.Context, entries []*salon.QueueEntry) error
	// PendingBefore returns pending entries with a send time at or before
	// now, in stored order.
	PendingBefore(ctx context.Context, now string) ([]*salon.QueueEntry, error)
	MarkSent(ctx context.Context, id string) error
	MarkError(ctx context.Context, id string) error
}
