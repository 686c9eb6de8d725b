// Package dispatch drains due offer queue entries and delivers the scouting
// messages.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lumina-beauty/lumina-offer/internal/ai"
	"github.com/lumina-beauty/lumina-offer/internal/line"
	"github.com/lumina-beauty/lumina-offer/internal/salon"
	"github.com/lumina-beauty/lumina-offer/internal/store"
)

// Fallback offer text used when message generation fails. The delivery
// itself must not be lost over a drafting error.
const fallbackOfferText = "LUMINA Offerから、あなたに特別なオファーが届いています。" +
	"あなたのご希望にぴったりのサロンが見つかりました。まずは、サロンから話を聞いてみませんか？"

// Pusher is the outbound messaging capability the sweeper needs.
type Pusher interface {
	Push(ctx context.Context, userID string, messages ...line.Message) error
}

// Sweeper delivers every due pending queue entry exactly once. Entries are
// isolated from each other: one failing delivery is marked error and the
// sweep moves on.
type Sweeper struct {
	users          store.Users
	postings       store.Postings
	history        store.History
	queue          store.Queue
	composer       ai.Composer
	pusher         Pusher
	scheduleLiffID string
	location       *time.Location
	logger         *zap.Logger
}

func NewSweeper(
	users store.Users,
	postings store.Postings,
	history store.History,
	queue store.Queue,
	composer ai.Composer,
	pusher Pusher,
	scheduleLiffID string,
	location *time.Location,
	logger *zap.Logger,
) *Sweeper {
	return &Sweeper{
		users:          users,
		postings:       postings,
		history:        history,
		queue:          queue,
		composer:       composer,
		pusher:         pusher,
		scheduleLiffID: scheduleLiffID,
		location:       location,
		logger:         logger,
	}
}

// Sweep processes all entries due at now and returns how many it handled.
// Re-running a completed sweep is a no-op: delivered and failed entries have
// left the pending status and are never picked up again.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := salon.FormatSendTime(now.In(s.location))

	due, err := s.queue.PendingBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("read pending queue entries: %w", err)
	}

	s.logger.Info("queue sweep started",
		zap.String("cutoff", cutoff),
		zap.Int("due", len(due)),
	)

	processed := 0
	for _, entry := range due {
		if err := s.deliver(ctx, entry, now); err != nil {
			s.logger.Warn("offer delivery failed",
				zap.String("entry_id", entry.ID),
				zap.String("user_id", entry.UserID),
				zap.String("posting_id", entry.PostingID),
				zap.Error(err),
			)
			s.markError(ctx, entry)
			processed++
			continue
		}
		processed++
	}

	return processed, nil
}

func (s *Sweeper) deliver(ctx context.Context, entry *salon.QueueEntry, now time.Time) error {
	user, err := s.users.Get(ctx, entry.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("user %s no longer exists", entry.UserID)
		}
		return fmt.Errorf("load user: %w", err)
	}

	posting, err := s.postings.Get(ctx, entry.PostingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("posting %s no longer exists", entry.PostingID)
		}
		return fmt.Errorf("load posting: %w", err)
	}

	offerText, err := s.composer.ComposeOffer(ctx, user, posting)
	if err != nil {
		s.logger.Warn("offer text generation failed, using fallback",
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
		offerText = fallbackOfferText
	}

	card := line.OfferCard(posting, offerText, s.scheduleLiffID)
	if err := s.pusher.Push(ctx, entry.UserID, card); err != nil {
		return fmt.Errorf("push offer card: %w", err)
	}

	historyEntry := &salon.OfferHistoryEntry{
		UserID:    entry.UserID,
		PostingID: entry.PostingID,
		SentDate:  now.In(s.location).Format("2006/01/02"),
		Status:    salon.OfferSent,
	}
	if err := s.history.Append(ctx, historyEntry); err != nil {
		// The card is already out; keep going so the entry leaves the
		// pending status and is not re-sent on the next sweep.
		s.logger.Error("offer history append failed after delivery",
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
	}

	if err := s.queue.MarkSent(ctx, entry.ID); err != nil {
		return fmt.Errorf("mark entry sent: %w", err)
	}

	s.logger.Info("offer delivered",
		zap.String("entry_id", entry.ID),
		zap.String("user_id", entry.UserID),
		zap.String("posting_id", entry.PostingID),
	)

	return nil
}

func (s *Sweeper) markError(ctx context.Context, entry *salon.QueueEntry) {
	if err := s.queue.MarkError(ctx, entry.ID); err != nil {
		s.logger.Error("mark entry error failed",
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
	}
}
