// Package offer runs the registration pipeline: from a submitted profile to
// a scheduled queue of salon offers.
package offer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lumina-beauty/lumina-offer/internal/dispatch"
	"github.com/lumina-beauty/lumina-offer/internal/geo"
	"github.com/lumina-beauty/lumina-offer/internal/line"
	"github.com/lumina-beauty/lumina-offer/internal/matching"
	"github.com/lumina-beauty/lumina-offer/internal/ranking"
	"github.com/lumina-beauty/lumina-offer/internal/salon"
	"github.com/lumina-beauty/lumina-offer/internal/schedule"
	"github.com/lumina-beauty/lumina-offer/internal/store"
)

const welcomeMessage = "ご登録いただき、誠にありがとうございます！\n" +
	"LUMINA Offerが、あなたにプロフィールを拝見してピッタリな『好待遇サロンの公認オファー』を、このLINEアカウントを通じてご連絡いたします。\n" +
	"楽しみにお待ちください！"

// Service turns a registration into pending queue entries. Every stage
// degrades or stops on its own terms; the caller only ever sees a fast
// acknowledgment.
type Service struct {
	users    store.Users
	postings store.Postings
	history  store.History
	queue    store.Queue
	resolver geo.Resolver
	ranking  *ranking.Service
	builder  *schedule.Builder
	pusher   dispatch.Pusher
	logger   *zap.Logger
}

func NewService(
	users store.Users,
	postings store.Postings,
	history store.History,
	queue store.Queue,
	resolver geo.Resolver,
	rankingService *ranking.Service,
	builder *schedule.Builder,
	pusher dispatch.Pusher,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:    users,
		postings: postings,
		history:  history,
		queue:    queue,
		resolver: resolver,
		ranking:  rankingService,
		builder:  builder,
		pusher:   pusher,
		logger:   logger,
	}
}

// Register processes one submitted profile end to end. It is designed to run
// in the background after the HTTP handler has already acknowledged receipt,
// so it reports nothing and logs everything.
func (s *Service) Register(ctx context.Context, user *salon.UserWishes, now time.Time) {
	log := s.logger.With(zap.String("user_id", user.UserID))

	s.sendWelcome(ctx, user.UserID, log)

	user.DeriveAgeBand(now)

	if err := s.users.Upsert(ctx, user); err != nil {
		// The matching run can still complete from the in-memory
		// profile, so a failed write does not stop the pipeline.
		log.Error("user profile write failed", zap.Error(err))
	}

	coords, err := s.resolver.Resolve(ctx, user.Prefecture, user.DetailArea)
	if err != nil {
		if errors.Is(err, geo.ErrNotFound) {
			log.Info("no offers scheduled",
				zap.String("reason", "希望勤務地を特定できませんでした。"),
				zap.String("prefecture", user.Prefecture),
				zap.String("detail", user.DetailArea),
			)
			return
		}
		log.Error("geocoding failed", zap.Error(err))
		return
	}

	postings, err := s.postings.All(ctx)
	if err != nil {
		log.Error("posting master read failed", zap.Error(err))
		return
	}

	history, err := s.history.ListByUser(ctx, user.UserID)
	if err != nil {
		log.Error("offer history read failed", zap.Error(err))
		return
	}

	origin := matching.Origin{Latitude: coords.Latitude, Longitude: coords.Longitude}
	eligible, reason := matching.ForUser(user, origin, history, log).Run(postings)
	if eligible.Len() == 0 {
		log.Info("no offers scheduled", zap.String("reason", reason))
		return
	}

	ranked := s.ranking.SelectTop(ctx, eligible, user, ranking.DefaultMaxCount)
	if len(ranked) == 0 {
		log.Info("no offers scheduled", zap.String("reason", "対象サロンの選定結果が空でした。"))
		return
	}

	entries := s.builder.Build(user.UserID, ranked, now)
	if err := s.queue.Enqueue(ctx, entries); err != nil {
		log.Error("queue write failed", zap.Error(err))
		return
	}

	log.Info("offers scheduled",
		zap.Int("count", len(entries)),
		zap.Strings("posting_ids", postingIDs(ranked)),
		zap.String("first_send_at", entries[0].SendAt),
	)
}

func (s *Service) sendWelcome(ctx context.Context, userID string, log *zap.Logger) {
	if err := s.pusher.Push(ctx, userID, line.TextMessage(welcomeMessage)); err != nil {
		log.Warn("welcome message push failed", zap.Error(err))
	}
}

func postingIDs(postings []*salon.Posting) []string {
	ids := make([]string, 0, len(postings))
	for _, p := range postings {
		ids = append(ids, p.ID)
	}
	return ids
}
