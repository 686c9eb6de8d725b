// Package ranking orders a candidate's eligible postings: a deterministic
// nearest pick first, then an AI-ranked tail.
package ranking

import (
	"context"

	"go.uber.org/zap"

	"github.com/lumina-beauty/lumina-offer/internal/ai"
	"github.com/lumina-beauty/lumina-offer/internal/salon"
)

const (
	// DefaultMaxCount bounds how many offers one registration can queue.
	DefaultMaxCount = 5
	// nearestPickKm is the radius within which the closest posting is promoted
	// ahead of the AI ranking.
	nearestPickKm = 5.0
)

type Service struct {
	ranker ai.Ranker
	logger *zap.Logger
}

func New(ranker ai.Ranker, logger *zap.Logger) *Service {
	return &Service{ranker: ranker, logger: logger}
}

// SelectTop returns at most maxCount postings, best first. The closest
// posting within 5 km (ties broken by original order) is always first when
// one exists; the remaining slots are filled from the AI ranking. A ranker
// failure degrades to the deterministic pick alone and is never propagated.
func (s *Service) SelectTop(ctx context.Context, eligible *salon.Postings, user *salon.UserWishes, maxCount int) []*salon.Posting {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}

	selected := make([]*salon.Posting, 0, maxCount)
	pool := &salon.Postings{Items: append([]*salon.Posting(nil), eligible.Items...)}

	if pick := nearestWithin(pool, nearestPickKm); pick != nil {
		selected = append(selected, pick)
		pool.Remove(pick.ID)

		s.logger.Info("deterministic nearest pick",
			zap.String("posting_id", pick.ID),
			zap.Float64("distance_km", pick.Distance),
		)
	}

	if len(selected) >= maxCount || pool.Len() == 0 || s.ranker == nil {
		return selected
	}

	ids, err := s.ranker.Rank(ctx, user, pool, maxCount-len(selected))
	if err != nil {
		s.logger.Warn("ranking capability failed, keeping deterministic pick only",
			zap.String("user_id", user.UserID),
			zap.Error(err),
		)
		return selected
	}

	for _, id := range ids {
		if len(selected) >= maxCount {
			break
		}
		posting := pool.FindByID(id)
		if posting == nil {
			// The model may echo ids outside the pool; drop them silently.
			s.logger.Debug("ranked id not in pool", zap.String("posting_id", id))
			continue
		}
		selected = append(selected, posting)
		pool.Remove(id)
	}

	return selected
}

// nearestWithin returns the closest posting with Distance <= maxKm, ties
// broken by original order. Nil when none qualifies.
func nearestWithin(p *salon.Postings, maxKm float64) *salon.Posting {
	var nearest *salon.Posting
	for _, posting := range p.Items {
		if posting.Distance > maxKm {
			continue
		}
		if nearest == nil || posting.Distance < nearest.Distance {
			nearest = posting
		}
	}
	return nearest
}
