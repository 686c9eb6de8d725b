package ai

import (
	"context"

	"github.com/lumina-beauty/lumina-offer/internal/salon"
)

// Ranker orders eligible postings by fit for a candidate, best first.
// maxCount is the number of ids the caller can still use. The returned slice
// contains posting ids; ids unknown to the caller's pool are dropped by the
// caller, not treated as errors.
type Ranker interface {
	Rank(ctx context.Context, user *salon.UserWishes, postings *salon.Postings, maxCount int) ([]string, error)
}

// Composer drafts the scouting message for one (candidate, posting) pair.
type Composer interface {
	ComposeOffer(ctx context.Context, user *salon.UserWishes, posting *salon.Posting) (string, error)
}
