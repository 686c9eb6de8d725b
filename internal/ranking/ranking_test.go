package ranking

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/lumina-beauty/lumina-offer/internal/salon"
)

type fakeRanker struct {
	ids     []string
	err     error
	seen    *salon.Postings
	seenMax int
}

func (f *fakeRanker) Rank(_ context.Context, _ *salon.UserWishes, postings *salon.Postings, maxCount int) ([]string, error) {
	f.seen = postings
	f.seenMax = maxCount
	return f.ids, f.err
}

func postingAt(id string, distance float64) *salon.Posting {
	return &salon.Posting{ID: id, Distance: distance}
}

func TestNearestWithinFiveKmIsAlwaysFirst(t *testing.T) {
	ranker := &fakeRanker{ids: []string{"far", "near"}}
	svc := New(ranker, zap.NewNop())

	eligible := &salon.Postings{Items: []*salon.Posting{
		postingAt("far", 20.0),
		postingAt("near", 2.5),
		postingAt("nearer", 1.0),
	}}

	got := svc.SelectTop(context.Background(), eligible, &salon.UserWishes{UserID: "U1"}, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 postings, got %d", len(got))
	}
	if got[0].ID != "nearer" {
		t.Fatalf("expected the closest posting first, got %q", got[0].ID)
	}
	if got[1].ID != "far" || got[2].ID != "near" {
		t.Fatalf("expected ranked tail order preserved, got %q then %q", got[1].ID, got[2].ID)
	}
	if f := ranker.seen.FindByID("nearer"); f != nil {
		t.Fatal("expected the deterministic pick to be excluded from the ranked pool")
	}
}

func TestNearestTieBrokenByOriginalOrder(t *testing.T) {
	svc := New(&fakeRanker{}, zap.NewNop())

	eligible := &salon.Postings{Items: []*salon.Posting{
		postingAt("first", 3.0),
		postingAt("second", 3.0),
	}}

	got := svc.SelectTop(context.Background(), eligible, &salon.UserWishes{}, 1)
	if len(got) != 1 || got[0].ID != "first" {
		t.Fatalf("expected the earlier posting to win the tie, got %v", got)
	}
}

func TestRankerFailureKeepsDeterministicPick(t *testing.T) {
	ranker := &fakeRanker{err: errors.New("quota exceeded")}
	svc := New(ranker, zap.NewNop())

	eligible := &salon.Postings{Items: []*salon.Posting{
		postingAt("near", 1.2),
		postingAt("far", 15.0),
	}}

	got := svc.SelectTop(context.Background(), eligible, &salon.UserWishes{UserID: "U1"}, 5)
	if len(got) != 1 || got[0].ID != "near" {
		t.Fatalf("expected the deterministic pick alone, got %v", got)
	}
}

func TestUnknownRankedIDsAreSkipped(t *testing.T) {
	ranker := &fakeRanker{ids: []string{"ghost", "real"}}
	svc := New(ranker, zap.NewNop())

	eligible := &salon.Postings{Items: []*salon.Posting{
		postingAt("real", 12.0),
	}}

	got := svc.SelectTop(context.Background(), eligible, &salon.UserWishes{}, 5)
	if len(got) != 1 || got[0].ID != "real" {
		t.Fatalf("expected only the known posting, got %v", got)
	}
}

func TestNoNearestPickWhenAllBeyondFiveKm(t *testing.T) {
	ranker := &fakeRanker{ids: []string{"b", "a"}}
	svc := New(ranker, zap.NewNop())

	eligible := &salon.Postings{Items: []*salon.Posting{
		postingAt("a", 10.0),
		postingAt("b", 8.0),
	}}

	got := svc.SelectTop(context.Background(), eligible, &salon.UserWishes{}, 5)
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("expected pure ranked order, got %v", got)
	}
}

func TestMaxCountBoundsSelection(t *testing.T) {
	ranker := &fakeRanker{ids: []string{"a", "b", "c"}}
	svc := New(ranker, zap.NewNop())

	eligible := &salon.Postings{Items: []*salon.Posting{
		postingAt("near", 1.0),
		postingAt("a", 10.0),
		postingAt("b", 10.0),
		postingAt("c", 10.0),
	}}

	got := svc.SelectTop(context.Background(), eligible, &salon.UserWishes{}, 2)
	if len(got) != 2 || got[0].ID != "near" || got[1].ID != "a" {
		t.Fatalf("expected nearest plus one ranked posting, got %v", got)
	}
	if ranker.seenMax != 1 {
		t.Fatalf("expected the ranker to receive the remaining slot budget, got %d", ranker.seenMax)
	}
}
