package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/lumina-beauty/lumina-offer/internal/salon"
)

type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (s *stubGenerator) GenerateContent(_ context.Context, _ string, message string) (string, error) {
	s.prompts = append(s.prompts, message)
	return s.response, s.err
}

func testPostings() *salon.Postings {
	return &salon.Postings{Items: []*salon.Posting{
		{ID: "S1", Name: "サロンA"},
		{ID: "S2", Name: "サロンB"},
	}}
}

func TestRankParsesPlainJSON(t *testing.T) {
	gen := &stubGenerator{response: `{"ranked_store_ids": ["S2", "S1"]}`}
	a := NewAssistant(gen, 0, zap.NewNop())

	ids, err := a.Rank(context.Background(), &salon.UserWishes{UserID: "U1"}, testPostings(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "S2" || ids[1] != "S1" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestRankParsesCodeFencedJSON(t *testing.T) {
	gen := &stubGenerator{response: "```json\n{\"ranked_store_ids\": [\"S1\"]}\n```"}
	a := NewAssistant(gen, 0, zap.NewNop())

	ids, err := a.Rank(context.Background(), &salon.UserWishes{}, testPostings(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "S1" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestRankCoercesNumericIDs(t *testing.T) {
	gen := &stubGenerator{response: `{"ranked_store_ids": [102, "103"]}`}
	a := NewAssistant(gen, 0, zap.NewNop())

	ids, err := a.Rank(context.Background(), &salon.UserWishes{}, testPostings(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "102" || ids[1] != "103" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestRankSurroundingProse(t *testing.T) {
	gen := &stubGenerator{response: "以下がランキングです。\n{\"ranked_store_ids\": [\"S2\"]}\n参考まで。"}
	a := NewAssistant(gen, 0, zap.NewNop())

	ids, err := a.Rank(context.Background(), &salon.UserWishes{}, testPostings(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "S2" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestRankMalformedResponse(t *testing.T) {
	gen := &stubGenerator{response: "これはJSONではありません"}
	a := NewAssistant(gen, 0, zap.NewNop())

	if _, err := a.Rank(context.Background(), &salon.UserWishes{}, testPostings(), 2); err == nil {
		t.Fatal("expected error for a malformed response")
	}
}

func TestRankGeneratorErrorPropagates(t *testing.T) {
	gen := &stubGenerator{err: errors.New("unavailable")}
	a := NewAssistant(gen, 0, zap.NewNop())

	if _, err := a.Rank(context.Background(), &salon.UserWishes{}, testPostings(), 2); err == nil {
		t.Fatal("expected generator error to propagate")
	}
}

func TestRankEmptyPoolShortCircuits(t *testing.T) {
	gen := &stubGenerator{}
	a := NewAssistant(gen, 0, zap.NewNop())

	ids, err := a.Rank(context.Background(), &salon.UserWishes{}, &salon.Postings{}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids != nil {
		t.Fatalf("expected nil ids for an empty pool, got %v", ids)
	}
	if len(gen.prompts) != 0 {
		t.Fatal("expected no generator call for an empty pool")
	}
}

func TestRankPromptCarriesProfileAndPostings(t *testing.T) {
	gen := &stubGenerator{response: `{"ranked_store_ids": []}`}
	a := NewAssistant(gen, 0, zap.NewNop())

	user := &salon.UserWishes{UserID: "U1", Role: "スタイリスト"}
	if _, err := a.Rank(context.Background(), user, testPostings(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gen.prompts) != 1 {
		t.Fatalf("expected one prompt, got %d", len(gen.prompts))
	}
	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "スタイリスト") || !strings.Contains(prompt, "サロンA") {
		t.Fatal("expected the prompt to embed the profile and postings")
	}
	if strings.Contains(prompt, "{{PROFILE_JSON}}") || strings.Contains(prompt, "{{POSTINGS_JSON}}") || strings.Contains(prompt, "{{MAX_COUNT}}") {
		t.Fatal("expected all placeholders to be replaced")
	}
	if !strings.Contains(prompt, "最大1件") {
		t.Fatal("expected the prompt to carry the caller's remaining slot budget")
	}
}

func TestRankClampsMaxCountToPool(t *testing.T) {
	gen := &stubGenerator{response: `{"ranked_store_ids": []}`}
	a := NewAssistant(gen, 0, zap.NewNop())

	if _, err := a.Rank(context.Background(), &salon.UserWishes{}, testPostings(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.prompts[0], "最大2件") {
		t.Fatal("expected the budget to be clamped to the pool size")
	}
}

func TestComposeOfferStripsCodeFence(t *testing.T) {
	gen := &stubGenerator{response: "```\nオファー本文です。\n```"}
	a := NewAssistant(gen, 0, zap.NewNop())

	text, err := a.ComposeOffer(context.Background(), &salon.UserWishes{UserID: "U1"}, &salon.Posting{ID: "S1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "オファー本文です。" {
		t.Fatalf("unexpected offer text: %q", text)
	}
}

func TestComposeOfferEmptyResponse(t *testing.T) {
	gen := &stubGenerator{response: "   "}
	a := NewAssistant(gen, 0, zap.NewNop())

	if _, err := a.ComposeOffer(context.Background(), &salon.UserWishes{}, &salon.Posting{}); err == nil {
		t.Fatal("expected error for an empty offer message")
	}
}
