package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/lumina-beauty/lumina-offer/internal/logger"
	"github.com/lumina-beauty/lumina-offer/internal/salon"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

//go:embed rank_prompt.md
var rankPromptTemplate string

//go:embed offer_prompt.md
var offerPromptTemplate string

const defaultMaxLogLength = 200

// Assistant ranks candidate postings and drafts offer messages via Gemini.
// It implements both ai.Ranker and ai.Composer.
type Assistant struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewAssistant(generator contentGenerator, maxLogLength int, log *zap.Logger) *Assistant {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Assistant{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// Rank asks Gemini to score the postings for the candidate and returns up to
// maxCount posting ids, best first. Ids are normalized to strings regardless
// of how the model renders them.
func (a *Assistant) Rank(ctx context.Context, user *salon.UserWishes, postings *salon.Postings, maxCount int) ([]string, error) {
	if user == nil {
		return nil, fmt.Errorf("user profile is required")
	}
	if postings == nil || postings.Len() == 0 {
		return nil, nil
	}
	if maxCount <= 0 || maxCount > postings.Len() {
		maxCount = postings.Len()
	}

	profileJSON, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("marshal user profile: %w", err)
	}

	postingsJSON, err := json.Marshal(postings.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal postings: %w", err)
	}

	prompt := strings.ReplaceAll(rankPromptTemplate, "{{PROFILE_JSON}}", string(profileJSON))
	prompt = strings.ReplaceAll(prompt, "{{POSTINGS_JSON}}", string(postingsJSON))
	prompt = strings.ReplaceAll(prompt, "{{MAX_COUNT}}", strconv.Itoa(maxCount))

	a.logger.Debug("gemini rank request",
		zap.String("user_id", user.UserID),
		zap.Int("pool_size", postings.Len()),
		zap.Int("max_count", maxCount),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := a.generator.GenerateContent(ctx, "", prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini rank response",
		zap.String("user_id", user.UserID),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	return parseRankedIDs(raw)
}

// ComposeOffer asks Gemini to draft the scouting message for one posting.
func (a *Assistant) ComposeOffer(ctx context.Context, user *salon.UserWishes, posting *salon.Posting) (string, error) {
	if user == nil {
		return "", fmt.Errorf("user profile is required")
	}
	if posting == nil {
		return "", fmt.Errorf("posting is required")
	}

	profileJSON, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("marshal user profile: %w", err)
	}

	postingJSON, err := json.Marshal(posting)
	if err != nil {
		return "", fmt.Errorf("marshal posting: %w", err)
	}

	prompt := strings.ReplaceAll(offerPromptTemplate, "{{PROFILE_JSON}}", string(profileJSON))
	prompt = strings.ReplaceAll(prompt, "{{POSTING_JSON}}", string(postingJSON))

	raw, err := a.generator.GenerateContent(ctx, "", prompt)
	if err != nil {
		return "", err
	}

	a.logger.Debug("gemini offer response",
		zap.String("user_id", user.UserID),
		zap.String("posting_id", posting.ID),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	text := strings.TrimSpace(stripCodeFence(raw))
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty offer message")
	}

	return text, nil
}

func parseRankedIDs(raw string) ([]string, error) {
	cleaned := extractJSON(raw)

	var data struct {
		RankedStoreIDs []json.RawMessage `json:"ranked_store_ids"`
	}
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini ranking response: %w", err)
	}

	ids := make([]string, 0, len(data.RankedStoreIDs))
	for _, rawID := range data.RankedStoreIDs {
		id := coerceID(rawID)
		if id != "" {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// coerceID accepts ids rendered either as JSON strings or numbers.
func coerceID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	return ""
}

func extractJSON(raw string) string {
	raw = stripCodeFence(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		return raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.Trim(strings.TrimSpace(raw), "`")
}
