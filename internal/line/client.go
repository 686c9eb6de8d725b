// Package line is a thin client for the LINE Messaging API, covering the
// push and reply endpoints the offer flow needs.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.line.me"
	contentType    = "application/json"

	requestTimeout = time.Second * 10
)

// Message is one outbound message object in the Messaging API wire format.
type Message struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	AltText  string          `json:"altText,omitempty"`
	Contents json.RawMessage `json:"contents,omitempty"`
}

// TextMessage builds a plain text message.
func TextMessage(text string) Message {
	return Message{Type: "text", Text: text}
}

// FlexMessage builds a flex message from an already-marshaled container.
func FlexMessage(altText string, contents json.RawMessage) Message {
	return Message{Type: "flex", AltText: altText, Contents: contents}
}

type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	logger      *zap.Logger
}

func NewClient(accessToken string, logger *zap.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		baseURL:     defaultBaseURL,
		accessToken: accessToken,
		logger:      logger,
	}
}

// Push sends messages directly to a user.
func (c *Client) Push(ctx context.Context, userID string, messages ...Message) error {
	payload := struct {
		To       string    `json:"to"`
		Messages []Message `json:"messages"`
	}{To: userID, Messages: messages}

	return c.post(ctx, "/v2/bot/message/push", payload)
}

// Reply answers a webhook event using its reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	payload := struct {
		ReplyToken string    `json:"replyToken"`
		Messages   []Message `json:"messages"`
	}{ReplyToken: replyToken, Messages: messages}

	return c.post(ctx, "/v2/bot/message/reply", payload)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Debug("messaging api error response",
			zap.String("path", path),
			zap.String("body", string(detail)),
		)
		return fmt.Errorf("bad status from %s: %s", path, resp.Status)
	}

	return nil
}
