package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/lumina-beauty/lumina-offer/internal/line"
	"github.com/lumina-beauty/lumina-offer/internal/salon"
	"github.com/lumina-beauty/lumina-offer/internal/store"
)

const callbackGuidance = "ご登録ありがとうございます。リッチメニューからプロフィールをご入力ください。"

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "Healthy")
}

// handleTriggerOffer acknowledges immediately and runs the registration
// pipeline in the background. The caller never waits on geocoding or the
// generation capability.
func (s *Server) handleTriggerOffer(c echo.Context) error {
	var user salon.UserWishes
	if err := c.Bind(&user); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{
			Status: "error", Message: "Invalid request body",
		})
	}
	if user.UserID == "" {
		return c.JSON(http.StatusBadRequest, statusResponse{
			Status: "error", Message: "userId is required",
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		s.offers.Register(ctx, &user, time.Now())
	}()

	return c.JSON(http.StatusOK, statusResponse{
		Status: "success", Message: "Offer task accepted",
	})
}

// handleCallback validates the webhook signature and answers text messages
// with fixed guidance.
func (s *Server) handleCallback(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	signature := c.Request().Header.Get("X-Line-Signature")
	if !line.ValidateSignature(s.channelSecret, body, signature) {
		s.logger.Warn("webhook signature mismatch")
		return c.NoContent(http.StatusBadRequest)
	}

	var webhook line.WebhookBody
	if err := json.Unmarshal(body, &webhook); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	ctx := c.Request().Context()
	for _, event := range webhook.Events {
		if event.Type != "message" || event.Message.Type != "text" {
			continue
		}
		if err := s.replier.Reply(ctx, event.ReplyToken, line.TextMessage(callbackGuidance)); err != nil {
			s.logger.Warn("webhook reply failed",
				zap.String("user_id", event.Source.UserID),
				zap.Error(err),
			)
		}
	}

	return c.String(http.StatusOK, "OK")
}

type scheduleRequest struct {
	UserID  string `json:"userId"`
	SalonID string `json:"salonId"`
	salon.Interview
}

func (s *Server) handleSubmitSchedule(c echo.Context) error {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{
			Status: "error", Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	err := s.history.MarkScheduling(ctx, req.UserID, req.SalonID, &req.Interview)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, statusResponse{
			Status: "error", Message: "Offer not found",
		})
	}
	if err != nil {
		s.logger.Error("schedule update failed",
			zap.String("user_id", req.UserID),
			zap.String("posting_id", req.SalonID),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, statusResponse{
			Status: "error", Message: "Failed to update offer",
		})
	}

	s.notifyOperator(ctx,
		"【LUMINAオファー】面談日程の新規登録がありました",
		scheduleMailBody(req),
	)

	return c.JSON(http.StatusOK, map[string]string{
		"status":      "success",
		"message":     "Schedule submitted successfully",
		"nextLiffUrl": fmt.Sprintf("https://liff.line.me/%s", s.questionnaireLiffID),
	})
}

type questionnaireRequest struct {
	UserID string `json:"userId"`
	salon.Questionnaire
}

func (s *Server) handleSubmitQuestionnaire(c echo.Context) error {
	var req questionnaireRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{
			Status: "error", Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	err := s.users.SaveQuestionnaire(ctx, req.UserID, &req.Questionnaire)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, statusResponse{
			Status: "error", Message: "User not found",
		})
	}
	if err != nil {
		s.logger.Error("questionnaire update failed",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, statusResponse{
			Status: "error", Message: "Failed to update user",
		})
	}

	userName := req.UserID
	if user, err := s.users.Get(ctx, req.UserID); err == nil && user.FullName != "" {
		userName = user.FullName
	}

	s.notifyOperator(ctx,
		fmt.Sprintf("【LUMINAオファー】%s様からアンケート回答がありました", userName),
		questionnaireMailBody(userName, req),
	)

	return c.JSON(http.StatusOK, statusResponse{
		Status: "success", Message: "Questionnaire submitted successfully",
	})
}

func (s *Server) handleDispatch(c echo.Context) error {
	secret := c.Request().Header.Get(DispatchSecretHeader)
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.dispatchSecret)) != 1 {
		return c.NoContent(http.StatusUnauthorized)
	}

	processed, err := s.sweeper.Sweep(c.Request().Context(), time.Now())
	if err != nil {
		s.logger.Error("queue sweep failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, statusResponse{
			Status: "error", Message: "Sweep failed",
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":    "success",
		"processed": processed,
	})
}

// notifyOperator sends the operator email and only logs failures. Form
// submissions must succeed even when mail delivery is down.
func (s *Server) notifyOperator(ctx context.Context, subject, body string) {
	if err := s.notifier.Notify(ctx, subject, body); err != nil {
		s.logger.Warn("operator notification failed",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

func scheduleMailBody(req scheduleRequest) string {
	return fmt.Sprintf(`以下の内容で、ユーザーから面談希望日時の登録がありました。
速やかにサロンとの日程調整を開始してください。

■ ユーザーID: %s
■ サロンID: %s
■ 希望の面談方法: %s
■ 第1希望: %s %s〜%s
■ 第2希望: %s %s〜%s
■ 第3希望: %s %s〜%s
`,
		req.UserID, req.SalonID, req.Method,
		req.Date1, req.Start1, req.End1,
		req.Date2, req.Start2, req.End2,
		req.Date3, req.Start3, req.End3,
	)
}

func questionnaireMailBody(userName string, req questionnaireRequest) string {
	return fmt.Sprintf(`%s様（ユーザーID: %s）から、面談前アンケートへの回答がありました。
内容を確認し、面談の準備を進めてください。

---
1. お住まいエリア: %s
2. 転職回数: %s
3. 現雇用形態: %s
4. 現役職経験年数: %s
5. 希望雇用形態: %s
6. サロン選びの重視点: %s
7. 現職場の改善点: %s
8. 理想の美容師像: %s
`,
		userName, req.UserID,
		req.Area, req.JobChanges, req.CurrentEmployment, req.ExperienceYears,
		req.DesiredEmployment, req.Priorities, req.ImprovementPoint, req.IdealBeautician,
	)
}
