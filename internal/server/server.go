// Package server exposes the HTTP surface: registration webhook, LINE
// callback, LIFF form submissions, the dispatch trigger and health.
package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/lumina-beauty/lumina-offer/internal/dispatch"
	"github.com/lumina-beauty/lumina-offer/internal/line"
	"github.com/lumina-beauty/lumina-offer/internal/mail"
	"github.com/lumina-beauty/lumina-offer/internal/offer"
	"github.com/lumina-beauty/lumina-offer/internal/store"
)

// DispatchSecretHeader carries the shared secret that guards the sweep
// trigger endpoint.
const DispatchSecretHeader = "X-Dispatch-Secret"

// Replier answers LINE webhook events.
type Replier interface {
	Reply(ctx context.Context, replyToken string, messages ...line.Message) error
}

// Server wires the handlers onto an echo instance.
type Server struct {
	echo                *echo.Echo
	offers              *offer.Service
	sweeper             *dispatch.Sweeper
	users               store.Users
	history             store.History
	notifier            mail.Notifier
	replier             Replier
	channelSecret       string
	dispatchSecret      string
	questionnaireLiffID string
	logger              *zap.Logger
}

func New(
	offers *offer.Service,
	sweeper *dispatch.Sweeper,
	users store.Users,
	history store.History,
	notifier mail.Notifier,
	rep Replier,
	channelSecret string,
	dispatchSecret string,
	questionnaireLiffID string,
	logger *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:                e,
		offers:              offers,
		sweeper:             sweeper,
		users:               users,
		history:             history,
		notifier:            notifier,
		replier:             rep,
		channelSecret:       channelSecret,
		dispatchSecret:      dispatchSecret,
		questionnaireLiffID: questionnaireLiffID,
		logger:              logger,
	}
	s.routes()

	return s
}

func (s *Server) routes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.POST("/trigger-offer", s.handleTriggerOffer)
	s.echo.POST("/callback", s.handleCallback)
	s.echo.POST("/submit-schedule", s.handleSubmitSchedule)
	s.echo.POST("/submit-questionnaire", s.handleSubmitQuestionnaire)
	s.echo.POST("/dispatch", s.handleDispatch)
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// backgroundTimeout bounds the registration pipeline once the HTTP response
// has already gone out.
const backgroundTimeout = 5 * time.Minute
